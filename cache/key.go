// Package cache implements the binding cache: a concurrent, per-node cache
// of name→objectId bindings with range-negative information, per-entry
// state machines, and pending-previous interlocks between neighboring
// entries in key order.
package cache

// BindingKey is a totally ordered name identifying a binding. Order is
// lexicographic on the underlying bytes; the synthetic sentinels First and
// Last compare below/above every real name respectively.
type BindingKey struct {
	name     string
	sentinel sentinelKind
}

type sentinelKind int8

// Ordered so that integer comparison of sentinel values matches key order:
// First sorts below every real name, Last sorts above every real name.
const (
	sentinelFirst sentinelKind = iota
	sentinelNone
	sentinelLast
)

// Key constructs an ordinary BindingKey from a name.
func Key(name string) BindingKey {
	return BindingKey{name: name}
}

// First is the synthetic sentinel less than every real name. It is never
// stored as a cache entry; it only bounds queries and ranges from below.
var First = BindingKey{sentinel: sentinelFirst}

// Last is the synthetic sentinel greater than every real name. Exactly one
// cache entry for Last exists at all times, holding the reserved value
// LastValue, and it is never considered bound.
var Last = BindingKey{sentinel: sentinelLast}

// LastValue is the reserved object id stored in the Last sentinel's entry.
const LastValue int64 = -2

// RemovedValue marks an entry whose binding has been removed.
const RemovedValue int64 = -1

// Less reports whether k sorts strictly before other.
func (k BindingKey) Less(other BindingKey) bool {
	if k.sentinel != other.sentinel {
		return k.sentinel < other.sentinel
	}
	if k.sentinel != sentinelNone {
		return false
	}
	return k.name < other.name
}

// Equal reports whether k and other identify the same key.
func (k BindingKey) Equal(other BindingKey) bool {
	return k.sentinel == other.sentinel && k.name == other.name
}

// IsFirst reports whether k is the First sentinel.
func (k BindingKey) IsFirst() bool { return k.sentinel == sentinelFirst }

// IsLast reports whether k is the Last sentinel.
func (k BindingKey) IsLast() bool { return k.sentinel == sentinelLast }

// String returns the underlying name, or a sentinel label.
func (k BindingKey) String() string {
	switch k.sentinel {
	case sentinelFirst:
		return "<first>"
	case sentinelLast:
		return "<last>"
	default:
		return k.name
	}
}
