package cache

import (
	"testing"

	"github.com/dantel35/reddwarf/testutil"
)

func TestBindingKey_FirstSortsBeforeRealKeys(t *testing.T) {
	testutil.AssertTrue(t, First.Less(Key("a")))
	testutil.AssertFalse(t, Key("a").Less(First))
}

func TestBindingKey_LastSortsAfterRealKeys(t *testing.T) {
	testutil.AssertTrue(t, Key("zzzz").Less(Last))
	testutil.AssertFalse(t, Last.Less(Key("zzzz")))
}

func TestBindingKey_RealKeyOrdering(t *testing.T) {
	testutil.AssertTrue(t, Key("a").Less(Key("b")))
	testutil.AssertFalse(t, Key("b").Less(Key("a")))
}

func TestBindingKey_Equal(t *testing.T) {
	testutil.AssertTrue(t, Key("a").Equal(Key("a")))
	testutil.AssertTrue(t, First.Equal(First))
	testutil.AssertFalse(t, First.Equal(Key("a")))
}

func TestBindingKey_SentinelLabels(t *testing.T) {
	testutil.AssertTrue(t, First.IsFirst())
	testutil.AssertTrue(t, Last.IsLast())
	testutil.AssertFalse(t, Key("a").IsFirst())
	testutil.AssertEqual(t, "<first>", First.String())
	testutil.AssertEqual(t, "<last>", Last.String())
	testutil.AssertEqual(t, "a", Key("a").String())
}

func TestLastValue(t *testing.T) {
	testutil.AssertEqual(t, int64(-2), LastValue)
}

func TestRemovedValue(t *testing.T) {
	testutil.AssertEqual(t, int64(-1), RemovedValue)
}
