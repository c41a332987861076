package cache

import (
	"testing"
	"time"

	"github.com/dantel35/reddwarf/testutil"
)

func TestConfig_ValidateRejectsBadValues(t *testing.T) {
	cfg := DefaultConfig()
	cfg.PendingPreviousTimeout = 0
	testutil.AssertErrorIs(t, cfg.Validate(), ErrInvalidConfig)

	cfg = DefaultConfig()
	cfg.MaxEntriesPerShard = 0
	testutil.AssertErrorIs(t, cfg.Validate(), ErrInvalidConfig)
}

func TestNew_IgnoresNonPositiveTimeoutOption(t *testing.T) {
	_, err := New(WithPendingPreviousTimeout(-1 * time.Second))
	testutil.AssertNoError(t, err)
}

func TestWithMaxEntriesPerShard_IgnoresNonPositive(t *testing.T) {
	cfg := DefaultConfig()
	opt := WithMaxEntriesPerShard(0)
	opt(&cfg)
	testutil.AssertEqual(t, DefaultMaxEntriesPerShard, cfg.MaxEntriesPerShard)
}

func TestNew_InstallsLastSentinel(t *testing.T) {
	c, err := New()
	testutil.AssertNoError(t, err)
	e, ok := c.lookup(Last)
	testutil.AssertTrue(t, ok)
	testutil.AssertEqual(t, LastValue, e.Value())
}
