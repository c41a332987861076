package lock

import (
	"testing"
	"time"

	"github.com/dantel35/reddwarf/testutil"
)

func TestConfig_ValidateRejectsBadValues(t *testing.T) {
	cfg := DefaultConfig()
	testutil.AssertNoError(t, cfg.Validate())

	bad := DefaultConfig()
	bad.NumKeyMaps = 0
	testutil.AssertErrorIs(t, bad.Validate(), ErrInvalidConfig)

	bad2 := DefaultConfig()
	bad2.LockTimeout = 0
	testutil.AssertErrorIs(t, bad2.Validate(), ErrInvalidConfig)
}

func TestNewManager_RejectsInvalidOption(t *testing.T) {
	_, err := NewManager(func(cfg *Config) { cfg.NumKeyMaps = 0 })
	testutil.AssertErrorIs(t, err, ErrInvalidConfig)
}

func TestWithLockTimeout_IgnoresNonPositive(t *testing.T) {
	cfg := DefaultConfig()
	orig := cfg.LockTimeout
	WithLockTimeout(-time.Second)(&cfg)
	testutil.AssertEqual(t, orig, cfg.LockTimeout)
}
