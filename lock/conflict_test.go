package lock

import (
	"strings"
	"testing"

	"github.com/dantel35/reddwarf/testutil"
)

func TestConflictType_String(t *testing.T) {
	testutil.AssertEqual(t, "blocked", Blocked.String())
	testutil.AssertEqual(t, "timeout", Timeout.String())
	testutil.AssertEqual(t, "deadlock", Deadlock.String())
	testutil.AssertEqual(t, "interrupted", Interrupted.String())
}

func TestConflict_Error(t *testing.T) {
	c := &Conflict{Type: Blocked, Key: "k", Owner: "someone"}
	testutil.AssertTrue(t, strings.Contains(c.Error(), "blocked"))
	testutil.AssertTrue(t, strings.Contains(c.Error(), "k"))

	c2 := &Conflict{Type: Timeout, Key: "k"}
	testutil.AssertTrue(t, strings.Contains(c2.Error(), "timeout"))
}
