package queue

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/dantel35/reddwarf/testutil"
)

func TestMemorySeqnoStore_RoundTrip(t *testing.T) {
	s := NewMemorySeqnoStore()
	ctx := context.Background()

	last, err := s.LastSeqno(ctx, 1)
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, int32(0), last)

	testutil.AssertNoError(t, s.Checkpoint(ctx, 1, 42))
	last, err = s.LastSeqno(ctx, 1)
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, int32(42), last)
}

func TestMemorySeqnoStore_IndependentPerNode(t *testing.T) {
	s := NewMemorySeqnoStore()
	ctx := context.Background()
	testutil.AssertNoError(t, s.Checkpoint(ctx, 1, 10))
	testutil.AssertNoError(t, s.Checkpoint(ctx, 2, 20))

	l1, _ := s.LastSeqno(ctx, 1)
	l2, _ := s.LastSeqno(ctx, 2)
	testutil.AssertEqual(t, int32(10), l1)
	testutil.AssertEqual(t, int32(20), l2)
}

func TestSQLiteSeqnoStore_PersistsAcrossReopen(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "checkpoints.db")
	ctx := context.Background()

	s1, err := OpenSQLiteSeqnoStore(ctx, path)
	testutil.AssertNoError(t, err)
	testutil.AssertNoError(t, s1.Checkpoint(ctx, 7, 100))
	testutil.AssertNoError(t, s1.Close())

	s2, err := OpenSQLiteSeqnoStore(ctx, path)
	testutil.AssertNoError(t, err)
	defer s2.Close()

	last, err := s2.LastSeqno(ctx, 7)
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, int32(100), last)
}

func TestSQLiteSeqnoStore_UpsertsOnRepeatedCheckpoint(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "checkpoints.db")
	ctx := context.Background()

	s, err := OpenSQLiteSeqnoStore(ctx, path)
	testutil.AssertNoError(t, err)
	defer s.Close()

	testutil.AssertNoError(t, s.Checkpoint(ctx, 1, 5))
	testutil.AssertNoError(t, s.Checkpoint(ctx, 1, 9))

	last, err := s.LastSeqno(ctx, 1)
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, int32(9), last)
}
