package queue

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

// SeqnoStore persists each node's lastSeqno so that a server restart does
// not re-execute requests it already committed.
type SeqnoStore interface {
	// LastSeqno returns the checkpointed sequence number for nodeID, or
	// 0 if none has been recorded.
	LastSeqno(ctx context.Context, nodeID int64) (int32, error)

	// Checkpoint records seqno as the latest committed sequence number
	// for nodeID.
	Checkpoint(ctx context.Context, nodeID int64, seqno int32) error
}

// memorySeqnoStore is a SeqnoStore backed by an in-process map, used by
// tests and single-process deployments that accept losing dedupe state
// on crash.
type memorySeqnoStore struct {
	seqnos map[int64]int32
}

// NewMemorySeqnoStore returns a SeqnoStore with no persistence across
// restarts.
func NewMemorySeqnoStore() SeqnoStore {
	return &memorySeqnoStore{seqnos: make(map[int64]int32)}
}

func (s *memorySeqnoStore) LastSeqno(_ context.Context, nodeID int64) (int32, error) {
	return s.seqnos[nodeID], nil
}

func (s *memorySeqnoStore) Checkpoint(_ context.Context, nodeID int64, seqno int32) error {
	s.seqnos[nodeID] = seqno
	return nil
}

// SQLiteSeqnoStore persists lastSeqno checkpoints to a sqlite database,
// surviving server restarts. Schema is a single table keyed by node id.
type SQLiteSeqnoStore struct {
	db *sql.DB
}

// OpenSQLiteSeqnoStore opens (creating if necessary) a sqlite database at
// path and ensures the checkpoint table exists.
func OpenSQLiteSeqnoStore(ctx context.Context, path string) (*SQLiteSeqnoStore, error) {
	dsn := fmt.Sprintf("file:%s?_busy_timeout=5000&_journal_mode=WAL&_synchronous=NORMAL", path)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	const schema = `CREATE TABLE IF NOT EXISTS seqno_checkpoints (
		node_id INTEGER PRIMARY KEY,
		last_seqno INTEGER NOT NULL
	);`
	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &SQLiteSeqnoStore{db: db}, nil
}

func (s *SQLiteSeqnoStore) LastSeqno(ctx context.Context, nodeID int64) (int32, error) {
	var seqno int32
	err := s.db.QueryRowContext(ctx,
		`SELECT last_seqno FROM seqno_checkpoints WHERE node_id = ?`, nodeID,
	).Scan(&seqno)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return seqno, nil
}

func (s *SQLiteSeqnoStore) Checkpoint(ctx context.Context, nodeID int64, seqno int32) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO seqno_checkpoints (node_id, last_seqno) VALUES (?, ?)
		ON CONFLICT(node_id) DO UPDATE SET last_seqno = excluded.last_seqno
	`, nodeID, seqno)
	return err
}

// Close releases the underlying database handle.
func (s *SQLiteSeqnoStore) Close() error { return s.db.Close() }
