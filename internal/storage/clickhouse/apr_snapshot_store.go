package clickhouse

import (
	"context"
	"fmt"

	"alm-vault-indexer/internal/domain"
	"alm-vault-indexer/internal/storage"
)

// AprSnapshotStore implements storage.AprSnapshotStore using ClickHouse.
// The feed is append-only; MergeTree enforces no uniqueness and the readers
// tolerate the occasional duplicate row after a redelivery.
type AprSnapshotStore struct {
	conn *Conn
}

// NewAprSnapshotStore creates a new AprSnapshotStore.
func NewAprSnapshotStore(conn *Conn) *AprSnapshotStore {
	return &AprSnapshotStore{conn: conn}
}

// Compile-time interface check.
var _ storage.AprSnapshotStore = (*AprSnapshotStore)(nil)

// InsertBulk appends snapshot rows.
func (s *AprSnapshotStore) InsertBulk(ctx context.Context, snaps []*domain.AprSnapshot) error {
	if len(snaps) == 0 {
		return nil
	}

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO apr_snapshots (
			vault, timestamp, apr_day1, apr_day3, apr_day7, apr_day30, tvl
		)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for _, snap := range snaps {
		err = batch.Append(
			snap.Vault, uint64(snap.Timestamp),
			snap.AprDay1, snap.AprDay3, snap.AprDay7, snap.AprDay30, snap.TVL,
		)
		if err != nil {
			return fmt.Errorf("append to batch: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}

	return nil
}

// GetByVault retrieves all snapshots for a vault, ordered by timestamp ASC.
func (s *AprSnapshotStore) GetByVault(ctx context.Context, vault string) ([]*domain.AprSnapshot, error) {
	query := `
		SELECT vault, timestamp, apr_day1, apr_day3, apr_day7, apr_day30, tvl
		FROM apr_snapshots
		WHERE vault = ?
		ORDER BY timestamp ASC
	`

	rows, err := s.conn.Query(ctx, query, vault)
	if err != nil {
		return nil, fmt.Errorf("get apr snapshots: %w", err)
	}
	defer rows.Close()

	var snaps []*domain.AprSnapshot
	for rows.Next() {
		var (
			snap domain.AprSnapshot
			ts   uint64
		)
		if err := rows.Scan(&snap.Vault, &ts, &snap.AprDay1, &snap.AprDay3, &snap.AprDay7, &snap.AprDay30, &snap.TVL); err != nil {
			return nil, fmt.Errorf("scan apr snapshot: %w", err)
		}
		snap.Timestamp = int64(ts)
		snaps = append(snaps, &snap)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate apr snapshots: %w", err)
	}
	return snaps, nil
}
