package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

var (
	// ErrNotConfigured indicates the storage pool was not initialised.
	ErrNotConfigured = errors.New("storage: pool not configured")
)

const (
	createSnapshotsSQL = `CREATE TABLE IF NOT EXISTS asset_snapshots (
        cycle_ts    TIMESTAMPTZ NOT NULL,
        symbol      TEXT        NOT NULL,
        asset_class TEXT        NOT NULL,
        price       NUMERIC     NOT NULL,
        change_pct  NUMERIC     NOT NULL,
        range_high  NUMERIC     NOT NULL,
        range_low   NUMERIC     NOT NULL,
        rsi         NUMERIC     NOT NULL,
        favorite    BOOLEAN     NOT NULL DEFAULT FALSE,
        timeframe   TEXT        NOT NULL,
        degraded    BOOLEAN     NOT NULL DEFAULT FALSE,
        created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW(),
        PRIMARY KEY (cycle_ts, symbol)
    );`

	upsertSnapshotSQL = `INSERT INTO asset_snapshots (
        cycle_ts,
        symbol,
        asset_class,
        price,
        change_pct,
        range_high,
        range_low,
        rsi,
        favorite,
        timeframe,
        degraded
    ) VALUES (
        $1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11
    )
    ON CONFLICT (cycle_ts, symbol) DO UPDATE
    SET
        asset_class = EXCLUDED.asset_class,
        price       = EXCLUDED.price,
        change_pct  = EXCLUDED.change_pct,
        range_high  = EXCLUDED.range_high,
        range_low   = EXCLUDED.range_low,
        rsi         = EXCLUDED.rsi,
        favorite    = EXCLUDED.favorite,
        timeframe   = EXCLUDED.timeframe,
        degraded    = EXCLUDED.degraded;`

	snapshotColumns = `cycle_ts,
        symbol,
        asset_class,
        price::text,
        change_pct::text,
        range_high::text,
        range_low::text,
        rsi::text,
        favorite,
        timeframe,
        degraded,
        created_at`

	listSnapshotsBetweenSQL = `SELECT ` + snapshotColumns + `
    FROM asset_snapshots
    WHERE symbol = $1
      AND cycle_ts >= $2
      AND cycle_ts < $3
      AND NOT degraded
    ORDER BY cycle_ts;`

	listRecentSnapshotsSQL = `SELECT ` + snapshotColumns + `
    FROM asset_snapshots
    WHERE ($1 = '' OR symbol = $1)
    ORDER BY cycle_ts DESC, symbol
    LIMIT $2;`

	countSnapshotsSQL = `SELECT COUNT(*) FROM asset_snapshots;`
)

// SnapshotStore defines operations for dashboard snapshot persistence.
type SnapshotStore interface {
	InsertSnapshots(ctx context.Context, snapshots []Snapshot) error
	ListSnapshotsBetween(ctx context.Context, symbol string, from, to time.Time) ([]Snapshot, error)
	ListRecentSnapshots(ctx context.Context, symbol string, limit int) ([]Snapshot, error)
	CountSnapshots(ctx context.Context) (int64, error)
}

// Store provides access to persisted snapshots.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore wires a pgx pool into a Store.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Close releases the underlying pool resources.
func (s *Store) Close() {
	if s == nil || s.pool == nil {
		return
	}
	s.pool.Close()
}

func (s *Store) getPool() (*pgxpool.Pool, error) {
	if s == nil || s.pool == nil {
		return nil, ErrNotConfigured
	}
	return s.pool, nil
}

// EnsureSchema creates the snapshot table when missing.
func (s *Store) EnsureSchema(ctx context.Context) error {
	pool, err := s.getPool()
	if err != nil {
		return err
	}
	if _, err := pool.Exec(ctx, createSnapshotsSQL); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

// InsertSnapshots upserts every snapshot of a cycle in one batch.
func (s *Store) InsertSnapshots(ctx context.Context, snapshots []Snapshot) error {
	if len(snapshots) == 0 {
		return nil
	}
	pool, err := s.getPool()
	if err != nil {
		return err
	}

	batch := &pgx.Batch{}
	for _, snap := range snapshots {
		batch.Queue(upsertSnapshotSQL,
			snap.CycleTS,
			snap.Symbol,
			snap.AssetClass,
			snap.Price.String(),
			snap.ChangePct.String(),
			snap.RangeHigh.String(),
			snap.RangeLow.String(),
			snap.RSI.String(),
			snap.Favorite,
			snap.Timeframe,
			snap.Degraded,
		)
	}

	results := pool.SendBatch(ctx, batch)
	defer results.Close()

	for range snapshots {
		if _, execErr := results.Exec(); execErr != nil {
			return fmt.Errorf("upsert snapshot: %w", execErr)
		}
	}
	return nil
}

// ListSnapshotsBetween lists non-degraded snapshots of symbol within a time window.
func (s *Store) ListSnapshotsBetween(ctx context.Context, symbol string, from, to time.Time) ([]Snapshot, error) {
	pool, err := s.getPool()
	if err != nil {
		return nil, err
	}

	rows, queryErr := pool.Query(ctx, listSnapshotsBetweenSQL, symbol, from, to)
	if queryErr != nil {
		return nil, fmt.Errorf("list snapshots between: %w", queryErr)
	}
	defer rows.Close()

	snapshots := make([]Snapshot, 0)
	for rows.Next() {
		snap, scanErr := scanSnapshot(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		snapshots = append(snapshots, snap)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return snapshots, nil
}

// ListRecentSnapshots lists the most recent snapshots, optionally for one symbol.
func (s *Store) ListRecentSnapshots(ctx context.Context, symbol string, limit int) ([]Snapshot, error) {
	pool, err := s.getPool()
	if err != nil {
		return nil, err
	}

	rows, queryErr := pool.Query(ctx, listRecentSnapshotsSQL, symbol, limit)
	if queryErr != nil {
		return nil, fmt.Errorf("list recent snapshots: %w", queryErr)
	}
	defer rows.Close()

	snapshots := make([]Snapshot, 0, limit)
	for rows.Next() {
		snap, scanErr := scanSnapshot(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		snapshots = append(snapshots, snap)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return snapshots, nil
}

// CountSnapshots counts stored snapshots.
func (s *Store) CountSnapshots(ctx context.Context) (int64, error) {
	pool, err := s.getPool()
	if err != nil {
		return 0, err
	}
	var count int64
	if scanErr := pool.QueryRow(ctx, countSnapshotsSQL).Scan(&count); scanErr != nil {
		return 0, fmt.Errorf("count snapshots: %w", scanErr)
	}
	return count, nil
}

func scanSnapshot(rows pgx.Rows) (Snapshot, error) {
	var (
		snap                                         Snapshot
		priceStr, changeStr, highStr, lowStr, rsiStr string
	)

	if err := rows.Scan(
		&snap.CycleTS,
		&snap.Symbol,
		&snap.AssetClass,
		&priceStr,
		&changeStr,
		&highStr,
		&lowStr,
		&rsiStr,
		&snap.Favorite,
		&snap.Timeframe,
		&snap.Degraded,
		&snap.CreatedAt,
	); err != nil {
		return Snapshot{}, err
	}

	fields := []struct {
		name string
		raw  string
		dst  *decimal.Decimal
	}{
		{"price", priceStr, &snap.Price},
		{"change pct", changeStr, &snap.ChangePct},
		{"range high", highStr, &snap.RangeHigh},
		{"range low", lowStr, &snap.RangeLow},
		{"rsi", rsiStr, &snap.RSI},
	}
	for _, f := range fields {
		value, err := decimal.NewFromString(f.raw)
		if err != nil {
			return Snapshot{}, fmt.Errorf("parse %s: %w", f.name, err)
		}
		*f.dst = value
	}

	return snap, nil
}

var _ SnapshotStore = (*Store)(nil)
