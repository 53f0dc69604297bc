package postgres

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"

	"SidraStore/internal/core/domain"
	"SidraStore/internal/core/ports"
)

type recordRepository struct {
	db  *DB
	log zerolog.Logger
}

var _ ports.CheckoutRecordRepository = (*recordRepository)(nil) // Ensure compliance

// NewRecordRepository creates a repository archiving checkout record
// snapshots as jsonb.
func NewRecordRepository(db *DB, baseLogger *zerolog.Logger) ports.CheckoutRecordRepository {
	return &recordRepository{
		db:  db,
		log: baseLogger.With().Str("component", "record_repo").Logger(),
	}
}

// Upsert merges the snapshot into the stored record for visitorID. The
// merge happens server-side with the jsonb || operator so concurrent
// writers never drop each other's keys.
func (r *recordRepository) Upsert(ctx context.Context, visitorID string, record domain.Record) error {
	raw, err := json.Marshal(record)
	if err != nil {
		r.log.Error().Err(err).Str("visitor_id", visitorID).Msg("Failed to encode checkout record")
		return err
	}

	query := `
		INSERT INTO checkout_records (visitor_id, data, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (visitor_id)
		DO UPDATE SET data = checkout_records.data || EXCLUDED.data, updated_at = NOW()
	`
	if _, err := r.db.pool.Exec(ctx, query, visitorID, raw); err != nil {
		r.log.Error().Err(err).Str("visitor_id", visitorID).Msg("Failed to upsert checkout record")
		return err
	}
	return nil
}

// Get returns the stored record, or nil, nil when absent.
func (r *recordRepository) Get(ctx context.Context, visitorID string) (domain.Record, error) {
	query := `SELECT data FROM checkout_records WHERE visitor_id = $1`

	var raw []byte
	err := r.db.pool.QueryRow(ctx, query, visitorID).Scan(&raw)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		r.log.Error().Err(err).Str("visitor_id", visitorID).Msg("Failed to query checkout record")
		return nil, err
	}

	var record domain.Record
	if err := json.Unmarshal(raw, &record); err != nil {
		r.log.Error().Err(err).Str("visitor_id", visitorID).Msg("Failed to decode checkout record")
		return nil, err
	}
	return record, nil
}

// ListRecent returns the most recently updated records, newest first.
func (r *recordRepository) ListRecent(ctx context.Context, limit int) ([]ports.StoredRecord, error) {
	query := `
		SELECT visitor_id, data FROM checkout_records
		ORDER BY updated_at DESC LIMIT $1
	`
	rows, err := r.db.pool.Query(ctx, query, limit)
	if err != nil {
		r.log.Error().Err(err).Msg("Failed to query recent checkout records")
		return nil, err
	}
	defer rows.Close()

	var out []ports.StoredRecord
	for rows.Next() {
		var visitorID string
		var raw []byte
		if err := rows.Scan(&visitorID, &raw); err != nil {
			r.log.Error().Err(err).Msg("Failed to scan checkout record row")
			return nil, err
		}
		var record domain.Record
		if err := json.Unmarshal(raw, &record); err != nil {
			r.log.Error().Err(err).Str("visitor_id", visitorID).Msg("Failed to decode checkout record")
			return nil, err
		}
		out = append(out, ports.StoredRecord{VisitorID: visitorID, Record: record})
	}
	return out, rows.Err()
}
