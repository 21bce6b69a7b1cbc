// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package publish

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/taibuivan/autolist/internal/platform/database/schema"
	"github.com/taibuivan/autolist/internal/platform/dberr"
)

// PostgresRepository implements [Repository] on sync.publishstate.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository constructs a PostgreSQL backed publish state store.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func stateColumns(alias string) string {
	columns := schema.SyncPublishState.Columns()
	out := make([]string, len(columns))
	for i, column := range columns {
		out[i] = alias + "." + column
	}
	return strings.Join(out, ", ")
}

func scanState(row pgx.Row) (*State, error) {
	var (
		state     State
		listingID *string
		draftRef  *string
	)
	if err := row.Scan(&state.SourceID, &listingID, &state.ContentHash, &draftRef,
		&state.CreatedAt, &state.SyncedAt, &state.HiddenAt); err != nil {
		return nil, err
	}
	if listingID != nil {
		state.ListingID = *listingID
	}
	if draftRef != nil {
		state.DraftRef = *draftRef
	}
	return &state, nil
}

// Get returns the state of one record.
func (repository *PostgresRepository) Get(context context.Context, sourceID int64) (*State, error) {
	table := schema.SyncPublishState
	query := fmt.Sprintf(`SELECT %s FROM %s p WHERE p.%s = $1`, stateColumns("p"), table.Table, table.SourceID)

	state, err := scanState(repository.db.QueryRow(context, query, sourceID))
	if err != nil {
		return nil, dberr.Wrap(err, "get_publish_state")
	}
	return state, nil
}

// upsertQuery inserts a state or merges it into the existing row.
//
// COALESCE keeps an existing listing id: concurrent publishers can never
// replace it, and a draft row is upgraded when the advert is finally posted.
// The hash and sync time follow the listing id that survives, so a losing
// writer never stamps its content onto another writer's advert.
var upsertQuery = func() string {
	table := schema.SyncPublishState
	return fmt.Sprintf(`
		INSERT INTO %[1]s AS p (%[2]s, %[3]s, %[4]s, %[5]s, %[6]s, %[7]s)
		VALUES ($1, NULLIF($2, ''), $3, NULLIF($4, ''), $5, $5)
		ON CONFLICT (%[2]s) DO UPDATE SET
			%[3]s = COALESCE(p.%[3]s, EXCLUDED.%[3]s),
			%[4]s = CASE WHEN p.%[3]s IS NULL OR p.%[3]s = EXCLUDED.%[3]s THEN EXCLUDED.%[4]s ELSE p.%[4]s END,
			%[5]s = COALESCE(EXCLUDED.%[5]s, p.%[5]s),
			%[7]s = CASE WHEN p.%[3]s IS NULL OR p.%[3]s = EXCLUDED.%[3]s THEN EXCLUDED.%[7]s ELSE p.%[7]s END`,
		table.Table, table.SourceID, table.ListingID, table.ContentHash, table.DraftRef, table.CreatedAt, table.SyncedAt,
	)
}()

// Upsert inserts or updates a state on the source id; see [upsertQuery].
func (repository *PostgresRepository) Upsert(context context.Context, state *State) error {
	at := state.SyncedAt
	if at.IsZero() {
		at = time.Now()
	}
	_, err := repository.db.Exec(context, upsertQuery, state.SourceID, state.ListingID, state.ContentHash, state.DraftRef, at)
	return dberr.Wrap(err, "upsert_publish_state")
}

// MarkSynced stores the hash of the content last sent.
func (repository *PostgresRepository) MarkSynced(context context.Context, sourceID int64, hash string, at time.Time) error {
	table := schema.SyncPublishState
	query := fmt.Sprintf(`UPDATE %s SET %s = $2, %s = $3 WHERE %s = $1`,
		table.Table, table.ContentHash, table.SyncedAt, table.SourceID,
	)

	tag, err := repository.db.Exec(context, query, sourceID, hash, at)
	if err != nil {
		return dberr.Wrap(err, "mark_synced")
	}
	if tag.RowsAffected() == 0 {
		return dberr.ErrNotFound
	}
	return nil
}

// MarkHidden sets hiddenat once; later calls keep the first timestamp.
func (repository *PostgresRepository) MarkHidden(context context.Context, sourceID int64, at time.Time) error {
	table := schema.SyncPublishState
	query := fmt.Sprintf(`UPDATE %[1]s SET %[2]s = COALESCE(%[2]s, $2) WHERE %[3]s = $1`,
		table.Table, table.HiddenAt, table.SourceID,
	)

	tag, err := repository.db.Exec(context, query, sourceID, at)
	if err != nil {
		return dberr.Wrap(err, "mark_hidden")
	}
	if tag.RowsAffected() == 0 {
		return dberr.ErrNotFound
	}
	return nil
}

// ListForResync returns visible published records, least recently synced first.
func (repository *PostgresRepository) ListForResync(context context.Context, limit int) ([]*State, error) {
	table := schema.SyncPublishState
	query := fmt.Sprintf(`
		SELECT %s FROM %s p
		WHERE p.%s IS NOT NULL AND p.%s IS NULL
		ORDER BY p.%s ASC, p.%s ASC
		LIMIT $1`,
		stateColumns("p"), table.Table,
		table.ListingID, table.HiddenAt,
		table.SyncedAt, table.SourceID,
	)
	return repository.list(context, "list_for_resync", query, limit)
}

// ListHideCandidates joins the CRM mirror to find published records in a terminal stage.
func (repository *PostgresRepository) ListHideCandidates(context context.Context, stages []string, limit int) ([]*State, error) {
	if len(stages) == 0 {
		return nil, nil
	}

	table, item := schema.SyncPublishState, schema.CRMItem
	query := fmt.Sprintf(`
		SELECT %s FROM %s p
		JOIN %s i ON i.%s = p.%s
		WHERE p.%s IS NOT NULL AND p.%s IS NULL AND i.%s = ANY($2)
		ORDER BY p.%s ASC
		LIMIT $1`,
		stateColumns("p"), table.Table,
		item.Table, item.ID, table.SourceID,
		table.ListingID, table.HiddenAt, item.StageID,
		table.SourceID,
	)
	return repository.list(context, "list_hide_candidates", query, limit, stages)
}

func (repository *PostgresRepository) list(context context.Context, action, query string, limit int, args ...any) ([]*State, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := repository.db.Query(context, query, append([]any{limit}, args...)...)
	if err != nil {
		return nil, dberr.Wrap(err, action)
	}
	defer rows.Close()

	var out []*State
	for rows.Next() {
		state, err := scanState(rows)
		if err != nil {
			return nil, dberr.Wrap(err, action)
		}
		out = append(out, state)
	}
	if err := rows.Err(); err != nil {
		return nil, dberr.Wrap(err, action)
	}
	return out, nil
}
