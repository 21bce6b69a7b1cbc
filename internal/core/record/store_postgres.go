// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package record

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

// # PostgreSQL Repositories

// PostgresRepository implements [Repository] on the crm.item mirror.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository constructs a PostgreSQL backed record store.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// recordColumns is the projection scanned by [scanRecord].
func recordColumns(alias string) string {
	item := schema.CRMItem
	return fmt.Sprintf(`%[1]s.%[2]s, COALESCE(%[1]s.%[3]s, ''), COALESCE(NULLIF(%[1]s.%[4]s, ''), %[1]s.%[6]s->>'categoryId', ''), %[1]s.%[5]s, %[1]s.%[6]s`,
		alias, item.ID, item.StageID, item.CategoryID, item.CreatedAt, item.Raw,
	)
}

func scanRecord(row pgx.Row) (*Record, error) {
	var (
		id         int64
		stageID    string
		categoryID string
		createdAt  *time.Time
		raw        []byte
	)
	if err := row.Scan(&id, &stageID, &categoryID, &createdAt, &raw); err != nil {
		return nil, err
	}

	var created time.Time
	if createdAt != nil {
		created = *createdAt
	}

	r, err := FromRaw(id, stageID, categoryID, created, raw)
	if err != nil {
		return nil, err
	}
	if r.CreatedAt.IsZero() {
		if parsed, err := time.Parse(time.RFC3339, r.Get("createdTime").String()); err == nil {
			r.CreatedAt = parsed
		}
	}
	return r, nil
}

// Get returns one record by id.
func (repository *PostgresRepository) Get(context context.Context, id int64) (*Record, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s i WHERE i.%s = $1`,
		recordColumns("i"), schema.CRMItem.Table, schema.CRMItem.ID,
	)

	r, err := scanRecord(repository.db.QueryRow(context, query, id))
	if err != nil {
		return nil, dberr.Wrap(err, "get_record")
	}
	return r, nil
}

/*
ListCandidates returns unpublished records matching category, stage and recency.

Description: The publish-state anti-join guarantees that a record with any
state row (published, drafted or hidden) is never offered again. Photo and
required-field checks need decoded values and run afterwards in [Criteria];
callers page with Offset until they have enough survivors.
*/
func (repository *PostgresRepository) ListCandidates(context context.Context, q CandidateQuery) ([]*Record, error) {
	item := schema.CRMItem
	state := schema.SyncPublishState

	var queryBuilder strings.Builder
	var args []any
	argID := 1

	queryBuilder.WriteString(fmt.Sprintf(`
		SELECT %s
		FROM %s i
		LEFT JOIN %s s ON s.%s = i.%s
		WHERE s.%s IS NULL`,
		recordColumns("i"), item.Table, state.Table, state.SourceID, item.ID, state.SourceID,
	))

	// Category lives in the column or, for older exports, only in the raw copy
	if q.CategoryID != "" {
		queryBuilder.WriteString(fmt.Sprintf(" AND COALESCE(NULLIF(i.%s, ''), i.%s->>'categoryId') = $%d", item.CategoryID, item.Raw, argID))
		args = append(args, q.CategoryID)
		argID++
	}

	// Stage allow-list
	if len(q.Stages) > 0 {
		queryBuilder.WriteString(fmt.Sprintf(" AND i.%s = ANY($%d)", item.StageID, argID))
		args = append(args, q.Stages)
		argID++
	}

	// Recency bound (steady mode only)
	if !q.CreatedAfter.IsZero() {
		queryBuilder.WriteString(fmt.Sprintf(" AND i.%s >= $%d", item.CreatedAt, argID))
		args = append(args, q.CreatedAfter)
		argID++
	}

	// Parked candidates
	if len(q.Exclude) > 0 {
		queryBuilder.WriteString(fmt.Sprintf(" AND i.%s <> ALL($%d::bigint[])", item.ID, argID))
		args = append(args, q.Exclude)
		argID++
	}

	limit := q.Limit
	if limit <= 0 {
		limit = 50
	}
	queryBuilder.WriteString(fmt.Sprintf(" ORDER BY i.%s DESC NULLS LAST, i.%s DESC LIMIT $%d", item.CreatedAt, item.ID, argID))
	args = append(args, limit)
	argID++

	if q.Offset > 0 {
		queryBuilder.WriteString(fmt.Sprintf(" OFFSET $%d", argID))
		args = append(args, q.Offset)
	}

	rows, err := repository.db.Query(context, queryBuilder.String(), args...)
	if err != nil {
		return nil, dberr.Wrap(err, "list_candidates")
	}
	defer rows.Close()

	var records []*Record
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, dberr.Wrap(err, "scan_candidate")
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, dberr.Wrap(err, "list_candidates")
	}

	return records, nil
}

// # Metadata Repository

// PostgresMetadataRepository implements [MetadataRepository] on crm.fieldmeta and crm.fieldenum.
type PostgresMetadataRepository struct {
	db *pgxpool.Pool
}

// NewPostgresMetadataRepository constructs a PostgreSQL backed metadata store.
func NewPostgresMetadataRepository(db *pgxpool.Pool) *PostgresMetadataRepository {
	return &PostgresMetadataRepository{db: db}
}

// ListMetadata returns every field descriptor of an entity, joined with its stored enum map.
func (repository *PostgresMetadataRepository) ListMetadata(context context.Context, entityKey string) ([]RawMetadata, error) {
	meta := schema.CRMFieldMeta
	enum := schema.CRMFieldEnum

	query := fmt.Sprintf(`
		SELECT m.%s, COALESCE(m.%s, ''), COALESCE(m.%s, ''), m.%s, m.%s, e.%s
		FROM %s m
		LEFT JOIN %s e ON e.%s = m.%s AND e.%s = m.%s
		WHERE m.%s = $1
		ORDER BY m.%s`,
		meta.FieldID, meta.FieldType, meta.Title, meta.Settings, meta.Labels, enum.EnumMap,
		meta.Table,
		enum.Table, enum.EntityKey, meta.EntityKey, enum.FieldID, meta.FieldID,
		meta.EntityKey,
		meta.FieldID,
	)

	rows, err := repository.db.Query(context, query, entityKey)
	if err != nil {
		return nil, dberr.Wrap(err, "list_metadata")
	}
	defer rows.Close()

	var out []RawMetadata
	for rows.Next() {
		var row RawMetadata
		var enumMap map[string]any
		if err := rows.Scan(&row.FieldID, &row.CRMType, &row.Title, &row.Settings, &row.Labels, &enumMap); err != nil {
			return nil, dberr.Wrap(err, "scan_metadata")
		}
		if len(enumMap) > 0 {
			row.EnumMap = make(map[string]string, len(enumMap))
			for code, label := range enumMap {
				row.EnumMap[code] = fmt.Sprint(label)
			}
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, dberr.Wrap(err, "list_metadata")
	}

	return out, nil
}
