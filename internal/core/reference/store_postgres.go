// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package reference

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/taibuivan/autolist/internal/platform/database/schema"
	"github.com/taibuivan/autolist/internal/platform/dberr"
)

// PostgresRepository implements [Repository] on sync.referencelabel.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository constructs a PostgreSQL backed label store.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func splitKeys(keys []Key) ([]int64, []int64) {
	catalogs := make([]int64, 0, len(keys))
	entities := make([]int64, 0, len(keys))
	for _, key := range keys {
		catalogs = append(catalogs, key.CatalogID)
		entities = append(entities, key.EntityID)
	}
	return catalogs, entities
}

// LoadLabels reads stored labels for keys in a single round-trip.
func (repository *PostgresRepository) LoadLabels(context context.Context, keys []Key) (Labels, error) {
	out := Labels{}
	if len(keys) == 0 {
		return out, nil
	}

	table := schema.SyncReferenceLabel
	query := fmt.Sprintf(`
		SELECT l.%s, l.%s, l.%s
		FROM unnest($1::bigint[], $2::bigint[]) AS k(catalogid, entityid)
		JOIN %s l ON l.%s = k.catalogid AND l.%s = k.entityid`,
		table.CatalogID, table.EntityID, table.Label,
		table.Table, table.CatalogID, table.EntityID,
	)

	catalogs, entities := splitKeys(keys)
	rows, err := repository.db.Query(context, query, catalogs, entities)
	if err != nil {
		return nil, dberr.Wrap(err, "load_labels")
	}
	defer rows.Close()

	for rows.Next() {
		var key Key
		var label string
		if err := rows.Scan(&key.CatalogID, &key.EntityID, &label); err != nil {
			return nil, dberr.Wrap(err, "scan_label")
		}
		out[key] = label
	}
	if err := rows.Err(); err != nil {
		return nil, dberr.Wrap(err, "load_labels")
	}

	return out, nil
}

// SaveLabels upserts labels; concurrent writers simply overwrite each other.
func (repository *PostgresRepository) SaveLabels(context context.Context, labels Labels) error {
	if len(labels) == 0 {
		return nil
	}

	keys := make([]Key, 0, len(labels))
	names := make([]string, 0, len(labels))
	for key, label := range labels {
		keys = append(keys, key)
		names = append(names, label)
	}
	catalogs, entities := splitKeys(keys)

	table := schema.SyncReferenceLabel
	query := fmt.Sprintf(`
		INSERT INTO %s (%s, %s, %s, %s)
		SELECT k.catalogid, k.entityid, k.label, NOW()
		FROM unnest($1::bigint[], $2::bigint[], $3::text[]) AS k(catalogid, entityid, label)
		ON CONFLICT (%s, %s) DO UPDATE SET %s = EXCLUDED.%s, %s = NOW()`,
		table.Table, table.CatalogID, table.EntityID, table.Label, table.UpdatedAt,
		table.CatalogID, table.EntityID, table.Label, table.Label, table.UpdatedAt,
	)

	_, err := repository.db.Exec(context, query, catalogs, entities, names)
	return dberr.Wrap(err, "save_labels")
}
