package registry

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/klejdi94/basis/core"
	"github.com/lib/pq"
)

// PostgresRegistry stores class definitions in PostgreSQL.
type PostgresRegistry struct {
	db    *sql.DB
	table string
}

// NewPostgresRegistry creates a registry. table defaults to "classes". If createTable is true, the table is created.
func NewPostgresRegistry(ctx context.Context, db *sql.DB, table string, createTable bool) (*PostgresRegistry, error) {
	if table == "" {
		table = "classes"
	}
	r := &PostgresRegistry{db: db, table: pq.QuoteIdentifier(table)}
	if createTable {
		if err := r.createTable(ctx, table); err != nil {
			return nil, fmt.Errorf("postgres registry: %w", err)
		}
	}
	return r, nil
}

func (r *PostgresRegistry) createTable(ctx context.Context, raw string) error {
	q := `CREATE TABLE IF NOT EXISTS ` + r.table + ` (
		id VARCHAR(255) NOT NULL,
		version VARCHAR(64) NOT NULL,
		name VARCHAR(255),
		description TEXT,
		fields JSONB,
		metadata JSONB,
		stage VARCHAR(32) NOT NULL DEFAULT 'dev',
		tags TEXT[] NOT NULL DEFAULT '{}',
		created_at TIMESTAMPTZ,
		updated_at TIMESTAMPTZ,
		PRIMARY KEY (id, version)
	)`
	if _, err := r.db.ExecContext(ctx, q); err != nil {
		return err
	}
	idx := pq.QuoteIdentifier("idx_" + raw + "_id_stage")
	_, err := r.db.ExecContext(ctx, `CREATE INDEX IF NOT EXISTS `+idx+` ON `+r.table+`(id, stage)`)
	return err
}

const pgColumns = `id, version, name, description, fields, metadata, stage, tags, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanClass(row rowScanner) (*core.Class, entryMeta, error) {
	var (
		c                core.Class
		meta             entryMeta
		name, desc       sql.NullString
		fields, md       []byte
		stage            string
		tags             pq.StringArray
		created, updated sql.NullTime
	)
	if err := row.Scan(&c.ID, &c.Version, &name, &desc, &fields, &md, &stage, &tags, &created, &updated); err != nil {
		return nil, meta, err
	}
	c.Name, c.Description = name.String, desc.String
	c.CreatedAt, c.UpdatedAt = created.Time, updated.Time
	if len(fields) > 0 {
		if err := json.Unmarshal(fields, &c.Fields); err != nil {
			return nil, meta, fmt.Errorf("postgres registry decode fields: %w", err)
		}
	}
	if len(md) > 0 {
		if err := json.Unmarshal(md, &c.Metadata); err != nil {
			return nil, meta, fmt.Errorf("postgres registry decode metadata: %w", err)
		}
	}
	meta = entryMeta{Stage: Stage(stage), Tags: []string(tags), CreatedAt: c.CreatedAt, UpdatedAt: c.UpdatedAt}
	return &c, meta, nil
}

// Store inserts or updates a class version. Stage and tags of an existing row are kept.
func (r *PostgresRegistry) Store(ctx context.Context, class *core.Class) error {
	if err := checkClass("postgres", class); err != nil {
		return err
	}
	fields, err := json.Marshal(class.Fields)
	if err != nil {
		return fmt.Errorf("postgres registry encode fields: %w", err)
	}
	metadata, err := json.Marshal(class.Metadata)
	if err != nil {
		return fmt.Errorf("postgres registry encode metadata: %w", err)
	}
	now := time.Now()
	created := class.CreatedAt
	if created.IsZero() {
		created = now
	}
	q := `INSERT INTO ` + r.table + ` (id, version, name, description, fields, metadata, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id, version) DO UPDATE SET
			name = EXCLUDED.name, description = EXCLUDED.description,
			fields = EXCLUDED.fields, metadata = EXCLUDED.metadata,
			updated_at = EXCLUDED.updated_at`
	_, err = r.db.ExecContext(ctx, q,
		class.ID, class.Version, class.Name, class.Description, fields, metadata, created, now)
	return err
}

func (r *PostgresRegistry) getOne(ctx context.Context, where string, args ...interface{}) (*core.Class, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+pgColumns+` FROM `+r.table+` WHERE `+where+` LIMIT 1`, args...)
	c, _, err := scanClass(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, core.ErrClassNotFound
	}
	return c, err
}

// Get returns a class by id and version.
func (r *PostgresRegistry) Get(ctx context.Context, id, version string) (*core.Class, error) {
	return r.getOne(ctx, `id = $1 AND version = $2`, id, version)
}

// GetProduction returns the production version for the id.
func (r *PostgresRegistry) GetProduction(ctx context.Context, id string) (*core.Class, error) {
	return r.getOne(ctx, `id = $1 AND stage = 'production'`, id)
}

// List returns classes matching the filter. Tag matching is done in SQL.
func (r *PostgresRegistry) List(ctx context.Context, filter Filter) ([]*core.Class, error) {
	q := `SELECT ` + pgColumns + ` FROM ` + r.table + ` WHERE 1=1`
	var args []interface{}
	arg := func(v interface{}) string {
		args = append(args, v)
		return "$" + strconv.Itoa(len(args))
	}
	if len(filter.IDs) > 0 {
		q += ` AND id = ANY(` + arg(pq.Array(filter.IDs)) + `)`
	}
	if filter.Stage != "" {
		q += ` AND stage = ` + arg(string(filter.Stage))
	}
	if len(filter.Tags) > 0 {
		q += ` AND tags @> ` + arg(pq.Array(filter.Tags))
	}
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*core.Class
	for rows.Next() {
		c, _, err := scanClass(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	// Version ordering is semantic, so paging happens after the scan.
	return page(out, filter), nil
}

// ListVersions returns version info for an id, oldest version first.
func (r *PostgresRegistry) ListVersions(ctx context.Context, id string) ([]VersionInfo, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+pgColumns+` FROM `+r.table+` WHERE id = $1`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var infos []VersionInfo
	for rows.Next() {
		c, meta, err := scanClass(rows)
		if err != nil {
			return nil, err
		}
		infos = append(infos, VersionInfo{
			ID:        c.ID,
			Version:   c.Version,
			Stage:     meta.Stage,
			Tags:      meta.Tags,
			CreatedAt: c.CreatedAt,
			UpdatedAt: c.UpdatedAt,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	sortVersionInfos(infos)
	return infos, nil
}

// Promote sets the stage for id+version inside a transaction. Promoting to
// production demotes the previous production row to staging.
func (r *PostgresRegistry) Promote(ctx context.Context, id, version string, stage Stage) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	if stage == StageProduction {
		if _, err := tx.ExecContext(ctx,
			`UPDATE `+r.table+` SET stage = 'staging' WHERE id = $1 AND stage = 'production' AND version <> $2`,
			id, version); err != nil {
			return err
		}
	}
	res, err := tx.ExecContext(ctx,
		`UPDATE `+r.table+` SET stage = $1, updated_at = $2 WHERE id = $3 AND version = $4`,
		string(stage), time.Now(), id, version)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return core.ErrClassNotFound
	}
	return tx.Commit()
}

// Delete removes a class version.
func (r *PostgresRegistry) Delete(ctx context.Context, id, version string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM `+r.table+` WHERE id = $1 AND version = $2`, id, version)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return core.ErrClassNotFound
	}
	return nil
}

// Tag sets tags for a class version.
func (r *PostgresRegistry) Tag(ctx context.Context, id, version string, tags []string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE `+r.table+` SET tags = $1 WHERE id = $2 AND version = $3`,
		pq.StringArray(append([]string{}, tags...)), id, version)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return core.ErrClassNotFound
	}
	return nil
}
