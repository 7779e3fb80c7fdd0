package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"parish/internal/core/apperror"
	"parish/internal/core/entity"
	"parish/internal/core/id"
	"parish/internal/domain"
)

var tracer = otel.Tracer("parish/storage")

const recordsTable = "entity_records"

var recordColumns = []string{
	"id", "entity_type", "status", "deleted_at", "deleted_by",
	"version", "protected", "church_id", "foreign_keys", "attributes",
}

// Store implements domain.Store on a single entity_records table.
// Foreign keys and type-specific attributes live in JSONB columns so
// one table serves every entity type.
type Store struct {
	pool *Pool
}

var _ domain.Store = (*Store)(nil)

// NewStore creates a postgres-backed entity store.
func NewStore(pool *Pool) *Store {
	return &Store{pool: pool}
}

// Migrate creates the records table if it does not exist.
func (s *Store) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS entity_records (
			id UUID PRIMARY KEY,
			entity_type TEXT NOT NULL,
			status TEXT NOT NULL DEFAULT 'active',
			deleted_at TIMESTAMPTZ,
			deleted_by TEXT,
			version INT NOT NULL DEFAULT 1,
			protected BOOLEAN NOT NULL DEFAULT FALSE,
			church_id TEXT NOT NULL,
			foreign_keys JSONB NOT NULL DEFAULT '{}',
			attributes JSONB NOT NULL DEFAULT '{}'
		);
		CREATE INDEX IF NOT EXISTS idx_entity_records_type
			ON entity_records (entity_type, status);
		CREATE INDEX IF NOT EXISTS idx_entity_records_fk
			ON entity_records USING gin (foreign_keys);
	`)
	if err != nil {
		return apperror.NewStoreUnavailable(err)
	}
	return nil
}

// builder returns a squirrel builder with PostgreSQL placeholder format.
func (s *Store) builder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
}

// recordRow is the scan target; JSONB columns are decoded explicitly.
type recordRow struct {
	ID          id.ID      `db:"id"`
	EntityType  string     `db:"entity_type"`
	Status      string     `db:"status"`
	DeletedAt   *time.Time `db:"deleted_at"`
	DeletedBy   *string    `db:"deleted_by"`
	Version     int        `db:"version"`
	Protected   bool       `db:"protected"`
	ChurchID    string     `db:"church_id"`
	ForeignKeys []byte     `db:"foreign_keys"`
	Attributes  []byte     `db:"attributes"`
}

func (r *recordRow) toRecord() (*entity.Record, error) {
	rec := &entity.Record{
		ID:        r.ID,
		Type:      entity.Type(r.EntityType),
		Status:    entity.Status(r.Status),
		DeletedAt: r.DeletedAt,
		Version:   r.Version,
		Protected: r.Protected,
		ChurchID:  r.ChurchID,
	}
	if r.DeletedBy != nil {
		rec.DeletedBy = *r.DeletedBy
	}
	if len(r.ForeignKeys) > 0 {
		if err := json.Unmarshal(r.ForeignKeys, &rec.ForeignKeys); err != nil {
			return nil, fmt.Errorf("decode foreign_keys: %w", err)
		}
	}
	if len(r.Attributes) > 0 {
		if err := json.Unmarshal(r.Attributes, &rec.Attributes); err != nil {
			return nil, fmt.Errorf("decode attributes: %w", err)
		}
	}
	return rec, nil
}

func rowValues(rec *entity.Record) (map[string]any, error) {
	fks, err := json.Marshal(rec.ForeignKeys)
	if err != nil {
		return nil, fmt.Errorf("encode foreign_keys: %w", err)
	}
	attrs, err := json.Marshal(rec.Attributes)
	if err != nil {
		return nil, fmt.Errorf("encode attributes: %w", err)
	}
	if rec.ForeignKeys == nil {
		fks = []byte("{}")
	}
	if rec.Attributes == nil {
		attrs = []byte("{}")
	}
	return map[string]any{
		"id":           rec.ID,
		"entity_type":  string(rec.Type),
		"status":       string(rec.Status),
		"deleted_at":   rec.DeletedAt,
		"deleted_by":   rec.DeletedBy,
		"protected":    rec.Protected,
		"church_id":    rec.ChurchID,
		"foreign_keys": fks,
		"attributes":   attrs,
	}, nil
}

func (s *Store) Get(ctx context.Context, recordID id.ID) (*entity.Record, error) {
	q := s.builder().
		Select(recordColumns...).
		From(recordsTable).
		Where(squirrel.Eq{"id": recordID}).
		Limit(1)

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var row recordRow
	if err := pgxscan.Get(ctx, s.pool, &row, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("record", recordID.String())
		}
		return nil, apperror.NewStoreUnavailable(err)
	}
	return row.toRecord()
}

// buildForeignKeyQuery selects records of childType whose relation key
// points at targetID.
func buildForeignKeyQuery(childType entity.Type, rel entity.Relation, targetID id.ID) squirrel.SelectBuilder {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar).
		Select(recordColumns...).
		From(recordsTable).
		Where(squirrel.Eq{"entity_type": string(childType)}).
		Where(squirrel.Expr("foreign_keys->>? = ?", string(rel), targetID.String()))
}

func (s *Store) GetByForeignKey(ctx context.Context, childType entity.Type, rel entity.Relation, targetID id.ID) ([]*entity.Record, error) {
	sql, args, err := buildForeignKeyQuery(childType, rel, targetID).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	return s.scanRecords(ctx, sql, args)
}

func (s *Store) List(ctx context.Context, filter domain.ListFilter) ([]*entity.Record, error) {
	q := s.builder().
		Select(recordColumns...).
		From(recordsTable)
	if filter.Type != "" {
		q = q.Where(squirrel.Eq{"entity_type": string(filter.Type)})
	}
	if !filter.IncludeDeleted {
		q = q.Where(squirrel.Eq{"status": string(entity.StatusActive)})
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	return s.scanRecords(ctx, sql, args)
}

func (s *Store) scanRecords(ctx context.Context, sql string, args []any) ([]*entity.Record, error) {
	var rows []recordRow
	if err := pgxscan.Select(ctx, s.pool, &rows, sql, args...); err != nil {
		return nil, apperror.NewStoreUnavailable(err)
	}
	out := make([]*entity.Record, 0, len(rows))
	for i := range rows {
		rec, err := rows[i].toRecord()
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}

// buildVersionedUpdate updates a record guarded by the optimistic lock:
// the write applies only while the stored version matches.
func buildVersionedUpdate(values map[string]any, recordID id.ID, expectedVersion int) squirrel.UpdateBuilder {
	// never update the primary key; version is managed here
	delete(values, "id")
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar).
		Update(recordsTable).
		SetMap(values).
		Set("version", squirrel.Expr("version + 1")).
		Where(squirrel.Eq{"id": recordID}).
		Where(squirrel.Eq{"version": expectedVersion}) // optimistic lock: expect current version
}

// Save writes a record with optimistic locking. expectedVersion 0
// inserts; any other value updates WHERE version matches and reports a
// concurrent modification when no row is affected.
func (s *Store) Save(ctx context.Context, record *entity.Record, expectedVersion int) error {
	ctx, span := tracer.Start(ctx, "store.save")
	defer span.End()
	span.SetAttributes(
		attribute.String("entity.type", string(record.Type)),
		attribute.String("entity.id", record.ID.String()),
		attribute.Int("entity.expected_version", expectedVersion),
	)

	values, err := rowValues(record)
	if err != nil {
		return err
	}

	if expectedVersion == 0 {
		values["version"] = 1
		q := s.builder().
			Insert(recordsTable).
			SetMap(values)
		sql, args, err := q.ToSql()
		if err != nil {
			return fmt.Errorf("build insert: %w", err)
		}
		if _, err := s.pool.Exec(ctx, sql, args...); err != nil {
			return apperror.NewStoreUnavailable(err)
		}
		record.Version = 1
		return nil
	}

	sql, args, err := buildVersionedUpdate(values, record.ID, expectedVersion).ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	result, err := s.pool.Exec(ctx, sql, args...)
	if err != nil {
		return apperror.NewStoreUnavailable(err)
	}
	if result.RowsAffected() == 0 {
		return apperror.NewConcurrentModification(string(record.Type), record.ID.String())
	}
	record.Version = expectedVersion + 1
	return nil
}

func (s *Store) Delete(ctx context.Context, recordID id.ID) error {
	ctx, span := tracer.Start(ctx, "store.delete")
	defer span.End()
	span.SetAttributes(attribute.String("entity.id", recordID.String()))

	q := s.builder().
		Delete(recordsTable).
		Where(squirrel.Eq{"id": recordID})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build delete: %w", err)
	}

	result, err := s.pool.Exec(ctx, sql, args...)
	if err != nil {
		return apperror.NewStoreUnavailable(err)
	}
	if result.RowsAffected() == 0 {
		return apperror.NewNotFound("record", recordID.String())
	}
	return nil
}
