package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/klauspost/compress/zstd"

	"parish/internal/core/apperror"
	"parish/internal/core/id"
	"parish/internal/domain"
)

// CompressionAlgo specifies the compression algorithm used.
type CompressionAlgo string

const (
	CompressionNone CompressionAlgo = "none"
	CompressionZstd CompressionAlgo = "zstd"
)

// defaultCompressThreshold is the payload size above which details are
// compressed before insert.
const defaultCompressThreshold = 10 * 1024 // 10KB

// PostgresEmitter persists audit entries to the lifecycle_audit table.
// Large detail payloads are zstd-compressed.
type PostgresEmitter struct {
	pool              *pgxpool.Pool
	encoder           *zstd.Encoder
	compressThreshold int
}

var _ domain.AuditEmitter = (*PostgresEmitter)(nil)

// NewPostgresEmitter creates a postgres-backed emitter.
func NewPostgresEmitter(pool *pgxpool.Pool) (*PostgresEmitter, error) {
	encoder, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, fmt.Errorf("create zstd encoder: %w", err)
	}
	return &PostgresEmitter{
		pool:              pool,
		encoder:           encoder,
		compressThreshold: defaultCompressThreshold,
	}, nil
}

// Migrate creates the audit table if it does not exist.
func (e *PostgresEmitter) Migrate(ctx context.Context) error {
	_, err := e.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS lifecycle_audit (
			id UUID PRIMARY KEY,
			actor_id TEXT NOT NULL,
			entity_type TEXT NOT NULL,
			entity_id UUID NOT NULL,
			action TEXT NOT NULL,
			before_status TEXT NOT NULL,
			after_status TEXT NOT NULL,
			occurred_at TIMESTAMPTZ NOT NULL,
			details JSONB,
			details_compressed BYTEA,
			compression_algo TEXT NOT NULL DEFAULT 'none',
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		);
		CREATE INDEX IF NOT EXISTS idx_lifecycle_audit_entity
			ON lifecycle_audit (entity_type, entity_id);
	`)
	if err != nil {
		return apperror.NewStoreUnavailable(err)
	}
	return nil
}

// encodeDetails marshals the detail map and compresses the payload when
// it exceeds the threshold. Exactly one of the two returned payloads is
// set for a non-empty map.
func (e *PostgresEmitter) encodeDetails(m map[string]string) (json.RawMessage, []byte, CompressionAlgo, error) {
	if len(m) == 0 {
		return nil, nil, CompressionNone, nil
	}
	raw, err := json.Marshal(m)
	if err != nil {
		return nil, nil, CompressionNone, fmt.Errorf("marshal audit details: %w", err)
	}
	if len(raw) > e.compressThreshold {
		return nil, e.encoder.EncodeAll(raw, nil), CompressionZstd, nil
	}
	return raw, nil, CompressionNone, nil
}

func (e *PostgresEmitter) buildInsert(event domain.AuditEvent) (string, []any, error) {
	at := event.At
	if at.IsZero() {
		at = time.Now().UTC()
	}

	details, compressed, algo, err := e.encodeDetails(event.Details)
	if err != nil {
		return "", nil, err
	}

	q := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar).
		Insert("lifecycle_audit").
		Columns("id", "actor_id", "entity_type", "entity_id", "action",
			"before_status", "after_status", "occurred_at",
			"details", "details_compressed", "compression_algo").
		Values(id.New(), event.ActorID, string(event.EntityType), event.EntityID,
			string(event.Action), string(event.BeforeStatus), string(event.AfterStatus), at,
			details, compressed, string(algo))

	sql, args, err := q.ToSql()
	if err != nil {
		return "", nil, fmt.Errorf("build audit insert: %w", err)
	}
	return sql, args, nil
}

func (e *PostgresEmitter) Emit(ctx context.Context, event domain.AuditEvent) error {
	sql, args, err := e.buildInsert(event)
	if err != nil {
		return err
	}
	if _, err := e.pool.Exec(ctx, sql, args...); err != nil {
		return apperror.NewStoreUnavailable(err)
	}
	return nil
}
