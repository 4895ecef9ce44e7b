package core

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// AuditAction is the type of governed operation being recorded.
type AuditAction string

const (
	ActionMasterCreate AuditAction = "master_create"
	ActionSave         AuditAction = "save"
	ActionSaveRejected AuditAction = "save_rejected"
	ActionSchemaUpdate AuditAction = "schema_update"
	ActionMasterDelete AuditAction = "master_delete"
)

// AuditEntry is one recorded operation. IP address and user agent are
// taken from the request context when present.
type AuditEntry struct {
	ID         string      `json:"id"`
	Action     AuditAction `json:"action"`
	Master     string      `json:"master"`
	RunID      string      `json:"runId,omitempty"`
	Rows       int         `json:"rows,omitempty"`
	Violations int         `json:"violations,omitempty"`
	Detail     string      `json:"detail,omitempty"`
	IPAddress  string      `json:"ipAddress,omitempty"`
	UserAgent  string      `json:"userAgent,omitempty"`
	CreatedAt  time.Time   `json:"createdAt"`
}

const createAuditTable = `
CREATE TABLE IF NOT EXISTS audit_log (
	id          uuid PRIMARY KEY,
	action      text NOT NULL,
	master_name text NOT NULL,
	run_id      text NOT NULL DEFAULT '',
	row_count   integer NOT NULL DEFAULT 0,
	violations  integer NOT NULL DEFAULT 0,
	detail      text NOT NULL DEFAULT '',
	ip_address  text NOT NULL DEFAULT '',
	user_agent  text NOT NULL DEFAULT '',
	created_at  timestamptz NOT NULL DEFAULT now()
)`

// AuditLog records governed operations to PostgreSQL. Recording is
// best-effort: an audit failure is logged and never fails the operation
// it describes.
type AuditLog struct {
	pool *pgxpool.Pool
}

// NewAuditLog creates an AuditLog and ensures its table exists.
func NewAuditLog(ctx context.Context, pool *pgxpool.Pool) (*AuditLog, error) {
	if _, err := pool.Exec(ctx, createAuditTable); err != nil {
		return nil, err
	}
	return &AuditLog{pool: pool}, nil
}

// Record writes one entry. Missing ID and CreatedAt are filled in.
func (a *AuditLog) Record(ctx context.Context, entry AuditEntry) {
	if entry.ID == "" {
		entry.ID = uuid.New().String()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	_, err := a.pool.Exec(ctx, `
		INSERT INTO audit_log
			(id, action, master_name, run_id, row_count, violations, detail, ip_address, user_agent, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		entry.ID, string(entry.Action), entry.Master, entry.RunID,
		entry.Rows, entry.Violations, entry.Detail,
		entry.IPAddress, entry.UserAgent, entry.CreatedAt)
	if err != nil {
		slog.Error("audit record failed",
			"action", entry.Action, "master", entry.Master, "error", err)
	}
}

// Recent returns the newest entries, most recent first.
func (a *AuditLog) Recent(ctx context.Context, limit int) ([]AuditEntry, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := a.pool.Query(ctx, `
		SELECT id, action, master_name, run_id, row_count, violations, detail, ip_address, user_agent, created_at
		FROM audit_log
		ORDER BY created_at DESC
		LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []AuditEntry
	for rows.Next() {
		var e AuditEntry
		var action string
		if err := rows.Scan(&e.ID, &action, &e.Master, &e.RunID, &e.Rows,
			&e.Violations, &e.Detail, &e.IPAddress, &e.UserAgent, &e.CreatedAt); err != nil {
			return nil, err
		}
		e.Action = AuditAction(action)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Prune deletes entries older than cutoff, at most batchSize at a time,
// and returns the number deleted.
func (a *AuditLog) Prune(ctx context.Context, cutoff time.Time, batchSize int) (int64, error) {
	if batchSize <= 0 {
		batchSize = 5000
	}

	tag, err := a.pool.Exec(ctx, `
		DELETE FROM audit_log
		WHERE id IN (
			SELECT id FROM audit_log
			WHERE created_at < $1
			ORDER BY created_at
			LIMIT $2
		)`, cutoff, batchSize)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// recordAudit stamps request context info onto an entry and records it.
// No-op when auditing is disabled.
func (s *Service) recordAudit(ctx context.Context, entry AuditEntry) {
	if s.audit == nil {
		return
	}
	entry.IPAddress = IPAddressFromContext(ctx)
	entry.UserAgent = UserAgentFromContext(ctx)
	s.audit.Record(ctx, entry)
}
