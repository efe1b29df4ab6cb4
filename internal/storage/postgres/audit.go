package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/klauspost/compress/zstd"

	"masterdata/internal/core/actor"
	"masterdata/internal/core/id"
	"masterdata/internal/engine"
	"masterdata/pkg/logger"
)

// CompressionAlgo specifies the compression algorithm used for stored changes.
type CompressionAlgo string

const (
	CompressionNone CompressionAlgo = "none"
	CompressionZstd CompressionAlgo = "zstd"
)

// AuditEntry is a single audit log row.
type AuditEntry struct {
	ID                id.ID           `db:"id" json:"id"`
	EntityKey         string          `db:"entity_key" json:"entity_key"`
	RecordID          id.ID           `db:"record_id" json:"record_id"`
	Action            string          `db:"action" json:"action"`
	UserID            string          `db:"user_id" json:"user_id"`
	UserEmail         string          `db:"user_email" json:"user_email,omitempty"`
	Changes           json.RawMessage `db:"changes" json:"changes,omitempty"`
	ChangesCompressed []byte          `db:"changes_compressed" json:"-"`
	CompressionAlgo   CompressionAlgo `db:"compression_algo" json:"-"`
	CreatedAt         time.Time       `db:"created_at" json:"created_at"`
}

// Compile-time check that AuditService implements engine.Auditor.
var _ engine.Auditor = (*AuditService)(nil)

// AuditService records every master-data mutation into sys_audit. Large
// change payloads are zstd-compressed before storage.
type AuditService struct {
	txm               *TxManager
	encoder           *zstd.Encoder
	decoder           *zstd.Decoder
	compressThreshold int
}

// NewAuditService creates the audit service.
func NewAuditService(txm *TxManager) (*AuditService, error) {
	encoder, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, fmt.Errorf("create zstd encoder: %w", err)
	}

	decoder, err := zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("create zstd decoder: %w", err)
	}

	return &AuditService{
		txm:               txm,
		encoder:           encoder,
		decoder:           decoder,
		compressThreshold: 10 * 1024,
	}, nil
}

// Record implements engine.Auditor. Best-effort: failures are logged and
// never propagate to the mutation that triggered them.
func (s *AuditService) Record(ctx context.Context, entityKey string, recordID id.ID, action string, changes map[string]any) {
	if err := s.log(ctx, entityKey, recordID, action, changes); err != nil {
		logger.Error(ctx, "audit write failed",
			"entity", entityKey, "record_id", recordID.String(), "action", action, "error", err)
	}
}

func (s *AuditService) log(ctx context.Context, entityKey string, recordID id.ID, action string, changes map[string]any) error {
	var changesJSON json.RawMessage
	if len(changes) > 0 {
		b, err := json.Marshal(changes)
		if err != nil {
			return fmt.Errorf("marshal changes: %w", err)
		}
		changesJSON = b
	}

	entry := AuditEntry{
		ID:              id.New(),
		EntityKey:       entityKey,
		RecordID:        recordID,
		Action:          action,
		Changes:         changesJSON,
		CompressionAlgo: CompressionNone,
		CreatedAt:       time.Now().UTC(),
	}

	a := actor.FromContext(ctx)
	entry.UserID = a.Subject
	entry.UserEmail = a.Email

	if len(entry.Changes) > s.compressThreshold {
		entry.ChangesCompressed = s.encoder.EncodeAll(entry.Changes, nil)
		entry.Changes = nil
		entry.CompressionAlgo = CompressionZstd
	}

	sql := `
		INSERT INTO sys_audit (
			id, entity_key, record_id, action, user_id, user_email,
			changes, changes_compressed, compression_algo, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err := s.txm.GetQuerier(ctx).Exec(ctx, sql,
		entry.ID, entry.EntityKey, entry.RecordID, entry.Action,
		entry.UserID, entry.UserEmail,
		entry.Changes, entry.ChangesCompressed, entry.CompressionAlgo,
		entry.CreatedAt,
	)
	return err
}

// History retrieves the audit trail for one record, newest first.
func (s *AuditService) History(ctx context.Context, entityKey string, recordID id.ID, limit int) ([]AuditEntry, error) {
	if limit <= 0 {
		limit = 50
	}

	sql := `
		SELECT id, entity_key, record_id, action, user_id, user_email,
		       changes, changes_compressed, compression_algo, created_at
		FROM sys_audit
		WHERE entity_key = $1 AND record_id = $2
		ORDER BY created_at DESC
		LIMIT $3
	`

	var entries []AuditEntry
	if err := pgxscan.Select(ctx, s.txm.GetQuerier(ctx), &entries, sql, entityKey, recordID, limit); err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}

	for i := range entries {
		e := &entries[i]
		if e.CompressionAlgo == CompressionZstd && len(e.ChangesCompressed) > 0 {
			decompressed, err := s.decoder.DecodeAll(e.ChangesCompressed, nil)
			if err != nil {
				return nil, fmt.Errorf("decompress changes: %w", err)
			}
			e.Changes = decompressed
			e.ChangesCompressed = nil
		}
	}

	return entries, nil
}
