package nakama

import (
	"context"
	"encoding/json"
	"fmt"

	"mahjongg/internal/ports"

	"github.com/google/uuid"
	"github.com/heroiclabs/nakama-common/runtime"
)

// auditCollection is the Nakama storage collection holding transition records.
const auditCollection = "charleston_audit"

// NakamaAuditAdapter implements ports.AuditPort on Nakama's storage engine.
// Records are written under fresh UUID keys so the log is append-only.
type NakamaAuditAdapter struct {
	nk runtime.NakamaModule
}

// NewNakamaAuditAdapter creates a new audit adapter.
func NewNakamaAuditAdapter(nk runtime.NakamaModule) *NakamaAuditAdapter {
	return &NakamaAuditAdapter{nk: nk}
}

// RecordTransition appends one transition record to the audit collection.
func (a *NakamaAuditAdapter) RecordTransition(ctx context.Context, record ports.TransitionRecord) error {
	value, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to marshal audit record: %w", err)
	}

	write := &runtime.StorageWrite{
		Collection:      auditCollection,
		Key:             uuid.NewString(),
		Value:           string(value),
		PermissionRead:  0, // server only
		PermissionWrite: 0,
	}
	if _, err := a.nk.StorageWrite(ctx, []*runtime.StorageWrite{write}); err != nil {
		return fmt.Errorf("failed to write audit record: %w", err)
	}
	return nil
}
