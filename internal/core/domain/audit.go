package domain

import (
	"time"

	"github.com/google/uuid"
)

// AuditAction represents the type of audited action.
type AuditAction string

const (
	AuditActionWalletCreate      AuditAction = "WALLET_CREATE"
	AuditActionWalletRename      AuditAction = "WALLET_RENAME"
	AuditActionWalletDelete      AuditAction = "WALLET_DELETE"
	AuditActionTransactionCreate AuditAction = "TRANSACTION_CREATE"
	AuditActionTransactionUpdate AuditAction = "TRANSACTION_UPDATE"
	AuditActionTransactionDelete AuditAction = "TRANSACTION_DELETE"
)

// AuditLog records a single audited write.
type AuditLog struct {
	ID           uuid.UUID   `json:"id"`
	UserID       *uuid.UUID  `json:"user_id,omitempty"`
	Action       AuditAction `json:"action"`
	ResourceType string      `json:"resource_type"`
	ResourceID   string      `json:"resource_id,omitempty"`
	Details      string      `json:"details,omitempty"` // JSON string
	IPAddress    string      `json:"ip_address"`
	CreatedAt    time.Time   `json:"created_at"`
}
