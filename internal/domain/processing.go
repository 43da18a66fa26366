package domain

import "time"

// Status enumerates the per-file processing lifecycle. The lifecycle is
// linear; FAILED is reachable from any state, and FAILED and ACKNOWLEDGED
// are the only terminal states.
type Status string

const (
	StatusReceived     Status = "RECEIVED"
	StatusParsed       Status = "PARSED"
	StatusValidated    Status = "VALIDATED"
	StatusTransmitted  Status = "TRANSMITTED"
	StatusAcknowledged Status = "ACKNOWLEDGED"
	StatusFailed       Status = "FAILED"
)

// Terminal reports whether the status ends a file's lifecycle.
func (s Status) Terminal() bool {
	return s == StatusAcknowledged || s == StatusFailed
}

// AuditEntry is one append-only audit record for a processing stage.
// Entries are never updated after insert.
type AuditEntry struct {
	ID                 string    `json:"id" db:"id"`
	CorrelationID      string    `json:"correlation_id" db:"correlation_id"`
	RetailerID         string    `json:"retailer_id" db:"retailer_id"`
	TransactionSetCode string    `json:"transaction_set_code" db:"transaction_set_code"`
	PONumber           string    `json:"po_number" db:"po_number"`
	Status             Status    `json:"status" db:"status"`
	SourceKey          string    `json:"source_key" db:"source_key"`
	Message            string    `json:"message" db:"message"`
	ErrorDetail        string    `json:"error_detail,omitempty" db:"error_detail"`
	DurationMS         int64     `json:"duration_ms" db:"duration_ms"`
	CreatedAt          time.Time `json:"created_at" db:"created_at"`
}

// DeadLetterEntry is a quarantined file: the original payload plus a
// structured error report enabling correction and resubmission.
type DeadLetterEntry struct {
	ID              string    `json:"id" db:"id"`
	CorrelationID   string    `json:"correlation_id" db:"correlation_id"`
	RetailerID      string    `json:"retailer_id" db:"retailer_id"`
	FileName        string    `json:"file_name" db:"file_name"`
	OriginalContent string    `json:"original_content" db:"original_content"`
	ErrorReport     string    `json:"error_report" db:"error_report"`
	CreatedAt       time.Time `json:"created_at" db:"created_at"`
}

// ConnectedPlatform is a tenant's stored downstream destination and
// credential. The transmitter prefers these over the global fallback config.
type ConnectedPlatform struct {
	ID          string    `json:"id" db:"id"`
	TenantID    string    `json:"tenant_id" db:"tenant_id"`
	Platform    string    `json:"platform" db:"platform"`
	StoreDomain string    `json:"store_domain" db:"store_domain"`
	AccessToken string    `json:"-" db:"access_token"`
	Active      bool      `json:"active" db:"active"`
	ConnectedAt time.Time `json:"connected_at" db:"connected_at"`
}
