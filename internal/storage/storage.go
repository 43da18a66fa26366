// Package storage persists raw inbound EDI files and archives them once
// processed. Keys are opaque to callers; the audit trail records them for
// later retrieval.
package storage

import "context"

// Store is the port the orchestrator uses for raw file persistence.
type Store interface {
	// StoreInbound persists the raw content of a newly received file and
	// returns the storage key.
	StoreInbound(ctx context.Context, correlationID, retailerID, content string) (string, error)

	// ArchiveProcessed moves a successfully processed file out of the
	// inbound area and returns the archive key.
	ArchiveProcessed(ctx context.Context, key, correlationID string) (string, error)

	// RetrieveContent fetches previously stored raw content by key.
	RetrieveContent(ctx context.Context, key string) (string, error)
}
