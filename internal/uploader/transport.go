package uploader

import (
	"context"
	"net/http"

	"github.com/dsmolkin/mediakeeper/internal/media"
)

// UploadTarget is the server's answer to an upload-target request:
// a partial record now carrying an identifier, and a time-limited
// endpoint for the raw bytes.
type UploadTarget struct {
	Item      *media.Media `json:"item"`
	UploadURL string       `json:"uploadUrl"`
}

// TransferResult is the outcome of one byte transfer. Success is
// decided by status inspection, not by error: a non-2xx response is a
// failure outcome, not a transport error.
type TransferResult struct {
	StatusCode int
	Status     string
	Body       []byte
}

// OK reports whether the transfer succeeded.
func (r *TransferResult) OK() bool {
	return r.StatusCode == http.StatusOK || r.StatusCode == http.StatusCreated
}

// ProgressFunc receives monotonically non-decreasing byte counts during
// a transfer.
type ProgressFunc func(loaded, total int64)

// Transport is the remote boundary of the upload handshake. Errors
// returned from these methods are transport-level failures and
// propagate to the caller; domain-level outcomes (declined target,
// non-success transfer status, empty finalization result) are carried
// in the return values instead.
type Transport interface {
	// RequestUploadTarget asks the server to allocate a record and an
	// upload endpoint for the given partial descriptor.
	RequestUploadTarget(ctx context.Context, m *media.Media) (*UploadTarget, error)

	// TransferBytes streams the file content to the target URL. The
	// context aborts an in-flight transfer; the abort surfaces as an
	// error wrapping context.Canceled.
	TransferBytes(ctx context.Context, url string, src FileSource, onProgress ProgressFunc) (*TransferResult, error)

	// SetMediaStatus batch-transitions records to TEMP or ACTIVE and
	// returns the server's authoritative updated records.
	SetMediaStatus(ctx context.Context, ids []string, status media.Status) ([]media.Media, error)

	// MarkCanceled batch-transitions records to CANCELED.
	MarkCanceled(ctx context.Context, ids []string) error
}
