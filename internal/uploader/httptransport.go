package uploader

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/dsmolkin/mediakeeper/internal/common"
	"github.com/dsmolkin/mediakeeper/internal/media"
)

const maxErrorBodySize = 4096

// Endpoints holds the media API paths, relative to the base URL.
type Endpoints struct {
	GenerateUploadURL string
	MarkTemp          string
	MarkActive        string
	MarkCanceled      string
}

// DefaultEndpoints returns the conventional media API paths.
func DefaultEndpoints() Endpoints {
	return Endpoints{
		GenerateUploadURL: "/api/media/generate-upload-url",
		MarkTemp:          "/api/media/mark-media-as-temp",
		MarkActive:        "/api/media/mark-media-as-active",
		MarkCanceled:      "/api/media/mark-media-as-canceled",
	}
}

// HTTPTransport is the default Transport over the conventional media
// API. Each operation can be replaced with an On* function, which takes
// precedence over the built-in HTTP call.
type HTTPTransport struct {
	BaseURL   string
	Client    *http.Client
	Headers   map[string]string
	Endpoints Endpoints

	OnRequestUploadTarget func(ctx context.Context, m *media.Media) (*UploadTarget, error)
	OnTransferBytes       func(ctx context.Context, url string, src FileSource, onProgress ProgressFunc) (*TransferResult, error)
	OnSetMediaStatus      func(ctx context.Context, ids []string, status media.Status) ([]media.Media, error)
	OnMarkCanceled        func(ctx context.Context, ids []string) error
}

// NewHTTPTransport returns a transport against the given base URL with
// the conventional endpoint set.
func NewHTTPTransport(baseURL string) *HTTPTransport {
	return &HTTPTransport{
		BaseURL:   baseURL,
		Endpoints: DefaultEndpoints(),
	}
}

func (t *HTTPTransport) client() *http.Client {
	if t.Client != nil {
		return t.Client
	}
	return http.DefaultClient
}

type statusRequest struct {
	MediaIDs []string `json:"mediaIds"`
}

type statusResponse struct {
	Items []media.Media `json:"items"`
}

// postJSON sends a JSON POST to the given path. Caller-supplied headers
// are merged over the default Content-Type.
func (t *HTTPTransport) postJSON(ctx context.Context, path string, in, out any) error {
	payload, err := json.Marshal(in)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.BaseURL+path, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range t.Headers {
		req.Header.Set(k, v)
	}

	resp, err := t.client().Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodySize))
		return fmt.Errorf("POST %s: unexpected status %s: %s", path, resp.Status, bytes.TrimSpace(b))
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func (t *HTTPTransport) RequestUploadTarget(ctx context.Context, m *media.Media) (*UploadTarget, error) {
	if t.OnRequestUploadTarget != nil {
		return t.OnRequestUploadTarget(ctx, m)
	}

	var out UploadTarget
	if err := t.postJSON(ctx, t.Endpoints.GenerateUploadURL, m, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (t *HTTPTransport) TransferBytes(ctx context.Context, url string, src FileSource, onProgress ProgressFunc) (*TransferResult, error) {
	if t.OnTransferBytes != nil {
		return t.OnTransferBytes(ctx, url, src, onProgress)
	}

	rc, err := src.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	body := &progressReader{r: rc, total: src.Size(), onProgress: onProgress}
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, url, body)
	if err != nil {
		return nil, err
	}
	req.ContentLength = src.Size()
	req.Header.Set("x-ms-blob-type", "BlockBlob")
	req.Header.Set("Content-Type", src.MimeType())

	resp, err := t.client().Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	b, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodySize))
	return &TransferResult{StatusCode: resp.StatusCode, Status: resp.Status, Body: b}, nil
}

func (t *HTTPTransport) SetMediaStatus(ctx context.Context, ids []string, status media.Status) ([]media.Media, error) {
	if t.OnSetMediaStatus != nil {
		return t.OnSetMediaStatus(ctx, ids, status)
	}

	var path string
	switch status {
	case media.StatusTemp:
		path = t.Endpoints.MarkTemp
	case media.StatusActive:
		path = t.Endpoints.MarkActive
	default:
		return nil, fmt.Errorf("status %q: %w", status, common.ErrInvalidStatus)
	}

	var out statusResponse
	if err := t.postJSON(ctx, path, statusRequest{MediaIDs: ids}, &out); err != nil {
		return nil, err
	}
	return out.Items, nil
}

func (t *HTTPTransport) MarkCanceled(ctx context.Context, ids []string) error {
	if t.OnMarkCanceled != nil {
		return t.OnMarkCanceled(ctx, ids)
	}
	return t.postJSON(ctx, t.Endpoints.MarkCanceled, ids, nil)
}

// progressReader reports cumulative byte counts as the request body is
// consumed.
type progressReader struct {
	r          io.Reader
	total      int64
	loaded     int64
	onProgress ProgressFunc
}

func (pr *progressReader) Read(p []byte) (int, error) {
	n, err := pr.r.Read(p)
	if n > 0 {
		pr.loaded += int64(n)
		if pr.onProgress != nil {
			pr.onProgress(pr.loaded, pr.total)
		}
	}
	return n, err
}
