// Package uploader implements client-side upload orchestration against
// the media API: a three-phase handshake per file (request an upload
// target, transfer the bytes, finalize the server-side record), with
// per-item state tracking, live progress, per-item cancellation and
// merging of completed uploads into a caller-owned values object.
package uploader

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/dsmolkin/mediakeeper/internal/common"
	"github.com/dsmolkin/mediakeeper/internal/digest"
	"github.com/dsmolkin/mediakeeper/internal/logging"
	"github.com/dsmolkin/mediakeeper/internal/media"
)

const markCanceledTimeout = 30 * time.Second

// Config configures an Uploader.
type Config struct {
	// Transport overrides the default HTTP transport. When nil,
	// ServerURL and Headers are used to build one.
	Transport Transport
	ServerURL string
	Headers   map[string]string

	// SuccessStatus is the status requested at finalization, TEMP by
	// default. Only TEMP and ACTIVE are accepted.
	SuccessStatus media.Status

	// ManualUpload defers the handshake until UploadManually is called;
	// Add then only registers items.
	ManualUpload bool

	// MaxConcurrent caps simultaneous uploads. Zero means unbounded.
	MaxConcurrent int

	// OnSuccess receives the field fragment of each finalized item.
	OnSuccess func(Fragment)
	// OnFailure receives the raw outcome of each failed transfer.
	OnFailure func(*TransferResult)

	Logger logging.Logger
}

// Uploader drives selected files through the upload handshake and
// accumulates results into a values object shared with the caller.
type Uploader struct {
	cfg       Config
	transport Transport
	logger    logging.Logger

	mu       sync.Mutex
	values   Values
	items    map[string]*Item
	inflight map[string]bool
	progress map[string]ProgressInfo
	cancels  map[string]context.CancelFunc
}

// New validates cfg and returns a ready Uploader.
func New(cfg Config) (*Uploader, error) {
	if cfg.SuccessStatus == "" {
		cfg.SuccessStatus = media.StatusTemp
	}
	if cfg.SuccessStatus != media.StatusTemp && cfg.SuccessStatus != media.StatusActive {
		return nil, fmt.Errorf("success status %q: %w", cfg.SuccessStatus, common.ErrInvalidStatus)
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.NewJSONLogger(os.Stderr)
	}

	tr := cfg.Transport
	if tr == nil {
		if cfg.ServerURL == "" {
			return nil, errors.New("either Transport or ServerURL must be set")
		}
		t := NewHTTPTransport(cfg.ServerURL)
		t.Headers = cfg.Headers
		tr = t
	}

	return &Uploader{
		cfg:       cfg,
		transport: tr,
		logger:    cfg.Logger,
		values:    Values{},
		items:     make(map[string]*Item),
		inflight:  make(map[string]bool),
		progress:  make(map[string]ProgressInfo),
		cancels:   make(map[string]context.CancelFunc),
	}, nil
}

// Add registers each file as a new tracked item for the given field and,
// unless manual upload is enabled, drives the items through the full
// handshake concurrently, returning the first transport-level error.
// Item-level failures (non-success transfer status) do not produce an
// error; they move the item to StateFailed and invoke OnFailure.
func (u *Uploader) Add(ctx context.Context, field string, multiple bool, files ...FileSource) error {
	ids := make([]string, 0, len(files))
	for _, f := range files {
		item, err := u.newItem(ctx, field, multiple, f)
		if err != nil {
			return err
		}
		u.mu.Lock()
		u.items[item.LocalID] = item
		u.mu.Unlock()
		ids = append(ids, item.LocalID)
	}

	if u.cfg.ManualUpload {
		return nil
	}
	return u.run(ctx, ids)
}

// UploadManually drives every registered item still pending and not
// already in flight through the handshake, then returns a snapshot of
// the updated values.
func (u *Uploader) UploadManually(ctx context.Context) (Values, error) {
	u.mu.Lock()
	ids := make([]string, 0, len(u.items))
	for id, item := range u.items {
		if item.State != StatePending {
			continue
		}
		if u.inflight[id] {
			continue
		}
		ids = append(ids, id)
	}
	u.mu.Unlock()

	if err := u.run(ctx, ids); err != nil {
		return nil, err
	}
	return u.Values(), nil
}

// Cancel aborts the in-flight transfer of the given item, if any.
func (u *Uploader) Cancel(localID string) {
	u.cancelTransfer(localID)
}

// Values returns a snapshot of the aggregate values. List fields are
// copied, so the caller may mutate the result freely.
func (u *Uploader) Values() Values {
	u.mu.Lock()
	defer u.mu.Unlock()
	return cloneValues(u.values)
}

// SetValues replaces the aggregate values, e.g. to seed defaults.
func (u *Uploader) SetValues(v Values) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.values = cloneValues(v)
	if u.values == nil {
		u.values = Values{}
	}
}

// cloneValues copies the map and any slice-typed field values so the
// result does not alias the source.
func cloneValues(v Values) Values {
	if v == nil {
		return nil
	}
	out := make(Values, len(v))
	for k, val := range v {
		switch s := val.(type) {
		case []string:
			out[k] = append([]string(nil), s...)
		case []any:
			out[k] = append([]any(nil), s...)
		default:
			out[k] = val
		}
	}
	return out
}

// Items returns a snapshot of all tracked items keyed by local id.
func (u *Uploader) Items() map[string]Item {
	u.mu.Lock()
	defer u.mu.Unlock()
	out := make(map[string]Item, len(u.items))
	for id, item := range u.items {
		out[id] = *item
	}
	return out
}

// Item returns a snapshot of one tracked item.
func (u *Uploader) Item(localID string) (Item, bool) {
	u.mu.Lock()
	defer u.mu.Unlock()
	item, ok := u.items[localID]
	if !ok {
		return Item{}, false
	}
	return *item, true
}

// Progress returns a snapshot of all in-flight transfers keyed by
// local id.
func (u *Uploader) Progress() map[string]ProgressInfo {
	u.mu.Lock()
	defer u.mu.Unlock()
	return maps.Clone(u.progress)
}

// newItem builds a pending item for one file: local id, classification,
// a dimension probe for images and the content digest. Probe failures
// are logged and tolerated; digest failures abort the selection.
func (u *Uploader) newItem(ctx context.Context, field string, multiple bool, f FileSource) (*Item, error) {
	m := media.Media{
		Type:     media.Classify(f.MimeType()),
		Status:   media.StatusInit,
		Name:     f.Name(),
		MimeType: f.MimeType(),
		Size:     f.Size(),
	}

	var preview string
	if m.Type == media.TypeImage {
		if w, h, err := probeFile(f); err != nil {
			u.logger.Warn(ctx, "dimension probe failed", "name", f.Name(), "error", err)
		} else {
			m.Width, m.Height = w, h
		}
		if p, ok := f.(interface{ Path() string }); ok {
			preview = p.Path()
		}
	}

	sum, err := digestFile(f, digest.SHA1)
	if err != nil {
		return nil, err
	}
	m.Checksum = sum

	return &Item{
		LocalID:  uuid.NewString(),
		Field:    field,
		Multiple: multiple,
		File:     f,
		Preview:  preview,
		Media:    m,
		State:    StatePending,
	}, nil
}

func (u *Uploader) run(ctx context.Context, ids []string) error {
	g := &errgroup.Group{}
	if u.cfg.MaxConcurrent > 0 {
		g.SetLimit(u.cfg.MaxConcurrent)
	}
	for _, id := range ids {
		g.Go(func() error {
			return u.upload(ctx, id)
		})
	}
	return g.Wait()
}

// upload drives one item through the three handshake phases. Transport
// errors are returned; domain outcomes (declined target, failed
// transfer, declined finalization, cancellation) resolve locally.
func (u *Uploader) upload(ctx context.Context, localID string) error {
	u.mu.Lock()
	item, ok := u.items[localID]
	if !ok || item.State != StatePending || u.inflight[localID] {
		u.mu.Unlock()
		return nil
	}
	// reserve the item before releasing the lock so a concurrent
	// trigger cannot drive it a second time
	u.inflight[localID] = true
	desc := item.Media
	u.mu.Unlock()
	defer func() {
		u.mu.Lock()
		delete(u.inflight, localID)
		u.mu.Unlock()
	}()

	target, err := u.transport.RequestUploadTarget(ctx, &desc)
	if err != nil {
		return err
	}
	if target == nil || target.Item == nil || target.UploadURL == "" {
		// target allocation declined, item stays pending without error
		u.logger.Warn(ctx, "upload target declined", "localId", localID, "name", item.File.Name())
		return nil
	}

	tctx, cancel := context.WithCancel(ctx)
	defer cancel()

	u.mu.Lock()
	item.Media.Merge(target.Item)
	u.setStateLocked(ctx, item, StateTargetRequested)
	u.setStateLocked(ctx, item, StateTransferring)
	u.cancels[localID] = cancel
	u.progress[localID] = ProgressInfo{
		Total:  item.File.Size(),
		Cancel: func() { u.cancelTransfer(localID) },
	}
	u.mu.Unlock()

	res, err := u.transport.TransferBytes(tctx, target.UploadURL, item.File, func(loaded, total int64) {
		u.updateProgress(localID, loaded, total)
	})

	u.mu.Lock()
	delete(u.progress, localID)
	delete(u.cancels, localID)
	u.mu.Unlock()

	if err != nil {
		if errors.Is(err, context.Canceled) && ctx.Err() == nil {
			u.setState(ctx, localID, StateCanceled)
			return nil
		}
		return err
	}
	if !res.OK() {
		u.setState(ctx, localID, StateFailed)
		if u.cfg.OnFailure != nil {
			u.cfg.OnFailure(res)
		}
		return nil
	}
	u.setState(ctx, localID, StateTransferred)

	return u.finalize(ctx, localID)
}

// finalize requests the configured success status for the item's record
// and folds the result into the aggregate values.
func (u *Uploader) finalize(ctx context.Context, localID string) error {
	u.mu.Lock()
	item, ok := u.items[localID]
	if !ok {
		u.mu.Unlock()
		return nil
	}
	serverID := item.Media.ID
	u.mu.Unlock()

	if serverID == "" {
		// the target response carried no identifier, nothing to finalize
		u.logger.Warn(ctx, "finalization declined", "localId", localID, "reason", "missing media id")
		return nil
	}

	updated, err := u.transport.SetMediaStatus(ctx, []string{serverID}, u.cfg.SuccessStatus)
	if err != nil {
		return err
	}
	if len(updated) == 0 {
		// finalization declined, item stays transferred without error
		u.logger.Warn(ctx, "finalization declined", "localId", localID, "mediaId", serverID)
		return nil
	}

	rec := updated[0]
	for i := range updated {
		if updated[i].ID == serverID {
			rec = updated[i]
			break
		}
	}

	u.mu.Lock()
	item.Media.Merge(&rec)
	u.setStateLocked(ctx, item, StateFinalized)
	frag := Fragment{item.Field: any(item.Media.ID)}
	if item.Multiple {
		frag[item.Field] = []string{item.Media.ID}
	}
	u.values = Merge(u.values, frag)
	u.mu.Unlock()

	if u.cfg.OnSuccess != nil {
		u.cfg.OnSuccess(frag)
	}
	return nil
}

// cancelTransfer aborts one in-flight transfer, removes its progress
// entry and, when the server has already allocated an identifier, fires
// the cancellation call in the background without awaiting it.
func (u *Uploader) cancelTransfer(localID string) {
	u.mu.Lock()
	cancel := u.cancels[localID]
	delete(u.cancels, localID)
	delete(u.progress, localID)
	var serverID string
	if item, ok := u.items[localID]; ok {
		serverID = item.Media.ID
	}
	u.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()

	if serverID == "" {
		return
	}
	go func() {
		ctx, done := context.WithTimeout(context.Background(), markCanceledTimeout)
		defer done()
		if err := u.transport.MarkCanceled(ctx, []string{serverID}); err != nil {
			u.logger.Warn(ctx, "mark canceled failed", "mediaId", serverID, "error", err)
		}
	}()
}

func (u *Uploader) updateProgress(localID string, loaded, total int64) {
	u.mu.Lock()
	defer u.mu.Unlock()
	p, ok := u.progress[localID]
	if !ok {
		// transfer already finished or was canceled
		return
	}
	p.Loaded = loaded
	if total > 0 {
		p.Total = total
	}
	if p.Total > 0 {
		p.Percentage = float64(p.Loaded) / float64(p.Total) * 100
	}
	u.progress[localID] = p
}

func (u *Uploader) setState(ctx context.Context, localID string, next State) {
	u.mu.Lock()
	defer u.mu.Unlock()
	if item, ok := u.items[localID]; ok {
		u.setStateLocked(ctx, item, next)
	}
}

func (u *Uploader) setStateLocked(ctx context.Context, item *Item, next State) {
	if err := ValidateTransition(item.State, next); err != nil {
		u.logger.Error(ctx, "state transition rejected", "localId", item.LocalID, "error", err)
		return
	}
	item.State = next
}

func probeFile(f FileSource) (int, int, error) {
	rc, err := f.Open()
	if err != nil {
		return 0, 0, err
	}
	defer rc.Close()
	return media.ProbeDimensions(rc)
}

func digestFile(f FileSource, algorithm string) (string, error) {
	rc, err := f.Open()
	if err != nil {
		return "", &digest.DigestError{Algorithm: algorithm, Err: err}
	}
	defer rc.Close()
	return digest.Reader(rc, algorithm)
}
