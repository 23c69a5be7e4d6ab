package vanish

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/gabriel-vasile/mimetype"

	"github.com/rkuznets/vanish/convert"
)

const sniffLen = 3072

// ServiceConfig holds the lifecycle tuning knobs for Service.
type ServiceConfig struct {
	// DoneTTL is how long a successfully converted file stays downloadable.
	DoneTTL time.Duration
	// ErrorTTL is how long a failed record stays visible to status polls.
	ErrorTTL time.Duration
	// BusyRetryDelay is how long a fired cleanup backs off when a download
	// stream still holds the record.
	BusyRetryDelay time.Duration
	// CleanupTimeout bounds the storage deletes of one cleanup pass.
	CleanupTimeout time.Duration
	// StagingDir is where temp files are staged for byte-stream backends.
	// Empty means the system temp directory.
	StagingDir string
}

func (c *ServiceConfig) applyDefaults() {
	if c.DoneTTL <= 0 {
		c.DoneTTL = 5 * time.Minute
	}
	if c.ErrorTTL <= 0 {
		c.ErrorTTL = 10 * time.Second
	}
	if c.BusyRetryDelay <= 0 {
		c.BusyRetryDelay = 2 * time.Second
	}
	if c.CleanupTimeout <= 0 {
		c.CleanupTimeout = 30 * time.Second
	}
}

// Service orchestrates the ephemeral file lifecycle: it accepts uploads,
// drives conversions to their terminal state, resolves downloads, and
// guarantees eventual cleanup of both storage and registry under success and
// failure paths.
type Service struct {
	registry  *Registry
	backend   Backend
	variants  convert.Variants
	scheduler Scheduler
	cfg       ServiceConfig

	mu      sync.Mutex
	pending map[string]TaskHandle
}

// NewService wires a Service from its collaborators. The registry, backend
// and scheduler are injected so ownership is explicit and each piece is
// testable in isolation.
func NewService(registry *Registry, backend Backend, variants convert.Variants, scheduler Scheduler, cfg ServiceConfig) (*Service, error) {
	if registry == nil {
		return nil, errors.New("new service: registry is nil")
	}
	if backend == nil {
		return nil, errors.New("new service: backend is nil")
	}
	if scheduler == nil {
		return nil, errors.New("new service: scheduler is nil")
	}
	if err := variants.Validate(); err != nil {
		return nil, fmt.Errorf("new service: %w", err)
	}
	cfg.applyDefaults()

	return &Service{
		registry:  registry,
		backend:   backend,
		variants:  variants,
		scheduler: scheduler,
		cfg:       cfg,
		pending:   make(map[string]TaskHandle),
	}, nil
}

// Variants exposes the conversion endpoints the service was built with.
func (s *Service) Variants() convert.Variants {
	return s.variants
}

// Submit accepts one upload for the named conversion variant. The declared
// content type must exactly match one the variant accepts; a mismatch is
// rejected before anything is written to storage and no record is created.
//
// On success the original bytes are durably stored, a pending record is
// registered, and the conversion runs detached from the caller's request.
// Callers discover the outcome by polling Status.
func (s *Service) Submit(ctx context.Context, variantName, originalName, declaredType string, content io.Reader, size int64, opts convert.Options) (Record, error) {
	if err := ctx.Err(); err != nil {
		return Record{}, fmt.Errorf("submit: %w", err)
	}

	variant, ok := s.variants.Lookup(variantName)
	if !ok {
		return Record{}, fmt.Errorf("submit: variant %q: %w", variantName, ErrNotFound)
	}

	if !variant.Accepts(declaredType) {
		return Record{}, fmt.Errorf("submit: variant %q does not accept %q: %w",
			variantName, declaredType, ErrTypeMismatch)
	}

	if originalName == "" {
		originalName = "upload"
	}

	// Sniff the leading bytes. The declared type alone decides acceptance;
	// the sniffed type becomes the stored blob's metadata and a mismatch is
	// logged as an inconsistency.
	head := make([]byte, sniffLen)
	n, err := io.ReadFull(content, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return Record{}, fmt.Errorf("submit: read upload: %w", err)
	}
	head = head[:n]
	sniffed := mimetype.Detect(head)
	if !sniffed.Is(declaredType) {
		slog.Warn("declared content type differs from sniffed content",
			"variant", variantName, "declared", declaredType, "sniffed", sniffed.String())
	}
	content = io.MultiReader(bytes.NewReader(head), content)

	now := time.Now().UTC()
	id := NewRecordID(now)
	rec := Record{
		ID:                 id,
		Variant:            variantName,
		OriginalName:       originalName,
		OriginalStorageKey: id + "/original" + filepath.Ext(originalName),
		StorageKey:         id + "/converted" + variant.OutputExt,
		State:              StatePending,
		GeneratedAt:        now,
	}

	if err := s.backend.Put(ctx, rec.OriginalStorageKey, content, size, sniffed.String()); err != nil {
		return Record{}, fmt.Errorf("submit: store original: %w", err)
	}

	if err := s.registry.Add(rec); err != nil {
		s.discard(rec.OriginalStorageKey)
		return Record{}, fmt.Errorf("submit: %w", err)
	}

	go s.run(rec, variant, opts)

	return rec, nil
}

// Status reports the current lifecycle state for id.
func (s *Service) Status(id string) (Record, error) {
	rec, ok := s.registry.Get(id)
	if !ok {
		return Record{}, fmt.Errorf("status %s: %w", id, ErrNotFound)
	}
	return rec, nil
}

// Download is an open stream over a converted file. Closing it releases the
// record so cleanup can proceed.
type Download struct {
	Record      Record
	Content     io.ReadCloser
	Size        int64
	Filename    string
	ContentType string

	release func()
}

// Close closes the content stream and drops the record reference.
func (d *Download) Close() error {
	err := d.Content.Close()
	if d.release != nil {
		d.release()
		d.release = nil
	}
	return err
}

// Open resolves id to a download stream. Anything short of a done record with
// retrievable bytes reports ErrNotFound: an unknown id, a pending or failed
// conversion, and a blob missing despite the record (a race with cleanup or a
// backend outage) are indistinguishable to the caller.
func (s *Service) Open(ctx context.Context, id string) (*Download, error) {
	rec, ok := s.registry.Acquire(id)
	if !ok {
		return nil, fmt.Errorf("open %s: %w", id, ErrNotFound)
	}

	release := func() { s.registry.Release(id) }

	if rec.State != StateDone {
		release()
		return nil, fmt.Errorf("open %s: state %s: %w", id, rec.State, ErrNotFound)
	}

	size, err := s.backend.Size(ctx, rec.StorageKey)
	if err != nil {
		release()
		if !errors.Is(err, ErrNotFound) {
			slog.Error("record present but backend cannot stat blob",
				"id", id, "key", rec.StorageKey, "err", err)
		}
		return nil, fmt.Errorf("open %s: %w", id, ErrNotFound)
	}

	content, err := s.backend.Open(ctx, rec.StorageKey)
	if err != nil {
		release()
		if !errors.Is(err, ErrNotFound) {
			slog.Error("record present but backend cannot open blob",
				"id", id, "key", rec.StorageKey, "err", err)
		}
		return nil, fmt.Errorf("open %s: %w", id, ErrNotFound)
	}

	outputExt := filepath.Ext(rec.StorageKey)
	contentType := "application/octet-stream"
	if variant, ok := s.variants.Lookup(rec.Variant); ok {
		outputExt = variant.OutputExt
		contentType = variant.OutputType
	}

	return &Download{
		Record:      rec,
		Content:     content,
		Size:        size,
		Filename:    DownloadName(rec.OriginalName, outputExt),
		ContentType: contentType,
		release:     release,
	}, nil
}

// Close cancels all pending cleanup timers. Records and storage are left in
// place; a restarted process starts from an empty registry anyway.
func (s *Service) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, h := range s.pending {
		h.Cancel()
		delete(s.pending, id)
	}
}

// run executes one conversion detached from the submitting request. There is
// no cancellation: once started, the conversion settles as done or error.
func (s *Service) run(rec Record, variant convert.Variant, opts convert.Options) {
	ctx := context.Background()

	err := s.convertRecord(ctx, rec, variant, opts)
	if err == nil {
		s.settleDone(rec)
		return
	}

	slog.Error("conversion failed", "id", rec.ID, "variant", rec.Variant, "err", err)
	s.settleError(rec)
}

// convertRecord runs the converter against the stored original. Path-capable
// backends are converted in place; byte-stream backends get staged through
// temp files, which are removed regardless of outcome.
func (s *Service) convertRecord(ctx context.Context, rec Record, variant convert.Variant, opts convert.Options) error {
	if inPath, ok := s.backend.LocalPath(rec.OriginalStorageKey); ok {
		outPath, _ := s.backend.LocalPath(rec.StorageKey)
		return variant.Converter.Convert(ctx, inPath, outPath, opts)
	}

	inPath, err := s.stageIn(ctx, rec.OriginalStorageKey)
	if err != nil {
		return fmt.Errorf("stage in: %w", err)
	}
	defer s.removeTemp(inPath)

	outPath := inPath + ".out" + variant.OutputExt
	defer s.removeTemp(outPath)

	if err := variant.Converter.Convert(ctx, inPath, outPath, opts); err != nil {
		return err
	}

	if err := s.uploadResult(ctx, rec.StorageKey, outPath, variant.OutputType); err != nil {
		return fmt.Errorf("stage out: %w", err)
	}

	// The conversion is a one-way rewrite; the original blob is no longer
	// needed once the result is uploaded.
	s.discard(rec.OriginalStorageKey)
	return nil
}

// stageIn copies the original blob to an ephemeral local file and returns its
// path.
func (s *Service) stageIn(ctx context.Context, key string) (string, error) {
	src, err := s.backend.Open(ctx, key)
	if err != nil {
		return "", err
	}
	defer func() { _ = src.Close() }()

	tmp, err := os.CreateTemp(s.cfg.StagingDir, "vanish-stage-*"+filepath.Ext(key))
	if err != nil {
		return "", err
	}

	_, copyErr := io.Copy(tmp, src)
	closeErr := tmp.Close()
	if copyErr != nil {
		s.removeTemp(tmp.Name())
		return "", copyErr
	}
	if closeErr != nil {
		s.removeTemp(tmp.Name())
		return "", closeErr
	}
	return tmp.Name(), nil
}

// uploadResult streams the converted temp file to the backend under key with
// exact size metadata.
func (s *Service) uploadResult(ctx context.Context, key, path, contentType string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()

	info, err := f.Stat()
	if err != nil {
		return err
	}

	return s.backend.Put(ctx, key, f, info.Size(), contentType)
}

func (s *Service) settleDone(rec Record) {
	_, ok := s.registry.Update(rec.ID, func(r *Record) {
		r.State = StateDone
		r.GeneratedAt = time.Now().UTC()
	})
	if !ok {
		slog.Warn("record vanished before completion", "id", rec.ID)
		return
	}
	s.armCleanup(rec.ID, s.cfg.DoneTTL)
}

func (s *Service) settleError(rec Record) {
	// A failed conversion may leave partial output behind the reserved key;
	// discard it along with the original, which has no further use.
	s.discard(rec.StorageKey)
	s.discard(rec.OriginalStorageKey)

	_, ok := s.registry.Update(rec.ID, func(r *Record) {
		r.State = StateError
	})
	if !ok {
		slog.Warn("record vanished before completion", "id", rec.ID)
		return
	}
	s.armCleanup(rec.ID, s.cfg.ErrorTTL)
}

// armCleanup schedules the one-shot deletion for id, replacing any previously
// armed timer so a record is never deleted twice.
func (s *Service) armCleanup(id string, delay time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if prev, ok := s.pending[id]; ok {
		prev.Cancel()
	}
	s.pending[id] = s.scheduler.AfterFunc(delay, func() { s.cleanup(id) })
}

// cleanup removes the record and its storage. All deletions are best-effort:
// failures are logged, never retried, never re-raised. A record held open by
// a download is backed off rather than torn down mid-stream.
func (s *Service) cleanup(id string) {
	rec, removed, busy := s.registry.RemoveIfIdle(id)
	if busy {
		slog.Debug("cleanup deferred, record in use", "id", id)
		s.armCleanup(id, s.cfg.BusyRetryDelay)
		return
	}

	s.mu.Lock()
	delete(s.pending, id)
	s.mu.Unlock()

	if !removed {
		return
	}

	s.discard(rec.StorageKey)
	if rec.OriginalStorageKey != "" && rec.OriginalStorageKey != rec.StorageKey {
		s.discard(rec.OriginalStorageKey)
	}
	slog.Info("record cleaned up", "id", id, "state", rec.State)
}

// discard deletes a storage key, swallowing errors. Missing keys are already
// a no-op at the backend contract level.
func (s *Service) discard(key string) {
	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.CleanupTimeout)
	defer cancel()

	if err := s.backend.Delete(ctx, key); err != nil {
		slog.Warn("failed to delete storage key", "key", key, "err", err)
	}
}

func (s *Service) removeTemp(path string) {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Warn("failed to remove temp file", "path", path, "err", err)
	}
}
