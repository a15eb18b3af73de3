package documents

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"invoice-billing-backend/internal/apperror"
	"invoice-billing-backend/internal/metrics"
	"invoice-billing-backend/internal/models"
	"invoice-billing-backend/internal/services/rendering"

	"go.uber.org/zap"
)

const (
	// Prefix is the object-store namespace every invoice PDF lives under.
	Prefix = "invoices/"
	// DownloadTTL is how long a presigned download link stays valid.
	DownloadTTL = 120 * time.Second

	timestampLayout = "20060102150405"
	contentTypePDF  = "application/pdf"
)

type Renderer interface {
	Render(ctx context.Context, htmlPath, pdfPath string, opts rendering.Options) error
}

type ArtifactStore interface {
	Upload(ctx context.Context, key string, data []byte, contentType string) error
	List(ctx context.Context, prefix string) ([]string, error)
	PresignGet(ctx context.Context, key string, ttl time.Duration) (string, error)
}

type RenderLogger interface {
	Record(ctx context.Context, entry *models.RenderLog) error
}

// Request is one HTML document to turn into a stored PDF.
type Request struct {
	HTML      string
	Forename  string
	Surname   string
	YearMonth string
	Options   rendering.Options
}

func (r Request) validate() error {
	required := []struct{ name, value string }{
		{"html_string", r.HTML},
		{"forename", r.Forename},
		{"surname", r.Surname},
		{"yearmonth", r.YearMonth},
	}
	for _, f := range required {
		if strings.TrimSpace(f.value) == "" {
			return apperror.MissingFromRequest(f.name)
		}
	}
	return ValidateNameParts(r.Forename, r.Surname, r.YearMonth)
}

// ValidateNameParts rejects values that would escape the scratch directory or the
// object prefix once joined into an artifact name.
func ValidateNameParts(forename, surname, yearMonth string) error {
	parts := []struct{ name, value string }{
		{"forename", forename},
		{"surname", surname},
		{"yearmonth", yearMonth},
	}
	for _, p := range parts {
		if strings.ContainsAny(p.value, `/\`) || strings.Contains(p.value, "..") {
			return apperror.New(apperror.CodeBadRequest, fmt.Sprintf("Invalid %s in request.", p.name), nil)
		}
	}
	return nil
}

// Artifact is a PDF the pipeline stored.
type Artifact struct {
	Key      string
	Filename string
}

// ArtifactRef is one entry of the artifact listing.
type ArtifactRef struct {
	Key string `json:"Key"`
}

type Pipeline struct {
	renderer   Renderer
	store      ArtifactStore
	renderLog  RenderLogger
	metrics    *metrics.Metrics
	logger     *zap.Logger
	scratchDir string
	now        func() time.Time
}

type Option func(*Pipeline)

func WithScratchDir(dir string) Option {
	return func(p *Pipeline) {
		if dir != "" {
			p.scratchDir = dir
		}
	}
}

func WithRenderLog(l RenderLogger) Option {
	return func(p *Pipeline) { p.renderLog = l }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(p *Pipeline) { p.metrics = m }
}

func WithLogger(l *zap.Logger) Option {
	return func(p *Pipeline) {
		if l != nil {
			p.logger = l
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(p *Pipeline) { p.now = now }
}

func NewPipeline(renderer Renderer, store ArtifactStore, opts ...Option) *Pipeline {
	p := &Pipeline{
		renderer:   renderer,
		store:      store,
		logger:     zap.NewNop(),
		scratchDir: os.TempDir(),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// BaseName is the shared stem of the scratch files and the stored object.
// Second resolution: two renders for the same person and month in one second collide.
func BaseName(forename, surname, yearMonth string, at time.Time) string {
	return forename + surname + yearMonth + "-" + at.Format(timestampLayout)
}

// Generate renders req to PDF and uploads it under Prefix. Nothing is uploaded when
// the renderer fails.
func (p *Pipeline) Generate(ctx context.Context, req Request) (*Artifact, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}

	base := BaseName(req.Forename, req.Surname, req.YearMonth, p.now())
	htmlPath := filepath.Join(p.scratchDir, base+".html")
	pdfPath := strings.TrimSuffix(htmlPath, ".html") + ".pdf"
	key := Prefix + base + ".pdf"
	logger := p.logger.With(zap.String("key", key))

	if err := os.Remove(htmlPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
		logger.Warn("could not remove stale scratch file", zap.String("path", htmlPath), zap.Error(err))
	}
	defer p.cleanup(logger, htmlPath, pdfPath)

	if err := os.WriteFile(htmlPath, []byte(req.HTML), 0o600); err != nil {
		return nil, p.fail(ctx, logger, req, key, "scratch",
			apperror.New(apperror.CodeInternal, "Failed to write invoice HTML", err))
	}

	start := time.Now()
	err := p.renderer.Render(ctx, htmlPath, pdfPath, req.Options)
	p.metrics.ObserveRender(time.Since(start))
	if err != nil {
		return nil, p.fail(ctx, logger, req, key, "render",
			apperror.New(apperror.CodeInternal, "Failed to render invoice PDF", err))
	}
	p.metrics.DocumentStage("render", nil)

	data, err := os.ReadFile(pdfPath)
	if err != nil {
		return nil, p.fail(ctx, logger, req, key, "render",
			apperror.New(apperror.CodeInternal, "Rendered invoice PDF is missing", err))
	}

	if err := p.store.Upload(ctx, key, data, contentTypePDF); err != nil {
		return nil, p.fail(ctx, logger, req, key, "upload",
			apperror.New(apperror.CodeInternal, "Failed to upload invoice PDF", err))
	}
	p.metrics.DocumentStage("upload", nil)

	p.record(ctx, logger, req, key, nil)
	logger.Info("invoice document stored", zap.Int("bytes", len(data)))

	return &Artifact{Key: key, Filename: base + ".pdf"}, nil
}

// List numbers every object nested under Prefix as Key1, Key2, ... in store order.
// The bare prefix object, if any, is skipped.
func (p *Pipeline) List(ctx context.Context) (map[string]ArtifactRef, error) {
	keys, err := p.store.List(ctx, Prefix)
	if err != nil {
		p.logger.Error("failed to list invoice documents", zap.Error(err))
		return nil, apperror.New(apperror.CodeInternal, "Failed to list invoices", err)
	}

	refs := make(map[string]ArtifactRef)
	n := 1
	for _, k := range keys {
		rest, ok := strings.CutPrefix(k, Prefix)
		if !ok || rest == "" {
			continue
		}
		refs[fmt.Sprintf("Key%d", n)] = ArtifactRef{Key: k}
		n++
	}
	return refs, nil
}

// DownloadURL presigns a GET for Prefix+filename, valid for DownloadTTL.
func (p *Pipeline) DownloadURL(ctx context.Context, filename string) (string, error) {
	if strings.TrimSpace(filename) == "" {
		return "", apperror.MissingFromRequest("key")
	}
	if strings.HasPrefix(filename, "/") || strings.Contains(filename, "..") {
		return "", apperror.New(apperror.CodeBadRequest, "Invalid key in request.", nil)
	}

	url, err := p.store.PresignGet(ctx, Prefix+filename, DownloadTTL)
	if err != nil {
		p.logger.Error("failed to presign download", zap.String("filename", filename), zap.Error(err))
		return "", apperror.New(apperror.CodeInternal, "Failed to create download link", err)
	}
	return url, nil
}

func (p *Pipeline) fail(ctx context.Context, logger *zap.Logger, req Request, key, stage string, err error) error {
	logger.Error("invoice document pipeline failed", zap.String("stage", stage), zap.Error(err))
	p.metrics.DocumentStage(stage, err)
	p.record(ctx, logger, req, key, err)
	return err
}

// record never fails the pipeline; the log is bookkeeping.
func (p *Pipeline) record(ctx context.Context, logger *zap.Logger, req Request, key string, renderErr error) {
	if p.renderLog == nil {
		return
	}

	entry := &models.RenderLog{
		ArtifactKey: key,
		Forename:    req.Forename,
		Surname:     req.Surname,
		YearMonth:   req.YearMonth,
		Status:      models.RenderStatusUploaded,
	}
	if opts, err := json.Marshal(req.Options); err == nil {
		entry.Options = opts
	}
	if renderErr != nil {
		entry.Status = models.RenderStatusFailed
		entry.Error = renderErr.Error()
	}

	if err := p.renderLog.Record(ctx, entry); err != nil {
		logger.Warn("failed to record render log", zap.Error(err))
	}
}

func (p *Pipeline) cleanup(logger *zap.Logger, paths ...string) {
	for _, path := range paths {
		if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			logger.Warn("could not remove scratch file", zap.String("path", path), zap.Error(err))
		}
	}
}
