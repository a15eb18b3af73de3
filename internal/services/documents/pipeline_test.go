package documents

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"invoice-billing-backend/internal/apperror"
	"invoice-billing-backend/internal/models"
	"invoice-billing-backend/internal/services/rendering"
	"invoice-billing-backend/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2024, 3, 1, 12, 30, 45, 0, time.UTC)

type fakeRenderer struct {
	mu    sync.Mutex
	calls int
	html  string
	opts  rendering.Options
	err   error
}

func (f *fakeRenderer) Render(_ context.Context, htmlPath, pdfPath string, opts rendering.Options) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.opts = opts
	if b, err := os.ReadFile(htmlPath); err == nil {
		f.html = string(b)
	}
	if f.err != nil {
		return f.err
	}
	return os.WriteFile(pdfPath, []byte("%PDF-1.4 fake"), 0o600)
}

type fakeRenderLog struct {
	entries []*models.RenderLog
	err     error
}

func (f *fakeRenderLog) Record(_ context.Context, entry *models.RenderLog) error {
	f.entries = append(f.entries, entry)
	return f.err
}

// recordingStore wraps MemoryStore to capture presign calls and inject upload failures.
type recordingStore struct {
	*storage.MemoryStore
	uploadErr  error
	listErr    error
	presignKey string
	presignTTL time.Duration
}

func (r *recordingStore) Upload(ctx context.Context, key string, data []byte, contentType string) error {
	if r.uploadErr != nil {
		return r.uploadErr
	}
	return r.MemoryStore.Upload(ctx, key, data, contentType)
}

func (r *recordingStore) List(ctx context.Context, prefix string) ([]string, error) {
	if r.listErr != nil {
		return nil, r.listErr
	}
	return r.MemoryStore.List(ctx, prefix)
}

func (r *recordingStore) PresignGet(ctx context.Context, key string, ttl time.Duration) (string, error) {
	r.presignKey, r.presignTTL = key, ttl
	return r.MemoryStore.PresignGet(ctx, key, ttl)
}

type fixture struct {
	pipeline *Pipeline
	renderer *fakeRenderer
	store    *recordingStore
	log      *fakeRenderLog
	dir      string
}

func newFixture(t *testing.T) *fixture {
	f := &fixture{
		renderer: &fakeRenderer{},
		store:    &recordingStore{MemoryStore: storage.NewMemoryStore()},
		log:      &fakeRenderLog{},
		dir:      t.TempDir(),
	}
	f.pipeline = NewPipeline(f.renderer, f.store,
		WithScratchDir(f.dir),
		WithRenderLog(f.log),
		WithClock(func() time.Time { return fixedNow }),
	)
	return f
}

func validRequest() Request {
	return Request{
		HTML:      "<html><body>Please pay 19.99</body></html>",
		Forename:  "Ada",
		Surname:   "Lovelace",
		YearMonth: "2024-03",
	}
}

func TestBaseName(t *testing.T) {
	assert.Equal(t, "AdaLovelace2024-03-20240301123045", BaseName("Ada", "Lovelace", "2024-03", fixedNow))
}

func TestPipeline_Generate(t *testing.T) {
	f := newFixture(t)
	req := validRequest()
	req.Options = rendering.Options{Orientation: rendering.OrientationLandscape, Title: "March"}

	artifact, err := f.pipeline.Generate(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, "invoices/AdaLovelace2024-03-20240301123045.pdf", artifact.Key)
	assert.Equal(t, "AdaLovelace2024-03-20240301123045.pdf", artifact.Filename)
	assert.Equal(t, 1, f.renderer.calls)
	assert.Equal(t, req.HTML, f.renderer.html)
	assert.Equal(t, req.Options, f.renderer.opts)

	data, contentType, ok := f.store.Get(artifact.Key)
	require.True(t, ok)
	assert.Equal(t, "application/pdf", contentType)
	assert.Equal(t, []byte("%PDF-1.4 fake"), data)

	entries, err := os.ReadDir(f.dir)
	require.NoError(t, err)
	assert.Empty(t, entries, "scratch files should be removed")

	require.Len(t, f.log.entries, 1)
	assert.Equal(t, models.RenderStatusUploaded, f.log.entries[0].Status)
	assert.Equal(t, artifact.Key, f.log.entries[0].ArtifactKey)
	assert.JSONEq(t, `{"orientation":"landscape","title":"March"}`, string(f.log.entries[0].Options))
}

func TestPipeline_Generate_ReplacesStaleScratchFile(t *testing.T) {
	f := newFixture(t)
	stale := filepath.Join(f.dir, "AdaLovelace2024-03-20240301123045.html")
	require.NoError(t, os.WriteFile(stale, []byte("stale"), 0o600))

	_, err := f.pipeline.Generate(context.Background(), validRequest())
	require.NoError(t, err)
	assert.Equal(t, validRequest().HTML, f.renderer.html)
}

func TestPipeline_Generate_MissingFields(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Request)
		want   string
	}{
		{"html", func(r *Request) { r.HTML = "" }, "Missing html_string from request."},
		{"forename", func(r *Request) { r.Forename = "" }, "Missing forename from request."},
		{"surname", func(r *Request) { r.Surname = "  " }, "Missing surname from request."},
		{"yearmonth", func(r *Request) { r.YearMonth = "" }, "Missing yearmonth from request."},
		{"first missing wins", func(r *Request) { r.Surname = ""; r.YearMonth = "" }, "Missing surname from request."},
		{"path in name", func(r *Request) { r.Forename = "../etc" }, "Invalid forename in request."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			req := validRequest()
			tt.mutate(&req)

			_, err := f.pipeline.Generate(context.Background(), req)

			var appErr *apperror.Error
			require.ErrorAs(t, err, &appErr)
			assert.Equal(t, apperror.CodeBadRequest, appErr.Code)
			assert.Equal(t, tt.want, appErr.Message)
			assert.Zero(t, f.renderer.calls)
			keys, _ := f.store.List(context.Background(), "")
			assert.Empty(t, keys)
			assert.Empty(t, f.log.entries)
		})
	}
}

func TestPipeline_Generate_RenderFailureSkipsUpload(t *testing.T) {
	f := newFixture(t)
	f.renderer.err = rendering.ErrRenderFailed

	_, err := f.pipeline.Generate(context.Background(), validRequest())

	assert.Equal(t, apperror.CodeInternal, apperror.CodeOf(err))
	assert.ErrorIs(t, err, rendering.ErrRenderFailed)
	keys, _ := f.store.List(context.Background(), "")
	assert.Empty(t, keys)
	require.Len(t, f.log.entries, 1)
	assert.Equal(t, models.RenderStatusFailed, f.log.entries[0].Status)
	assert.NotEmpty(t, f.log.entries[0].Error)
}

func TestPipeline_Generate_UploadFailure(t *testing.T) {
	f := newFixture(t)
	f.store.uploadErr = errors.New("bucket unreachable")

	_, err := f.pipeline.Generate(context.Background(), validRequest())

	assert.Equal(t, apperror.CodeInternal, apperror.CodeOf(err))
	assert.Equal(t, "Failed to upload invoice PDF", apperror.MessageOf(err, ""))
}

func TestPipeline_Generate_RenderLogFailureIsIgnored(t *testing.T) {
	f := newFixture(t)
	f.log.err = errors.New("db down")

	_, err := f.pipeline.Generate(context.Background(), validRequest())
	assert.NoError(t, err)
}

func TestPipeline_List(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	for _, k := range []string{"invoices/", "invoices/b.pdf", "invoices/a.pdf", "invoices/archive/c.pdf", "receipts/d.pdf"} {
		require.NoError(t, f.store.MemoryStore.Upload(ctx, k, []byte("x"), "application/pdf"))
	}

	refs, err := f.pipeline.List(ctx)
	require.NoError(t, err)

	assert.Equal(t, map[string]ArtifactRef{
		"Key1": {Key: "invoices/a.pdf"},
		"Key2": {Key: "invoices/archive/c.pdf"},
		"Key3": {Key: "invoices/b.pdf"},
	}, refs)

	t.Run("store failure", func(t *testing.T) {
		f.store.listErr = errors.New("timeout")
		_, err := f.pipeline.List(ctx)
		assert.Equal(t, apperror.CodeInternal, apperror.CodeOf(err))
	})
}

func TestPipeline_DownloadURL(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	url, err := f.pipeline.DownloadURL(ctx, "AdaLovelace2024-03-20240301123045.pdf")
	require.NoError(t, err)
	assert.Contains(t, url, "invoices/AdaLovelace2024-03-20240301123045.pdf")
	assert.Equal(t, "invoices/AdaLovelace2024-03-20240301123045.pdf", f.store.presignKey)
	assert.Equal(t, 120*time.Second, f.store.presignTTL)

	for _, bad := range []string{"../secrets.txt", "/etc/passwd", "a/../../b"} {
		_, err := f.pipeline.DownloadURL(ctx, bad)
		assert.Equal(t, apperror.CodeBadRequest, apperror.CodeOf(err), bad)
	}

	_, err = f.pipeline.DownloadURL(ctx, "")
	assert.Equal(t, "Missing key from request.", apperror.MessageOf(err, ""))
}
