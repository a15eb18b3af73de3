package storage

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"invoice-billing-backend/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testStorageConfig(endpoint string) config.StorageConfig {
	return config.StorageConfig{
		Driver:       "s3",
		Bucket:       "test-bucket",
		Region:       "us-east-1",
		Endpoint:     endpoint,
		AccessKey:    "test-key",
		SecretKey:    "test-secret",
		UsePathStyle: true,
	}
}

func TestNewS3Store_Validation(t *testing.T) {
	_, err := NewS3Store(context.Background(), config.StorageConfig{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bucket is required")

	store, err := NewS3Store(context.Background(), testStorageConfig("http://localhost:9000"))
	require.NoError(t, err)
	assert.Equal(t, "test-bucket", store.Bucket())
}

func TestS3Store_PresignGet(t *testing.T) {
	store, err := NewS3Store(context.Background(), testStorageConfig("http://localhost:9000"))
	require.NoError(t, err)
	ctx := context.Background()

	t.Run("url is scoped to the key and expires", func(t *testing.T) {
		raw, err := store.PresignGet(ctx, "invoices/AdaLovelace2024-03-20240301120000.pdf", 120*time.Second)
		require.NoError(t, err)

		u, err := url.Parse(raw)
		require.NoError(t, err)
		assert.Equal(t, "/test-bucket/invoices/AdaLovelace2024-03-20240301120000.pdf", u.Path)
		assert.Equal(t, "120", u.Query().Get("X-Amz-Expires"))
		assert.NotEmpty(t, u.Query().Get("X-Amz-Signature"))
	})

	t.Run("empty key", func(t *testing.T) {
		_, err := store.PresignGet(ctx, "", time.Minute)
		assert.Error(t, err)
	})

	t.Run("non-positive ttl", func(t *testing.T) {
		_, err := store.PresignGet(ctx, "invoices/a.pdf", 0)
		assert.Error(t, err)
	})
}

// fakeS3 answers just enough of the S3 REST API for PutObject and ListObjectsV2.
type fakeS3 struct {
	mu   sync.Mutex
	puts map[string]string // key -> content type
	keys []string
}

func (f *fakeS3) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	path := strings.TrimPrefix(r.URL.Path, "/test-bucket")
	switch {
	case r.Method == http.MethodPut && path != "" && path != "/":
		f.puts[strings.TrimPrefix(path, "/")] = r.Header.Get("Content-Type")
		w.Header().Set("ETag", `"etag"`)
		w.WriteHeader(http.StatusOK)
	case r.Method == http.MethodGet && r.URL.Query().Get("list-type") == "2":
		prefix := r.URL.Query().Get("prefix")
		var b strings.Builder
		b.WriteString(`<?xml version="1.0" encoding="UTF-8"?>`)
		b.WriteString(`<ListBucketResult xmlns="http://s3.amazonaws.com/doc/2006-03-01/">`)
		b.WriteString(`<Name>test-bucket</Name><IsTruncated>false</IsTruncated>`)
		fmt.Fprintf(&b, `<Prefix>%s</Prefix>`, prefix)
		for _, k := range f.keys {
			if strings.HasPrefix(k, prefix) {
				fmt.Fprintf(&b, `<Contents><Key>%s</Key><Size>1</Size></Contents>`, k)
			}
		}
		b.WriteString(`</ListBucketResult>`)
		w.Header().Set("Content-Type", "application/xml")
		_, _ = w.Write([]byte(b.String()))
	default:
		w.WriteHeader(http.StatusNotImplemented)
	}
}

func TestS3Store_UploadAndList(t *testing.T) {
	fake := &fakeS3{
		puts: map[string]string{},
		keys: []string{"invoices/", "invoices/a.pdf", "invoices/b.pdf", "other/c.pdf"},
	}
	srv := httptest.NewServer(fake)
	defer srv.Close()

	store, err := NewS3Store(context.Background(), testStorageConfig(srv.URL))
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, store.Upload(ctx, "invoices/a.pdf", []byte("%PDF-1.4"), "application/pdf"))
	fake.mu.Lock()
	assert.Equal(t, "application/pdf", fake.puts["invoices/a.pdf"])
	fake.mu.Unlock()

	keys, err := store.List(ctx, "invoices/")
	require.NoError(t, err)
	assert.Equal(t, []string{"invoices/", "invoices/a.pdf", "invoices/b.pdf"}, keys)

	assert.Error(t, store.Upload(ctx, "", nil, "application/pdf"))
}
