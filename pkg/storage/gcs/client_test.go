package gcs

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"

	"github.com/shivshakti/boutique-backend/pkg/config"
)

func fakeStorage(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return srv
}

func testOptions(srv *httptest.Server) []option.ClientOption {
	return []option.ClientOption{
		option.WithEndpoint(srv.URL + "/storage/v1/"),
		option.WithHTTPClient(srv.Client()),
		option.WithoutAuthentication(),
	}
}

func newTestClient(t *testing.T, srv *httptest.Server, publicBase string) *Client {
	t.Helper()
	client, err := NewClient(context.Background(), config.GCSConfig{BucketName: "boutique-media", PublicBase: publicBase}, config.GCPConfig{}, nil, testOptions(srv)...)
	require.NoError(t, err)
	return client
}

func TestNewClientProbesBucket(t *testing.T) {
	var listed bool
	srv := fakeStorage(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/storage/v1/b/boutique-media/o", r.URL.Path)
		assert.Equal(t, "1", r.URL.Query().Get("maxResults"))
		listed = true
		_, _ = w.Write([]byte(`{"kind":"storage#objects"}`))
	})

	client := newTestClient(t, srv, "")
	assert.True(t, listed)
	assert.Equal(t, "boutique-media", client.DefaultBucket())
}

func TestNewClientFailsWhenBucketUnreachable(t *testing.T) {
	srv := fakeStorage(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":{"code":404,"message":"bucket missing"}}`))
	})

	_, err := NewClient(context.Background(), config.GCSConfig{BucketName: "gone"}, config.GCPConfig{}, nil, testOptions(srv)...)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bucket missing")

	_, err = NewClient(context.Background(), config.GCSConfig{}, config.GCPConfig{}, nil)
	assert.Error(t, err)
}

func TestUploadSendsObjectAndReturnsPublicURL(t *testing.T) {
	var gotPath, gotUploadType, gotBody string
	srv := fakeStorage(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			_, _ = w.Write([]byte(`{}`))
			return
		}
		gotPath = r.URL.Path
		gotUploadType = r.URL.Query().Get("uploadType")
		b, _ := io.ReadAll(r.Body)
		gotBody = string(b)
		_, _ = w.Write([]byte(`{"name":"products/abc.png","bucket":"boutique-media"}`))
	})
	client := newTestClient(t, srv, "https://cdn.example.com/")

	publicURL, err := client.Upload(context.Background(), "/products/abc.png", "image/png", strings.NewReader("png-bytes"))
	require.NoError(t, err)

	assert.Equal(t, "/upload/storage/v1/b/boutique-media/o", gotPath)
	assert.NotEmpty(t, gotUploadType)
	assert.Contains(t, gotBody, "png-bytes")
	assert.Contains(t, gotBody, `"name":"products/abc.png"`)
	assert.Equal(t, "https://cdn.example.com/boutique-media/products/abc.png", publicURL)
}

func TestUploadSurfacesAPIError(t *testing.T) {
	srv := fakeStorage(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			_, _ = w.Write([]byte(`{}`))
			return
		}
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"error":{"code":403,"message":"denied"}}`))
	})
	client := newTestClient(t, srv, "")

	_, err := client.Upload(context.Background(), "products/x.png", "image/png", strings.NewReader("x"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "403")
	assert.Contains(t, err.Error(), "denied")
}

func TestUploadRequiresObjectName(t *testing.T) {
	client := &Client{bucket: "b", svc: nil}
	_, err := client.Upload(context.Background(), "a", "image/png", strings.NewReader("x"))
	assert.Error(t, err)

	var nilClient *Client
	_, err = nilClient.Upload(context.Background(), "a", "", strings.NewReader("x"))
	assert.Error(t, err)
	assert.Error(t, nilClient.Ping(context.Background()))
	assert.Empty(t, nilClient.DefaultBucket())
}

func TestUploadRejectsBlankObject(t *testing.T) {
	srv := fakeStorage(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	})
	client := newTestClient(t, srv, "")
	_, err := client.Upload(context.Background(), " / ", "image/png", strings.NewReader("x"))
	assert.Error(t, err)
}

func TestPublicURLDefaultsToStorageHost(t *testing.T) {
	client := &Client{bucket: "bucket"}
	assert.Equal(t, "https://storage.googleapis.com/bucket/products/a%20b.png", client.PublicURL("/products/a b.png"))
}
