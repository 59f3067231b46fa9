package gcs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"

	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	storage "google.golang.org/api/storage/v1"

	"github.com/shivshakti/boutique-backend/pkg/config"
	"github.com/shivshakti/boutique-backend/pkg/logger"
)

const (
	pingTimeout       = 5 * time.Second
	defaultPublicBase = "https://storage.googleapis.com"
)

// Client writes product images into a single bucket through the Cloud
// Storage JSON API.
type Client struct {
	svc        *storage.Service
	bucket     string
	publicBase string
}

// Uploader stores an object and returns its public URL.
type Uploader interface {
	Upload(ctx context.Context, object, contentType string, body io.Reader) (string, error)
}

// NewClient resolves credentials from the inline JSON, then the credentials
// file, then application default credentials. The bucket is probed before
// the client is returned.
func NewClient(ctx context.Context, cfg config.GCSConfig, gcp config.GCPConfig, logg *logger.Logger, extra ...option.ClientOption) (*Client, error) {
	if strings.TrimSpace(cfg.BucketName) == "" {
		return nil, errors.New("gcs bucket name is required")
	}

	opts := []option.ClientOption{option.WithScopes(storage.DevstorageReadWriteScope)}
	switch {
	case gcp.CredentialsJSON != "":
		opts = append(opts, option.WithCredentialsJSON([]byte(gcp.CredentialsJSON)))
	case gcp.ApplicationCredentials != "":
		opts = append(opts, option.WithCredentialsFile(gcp.ApplicationCredentials))
	}
	opts = append(opts, extra...)

	svc, err := storage.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating storage service: %w", err)
	}

	client := &Client{
		svc:        svc,
		bucket:     cfg.BucketName,
		publicBase: strings.TrimRight(cfg.PublicBase, "/"),
	}
	if err := client.Ping(ctx); err != nil {
		return nil, fmt.Errorf("gcs health check failed: %w", err)
	}

	if logg != nil {
		logg.Info(logg.WithField(ctx, "bucket", client.bucket), "gcs client initialized")
	}
	return client, nil
}

func (c *Client) DefaultBucket() string {
	if c == nil {
		return ""
	}
	return c.bucket
}

// Ping lists at most one object, which needs storage.objects.list.
func (c *Client) Ping(ctx context.Context) error {
	if c == nil || c.svc == nil {
		return errors.New("gcs client not initialized")
	}
	if c.bucket == "" {
		return errors.New("gcs bucket not configured")
	}

	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	if _, err := c.svc.Objects.List(c.bucket).MaxResults(1).Fields("kind").Context(ctx).Do(); err != nil {
		return fmt.Errorf("gcs object check: %w", err)
	}
	return nil
}

// Upload writes body under object and returns the object's public URL.
func (c *Client) Upload(ctx context.Context, object, contentType string, body io.Reader) (string, error) {
	if c == nil || c.svc == nil {
		return "", errors.New("gcs client not initialized")
	}
	object = strings.TrimLeft(strings.TrimSpace(object), "/")
	if object == "" {
		return "", errors.New("gcs object name is required")
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	meta := &storage.Object{Name: object, ContentType: contentType}
	stored, err := c.svc.Objects.Insert(c.bucket, meta).
		Media(body, googleapi.ContentType(contentType)).
		Context(ctx).
		Do()
	if err != nil {
		return "", fmt.Errorf("gcs upload: %w", err)
	}
	return c.PublicURL(stored.Name), nil
}

// PublicURL returns the browser-facing URL of an object in the bucket.
func (c *Client) PublicURL(object string) string {
	base := c.publicBase
	if base == "" {
		base = defaultPublicBase
	}
	parts := strings.Split(strings.TrimLeft(object, "/"), "/")
	for i, part := range parts {
		parts[i] = url.PathEscape(part)
	}
	return base + "/" + c.bucket + "/" + strings.Join(parts, "/")
}
