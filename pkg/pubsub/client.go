package pubsub

import (
	"context"
	"errors"
	"fmt"
	"strings"

	pubsub "cloud.google.com/go/pubsub/v2"
	"cloud.google.com/go/pubsub/v2/apiv1/pubsubpb"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/shivshakti/boutique-backend/pkg/config"
	"github.com/shivshakti/boutique-backend/pkg/logger"
)

var errProjectIDRequired = errors.New("gcp project id is required")

// Client owns the Pub/Sub connection used to publish order events.
type Client struct {
	client    *pubsub.Client
	projectID string
}

// NewClient connects with the same credential order as the storage client.
// extra options are appended last so tests can point at an emulator.
func NewClient(ctx context.Context, gcp config.GCPConfig, logg *logger.Logger, extra ...option.ClientOption) (*Client, error) {
	projectID := strings.TrimSpace(gcp.ProjectID)
	if projectID == "" {
		return nil, errProjectIDRequired
	}

	var opts []option.ClientOption
	switch {
	case gcp.CredentialsJSON != "":
		opts = append(opts, option.WithCredentialsJSON([]byte(gcp.CredentialsJSON)))
	case gcp.ApplicationCredentials != "":
		opts = append(opts, option.WithCredentialsFile(gcp.ApplicationCredentials))
	}
	opts = append(opts, extra...)

	psClient, err := pubsub.NewClient(ctx, projectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating pubsub client: %w", err)
	}
	if logg != nil {
		logg.Info(logg.WithField(ctx, "project_id", projectID), "pubsub client initialized")
	}
	return &Client{client: psClient, projectID: projectID}, nil
}

// Topic returns a publisher for name after checking the topic exists.
func (c *Client) Topic(ctx context.Context, name string) (*Topic, error) {
	if c == nil || c.client == nil {
		return nil, errors.New("pubsub client not initialized")
	}
	fullName := c.topicResourceName(name)
	if fullName == "" {
		return nil, errors.New("pubsub topic name is required")
	}

	_, err := c.client.TopicAdminClient.GetTopic(ctx, &pubsubpb.GetTopicRequest{Topic: fullName})
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, fmt.Errorf("topic %q does not exist", name)
		}
		return nil, fmt.Errorf("checking topic %q: %w", name, err)
	}
	return &Topic{name: fullName, publisher: c.client.Publisher(fullName)}, nil
}

func (c *Client) Close() error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Close()
}

func (c *Client) topicResourceName(name string) string {
	n := strings.TrimSpace(name)
	if n == "" {
		return ""
	}
	if strings.HasPrefix(n, "projects/") && strings.Contains(n, "/topics/") {
		return n
	}
	return fmt.Sprintf("projects/%s/topics/%s", c.projectID, n)
}

// Topic publishes messages and blocks until the server acknowledges them.
type Topic struct {
	name      string
	publisher *pubsub.Publisher
}

func (t *Topic) Name() string {
	return t.name
}

// Publish returns the server-assigned message id.
func (t *Topic) Publish(ctx context.Context, data []byte, attrs map[string]string) (string, error) {
	res := t.publisher.Publish(ctx, &pubsub.Message{Data: data, Attributes: attrs})
	id, err := res.Get(ctx)
	if err != nil {
		return "", fmt.Errorf("publishing to %s: %w", t.name, err)
	}
	return id, nil
}

// Stop flushes pending messages. The topic cannot publish afterwards.
func (t *Topic) Stop() {
	if t != nil && t.publisher != nil {
		t.publisher.Stop()
	}
}
