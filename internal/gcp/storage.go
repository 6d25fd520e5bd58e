package gcp

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"

	"cloud.google.com/go/storage"
	"google.golang.org/api/googleapi"
)

// GetEnv is a helper to read an environment variable or return a default value.
func GetEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

// Storage wraps the GCS client with the narrow object contract the pipeline
// needs: read bytes, read tags, write bytes with a content type and tags.
// Tags are carried as custom object metadata.
type Storage struct {
	client *storage.Client
}

// NewStorage creates a Storage backed by a new GCS client.
func NewStorage(ctx context.Context) (*Storage, error) {
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}
	return &Storage{client: client}, nil
}

// GetObject reads the full content of an object.
func (s *Storage) GetObject(ctx context.Context, bucket, name string) ([]byte, error) {
	r, err := s.client.Bucket(bucket).Object(name).NewReader(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to open gs://%s/%s: %w", bucket, name, err)
	}
	defer r.Close()

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read gs://%s/%s: %w", bucket, name, err)
	}
	return data, nil
}

// GetTags returns the custom metadata attached to an object. An object with
// no metadata yields an empty map.
func (s *Storage) GetTags(ctx context.Context, bucket, name string) (map[string]string, error) {
	attrs, err := s.client.Bucket(bucket).Object(name).Attrs(ctx)
	if err != nil {
		if isNotFound(err) {
			return nil, fmt.Errorf("object gs://%s/%s does not exist: %w", bucket, name, err)
		}
		return nil, fmt.Errorf("failed to read attributes of gs://%s/%s: %w", bucket, name, err)
	}
	tags := make(map[string]string, len(attrs.Metadata))
	for k, v := range attrs.Metadata {
		tags[k] = v
	}
	return tags, nil
}

// PutObject overwrites an object with new content, content type and tags.
func (s *Storage) PutObject(ctx context.Context, bucket, name string, data []byte, contentType string, tags map[string]string) error {
	w := s.client.Bucket(bucket).Object(name).NewWriter(ctx)
	w.ContentType = contentType
	w.Metadata = tags

	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return fmt.Errorf("failed to write gs://%s/%s: %w", bucket, name, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("failed to finalize write of gs://%s/%s: %w", bucket, name, err)
	}
	return nil
}

func isNotFound(err error) bool {
	if errors.Is(err, storage.ErrObjectNotExist) {
		return true
	}
	var gerr *googleapi.Error
	return errors.As(err, &gerr) && gerr.Code == http.StatusNotFound
}
