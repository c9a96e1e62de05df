package backup

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"sort"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"google.golang.org/api/iterator"
)

// GCSDestination stores archives in a Cloud Storage bucket under an optional prefix.
// It assumes Application Default Credentials are configured.
type GCSDestination struct {
	client *storage.Client
	bucket string
	prefix string
}

// NewGCSDestination creates a storage client for bucket.
func NewGCSDestination(ctx context.Context, bucket, prefix string) (*GCSDestination, error) {
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("NewGCSDestination: create storage client: %w", err)
	}
	return NewGCSDestinationWithClient(client, bucket, prefix)
}

// NewGCSDestinationWithClient uses an existing storage client.
func NewGCSDestinationWithClient(client *storage.Client, bucket, prefix string) (*GCSDestination, error) {
	if bucket == "" {
		return nil, fmt.Errorf("NewGCSDestination: bucket is required")
	}
	return &GCSDestination{client: client, bucket: bucket, prefix: strings.Trim(prefix, "/")}, nil
}

// Close releases the storage client.
func (d *GCSDestination) Close() error {
	return d.client.Close()
}

func (d *GCSDestination) objectName(name string) string {
	return joinObjectName(d.prefix, name)
}

func joinObjectName(prefix, name string) string {
	if prefix == "" {
		return name
	}
	return prefix + "/" + name
}

// URI returns the gs:// address of name.
func (d *GCSDestination) URI(name string) string {
	return "gs://" + d.bucket + "/" + d.objectName(name)
}

func (d *GCSDestination) Put(ctx context.Context, name string, data []byte) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	w := d.client.Bucket(d.bucket).Object(d.objectName(name)).NewWriter(ctx)
	w.ContentType = "application/json"

	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return fmt.Errorf("Put: write %s: %w", d.URI(name), err)
	}

	// Close finalizes the upload.
	if err := w.Close(); err != nil {
		return fmt.Errorf("Put: finalize upload: %w", err)
	}
	return nil
}

func (d *GCSDestination) Get(ctx context.Context, name string) ([]byte, error) {
	r, err := d.client.Bucket(d.bucket).Object(d.objectName(name)).NewReader(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) {
		return nil, fmt.Errorf("Get: %s: %w", d.URI(name), ErrObjectNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("Get: open object reader: %w", err)
	}
	defer r.Close()

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("Get: read object: %w", err)
	}
	return data, nil
}

func (d *GCSDestination) List(ctx context.Context, prefix string) ([]string, error) {
	it := d.client.Bucket(d.bucket).Objects(ctx, &storage.Query{Prefix: d.objectName(prefix)})

	var names []string
	for {
		attrs, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("List: iter next: %w", err)
		}
		name := attrs.Name
		if d.prefix != "" {
			name = strings.TrimPrefix(name, d.prefix+"/")
		}
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// ParseGCSURI splits "gs://bucket/path/to/object" into bucket and object path.
func ParseGCSURI(uri string) (bucket, object string, err error) {
	if !strings.HasPrefix(uri, "gs://") {
		return "", "", fmt.Errorf("invalid GCS URI: %s", uri)
	}

	trimmed := strings.TrimPrefix(uri, "gs://")
	parts := strings.SplitN(trimmed, "/", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("invalid GCS URI (no object path): %s", uri)
	}
	return parts[0], parts[1], nil
}

// FilenameFromGCSURI extracts the final path element of a GCS URI.
// e.g., "gs://bucket/alice/20240301T101500Z.json" → "20240301T101500Z.json"
func FilenameFromGCSURI(uri string) string {
	trimmed := strings.TrimPrefix(uri, "gs://")

	parts := strings.SplitN(trimmed, "/", 2)
	if len(parts) < 2 {
		return trimmed
	}
	return path.Base(parts[1])
}

var _ Destination = (*GCSDestination)(nil)
