// Package archive stores sanitized CSV payloads in Google Cloud Storage so a
// re-exported copy of an import is available for audit. The sanitizer
// guarantees the archived text is safe to open in spreadsheet software.
package archive

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// GCSArchiver uploads sanitized CSV text to a bucket. It assumes Application
// Default Credentials are configured.
type GCSArchiver struct {
	bucket string
	log    zerolog.Logger
}

// New creates an archiver. An empty bucket name disables archival.
func New(bucket string, log zerolog.Logger) *GCSArchiver {
	return &GCSArchiver{bucket: bucket, log: log}
}

// Enabled reports whether a bucket is configured.
func (a *GCSArchiver) Enabled() bool {
	return a != nil && a.bucket != ""
}

// ArchiveCSV uploads the sanitized payload under a date-partitioned,
// organization-scoped object name and returns the gs:// URI.
func (a *GCSArchiver) ArchiveCSV(ctx context.Context, orgID, sanitizedCSV string) (string, error) {
	objectName := fmt.Sprintf("csv-imports/%s/%s/%s.csv",
		orgID, time.Now().UTC().Format("2006/01/02"), uuid.NewString())

	client, err := storage.NewClient(ctx)
	if err != nil {
		return "", fmt.Errorf("archive: create storage client: %w", err)
	}
	defer client.Close()

	ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	w := client.Bucket(a.bucket).Object(objectName).NewWriter(ctx)
	w.ContentType = "text/csv"

	if _, err := io.Copy(w, strings.NewReader(sanitizedCSV)); err != nil {
		_ = w.Close()
		return "", fmt.Errorf("archive: write object: %w", err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("archive: finalize upload: %w", err)
	}

	return fmt.Sprintf("gs://%s/%s", a.bucket, objectName), nil
}
