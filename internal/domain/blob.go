package domain

import (
	"context"
	"io"
	"time"
)

// BlobInfo describes a stored object.
type BlobInfo struct {
	Path         string
	Size         int64
	ContentType  string
	LastModified time.Time
}

// BlobWriter uploads data to object storage.
type BlobWriter interface {
	Put(ctx context.Context, path string, data io.Reader, contentType string) error
	PutMultipart(ctx context.Context, path string, data io.Reader, partSize int64) error
}

// BlobReader retrieves data from object storage.
type BlobReader interface {
	Get(ctx context.Context, path string) (io.ReadCloser, error)
	List(ctx context.Context, prefix string) ([]BlobInfo, error)
	Exists(ctx context.Context, path string) (bool, error)
}

// ExportManifest lists the objects written by one journal export.
type ExportManifest struct {
	Start      time.Time `json:"start"`
	End        time.Time `json:"end"`
	Paths      []string  `json:"paths"`
	RoundTrips int       `json:"round_trips"`
	Days       int       `json:"days"`
}

// Archiver moves journal data to cold storage: raw broker files as they are
// imported, and JSONL snapshots of derived data on demand.
type Archiver interface {
	ArchiveImport(ctx context.Context, batchID, name string, data []byte) (string, error)
	ExportJournal(ctx context.Context, start, end time.Time) (ExportManifest, error)
}
