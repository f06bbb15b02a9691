package source

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/alanyoungcy/optjournal/internal/domain"
)

// S3Scheme prefixes import locations that live in object storage.
const S3Scheme = "s3://"

// Open resolves an import location: a local path, or s3://<key> read through
// blobs. It returns the stream and a short name for archiving and logs.
func Open(ctx context.Context, location string, blobs domain.BlobReader) (io.ReadCloser, string, error) {
	if key, ok := strings.CutPrefix(location, S3Scheme); ok {
		if blobs == nil {
			return nil, "", fmt.Errorf("source: open %s: object storage not configured: %w", location, domain.ErrUnsupported)
		}
		rc, err := blobs.Get(ctx, key)
		if err != nil {
			return nil, "", fmt.Errorf("source: open %s: %w", location, err)
		}
		return rc, filepath.Base(key), nil
	}

	f, err := os.Open(location)
	if err != nil {
		return nil, "", fmt.Errorf("source: open %s: %w", location, err)
	}
	return f, filepath.Base(location), nil
}
