package s3blob

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/alanyoungcy/optjournal/internal/domain"
)

// multipartThreshold is the payload size above which exports are streamed
// through the multipart uploader.
const multipartThreshold = 16 * 1024 * 1024

// JournalReader is the read side of the day store the exporter needs.
type JournalReader interface {
	RoundTripsInRange(ctx context.Context, start, end time.Time) ([]domain.RoundTrip, error)
	Summaries(ctx context.Context, start, end time.Time) ([]domain.DailySummary, error)
}

var _ domain.Archiver = (*ArchiveImpl)(nil)

// ArchiveImpl implements domain.Archiver on top of a BlobWriter.
//
// Raw broker files land under imports/YYYY-MM/ keyed by batch id so a
// re-import of the same file never overwrites the earlier copy. Exports are
// JSONL snapshots of derived data under exports/<start>_<end>/ with a
// manifest.json listing what was written.
type ArchiveImpl struct {
	writer domain.BlobWriter
	days   JournalReader
	audit  domain.AuditStore
	now    func() time.Time
}

// NewArchiver creates a new ArchiveImpl. audit may be nil.
func NewArchiver(writer domain.BlobWriter, days JournalReader, audit domain.AuditStore) *ArchiveImpl {
	return &ArchiveImpl{
		writer: writer,
		days:   days,
		audit:  audit,
		now:    time.Now,
	}
}

// ArchiveImport stores the raw bytes of an imported file and returns the
// path it was written to.
func (a *ArchiveImpl) ArchiveImport(ctx context.Context, batchID, name string, data []byte) (string, error) {
	p := importPath(a.now(), batchID, name)
	if err := a.put(ctx, p, data, "text/csv"); err != nil {
		return "", fmt.Errorf("s3blob: archive import: %w", err)
	}
	a.log(ctx, "archive.import", map[string]any{
		"path":     p,
		"batch_id": batchID,
		"bytes":    len(data),
	})
	return p, nil
}

// ExportJournal writes the round trips and daily summaries of the inclusive
// range [start, end] as JSONL, followed by a manifest.
func (a *ArchiveImpl) ExportJournal(ctx context.Context, start, end time.Time) (domain.ExportManifest, error) {
	if end.Before(start) {
		return domain.ExportManifest{}, fmt.Errorf("s3blob: export: %w", domain.ErrInvalidRange)
	}

	trips, err := a.days.RoundTripsInRange(ctx, start, end)
	if err != nil {
		return domain.ExportManifest{}, fmt.Errorf("s3blob: export round trips query: %w", err)
	}
	summaries, err := a.days.Summaries(ctx, start, end)
	if err != nil {
		return domain.ExportManifest{}, fmt.Errorf("s3blob: export summaries query: %w", err)
	}

	manifest := domain.ExportManifest{
		Start:      start,
		End:        end,
		RoundTrips: len(trips),
		Days:       len(summaries),
	}
	dir := exportDir(start, end)

	tripsBuf, err := marshalJSONL(trips)
	if err != nil {
		return manifest, fmt.Errorf("s3blob: export round trips marshal: %w", err)
	}
	tripsPath := path.Join(dir, "round_trips.jsonl")
	if err := a.put(ctx, tripsPath, tripsBuf, "application/x-ndjson"); err != nil {
		return manifest, fmt.Errorf("s3blob: export round trips upload: %w", err)
	}
	manifest.Paths = append(manifest.Paths, tripsPath)

	sumBuf, err := marshalJSONL(summaries)
	if err != nil {
		return manifest, fmt.Errorf("s3blob: export summaries marshal: %w", err)
	}
	sumPath := path.Join(dir, "daily_summaries.jsonl")
	if err := a.put(ctx, sumPath, sumBuf, "application/x-ndjson"); err != nil {
		return manifest, fmt.Errorf("s3blob: export summaries upload: %w", err)
	}
	manifest.Paths = append(manifest.Paths, sumPath)

	manBuf, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return manifest, fmt.Errorf("s3blob: export manifest marshal: %w", err)
	}
	if err := a.put(ctx, path.Join(dir, "manifest.json"), manBuf, "application/json"); err != nil {
		return manifest, fmt.Errorf("s3blob: export manifest upload: %w", err)
	}

	a.log(ctx, "export.journal", map[string]any{
		"start":       start.Format(domain.DateLayout),
		"end":         end.Format(domain.DateLayout),
		"round_trips": manifest.RoundTrips,
		"days":        manifest.Days,
	})
	return manifest, nil
}

func (a *ArchiveImpl) put(ctx context.Context, p string, data []byte, contentType string) error {
	if len(data) > multipartThreshold {
		return a.writer.PutMultipart(ctx, p, bytes.NewReader(data), 0)
	}
	return a.writer.Put(ctx, p, bytes.NewReader(data), contentType)
}

// log records an audit entry; a failing audit store never fails the upload
// that already succeeded.
func (a *ArchiveImpl) log(ctx context.Context, event string, detail map[string]any) {
	if a.audit == nil {
		return
	}
	_ = a.audit.Log(ctx, event, detail)
}

// importPath builds the key for a raw import, partitioned by month:
//
//	imports/2026-02/5f0c...-etrade.csv
func importPath(at time.Time, batchID, name string) string {
	base := path.Base(strings.ReplaceAll(name, "\\", "/"))
	if base == "." || base == "/" || base == "" {
		base = "import.csv"
	}
	return fmt.Sprintf("imports/%s/%s-%s", at.UTC().Format("2006-01"), batchID, base)
}

// exportDir builds the directory for one export:
//
//	exports/2026-02-01_2026-02-28
func exportDir(start, end time.Time) string {
	return fmt.Sprintf("exports/%s_%s", start.Format(domain.DateLayout), end.Format(domain.DateLayout))
}

// marshalJSONL serialises records as newline-delimited JSON.
func marshalJSONL[T any](records []T) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)

	for i, rec := range records {
		if err := enc.Encode(rec); err != nil {
			return nil, fmt.Errorf("jsonl encode record %d: %w", i, err)
		}
	}
	return buf.Bytes(), nil
}
