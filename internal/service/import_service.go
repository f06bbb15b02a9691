package service

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/alanyoungcy/optjournal/internal/domain"
	"github.com/alanyoungcy/optjournal/internal/source"
)

// ImportNotifier is told about finished and failed file imports.
type ImportNotifier interface {
	ImportCompleted(ctx context.Context, source string, res domain.ImportResult) error
	ImportFailed(ctx context.Context, source string, err error) error
}

// ImportConfig controls what happens around a file import.
type ImportConfig struct {
	// ArchiveRaw uploads the raw file through the Archiver after a
	// successful import.
	ArchiveRaw bool
}

// ImportService imports broker export files. It is the single entry point
// shared by the CLI, the inbox watcher and the HTTP API.
type ImportService struct {
	journal  *JournalService
	archiver domain.Archiver
	notifier ImportNotifier
	cfg      ImportConfig
	logger   *slog.Logger
}

// NewImportService creates an ImportService. archiver and notifier may be nil.
func NewImportService(
	journal *JournalService,
	archiver domain.Archiver,
	notifier ImportNotifier,
	cfg ImportConfig,
	logger *slog.Logger,
) *ImportService {
	return &ImportService{
		journal:  journal,
		archiver: archiver,
		notifier: notifier,
		cfg:      cfg,
		logger:   logger.With(slog.String("component", "import_service")),
	}
}

// ImportFile parses an E*TRADE transaction export from r and imports it.
// name identifies the file in logs, archives and notifications.
func (s *ImportService) ImportFile(ctx context.Context, name string, r io.Reader) (domain.ImportResult, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return domain.ImportResult{}, s.fail(ctx, name, fmt.Errorf("import_service: read %s: %w", name, err))
	}

	records, err := source.ParseETrade(bytes.NewReader(data))
	if err != nil {
		return domain.ImportResult{}, s.fail(ctx, name, fmt.Errorf("import_service: parse %s: %w", name, err))
	}

	res, err := s.journal.ImportBatch(ctx, records)
	res.Source = name
	if err != nil {
		return res, s.fail(ctx, name, err)
	}

	if s.cfg.ArchiveRaw && s.archiver != nil {
		path, archErr := s.archiver.ArchiveImport(ctx, res.BatchID, name, data)
		if archErr != nil {
			s.logger.WarnContext(ctx, "archive raw import failed",
				slog.String("source", name),
				slog.String("error", archErr.Error()),
			)
		} else {
			res.ArchivePath = path
		}
	}

	if s.notifier != nil {
		if nErr := s.notifier.ImportCompleted(ctx, name, res); nErr != nil {
			s.logger.WarnContext(ctx, "import notification failed", slog.String("error", nErr.Error()))
		}
	}
	return res, nil
}

// ImportLocation opens a local path or s3:// key and imports it.
func (s *ImportService) ImportLocation(ctx context.Context, location string, blobs domain.BlobReader) (domain.ImportResult, error) {
	rc, name, err := source.Open(ctx, location, blobs)
	if err != nil {
		return domain.ImportResult{}, err
	}
	defer rc.Close()
	return s.ImportFile(ctx, name, rc)
}

func (s *ImportService) fail(ctx context.Context, name string, err error) error {
	s.logger.ErrorContext(ctx, "import failed",
		slog.String("source", name),
		slog.String("error", err.Error()),
	)
	if s.notifier != nil {
		if nErr := s.notifier.ImportFailed(ctx, name, err); nErr != nil {
			s.logger.WarnContext(ctx, "import notification failed", slog.String("error", nErr.Error()))
		}
	}
	return err
}
