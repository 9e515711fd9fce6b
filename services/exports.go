package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"metacurate/curation"
	"metacurate/models"
	"metacurate/storage"
)

// ErrArchiveDisabled wird gemeldet, wenn kein S3-Bucket konfiguriert ist.
var ErrArchiveDisabled = errors.New("export archive not configured")

// Exportformate.
const (
	FormatCSV    = "csv"
	FormatBibTeX = "bibtex"
)

// Export ist eine gerenderte Exportdatei.
type Export struct {
	Filename    string
	ContentType string
	Content     []byte
	NumStubs    int
}

// ExportService rendert CSV- und BibTeX-Exporte und archiviert sie in S3.
type ExportService struct {
	Curation *CurationService
	Archive  *storage.Archive
	Logger   *zap.Logger
}

// NewExportService erstellt eine neue Instanz des ExportService. archive darf nil sein.
func NewExportService(cur *CurationService, archive *storage.Archive, logger *zap.Logger) *ExportService {
	return &ExportService{Curation: cur, Archive: archive, Logger: logger}
}

// Render erzeugt den Export eines Projekts im gewünschten Format.
func (s *ExportService) Render(ctx context.Context, projectID, format string) (Export, error) {
	st, err := s.Curation.State(ctx, projectID)
	if err != nil {
		return Export{}, err
	}
	return render(projectID, format, st)
}

func render(projectID, format string, st curation.State) (Export, error) {
	exp := Export{NumStubs: st.StubCount()}
	switch format {
	case FormatCSV:
		exp.Filename = projectID + ".csv"
		exp.ContentType = "text/csv; charset=utf-8"
		exp.Content = []byte(curation.ExportCSV(st.Columns))
	case FormatBibTeX:
		exp.Filename = projectID + ".bib"
		exp.ContentType = "application/x-bibtex; charset=utf-8"
		exp.Content = []byte(curation.ExportBibTeX(st.Columns))
	default:
		return Export{}, fmt.Errorf("%w: unknown export format %q", ErrInvalidInput, format)
	}
	return exp, nil
}

// ArchiveProject lädt den Export eines Projekts nach S3 und protokolliert ihn.
func (s *ExportService) ArchiveProject(ctx context.Context, projectID, format, trigger string) (*models.ExportArchive, error) {
	if s.Archive == nil {
		return nil, ErrArchiveDisabled
	}
	exp, err := s.Render(ctx, projectID, format)
	if err != nil {
		return nil, err
	}

	key := s.Archive.Key(projectID, time.Now().UTC().Format("20060102-150405")+"-"+exp.Filename)
	link, err := s.Archive.UploadFile(ctx, key, exp.ContentType, exp.Content)
	if err != nil {
		s.Logger.Error("Fehler beim S3-Upload des Exports", zap.String("project_id", projectID), zap.String("key", key), zap.Error(err))
		return nil, fmt.Errorf("%w: %w", ErrUpstream, err)
	}

	rec := &models.ExportArchive{
		ProjectID: projectID,
		Format:    format,
		NumStubs:  exp.NumStubs,
		S3Key:     key,
		S3Link:    link,
		Trigger:   trigger,
	}
	if err := s.Curation.DB.WithContext(ctx).Create(rec).Error; err != nil {
		return nil, fmt.Errorf("save export archive: %w", err)
	}
	exportArchivesCounter.WithLabelValues(format, trigger).Inc()
	s.Logger.Info("Export archiviert",
		zap.String("project_id", projectID),
		zap.String("format", format),
		zap.String("key", key))
	return rec, nil
}

// ArchiveAll archiviert CSV und BibTeX aller Projekte. Fehler einzelner Projekte
// werden geloggt, der Lauf geht weiter.
func (s *ExportService) ArchiveAll(ctx context.Context) (int, error) {
	if s.Archive == nil {
		return 0, ErrArchiveDisabled
	}
	projects, err := s.Curation.ListProjects(ctx)
	if err != nil {
		s.Logger.Error("Fehler beim Abrufen der Projekte", zap.Error(err))
		return 0, err
	}
	count := 0
	for _, p := range projects {
		for _, format := range []string{FormatCSV, FormatBibTeX} {
			if _, err := s.ArchiveProject(ctx, p.ID, format, "nightly"); err != nil {
				s.Logger.Error("Nächtliche Archivierung fehlgeschlagen",
					zap.String("project_id", p.ID),
					zap.String("format", format),
					zap.Error(err))
				continue
			}
			count++
		}
	}
	return count, nil
}

// ListArchives liefert die archivierten Exporte eines Projekts, neueste zuerst.
func (s *ExportService) ListArchives(ctx context.Context, projectID string) ([]models.ExportArchive, error) {
	var out []models.ExportArchive
	err := s.Curation.DB.WithContext(ctx).
		Where("project_id = ?", projectID).
		Order("id desc").
		Find(&out).Error
	return out, err
}
