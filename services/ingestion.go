package services

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"metacurate/curation"
	"metacurate/models"
)

// ErrIngestionRunning wird gemeldet, wenn für ein Projekt bereits eine Ingestion läuft.
var ErrIngestionRunning = errors.New("ingestion already running")

// StudyCreator ist der Teil des Neurostore-Clients, den die Ingestion braucht.
type StudyCreator interface {
	CreateStudy(ctx context.Context, stub curation.StubStudy) (string, error)
	CreateStudyset(ctx context.Context, name, description string, studyIDs []string) (string, error)
	CreateAnnotation(ctx context.Context, studysetID, name string) (string, error)
}

// IngestionService legt die eingeschlossenen Studien eines Projekts in Neurostore an.
// Die Stubs werden strikt nacheinander verarbeitet; der erste Fehler stoppt den Lauf.
type IngestionService struct {
	Curation   *CurationService
	Neurostore StudyCreator
	Logger     *zap.Logger
}

// NewIngestionService erstellt eine neue Instanz des IngestionService.
func NewIngestionService(cur *CurationService, ns StudyCreator, logger *zap.Logger) *IngestionService {
	return &IngestionService{Curation: cur, Neurostore: ns, Logger: logger}
}

// Run startet eine Ingestion und liefert den persistierten Lauf. Fehler einzelner Schritte
// stehen im Lauf (Status ERROR); err ist nur bei Datenbank- oder Eingabefehlern gesetzt.
func (s *IngestionService) Run(ctx context.Context, projectID string) (*models.IngestionRun, error) {
	// Laufende Aufrufe werden nicht abgebrochen, der Lauf endet immer in DONE oder ERROR.
	ctx = context.WithoutCancel(ctx)
	db := s.Curation.DB.WithContext(ctx)

	project, err := s.Curation.GetProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	st, err := project.CurationState()
	if err != nil {
		return nil, err
	}
	included := curation.NewStore(st).IncludedStubs()
	if len(included) == 0 {
		return nil, fmt.Errorf("%w: no included studies", ErrInvalidInput)
	}

	var running int64
	if err := db.Model(&models.IngestionRun{}).
		Where("project_id = ? AND status = ?", projectID, models.IngestionRunning).
		Count(&running).Error; err != nil {
		return nil, err
	}
	if running > 0 {
		return nil, ErrIngestionRunning
	}

	steps := make([]models.IngestionStep, len(included))
	for i, stub := range included {
		steps[i] = models.IngestionStep{StubID: stub.ID, Title: stub.Title, Status: models.IngestionPending}
	}
	run := &models.IngestionRun{ProjectID: projectID, Status: models.IngestionRunning, Total: len(steps)}
	if err := run.EncodeSteps(steps); err != nil {
		return nil, err
	}
	if err := db.Create(run).Error; err != nil {
		return nil, fmt.Errorf("create ingestion run: %w", err)
	}

	log := s.Logger.With(zap.String("project_id", projectID), zap.Uint("run_id", run.ID))
	log.Info("Starte Ingestion", zap.Int("studies", len(steps)))

	studyIDs := make([]string, 0, len(steps))
	for run.Cursor < len(steps) {
		step := &steps[run.Cursor]
		stub := included[run.Cursor]

		id := stub.NeurostoreID
		if id == "" {
			id, err = s.Neurostore.CreateStudy(ctx, stub)
			if err != nil {
				log.Error("Anlegen der Studie fehlgeschlagen", zap.String("stub_id", stub.ID), zap.Error(err))
				step.Status = models.IngestionError
				step.Error = err.Error()
				ingestedStudiesCounter.WithLabelValues(models.IngestionError).Inc()
				return run, s.fail(ctx, run, steps, fmt.Sprintf("study %q: %v", stub.Title, err))
			}
			if _, _, err := s.Curation.Mutate(ctx, projectID, "set_neurostore_id", func(st *curation.Store) (bool, error) {
				return st.SetNeurostoreID(stub.ID, id), nil
			}); err != nil {
				step.Status = models.IngestionError
				step.Error = err.Error()
				return run, errors.Join(err, s.fail(ctx, run, steps, err.Error()))
			}
		}
		step.Status = models.IngestionDone
		step.NeurostoreID = id
		studyIDs = append(studyIDs, id)
		ingestedStudiesCounter.WithLabelValues(models.IngestionDone).Inc()

		run.Cursor++
		if err := s.save(ctx, run, steps); err != nil {
			return run, err
		}
	}

	studysetID, err := s.Neurostore.CreateStudyset(ctx, project.Name, project.Description, studyIDs)
	if err != nil {
		log.Error("Anlegen des Studysets fehlgeschlagen", zap.Error(err))
		return run, s.fail(ctx, run, steps, fmt.Sprintf("studyset: %v", err))
	}
	run.StudysetID = studysetID

	annotationID, err := s.Neurostore.CreateAnnotation(ctx, studysetID, project.Name+" annotation")
	if err != nil {
		log.Error("Anlegen der Annotation fehlgeschlagen", zap.Error(err))
		return run, s.fail(ctx, run, steps, fmt.Sprintf("annotation: %v", err))
	}
	run.AnnotationID = annotationID

	if err := db.Model(&models.Project{ID: projectID}).Updates(map[string]any{
		"neurostore_studyset_id":   studysetID,
		"neurostore_annotation_id": annotationID,
	}).Error; err != nil {
		return run, err
	}

	run.Status = models.IngestionDone
	if err := s.save(ctx, run, steps); err != nil {
		return run, err
	}
	log.Info("Ingestion abgeschlossen", zap.String("studyset_id", studysetID), zap.String("annotation_id", annotationID))
	return run, nil
}

// fail setzt den Lauf auf ERROR und speichert ihn. Zurückgegeben wird nur ein Speicherfehler.
func (s *IngestionService) fail(ctx context.Context, run *models.IngestionRun, steps []models.IngestionStep, msg string) error {
	run.Status = models.IngestionError
	run.Error = msg
	return s.save(ctx, run, steps)
}

func (s *IngestionService) save(ctx context.Context, run *models.IngestionRun, steps []models.IngestionStep) error {
	if err := run.EncodeSteps(steps); err != nil {
		return err
	}
	if err := s.Curation.DB.WithContext(ctx).Save(run).Error; err != nil {
		return fmt.Errorf("save ingestion run %d: %w", run.ID, err)
	}
	return nil
}

// GetRun liefert einen Lauf eines Projekts.
func (s *IngestionService) GetRun(ctx context.Context, projectID string, runID uint) (*models.IngestionRun, error) {
	var run models.IngestionRun
	err := s.Curation.DB.WithContext(ctx).
		Where("project_id = ?", projectID).
		First(&run, runID).Error
	if err != nil {
		return nil, err
	}
	return &run, nil
}

// ListRuns liefert alle Läufe eines Projekts, neueste zuerst.
func (s *IngestionService) ListRuns(ctx context.Context, projectID string) ([]models.IngestionRun, error) {
	var runs []models.IngestionRun
	err := s.Curation.DB.WithContext(ctx).
		Where("project_id = ?", projectID).
		Order("id desc").
		Find(&runs).Error
	return runs, err
}
