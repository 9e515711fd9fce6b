package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"metacurate/curation"
	"metacurate/models"
)

var (
	ErrUnknownTag   = errors.New("unknown tag")
	ErrInvalidInput = errors.New("invalid input")
)

// CurationService lädt, verändert und speichert das Kurationsdokument eines Projekts.
// Jede Änderung läuft in einer Transaktion mit Zeilensperre auf dem Projekt.
type CurationService struct {
	DB     *gorm.DB
	Logger *zap.Logger
}

// NewCurationService erstellt eine neue Instanz des CurationService.
func NewCurationService(db *gorm.DB, logger *zap.Logger) *CurationService {
	return &CurationService{DB: db, Logger: logger}
}

// CreateProject legt ein Projekt mit leerem Kurationsdokument an.
func (s *CurationService) CreateProject(ctx context.Context, name, description string, isPrisma bool) (*models.Project, error) {
	if strings.TrimSpace(name) == "" {
		return nil, fmt.Errorf("%w: project name required", ErrInvalidInput)
	}
	p := &models.Project{ID: uuid.NewString(), Name: strings.TrimSpace(name), Description: description}
	if err := p.SetCurationState(curation.NewState(isPrisma)); err != nil {
		return nil, err
	}
	if err := s.DB.WithContext(ctx).Create(p).Error; err != nil {
		return nil, fmt.Errorf("create project: %w", err)
	}
	s.Logger.Info("Projekt angelegt", zap.String("project_id", p.ID), zap.Bool("prisma", isPrisma))
	return p, nil
}

func (s *CurationService) ListProjects(ctx context.Context) ([]models.Project, error) {
	var projects []models.Project
	err := s.DB.WithContext(ctx).Omit("curation").Order("created_at desc").Find(&projects).Error
	return projects, err
}

// GetProject liefert gorm.ErrRecordNotFound für unbekannte IDs.
func (s *CurationService) GetProject(ctx context.Context, projectID string) (*models.Project, error) {
	var p models.Project
	if err := s.DB.WithContext(ctx).First(&p, "id = ?", projectID).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

// State liefert das aktuelle Kurationsdokument.
func (s *CurationService) State(ctx context.Context, projectID string) (curation.State, error) {
	p, err := s.GetProject(ctx, projectID)
	if err != nil {
		return curation.State{}, err
	}
	return p.CurationState()
}

// Mutate führt fn auf dem gesperrten Dokument aus. Nur wenn fn true meldet, wird gespeichert.
// Rückgabe ist der Zustand nach der Operation.
func (s *CurationService) Mutate(ctx context.Context, projectID, operation string, fn func(*curation.Store) (bool, error)) (curation.State, bool, error) {
	var (
		result  curation.State
		applied bool
	)
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var p models.Project
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&p, "id = ?", projectID).Error; err != nil {
			return err
		}
		st, err := p.CurationState()
		if err != nil {
			return err
		}
		store := curation.NewStore(st)
		applied, err = fn(store)
		if err != nil {
			return err
		}
		result = store.State()
		if !applied {
			return nil
		}
		if err := p.SetCurationState(result); err != nil {
			return err
		}
		return tx.Model(&p).Select("curation", "is_prisma", "updated_at").Updates(&p).Error
	})
	if err != nil {
		return curation.State{}, false, err
	}
	if applied {
		stubTransitionsCounter.WithLabelValues(operation).Inc()
	} else {
		s.Logger.Debug("Kurationsoperation ohne Wirkung",
			zap.String("project_id", projectID),
			zap.String("operation", operation))
	}
	return result, applied, nil
}

func (s *CurationService) PromoteStub(ctx context.Context, projectID string, columnIndex int, stubID string) (curation.State, bool, error) {
	return s.Mutate(ctx, projectID, "promote", func(st *curation.Store) (bool, error) {
		return st.PromoteStub(columnIndex, stubID), nil
	})
}

func (s *CurationService) DemoteStub(ctx context.Context, projectID string, columnIndex int, stubID string) (curation.State, bool, error) {
	return s.Mutate(ctx, projectID, "demote", func(st *curation.Store) (bool, error) {
		return st.DemoteStub(columnIndex, stubID), nil
	})
}

// SetExclusion setzt das Ausschluss-Tag per ID; eine leere ID hebt den Ausschluss auf.
func (s *CurationService) SetExclusion(ctx context.Context, projectID string, columnIndex int, stubID, tagID string) (curation.State, bool, error) {
	return s.Mutate(ctx, projectID, "exclusion", func(st *curation.Store) (bool, error) {
		if tagID == "" {
			return st.SetExclusionForStub(columnIndex, stubID, nil), nil
		}
		tag, ok := st.ExclusionTagForColumn(columnIndex, tagID)
		if !ok {
			return false, fmt.Errorf("%w: %s in column %d", ErrUnknownTag, tagID, columnIndex)
		}
		return st.SetExclusionForStub(columnIndex, stubID, &tag), nil
	})
}

// AddTag setzt ein registriertes informatives Tag auf einen Stub.
func (s *CurationService) AddTag(ctx context.Context, projectID string, columnIndex int, stubID, tagID string) (curation.State, bool, error) {
	return s.Mutate(ctx, projectID, "add_tag", func(st *curation.Store) (bool, error) {
		tag, ok := st.InfoTagByID(tagID)
		if !ok {
			return false, fmt.Errorf("%w: %s", ErrUnknownTag, tagID)
		}
		return st.AddTagToStub(columnIndex, stubID, tag), nil
	})
}

func (s *CurationService) RemoveTag(ctx context.Context, projectID string, columnIndex int, stubID, tagID string) (curation.State, bool, error) {
	return s.Mutate(ctx, projectID, "remove_tag", func(st *curation.Store) (bool, error) {
		return st.RemoveTagFromStub(columnIndex, stubID, tagID), nil
	})
}

func (s *CurationService) UpdateField(ctx context.Context, projectID string, columnIndex int, stubID, field, value string) (curation.State, bool, error) {
	f, err := curation.ParseField(field)
	if err != nil {
		return curation.State{}, false, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	return s.Mutate(ctx, projectID, "update_field", func(st *curation.Store) (bool, error) {
		return st.UpdateStubField(columnIndex, stubID, f, value), nil
	})
}

// CreateExclusion registriert einen neuen Ausschlussgrund und liefert das Tag.
// phase ist im PRISMA-Modus screening oder eligibility.
func (s *CurationService) CreateExclusion(ctx context.Context, projectID, label, phase string) (curation.Tag, error) {
	label = strings.TrimSpace(label)
	if label == "" {
		return curation.Tag{}, fmt.Errorf("%w: label required", ErrInvalidInput)
	}
	ph, err := curation.ParsePhase(phase)
	if err != nil {
		return curation.Tag{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	tag := curation.Tag{ID: uuid.NewString(), Label: label, IsExclusionTag: true, IsAssignable: true}
	_, _, err = s.Mutate(ctx, projectID, "create_exclusion", func(st *curation.Store) (bool, error) {
		if st.IsPrisma() && ph != curation.PhaseScreening && ph != curation.PhaseEligibility {
			return false, fmt.Errorf("%w: prisma exclusions need phase screening or eligibility", ErrInvalidInput)
		}
		return st.CreateNewExclusion(tag, ph), nil
	})
	return tag, err
}

// CreateInfoTag registriert ein neues informatives Tag.
func (s *CurationService) CreateInfoTag(ctx context.Context, projectID, label string) (curation.Tag, error) {
	label = strings.TrimSpace(label)
	if label == "" {
		return curation.Tag{}, fmt.Errorf("%w: label required", ErrInvalidInput)
	}
	tag := curation.Tag{ID: uuid.NewString(), Label: label, IsAssignable: true}
	_, _, err := s.Mutate(ctx, projectID, "create_info_tag", func(st *curation.Store) (bool, error) {
		return st.CreateInfoTag(tag), nil
	})
	return tag, err
}

func (s *CurationService) DeleteImport(ctx context.Context, projectID, importID string) (curation.State, bool, error) {
	return s.Mutate(ctx, projectID, "delete_import", func(st *curation.Store) (bool, error) {
		return st.DeleteImport(importID), nil
	})
}

// Groups berechnet die Navigationsgruppen aus dem aktuellen Zustand.
func (s *CurationService) Groups(ctx context.Context, projectID string) ([]curation.GroupListItem, error) {
	st, err := s.State(ctx, projectID)
	if err != nil {
		return nil, err
	}
	groups, err := curation.DeriveGroups(st)
	if err != nil {
		s.Logger.Error("Projektkonfiguration ungültig", zap.String("project_id", projectID), zap.Error(err))
		return nil, err
	}
	return groups, nil
}

// GroupStubs liefert die Stubs einer Gruppe; ohne groupID die Standardauswahl.
func (s *CurationService) GroupStubs(ctx context.Context, projectID, groupID string) (curation.GroupListItem, []curation.StubStudy, error) {
	st, err := s.State(ctx, projectID)
	if err != nil {
		return curation.GroupListItem{}, nil, err
	}
	groups, err := curation.DeriveGroups(st)
	if err != nil {
		return curation.GroupListItem{}, nil, err
	}
	g, ok := curation.DefaultSelection(groups, groupID, len(st.Columns))
	if !ok {
		return curation.GroupListItem{}, nil, gorm.ErrRecordNotFound
	}
	return g, curation.StubsForGroup(st, g), nil
}

// PrismaReport liefert den Bericht; ok ist false für Projekte ohne PRISMA.
func (s *CurationService) PrismaReport(ctx context.Context, projectID string) (curation.PrismaReport, bool, error) {
	st, err := s.State(ctx, projectID)
	if err != nil {
		return curation.PrismaReport{}, false, err
	}
	rep, ok := curation.BuildPrismaReport(st)
	return rep, ok, nil
}
