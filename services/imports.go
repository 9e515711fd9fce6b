package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"metacurate/curation"
	"metacurate/models"
	"metacurate/providers"
)

// ErrUpstream markiert Fehler externer APIs (PubMed, Europe PMC, Neurostore).
var ErrUpstream = errors.New("upstream request failed")

// PMIDFetcher holt Metadaten für eine explizite PMID-Liste.
type PMIDFetcher interface {
	FetchByPMIDs(ctx context.Context, pmids []string) ([]curation.StubStudy, error)
}

// LinkResolver liefert einen frei zugänglichen Link zu einer DOI.
type LinkResolver interface {
	Enabled() bool
	GetOALink(ctx context.Context, doi string) (string, error)
}

// SearchImportRequest beschreibt einen Import aus einer Literatursuche.
type SearchImportRequest struct {
	Name     string `json:"name"`
	Source   string `json:"source" binding:"required"` // pubmed, europepmc, neurostore
	Query    string `json:"query"`
	FilterID uint   `json:"filter_id"`
	Limit    int    `json:"limit"`
}

// ImportResult ist das Ergebnis eines Imports.
type ImportResult struct {
	Import     curation.Import `json:"import"`
	Duplicates int             `json:"duplicates"`
}

// ImportService holt Stub-Studien aus den Quellen und hängt sie als Import an ein Projekt.
type ImportService struct {
	Curation   *CurationService
	Providers  providers.Registry
	PubMed     PMIDFetcher
	Links      LinkResolver
	Normalizer *TextNormalizer
	Logger     *zap.Logger
}

// NewImportService erstellt eine neue Instanz des ImportService.
func NewImportService(cur *CurationService, registry providers.Registry, pubmed PMIDFetcher, links LinkResolver, logger *zap.Logger) *ImportService {
	return &ImportService{
		Curation:   cur,
		Providers:  registry,
		PubMed:     pubmed,
		Links:      links,
		Normalizer: NewTextNormalizer(logger),
		Logger:     logger,
	}
}

// ImportSearch führt eine Suche bei einem Provider aus und importiert alle Treffer.
// Ein optionaler Suchfilter wird per UND an die Anfrage gehängt.
func (s *ImportService) ImportSearch(ctx context.Context, projectID string, req SearchImportRequest) (ImportResult, error) {
	provider, ok := s.Providers.Get(req.Source)
	if !ok {
		return ImportResult{}, fmt.Errorf("%w: unknown source %q", ErrInvalidInput, req.Source)
	}
	term := strings.TrimSpace(req.Query)
	if req.FilterID != 0 {
		var filter models.SearchFilter
		if err := s.Curation.DB.WithContext(ctx).First(&filter, req.FilterID).Error; err != nil {
			return ImportResult{}, err
		}
		term = filter.Apply(term)
	}
	if term == "" {
		return ImportResult{}, fmt.Errorf("%w: query required", ErrInvalidInput)
	}

	log := s.Logger.With(zap.String("project_id", projectID), zap.String("provider", provider.Name()))
	log.Info("Starte Suchimport", zap.String("term", term))

	stubs, err := provider.Search(ctx, term, req.Limit)
	if err != nil {
		log.Error("Provider-Suche fehlgeschlagen", zap.Error(err))
		return ImportResult{}, fmt.Errorf("%w: %s: %w", ErrUpstream, provider.Name(), err)
	}
	log.Info("Provider hat Ergebnisse geliefert", zap.Int("count", len(stubs)))

	mode := curation.ImportModePubMed
	var params map[string]string
	if provider.Name() == curation.SourceNeurostore.ID {
		mode = curation.ImportModeNeurostore
		params = map[string]string{"search": term}
		if req.Limit > 0 {
			params["page_size"] = fmt.Sprint(req.Limit)
		}
	}
	return s.commit(ctx, projectID, req.Name, mode, stubs, nil, params)
}

// ImportPMIDs importiert eine Liste von PubMed-IDs. Nicht gefundene IDs landen in den Importfehlern.
func (s *ImportService) ImportPMIDs(ctx context.Context, projectID, name string, pmids []string) (ImportResult, error) {
	if s.PubMed == nil {
		return ImportResult{}, fmt.Errorf("%w: pubmed not configured", ErrInvalidInput)
	}
	stubs, err := s.PubMed.FetchByPMIDs(ctx, pmids)
	if err != nil {
		s.Logger.Error("PMID-Import fehlgeschlagen", zap.String("project_id", projectID), zap.Error(err))
		return ImportResult{}, fmt.Errorf("%w: pubmed: %w", ErrUpstream, err)
	}

	found := make(map[string]bool, len(stubs))
	for _, st := range stubs {
		found[st.PMID] = true
	}
	var errs []string
	seen := make(map[string]bool)
	for _, id := range pmids {
		id = curation.NormalizePMID(id)
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		if !found[id] {
			errs = append(errs, fmt.Sprintf("PMID %s not found", id))
		}
	}
	return s.commit(ctx, projectID, name, curation.ImportModePubMed, stubs, errs, nil)
}

// ImportFile importiert eine CSV-Datei im Exportformat.
func (s *ImportService) ImportFile(ctx context.Context, projectID, name string, r io.Reader) (ImportResult, error) {
	stubs, err := curation.ParseCSV(r)
	if err != nil {
		return ImportResult{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	for i := range stubs {
		if stubs[i].IdentificationSource.ID == "" {
			stubs[i].IdentificationSource = curation.SourceManual
		}
	}
	return s.commit(ctx, projectID, name, curation.ImportModeFile, stubs, nil, nil)
}

// ImportManual legt eine einzelne, manuell erfasste Stub-Studie an.
func (s *ImportService) ImportManual(ctx context.Context, projectID, name string, stub curation.StubStudy) (ImportResult, error) {
	if strings.TrimSpace(stub.Title) == "" {
		return ImportResult{}, fmt.Errorf("%w: title required", ErrInvalidInput)
	}
	stub.ID = ""
	stub.ExclusionTag = nil
	stub.NeurostoreID = ""
	stub.IdentificationSource = curation.SourceManual
	return s.commit(ctx, projectID, name, curation.ImportModeManual, []curation.StubStudy{stub}, nil, nil)
}

// commit bereitet die Stubs auf und hängt sie als ein Import an die erste Spalte.
func (s *ImportService) commit(ctx context.Context, projectID, name string, mode curation.ImportMode, stubs []curation.StubStudy, errs []string, params map[string]string) (ImportResult, error) {
	if len(stubs) == 0 {
		return ImportResult{}, fmt.Errorf("%w: nothing to import", ErrInvalidInput)
	}
	name = strings.TrimSpace(name)
	if name == "" {
		name = fmt.Sprintf("%s %s", mode, time.Now().UTC().Format("2006-01-02 15:04"))
	}

	for i := range stubs {
		st := &stubs[i]
		st.ID = uuid.NewString()
		if st.Tags == nil {
			st.Tags = []curation.Tag{}
		}
	}
	s.Normalizer.NormalizeStubs(stubs)
	errs = append(errs, s.resolveLinks(ctx, stubs)...)

	imp := curation.Import{
		ID:                     uuid.NewString(),
		Name:                   name,
		Date:                   time.Now().UTC(),
		ImportModeUsed:         mode,
		NumImported:            len(stubs),
		ErrorsDuringImport:     errs,
		NeurostoreSearchParams: params,
	}

	var duplicates int
	_, _, err := s.Curation.Mutate(ctx, projectID, "import", func(st *curation.Store) (bool, error) {
		if st.IsPrisma() {
			current := st.State()
			duplicates = curation.FlagDuplicates(current.AllStubs(), stubs, curation.DuplicateTag)
		}
		if !st.AddImport(imp, stubs) {
			return false, curation.ErrInvalidColumnCount
		}
		return true, nil
	})
	if err != nil {
		return ImportResult{}, err
	}

	importedStubsCounter.WithLabelValues(string(mode)).Add(float64(len(stubs)))
	duplicatesCounter.Add(float64(duplicates))
	s.Logger.Info("Import abgeschlossen",
		zap.String("project_id", projectID),
		zap.String("import_id", imp.ID),
		zap.String("mode", string(mode)),
		zap.Int("stubs", len(stubs)),
		zap.Int("duplicates", duplicates),
		zap.Int("errors", len(errs)))
	return ImportResult{Import: imp, Duplicates: duplicates}, nil
}

// resolveLinks ergänzt fehlende Artikellinks über Unpaywall. Fehler brechen den Import nicht ab.
func (s *ImportService) resolveLinks(ctx context.Context, stubs []curation.StubStudy) []string {
	if s.Links == nil || !s.Links.Enabled() {
		return nil
	}
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		errs []string
	)
	semaphore := make(chan struct{}, 5) // Limit auf 5 parallele Anfragen

	for i := range stubs {
		if stubs[i].ArticleLink != "" || stubs[i].DOI == "" {
			continue
		}
		wg.Add(1)
		semaphore <- struct{}{}
		go func(st *curation.StubStudy) {
			defer wg.Done()
			defer func() { <-semaphore }()

			link, err := s.Links.GetOALink(ctx, st.DOI)
			if err != nil {
				s.Logger.Warn("Unpaywall-Abfrage fehlgeschlagen", zap.String("doi", st.DOI), zap.Error(err))
				mu.Lock()
				errs = append(errs, fmt.Sprintf("no link for DOI %s: %v", st.DOI, err))
				mu.Unlock()
				return
			}
			st.ArticleLink = link
		}(&stubs[i])
	}
	wg.Wait()
	return errs
}
