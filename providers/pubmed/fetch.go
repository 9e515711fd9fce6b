package pubmed

import (
	"context"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"metacurate/config"
	"metacurate/curation"
)

var (
	httpClient = &http.Client{Timeout: 60 * time.Second}
	yearRegex  = regexp.MustCompile(`\b(1[89]|20)\d{2}\b`)
)

// efetchBatch ist die Anzahl PMIDs pro EFetch-Anfrage.
const efetchBatch = 200

// Fetcher ist eine Struktur, die die Logik zur Interaktion mit PubMed kapselt.
type Fetcher struct {
	Config *config.Config
	Logger *zap.Logger
}

// NewFetcher erstellt eine neue Instanz des PubMed-Fetchers.
func NewFetcher(cfg *config.Config, logger *zap.Logger) *Fetcher {
	return &Fetcher{Config: cfg, Logger: logger}
}

// Name gibt den Namen des Providers zurück.
func (f *Fetcher) Name() string {
	return "pubmed"
}

// Search führt eine vollständige Suche auf PubMed durch: holt IDs und dann die Details.
func (f *Fetcher) Search(ctx context.Context, term string, limit int) ([]curation.StubStudy, error) {
	ids, err := f.SearchIDs(ctx, term, limit)
	if err != nil {
		return nil, fmt.Errorf("fehler bei der PubMed ID-Suche: %w", err)
	}
	return f.FetchByPMIDs(ctx, ids)
}

// SearchIDs führt ESearch-Abfragen seitenweise durch und gibt höchstens limit PMIDs zurück.
// limit <= 0 bedeutet die konfigurierte Obergrenze.
func (f *Fetcher) SearchIDs(ctx context.Context, term string, limit int) ([]string, error) {
	log := f.Logger.With(zap.String("term", term))
	log.Info("Starte PubMed ESearch für IDs.")

	if limit <= 0 || limit > f.Config.PubMedMaxResults {
		limit = f.Config.PubMedMaxResults
	}
	pageSize := f.Config.PubMedPageSize
	if pageSize <= 0 {
		pageSize = 200
	}

	var allIDs []string
	for offset := 0; len(allIDs) < limit; offset += pageSize {
		retmax := pageSize
		if rest := limit - len(allIDs); rest < retmax {
			retmax = rest
		}
		ids, err := f.esearchPage(ctx, term, retmax, offset)
		if err != nil {
			log.Error("ESearch-Anfrage fehlgeschlagen", zap.Int("offset", offset), zap.Error(err))
			return nil, err
		}
		if len(ids) == 0 {
			break
		}
		allIDs = append(allIDs, ids...)
		log.Debug("Erfolgreich IDs von ESearch erhalten", zap.Int("count", len(ids)), zap.Int("offset", offset))
		if len(ids) < retmax {
			break
		}
	}
	log.Info("PubMed ESearch abgeschlossen", zap.Int("total_ids", len(allIDs)))
	return allIDs, nil
}

func (f *Fetcher) esearchPage(ctx context.Context, term string, retmax, retstart int) ([]string, error) {
	resp, err := f.get(ctx, f.buildEsearchURL(term, retmax, retstart))
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var esearchResp ESearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&esearchResp); err != nil {
		return nil, fmt.Errorf("esearch decode: %w", err)
	}
	return esearchResp.ESearchResult.IdList, nil
}

// FetchByPMIDs holt die Metadaten für eine PMID-Liste. Die Reihenfolge der Eingabe bleibt erhalten,
// unbekannte PMIDs fehlen im Ergebnis.
func (f *Fetcher) FetchByPMIDs(ctx context.Context, pmids []string) ([]curation.StubStudy, error) {
	var clean []string
	seen := make(map[string]bool)
	for _, id := range pmids {
		id = curation.NormalizePMID(id)
		if id != "" && !seen[id] {
			seen[id] = true
			clean = append(clean, id)
		}
	}
	if len(clean) == 0 {
		return nil, nil
	}

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		firstErr error
		byPMID   = make(map[string]curation.StubStudy, len(clean))
	)
	semaphore := make(chan struct{}, 3) // Parallele Abfragen limitieren

	for start := 0; start < len(clean); start += efetchBatch {
		end := start + efetchBatch
		if end > len(clean) {
			end = len(clean)
		}
		batch := clean[start:end]

		wg.Add(1)
		semaphore <- struct{}{}
		go func(batch []string) {
			defer wg.Done()
			defer func() { <-semaphore }()

			stubs, err := f.fetchMetadata(ctx, batch)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				f.Logger.Warn("EFetch für Batch fehlgeschlagen", zap.Int("batch_size", len(batch)), zap.Error(err))
				if firstErr == nil {
					firstErr = err
				}
				return
			}
			for _, s := range stubs {
				byPMID[s.PMID] = s
			}
		}(batch)
	}
	wg.Wait()

	if firstErr != nil {
		return nil, fmt.Errorf("efetch: %w", firstErr)
	}

	out := make([]curation.StubStudy, 0, len(byPMID))
	for _, id := range clean {
		if s, ok := byPMID[id]; ok {
			out = append(out, s)
		}
	}
	return out, nil
}

// fetchMetadata holt Metadaten für mehrere PMIDs via EFetch.
func (f *Fetcher) fetchMetadata(ctx context.Context, pmids []string) ([]curation.StubStudy, error) {
	q := url.Values{}
	q.Set("db", "pubmed")
	q.Set("id", strings.Join(pmids, ","))
	q.Set("retmode", "xml")
	f.identify(q)
	efetchURL := fmt.Sprintf("%s/efetch.fcgi?%s", f.Config.PubMedBaseURL, q.Encode())
	f.Logger.Debug("Rufe EFetch-URL für Metadaten auf", zap.Int("ids", len(pmids)))

	resp, err := f.get(ctx, efetchURL)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var articleSet PubmedArticleSet
	if err := xml.NewDecoder(resp.Body).Decode(&articleSet); err != nil {
		return nil, fmt.Errorf("efetch decode: %w", err)
	}

	stubs := make([]curation.StubStudy, 0, len(articleSet.PubmedArticle))
	for i := range articleSet.PubmedArticle {
		stubs = append(stubs, mapArticleToStub(&articleSet.PubmedArticle[i]))
	}
	return stubs, nil
}

func (f *Fetcher) get(ctx context.Context, rawURL string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		resp.Body.Close()
		f.Logger.Error("PubMed-API hat nicht-200-Status zurückgegeben",
			zap.Int("status", resp.StatusCode),
			zap.String("body", string(body)))
		return nil, fmt.Errorf("pubmed request failed: status %d", resp.StatusCode)
	}
	return resp, nil
}

// identify hängt API-Key, Tool und E-Mail an, wie von NCBI gewünscht.
func (f *Fetcher) identify(q url.Values) {
	if f.Config.PubMedAPIKey != "" {
		q.Set("api_key", f.Config.PubMedAPIKey)
	}
	if f.Config.PubMedTool != "" {
		q.Set("tool", f.Config.PubMedTool)
	}
	if f.Config.PubMedEmail != "" {
		q.Set("email", f.Config.PubMedEmail)
	}
}

// buildEsearchURL baut die URL für eine ESearch-Anfrage.
func (f *Fetcher) buildEsearchURL(term string, retmax, retstart int) string {
	q := url.Values{}
	q.Set("db", "pubmed")
	q.Set("term", term)
	q.Set("retmode", "json")
	q.Set("retmax", fmt.Sprint(retmax))
	q.Set("retstart", fmt.Sprint(retstart))
	f.identify(q)
	return fmt.Sprintf("%s/esearch.fcgi?%s", f.Config.PubMedBaseURL, q.Encode())
}

// mapArticleToStub wandelt ein XML-Article-Objekt in eine Stub-Studie um.
func mapArticleToStub(article *PubmedArticle) curation.StubStudy {
	mc := &article.MedlineCitation
	s := curation.StubStudy{
		PMID:                 mc.PMID,
		Title:                mc.Article.Title.Text(),
		Journal:              mc.Article.Journal.Title,
		Keywords:             strings.Join(mc.Keywords, ", "),
		ArticleLink:          curation.PubMedURLPrefix + mc.PMID,
		IdentificationSource: curation.SourcePubMed,
		Tags:                 []curation.Tag{},
	}

	var abstract []string
	for _, part := range mc.Article.Abstract.Text {
		if t := part.Text(); t != "" {
			abstract = append(abstract, t)
		}
	}
	s.AbstractText = strings.Join(abstract, "\n")

	var authors []string
	for _, a := range mc.Article.Authors {
		switch {
		case a.CollectiveName != "":
			authors = append(authors, a.CollectiveName)
		case a.LastName != "":
			authors = append(authors, strings.TrimSpace(a.LastName+" "+a.Initials))
		}
	}
	s.Authors = strings.Join(authors, ", ")

	for _, id := range mc.Article.ELocationID {
		if id.IDType == "doi" && id.ValidYN != "N" {
			s.DOI = strings.TrimSpace(id.Value)
			break
		}
	}
	for _, id := range article.PubmedData.ArticleIDs {
		switch id.IDType {
		case "pmc":
			s.PMCID = strings.TrimSpace(id.Value)
		case "doi":
			if s.DOI == "" {
				s.DOI = strings.TrimSpace(id.Value)
			}
		}
	}

	pubDate := mc.Article.Journal.PubDate
	switch {
	case pubDate.Year != "":
		s.ArticleYear = pubDate.Year
	case pubDate.MedlineDate != "":
		// z.B. "1998 Dec-1999 Jan"
		s.ArticleYear = yearRegex.FindString(pubDate.MedlineDate)
	}
	return s
}
