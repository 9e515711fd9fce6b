package europepmc

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"metacurate/config"
	"metacurate/curation"
)

var (
	httpClient = &http.Client{Timeout: 60 * time.Second}
	// maxPageSize ist das Maximum, das die Europe PMC API pro Seite erlaubt.
	maxPageSize = 1000
)

// Fetcher implementiert das Provider-Interface für Europe PMC.
type Fetcher struct {
	Config *config.Config
	Logger *zap.Logger
}

// NewFetcher erstellt einen neuen Europe PMC Fetcher.
func NewFetcher(cfg *config.Config, logger *zap.Logger) *Fetcher {
	return &Fetcher{Config: cfg, Logger: logger}
}

// Name gibt den Namen des Providers zurück.
func (f *Fetcher) Name() string {
	return "europepmc"
}

// Search führt die Suche auf Europe PMC aus und blättert per cursorMark, bis limit erreicht ist.
func (f *Fetcher) Search(ctx context.Context, term string, limit int) ([]curation.StubStudy, error) {
	log := f.Logger.With(zap.String("term", term))
	log.Info("Starte Suche auf Europe PMC.")

	if limit <= 0 || limit > f.Config.PubMedMaxResults {
		limit = f.Config.PubMedMaxResults
	}

	var stubs []curation.StubStudy
	cursor := "*"
	for len(stubs) < limit {
		pageSize := limit - len(stubs)
		if pageSize > maxPageSize {
			pageSize = maxPageSize
		}
		page, err := f.searchPage(ctx, term, cursor, pageSize)
		if err != nil {
			log.Error("Europe PMC Anfrage fehlgeschlagen", zap.Error(err))
			return nil, err
		}
		for i := range page.ResultList.Result {
			stubs = append(stubs, mapArticleToStub(&page.ResultList.Result[i]))
		}
		if len(page.ResultList.Result) < pageSize || page.NextCursorMark == "" || page.NextCursorMark == cursor {
			break
		}
		cursor = page.NextCursorMark
	}
	if len(stubs) > limit {
		stubs = stubs[:limit]
	}

	log.Info("Suche auf Europe PMC abgeschlossen", zap.Int("found_papers", len(stubs)))
	return stubs, nil
}

func (f *Fetcher) searchPage(ctx context.Context, term, cursor string, pageSize int) (*SearchResponse, error) {
	q := url.Values{}
	q.Set("query", term)
	q.Set("format", "json")
	q.Set("resultType", "core")
	q.Set("pageSize", fmt.Sprint(pageSize))
	q.Set("cursorMark", cursor)
	searchURL := fmt.Sprintf("%s/search?%s", f.Config.EuropePMCBaseURL, q.Encode())
	f.Logger.Debug("Rufe Europe PMC API auf", zap.String("url", searchURL))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, searchURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("europepmc search failed: status %d", resp.StatusCode)
	}

	var searchResponse SearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&searchResponse); err != nil {
		return nil, err
	}
	return &searchResponse, nil
}

// mapArticleToStub konvertiert ein Europe PMC Article-Objekt in eine Stub-Studie.
func mapArticleToStub(article *Article) curation.StubStudy {
	s := curation.StubStudy{
		PMID:                 article.PMID,
		PMCID:                article.PMCID,
		DOI:                  article.DOI,
		Title:                strings.TrimSpace(article.Title),
		Authors:              strings.TrimSuffix(strings.TrimSpace(article.AuthorString), "."),
		ArticleYear:          article.PubYear,
		Journal:              article.JournalInfo.Journal.Title,
		AbstractText:         article.AbstractText,
		Keywords:             strings.Join(article.KeywordList.Keyword, ", "),
		IdentificationSource: curation.SourceEuropePMC,
		Tags:                 []curation.Tag{},
	}

	switch {
	case article.PMID != "":
		s.ArticleLink = curation.PubMedURLPrefix + article.PMID
	case article.ID != "" && article.Source != "":
		s.ArticleLink = fmt.Sprintf("https://europepmc.org/article/%s/%s", article.Source, article.ID)
	}
	// Ohne PubMed-Link: frei zugänglichen Volltext bevorzugen
	if s.ArticleLink == "" || article.PMID == "" {
		for _, u := range article.FullTextURLList.FullTextURL {
			if u.AvailabilityCode == "OA" && u.URL != "" {
				s.ArticleLink = u.URL
				break
			}
		}
	}
	return s
}
