package unpaywall

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"

	"metacurate/config"
)

var httpClient = &http.Client{Timeout: 30 * time.Second}

// ErrNotConfigured wird geliefert, wenn keine Unpaywall-E-Mail gesetzt ist.
var ErrNotConfigured = errors.New("unpaywall email ist nicht konfiguriert")

// Location ist ein Open-Access-Fundort eines Artikels.
type Location struct {
	URL               string `json:"url"`
	URLForPDF         string `json:"url_for_pdf"`
	URLForLandingPage string `json:"url_for_landing_page"`
}

// Response repräsentiert die JSON-Antwort der Unpaywall-API.
type Response struct {
	IsOA           bool      `json:"is_oa"`
	BestOALocation *Location `json:"best_oa_location"`
}

// Fetcher kapselt die Logik für Unpaywall.
type Fetcher struct {
	Config *config.Config
	Logger *zap.Logger
}

// NewFetcher erstellt einen neuen Unpaywall-Fetcher.
func NewFetcher(cfg *config.Config, logger *zap.Logger) *Fetcher {
	return &Fetcher{Config: cfg, Logger: logger}
}

// Enabled meldet, ob Anfragen möglich sind.
func (f *Fetcher) Enabled() bool {
	return f.Config.UnpaywallEmail != ""
}

// GetOALink holt den besten freien Link via Unpaywall anhand der DOI.
// Bevorzugt wird die Landing Page, danach das PDF. Ohne Treffer ist das Ergebnis leer.
func (f *Fetcher) GetOALink(ctx context.Context, doi string) (string, error) {
	if !f.Enabled() {
		return "", ErrNotConfigured
	}

	reqURL := fmt.Sprintf("%s/%s?email=%s", f.Config.UnpaywallBaseURL, doi, url.QueryEscape(f.Config.UnpaywallEmail))
	log := f.Logger.With(zap.String("doi", doi))
	log.Debug("Rufe Unpaywall API auf.")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return "", err
	}
	resp, err := httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return "", nil
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unpaywall request failed with status: %d", resp.StatusCode)
	}

	var ur Response
	if err := json.NewDecoder(resp.Body).Decode(&ur); err != nil {
		return "", err
	}

	if loc := ur.BestOALocation; loc != nil {
		for _, link := range []string{loc.URLForLandingPage, loc.URL, loc.URLForPDF} {
			if link != "" {
				log.Info("Open-Access-Link über Unpaywall gefunden.")
				return link, nil
			}
		}
	}

	log.Debug("Kein Link in Unpaywall-Antwort gefunden.")
	return "", nil
}
