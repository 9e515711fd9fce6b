package neurostore

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"metacurate/config"
	"metacurate/curation"
)

var httpClient = &http.Client{Timeout: 60 * time.Second}

// ErrUnauthorized wird bei 401/403 geliefert.
var ErrUnauthorized = errors.New("neurostore: unauthorized")

// Client kapselt die Aufrufe gegen Neurostore.
type Client struct {
	Config *config.Config
	Logger *zap.Logger
}

// NewClient erstellt einen neuen Neurostore-Client.
func NewClient(cfg *config.Config, logger *zap.Logger) *Client {
	return &Client{Config: cfg, Logger: logger}
}

// Name gibt den Namen des Providers zurück.
func (c *Client) Name() string {
	return "neurostore"
}

// Search durchsucht die Basisstudien von Neurostore.
func (c *Client) Search(ctx context.Context, term string, limit int) ([]curation.StubStudy, error) {
	if limit <= 0 {
		limit = 100
	}
	q := url.Values{}
	q.Set("search", term)
	q.Set("page_size", strconv.Itoa(limit))
	q.Set("flat", "true")

	var list listResponse
	if err := c.do(ctx, http.MethodGet, "/base-studies/?"+q.Encode(), nil, &list); err != nil {
		return nil, err
	}

	stubs := make([]curation.StubStudy, 0, len(list.Results))
	for _, bs := range list.Results {
		stubs = append(stubs, baseStudyToStub(bs))
	}
	c.Logger.Info("Neurostore-Suche abgeschlossen",
		zap.String("term", term),
		zap.Int("found", len(stubs)),
		zap.Int("total", list.Metadata.TotalCount))
	return stubs, nil
}

// CreateStudy legt eine Studie aus einer Stub-Studie an und liefert ihre ID.
func (c *Client) CreateStudy(ctx context.Context, stub curation.StubStudy) (string, error) {
	in := StudyInput{
		Name:        stub.Title,
		Description: stub.AbstractText,
		Publication: stub.Journal,
		Authors:     stub.Authors,
		DOI:         stub.DOI,
		PMID:        stub.PMID,
		PMCID:       stub.PMCID,
	}
	if y, err := strconv.Atoi(strings.TrimSpace(stub.ArticleYear)); err == nil {
		in.Year = &y
	}
	var out created
	if err := c.do(ctx, http.MethodPost, "/studies/", in, &out); err != nil {
		return "", fmt.Errorf("create study %q: %w", stub.ID, err)
	}
	return out.ID, nil
}

// CreateStudyset legt ein Studyset mit den gegebenen Studien an.
func (c *Client) CreateStudyset(ctx context.Context, name, description string, studyIDs []string) (string, error) {
	var out created
	in := studysetInput{Name: name, Description: description, Studies: studyIDs}
	if err := c.do(ctx, http.MethodPost, "/studysets/", in, &out); err != nil {
		return "", fmt.Errorf("create studyset: %w", err)
	}
	return out.ID, nil
}

// CreateAnnotation legt eine Annotation mit einer booleschen "included"-Spalte an.
func (c *Client) CreateAnnotation(ctx context.Context, studysetID, name string) (string, error) {
	var out created
	in := annotationInput{
		Name:     name,
		Studyset: studysetID,
		NoteKeys: map[string]NoteKey{"included": {Type: "boolean", Default: true}},
	}
	if err := c.do(ctx, http.MethodPost, "/annotations/", in, &out); err != nil {
		return "", fmt.Errorf("create annotation: %w", err)
	}
	return out.ID, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(ctx, method, strings.TrimRight(c.Config.NeurostoreBaseURL, "/")+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.Config.NeurostoreToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.Config.NeurostoreToken)
	}

	resp, err := httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return ErrUnauthorized
	case resp.StatusCode >= 300:
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		c.Logger.Error("Neurostore-API hat Fehlerstatus zurückgegeben",
			zap.String("method", method),
			zap.String("path", path),
			zap.Int("status", resp.StatusCode),
			zap.String("body", string(msg)))
		return fmt.Errorf("neurostore %s %s: status %d", method, path, resp.StatusCode)
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func baseStudyToStub(bs BaseStudy) curation.StubStudy {
	s := curation.StubStudy{
		Title:                bs.Name,
		Authors:              bs.Authors,
		PMID:                 bs.PMID,
		PMCID:                bs.PMCID,
		DOI:                  bs.DOI,
		Journal:              bs.Publication,
		AbstractText:         bs.Description,
		IdentificationSource: curation.SourceNeurostore,
		NeurostoreID:         bs.ID,
		Tags:                 []curation.Tag{},
	}
	if bs.Year != nil {
		s.ArticleYear = strconv.Itoa(*bs.Year)
	}
	if bs.PMID != "" {
		s.ArticleLink = curation.PubMedURLPrefix + bs.PMID
	}
	return s
}
