package europepmc

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"metacurate/config"
	"metacurate/curation"
)

func TestSearchFollowsCursor(t *testing.T) {
	prev := maxPageSize
	maxPageSize = 2
	defer func() { maxPageSize = prev }()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/search", r.URL.Path)
		assert.Equal(t, "core", r.URL.Query().Get("resultType"))
		if r.URL.Query().Get("cursorMark") == "c2" {
			assert.Equal(t, "1", r.URL.Query().Get("pageSize"))
		}
		switch r.URL.Query().Get("cursorMark") {
		case "*":
			fmt.Fprint(w, `{"hitCount":3,"nextCursorMark":"c2","resultList":{"result":[
				{"id":"123","source":"MED","pmid":"123","doi":"10.1/a","title":"Alpha","authorString":"Smith J, Doe A.","pubYear":"2020",
				 "journalInfo":{"journal":{"title":"Cortex"}},"keywordList":{"keyword":["pain","fmri"]}},
				{"id":"PPR1","source":"PPR","title":"Beta preprint","pubYear":"2023",
				 "fullTextUrlList":{"fullTextUrl":[{"availabilityCode":"OA","documentStyle":"pdf","url":"https://example.org/beta.pdf"}]}}
			]}}`)
		case "c2":
			fmt.Fprint(w, `{"hitCount":3,"nextCursorMark":"c3","resultList":{"result":[
				{"id":"PPR2","source":"PPR","title":"Gamma","pubYear":"2024"}
			]}}`)
		default:
			t.Errorf("unexpected cursor %q", r.URL.Query().Get("cursorMark"))
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	f := NewFetcher(&config.Config{EuropePMCBaseURL: srv.URL, PubMedMaxResults: 3}, zap.NewNop())
	stubs, err := f.Search(context.Background(), "pain", 0)
	require.NoError(t, err)
	require.Len(t, stubs, 3)

	assert.Equal(t, "Smith J, Doe A", stubs[0].Authors)
	assert.Equal(t, curation.PubMedURLPrefix+"123", stubs[0].ArticleLink)
	assert.Equal(t, "Cortex", stubs[0].Journal)
	assert.Equal(t, "pain, fmri", stubs[0].Keywords)
	assert.Equal(t, curation.SourceEuropePMC, stubs[0].IdentificationSource)

	assert.Equal(t, "https://example.org/beta.pdf", stubs[1].ArticleLink)
	assert.Equal(t, "https://europepmc.org/article/PPR/PPR2", stubs[2].ArticleLink)
}

func TestSearchHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	f := NewFetcher(&config.Config{EuropePMCBaseURL: srv.URL, PubMedMaxResults: 10}, zap.NewNop())
	_, err := f.Search(context.Background(), "pain", 5)
	assert.Error(t, err)
}
