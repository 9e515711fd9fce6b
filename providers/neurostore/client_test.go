package neurostore

import (
	"context"
	"encoding/json"
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

func newTestClient(t *testing.T, token string, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(&config.Config{NeurostoreBaseURL: srv.URL + "/api/", NeurostoreToken: token}, zap.NewNop())
}

func TestSearch(t *testing.T) {
	c := newTestClient(t, "", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/base-studies/", r.URL.Path)
		assert.Equal(t, "emotion", r.URL.Query().Get("search"))
		assert.Equal(t, "100", r.URL.Query().Get("page_size"))
		assert.Empty(t, r.Header.Get("Authorization"))
		fmt.Fprint(w, `{"metadata":{"total_count":1},"results":[{"id":"bs1","name":"Emotion study","pmid":"42","year":2019,"publication":"Cortex"}]}`)
	})

	stubs, err := c.Search(context.Background(), "emotion", 0)
	require.NoError(t, err)
	require.Len(t, stubs, 1)
	assert.Equal(t, "bs1", stubs[0].NeurostoreID)
	assert.Equal(t, "2019", stubs[0].ArticleYear)
	assert.Equal(t, curation.PubMedURLPrefix+"42", stubs[0].ArticleLink)
	assert.Equal(t, curation.SourceNeurostore, stubs[0].IdentificationSource)
}

func TestCreateStudyStudysetAnnotation(t *testing.T) {
	c := newTestClient(t, "tok", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		switch r.URL.Path {
		case "/api/studies/":
			assert.Equal(t, "A study", body["name"])
			assert.Equal(t, float64(2020), body["year"])
			fmt.Fprint(w, `{"id":"s1"}`)
		case "/api/studysets/":
			assert.Equal(t, []any{"s1"}, body["studies"])
			fmt.Fprint(w, `{"id":"ss1"}`)
		case "/api/annotations/":
			assert.Equal(t, "ss1", body["studyset"])
			assert.Contains(t, body["note_keys"], "included")
			fmt.Fprint(w, `{"id":"an1"}`)
		default:
			http.NotFound(w, r)
		}
	})
	ctx := context.Background()

	id, err := c.CreateStudy(ctx, curation.StubStudy{ID: "x", Title: "A study", ArticleYear: "2020"})
	require.NoError(t, err)
	assert.Equal(t, "s1", id)

	ss, err := c.CreateStudyset(ctx, "Project", "", []string{"s1"})
	require.NoError(t, err)
	assert.Equal(t, "ss1", ss)

	an, err := c.CreateAnnotation(ctx, ss, "Project annotation")
	require.NoError(t, err)
	assert.Equal(t, "an1", an)
}

func TestErrors(t *testing.T) {
	c := newTestClient(t, "bad", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/studies/" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.WriteHeader(http.StatusInternalServerError)
	})
	_, err := c.CreateStudy(context.Background(), curation.StubStudy{Title: "x"})
	assert.ErrorIs(t, err, ErrUnauthorized)

	_, err = c.Search(context.Background(), "x", 10)
	assert.Error(t, err)
}
