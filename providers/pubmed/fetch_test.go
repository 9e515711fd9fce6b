package pubmed

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"metacurate/config"
	"metacurate/curation"
)

const efetchXML = `<?xml version="1.0"?>
<PubmedArticleSet>
  <PubmedArticle>
    <MedlineCitation>
      <PMID>222</PMID>
      <Article>
        <Journal>
          <JournalIssue><PubDate><MedlineDate>1998 Dec-1999 Jan</MedlineDate></PubDate></JournalIssue>
          <Title>Brain</Title>
        </Journal>
        <ArticleTitle>Second study</ArticleTitle>
        <AuthorList><Author><CollectiveName>The Consortium</CollectiveName></Author></AuthorList>
      </Article>
    </MedlineCitation>
    <PubmedData><ArticleIdList><ArticleId IdType="doi">10.1/second</ArticleId></ArticleIdList></PubmedData>
  </PubmedArticle>
  <PubmedArticle>
    <MedlineCitation>
      <PMID>111</PMID>
      <Article>
        <Journal>
          <JournalIssue><PubDate><Year>2021</Year></PubDate></JournalIssue>
          <Title>NeuroImage</Title>
        </Journal>
        <ArticleTitle>Working <i>memory</i> &amp; fMRI</ArticleTitle>
        <Abstract>
          <AbstractText Label="BACKGROUND">First part.</AbstractText>
          <AbstractText>Second part.</AbstractText>
        </Abstract>
        <AuthorList>
          <Author><LastName>Smith</LastName><Initials>J</Initials></Author>
          <Author><LastName>Doe</LastName><Initials>A</Initials></Author>
        </AuthorList>
        <ELocationID EIdType="doi" ValidYN="Y">10.1/first</ELocationID>
      </Article>
      <KeywordList><Keyword>memory</Keyword><Keyword>fmri</Keyword></KeywordList>
    </MedlineCitation>
    <PubmedData><ArticleIdList><ArticleId IdType="pmc">PMC999</ArticleId></ArticleIdList></PubmedData>
  </PubmedArticle>
</PubmedArticleSet>`

func newTestFetcher(t *testing.T, handler http.HandlerFunc) *Fetcher {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	cfg := &config.Config{PubMedBaseURL: srv.URL, PubMedPageSize: 2, PubMedMaxResults: 10}
	return NewFetcher(cfg, zap.NewNop())
}

func TestSearchPagesAndPreservesOrder(t *testing.T) {
	var esearchCalls int
	f := newTestFetcher(t, func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasSuffix(r.URL.Path, "/esearch.fcgi"):
			esearchCalls++
			assert.Equal(t, "working memory", r.URL.Query().Get("term"))
			if r.URL.Query().Get("retstart") == "0" {
				fmt.Fprint(w, `{"esearchresult":{"idlist":["111","222"]}}`)
				return
			}
			fmt.Fprint(w, `{"esearchresult":{"idlist":[]}}`)
		case strings.HasSuffix(r.URL.Path, "/efetch.fcgi"):
			assert.Equal(t, "111,222", r.URL.Query().Get("id"))
			fmt.Fprint(w, efetchXML)
		default:
			http.NotFound(w, r)
		}
	})

	stubs, err := f.Search(context.Background(), "working memory", 0)
	require.NoError(t, err)
	require.Len(t, stubs, 2)
	assert.Equal(t, 2, esearchCalls)

	first := stubs[0]
	assert.Equal(t, "111", first.PMID)
	assert.Equal(t, "Working memory & fMRI", first.Title)
	assert.Equal(t, "Smith J, Doe A", first.Authors)
	assert.Equal(t, "10.1/first", first.DOI)
	assert.Equal(t, "PMC999", first.PMCID)
	assert.Equal(t, "2021", first.ArticleYear)
	assert.Equal(t, "NeuroImage", first.Journal)
	assert.Equal(t, "memory, fmri", first.Keywords)
	assert.Equal(t, "First part.\nSecond part.", first.AbstractText)
	assert.Equal(t, curation.PubMedURLPrefix+"111", first.ArticleLink)
	assert.Equal(t, curation.SourcePubMed, first.IdentificationSource)

	second := stubs[1]
	assert.Equal(t, "1998", second.ArticleYear)
	assert.Equal(t, "The Consortium", second.Authors)
	assert.Equal(t, "10.1/second", second.DOI)
}

func TestSearchRespectsLimit(t *testing.T) {
	f := newTestFetcher(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "1", r.URL.Query().Get("retmax"))
		fmt.Fprint(w, `{"esearchresult":{"idlist":["111"]}}`)
	})
	ids, err := f.SearchIDs(context.Background(), "x", 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"111"}, ids)
}

func TestFetchByPMIDsDeduplicatesInput(t *testing.T) {
	f := newTestFetcher(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "222,111", r.URL.Query().Get("id"))
		fmt.Fprint(w, efetchXML)
	})
	stubs, err := f.FetchByPMIDs(context.Background(), []string{" 222", "PMID:222", "111", ""})
	require.NoError(t, err)
	require.Len(t, stubs, 2)
	assert.Equal(t, "222", stubs[0].PMID)
	assert.Equal(t, "111", stubs[1].PMID)
}

func TestFetchPropagatesHTTPErrors(t *testing.T) {
	f := newTestFetcher(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	})
	_, err := f.Search(context.Background(), "x", 5)
	assert.Error(t, err)

	_, err = f.FetchByPMIDs(context.Background(), []string{"1"})
	assert.Error(t, err)
}
