package unpaywall

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
)

func TestGetOALink(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "curator@example.org", r.URL.Query().Get("email"))
		switch r.URL.Path {
		case "/10.1/open":
			fmt.Fprint(w, `{"is_oa":true,"best_oa_location":{"url_for_pdf":"https://x.org/a.pdf","url_for_landing_page":"https://x.org/a"}}`)
		case "/10.1/closed":
			fmt.Fprint(w, `{"is_oa":false,"best_oa_location":null}`)
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	f := NewFetcher(&config.Config{UnpaywallBaseURL: srv.URL, UnpaywallEmail: "curator@example.org"}, zap.NewNop())
	ctx := context.Background()

	link, err := f.GetOALink(ctx, "10.1/open")
	require.NoError(t, err)
	assert.Equal(t, "https://x.org/a", link)

	link, err = f.GetOALink(ctx, "10.1/closed")
	require.NoError(t, err)
	assert.Empty(t, link)

	link, err = f.GetOALink(ctx, "10.1/unknown")
	require.NoError(t, err)
	assert.Empty(t, link)
}

func TestGetOALinkNotConfigured(t *testing.T) {
	f := NewFetcher(&config.Config{}, zap.NewNop())
	_, err := f.GetOALink(context.Background(), "10.1/x")
	assert.ErrorIs(t, err, ErrNotConfigured)
}
