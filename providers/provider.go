// Package providers definiert die Schnittstelle der Literaturquellen, aus denen Stub-Studien importiert werden.
package providers

import (
	"context"

	"metacurate/curation"
)

// Provider ist das Interface, das jede Suchquelle (z.B. PubMed, Europe PMC, Neurostore) implementieren muss.
type Provider interface {
	// Search führt eine Suche für einen gegebenen Term durch und liefert höchstens limit Stub-Studien
	// ohne ID; die IDs vergibt der Import.
	Search(ctx context.Context, term string, limit int) ([]curation.StubStudy, error)

	// Name gibt den eindeutigen Namen des Providers zurück (z.B. "pubmed").
	Name() string
}

// Registry ordnet Providern ihren Namen zu.
type Registry map[string]Provider

func NewRegistry(ps ...Provider) Registry {
	r := make(Registry, len(ps))
	for _, p := range ps {
		r[p.Name()] = p
	}
	return r
}

func (r Registry) Get(name string) (Provider, bool) {
	p, ok := r[name]
	return p, ok
}
