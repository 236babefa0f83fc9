package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"testing"

	"moviebase/internal"
	"moviebase/internal/dataset"
	"moviebase/internal/omdb"
	"moviebase/internal/util"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newEnricher(search Searcher, links *dataset.LinkIndex, limit int) *Enricher {
	normalizer := defaultNormalizer()
	return NewEnricher(NewResolver(search, links), normalizer, links, limit, testLogger())
}

func TestEnrichAllCounts(t *testing.T) {
	// A matches at title+year, B only via the identifier fallback, C
	// matches nothing.
	movies := []internal.MovieRow{
		{MovieID: 1, Title: "Toy Story (1995)", Genres: []string{"Animation", "Comedy"}},
		{MovieID: 2, Title: "City of Lost Children, The (Cité des enfants perdus, La) (1995)", Genres: []string{"Fantasy"}},
		{MovieID: 3, Title: "Completely Unknown (1995)"},
	}
	links := linksFor(internal.LinkRow{MovieID: 2, IMDBID: util.StringPtr("112682")})

	search := &fakeSearcher{
		byTitle: func(title string, year *int) (*internal.MoviePayload, error) {
			if title == "Toy Story" && year != nil {
				return payloadFor("tt0114709"), nil
			}
			return nil, nil
		},
		byID: func(imdbID string) (*internal.MoviePayload, error) {
			if imdbID == "tt0112682" {
				return payloadFor(imdbID), nil
			}
			return nil, nil
		},
	}

	out, err := newEnricher(search, links, 10).EnrichAll(context.Background(), movies)
	if err != nil {
		t.Fatal(err)
	}

	s := out.Summary
	if s.Total != 3 || s.Attempted != 3 || s.Matched != 2 || s.Unmatched != 1 {
		t.Fatalf("summary=%+v", s)
	}
	if s.ByStrategy[internal.StrategyTitleYear] != 1 || s.ByStrategy[internal.StrategyIMDBID] != 1 {
		t.Fatalf("byStrategy=%v", s.ByStrategy)
	}
	if len(out.Movies) != 3 {
		t.Fatalf("movies=%d", len(out.Movies))
	}
	if len(out.Unmatched) != 1 || out.Unmatched[0].MovieID != 3 {
		t.Fatalf("unmatched=%+v", out.Unmatched)
	}
	if got := out.Unmatched[0].Strategies; got != "TITLE_YEAR,TITLE_ONLY" {
		t.Fatalf("strategies=%q", got)
	}
	if out.Movies[1].Enrichment.Strategy != internal.StrategyIMDBID {
		t.Fatalf("movie B strategy=%s", out.Movies[1].Enrichment.Strategy)
	}
	if out.Movies[1].CleanTitle != "The City of Lost Children" {
		t.Fatalf("movie B title=%q", out.Movies[1].CleanTitle)
	}
}

func TestEnrichAllRespectsLimit(t *testing.T) {
	movies := []internal.MovieRow{
		{MovieID: 1, Title: "Toy Story (1995)"},
		{MovieID: 2, Title: "Jumanji (1995)"},
		{MovieID: 3, Title: "Heat (1995)"},
	}
	search := &fakeSearcher{
		byTitle: func(string, *int) (*internal.MoviePayload, error) { return payloadFor("tt0114709"), nil },
	}

	out, err := newEnricher(search, linksFor(), 1).EnrichAll(context.Background(), movies)
	if err != nil {
		t.Fatal(err)
	}
	if out.Summary.Attempted != 1 || out.Summary.Matched != 1 {
		t.Fatalf("summary=%+v", out.Summary)
	}
	if search.calls() != 1 {
		t.Fatalf("calls=%d want 1", search.calls())
	}
	if len(out.Movies) != 3 {
		t.Fatalf("movies=%d want 3", len(out.Movies))
	}
	for _, m := range out.Movies[1:] {
		if m.Enrichment.Matched || m.Enrichment.Strategy != internal.StrategyNone {
			t.Fatalf("passthrough movie enriched: %+v", m.Enrichment)
		}
	}
}

func TestEnrichAllFatalStopsRun(t *testing.T) {
	movies := []internal.MovieRow{
		{MovieID: 1, Title: "Toy Story (1995)"},
		{MovieID: 2, Title: "Jumanji (1995)"},
		{MovieID: 3, Title: "Heat (1995)"},
	}
	search := &fakeSearcher{
		byTitle: func(title string, _ *int) (*internal.MoviePayload, error) {
			if title == "Toy Story" {
				return payloadFor("tt0114709"), nil
			}
			return nil, fmt.Errorf("omdb rejected request: %w", omdb.ErrAuthRejected)
		},
	}

	out, err := newEnricher(search, linksFor(), 10).EnrichAll(context.Background(), movies)
	if !errors.Is(err, omdb.ErrAuthRejected) {
		t.Fatalf("err=%v want ErrAuthRejected", err)
	}
	if len(out.Movies) != 1 || out.Movies[0].MovieID != 1 {
		t.Fatalf("accumulated movies=%+v", out.Movies)
	}
	if out.Summary.Matched != 1 {
		t.Fatalf("summary=%+v", out.Summary)
	}
	// The failing record consumed one call; nothing after it ran.
	if search.calls() != 2 {
		t.Fatalf("calls=%d want 2", search.calls())
	}
}

func TestEnrichAllUnmatchedRowDetail(t *testing.T) {
	movies := []internal.MovieRow{
		{MovieID: 7, Title: "Never Found, The (1988)", Genres: []string{"Drama", "Mystery"}},
	}
	links := linksFor(internal.LinkRow{MovieID: 7, IMDBID: util.StringPtr("95705")})
	search := &fakeSearcher{}

	out, err := newEnricher(search, links, 10).EnrichAll(context.Background(), movies)
	if err != nil {
		t.Fatal(err)
	}
	if len(out.Unmatched) != 1 {
		t.Fatalf("unmatched=%d", len(out.Unmatched))
	}
	row := out.Unmatched[0]
	if row.NormalizedTitle != "The Never Found" {
		t.Fatalf("normalized=%q", row.NormalizedTitle)
	}
	if row.ReleaseYear == nil || *row.ReleaseYear != 1988 {
		t.Fatalf("year=%v", row.ReleaseYear)
	}
	if row.Genres != "Drama|Mystery" {
		t.Fatalf("genres=%q", row.Genres)
	}
	if row.IMDBID == nil || *row.IMDBID != "tt0095705" {
		t.Fatalf("imdbId=%v", row.IMDBID)
	}
	if !strings.Contains(row.Strategies, string(internal.StrategyIMDBID)) {
		t.Fatalf("strategies=%q", row.Strategies)
	}
}
