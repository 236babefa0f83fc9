package pipeline

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"moviebase/internal"
	"moviebase/internal/dataset"
	"moviebase/internal/omdb"
)

// Enricher walks the movie rows in input order, queries the lookup
// service for at most limit of them and merges the results. Rows past
// the limit pass through unmatched without touching the network.
type Enricher struct {
	resolver   *Resolver
	normalizer *Normalizer
	links      *dataset.LinkIndex
	limit      int
	log        *slog.Logger
}

func NewEnricher(resolver *Resolver, normalizer *Normalizer, links *dataset.LinkIndex, limit int, logger *slog.Logger) *Enricher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Enricher{resolver: resolver, normalizer: normalizer, links: links, limit: limit, log: logger}
}

type Summary struct {
	Total      int
	Attempted  int
	Matched    int
	Unmatched  int
	ByStrategy map[internal.Strategy]int
}

// SuccessRate reports matched movies as a percentage of attempted ones.
func (s Summary) SuccessRate() float64 {
	if s.Attempted == 0 {
		return 0
	}
	return float64(s.Matched) / float64(s.Attempted) * 100
}

type EnrichOutput struct {
	Movies    []internal.EnrichedMovie
	Unmatched []internal.UnmatchedRow
	Summary   Summary
}

// EnrichAll processes the rows sequentially. A fatal lookup error
// (rejected credential, exhausted quota) stops the walk immediately and
// returns everything accumulated so far alongside the error.
func (e *Enricher) EnrichAll(ctx context.Context, movies []internal.MovieRow) (EnrichOutput, error) {
	out := EnrichOutput{Summary: Summary{Total: len(movies), ByStrategy: map[internal.Strategy]int{}}}

	for i, movie := range movies {
		query := e.normalizer.Normalize(movie.Title)
		enriched := internal.EnrichedMovie{
			MovieRow:    movie,
			CleanTitle:  query.Title,
			ReleaseYear: query.Year,
			Enrichment:  internal.Enrichment{Strategy: internal.StrategyNone},
		}

		if i >= e.limit {
			out.Movies = append(out.Movies, enriched)
			continue
		}

		out.Summary.Attempted++
		resolution, err := e.resolver.Resolve(ctx, query, movie.MovieID)
		if err != nil {
			e.log.Error("enrichment aborted", "movieId", movie.MovieID, "error", err)
			return out, err
		}

		enriched.Enrichment = resolution.Enrichment
		out.Movies = append(out.Movies, enriched)

		if resolution.Enrichment.Matched {
			out.Summary.Matched++
			out.Summary.ByStrategy[resolution.Enrichment.Strategy]++
		} else {
			out.Summary.Unmatched++
			out.Unmatched = append(out.Unmatched, e.unmatchedRow(movie, query, resolution))
		}

		if out.Summary.Attempted%10 == 0 {
			e.log.Info("enrichment progress",
				"processed", out.Summary.Attempted,
				"matched", out.Summary.Matched,
				"unmatched", out.Summary.Unmatched)
		}
	}

	return out, nil
}

func (e *Enricher) unmatchedRow(movie internal.MovieRow, query internal.TitleQuery, resolution Resolution) internal.UnmatchedRow {
	row := internal.UnmatchedRow{
		MovieID:         movie.MovieID,
		OriginalTitle:   movie.Title,
		NormalizedTitle: query.Title,
		ReleaseYear:     query.Year,
		Genres:          strings.Join(movie.Genres, "|"),
		Strategies:      joinStrategies(resolution.Attempted),
		Reason:          "not found in lookup service",
		CreatedAt:       time.Now().UTC().Format(time.RFC3339),
	}
	if raw, ok := e.links.Lookup(movie.MovieID); ok {
		if id := omdb.FormatIMDBID(raw); id != "" {
			row.IMDBID = &id
		}
	}
	return row
}
