package pipeline

import (
	"context"
	"errors"
	"strings"

	"moviebase/internal"
	"moviebase/internal/dataset"
	"moviebase/internal/omdb"
)

// Searcher is the external lookup capability the resolver depends on.
// The production implementation is *omdb.Client; tests substitute fakes.
type Searcher interface {
	SearchByTitle(ctx context.Context, title string, year *int) (*internal.MoviePayload, error)
	SearchByIMDBID(ctx context.Context, imdbID string) (*internal.MoviePayload, error)
}

// Resolver drives the ordered lookup strategies for one movie:
// title+year, then title only, then the cross-reference identifier
// fallback. The first positive match wins. A transport failure on one
// strategy advances to the next; a rejected credential aborts the run.
type Resolver struct {
	search Searcher
	links  *dataset.LinkIndex
}

func NewResolver(search Searcher, links *dataset.LinkIndex) *Resolver {
	return &Resolver{search: search, links: links}
}

type Resolution struct {
	Enrichment internal.Enrichment
	Attempted  []internal.Strategy
}

func (r *Resolver) Resolve(ctx context.Context, query internal.TitleQuery, movieID int) (Resolution, error) {
	res := Resolution{Enrichment: internal.Enrichment{Strategy: internal.StrategyNone}}

	if query.Year != nil {
		res.Attempted = append(res.Attempted, internal.StrategyTitleYear)
		payload, err := r.search.SearchByTitle(ctx, query.Title, query.Year)
		if err != nil {
			if errors.Is(err, omdb.ErrAuthRejected) {
				return res, err
			}
		} else if payload != nil {
			res.Enrichment = fromPayload(payload, internal.StrategyTitleYear)
			return res, nil
		}
	}

	res.Attempted = append(res.Attempted, internal.StrategyTitleOnly)
	payload, err := r.search.SearchByTitle(ctx, query.Title, nil)
	if err != nil {
		if errors.Is(err, omdb.ErrAuthRejected) {
			return res, err
		}
	} else if payload != nil {
		res.Enrichment = fromPayload(payload, internal.StrategyTitleOnly)
		return res, nil
	}

	if raw, ok := r.links.Lookup(movieID); ok {
		if imdbID := omdb.FormatIMDBID(raw); imdbID != "" {
			res.Attempted = append(res.Attempted, internal.StrategyIMDBID)
			payload, err := r.search.SearchByIMDBID(ctx, imdbID)
			if err != nil {
				if errors.Is(err, omdb.ErrAuthRejected) {
					return res, err
				}
			} else if payload != nil {
				res.Enrichment = fromPayload(payload, internal.StrategyIMDBID)
				return res, nil
			}
		}
	}

	return res, nil
}

func fromPayload(p *internal.MoviePayload, strategy internal.Strategy) internal.Enrichment {
	out := internal.Enrichment{
		Matched:    true,
		Director:   p.Director,
		Plot:       p.Plot,
		BoxOffice:  p.BoxOffice,
		IMDBRating: p.IMDBRating,
		Runtime:    p.Runtime,
		Strategy:   strategy,
	}
	if id := strings.TrimSpace(p.IMDBID); id != "" {
		out.IMDBID = &id
	}
	return out
}

func joinStrategies(attempted []internal.Strategy) string {
	if len(attempted) == 0 {
		return string(internal.StrategyNone)
	}
	parts := make([]string, 0, len(attempted))
	for _, s := range attempted {
		parts = append(parts, string(s))
	}
	return strings.Join(parts, ",")
}
