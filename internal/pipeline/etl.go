package pipeline

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"moviebase/internal"
	"moviebase/internal/config"
	"moviebase/internal/dataset"
	"moviebase/internal/storage"
)

// ETLService runs the whole pipeline: extract the three CSV datasets,
// enrich movies against the lookup service, load the merged set into
// the store and record the run.
type ETLService struct {
	db     *storage.DB
	cfg    config.Config
	search Searcher
	log    *slog.Logger
}

func NewETLService(db *storage.DB, cfg config.Config, search Searcher, logger *slog.Logger) *ETLService {
	if logger == nil {
		logger = slog.Default()
	}
	return &ETLService{db: db, cfg: cfg, search: search, log: logger}
}

type RunResult struct {
	RunID   int64
	Summary Summary

	MovieRowsSkipped  int
	RatingRowsSkipped int
	LinkRowsSkipped   int

	MoviesInserted  int
	MoviesFailed    int
	Genres          int
	Associations    int
	RatingsInserted int
	RatingsFailed   int

	ReportPath string
}

// Run executes one full ETL pass. On a fatal enrichment error the
// results accumulated so far are still loaded and recorded before the
// error is returned.
func (s *ETLService) Run(ctx context.Context) (RunResult, error) {
	start := time.Now()
	var result RunResult

	movies, movieSkipped, err := dataset.ReadMovies(s.cfg.MoviesCSV)
	if err != nil {
		return result, fmt.Errorf("read movies: %w", err)
	}
	ratings, ratingSkipped, err := dataset.ReadRatings(s.cfg.RatingsCSV)
	if err != nil {
		return result, fmt.Errorf("read ratings: %w", err)
	}
	result.MovieRowsSkipped = movieSkipped
	result.RatingRowsSkipped = ratingSkipped

	var linkRows []internal.LinkRow
	linkRows, result.LinkRowsSkipped, err = dataset.ReadLinks(s.cfg.LinksCSV)
	if err != nil {
		if !os.IsNotExist(err) {
			return result, fmt.Errorf("read links: %w", err)
		}
		s.log.Warn("links csv not found, identifier fallback unavailable", "path", s.cfg.LinksCSV)
	}
	links := dataset.BuildLinkIndex(linkRows)

	s.log.Info("datasets loaded",
		"movies", len(movies), "ratings", len(ratings), "links", links.Len(),
		"moviesSkipped", movieSkipped, "ratingsSkipped", ratingSkipped)

	normalizer := NewNormalizer(s.cfg.TitleArticles)
	resolver := NewResolver(s.search, links)
	enricher := NewEnricher(resolver, normalizer, links, s.cfg.APIRequestLimit, s.log)

	enrichStart := time.Now()
	out, fatal := enricher.EnrichAll(ctx, movies)
	enrichMs := float64(time.Since(enrichStart).Milliseconds())
	result.Summary = out.Summary

	loadStart := time.Now()
	result.MoviesInserted, result.MoviesFailed, err = s.db.ReplaceMovies(out.Movies)
	if err != nil {
		return result, fmt.Errorf("load movies: %w", err)
	}
	result.Genres, result.Associations, err = s.db.LoadGenres(out.Movies)
	if err != nil {
		return result, fmt.Errorf("load genres: %w", err)
	}
	result.RatingsInserted, result.RatingsFailed, err = s.db.ReplaceRatings(ratings, 1000)
	if err != nil {
		return result, fmt.Errorf("load ratings: %w", err)
	}
	loadMs := float64(time.Since(loadStart).Milliseconds())

	counts := map[string]int{
		"total":           out.Summary.Total,
		"attempted":       out.Summary.Attempted,
		"matched":         out.Summary.Matched,
		"unmatched":       out.Summary.Unmatched,
		"moviesInserted":  result.MoviesInserted,
		"moviesFailed":    result.MoviesFailed,
		"ratingsInserted": result.RatingsInserted,
		"ratingsFailed":   result.RatingsFailed,
	}
	for strategy, n := range out.Summary.ByStrategy {
		counts["strategy."+string(strategy)] = n
	}
	timings := map[string]float64{
		"enrichMs": enrichMs,
		"loadMs":   loadMs,
		"totalMs":  float64(time.Since(start).Milliseconds()),
	}

	result.RunID, err = s.db.InsertRun(traceID(), counts, timings)
	if err != nil {
		return result, fmt.Errorf("record run: %w", err)
	}
	if err := s.db.InsertUnmatched(result.RunID, out.Unmatched); err != nil {
		return result, fmt.Errorf("record unmatched: %w", err)
	}

	if len(out.Unmatched) > 0 {
		result.ReportPath = filepath.Join(s.cfg.OutputDir, "missing_movies.xlsx")
		if err := ExportUnmatchedToXLSX(out.Unmatched, result.ReportPath); err != nil {
			s.log.Error("write unmatched report", "path", result.ReportPath, "error", err)
			result.ReportPath = ""
		}
	}

	s.log.Info("run complete",
		"attempted", out.Summary.Attempted,
		"matched", out.Summary.Matched,
		"unmatched", out.Summary.Unmatched,
		"successRate", fmt.Sprintf("%.1f%%", out.Summary.SuccessRate()))

	return result, fatal
}

func traceID() string {
	var b [8]byte
	if _, err := rand.Read(b[:]); err != nil {
		return fmt.Sprintf("run-%d", time.Now().UnixNano())
	}
	return hex.EncodeToString(b[:])
}
