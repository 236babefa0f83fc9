package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"moviebase/internal"
	"moviebase/internal/config"
	"moviebase/internal/storage"
)

func writeFixture(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestSmokeRun(t *testing.T) {
	tmp := t.TempDir()

	moviesCSV := writeFixture(t, tmp, "movies.csv",
		"movieId,title,genres\n"+
			"1,Toy Story (1995),Adventure|Animation\n"+
			"2,\"City of Lost Children, The (Cité des enfants perdus, La) (1995)\",Fantasy\n"+
			"3,Completely Unknown (1995),Drama\n")
	ratingsCSV := writeFixture(t, tmp, "ratings.csv",
		"userId,movieId,rating,timestamp\n"+
			"1,1,4.0,1260759144\n"+
			"2,1,3.5,1260759179\n"+
			"bad,row,,\n"+
			"2,2,5.0,1260759182\n")
	linksCSV := writeFixture(t, tmp, "links.csv",
		"movieId,imdbId,tmdbId\n"+
			"1,0114709,862\n"+
			"2,0112682,902\n")

	cfg, _ := config.Load()
	cfg.MoviesCSV = moviesCSV
	cfg.RatingsCSV = ratingsCSV
	cfg.LinksCSV = linksCSV
	cfg.OutputDir = filepath.Join(tmp, "out")
	cfg.APIRequestLimit = 10

	db, err := storage.Open(filepath.Join(tmp, "movies.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

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

	svc := NewETLService(db, cfg, search, testLogger())
	result, err := svc.Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}

	if result.Summary.Matched != 2 || result.Summary.Unmatched != 1 {
		t.Fatalf("summary=%+v", result.Summary)
	}
	if result.RatingRowsSkipped != 1 {
		t.Fatalf("ratingRowsSkipped=%d", result.RatingRowsSkipped)
	}
	if result.MoviesInserted != 3 || result.MoviesFailed != 0 {
		t.Fatalf("moviesInserted=%d failed=%d", result.MoviesInserted, result.MoviesFailed)
	}
	if result.RatingsInserted != 3 {
		t.Fatalf("ratingsInserted=%d", result.RatingsInserted)
	}

	for table, want := range map[string]int{"movies": 3, "ratings": 3, "unmatched": 1, "runs": 1} {
		n, err := db.CountRows(table)
		if err != nil {
			t.Fatal(err)
		}
		if n != want {
			t.Fatalf("%s=%d want %d", table, n, want)
		}
	}

	unmatched, err := db.ListUnmatched(result.RunID)
	if err != nil {
		t.Fatal(err)
	}
	if len(unmatched) != 1 || unmatched[0].MovieID != 3 {
		t.Fatalf("unmatched=%+v", unmatched)
	}

	if result.ReportPath == "" {
		t.Fatal("expected unmatched report path")
	}
	if _, err := os.Stat(result.ReportPath); err != nil {
		t.Fatal(err)
	}
}

func TestExportUnmatchedToXLSX(t *testing.T) {
	tmp := t.TempDir()
	rows := []internal.UnmatchedRow{
		{
			MovieID:         3,
			OriginalTitle:   "Completely Unknown (1995)",
			NormalizedTitle: "Completely Unknown",
			Genres:          "Drama",
			Strategies:      "TITLE_YEAR,TITLE_ONLY",
			Reason:          "not found in lookup service",
			CreatedAt:       "2026-08-29T00:00:00Z",
		},
	}

	out := filepath.Join(tmp, "missing.xlsx")
	if err := ExportUnmatchedToXLSX(rows, out); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(out); err != nil {
		t.Fatal(err)
	}
}
