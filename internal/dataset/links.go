package dataset

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"

	"moviebase/internal"
)

// ReadLinks parses the cross-reference dataset. The imdbId column holds
// the raw numeric identifier without the service's "tt" prefix; empty
// cells are kept as nil so the fallback strategy can skip them.
func ReadLinks(path string) ([]internal.LinkRow, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if err != nil {
		return nil, 0, fmt.Errorf("links csv header: %w", err)
	}
	cols, err := columnIndex(header, "movieId", "imdbId", "tmdbId")
	if err != nil {
		return nil, 0, fmt.Errorf("links csv: %w", err)
	}

	var out []internal.LinkRow
	skipped := 0
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			skipped++
			continue
		}

		movieID, ok := fieldInt(record, cols["movieId"])
		if !ok {
			skipped++
			continue
		}

		row := internal.LinkRow{MovieID: movieID}
		if s := fieldString(record, cols["imdbId"]); s != "" {
			row.IMDBID = &s
		}
		if s := fieldString(record, cols["tmdbId"]); s != "" {
			row.TMDBID = &s
		}
		out = append(out, row)
	}

	return out, skipped, nil
}

// LinkIndex is the in-memory movieId -> raw IMDb id mapping consulted by
// the cross-reference fallback strategy. Built once, read-only afterwards.
type LinkIndex struct {
	byMovieID map[int]string
}

func BuildLinkIndex(rows []internal.LinkRow) *LinkIndex {
	idx := &LinkIndex{byMovieID: map[int]string{}}
	for _, row := range rows {
		if row.IMDBID == nil || *row.IMDBID == "" {
			continue
		}
		idx.byMovieID[row.MovieID] = *row.IMDBID
	}
	return idx
}

func (i *LinkIndex) Lookup(movieID int) (string, bool) {
	if i == nil {
		return "", false
	}
	id, ok := i.byMovieID[movieID]
	return id, ok
}

func (i *LinkIndex) Len() int {
	if i == nil {
		return 0
	}
	return len(i.byMovieID)
}
