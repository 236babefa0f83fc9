package dataset

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"moviebase/internal"
)

// ReadMovies parses the movies dataset. Rows with a missing or
// non-numeric movieId or an empty title are skipped and counted.
func ReadMovies(path string) ([]internal.MovieRow, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if err != nil {
		return nil, 0, fmt.Errorf("movies csv header: %w", err)
	}
	cols, err := columnIndex(header, "movieId", "title", "genres")
	if err != nil {
		return nil, 0, fmt.Errorf("movies csv: %w", err)
	}

	var out []internal.MovieRow
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

		id, ok := fieldInt(record, cols["movieId"])
		if !ok {
			skipped++
			continue
		}
		title := fieldString(record, cols["title"])
		if title == "" {
			skipped++
			continue
		}

		out = append(out, internal.MovieRow{
			MovieID: id,
			Title:   title,
			Genres:  SplitGenres(fieldString(record, cols["genres"])),
		})
	}

	return out, skipped, nil
}

// SplitGenres splits the pipe-separated genre column into a clean list.
// The dataset's "(no genres listed)" placeholder yields an empty list.
func SplitGenres(raw string) []string {
	raw = strings.TrimSpace(raw)
	if raw == "" || raw == "(no genres listed)" {
		return nil
	}
	parts := strings.Split(raw, "|")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func columnIndex(header []string, required ...string) (map[string]int, error) {
	cols := map[string]int{}
	for i, name := range header {
		cols[strings.TrimSpace(name)] = i
	}
	for _, name := range required {
		if _, ok := cols[name]; !ok {
			return nil, fmt.Errorf("missing column %q", name)
		}
	}
	return cols, nil
}

func fieldString(record []string, idx int) string {
	if idx < 0 || idx >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[idx])
}

func fieldInt(record []string, idx int) (int, bool) {
	s := fieldString(record, idx)
	if s == "" {
		return 0, false
	}
	parsed, err := strconv.Atoi(s)
	if err != nil {
		return 0, false
	}
	return parsed, true
}

func fieldFloat(record []string, idx int) (float64, bool) {
	s := fieldString(record, idx)
	if s == "" {
		return 0, false
	}
	parsed, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return parsed, true
}
