package dataset

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"

	"moviebase/internal"
)

// ReadRatings parses the ratings dataset. Rows missing movieId, userId
// or rating are dropped and counted; a missing timestamp is kept as zero.
func ReadRatings(path string) ([]internal.RatingRow, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if err != nil {
		return nil, 0, fmt.Errorf("ratings csv header: %w", err)
	}
	cols, err := columnIndex(header, "userId", "movieId", "rating", "timestamp")
	if err != nil {
		return nil, 0, fmt.Errorf("ratings csv: %w", err)
	}

	var out []internal.RatingRow
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

		userID, okUser := fieldInt(record, cols["userId"])
		movieID, okMovie := fieldInt(record, cols["movieId"])
		rating, okRating := fieldFloat(record, cols["rating"])
		if !okUser || !okMovie || !okRating {
			skipped++
			continue
		}

		var ts int64
		if s := fieldString(record, cols["timestamp"]); s != "" {
			if parsed, err := strconv.ParseInt(s, 10, 64); err == nil {
				ts = parsed
			}
		}

		out = append(out, internal.RatingRow{
			UserID:    userID,
			MovieID:   movieID,
			Rating:    rating,
			Timestamp: ts,
		})
	}

	return out, skipped, nil
}
