package pipeline

import (
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"

	"moviebase/internal"
)

// ExportUnmatchedToXLSX writes the unmatched-movie report consumed by
// whoever curates the dataset by hand.
func ExportUnmatchedToXLSX(rows []internal.UnmatchedRow, outputPath string) error {
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)

	headers := []string{
		"movie_id", "original_title", "normalized_title", "release_year",
		"genres", "imdb_id_available", "imdb_id", "strategies_attempted",
		"error_reason", "timestamp",
	}

	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}

	for i, row := range rows {
		r := i + 2
		set := func(col int, value any) {
			cell, _ := excelize.CoordinatesToCellName(col, r)
			_ = f.SetCellValue(sheet, cell, value)
		}

		set(1, row.MovieID)
		set(2, row.OriginalTitle)
		set(3, row.NormalizedTitle)
		set(4, derefInt(row.ReleaseYear))
		set(5, row.Genres)
		set(6, yesNo(row.IMDBID != nil))
		set(7, derefString(row.IMDBID))
		set(8, row.Strategies)
		set(9, row.Reason)
		set(10, row.CreatedAt)
	}

	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return err
	}
	return f.SaveAs(outputPath)
}

func yesNo(v bool) string {
	if v {
		return "Yes"
	}
	return "No"
}

func derefString(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}

func derefInt(v *int) any {
	if v == nil {
		return ""
	}
	return *v
}
