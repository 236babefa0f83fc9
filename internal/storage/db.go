package storage

import (
	"database/sql"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"moviebase/internal"
)

type DB struct {
	conn *sql.DB
}

func Open(path string) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	if _, err := conn.Exec(`PRAGMA journal_mode = WAL;`); err != nil {
		_ = conn.Close()
		return nil, err
	}

	db := &DB{conn: conn}
	if err := db.init(); err != nil {
		_ = conn.Close()
		return nil, err
	}

	return db, nil
}

func (d *DB) Close() error {
	return d.conn.Close()
}

func (d *DB) init() error {
	schema := `
CREATE TABLE IF NOT EXISTS movies (
  movie_id INTEGER PRIMARY KEY,
  title TEXT NOT NULL,
  release_year INTEGER,
  imdb_id TEXT,
  director TEXT,
  plot TEXT,
  box_office TEXT,
  imdb_rating REAL,
  runtime TEXT
);
CREATE INDEX IF NOT EXISTS idx_movies_imdb_id ON movies(imdb_id);

CREATE TABLE IF NOT EXISTS genres (
  genre_id INTEGER PRIMARY KEY AUTOINCREMENT,
  genre_name TEXT NOT NULL UNIQUE
);

CREATE TABLE IF NOT EXISTS movie_genres (
  movie_id INTEGER NOT NULL,
  genre_id INTEGER NOT NULL,
  PRIMARY KEY (movie_id, genre_id),
  FOREIGN KEY(movie_id) REFERENCES movies(movie_id),
  FOREIGN KEY(genre_id) REFERENCES genres(genre_id)
);

CREATE TABLE IF NOT EXISTS ratings (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  movie_id INTEGER NOT NULL,
  user_id INTEGER NOT NULL,
  rating REAL NOT NULL,
  timestamp INTEGER
);
CREATE INDEX IF NOT EXISTS idx_ratings_movie ON ratings(movie_id);

CREATE TABLE IF NOT EXISTS runs (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  traceId TEXT NOT NULL,
  countsJson TEXT NOT NULL,
  timingsJson TEXT NOT NULL,
  createdAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS unmatched (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  runId INTEGER NOT NULL,
  movie_id INTEGER NOT NULL,
  original_title TEXT NOT NULL,
  normalized_title TEXT NOT NULL,
  release_year INTEGER,
  genres TEXT,
  imdb_id TEXT,
  strategies TEXT NOT NULL,
  reason TEXT NOT NULL,
  createdAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP,
  FOREIGN KEY(runId) REFERENCES runs(id)
);
`

	_, err := d.conn.Exec(schema)
	return err
}

// ReplaceMovies clears the movie tables and loads the enriched set.
// A row that fails to insert is counted, not fatal, so one bad record
// never sinks the batch.
func (d *DB) ReplaceMovies(movies []internal.EnrichedMovie) (inserted, failed int, err error) {
	tx, err := d.conn.Begin()
	if err != nil {
		return 0, 0, err
	}
	defer func() { _ = tx.Rollback() }()

	for _, stmt := range []string{`DELETE FROM movie_genres`, `DELETE FROM genres`, `DELETE FROM movies`} {
		if _, err := tx.Exec(stmt); err != nil {
			return 0, 0, err
		}
	}

	stmt, err := tx.Prepare(`
INSERT INTO movies (movie_id, title, release_year, imdb_id, director, plot, box_office, imdb_rating, runtime)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
`)
	if err != nil {
		return 0, 0, err
	}
	defer stmt.Close()

	for _, m := range movies {
		e := m.Enrichment
		if _, err := stmt.Exec(
			m.MovieID, m.CleanTitle, m.ReleaseYear,
			e.IMDBID, e.Director, e.Plot, e.BoxOffice, e.IMDBRating, e.Runtime,
		); err != nil {
			failed++
			continue
		}
		inserted++
	}

	return inserted, failed, tx.Commit()
}

// LoadGenres builds the deduplicated genre vocabulary and the
// movie-genre association rows from the loaded movie set.
func (d *DB) LoadGenres(movies []internal.EnrichedMovie) (genres, associations int, err error) {
	tx, err := d.conn.Begin()
	if err != nil {
		return 0, 0, err
	}
	defer func() { _ = tx.Rollback() }()

	genreID := map[string]int64{}
	insertGenre, err := tx.Prepare(`INSERT OR IGNORE INTO genres (genre_name) VALUES (?)`)
	if err != nil {
		return 0, 0, err
	}
	defer insertGenre.Close()

	for _, m := range movies {
		for _, g := range m.Genres {
			if _, ok := genreID[g]; ok {
				continue
			}
			if _, err := insertGenre.Exec(g); err != nil {
				return 0, 0, err
			}
			var id int64
			if err := tx.QueryRow(`SELECT genre_id FROM genres WHERE genre_name = ?`, g).Scan(&id); err != nil {
				return 0, 0, err
			}
			genreID[g] = id
		}
	}

	insertAssoc, err := tx.Prepare(`INSERT OR IGNORE INTO movie_genres (movie_id, genre_id) VALUES (?, ?)`)
	if err != nil {
		return 0, 0, err
	}
	defer insertAssoc.Close()

	for _, m := range movies {
		for _, g := range m.Genres {
			res, err := insertAssoc.Exec(m.MovieID, genreID[g])
			if err != nil {
				return 0, 0, err
			}
			if n, _ := res.RowsAffected(); n > 0 {
				associations++
			}
		}
	}

	return len(genreID), associations, tx.Commit()
}

// ReplaceRatings clears and reloads the ratings table in batches. A
// failed batch is skipped and its rows reported in the failed count.
func (d *DB) ReplaceRatings(ratings []internal.RatingRow, batchSize int) (inserted, failed int, err error) {
	if batchSize <= 0 {
		batchSize = 1000
	}

	if _, err := d.conn.Exec(`DELETE FROM ratings`); err != nil {
		return 0, 0, err
	}

	for start := 0; start < len(ratings); start += batchSize {
		end := start + batchSize
		if end > len(ratings) {
			end = len(ratings)
		}
		batch := ratings[start:end]

		if err := d.insertRatingBatch(batch); err != nil {
			failed += len(batch)
			continue
		}
		inserted += len(batch)
	}

	return inserted, failed, nil
}

func (d *DB) insertRatingBatch(batch []internal.RatingRow) error {
	tx, err := d.conn.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.Prepare(`INSERT INTO ratings (movie_id, user_id, rating, timestamp) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, r := range batch {
		var ts any
		if r.Timestamp != 0 {
			ts = r.Timestamp
		}
		if _, err := stmt.Exec(r.MovieID, r.UserID, r.Rating, ts); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (d *DB) InsertRun(traceID string, counts map[string]int, timings map[string]float64) (int64, error) {
	countsJSON, _ := json.Marshal(counts)
	timingsJSON, _ := json.Marshal(timings)
	res, err := d.conn.Exec(`INSERT INTO runs (traceId, countsJson, timingsJson) VALUES (?, ?, ?)`,
		traceID, string(countsJSON), string(timingsJSON))
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (d *DB) InsertUnmatched(runID int64, rows []internal.UnmatchedRow) error {
	tx, err := d.conn.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.Prepare(`
INSERT INTO unmatched (runId, movie_id, original_title, normalized_title, release_year, genres, imdb_id, strategies, reason, createdAt)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, row := range rows {
		if _, err := stmt.Exec(
			runID, row.MovieID, row.OriginalTitle, row.NormalizedTitle,
			row.ReleaseYear, row.Genres, row.IMDBID, row.Strategies, row.Reason, row.CreatedAt,
		); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// LatestRunID returns the id of the most recent run, or false when no
// run has been recorded yet.
func (d *DB) LatestRunID() (int64, bool, error) {
	var id int64
	err := d.conn.QueryRow(`SELECT id FROM runs ORDER BY id DESC LIMIT 1`).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return id, true, nil
}

func (d *DB) ListUnmatched(runID int64) ([]internal.UnmatchedRow, error) {
	rows, err := d.conn.Query(`
SELECT movie_id, original_title, normalized_title, release_year, genres, imdb_id, strategies, reason, createdAt
FROM unmatched WHERE runId = ? ORDER BY movie_id ASC
`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []internal.UnmatchedRow
	for rows.Next() {
		var row internal.UnmatchedRow
		if err := rows.Scan(
			&row.MovieID, &row.OriginalTitle, &row.NormalizedTitle, &row.ReleaseYear,
			&row.Genres, &row.IMDBID, &row.Strategies, &row.Reason, &row.CreatedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, row)
	}

	return out, rows.Err()
}

func (d *DB) CountRows(table string) (int, error) {
	switch table {
	case "movies", "genres", "movie_genres", "ratings", "unmatched", "runs":
	default:
		return 0, errors.New("unknown table: " + table)
	}
	var n int
	err := d.conn.QueryRow(`SELECT COUNT(*) FROM ` + table).Scan(&n)
	return n, err
}
