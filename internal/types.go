package internal

type Strategy string

const (
	StrategyTitleYear Strategy = "TITLE_YEAR"
	StrategyTitleOnly Strategy = "TITLE_ONLY"
	StrategyIMDBID    Strategy = "IMDB_ID"
	StrategyNone      Strategy = "NONE"
)

type MovieRow struct {
	MovieID int
	Title   string
	Genres  []string
}

type RatingRow struct {
	UserID    int
	MovieID   int
	Rating    float64
	Timestamp int64
}

type LinkRow struct {
	MovieID int
	IMDBID  *string
	TMDBID  *string
}

type TitleQuery struct {
	Title string
	Year  *int
}

// MoviePayload is the subset of an OMDb lookup response merged into the
// local movie record. Optional fields are nil when the service reports N/A.
type MoviePayload struct {
	IMDBID     string
	Director   *string
	Plot       *string
	BoxOffice  *string
	IMDBRating *float64
	Runtime    *string
}

type Enrichment struct {
	Matched    bool
	IMDBID     *string
	Director   *string
	Plot       *string
	BoxOffice  *string
	IMDBRating *float64
	Runtime    *string
	Strategy   Strategy
}

type EnrichedMovie struct {
	MovieRow
	CleanTitle  string
	ReleaseYear *int
	Enrichment  Enrichment
}

type UnmatchedRow struct {
	MovieID         int
	OriginalTitle   string
	NormalizedTitle string
	ReleaseYear     *int
	Genres          string
	IMDBID          *string
	Strategies      string
	Reason          string
	CreatedAt       string
}
