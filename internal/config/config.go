package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	DBPath    string
	OutputDir string

	MoviesCSV  string
	RatingsCSV string
	LinksCSV   string

	OMDBAPIKey    string
	OMDBBaseURL   string
	OMDBTimeoutMs int

	APIRequestLimit int
	APICallDelayMs  int

	TitleArticles []string
}

func Load() (Config, error) {
	_ = godotenv.Load()

	cwd, err := os.Getwd()
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		DBPath:    getEnv("DB_PATH", filepath.Join(cwd, "data", "movies.db")),
		OutputDir: getEnv("OUTPUT_DIR", filepath.Join(cwd, "out")),

		MoviesCSV:  getEnv("MOVIES_CSV", filepath.Join(cwd, "data", "movies.csv")),
		RatingsCSV: getEnv("RATINGS_CSV", filepath.Join(cwd, "data", "ratings.csv")),
		LinksCSV:   getEnv("LINKS_CSV", filepath.Join(cwd, "data", "links.csv")),

		OMDBAPIKey:    getEnv("OMDB_API_KEY", ""),
		OMDBBaseURL:   getEnv("OMDB_BASE_URL", "http://www.omdbapi.com/"),
		OMDBTimeoutMs: getEnvInt("OMDB_TIMEOUT_MS", 10000),

		APIRequestLimit: getEnvInt("API_REQUEST_LIMIT", 400),
		APICallDelayMs:  getEnvInt("API_CALL_DELAY_MS", 200),

		TitleArticles: getEnvList("TITLE_ARTICLES", []string{"The", "A", "An", "La", "Le", "Les", "El", "Die", "Der"}),
	}

	return cfg, nil
}

func (c Config) Require(name, value string) error {
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("missing required env var: %s", name)
	}
	return nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value := getEnv(key, "")
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvList(key string, fallback []string) []string {
	value := getEnv(key, "")
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}
