package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	DBPath       string
	SourceDBPath string
	OutputDir    string
	CountryFile  string

	WikidataEndpoint     string
	WikidataUserAgent    string
	WikidataRateLimitRPS int
	WikidataTimeoutMs    int

	ReconcileTopK int
}

func Load() (Config, error) {
	_ = godotenv.Load()

	cwd, err := os.Getwd()
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		DBPath:       getEnv("DB_PATH", filepath.Join(cwd, "data", "rasdb.db")),
		SourceDBPath: getEnv("SOURCE_DB_PATH", filepath.Join(cwd, "data", "ific.db")),
		OutputDir:    getEnv("OUTPUT_DIR", filepath.Join(cwd, "out")),
		CountryFile:  getEnv("COUNTRY_FILE", filepath.Join(cwd, "geographical-areas.csv")),

		WikidataEndpoint:     getEnv("WIKIDATA_ENDPOINT", "https://query.wikidata.org/sparql"),
		WikidataUserAgent:    getEnv("WIKIDATA_USER_AGENT", "rasdb/0.1 (radio astronomy station database tool)"),
		WikidataRateLimitRPS: getEnvInt("WIKIDATA_RATE_LIMIT_RPS", 2),
		WikidataTimeoutMs:    getEnvInt("WIKIDATA_TIMEOUT_MS", 60000),

		ReconcileTopK: getEnvInt("RECONCILE_TOP_K", 10),
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value := strings.TrimSpace(getEnv(key, ""))
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}
