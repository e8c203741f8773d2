package config

import (
	"os"
	"strconv"
	"strings"
)

type Config struct {
	HTTPAddr  string
	PublicURL string

	DBDriver string
	DBDSN    string

	BlobBasePath string // generated certificates and report documents

	AuthSecret string

	// Grading policy knobs. Defaults mirror the competition rules; override
	// per deployment via env.
	PassThreshold  float64 // score/total ratio at or above which a result passes
	NumericEpsilon float64 // absolute tolerance for numeric answers
	ResultPageSize int     // fixed page size for results dashboards

	// Outbound notification settings.
	SMTPAddr       string // host:port; empty disables real delivery
	SMTPFrom       string
	NotifyParallel int // max concurrent outbound notifications

	CORSOrigins []string
}

func FromEnv() Config {
	addr := os.Getenv("HTTP_ADDR")
	if addr == "" {
		addr = ":8080"
	}
	return Config{
		HTTPAddr:       addr,
		PublicURL:      os.Getenv("PUBLIC_URL"),
		DBDriver:       envOr("DB_DRIVER", "sqlite"),
		DBDSN:          envOr("DB_DSN", ""),
		BlobBasePath:   envOr("BLOB_BASE_PATH", "./data"),
		AuthSecret:     envOr("AUTH_HMAC_SECRET", "supersecret-dev-key"),
		PassThreshold:  envFloat("PASS_THRESHOLD", 0.4),
		NumericEpsilon: envFloat("NUMERIC_EPSILON", 0.0001),
		ResultPageSize: envInt("RESULT_PAGE_SIZE", 10),
		SMTPAddr:       os.Getenv("SMTP_ADDR"),
		SMTPFrom:       envOr("SMTP_FROM", "no-reply@olympiad.local"),
		NotifyParallel: envInt("NOTIFY_PARALLEL", 4),
		CORSOrigins:    csvOr("CORS_ORIGINS", "http://localhost:3000"),
	}
}

func envOr(k, def string) string {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	return v
}

func envInt(k string, def int) int {
	if v, err := strconv.Atoi(os.Getenv(k)); err == nil && v > 0 {
		return v
	}
	return def
}

func envFloat(k string, def float64) float64 {
	if v, err := strconv.ParseFloat(os.Getenv(k), 64); err == nil && v > 0 {
		return v
	}
	return def
}

func csvOr(k, def string) []string {
	v := envOr(k, def)
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}
