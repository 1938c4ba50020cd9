package config

import (
	"os"
	"strconv"
	"strings"
)

type Config struct {
	HTTPAddr string

	// DB
	Env    string // "dev" | "prod"
	DBPath string // e.g. "./data/cardea.db"

	// Biometric verification service
	FaceServiceURL       string
	VerifyTimeoutSeconds int
	VerifyRatePerSecond  float64
	VerifyBurst          int

	// Photo storage root (shared volume with the verification service)
	PhotoRoot string

	// Orphaned entry-photo sweeping
	SweepRetentionMinutes int // 0 = never sweep
	SweepIntervalMinutes  int // how often the sweeper runs (default 30)
}

func FromEnv() Config {
	addr := getenvDefault("CARDEA_HTTP_ADDR", ":8080")

	env := strings.ToLower(getenvDefault("CARDEA_ENV", "dev"))
	if env != "dev" && env != "prod" {
		// fail-soft: treat unknown as dev
		env = "dev"
	}

	return Config{
		HTTPAddr: addr,
		Env:      env,
		DBPath:   getenvDefault("CARDEA_DB_PATH", "./data/cardea.db"),

		FaceServiceURL:       getenvDefault("CARDEA_FACE_SERVICE_URL", "http://localhost:8000"),
		VerifyTimeoutSeconds: getenvInt("CARDEA_VERIFY_TIMEOUT_SECONDS", 15),
		VerifyRatePerSecond:  getenvFloat("CARDEA_VERIFY_RATE_PER_SECOND", 4),
		VerifyBurst:          getenvInt("CARDEA_VERIFY_BURST", 2),

		PhotoRoot: getenvDefault("CARDEA_PHOTO_ROOT", "./data/photos"),

		SweepRetentionMinutes: getenvInt("CARDEA_SWEEP_RETENTION_MINUTES", 60),
		SweepIntervalMinutes:  getenvInt("CARDEA_SWEEP_INTERVAL_MINUTES", 30),
	}
}

func getenvDefault(key, def string) string {
	v := os.Getenv(key)
	if strings.TrimSpace(v) == "" {
		return def
	}
	return v
}

func getenvInt(key string, def int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return def
	}
	return n
}

func getenvFloat(key string, def float64) float64 {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || f < 0 {
		return def
	}
	return f
}
