package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

const (
	defaultAddr           = "127.0.0.1:8730"
	defaultPhabricatorURL = "https://phabricator.services.mozilla.com"
	defaultBugzillaURL    = "https://bugzilla.mozilla.org"
)

type Config struct {
	DBPath         string
	Addr           string
	PhabricatorURL string
	BugzillaURL    string
	RedisAddr      string // empty disables the redis badge sink
}

func LoadConfig(args []string) (Config, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return Config{}, fmt.Errorf("failed to get cwd: %w", err)
	}

	defaultDBPath := filepath.Join(cwd, "reviewbadge.db")

	dbPath := envOrDefault("REVIEWBADGE_DB_PATH", defaultDBPath)
	addr := addrFromEnv(defaultAddr)
	phabURL := envOrDefault("REVIEWBADGE_PHABRICATOR_URL", defaultPhabricatorURL)
	bugzillaURL := envOrDefault("REVIEWBADGE_BUGZILLA_URL", defaultBugzillaURL)
	redisAddr := os.Getenv("REVIEWBADGE_REDIS_ADDR")

	flagSet := flag.NewFlagSet("reviewbadge-d", flag.ContinueOnError)
	flagSet.SetOutput(io.Discard)
	flagDB := flagSet.String("db", dbPath, "path to SQLite settings database")
	flagAddr := flagSet.String("addr", addr, "HTTP listen address")
	flagPhab := flagSet.String("phabricator", phabURL, "Phabricator base URL")
	flagBugzilla := flagSet.String("bugzilla", bugzillaURL, "Bugzilla base URL")
	flagRedis := flagSet.String("redis", redisAddr, "redis address for the badge mirror (empty disables)")

	if err := flagSet.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			flagSet.SetOutput(os.Stdout)
			flagSet.PrintDefaults()
			return Config{}, err
		}
		return Config{}, err
	}

	config := Config{
		DBPath:         resolvePath(*flagDB, cwd),
		Addr:           strings.TrimSpace(*flagAddr),
		PhabricatorURL: strings.TrimRight(strings.TrimSpace(*flagPhab), "/"),
		BugzillaURL:    strings.TrimRight(strings.TrimSpace(*flagBugzilla), "/"),
		RedisAddr:      strings.TrimSpace(*flagRedis),
	}

	if config.Addr == "" {
		return Config{}, errors.New("addr cannot be empty")
	}
	if config.PhabricatorURL == "" {
		return Config{}, errors.New("phabricator URL cannot be empty")
	}
	if config.BugzillaURL == "" {
		return Config{}, errors.New("bugzilla URL cannot be empty")
	}

	return config, nil
}

func envOrDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func addrFromEnv(fallback string) string {
	if value := os.Getenv("REVIEWBADGE_ADDR"); value != "" {
		return value
	}
	if port := os.Getenv("REVIEWBADGE_PORT"); port != "" {
		return fmt.Sprintf("127.0.0.1:%s", port)
	}
	return fallback
}

func resolvePath(path string, cwd string) string {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return trimmed
	}
	if filepath.IsAbs(trimmed) {
		return trimmed
	}
	return filepath.Join(cwd, trimmed)
}
