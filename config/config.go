package config

import (
	"errors"
	"flag"
	"net"
	"os"
	"regexp"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

const (
	StoreSQLite = "sqlite"
	StoreMemory = "memory"
)

type Config struct {
	Addr        string
	StoreDriver string
	DBPath      string
	TokenSecret string
	TokenTTL    time.Duration
	Debug       bool
}

// ParseFlags builds the configuration from a .env file (if present) and
// command-line flags. Flags win over environment values.
func ParseFlags() (cfg Config, err error) {
	// missing .env is fine, real deployments pass flags or real env vars
	_ = godotenv.Load()

	var host string
	flag.StringVar(&host, "host", envOr("FORMMIND_HOST", "0.0.0.0"), "listen host name")
	var port uint
	flag.UintVar(&port, "port", envUintOr("FORMMIND_PORT", 8080), "listen port number")
	flag.StringVar(&cfg.StoreDriver, "store", envOr("FORMMIND_STORE", StoreSQLite),
		"store driver: sqlite (durable) or memory (ephemeral)")
	flag.StringVar(&cfg.DBPath, "db-path", envOr("FORMMIND_DB_PATH", "formmind.sqlite"),
		"path to the SQLite DB file")
	flag.StringVar(&cfg.TokenSecret, "token-secret", os.Getenv("FORMMIND_TOKEN_SECRET"),
		"secret key for token signing")
	var ttl uint
	flag.UintVar(&ttl, "token-ttl", envUintOr("FORMMIND_TOKEN_TTL", 3600), "token TTL in seconds")
	flag.BoolVar(&cfg.Debug, "debug", os.Getenv("FORMMIND_DEBUG") == "true", "log at DEBUG level")
	flag.Parse()

	cfg.Addr = net.JoinHostPort(host, strconv.Itoa(int(port)))
	cfg.TokenTTL = time.Duration(ttl) * time.Second

	if cfg.TokenSecret == "" {
		err = errors.New("missing parameter -token-secret (or FORMMIND_TOKEN_SECRET)")
		return
	}
	if cfg.StoreDriver != StoreSQLite && cfg.StoreDriver != StoreMemory {
		err = errors.New("invalid -store: must be sqlite or memory")
	}
	return
}

func (cfg Config) Url() (url string) {
	url = cfg.Addr
	url = regexp.MustCompile(`^0.0.0.0`).ReplaceAllString(url, "localhost")
	url = "http://" + url
	return
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envUintOr(key string, fallback uint) uint {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseUint(v, 10, 32); err == nil {
			return uint(n)
		}
	}
	return fallback
}
