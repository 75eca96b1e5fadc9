package config

import (
	"os"
	"path/filepath"
	"time"

	perr "ghrepostats/internal/platform/errors"
)

// Cache backends understood by the snapshot store
const (
	BackendFile     = "file"
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
)

// DefaultCacheDirName is created under the home directory when GHSTATS_CACHE_DIR is unset
const DefaultCacheDirName = ".ghrepo-stats"

// GitHubSettings tunes the REST client and the dependents scraper
type GitHubSettings struct {
	BaseURL    string
	WebURL     string
	Timeout    time.Duration
	MaxRetries int
	RetryBase  time.Duration
}

// Settings is the resolved, explicitly passed configuration for one process
type Settings struct {
	CacheDir     string
	CacheBackend string
	CacheDSN     string
	GitHub       GitHubSettings
	APIAddr      string
	CORSOrigins  []string
	// APIDocs mounts the swagger UI and spec under /v1/docs
	APIDocs bool
}

// Load resolves Settings from GHSTATS_* variables under root
func Load(root Conf) (Settings, error) {
	c := root.Prefix("GHSTATS_")

	dir := c.MayString("CACHE_DIR", "")
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return Settings{}, perr.Wrap(err, perr.ErrorCodeConfig, "cannot resolve home directory for the cache")
		}
		dir = filepath.Join(home, DefaultCacheDirName)
	}

	backend, err := c.Enum("CACHE_BACKEND", BackendFile, BackendFile, BackendSQLite, BackendPostgres)
	if err != nil {
		return Settings{}, err
	}
	dsn := c.MayString("CACHE_DSN", "")
	switch backend {
	case BackendSQLite:
		if dsn == "" {
			dsn = filepath.Join(dir, "snapshots.db")
		}
	case BackendPostgres:
		if dsn == "" {
			return Settings{}, perr.Configf("GHSTATS_CACHE_DSN is required for the postgres cache backend")
		}
	}

	gh := c.Prefix("GITHUB_")
	base, err := gh.URL("BASE_URL", "https://api.github.com")
	if err != nil {
		return Settings{}, err
	}
	web, err := gh.URL("WEB_URL", "https://github.com")
	if err != nil {
		return Settings{}, err
	}

	return Settings{
		CacheDir:     dir,
		CacheBackend: backend,
		CacheDSN:     dsn,
		GitHub: GitHubSettings{
			BaseURL:    base.String(),
			WebURL:     web.String(),
			Timeout:    gh.MayDuration("TIMEOUT", 30*time.Second),
			MaxRetries: gh.MayInt("MAX_RETRIES", 5),
			RetryBase:  gh.MayDuration("RETRY_BASE", 500*time.Millisecond),
		},
		APIAddr:     c.MayString("API_ADDR", ":4000"),
		CORSOrigins: c.MayCSV("CORS_ORIGINS", []string{"*"}),
		APIDocs:     c.MayBool("API_DOCS", true),
	}, nil
}
