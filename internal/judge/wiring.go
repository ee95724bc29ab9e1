package judge

import (
	"net/http"
	"path/filepath"

	"github.com/rohmanhakim/cfcli/internal/apiclient"
	"github.com/rohmanhakim/cfcli/internal/auth"
	"github.com/rohmanhakim/cfcli/internal/cache"
	"github.com/rohmanhakim/cfcli/internal/config"
	"github.com/rohmanhakim/cfcli/internal/metadata"
	"github.com/rohmanhakim/cfcli/internal/websession"
	"github.com/rohmanhakim/cfcli/pkg/fileutil"
	"github.com/rohmanhakim/cfcli/pkg/limiter"
	"github.com/rohmanhakim/cfcli/pkg/retry"
	"github.com/rohmanhakim/cfcli/pkg/timeutil"
)

const sqliteCacheFile = "cache.db"

// Closer releases what NewFromConfig opened.
type Closer func() error

// NewFromConfig assembles a Judge from cfg: one HTTP client shared by the
// API and the website, the configured cache backend, API pacing and retries.
func NewFromConfig(cfg config.Config, creds auth.Credentials, sink metadata.MetadataSink) (*Judge, Closer, error) {
	if sink == nil {
		sink = &metadata.NoopSink{}
	}
	httpClient := &http.Client{Timeout: cfg.Timeout()}

	backend, closer, err := newCacheBackend(cfg)
	if err != nil {
		return nil, nil, err
	}
	store := cache.NewStore(backend, cfg.CacheTTL(), sink)

	pacer := limiter.NewConcurrentRateLimiter()
	pacer.SetBaseDelay(cfg.APIMinInterval())
	pacer.SetJitter(cfg.Jitter())
	pacer.SetRandomSeed(cfg.RandomSeed())

	retryParam := retry.NewRetryParam(
		cfg.Jitter(),
		cfg.RandomSeed(),
		cfg.MaxAttempt(),
		timeutil.NewBackoffParam(
			cfg.BackoffInitialDuration(),
			cfg.BackoffMultiplier(),
			cfg.BackoffMaxDuration(),
		),
	)

	api := apiclient.NewClient(httpClient, cfg.APIBaseURL(), sink).
		WithCache(store).
		WithLimiter(pacer).
		WithRetryParam(retryParam).
		WithUserAgent(cfg.UserAgent())

	web := websession.NewWebClient(httpClient, cfg.WebBaseURL(), sink).
		WithRetryParam(retryParam).
		WithUserAgent(cfg.UserAgent()).
		WithLanguage(cfg.LanguageID()).
		WithTabSize(cfg.TabSize())

	j := New(api, web, sink).
		WithSignerPrefix(cfg.SignaturePrefix()).
		WithCredentials(creds).
		WithPolling(cfg.PollInterval(), cfg.PollMaxAttempts())

	if cfg.SessionFile() != "" {
		sessionPath, pathErr := fileutil.ExpandHome(cfg.SessionFile())
		if pathErr != nil {
			_ = closer()
			return nil, nil, pathErr
		}
		j.WithSessionFile(websession.NewSessionFile(sessionPath, cfg.WebBaseURL(), sink))
	}

	return j, closer, nil
}

func newCacheBackend(cfg config.Config) (cache.Backend, Closer, error) {
	noop := func() error { return nil }

	if cfg.CacheBackend() == config.CacheBackendMemory {
		return cache.NewMemoryBackend(), noop, nil
	}

	dir, pathErr := fileutil.ExpandHome(cfg.CacheDir())
	if pathErr != nil {
		return nil, nil, pathErr
	}

	switch cfg.CacheBackend() {
	case config.CacheBackendSQLite:
		if err := fileutil.EnsureDir(dir); err != nil {
			return nil, nil, err
		}
		backend, err := cache.NewSQLiteBackend(filepath.Join(dir, sqliteCacheFile))
		if err != nil {
			return nil, nil, &JudgeError{Message: err.Error(), Cause: ErrCauseSetup}
		}
		return backend, backend.Close, nil
	default:
		backend, err := cache.NewFileBackend(dir)
		if err != nil {
			return nil, nil, &JudgeError{Message: err.Error(), Cause: ErrCauseSetup}
		}
		return backend, noop, nil
	}
}
