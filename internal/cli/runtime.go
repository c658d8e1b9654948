package cli

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/itelinc/incuchat/internal/cache"
	"github.com/itelinc/incuchat/internal/chat"
	"github.com/itelinc/incuchat/internal/config"
	"github.com/itelinc/incuchat/internal/logging"
	"github.com/itelinc/incuchat/internal/portal"
)

// Runtime bundles the wired pieces every subcommand needs.
type Runtime struct {
	Config *config.Config
	Client *portal.Client
	Engine *chat.Engine
	Cache  *cache.Store
}

// Close releases the runtime's resources.
func (r *Runtime) Close() {
	if r.Cache != nil {
		_ = r.Cache.Close()
	}
}

// LoadConfig resolves the configuration for a command, honoring the
// persistent --config flag.
func LoadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	if path != "" {
		return config.LoadFromFile(path)
	}
	return config.LoadDefault()
}

// EnsureRuntime loads configuration, initializes logging, and wires the
// portal client, snapshot cache, and sync engine.
func EnsureRuntime(cmd *cobra.Command) (*Runtime, error) {
	cfg, err := LoadConfig(cmd)
	if err != nil {
		return nil, Exitf(ExitCodeFailure, "load config: %v", err)
	}

	logging.Init(logging.Config{
		Level:        cfg.Logging.Level,
		Format:       cfg.Logging.Format,
		Output:       os.Stderr,
		EnableCaller: cfg.Logging.EnableCaller,
	})

	if cfg.Portal.BaseURL == "" {
		return nil, Exitf(ExitCodeFailure, "portal.base_url is not configured; see `incuchat auth --help`")
	}
	if cfg.Session.UserID == 0 {
		return nil, Exitf(ExitCodeFailure, "session.user_id is not configured")
	}

	token, err := cfg.Token()
	if err != nil {
		return nil, Exitf(ExitCodeAuth, "no portal token: %v; run `incuchat auth`", err)
	}

	session := chat.SessionFromConfig(cfg)
	client := portal.New(portal.Config{
		BaseURL:     cfg.Portal.BaseURL,
		Token:       token,
		Session:     session,
		AuditModule: cfg.Portal.AuditModule,
		Timeout:     cfg.Portal.Timeout,
	})

	opts := []chat.EngineOption{chat.WithReconcileDelay(cfg.Poll.ReconcileDelay)}
	var store *cache.Store
	if cfg.Cache.Path != "" {
		if err := cfg.EnsureDirectories(); err != nil {
			return nil, Exitf(ExitCodeFailure, "prepare directories: %v", err)
		}
		store, err = cache.Open(cfg.Cache.Path)
		if err != nil {
			// The cache is a convenience; run without it.
			logging.Warn().Err(err).Msg("snapshot cache unavailable")
			store = nil
		} else {
			opts = append(opts, chat.WithSnapshotCache(store))
		}
	}

	return &Runtime{
		Config: cfg,
		Client: client,
		Engine: chat.NewEngine(client, session, opts...),
		Cache:  store,
	}, nil
}

// failAuth translates session-expiry errors into the dedicated exit code.
func failAuth(err error) error {
	return Exitf(ExitCodeAuth, "session expired, re-authenticate with `incuchat auth`: %v", err)
}
