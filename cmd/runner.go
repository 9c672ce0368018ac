package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/spx/internal/repositories"
	"github.com/desertthunder/spx/internal/services"
	"github.com/desertthunder/spx/internal/shared"
	"github.com/desertthunder/spx/internal/tasks"
	"github.com/urfave/cli/v3"
	"golang.org/x/oauth2"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config     *shared.Config
	configPath string
	tokenPath  string
	spotify    services.Service
	recorder   tasks.Recorder
	logger     *log.Logger
	output     io.Writer
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *shared.Config
	ConfigPath string
	TokenPath  string
	Spotify    services.Service
	Recorder   tasks.Recorder
	Logger     *log.Logger
	Output     io.Writer
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.TokenPath == "" {
		opts.TokenPath = defaultTokenPath()
	}

	return &Runner{
		config:     opts.Config,
		configPath: opts.ConfigPath,
		tokenPath:  opts.TokenPath,
		spotify:    opts.Spotify,
		recorder:   opts.Recorder,
		logger:     opts.Logger,
		output:     opts.Output,
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, loginCommand, profileCommand, playlistsCommand, exportCommand, historyCommand, serveCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	var output []byte
	var err error

	if pretty {
		output, err = json.MarshalIndent(data, "", "  ")
	} else {
		output, err = json.Marshal(data)
	}

	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainln(format string, args ...any) error {
	text := "\n" + fmt.Sprintf(format, args...) + "\n"
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainHeader(title string) {
	r.writePlain("═══════════════════════════════════════\n")
	r.writePlain("%v\n", title)
	r.writePlain("═══════════════════════════════════════\n")
}

// defaultTokenPath returns ~/.spx/token.json, falling back to a relative path
// when the home directory cannot be resolved.
func defaultTokenPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "spx_token.json"
	}
	return filepath.Join(home, ".spx", "token.json")
}

// loadToken reads the saved OAuth2 token from the runner's token path.
func (r *Runner) loadToken() (*oauth2.Token, error) {
	data, err := os.ReadFile(r.tokenPath)
	if err != nil {
		return nil, err
	}

	var token oauth2.Token
	if err := json.Unmarshal(data, &token); err != nil {
		return nil, fmt.Errorf("failed to parse token file: %w", err)
	}

	return &token, nil
}

// saveToken writes the OAuth2 token to the runner's token path with owner-only
// file permissions.
func (r *Runner) saveToken(token *oauth2.Token) error {
	if token == nil {
		return fmt.Errorf("%w: token cannot be nil", shared.ErrInvalidArgument)
	}

	if dir := filepath.Dir(r.tokenPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create token directory: %w", err)
		}
	}

	data, err := json.MarshalIndent(token, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal token: %w", err)
	}

	if err := os.WriteFile(r.tokenPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write token file: %w", err)
	}

	return nil
}

// restoreSession installs a previously saved token on the OAuth service and
// keeps the token file fresh across refreshes. A missing token file is not an
// error; commands that need authentication report it themselves.
func (r *Runner) restoreSession(ctx context.Context) {
	svc, ok := r.spotify.(services.OAuthService)
	if !ok {
		return
	}

	token, err := r.loadToken()
	if err != nil {
		if !os.IsNotExist(err) {
			r.logger.Warn("failed to load saved token", "path", r.tokenPath, "error", err)
		}
		return
	}

	svc.SetTokenRefreshCallback(func(t *oauth2.Token) {
		if err := r.saveToken(t); err != nil {
			r.logger.Warn("failed to persist refreshed token", "error", err)
		}
	})
	svc.SetToken(ctx, token)
	r.logger.Debug("session restored", "path", r.tokenPath)
}

// openDatabase opens the configured sqlite database and applies the pool
// limits. The file must already exist: setup owns creation and migration.
func (r *Runner) openDatabase() (*sql.DB, error) {
	path := r.config.Database.Path
	if path == "" {
		return nil, fmt.Errorf("%w: database path not configured", shared.ErrInvalidConfig)
	}
	if path != ":memory:" {
		if _, err := os.Stat(path); err != nil {
			return nil, fmt.Errorf("database not initialized at %s, run 'spx setup' first: %w", path, err)
		}
	}

	db, err := shared.NewDatabase(path)
	if err != nil {
		return nil, err
	}
	shared.ConfigureDatabase(db, r.config.Database.MaxOpenConns, r.config.Database.MaxIdleConns)
	return db, nil
}

// exportEngine builds the engine export commands run against, attaching a run
// recorder when the history database is reachable. The returned closer
// releases the database handle and is always safe to call.
func (r *Runner) exportEngine() (*tasks.PlaylistEngine, func()) {
	if r.recorder != nil {
		return tasks.NewPlaylistEngine(r.spotify, r.recorder, r.logger), func() {}
	}

	db, err := r.openDatabase()
	if err != nil {
		r.logger.Warn("export history disabled", "reason", err)
		return tasks.NewPlaylistEngine(r.spotify, nil, r.logger), func() {}
	}

	engine := tasks.NewPlaylistEngine(r.spotify, repositories.NewRunRecorder(db), r.logger)
	return engine, func() { db.Close() }
}
