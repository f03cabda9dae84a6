package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/provdeck-ai/provdeck/internal/config"
	"github.com/provdeck-ai/provdeck/internal/provider"
	"github.com/provdeck-ai/provdeck/internal/store"
	"github.com/provdeck-ai/provdeck/internal/tui/picker"
)

// resolveConfigPath returns the config file location, preferring an explicit
// --config flag over the default under ~/.provdeck.
func resolveConfigPath(cmd *cobra.Command) (string, error) {
	if f := cmd.Root().PersistentFlags().Lookup("config"); f != nil && f.Changed {
		return f.Value.String(), nil
	}
	return config.DefaultPath()
}

func loadConfig(cmd *cobra.Command) (*config.Config, string, error) {
	path, err := resolveConfigPath(cmd)
	if err != nil {
		return nil, "", err
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}

// newLogger builds the CLI logger. Text goes to stderr so command output on
// stdout stays pipeable.
func newLogger(cfg *config.Config) *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.LogLevel()}))
}

// openStore opens the configured backend and loads the profile store. The
// returned closer releases the backend, which matters for the database
// drivers.
func openStore(ctx context.Context, cfg *config.Config, opts store.Options) (*store.Store, func(), error) {
	backend, err := store.NewBackend(cfg.Storage)
	if err != nil {
		return nil, nil, err
	}
	st, err := store.Open(ctx, backend, opts)
	if err != nil {
		_ = backend.Close()
		return nil, nil, err
	}
	return st, func() { _ = backend.Close() }, nil
}

// selectProvider resolves the target profile for commands that accept an
// optional id argument. An explicit id wins; otherwise an interactive picker
// runs over the configured profiles, narrowed to one family when appFilter is
// set. ok is false when the user cancelled or there was nothing to pick.
func selectProvider(st *store.Store, args []string, appFilter, title string) (string, bool, error) {
	if len(args) > 0 {
		return args[0], true, nil
	}
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return "", false, fmt.Errorf("provider id required when stdin is not a terminal")
	}

	apps := provider.AppTypes()
	if appFilter != "" {
		at, err := provider.ParseAppType(appFilter)
		if err != nil {
			return "", false, err
		}
		apps = []provider.AppType{at}
	}

	var items []provider.Summary
	for _, at := range apps {
		items = append(items, st.Summaries(at)...)
	}
	if len(items) == 0 {
		_, _ = fmt.Fprintln(os.Stdout, "No providers configured. Run `provdeck add` first.")
		return "", false, nil
	}

	id, ok, err := picker.Pick(title, items)
	if err == nil && !ok {
		_, _ = fmt.Fprintln(os.Stdout, "Aborted.")
	}
	return id, ok, err
}
