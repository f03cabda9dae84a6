package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/provdeck-ai/provdeck/internal/provider"
	"github.com/provdeck-ai/provdeck/internal/store"
)

func newUseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "use <claude|codex|gemini> [id]",
		Short: "Make a provider the active one for an app",
		Args:  cobra.RangeArgs(1, 2),
		RunE:  runUse,
	}
}

func runUse(cmd *cobra.Command, args []string) error {
	at, err := provider.ParseAppType(args[0])
	if err != nil {
		return err
	}

	cfg, _, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	st, closeStore, err := openStore(cmd.Context(), cfg, store.Options{Logger: newLogger(cfg)})
	if err != nil {
		return err
	}
	defer closeStore()

	id, ok, err := selectProvider(st, args[1:], args[0], fmt.Sprintf("Activate a %s provider", at))
	if err != nil || !ok {
		return err
	}

	if err := st.SetActive(cmd.Context(), at, id); err != nil {
		return err
	}
	p, err := st.Get(id)
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintf(os.Stdout, "Now using %q for %s.\n", p.Name, at)
	return nil
}
