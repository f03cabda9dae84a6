package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/provdeck-ai/provdeck/internal/provider"
	"github.com/provdeck-ai/provdeck/internal/store"
	"github.com/provdeck-ai/provdeck/internal/wizard"
	"github.com/provdeck-ai/provdeck/pkg/cli"
)

func newAddCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "add [claude|codex|gemini]",
		Short: "Add a provider profile interactively",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runAdd,
	}
}

func runAdd(cmd *cobra.Command, args []string) error {
	p := cli.DefaultPrompter()

	var at provider.AppType
	if len(args) > 0 {
		var err error
		at, err = provider.ParseAppType(args[0])
		if err != nil {
			return err
		}
	} else {
		apps := provider.AppTypes()
		options := make([]string, len(apps))
		for i, a := range apps {
			options[i] = string(a)
		}
		idx, ok, err := p.Choose("Which app is this provider for?", options, 0)
		if err != nil {
			return err
		}
		if !ok {
			_, _ = fmt.Fprintln(os.Stdout, "\nAborted.")
			return nil
		}
		at = apps[idx]
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

	w := wizard.New(p)
	prof, ok, err := w.RunAdd(at, st.IDs(at))
	if err != nil {
		return err
	}
	if !ok {
		_, _ = fmt.Fprintln(os.Stdout, "\nAborted.")
		return nil
	}

	if err := st.Add(cmd.Context(), prof); err != nil {
		return err
	}
	w.ShowSummary(prof)
	return nil
}
