package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/provdeck-ai/provdeck/internal/provider"
	"github.com/provdeck-ai/provdeck/internal/store"
	"github.com/provdeck-ai/provdeck/internal/wizard"
	"github.com/provdeck-ai/provdeck/pkg/cli"
)

func newEditCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "edit [id]",
		Short: "Edit a provider profile interactively",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runEdit,
	}
	cmd.Flags().String("app", "", "narrow the picker to one family")
	return cmd
}

func runEdit(cmd *cobra.Command, args []string) error {
	cfg, _, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	st, closeStore, err := openStore(cmd.Context(), cfg, store.Options{Logger: newLogger(cfg)})
	if err != nil {
		return err
	}
	defer closeStore()

	appFlag, _ := cmd.Flags().GetString("app")
	id, ok, err := selectProvider(st, args, appFlag, "Edit a provider")
	if err != nil || !ok {
		return err
	}

	current, err := st.Get(id)
	if err != nil {
		return err
	}

	w := wizard.New(cli.DefaultPrompter())
	draft, ok, err := w.RunEdit(current)
	if err != nil {
		return err
	}
	if !ok {
		_, _ = fmt.Fprintln(os.Stdout, "\nAborted.")
		return nil
	}

	// The wizard ran unlocked, so merge against whatever is current by the
	// time the write lock is held.
	updated, err := st.Update(cmd.Context(), id, func(cur *provider.Provider) (*provider.Provider, error) {
		return provider.Merge(cur, draft, time.Now().Unix())
	})
	if err != nil {
		return err
	}
	w.ShowSummary(updated)
	return nil
}
