package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/provdeck-ai/provdeck/internal/store"
	"github.com/provdeck-ai/provdeck/pkg/cli"
)

func newRemoveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "remove [id]",
		Short: "Remove a provider profile",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runRemove,
	}
	cmd.Flags().String("app", "", "narrow the picker to one family")
	cmd.Flags().BoolP("yes", "y", false, "skip the confirmation prompt")
	return cmd
}

func runRemove(cmd *cobra.Command, args []string) error {
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
	id, ok, err := selectProvider(st, args, appFlag, "Remove a provider")
	if err != nil || !ok {
		return err
	}

	p, err := st.Get(id)
	if err != nil {
		return err
	}

	if skip, _ := cmd.Flags().GetBool("yes"); !skip {
		yes, ok, err := cli.DefaultPrompter().Confirm(fmt.Sprintf("Remove %q (%s)?", p.Name, p.AppType), false)
		if err != nil {
			return err
		}
		if !ok || !yes {
			_, _ = fmt.Fprintln(os.Stdout, "Aborted.")
			return nil
		}
	}

	if err := st.Remove(cmd.Context(), id); err != nil {
		return err
	}
	_, _ = fmt.Fprintf(os.Stdout, "Removed %q.\n", p.Name)
	return nil
}
