package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/provdeck-ai/provdeck/internal/store"
)

func newShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show [id]",
		Short: "Show one provider profile",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runShow,
	}
	cmd.Flags().String("app", "", "narrow the picker to one family")
	cmd.Flags().Bool("json", false, "print as JSON")
	return cmd
}

func runShow(cmd *cobra.Command, args []string) error {
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
	id, ok, err := selectProvider(st, args, appFlag, "Show a provider")
	if err != nil || !ok {
		return err
	}

	p, err := st.Get(id)
	if err != nil {
		return err
	}
	sum := p.Summary()
	if active := st.Active(p.AppType); active != nil && active.ID == p.ID {
		sum.Active = true
	}

	if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
		out, err := json.MarshalIndent(sum, "", "  ")
		if err != nil {
			return err
		}
		_, _ = fmt.Fprintln(os.Stdout, string(out))
		return nil
	}

	orDash := func(s string) string {
		if s == "" {
			return "-"
		}
		return s
	}
	activeLabel := "no"
	if sum.Active {
		activeLabel = "yes"
	}
	sortLabel := "-"
	if sum.SortIndex != nil {
		sortLabel = fmt.Sprintf("%d", *sum.SortIndex)
	}

	_, _ = fmt.Fprintf(os.Stdout, "ID:       %s\n", sum.ID)
	_, _ = fmt.Fprintf(os.Stdout, "Name:     %s\n", sum.Name)
	_, _ = fmt.Fprintf(os.Stdout, "App:      %s\n", sum.AppType)
	_, _ = fmt.Fprintf(os.Stdout, "Active:   %s\n", activeLabel)
	_, _ = fmt.Fprintf(os.Stdout, "Key:      %s\n", orDash(sum.MaskedSecret))
	_, _ = fmt.Fprintf(os.Stdout, "URL:      %s\n", orDash(sum.BaseURL))
	_, _ = fmt.Fprintf(os.Stdout, "Model:    %s\n", orDash(sum.Model))
	_, _ = fmt.Fprintf(os.Stdout, "Website:  %s\n", orDash(sum.WebsiteURL))
	_, _ = fmt.Fprintf(os.Stdout, "Notes:    %s\n", orDash(sum.Notes))
	_, _ = fmt.Fprintf(os.Stdout, "Sort:     %s\n", sortLabel)
	_, _ = fmt.Fprintf(os.Stdout, "Created:  %s\n", time.Unix(p.CreatedAt, 0).Format("2006-01-02 15:04:05"))
	_, _ = fmt.Fprintf(os.Stdout, "Updated:  %s\n", time.Unix(p.UpdatedAt, 0).Format("2006-01-02 15:04:05"))
	return nil
}
