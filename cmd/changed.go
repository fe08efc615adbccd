package cmd

import (
	"fmt"

	"ris-scraper/freshness"

	"github.com/spf13/cobra"
)

func newChangedCommand() *cobra.Command {
	flags := &siteFlags{}
	cmd := &cobra.Command{
		Use:   "changed",
		Short: "Report whether the site was updated since the last scrape",
		Long: `Compares the site's update marker with the latest scrape recorded in the
database. Exits with an error when the marker cannot be read.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := loadDeps(cmd, flags)
			if err != nil {
				return err
			}
			defer d.log.Sync()

			ctx := cmd.Context()
			store, err := d.openDB(ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			last, err := store.LastScrapedAt(ctx)
			if err != nil {
				return err
			}

			f, release, err := d.newFetcher()
			if err != nil {
				return err
			}
			defer release()

			detector := freshness.NewDetector(f, d.baseURL.String(), d.loc, d.log)
			updated, err := detector.LastUpdate(ctx)
			if err != nil {
				return err
			}
			changed := detector.ChangedSince(updated, last)

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Site updated: %s\n", updated.Format("02.01.2006 15:04"))
			if last == nil {
				fmt.Fprintln(out, "Last scrape:  never")
			} else {
				fmt.Fprintf(out, "Last scrape:  %s\n", last.In(d.loc).Format("02.01.2006 15:04"))
			}
			fmt.Fprintf(out, "Changed:      %t\n", changed)
			return nil
		},
	}
	flags.register(cmd)
	return cmd
}
