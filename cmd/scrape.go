package cmd

import (
	"fmt"

	"ris-scraper/harvester"

	"github.com/spf13/cobra"
)

func newScrapeCommand() *cobra.Command {
	flags := &siteFlags{}
	cmd := &cobra.Command{
		Use:   "scrape",
		Short: "Scrape all meetings of one year and export them",
		Example: `  ris-scraper scrape -d darmstadt -y 2020
  ris-scraper scrape -d darmstadt -y 2020 --force --db postgres://localhost/ris`,
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

			f, release, err := d.newFetcher()
			if err != nil {
				return err
			}
			defer release()

			h := harvester.New(store, f, d.baseURL, d.loc, d.params(), d.log, d.harvesterOptions(ctx)...)
			summary, err := h.Run(ctx)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if summary.Unchanged {
				fmt.Fprintln(out, "Site has not been updated since the last scrape.")
				return nil
			}
			fmt.Fprintf(out, "Scraped %d sessions, %d agenda items, %d attachments (%d not accessible)\n",
				summary.Sessions, summary.AgendaItems, summary.Attachments, summary.Missing)
			for _, path := range summary.Exported {
				fmt.Fprintln(out, "  wrote", path)
			}
			return nil
		},
	}
	flags.register(cmd)
	return cmd
}
