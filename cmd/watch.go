package cmd

import (
	"fmt"

	"ris-scraper/harvester"
	"ris-scraper/logger"
	"ris-scraper/scheduler"

	"github.com/spf13/cobra"
)

func newWatchCommand() *cobra.Command {
	flags := &siteFlags{}
	var schedule string
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Scrape on a cron schedule until interrupted",
		Long: `Runs a harvest whenever the cron schedule fires. Each run first checks the
site's update marker, so runs without changes finish quickly.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := loadDeps(cmd, flags)
			if err != nil {
				return err
			}
			defer d.log.Sync()
			if cmd.Flags().Changed("schedule") {
				d.cfg.Schedule.Cron = schedule
			}

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
			s, err := scheduler.NewScheduler(d.cfg.Schedule.Cron, d.loc, h, d.log)
			if err != nil {
				return err
			}

			s.Start()
			fmt.Fprintf(cmd.OutOrStdout(), "Watching %s, next run at %s\n", d.baseURL, s.Next().Format("2006-01-02 15:04"))
			<-ctx.Done()
			s.Stop()

			d.log.Info("Watch ended", logger.Int("runs", s.Runs()))
			return nil
		},
	}
	flags.register(cmd)
	cmd.Flags().StringVar(&schedule, "schedule", "", "cron expression (default from config)")
	return cmd
}
