package cmd

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"ris-scraper/config"
	"ris-scraper/db"
	"ris-scraper/export"
	"ris-scraper/fetcher"
	"ris-scraper/harvester"
	"ris-scraper/logger"
	"ris-scraper/notify"
	"ris-scraper/sheets"

	"github.com/spf13/cobra"
)

// siteFlags are shared by every command that talks to the site
type siteFlags struct {
	domain    string
	year      int
	committee string
	force     bool
	transport string
	dsn       string
	outDir    string
}

func (f *siteFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.domain, "domain", "d", "", "subdomain of more-rubin1.de to scrape (default from config)")
	cmd.Flags().IntVarP(&f.year, "year", "y", 0, "year to scrape (default from config)")
	cmd.Flags().StringVar(&f.committee, "committee", "", "restrict the search to one committee id")
	cmd.Flags().BoolVar(&f.force, "force", false, "scrape even if the site reports no update")
	cmd.Flags().StringVar(&f.transport, "transport", "", "page transport: colly or rod")
	cmd.Flags().StringVar(&f.dsn, "db", "", "database DSN (sqlite://file.db or postgres://...)")
	cmd.Flags().StringVarP(&f.outDir, "out", "o", "", "export directory")
}

// apply copies explicitly set flags over the configuration
func (f *siteFlags) apply(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("domain") {
		cfg.Site.Domain = f.domain
		cfg.Site.BaseURL = ""
	}
	if flags.Changed("year") {
		cfg.Scrape.Year = f.year
	}
	if flags.Changed("committee") {
		cfg.Scrape.Committee = f.committee
	}
	if flags.Changed("force") {
		cfg.Scrape.Force = f.force
	}
	if flags.Changed("transport") {
		cfg.Fetcher.Transport = f.transport
	}
	if flags.Changed("db") {
		cfg.Database.DSN = f.dsn
	}
	if flags.Changed("out") {
		cfg.Export.Dir = f.outDir
	}
}

// deps holds what every command builds from the configuration
type deps struct {
	cfg     *config.Config
	log     logger.Logger
	baseURL *url.URL
	loc     *time.Location
}

// loadDeps loads and validates the configuration and creates the logger
func loadDeps(cmd *cobra.Command, flags *siteFlags) (*deps, error) {
	path, required := cfgFile, true
	if path == "" {
		path, required = config.DefaultPath, false
	}
	cfg, err := config.LoadConfig(path, required)
	if err != nil {
		return nil, err
	}
	if flags != nil {
		flags.apply(cmd, cfg)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	log, err := logger.New(logger.Config{Level: cfg.Log.Level, Debug: debug})
	if err != nil {
		return nil, err
	}

	baseURL, err := url.Parse(cfg.BaseURL())
	if err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}

	return &deps{cfg: cfg, log: log, baseURL: baseURL, loc: loc}, nil
}

// newFetcher creates the configured transport; the returned func releases it
func (d *deps) newFetcher() (fetcher.Fetcher, func(), error) {
	switch d.cfg.Fetcher.Transport {
	case config.TransportRod:
		rf, err := fetcher.NewRodFetcher(d.cfg.Fetcher.UserAgent, d.log)
		if err != nil {
			return nil, nil, err
		}
		return rf, func() {
			if err := rf.Close(); err != nil {
				d.log.Warn("Failed to close browser", logger.Error(err))
			}
		}, nil
	default:
		return fetcher.NewCollyFetcher(d.cfg.Fetcher.UserAgent, d.cfg.Fetcher.Timeout, d.log), func() {}, nil
	}
}

func (d *deps) openDB(ctx context.Context) (*db.DB, error) {
	return db.NewDB(ctx, d.cfg.Database.DSN, d.log)
}

func (d *deps) newExporter() *export.Exporter {
	return export.New(d.cfg.Export.Dir, d.cfg.Export.Prefix, d.cfg.Export.XLSX, d.log)
}

// harvesterOptions wires the optional outputs that are configured
func (d *deps) harvesterOptions(ctx context.Context) []harvester.Option {
	opts := []harvester.Option{harvester.WithExporter(d.newExporter())}

	if d.cfg.Sheets.SpreadsheetURL != "" {
		id := sheets.ExtractSpreadsheetID(d.cfg.Sheets.SpreadsheetURL)
		if id == "" {
			d.log.Warn("Could not extract spreadsheet ID", logger.String("url", d.cfg.Sheets.SpreadsheetURL))
		} else if w, err := sheets.NewWriter(ctx, id, d.cfg.Sheets.CredentialsPath, d.log); err != nil {
			d.log.Warn("Failed to initialize Google Sheets writer", logger.Error(err))
		} else {
			opts = append(opts, harvester.WithSheets(w))
		}
	}

	if d.cfg.Telegram.Token != "" && d.cfg.Telegram.ChatID != 0 {
		if n, err := notify.NewTelegram(d.cfg.Telegram.Token, d.cfg.Telegram.ChatID, d.log); err != nil {
			d.log.Warn("Failed to initialize Telegram notifier", logger.Error(err))
		} else {
			opts = append(opts, harvester.WithNotifier(n))
		}
	}
	return opts
}

func (d *deps) params() harvester.Params {
	return harvester.Params{
		Domain:    d.cfg.Site.Domain,
		Year:      d.cfg.Scrape.Year,
		Committee: d.cfg.Scrape.Committee,
		Force:     d.cfg.Scrape.Force,
	}
}
