package main

import (
	"context"
	"encoding/json"
	"log"
	"os"
	"path/filepath"

	"github.com/urfave/cli/v2"

	"github.com/ayothedoc/funnel/internal/analytics"
	"github.com/ayothedoc/funnel/internal/attribution"
	"github.com/ayothedoc/funnel/internal/audit"
	"github.com/ayothedoc/funnel/internal/checkout"
	"github.com/ayothedoc/funnel/internal/config"
	"github.com/ayothedoc/funnel/internal/content"
	"github.com/ayothedoc/funnel/internal/leads"
	"github.com/ayothedoc/funnel/internal/web"
)

// newCLIApp creates the CLI application with all commands.
func newCLIApp() *cli.App {
	return &cli.App{
		Name:           "funnel",
		Usage:          "Marketing site API and lead-generation funnel server",
		Version:        Version,
		DefaultCommand: "serve",
		Commands: []*cli.Command{
			serveCmd(),
			leadsCmd(),
		},
	}
}

// serveCmd creates the serve command.
func serveCmd() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Start the HTTP server",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "port", Aliases: []string{"p"}, Usage: "Port to listen on (overrides PORT)"},
			&cli.StringFlag{Name: "bind", Aliases: []string{"b"}, Usage: "Address to bind to (overrides BIND)"},
			&cli.StringFlag{Name: "public", Usage: "Directory of the built client bundle (overrides PUBLIC_DIR)"},
		},
		Action: func(c *cli.Context) error {
			cfg := config.Load()
			if c.IsSet("port") {
				cfg.Port = c.Int("port")
			}
			if c.IsSet("bind") {
				cfg.Bind = c.String("bind")
			}
			if c.IsSet("public") {
				cfg.PublicDir = c.String("public")
			}

			caps := cfg.Capabilities()
			log.Printf("capabilities: postgres=%t crm=%t email=%t ai=%t analytics=%t",
				caps.HasPostgres, caps.HasCRM, caps.HasEmail, caps.HasAI, caps.HasAnalytics)

			store, err := attribution.OpenDBStore(filepath.Join(cfg.DataDir, "attribution.db"))
			if err != nil {
				return err
			}
			defer store.Close()

			sinks := leads.NewChain(
				leads.NewPostgresSink(cfg.DatabaseURL),
				leads.NewAirtableSink(cfg.AirtableAPIKey, cfg.AirtableBaseID, cfg.AirtableTableName),
				leads.NewFileSink(cfg.DataDir),
			)

			var generator audit.ReportGenerator
			if caps.HasAI {
				g, err := audit.NewGeminiGenerator(context.Background(), cfg.GeminiAPIKey)
				if err != nil {
					return err
				}
				generator = g
			} else {
				log.Printf("GEMINI_API_KEY not set - business audits disabled")
			}

			var mailer audit.Mailer
			if caps.HasEmail {
				mailer = audit.NewResendMailer(cfg.ResendAPIKey, cfg.EmailFrom)
			} else {
				log.Printf("RESEND_API_KEY not set - email sending disabled")
			}

			// A custom data dir skips the playbooks' default probing.
			playbookDir := ""
			if cfg.DataDir != "data" {
				playbookDir = filepath.Join(cfg.DataDir, "programmatic-seo")
			}

			deps := web.Deps{
				Config:    cfg,
				Posts:     content.NewFilePostRepository(cfg.ContentDir),
				Playbooks: content.NewFilePlaybookRepository(playbookDir),
				Sinks:     sinks,
				Audits:    audit.NewService(generator, mailer, sinks, cfg.SlackWebhookURL),
				Tracker:   attribution.NewTracker(store),
				Resolver:  checkout.NewResolver(cfg.StripeLinks),
				Emitter:   analytics.NewEmitter(cfg.GAMeasurementID, cfg.GAAPISecret),
			}

			return web.Run(web.NewServer(deps, cfg.Bind, cfg.Port))
		},
	}
}

// leadsCmd creates the leads command, which inspects the local JSON sink.
func leadsCmd() *cli.Command {
	return &cli.Command{
		Name:  "leads",
		Usage: "Print leads captured in the local JSON sink",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "limit", Aliases: []string{"n"}, Value: 20, Usage: "Maximum number of records to print (newest last)"},
		},
		Action: func(c *cli.Context) error {
			cfg := config.Load()
			sink := leads.NewFileSink(cfg.DataDir)

			records, err := sink.ReadAll()
			if err != nil {
				return err
			}

			limit := c.Int("limit")
			if limit > 0 && len(records) > limit {
				records = records[len(records)-limit:]
			}

			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(records)
		},
	}
}
