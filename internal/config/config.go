package config

import (
	"log"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds application configuration. All values come from environment
// variables (optionally seeded from a .env file); every third-party credential
// is optional and the owning integration degrades when it is absent.
type Config struct {
	Port int
	Bind string

	// ContentDir overrides the probed posts directory when set.
	ContentDir string
	// DataDir holds playbook JSON, the local lead sink, and the attribution DB.
	DataDir string
	// PublicDir is the built SPA bundle served behind the API routes.
	PublicDir string

	// SiteURL is the canonical origin used in robots.txt and sitemap.xml.
	SiteURL string

	// Relational lead sink (tier 1).
	DatabaseURL string

	// Airtable CRM sink (tier 2).
	AirtableAPIKey    string
	AirtableBaseID    string
	AirtableTableName string

	// Gemini audit-report generation.
	GeminiAPIKey string

	// Resend email delivery.
	ResendAPIKey string
	EmailFrom    string

	// Google Analytics (runtime config for the client, plus optional
	// Measurement Protocol forwarding for server-side events).
	GAMeasurementID string
	GAAPISecret     string

	// Stripe-hosted checkout links keyed by product.
	StripeLinks map[string]string

	SlackWebhookURL string
}

// Capabilities records which optional integrations are configured. Computed
// once at startup so feature checks don't re-read the environment.
type Capabilities struct {
	HasPostgres  bool
	HasCRM       bool
	HasEmail     bool
	HasAI        bool
	HasAnalytics bool
}

// Load reads configuration from the environment. A .env file in the working
// directory is loaded first when present.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Printf("no .env file found, using environment only")
	}

	v := viper.New()
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("PORT", 3000)
	v.SetDefault("BIND", "127.0.0.1")
	v.SetDefault("DATA_DIR", "data")
	v.SetDefault("PUBLIC_DIR", "dist/public")
	v.SetDefault("SITE_URL", "https://www.ayothedoc.com")
	v.SetDefault("AIRTABLE_TABLE_NAME", "Leads")
	v.SetDefault("EMAIL_FROM", "Ayothedoc Business Audit <onboarding@resend.dev>")

	cfg := &Config{
		Port:              v.GetInt("PORT"),
		Bind:              v.GetString("BIND"),
		ContentDir:        v.GetString("CONTENT_DIR"),
		DataDir:           v.GetString("DATA_DIR"),
		PublicDir:         v.GetString("PUBLIC_DIR"),
		SiteURL:           strings.TrimRight(v.GetString("SITE_URL"), "/"),
		DatabaseURL:       firstNonEmpty(v.GetString("POSTGRES_URL"), v.GetString("DATABASE_URL")),
		AirtableAPIKey:    v.GetString("AIRTABLE_API_KEY"),
		AirtableBaseID:    v.GetString("AIRTABLE_BASE_ID"),
		AirtableTableName: v.GetString("AIRTABLE_TABLE_NAME"),
		GeminiAPIKey:      v.GetString("GEMINI_API_KEY"),
		ResendAPIKey:      v.GetString("RESEND_API_KEY"),
		EmailFrom:         v.GetString("EMAIL_FROM"),
		GAMeasurementID:   strings.TrimSpace(v.GetString("GA_MEASUREMENT_ID")),
		GAAPISecret:       v.GetString("GA_API_SECRET"),
		SlackWebhookURL:   v.GetString("AUDIT_SLACK_WEBHOOK_URL"),
		StripeLinks: map[string]string{
			"roadmap": strings.TrimSpace(v.GetString("STRIPE_LINK_ROADMAP")),
			"sprint":  strings.TrimSpace(v.GetString("STRIPE_LINK_SPRINT")),
			"care":    strings.TrimSpace(v.GetString("STRIPE_LINK_CARE")),
		},
	}

	return cfg
}

// Capabilities computes the integration flags for this config.
func (c *Config) Capabilities() Capabilities {
	return Capabilities{
		HasPostgres:  c.DatabaseURL != "",
		HasCRM:       c.AirtableAPIKey != "" && c.AirtableBaseID != "",
		HasEmail:     c.ResendAPIKey != "" && !strings.Contains(c.ResendAPIKey, "placeholder"),
		HasAI:        c.GeminiAPIKey != "",
		HasAnalytics: c.GAMeasurementID != "",
	}
}

func firstNonEmpty(values ...string) string {
	for _, s := range values {
		if s != "" {
			return s
		}
	}
	return ""
}
