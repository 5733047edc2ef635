package leads

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

const airtableBaseURL = "https://api.airtable.com/v0"

// AirtableSink stores leads through the Airtable REST API. Contact leads go
// to Table (default "Leads"), audit leads to the "Audit Leads" table, with
// the column names the base was set up with.
type AirtableSink struct {
	APIKey     string
	BaseID     string
	Table      string
	BaseURL    string
	HTTPClient *http.Client
}

// NewAirtableSink creates a sink for the given base. Missing credentials
// yield a permanently not-configured sink.
func NewAirtableSink(apiKey, baseID, table string) *AirtableSink {
	if table == "" {
		table = "Leads"
	}
	return &AirtableSink{
		APIKey:     apiKey,
		BaseID:     baseID,
		Table:      table,
		BaseURL:    airtableBaseURL,
		HTTPClient: &http.Client{Timeout: 10 * time.Second},
	}
}

func (s *AirtableSink) Name() string { return "airtable" }

// Submit creates one record in the appropriate table.
func (s *AirtableSink) Submit(ctx context.Context, lead *Lead) Result {
	if s.APIKey == "" || s.BaseID == "" {
		return Result{Status: StatusNotConfigured}
	}

	table := s.Table
	var fields map[string]any
	if lead.Audit != nil {
		table = "Audit Leads"
		fields = map[string]any{
			"Name":               lead.FirstName,
			"Email":              lead.Email,
			"Website":            lead.Audit.Website,
			"Business Type":      lead.Audit.BusinessType,
			"Current Challenges": lead.Audit.CurrentChallenges,
			"Time Spent Daily":   lead.Audit.TimeSpentDaily,
			"Opt-in Marketing":   lead.Audit.OptinMarketing,
			"Timestamp":          time.Now().UTC().Format(time.RFC3339),
			"Source":             lead.Source,
		}
	} else {
		source := lead.Source
		if source == "" {
			source = "website"
		}
		fields = map[string]any{
			"First Name": lead.FirstName,
			"Email":      lead.Email,
			"Company":    lead.Company,
			"Source":     source,
			"Date":       time.Now().UTC().Format("2006-01-02"),
			"Status":     "New",
		}
	}

	payload, err := json.Marshal(map[string]any{
		"records": []map[string]any{{"fields": fields}},
	})
	if err != nil {
		return Result{Status: StatusFailed, Err: err}
	}

	endpoint := fmt.Sprintf("%s/%s/%s", s.BaseURL, s.BaseID, url.PathEscape(table))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return Result{Status: StatusFailed, Err: err}
	}
	req.Header.Set("Authorization", "Bearer "+s.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.HTTPClient.Do(req)
	if err != nil {
		return Result{Status: StatusFailed, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return Result{Status: StatusFailed, Err: fmt.Errorf("airtable status %d: %s", resp.StatusCode, body)}
	}
	return Result{Status: StatusStored}
}
