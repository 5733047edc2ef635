package audit

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/ayothedoc/funnel/internal/errors"
	"github.com/ayothedoc/funnel/internal/leads"
)

// LeadSource tags audit submissions in every sink.
const LeadSource = "Business Audit Form"

const (
	// MessageDeferred is returned when the report was generated but email
	// delivery is degraded; the caller still sees success.
	MessageDeferred = "Audit report generated successfully! You will receive it via email within 24 hours."
	// MessageSent is returned after a confirmed email delivery.
	MessageSent = "Audit report generated and sent successfully! Check your email in a few minutes."
)

// Request is a business-audit intake submission.
type Request struct {
	Name              string `json:"name"`
	Email             string `json:"email"`
	Website           string `json:"website"`
	BusinessType      string `json:"businessType"`
	CurrentChallenges string `json:"currentChallenges"`
	TimeSpentDaily    int    `json:"timeSpentDaily"`
	OptinMarketing    bool   `json:"optin_marketing"`
}

// Validate checks that all six required fields are present.
func (r *Request) Validate() error {
	if strings.TrimSpace(r.Name) == "" ||
		strings.TrimSpace(r.Email) == "" ||
		strings.TrimSpace(r.Website) == "" ||
		strings.TrimSpace(r.BusinessType) == "" ||
		strings.TrimSpace(r.CurrentChallenges) == "" ||
		r.TimeSpentDaily == 0 {
		return errors.NewInvalidRequest("all fields are required")
	}
	return nil
}

// Response is the outcome of a completed audit.
type Response struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// Service orchestrates the audit pipeline: scrape the prospect's site, call
// the model, persist the lead, render and email the report.
type Service struct {
	// Generator is nil when no AI key is configured; audits are then
	// rejected up front since the model is the feature's core value.
	Generator ReportGenerator
	// Mailer is nil when email delivery is not configured; the audit still
	// succeeds with deferred delivery.
	Mailer  Mailer
	Scraper *Scraper
	Sinks   *leads.Chain

	// SlackWebhookURL receives a best-effort note after a relational store.
	SlackWebhookURL string
	HTTPClient      *http.Client
}

// NewService creates the audit service. generator and mailer may be nil.
func NewService(generator ReportGenerator, mailer Mailer, sinks *leads.Chain, slackWebhookURL string) *Service {
	return &Service{
		Generator:       generator,
		Mailer:          mailer,
		Scraper:         NewScraper(),
		Sinks:           sinks,
		SlackWebhookURL: slackWebhookURL,
		HTTPClient:      &http.Client{Timeout: 10 * time.Second},
	}
}

// Run executes the pipeline for one request.
func (s *Service) Run(ctx context.Context, req *Request) (*Response, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	// The model is the feature: without it, reject before any side effects.
	if s.Generator == nil {
		log.Printf("audit requested but no AI model is configured")
		return nil, errors.NewServiceUnavailable("Service temporarily unavailable. Please try again later.")
	}

	siteText := s.Scraper.Fetch(ctx, req.Website)

	report, err := s.Generator.Generate(ctx, BuildPrompt(req, siteText))
	if err != nil {
		return nil, errors.NewUpstreamFailed("audit generation", err)
	}
	log.Printf("audit report generated for %s", req.Email)

	s.persistLead(ctx, req)

	reportHTML := StyledReportHTML(report)

	if s.Mailer == nil {
		// Degraded delivery: log the report so it can be sent by hand.
		log.Printf("email not configured; audit report for %s <%s>:\n%s", req.Name, req.Email, report)
		return &Response{Success: true, Message: MessageDeferred}, nil
	}

	subject := fmt.Sprintf("Your Personalized Business Automation Audit Report - %s", req.BusinessType)
	if err := s.Mailer.Send(ctx, req.Email, subject, EmailBody(req, reportHTML)); err != nil {
		if isAuthError(err) {
			log.Printf("email auth failure, falling back to deferred delivery: %v", err)
			return &Response{Success: true, Message: MessageDeferred}, nil
		}
		return nil, errors.NewUpstreamFailed("audit report email", err)
	}

	log.Printf("audit report emailed to %s", req.Email)
	return &Response{Success: true, Message: MessageSent}, nil
}

// persistLead runs the submission through the sink chain and fires the Slack
// note when the relational tier stored it. Persistence never fails the audit.
func (s *Service) persistLead(ctx context.Context, req *Request) {
	lead := &leads.Lead{
		FirstName: req.Name,
		Email:     req.Email,
		Source:    LeadSource,
		Audit: &leads.AuditFields{
			Website:           req.Website,
			BusinessType:      req.BusinessType,
			CurrentChallenges: req.CurrentChallenges,
			TimeSpentDaily:    req.TimeSpentDaily,
			OptinMarketing:    req.OptinMarketing,
		},
	}

	tier := s.Sinks.Submit(ctx, lead)
	if tier == "postgres" && s.SlackWebhookURL != "" {
		s.notifySlack(ctx, req)
	}
}

func (s *Service) notifySlack(ctx context.Context, req *Request) {
	text := fmt.Sprintf("New Audit Lead: %s <%s> - %s (%s)",
		req.Name, req.Email, req.Website, req.BusinessType)
	payload, err := json.Marshal(map[string]string{"text": text})
	if err != nil {
		return
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, s.SlackWebhookURL, bytes.NewReader(payload))
	if err != nil {
		log.Printf("slack notification failed: %v", err)
		return
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := s.HTTPClient.Do(httpReq)
	if err != nil {
		log.Printf("slack notification failed: %v", err)
		return
	}
	resp.Body.Close()
}
