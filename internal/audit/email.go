package audit

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/resend/resend-go/v2"

	"github.com/ayothedoc/funnel/internal/content"
)

const sendLimit = 30 * time.Second

// Mailer delivers the rendered audit report.
type Mailer interface {
	Send(ctx context.Context, to, subject, html string) error
}

// ResendMailer sends email through the Resend API.
type ResendMailer struct {
	client *resend.Client
	from   string
}

// NewResendMailer creates a mailer for the given API key and sender address.
func NewResendMailer(apiKey, from string) *ResendMailer {
	return &ResendMailer{client: resend.NewClient(apiKey), from: from}
}

// Send delivers one email.
func (m *ResendMailer) Send(ctx context.Context, to, subject, html string) error {
	ctx, cancel := context.WithTimeout(ctx, sendLimit)
	defer cancel()

	_, err := m.client.Emails.SendWithContext(ctx, &resend.SendEmailRequest{
		From:    m.from,
		To:      []string{to},
		Subject: subject,
		Html:    html,
	})
	return err
}

// isAuthError reports whether a send failure looks like a credential problem,
// which degrades to the deferred-delivery success message instead of failing
// the request.
func isAuthError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "api key") ||
		strings.Contains(msg, "401") ||
		strings.Contains(msg, "unauthorized")
}

// styleReplacer inlines presentational styles onto known tags for email-client
// compatibility; most clients drop <style> blocks.
var styleReplacer = strings.NewReplacer(
	"<h1>", `<h1 style="color: #1f2937; margin: 30px 0 15px 0; font-size: 28px; font-weight: 700; line-height: 1.2;">`,
	"<h2>", `<h2 style="color: #374151; margin: 25px 0 12px 0; font-size: 22px; font-weight: 600; line-height: 1.3;">`,
	"<h3>", `<h3 style="color: #4b5563; margin: 20px 0 10px 0; font-size: 18px; font-weight: 600; line-height: 1.4;">`,
	"<p>", `<p style="color: #374151; margin: 12px 0; line-height: 1.7; font-size: 16px;">`,
	"<ul>", `<ul style="color: #374151; margin: 15px 0; padding-left: 25px;">`,
	"<ol>", `<ol style="color: #374151; margin: 15px 0; padding-left: 25px;">`,
	"<li>", `<li style="margin: 8px 0; line-height: 1.6; font-size: 16px;">`,
	"<strong>", `<strong style="color: #1f2937; font-weight: 600;">`,
	"<em>", `<em style="color: #4b5563;">`,
	"<blockquote>", `<blockquote style="border-left: 4px solid #4f46e5; padding: 15px 20px; margin: 20px 0; background: #f3f4f6; color: #374151; font-style: italic;">`,
	"<code>", `<code style="background: #f1f5f9; padding: 2px 6px; border-radius: 4px; font-family: Monaco, Consolas, monospace; font-size: 14px; color: #1e40af;">`,
	"<pre>", `<pre style="background: #f8fafc; padding: 15px; border-radius: 8px; border: 1px solid #e2e8f0; overflow-x: auto; margin: 15px 0;">`,
)

// StyledReportHTML converts the Markdown report to HTML with inline styles.
// On a render failure the raw Markdown is returned so the email still carries
// the report.
func StyledReportHTML(markdown string) string {
	html, err := content.RenderMarkdown([]byte(markdown))
	if err != nil {
		return markdown
	}
	return styleReplacer.Replace(html)
}

// EmailBody wraps the styled report in the branded email shell.
func EmailBody(req *Request, reportHTML string) string {
	return fmt.Sprintf(`
<div style="font-family: 'Segoe UI', Tahoma, Geneva, Verdana, sans-serif; max-width: 800px; margin: 0 auto; padding: 20px; background-color: #f5f5f5;">
  <div style="background: linear-gradient(135deg, #4f46e5 0%%, #06b6d4 100%%); color: white; padding: 40px 30px; border-radius: 15px; margin-bottom: 30px; text-align: center; box-shadow: 0 8px 32px rgba(79, 70, 229, 0.3);">
    <h1 style="margin: 0; font-size: 32px; font-weight: 700; letter-spacing: -0.5px;">Your Business Automation Audit Report</h1>
    <p style="margin: 15px 0 0 0; font-size: 18px; opacity: 0.9;">Personalized recommendations for %s</p>
  </div>

  <div style="background: white; padding: 30px; border-radius: 15px; margin-bottom: 25px; box-shadow: 0 2px 10px rgba(0,0,0,0.1);">
    <h2 style="color: #1f2937; margin-top: 0; font-size: 24px; margin-bottom: 15px;">Hi %s!</h2>
    <p style="color: #4b5563; line-height: 1.7; font-size: 16px; margin: 0;">
      Thank you for requesting your personalized business automation audit! Our AI has analyzed your website (<strong>%s</strong>) and business information to create a comprehensive automation roadmap specifically for your <strong>%s</strong> business.
    </p>
  </div>

  <div style="background: white; padding: 35px; border-radius: 15px; border-left: 6px solid #4f46e5; margin-bottom: 25px; box-shadow: 0 2px 10px rgba(0,0,0,0.1);">
    <div style="color: #1f2937; line-height: 1.7;">
      %s
    </div>
  </div>

  <div style="background: linear-gradient(135deg, #eff6ff 0%%, #dbeafe 100%%); padding: 30px; border-radius: 15px; margin-bottom: 25px; text-align: center; border: 1px solid #bfdbfe;">
    <h3 style="color: #1e40af; margin-top: 0; font-size: 22px; margin-bottom: 15px;">Ready to Transform Your Business?</h3>
    <p style="color: #374151; line-height: 1.7; margin-bottom: 20px; font-size: 16px;">
      Questions about implementing these automations? Let's discuss how we can help you save those <strong>%d hours per day</strong>.
    </p>
    <a href="https://calendly.com/ayothedoc" style="display: inline-block; background: linear-gradient(135deg, #4f46e5 0%%, #06b6d4 100%%); color: white; padding: 15px 30px; text-decoration: none; border-radius: 10px; font-weight: 600; font-size: 16px; box-shadow: 0 4px 15px rgba(79, 70, 229, 0.3);">
      Book Your FREE Strategy Call
    </a>
  </div>

  <div style="background: white; padding: 25px; border-radius: 15px; border-top: 4px solid #e5e7eb;">
    <p style="color: #6b7280; margin: 0 0 15px 0; font-size: 16px; line-height: 1.6;">
      <strong style="color: #1f2937;">Best regards,</strong><br>
      <span style="color: #4f46e5; font-weight: 600;">The Ayothedoc Team</span>
    </p>
  </div>
</div>`,
		req.BusinessType, req.Name, req.Website, req.BusinessType, reportHTML, req.TimeSpentDaily)
}
