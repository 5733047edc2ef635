package leads

import (
	"strings"

	"github.com/ayothedoc/funnel/internal/errors"
)

// Lead is a captured contact. Audit is set when the lead came through the
// business-audit form and carries the extra intake fields.
type Lead struct {
	FirstName string `json:"firstName"`
	Email     string `json:"email"`
	Company   string `json:"company,omitempty"`
	Source    string `json:"source"`
	Audit     *AuditFields
}

// AuditFields are the business-audit intake answers persisted alongside the
// contact.
type AuditFields struct {
	Website           string `json:"website"`
	BusinessType      string `json:"businessType"`
	CurrentChallenges string `json:"currentChallenges"`
	TimeSpentDaily    int    `json:"timeSpentDaily"`
	OptinMarketing    bool   `json:"optinMarketing"`
}

// Validate checks the required fields. Email is accepted as an opaque string;
// only presence is enforced.
func (l *Lead) Validate() error {
	if strings.TrimSpace(l.FirstName) == "" || strings.TrimSpace(l.Email) == "" {
		return errors.NewInvalidRequest("first name and email are required")
	}
	return nil
}
