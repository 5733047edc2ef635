package leads

import (
	"context"
	"testing"
)

func TestFileSink_SubmitAndReadAll(t *testing.T) {
	sink := NewFileSink(t.TempDir())

	res := sink.Submit(context.Background(), &Lead{
		FirstName: "Ada",
		Email:     "ada@example.com",
		Company:   "Analytical Engines",
		Source:    "website",
	})
	if res.Status != StatusStored {
		t.Fatalf("Submit() status = %v, want StatusStored (err: %v)", res.Status, res.Err)
	}

	res = sink.Submit(context.Background(), &Lead{
		FirstName: "Grace",
		Email:     "grace@example.com",
		Source:    "Business Audit Form",
		Audit: &AuditFields{
			Website:        "https://example.com",
			BusinessType:   "Consulting",
			TimeSpentDaily: 3,
		},
	})
	if res.Status != StatusStored {
		t.Fatalf("Submit() status = %v, want StatusStored (err: %v)", res.Status, res.Err)
	}

	records, err := sink.ReadAll()
	if err != nil {
		t.Fatalf("ReadAll() error = %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("ReadAll() returned %d records, want 2", len(records))
	}

	if records[0].Email != "ada@example.com" {
		t.Errorf("records[0].Email = %q, want %q", records[0].Email, "ada@example.com")
	}
	if records[0].ID == "" || records[0].Timestamp == "" {
		t.Errorf("records[0] missing ID or Timestamp: %+v", records[0])
	}
	if records[0].Audit != nil {
		t.Errorf("records[0].Audit = %+v, want nil for a contact lead", records[0].Audit)
	}

	if records[1].Audit == nil {
		t.Fatal("records[1].Audit = nil, want audit fields")
	}
	if records[1].Audit.BusinessType != "Consulting" {
		t.Errorf("records[1].Audit.BusinessType = %q, want %q", records[1].Audit.BusinessType, "Consulting")
	}
}

func TestFileSink_ReadAllMissingFile(t *testing.T) {
	sink := NewFileSink(t.TempDir())

	records, err := sink.ReadAll()
	if err != nil {
		t.Fatalf("ReadAll() error = %v", err)
	}
	if len(records) != 0 {
		t.Errorf("ReadAll() returned %d records, want 0", len(records))
	}
}

func TestFileSink_AlwaysConfigured(t *testing.T) {
	sink := NewFileSink(t.TempDir())

	res := sink.Submit(context.Background(), &Lead{FirstName: "Ada", Email: "ada@example.com"})
	if res.Status == StatusNotConfigured {
		t.Error("file sink reported not configured; it is the last-resort tier")
	}
}
