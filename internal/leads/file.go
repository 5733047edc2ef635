package leads

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// FileSink appends leads to a local JSON file. It is the last-resort tier,
// intended for development; it is always configured.
type FileSink struct {
	Path string
	mu   sync.Mutex
}

// FileRecord is one entry in the local leads file.
type FileRecord struct {
	ID        string       `json:"id"`
	Timestamp string       `json:"timestamp"`
	FirstName string       `json:"firstName"`
	Email     string       `json:"email"`
	Company   string       `json:"company,omitempty"`
	Source    string       `json:"source"`
	Audit     *AuditFields `json:"audit,omitempty"`
}

// NewFileSink creates a sink writing to dataDir/leads.json.
func NewFileSink(dataDir string) *FileSink {
	return &FileSink{Path: filepath.Join(dataDir, "leads.json")}
}

func (s *FileSink) Name() string { return "file" }

// Submit appends the lead to the JSON array, creating file and directory as
// needed.
func (s *FileSink) Submit(ctx context.Context, lead *Lead) Result {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.readAll()
	if err != nil {
		return Result{Status: StatusFailed, Err: err}
	}

	records = append(records, FileRecord{
		ID:        ulid.MustNew(ulid.Timestamp(time.Now()), rand.Reader).String(),
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		FirstName: lead.FirstName,
		Email:     lead.Email,
		Company:   lead.Company,
		Source:    lead.Source,
		Audit:     lead.Audit,
	})

	if err := os.MkdirAll(filepath.Dir(s.Path), 0755); err != nil {
		return Result{Status: StatusFailed, Err: err}
	}

	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return Result{Status: StatusFailed, Err: err}
	}
	if err := os.WriteFile(s.Path, data, 0644); err != nil {
		return Result{Status: StatusFailed, Err: err}
	}
	return Result{Status: StatusStored}
}

// ReadAll returns every record in the local file (CLI inspection).
func (s *FileSink) ReadAll() ([]FileRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.readAll()
}

func (s *FileSink) readAll() ([]FileRecord, error) {
	data, err := os.ReadFile(s.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return []FileRecord{}, nil
		}
		return nil, err
	}

	var records []FileRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, err
	}
	return records, nil
}
