package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/Frankish0014/baho-coffee-sub000/internal/domain"
)

const (
	contactFile   = "contact_submissions.jsonl"
	quotationFile = "quotation_requests.jsonl"
)

// FileLeadStore appends leads as JSON lines. Used in development when no
// database is configured.
type FileLeadStore struct {
	dir string
	mu  sync.Mutex
}

func NewFileLeadStore(dir string) *FileLeadStore {
	return &FileLeadStore{dir: dir}
}

func (s *FileLeadStore) Backend() string {
	return "file"
}

func (s *FileLeadStore) Initialize(context.Context) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("lead data dir create error: %w", err)
	}
	return nil
}

func (s *FileLeadStore) SaveContact(_ context.Context, submission *domain.ContactSubmission) error {
	return s.append(contactFile, submission)
}

func (s *FileLeadStore) SaveQuotation(_ context.Context, request *domain.QuotationRequest) error {
	return s.append(quotationFile, request)
}

func (s *FileLeadStore) append(name string, record interface{}) error {
	line, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("lead serialization error: %w", err)
	}
	line = append(line, '\n')

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("lead data dir create error: %w", err)
	}

	f, err := os.OpenFile(filepath.Join(s.dir, name), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("lead file open error: %w", err)
	}
	defer f.Close()

	if _, err := f.Write(line); err != nil {
		return fmt.Errorf("lead file write error: %w", err)
	}

	return nil
}
