package leads

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresSink stores leads in a relational table. The pool is created at
// most once per process and reused; the schema is created on first use.
type PostgresSink struct {
	ConnString string

	mu      sync.Mutex
	pool    *pgxpool.Pool
	poolErr error
	once    sync.Once
}

// NewPostgresSink creates a sink for the given connection string. An empty
// string yields a permanently not-configured sink.
func NewPostgresSink(connString string) *PostgresSink {
	return &PostgresSink{ConnString: connString}
}

func (s *PostgresSink) Name() string { return "postgres" }

// Submit writes the lead to the leads or audit_leads table.
func (s *PostgresSink) Submit(ctx context.Context, lead *Lead) Result {
	if s.ConnString == "" {
		return Result{Status: StatusNotConfigured}
	}

	pool, err := s.getPool(ctx)
	if err != nil {
		return Result{Status: StatusFailed, Err: err}
	}

	if lead.Audit != nil {
		_, err = pool.Exec(ctx,
			`INSERT INTO audit_leads
			   (name, email, website, business_type, current_challenges, time_spent_daily, optin_marketing, source)
			 VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
			lead.FirstName, lead.Email, lead.Audit.Website, lead.Audit.BusinessType,
			lead.Audit.CurrentChallenges, lead.Audit.TimeSpentDaily, lead.Audit.OptinMarketing, lead.Source)
	} else {
		_, err = pool.Exec(ctx,
			`INSERT INTO leads (first_name, email, company, source) VALUES ($1,$2,$3,$4)`,
			lead.FirstName, lead.Email, lead.Company, lead.Source)
	}
	if err != nil {
		return Result{Status: StatusFailed, Err: err}
	}
	return Result{Status: StatusStored}
}

// getPool lazily creates the process-wide pool and ensures the schema exists.
func (s *PostgresSink) getPool(ctx context.Context) (*pgxpool.Pool, error) {
	s.once.Do(func() {
		pool, err := pgxpool.New(ctx, s.ConnString)
		if err != nil {
			s.poolErr = fmt.Errorf("connect to postgres: %w", err)
			return
		}

		initCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()
		if err := initSchema(initCtx, pool); err != nil {
			pool.Close()
			s.poolErr = err
			return
		}

		s.mu.Lock()
		s.pool = pool
		s.mu.Unlock()
	})

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.poolErr != nil {
		return nil, s.poolErr
	}
	return s.pool, nil
}

func initSchema(ctx context.Context, pool *pgxpool.Pool) error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS leads (
			id BIGSERIAL PRIMARY KEY,
			first_name TEXT NOT NULL,
			email TEXT NOT NULL,
			company TEXT,
			source TEXT,
			inserted_at TIMESTAMP WITH TIME ZONE DEFAULT now()
		)`,
		`CREATE TABLE IF NOT EXISTS audit_leads (
			id BIGSERIAL PRIMARY KEY,
			name TEXT NOT NULL,
			email TEXT NOT NULL,
			website TEXT NOT NULL,
			business_type TEXT NOT NULL,
			current_challenges TEXT,
			time_spent_daily INT,
			optin_marketing BOOLEAN DEFAULT FALSE,
			source TEXT,
			inserted_at TIMESTAMP WITH TIME ZONE DEFAULT now()
		)`,
	}

	for _, q := range queries {
		if _, err := pool.Exec(ctx, q); err != nil {
			return fmt.Errorf("init lead schema: %w", err)
		}
	}
	return nil
}
