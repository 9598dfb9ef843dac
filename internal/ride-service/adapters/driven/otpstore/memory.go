package otpstore

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"sync"
	"time"
)

type entry struct {
	code      string
	expiresAt time.Time
	attempts  int
}

// Memory is the single process issuer used with STORE_DRIVER=memory and in
// tests.
type Memory struct {
	mu          sync.Mutex
	codes       map[string]entry
	ttl         time.Duration
	maxAttempts int
	now         func() time.Time
}

func NewMemory(ttl time.Duration, maxAttempts int) *Memory {
	return &Memory{
		codes:       make(map[string]entry),
		ttl:         ttl,
		maxAttempts: maxAttempts,
		now:         time.Now,
	}
}

// WithClock replaces the time source.
func (m *Memory) WithClock(now func() time.Time) *Memory {
	m.now = now
	return m
}

func (m *Memory) Issue(ctx context.Context, key string) (string, error) {
	code, err := generateCode()
	if err != nil {
		return "", err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	m.codes[key] = entry{code: code, expiresAt: m.now().Add(m.ttl)}
	return code, nil
}

func (m *Memory) Verify(ctx context.Context, key, code string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.codes[key]
	if !ok {
		return false, nil
	}
	if m.now().After(e.expiresAt) {
		delete(m.codes, key)
		return false, nil
	}
	if e.attempts >= m.maxAttempts {
		return false, nil
	}
	if e.code != code {
		e.attempts++
		m.codes[key] = e
		return false, nil
	}
	return true, nil
}

func (m *Memory) Invalidate(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.codes, key)
	return nil
}

// generateCode returns a zero padded six digit code.
func generateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", fmt.Errorf("generate otp: %w", err)
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}
