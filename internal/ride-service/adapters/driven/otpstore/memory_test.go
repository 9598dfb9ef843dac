package otpstore

import (
	"context"
	"testing"
	"time"
)

func TestMemoryIssueVerifyInvalidate(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(time.Minute, 3)

	code, err := m.Issue(ctx, "+919800000001")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if len(code) != 6 {
		t.Fatalf("expected 6 digit code, got %q", code)
	}

	ok, err := m.Verify(ctx, "+919800000001", code)
	if err != nil || !ok {
		t.Fatalf("expected valid code, got ok=%v err=%v", ok, err)
	}

	if err := m.Invalidate(ctx, "+919800000001"); err != nil {
		t.Fatalf("invalidate: %v", err)
	}
	ok, _ = m.Verify(ctx, "+919800000001", code)
	if ok {
		t.Fatal("code must not verify after invalidate")
	}
}

func TestMemoryExpiry(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC)
	m := NewMemory(time.Minute, 3).WithClock(func() time.Time { return now })

	code, _ := m.Issue(ctx, "k")
	now = now.Add(61 * time.Second)

	ok, err := m.Verify(ctx, "k", code)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if ok {
		t.Fatal("expired code must not verify")
	}
}

func TestMemoryAttemptsExhausted(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(time.Minute, 2)

	code, _ := m.Issue(ctx, "k")
	wrong := "000000"
	if code == wrong {
		wrong = "111111"
	}
	for i := 0; i < 2; i++ {
		if ok, _ := m.Verify(ctx, "k", wrong); ok {
			t.Fatal("wrong code verified")
		}
	}
	if ok, _ := m.Verify(ctx, "k", code); ok {
		t.Fatal("code must be locked after too many attempts")
	}
}

func TestMemoryUnknownKey(t *testing.T) {
	ok, err := NewMemory(time.Minute, 3).Verify(context.Background(), "missing", "123456")
	if err != nil || ok {
		t.Fatalf("expected false,nil got %v,%v", ok, err)
	}
}
