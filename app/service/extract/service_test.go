package extract

import (
	"testing"
	"time"

	"github.com/olebedev/when"
	"github.com/olebedev/when/rules/common"
	"github.com/olebedev/when/rules/en"
)

func newTestService(t *testing.T) *Service {
	t.Helper()

	loc, err := time.LoadLocation("Asia/Kolkata")
	if err != nil {
		t.Fatalf("load location: %v", err)
	}

	parser := when.New(nil)
	parser.Add(en.All...)
	parser.Add(common.All...)

	return &Service{parser: parser, loc: loc}
}

func TestExtractTomorrowAfternoon(t *testing.T) {
	svc := newTestService(t)
	now := time.Date(2025, 6, 10, 9, 0, 0, 0, svc.loc)

	got, found, err := svc.Extract("book a meeting tomorrow at 4 pm", now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !found {
		t.Fatalf("expected a match")
	}
	if got.Location() != svc.loc {
		t.Fatalf("expected result localized to %v, got %v", svc.loc, got.Location())
	}
	if got.Day() != 11 || got.Hour() != 16 {
		t.Fatalf("expected June 11 16:00, got %v", got)
	}
}

func TestExtractNoMatch(t *testing.T) {
	svc := newTestService(t)
	now := time.Date(2025, 6, 10, 9, 0, 0, 0, svc.loc)

	_, found, err := svc.Extract("what's up", now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if found {
		t.Fatalf("expected no match for small talk")
	}
}
