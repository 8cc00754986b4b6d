package booking

import (
	"context"
	"sync"
	"time"
)

// SlotDuration is the fixed length of every booked window.
const SlotDuration = 30 * time.Minute

// Event is a provider-neutral calendar entry.
type Event struct {
	Summary string
	Start   time.Time
	End     time.Time
}

// TimeExtractor resolves free text into a single absolute instant relative to
// now. The second return value is false when nothing in the text looks like a
// date or time.
type TimeExtractor interface {
	Extract(text string, now time.Time) (time.Time, bool, error)
}

// CalendarProvider is the remote calendar the negotiator books against.
type CalendarProvider interface {
	ListEvents(ctx context.Context, from, to time.Time) ([]Event, error)
	InsertEvent(ctx context.Context, summary string, start, end time.Time) (string, error)
	UpcomingEvents(ctx context.Context, now time.Time, max int) ([]Event, error)
}

// Request is a classified booking request, immutable once built.
type Request struct {
	RawText  string
	Summary  string
	Start    time.Time
	Duration time.Duration
}

// Pending is an alternative slot proposed to the user, awaiting yes/no.
type Pending struct {
	Start   time.Time
	Summary string
}

type Outcome string

const (
	OutcomeBooked      Outcome = "booked"
	OutcomeProposed    Outcome = "proposed"
	OutcomeDeclined    Outcome = "declined"
	OutcomeUnparseable Outcome = "unparseable"
	OutcomePastTime    Outcome = "past_time"
	OutcomeNoSlotFound Outcome = "no_slot_found"

	// OutcomeProviderError is set by the transport when a collaborator
	// call fails; the error text becomes the assistant message.
	OutcomeProviderError Outcome = "provider_error"
)

// Reply is what the transport renders back to the user for one turn.
type Reply struct {
	Outcome       Outcome
	Text          string
	Link          string
	ProposedStart time.Time
}

// Session holds everything private to one conversation. The mutex serializes
// turns: a session processes one utterance to completion at a time.
type Session struct {
	ID string

	mu      sync.Mutex
	pending *Pending
	history History
}

func (s *Session) Pending() *Pending {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.pending == nil {
		return nil
	}

	p := *s.pending
	return &p
}

func (s *Session) Transcript() []Message {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.history.Messages()
}
