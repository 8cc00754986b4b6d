package booking

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"calbot/app/config"

	"github.com/elliotchance/pie/v2"
	"github.com/samber/do"
)

const (
	scanAttempts = 3
	scanStride   = time.Hour

	timeDisplayFormat = "2006-01-02 03:04 PM"
)

var (
	confirmWords = []string{"yes", "ok", "sure"}
	declineWords = []string{"no", "reject"}
)

// Service negotiates booking slots against the remote calendar. It decides,
// per utterance, whether to book immediately, propose an alternative, or
// report failure, and tracks at most one outstanding proposal per session.
type Service struct {
	cfg       *config.Config
	extractor TimeExtractor
	provider  CalendarProvider

	now func() time.Time
}

func New(di *do.Injector) (*Service, error) {
	return &Service{
		cfg:       do.MustInvoke[*config.Config](di),
		extractor: do.MustInvoke[TimeExtractor](di),
		provider:  do.MustInvoke[CalendarProvider](di),
		now:       time.Now,
	}, nil
}

// Negotiate processes one utterance to completion. Provider errors are not
// retried; the caller surfaces them to the user as-is.
func (s *Service) Negotiate(ctx context.Context, session *Session, utterance string) (Reply, error) {
	session.mu.Lock()
	defer session.mu.Unlock()

	now := s.now()
	session.history.add(RoleUser, utterance, now)

	reply, err := s.negotiateLocked(ctx, session, utterance, now)
	if err != nil {
		return Reply{}, err
	}

	session.history.add(RoleAssistant, reply.Text, now)

	return reply, nil
}

func (s *Service) negotiateLocked(ctx context.Context, session *Session, utterance string, now time.Time) (Reply, error) {
	text := strings.ToLower(strings.TrimSpace(utterance))

	if session.pending != nil && pie.Contains(confirmWords, text) {
		return s.bookPending(ctx, session)
	}

	if pie.Contains(declineWords, text) {
		session.pending = nil

		return Reply{
			Outcome: OutcomeDeclined,
			Text:    "Okay, suggest a different time.",
		}, nil
	}

	summary := classifySummary(text)

	start, found, err := s.extractor.Extract(text, now)
	if err != nil {
		return Reply{}, fmt.Errorf("extractor.Extract: %w", err)
	}

	if !found {
		return Reply{
			Outcome: OutcomeUnparseable,
			Text:    "Couldn't parse date/time. Try `tomorrow 4 PM`.",
		}, nil
	}

	if start.Before(now) {
		return Reply{
			Outcome: OutcomePastTime,
			Text:    fmt.Sprintf("%s is already in the past. Try a future time.", start.Format(timeDisplayFormat)),
		}, nil
	}

	// Any fresh request supersedes an outstanding proposal.
	session.pending = nil

	req := Request{
		RawText:  utterance,
		Summary:  summary,
		Start:    start,
		Duration: SlotDuration,
	}

	return s.book(ctx, session, req)
}

func (s *Service) book(ctx context.Context, session *Session, req Request) (Reply, error) {
	free, err := s.isFree(ctx, req.Start, req.Start.Add(req.Duration))
	if err != nil {
		return Reply{}, fmt.Errorf("availability check: %w", err)
	}

	if free {
		link, err := s.provider.InsertEvent(ctx, req.Summary, req.Start, req.Start.Add(req.Duration))
		if err != nil {
			return Reply{}, fmt.Errorf("provider.InsertEvent: %w", err)
		}

		slog.Info("Booked event",
			"summary", req.Summary,
			"start", req.Start,
			"telegram", true)

		return Reply{
			Outcome: OutcomeBooked,
			Text:    fmt.Sprintf("Booked %s for %s", req.Summary, req.Start.Format(timeDisplayFormat)),
			Link:    link,
		}, nil
	}

	for i := 1; i <= scanAttempts; i++ {
		candidate := req.Start.Add(time.Duration(i) * scanStride)

		free, err = s.isFree(ctx, candidate, candidate.Add(req.Duration))
		if err != nil {
			return Reply{}, fmt.Errorf("availability check: %w", err)
		}

		if free {
			session.pending = &Pending{
				Start:   candidate,
				Summary: req.Summary,
			}

			return Reply{
				Outcome:       OutcomeProposed,
				Text:          fmt.Sprintf("Busy at requested time. How about %s? Reply `yes` to confirm.", candidate.Format(timeDisplayFormat)),
				ProposedStart: candidate,
			}, nil
		}
	}

	return Reply{
		Outcome: OutcomeNoSlotFound,
		Text:    "Busy at requested time. No nearby slots found.",
	}, nil
}

func (s *Service) bookPending(ctx context.Context, session *Session) (Reply, error) {
	pending := *session.pending

	link, err := s.provider.InsertEvent(ctx, pending.Summary, pending.Start, pending.Start.Add(SlotDuration))
	if err != nil {
		// Proposal stays live so the user can confirm again.
		return Reply{}, fmt.Errorf("provider.InsertEvent: %w", err)
	}

	session.pending = nil

	slog.Info("Booked proposed event",
		"summary", pending.Summary,
		"start", pending.Start,
		"telegram", true)

	return Reply{
		Outcome: OutcomeBooked,
		Text:    fmt.Sprintf("Booked %s for %s", pending.Summary, pending.Start.Format(timeDisplayFormat)),
		Link:    link,
	}, nil
}

func (s *Service) isFree(ctx context.Context, from, to time.Time) (bool, error) {
	events, err := s.provider.ListEvents(ctx, from, to)
	if err != nil {
		return false, fmt.Errorf("provider.ListEvents: %w", err)
	}

	busy := pie.Any(events, func(ev Event) bool {
		return ev.Start.Before(to) && from.Before(ev.End)
	})

	return !busy, nil
}

// Upcoming lists the next max events on the calendar.
func (s *Service) Upcoming(ctx context.Context, max int) ([]Event, error) {
	events, err := s.provider.UpcomingEvents(ctx, s.now(), max)
	if err != nil {
		return nil, fmt.Errorf("provider.UpcomingEvents: %w", err)
	}

	return events, nil
}

// classifySummary derives the event title by keyword. First match wins, so
// "flight" beats "call" beats "meeting" when several appear.
func classifySummary(text string) string {
	switch {
	case strings.Contains(text, "flight"):
		return "Flight"
	case strings.Contains(text, "call"):
		return "Call"
	case strings.Contains(text, "meeting"):
		return "Meeting"
	default:
		return "Scheduled Event"
	}
}
