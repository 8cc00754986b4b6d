package gcal

import (
	"context"
	"fmt"
	"os"
	"time"

	"calbot/app/config"
	"calbot/app/service/booking"

	"github.com/samber/do"
	"github.com/samber/oops"
	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"
)

var _ booking.CalendarProvider = (*Client)(nil)

// Client books against a single Google calendar, authenticated with a
// service account key.
type Client struct {
	cfg *config.Config
	svc *calendar.Service
	loc *time.Location
}

func NewClient(di *do.Injector) (*Client, error) {
	ctx := do.MustInvoke[context.Context](di)
	cfg := do.MustInvoke[*config.Config](di)

	keyBytes, err := os.ReadFile(cfg.Calendar.CredentialsFile)
	if err != nil {
		return nil, oops.Errorf("could not read service account key: %w", err)
	}

	svc, err := calendar.NewService(ctx,
		option.WithCredentialsJSON(keyBytes),
		option.WithScopes(calendar.CalendarScope),
	)
	if err != nil {
		return nil, oops.Errorf("failed to create calendar service: %w", err)
	}

	loc, err := time.LoadLocation(cfg.Calendar.Timezone)
	if err != nil {
		return nil, oops.Errorf("failed to load timezone %q: %w", cfg.Calendar.Timezone, err)
	}

	return &Client{
		cfg: cfg,
		svc: svc,
		loc: loc,
	}, nil
}

// ListEvents returns the events overlapping [from, to), expanded to single
// instances and ordered by start time.
func (c *Client) ListEvents(ctx context.Context, from, to time.Time) ([]booking.Event, error) {
	result, err := c.svc.Events.List(c.cfg.Calendar.CalendarID).
		TimeMin(from.Format(time.RFC3339)).
		TimeMax(to.Format(time.RFC3339)).
		SingleEvents(true).
		OrderBy("startTime").
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("events list failed: %w", err)
	}

	return c.convertItems(result.Items)
}

// InsertEvent creates the event and returns its browser link.
func (c *Client) InsertEvent(ctx context.Context, summary string, start, end time.Time) (string, error) {
	event := &calendar.Event{
		Summary: summary,
		Start: &calendar.EventDateTime{
			DateTime: start.Format(time.RFC3339),
			TimeZone: c.cfg.Calendar.Timezone,
		},
		End: &calendar.EventDateTime{
			DateTime: end.Format(time.RFC3339),
			TimeZone: c.cfg.Calendar.Timezone,
		},
	}

	created, err := c.svc.Events.Insert(c.cfg.Calendar.CalendarID, event).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("event insert failed: %w", err)
	}

	return created.HtmlLink, nil
}

// UpcomingEvents returns up to max events starting at or after now.
func (c *Client) UpcomingEvents(ctx context.Context, now time.Time, max int) ([]booking.Event, error) {
	result, err := c.svc.Events.List(c.cfg.Calendar.CalendarID).
		TimeMin(now.Format(time.RFC3339)).
		MaxResults(int64(max)).
		SingleEvents(true).
		OrderBy("startTime").
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("events list failed: %w", err)
	}

	return c.convertItems(result.Items)
}

func (c *Client) convertItems(items []*calendar.Event) ([]booking.Event, error) {
	events := make([]booking.Event, 0, len(items))

	for _, item := range items {
		start, err := c.parseEventTime(item.Start)
		if err != nil {
			return nil, fmt.Errorf("event %q start: %w", item.Summary, err)
		}

		end, err := c.parseEventTime(item.End)
		if err != nil {
			return nil, fmt.Errorf("event %q end: %w", item.Summary, err)
		}

		events = append(events, booking.Event{
			Summary: item.Summary,
			Start:   start,
			End:     end,
		})
	}

	return events, nil
}

// parseEventTime handles both timed events (DateTime) and all-day events
// (Date, midnight in the calendar's timezone).
func (c *Client) parseEventTime(edt *calendar.EventDateTime) (time.Time, error) {
	if edt == nil {
		return time.Time{}, fmt.Errorf("missing event time")
	}

	if edt.DateTime != "" {
		t, err := time.Parse(time.RFC3339, edt.DateTime)
		if err != nil {
			return time.Time{}, fmt.Errorf("bad datetime %q: %w", edt.DateTime, err)
		}

		return t.In(c.loc), nil
	}

	t, err := time.ParseInLocation("2006-01-02", edt.Date, c.loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("bad date %q: %w", edt.Date, err)
	}

	return t, nil
}
