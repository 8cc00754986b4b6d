package server

import (
	"context"
	"embed"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"calbot/app/config"
	"calbot/app/service/booking"
	"calbot/app/service/session"

	"github.com/elliotchance/pie/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/filesystem"
	"github.com/samber/do"
	"golang.org/x/sync/errgroup"
)

//go:embed static
var staticFiles embed.FS

const upcomingCount = 3

// Server exposes the chat API and the embedded chat page. One turn is
// processed per request; the session mutex serializes concurrent posts to
// the same conversation.
type Server struct {
	cfg        *config.Config
	bookingSvc *booking.Service
	sessionSvc *session.Service
	loc        *time.Location

	app *fiber.App
}

func New(di *do.Injector) (*Server, error) {
	cfg := do.MustInvoke[*config.Config](di)

	loc, err := time.LoadLocation(cfg.Calendar.Timezone)
	if err != nil {
		return nil, fmt.Errorf("failed to load timezone %q: %w", cfg.Calendar.Timezone, err)
	}

	s := &Server{
		cfg:        cfg,
		bookingSvc: do.MustInvoke[*booking.Service](di),
		sessionSvc: do.MustInvoke[*session.Service](di),
		loc:        loc,
	}

	s.app = fiber.New(fiber.Config{
		DisableStartupMessage: true,
	})

	s.app.Use("/", filesystem.New(filesystem.Config{
		Root:       http.FS(staticFiles),
		PathPrefix: "static",
		Browse:     false,
	}))

	s.app.Post("/api/chat", s.handleChat)
	s.app.Get("/api/upcoming", s.handleUpcoming)
	s.app.Get("/api/now", s.handleNow)
	s.app.Get("/healthz", s.handleHealth)

	return s, nil
}

// Run serves until ctx is cancelled, then shuts the listener down.
func (s *Server) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		slog.Info("HTTP server listening", "addr", s.cfg.Server.Addr)
		return s.app.Listen(s.cfg.Server.Addr)
	})

	g.Go(func() error {
		<-ctx.Done()
		return s.app.Shutdown()
	})

	return g.Wait()
}

type chatRequest struct {
	SessionID string `json:"session_id"`
	Text      string `json:"text"`
}

type chatReply struct {
	Outcome       string `json:"outcome"`
	Text          string `json:"text"`
	Link          string `json:"link,omitempty"`
	ProposedStart string `json:"proposed_start,omitempty"`
}

type chatResponse struct {
	SessionID  string        `json:"session_id"`
	Reply      chatReply     `json:"reply"`
	Transcript []messageJSON `json:"transcript"`
}

type messageJSON struct {
	Role      string `json:"role"`
	Text      string `json:"text"`
	Timestamp string `json:"timestamp"`
}

type eventJSON struct {
	Summary string `json:"summary"`
	Start   string `json:"start"`
	End     string `json:"end"`
}

func (s *Server) handleChat(c *fiber.Ctx) error {
	var req chatRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	if req.Text == "" {
		return fiber.NewError(fiber.StatusBadRequest, "text is required")
	}

	sess := s.sessionSvc.Acquire(req.SessionID)

	reply, err := s.bookingSvc.Negotiate(c.Context(), sess, req.Text)
	if err != nil {
		// Collaborator failures are terminal for the turn and rendered
		// as an assistant message, not an HTTP error.
		slog.Error("Negotiation failed", "session", sess.ID, "error", err)

		reply = booking.Reply{
			Outcome: booking.OutcomeProviderError,
			Text:    err.Error(),
		}
	}

	out := chatReply{
		Outcome: string(reply.Outcome),
		Text:    reply.Text,
		Link:    reply.Link,
	}
	if !reply.ProposedStart.IsZero() {
		out.ProposedStart = reply.ProposedStart.Format(time.RFC3339)
	}

	return c.JSON(chatResponse{
		SessionID:  sess.ID,
		Reply:      out,
		Transcript: pie.Map(sess.Transcript(), func(m booking.Message) messageJSON {
			return messageJSON{
				Role:      m.Role,
				Text:      m.Text,
				Timestamp: m.Timestamp.Format(time.RFC3339),
			}
		}),
	})
}

func (s *Server) handleUpcoming(c *fiber.Ctx) error {
	events, err := s.bookingSvc.Upcoming(c.Context(), upcomingCount)
	if err != nil {
		slog.Error("Upcoming events lookup failed", "error", err)
		return fiber.NewError(fiber.StatusBadGateway, err.Error())
	}

	return c.JSON(fiber.Map{
		"events": pie.Map(events, func(ev booking.Event) eventJSON {
			return eventJSON{
				Summary: ev.Summary,
				Start:   ev.Start.Format(time.RFC3339),
				End:     ev.End.Format(time.RFC3339),
			}
		}),
	})
}

func (s *Server) handleNow(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"now": time.Now().In(s.loc).Format("Monday, 02 January 2006 03:04 PM"),
	})
}

func (s *Server) handleHealth(c *fiber.Ctx) error {
	return c.SendStatus(fiber.StatusOK)
}
