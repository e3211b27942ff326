package server

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"negosim/app/config"
	"negosim/app/service/negotiation"
	"negosim/app/service/session"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	recoverer "github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/samber/do"
)

const shutdownTimeout = 10 * time.Second

// Negotiator is the slice of the negotiation service the API needs.
type Negotiator interface {
	StartSession(ctx context.Context, studentID string) (*session.Session, error)
	Chat(ctx context.Context, sessionID, userInput string) (*negotiation.TurnResult, error)
	Evaluate(ctx context.Context, sessionID string, finalTerms negotiation.EvaluationTerms) (string, error)
}

type Service struct {
	cfg        *config.Config
	negotiator Negotiator
	app        *fiber.App
}

func New(di *do.Injector) (*Service, error) {
	cfg := do.MustInvoke[*config.Config](di)
	negotiationSvc := do.MustInvoke[*negotiation.Service](di)

	return newService(cfg, negotiationSvc), nil
}

func newService(cfg *config.Config, negotiator Negotiator) *Service {
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError

			var fiberErr *fiber.Error
			if errors.As(err, &fiberErr) {
				code = fiberErr.Code
			}

			return c.Status(code).JSON(fiber.Map{"error": err.Error()})
		},
	})

	app.Use(recoverer.New())
	app.Use(cors.New())

	s := &Service{
		cfg:        cfg,
		negotiator: negotiator,
		app:        app,
	}

	app.Get("/", s.handleRoot)
	app.Post("/api/sessions/new", s.handleNewSession)
	app.Post("/api/chat", s.handleChat)
	app.Post("/api/evaluate", s.handleEvaluate)

	return s
}

func (s *Service) Run(ctx context.Context) error {
	go func() {
		<-ctx.Done()

		if err := s.app.ShutdownWithTimeout(shutdownTimeout); err != nil {
			slog.Error("Server shutdown failed", "error", err)
		}
	}()

	slog.Info("HTTP API listening", "addr", s.cfg.Server.Addr)

	return s.app.Listen(s.cfg.Server.Addr)
}

func (s *Service) handleRoot(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"message": "AI Negotiator API",
		"status":  "running",
	})
}

func (s *Service) handleNewSession(c *fiber.Ctx) error {
	var req newSessionRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	sess, err := s.negotiator.StartSession(c.UserContext(), req.StudentID)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"session_id":  sess.ID,
		"deal_params": sess.Params,
		"greeting":    sess.History[0].Content,
	})
}

func (s *Service) handleChat(c *fiber.Ctx) error {
	var req chatRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	result, err := s.negotiator.Chat(c.UserContext(), req.SessionID, req.UserInput)
	if errors.Is(err, session.ErrNotFound) {
		return fiber.NewError(fiber.StatusNotFound, "Session not found")
	}
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"ai_response":    result.Reply,
		"status":         "success",
		"deal_ready":     result.DealReady,
		"proposed_terms": result.Terms,
	})
}

func (s *Service) handleEvaluate(c *fiber.Ctx) error {
	var req evaluateRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	report, err := s.negotiator.Evaluate(c.UserContext(), req.SessionID, req.FinalTerms)
	if errors.Is(err, session.ErrNotFound) {
		return fiber.NewError(fiber.StatusNotFound, "Session not found")
	}
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"evaluation_report": report,
		"status":            "completed",
	})
}
