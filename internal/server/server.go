// Package server exposes the HTTP surface: the scheduler trigger, liveness,
// stats, and the Slack events callback.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/slack-go/slack"
	"github.com/slack-go/slack/slackevents"

	"NewsCollector/internal/config"
	"NewsCollector/internal/domain"
	"NewsCollector/internal/ports"
)

const (
	shutdownTimeout = 10 * time.Second
	statsLatestN    = 5
)

// Runner triggers one collection batch; satisfied by the collector.
type Runner interface {
	Run(ctx context.Context) (domain.RunReport, error)
}

// MentionHandler dispatches Slack app_mention commands.
type MentionHandler interface {
	HandleMention(ctx context.Context, channel, text string) error
}

// Server wraps the gin engine with the collector and repository.
type Server struct {
	addr          string
	engine        *gin.Engine
	runner        Runner
	repo          ports.ArticleRepository
	mentions      MentionHandler
	signingSecret string
	logger        *slog.Logger
}

// New wires routes; mentions may be nil when the Slack events surface is off.
func New(cfg config.Config, runner Runner, repo ports.ArticleRepository, mentions MentionHandler, logger *slog.Logger) *Server {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())

	s := &Server{
		addr:          cfg.Server.Addr,
		engine:        engine,
		runner:        runner,
		repo:          repo,
		mentions:      mentions,
		signingSecret: cfg.Slack.SigningSecret,
		logger:        logger,
	}

	engine.GET("/run", s.handleRun)
	engine.GET("/health", s.handleHealth)
	engine.GET("/stats", s.handleStats)
	if s.mentions != nil {
		engine.POST("/slack/events", s.handleSlackEvents)
	}

	return s
}

// Handler exposes the router for tests.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves until the context is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

type sourceResultJSON struct {
	CompanyID   string `json:"company_id"`
	CompanyName string `json:"company_name"`
	Source      string `json:"source"`
	Fetched     int    `json:"fetched"`
	New         int    `json:"new"`
	Duplicate   int    `json:"duplicate"`
	Failed      int    `json:"failed"`
	Error       string `json:"error,omitempty"`
}

// handleRun executes one collection batch synchronously. Partial failures
// still answer 200 with the per-source breakdown; only an unusable company
// configuration is a hard error.
func (s *Server) handleRun(c *gin.Context) {
	report, err := s.runner.Run(c.Request.Context())
	if err != nil {
		status := http.StatusInternalServerError
		s.logger.Error("collection run failed", "error", err)
		c.JSON(status, gin.H{
			"status":    "error",
			"message":   err.Error(),
			"timestamp": time.Now().Format(time.RFC3339),
		})
		return
	}

	results := make([]sourceResultJSON, 0, len(report.Results))
	for _, res := range report.Results {
		results = append(results, sourceResultJSON{
			CompanyID:   res.CompanyID,
			CompanyName: res.CompanyName,
			Source:      string(res.Source),
			Fetched:     res.Fetched,
			New:         res.New,
			Duplicate:   res.Duplicate,
			Failed:      res.Failed,
			Error:       res.Err,
		})
	}

	fetched, newCount, duplicate, failed := report.Totals()
	c.JSON(http.StatusOK, gin.H{
		"status":    "success",
		"message":   "Scraping process completed",
		"timestamp": report.FinishedAt.Format(time.RFC3339),
		"fetched":   fetched,
		"new":       newCount,
		"duplicate": duplicate,
		"failed":    failed,
		"sources":   results,
	})
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"timestamp": time.Now().Format(time.RFC3339),
	})
}

func (s *Server) handleStats(c *gin.Context) {
	ctx := c.Request.Context()

	total, err := s.repo.TotalCount(ctx)
	if err != nil {
		s.statsError(c, err)
		return
	}
	byCompany, err := s.repo.CountByCompany(ctx)
	if err != nil {
		s.statsError(c, err)
		return
	}
	bySource, err := s.repo.CountBySource(ctx)
	if err != nil {
		s.statsError(c, err)
		return
	}
	latest, err := s.repo.Latest(ctx, statsLatestN)
	if err != nil {
		s.statsError(c, err)
		return
	}

	type articleJSON struct {
		ID          string    `json:"id"`
		CompanyID   string    `json:"company_id"`
		Title       string    `json:"title"`
		URL         string    `json:"url"`
		Source      string    `json:"source"`
		PublishedAt time.Time `json:"published_at"`
	}
	latestJSON := make([]articleJSON, 0, len(latest))
	for _, a := range latest {
		latestJSON = append(latestJSON, articleJSON{
			ID:          a.ID,
			CompanyID:   a.CompanyID,
			Title:       a.Title,
			URL:         a.URL,
			Source:      string(a.Source),
			PublishedAt: a.PublishedAt,
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"total_articles":      total,
		"articles_by_company": byCompany,
		"articles_by_source":  bySource,
		"latest_articles":     latestJSON,
	})
}

func (s *Server) statsError(c *gin.Context, err error) {
	s.logger.Error("stats query failed", "error", err)
	c.JSON(http.StatusInternalServerError, gin.H{
		"status":  "error",
		"message": err.Error(),
	})
}

// handleSlackEvents verifies the request signature, answers URL verification
// challenges, and dispatches app mentions.
func (s *Server) handleSlackEvents(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unreadable body"})
		return
	}

	verifier, err := slack.NewSecretsVerifier(c.Request.Header, s.signingSecret)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request signature"})
		return
	}
	if _, err := verifier.Write(body); err == nil {
		err = verifier.Ensure()
	}
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid request signature"})
		return
	}

	event, err := slackevents.ParseEvent(body, slackevents.OptionNoVerifyToken())
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unparsable event"})
		return
	}

	switch event.Type {
	case slackevents.URLVerification:
		var challenge slackevents.ChallengeResponse
		if err := json.Unmarshal(body, &challenge); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "unparsable challenge"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"challenge": challenge.Challenge})
	case slackevents.CallbackEvent:
		if mention, ok := event.InnerEvent.Data.(*slackevents.AppMentionEvent); ok {
			if err := s.mentions.HandleMention(c.Request.Context(), mention.Channel, mention.Text); err != nil {
				s.logger.Error("mention handling failed", "error", err)
				c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	default:
		c.JSON(http.StatusOK, gin.H{"status": "ignored"})
	}
}
