package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"notification-orchestrator/internal/config"
	"notification-orchestrator/internal/engine"
	"notification-orchestrator/internal/logging"
	"notification-orchestrator/internal/models"
	"notification-orchestrator/internal/providers"
	"notification-orchestrator/internal/store"
)

var (
	// ErrInvalidNotification marks input that fails validation.
	ErrInvalidNotification = errors.New("invalid notification")
	// ErrTooManySubscribers is returned when the websocket registry is full.
	ErrTooManySubscribers = errors.New("too many subscribers")
)

// Service owns the notification log and turns it into published feeds.
type Service struct {
	repo          store.Repository
	engine        *engine.Orchestrator
	logger        *logging.Logger
	config        config.Config
	metrics       *Metrics
	clock         func() time.Time
	tasks         chan models.Notification
	escalations   chan models.Notification
	ctx           context.Context
	cancel        context.CancelFunc
	wg            *sync.WaitGroup
	providerFuncs map[string]func(context.Context, models.Notification) error
	wsManager     *WebSocketManager
	publishMu     sync.Mutex
	escalatedMu   sync.Mutex
	escalated     map[string]time.Time
}

// New constructs a Service. Escalation providers are enabled only when configured.
func New(repo store.Repository, logger *logging.Logger, cfg config.Config, metrics *Metrics) *Service {
	ctx, cancel := context.WithCancel(context.Background())
	svc := &Service{
		repo:          repo,
		engine:        engine.New(engine.DefaultOptions(), logger),
		logger:        logger,
		config:        cfg,
		metrics:       metrics,
		clock:         time.Now,
		tasks:         make(chan models.Notification, cfg.Notification.QueueSize),
		escalations:   make(chan models.Notification, cfg.Notification.QueueSize),
		ctx:           ctx,
		cancel:        cancel,
		providerFuncs: map[string]func(context.Context, models.Notification) error{},
		wsManager:     newWebSocketManager(logger, metrics),
		escalated:     make(map[string]time.Time),
	}
	if cfg.Telegram.BotToken != "" && cfg.Telegram.ChatID != 0 {
		svc.providerFuncs["telegram"] = func(ctx context.Context, n models.Notification) error {
			return providers.SendTelegram(ctx, n, svc.config, logger)
		}
	}
	if cfg.Email.SMTPServer != "" && cfg.Email.To != "" {
		svc.providerFuncs["email"] = func(ctx context.Context, n models.Notification) error {
			return providers.SendEmail(ctx, n, svc.config)
		}
	}
	if cfg.SMS.AccountSID != "" && cfg.SMS.To != "" {
		svc.providerFuncs["sms"] = func(ctx context.Context, n models.Notification) error {
			return providers.SendSMS(ctx, n, svc.config)
		}
	}
	return svc
}

// Logger exposes the Service's logger
func (s *Service) Logger() *logging.Logger {
	return s.logger
}

// WebSockets exposes the subscriber registry to the API layer.
func (s *Service) WebSockets() *WebSocketManager {
	return s.wsManager
}

// Start launches the ingestion workers, the escalation worker and the refresh loop.
func (s *Service) Start(wg *sync.WaitGroup) {
	s.wg = wg
	for i := 0; i < s.config.Notification.MaxWorkers; i++ {
		s.wg.Add(1)
		go s.worker(i)
	}
	s.wg.Add(2)
	go s.escalationWorker()
	go s.refreshLoop()
}

// Stop signals every background goroutine to exit.
func (s *Service) Stop() {
	s.cancel()
}

// QueueNotification enqueues a notification for ingestion.
func (s *Service) QueueNotification(n models.Notification) {
	select {
	case s.tasks <- n:
		s.logger.Debugf("Queued notification: id=%s", n.ID)
	default:
		s.metrics.IngestedTotal.WithLabelValues("queue", "dropped").Inc()
		s.logger.Errorf("Queue full, dropping notification: id=%s", n.ID)
	}
}

// worker ingests queued notifications until the context is cancelled.
func (s *Service) worker(id int) {
	defer s.wg.Done()
	for {
		select {
		case <-s.ctx.Done():
			s.logger.Infof("Worker %d stopped", id)
			return
		case n := <-s.tasks:
			if err := s.ingest(s.ctx, n, "queue"); err != nil && !errors.Is(err, store.ErrDuplicate) {
				s.logger.Errorf("Ingest failed for %s: %v", n.ID, err)
			}
		}
	}
}

// refreshLoop republishes feeds on a fixed interval so recency decay shows up.
func (s *Service) refreshLoop() {
	defer s.wg.Done()
	ticker := time.NewTicker(s.config.Orchestration.RefreshInterval)
	defer ticker.Stop()
	for {
		select {
		case <-s.ctx.Done():
			s.logger.Infof("Refresh loop stopped")
			return
		case <-ticker.C:
			s.Publish(s.ctx)
		}
	}
}

// Ingest validates n, appends it to the log and publishes fresh feeds.
// It returns the stored notification, whose ID may have been assigned here.
func (s *Service) Ingest(ctx context.Context, n models.Notification) (models.Notification, error) {
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	return n, s.ingest(ctx, n, "api")
}

func (s *Service) ingest(ctx context.Context, n models.Notification, source string) error {
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	if err := validate(n); err != nil {
		s.metrics.IngestedTotal.WithLabelValues(source, "invalid").Inc()
		return err
	}
	if n.Actions == nil {
		n.Actions = []models.Action{}
	}
	if err := s.repo.Append(ctx, n); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			s.metrics.IngestedTotal.WithLabelValues(source, "duplicate").Inc()
			s.logger.Debugf("Ignoring duplicate notification %s", n.ID)
			return err
		}
		s.metrics.IngestedTotal.WithLabelValues(source, "failed").Inc()
		return fmt.Errorf("append notification %s: %w", n.ID, err)
	}
	s.metrics.IngestedTotal.WithLabelValues(source, "ok").Inc()
	s.logger.Infof("Ingested notification %s (%s, %s)", n.ID, n.Category, n.Priority)
	s.Publish(ctx)
	return nil
}

func validate(n models.Notification) error {
	switch {
	case n.Category == "":
		return fmt.Errorf("%w: type is required", ErrInvalidNotification)
	case !n.Priority.Valid():
		return fmt.Errorf("%w: priority %q is not one of critical, high, medium, low", ErrInvalidNotification, n.Priority)
	case n.Timestamp.IsZero():
		return fmt.Errorf("%w: timestamp is required", ErrInvalidNotification)
	case n.CaseID == "":
		return fmt.Errorf("%w: caseId is required", ErrInvalidNotification)
	}
	return nil
}

// Get returns a stored notification.
func (s *Service) Get(ctx context.Context, id string) (models.Notification, error) {
	return s.repo.Get(ctx, id)
}

// List returns the raw log.
func (s *Service) List(ctx context.Context) ([]models.Notification, error) {
	return s.repo.Snapshot(ctx)
}

// Feeds orchestrates a fresh snapshot within the configured budget. Any failure
// or overrun yields empty feeds.
func (s *Service) Feeds(ctx context.Context) models.Feeds {
	start := time.Now()
	ctx, cancel := context.WithTimeout(ctx, s.config.Orchestration.Budget)
	defer cancel()

	feeds, result := s.orchestrate(ctx)
	s.metrics.OrchestrationsTotal.WithLabelValues(result).Inc()
	s.metrics.OrchestrationDuration.Observe(time.Since(start).Seconds())
	for _, ch := range []models.Channel{models.ChannelDirect, models.ChannelWatching, models.ChannelAIBoost} {
		s.metrics.FeedSize.WithLabelValues(string(ch)).Set(float64(len(feeds.Channel(ch))))
	}
	return feeds
}

func (s *Service) orchestrate(ctx context.Context) (models.Feeds, string) {
	snapshot, err := s.repo.Snapshot(ctx)
	if err != nil {
		s.logger.Errorf("Snapshot failed, serving empty feeds: %v", err)
		return models.EmptyFeeds(), "failed"
	}

	now := s.clock()
	done := make(chan models.Feeds, 1)
	go func() {
		done <- s.engine.Orchestrate(snapshot, now)
	}()
	select {
	case feeds := <-done:
		return feeds, "ok"
	case <-ctx.Done():
		s.logger.Warnf("Orchestration of %d notifications exceeded %s, serving empty feeds", len(snapshot), s.config.Orchestration.Budget)
		return models.EmptyFeeds(), "timeout"
	}
}

// Publish recomputes the feeds, pushes them to every subscriber and queues escalations.
func (s *Service) Publish(ctx context.Context) {
	s.publishMu.Lock()
	defer s.publishMu.Unlock()

	feeds := s.Feeds(ctx)
	if s.wsManager.Count() > 0 {
		payload, err := json.Marshal(feeds)
		if err != nil {
			s.logger.Errorf("Failed to encode feeds: %v", err)
		} else {
			s.wsManager.Broadcast(payload)
		}
	}
	s.escalate(feeds)
}

// Subscribe registers conn for published feeds with the current feeds as its
// first message. It is serialized with Publish so no update can overtake it.
func (s *Service) Subscribe(ctx context.Context, conn *websocket.Conn) (string, error) {
	s.publishMu.Lock()
	defer s.publishMu.Unlock()

	payload, err := json.Marshal(s.Feeds(ctx))
	if err != nil {
		return "", fmt.Errorf("encode feeds: %w", err)
	}
	id := s.wsManager.AddConnection(conn, payload)
	if id == "" {
		return "", ErrTooManySubscribers
	}
	return id, nil
}

// MarkRead flags one notification as read and republishes.
func (s *Service) MarkRead(ctx context.Context, id string) error {
	if err := s.repo.MarkRead(ctx, id); err != nil {
		return err
	}
	s.logger.Infof("Marked notification %s read", id)
	s.Publish(ctx)
	return nil
}

// MarkAllRead flags every notification as read and republishes.
func (s *Service) MarkAllRead(ctx context.Context) error {
	if err := s.repo.MarkAllRead(ctx); err != nil {
		return err
	}
	s.logger.Infof("Marked all notifications read")
	s.Publish(ctx)
	return nil
}

// Dismiss retires one notification from every feed and republishes.
func (s *Service) Dismiss(ctx context.Context, id string) error {
	if err := s.repo.Dismiss(ctx, id); err != nil {
		return err
	}
	s.logger.Infof("Dismissed notification %s", id)
	s.Publish(ctx)
	return nil
}
