package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/curaflow/curaflow-api/pkg/metrics"
)

type Severity string

const (
	SeverityInfo    Severity = "info"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// Notification is the (title, message, severity) tuple handed to the
// delivery collaborator. The core never consumes a delivery result.
type Notification struct {
	Title    string   `json:"title"`
	Message  string   `json:"message"`
	Severity Severity `json:"severity"`
}

// Deliverer gets notifications to the user. Implementations must not be
// relied on for transactional guarantees: delivery is observational and
// happens after the triggering write has committed.
type Deliverer interface {
	Deliver(ctx context.Context, n Notification) error
}

const notifyBufferSize = 1_000

// NotifyService dispatches notifications asynchronously so emission never
// blocks the caller. Same worker shape as the audit trail: a bounded buffer
// that drops under pressure rather than backing up request handling.
type NotifyService struct {
	deliverer Deliverer
	log       *zap.Logger
	metrics   *metrics.Collector
	queue     chan Notification
	done      chan struct{}
	stop      sync.Once
}

func NewNotifyService(deliverer Deliverer, metrics *metrics.Collector, log *zap.Logger) *NotifyService {
	svc := &NotifyService{
		deliverer: deliverer,
		log:       log,
		metrics:   metrics,
		queue:     make(chan Notification, notifyBufferSize),
		done:      make(chan struct{}),
	}
	go svc.worker()
	return svc
}

// NotifyAsync enqueues a notification. Fire-and-forget: a full buffer drops
// the notification with a warning instead of blocking.
func (s *NotifyService) NotifyAsync(n Notification) {
	select {
	case s.queue <- n:
	default:
		s.log.Warn("notification buffer full, dropping",
			zap.String("title", n.Title),
		)
	}
}

func (s *NotifyService) Shutdown() {
	s.stop.Do(func() { close(s.queue) })
	select {
	case <-s.done:
	case <-time.After(10 * time.Second):
		s.log.Warn("notify service shutdown timed out; some notifications may be lost")
	}
}

func (s *NotifyService) worker() {
	defer close(s.done)
	for n := range s.queue {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := s.deliverer.Deliver(ctx, n); err != nil {
			s.log.Error("failed to deliver notification",
				zap.String("title", n.Title),
				zap.Error(err),
			)
		} else {
			s.metrics.NotificationsSent.Inc()
		}
		cancel()
	}
}

// WebhookDeliverer posts notifications to a configured endpoint.
type WebhookDeliverer struct {
	url    string
	client *http.Client
}

func NewWebhookDeliverer(url string) *WebhookDeliverer {
	return &WebhookDeliverer{
		url:    url,
		client: &http.Client{Timeout: 5 * time.Second},
	}
}

func (d *WebhookDeliverer) Deliver(ctx context.Context, n Notification) error {
	body, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("encoding notification: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("building webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.client.Do(req)
	if err != nil {
		return fmt.Errorf("posting webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}
	return nil
}

// LogDeliverer writes notifications to the application log. Used when no
// webhook endpoint is configured.
type LogDeliverer struct {
	log *zap.Logger
}

func NewLogDeliverer(log *zap.Logger) *LogDeliverer {
	return &LogDeliverer{log: log}
}

func (d *LogDeliverer) Deliver(_ context.Context, n Notification) error {
	d.log.Info("notification",
		zap.String("title", n.Title),
		zap.String("message", n.Message),
		zap.String("severity", string(n.Severity)),
	)
	return nil
}
