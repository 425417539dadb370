package notify

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/manav03panchal/clockset/internal/logging"
	"github.com/manav03panchal/clockset/internal/model"
)

// PushMethod is the JSON-RPC notification method used for pushed
// notifications.
const PushMethod = "timer.notify"

// sendTimeout bounds one sink delivery, retries included.
const sendTimeout = 2 * time.Minute

// Sink receives notifications from the dispatcher.
type Sink interface {
	Name() string
	Send(ctx context.Context, n *model.Notification) error
}

// Broadcaster pushes a JSON-RPC notification to every connected client.
type Broadcaster interface {
	Broadcast(ctx context.Context, method string, params any)
}

// Dispatcher fans each notification out to its sinks. Emit never blocks
// the caller on delivery.
type Dispatcher struct {
	cfg    model.NotifyConfig
	client *HTTPClient
	queue  *RetryQueue

	mu    sync.RWMutex
	sinks []Sink
	wg    sync.WaitGroup
}

// NewDispatcher creates a dispatcher with a log sink and one webhook sink
// per enabled webhook in cfg. queue may be nil, in which case failed
// webhook deliveries are only logged.
func NewDispatcher(cfg model.NotifyConfig, client *HTTPClient, queue *RetryQueue) *Dispatcher {
	d := &Dispatcher{cfg: cfg, client: client, queue: queue}
	d.sinks = append(d.sinks, LogSink{})
	for _, w := range cfg.EnabledWebhooks() {
		d.sinks = append(d.sinks, NewWebhookSink(w, client, queue))
	}
	return d
}

// AddSink registers another sink.
func (d *Dispatcher) AddSink(s Sink) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.sinks = append(d.sinks, s)
}

// Sinks returns the names of the registered sinks.
func (d *Dispatcher) Sinks() []string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	names := make([]string, len(d.sinks))
	for i, s := range d.sinks {
		names[i] = s.Name()
	}
	return names
}

// Emit delivers n to every sink in the background. Disabled notification
// types are dropped.
func (d *Dispatcher) Emit(ctx context.Context, n *model.Notification) {
	if n == nil || !d.cfg.IsTypeEnabled(n.Type) {
		return
	}

	d.mu.RLock()
	sinks := append([]Sink(nil), d.sinks...)
	d.mu.RUnlock()

	base := context.WithoutCancel(ctx)
	for _, s := range sinks {
		d.wg.Add(1)
		go func(s Sink) {
			defer d.wg.Done()
			sctx, cancel := context.WithTimeout(base, sendTimeout)
			defer cancel()
			if err := s.Send(sctx, n); err != nil {
				logging.Warn("notification delivery failed",
					logging.KeySink, s.Name(),
					logging.KeyRunID, n.RunID,
					logging.KeyError, err)
			}
		}(s)
	}
}

// Wait blocks until every delivery started by Emit has returned.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

// DispatchResult contains the result of a delivery to a single webhook.
type DispatchResult struct {
	WebhookName string
	Success     bool
	StatusCode  int
	Duration    time.Duration
	Error       error
}

// SendToSingle delivers n synchronously to the named webhook, enabled or
// not. Failures are not queued.
func (d *Dispatcher) SendToSingle(ctx context.Context, n *model.Notification, webhookName string) DispatchResult {
	for _, w := range d.cfg.Webhooks {
		if w.Name == webhookName {
			return deliver(ctx, d.client, w, n)
		}
	}
	return DispatchResult{
		WebhookName: webhookName,
		Error:       fmt.Errorf("webhook not found: %s", webhookName),
	}
}

// TestWebhook sends a test notification to the named webhook.
func (d *Dispatcher) TestWebhook(ctx context.Context, webhookName string) DispatchResult {
	n := model.NewNotification(
		model.NotifyTest,
		"clockset test",
		"This is a test notification from clockset. If you see this, your webhook is configured correctly!",
	).WithField("Webhook", webhookName).WithField("Time", time.Now().Format("3:04 PM"))

	return d.SendToSingle(ctx, n, webhookName)
}

// CountEnabledWebhooks returns the number of enabled webhooks.
func (d *Dispatcher) CountEnabledWebhooks() int {
	return len(d.cfg.EnabledWebhooks())
}

func deliver(ctx context.Context, client *HTTPClient, w model.Webhook, n *model.Notification) DispatchResult {
	result := DispatchResult{WebhookName: w.Name}

	payload, err := FormatterFor(w).Format(n)
	if err != nil {
		result.Error = fmt.Errorf("failed to format notification: %w", err)
		return result
	}

	sent := client.Send(ctx, w.URL, FormatterFor(w).ContentType(), payload)
	result.StatusCode = sent.StatusCode
	result.Duration = sent.Duration
	result.Error = sent.Error
	result.Success = sent.Error == nil
	return result
}

// LogSink writes every notification to the structured log.
type LogSink struct{}

// Name implements Sink.
func (LogSink) Name() string { return "log" }

// Send implements Sink.
func (LogSink) Send(_ context.Context, n *model.Notification) error {
	logging.Info(n.Title,
		"type", string(n.Type),
		logging.KeyRunID, n.RunID,
		logging.KeyPreset, n.PresetName,
		"position", n.Position,
		"total", n.Total)
	return nil
}

// PushSink pushes notifications to connected RPC clients.
type PushSink struct {
	b Broadcaster
}

// NewPushSink creates a sink that broadcasts through b.
func NewPushSink(b Broadcaster) *PushSink {
	return &PushSink{b: b}
}

// Name implements Sink.
func (s *PushSink) Name() string { return "push" }

// Send implements Sink.
func (s *PushSink) Send(ctx context.Context, n *model.Notification) error {
	s.b.Broadcast(ctx, PushMethod, n)
	return nil
}

// WebhookSink posts notifications to one configured webhook.
type WebhookSink struct {
	webhook   model.Webhook
	formatter Formatter
	client    *HTTPClient
	queue     *RetryQueue
}

// NewWebhookSink creates a sink for w. queue may be nil.
func NewWebhookSink(w model.Webhook, client *HTTPClient, queue *RetryQueue) *WebhookSink {
	return &WebhookSink{webhook: w, formatter: FormatterFor(w), client: client, queue: queue}
}

// Name implements Sink.
func (s *WebhookSink) Name() string { return "webhook:" + s.webhook.Name }

// Send implements Sink. A delivery that still fails after the client's
// retries is handed to the retry queue.
func (s *WebhookSink) Send(ctx context.Context, n *model.Notification) error {
	payload, err := s.formatter.Format(n)
	if err != nil {
		return fmt.Errorf("failed to format notification: %w", err)
	}

	result := s.client.Send(ctx, s.webhook.URL, s.formatter.ContentType(), payload)
	if result.Error == nil {
		logging.DebugLog("webhook delivered",
			logging.KeyWebhook, s.webhook.Name,
			logging.KeyStatus, result.StatusCode,
			"attempts", result.Attempts)
		return nil
	}

	if s.queue != nil && retryable(result) {
		s.queue.Enqueue(queueID(), s.webhook.Name, s.webhook.URL, s.formatter.ContentType(), payload, result.Error)
	}
	return result.Error
}

// retryable reports whether a failed delivery may succeed later. Client
// errors other than rate limiting never will.
func retryable(r *SendResult) bool {
	if r.StatusCode == 0 || r.StatusCode == 429 {
		return true
	}
	return r.StatusCode >= 500
}

func queueID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}
