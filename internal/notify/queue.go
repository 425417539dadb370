package notify

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/manav03panchal/clockset/internal/config"
	"github.com/manav03panchal/clockset/internal/logging"
)

// QueuedNotification is a webhook payload waiting for another attempt.
type QueuedNotification struct {
	ID          string          `json:"id"`
	WebhookName string          `json:"webhook_name"`
	URL         string          `json:"url"`
	ContentType string          `json:"content_type"`
	Body        json.RawMessage `json:"body"`
	CreatedAt   time.Time       `json:"created_at"`
	NextRetry   time.Time       `json:"next_retry"`
	Attempts    int             `json:"attempts"`
	MaxRetries  int             `json:"max_retries"`
	LastError   string          `json:"last_error,omitempty"`
}

// RetryQueue holds webhook deliveries that failed and retries them on a
// backoff schedule. It lives only as long as the daemon.
type RetryQueue struct {
	mu       sync.RWMutex
	queue    []*QueuedNotification
	client   *HTTPClient
	ctx      context.Context
	cancel   context.CancelFunc
	wg       sync.WaitGroup
	running  bool
	interval time.Duration
	backoff  []time.Duration
	retries  int
	now      func() time.Time

	totalQueued int
	totalSent   int
	totalFailed int
}

// NewRetryQueue creates a retry queue that sends through client.
func NewRetryQueue(client *HTTPClient, cfg config.RetryQueueConfig) *RetryQueue {
	ctx, cancel := context.WithCancel(context.Background())
	backoff := cfg.BackoffSchedule
	if len(backoff) == 0 {
		backoff = config.DefaultRuntimeConfig().RetryQueue.BackoffSchedule
	}
	return &RetryQueue{
		client:   client,
		ctx:      ctx,
		cancel:   cancel,
		interval: cfg.CheckInterval,
		backoff:  backoff,
		retries:  cfg.MaxRetries,
		now:      time.Now,
	}
}

// Start begins processing the retry queue in the background.
func (q *RetryQueue) Start() {
	q.mu.Lock()
	if q.running {
		q.mu.Unlock()
		return
	}
	q.running = true
	q.mu.Unlock()

	q.wg.Add(1)
	go q.processLoop()
}

// Stop stops the retry queue processor. Pending entries are dropped.
func (q *RetryQueue) Stop() {
	q.mu.Lock()
	if !q.running {
		q.mu.Unlock()
		return
	}
	q.running = false
	q.mu.Unlock()

	q.cancel()
	q.wg.Wait()
}

// Enqueue adds a failed delivery to the queue. cause may be nil.
func (q *RetryQueue) Enqueue(id, webhookName, url, contentType string, body []byte, cause error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	now := q.now()
	n := &QueuedNotification{
		ID:          id,
		WebhookName: webhookName,
		URL:         url,
		ContentType: contentType,
		Body:        body,
		CreatedAt:   now,
		NextRetry:   now.Add(q.backoffFor(0)),
		MaxRetries:  q.retries,
	}
	if cause != nil {
		n.LastError = cause.Error()
	}

	q.queue = append(q.queue, n)
	q.totalQueued++

	logging.Info("notification queued for retry",
		logging.KeyWebhook, webhookName,
		"queue_size", len(q.queue),
		logging.KeyError, cause)
}

func (q *RetryQueue) processLoop() {
	defer q.wg.Done()

	ticker := time.NewTicker(q.interval)
	defer ticker.Stop()

	for {
		select {
		case <-q.ctx.Done():
			return
		case <-ticker.C:
			q.processQueue()
		}
	}
}

// processQueue attempts every entry whose retry time has come.
func (q *RetryQueue) processQueue() {
	q.mu.Lock()
	now := q.now()

	var ready, remaining []*QueuedNotification
	for _, n := range q.queue {
		if !n.NextRetry.After(now) {
			ready = append(ready, n)
		} else {
			remaining = append(remaining, n)
		}
	}
	q.queue = remaining
	q.mu.Unlock()

	for _, n := range ready {
		q.processNotification(n)
	}
}

func (q *RetryQueue) processNotification(n *QueuedNotification) {
	n.Attempts++

	logging.DebugLog("retrying notification",
		logging.KeyWebhook, n.WebhookName,
		"attempt", n.Attempts,
		"max_retries", n.MaxRetries)

	result := q.client.Send(q.ctx, n.URL, n.ContentType, n.Body)
	if result.Error == nil {
		q.mu.Lock()
		q.totalSent++
		q.mu.Unlock()

		logging.Info("queued notification sent",
			logging.KeyWebhook, n.WebhookName,
			"attempts", n.Attempts,
			"duration_ms", result.Duration.Milliseconds())
		return
	}

	n.LastError = result.Error.Error()
	if n.Attempts >= n.MaxRetries {
		q.mu.Lock()
		q.totalFailed++
		q.mu.Unlock()

		logging.Warn("notification failed after max retries",
			logging.KeyWebhook, n.WebhookName,
			"attempts", n.Attempts,
			logging.KeyError, result.Error)
		return
	}

	n.NextRetry = q.now().Add(q.backoffFor(n.Attempts))

	q.mu.Lock()
	q.queue = append(q.queue, n)
	q.mu.Unlock()

	logging.DebugLog("notification re-queued",
		logging.KeyWebhook, n.WebhookName,
		"next_retry", n.NextRetry,
		"attempts", n.Attempts)
}

// backoffFor returns the wait before the given attempt. Attempts past the
// schedule reuse its last entry.
func (q *RetryQueue) backoffFor(attempt int) time.Duration {
	if attempt >= len(q.backoff) {
		return q.backoff[len(q.backoff)-1]
	}
	return q.backoff[attempt]
}

// QueueStats returns statistics about the retry queue.
type QueueStats struct {
	QueueSize   int `json:"queue_size"`
	TotalQueued int `json:"total_queued"`
	TotalSent   int `json:"total_sent"`
	TotalFailed int `json:"total_failed"`
}

// Stats returns current queue statistics.
func (q *RetryQueue) Stats() QueueStats {
	q.mu.RLock()
	defer q.mu.RUnlock()

	return QueueStats{
		QueueSize:   len(q.queue),
		TotalQueued: q.totalQueued,
		TotalSent:   q.totalSent,
		TotalFailed: q.totalFailed,
	}
}

// Pending returns the number of queued deliveries.
func (q *RetryQueue) Pending() int {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return len(q.queue)
}

// Clear drops every queued delivery.
func (q *RetryQueue) Clear() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.queue = nil
}
