package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/nannkadayo/site-verify-discord-bot/internal/observability"
)

// GrantRequest is the payload handed to the bot after a successful
// verification. The bot maps the session (panel message) to a guild
// and role and applies it to the owner.
type GrantRequest struct {
	OwnerID        string `json:"discordUserId"`
	NetworkAddress string `json:"ip"`
	SessionID      string `json:"messageId"`
}

type GrantNotifier interface {
	Notify(ctx context.Context, grant GrantRequest) error
}

type HTTPGrantNotifier struct {
	client *http.Client
	url    string
}

func NewHTTPGrantNotifier(url string, timeout time.Duration) *HTTPGrantNotifier {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &HTTPGrantNotifier{
		client: &http.Client{Timeout: timeout},
		url:    url,
	}
}

func (n *HTTPGrantNotifier) Notify(ctx context.Context, grant GrantRequest) error {
	body, err := json.Marshal(grant)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := n.client.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("grant endpoint returned status %d", resp.StatusCode)
	}
	return nil
}

type queuedGrant struct {
	deliveryID string
	grant      GrantRequest
}

// AsyncGrantNotifier decouples grant delivery from the confirm call:
// Notify only enqueues, a single worker delivers with retries, and a
// failure after all attempts is logged and dropped. The confirm result
// never depends on the bot being reachable.
type AsyncGrantNotifier struct {
	inner    GrantNotifier
	logger   *slog.Logger
	queue    chan queuedGrant
	attempts int
	backoff  time.Duration
	wg       sync.WaitGroup
	once     sync.Once
}

func NewAsyncGrantNotifier(inner GrantNotifier, logger *slog.Logger, queueSize, attempts int, backoff time.Duration) *AsyncGrantNotifier {
	if queueSize <= 0 {
		queueSize = 64
	}
	if attempts <= 0 {
		attempts = 3
	}
	if backoff <= 0 {
		backoff = 500 * time.Millisecond
	}
	n := &AsyncGrantNotifier{
		inner:    inner,
		logger:   logger,
		queue:    make(chan queuedGrant, queueSize),
		attempts: attempts,
		backoff:  backoff,
	}
	n.wg.Add(1)
	go n.run()
	return n
}

func (n *AsyncGrantNotifier) Notify(ctx context.Context, grant GrantRequest) error {
	item := queuedGrant{deliveryID: uuid.NewString(), grant: grant}
	select {
	case n.queue <- item:
		n.logger.InfoContext(ctx, "grant notification enqueued",
			"delivery_id", item.deliveryID,
			"owner_id", grant.OwnerID,
			"session_id", grant.SessionID,
		)
		return nil
	default:
		observability.RecordGrantDelivery(ctx, "queue_full")
		n.logger.ErrorContext(ctx, "grant notification dropped, queue full",
			"delivery_id", item.deliveryID,
			"owner_id", grant.OwnerID,
		)
		return fmt.Errorf("grant queue full")
	}
}

func (n *AsyncGrantNotifier) run() {
	defer n.wg.Done()
	for item := range n.queue {
		n.deliver(item)
	}
}

func (n *AsyncGrantNotifier) deliver(item queuedGrant) {
	ctx := context.Background()
	var lastErr error
	for attempt := 1; attempt <= n.attempts; attempt++ {
		if lastErr = n.inner.Notify(ctx, item.grant); lastErr == nil {
			observability.RecordGrantDelivery(ctx, "delivered")
			n.logger.InfoContext(ctx, "grant notification delivered",
				"delivery_id", item.deliveryID,
				"owner_id", item.grant.OwnerID,
				"attempt", attempt,
			)
			return
		}
		if attempt < n.attempts {
			time.Sleep(n.backoff * time.Duration(attempt))
		}
	}
	observability.RecordGrantDelivery(ctx, "failed")
	n.logger.ErrorContext(ctx, "grant notification failed after retries",
		"delivery_id", item.deliveryID,
		"owner_id", item.grant.OwnerID,
		"attempts", n.attempts,
		"error", lastErr.Error(),
	)
}

// Close stops accepting new grants and waits for queued deliveries.
func (n *AsyncGrantNotifier) Close() {
	n.once.Do(func() {
		close(n.queue)
		n.wg.Wait()
	})
}
