package communicator

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"math"
	"math/rand"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/bilal/wifiwatch/internal/config"
	"github.com/bilal/wifiwatch/internal/model"
)

const (
	maxBatch    = 100
	maxAttempts = 6
	baseDelay   = 500 * time.Millisecond
)

// Communicator sends telemetry to backend with retries and buffering.
type Communicator struct {
	agent        string
	iface        string
	endpoint     string
	client       *http.Client
	token        string
	queue        chan Telemetry
	wg           sync.WaitGroup
	sendInterval time.Duration
	maxQueue     int
	ctx          context.Context
	cancel       context.CancelFunc
	stop         chan context.Context
	stopOnce     sync.Once
}

// New creates communicator; it does NOT start the send loop.
func New(cfg *config.Config) *Communicator {
	tcfg := cfg.Telemetry
	client := &http.Client{
		Timeout: time.Duration(tcfg.TimeoutSeconds) * time.Second,
		Transport: &http.Transport{
			TLSClientConfig: &tls.Config{
				InsecureSkipVerify: tcfg.InsecureSkipVerify,
			},
		},
	}

	token := ""
	if tcfg.BackendAuthTokenEnv != "" {
		token = os.Getenv(tcfg.BackendAuthTokenEnv)
	}

	maxQ := tcfg.MaxQueueSize
	if maxQ <= 0 {
		maxQ = 1000
	}
	interval := time.Duration(tcfg.SendIntervalSeconds) * time.Second
	if interval <= 0 {
		interval = 30 * time.Second
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Communicator{
		agent:        cfg.Agent.Name,
		iface:        cfg.Agent.Interface,
		endpoint:     tcfg.BackendURL,
		client:       client,
		token:        token,
		queue:        make(chan Telemetry, maxQ),
		sendInterval: interval,
		maxQueue:     maxQ,
		ctx:          ctx,
		cancel:       cancel,
		stop:         make(chan context.Context, 1),
	}
}

// Start background sender loop. Call once.
func (c *Communicator) Start() {
	c.wg.Add(1)
	go c.loop()
	log.Info().Int("queue_capacity", c.maxQueue).Str("endpoint", c.endpoint).Msg("communicator started")
}

// Shutdown stops the sender after the in-flight batch and anything still
// queued have been posted. ctx bounds the final flush; when it expires the
// in-flight request is aborted.
func (c *Communicator) Shutdown(ctx context.Context) {
	log.Info().Msg("communicator shutdown initiated")
	c.stopOnce.Do(func() { c.stop <- ctx })
	defer c.cancel()

	done := make(chan struct{})
	go func() {
		c.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		log.Info().Msg("communicator shutdown complete")
	case <-ctx.Done():
		log.Warn().Msg("communicator shutdown timeout")
	}
}

func (c *Communicator) PublishSample(_ context.Context, s model.Sample) error {
	c.Send(Telemetry{
		AgentName: c.agent,
		Interface: c.iface,
		Kind:      KindSample,
		Timestamp: s.Timestamp,
		Sample:    &s,
	})
	return nil
}

func (c *Communicator) PublishSummary(_ context.Context, s model.SessionSummary) error {
	c.Send(Telemetry{
		AgentName: c.agent,
		Interface: c.iface,
		Kind:      KindSummary,
		Timestamp: s.End,
		Summary:   &s,
	})
	return nil
}

// Send enqueues a telemetry item. Non-blocking: if queue full, it drops oldest item.
func (c *Communicator) Send(t Telemetry) {
	// ensure correlation id
	if t.CorrelationID == "" {
		t.CorrelationID = uuid.New().String()
	}

	select {
	case c.queue <- t:
		// enqueued
	default:
		// queue full: drop oldest (read one) then enqueue
		select {
		case <-c.queue:
		default:
		}
		select {
		case c.queue <- t:
		default:
			log.Warn().Msg("telemetry dropped: queue full")
		}
	}
}

// loop batches and sends
func (c *Communicator) loop() {
	defer c.wg.Done()

	ticker := time.NewTicker(c.sendInterval)
	defer ticker.Stop()

	buffer := make([]Telemetry, 0, 128)

	for {
		select {
		case stopCtx := <-c.stop:
			// flush remaining
			for {
				select {
				case t := <-c.queue:
					buffer = append(buffer, t)
				default:
					if len(buffer) > 0 {
						c.flushWithRetry(stopCtx, buffer)
					}
					return
				}
			}

		case <-c.ctx.Done():
			return

		case t := <-c.queue:
			buffer = append(buffer, t)
			// summaries go out immediately, the session is ending
			if len(buffer) >= maxBatch || t.Kind == KindSummary {
				c.flushWithRetry(c.ctx, buffer)
				buffer = buffer[:0]
			}

		case <-ticker.C:
			if len(buffer) > 0 {
				c.flushWithRetry(c.ctx, buffer)
				buffer = buffer[:0]
			}
		}
	}
}

// flushWithRetry posts payload and retries with exponential backoff + jitter
func (c *Communicator) flushWithRetry(ctx context.Context, items []Telemetry) {
	payload, err := json.Marshal(items)
	if err != nil {
		log.Error().Err(err).Msg("marshal telemetry failed")
		return
	}

	var attempt int
	for {
		attempt++
		err := c.post(ctx, payload, items[0].CorrelationID)
		if err == nil {
			log.Debug().Int("count", len(items)).Str("correlation", items[0].CorrelationID).Msg("telemetry posted")
			return
		}

		log.Warn().Err(err).Int("attempt", attempt).Int("count", len(items)).Msg("telemetry post failed, will retry")

		if attempt >= maxAttempts {
			log.Error().Int("attempts", attempt).Msg("max attempts reached, dropping telemetry batch")
			return
		}

		// exponential backoff with jitter
		backoff := time.Duration(math.Pow(2, float64(attempt-1))) * baseDelay
		jitter := time.Duration(rand.Int63n(int64(baseDelay)))

		select {
		case <-time.After(backoff + jitter):
		case <-ctx.Done():
			log.Warn().Msg("communicator context cancelled during backoff")
			return
		}
	}
}

func (c *Communicator) post(ctx context.Context, payload []byte, correlationID string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	// correlation header for the batch uses the first item
	req.Header.Set("X-Correlation-ID", correlationID)

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("bad status: %d", resp.StatusCode)
	}
	return nil
}
