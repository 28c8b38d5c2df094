// Package embedding produces fixed-dimension vectors for entity and query text via OpenAI's
// embeddings API, rate limited with a token-bucket limiter the same way outbound API clients
// elsewhere in this codebase throttle themselves.
package embedding

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/sashabaranov/go-openai"
	"golang.org/x/time/rate"

	apperrors "github.com/codegraph/graphrag/internal/errors"
	"github.com/codegraph/graphrag/internal/models"
)

// TaskKind distinguishes text being embedded for storage from text being embedded to search.
// Both currently route to the same model; the distinction exists because some embedding
// providers (and a future local model) produce different vectors for each.
type TaskKind string

const (
	TaskDocument TaskKind = "document"
	TaskQuery    TaskKind = "query"
)

// Client wraps an OpenAI embeddings client with a token-bucket limiter and an overflow queue
// for callers that opt out of blocking on rate-limit waits.
type Client struct {
	api       *openai.Client
	model     string
	dimension int
	limiter   *rate.Limiter

	mu        sync.Mutex
	queue     chan pendingRequest
	draining  bool
	closeOnce sync.Once
	stopCh    chan struct{}
}

type pendingRequest struct {
	ctx    context.Context
	text   string
	result chan<- embedResult
}

type embedResult struct {
	vector []float32
	err    error
}

// New constructs a Client. ratePerMinute becomes both the token bucket's capacity and its
// per-second refill rate (rate/60), using rate.NewLimiter with a burst equal to the full
// per-minute allowance.
func New(apiKey, model string, dimension, ratePerMinute int) *Client {
	limit := rate.Limit(float64(ratePerMinute) / 60.0)
	return &Client{
		api:       openai.NewClient(apiKey),
		model:     model,
		dimension: dimension,
		limiter:   rate.NewLimiter(limit, ratePerMinute),
		queue:     make(chan pendingRequest, 256),
		stopCh:    make(chan struct{}),
	}
}

// Generate returns text's embedding. wait=true blocks on the rate limiter directly; wait=false
// enqueues the request behind the single background drainer and blocks on its result instead,
// so a burst of non-waiting callers still executes in submission order.
func (c *Client) Generate(ctx context.Context, text string, task TaskKind, wait bool) ([]float32, error) {
	if strings.TrimSpace(text) == "" {
		return nil, apperrors.InvalidRequest("embedding text must not be empty")
	}

	if wait {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limiter: %w", err)
		}
		return c.call(ctx, text)
	}

	result := make(chan embedResult, 1)
	c.ensureDrainer()
	select {
	case c.queue <- pendingRequest{ctx: ctx, text: text, result: result}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	select {
	case r := <-result:
		return r.vector, r.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// ensureDrainer starts the background drain goroutine on first use; it runs for the lifetime
// of the Client and is stopped by Close.
func (c *Client) ensureDrainer() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.draining {
		return
	}
	c.draining = true
	go c.drain()
}

func (c *Client) drain() {
	for {
		select {
		case req := <-c.queue:
			if err := c.limiter.Wait(req.ctx); err != nil {
				req.result <- embedResult{err: fmt.Errorf("rate limiter: %w", err)}
				continue
			}
			vector, err := c.call(req.ctx, req.text)
			req.result <- embedResult{vector: vector, err: err}
		case <-c.stopCh:
			c.drainPendingWithCancellation()
			return
		}
	}
}

func (c *Client) drainPendingWithCancellation() {
	for {
		select {
		case req := <-c.queue:
			req.result <- embedResult{err: fmt.Errorf("embedding client is shutting down")}
		default:
			return
		}
	}
}

// Close stops the background drainer and resolves any still-pending requests with a
// cancellation error.
func (c *Client) Close() {
	c.closeOnce.Do(func() { close(c.stopCh) })
}

func (c *Client) call(ctx context.Context, text string) ([]float32, error) {
	resp, err := c.api.CreateEmbeddings(ctx, openai.EmbeddingRequestStrings{
		Input: []string{text},
		Model: openai.EmbeddingModel(c.model),
	})
	if err != nil {
		return nil, apperrors.EmbeddingGenerationError(err, "create embedding")
	}
	if len(resp.Data) == 0 {
		return nil, apperrors.InternalError("embedding response contained no data")
	}
	vector := resp.Data[0].Embedding
	if len(vector) != c.dimension {
		return nil, apperrors.InvalidRequest(fmt.Sprintf("embedding dimension mismatch: got %d, want %d", len(vector), c.dimension))
	}
	return vector, nil
}

// BatchGenerate embeds texts in chunks of batchSize, issuing one individual Generate request per
// text with wait=true semantics (so every request passes through the rate limiter), and aborts on
// the first failure.
func (c *Client) BatchGenerate(ctx context.Context, texts []string, batchSize int) ([][]float32, error) {
	if batchSize <= 0 {
		batchSize = len(texts)
	}
	vectors := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += batchSize {
		end := start + batchSize
		if end > len(texts) {
			end = len(texts)
		}
		chunk := texts[start:end]

		for _, text := range chunk {
			vector, err := c.Generate(ctx, text, TaskDocument, true)
			if err != nil {
				return nil, err
			}
			vectors = append(vectors, vector)
		}
	}
	return vectors, nil
}

// TextForEntity formats entity using its per-kind embedding template: functions get a
// signature/docstring/body template, classes get a docstring/method-list template, and
// everything else falls back to a generic kind/name/content template.
func TextForEntity(entity *models.Entity) string {
	switch entity.Kind {
	case models.EntityFunction:
		var b strings.Builder
		fmt.Fprintf(&b, "Function: %s\n", entity.Name)
		if entity.Signature != "" {
			fmt.Fprintf(&b, "Signature: %s\n", entity.Signature)
		}
		if entity.Docstring != "" {
			fmt.Fprintf(&b, "Docstring: %s\n", entity.Docstring)
		}
		if entity.Body != "" {
			fmt.Fprintf(&b, "Body: %s\n", truncate(entity.Body, 500))
		}
		return strings.TrimRight(b.String(), "\n")
	case models.EntityClass:
		var b strings.Builder
		fmt.Fprintf(&b, "Class: %s\n", entity.Name)
		if entity.Docstring != "" {
			fmt.Fprintf(&b, "Docstring: %s\n", entity.Docstring)
		}
		if methods, ok := entity.Metadata["methods"].([]string); ok && len(methods) > 0 {
			fmt.Fprintf(&b, "Methods: %s\n", strings.Join(methods, ", "))
		}
		return strings.TrimRight(b.String(), "\n")
	default:
		var b strings.Builder
		fmt.Fprintf(&b, "%s: %s\n", capitalize(string(entity.Kind)), entity.Name)
		if entity.Body != "" {
			fmt.Fprintf(&b, "Content: %s\n", truncate(entity.Body, 500))
		}
		return strings.TrimRight(b.String(), "\n")
	}
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
