package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/jonathan/job-matcher/internal/logger"
	"github.com/jonathan/job-matcher/internal/schemas"
)

// Caller is the single chokepoint through which pipeline stages issue model
// requests. No stage talks to the provider client directly.
type Caller interface {
	// InvokeJSON issues one rate-limited request on the given tier, strips any
	// markdown fence from the response, validates the payload against the
	// named embedded schema (skipped when schemaName is empty), and decodes it
	// into dest.
	InvokeJSON(ctx context.Context, tier ModelTier, prompt string, schemaName string, dest any) error
}

// maxRawLogChars bounds how much of a malformed response ends up in logs.
const maxRawLogChars = 500

// Invoker implements Caller with a per-model sliding-window limiter and
// bounded retries for quota-signaled failures.
type Invoker struct {
	client  Client
	limiter *WindowLimiter
	opts    InvokerOptions
	log     *zap.Logger

	sleep func(time.Duration) // injectable for deterministic tests
}

// NewInvoker wraps client with rate limiting and retry behavior. The limiter
// is owned by the returned Invoker; its timestamp records are never shared.
func NewInvoker(client Client, opts InvokerOptions, log *zap.Logger) *Invoker {
	if opts.QuotaPerMinute == 0 {
		opts = DefaultInvokerOptions()
	}
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = DefaultInvokerOptions().MaxAttempts
	}
	if opts.BaseRetryDelay <= 0 {
		opts.BaseRetryDelay = DefaultInvokerOptions().BaseRetryDelay
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Invoker{
		client:  client,
		limiter: NewWindowLimiter(opts.QuotaPerMinute, time.Minute),
		opts:    opts,
		log:     log,
		sleep:   time.Sleep,
	}
}

// InvokeJSON implements Caller.
func (inv *Invoker) InvokeJSON(ctx context.Context, tier ModelTier, prompt string, schemaName string, dest any) error {
	model := inv.client.GetModel(tier)

	var lastErr error
	for attempt := 1; attempt <= inv.opts.MaxAttempts; attempt++ {
		inv.limiter.Acquire(model)

		raw, err := inv.client.GenerateJSON(ctx, prompt, tier)
		if err == nil {
			decodeErr := inv.decode(raw, schemaName, dest)
			var malformed *MalformedResponseError
			if errors.As(decodeErr, &malformed) {
				inv.log.Warn("malformed model response",
					zap.String("model", model),
					zap.String("schema", schemaName),
					zap.String("raw", logger.Truncate(malformed.Raw, maxRawLogChars)),
				)
			}
			return decodeErr
		}

		classified := classifyProviderError(model, err)
		quotaErr, retryable := classified.(*QuotaError)
		if !retryable {
			return classified
		}
		lastErr = classified

		if attempt == inv.opts.MaxAttempts {
			break
		}

		delay := quotaErr.RetryAfter
		if delay <= 0 {
			delay = inv.opts.BaseRetryDelay * (1 << (attempt - 1))
		}
		inv.log.Warn("model quota exceeded, backing off",
			zap.String("model", model),
			zap.Int("attempt", attempt),
			zap.Duration("delay", delay),
		)
		inv.sleep(delay)
	}

	return lastErr
}

// decode validates and unmarshals a raw model response.
func (inv *Invoker) decode(raw string, schemaName string, dest any) error {
	data := []byte(CleanJSONBlock(raw))

	if !json.Valid(data) {
		return &MalformedResponseError{Raw: raw, Cause: fmt.Errorf("response is not valid JSON")}
	}
	if schemaName != "" {
		if err := schemas.Validate(schemaName, data); err != nil {
			return &MalformedResponseError{Raw: raw, Cause: err}
		}
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return &MalformedResponseError{Raw: raw, Cause: err}
	}
	return nil
}

// CleanJSONBlock strips a markdown code fence from a model response. Models
// wrap JSON in ```json ... ``` blocks even when told not to.
func CleanJSONBlock(text string) string {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "```") {
		return text
	}

	text = strings.TrimPrefix(text, "```")
	// Drop a language tag on the opening fence line, but keep payloads that
	// start on the same line as the fence.
	if idx := strings.Index(text, "\n"); idx >= 0 && !strings.ContainsAny(text[:idx], "{[") {
		text = text[idx+1:]
	}
	if idx := strings.LastIndex(text, "```"); idx >= 0 {
		text = text[:idx]
	}
	return strings.TrimSpace(text)
}
