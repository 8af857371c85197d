package llm

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"google.golang.org/api/googleapi"
)

// QuotaError reports a provider-signaled rate/quota rejection. It is the only
// retryable error class; RetryAfter carries the provider-advised wait when the
// error payload contains one.
type QuotaError struct {
	Model      string
	RetryAfter time.Duration
	Cause      error
}

func (e *QuotaError) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("quota exceeded for model %s (retry after %s): %v", e.Model, e.RetryAfter, e.Cause)
	}
	return fmt.Sprintf("quota exceeded for model %s: %v", e.Model, e.Cause)
}

func (e *QuotaError) Unwrap() error { return e.Cause }

// ProviderError reports a non-retryable provider failure.
type ProviderError struct {
	Model string
	Cause error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("provider error for model %s: %v", e.Model, e.Cause)
}

func (e *ProviderError) Unwrap() error { return e.Cause }

// MalformedResponseError reports a response whose payload could not be decoded
// or did not match the expected schema. Raw keeps the unmodified response text
// for diagnostics.
type MalformedResponseError struct {
	Raw   string
	Cause error
}

func (e *MalformedResponseError) Error() string {
	return fmt.Sprintf("malformed model response: %v", e.Cause)
}

func (e *MalformedResponseError) Unwrap() error { return e.Cause }

// retryInPattern matches provider messages like "Please retry in 26.37s".
var retryInPattern = regexp.MustCompile(`(?i)retry (?:in|after) ([0-9]+(?:\.[0-9]+)?)\s*s`)

// classifyProviderError converts a raw provider error into the taxonomy used
// by the invoker: *QuotaError for rate/quota rejections, *ProviderError for
// everything else.
func classifyProviderError(model string, err error) error {
	if isQuotaSignal(err) {
		return &QuotaError{
			Model:      model,
			RetryAfter: advisedRetryDelay(err),
			Cause:      err,
		}
	}
	return &ProviderError{Model: model, Cause: err}
}

func isQuotaSignal(err error) bool {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) && apiErr.Code == 429 {
		return true
	}

	msg := strings.ToLower(err.Error())
	for _, marker := range []string{"429", "quota", "rate limit", "resource exhausted", "resource_exhausted"} {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}

// advisedRetryDelay extracts a provider-advised wait from the error payload,
// or zero when the payload carries none.
func advisedRetryDelay(err error) time.Duration {
	match := retryInPattern.FindStringSubmatch(err.Error())
	if len(match) != 2 {
		return 0
	}
	seconds, parseErr := strconv.ParseFloat(match[1], 64)
	if parseErr != nil || seconds <= 0 {
		return 0
	}
	return time.Duration(seconds * float64(time.Second))
}
