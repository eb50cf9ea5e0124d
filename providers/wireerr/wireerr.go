// Package wireerr centralizes the status-code/Retry-After extraction and
// Error classification both provider adapters need: neither the Anthropic
// nor the OpenAI-compatible SDK surfaces a typed status on transport errors,
// so string inspection of the error text is the stable cross-version way to
// recover them.
package wireerr

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	llm "github.com/corvidai/llmbridge"
)

// ExtractMetadata pulls an HTTP status code and Retry-After duration out of
// an SDK error's message text.
func ExtractMetadata(err error) (int, time.Duration) {
	if err == nil {
		return 0, 0
	}
	msg := err.Error()

	status := 0
	switch {
	case strings.Contains(msg, "429"):
		status = http.StatusTooManyRequests
	case strings.Contains(msg, "500"):
		status = http.StatusInternalServerError
	case strings.Contains(msg, "502"):
		status = http.StatusBadGateway
	case strings.Contains(msg, "503"):
		status = http.StatusServiceUnavailable
	case strings.Contains(msg, "504"):
		status = http.StatusGatewayTimeout
	case strings.Contains(msg, "529"):
		status = 529 // Anthropic "overloaded"
	case strings.Contains(msg, "401"):
		status = http.StatusUnauthorized
	case strings.Contains(msg, "403"):
		status = http.StatusForbidden
	case strings.Contains(msg, "400"):
		status = http.StatusBadRequest
	}

	var retryAfter time.Duration
	lower := strings.ToLower(msg)
	if idx := strings.Index(lower, "retry-after"); idx != -1 {
		if secs, ok := FirstInt(msg[idx+len("retry-after"):]); ok {
			retryAfter = time.Duration(secs) * time.Second
		}
	}

	return status, retryAfter
}

// FirstInt returns the first run of ASCII digits in s, skipping any leading
// punctuation or whitespace (e.g. the ": " in "Retry-After: 30").
func FirstInt(s string) (int, bool) {
	start := -1
	for i, r := range s {
		if r >= '0' && r <= '9' {
			if start == -1 {
				start = i
			}
			continue
		}
		if start != -1 {
			break
		}
	}
	if start == -1 {
		return 0, false
	}
	end := start
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	secs, err := strconv.Atoi(s[start:end])
	if err != nil {
		return 0, false
	}
	return secs, true
}

// Wrap classifies an SDK error into the package's Error taxonomy given the
// status/retryAfter ExtractMetadata recovered.
func Wrap(provider string, status int, retryAfter time.Duration, err error) error {
	switch status {
	case http.StatusUnauthorized, http.StatusForbidden:
		return llm.NewAuthenticationError(provider, err.Error())
	case http.StatusTooManyRequests:
		return llm.NewRateLimitError(provider, retryAfter, retryAfter > 0)
	case 0:
		return llm.NewNetworkError(err)
	default:
		return llm.NewProviderError(provider, err.Error(), status, err)
	}
}
