package wireerr

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	llm "github.com/corvidai/llmbridge"
)

type plainErr string

func (e plainErr) Error() string { return string(e) }

func TestExtractMetadataParsesOverloadedStatus(t *testing.T) {
	status, _ := ExtractMetadata(plainErr("anthropic API error (status 529): overloaded"))
	assert.Equal(t, 529, status)
}

func TestExtractMetadataParsesRateLimitAndRetryAfter(t *testing.T) {
	status, retryAfter := ExtractMetadata(plainErr("429 Too Many Requests, Retry-After: 30"))
	assert.Equal(t, 429, status)
	assert.Equal(t, int64(30), int64(retryAfter.Seconds()))
}

func TestExtractMetadataParsesLowercaseRetryAfter(t *testing.T) {
	status, retryAfter := ExtractMetadata(plainErr("429 rate limited, retry-after: 12"))
	assert.Equal(t, 429, status)
	assert.Equal(t, int64(12), int64(retryAfter.Seconds()))
}

func TestExtractMetadataHandlesNilError(t *testing.T) {
	status, retryAfter := ExtractMetadata(nil)
	assert.Equal(t, 0, status)
	assert.Equal(t, time.Duration(0), retryAfter)
}

func TestWrapClassifiesKnownStatuses(t *testing.T) {
	cases := []struct {
		status   int
		category llm.Category
	}{
		{401, llm.CategoryAuthentication},
		{403, llm.CategoryAuthentication},
		{429, llm.CategoryRateLimit},
		{0, llm.CategoryNetwork},
		{500, llm.CategoryProvider},
	}

	for _, c := range cases {
		err := Wrap("testprovider", c.status, 0, plainErr("boom"))
		llmErr, ok := llm.AsError(err)
		require.True(t, ok)
		assert.Equal(t, c.category, llmErr.Category())
	}
}
