package tokenizer

import (
	"fmt"
	"strings"
	"sync"

	"github.com/pkoukk/tiktoken-go"
)

// modelEncoding names the tiktoken encoding a known OpenAI-family model
// uses, plus its context window, for reference by callers that need it.
type modelEncoding struct {
	encoding  string
	maxTokens int
}

var openAIModelEncodings = map[string]modelEncoding{
	"gpt-4o":                 {encoding: "o200k_base", maxTokens: 128000},
	"gpt-4o-mini":            {encoding: "o200k_base", maxTokens: 128000},
	"gpt-4-turbo":            {encoding: "cl100k_base", maxTokens: 128000},
	"gpt-4":                  {encoding: "cl100k_base", maxTokens: 8192},
	"gpt-3.5-turbo":          {encoding: "cl100k_base", maxTokens: 16385},
	"text-embedding-3-large": {encoding: "cl100k_base", maxTokens: 8191},
	"text-embedding-3-small": {encoding: "cl100k_base", maxTokens: 8191},
}

// TiktokenEstimator is an exact, tiktoken-backed Estimator for the OpenAI
// model family. Construct one per encoding; NewTiktokenEstimator resolves
// the right encoding from the model name.
type TiktokenEstimator struct {
	encodingName string
	maxTokens    int

	once    sync.Once
	enc     *tiktoken.Tiktoken
	initErr error
}

// NewTiktokenEstimator resolves model to a tiktoken encoding by exact match,
// then by longest matching prefix, falling back to cl100k_base for
// unrecognized models.
func NewTiktokenEstimator(model string) *TiktokenEstimator {
	info, ok := openAIModelEncodings[model]
	if !ok {
		best := ""
		for prefix, candidate := range openAIModelEncodings {
			if strings.HasPrefix(model, prefix) && len(prefix) > len(best) {
				best = prefix
				info = candidate
				ok = true
			}
		}
	}
	if !ok {
		info = modelEncoding{encoding: "cl100k_base", maxTokens: 8192}
	}

	return &TiktokenEstimator{encodingName: info.encoding, maxTokens: info.maxTokens}
}

func (t *TiktokenEstimator) init() error {
	t.once.Do(func() {
		enc, err := tiktoken.GetEncoding(t.encodingName)
		if err != nil {
			t.initErr = fmt.Errorf("tokenizer: init tiktoken encoding %s: %w", t.encodingName, err)
			return
		}
		t.enc = enc
	})
	return t.initErr
}

// CountTokens implements Estimator using the real tiktoken BPE for model's
// encoding; model is otherwise ignored since the encoding is fixed at
// construction time.
func (t *TiktokenEstimator) CountTokens(text, model string) (int, error) {
	if err := t.init(); err != nil {
		return 0, err
	}
	return len(t.enc.Encode(text, nil, nil)), nil
}

// CountMessages counts messages the way the chat completions wire format
// actually costs tokens: a fixed per-message framing overhead plus the
// role and content token counts, and a fixed per-conversation close tag.
func (t *TiktokenEstimator) CountMessages(messages []Message) (int, error) {
	if err := t.init(); err != nil {
		return 0, err
	}

	total := 0
	for _, m := range messages {
		total += 4
		total += len(t.enc.Encode(m.Content, nil, nil))
		total += len(t.enc.Encode(m.Role, nil, nil))
	}
	total += 3
	return total, nil
}

// MaxTokens returns the context window this package's openAIModelEncodings
// table records for the resolved model (8192 for unrecognized models).
func (t *TiktokenEstimator) MaxTokens() int { return t.maxTokens }

// Name identifies this estimator for logging/debugging.
func (t *TiktokenEstimator) Name() string { return "tiktoken[" + t.encodingName + "]" }
