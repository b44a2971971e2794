package exnest

import (
	"fmt"
	"net/url"
	"time"

	"github.com/exnestai/exnest-go/internal/json"
	"github.com/tidwall/sjson"
)

// requestSpec describes one logical call. It is built per call, never
// mutated, and owned solely by the call that issues it.
type requestSpec struct {
	method  string
	path    string
	body    []byte
	query   url.Values
	timeout time.Duration // 0 means the config default
	stream  bool

	// openAICompatible asks the normalizer to pass the backend envelope
	// through without reshaping.
	openAICompatible bool
}

// ChatOptions tunes a chat or completion request. Every recognized option is
// an explicit field; Extra carries provider-specific pass-through fields.
type ChatOptions struct {
	Temperature      *float64
	MaxTokens        *int
	Timeout          time.Duration
	OpenAICompatible bool
	Extra            map[string]any
}

// requestPayload is the JSON body sent to generation endpoints.
type requestPayload struct {
	Model    string    `json:"model"`
	Messages []Message `json:"messages,omitempty"`
	Prompt   string    `json:"prompt,omitempty"`

	Temperature      *float64 `json:"temperature,omitempty"`
	MaxTokens        *int     `json:"max_tokens,omitempty"`
	OpenAICompatible bool     `json:"openai_compatible,omitempty"`
}

func buildGenerationBody(model string, messages []Message, prompt string, opts *ChatOptions, stream bool) ([]byte, error) {
	payload := requestPayload{
		Model:    model,
		Messages: messages,
		Prompt:   prompt,
	}
	if opts != nil {
		payload.Temperature = opts.Temperature
		payload.MaxTokens = opts.MaxTokens
		payload.OpenAICompatible = opts.OpenAICompatible
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	if stream {
		if body, err = sjson.SetBytes(body, "stream", true); err != nil {
			return nil, err
		}
	}
	if opts != nil {
		for key, value := range opts.Extra {
			if body, err = sjson.SetBytes(body, key, value); err != nil {
				return nil, err
			}
		}
	}
	return body, nil
}

func validateChatInput(model string, messages []Message) error {
	if model == "" {
		return &ValidationError{Field: "model", Reason: "must be non-empty"}
	}
	if len(messages) == 0 {
		return &ValidationError{Field: "messages", Reason: "must be non-empty"}
	}
	for i, msg := range messages {
		switch msg.Role {
		case RoleSystem, RoleUser, RoleAssistant:
		default:
			return &ValidationError{Field: "messages", Reason: fmt.Sprintf("unknown role %q at index %d", msg.Role, i)}
		}
	}
	return nil
}

func validateCompletionInput(model, prompt string) error {
	if model == "" {
		return &ValidationError{Field: "model", Reason: "must be non-empty"}
	}
	if prompt == "" {
		return &ValidationError{Field: "prompt", Reason: "must be non-empty"}
	}
	return nil
}
