package exnest

import (
	"github.com/exnestai/exnest-go/internal/json"
)

// Message roles accepted by the gateway.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one turn of a chat conversation.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Usage reports token counts for one request.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Choice is one generated alternative. Chat endpoints populate Message,
// completion endpoints populate Text.
type Choice struct {
	Index        int      `json:"index"`
	Message      *Message `json:"message,omitempty"`
	Text         string   `json:"text,omitempty"`
	FinishReason string   `json:"finish_reason,omitempty"`
}

// ResponseData is the normalized payload of a successful call. Models is set
// only for catalog endpoints.
type ResponseData struct {
	Model   string   `json:"model,omitempty"`
	Choices []Choice `json:"choices,omitempty"`
	Usage   *Usage   `json:"usage,omitempty"`
	Models  []Model  `json:"models,omitempty"`
}

// Meta carries gateway bookkeeping attached to a response. All fields are
// optional pass-through data.
type Meta struct {
	Timestamp       string `json:"timestamp,omitempty"`
	RequestID       string `json:"request_id,omitempty"`
	Version         string `json:"version,omitempty"`
	ExecutionTime   string `json:"execution_time,omitempty"`
	ExecutionTimeMS int64  `json:"execution_time_ms,omitempty"`
}

// Response is the single canonical result shape every call returns, whatever
// envelope the backend used. Exactly one of Data and Error is set on a
// terminal response.
type Response struct {
	Success    bool            `json:"success"`
	StatusCode int             `json:"status_code,omitempty"`
	Message    string          `json:"message,omitempty"`
	Data       *ResponseData   `json:"data,omitempty"`
	Error      *APIError       `json:"error,omitempty"`
	Meta       *Meta           `json:"meta,omitempty"`
	Raw        json.RawMessage `json:"-"`
}

// Text returns the content of the first choice, chat or completion alike.
// It is empty on failed responses.
func (r *Response) Text() string {
	if r == nil || r.Data == nil || len(r.Data.Choices) == 0 {
		return ""
	}
	choice := r.Data.Choices[0]
	if choice.Message != nil {
		return choice.Message.Content
	}
	return choice.Text
}

// StreamChoice is one delta inside a streamed chunk.
type StreamChoice struct {
	Index        int      `json:"index"`
	Delta        *Message `json:"delta,omitempty"`
	Text         string   `json:"text,omitempty"`
	FinishReason string   `json:"finish_reason,omitempty"`
}

// StreamChunk is the parsed payload of one SSE frame.
type StreamChunk struct {
	ID      string         `json:"id"`
	Object  string         `json:"object"`
	Created int64          `json:"created"`
	Model   string         `json:"model"`
	Choices []StreamChoice `json:"choices"`
}

// StreamEvent is one element of a streaming call's output sequence. Events
// carry either a decoded chunk or an error; the channel closing marks the end
// of the stream. A mid-stream backend error frame is delivered with Err set
// and the stream continues; an event with Terminal set is the last one.
type StreamEvent struct {
	Chunk    *StreamChunk    `json:"chunk,omitempty"`
	Raw      json.RawMessage `json:"raw,omitempty"`
	Err      *APIError       `json:"error,omitempty"`
	Terminal bool            `json:"-"`
}

// ModelProvider identifies the upstream provider of a catalog model.
type ModelProvider struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	DisplayName string `json:"displayName"`
}

// ModelPricing is the catalog price card for a model.
type ModelPricing struct {
	InputPrice  string `json:"inputPrice"`
	OutputPrice string `json:"outputPrice"`
	Currency    string `json:"currency"`
	Per         string `json:"per"`
}

// ModelLimits describes a model's token limits.
type ModelLimits struct {
	MaxTokens     int `json:"maxTokens"`
	ContextWindow int `json:"contextWindow"`
}

// Model is one entry of the gateway's model catalog.
type Model struct {
	ID          string         `json:"id"`
	Name        string         `json:"name,omitempty"`
	DisplayName string         `json:"displayName,omitempty"`
	Description string         `json:"description,omitempty"`
	Provider    *ModelProvider `json:"provider,omitempty"`
	Pricing     *ModelPricing  `json:"pricing,omitempty"`
	Limits      *ModelLimits   `json:"limits,omitempty"`
	IsActive    bool           `json:"isActive,omitempty"`
	CreatedAt   string         `json:"createdAt,omitempty"`
}
