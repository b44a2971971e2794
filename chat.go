package exnest

import (
	"context"
	"net/http"
	"time"
)

// Chat sends a multi-turn conversation to the gateway and waits for the full
// reply. Model and messages are validated before any network traffic; a
// validation failure is returned as a *ValidationError with no request made.
func (c *Client) Chat(ctx context.Context, model string, messages []Message, opts *ChatOptions) (*Response, error) {
	if err := validateChatInput(model, messages); err != nil {
		return nil, err
	}
	body, err := buildGenerationBody(model, messages, "", opts, false)
	if err != nil {
		return nil, err
	}
	return c.Execute(ctx, &requestSpec{
		method:           http.MethodPost,
		path:             "/chat",
		body:             body,
		timeout:          optTimeout(opts),
		openAICompatible: opts != nil && opts.OpenAICompatible,
	})
}

// ChatStream sends a conversation and returns the reply as it is generated.
// See ExecuteStream for channel semantics.
func (c *Client) ChatStream(ctx context.Context, model string, messages []Message, opts *ChatOptions) (<-chan StreamEvent, error) {
	if err := validateChatInput(model, messages); err != nil {
		return nil, err
	}
	body, err := buildGenerationBody(model, messages, "", opts, true)
	if err != nil {
		return nil, err
	}
	return c.ExecuteStream(ctx, &requestSpec{
		method:           http.MethodPost,
		path:             "/chat",
		body:             body,
		stream:           true,
		openAICompatible: opts != nil && opts.OpenAICompatible,
	})
}

// Ask is the one-shot form of Chat: a single user message, first choice text
// back. A failed call returns the empty string and the Response carrying the
// error detail.
func (c *Client) Ask(ctx context.Context, model, question string, opts *ChatOptions) (string, *Response, error) {
	resp, err := c.Chat(ctx, model, []Message{{Role: RoleUser, Content: question}}, opts)
	if err != nil {
		return "", nil, err
	}
	return resp.Text(), resp, nil
}

func optTimeout(opts *ChatOptions) time.Duration {
	if opts != nil {
		return opts.Timeout
	}
	return 0
}
