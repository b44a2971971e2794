package exnest

import (
	"context"
	"net/http"
)

// Completion sends a raw prompt to the gateway and waits for the full reply.
func (c *Client) Completion(ctx context.Context, model, prompt string, opts *ChatOptions) (*Response, error) {
	if err := validateCompletionInput(model, prompt); err != nil {
		return nil, err
	}
	body, err := buildGenerationBody(model, nil, prompt, opts, false)
	if err != nil {
		return nil, err
	}
	return c.Execute(ctx, &requestSpec{
		method:           http.MethodPost,
		path:             "/completions",
		body:             body,
		timeout:          optTimeout(opts),
		openAICompatible: opts != nil && opts.OpenAICompatible,
	})
}

// CompletionStream sends a raw prompt and returns the reply as it is
// generated. See ExecuteStream for channel semantics.
func (c *Client) CompletionStream(ctx context.Context, model, prompt string, opts *ChatOptions) (<-chan StreamEvent, error) {
	if err := validateCompletionInput(model, prompt); err != nil {
		return nil, err
	}
	body, err := buildGenerationBody(model, nil, prompt, opts, true)
	if err != nil {
		return nil, err
	}
	return c.ExecuteStream(ctx, &requestSpec{
		method:           http.MethodPost,
		path:             "/completions",
		body:             body,
		stream:           true,
		openAICompatible: opts != nil && opts.OpenAICompatible,
	})
}
