package exnest

import (
	"testing"
)

func TestNormalizeWrappedChatEnvelope(t *testing.T) {
	body := []byte(`{
		"success": true,
		"status_code": 200,
		"message": "ok",
		"data": {
			"model": "openai:gpt-4o",
			"choices": [
				{"index": 0, "message": {"role": "assistant", "content": "hello there"}, "finish_reason": "stop"}
			],
			"usage": {"prompt_tokens": 10, "completion_tokens": 3, "total_tokens": 13}
		},
		"meta": {"request_id": "req-42", "execution_time_ms": 812}
	}`)

	resp := normalizeBody(body, 200, false)
	if !resp.Success {
		t.Fatalf("Success = false, error = %+v", resp.Error)
	}
	if resp.Error != nil {
		t.Fatalf("Error set on success: %+v", resp.Error)
	}
	if resp.Data == nil {
		t.Fatal("Data is nil")
	}
	if resp.Data.Model != "openai:gpt-4o" {
		t.Errorf("Model = %q", resp.Data.Model)
	}
	if got := resp.Text(); got != "hello there" {
		t.Errorf("Text() = %q", got)
	}
	if resp.Data.Usage == nil || resp.Data.Usage.TotalTokens != 13 {
		t.Errorf("Usage = %+v", resp.Data.Usage)
	}
	if resp.Meta == nil || resp.Meta.RequestID != "req-42" || resp.Meta.ExecutionTimeMS != 812 {
		t.Errorf("Meta = %+v", resp.Meta)
	}
}

func TestNormalizeFlatCompletionObject(t *testing.T) {
	body := []byte(`{
		"model": "meta:llama-3",
		"choices": [{"index": 0, "text": "once upon a time", "finish_reason": "length"}],
		"usage": {"prompt_tokens": 4, "completion_tokens": 6, "total_tokens": 10}
	}`)

	resp := normalizeBody(body, 200, false)
	if !resp.Success {
		t.Fatalf("Success = false, error = %+v", resp.Error)
	}
	if got := resp.Text(); got != "once upon a time" {
		t.Errorf("Text() = %q", got)
	}
}

func TestNormalizeModelCatalogUnwrap(t *testing.T) {
	body := []byte(`{
		"success": true,
		"data": {
			"models": [
				{"id": "openai:gpt-4o", "name": "GPT-4o", "isActive": true},
				{"id": "anthropic:claude", "name": "Claude"}
			]
		}
	}`)

	resp := normalizeBody(body, 200, false)
	if !resp.Success {
		t.Fatalf("Success = false, error = %+v", resp.Error)
	}
	if resp.Data == nil || len(resp.Data.Models) != 2 {
		t.Fatalf("Models = %+v", resp.Data)
	}
	if resp.Data.Models[0].ID != "openai:gpt-4o" || !resp.Data.Models[0].IsActive {
		t.Errorf("Models[0] = %+v", resp.Data.Models[0])
	}
}

func TestNormalizeBareModelArray(t *testing.T) {
	body := []byte(`[{"id": "a"}, {"id": "b"}]`)
	resp := normalizeBody(body, 200, false)
	if !resp.Success {
		t.Fatalf("Success = false, error = %+v", resp.Error)
	}
	if resp.Data == nil || len(resp.Data.Models) != 2 {
		t.Fatalf("Models = %+v", resp.Data)
	}
}

func TestNormalizeSingleModel(t *testing.T) {
	body := []byte(`{"data": {"id": "openai:gpt-4o", "displayName": "GPT-4o", "limits": {"contextWindow": 128000}}}`)
	resp := normalizeBody(body, 200, false)
	if !resp.Success {
		t.Fatalf("Success = false, error = %+v", resp.Error)
	}
	if resp.Data == nil || len(resp.Data.Models) != 1 {
		t.Fatalf("Models = %+v", resp.Data)
	}
	model := resp.Data.Models[0]
	if model.DisplayName != "GPT-4o" || model.Limits == nil || model.Limits.ContextWindow != 128000 {
		t.Errorf("model = %+v", model)
	}
}

func TestNormalizeErrorEnvelope(t *testing.T) {
	body := []byte(`{
		"success": false,
		"status_code": 429,
		"error": {
			"code": "rate_limited",
			"type": "quota_error",
			"message": "rate limit exceeded, retry later",
			"retry_after": 30
		}
	}`)

	resp := normalizeBody(body, 429, false)
	if resp.Success {
		t.Fatal("Success = true on error envelope")
	}
	if resp.Data != nil {
		t.Fatal("Data set on a failed response")
	}
	if resp.Error == nil {
		t.Fatal("Error is nil")
	}
	if resp.Error.Code != "rate_limited" || resp.Error.Type != "quota_error" {
		t.Errorf("Error = %+v", resp.Error)
	}
	if got, ok := resp.Error.Details["retry_after"]; !ok {
		t.Error("retry_after not preserved in Details")
	} else if n, ok := got.(float64); !ok || n != 30 {
		t.Errorf("retry_after = %v (%T)", got, got)
	}
	if resp.Error.Category != CategoryQuota {
		t.Errorf("Category = %v, want %v", resp.Error.Category, CategoryQuota)
	}
	if resp.StatusCode != 429 {
		t.Errorf("StatusCode = %d, want 429", resp.StatusCode)
	}
}

func TestNormalizeEnvelopeStatusCodeWins(t *testing.T) {
	body := []byte(`{"status_code": 404, "error": {"message": "model not found"}}`)
	resp := normalizeBody(body, 500, false)
	if resp.StatusCode != 404 {
		t.Errorf("StatusCode = %d, want envelope value 404", resp.StatusCode)
	}
	if resp.Error.Category != CategoryNotFound {
		t.Errorf("Category = %v, want %v", resp.Error.Category, CategoryNotFound)
	}
}

func TestNormalizeOpenAIPassthrough(t *testing.T) {
	body := []byte(`{
		"id": "chatcmpl-1",
		"object": "chat.completion",
		"model": "gpt-4o",
		"choices": [{"index": 0, "message": {"role": "assistant", "content": "hi"}, "finish_reason": "stop"}],
		"usage": {"prompt_tokens": 1, "completion_tokens": 1, "total_tokens": 2}
	}`)

	resp := normalizeBody(body, 200, true)
	if !resp.Success {
		t.Fatalf("Success = false, error = %+v", resp.Error)
	}
	if len(resp.Raw) == 0 {
		t.Error("Raw not preserved for passthrough")
	}
	if got := resp.Text(); got != "hi" {
		t.Errorf("Text() = %q", got)
	}
}

func TestNormalizeRejectsBadShapes(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"invalid json", `{"choices": [`},
		{"html error page", `<html>502 Bad Gateway</html>`},
		{"unknown envelope", `{"foo": 1, "bar": "baz"}`},
		{"unsuccessful without error", `{"success": false, "data": {"model": "x"}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := normalizeBody([]byte(tt.body), 200, false)
			if resp.Success {
				t.Fatal("Success = true")
			}
			if resp.Error == nil {
				t.Fatal("Error is nil")
			}
			if resp.Error.Code != ErrCodeMalformed {
				t.Errorf("Code = %q, want %q", resp.Error.Code, ErrCodeMalformed)
			}
			if resp.Data != nil {
				t.Error("Data set on a failed response")
			}
		})
	}
}

func TestParseFrameError(t *testing.T) {
	if got := parseFrameError([]byte(`{"choices": []}`)); got != nil {
		t.Fatalf("ordinary chunk parsed as error: %+v", got)
	}
	got := parseFrameError([]byte(`{"error": {"code": "overloaded", "message": "quota exceeded"}}`))
	if got == nil {
		t.Fatal("error frame not recognized")
	}
	if got.Code != "overloaded" {
		t.Errorf("Code = %q", got.Code)
	}
	if got.Category != CategoryQuota {
		t.Errorf("Category = %v, want %v", got.Category, CategoryQuota)
	}
}
