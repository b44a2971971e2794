package exnest

import (
	"net/http"

	"github.com/exnestai/exnest-go/internal/json"
	"github.com/tidwall/gjson"
)

// normalizeBody reconciles the backend's envelope variants into the one
// canonical Response shape. Recognized variants:
//
//   - a flat chat/completion object (choices/usage/model at top level)
//   - the gateway envelope {success, status_code, message, data, error, meta}
//   - the catalog envelope {data:{models:[...]}} or a bare model array
//   - an OpenAI-compatible body, passed through when the caller asked for it
//
// Valid JSON matching none of these is reported as a malformed response
// rather than guessed at.
func normalizeBody(body []byte, httpStatus int, openAICompatible bool) *Response {
	if !gjson.ValidBytes(body) {
		return malformedFailure(httpStatus, "response body is not valid JSON")
	}
	root := gjson.ParseBytes(body)

	if errObj := root.Get("error"); errObj.Exists() && errObj.IsObject() {
		return errorFailure(root, errObj, httpStatus)
	}

	resp := &Response{
		Success:    true,
		StatusCode: statusFrom(root, httpStatus),
		Message:    root.Get("message").String(),
		Meta:       parseMeta(root.Get("meta")),
		Raw:        json.RawMessage(body),
	}

	if openAICompatible {
		// The caller asked for the foreign wire format verbatim; reshape
		// only what maps directly.
		resp.Data = parsePayload(root)
		if resp.Data == nil {
			resp.Data = &ResponseData{}
		}
		return resp
	}

	// Bare arrays come from catalog endpoints.
	if root.IsArray() {
		resp.Data = &ResponseData{Models: parseModels(root)}
		return resp
	}

	inner := root
	if data := root.Get("data"); data.Exists() {
		if success := root.Get("success"); success.Exists() && !success.Bool() {
			// Envelope marked unsuccessful but carrying no error object.
			return malformedFailure(statusFrom(root, httpStatus), "unsuccessful envelope without error detail")
		}
		inner = data
	}

	if models := inner.Get("models"); models.Exists() && models.IsArray() {
		resp.Data = &ResponseData{Models: parseModels(models)}
		return resp
	}
	if inner.IsArray() {
		resp.Data = &ResponseData{Models: parseModels(inner)}
		return resp
	}
	if payload := parsePayload(inner); payload != nil {
		resp.Data = payload
		return resp
	}
	if inner.Get("id").Exists() {
		// A single catalog model, bare or wrapped in {data:...}.
		if model := parseModel(inner); model != nil {
			resp.Data = &ResponseData{Models: []Model{*model}}
			return resp
		}
	}

	return malformedFailure(statusFrom(root, httpStatus), "unrecognized response envelope")
}

func statusFrom(root gjson.Result, httpStatus int) int {
	if sc := root.Get("status_code"); sc.Exists() {
		return int(sc.Int())
	}
	if httpStatus != 0 {
		return httpStatus
	}
	return http.StatusOK
}

func errorFailure(root, errObj gjson.Result, httpStatus int) *Response {
	apiErr := &APIError{
		Code:    errObj.Get("code").String(),
		Type:    errObj.Get("type").String(),
		Message: errObj.Get("message").String(),
	}
	errObj.ForEach(func(key, value gjson.Result) bool {
		switch key.Str {
		case "code", "type", "message":
		default:
			if apiErr.Details == nil {
				apiErr.Details = make(map[string]any)
			}
			apiErr.Details[key.Str] = value.Value()
		}
		return true
	})
	status := statusFrom(root, httpStatus)
	apiErr.Category = CategorizeError(status, apiErr.Message)

	message := root.Get("message").String()
	if message == "" {
		message = apiErr.Message
	}
	return &Response{
		Success:    false,
		StatusCode: status,
		Message:    message,
		Error:      apiErr,
		Meta:       parseMeta(root.Get("meta")),
	}
}

func malformedFailure(status int, reason string) *Response {
	return &Response{
		Success:    false,
		StatusCode: status,
		Message:    "malformed response",
		Error: &APIError{
			Code:     ErrCodeMalformed,
			Type:     ErrTypeClient,
			Message:  reason,
			Category: CategoryUnknown,
		},
	}
}

// parsePayload maps a chat/completion object. It returns nil when v carries
// none of the generation fields.
func parsePayload(v gjson.Result) *ResponseData {
	model := v.Get("model")
	choices := v.Get("choices")
	usage := v.Get("usage")
	if !model.Exists() && !choices.Exists() {
		return nil
	}

	data := &ResponseData{Model: model.String()}
	if choices.Exists() && choices.IsArray() {
		if err := json.Unmarshal([]byte(choices.Raw), &data.Choices); err != nil {
			data.Choices = nil
		}
	}
	if usage.Exists() && usage.IsObject() {
		var u Usage
		if err := json.Unmarshal([]byte(usage.Raw), &u); err == nil {
			data.Usage = &u
		}
	}
	return data
}

func parseMeta(v gjson.Result) *Meta {
	if !v.Exists() || !v.IsObject() {
		return nil
	}
	var meta Meta
	if err := json.Unmarshal([]byte(v.Raw), &meta); err != nil {
		return nil
	}
	return &meta
}

func parseModels(v gjson.Result) []Model {
	var models []Model
	if err := json.Unmarshal([]byte(v.Raw), &models); err != nil {
		return nil
	}
	return models
}

func parseModel(v gjson.Result) *Model {
	var model Model
	if err := json.Unmarshal([]byte(v.Raw), &model); err != nil {
		return nil
	}
	return &model
}

// parseFrameError maps a streamed error frame, either a top-level error
// object or a bare {code,message} body, to an APIError. It returns nil when
// the frame is an ordinary chunk.
func parseFrameError(payload []byte) *APIError {
	root := gjson.ParseBytes(payload)
	errObj := root.Get("error")
	if !errObj.Exists() || !errObj.IsObject() {
		return nil
	}
	status := statusFrom(root, 0)
	apiErr := &APIError{
		Code:    errObj.Get("code").String(),
		Type:    errObj.Get("type").String(),
		Message: errObj.Get("message").String(),
	}
	apiErr.Category = CategorizeError(status, apiErr.Message)
	return apiErr
}

func unmarshalChunk(payload []byte, chunk *StreamChunk) error {
	return json.Unmarshal(payload, chunk)
}
