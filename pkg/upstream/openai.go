package upstream

// Canned identifiers shared by every simulated completion. Fixed values
// keep gateway assertions byte-stable across runs.
const (
	completionID       = "chatcmpl-mock-123"
	streamCompletionID = "chatcmpl-mock-stream"
	createdStamp       = 1234567890
	modelName          = "gpt-4-mock"
)

// ChatCompletion is the OpenAI-style non-streaming completion document.
type ChatCompletion struct {
	ID      string   `json:"id"`
	Object  string   `json:"object"`
	Created int64    `json:"created"`
	Model   string   `json:"model"`
	Choices []Choice `json:"choices"`
	Usage   Usage    `json:"usage"`
}

// Choice is one completion alternative.
type Choice struct {
	Index        int     `json:"index"`
	Message      Message `json:"message"`
	FinishReason string  `json:"finish_reason"`
}

// Message is a chat message.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Usage reports simulated token accounting.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// ModelList is the /v1/models response envelope.
type ModelList struct {
	Object string  `json:"object"`
	Data   []Model `json:"data"`
}

// Model describes one available model.
type Model struct {
	ID      string `json:"id"`
	Object  string `json:"object"`
	Created int64  `json:"created"`
	OwnedBy string `json:"owned_by"`
}

// CompletionChunk is one streamed SSE fragment payload.
type CompletionChunk struct {
	ID      string        `json:"id"`
	Object  string        `json:"object"`
	Created int64         `json:"created"`
	Model   string        `json:"model"`
	Choices []ChunkChoice `json:"choices"`
}

// ChunkChoice is the per-chunk choice. FinishReason is a pointer so
// content chunks serialize an explicit "finish_reason": null, matching
// the OpenAI wire format clients key on.
type ChunkChoice struct {
	Index        int     `json:"index"`
	Delta        Delta   `json:"delta"`
	FinishReason *string `json:"finish_reason"`
}

// Delta carries the incremental message content. The role appears only
// on the first chunk of a stream; the final chunk is empty.
type Delta struct {
	Role    string `json:"role,omitempty"`
	Content string `json:"content,omitempty"`
}

// ErrorEnvelope wraps a simulated upstream error body.
type ErrorEnvelope struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail mirrors the OpenAI error object.
type ErrorDetail struct {
	Message string `json:"message"`
	Type    string `json:"type"`
	Code    string `json:"code"`
}

// StatusDocument is the minimal /status/{code} body.
type StatusDocument struct {
	Status      int    `json:"status"`
	Description string `json:"description"`
}

// EchoResponse reflects an inbound request back to the caller.
type EchoResponse struct {
	Headers map[string]string `json:"headers"`
	Body    string            `json:"body"`
}

func cannedCompletion() ChatCompletion {
	return ChatCompletion{
		ID:      completionID,
		Object:  "chat.completion",
		Created: createdStamp,
		Model:   modelName,
		Choices: []Choice{{
			Index: 0,
			Message: Message{
				Role:    "assistant",
				Content: "Hello from mock server",
			},
			FinishReason: "stop",
		}},
		Usage: Usage{
			PromptTokens:     10,
			CompletionTokens: 20,
			TotalTokens:      30,
		},
	}
}

func cannedModels() ModelList {
	return ModelList{
		Object: "list",
		Data: []Model{
			{ID: "gpt-4", Object: "model", Created: createdStamp, OwnedBy: "openai"},
			{ID: "gpt-3.5-turbo", Object: "model", Created: createdStamp, OwnedBy: "openai"},
		},
	}
}
