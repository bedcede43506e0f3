package inference

import "context"

// Generator is the opaque inference contract consumed by the chat handler.
//
// Implementations must respect context cancellation and classify every
// failure as an *Error before returning.
type Generator interface {
	// Generate sends the prompt to the model endpoint and returns the
	// generated text together with the consumption units the call cost.
	Generate(ctx context.Context, req *Request) (*Result, error)
}

// Request describes a single generation call.
type Request struct {
	// Model is the upstream model identifier.
	Model string `json:"model"`

	// Prompt is the assembled prompt text.
	Prompt string `json:"prompt"`

	// MaxTokens caps the generated completion length.
	MaxTokens int `json:"max_tokens"`
}

// Result is a successful generation.
type Result struct {
	// Text is the generated completion.
	Text string `json:"text"`

	// UnitsUsed is the consumption-unit ("neuron") cost of this call, as
	// reported by the upstream or estimated from the cost table when the
	// upstream omits usage data.
	UnitsUsed int64 `json:"units_used"`
}
