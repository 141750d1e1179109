// Package llm defines the port for text-generation providers used by the
// analysis orchestrator.
package llm

import "context"

// Request is a single generation call: role-tagged text parts plus
// generation parameters.
type Request struct {
	System          string
	Prompt          string
	Temperature     float64
	TopK            int
	TopP            float64
	MaxOutputTokens int
}

// Provider is one analysis backend in the fallback order. Generate
// returns the textual payload of a successful call; an error or an empty
// payload advances the orchestrator to the next provider.
type Provider interface {
	// Name identifies the provider variant (e.g. a model name) for logging.
	Name() string

	Generate(ctx context.Context, req Request) (string, error)
}
