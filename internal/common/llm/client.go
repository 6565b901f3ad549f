// Package llm is the handle on the external reasoning service. It is built once in
// the composition root and shared by every stage that needs it.
package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

// Request is one constrained-JSON call. Input is marshalled and appended to the
// instruction; ResponseSchema, when set, is quoted in the prompt.
type Request struct {
	Stage          string
	Instruction    string
	Input          any
	ResponseSchema json.RawMessage
}

// Client returns the raw JSON text produced for a request. Implementations report
// transport problems as TRANSPORT_FAILURE and never validate the payload.
type Client interface {
	GenerateJSON(ctx context.Context, req Request) ([]byte, error)
}

// ClientFunc adapts a function to Client.
type ClientFunc func(ctx context.Context, req Request) ([]byte, error)

func (f ClientFunc) GenerateJSON(ctx context.Context, req Request) ([]byte, error) {
	return f(ctx, req)
}

// Prompt renders the full text sent to the model.
func (r Request) Prompt() (string, error) {
	var b strings.Builder
	b.WriteString(strings.TrimSpace(r.Instruction))

	if len(r.ResponseSchema) > 0 {
		b.WriteString("\n\nRespond with JSON only, matching exactly this JSON Schema:\n")
		b.Write(r.ResponseSchema)
	}

	if r.Input != nil {
		in, err := json.MarshalIndent(r.Input, "", "  ")
		if err != nil {
			return "", fmt.Errorf("marshal %s input: %w", r.Stage, err)
		}
		b.WriteString("\n\n[INPUT JSON]\n")
		b.Write(in)
	}
	return b.String(), nil
}
