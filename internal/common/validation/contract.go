// Package validation checks payloads crossing an external I/O edge against a
// JSON Schema reflected from the Go record they decode into.
package validation

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/invopop/jsonschema"
	"github.com/xeipuuv/gojsonschema"

	apperrors "careplan-workers/internal/common/errors"
)

// Contract binds a Go record type to its JSON Schema. It is safe for concurrent
// use once built.
type Contract[T any] struct {
	name       string
	schemaJSON []byte
	compiled   *gojsonschema.Schema
}

type contractOptions struct {
	allowAdditional bool
}

type ContractOption func(*contractOptions)

// AllowAdditionalProperties makes the contract ignore unknown keys instead of
// rejecting them.
func AllowAdditionalProperties() ContractOption {
	return func(o *contractOptions) { o.allowAdditional = true }
}

// NewContract reflects T into a schema and compiles it.
func NewContract[T any](name string, opts ...ContractOption) (*Contract[T], error) {
	var o contractOptions
	for _, opt := range opts {
		opt(&o)
	}

	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: o.allowAdditional,
		DoNotReference:            true,
	}
	var zero T
	schema := reflector.Reflect(zero)
	// gojsonschema only knows drafts up to 7; the 2020-12 marker is dropped.
	schema.Version = ""
	schema.ID = ""
	schema.Definitions = nil

	raw, err := json.Marshal(schema)
	if err != nil {
		return nil, fmt.Errorf("marshal %s schema: %w", name, err)
	}

	compiled, err := gojsonschema.NewSchema(gojsonschema.NewBytesLoader(raw))
	if err != nil {
		return nil, fmt.Errorf("compile %s schema: %w", name, err)
	}

	return &Contract[T]{name: name, schemaJSON: raw, compiled: compiled}, nil
}

// MustContract is NewContract for package-level contracts over static types.
func MustContract[T any](name string, opts ...ContractOption) *Contract[T] {
	c, err := NewContract[T](name, opts...)
	if err != nil {
		panic(err)
	}
	return c
}

func (c *Contract[T]) Name() string {
	return c.name
}

// Schema returns the compact JSON Schema document.
func (c *Contract[T]) Schema() json.RawMessage {
	return json.RawMessage(c.schemaJSON)
}

// Decode parses raw and checks it against the contract. Invalid JSON yields a
// PARSE_FAILURE error and a contract mismatch a SCHEMA_VIOLATION error.
func (c *Contract[T]) Decode(raw []byte) (T, error) {
	var out T

	body := StripCodeFence(raw)
	if !json.Valid(body) {
		var v interface{}
		return out, apperrors.NewParseFailureError(c.name, json.Unmarshal(body, &v))
	}

	if err := c.validate(gojsonschema.NewBytesLoader(body)); err != nil {
		return out, err
	}

	normalized, err := normalizeNumbers(body)
	if err != nil {
		return out, apperrors.NewSchemaViolationError(c.name, []string{err.Error()})
	}
	if err := json.Unmarshal(normalized, &out); err != nil {
		return out, apperrors.NewSchemaViolationError(c.name, []string{err.Error()})
	}
	return out, nil
}

// DecodeElements decodes a JSON array element by element against an element
// contract. Elements that fail are reported in rejected and skipped; only a
// body that is not JSON or not an array fails as a whole.
func DecodeElements[E any](c *Contract[E], raw []byte) (accepted []E, rejected []error, err error) {
	body := StripCodeFence(raw)
	if !json.Valid(body) {
		var v interface{}
		return nil, nil, apperrors.NewParseFailureError(c.name, json.Unmarshal(body, &v))
	}

	var elements []json.RawMessage
	if err := json.Unmarshal(body, &elements); err != nil || elements == nil {
		return nil, nil, apperrors.NewSchemaViolationError(c.name, []string{"expected a JSON array"})
	}

	accepted = make([]E, 0, len(elements))
	for i, el := range elements {
		v, err := c.Decode(el)
		if err != nil {
			rejected = append(rejected, fmt.Errorf("element %d: %w", i, err))
			continue
		}
		accepted = append(accepted, v)
	}
	return accepted, rejected, nil
}

// normalizeNumbers rewrites integral numbers such as 4.0 or 3e0 as plain
// integers. The schema validator accepts them for "integer" fields while
// encoding/json refuses them for int targets.
func normalizeNumbers(body []byte) ([]byte, error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	var doc interface{}
	if err := dec.Decode(&doc); err != nil {
		return nil, err
	}
	return json.Marshal(integralNumbers(doc))
}

func integralNumbers(v interface{}) interface{} {
	switch t := v.(type) {
	case map[string]interface{}:
		for k, el := range t {
			t[k] = integralNumbers(el)
		}
		return t
	case []interface{}:
		for i, el := range t {
			t[i] = integralNumbers(el)
		}
		return t
	case json.Number:
		s := t.String()
		if !strings.ContainsAny(s, ".eE") {
			return t
		}
		f, err := t.Float64()
		if err != nil || f != math.Trunc(f) || math.Abs(f) > 1<<53 {
			return t
		}
		return json.Number(strconv.FormatInt(int64(f), 10))
	default:
		return v
	}
}

// Validate checks an already-built value, used on outbound edges.
func (c *Contract[T]) Validate(v T) error {
	return c.validate(gojsonschema.NewGoLoader(v))
}

func (c *Contract[T]) validate(doc gojsonschema.JSONLoader) error {
	result, err := c.compiled.Validate(doc)
	if err != nil {
		return apperrors.NewSchemaViolationError(c.name, []string{err.Error()})
	}
	if result.Valid() {
		return nil
	}

	violations := make([]string, len(result.Errors()))
	for i, desc := range result.Errors() {
		violations[i] = desc.String()
	}
	return apperrors.NewSchemaViolationError(c.name, violations)
}

// StripCodeFence removes a surrounding markdown code fence, which some models
// add even when asked for bare JSON.
func StripCodeFence(raw []byte) []byte {
	s := strings.TrimSpace(string(raw))
	if !strings.HasPrefix(s, "```") {
		return []byte(s)
	}
	s = strings.TrimPrefix(s, "```")
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		s = s[nl+1:]
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return []byte(strings.TrimSpace(s))
}
