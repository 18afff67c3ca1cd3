package durafsm

import (
	"fmt"

	"github.com/mitchellh/mapstructure"
)

// DecodePayload converts an event payload into P.
//
// Payloads sent from Go code usually already have the right type and are returned as is.
// Payloads that went through a text boundary (HTTP, CLI, YAML) arrive as map[string]any
// and are decoded using the struct's `json` tags, with weak typing so "3" fits an int.
// A nil payload yields the zero value of P.
func DecodePayload[P any](payload any) (P, error) {
	var out P
	if payload == nil {
		return out, nil
	}
	if typed, ok := payload.(P); ok {
		return typed, nil
	}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &out,
		TagName:          "json",
		WeaklyTypedInput: true,
	})
	if err != nil {
		return out, fmt.Errorf("failed to build payload decoder: %w", err)
	}
	if err := decoder.Decode(payload); err != nil {
		return out, fmt.Errorf("failed to decode payload into %T: %w", out, err)
	}
	return out, nil
}
