package ai

import (
	"context"
	"errors"
)

// ErrUnavailable is returned when no pretrained encoder is loaded for the process.
var ErrUnavailable = errors.New("semantic encoder is unavailable")

// Encoder turns text into a dense embedding vector. Implementations must be
// safe for concurrent use once constructed.
type Encoder interface {
	Encode(ctx context.Context, text string) ([]float32, error)
}

// Describer is implemented by encoders that can name their backend.
type Describer interface {
	Provider() string
	Model() string
}

// EncoderFunc adapts a function to the Encoder interface.
type EncoderFunc func(ctx context.Context, text string) ([]float32, error)

func (f EncoderFunc) Encode(ctx context.Context, text string) ([]float32, error) {
	return f(ctx, text)
}

// Describe returns provider and model of the encoder when it exposes them.
func Describe(enc Encoder) (provider, model string) {
	if d, ok := enc.(Describer); ok {
		return d.Provider(), d.Model()
	}
	return "", ""
}
