package scoring

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/chemsLazar/recrutement-intern-modelIA/internal/ai"
	"github.com/chemsLazar/recrutement-intern-modelIA/internal/competency"
)

var (
	ErrNoEncoder         = errors.New("semantic encoder not available")
	ErrDimensionMismatch = errors.New("embedding dimensions differ")
	ErrZeroVector        = errors.New("embedding has zero norm")
)

// Semantic scores blob similarity with a sentence encoder. A nil encoder
// means the encoder is unavailable and every score is 0.
type Semantic struct {
	encoder ai.Encoder
}

func NewSemantic(encoder ai.Encoder) *Semantic {
	return &Semantic{encoder: encoder}
}

// Available reports whether semantic scores can be non-zero.
func (s *Semantic) Available() bool {
	return s != nil && s.encoder != nil
}

// Score encodes both blobs and returns their cosine similarity as a
// percentage clamped to [0, 100]. Any failure yields 0 with the cause.
func (s *Semantic) Score(ctx context.Context, job, candidate *competency.Set) (float64, error) {
	if !s.Available() {
		return 0, ErrNoEncoder
	}

	a, err := s.encoder.Encode(ctx, candidate.Blob())
	if err != nil {
		return 0, fmt.Errorf("encode candidate: %w", err)
	}
	b, err := s.encoder.Encode(ctx, job.Blob())
	if err != nil {
		return 0, fmt.Errorf("encode job: %w", err)
	}

	cos, err := Cosine(a, b)
	if err != nil {
		return 0, err
	}
	return clampPercentage(cos * 100), nil
}

// Cosine returns the cosine similarity of two embeddings, accumulated in float64.
func Cosine(a, b []float32) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("%w: %d != %d", ErrDimensionMismatch, len(a), len(b))
	}

	var dot, normA, normB float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		normA += x * x
		normB += y * y
	}

	if normA == 0 || normB == 0 {
		return 0, ErrZeroVector
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB)), nil
}
