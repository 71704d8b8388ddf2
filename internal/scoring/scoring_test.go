package scoring

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/chemsLazar/recrutement-intern-modelIA/internal/ai"
	"github.com/chemsLazar/recrutement-intern-modelIA/internal/competency"
	"github.com/chemsLazar/recrutement-intern-modelIA/internal/records"
)

func job(skills ...any) records.Record {
	return records.Record{"title": "Backend", "requiredSkills": skills}
}

func candidate(skills ...any) records.Record {
	return records.Record{"firstName": "Ada", "competences": skills}
}

func constantEncoder(vec ...float32) ai.Encoder {
	return ai.EncoderFunc(func(context.Context, string) ([]float32, error) {
		return vec, nil
	})
}

func TestDirectScore(t *testing.T) {
	tests := []struct {
		name      string
		job       []string
		candidate []string
		pct       float64
		count     float64
	}{
		{"exact", []string{"python", "django"}, []string{"django", "python"}, 100, 2},
		{"substring", []string{"gestion de projet"}, []string{"projet"}, 80, 0.8},
		{"reverse substring", []string{"go"}, []string{"golang"}, 80, 0.8},
		{"shared word", []string{"api rest"}, []string{"rest services"}, 50, 0.5},
		{"none", []string{"gestion rh"}, []string{"java"}, 0, 0},
		{"empty job", nil, []string{"java"}, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := DirectScore(competency.NewSet(tt.job...), competency.NewSet(tt.candidate...))
			assert.InDelta(t, tt.pct, d.Percentage, 1e-9)
			assert.InDelta(t, tt.count, d.MatchCount, 1e-9)
			assert.Equal(t, tt.count > 0, d.HadMatch())
		})
	}
}

func TestDirectScoreIsFirstMatch(t *testing.T) {
	// "data" matches "big data" by shared word before reaching the exact entry.
	d := DirectScore(competency.NewSet("data science"), competency.NewSet("big data", "data science"))
	assert.InDelta(t, 50.0, d.Percentage, 1e-9)
}

func TestVectorScore(t *testing.T) {
	a, err := VectorScore(
		competency.NewSet("Python", "Django", "API REST"),
		competency.NewSet("Python", "Django", "API REST", "PostgreSQL"),
	)
	require.NoError(t, err)
	assert.InDelta(t, 79.9519, a, 1e-3)

	c, err := VectorScore(competency.NewSet("Gestion de projet"), competency.NewSet("projet"))
	require.NoError(t, err)
	assert.InDelta(t, 33.5176, c, 1e-3)

	b, err := VectorScore(
		competency.NewSet("Gestion RH", "Communication"),
		competency.NewSet("Java", "Spring Boot", "Oracle"),
	)
	require.NoError(t, err)
	assert.Zero(t, b)
}

func TestVectorScoreSymmetricAndBounded(t *testing.T) {
	x := competency.NewSet("go", "kubernetes", "ci cd")
	y := competency.NewSet("kubernetes", "helm")

	xy, err := VectorScore(x, y)
	require.NoError(t, err)
	yx, err := VectorScore(y, x)
	require.NoError(t, err)

	assert.InDelta(t, xy, yx, 1e-9)
	assert.GreaterOrEqual(t, xy, 0.0)
	assert.LessOrEqual(t, xy, 100.0)

	same, err := VectorScore(x, x)
	require.NoError(t, err)
	assert.InDelta(t, 100.0, same, 1e-9)
}

func TestVectorScoreEmptyVocabulary(t *testing.T) {
	_, err := VectorScore(competency.NewSet("c", "r"), competency.NewSet("a"))
	assert.ErrorIs(t, err, ErrEmptyVocabulary)
}

func TestEstimatorsNeutralOnEmptySet(t *testing.T) {
	full := competency.NewSet("python django", "sql")

	for _, tt := range []struct {
		name           string
		job, candidate *competency.Set
	}{
		{name: "empty candidate", job: full, candidate: competency.NewSet()},
		{name: "empty job", job: competency.NewSet(), candidate: full},
	} {
		t.Run(tt.name, func(t *testing.T) {
			direct := DirectScore(tt.job, tt.candidate)
			assert.Zero(t, direct.Percentage)
			assert.Zero(t, direct.MatchCount)
			assert.False(t, direct.HadMatch())

			vector, err := VectorScore(tt.job, tt.candidate)
			require.NoError(t, err)
			assert.Zero(t, vector)
		})
	}
}

func TestCosine(t *testing.T) {
	cos, err := Cosine([]float32{1, 0}, []float32{1, 0})
	require.NoError(t, err)
	assert.InDelta(t, 1.0, cos, 1e-9)

	_, err = Cosine([]float32{1, 0}, []float32{1})
	assert.ErrorIs(t, err, ErrDimensionMismatch)

	_, err = Cosine([]float32{0, 0}, []float32{1, 0})
	assert.ErrorIs(t, err, ErrZeroVector)
}

func TestSemanticScore(t *testing.T) {
	jobSet := competency.NewSet("python")
	candSet := competency.NewSet("django")

	_, err := NewSemantic(nil).Score(context.Background(), jobSet, candSet)
	assert.ErrorIs(t, err, ErrNoEncoder)

	got, err := NewSemantic(constantEncoder(1, 2, 3)).Score(context.Background(), jobSet, candSet)
	require.NoError(t, err)
	assert.InDelta(t, 100.0, got, 1e-6)

	opposite := ai.EncoderFunc(func(_ context.Context, text string) ([]float32, error) {
		if text == "python" {
			return []float32{1, 0}, nil
		}
		return []float32{-1, 0}, nil
	})
	got, err = NewSemantic(opposite).Score(context.Background(), jobSet, candSet)
	require.NoError(t, err)
	assert.Zero(t, got, "negative cosine is clamped")
}

func TestFuse(t *testing.T) {
	tests := []struct {
		name                     string
		direct, vector, semantic float64
		hadDirect                bool
		expect                   float64
	}{
		{"blend", 100, 80, 50, true, 40 + 20 + 16},
		{"no match with semantic", 0, 30, 60, false, 48},
		{"no match vector wins", 0, 70, 10, false, 56},
		{"no match no semantic", 0, 50, 0, false, 30},
		{"nothing", 0, 0, 0, false, 0},
		{"clamped", 300, 300, 300, true, 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expect, Fuse(tt.direct, tt.vector, tt.semantic, tt.hadDirect), 1e-9)
		})
	}
}

func TestEngineScenarios(t *testing.T) {
	e := NewEngine()
	ctx := context.Background()

	a, err := e.Score(ctx, job("Python", "Django", "API REST"), candidate("Python", "Django", "API REST", "PostgreSQL"))
	require.NoError(t, err)
	assert.InDelta(t, 100.0, a.Direct, 1e-9)
	assert.InDelta(t, 55.99, a.Score, 1e-2)
	assert.Empty(t, a.Errors)

	b, err := e.Score(ctx, job("Gestion RH", "Communication"), candidate("Java", "Spring Boot", "Oracle"))
	require.NoError(t, err)
	assert.Zero(t, b.MatchCount)
	assert.Zero(t, b.Score)

	c, err := e.Score(ctx, job("Gestion de projet"), candidate("projet"))
	require.NoError(t, err)
	assert.InDelta(t, 80.0, c.Direct, 1e-9)
	assert.InDelta(t, 38.7035, c.Score, 1e-3)
}

func TestEngineWithEncoder(t *testing.T) {
	e := NewEngine(WithEncoder(constantEncoder(0.3, 0.4)))
	require.True(t, e.SemanticAvailable())

	a, err := e.Score(context.Background(), job("Python", "Django", "API REST"), candidate("Python", "Django", "API REST", "PostgreSQL"))
	require.NoError(t, err)
	assert.InDelta(t, 100.0, a.Semantic, 1e-6)
	assert.GreaterOrEqual(t, a.Score, 70.0)
}

func TestEngineEncoderFailureDegrades(t *testing.T) {
	core, observed := observer.New(zapcore.WarnLevel)
	failing := ai.EncoderFunc(func(context.Context, string) ([]float32, error) {
		return nil, errors.New("model offline")
	})
	e := NewEngine(WithEncoder(failing), WithLogger(zap.New(core)))

	c, err := e.Score(context.Background(), job("Gestion de projet"), candidate("projet"))
	require.NoError(t, err)
	assert.Zero(t, c.Semantic)
	assert.InDelta(t, 38.7035, c.Score, 1e-3)
	require.Len(t, c.Errors, 1)
	assert.Contains(t, c.Errors[0], "model offline")
	assert.Equal(t, 1, observed.FilterMessage("semantic estimator failed").Len())
}

func TestEngineEmptySetsScoreZero(t *testing.T) {
	e := NewEngine(WithEncoder(constantEncoder(1)))

	got, err := e.Score(context.Background(), job(), candidate("go"))
	require.NoError(t, err)
	assert.Zero(t, got.Score)

	got, err = e.Score(context.Background(), job("go"), records.Record{})
	require.NoError(t, err)
	assert.Zero(t, got.Score)
}

func TestEngineSingleCharacterCompetencies(t *testing.T) {
	e := NewEngine()

	got, err := e.Score(context.Background(), job("C"), candidate("R"))
	require.NoError(t, err)
	assert.Zero(t, got.Score)
	require.Len(t, got.Errors, 1)
	assert.Contains(t, got.Errors[0], ErrEmptyVocabulary.Error())
}

func TestEngineRecoversFromPanics(t *testing.T) {
	panicking := ai.EncoderFunc(func(context.Context, string) ([]float32, error) {
		panic("boom")
	})
	e := NewEngine(WithEncoder(panicking))

	got, err := e.Score(context.Background(), job("go"), candidate("go"))
	require.Error(t, err)
	assert.Zero(t, got.Score)
}

func TestEngineScoresStayInRange(t *testing.T) {
	e := NewEngine(WithEncoder(constantEncoder(1, 1)))
	pairs := [][2][]any{
		{{"go", "go"}, {"go"}},
		{{"Go", "Rust", "Zig"}, {"go", "c++", "rust programming"}},
		{{""}, {"anything"}},
		{{"a b c d"}, {"b"}},
	}

	for _, p := range pairs {
		got, err := e.Score(context.Background(), job(p[0]...), candidate(p[1]...))
		require.NoError(t, err)
		assert.GreaterOrEqual(t, got.Score, 0.0)
		assert.LessOrEqual(t, got.Score, 100.0)
	}
}
