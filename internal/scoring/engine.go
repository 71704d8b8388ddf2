package scoring

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/chemsLazar/recrutement-intern-modelIA/internal/ai"
	"github.com/chemsLazar/recrutement-intern-modelIA/internal/competency"
	"github.com/chemsLazar/recrutement-intern-modelIA/internal/logger"
	"github.com/chemsLazar/recrutement-intern-modelIA/internal/records"
	"github.com/chemsLazar/recrutement-intern-modelIA/internal/utils"
)

const logBlobLimit = 120

// Breakdown carries every intermediate score of a pair.
type Breakdown struct {
	Direct     float64  `json:"direct"`
	MatchCount float64  `json:"matchCount"`
	Vector     float64  `json:"vector"`
	Semantic   float64  `json:"semantic"`
	Score      float64  `json:"score"`
	Errors     []string `json:"errors,omitempty"`
}

// Engine scores job/candidate pairs. It is safe for concurrent use as long
// as the encoder is.
type Engine struct {
	extractor *competency.Extractor
	semantic  *Semantic
	logger    *zap.Logger
}

type Option func(*Engine)

// WithExtractor overrides the default competency fields.
func WithExtractor(e *competency.Extractor) Option {
	return func(en *Engine) {
		if e != nil {
			en.extractor = e
		}
	}
}

// WithEncoder enables the semantic estimator.
func WithEncoder(enc ai.Encoder) Option {
	return func(en *Engine) {
		en.semantic = NewSemantic(enc)
	}
}

func WithLogger(l *zap.Logger) Option {
	return func(en *Engine) {
		if l != nil {
			en.logger = l
		}
	}
}

func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		extractor: competency.NewExtractor(nil, nil),
		semantic:  NewSemantic(nil),
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// SemanticAvailable reports whether the engine has a semantic encoder.
func (e *Engine) SemanticAvailable() bool {
	return e.semantic.Available()
}

// Score returns the compatibility of a candidate with a job in [0, 100].
// Estimator failures never abort scoring: they contribute 0 and are listed
// in Breakdown.Errors. The returned error is non-nil only when scoring itself
// panicked, in which case the score is 0.
func (e *Engine) Score(ctx context.Context, job, candidate records.Record) (b Breakdown, err error) {
	log := logger.WithFields(e.logger, logger.PairFields(job.Label(), candidate.Label())...)

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("scoring panicked: %v", r)
			b = Breakdown{Errors: []string{err.Error()}}
			log.Error("scoring failed", zap.Error(err))
		}
	}()

	jobSet := e.extractor.Extract(job, competency.RoleJob)
	candidateSet := e.extractor.Extract(candidate, competency.RoleCandidate)

	if jobSet.Len() == 0 || candidateSet.Len() == 0 {
		log.Debug("empty competency set",
			zap.Int("job_competencies", jobSet.Len()),
			zap.Int("candidate_competencies", candidateSet.Len()),
		)
		return Breakdown{}, nil
	}

	return e.ScoreSets(ctx, jobSet, candidateSet, log), nil
}

// ScoreSets runs the estimators and the fusion policy on extracted sets.
func (e *Engine) ScoreSets(ctx context.Context, job, candidate *competency.Set, log *zap.Logger) Breakdown {
	if log == nil {
		log = e.logger
	}

	direct := DirectScore(job, candidate)
	b := Breakdown{
		Direct:     direct.Percentage,
		MatchCount: direct.MatchCount,
	}

	vector, err := VectorScore(job, candidate)
	if err != nil {
		b.Errors = append(b.Errors, "vector: "+err.Error())
		vector = 0
	}
	b.Vector = vector

	semantic, err := e.semantic.Score(ctx, job, candidate)
	if err != nil {
		if !errors.Is(err, ErrNoEncoder) {
			b.Errors = append(b.Errors, "semantic: "+err.Error())
			log.Warn("semantic estimator failed", zap.Error(err))
		}
		semantic = 0
	}
	b.Semantic = semantic

	b.Score = Fuse(b.Direct, b.Vector, b.Semantic, direct.HadMatch())

	log.Debug("pair scored",
		zap.String("job_competencies", utils.TruncateForLog(job.Blob(), logBlobLimit)),
		zap.String("candidate_competencies", utils.TruncateForLog(candidate.Blob(), logBlobLimit)),
		zap.Float64("direct", b.Direct),
		zap.Float64("vector", b.Vector),
		zap.Float64("semantic", b.Semantic),
		zap.Float64("score", b.Score),
	)

	return b
}
