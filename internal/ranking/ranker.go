// Package ranking scores a pivot record against a batch of counterparts and
// returns the relevant counterparts ordered by score.
package ranking

import (
	"context"
	"runtime"
	"sort"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/chemsLazar/recrutement-intern-modelIA/internal/logger"
	"github.com/chemsLazar/recrutement-intern-modelIA/internal/records"
	"github.com/chemsLazar/recrutement-intern-modelIA/internal/scoring"
)

// MinScore is the relevance threshold: results scoring below it are dropped.
const MinScore = 10.0

// PairScorer scores one job/candidate pair.
type PairScorer interface {
	Score(ctx context.Context, job, candidate records.Record) (scoring.Breakdown, error)
}

type Options struct {
	// Workers bounds the number of pairs scored concurrently. Defaults to GOMAXPROCS.
	Workers int
	// WithBreakdown renders per-estimator scores with each result.
	WithBreakdown bool
}

type Ranker struct {
	scorer  PairScorer
	workers int
	details bool
	logger  *zap.Logger
}

func New(scorer PairScorer, opts Options, log *zap.Logger) *Ranker {
	if log == nil {
		log = zap.NewNop()
	}
	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	return &Ranker{
		scorer:  scorer,
		workers: workers,
		details: opts.WithBreakdown,
		logger:  log,
	}
}

// JobsForCandidate ranks jobs for one candidate.
func (r *Ranker) JobsForCandidate(ctx context.Context, candidate records.Record, jobs *records.Records) (*Results, error) {
	return r.Rank(ctx, candidate, jobs, JobsForCandidate)
}

// CandidatesForJob ranks candidates for one job.
func (r *Ranker) CandidatesForJob(ctx context.Context, job records.Record, candidates *records.Records) (*Results, error) {
	return r.Rank(ctx, job, candidates, CandidatesForJob)
}

// Rank scores every counterpart against the pivot, sorts the results by
// descending score and drops those under MinScore. Ties keep batch order.
// A pair that fails to score counts as 0; only a cancelled context aborts
// the batch.
func (r *Ranker) Rank(ctx context.Context, pivot records.Record, batch *records.Records, dir Direction) (*Results, error) {
	n := batch.Len()
	items := make([]*Result, n)

	g := errgroup.Group{}
	g.SetLimit(r.workers)

	for i := 0; i < n; i++ {
		counterpart := batch.Items[i]
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			items[i] = r.score(ctx, pivot, counterpart, dir)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	sort.SliceStable(items, func(a, b int) bool {
		return items[a].Score > items[b].Score
	})

	results := &Results{Items: items}
	dropped := results.Below(MinScore)

	r.logger.Debug("ranking completed",
		zap.String("direction", string(dir)),
		zap.String("pivot", pivot.Label()),
		zap.Int("scored", n),
		zap.Int("below_threshold", len(dropped)),
		zap.Int("returned", results.Len()),
	)

	return results, nil
}

// score always orders the pair as (job, candidate) so both directions
// produce the same score for the same pair.
func (r *Ranker) score(ctx context.Context, pivot, counterpart records.Record, dir Direction) *Result {
	job, candidate := pivot, counterpart
	if dir == JobsForCandidate {
		job, candidate = counterpart, pivot
	}

	b, err := r.scorer.Score(ctx, job, candidate)
	if err != nil {
		logger.WithFields(r.logger, logger.PairFields(job.Label(), candidate.Label())...).
			Warn("pair scoring failed, counted as 0", zap.Error(err))
		b = scoring.Breakdown{Errors: []string{err.Error()}}
	}

	return &Result{
		Direction:     dir,
		Record:        counterpart,
		Score:         b.Score,
		Breakdown:     b,
		WithBreakdown: r.details,
	}
}
