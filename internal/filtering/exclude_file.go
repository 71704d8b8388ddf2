package filtering

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/chemsLazar/recrutement-intern-modelIA/internal/ranking"
	"github.com/chemsLazar/recrutement-intern-modelIA/internal/records"
)

type excludeFileFilter struct {
	path   string
	logger *zap.Logger
}

// NewExcludeFile creates a filter that removes results listed in an exclude file.
func NewExcludeFile(path string, logger *zap.Logger) Filter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &excludeFileFilter{
		path:   strings.TrimSpace(path),
		logger: logger,
	}
}

func (f *excludeFileFilter) Name() string { return "exclude_file" }

func (f *excludeFileFilter) Disable(string) {}

func (f *excludeFileFilter) IsEnabled() bool { return true }

func (f *excludeFileFilter) Validate() error { return nil }

func (f *excludeFileFilter) Apply(_ context.Context, r *ranking.Results) (*ranking.Results, Step, error) {
	initial := r.Len()
	if f.path == "" {
		return r, Step{Initial: initial, Dropped: 0, Left: r.Len()}, nil
	}

	excluded, err := records.GetExcludedFromFile(f.path)
	if err != nil {
		return r, Step{}, fmt.Errorf("getting excluded records from file: %w", err)
	}

	removed := r.Exclude(records.IDField, excluded.IDs())
	if len(removed) > 0 {
		f.logger.Info("excluding results based on exclude file",
			zap.String("path", f.path),
			zap.Strings("excluded", removed),
			zap.Int("results_left", r.Len()),
		)
	}

	return r, Step{Initial: initial, Dropped: len(removed), Left: r.Len()}, nil
}

func (f *excludeFileFilter) Status() Status {
	details := map[string]string{}
	if f.path != "" {
		details["path"] = f.path
	}
	return Status{Name: f.Name(), Enabled: true, Details: details}
}
