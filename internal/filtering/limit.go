package filtering

import (
	"context"
	"fmt"
	"strconv"

	"github.com/chemsLazar/recrutement-intern-modelIA/internal/ranking"
)

type limitFilter struct {
	limit int
}

// NewLimit keeps the first limit results. Zero means no limit.
func NewLimit(limit int) Filter {
	return &limitFilter{limit: limit}
}

func (f *limitFilter) Name() string { return "limit" }

func (f *limitFilter) Disable(string) {}

func (f *limitFilter) IsEnabled() bool { return true }

func (f *limitFilter) Validate() error {
	if f.limit < 0 {
		return fmt.Errorf("limit must not be negative, got %d", f.limit)
	}
	return nil
}

func (f *limitFilter) Apply(_ context.Context, r *ranking.Results) (*ranking.Results, Step, error) {
	initial := r.Len()
	dropped := r.Truncate(f.limit)
	return r, Step{Initial: initial, Dropped: len(dropped), Left: r.Len()}, nil
}

func (f *limitFilter) Status() Status {
	details := map[string]string{}
	if f.limit > 0 {
		details["limit"] = strconv.Itoa(f.limit)
	}
	return Status{Name: f.Name(), Enabled: true, Details: details}
}
