package filtering

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/chemsLazar/recrutement-intern-modelIA/internal/ranking"
	"github.com/chemsLazar/recrutement-intern-modelIA/internal/records"
)

type departmentsFilter struct {
	departments []string
	logger      *zap.Logger
}

// NewExcludedDepartments creates a filter that removes job results whose
// departement is listed. Candidate results carry no department and pass.
func NewExcludedDepartments(departments []string, logger *zap.Logger) Filter {
	if logger == nil {
		logger = zap.NewNop()
	}

	cleaned := make([]string, 0, len(departments))
	for _, d := range departments {
		if d = strings.TrimSpace(d); d != "" {
			cleaned = append(cleaned, d)
		}
	}

	return &departmentsFilter{departments: cleaned, logger: logger}
}

func (f *departmentsFilter) Name() string { return "departments" }

func (f *departmentsFilter) Disable(string) {}

func (f *departmentsFilter) IsEnabled() bool { return true }

func (f *departmentsFilter) Validate() error { return nil }

func (f *departmentsFilter) Apply(_ context.Context, r *ranking.Results) (*ranking.Results, Step, error) {
	initial := r.Len()
	if len(f.departments) == 0 {
		return r, Step{Initial: initial, Dropped: 0, Left: r.Len()}, nil
	}

	excluded := r.Exclude(records.DepartmentField, f.departments)
	if len(excluded) > 0 {
		f.logger.Info("excluding results by departments",
			zap.Strings("excluded_departments", f.departments),
			zap.Strings("excluded", excluded),
			zap.Int("results_left", r.Len()),
		)
	}

	return r, Step{Initial: initial, Dropped: len(excluded), Left: r.Len()}, nil
}

func (f *departmentsFilter) Status() Status {
	details := map[string]string{}
	if len(f.departments) > 0 {
		details["departments"] = strings.Join(f.departments, ",")
	}
	return Status{Name: f.Name(), Enabled: true, Details: details}
}
