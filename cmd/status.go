package cmd

import (
	"context"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/chemsLazar/recrutement-intern-modelIA/internal/ai"
	"github.com/chemsLazar/recrutement-intern-modelIA/internal/competency"
	"github.com/chemsLazar/recrutement-intern-modelIA/internal/filtering"
	"github.com/chemsLazar/recrutement-intern-modelIA/internal/ranking"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Report whether the semantic encoder is live and how ranking is configured",
	Run: func(_ *cobra.Command, _ []string) {
		runStatus()
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

type statusReport struct {
	Version         string             `json:"version"`
	Semantic        bool               `json:"semantic"`
	Provider        string             `json:"provider,omitempty"`
	Model           string             `json:"model,omitempty"`
	MinScore        float64            `json:"minScore"`
	JobFields       []string           `json:"jobFields"`
	CandidateFields []string           `json:"candidateFields"`
	Filters         []filtering.Status `json:"filters"`
}

func runStatus() {
	rt := setup(context.Background(), false)
	defer rt.Close()

	extractor := competency.NewExtractor(rt.config.Extraction.JobFields, rt.config.Extraction.CandidateFields)

	report := statusReport{
		Version:         version,
		Semantic:        rt.loader.Available(),
		MinScore:        ranking.MinScore,
		JobFields:       extractor.JobFields,
		CandidateFields: extractor.CandidateFields,
		Filters:         rt.filters(true).Describe(),
	}
	if rt.loader.Available() {
		report.Provider, report.Model = ai.Describe(rt.loader.Encoder())
	}

	if err := writeJSON(os.Stdout, report); err != nil {
		rt.logger.Fatal("writing status", zap.Error(err))
	}
}
