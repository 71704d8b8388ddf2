package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/chemsLazar/recrutement-intern-modelIA/internal/filtering"
	"github.com/chemsLazar/recrutement-intern-modelIA/internal/ranking"
	"github.com/chemsLazar/recrutement-intern-modelIA/internal/records"
)

const noStrongMatchMsg = "Aucun profil fortement compatible trouvé"

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Rank every candidate profile for every job offer and report best matches",
	PreRun: func(cmd *cobra.Command, _ []string) {
		viper.BindPFlag("ranking.exclude-file", cmd.Flags().Lookup("exclude-file"))
	},
	Run: func(cmd *cobra.Command, _ []string) {
		runBatch(cmd)
	},
}

func init() {
	rootCmd.AddCommand(batchCmd)

	batchCmd.Flags().String("jobs", "", "file with job offers")
	batchCmd.Flags().String("profiles", "", "file with candidate profiles")
	batchCmd.Flags().String("format", "text", "report format: text or json")
	batchCmd.Flags().StringP("exclude-file", "e", "", "special file with records to exclude. Default is unset.")
	batchCmd.Flags().Bool("append-best", false, "append best matches to the exclude file")
}

// batchSection is the report for one job offer.
type batchSection struct {
	Job         records.Record    `json:"jobOffer"`
	Results     []*ranking.Result `json:"results"`
	BestMatches []*ranking.Result `json:"bestMatches"`
	Threshold   float64           `json:"bestMatchScore"`
}

func runBatch(cmd *cobra.Command) {
	ctx := context.Background()

	rt := setup(ctx, false)
	defer rt.Close()

	jobsPath, _ := cmd.Flags().GetString("jobs")
	profilesPath, _ := cmd.Flags().GetString("profiles")
	if jobsPath == "" || profilesPath == "" {
		rt.logger.Fatal("both --jobs and --profiles are required")
	}

	jobs, err := records.Load(jobsPath)
	if err != nil {
		rt.logger.Fatal("loading job offers", zap.Error(err))
	}
	profiles, err := records.Load(profilesPath)
	if err != nil {
		rt.logger.Fatal("loading candidate profiles", zap.Error(err))
	}

	rt.logger.Info("starting batch",
		zap.Int("jobs", jobs.Len()),
		zap.Int("profiles", profiles.Len()),
		zap.Bool("semantic", rt.engine.SemanticAvailable()),
	)

	sections := make([]*batchSection, 0, jobs.Len())
	for _, job := range jobs.Items {
		section, err := rankJob(ctx, rt, job, profiles)
		if err != nil {
			rt.logger.Fatal("ranking job offer", zap.String("job", job.Label()), zap.Error(err))
		}
		sections = append(sections, section)
	}

	if appendBest, _ := cmd.Flags().GetBool("append-best"); appendBest {
		excludeFile := rt.config.Ranking.ExcludeFile
		if excludeFile == "" {
			rt.logger.Fatal("--append-best needs an exclude file", zap.String("hint", "set ranking.exclude-file or --exclude-file"))
		}
		count, err := appendBestMatches(excludeFile, sections)
		if err != nil {
			rt.logger.Fatal("appending best matches", zap.Error(err))
		}
		rt.logger.Info("appended best matches to exclude file", zap.String("filename", excludeFile), zap.Int("count", count))
	}

	format, _ := cmd.Flags().GetString("format")
	switch strings.ToLower(format) {
	case "json":
		err = writeJSON(os.Stdout, sections)
	case "text":
		for _, section := range sections {
			if err = renderBatchSection(os.Stdout, section); err != nil {
				break
			}
		}
	default:
		err = fmt.Errorf("unknown format %q", format)
	}
	if err != nil {
		rt.logger.Fatal("writing report", zap.Error(err))
	}
}

func rankJob(ctx context.Context, rt *runtime, job records.Record, profiles *records.Records) (*batchSection, error) {
	all, err := rt.ranker.CandidatesForJob(ctx, job, profiles)
	if err != nil {
		return nil, err
	}

	all, err = rt.filters(false).RunFilters(ctx, all)
	if err != nil {
		return nil, err
	}

	best := &ranking.Results{Items: append([]*ranking.Result(nil), all.Items...)}
	threshold := rt.bestMatchScore()
	best, err = filtering.New([]filtering.Filter{filtering.NewBestMatch(threshold, rt.logger)}, rt.logger).RunFilters(ctx, best)
	if err != nil {
		return nil, err
	}

	return &batchSection{
		Job:         job,
		Results:     all.List(),
		BestMatches: best.List(),
		Threshold:   threshold,
	}, nil
}

func renderBatchSection(w io.Writer, s *batchSection) error {
	summary := s.Job.Summary()
	title := s.Job.JobTitle()
	if title == "" {
		title = "N/A"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "\n=== %s (%s) ===\n", title, strings.TrimSpace(summary.Departement))
	b.WriteString("-- All Scores --\n")
	for _, r := range s.Results {
		fmt.Fprintf(&b, "  - %s\n", resultLine(r))
	}

	fmt.Fprintf(&b, "-- Best Matches (score >= %g%%) --\n", s.Threshold)
	if len(s.BestMatches) == 0 {
		fmt.Fprintf(&b, "  %s (score >= %g%%)\n", noStrongMatchMsg, s.Threshold)
	}
	for _, r := range s.BestMatches {
		fmt.Fprintf(&b, "  - %s\n", resultLine(r))
	}

	_, err := io.WriteString(w, b.String())
	return err
}

func resultLine(r *ranking.Result) string {
	return fmt.Sprintf("%s | Score: %.2f%%", r.Record.Label(), r.Score)
}

// appendBestMatches records every best match in the exclude file, tagged with
// the job it was matched to.
func appendBestMatches(path string, sections []*batchSection) (int, error) {
	count := 0
	for _, s := range sections {
		if len(s.BestMatches) == 0 {
			continue
		}

		matched := (&ranking.Results{Items: s.BestMatches}).Records()
		reason := fmt.Sprintf("best match for %s (score >= %g%%)", s.Job.Label(), s.Threshold)
		if err := appendToExcludeFile(path, matched, records.ExcludeActorScore, reason); err != nil {
			return count, err
		}
		count += matched.Len()
	}

	return count, nil
}
