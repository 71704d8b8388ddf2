package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/chemsLazar/recrutement-intern-modelIA/internal/ranking"
	"github.com/chemsLazar/recrutement-intern-modelIA/internal/records"
)

const (
	PromptPrint               = "Print results"
	PromptResultsToFile       = "Dump results to file"
	PromptAppendToExcludeFile = "Append all results to exclude file"
	PromptExit                = "Exit"
)

var errExit = errors.New("exit requested")

// rankSpec describes one query direction of the ranking commands.
type rankSpec struct {
	direction ranking.Direction
	use       string
	short     string

	// payloadPivot and payloadBatch are the keys of a request-shaped payload.
	payloadPivot string
	payloadBatch string

	// pivotFlag and batchFlag name the file flags used without a payload.
	pivotFlag string
	batchFlag string
}

var rankSpecs = []rankSpec{
	{
		direction:    ranking.JobsForCandidate,
		use:          "jobs-for-candidate",
		short:        "Rank job offers for one candidate profile",
		payloadPivot: "userProfile",
		payloadBatch: "jobOffers",
		pivotFlag:    "profile",
		batchFlag:    "jobs",
	},
	{
		direction:    ranking.CandidatesForJob,
		use:          "candidates-for-job",
		short:        "Rank candidate profiles for one job offer",
		payloadPivot: "jobOffer",
		payloadBatch: "userProfiles",
		pivotFlag:    "job",
		batchFlag:    "profiles",
	},
}

func init() {
	for _, spec := range rankSpecs {
		rootCmd.AddCommand(newRankCmd(spec))
	}
}

func newRankCmd(spec rankSpec) *cobra.Command {
	cmd := &cobra.Command{
		Use:   spec.use,
		Short: spec.short,
		Run: func(cmd *cobra.Command, _ []string) {
			runRank(cmd, spec)
		},
	}

	cmd.Flags().StringP("payload", "p", "", fmt.Sprintf("request file with %q and %q keys (JSON or YAML)", spec.payloadPivot, spec.payloadBatch))
	cmd.Flags().String(spec.pivotFlag, "", "file with the record(s) to rank for; prompts when it holds several")
	cmd.Flags().String(spec.batchFlag, "", "file with the records to rank")
	cmd.Flags().String("pick", "", "id (matricule or id) of the record to rank for when the file holds several")
	cmd.Flags().Bool("best", false, "keep only best matches (ranking.best-match-score)")
	cmd.Flags().Bool("breakdown", false, "include per-estimator scores in the output")
	cmd.Flags().BoolP("interactive", "i", false, "choose what to do with the results")
	cmd.Flags().StringP("exclude-file", "e", "", "special file with records to exclude. Default is unset.")
	cmd.Flags().IntP("limit", "l", 0, "maximum number of results, 0 means all")

	cmd.PreRun = func(cmd *cobra.Command, _ []string) {
		viper.BindPFlag("ranking.exclude-file", cmd.Flags().Lookup("exclude-file"))
		viper.BindPFlag("ranking.limit", cmd.Flags().Lookup("limit"))
	}

	return cmd
}

func runRank(cmd *cobra.Command, spec rankSpec) {
	ctx := context.Background()

	breakdown, _ := cmd.Flags().GetBool("breakdown")
	rt := setup(ctx, breakdown)
	defer rt.Close()

	pivot, batch, err := loadRankInput(cmd, spec)
	if err != nil {
		rt.logger.Fatal("loading input", zap.Error(err))
	}

	rt.logger.Info("ranking",
		zap.String("direction", string(spec.direction)),
		zap.String("pivot", pivot.Label()),
		zap.Int("counterparts", batch.Len()),
		zap.Bool("semantic", rt.engine.SemanticAvailable()),
	)

	results, err := rt.ranker.Rank(ctx, pivot, batch, spec.direction)
	if err != nil {
		rt.logger.Fatal("ranking failed", zap.Error(err))
	}

	bestOnly, _ := cmd.Flags().GetBool("best")
	results, err = rt.filters(bestOnly).RunFilters(ctx, results)
	if err != nil {
		rt.logger.Fatal("filtering failed", zap.Error(err))
	}

	rt.logger.Info("ranking completed", zap.Int("results", results.Len()))

	if interactive, _ := cmd.Flags().GetBool("interactive"); !interactive {
		if err := writeJSON(os.Stdout, results.List()); err != nil {
			rt.logger.Fatal("writing results", zap.Error(err))
		}
		return
	}

	for {
		prompt := promptui.Select{
			Label: "Proceed?",
			Items: []string{PromptPrint, PromptResultsToFile, PromptAppendToExcludeFile, PromptExit},
		}
		_, action, err := prompt.Run()
		if err != nil {
			rt.logger.Fatal("exiting", zap.Error(err))
		}

		if err := handleAction(action, rt, results); err != nil {
			if errors.Is(err, errExit) {
				return
			}
			rt.logger.Fatal("exiting", zap.Error(err))
		}
	}
}

func handleAction(action string, rt *runtime, results *ranking.Results) error {
	switch action {
	case PromptPrint:
		return writeJSON(os.Stdout, results.List())
	case PromptResultsToFile:
		filename, err := results.DumpToTmpFile()
		if err != nil {
			return fmt.Errorf("dump results to file: %w", err)
		}
		rt.logger.Info("dumping result to file", zap.String("filename", filename))
		return nil
	case PromptAppendToExcludeFile:
		excludeFile := rt.config.Ranking.ExcludeFile
		if excludeFile == "" {
			rt.logger.Warn("exclude file is not configured", zap.String("hint", "set ranking.exclude-file or --exclude-file"))
			return nil
		}
		if err := appendToExcludeFile(excludeFile, results.Records(), records.ExcludeActorUser, "excluded from interactive session"); err != nil {
			return err
		}
		rt.logger.Info("appended to exclude file", zap.String("filename", excludeFile), zap.Int("count", results.Len()))
		return nil
	case PromptExit:
		rt.logger.Info("exiting", zap.String("reason", "got exit from prompt"))
		return errExit
	default:
		return fmt.Errorf("invalid action: %s", action)
	}
}

func appendToExcludeFile(path string, rs *records.Records, actor, reason string) error {
	excluded, err := records.GetExcludedFromFile(path)
	if err != nil {
		return err
	}

	excluded.Append(rs.ToExcluded(actor, reason))

	return excluded.ToFile(path)
}

// loadRankInput reads either a payload file or a pair of record files.
func loadRankInput(cmd *cobra.Command, spec rankSpec) (records.Record, *records.Records, error) {
	payloadPath, _ := cmd.Flags().GetString("payload")
	if payloadPath != "" {
		payload, err := records.LoadPayload(payloadPath, spec.payloadPivot, spec.payloadBatch)
		if err != nil {
			return nil, nil, err
		}
		return payload.Pivot, payload.Counterparts, nil
	}

	pivotPath, _ := cmd.Flags().GetString(spec.pivotFlag)
	batchPath, _ := cmd.Flags().GetString(spec.batchFlag)
	if pivotPath == "" || batchPath == "" {
		return nil, nil, fmt.Errorf("either --payload or both --%s and --%s are required", spec.pivotFlag, spec.batchFlag)
	}

	pivots, err := records.Load(pivotPath)
	if err != nil {
		return nil, nil, err
	}

	pick, _ := cmd.Flags().GetString("pick")
	pivot, err := choosePivot(pivots, pick)
	if err != nil {
		return nil, nil, err
	}

	batch, err := records.Load(batchPath)
	if err != nil {
		return nil, nil, err
	}

	return pivot, batch, nil
}

// choosePivot picks the record to rank for: by id when given, the only record
// when there is one, or interactively otherwise.
func choosePivot(rs *records.Records, pick string) (records.Record, error) {
	if rs.Len() == 0 {
		return nil, errors.New("no record to rank for")
	}

	if pick != "" {
		record := rs.FindByID(pick)
		if record == nil {
			return nil, fmt.Errorf("there is no record with id %s", pick)
		}
		return record, nil
	}

	if rs.Len() == 1 {
		return rs.Items[0], nil
	}

	prompt := promptui.Select{
		Label: "Choose a record and press ENTER",
		Items: rs.Labels(),
	}
	idx, _, err := prompt.Run()
	if err != nil {
		return nil, err
	}
	return rs.Items[idx], nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
