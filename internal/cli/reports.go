package cli

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"quiz-client/internal/app"
	"quiz-client/internal/domain"
)

func newResultsCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "results <quiz-id>",
		Short: "Show the results of a finished quiz",
		Args:  cobra.ExactArgs(1),
		RunE: withRuntime(opts, func(cmd *cobra.Command, args []string, rt *runtime) error {
			if _, err := uuid.Parse(args[0]); err != nil {
				return fmt.Errorf("invalid quiz id %q: %w", args[0], err)
			}
			if !rt.store.IsLoggedIn(cmd.Context()) {
				return errNotLoggedIn
			}
			return showResults(cmd.Context(), rt, args[0])
		}),
	}
}

// showResults fetches and prints results, archiving them when an archive is
// reachable.
func showResults(ctx context.Context, rt *runtime, quizID string) error {
	archive, err := rt.resultsArchive(ctx)
	if err != nil {
		rt.log.Warn("results archive unavailable", zap.Error(err))
	}
	results := app.NewResultsController(rt.client, archive, rt.log.Named("results"))
	defer results.Close()

	results.LoadResults(quizID)
	r, err := await(ctx, results.ResultsState())
	if err != nil {
		return err
	}
	printResults(rt.out, r)
	return nil
}

func newProgressCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "progress",
		Short: "Show answer accuracy overall and per category",
		Args:  cobra.NoArgs,
		RunE: withRuntime(opts, func(cmd *cobra.Command, args []string, rt *runtime) error {
			if !rt.store.IsLoggedIn(cmd.Context()) {
				return errNotLoggedIn
			}
			progress := app.NewProgressController(rt.client, rt.log.Named("progress"))
			defer progress.Close()
			progress.LoadProgress()
			p, err := await(cmd.Context(), progress.ProgressState())
			if err != nil {
				return err
			}
			printProgress(rt.out, p)
			return nil
		}),
	}
}

func newHistoryCmd(opts *rootOptions) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List results archived on this machine, newest first",
		Args:  cobra.NoArgs,
		RunE: withRuntime(opts, func(cmd *cobra.Command, args []string, rt *runtime) error {
			archive, err := rt.resultsArchive(cmd.Context())
			if err != nil {
				return err
			}
			history := app.NewHistoryController(archive, rt.log.Named("history"))
			defer history.Close()
			history.LoadHistory(limit)
			entries, err := await(cmd.Context(), history.HistoryState())
			if err != nil {
				return err
			}
			printHistory(rt.out, entries)
			return nil
		}),
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "max entries, 0 for all")
	return cmd
}

func printResults(w io.Writer, r domain.Results) {
	fmt.Fprintf(w, "\nQuiz %s", r.QuizID)
	if r.Category != "" {
		fmt.Fprintf(w, " (%s)", r.Category)
	}
	fmt.Fprintf(w, "\nScore: %d/%d (%.0f%%)\n", r.Score, r.TotalQuestions, r.Percentage)
	if len(r.Review) == 0 {
		return
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tOK\tQUESTION\tYOUR ANSWER\tCORRECT ANSWER")
	for i, item := range r.Review {
		mark := "x"
		if item.IsCorrect {
			mark = "+"
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n", i+1, mark, item.QuestionText, item.UserAnswer, item.CorrectAnswer)
	}
	_ = tw.Flush()
}

func printProgress(w io.Writer, p domain.Progress) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "CATEGORY\tANSWERED\tCORRECT\tACCURACY")
	for _, c := range p.ByCategory {
		fmt.Fprintf(tw, "%s\t%d\t%d\t%.1f%%\n", c.CategoryName, c.TotalAnswered, c.TotalCorrect, c.Accuracy)
	}
	fmt.Fprintf(tw, "Overall\t%d\t%d\t%.1f%%\n", p.Overall.TotalAnswered, p.Overall.TotalCorrect, p.Overall.Accuracy)
	_ = tw.Flush()
}

func printHistory(w io.Writer, entries []domain.ArchivedResults) {
	if len(entries) == 0 {
		fmt.Fprintln(w, "No archived results yet.")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "WHEN\tCATEGORY\tSCORE\tQUIZ")
	for _, e := range entries {
		fmt.Fprintf(tw, "%s\t%s\t%d/%d\t%s\n", e.ArchivedAt.Local().Format(time.DateTime),
			e.Results.Category, e.Results.Score, e.Results.TotalQuestions, e.Results.QuizID)
	}
	_ = tw.Flush()
}
