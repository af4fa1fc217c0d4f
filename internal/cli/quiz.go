package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"quiz-client/internal/app"
	"quiz-client/internal/domain"
	"quiz-client/internal/state"
)

func newCategoriesCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "categories",
		Short: "List the question categories",
		Args:  cobra.NoArgs,
		RunE: withRuntime(opts, func(cmd *cobra.Command, args []string, rt *runtime) error {
			home := rt.homeController()
			defer home.Close()
			home.LoadCategories()
			categories, err := await(cmd.Context(), home.CategoriesState())
			if err != nil {
				return err
			}
			printCategories(rt.out, categories)
			return nil
		}),
	}
}

func newDashboardCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "dashboard",
		Short: "Greet the user and show categories with overall progress",
		Args:  cobra.NoArgs,
		RunE: withRuntime(opts, func(cmd *cobra.Command, args []string, rt *runtime) error {
			if !rt.store.IsLoggedIn(cmd.Context()) {
				return errNotLoggedIn
			}
			home := rt.homeController()
			defer home.Close()
			progress := app.NewProgressController(rt.client, rt.log.Named("progress"))
			defer progress.Close()

			home.LoadCategories()
			progress.LoadProgress()

			var (
				categories []domain.Category
				stats      domain.Progress
			)
			g, ctx := errgroup.WithContext(cmd.Context())
			g.Go(func() error {
				var err error
				categories, err = await(ctx, home.CategoriesState())
				return err
			})
			g.Go(func() error {
				var err error
				stats, err = await(ctx, progress.ProgressState())
				return err
			})
			if err := g.Wait(); err != nil {
				return err
			}

			fmt.Fprintf(rt.out, "Welcome back, %s!\n", home.Username(cmd.Context()))
			fmt.Fprintf(rt.out, "Answered %d, correct %d, accuracy %.1f%%\n\n",
				stats.Overall.TotalAnswered, stats.Overall.TotalCorrect, stats.Overall.Accuracy)
			printCategories(rt.out, categories)
			return nil
		}),
	}
}

func newPlayCmd(opts *rootOptions) *cobra.Command {
	var category int
	cmd := &cobra.Command{
		Use:   "play",
		Short: "Play a quiz, in a random category unless --category is given",
		Args:  cobra.NoArgs,
		RunE: withRuntime(opts, func(cmd *cobra.Command, args []string, rt *runtime) error {
			ctx := cmd.Context()
			if !rt.store.IsLoggedIn(ctx) {
				return errNotLoggedIn
			}

			home := rt.homeController()
			defer home.Close()
			var categoryID *int
			if cmd.Flags().Changed("category") {
				categoryID = &category
			} else {
				home.LoadCategories()
				if _, err := await(ctx, home.CategoriesState()); err != nil {
					return err
				}
			}
			home.StartQuiz(categoryID)
			started, err := await(ctx, home.StartedState())
			if err != nil {
				return err
			}
			fmt.Fprintf(rt.out, "%s: %d questions\n", started.CategoryName, started.QuestionCount)

			session := app.NewQuizSession(rt.client, rt.log.Named("quiz"))
			defer session.Close()
			if err := session.Init(started.QuizID); err != nil {
				return err
			}
			if err := playSession(ctx, rt, session); err != nil {
				return err
			}
			return showResults(ctx, rt, started.QuizID)
		}),
	}
	cmd.Flags().IntVar(&category, "category", 0, "category id, see `categories`")
	return cmd
}

// playSession drives the session until the last answer is acknowledged.
func playSession(ctx context.Context, rt *runtime, session *app.QuizSession) error {
	stop := context.AfterFunc(ctx, session.Close)
	defer stop()

	for {
		session.Wait()
		if err := ctx.Err(); err != nil {
			return err
		}
		switch phase := session.Phase(); phase {
		case app.PhaseComplete:
			return nil
		case app.PhaseFailed:
			msg, _ := state.Message(session.QuestionState().Get())
			fmt.Fprintln(rt.out, msg)
			if !rt.prompt.confirm("Retry?") {
				return errors.New(msg)
			}
			session.LoadQuestion()
		case app.PhaseQuestionReady:
			q, _ := state.Value(session.QuestionState().Get())
			printQuestion(rt.out, q)
			answerID, err := askAnswer(rt.prompt, q)
			if err != nil {
				return err
			}
			session.SubmitAnswer(answerID)
		case app.PhaseAnswerShown:
			result, _ := state.Value(session.AnswerState().Get())
			printVerdict(rt.out, result)
			if _, err := rt.prompt.ask("Press Enter to continue"); err != nil {
				return err
			}
			session.DismissAnswer()
		default:
			return fmt.Errorf("quiz stalled in phase %s", phase)
		}
	}
}

func askAnswer(p *prompter, q domain.Question) (int, error) {
	if len(q.Answers) == 0 {
		return 0, fmt.Errorf("question %d has no answers", q.QuestionID)
	}
	for {
		raw, err := p.ask(fmt.Sprintf("Answer [1-%d]", len(q.Answers)))
		if err != nil {
			return 0, err
		}
		n, err := strconv.Atoi(strings.TrimSpace(raw))
		if err == nil && n >= 1 && n <= len(q.Answers) {
			return q.Answers[n-1].ID, nil
		}
		fmt.Fprintln(p.out, "Pick one of the listed numbers.")
	}
}

func printQuestion(w io.Writer, q domain.Question) {
	fmt.Fprintf(w, "\nQuestion %d of %d\n%s\n", q.QuestionNumber, q.TotalQuestions, q.Text)
	for i, a := range q.Answers {
		fmt.Fprintf(w, "  %d) %s\n", i+1, a.Text)
	}
}

func printVerdict(w io.Writer, r domain.AnswerResult) {
	if r.Correct {
		fmt.Fprintln(w, "Correct!")
	} else {
		fmt.Fprintf(w, "Wrong. The answer is: %s\n", r.CorrectAnswerText)
	}
	if r.Explanation != "" {
		fmt.Fprintln(w, r.Explanation)
	}
	fmt.Fprintf(w, "Score %d/%d\n", r.Score, r.QuestionsAnswered)
}

func printCategories(w io.Writer, categories []domain.Category) {
	if len(categories) == 0 {
		fmt.Fprintln(w, "No categories available.")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tQUESTIONS\tDESCRIPTION")
	for _, c := range categories {
		fmt.Fprintf(tw, "%d\t%s\t%d\t%s\n", c.ID, c.Name, c.QuestionCount, c.Description)
	}
	_ = tw.Flush()
}
