package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/spf13/cobra"

	"quest-service/internal/content"
	"quest-service/internal/domain"
)

// NewContentCmd groups the content file commands.
func NewContentCmd(configPath, apiURL *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "content",
		Short: "Validate, push and pull quest content files",
	}
	cmd.AddCommand(newContentValidateCmd())
	cmd.AddCommand(newContentPushCmd(configPath, apiURL))
	cmd.AddCommand(newContentPullCmd(configPath, apiURL))
	cmd.AddCommand(newContentEditCmd())
	return cmd
}

func newContentValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <file>",
		Short: "Check a JSON or YAML content file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			qc, err := loadValidContent(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %d questions, %d points\n", args[0], len(qc.Questions), totalPoints(qc))
			return nil
		},
	}
}

func newContentPushCmd(configPath, apiURL *string) *cobra.Command {
	return &cobra.Command{
		Use:   "push <quest-id> <file>",
		Short: "Replace a quest's content with a local file",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			qc, err := loadValidContent(args[1])
			if err != nil {
				return err
			}
			c, err := newClient(*configPath, *apiURL)
			if err != nil {
				return err
			}
			if err := c.SaveQuestContent(cmd.Context(), args[0], qc); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "pushed %d questions to %s\n", len(qc.Questions), args[0])
			return nil
		},
	}
}

func newContentPullCmd(configPath, apiURL *string) *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "pull <quest-id>",
		Short: "Download a quest's content including answer keys",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newClient(*configPath, *apiURL)
			if err != nil {
				return err
			}
			qc, err := c.GetQuestContent(cmd.Context(), args[0], true)
			if err != nil {
				return err
			}
			ext := ".yaml"
			if out != "" {
				ext = filepath.Ext(out)
			}
			data, err := content.Encode(qc, ext)
			if err != nil {
				return err
			}
			if out == "" {
				_, err = cmd.OutOrStdout().Write(data)
				return err
			}
			return os.WriteFile(out, data, 0o644)
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "write to file (.json or .yaml) instead of stdout")
	return cmd
}

func loadValidContent(path string) (domain.QuestContent, error) {
	qc, err := content.LoadFile(path)
	if err != nil {
		return domain.QuestContent{}, err
	}
	if err := content.ValidateContent(qc); err != nil {
		var verr *domain.ValidationError
		if errors.As(err, &verr) {
			return domain.QuestContent{}, fmt.Errorf("%s: question %d (%s): %w", path, verr.Index+1, verr.QuestionID, verr.Reason)
		}
		return domain.QuestContent{}, fmt.Errorf("%s: %w", path, err)
	}
	return qc, nil
}

func totalPoints(qc domain.QuestContent) int {
	total := 0
	for _, q := range qc.Questions {
		total += q.Points
	}
	return total
}

type editFunc func(qs []domain.Question, args []string) ([]domain.Question, error)

func newContentEditCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "edit",
		Short: "Edit a content file in place (question numbers start at 1)",
	}
	cmd.AddCommand(newEditCmd("add <file>", "Append a default single-choice question", 1,
		func(qs []domain.Question, _ []string) ([]domain.Question, error) {
			return content.AddQuestion(qs, content.NewQuestion(len(qs))), nil
		}))
	cmd.AddCommand(newEditCmd("move <file> <question> <up|down>", "Move a question one place", 3,
		func(qs []domain.Question, args []string) ([]domain.Question, error) {
			i, err := questionArg(qs, args[0])
			if err != nil {
				return nil, err
			}
			switch args[1] {
			case "up":
				return content.MoveUp(qs, i), nil
			case "down":
				return content.MoveDown(qs, i), nil
			}
			return nil, fmt.Errorf("direction must be up or down, got %q", args[1])
		}))
	cmd.AddCommand(newEditCmd("delete <file> <question>", "Delete a question", 2,
		func(qs []domain.Question, args []string) ([]domain.Question, error) {
			i, err := questionArg(qs, args[0])
			if err != nil {
				return nil, err
			}
			return content.DeleteQuestion(qs, i), nil
		}))
	cmd.AddCommand(newEditCmd("type <file> <question> <single_choice|multiple_choice|text>", "Change a question's type", 3,
		func(qs []domain.Question, args []string) ([]domain.Question, error) {
			i, err := questionArg(qs, args[0])
			if err != nil {
				return nil, err
			}
			t := domain.QuestionType(args[1])
			if !t.Valid() {
				return nil, fmt.Errorf("%w: %q", domain.ErrUnknownQuestionType, args[1])
			}
			return content.ChangeType(qs, i, t), nil
		}))
	return cmd
}

// newEditCmd loads the file named by the first argument, applies edit to its
// questions with the remaining arguments and writes it back in the same format.
func newEditCmd(use, short string, nargs int, edit editFunc) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.ExactArgs(nargs),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			qc, err := content.LoadFile(path)
			if err != nil {
				return err
			}
			qs, err := edit(qc.Questions, args[1:])
			if err != nil {
				return err
			}
			qc.Questions = qs
			data, err := content.Encode(qc, filepath.Ext(path))
			if err != nil {
				return err
			}
			if err := os.WriteFile(path, data, 0o644); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %d questions\n", path, len(qs))
			return nil
		},
	}
}

func questionArg(qs []domain.Question, raw string) (int, error) {
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 || n > len(qs) {
		return 0, fmt.Errorf("question must be between 1 and %d, got %q", len(qs), raw)
	}
	return n - 1, nil
}
