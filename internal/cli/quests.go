package cli

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"quest-service/internal/client"
	"quest-service/internal/domain"
)

// NewQuestsCmd groups the quest metadata commands.
func NewQuestsCmd(configPath, apiURL *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "quests",
		Short: "List, create and delete quests through the API",
	}
	cmd.AddCommand(newQuestsListCmd(configPath, apiURL))
	cmd.AddCommand(newQuestsCreateCmd(configPath, apiURL))
	cmd.AddCommand(newQuestsDeleteCmd(configPath, apiURL))
	return cmd
}

func newQuestsListCmd(configPath, apiURL *string) *cobra.Command {
	var filter string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List quests",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newClient(*configPath, *apiURL)
			if err != nil {
				return err
			}
			quests, err := c.ListQuests(cmd.Context(), filter)
			if err != nil {
				return err
			}
			now := time.Now()
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tTITLE\tACTIVE FROM\tACTIVE TO\tSTATUS")
			for _, q := range quests {
				status := "inactive"
				if domain.IsActive(q, now) {
					status = "active"
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", q.ID, q.Title,
					q.ActiveFrom.Format(time.RFC3339), q.ActiveTo.Format(time.RFC3339), status)
			}
			return w.Flush()
		},
	}
	cmd.Flags().StringVar(&filter, "filter", "all", "all, active or inactive")
	return cmd
}

func newQuestsCreateCmd(configPath, apiURL *string) *cobra.Command {
	var (
		description string
		from, to    string
	)
	cmd := &cobra.Command{
		Use:   "create <title>",
		Short: "Create a quest",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			start, err := domain.ParseTimestamp(from)
			if err != nil {
				return err
			}
			end, err := domain.ParseTimestamp(to)
			if err != nil {
				return err
			}
			if err := domain.ValidateWindow(start, end); err != nil {
				return err
			}
			c, err := newClient(*configPath, *apiURL)
			if err != nil {
				return err
			}
			q, err := c.CreateQuest(cmd.Context(), client.NewQuest{
				Title:       args[0],
				Description: description,
				ActiveFrom:  start,
				ActiveTo:    end,
			})
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), q.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&description, "description", "", "quest description")
	cmd.Flags().StringVar(&from, "from", "", "start of the active window (ISO-8601)")
	cmd.Flags().StringVar(&to, "to", "", "end of the active window (ISO-8601)")
	_ = cmd.MarkFlagRequired("from")
	_ = cmd.MarkFlagRequired("to")
	return cmd
}

func newQuestsDeleteCmd(configPath, apiURL *string) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <quest-id>",
		Short: "Delete a quest and its content",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newClient(*configPath, *apiURL)
			if err != nil {
				return err
			}
			if err := c.DeleteQuest(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", args[0])
			return nil
		},
	}
}
