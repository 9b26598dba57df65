package cli

import (
	"bug_tracker/internal/client"
	"bug_tracker/internal/domain"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"

	"github.com/spf13/cobra"
)

func (a *app) commentsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "comments",
		Aliases: []string{"comment"},
		Short:   "Read and post ticket comments",
	}

	list := &cobra.Command{
		Use:   "list <ticket-id>",
		Short: "Show a ticket's comments, oldest first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := a.session(); err != nil {
				return err
			}
			comments, err := a.api.Comments(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), RenderComments(comments))
			return nil
		},
	}

	add := &cobra.Command{
		Use:   "add <ticket-id> <text>...",
		Short: "Post a comment",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := a.session(); err != nil {
				return err
			}
			c, err := a.api.CreateComment(cmd.Context(), args[0], strings.Join(args[1:], " "))
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), RenderComments([]domain.Comment{*c}))
			return nil
		},
	}

	watch := &cobra.Command{
		Use:   "watch <ticket-id>",
		Short: "Follow a ticket's comments as they are posted",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := a.session(); err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			thread := client.NewCommentThread(a.api, args[0])
			defer thread.Close()

			out := cmd.OutOrStdout()
			var mu sync.Mutex
			thread.OnChange(func(comments []domain.Comment) {
				mu.Lock()
				defer mu.Unlock()
				fmt.Fprint(out, RenderComments(comments))
			})
			bridge, closeBridge := a.bridge()
			defer closeBridge()
			sub, err := thread.Watch(ctx, bridge)
			if err != nil {
				return fmt.Errorf("subscribe to comments: %w", err)
			}
			defer sub.Close()
			if err := thread.Load(ctx); err != nil {
				return err
			}

			fmt.Fprintln(out, "Watching for comments, Ctrl-C to stop.")
			select {
			case <-ctx.Done():
			case <-sub.Done():
			}
			return nil
		},
	}

	cmd.AddCommand(list, add, watch)
	return cmd
}
