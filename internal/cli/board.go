package cli

import (
	"bug_tracker/internal/board"
	"bug_tracker/internal/domain"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"

	"github.com/spf13/cobra"
)

func (a *app) boardCmd() *cobra.Command {
	var (
		f     board.Filter
		width int
		watch bool
	)
	cmd := &cobra.Command{
		Use:   "board <project-id>",
		Short: "Show a project's tickets by column",
		Long: `Show the kanban board of a project. With --watch the board stays open
and redraws whenever a ticket is created, moved, edited or deleted.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := a.session(); err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			r := board.New(a.api, args[0])
			defer r.Close()

			out := cmd.OutOrStdout()
			var mu sync.Mutex
			draw := func(tickets []domain.Ticket) {
				mu.Lock()
				defer mu.Unlock()
				fmt.Fprintln(out, RenderBoard(tickets, f, width))
			}

			if !watch {
				if err := r.Load(ctx); err != nil {
					return err
				}
				draw(r.Snapshot())
				return nil
			}

			// Subscribe before loading so nothing published in between is missed
			bridge, closeBridge := a.bridge()
			defer closeBridge()
			sub, err := r.Watch(ctx, bridge)
			if err != nil {
				return fmt.Errorf("subscribe to ticket changes: %w", err)
			}
			defer sub.Close()
			r.OnChange(draw)
			if err := r.Load(ctx); err != nil {
				return err
			}

			fmt.Fprintln(out, "Watching for changes, Ctrl-C to stop.")
			select {
			case <-ctx.Done():
			case <-sub.Done():
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&f.Query, "query", "q", "", "only show tickets whose title contains this text")
	cmd.Flags().StringVarP(&f.Priority, "priority", "p", "all", "only show this priority (low, medium, high, all)")
	cmd.Flags().IntVar(&width, "width", 120, "board width in columns")
	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "keep the board open and apply live changes")
	return cmd
}

// resolveTicket finds a ticket by full id or by a unique id prefix
func resolveTicket(tickets []domain.Ticket, ref string) (domain.Ticket, error) {
	var match []domain.Ticket
	for _, t := range tickets {
		if t.ID == ref {
			return t, nil
		}
		if strings.HasPrefix(t.ID, ref) {
			match = append(match, t)
		}
	}
	switch len(match) {
	case 0:
		return domain.Ticket{}, fmt.Errorf("no ticket %q on this board", ref)
	case 1:
		return match[0], nil
	default:
		return domain.Ticket{}, fmt.Errorf("ticket id %q is ambiguous", ref)
	}
}
