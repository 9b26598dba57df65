package cli

import (
	"bug_tracker/internal/board"
	"bug_tracker/internal/client"
	"bug_tracker/internal/domain"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

func (a *app) ticketCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "ticket",
		Aliases: []string{"tickets"},
		Short:   "Create, move, edit and delete tickets",
	}
	cmd.AddCommand(
		a.ticketCreateCmd(),
		a.ticketShowCmd(),
		a.ticketMoveCmd(),
		a.ticketEditCmd(),
		a.ticketDeleteCmd(),
		a.ticketAttachCmd(),
	)
	return cmd
}

func (a *app) ticketCreateCmd() *cobra.Command {
	var t client.NewTicket
	var status, priority string
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a ticket assigned to yourself",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.requireWriter(); err != nil {
				return err
			}
			if status != "" && !domain.Status(status).Valid() {
				return fmt.Errorf("%w: unknown status %q", client.ErrValidation, status)
			}
			if priority != "" && !domain.Priority(priority).Valid() {
				return fmt.Errorf("%w: unknown priority %q", client.ErrValidation, priority)
			}
			t.Status, t.Priority = domain.Status(status), domain.Priority(priority)
			created, err := a.api.CreateTicket(cmd.Context(), t)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), RenderTicket(*created))
			return nil
		},
	}
	cmd.Flags().StringVar(&t.ProjectID, "project", "", "project id")
	cmd.Flags().StringVar(&t.Title, "title", "", "ticket title")
	cmd.Flags().StringVar(&t.Description, "description", "", "ticket description")
	cmd.Flags().StringVar(&status, "status", "", "todo, inprogress or done (default todo)")
	cmd.Flags().StringVar(&priority, "priority", "", "low, medium or high (default low)")
	return cmd
}

func (a *app) ticketShowCmd() *cobra.Command {
	var projectID string
	cmd := &cobra.Command{
		Use:   "show <ticket-id>",
		Short: "Show one ticket of a project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := a.session(); err != nil {
				return err
			}
			tickets, err := a.api.Tickets(cmd.Context(), projectID)
			if err != nil {
				return err
			}
			t, err := resolveTicket(tickets, args[0])
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), RenderTicket(t))
			return nil
		},
	}
	cmd.Flags().StringVar(&projectID, "project", "", "project id")
	_ = cmd.MarkFlagRequired("project")
	return cmd
}

func (a *app) ticketMoveCmd() *cobra.Command {
	var projectID string
	cmd := &cobra.Command{
		Use:   "move <ticket-id> <status>",
		Short: "Move a ticket to another column",
		Long: `Move a ticket to todo, inprogress or done. The move shows at once; if
the server refuses it the board is reloaded and the error reported.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.requireWriter(); err != nil {
				return err
			}
			status := domain.Status(args[1])
			if !status.Valid() {
				return fmt.Errorf("%w: unknown status %q", client.ErrValidation, args[1])
			}
			r := board.New(a.api, projectID)
			defer r.Close()
			if err := r.Load(cmd.Context()); err != nil {
				return err
			}
			t, err := resolveTicket(r.Snapshot(), args[0])
			if err != nil {
				return err
			}
			if err := r.Move(cmd.Context(), t.ID, status); err != nil {
				if current, ok := r.Ticket(t.ID); ok {
					fmt.Fprintf(cmd.ErrOrStderr(), "Move refused, %q is still in %s\n", current.Title, current.Status.Title())
				}
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Moved %q to %s\n", t.Title, status.Title())
			return nil
		},
	}
	cmd.Flags().StringVar(&projectID, "project", "", "project id")
	_ = cmd.MarkFlagRequired("project")
	return cmd
}

func (a *app) ticketEditCmd() *cobra.Command {
	var title, description, status, priority, assignee string
	var unassign bool
	cmd := &cobra.Command{
		Use:   "edit <ticket-id>",
		Short: "Change a ticket's fields",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.requireWriter(); err != nil {
				return err
			}
			var u client.TicketUpdate
			flags := cmd.Flags()
			if flags.Changed("title") {
				u.Title = &title
			}
			if flags.Changed("description") {
				u.Description = &description
			}
			if flags.Changed("status") {
				s := domain.Status(status)
				if !s.Valid() {
					return fmt.Errorf("%w: unknown status %q", client.ErrValidation, status)
				}
				u.Status = &s
			}
			if flags.Changed("priority") {
				p := domain.Priority(priority)
				if !p.Valid() {
					return fmt.Errorf("%w: unknown priority %q", client.ErrValidation, priority)
				}
				u.Priority = &p
			}
			if flags.Changed("assignee") {
				u.AssigneeID = &assignee
			}
			u.Unassign = unassign
			updated, err := a.api.UpdateTicket(cmd.Context(), args[0], u)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), RenderTicket(*updated))
			return nil
		},
	}
	cmd.Flags().StringVar(&title, "title", "", "new title")
	cmd.Flags().StringVar(&description, "description", "", "new description")
	cmd.Flags().StringVar(&status, "status", "", "new status")
	cmd.Flags().StringVar(&priority, "priority", "", "new priority")
	cmd.Flags().StringVar(&assignee, "assignee", "", "user id to assign")
	cmd.Flags().BoolVar(&unassign, "unassign", false, "remove the assignee")
	return cmd
}

func (a *app) ticketDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <ticket-id>",
		Short: "Delete a ticket and its comments",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.requireWriter(); err != nil {
				return err
			}
			if err := a.api.DeleteTicket(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted ticket %s\n", args[0])
			return nil
		},
	}
}

func (a *app) ticketAttachCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "attach <ticket-id> <file>",
		Short: "Upload a file and link it from the ticket",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.requireWriter(); err != nil {
				return err
			}
			f, err := os.Open(args[1])
			if err != nil {
				return err
			}
			defer f.Close()
			att, err := a.api.UploadAttachment(cmd.Context(), filepath.Base(args[1]), f)
			if err != nil {
				return err
			}
			if _, err := a.api.UpdateTicket(cmd.Context(), args[0], client.TicketUpdate{AttachmentURL: &att.URL}); err != nil {
				return fmt.Errorf("uploaded %s but could not link it: %w", att.URL, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Attached %s\n", att.URL)
			return nil
		},
	}
}
