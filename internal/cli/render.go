package cli

import (
	"bug_tracker/internal/board"
	"bug_tracker/internal/domain"
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

const minColumnWidth = 24

var (
	columnStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	headerStyle = lipgloss.NewStyle().Bold(true)
	titleStyle  = lipgloss.NewStyle().Bold(true)
	mutedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
)

func priorityStyle(p domain.Priority) lipgloss.Style {
	switch p {
	case domain.PriorityHigh:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("160")).Bold(true)
	case domain.PriorityMedium:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("178"))
	default:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("35"))
	}
}

// shortID is the prefix shown on cards; commands accept full ids
func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// RenderBoard lays the tickets out as one column per status
func RenderBoard(tickets []domain.Ticket, f board.Filter, width int) string {
	colWidth := width/len(domain.Statuses) - 4
	if colWidth < minColumnWidth {
		colWidth = minColumnWidth
	}
	columns := make([]string, 0, len(domain.Statuses))
	for _, status := range domain.Statuses {
		visible := board.Visible(tickets, status, f)
		var b strings.Builder
		b.WriteString(headerStyle.Render(fmt.Sprintf("%s (%d)", status.Title(), len(visible))))
		for _, t := range visible {
			b.WriteString("\n\n")
			b.WriteString(renderCard(t, colWidth))
		}
		columns = append(columns, columnStyle.Width(colWidth).Render(b.String()))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, columns...)
}

func renderCard(t domain.Ticket, width int) string {
	priority := t.Priority
	if priority == "" {
		priority = domain.PriorityLow
	}
	lines := []string{
		titleStyle.Width(width).Render(t.Title),
		priorityStyle(priority).Render(strings.ToUpper(string(priority))) + " " + mutedStyle.Render(shortID(t.ID)),
	}
	if t.Assignee != nil && t.Assignee.FullName != "" {
		lines = append(lines, mutedStyle.Render("@ "+t.Assignee.FullName))
	}
	return strings.Join(lines, "\n")
}

// RenderTicket prints every field of one ticket
func RenderTicket(t domain.Ticket) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s\n", titleStyle.Render(t.Title))
	fmt.Fprintf(&b, "id:       %s\n", t.ID)
	fmt.Fprintf(&b, "status:   %s\n", t.Status.Title())
	fmt.Fprintf(&b, "priority: %s\n", t.Priority)
	if t.Creator != nil {
		fmt.Fprintf(&b, "creator:  %s\n", t.Creator.FullName)
	}
	switch {
	case t.Assignee != nil:
		fmt.Fprintf(&b, "assignee: %s\n", t.Assignee.FullName)
	case t.AssigneeID != nil:
		fmt.Fprintf(&b, "assignee: %s\n", *t.AssigneeID)
	default:
		fmt.Fprintf(&b, "assignee: unassigned\n")
	}
	if t.AttachmentURL != "" {
		fmt.Fprintf(&b, "file:     %s\n", t.AttachmentURL)
	}
	if t.Description != "" {
		fmt.Fprintf(&b, "\n%s\n", t.Description)
	}
	return b.String()
}

// RenderComments prints a thread oldest first
func RenderComments(comments []domain.Comment) string {
	if len(comments) == 0 {
		return mutedStyle.Render("No comments yet.") + "\n"
	}
	var b strings.Builder
	for _, c := range comments {
		author := c.UserID
		if c.Author != nil {
			author = c.Author.FullName
		}
		fmt.Fprintf(&b, "%s %s\n  %s\n", headerStyle.Render(author), mutedStyle.Render(c.CreatedAt.Format("2006-01-02 15:04")), c.Content)
	}
	return b.String()
}

// RenderProjects prints one project per line, newest first
func RenderProjects(projects []domain.Project) string {
	if len(projects) == 0 {
		return mutedStyle.Render("No projects.") + "\n"
	}
	var b strings.Builder
	for _, p := range projects {
		fmt.Fprintf(&b, "%s  %s", p.ID, titleStyle.Render(p.Name))
		if p.Description != "" {
			fmt.Fprintf(&b, "  %s", mutedStyle.Render(p.Description))
		}
		b.WriteString("\n")
	}
	return b.String()
}
