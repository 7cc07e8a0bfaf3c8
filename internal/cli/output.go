package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"momento/internal/api"
	"momento/internal/model"
	"momento/internal/service"
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true)
	mutedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#6c757d"))
	ownerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#f39c12")).Bold(true)
	doneStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#6c757d")).Strikethrough(true)
	warnStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#d16d7a")).Bold(true)
	prioStyles = map[string]lipgloss.Style{
		model.PriorityHigh:   lipgloss.NewStyle().Foreground(lipgloss.Color("#d16d7a")).Bold(true),
		model.PriorityMedium: lipgloss.NewStyle().Foreground(lipgloss.Color("#f39c12")),
		model.PriorityLow:    lipgloss.NewStyle().Foreground(lipgloss.Color("#5f9fb0")),
	}
)

// writeOut prints v as JSON with --json, text otherwise.
func writeOut(cmd *cobra.Command, app *App, v any, text string) error {
	if app.JSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
	_, err := fmt.Fprintln(cmd.OutOrStdout(), text)
	return err
}

func dateOf(ts api.Timestamp) string {
	if ts.IsZero() {
		return "----------"
	}
	return ts.Format("2006-01-02")
}

func formatPeople(people service.People) string {
	if len(people.Items) == 0 {
		return "No people yet. Add one: momento people add <name> [type]"
	}
	var sb strings.Builder
	sb.WriteString(titleStyle.Render(people.DisplayName+"'s people") + "\n")
	for i, p := range people.Items {
		pin := "  "
		if p.Pinned {
			pin = "📌"
		}
		sb.WriteString(fmt.Sprintf("%2d. %s %s %s\n", i+1, pin, p.Name, mutedStyle.Render("("+p.RelationshipType+") "+p.ID)))
	}
	return strings.TrimRight(sb.String(), "\n")
}

func formatNotes(person string, notes []api.Note) string {
	if len(notes) == 0 {
		return "No notes for " + person + " yet."
	}
	var sb strings.Builder
	sb.WriteString(titleStyle.Render("Notes about "+person) + "\n")
	for _, n := range notes {
		sb.WriteString(fmt.Sprintf("- %s %s\n", titleStyle.Render(n.Title), mutedStyle.Render(n.ID)))
		if c := strings.TrimSpace(n.Content); c != "" {
			sb.WriteString("  " + strings.ReplaceAll(c, "\n", "\n  ") + "\n")
		}
	}
	return strings.TrimRight(sb.String(), "\n")
}

func formatOccasions(list []api.Occasion) string {
	if len(list) == 0 {
		return "No occasions yet. Add one: momento occasions add <person> <type> <YYYY-MM-DD>"
	}
	lines := make([]string, 0, len(list))
	for _, occ := range list {
		lines = append(lines, fmt.Sprintf("%s  %-20s %-14s %s", dateOf(occ.Date), occ.Person, occ.OccasionType, mutedStyle.Render(occ.ID)))
	}
	return strings.Join(lines, "\n")
}

func formatCollaborators(list []service.Collaborator) string {
	parts := make([]string, 0, len(list))
	for _, c := range list {
		label := "[" + c.Initial + "] " + c.Name
		switch {
		case c.Owner:
			label = ownerStyle.Render(label + " (owner)")
		case c.Status == service.CollaboratorPending:
			label = mutedStyle.Render(label + " (pending)")
		}
		parts = append(parts, label)
	}
	return strings.Join(parts, ", ")
}

func formatTasks(tasks []service.TaskItem) string {
	if len(tasks) == 0 {
		return mutedStyle.Render("no tasks yet")
	}
	lines := make([]string, 0, len(tasks))
	for i, t := range tasks {
		box := "[ ]"
		desc := t.Description
		if t.Completed {
			box = "[x]"
			desc = doneStyle.Render(desc)
		}
		prio := t.Priority
		if style, ok := prioStyles[prio]; ok {
			prio = style.Render(prio)
		}
		lines = append(lines, fmt.Sprintf("%2d. %s %s %s", i+1, box, desc, prio))
	}
	return strings.Join(lines, "\n")
}

func formatView(view *service.OccasionView) string {
	own := view.Ownership
	var sb strings.Builder
	if occ := view.Occasion; occ != nil {
		sb.WriteString(titleStyle.Render(occ.Person) + " " + occ.OccasionType + " " + dateOf(occ.Date) + "\n")
	} else {
		sb.WriteString(titleStyle.Render("Occasion "+own.OccasionID) + "\n")
	}
	sb.WriteString(mutedStyle.Render("id: "+own.OccasionID) + "\n")

	if own.Degraded() {
		sb.WriteString(warnStyle.Render("owner could not be determined; tasks and notes are unavailable") + "\n")
		return strings.TrimRight(sb.String(), "\n")
	}
	if !own.IsCurrentUserOwner {
		sb.WriteString("collaborating on another user's occasion (" + string(own.Source) + ")\n")
	}
	if len(view.Collaborators) > 0 {
		sb.WriteString("people: " + formatCollaborators(view.Collaborators) + "\n")
	}
	sb.WriteString("\n" + formatTasks(view.Workspace.Tasks()))
	return sb.String()
}

func formatInvites(list []api.Invite, incoming bool) string {
	if len(list) == 0 {
		if incoming {
			return "No pending invitations."
		}
		return "You have not invited anyone yet."
	}
	lines := make([]string, 0, len(list))
	for _, inv := range list {
		if incoming {
			lines = append(lines, fmt.Sprintf("%s  from %-16s occasion %s", inv.ID, inv.Sender.Display(), inv.OccasionID))
			continue
		}
		lines = append(lines, fmt.Sprintf("%s  to %-18s occasion %s  %s", inv.ID, inv.Recipient.Display(), inv.OccasionID, inv.Status))
	}
	return strings.Join(lines, "\n")
}

func formatSuggestions(list []api.Suggestion) string {
	if len(list) == 0 {
		return "No ideas yet."
	}
	var sb strings.Builder
	for _, s := range list {
		sb.WriteString(mutedStyle.Render(dateOf(s.GeneratedAt)) + "\n")
		sb.WriteString(strings.TrimSpace(s.Content) + "\n\n")
	}
	return strings.TrimRight(sb.String(), "\n")
}

func formatImages(person string, images []api.Image) string {
	if len(images) == 0 {
		return "No photos of " + person + " yet."
	}
	lines := make([]string, 0, len(images))
	for _, img := range images {
		lines = append(lines, dateOf(img.UploadDate)+"  "+img.ImageURL)
	}
	return strings.Join(lines, "\n")
}
