package bot

import (
	"fmt"
	"html"
	"strings"

	"momento/internal/api"
	"momento/internal/model"
	"momento/internal/service"
)

const (
	iconHigh   = "🔴"
	iconMedium = "🟡"
	iconLow    = "🟢"
	iconDone   = "✅"
	iconOpen   = "⬜"
)

func escape(s string) string {
	return html.EscapeString(s)
}

func shortTitle(title string, maxLen int) string {
	clean := strings.TrimSpace(strings.ReplaceAll(title, "\n", " "))
	runes := []rune(clean)
	if len(runes) <= maxLen {
		return clean
	}
	if maxLen <= 1 {
		return string(runes[:maxLen])
	}
	return string(runes[:maxLen-1]) + "…"
}

func priorityIcon(p string) string {
	switch p {
	case model.PriorityHigh:
		return iconHigh
	case model.PriorityLow:
		return iconLow
	default:
		return iconMedium
	}
}

func formatDate(ts api.Timestamp) string {
	if ts.IsZero() {
		return "no date"
	}
	return ts.Format("2006-01-02")
}

// formatOccasionHeader renders the title block of an occasion view.
func formatOccasionHeader(view *service.OccasionView) string {
	var sb strings.Builder
	if view.Occasion != nil {
		sb.WriteString(fmt.Sprintf("🎉 <b>%s</b>", escape(strings.TrimSpace(view.Occasion.Person))))
		if kind := strings.TrimSpace(view.Occasion.OccasionType); kind != "" {
			sb.WriteString(fmt.Sprintf(" <i>(%s)</i>", escape(kind)))
		}
		sb.WriteString(fmt.Sprintf("\n📆 %s", formatDate(view.Occasion.Date)))
	} else {
		sb.WriteString(fmt.Sprintf("🎉 <b>Occasion</b> <code>%s</code>", escape(view.Ownership.OccasionID)))
	}
	sb.WriteByte('\n')

	if len(view.Collaborators) > 0 {
		sb.WriteString("👥 ")
		sb.WriteString(formatCollaborators(view.Collaborators))
		sb.WriteByte('\n')
	}
	if !view.Ownership.IsCurrentUserOwner && view.Ownership.OwnerID != "" {
		sb.WriteString("🤝 You are collaborating on this occasion.\n")
	}
	return sb.String()
}

// formatCollaborators renders pills like "[O] Olga 👑, [B] Boris ⏳".
func formatCollaborators(list []service.Collaborator) string {
	parts := make([]string, 0, len(list))
	for _, c := range list {
		label := fmt.Sprintf("[%s] %s", escape(c.Initial), escape(c.Name))
		if c.Owner {
			label += " 👑"
		}
		if c.Status == service.CollaboratorPending {
			label += " ⏳"
		}
		parts = append(parts, label)
	}
	return strings.Join(parts, ", ")
}

// formatTasks renders the numbered checklist of an occasion.
func formatTasks(tasks []service.TaskItem) string {
	if len(tasks) == 0 {
		return "— no tasks yet, add one with /newtask"
	}
	var sb strings.Builder
	for i, t := range tasks {
		box := iconOpen
		if t.Completed {
			box = iconDone
		}
		desc := escape(strings.TrimSpace(t.Description))
		if t.Completed {
			desc = "<s>" + desc + "</s>"
		}
		sb.WriteString(fmt.Sprintf("%d. %s %s %s\n", i+1, box, priorityIcon(t.Priority), desc))
	}
	return strings.TrimRight(sb.String(), "\n")
}

func formatOccasionView(view *service.OccasionView) string {
	var sb strings.Builder
	sb.WriteString(formatOccasionHeader(view))
	sb.WriteString("\n📋 <b>Checklist</b>\n")
	if view.Ownership.Degraded() {
		sb.WriteString("— tasks are unavailable: the owner of this occasion could not be determined")
		return sb.String()
	}
	sb.WriteString(formatTasks(view.Workspace.Tasks()))
	return sb.String()
}

func formatOccasionList(list []api.Occasion) string {
	if len(list) == 0 {
		return "No occasions yet. Create one: /newoccasion Mom | birthday | 2026-05-01"
	}
	var sb strings.Builder
	sb.WriteString("🎉 <b>Your occasions</b>\n")
	for i, occ := range list {
		sb.WriteString(fmt.Sprintf("%d. %s · %s <i>(%s)</i>\n   /occasion %s\n",
			i+1, formatDate(occ.Date), escape(occ.Person), escape(occ.OccasionType), escape(occ.ID)))
	}
	return strings.TrimSpace(sb.String())
}

func formatPeople(people service.People) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("👤 <b>%s</b>\n", escape(people.DisplayName)))
	if len(people.Items) == 0 {
		sb.WriteString("No people yet. Add one: /addperson Mom | family")
		return sb.String()
	}
	for i, p := range people.Items {
		pin := ""
		if p.Pinned {
			pin = "📌 "
		}
		sb.WriteString(fmt.Sprintf("%d. %s%s", i+1, pin, escape(p.Name)))
		if t := strings.TrimSpace(p.RelationshipType); t != "" {
			sb.WriteString(fmt.Sprintf(" <i>(%s)</i>", escape(t)))
		}
		sb.WriteByte('\n')
	}
	return strings.TrimSpace(sb.String())
}

func formatNotes(person string, notes []api.Note) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("🗒 <b>Notes about %s</b>\n", escape(person)))
	if len(notes) == 0 {
		sb.WriteString("— nothing yet")
		return sb.String()
	}
	for _, n := range notes {
		sb.WriteString(fmt.Sprintf("• <b>%s</b>", escape(strings.TrimSpace(n.Title))))
		if c := strings.TrimSpace(n.Content); c != "" {
			sb.WriteString(": " + escape(c))
		}
		sb.WriteByte('\n')
	}
	return strings.TrimSpace(sb.String())
}

func formatSuggestions(list []api.Suggestion) string {
	if len(list) == 0 {
		return "No ideas this time. Try adding more notes."
	}
	var sb strings.Builder
	sb.WriteString("💡 <b>Gift ideas</b>\n")
	for _, s := range list {
		sb.WriteString("• " + escape(strings.TrimSpace(s.Content)) + "\n")
	}
	return strings.TrimSpace(sb.String())
}

func formatInvite(inv api.Invite, incoming bool) string {
	who := inv.Sender.Display()
	arrow := "from"
	if !incoming {
		who = inv.Recipient.Display()
		arrow = "to"
	}
	line := fmt.Sprintf("📨 %s <b>%s</b> · occasion <code>%s</code>", arrow, escape(who), escape(inv.OccasionID))
	if !inv.CreatedAt.IsZero() {
		line += " · " + inv.CreatedAt.Format("2006-01-02")
	}
	if !incoming {
		line += " · " + string(inv.Status)
	}
	return line
}
