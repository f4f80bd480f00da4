package tui

import (
	"fmt"
	"image/color"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"
	"github.com/evanschultz/taskboard/internal/app"
	"github.com/evanschultz/taskboard/internal/domain"
)

// palette shared by every render helper.
var (
	accentColor = lipgloss.Color("62")
	mutedColor  = lipgloss.Color("241")
	dimColor    = lipgloss.Color("239")
	textColor   = lipgloss.Color("252")
)

// statusColor returns the badge color for one status.
func statusColor(s domain.Status) color.Color {
	switch s {
	case domain.StatusInProgress:
		return lipgloss.Color("214")
	case domain.StatusDone:
		return lipgloss.Color("42")
	default:
		return lipgloss.Color("245")
	}
}

// priorityColor returns the badge color for one priority.
func priorityColor(p domain.Priority) color.Color {
	switch p {
	case domain.PriorityLow:
		return lipgloss.Color("244")
	case domain.PriorityHigh:
		return lipgloss.Color("208")
	case domain.PriorityUrgent:
		return lipgloss.Color("203")
	default:
		return lipgloss.Color("75")
	}
}

// newBoardView wraps content with the terminal modes the board uses.
func newBoardView(content string) tea.View {
	v := tea.NewView(content)
	v.AltScreen = true
	return v
}

// View renders the board.
func (m Model) View() tea.View {
	if m.err != nil {
		return newBoardView("error: " + m.err.Error() + "\n\npress r to retry • q quit\n")
	}
	if !m.ready {
		return newBoardView("loading...")
	}

	statusStyle := lipgloss.NewStyle().Foreground(dimColor)
	sections := []string{
		m.renderHeader(),
		m.renderStatsCards(),
		m.renderFilterBar(),
		"",
	}

	listHeight := max(3, m.height-lipgloss.Height(strings.Join(sections, "\n"))-4)
	detailWidth := 0
	if m.showDetails && m.width >= detailPaneMinWidth {
		detailWidth = clamp(m.width*2/5, 36, 64)
	}
	listWidth := max(20, m.width-detailWidth-1)
	body := m.renderList(listWidth, listHeight)
	if detailWidth > 0 {
		body = lipgloss.JoinHorizontal(lipgloss.Top, body, " ", m.renderDetail(detailWidth, listHeight))
	}
	sections = append(sections, body)
	if strings.TrimSpace(m.status) != "" && m.status != "ready" {
		sections = append(sections, statusStyle.Render(m.status))
	}
	content := strings.Join(sections, "\n")

	helpBubble := m.help
	helpBubble.ShowAll = false
	helpBubble.SetWidth(max(0, m.width-2))
	helpLine := lipgloss.NewStyle().
		Foreground(mutedColor).
		BorderTop(true).
		BorderForeground(dimColor).
		Padding(0, 1).
		Width(max(0, m.width)).
		Render(helpBubble.View(m.keys))
	if m.height > 0 {
		content = fitLines(content, max(0, m.height-lipgloss.Height(helpLine)))
	}
	full := content + "\n" + helpLine

	if overlay := m.renderOverlay(m.width - 8); overlay != "" {
		height := lipgloss.Height(full)
		if m.height > 0 {
			height = m.height
		}
		full = overlayOnContent(full, overlay, max(1, m.width), max(1, height))
	}
	return newBoardView(full)
}

// renderHeader renders the title row.
func (m Model) renderHeader() string {
	title := lipgloss.NewStyle().Bold(true).Foreground(textColor).Render("taskboard")
	sub := lipgloss.NewStyle().Foreground(mutedColor).Render(fmt.Sprintf("  %d of %d tasks shown", len(m.tasks), m.stats.Total))
	return title + sub
}

// renderStatsCards renders the status counters and completion bar.
func (m Model) renderStatsCards() string {
	card := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(dimColor).
		Padding(0, 1).
		MarginRight(1)
	label := lipgloss.NewStyle().Foreground(mutedColor)
	cards := []string{
		card.Render(label.Render("total") + "\n" + lipgloss.NewStyle().Bold(true).Render(fmt.Sprint(m.stats.Total))),
		card.Render(label.Render("to do") + "\n" + lipgloss.NewStyle().Bold(true).Foreground(statusColor(domain.StatusTodo)).Render(fmt.Sprint(m.stats.Todo))),
		card.Render(label.Render("in progress") + "\n" + lipgloss.NewStyle().Bold(true).Foreground(statusColor(domain.StatusInProgress)).Render(fmt.Sprint(m.stats.InProgress))),
		card.Render(label.Render("done") + "\n" + lipgloss.NewStyle().Bold(true).Foreground(statusColor(domain.StatusDone)).Render(fmt.Sprint(m.stats.Done))),
		card.Render(label.Render("complete") + "\n" + completionBar(m.stats.CompletionRate, 12)),
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, cards...)
}

// completionBar draws rate as a fixed-width bar followed by the percentage.
func completionBar(rate, width int) string {
	filled := clamp(rate*width/100, 0, width)
	bar := lipgloss.NewStyle().Foreground(statusColor(domain.StatusDone)).Render(strings.Repeat("█", filled)) +
		lipgloss.NewStyle().Foreground(dimColor).Render(strings.Repeat("░", width-filled))
	return fmt.Sprintf("%s %d%%", bar, rate)
}

// renderFilterBar renders the active search text and enum filters.
func (m Model) renderFilterBar() string {
	muted := lipgloss.NewStyle().Foreground(mutedColor)
	active := lipgloss.NewStyle().Foreground(accentColor).Bold(true)

	search := muted.Render("search: -")
	switch {
	case m.mode == modeSearch:
		search = "search: " + m.searchInput.View()
	case m.query.Text != "":
		search = "search: " + active.Render(m.query.Text)
	}
	render := func(name, value string) string {
		if value == app.FilterAll || value == "" {
			return muted.Render(name + ": all")
		}
		return name + ": " + active.Render(value)
	}
	return strings.Join([]string{search, render("status", m.query.Status), render("priority", m.query.Priority)}, "   ")
}

// renderList renders the visible tasks with the cursor row highlighted.
func (m Model) renderList(width, height int) string {
	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(dimColor).
		Padding(0, 1).
		Width(width)
	innerWidth := max(10, width-4)
	muted := lipgloss.NewStyle().Foreground(mutedColor)

	if len(m.tasks) == 0 {
		msg := "No tasks yet. Press n to create one."
		if !m.query.IsZero() {
			msg = "No tasks match the current filters. Press c to clear."
		}
		return box.Render(fitLines(muted.Render(msg), max(1, height-2)))
	}

	rowsPerTask := 2
	if m.fields.ShowDescription {
		rowsPerTask = 3
	}
	start, end := windowBounds(len(m.tasks), m.selected, max(1, (height-2)/rowsPerTask))
	selectedStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("212")).Bold(true)
	lines := make([]string, 0, (end-start)*rowsPerTask)
	for idx := start; idx < end; idx++ {
		task := m.tasks[idx]
		prefix := "  "
		title := truncate(task.Title, max(1, innerWidth-30))
		if idx == m.selected {
			prefix = "│ "
			title = selectedStyle.Render(title)
		}
		badges := lipgloss.NewStyle().Foreground(statusColor(task.Status)).Render(fmt.Sprintf("%-11s", task.Status)) + " " +
			lipgloss.NewStyle().Foreground(priorityColor(task.Priority)).Render(fmt.Sprintf("%-6s", task.Priority))
		lines = append(lines, prefix+badges+" "+title)
		lines = append(lines, prefix+muted.Render(truncate(m.taskMeta(task), max(1, innerWidth-2))))
		if m.fields.ShowDescription {
			desc := strings.Join(strings.Fields(task.Description), " ")
			lines = append(lines, prefix+muted.Render(truncate(desc, max(1, innerWidth-2))))
		}
	}
	return box.Render(fitLines(strings.Join(lines, "\n"), max(1, height-2)))
}

// taskMeta renders the secondary line under a task title.
func (m Model) taskMeta(task domain.Task) string {
	parts := []string{m.clientName(task.ClientID)}
	if task.AssignedTo != "" {
		parts = append(parts, "@"+task.AssignedTo)
	}
	if task.DueDate != nil {
		parts = append(parts, "due "+task.DueDate.Format(app.DueDateLayout))
	}
	if m.fields.ShowTags && len(task.Tags) > 0 {
		parts = append(parts, "#"+strings.Join(task.Tags, " #"))
	}
	return strings.Join(parts, " • ")
}

// renderDetail renders the selected task with its description as markdown.
func (m Model) renderDetail(width, height int) string {
	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(accentColor).
		Padding(0, 1).
		Width(width)
	task, ok := m.selectedTask()
	if !ok {
		return box.Render(fitLines("", max(1, height-2)))
	}
	muted := lipgloss.NewStyle().Foreground(mutedColor)
	lines := []string{
		lipgloss.NewStyle().Bold(true).Foreground(accentColor).Render(truncate(task.Title, width-4)),
		muted.Render("id: " + task.ID),
		muted.Render("client: " + m.clientName(task.ClientID)),
		muted.Render(fmt.Sprintf("status: %s • priority: %s", task.Status, task.Priority)),
	}
	if task.AssignedTo != "" {
		lines = append(lines, muted.Render("assigned: "+task.AssignedTo))
	}
	if task.DueDate != nil {
		lines = append(lines, muted.Render("due: "+task.DueDate.Format(app.DueDateLayout)))
	}
	if hours := formatHours(task); hours != "" {
		lines = append(lines, muted.Render(hours))
	}
	if len(task.Tags) > 0 {
		lines = append(lines, muted.Render("tags: "+strings.Join(task.Tags, ", ")))
	}
	lines = append(lines, muted.Render("updated: "+task.UpdatedAt.Format("2006-01-02 15:04")))
	if desc := m.md.render(task.Description, width-4); desc != "" {
		lines = append(lines, "", desc)
	}
	return box.Render(fitLines(strings.Join(lines, "\n"), max(1, height-2)))
}

// formatHours renders estimated and actual hours when present.
func formatHours(task domain.Task) string {
	var parts []string
	if task.EstimatedHours != nil {
		parts = append(parts, fmt.Sprintf("est %gh", *task.EstimatedHours))
	}
	if task.ActualHours != nil {
		parts = append(parts, fmt.Sprintf("actual %gh", *task.ActualHours))
	}
	return strings.Join(parts, " • ")
}

// renderOverlay renders the active modal, if any.
func (m Model) renderOverlay(maxWidth int) string {
	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(accentColor).
		Padding(0, 1)
	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(accentColor)
	hint := lipgloss.NewStyle().Foreground(mutedColor)

	switch {
	case m.mode == modeEditor:
		if maxWidth > 0 {
			box = box.Width(clamp(maxWidth, 44, 80))
		}
		return box.Render(m.renderEditorModal(titleStyle, hint))
	case m.mode == modeConfirmDelete:
		title := m.pendingDeleteID
		for _, t := range m.tasks {
			if t.ID == m.pendingDeleteID {
				title = t.Title
			}
		}
		return box.Render(strings.Join([]string{
			titleStyle.Render("Delete task?"),
			truncate(title, 60),
			hint.Render("y/enter delete • n/esc keep"),
		}, "\n"))
	case m.help.ShowAll:
		h := m.help
		h.ShowAll = true
		if maxWidth > 0 {
			h.SetWidth(clamp(maxWidth, 40, 100))
		}
		return box.Render(titleStyle.Render("Keys") + "\n" + h.View(m.keys) + "\n" + hint.Render("esc or ? close"))
	default:
		return ""
	}
}

// renderEditorModal renders the editor form rows.
func (m Model) renderEditorModal(titleStyle, hint lipgloss.Style) string {
	title := "New Task"
	if m.editor.State() == app.EditorOpenEdit {
		title = "Edit Task"
	}
	form := m.editor.Form()
	focused := lipgloss.NewStyle().Foreground(accentColor).Bold(true)
	lines := []string{titleStyle.Render(title), ""}
	for idx := 0; idx < formFieldCount; idx++ {
		label := fmt.Sprintf("%-12s", formFieldLabels[idx])
		if idx == m.formFocus {
			label = focused.Render(label)
		} else {
			label = hint.Render(label)
		}
		var value string
		switch idx {
		case formFieldStatus:
			value = choiceValue(string(form.Status), idx == m.formFocus)
		case formFieldPriority:
			value = choiceValue(string(form.Priority), idx == m.formFocus)
		case formFieldClient:
			name := "(choose with ←/→)"
			if form.ClientID != "" {
				name = m.clientName(form.ClientID)
			}
			value = choiceValue(name, idx == m.formFocus)
		case formFieldDescription:
			value = m.formDescription.View()
		case formFieldTags:
			value = m.formInputs[idx].View()
			if len(form.Tags) > 0 {
				value = hint.Render("#"+strings.Join(form.Tags, " #")) + " " + value
			}
		default:
			if idx < len(m.formInputs) {
				value = m.formInputs[idx].View()
			}
		}
		lines = append(lines, lipgloss.JoinHorizontal(lipgloss.Top, label+" ", value))
	}
	lines = append(lines, "", hint.Render("tab/↑↓ move • ←/→ choose • alt+enter newline • enter save • esc cancel"))
	return strings.Join(lines, "\n")
}

// choiceValue renders a cycling field, with arrows when focused.
func choiceValue(value string, focused bool) string {
	if focused {
		return "‹ " + value + " ›"
	}
	return value
}
