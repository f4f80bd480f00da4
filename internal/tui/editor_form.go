package tui

import (
	"context"
	"errors"
	"slices"
	"strings"

	"charm.land/bubbles/v2/textarea"
	"charm.land/bubbles/v2/textinput"
	tea "charm.land/bubbletea/v2"
	"github.com/evanschultz/taskboard/internal/app"
	"github.com/evanschultz/taskboard/internal/domain"
)

// editor form field indexes in display and tab order.
const (
	formFieldTitle = iota
	formFieldDescription
	formFieldStatus
	formFieldPriority
	formFieldClient
	formFieldAssignee
	formFieldDue
	formFieldHours
	formFieldTags
	formFieldCount
)

// formFieldLabels names each editor row.
var formFieldLabels = [formFieldCount]string{
	"title", "description", "status", "priority", "client", "assigned", "due", "est. hours", "tags",
}

// isChoiceField reports whether idx cycles with ←/→ instead of accepting text.
func isChoiceField(idx int) bool {
	return idx == formFieldStatus || idx == formFieldPriority || idx == formFieldClient
}

// newModalInput constructs one editor text input. A zero limit means unbounded.
func newModalInput(placeholder, value string, limit int) textinput.Model {
	in := textinput.New()
	in.Prompt = ""
	in.Placeholder = placeholder
	in.CharLimit = limit
	if value != "" {
		in.SetValue(value)
	}
	return in
}

// newDescriptionArea constructs the multi-line description input.
func newDescriptionArea(value string) textarea.Model {
	ta := textarea.New()
	ta.Prompt = ""
	ta.Placeholder = "markdown description"
	ta.ShowLineNumbers = false
	ta.CharLimit = 0
	ta.MaxHeight = 0
	ta.SetWidth(56)
	ta.SetHeight(4)
	if value != "" {
		ta.SetValue(value)
	}
	return ta
}

// startEditor opens the editor for a new task, or for task when non-nil.
func (m *Model) startEditor(task *domain.Task) tea.Cmd {
	var err error
	if task == nil {
		err = m.editor.OpenCreate()
	} else {
		err = m.editor.OpenEdit(*task)
	}
	if err != nil {
		m.status = err.Error()
		return nil
	}

	form := m.editor.Form()
	m.formOriginal = form
	m.formInputs = make([]textinput.Model, formFieldCount)
	m.formInputs[formFieldTitle] = newModalInput("task title (required)", form.Title, 0)
	m.formInputs[formFieldAssignee] = newModalInput("assignee", form.AssignedTo, 0)
	m.formInputs[formFieldDue] = newModalInput("YYYY-MM-DD", form.DueDate, 0)
	m.formInputs[formFieldHours] = newModalInput("e.g. 2.5", form.EstimatedHours, 0)
	m.formInputs[formFieldTags] = newModalInput("type a tag, enter adds", "", 40)
	for _, idx := range []int{formFieldDescription, formFieldStatus, formFieldPriority, formFieldClient} {
		m.formInputs[idx] = newModalInput("", "", 0)
	}
	m.formDescription = newDescriptionArea(form.Description)
	// Inputs may rewrite what they are given (newlines, tabs); remember
	// what they show so untouched fields keep the task's exact text.
	for idx := range formFieldCount {
		m.formLoaded[idx] = m.inputValue(idx)
	}
	m.mode = modeEditor
	if task == nil {
		m.status = "new task"
	} else {
		m.status = "edit task"
	}
	return m.focusFormField(formFieldTitle)
}

// focusFormField moves keyboard focus to idx.
func (m *Model) focusFormField(idx int) tea.Cmd {
	if len(m.formInputs) == 0 {
		return nil
	}
	m.formFocus = clamp(idx, 0, len(m.formInputs)-1)
	for i := range m.formInputs {
		m.formInputs[i].Blur()
	}
	m.formDescription.Blur()
	switch {
	case isChoiceField(m.formFocus):
		return nil
	case m.formFocus == formFieldDescription:
		return m.formDescription.Focus()
	}
	return m.formInputs[m.formFocus].Focus()
}

// inputValue returns what the input at idx currently shows.
func (m Model) inputValue(idx int) string {
	if idx == formFieldDescription {
		return m.formDescription.Value()
	}
	return m.formInputs[idx].Value()
}

// formValue returns the input at idx, or original when the user left it as loaded.
func (m Model) formValue(idx int, original string) string {
	v := m.inputValue(idx)
	if v == m.formLoaded[idx] {
		return original
	}
	return v
}

// syncEditorForm copies the text inputs into the editor form.
func (m *Model) syncEditorForm() {
	if len(m.formInputs) != formFieldCount {
		return
	}
	form := m.editor.Form()
	form.Title = m.formValue(formFieldTitle, m.formOriginal.Title)
	form.Description = m.formValue(formFieldDescription, m.formOriginal.Description)
	form.AssignedTo = m.formValue(formFieldAssignee, m.formOriginal.AssignedTo)
	form.DueDate = m.formValue(formFieldDue, m.formOriginal.DueDate)
	form.EstimatedHours = m.formValue(formFieldHours, m.formOriginal.EstimatedHours)
	_ = m.editor.SetForm(form)
}

// handleEditorKey routes key presses while the editor modal is open.
func (m Model) handleEditorKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.closeEditor()
		m.status = "cancelled"
		return m, nil
	case "tab", "down":
		return m, m.focusFormField((m.formFocus + 1) % formFieldCount)
	case "shift+tab", "up":
		return m, m.focusFormField((m.formFocus + formFieldCount - 1) % formFieldCount)
	case "ctrl+s":
		return m.submitEditor()
	case "alt+enter":
		if m.formFocus == formFieldDescription {
			m.formDescription.InsertRune('\n')
			return m, nil
		}
	case "enter":
		if m.formFocus == formFieldTags && strings.TrimSpace(m.formInputs[formFieldTags].Value()) != "" {
			m.syncEditorForm()
			m.editor.AddTag(m.formInputs[formFieldTags].Value())
			m.formInputs[formFieldTags].SetValue("")
			return m, nil
		}
		return m.submitEditor()
	case "backspace":
		if m.formFocus == formFieldTags && m.formInputs[formFieldTags].Value() == "" {
			m.editor.RemoveTag(len(m.editor.Form().Tags) - 1)
			return m, nil
		}
	case "left", "right":
		if isChoiceField(m.formFocus) {
			delta := 1
			if msg.String() == "left" {
				delta = -1
			}
			m.syncEditorForm()
			m.cycleChoice(m.formFocus, delta)
			return m, nil
		}
	}
	if isChoiceField(m.formFocus) {
		return m, nil
	}
	var cmd tea.Cmd
	if m.formFocus == formFieldDescription {
		m.formDescription, cmd = m.formDescription.Update(msg)
		return m, cmd
	}
	m.formInputs[m.formFocus], cmd = m.formInputs[m.formFocus].Update(msg)
	return m, cmd
}

// cycleChoice rotates one choice field through its allowed values.
func (m *Model) cycleChoice(field, delta int) {
	form := m.editor.Form()
	switch field {
	case formFieldStatus:
		form.Status = rotate(domain.Statuses(), form.Status, delta)
	case formFieldPriority:
		form.Priority = rotate(domain.Priorities(), form.Priority, delta)
	case formFieldClient:
		ids := make([]string, 0, len(m.clients))
		for _, c := range m.clients {
			ids = append(ids, c.ID)
		}
		if len(ids) == 0 {
			return
		}
		form.ClientID = rotate(ids, form.ClientID, delta)
	}
	_ = m.editor.SetForm(form)
}

// rotate steps delta positions from current, wrapping at both ends.
// An unknown current value starts from the first entry.
func rotate[T comparable](values []T, current T, delta int) T {
	idx := slices.Index(values, current)
	if idx < 0 {
		return values[0]
	}
	n := len(values)
	return values[((idx+delta)%n+n)%n]
}

// submitEditor commits the form. Validation failures keep the modal open and unchanged.
func (m Model) submitEditor() (tea.Model, tea.Cmd) {
	m.syncEditorForm()
	creating := m.editor.State() == app.EditorOpenCreate
	task, err := m.editor.Submit(context.Background(), m.svc)
	switch {
	case err == nil:
		m.closeEditor()
		m.pendingFocusID = task.ID
		if creating {
			m.status = "task created"
		} else {
			m.status = "task updated"
		}
		return m, m.loadData
	case errors.Is(err, app.ErrValidation):
		return m, nil
	case errors.Is(err, app.ErrNotFound):
		m.closeEditor()
		return m, m.loadData
	default:
		m.status = "save failed: " + err.Error()
		return m, nil
	}
}

// closeEditor resets the modal and returns to the board.
func (m *Model) closeEditor() {
	m.editor.Cancel()
	for i := range m.formInputs {
		m.formInputs[i].Blur()
	}
	m.formDescription.Blur()
	m.formInputs = nil
	m.formOriginal = app.TaskForm{}
	m.formLoaded = [formFieldCount]string{}
	m.formFocus = 0
	m.mode = modeNone
}
