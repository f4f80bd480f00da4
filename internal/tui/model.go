package tui

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"charm.land/bubbles/v2/help"
	"charm.land/bubbles/v2/key"
	"charm.land/bubbles/v2/textarea"
	"charm.land/bubbles/v2/textinput"
	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"
	"github.com/evanschultz/taskboard/internal/app"
	"github.com/evanschultz/taskboard/internal/domain"
)

// Service is the board surface the TUI drives.
type Service interface {
	VisibleTasks(context.Context, app.Query) ([]domain.Task, error)
	Statistics(context.Context) (app.Statistics, error)
	ListClients(context.Context) ([]domain.Client, error)
	ClientName(string) string
	CreateTask(context.Context, app.TaskDraft) (domain.Task, error)
	UpdateTask(context.Context, string, app.TaskDraft) (domain.Task, error)
	SetTaskStatus(context.Context, string, domain.Status) (domain.Task, error)
	DeleteTask(context.Context, string) error
	Defaults() (domain.Status, domain.Priority)
}

// inputMode identifies which surface receives key presses.
type inputMode int

const (
	modeNone inputMode = iota
	modeSearch
	modeEditor
	modeConfirmDelete
)

// statusFilterCycle and priorityFilterCycle are the f/p rotation orders.
var (
	statusFilterCycle   = []string{app.FilterAll, string(domain.StatusTodo), string(domain.StatusInProgress), string(domain.StatusDone)}
	priorityFilterCycle = []string{app.FilterAll, string(domain.PriorityLow), string(domain.PriorityMedium), string(domain.PriorityHigh), string(domain.PriorityUrgent)}
)

// detailPaneMinWidth hides the detail pane on narrow terminals.
const detailPaneMinWidth = 100

// Model is the bubbletea board model.
type Model struct {
	svc    Service
	keys   keyMap
	help   help.Model
	fields BoardFieldConfig

	ready  bool
	width  int
	height int
	status string
	err    error
	mode   inputMode

	tasks    []domain.Task
	stats    app.Statistics
	clients  []domain.Client
	query    app.Query
	selected int

	pendingFocusID  string
	pendingDeleteID string
	showDetails     bool

	searchInput textinput.Model

	editor          *app.Editor
	formInputs      []textinput.Model
	formDescription textarea.Model
	formOriginal    app.TaskForm
	formLoaded      [formFieldCount]string
	formFocus       int

	md       *markdownRenderer
	copyText func(string) error
}

// loadedMsg carries one board refresh for query.
type loadedMsg struct {
	query   app.Query
	tasks   []domain.Task
	stats   app.Statistics
	clients []domain.Client
	err     error
}

// actionMsg reports the outcome of one store mutation.
type actionMsg struct {
	err         error
	status      string
	focusTaskID string
}

// copiedMsg reports a clipboard write.
type copiedMsg struct {
	taskID string
	err    error
}

// NewModel constructs a board model over svc.
func NewModel(svc Service, opts ...Option) Model {
	h := help.New()
	h.ShowAll = false
	searchInput := textinput.New()
	searchInput.Prompt = "/ "
	searchInput.Placeholder = "title, description, client"
	searchInput.CharLimit = 120

	defaultStatus, defaultPriority := domain.StatusTodo, domain.PriorityMedium
	if svc != nil {
		defaultStatus, defaultPriority = svc.Defaults()
	}
	m := Model{
		svc:         svc,
		keys:        newKeyMap(),
		help:        h,
		fields:      DefaultBoardFieldConfig(),
		status:      "loading...",
		query:       app.DefaultQuery(),
		showDetails: true,
		searchInput: searchInput,
		editor:      app.NewEditor(defaultStatus, defaultPriority),
		md:          &markdownRenderer{},
		copyText:    systemClipboard,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&m)
		}
	}
	return m
}

// Init loads the first board snapshot.
func (m Model) Init() tea.Cmd {
	return m.loadData
}

// Update applies one message to the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case loadedMsg:
		// Searches reload per keystroke; drop results for a query the user has moved past.
		if msg.query != m.query {
			return m, nil
		}
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.err = nil
		m.tasks = msg.tasks
		m.stats = msg.stats
		m.clients = msg.clients
		if m.pendingFocusID != "" {
			m.focusTask(m.pendingFocusID)
			m.pendingFocusID = ""
		}
		m.selected = clamp(m.selected, 0, len(m.tasks)-1)
		if m.status == "" || m.status == "loading..." {
			m.status = "ready"
		}
		return m, nil

	case actionMsg:
		// A vanished target is a silent no-op; the reload drops it from view.
		if msg.err != nil && !errors.Is(msg.err, app.ErrNotFound) {
			m.err = msg.err
			return m, nil
		}
		if msg.status != "" {
			m.status = msg.status
		}
		if msg.focusTaskID != "" {
			m.pendingFocusID = msg.focusTaskID
		}
		return m, m.loadData

	case copiedMsg:
		if msg.err != nil {
			m.status = "copy failed: " + msg.err.Error()
			return m, nil
		}
		m.status = "copied " + msg.taskID
		return m, nil

	case tea.KeyPressMsg:
		switch m.mode {
		case modeSearch:
			return m.handleSearchKey(msg)
		case modeEditor:
			return m.handleEditorKey(msg)
		case modeConfirmDelete:
			return m.handleConfirmDeleteKey(msg)
		default:
			return m.handleNormalModeKey(msg)
		}

	default:
		return m, nil
	}
}

// loadData fetches the visible tasks, statistics and clients.
func (m Model) loadData() tea.Msg {
	query := m.query
	if m.svc == nil {
		return loadedMsg{query: query, err: errors.New("board service is not configured")}
	}
	ctx := context.Background()
	tasks, err := m.svc.VisibleTasks(ctx, query)
	if err != nil {
		return loadedMsg{query: query, err: err}
	}
	stats, err := m.svc.Statistics(ctx)
	if err != nil {
		return loadedMsg{query: query, err: err}
	}
	clients, err := m.svc.ListClients(ctx)
	if err != nil {
		return loadedMsg{query: query, err: err}
	}
	return loadedMsg{query: query, tasks: tasks, stats: stats, clients: clients}
}

// handleNormalModeKey handles board navigation and commands.
func (m Model) handleNormalModeKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.toggleHelp):
		m.help.ShowAll = !m.help.ShowAll
		return m, nil
	case msg.String() == "esc":
		m.help.ShowAll = false
		return m, nil
	case key.Matches(msg, m.keys.reload):
		m.err = nil
		m.status = "reloading..."
		return m, m.loadData
	case key.Matches(msg, m.keys.moveUp):
		if m.selected > 0 {
			m.selected--
		}
		return m, nil
	case key.Matches(msg, m.keys.moveDown):
		if m.selected < len(m.tasks)-1 {
			m.selected++
		}
		return m, nil
	case key.Matches(msg, m.keys.newTask):
		return m, m.startEditor(nil)
	case key.Matches(msg, m.keys.editTask):
		task, ok := m.selectedTask()
		if !ok {
			return m, nil
		}
		return m, m.startEditor(&task)
	case key.Matches(msg, m.keys.deleteTask):
		task, ok := m.selectedTask()
		if !ok {
			return m, nil
		}
		m.mode = modeConfirmDelete
		m.pendingDeleteID = task.ID
		m.status = "delete " + truncate(task.Title, 40) + "?"
		return m, nil
	case key.Matches(msg, m.keys.statusPrev):
		return m.stepSelectedStatus(-1, false)
	case key.Matches(msg, m.keys.statusNext):
		return m.stepSelectedStatus(1, false)
	case key.Matches(msg, m.keys.cycleStatus):
		return m.stepSelectedStatus(1, true)
	case key.Matches(msg, m.keys.search):
		m.mode = modeSearch
		m.searchInput.SetValue(m.query.Text)
		m.searchInput.CursorEnd()
		m.status = "search"
		return m, m.searchInput.Focus()
	case key.Matches(msg, m.keys.filterStatus):
		m.query.Status = nextInCycle(statusFilterCycle, m.query.Status)
		m.status = "status: " + m.query.Status
		return m, m.loadData
	case key.Matches(msg, m.keys.filterPrio):
		m.query.Priority = nextInCycle(priorityFilterCycle, m.query.Priority)
		m.status = "priority: " + m.query.Priority
		return m, m.loadData
	case key.Matches(msg, m.keys.clearFilters):
		m.query = m.query.Cleared()
		m.searchInput.SetValue("")
		m.status = "filters cleared"
		return m, m.loadData
	case key.Matches(msg, m.keys.copyTask):
		task, ok := m.selectedTask()
		if !ok {
			return m, nil
		}
		return m, m.copyTaskCmd(task)
	case key.Matches(msg, m.keys.toggleDetails):
		m.showDetails = !m.showDetails
		return m, nil
	default:
		return m, nil
	}
}

// handleSearchKey applies the text filter while typing.
func (m Model) handleSearchKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.mode = modeNone
		m.searchInput.Blur()
		m.searchInput.SetValue("")
		m.query.Text = ""
		m.status = "search cleared"
		return m, m.loadData
	case "enter":
		m.mode = modeNone
		m.searchInput.Blur()
		m.status = "ready"
		return m, nil
	}
	var cmd tea.Cmd
	m.searchInput, cmd = m.searchInput.Update(msg)
	if m.searchInput.Value() == m.query.Text {
		return m, cmd
	}
	m.query.Text = m.searchInput.Value()
	m.selected = 0
	return m, tea.Batch(cmd, m.loadData)
}

// handleConfirmDeleteKey resolves the delete prompt.
func (m Model) handleConfirmDeleteKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "y", "enter":
		taskID := m.pendingDeleteID
		m.mode = modeNone
		m.pendingDeleteID = ""
		return m, m.deleteTaskCmd(taskID)
	case "n", "esc", "q":
		m.mode = modeNone
		m.pendingDeleteID = ""
		m.status = "delete cancelled"
		return m, nil
	default:
		return m, nil
	}
}

// stepSelectedStatus moves the selected task along the status order.
func (m Model) stepSelectedStatus(delta int, wrap bool) (tea.Model, tea.Cmd) {
	task, ok := m.selectedTask()
	if !ok {
		return m, nil
	}
	next, changed := stepStatus(task.Status, delta, wrap)
	if !changed {
		return m, nil
	}
	return m, m.setStatusCmd(task.ID, next)
}

// setStatusCmd changes one task status.
func (m Model) setStatusCmd(taskID string, status domain.Status) tea.Cmd {
	svc := m.svc
	return func() tea.Msg {
		task, err := svc.SetTaskStatus(context.Background(), taskID, status)
		if err != nil {
			return actionMsg{err: err}
		}
		return actionMsg{status: fmt.Sprintf("%s → %s", truncate(task.Title, 32), task.Status), focusTaskID: task.ID}
	}
}

// deleteTaskCmd removes one task.
func (m Model) deleteTaskCmd(taskID string) tea.Cmd {
	svc := m.svc
	return func() tea.Msg {
		if err := svc.DeleteTask(context.Background(), taskID); err != nil {
			return actionMsg{err: err}
		}
		return actionMsg{status: "task deleted"}
	}
}

// copyTaskCmd writes a one-line task summary to the clipboard.
func (m Model) copyTaskCmd(task domain.Task) tea.Cmd {
	write := m.copyText
	summary := m.taskSummary(task)
	return func() tea.Msg {
		return copiedMsg{taskID: task.ID, err: write(summary)}
	}
}

// taskSummary formats one task for sharing.
func (m Model) taskSummary(task domain.Task) string {
	parts := []string{
		task.ID,
		fmt.Sprintf("[%s/%s]", task.Status, task.Priority),
		task.Title,
		"(" + m.clientName(task.ClientID) + ")",
	}
	if task.DueDate != nil {
		parts = append(parts, "due "+task.DueDate.Format(app.DueDateLayout))
	}
	return strings.Join(parts, " ")
}

// selectedTask returns the task under the cursor.
func (m Model) selectedTask() (domain.Task, bool) {
	if len(m.tasks) == 0 {
		return domain.Task{}, false
	}
	return m.tasks[clamp(m.selected, 0, len(m.tasks)-1)], true
}

// focusTask moves the cursor to taskID when it is visible.
func (m *Model) focusTask(taskID string) {
	if idx := slices.IndexFunc(m.tasks, func(t domain.Task) bool { return t.ID == taskID }); idx >= 0 {
		m.selected = idx
	}
}

// clientName resolves a client id for display.
func (m Model) clientName(id string) string {
	if m.svc != nil {
		return m.svc.ClientName(id)
	}
	return domain.UnknownClientName
}

// stepStatus returns the status delta steps away in board order.
func stepStatus(current domain.Status, delta int, wrap bool) (domain.Status, bool) {
	order := domain.Statuses()
	idx := slices.Index(order, current)
	if idx < 0 {
		return domain.StatusTodo, true
	}
	next := idx + delta
	if wrap {
		next = ((next % len(order)) + len(order)) % len(order)
	} else if next < 0 || next >= len(order) {
		return current, false
	}
	return order[next], order[next] != current
}

// nextInCycle returns the value after current, restarting at the first entry.
func nextInCycle(cycle []string, current string) string {
	idx := slices.Index(cycle, current)
	return cycle[(idx+1)%len(cycle)]
}

// clamp bounds v to [minV, maxV], preferring minV when the range is empty.
func clamp(v, minV, maxV int) int {
	if maxV < minV {
		return minV
	}
	return min(max(v, minV), maxV)
}

// truncate shortens s to n runes with an ellipsis.
func truncate(s string, n int) string {
	if n <= 0 {
		return ""
	}
	rs := []rune(s)
	if len(rs) <= n {
		return s
	}
	if n == 1 {
		return string(rs[:1])
	}
	return string(rs[:n-1]) + "…"
}

// windowBounds returns the visible slice bounds that keep selected on screen.
func windowBounds(total, selected, size int) (int, int) {
	if size <= 0 || total <= size {
		return 0, total
	}
	start := clamp(selected-size/2, 0, total-size)
	return start, start + size
}

// fitLines pads or cuts content to exactly maxLines lines.
func fitLines(content string, maxLines int) string {
	if maxLines <= 0 {
		return ""
	}
	lines := strings.Split(content, "\n")
	switch {
	case len(lines) > maxLines:
		if maxLines == 1 {
			lines = []string{"…"}
		} else {
			lines = append(lines[:maxLines-1], "…")
		}
	case len(lines) < maxLines:
		lines = append(lines, make([]string, maxLines-len(lines))...)
	}
	return strings.Join(lines, "\n")
}

// overlayOnContent centers overlay above base using a layered canvas.
func overlayOnContent(base, overlay string, width, height int) string {
	if width <= 0 || height <= 0 {
		return overlay + "\n\n" + base
	}
	base = fitLines(base, height)
	canvas := lipgloss.NewCanvas(width, height)
	centered := lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, overlay)
	canvas.Compose(lipgloss.NewLayer(base).X(0).Y(0).Z(0))
	canvas.Compose(lipgloss.NewLayer(centered).X(0).Y(0).Z(10))
	return canvas.Render()
}
