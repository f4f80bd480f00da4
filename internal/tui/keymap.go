package tui

import "charm.land/bubbles/v2/key"

// keyMap holds the board bindings shown in the help bar.
type keyMap struct {
	quit          key.Binding
	reload        key.Binding
	toggleHelp    key.Binding
	moveUp        key.Binding
	moveDown      key.Binding
	newTask       key.Binding
	editTask      key.Binding
	deleteTask    key.Binding
	statusPrev    key.Binding
	statusNext    key.Binding
	cycleStatus   key.Binding
	search        key.Binding
	filterStatus  key.Binding
	filterPrio    key.Binding
	clearFilters  key.Binding
	copyTask      key.Binding
	toggleDetails key.Binding
}

// newKeyMap constructs the default bindings.
func newKeyMap() keyMap {
	return keyMap{
		quit:          key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
		reload:        key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "reload")),
		toggleHelp:    key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "toggle help")),
		moveUp:        key.NewBinding(key.WithKeys("k", "up"), key.WithHelp("k/↑", "task up")),
		moveDown:      key.NewBinding(key.WithKeys("j", "down"), key.WithHelp("j/↓", "task down")),
		newTask:       key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "new task")),
		editTask:      key.NewBinding(key.WithKeys("e", "enter"), key.WithHelp("e/enter", "edit task")),
		deleteTask:    key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "delete task")),
		statusPrev:    key.NewBinding(key.WithKeys("["), key.WithHelp("[", "status back")),
		statusNext:    key.NewBinding(key.WithKeys("]"), key.WithHelp("]", "status forward")),
		cycleStatus:   key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "cycle status")),
		search:        key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "search")),
		filterStatus:  key.NewBinding(key.WithKeys("f"), key.WithHelp("f", "status filter")),
		filterPrio:    key.NewBinding(key.WithKeys("p"), key.WithHelp("p", "priority filter")),
		clearFilters:  key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "clear filters")),
		copyTask:      key.NewBinding(key.WithKeys("y"), key.WithHelp("y", "copy task")),
		toggleDetails: key.NewBinding(key.WithKeys("i"), key.WithHelp("i", "toggle details")),
	}
}

// ShortHelp returns the bindings shown in the collapsed help bar.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{
		k.newTask, k.editTask, k.cycleStatus, k.search, k.filterStatus, k.filterPrio, k.toggleHelp, k.quit,
	}
}

// FullHelp returns every binding grouped for the help overlay.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.newTask, k.editTask, k.deleteTask, k.copyTask, k.toggleDetails},
		{k.moveUp, k.moveDown, k.statusPrev, k.statusNext, k.cycleStatus},
		{k.search, k.filterStatus, k.filterPrio, k.clearFilters, k.reload, k.toggleHelp, k.quit},
	}
}
