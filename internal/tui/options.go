package tui

import "github.com/atotto/clipboard"

// BoardFieldConfig controls which optional task fields the list shows.
type BoardFieldConfig struct {
	ShowDescription bool
	ShowTags        bool
}

// Option configures a Model.
type Option func(*Model)

// DefaultBoardFieldConfig shows tags and hides descriptions in list rows.
func DefaultBoardFieldConfig() BoardFieldConfig {
	return BoardFieldConfig{
		ShowDescription: false,
		ShowTags:        true,
	}
}

// WithBoardFieldConfig overrides the list field visibility.
func WithBoardFieldConfig(cfg BoardFieldConfig) Option {
	return func(m *Model) {
		m.fields = cfg
	}
}

// WithClipboard replaces the system clipboard writer.
func WithClipboard(write func(string) error) Option {
	return func(m *Model) {
		if write != nil {
			m.copyText = write
		}
	}
}

// systemClipboard writes to the OS clipboard.
func systemClipboard(text string) error {
	return clipboard.WriteAll(text)
}
