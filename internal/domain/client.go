package domain

import (
	"slices"
	"strings"
)

// UnknownClientName is shown for tasks whose client id is not in the directory.
const UnknownClientName = "Unknown client"

// Client represents a customer that tasks are done for.
type Client struct {
	ID     string
	Name   string
	Email  string
	Phone  string
	Avatar string
}

// NewClient trims and validates one directory entry.
func NewClient(in Client) (Client, error) {
	in.ID = strings.TrimSpace(in.ID)
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.TrimSpace(in.Email)
	in.Phone = strings.TrimSpace(in.Phone)
	in.Avatar = strings.TrimSpace(in.Avatar)
	if in.ID == "" {
		return Client{}, ErrInvalidID
	}
	if in.Name == "" {
		return Client{}, ErrInvalidName
	}
	return in, nil
}

// ClientDirectory is a read-only, ordered list of clients.
type ClientDirectory struct {
	clients []Client
	byID    map[string]int
}

// NewClientDirectory builds a directory. A repeated id keeps its first entry.
func NewClientDirectory(clients []Client) (*ClientDirectory, error) {
	dir := &ClientDirectory{
		clients: make([]Client, 0, len(clients)),
		byID:    make(map[string]int, len(clients)),
	}
	for _, raw := range clients {
		c, err := NewClient(raw)
		if err != nil {
			return nil, err
		}
		if _, ok := dir.byID[c.ID]; ok {
			continue
		}
		dir.byID[c.ID] = len(dir.clients)
		dir.clients = append(dir.clients, c)
	}
	return dir, nil
}

// List returns a copy of the directory in its original order.
func (d *ClientDirectory) List() []Client {
	if d == nil {
		return nil
	}
	return slices.Clone(d.clients)
}

// Lookup resolves a client by id.
func (d *ClientDirectory) Lookup(id string) (Client, bool) {
	if d == nil {
		return Client{}, false
	}
	idx, ok := d.byID[strings.TrimSpace(id)]
	if !ok {
		return Client{}, false
	}
	return d.clients[idx], true
}

// DisplayName returns the client name or the placeholder for unknown ids.
func (d *ClientDirectory) DisplayName(id string) string {
	if c, ok := d.Lookup(id); ok {
		return c.Name
	}
	return UnknownClientName
}
