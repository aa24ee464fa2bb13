package controller

import "sync"

// Manager tracks connected clients by controller MAC. An explicit registry
// instead of package-level globals keeps multi-controller hosts testable.
type Manager struct {
	mu      sync.Mutex
	clients map[string]*Client
}

// NewManager creates an empty registry.
func NewManager() *Manager {
	return &Manager{clients: make(map[string]*Client)}
}

// Register adds a client under its MAC. A client with an unknown MAC (not
// yet connected) is rejected.
func (m *Manager) Register(client *Client) bool {
	mac := client.MAC()
	if mac == "" {
		return false
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.clients[mac]; exists {
		return false
	}
	m.clients[mac] = client
	return true
}

// Get looks a client up by MAC.
func (m *Manager) Get(mac string) (*Client, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	client, ok := m.clients[mac]
	return client, ok
}

// Remove drops a client from the registry without closing it.
func (m *Manager) Remove(mac string) {
	m.mu.Lock()
	delete(m.clients, mac)
	m.mu.Unlock()
}

// All returns a snapshot of the registered clients.
func (m *Manager) All() []*Client {
	m.mu.Lock()
	defer m.mu.Unlock()
	clients := make([]*Client, 0, len(m.clients))
	for _, client := range m.clients {
		clients = append(clients, client)
	}
	return clients
}

// CloseAll closes every registered client and empties the registry.
func (m *Manager) CloseAll() {
	m.mu.Lock()
	clients := m.clients
	m.clients = make(map[string]*Client)
	m.mu.Unlock()

	for _, client := range clients {
		client.Close()
	}
}
