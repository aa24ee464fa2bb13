package config

import "time"

// Registry is the entire user configuration file: known controllers plus
// application preferences.
type Registry struct {
	Version     int                    `yaml:"version"`
	Controllers map[string]*Controller `yaml:"controllers,omitempty"` // keyed by controller MAC
	Preferences *Preferences           `yaml:"preferences,omitempty"`
}

// Controller stores what the client remembers about one EFC-01 between
// runs. Keyed by MAC in the Registry because the IP can change under DHCP
// while the MAC never does.
type Controller struct {
	Name     string                  `yaml:"name,omitempty"`      // controller name from the vendor app
	Address  string                  `yaml:"address,omitempty"`   // last known address, optional ":port" suffix
	Username string                  `yaml:"username,omitempty"`  // account used for login
	LastSeen time.Time               `yaml:"last_seen,omitempty"` // last successful connection
	Channels map[string]*ChannelMeta `yaml:"channels,omitempty"`  // keyed by channel id, e.g. "11-1"
}

// ChannelMeta is purely client-side channel annotation; the controller
// keeps its own aliases and never sees these.
type ChannelMeta struct {
	Label  string `yaml:"label"`            // user-defined label
	Hidden bool   `yaml:"hidden,omitempty"` // exclude from channel listings
}

// Preferences are application-wide settings.
type Preferences struct {
	AutoDiscover    bool   `yaml:"auto_discover"`    // fall back to multicast discovery on stale addresses
	DiscoverTimeout int    `yaml:"discover_timeout"` // discovery timeout in seconds
	DefaultUsername string `yaml:"default_username"` // account preselected at login prompts
	// passwords are never stored; they are prompted when needed
}

const defaultUsername = "root"

// NewRegistry creates a registry with default values.
func NewRegistry() *Registry {
	return &Registry{
		Version:     1,
		Controllers: make(map[string]*Controller),
		Preferences: &Preferences{
			AutoDiscover:    true,
			DiscoverTimeout: 3,
			DefaultUsername: defaultUsername,
		},
	}
}

// Controller retrieves a controller entry by MAC, or nil when unknown.
func (r *Registry) Controller(mac string) *Controller {
	return r.Controllers[mac]
}

// EnsureController returns the entry for mac, creating it when absent.
func (r *Registry) EnsureController(mac string) *Controller {
	if r.Controllers == nil {
		r.Controllers = make(map[string]*Controller)
	}
	if controller, exists := r.Controllers[mac]; exists {
		return controller
	}
	controller := &Controller{Channels: make(map[string]*ChannelMeta)}
	r.Controllers[mac] = controller
	return controller
}

// RecordConnection updates the stored address, account and last-seen stamp
// after a successful login.
func (r *Registry) RecordConnection(mac, name, address, username string) {
	controller := r.EnsureController(mac)
	controller.Name = name
	controller.Address = address
	controller.Username = username
	controller.LastSeen = time.Now()
}

// SetChannelLabel annotates one channel of a controller.
func (r *Registry) SetChannelLabel(mac, channelID, label string) {
	controller := r.EnsureController(mac)
	if controller.Channels == nil {
		controller.Channels = make(map[string]*ChannelMeta)
	}
	meta, exists := controller.Channels[channelID]
	if !exists {
		meta = &ChannelMeta{}
		controller.Channels[channelID] = meta
	}
	meta.Label = label
}
