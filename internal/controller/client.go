package controller

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"

	"github.com/extago/extalife/internal/channels"
	"github.com/extago/extalife/internal/logging"
	"github.com/extago/extalife/internal/protocol"
	"github.com/extago/extalife/internal/session"
)

// ErrNotConnected is returned by operations issued on a client without a
// live authenticated session.
var ErrNotConnected = errors.New("not connected to controller")

const (
	// DefaultConnectTimeout bounds the initial TCP connect.
	DefaultConnectTimeout = 30 * time.Second

	// DefaultReconnectInterval is the fixed delay between reconnect
	// attempts. The peer is a local embedded device that comes back
	// quickly after a reboot, so a plain fixed interval beats
	// exponential backoff here.
	DefaultReconnectInterval = 30 * time.Second

	// reconnectConnectTimeout bounds each reconnect attempt's TCP
	// connect, shorter than the initial one since the address is known.
	reconnectConnectTimeout = 10 * time.Second
)

// Category selects which device catalogs a channel fetch covers.
type Category string

const (
	CategoryReceivers    Category = "receivers"
	CategorySensors      Category = "sensors"
	CategoryTransmitters Category = "transmitters"
	CategoryExtaFree     Category = "exta_free"
)

// AllCategories lists every fetchable category in fetch order.
var AllCategories = []Category{CategoryReceivers, CategorySensors, CategoryTransmitters, CategoryExtaFree}

type categoryFetch struct {
	command      protocol.Command
	dummyChannel bool
}

var categoryFetches = map[Category]categoryFetch{
	CategoryReceivers:    {command: protocol.CmdFetchReceivers},
	CategorySensors:      {command: protocol.CmdFetchSensors},
	CategoryTransmitters: {command: protocol.CmdFetchTransmitters, dummyChannel: true},
	CategoryExtaFree:     {command: protocol.CmdFetchExtaFree},
}

// Network is the controller's current IP configuration.
type Network struct {
	IP      string
	Mask    string
	Gateway string
	DNS     string
}

// VersionInfo is the firmware version state reported by CHECK_VERSION.
type VersionInfo struct {
	Installed       string
	Web             string
	UpdateAvailable bool
	Beta            string
}

// Config holds the connection parameters for one controller.
type Config struct {
	// Host is the controller address; empty means discover via multicast.
	Host string
	Port int

	Username string
	Password string

	// ConnectTimeout bounds the initial TCP connect.
	ConnectTimeout time.Duration

	// Autodiscover retries a failed connect with multicast discovery.
	// Covers controllers that changed IP since the address was stored.
	Autodiscover bool

	// ReconnectInterval is the fixed delay between reconnect attempts
	// after an unexpected disconnect. Zero uses the default; negative
	// disables reconnecting.
	ReconnectInterval time.Duration

	// Keepalive overrides the session NOOP interval.
	Keepalive time.Duration
}

// Client is the high-level controller handle. Safe for concurrent use;
// command exchanges are serialized by the underlying session.
type Client struct {
	cfg Config
	log *zap.Logger

	broker *channels.Broker

	mu             sync.Mutex
	sess           *session.Session
	mac            string
	name           string
	network        Network
	version        VersionInfo
	onNotification func(*protocol.Response)
	reconnecting   bool
	closed         bool

	lifetime context.Context
	teardown context.CancelFunc
}

// NewClient creates a disconnected client.
func NewClient(cfg Config) *Client {
	if cfg.ConnectTimeout <= 0 {
		cfg.ConnectTimeout = DefaultConnectTimeout
	}
	if cfg.ReconnectInterval == 0 {
		cfg.ReconnectInterval = DefaultReconnectInterval
	}
	lifetime, teardown := context.WithCancel(context.Background())
	return &Client{
		cfg:      cfg,
		log:      logging.Named("controller"),
		broker:   channels.NewBroker(),
		lifetime: lifetime,
		teardown: teardown,
	}
}

// Broker exposes the channel event stream for subscribers such as the
// live monitor.
func (c *Client) Broker() *channels.Broker {
	return c.broker
}

// OnNotification registers the single notification callback. The client
// forwards every NOTIFICATION frame without interpreting its payload.
func (c *Client) OnNotification(callback func(*protocol.Response)) {
	c.mu.Lock()
	c.onNotification = callback
	c.mu.Unlock()
}

// MAC returns the controller's MAC address, colon-separated lowercase.
func (c *Client) MAC() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.mac
}

// Name returns the controller name configured in the vendor app.
func (c *Client) Name() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.name
}

// Network returns the controller's current IP configuration.
func (c *Client) Network() Network {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.network
}

// Version returns the firmware version state captured at connect.
func (c *Client) Version() VersionInfo {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.version
}

// Host returns the controller address, resolved by discovery when the
// client connected without one.
func (c *Client) Host() string {
	if sess := c.session(); sess != nil {
		return sess.Host()
	}
	return c.cfg.Host
}

// Port returns the controller TCP port.
func (c *Client) Port() int {
	if sess := c.session(); sess != nil {
		return sess.Port()
	}
	return c.cfg.Port
}

// Username returns the configured account name.
func (c *Client) Username() string {
	return c.cfg.Username
}

// Connected reports whether an authenticated session is live.
func (c *Client) Connected() bool {
	sess := c.session()
	return sess != nil && sess.Authenticated()
}

func (c *Client) session() *session.Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sess
}

// Connect dials, authenticates and captures controller identity. When the
// configured address is unreachable and Autodiscover is set, the connect
// is retried with the address cleared so multicast discovery can find the
// controller's new IP.
//
// Authentication failures surface as session.AuthError, connection
// failures as session.ConnError, so callers can route the former to a
// credentials flow and the latter to a retry-later flow.
func (c *Client) Connect(ctx context.Context) error {
	return c.connect(ctx, c.cfg.ConnectTimeout)
}

func (c *Client) connect(ctx context.Context, timeout time.Duration) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return errors.New("client is closed")
	}
	if c.sess != nil && c.sess.Connected() {
		c.mu.Unlock()
		return errors.New("already connected")
	}
	c.mu.Unlock()

	sess, err := c.dial(ctx, c.cfg.Host, timeout)
	if err != nil {
		if session.IsConnError(err) && c.cfg.Host != "" && c.cfg.Autodiscover {
			c.log.Debug("connect failed, controller may have changed address, retrying with discovery",
				zap.String("host", c.cfg.Host), zap.Error(err))
			sess, err = c.dial(ctx, "", timeout)
		}
		if err != nil {
			return err
		}
	}

	if _, err := sess.Login(ctx, c.cfg.Username, c.cfg.Password); err != nil {
		sess.Disconnect()
		return err
	}

	c.mu.Lock()
	c.sess = sess
	c.mu.Unlock()

	c.captureIdentity(ctx)
	c.log.Info("controller connected",
		zap.String("host", sess.Host()), zap.Int("port", sess.Port()),
		zap.String("name", c.Name()), zap.String("mac", c.MAC()))
	return nil
}

func (c *Client) dial(ctx context.Context, host string, timeout time.Duration) (*session.Session, error) {
	sess := session.New(session.Options{
		Host:      host,
		Port:      c.cfg.Port,
		Keepalive: c.cfg.Keepalive,
		Callbacks: session.Callbacks{
			OnDisconnected: c.handleDisconnected,
			OnNotification: c.handleNotification,
		},
	})
	if err := sess.Connect(ctx, timeout); err != nil {
		return nil, err
	}
	return sess, nil
}

// captureIdentity refreshes the read-only identity properties from the
// controller. Failures leave the previous values; identity is cosmetic
// and must not fail a connect.
func (c *Client) captureIdentity(ctx context.Context) {
	details, err := c.ConfigDetails(ctx)
	if err != nil {
		c.log.Warn("could not fetch controller config details", zap.Error(err))
	} else {
		c.applyConfigDetails(details)
	}

	info, err := c.CheckVersion(ctx, false)
	if err != nil {
		c.log.Warn("could not fetch controller version", zap.Error(err))
		return
	}

	c.mu.Lock()
	c.version = VersionInfo{
		Installed:       stringField(info, "installed_version"),
		Web:             stringField(info, "web_version"),
		UpdateAvailable: intField(info, "update_state") > 0,
		Beta:            stringField(info, "beta_software"),
	}
	c.mu.Unlock()
}

func (c *Client) applyConfigDetails(details protocol.Data) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if network, ok := details["network"].(map[string]any); ok {
		c.name = stringField(network, "name")
		c.mac = formatMAC(stringField(network, "mac"))
	}
	// network_actual appeared in firmware 1.6.29
	if actual, ok := details["network_actual"].(map[string]any); ok {
		c.network = Network{
			IP:      stringField(actual, "ip"),
			Mask:    stringField(actual, "mask"),
			Gateway: stringField(actual, "gate"),
			DNS:     stringField(actual, "dns_prime"),
		}
	} else {
		c.network = Network{}
	}
}

func (c *Client) handleNotification(response *protocol.Response) {
	c.mu.Lock()
	callback := c.onNotification
	c.mu.Unlock()
	if callback != nil {
		callback(response)
	}

	if data := response.First(); data != nil {
		c.broker.Publish(channels.Topic{
			Kind: channels.KindNotification,
			ID:   channels.NotificationID(data),
		}, data)
	}
}

func (c *Client) handleDisconnected(sess *session.Session, shouldReconnect bool) {
	c.mu.Lock()
	if c.sess != sess {
		// a session connect never installed; its failure reaches the
		// caller through the connect error, without a reconnect
		c.mu.Unlock()
		return
	}
	c.sess = nil
	c.network = Network{}
	c.version = VersionInfo{}
	start := shouldReconnect && !c.closed && !c.reconnecting && c.cfg.ReconnectInterval > 0
	if start {
		c.reconnecting = true
	}
	c.mu.Unlock()

	if !start {
		if shouldReconnect {
			c.log.Info("connection to controller closed")
		}
		return
	}

	c.log.Error("lost connection to controller, reconnecting",
		zap.Duration("interval", c.cfg.ReconnectInterval))
	go c.reconnectLoop()
}

// reconnectLoop retries connect at a fixed interval until it succeeds or
// the client is torn down.
func (c *Client) reconnectLoop() {
	defer func() {
		c.mu.Lock()
		c.reconnecting = false
		c.mu.Unlock()
	}()

	// wait one interval before the first attempt so a rebooting
	// controller gets a moment to come back
	select {
	case <-time.After(c.cfg.ReconnectInterval):
	case <-c.lifetime.Done():
		return
	}

	policy := backoff.WithContext(backoff.NewConstantBackOff(c.cfg.ReconnectInterval), c.lifetime)
	attempt := func() error {
		err := c.connect(c.lifetime, reconnectConnectTimeout)
		if err != nil {
			if session.IsAuthError(err) {
				// credentials changed; retrying cannot help
				c.log.Error("reconnect rejected by controller, giving up", zap.Error(err))
				return backoff.Permanent(err)
			}
			c.log.Warn("reconnect failed, will retry", zap.Error(err))
		}
		return err
	}

	if err := backoff.Retry(attempt, policy); err != nil {
		c.log.Debug("reconnect loop finished without a connection", zap.Error(err))
		return
	}
	c.log.Info("controller connection restored")
}

// Disconnect closes the current session without tearing the client down.
// No reconnect follows a caller-initiated disconnect.
func (c *Client) Disconnect() {
	if sess := c.session(); sess != nil {
		sess.Disconnect()
	}
}

// Close disconnects and permanently tears the client down, stopping any
// reconnect loop.
func (c *Client) Close() {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()

	c.teardown()
	c.Disconnect()
}

// Exec runs one command exchange on the live session.
func (c *Client) Exec(ctx context.Context, command protocol.Command, data protocol.Data) (*protocol.Response, error) {
	sess := c.session()
	if sess == nil {
		return nil, ErrNotConnected
	}
	response, err := sess.Exec(ctx, command, data, 0)
	if err != nil {
		return nil, err
	}
	if cmdErr := session.ResponseError(response); cmdErr != nil {
		return nil, cmdErr
	}
	return response, nil
}

// Post fire-and-forgets one command on the live session.
func (c *Client) Post(command protocol.Command, data protocol.Data) error {
	sess := c.session()
	if sess == nil {
		return ErrNotConnected
	}
	return sess.Post(command, data)
}

// Channels fetches and flattens the requested categories. A failing
// category is logged and skipped; the others still return, so a partially
// responsive controller yields partial results instead of nothing.
func (c *Client) Channels(ctx context.Context, categories ...Category) ([]channels.Record, error) {
	if len(categories) == 0 {
		categories = AllCategories
	}

	var records []channels.Record
	var failures int
	for _, category := range categories {
		fetch, ok := categoryFetches[category]
		if !ok {
			c.log.Warn("unknown channel category", zap.String("category", string(category)))
			continue
		}
		response, err := c.Exec(ctx, fetch.command, nil)
		if err != nil {
			failures++
			c.log.Warn("channel fetch failed",
				zap.String("category", string(category)), zap.Error(err))
			continue
		}
		fetched := channels.Transform(response.Data, fetch.dummyChannel)
		records = append(records, fetched...)

		for _, record := range fetched {
			c.broker.Publish(channels.Topic{Kind: channels.KindUpdate, ID: record.ID}, record.Data)
		}
	}

	if failures == len(categories) && failures > 0 {
		return nil, errors.New("every channel fetch failed")
	}
	return records, nil
}

// ExecuteAction sends CONTROL_DEVICE for a symbolic action on one channel.
// Extra fields (value, mode, mode_val, rgb) are merged into the command
// payload. Returns the resulting state fragment.
func (c *Client) ExecuteAction(ctx context.Context, action Action, channelID string, fields protocol.Data) (protocol.Data, error) {
	deviceID, channel, err := channels.SplitID(channelID)
	if err != nil {
		return nil, err
	}

	data := protocol.Data{"id": deviceID}
	if channel != channels.DummyChannel {
		channelNo, convErr := strconv.Atoi(channel)
		if convErr != nil {
			return nil, convErr
		}
		data["channel"] = channelNo
	}
	if state, ok := action.State(); ok {
		data["state"] = state
	} else {
		data["state"] = nil
	}
	for k, v := range fields {
		data[k] = v
	}

	response, err := c.Exec(ctx, protocol.CmdControlDevice, data)
	if err != nil {
		return nil, err
	}
	return response.First(), nil
}

// CheckVersion fetches firmware version info. checkWeb also queries the
// vendor's update server for the latest published version.
func (c *Client) CheckVersion(ctx context.Context, checkWeb bool) (protocol.Data, error) {
	response, err := c.Exec(ctx, protocol.CmdCheckVersion, protocol.Data{"check_web_version": checkWeb})
	if err != nil {
		return nil, err
	}
	return response.First(), nil
}

// Restart reboots the controller.
func (c *Client) Restart(ctx context.Context) error {
	_, err := c.Exec(ctx, protocol.CmdRestart, protocol.Data{})
	return err
}

// NetworkSettings fetches the controller's network configuration and name.
func (c *Client) NetworkSettings(ctx context.Context) (protocol.Data, error) {
	response, err := c.Exec(ctx, protocol.CmdFetchNetworkSettings, nil)
	if err != nil {
		return nil, err
	}
	return response.First(), nil
}

// ConfigDetails fetches the extended controller configuration.
func (c *Client) ConfigDetails(ctx context.Context) (protocol.Data, error) {
	response, err := c.Exec(ctx, protocol.CmdGetConfigDetails, nil)
	if err != nil {
		return nil, err
	}
	return response.First(), nil
}

// ConfigBackup downloads the full controller configuration. Only fragments
// carrying a data_element payload are configuration content; bookkeeping
// fragments are dropped.
func (c *Client) ConfigBackup(ctx context.Context) ([]protocol.Data, error) {
	response, err := c.Exec(ctx, protocol.CmdDownloadBackup, nil)
	if err != nil {
		return nil, err
	}

	var backup []protocol.Data
	for _, fragment := range response.Data {
		if fragment == nil {
			continue
		}
		if element, ok := fragment["data_element"]; ok && element != nil {
			backup = append(backup, fragment)
		}
	}
	return backup, nil
}

// ActivateScene triggers a scene stored on the controller.
func (c *Client) ActivateScene(ctx context.Context, sceneID int) (protocol.Data, error) {
	response, err := c.Exec(ctx, protocol.CmdActivateScene, protocol.Data{"id": sceneID})
	if err != nil {
		return nil, err
	}
	return response.First(), nil
}

// ReceiverConfig fetches a receiver's stored configuration.
func (c *Client) ReceiverConfig(ctx context.Context, deviceID int) (protocol.Data, error) {
	response, err := c.Exec(ctx, protocol.CmdFetchReceiverConfig, protocol.Data{"id": deviceID})
	if err != nil {
		return nil, err
	}
	return response.First(), nil
}

// ReceiverConfigDetails fetches a receiver's extended configuration.
func (c *Client) ReceiverConfigDetails(ctx context.Context, deviceID int) (protocol.Data, error) {
	response, err := c.Exec(ctx, protocol.CmdFetchReceiverConfigDetails, protocol.Data{"id": deviceID})
	if err != nil {
		return nil, err
	}
	return response.First(), nil
}

func stringField(data protocol.Data, key string) string {
	if s, ok := data[key].(string); ok {
		return s
	}
	return ""
}

func intField(data protocol.Data, key string) int {
	switch v := data[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	default:
		return 0
	}
}

// formatMAC renders the firmware's bare hex MAC as colon-separated
// lowercase octets.
func formatMAC(raw string) string {
	raw = strings.ToLower(strings.ReplaceAll(raw, ":", ""))
	if raw == "" {
		return ""
	}
	var b strings.Builder
	for i := 0; i < len(raw); i += 2 {
		if i > 0 {
			b.WriteByte(':')
		}
		end := i + 2
		if end > len(raw) {
			end = len(raw)
		}
		b.WriteString(raw[i:end])
	}
	return b.String()
}
