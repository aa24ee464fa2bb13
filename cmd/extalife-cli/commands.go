package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/extago/extalife/internal/config"
	"github.com/extago/extalife/internal/controller"
	"github.com/extago/extalife/internal/discovery"
	"github.com/extago/extalife/internal/protocol"
	"github.com/extago/extalife/internal/session"
	"github.com/extago/extalife/internal/tui"
)

// Connection flags, shared by every command that talks to a controller
var (
	hostFlag     string
	portFlag     int
	userFlag     string
	passwordFlag string
	timeoutFlag  int
	outputFormat string
)

func init() {
	rootCmd.PersistentFlags().StringVar(&hostFlag, "host", "", "Controller address (default: last known, then multicast discovery)")
	rootCmd.PersistentFlags().IntVar(&portFlag, "port", discovery.DefaultPort, "Controller TCP port")
	rootCmd.PersistentFlags().StringVar(&userFlag, "user", "", "Controller account name")
	rootCmd.PersistentFlags().StringVar(&passwordFlag, "password", "", "Controller password (prompted when omitted)")
	rootCmd.PersistentFlags().IntVar(&timeoutFlag, "timeout", 30, "Connect timeout in seconds")
	rootCmd.PersistentFlags().StringVar(&outputFormat, "format", "table", "Output format (table, json)")

	rootCmd.AddCommand(discoverCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(channelsCmd)
	rootCmd.AddCommand(actionCmd)
	rootCmd.AddCommand(sceneCmd)
	rootCmd.AddCommand(restartCmd)
	rootCmd.AddCommand(networkCmd)
	rootCmd.AddCommand(backupCmd)
	rootCmd.AddCommand(monitorCmd)
}

// connectClient builds a client from flags and stored configuration,
// connects and logs in. The caller must Close it.
func connectClient(reconnect bool) (*controller.Client, error) {
	registry, err := config.Load()
	if err != nil {
		return nil, err
	}

	host := hostFlag
	username := userFlag
	if host == "" {
		host, username = lastKnownController(registry, username)
	}
	if username == "" {
		username = registry.Preferences.DefaultUsername
	}

	password := passwordFlag
	if password == "" {
		password = os.Getenv("EXTALIFE_PASSWORD")
	}
	if password == "" {
		password, err = promptPassword(username)
		if err != nil {
			return nil, err
		}
	}

	var port int
	if host != "" {
		host, port = discovery.SplitAddr(host)
	}
	if portFlag != discovery.DefaultPort {
		port = portFlag
	}

	reconnectInterval := time.Duration(-1)
	if reconnect {
		reconnectInterval = controller.DefaultReconnectInterval
	}

	client := controller.NewClient(controller.Config{
		Host:              host,
		Port:              port,
		Username:          username,
		Password:          password,
		ConnectTimeout:    time.Duration(timeoutFlag) * time.Second,
		Autodiscover:      registry.Preferences.AutoDiscover,
		ReconnectInterval: reconnectInterval,
	})

	if err := client.Connect(context.Background()); err != nil {
		client.Close()
		if session.IsAuthError(err) {
			return nil, fmt.Errorf("login rejected for user %q: %w", username, err)
		}
		return nil, err
	}

	// remember the controller for the next run
	if mac := client.MAC(); mac != "" {
		registry.RecordConnection(mac, client.Name(),
			discovery.FormatAddr(client.Host(), client.Port()), username)
		if err := registry.Save(); err != nil {
			fmt.Fprintf(os.Stderr, "warning: could not save config: %v\n", err)
		}
	}
	return client, nil
}

// lastKnownController picks the most recently seen stored controller.
func lastKnownController(registry *config.Registry, username string) (string, string) {
	var best *config.Controller
	for _, controller := range registry.Controllers {
		if controller.Address == "" {
			continue
		}
		if best == nil || controller.LastSeen.After(best.LastSeen) {
			best = controller
		}
	}
	if best == nil {
		return "", username
	}
	if username == "" {
		username = best.Username
	}
	return best.Address, username
}

func promptPassword(username string) (string, error) {
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return "", fmt.Errorf("no password given and stdin is not a terminal (use --password or EXTALIFE_PASSWORD)")
	}
	fmt.Fprintf(os.Stderr, "Password for %s: ", username)
	raw, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	return string(raw), nil
}

func printJSON(v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}
	fmt.Println(string(data))
	return nil
}

// discoverCmd locates a controller via multicast
var discoverCmd = &cobra.Command{
	Use:   "discover",
	Short: "Discover the controller on the local network",
	Long: `Listen for the controller's multicast announcement and print its IP.

The EFC-01 announces itself on multicast group 225.0.0.1:20401 every few
seconds. Discovery only works on the same L2 network segment.`,
	Example: `  # Default 3 second wait
  extalife-cli discover

  # Slow network, wait longer
  extalife-cli discover --wait 10`,
	RunE: runDiscover,
}

var discoverWait int

func init() {
	discoverCmd.Flags().IntVar(&discoverWait, "wait", 3, "Seconds to wait for an announcement")
}

func runDiscover(cmd *cobra.Command, args []string) error {
	fmt.Printf("Listening for controller announcement (%ds)...\n", discoverWait)

	ip, err := discovery.Discover(time.Duration(discoverWait) * time.Second)
	if err != nil {
		fmt.Println("No controller found.")
		fmt.Println("\nTroubleshooting:")
		fmt.Println("  - Ensure the EFC-01 is powered on and on the same network")
		fmt.Println("  - Multicast does not cross routed segments or most VPNs")
		fmt.Println("  - Use --host to specify the address manually")
		return nil
	}

	fmt.Printf("Found controller at %s (TCP port %d)\n", ip, discovery.DefaultPort)
	return nil
}

// statusCmd shows controller identity and firmware state
var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show controller identity and firmware version",
	Example: `  # Status of the last used controller
  extalife-cli status

  # Also query the vendor update server
  extalife-cli status --web`,
	RunE: runStatus,
}

var checkWebVersion bool

func init() {
	statusCmd.Flags().BoolVar(&checkWebVersion, "web", false, "Also check the vendor server for the latest published version")
}

func runStatus(cmd *cobra.Command, args []string) error {
	client, err := connectClient(false)
	if err != nil {
		return err
	}
	defer client.Close()

	info, err := client.CheckVersion(context.Background(), checkWebVersion)
	if err != nil {
		return fmt.Errorf("failed to check version: %w", err)
	}

	if outputFormat == "json" {
		return printJSON(map[string]any{
			"name":    client.Name(),
			"mac":     client.MAC(),
			"address": discovery.FormatAddr(client.Host(), client.Port()),
			"network": client.Network(),
			"version": info,
		})
	}

	network := client.Network()
	fmt.Printf("Controller: %s\n", client.Name())
	fmt.Printf("MAC:        %s\n", client.MAC())
	fmt.Printf("Address:    %s:%d\n", client.Host(), client.Port())
	if network.IP != "" {
		fmt.Printf("Network:    ip %s  mask %s  gw %s  dns %s\n",
			network.IP, network.Mask, network.Gateway, network.DNS)
	}
	version := client.Version()
	fmt.Printf("Firmware:   %s", version.Installed)
	if version.UpdateAvailable {
		fmt.Printf("  (update available: %s)", version.Web)
	}
	fmt.Println()
	return nil
}

// channelsCmd lists channels
var channelsCmd = &cobra.Command{
	Use:   "channels [categories...]",
	Short: "List channels",
	Long: `Fetch and flatten the controller's devices into channel records.

Categories: receivers, sensors, transmitters, exta_free. All categories are
fetched when none are given.`,
	Example: `  # Everything
  extalife-cli channels

  # Receivers only, as JSON
  extalife-cli channels receivers --format json`,
	RunE: runChannels,
}

func runChannels(cmd *cobra.Command, args []string) error {
	client, err := connectClient(false)
	if err != nil {
		return err
	}
	defer client.Close()

	categories := make([]controller.Category, 0, len(args))
	for _, arg := range args {
		categories = append(categories, controller.Category(arg))
	}

	records, err := client.Channels(context.Background(), categories...)
	if err != nil {
		return fmt.Errorf("failed to fetch channels: %w", err)
	}

	if outputFormat == "json" {
		out := make(map[string]protocol.Data, len(records))
		for _, record := range records {
			out[record.ID] = record.Data
		}
		return printJSON(out)
	}

	sort.Slice(records, func(i, j int) bool { return records[i].ID < records[j].ID })
	fmt.Printf("%-8s %-26s %-12s %s\n", "CHANNEL", "ALIAS", "TYPE", "STATE")
	for _, record := range records {
		fmt.Printf("%-8s %-26s %-12s %s\n",
			record.ID,
			dataString(record.Data, "alias"),
			recordType(record.Data),
			recordState(record.Data))
	}
	fmt.Printf("\n%d channel(s)\n", len(records))
	return nil
}

func recordType(data protocol.Data) string {
	if t, ok := data["type"].(float64); ok {
		return protocol.DeviceModel(int(t)).String()
	}
	if t, ok := data["type"].(int); ok {
		return protocol.DeviceModel(t).String()
	}
	return "-"
}

func recordState(data protocol.Data) string {
	if power, ok := data["power"].(float64); ok {
		if power > 0 {
			return "on"
		}
		return "off"
	}
	if value, ok := data["value"]; ok && value != nil {
		return fmt.Sprintf("%v", value)
	}
	return "-"
}

func dataString(data protocol.Data, key string) string {
	if s, ok := data[key].(string); ok && s != "" {
		return s
	}
	return "-"
}

// actionCmd executes a device action
var actionCmd = &cobra.Command{
	Use:   "action <action> <channel>",
	Short: "Execute a device action on a channel",
	Long: `Send CONTROL_DEVICE for a symbolic action on one channel.

Actions: TURN_ON, TURN_OFF, UP, DOWN, STOP, SET_BRIGHTNESS, SET_POSITION,
SET_GATE_POSITION, SET_TEMPERATURE, SET_MODE, RGT_SET_MODE_AUTO,
RGT_SET_MODE_MANUAL, and the Exta Free *_PRESS/*_RELEASE pairs.

The channel is "<deviceId>-<channelNumber>", as printed by 'channels'.`,
	Example: `  # Switch a receiver on
  extalife-cli action TURN_ON 11-1

  # Dim to 40%
  extalife-cli action SET_BRIGHTNESS 14-1 --value 40

  # Roller blind halfway
  extalife-cli action SET_POSITION 17-1 --value 50`,
	Args: cobra.ExactArgs(2),
	RunE: runAction,
}

var (
	actionValue int
	actionMode  int
)

func init() {
	actionCmd.Flags().IntVar(&actionValue, "value", 0, "Value field (brightness, position, temperature x10)")
	actionCmd.Flags().IntVar(&actionMode, "mode", 0, "Mode field for SET_MODE style actions")
}

func runAction(cmd *cobra.Command, args []string) error {
	client, err := connectClient(false)
	if err != nil {
		return err
	}
	defer client.Close()

	fields := protocol.Data{}
	if cmd.Flags().Changed("value") {
		fields["value"] = actionValue
	}
	if cmd.Flags().Changed("mode") {
		fields["mode"] = actionMode
	}

	result, err := client.ExecuteAction(context.Background(),
		controller.Action(args[0]), args[1], fields)
	if err != nil {
		return fmt.Errorf("action failed: %w", err)
	}

	if outputFormat == "json" {
		return printJSON(result)
	}
	fmt.Printf("OK: %s on %s\n", args[0], args[1])
	return nil
}

// sceneCmd activates a stored scene
var sceneCmd = &cobra.Command{
	Use:     "scene <id>",
	Short:   "Activate a scene stored on the controller",
	Example: `  extalife-cli scene 3`,
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var sceneID int
		if _, err := fmt.Sscanf(args[0], "%d", &sceneID); err != nil {
			return fmt.Errorf("scene id must be a number: %q", args[0])
		}

		client, err := connectClient(false)
		if err != nil {
			return err
		}
		defer client.Close()

		if _, err := client.ActivateScene(context.Background(), sceneID); err != nil {
			return fmt.Errorf("scene activation failed: %w", err)
		}
		fmt.Printf("Scene %d activated\n", sceneID)
		return nil
	},
}

// restartCmd reboots the controller
var restartCmd = &cobra.Command{
	Use:   "restart",
	Short: "Restart the controller",
	Long: `Reboot the EFC-01. The controller drops all connections and is back
after roughly half a minute.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := connectClient(false)
		if err != nil {
			return err
		}
		defer client.Close()

		if err := client.Restart(context.Background()); err != nil {
			return fmt.Errorf("restart failed: %w", err)
		}
		fmt.Println("Controller is restarting")
		return nil
	},
}

// networkCmd prints network settings
var networkCmd = &cobra.Command{
	Use:   "network",
	Short: "Show the controller's network settings",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := connectClient(false)
		if err != nil {
			return err
		}
		defer client.Close()

		settings, err := client.NetworkSettings(context.Background())
		if err != nil {
			return fmt.Errorf("failed to fetch network settings: %w", err)
		}
		return printJSON(settings)
	},
}

// backupCmd downloads the controller configuration
var backupCmd = &cobra.Command{
	Use:   "backup",
	Short: "Download the controller configuration",
	Long: `Download the full controller configuration (devices, scenes, schedules).

The backup is a list of configuration elements; it is written as pretty
JSON to the output file, or to stdout when no file is given.`,
	Example: `  # To a file
  extalife-cli backup --output efc01-backup.json

  # To stdout
  extalife-cli backup`,
	RunE: runBackup,
}

var backupOutput string

func init() {
	backupCmd.Flags().StringVar(&backupOutput, "output", "", "Write the backup to this file")
}

func runBackup(cmd *cobra.Command, args []string) error {
	client, err := connectClient(false)
	if err != nil {
		return err
	}
	defer client.Close()

	fmt.Fprintln(os.Stderr, "Downloading configuration backup...")
	backup, err := client.ConfigBackup(context.Background())
	if err != nil {
		return fmt.Errorf("backup failed: %w", err)
	}
	if len(backup) == 0 {
		return fmt.Errorf("controller returned an empty backup")
	}

	data, err := json.MarshalIndent(backup, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal backup: %w", err)
	}

	if backupOutput == "" {
		fmt.Println(string(data))
		return nil
	}
	if err := os.WriteFile(backupOutput, data, 0600); err != nil {
		return fmt.Errorf("failed to write backup file: %w", err)
	}
	fmt.Fprintf(os.Stderr, "Wrote %d element(s) to %s\n", len(backup), backupOutput)
	return nil
}

// monitorCmd runs the live channel dashboard
var monitorCmd = &cobra.Command{
	Use:   "monitor",
	Short: "Live channel monitor",
	Long: `Open a full-screen dashboard showing every channel, updated live as
the controller pushes state-change notifications. The connection is kept
alive and re-established automatically if the controller reboots.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := connectClient(true)
		if err != nil {
			return err
		}
		defer client.Close()

		return tui.Run(client)
	},
}
