package config

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"
)

func TestDir(t *testing.T) {
	dir, err := Dir()
	if err != nil {
		t.Fatalf("Dir() error = %v", err)
	}
	if dir == "" {
		t.Fatal("Dir() returned empty string")
	}
	if !strings.Contains(dir, "extalife") {
		t.Errorf("Dir() = %v, should contain 'extalife'", dir)
	}

	switch runtime.GOOS {
	case "windows":
		if !strings.Contains(dir, "AppData") && !strings.Contains(dir, "Local") {
			t.Errorf("Windows config dir should contain 'AppData' or 'Local', got: %v", dir)
		}
	case "darwin", "linux":
		if !strings.Contains(dir, ".config") {
			t.Errorf("Unix config dir should contain '.config', got: %v", dir)
		}
	}
}

func TestPath(t *testing.T) {
	path, err := Path()
	if err != nil {
		t.Fatalf("Path() error = %v", err)
	}
	if filepath.Base(path) != "config.yaml" {
		t.Errorf("Path() should end with 'config.yaml', got: %v", path)
	}
}

func TestNewRegistry(t *testing.T) {
	registry := NewRegistry()

	if registry.Version != 1 {
		t.Errorf("Version = %v, want 1", registry.Version)
	}
	if registry.Controllers == nil {
		t.Error("Controllers should not be nil")
	}
	if registry.Preferences == nil {
		t.Fatal("Preferences should not be nil")
	}
	if !registry.Preferences.AutoDiscover {
		t.Error("AutoDiscover should default to true")
	}
	if registry.Preferences.DiscoverTimeout != 3 {
		t.Errorf("DiscoverTimeout = %v, want 3", registry.Preferences.DiscoverTimeout)
	}
}

func TestEnsureController(t *testing.T) {
	registry := NewRegistry()

	first := registry.EnsureController("00:1a:2b:3c:4d:5e")
	if first == nil {
		t.Fatal("EnsureController returned nil")
	}
	if first.Channels == nil {
		t.Error("new controller entry should have a channels map")
	}

	second := registry.EnsureController("00:1a:2b:3c:4d:5e")
	if first != second {
		t.Error("EnsureController should return the existing entry")
	}

	// works even when the map was zeroed by an old config file
	registry.Controllers = nil
	if registry.EnsureController("aa:bb:cc:dd:ee:ff") == nil {
		t.Error("EnsureController failed on nil map")
	}
}

func TestRecordConnection(t *testing.T) {
	registry := NewRegistry()
	before := time.Now()

	registry.RecordConnection("00:1a:2b:3c:4d:5e", "Home EFC-01", "192.168.1.5", "root")

	controller := registry.Controller("00:1a:2b:3c:4d:5e")
	if controller == nil {
		t.Fatal("controller not recorded")
	}
	if controller.Name != "Home EFC-01" || controller.Address != "192.168.1.5" || controller.Username != "root" {
		t.Errorf("recorded entry = %+v", controller)
	}
	if controller.LastSeen.Before(before) {
		t.Error("LastSeen not stamped")
	}
}

func TestSetChannelLabel(t *testing.T) {
	registry := NewRegistry()

	registry.SetChannelLabel("00:1a:2b:3c:4d:5e", "11-1", "Kitchen light")
	registry.SetChannelLabel("00:1a:2b:3c:4d:5e", "11-1", "Kitchen ceiling")

	meta := registry.Controller("00:1a:2b:3c:4d:5e").Channels["11-1"]
	if meta == nil || meta.Label != "Kitchen ceiling" {
		t.Errorf("channel meta = %+v, want updated label", meta)
	}
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")

	registry := NewRegistry()
	registry.RecordConnection("00:1a:2b:3c:4d:5e", "Home EFC-01", "192.168.1.5:20400", "root")
	registry.SetChannelLabel("00:1a:2b:3c:4d:5e", "11-1", "Kitchen light")

	if err := registry.SaveTo(path); err != nil {
		t.Fatalf("SaveTo: %v", err)
	}

	// header comment must survive the YAML parser
	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if !strings.HasPrefix(string(raw), "#") {
		t.Error("saved file missing header comment")
	}
	if strings.Contains(string(raw), "password") {
		t.Error("saved file mentions passwords")
	}

	loaded, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	controller := loaded.Controller("00:1a:2b:3c:4d:5e")
	if controller == nil {
		t.Fatal("controller lost in round trip")
	}
	if controller.Address != "192.168.1.5:20400" {
		t.Errorf("address = %q", controller.Address)
	}
	if controller.Channels["11-1"].Label != "Kitchen light" {
		t.Errorf("channel label lost: %+v", controller.Channels["11-1"])
	}
}

func TestLoadFromMissingFile(t *testing.T) {
	registry, err := LoadFrom(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("missing file should yield defaults, got: %v", err)
	}
	if registry.Version != 1 {
		t.Errorf("Version = %v, want 1", registry.Version)
	}
}

func TestLoadFromRejectsUnknownVersion(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("version: 99\n"), 0600); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadFrom(path); err == nil {
		t.Error("unknown config version accepted")
	}
}
