package plugin

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestManager_Discover(t *testing.T) {
	root := t.TempDir()
	writePlugin(t, root, "scroller", "")
	writePlugin(t, root, "clicker", "")

	// Stray files and directories without a manifest are ignored.
	if err := os.WriteFile(filepath.Join(root, "README"), []byte("plugins"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.MkdirAll(filepath.Join(root, "empty"), 0755); err != nil {
		t.Fatal(err)
	}

	m := NewManager(root, nil)
	if err := m.Discover(); err != nil {
		t.Fatalf("Discover() error = %v", err)
	}

	plugins := m.List()
	if len(plugins) != 2 {
		t.Fatalf("expected 2 plugins, got %d", len(plugins))
	}
	if plugins[0].Manifest.Name != "clicker" || plugins[1].Manifest.Name != "scroller" {
		t.Errorf("plugins not sorted by name: %s, %s", plugins[0].Manifest.Name, plugins[1].Manifest.Name)
	}

	p := plugins[1]
	if p.Path != filepath.Join(root, "scroller") {
		t.Errorf("Path = %q", p.Path)
	}
	if p.Executable != filepath.Join(root, "scroller", "run.sh") {
		t.Errorf("Executable = %q", p.Executable)
	}
}

func TestManager_Discover_InvalidManifest(t *testing.T) {
	root := t.TempDir()
	writePlugin(t, root, "good", "")

	for name, body := range map[string]string{
		"broken":   "{not json",
		"nameless": `{"executable":"run.sh"}`,
	} {
		dir := filepath.Join(root, name)
		if err := os.MkdirAll(dir, 0755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(filepath.Join(dir, manifestFile), []byte(body), 0644); err != nil {
			t.Fatal(err)
		}
	}

	m := NewManager(root, nil)
	if err := m.Discover(); err != nil {
		t.Fatalf("Discover() error = %v", err)
	}
	if got := len(m.List()); got != 1 {
		t.Errorf("expected only the valid plugin, got %d", got)
	}
}

func TestManager_Discover_MissingDir(t *testing.T) {
	m := NewManager(filepath.Join(t.TempDir(), "missing"), nil)
	if err := m.Discover(); err != nil {
		t.Fatalf("Discover() error = %v", err)
	}
	if len(m.List()) != 0 {
		t.Error("expected no plugins")
	}
}

func TestManager_Discover_Rescan(t *testing.T) {
	root := t.TempDir()
	writePlugin(t, root, "scroller", "")

	m := NewManager(root, nil)
	if err := m.Discover(); err != nil {
		t.Fatal(err)
	}
	if err := os.RemoveAll(filepath.Join(root, "scroller")); err != nil {
		t.Fatal(err)
	}
	if err := m.Discover(); err != nil {
		t.Fatal(err)
	}
	if _, err := m.Get("scroller"); !errors.Is(err, ErrPluginNotFound) {
		t.Errorf("removed plugin still present: %v", err)
	}
}

func TestManager_Get(t *testing.T) {
	root := t.TempDir()
	writePlugin(t, root, "scroller", "")

	m := NewManager(root, nil)
	if err := m.Discover(); err != nil {
		t.Fatal(err)
	}

	p, err := m.Get("scroller")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if p.Manifest.Version != "1.0.0" {
		t.Errorf("Version = %q", p.Manifest.Version)
	}

	if _, err := m.Get("nope"); !errors.Is(err, ErrPluginNotFound) {
		t.Errorf("expected ErrPluginNotFound, got %v", err)
	}
	if m.PluginDir() != root {
		t.Errorf("PluginDir() = %q", m.PluginDir())
	}
}

func TestManifest_Supports(t *testing.T) {
	m := Manifest{Actions: []string{"scroll"}}
	if !m.Supports("scroll") || m.Supports("click") {
		t.Error("Supports should follow declared actions")
	}
	if !(Manifest{}).Supports("anything") {
		t.Error("manifest without actions should accept any action")
	}
}
