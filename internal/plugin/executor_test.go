package plugin

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"
)

// writePlugin creates a plugin directory holding a manifest and a shell
// script executable.
func writePlugin(t *testing.T, root, name, script string) *Plugin {
	t.Helper()

	dir := filepath.Join(root, name)
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatalf("failed to create plugin dir: %v", err)
	}

	manifest := Manifest{
		Name:       name,
		Version:    "1.0.0",
		Executable: "run.sh",
		Actions:    []string{"scroll", "click"},
	}
	data, err := json.Marshal(manifest)
	if err != nil {
		t.Fatalf("failed to marshal manifest: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, manifestFile), data, 0644); err != nil {
		t.Fatalf("failed to write manifest: %v", err)
	}

	exe := filepath.Join(dir, "run.sh")
	if err := os.WriteFile(exe, []byte("#!/bin/sh\n"+script), 0755); err != nil {
		t.Fatalf("failed to write script: %v", err)
	}

	return &Plugin{Manifest: manifest, Path: dir, Executable: exe}
}

func skipOnWindows(t *testing.T) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell plugins are not supported on Windows")
	}
}

func TestExecutor_Execute(t *testing.T) {
	skipOnWindows(t)

	p := writePlugin(t, t.TempDir(), "echo", `echo '{"success":true,"data":{"message":"scrolled"}}'`)
	executor := NewExecutor(5 * time.Second)

	resp, err := executor.Execute(context.Background(), p, &Request{Action: "scroll", Signal: "scroll_up"})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if !resp.Success || resp.Error != "" {
		t.Errorf("unexpected response %+v", resp)
	}

	var data map[string]string
	if err := json.Unmarshal(resp.Data, &data); err != nil {
		t.Fatalf("failed to unmarshal data: %v", err)
	}
	if data["message"] != "scrolled" {
		t.Errorf("message = %q, want scrolled", data["message"])
	}
}

func TestExecutor_Execute_ReadsStdin(t *testing.T) {
	skipOnWindows(t)

	p := writePlugin(t, t.TempDir(), "stdin", `cat > stdin.json
echo '{"success":true}'`)

	req := &Request{
		Action: "click",
		Signal: "tap",
		Config: json.RawMessage(`{"button":"left"}`),
	}
	resp, err := NewExecutor(5*time.Second).Execute(context.Background(), p, req)
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	if !resp.Success {
		t.Fatalf("unexpected response %+v", resp)
	}

	data, err := os.ReadFile(filepath.Join(p.Path, "stdin.json"))
	if err != nil {
		t.Fatalf("plugin did not capture stdin: %v", err)
	}
	var got Request
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("plugin did not receive JSON: %q: %v", data, err)
	}
	if got.Action != "click" || got.Signal != "tap" {
		t.Errorf("plugin received %+v", got)
	}
	if string(got.Config) != `{"button":"left"}` {
		t.Errorf("plugin received config %s", got.Config)
	}
}

func TestExecutor_Execute_Failures(t *testing.T) {
	skipOnWindows(t)

	tests := []struct {
		name    string
		script  string
		wantErr string
	}{
		{"non-zero exit", "echo boom >&2\nexit 3", "stderr: boom"},
		{"invalid json", "echo not json", "parse"},
	}

	root := t.TempDir()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := writePlugin(t, root, strings.ReplaceAll(tt.name, " ", "-"), tt.script)

			_, err := NewExecutor(5*time.Second).Execute(context.Background(), p, &Request{Action: "scroll"})
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q does not mention %q", err, tt.wantErr)
			}
		})
	}
}

func TestExecutor_Execute_ErrorResponse(t *testing.T) {
	skipOnWindows(t)

	p := writePlugin(t, t.TempDir(), "refuse", `echo '{"success":false,"error":"no focused window"}'`)

	resp, err := NewExecutor(5*time.Second).Execute(context.Background(), p, &Request{Action: "scroll"})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if resp.Success || resp.Error != "no focused window" {
		t.Errorf("unexpected response %+v", resp)
	}
}

func TestExecutor_Timeout(t *testing.T) {
	skipOnWindows(t)

	p := writePlugin(t, t.TempDir(), "slow", "exec sleep 10")

	start := time.Now()
	_, err := NewExecutor(100*time.Millisecond).Execute(context.Background(), p, &Request{Action: "scroll"})
	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("expected ErrTimeout, got %v", err)
	}
	if elapsed := time.Since(start); elapsed > 5*time.Second {
		t.Errorf("timeout took %s", elapsed)
	}
}

func TestExecutor_ContextCancelled(t *testing.T) {
	skipOnWindows(t)

	p := writePlugin(t, t.TempDir(), "cancelled", `echo '{"success":true}'`)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := NewExecutor(time.Second).Execute(ctx, p, &Request{Action: "scroll"}); err == nil {
		t.Error("expected error for cancelled context")
	}
}

func TestNewExecutor(t *testing.T) {
	if got := NewExecutor(3 * time.Second).Timeout(); got != 3*time.Second {
		t.Errorf("Timeout() = %s, want 3s", got)
	}
}
