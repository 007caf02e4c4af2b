package main

import (
	"bytes"
	"strings"
	"testing"
)

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

func TestVersionCmd(t *testing.T) {
	out, err := runCLI(t, "version")
	if err != nil {
		t.Fatalf("version command failed: %v", err)
	}
	if !strings.Contains(out, "hearth dev") {
		t.Errorf("expected output to contain 'hearth dev', got: %s", out)
	}
	if !strings.Contains(out, "commit: none") {
		t.Errorf("expected output to contain 'commit: none', got: %s", out)
	}
}

func TestVersionCmdWithCustomValues(t *testing.T) {
	origVersion, origCommit, origDate := Version, Commit, Date
	Version, Commit, Date = "1.0.0", "abc123", "2026-01-01"
	defer func() { Version, Commit, Date = origVersion, origCommit, origDate }()

	out, err := runCLI(t, "version")
	if err != nil {
		t.Fatalf("version command failed: %v", err)
	}
	if !strings.Contains(out, "hearth 1.0.0") {
		t.Errorf("expected output to contain 'hearth 1.0.0', got: %s", out)
	}
}

func TestRootCmdHelp(t *testing.T) {
	out, err := runCLI(t, "--help")
	if err != nil {
		t.Fatalf("help failed: %v", err)
	}
	for _, sub := range []string{"run", "host", "classify", "version"} {
		if !strings.Contains(out, sub) {
			t.Errorf("help output missing %q subcommand: %s", sub, out)
		}
	}
}

func TestRunCmd_HasConfigFlag(t *testing.T) {
	cmd := newRunCmd()
	f := cmd.Flags().Lookup("config")
	if f == nil {
		t.Fatal("run command missing --config flag")
	}
	if f.DefValue != "hearth.yaml" {
		t.Errorf("config default = %q, want hearth.yaml", f.DefValue)
	}
}

func TestHostCmd_HasPromptTokenFlag(t *testing.T) {
	cmd := newHostCmd()
	if cmd.Flags().Lookup("prompt-token") == nil {
		t.Error("host command missing --prompt-token flag")
	}
}
