package deps

import (
	"os"
	"path/filepath"
	"testing"
)

func writeStub(t *testing.T, path string, mode os.FileMode) {
	t.Helper()
	if err := os.WriteFile(path, []byte("#!/bin/sh\nexit 0\n"), mode); err != nil {
		t.Fatalf("write stub: %v", err)
	}
}

func TestCheckBinaries(t *testing.T) {
	binDir := t.TempDir()
	present := filepath.Join(binDir, "present")
	writeStub(t, present, 0o755)
	reqs := []Requirement{
		{Name: "Present", Command: present},
		{Name: "Missing", Command: "clearly-not-present-binary"},
		{Name: "Unset", Command: "  "},
		{Name: "Optional", Command: "another-missing-binary", Optional: true},
	}

	results := CheckBinaries(reqs)
	if len(results) != len(reqs) {
		t.Fatalf("expected %d results, got %d", len(reqs), len(results))
	}
	if !results[0].Available || results[0].Path != present || results[0].Detail != "" {
		t.Fatalf("expected first requirement to be available, got %#v", results[0])
	}
	if results[1].Available || results[1].Detail == "" {
		t.Fatalf("expected missing binary to be unavailable with detail, got %#v", results[1])
	}
	if results[2].Detail != "command not configured" {
		t.Fatalf("unexpected detail for unset command: %q", results[2].Detail)
	}

	missing := Missing(results)
	if len(missing) != 2 || missing[0].Name != "Missing" || missing[1].Name != "Unset" {
		t.Fatalf("unexpected missing set %#v", missing)
	}
}

func TestResolveSidecar(t *testing.T) {
	dir := t.TempDir()
	anchor := filepath.Join(dir, "subgen")
	writeStub(t, anchor, 0o755)
	writeStub(t, filepath.Join(dir, "subgen-worker"), 0o755)
	writeStub(t, filepath.Join(dir, "not-executable"), 0o644)

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"sibling wins", "subgen-worker", filepath.Join(dir, "subgen-worker")},
		{"no sibling", "python3", "python3"},
		{"explicit path", "/opt/worker/bin/run", "/opt/worker/bin/run"},
		{"non-executable sibling", "not-executable", "not-executable"},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ResolveSidecar(tt.in, anchor); got != tt.want {
				t.Fatalf("ResolveSidecar(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
