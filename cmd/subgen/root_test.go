package main

import (
	"testing"
)

func TestFlagNamesAcceptUnderscores(t *testing.T) {
	root := newRootCommand()
	run, _, err := root.Find([]string{"run"})
	if err != nil {
		t.Fatalf("find run: %v", err)
	}
	if err := run.ParseFlags([]string{"--output_dir", "/tmp/out", "--input=/tmp/a.mkv"}); err != nil {
		t.Fatalf("parse flags: %v", err)
	}
	got, err := run.Flags().GetString("output-dir")
	if err != nil {
		t.Fatalf("get output-dir: %v", err)
	}
	if got != "/tmp/out" {
		t.Fatalf("output-dir = %q, want /tmp/out", got)
	}
}

func TestRunFlagDefaults(t *testing.T) {
	root := newRootCommand()
	run, _, err := root.Find([]string{"run"})
	if err != nil {
		t.Fatalf("find run: %v", err)
	}
	for flag, want := range map[string]string{"device": "auto", "language": "auto"} {
		got, err := run.Flags().GetString(flag)
		if err != nil {
			t.Fatalf("get %s: %v", flag, err)
		}
		if got != want {
			t.Errorf("--%s default = %q, want %q", flag, got, want)
		}
	}
}
