package deps

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

// ResolveSidecar returns the command to execute for name. A bare name that
// has an executable sibling next to anchor (normally the running subgen
// binary) resolves to that sibling; anything else is returned unchanged for
// PATH lookup.
func ResolveSidecar(name, anchor string) string {
	name = strings.TrimSpace(name)
	if name == "" || strings.ContainsRune(name, filepath.Separator) || strings.TrimSpace(anchor) == "" {
		return name
	}
	candidate := filepath.Join(filepath.Dir(anchor), executableName(name))
	if info, err := os.Stat(candidate); err == nil && isExecutable(info) {
		return candidate
	}
	return name
}

// ResolveWorker resolves the worker command against the running executable.
func ResolveWorker(command string) string {
	self, err := os.Executable()
	if err != nil {
		return strings.TrimSpace(command)
	}
	return ResolveSidecar(command, self)
}

func executableName(name string) string {
	if runtime.GOOS == "windows" && !strings.HasSuffix(strings.ToLower(name), ".exe") {
		return name + ".exe"
	}
	return name
}

func isExecutable(info os.FileInfo) bool {
	if info == nil {
		return false
	}
	if info.IsDir() {
		return false
	}
	if runtime.GOOS == "windows" {
		return true
	}
	return info.Mode().Perm()&0o111 != 0
}
