// Package browser launches the user's default web browser.
package browser

import (
	"fmt"
	"os"
	"os/exec"
	"runtime"
)

// command returns the launcher and its leading arguments for goos.
func command(goos string) (string, []string, error) {
	switch goos {
	case "darwin":
		return "open", nil, nil
	case "linux", "freebsd", "openbsd", "netbsd":
		return "xdg-open", nil, nil
	case "windows":
		return "rundll32", []string{"url.dll,FileProtocolHandler"}, nil
	default:
		return "", nil, fmt.Errorf("unsupported OS: %s", goos)
	}
}

// Open opens the specified URL or local file in the user's default browser.
func Open(target string) error {
	name, args, err := command(runtime.GOOS)
	if err != nil {
		return err
	}
	cmd := exec.Command(name, append(args, target)...)
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("browser.Open: %w", err)
	}
	// Reap the launcher; the browser itself outlives it.
	go cmd.Wait() //nolint:errcheck
	return nil
}

// Available reports whether Open can plausibly show something to the user:
// the launcher must be on PATH and, on X11/Wayland systems, a display must
// be set.
func Available() bool {
	return available(runtime.GOOS, exec.LookPath, os.Getenv)
}

func available(goos string, lookPath func(string) (string, error), getenv func(string) string) bool {
	name, _, err := command(goos)
	if err != nil {
		return false
	}
	if _, err := lookPath(name); err != nil {
		return false
	}
	switch goos {
	case "darwin", "windows":
		return true
	default:
		return getenv("DISPLAY") != "" || getenv("WAYLAND_DISPLAY") != ""
	}
}
