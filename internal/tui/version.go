package tui

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// releasesURL is where the latest published release is looked up.
const releasesURL = "https://api.github.com/repos/naveenspark/plangate/releases/latest"

// versionCheckMsg carries the result of a background release check.
type versionCheckMsg struct {
	latestVersion string
	hasUpdate     bool
}

// checkVersion looks for a newer release in the background. Development
// builds never check.
func checkVersion(current string) tea.Cmd {
	if current == "" || current == "dev" {
		return nil
	}
	return checkVersionFromURL(releasesURL, current)
}

func checkVersionFromURL(url, current string) tea.Cmd {
	return func() tea.Msg {
		client := &http.Client{Timeout: 5 * time.Second}
		resp, err := client.Get(url)
		if err != nil {
			return versionCheckMsg{}
		}
		defer resp.Body.Close() //nolint:errcheck
		if resp.StatusCode != http.StatusOK {
			return versionCheckMsg{}
		}
		var release struct {
			TagName string `json:"tag_name"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&release); err != nil {
			return versionCheckMsg{}
		}
		latest := strings.TrimPrefix(release.TagName, "v")
		if isNewerVersion(latest, current) {
			return versionCheckMsg{latestVersion: "v" + latest, hasUpdate: true}
		}
		return versionCheckMsg{}
	}
}

// isNewerVersion returns true if latest is a newer semver than current.
func isNewerVersion(latest, current string) bool {
	parse := func(v string) (int, int, int) {
		v = strings.TrimPrefix(v, "v")
		parts := strings.SplitN(v, ".", 3)
		atoi := func(s string) int {
			n, _ := strconv.Atoi(s) //nolint:errcheck // zero-value on parse failure is desired
			return n
		}
		var maj, min, patch int
		if len(parts) > 0 {
			maj = atoi(parts[0])
		}
		if len(parts) > 1 {
			min = atoi(parts[1])
		}
		if len(parts) > 2 {
			patch = atoi(parts[2])
		}
		return maj, min, patch
	}
	lMaj, lMin, lPatch := parse(latest)
	cMaj, cMin, cPatch := parse(current)
	if lMaj != cMaj {
		return lMaj > cMaj
	}
	if lMin != cMin {
		return lMin > cMin
	}
	return lPatch > cPatch
}
