package cleanup

import (
	"strings"

	"qbt-janitor/config"
	"qbt-janitor/qbt"
)

// ResolvePolicy returns the index of the first policy governing the torrent,
// or -1 when none matches. Resolution order is fixed and the first match
// wins: a pattern occurring in the magnet URI, then one occurring in the
// tracker URL field, then the "*" wildcard. Patterns match case-insensitively.
func ResolvePolicy(t *qbt.TorrentInfo, policies []config.TrackerPolicy) int {
	if len(policies) == 0 {
		return -1
	}

	magnet := strings.ToLower(t.MagnetURI)
	tracker := strings.ToLower(t.TrackerURL)

	for i := range policies {
		if policies[i].Wildcard() {
			continue
		}
		if strings.Contains(magnet, strings.ToLower(policies[i].Tracker)) {
			return i
		}
	}
	for i := range policies {
		if policies[i].Wildcard() {
			continue
		}
		if strings.Contains(tracker, strings.ToLower(policies[i].Tracker)) {
			return i
		}
	}
	for i := range policies {
		if policies[i].Wildcard() {
			return i
		}
	}
	return -1
}
