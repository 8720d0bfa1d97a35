package qbt

import (
	"strings"
	"time"
)

// TrackerMessage is one tracker's status line for a torrent.
type TrackerMessage struct {
	URL     string
	Status  int
	Message string
}

// TorrentInfo is a read-only snapshot of one managed torrent. Identity is the
// Hash; two entries with equal Hash are duplicate tasks over the same content.
type TorrentInfo struct {
	Hash           string
	Name           string
	Category       string
	Tags           []string
	State          string
	MagnetURI      string
	TrackerURL     string
	AddedOn        time.Time
	CompletionOn   time.Time
	Size           int64
	Ratio          float64
	UpLimitKB      int64
	MaxRatio       float64
	MaxSeedingTime int64
	Trackers       []TrackerMessage
}

// finishedStates is the vocabulary of states in which a torrent has finished
// downloading and is (or could be) seeding. Only these are ever aged out.
// stoppedUP is the qBittorrent v5 rename of pausedUP.
var finishedStates = map[string]bool{
	"uploading":  true,
	"pausedUP":   true,
	"stoppedUP":  true,
	"queuedUP":   true,
	"stalledUP":  true,
	"checkingUP": true,
	"forcedUP":   true,
}

// IsFinishedSeeding reports whether the torrent has completed its download.
func (t *TorrentInfo) IsFinishedSeeding() bool {
	return finishedStates[t.State]
}

// IsPaused reports whether the torrent is already in a paused (or, since
// qBittorrent v5, stopped) state.
func (t *TorrentInfo) IsPaused() bool {
	return strings.HasPrefix(t.State, "paused") || strings.HasPrefix(t.State, "stopped")
}

// Age returns how long ago the torrent was added.
func (t *TorrentInfo) Age(now time.Time) time.Duration {
	return now.Sub(t.AddedOn)
}

// HasTag reports whether the torrent carries the tag, case-insensitively.
func (t *TorrentInfo) HasTag(tag string) bool {
	for _, have := range t.Tags {
		if strings.EqualFold(strings.TrimSpace(have), tag) {
			return true
		}
	}
	return false
}

// FileEntry is one (name, size) pair from a torrent's file manifest.
type FileEntry struct {
	Name string
	Size int64
}
