package cleanup

import (
	"strings"
	"testing"
	"time"

	"qbt-janitor/config"
	"qbt-janitor/qbt"
)

func TestEvaluateAge(t *testing.T) {
	now := time.Now()
	ninetyDays := config.TrackerPolicy{Tracker: "x", MaxDaysToKeep: 90}
	never := config.TrackerPolicy{Tracker: "x", MaxDaysToKeep: -1}

	tests := []struct {
		name       string
		state      string
		age        time.Duration
		policy     *config.TrackerPolicy
		wantDelete bool
		wantReason string
	}{
		{
			name:       "old finished torrent is too old",
			state:      "pausedUP",
			age:        120 * 24 * time.Hour,
			policy:     &ninetyDays,
			wantDelete: true,
			wantReason: "too old",
		},
		{
			name:       "still downloading is never aged out",
			state:      "downloading",
			age:        400 * 24 * time.Hour,
			policy:     &ninetyDays,
			wantDelete: false,
		},
		{
			name:       "maxDaysToKeep -1 never expires",
			state:      "pausedUP",
			age:        10 * 365 * 24 * time.Hour,
			policy:     &never,
			wantDelete: false,
		},
		{
			name:       "stoppedUP counts as finished",
			state:      "stoppedUP",
			age:        120 * 24 * time.Hour,
			policy:     &ninetyDays,
			wantDelete: true,
			wantReason: "too old",
		},
		{
			name:       "young finished torrent is kept",
			state:      "uploading",
			age:        10 * 24 * time.Hour,
			policy:     &ninetyDays,
			wantDelete: false,
		},
		{
			name:       "no policy never deletes",
			state:      "pausedUP",
			age:        400 * 24 * time.Hour,
			policy:     nil,
			wantDelete: false,
			wantReason: "wrong tracker",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			torrent := qbt.TorrentInfo{
				Name:    "test",
				State:   tt.state,
				AddedOn: now.Add(-tt.age),
			}

			v := Evaluate(&torrent, tt.policy, now)
			if v.Deletable != tt.wantDelete {
				t.Errorf("Evaluate() deletable = %v, want %v", v.Deletable, tt.wantDelete)
			}
			if tt.wantReason != "" && v.Reason != tt.wantReason {
				t.Errorf("Evaluate() reason = %q, want %q", v.Reason, tt.wantReason)
			}
		})
	}
}

func TestEvaluateTrackerMessages(t *testing.T) {
	now := time.Now()
	policy := config.TrackerPolicy{
		Tracker:        "x",
		MaxDaysToKeep:  90,
		DeleteMessages: []string{"Torrent not registered", "unregistered torrent"},
	}

	tests := []struct {
		name       string
		state      string
		age        time.Duration
		messages   []string
		wantDelete bool
	}{
		{
			name:       "blacklisted message alone suffices",
			state:      "uploading",
			age:        5 * 24 * time.Hour,
			messages:   []string{"torrent NOT registered"},
			wantDelete: true,
		},
		{
			name:       "blacklist checked for downloading torrents too",
			state:      "downloading",
			age:        time.Hour,
			messages:   []string{"Unregistered Torrent"},
			wantDelete: true,
		},
		{
			name:       "non-matching message keeps the torrent",
			state:      "uploading",
			age:        5 * 24 * time.Hour,
			messages:   []string{"working"},
			wantDelete: false,
		},
		{
			name:       "substring is not enough",
			state:      "uploading",
			age:        5 * 24 * time.Hour,
			messages:   []string{"error: torrent not registered with this tracker"},
			wantDelete: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			torrent := qbt.TorrentInfo{
				Name:    "test",
				State:   tt.state,
				AddedOn: now.Add(-tt.age),
			}
			for _, msg := range tt.messages {
				torrent.Trackers = append(torrent.Trackers, qbt.TrackerMessage{
					URL:     "http://x/announce",
					Message: msg,
				})
			}

			v := Evaluate(&torrent, &policy, now)
			if v.Deletable != tt.wantDelete {
				t.Errorf("Evaluate() deletable = %v, want %v", v.Deletable, tt.wantDelete)
			}
			if tt.wantDelete && !strings.Contains(v.Reason, "blacklisted") {
				t.Errorf("Evaluate() reason = %q, want blacklist mention", v.Reason)
			}
		})
	}
}

func TestEvaluateCombinedReason(t *testing.T) {
	now := time.Now()
	policy := config.TrackerPolicy{
		Tracker:        "x",
		MaxDaysToKeep:  90,
		DeleteMessages: []string{"dead"},
	}
	torrent := qbt.TorrentInfo{
		Name:     "test",
		State:    "stalledUP",
		AddedOn:  now.Add(-200 * 24 * time.Hour),
		Trackers: []qbt.TrackerMessage{{Message: "dead"}},
	}

	v := Evaluate(&torrent, &policy, now)
	if !v.Deletable {
		t.Fatal("Evaluate() deletable = false, want true")
	}
	if !strings.Contains(v.Reason, "too old") || !strings.Contains(v.Reason, "blacklisted") {
		t.Errorf("Evaluate() reason = %q, want both rules mentioned", v.Reason)
	}
}
