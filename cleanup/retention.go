package cleanup

import (
	"fmt"
	"strings"
	"time"

	"qbt-janitor/config"
	"qbt-janitor/qbt"
)

// Verdict is the retention evaluator's output for one torrent.
type Verdict struct {
	Deletable bool
	Reason    string
}

// Evaluate applies the age and tracker-message rules of the torrent's policy.
// A torrent still downloading is never deletable, and MaxDaysToKeep == -1
// disables the age rule; the message blacklist is checked independently and
// either rule alone suffices.
func Evaluate(t *qbt.TorrentInfo, policy *config.TrackerPolicy, now time.Time) Verdict {
	if policy == nil {
		// No governing policy: informational only, never deletable.
		return Verdict{Reason: "wrong tracker"}
	}

	var v Verdict

	if t.IsFinishedSeeding() && policy.MaxDaysToKeep != -1 {
		ageDays := t.Age(now).Hours() / 24
		if ageDays >= float64(policy.MaxDaysToKeep) {
			v.Deletable = true
			v.Reason = "too old"
		}
	}

	if msg, ok := blacklistedMessage(t, policy); ok {
		v.Deletable = true
		if v.Reason != "" {
			v.Reason += "; "
		}
		v.Reason += fmt.Sprintf("tracker message %q is blacklisted", msg)
	}

	return v
}

// blacklistedMessage returns the first tracker message matching the policy's
// blacklist, comparing case-insensitively.
func blacklistedMessage(t *qbt.TorrentInfo, policy *config.TrackerPolicy) (string, bool) {
	if len(policy.DeleteMessages) == 0 {
		return "", false
	}
	for _, tm := range t.Trackers {
		if tm.Message == "" {
			continue
		}
		for _, blocked := range policy.DeleteMessages {
			if strings.EqualFold(tm.Message, blocked) {
				return tm.Message, true
			}
		}
	}
	return "", false
}
