package cleanup

import (
	"qbt-janitor/config"
	"qbt-janitor/qbt"
)

// ShareLimit is the (ratio, seeding time) pair the share-limits API sets
// together; neither can be changed alone.
type ShareLimit struct {
	Ratio          float64
	SeedingTimeMin int64
}

// Plan accumulates one run's staged limit changes and actions, then hands
// them out grouped so each group costs exactly one bulk call.
type Plan struct {
	uploadLimits map[string]int64      // hash -> target KB/s
	shareLimits  map[string]ShareLimit // hash -> target pair
	Actions      []ActionRecord
}

// NewPlan returns an empty plan.
func NewPlan() *Plan {
	return &Plan{
		uploadLimits: make(map[string]int64),
		shareLimits:  make(map[string]ShareLimit),
	}
}

// StageLimits stages whatever limit deltas the policy wants for a kept
// torrent. A delta is staged only when the live value differs from the
// target, so a steady-state run issues no calls at all.
func (p *Plan) StageLimits(t *qbt.TorrentInfo, policy *config.TrackerPolicy) {
	if policy == nil {
		return
	}

	if policy.UpLimit != nil && t.UpLimitKB != *policy.UpLimit {
		p.uploadLimits[t.Hash] = *policy.UpLimit
	}

	if policy.MaxRatio != nil && t.MaxRatio != *policy.MaxRatio {
		p.shareLimits[t.Hash] = ShareLimit{Ratio: *policy.MaxRatio, SeedingTimeMin: t.MaxSeedingTime}
	}
	if policy.MaxSeedingTime != nil && t.MaxSeedingTime != *policy.MaxSeedingTime {
		if sl, ok := p.shareLimits[t.Hash]; ok {
			sl.SeedingTimeMin = *policy.MaxSeedingTime
			p.shareLimits[t.Hash] = sl
		} else {
			p.shareLimits[t.Hash] = ShareLimit{Ratio: t.MaxRatio, SeedingTimeMin: *policy.MaxSeedingTime}
		}
	}
}

// AddActions appends staged actions.
func (p *Plan) AddActions(records ...ActionRecord) {
	p.Actions = append(p.Actions, records...)
}

// UploadLimitGroups groups staged upload-limit changes by target value.
func (p *Plan) UploadLimitGroups() map[int64][]string {
	groups := make(map[int64][]string)
	for hash, limit := range p.uploadLimits {
		groups[limit] = append(groups[limit], hash)
	}
	return groups
}

// ShareLimitGroups groups staged share-limit changes by target pair.
func (p *Plan) ShareLimitGroups() map[ShareLimit][]string {
	groups := make(map[ShareLimit][]string)
	for hash, sl := range p.shareLimits {
		groups[sl] = append(groups[sl], hash)
	}
	return groups
}

// PauseHashes returns the deduplicated hash list staged for pausing.
func (p *Plan) PauseHashes() []string {
	return p.methodHashes(PauseTask)
}

// DeleteHashes returns the deduplicated hash lists staged for deletion,
// split into the task-only set and the task-plus-files set.
func (p *Plan) DeleteHashes() (taskOnly, withFiles []string) {
	return p.methodHashes(DeleteTask), p.methodHashes(DeleteFileAndTask)
}

// methodHashes collects distinct hashes staged with the given method; only
// the set of distinct (hash, method) pairs is ever executed.
func (p *Plan) methodHashes(method DeleteMethod) []string {
	seen := make(map[string]bool)
	var hashes []string
	for _, rec := range p.Actions {
		if rec.Method != method || seen[rec.Torrent.Hash] {
			continue
		}
		seen[rec.Torrent.Hash] = true
		hashes = append(hashes, rec.Torrent.Hash)
	}
	return hashes
}
