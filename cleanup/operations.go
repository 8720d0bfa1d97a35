package cleanup

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"qbt-janitor/config"
	"qbt-janitor/filter"
	"qbt-janitor/qbt"
)

// TorrentClient is the slice of the qBittorrent client the engine consumes.
type TorrentClient interface {
	GetTorrents(ctx context.Context) ([]qbt.TorrentInfo, error)
	GetTorrentFiles(ctx context.Context, hash string) ([]qbt.FileEntry, error)
	PauseTorrents(ctx context.Context, hashes []string) error
	DeleteTorrents(ctx context.Context, hashes []string, deleteFiles bool) error
	SetUploadLimit(ctx context.Context, hashes []string, limitKB int64) error
	SetShareLimits(ctx context.Context, hashes []string, ratio float64, seedingTimeMinutes int64) error
}

// Notifier receives the full staged action list after execution.
type Notifier interface {
	SendActionAlert(ctx context.Context, actions []ActionRecord) error
}

// Operations is the classify-and-execute entry point: one call fetches the
// inventory, classifies it entirely, then issues the batched calls.
type Operations struct {
	client   TorrentClient
	logger   zerolog.Logger
	cleanup  config.CleanupConfig
	policies []config.TrackerPolicy
	keep     map[int]*filter.Filter // policy index -> compiled keep expression
	notifier Notifier
	dryRun   bool
}

// NewOperations builds the engine, compiling every policy's keep expression
// up front so a bad expression fails the run before anything is touched.
func NewOperations(client TorrentClient, cfg *config.Config, logger zerolog.Logger) (*Operations, error) {
	keep := make(map[int]*filter.Filter)
	for i := range cfg.Trackers {
		expr := cfg.Trackers[i].KeepExpression
		if expr == "" {
			continue
		}
		f, err := filter.Compile(expr)
		if err != nil {
			return nil, fmt.Errorf("invalid keep_expression for tracker %q: %w", cfg.Trackers[i].Tracker, err)
		}
		keep[i] = f
	}

	return &Operations{
		client:   client,
		logger:   logger,
		cleanup:  cfg.Cleanup,
		policies: cfg.Trackers,
		keep:     keep,
		dryRun:   cfg.Safety.DryRun,
	}, nil
}

// SetNotifier sets the alert sink for staged actions.
func (o *Operations) SetNotifier(n Notifier) {
	o.notifier = n
}

// Run performs one full pass: fetch, fingerprint, classify, execute, notify.
func (o *Operations) Run(ctx context.Context) error {
	torrents, err := o.client.GetTorrents(ctx)
	if err != nil {
		return fmt.Errorf("failed to fetch torrent inventory: %w", err)
	}

	o.logger.Info().Int("torrents", len(torrents)).Msg("Processing torrent list")

	var fingerprints map[string]string
	if o.cleanup.PreserveSharedFiles {
		fingerprints = o.collectFingerprints(ctx, torrents)
	}

	plan := o.classify(torrents, fingerprints, time.Now())

	o.execute(ctx, plan)

	if o.notifier != nil && len(plan.Actions) > 0 && !o.dryRun {
		if err := o.notifier.SendActionAlert(ctx, plan.Actions); err != nil {
			o.logger.Error().Err(err).Msg("Failed to send action alert")
		}
	}

	return nil
}

// collectFingerprints computes the content fingerprint for each torrent in
// the set. A failed manifest fetch leaves its torrent out of the map, which
// disables the duplicate-content rule for that torrent only.
func (o *Operations) collectFingerprints(ctx context.Context, torrents []qbt.TorrentInfo) map[string]string {
	o.logger.Debug().Msg("Fingerprinting torrent file manifests")

	fingerprints := make(map[string]string, len(torrents))
	for i := range torrents {
		hash := torrents[i].Hash
		if _, done := fingerprints[hash]; done {
			continue
		}
		files, err := o.client.GetTorrentFiles(ctx, hash)
		if err != nil {
			o.logger.Warn().Err(err).Str("hash", hash).Msg("Failed to fetch file manifest, skipping fingerprint")
			continue
		}
		fingerprints[hash] = Fingerprint(files)
	}
	return fingerprints
}

// classify walks the whole inventory, staging limit deltas for kept torrents
// and actions for deletable ones. It issues no external calls.
func (o *Operations) classify(torrents []qbt.TorrentInfo, fingerprints map[string]string, now time.Time) *Plan {
	classifier := NewClassifier(o.cleanup, torrents, fingerprints, o.logger)
	plan := NewPlan()

	for i := range torrents {
		t := &torrents[i]

		idx := ResolvePolicy(t, o.policies)
		if idx < 0 {
			o.logger.Info().Str("torrent", t.Name).Str("reason", "wrong tracker").Msg("Keep")
			continue
		}
		policy := &o.policies[idx]

		verdict := Evaluate(t, policy, now)

		if verdict.Deletable {
			if kf, ok := o.keep[idx]; ok && o.matchesKeep(kf, t, now) {
				o.logger.Info().Str("torrent", t.Name).Str("reason", "keep expression matched").Msg("Keep")
				plan.StageLimits(t, policy)
				continue
			}
			plan.AddActions(classifier.Classify(*t, verdict.Reason)...)
			continue
		}

		o.logger.Info().Str("torrent", t.Name).Str("state", t.State).Msg("Keep")
		plan.StageLimits(t, policy)
	}

	return plan
}

// matchesKeep evaluates a policy's keep expression; evaluation errors count
// as no match so a broken expression can never block a deletion silently.
func (o *Operations) matchesKeep(f *filter.Filter, t *qbt.TorrentInfo, now time.Time) bool {
	match, err := f.Match(*t, now)
	if err != nil {
		o.logger.Warn().Err(err).Str("torrent", t.Name).Msg("Keep expression evaluation failed")
		return false
	}
	return match
}

// execute issues the batched calls. Each group's failure is logged and does
// not abort the remaining groups; the delete call is additionally gated on
// the delete_tasks flag.
func (o *Operations) execute(ctx context.Context, plan *Plan) {
	for limit, hashes := range plan.UploadLimitGroups() {
		sort.Strings(hashes)
		if o.dryRun {
			o.logger.Info().Int64("limit_kb", limit).Int("torrents", len(hashes)).Msg("Dry run: would set upload limit")
			continue
		}
		o.logger.Info().Int64("limit_kb", limit).Int("torrents", len(hashes)).Msg("Setting upload limit")
		if err := o.client.SetUploadLimit(ctx, hashes, limit); err != nil {
			o.logger.Error().Err(err).Msg("Failed to set upload limit")
		}
	}

	for sl, hashes := range plan.ShareLimitGroups() {
		sort.Strings(hashes)
		if o.dryRun {
			o.logger.Info().Float64("ratio", sl.Ratio).Int64("seeding_min", sl.SeedingTimeMin).Int("torrents", len(hashes)).Msg("Dry run: would set share limits")
			continue
		}
		o.logger.Info().Float64("ratio", sl.Ratio).Int64("seeding_min", sl.SeedingTimeMin).Int("torrents", len(hashes)).Msg("Setting share limits")
		if err := o.client.SetShareLimits(ctx, hashes, sl.Ratio, sl.SeedingTimeMin); err != nil {
			o.logger.Error().Err(err).Msg("Failed to set share limits")
		}
	}

	taskOnly, withFiles := plan.DeleteHashes()
	if o.cleanup.DeleteTasks {
		if len(withFiles) > 0 {
			if o.dryRun {
				o.logger.Info().Int("torrents", len(withFiles)).Msg("Dry run: would delete tasks and files")
			} else {
				o.logger.Info().Int("torrents", len(withFiles)).Msg("Deleting tasks and files")
				if err := o.client.DeleteTorrents(ctx, withFiles, true); err != nil {
					o.logger.Error().Err(err).Msg("Failed to delete tasks and files")
				}
			}
		}
		if len(taskOnly) > 0 {
			if o.dryRun {
				o.logger.Info().Int("torrents", len(taskOnly)).Msg("Dry run: would delete tasks, keeping files")
			} else {
				o.logger.Info().Int("torrents", len(taskOnly)).Msg("Deleting tasks, keeping files")
				if err := o.client.DeleteTorrents(ctx, taskOnly, false); err != nil {
					o.logger.Error().Err(err).Msg("Failed to delete tasks")
				}
			}
		}
	}

	if pause := plan.PauseHashes(); len(pause) > 0 {
		if o.dryRun {
			o.logger.Info().Int("torrents", len(pause)).Msg("Dry run: would pause tasks")
		} else {
			o.logger.Info().Int("torrents", len(pause)).Msg("Pausing tasks")
			if err := o.client.PauseTorrents(ctx, pause); err != nil {
				o.logger.Error().Err(err).Msg("Failed to pause tasks")
			}
		}
	}

	if len(plan.Actions) == 0 {
		o.logger.Info().Msg("No tasks to delete or pause")
	}
}
