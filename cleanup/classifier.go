package cleanup

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"qbt-janitor/config"
	"qbt-janitor/qbt"
)

// DeleteMethod is the closed set of ways a not-kept torrent can be acted on.
type DeleteMethod int

const (
	// PauseTask stops the torrent, leaving task and files in place.
	PauseTask DeleteMethod = iota
	// DeleteTask removes the task from the client, keeping files on disk.
	DeleteTask
	// DeleteFileAndTask removes the task and deletes its files.
	DeleteFileAndTask
)

func (m DeleteMethod) String() string {
	switch m {
	case PauseTask:
		return "pause"
	case DeleteTask:
		return "delete task"
	case DeleteFileAndTask:
		return "delete task and files"
	}
	return fmt.Sprintf("DeleteMethod(%d)", int(m))
}

// ActionRecord pairs a torrent with its staged deletion method.
type ActionRecord struct {
	Torrent qbt.TorrentInfo
	Method  DeleteMethod
	Reason  string
}

// Classifier turns a "deletable" verdict into staged actions. The override
// rules that can downgrade a file deletion to a task-only deletion are an
// explicit ordered list; the first matching rule wins.
type Classifier struct {
	cfg          config.CleanupConfig
	fingerprints map[string]string // hash -> content fingerprint, this run only
	hashCount    map[string]int
	printCount   map[string]int
	logger       zerolog.Logger
}

// NewClassifier builds a classifier over one run's inventory. fingerprints
// maps torrent hash to content fingerprint and may be sparse (a failed
// manifest fetch leaves its torrent out, disabling the duplicate-content rule
// for that torrent only); pass nil when shared-file preservation is off.
func NewClassifier(cfg config.CleanupConfig, torrents []qbt.TorrentInfo, fingerprints map[string]string, logger zerolog.Logger) *Classifier {
	c := &Classifier{
		cfg:          cfg,
		fingerprints: fingerprints,
		hashCount:    make(map[string]int, len(torrents)),
		printCount:   make(map[string]int, len(fingerprints)),
		logger:       logger,
	}
	for i := range torrents {
		c.hashCount[torrents[i].Hash]++
	}
	for _, fp := range fingerprints {
		c.printCount[fp]++
	}
	return c
}

// overrideRule downgrades DeleteFileAndTask to DeleteTask when it matches.
// Rules run in declaration order; the first match wins.
type overrideRule struct {
	name  string
	match func(c *Classifier, t *qbt.TorrentInfo) (string, bool)
}

var overrideRules = []overrideRule{
	{
		name: "task-only category",
		match: func(c *Classifier, t *qbt.TorrentInfo) (string, bool) {
			for _, cat := range c.cfg.TaskOnlyCategories {
				if strings.EqualFold(cat, t.Category) {
					return fmt.Sprintf("category %q never loses files", t.Category), true
				}
			}
			return "", false
		},
	},
	{
		name: "task-only tag",
		match: func(c *Classifier, t *qbt.TorrentInfo) (string, bool) {
			for _, tag := range c.cfg.TaskOnlyTags {
				if t.HasTag(tag) {
					return fmt.Sprintf("tag %q never loses files", tag), true
				}
			}
			return "", false
		},
	},
	{
		name: "duplicate hash",
		match: func(c *Classifier, t *qbt.TorrentInfo) (string, bool) {
			if !c.cfg.PreserveSharedFiles {
				return "", false
			}
			if c.hashCount[t.Hash] > 1 {
				return "another task shares this hash", true
			}
			return "", false
		},
	},
	{
		name: "duplicate content",
		match: func(c *Classifier, t *qbt.TorrentInfo) (string, bool) {
			if !c.cfg.PreserveSharedFiles {
				return "", false
			}
			fp, ok := c.fingerprints[t.Hash]
			if !ok || fp == "" {
				return "", false
			}
			if c.printCount[fp] > 1 {
				return "another torrent uses the same files", true
			}
			return "", false
		},
	},
}

// Classify produces the staged actions for one torrent whose retention
// verdict came back deletable. A torrent already paused when pausing is all
// we may do yields no action at all. When tasks may not be deleted, a pause
// record is staged alongside the delete record; the delete record is
// classification noise the executor's delete_tasks gate filters out, kept so
// notifications show the full picture.
func (c *Classifier) Classify(t qbt.TorrentInfo, reason string) []ActionRecord {
	var records []ActionRecord

	if !c.cfg.DeleteTasks {
		if t.IsPaused() {
			c.logger.Info().Str("torrent", t.Name).Str("reason", reason).Msg("Already paused, nothing to do")
			return nil
		}
		c.logger.Info().Str("torrent", t.Name).Str("reason", reason).Msg("Pause")
		records = append(records, ActionRecord{Torrent: t, Method: PauseTask, Reason: reason})
	}

	if !c.cfg.DeleteFiles {
		c.logger.Info().Str("torrent", t.Name).Str("reason", reason).Msg("Delete task only")
		return append(records, ActionRecord{Torrent: t, Method: DeleteTask, Reason: reason})
	}

	for _, rule := range overrideRules {
		if keepReason, ok := rule.match(c, &t); ok {
			c.logger.Info().
				Str("torrent", t.Name).
				Str("reason", reason).
				Str("rule", rule.name).
				Str("files_kept", keepReason).
				Msg("Delete task only")
			return append(records, ActionRecord{
				Torrent: t,
				Method:  DeleteTask,
				Reason:  reason + "; " + keepReason,
			})
		}
	}

	c.logger.Info().Str("torrent", t.Name).Str("reason", reason).Msg("Delete task and files")
	return append(records, ActionRecord{Torrent: t, Method: DeleteFileAndTask, Reason: reason})
}
