package qbt

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/autobrr/go-qbittorrent"
	"github.com/blang/semver"
	"github.com/rs/zerolog"
)

// minWebAPIVersion is the oldest Web API the bulk share-limit call exists on.
var minWebAPIVersion = semver.MustParse("2.1.0")

// pauseChunkSize bounds the hash list per pause request; very long lists make
// the form body unwieldy on some reverse proxies.
const pauseChunkSize = 30

// Client wraps the qBittorrent API client
type Client struct {
	client     *qbittorrent.Client
	logger     zerolog.Logger
	apiVersion semver.Version
}

// NewClient creates a new qBittorrent client, signs in and verifies the Web
// API version is recent enough.
func NewClient(ctx context.Context, url, username, password string, logger zerolog.Logger) (*Client, error) {
	client := qbittorrent.NewClient(qbittorrent.Config{
		Host:     url,
		Username: username,
		Password: password,
	})

	if err := client.LoginCtx(ctx); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrLoginFailed, err)
	}

	c := &Client{
		client: client,
		logger: logger,
	}

	versionStr, err := client.GetWebAPIVersionCtx(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get Web API version: %w", err)
	}

	version, err := semver.ParseTolerant(versionStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Web API version %q: %w", versionStr, err)
	}
	if version.LT(minWebAPIVersion) {
		return nil, fmt.Errorf("%w: have %s, need at least %s", ErrUnsupportedVersion, version, minWebAPIVersion)
	}

	c.apiVersion = version
	logger.Debug().Str("webapi_version", version.String()).Msg("Connected to qBittorrent")

	return c, nil
}

// WebAPIVersion returns the version reported by the connected instance.
func (c *Client) WebAPIVersion() semver.Version {
	return c.apiVersion
}

// GetTorrents retrieves the full torrent inventory with each torrent's
// tracker-message list attached, sorted by name.
func (c *Client) GetTorrents(ctx context.Context) ([]TorrentInfo, error) {
	torrents, err := c.client.GetTorrentsCtx(ctx, qbittorrent.TorrentFilterOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to get torrents: %w", err)
	}

	c.logger.Debug().Msgf("Retrieved %d torrents from qBittorrent", len(torrents))

	results := make([]TorrentInfo, 0, len(torrents))
	for _, t := range torrents {
		info := TorrentInfo{
			Hash:           t.Hash,
			Name:           t.Name,
			Category:       t.Category,
			Tags:           splitTags(t.Tags),
			State:          string(t.State),
			MagnetURI:      t.MagnetURI,
			TrackerURL:     t.Tracker,
			AddedOn:        time.Unix(t.AddedOn, 0),
			CompletionOn:   time.Unix(t.CompletionOn, 0),
			Size:           t.Size,
			Ratio:          t.Ratio,
			UpLimitKB:      bytesToKB(t.UpLimit),
			MaxRatio:       t.MaxRatio,
			MaxSeedingTime: t.MaxSeedingTime,
		}

		trackers, err := c.client.GetTorrentTrackersCtx(ctx, t.Hash)
		if err != nil {
			// Tracker messages only feed the blacklist rule; a failed
			// fetch disables that rule for this torrent, nothing else.
			c.logger.Warn().Err(err).Str("hash", t.Hash).Msg("Failed to get torrent trackers")
		} else {
			for _, tr := range trackers {
				info.Trackers = append(info.Trackers, TrackerMessage{
					URL:     tr.Url,
					Status:  int(tr.Status),
					Message: tr.Message,
				})
			}
		}

		results = append(results, info)
	}

	sort.Slice(results, func(i, j int) bool { return results[i].Name < results[j].Name })

	return results, nil
}

// GetTorrentFiles returns the (name, size) manifest for a torrent.
func (c *Client) GetTorrentFiles(ctx context.Context, hash string) ([]FileEntry, error) {
	files, err := c.client.GetFilesInformationCtx(ctx, hash)
	if err != nil {
		return nil, fmt.Errorf("failed to get torrent files: %w", err)
	}

	var entries []FileEntry
	if files != nil {
		for _, f := range *files {
			entries = append(entries, FileEntry{Name: f.Name, Size: f.Size})
		}
	}

	return entries, nil
}

// PauseTorrents pauses the given torrents, chunking the hash list.
func (c *Client) PauseTorrents(ctx context.Context, hashes []string) error {
	for start := 0; start < len(hashes); start += pauseChunkSize {
		end := start + pauseChunkSize
		if end > len(hashes) {
			end = len(hashes)
		}
		if err := c.client.PauseCtx(ctx, hashes[start:end]); err != nil {
			return fmt.Errorf("failed to pause torrents: %w", err)
		}
	}
	return nil
}

// DeleteTorrents removes the given torrents, optionally with their files.
func (c *Client) DeleteTorrents(ctx context.Context, hashes []string, deleteFiles bool) error {
	if err := c.client.DeleteTorrentsCtx(ctx, hashes, deleteFiles); err != nil {
		return fmt.Errorf("failed to delete torrents: %w", err)
	}
	return nil
}

// SetUploadLimit applies an upload limit, given in KB/s, to the given
// torrents. The wire format is bytes/s.
func (c *Client) SetUploadLimit(ctx context.Context, hashes []string, limitKB int64) error {
	if err := c.client.SetTorrentUploadLimitCtx(ctx, hashes, limitKB*1024); err != nil {
		return fmt.Errorf("failed to set upload limit: %w", err)
	}
	return nil
}

// SetShareLimits applies a ratio limit and a seeding-time limit (minutes) to
// the given torrents. The API only sets the pair together; the inactive
// seeding time limit is always left at the global default.
func (c *Client) SetShareLimits(ctx context.Context, hashes []string, ratio float64, seedingTimeMinutes int64) error {
	if err := c.client.SetTorrentShareLimitCtx(ctx, hashes, ratio, seedingTimeMinutes, -1); err != nil {
		return fmt.Errorf("failed to set share limits: %w", err)
	}
	return nil
}

// AddTorrent submits a torrent or magnet URL, tagging it with an optional
// category.
func (c *Client) AddTorrent(ctx context.Context, url, category string) error {
	options := map[string]string{}
	if category != "" {
		options["category"] = category
	}
	if err := c.client.AddTorrentFromUrlCtx(ctx, url, options); err != nil {
		return fmt.Errorf("failed to add torrent: %w", err)
	}
	return nil
}

// splitTags turns qBittorrent's comma-joined tag field into a clean slice.
func splitTags(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	tags := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			tags = append(tags, p)
		}
	}
	return tags
}

// bytesToKB normalizes the live upload limit to KB/s for comparison against
// policy targets. Non-positive values (unlimited) pass through unchanged.
func bytesToKB(limit int64) int64 {
	if limit <= 0 {
		return limit
	}
	return limit / 1024
}
