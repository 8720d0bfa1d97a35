// Package qbt provides a client for interacting with the qBittorrent Web API.
//
// This package wraps the autobrr/go-qbittorrent library to provide a
// higher-level interface tailored for qbt-janitor's needs: fetching the full
// torrent inventory with tracker messages attached, reading file manifests,
// and issuing the bulk mutations the cleanup engine batches (pause, delete,
// upload limit, share limits) plus feed-driven downloads.
//
// # Usage
//
//	client, err := qbt.NewClient(ctx, url, username, password, logger)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	torrents, err := client.GetTorrents(ctx)
//
// All mutating calls accept the hash set for a whole group so the caller can
// batch; none of them retries or fans out on its own.
package qbt
