package qbt

import "errors"

// Common errors returned by the qBittorrent client.
var (
	// ErrLoginFailed is returned when authentication is rejected.
	ErrLoginFailed = errors.New("qBittorrent login failed")

	// ErrUnsupportedVersion is returned when the Web API is too old for
	// the bulk operations this tool issues.
	ErrUnsupportedVersion = errors.New("unsupported qBittorrent Web API version")
)
