// Package cleanup implements the decision and batching engine.
//
// For every torrent in the fetched inventory the engine resolves the single
// tracker policy that governs it, evaluates retention (age and tracker-message
// rules), classifies not-kept torrents into a pause or deletion method under
// an explicit ordered list of override rules, and folds the resulting limit
// changes and actions into the minimal set of bulk API calls.
//
// Classification is pure: it never talks to the network. All external calls
// happen in one place after the whole inventory has been classified, so a
// partial failure never leaves the decision state half-applied.
package cleanup
