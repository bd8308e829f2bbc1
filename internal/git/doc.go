// Package git keeps local checkouts of git package sources in sync with their
// remotes. A checkout is cloned on first use and afterwards fetched and
// hard-reset to the remote branch, so the working tree always mirrors the
// remote state at the time of the last Sync.
package git
