// Package source turns a request into one concrete, fetchable package and
// materializes its sources locally.
//
// Two protocols are supported. Registry requests query a Cargo sparse index
// (https://index.crates.io by default) and select the highest version that
// satisfies the requirement; the index is refreshed on every resolution.
// Direct-URL requests treat the URL as a git repository: it is cloned or
// updated with go-git, then every Cargo.toml in the checkout is scanned for a
// package with the requested name and the first match wins.
//
// Every source has a SourceID whose Hash is stable across process restarts;
// the publish layout relies on it for URL sources.
package source
