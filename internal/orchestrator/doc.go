// Package orchestrator runs one documentation attempt end to end:
// resolve, fetch, then stage, build and publish under the build gate.
//
// Resolution and fetching run concurrently across attempts. Staging,
// building and publishing run for at most one attempt at a time.
package orchestrator
