// Package workspace prepares the directories a documentation build runs in
// and publishes the build output.
//
// Every attempt gets its own root (os.MkdirTemp, "youmu-*") holding the build
// target directory, unless a persistent target directory is configured, in
// which case that directory is reused across builds and only its stale doc
// fingerprints are cleared.
//
// Output is published by staging it next to the publish directory and
// swapping it into place, so readers of the publish directory see either the
// previous complete output or the new one.
package workspace
