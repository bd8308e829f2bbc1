// Package batch documents a list of packages read from a YAML file.
//
// A batch file is a sequence of entries:
//
//	# crates.yaml
//	- package: serde
//	  version: "^1"
//	  features: [derive]
//	- package: demo
//	  url: https://example.com/acme/demo.git
//	  include-deps: false
//
// Entries run one after another. Inside the server the same file can be
// re-run on an interval (Scheduler) and whenever it changes (Watcher).
package batch
