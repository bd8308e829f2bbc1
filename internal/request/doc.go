// Package request models what a gateway asked for: a named package plus either a
// version requirement against the registry or a direct source URL.
//
// Values are validated once by New and are immutable afterwards; one
// PackageRequest is built per documentation attempt and never persisted.
package request
