// Package cargo runs the documentation build for a fetched package.
//
// The build target directory is handed to the child process through its own
// environment; the parent process environment is never modified.
package cargo
