package batch

import (
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	derrors "git.home.luguber.info/inful/youmu/internal/errors"
	"git.home.luguber.info/inful/youmu/internal/request"
)

// Entry is one package in a batch file.
type Entry struct {
	Package         string   `yaml:"package"`
	URL             string   `yaml:"url,omitempty"`
	Version         string   `yaml:"version,omitempty"`
	Features        []string `yaml:"features,omitempty"`
	DefaultFeatures *bool    `yaml:"default-features,omitempty"`
	IncludeDeps     *bool    `yaml:"include-deps,omitempty"`
}

// Request validates the entry. Unset booleans default to true.
func (e Entry) Request() (request.PackageRequest, error) {
	in := request.DefaultInput(e.Package)
	in.URL = e.URL
	in.Version = e.Version
	in.Features = e.Features
	in.AllowLocalURL = true
	if e.DefaultFeatures != nil {
		in.DefaultFeatures = *e.DefaultFeatures
	}
	if e.IncludeDeps != nil {
		in.IncludeDeps = *e.IncludeDeps
	}
	return request.New(in)
}

// Parse decodes a batch file. Unknown keys are rejected.
func Parse(r io.Reader) ([]Entry, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	var entries []Entry
	if err := dec.Decode(&entries); err != nil && !errors.Is(err, io.EOF) {
		return nil, derrors.WrapConfig(err, "malformed batch file")
	}
	return entries, nil
}

// LoadFile reads and parses the batch file at path.
func LoadFile(path string) ([]Entry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, derrors.WrapConfig(err, "cannot open batch file").WithContext("path", path)
	}
	defer f.Close()
	entries, err := Parse(f)
	if err != nil {
		return nil, err
	}
	return entries, nil
}

// Requests validates every entry up front so a bad entry fails the batch
// before any work starts.
func Requests(entries []Entry) ([]request.PackageRequest, error) {
	reqs := make([]request.PackageRequest, 0, len(entries))
	for i, e := range entries {
		req, err := e.Request()
		if err != nil {
			if ye, ok := derrors.As(err); ok {
				ye.WithContext("entry", i+1)
			}
			return nil, fmt.Errorf("batch entry %d: %w", i+1, err)
		}
		reqs = append(reqs, req)
	}
	return reqs, nil
}
