package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"git.home.luguber.info/inful/youmu/internal/cargo"
	"git.home.luguber.info/inful/youmu/internal/catalog"
	derrors "git.home.luguber.info/inful/youmu/internal/errors"
	"git.home.luguber.info/inful/youmu/internal/logfields"
	"git.home.luguber.info/inful/youmu/internal/request"
)

type versionView struct {
	Version string
	Source  string
	Href    string
}

type crateView struct {
	Name        string
	Href        string
	Description string
	Versions    []versionView
}

type indexPage struct {
	Total         int
	Crates        []crateView
	RequestAction string
}

type cratePage struct {
	Crate crateView
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	page := indexPage{RequestAction: "gendocs"}
	if s.opts.Catalog != nil {
		entries, err := s.opts.Catalog.List(r.Context())
		if err != nil {
			writeError(w, derrors.InternalError("list catalog", err))
			return
		}
		page.Total = len(entries)
		page.Crates = s.group(entries)
	}
	s.render(w, "index.html", page)
}

func (s *Server) handleCrate(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "crate")
	if s.opts.Catalog == nil {
		http.NotFound(w, r)
		return
	}
	entries, err := s.opts.Catalog.Versions(r.Context(), name)
	if err != nil {
		writeError(w, derrors.InternalError("list versions", err))
		return
	}
	crates := s.group(entries)
	if len(crates) == 0 {
		http.Error(w, "no documentation for "+name, http.StatusNotFound)
		return
	}
	s.render(w, "crate.html", cratePage{Crate: crates[0]})
}

func (s *Server) handleGenDocs(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeError(w, derrors.WrapConfig(err, "malformed form body"))
		return
	}
	in := request.Input{
		Name:          r.PostFormValue("package"),
		URL:           r.PostFormValue("url"),
		Version:       r.PostFormValue("version"),
		Features:      r.PostForm["features"],
		RequireSource: true,
	}
	var err error
	if in.DefaultFeatures, err = formBool(r, "default_features", true); err != nil {
		writeError(w, err)
		return
	}
	if in.IncludeDeps, err = formBool(r, "include_deps", true); err != nil {
		writeError(w, err)
		return
	}

	req, err := request.New(in)
	if err != nil {
		writeError(w, err)
		return
	}
	res, err := s.opts.Documenter.Document(r.Context(), req, s.opts.DocsPath)
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(res.PublishDir + "\n"))
}

func (s *Server) handleVersionRoot(w http.ResponseWriter, r *http.Request) {
	s.redirectToCrateIndex(w, r)
}

func (s *Server) handleDocFile(w http.ResponseWriter, r *http.Request) {
	if chi.URLParam(r, "*") == "" {
		s.redirectToCrateIndex(w, r)
		return
	}
	http.StripPrefix("/docs", http.FileServer(http.Dir(s.opts.DocsPath))).ServeHTTP(w, r)
}

// redirectToCrateIndex sends /docs/{crate}/{version} to the crate's rustdoc entry page.
func (s *Server) redirectToCrateIndex(w http.ResponseWriter, r *http.Request) {
	crate := chi.URLParam(r, "crate")
	version := chi.URLParam(r, "version")
	target := "/docs/" + crate + "/" + version + "/" + cargo.CrateDir(crate) + "/"
	http.Redirect(w, r, target, http.StatusFound)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	body := map[string]any{"status": "healthy"}
	if s.opts.Queue != nil {
		body["queued_builds"] = s.opts.Queue.Waiting()
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(body)
}

func (s *Server) render(w http.ResponseWriter, name string, data any) {
	var buf bytes.Buffer
	if err := pages.ExecuteTemplate(&buf, name, data); err != nil {
		s.logger.Error("Template render failed", logfields.Name(name), logfields.Error(err))
		writeError(w, derrors.InternalError("render page", err))
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = buf.WriteTo(w)
}

// group folds catalog entries, already sorted by name then version, into one view per crate.
func (s *Server) group(entries []catalog.Entry) []crateView {
	var out []crateView
	for _, e := range entries {
		if len(out) == 0 || out[len(out)-1].Name != e.Name {
			out = append(out, crateView{Name: e.Name, Href: "/docs/" + e.Name, Description: e.Description})
		}
		out[len(out)-1].Versions = append(out[len(out)-1].Versions, versionView{
			Version: e.Version,
			Source:  e.Source,
			Href:    s.docsHref(e.PublishDir),
		})
	}
	return out
}

// docsHref links to a publish dir when it sits at <docs>/<name>/<leaf>; other
// destinations are not served.
func (s *Server) docsHref(publishDir string) string {
	rel, err := filepath.Rel(s.opts.DocsPath, publishDir)
	if err != nil {
		return ""
	}
	parts := strings.Split(filepath.ToSlash(rel), "/")
	if len(parts) != 2 || parts[0] == ".." {
		return ""
	}
	return "/docs/" + parts[0] + "/" + parts[1] + "/"
}

func formBool(r *http.Request, key string, def bool) (bool, error) {
	raw := strings.TrimSpace(r.PostFormValue(key))
	if raw == "" {
		return def, nil
	}
	if raw == "on" {
		return true, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, derrors.WrapConfig(err, "malformed boolean field").WithContext("field", key)
	}
	return v, nil
}
