// Package ghstoretest provides an in-process fake of the GitHub contents API
// and raw-content host for a single file, with SHA-checked writes.
package ghstoretest

import (
	"crypto/sha1"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
)

// Commit records one accepted write.
type Commit struct {
	Message string
	Branch  string
	SHA     string
	Content []byte
}

// Server serves one file at /repos/{owner}/{repo}/contents/{path} and
// /raw/{owner}/{repo}/{branch}/{path}.
type Server struct {
	*httptest.Server

	owner, repo, branch, path string

	mu         sync.Mutex
	content    []byte
	sha        string
	token      string
	reads      int
	writes     int
	rawReads   int
	rawQueries []string
	commits    []Commit
	failRead   int
	failWrite  int
	afterRead  func()
}

// NewServer starts a fake holding content at path. It is closed when the
// test ends.
func NewServer(tb testing.TB, owner, repo, branch, path string, content []byte) *Server {
	tb.Helper()

	s := &Server{
		owner:  owner,
		repo:   repo,
		branch: branch,
		path:   path,
	}
	s.setContentLocked(content)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /repos/{owner}/{repo}/contents/{path...}", s.handleGet)
	mux.HandleFunc("PUT /repos/{owner}/{repo}/contents/{path...}", s.handlePut)
	mux.HandleFunc("GET /raw/{owner}/{repo}/{branch}/{path...}", s.handleRaw)

	s.Server = httptest.NewServer(mux)
	tb.Cleanup(s.Close)
	return s
}

// APIURL is the base URL to configure as the GitHub API endpoint.
func (s *Server) APIURL() string {
	return s.URL + "/"
}

// RawURL is the base URL to configure as the raw-content host.
func (s *Server) RawURL() string {
	return s.URL + "/raw"
}

// RequireToken makes every contents API call demand a bearer token.
func (s *Server) RequireToken(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
}

// Content returns the stored file content.
func (s *Server) Content() []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]byte(nil), s.content...)
}

// SHA returns the stored file's blob SHA.
func (s *Server) SHA() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sha
}

// SetContent replaces the stored file as if another client had committed.
func (s *Server) SetContent(content []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.setContentLocked(content)
}

// Reads counts contents API reads.
func (s *Server) Reads() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reads
}

// RawReads counts raw-content reads.
func (s *Server) RawReads() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rawReads
}

// RawQueries returns the query strings of raw reads.
func (s *Server) RawQueries() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.rawQueries...)
}

// Commits returns every accepted write.
func (s *Server) Commits() []Commit {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Commit(nil), s.commits...)
}

// Writes counts every write attempt, accepted or rejected.
func (s *Server) Writes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writes
}

// FailReads makes every read answer with status. Zero restores normal reads.
func (s *Server) FailReads(status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failRead = status
}

// FailWrites makes every write answer with status. Zero restores normal writes.
func (s *Server) FailWrites(status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failWrite = status
}

// AfterNextRead runs fn once, after the next contents read has captured the
// file but before its response is sent. It lets a test commit a competing
// change between a client's read and write.
func (s *Server) AfterNextRead(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.afterRead = fn
}

func (s *Server) setContentLocked(content []byte) {
	s.content = append([]byte(nil), content...)
	s.sha = blobSHA(content)
}

// blobSHA computes the git blob id of content.
func blobSHA(content []byte) string {
	h := sha1.New()
	fmt.Fprintf(h, "blob %d\x00", len(content))
	h.Write(content)
	return hex.EncodeToString(h.Sum(nil))
}

func (s *Server) matches(r *http.Request) bool {
	return r.PathValue("owner") == s.owner &&
		r.PathValue("repo") == s.repo &&
		r.PathValue("path") == s.path
}

func (s *Server) authorized(r *http.Request) bool {
	if s.token == "" {
		return true
	}
	return r.Header.Get("Authorization") == "Bearer "+s.token
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	if !s.authorized(r) {
		s.mu.Unlock()
		writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "Bad credentials"})
		return
	}
	if s.failRead != 0 {
		status := s.failRead
		s.mu.Unlock()
		writeJSON(w, status, map[string]string{"message": http.StatusText(status)})
		return
	}
	if !s.matches(r) || (r.URL.Query().Get("ref") != "" && r.URL.Query().Get("ref") != s.branch) {
		s.mu.Unlock()
		writeJSON(w, http.StatusNotFound, map[string]string{"message": "Not Found"})
		return
	}
	s.reads++
	body := map[string]any{
		"type":     "file",
		"encoding": "base64",
		"name":     s.path[strings.LastIndex(s.path, "/")+1:],
		"path":     s.path,
		"sha":      s.sha,
		"size":     len(s.content),
		"content":  base64.StdEncoding.EncodeToString(s.content),
	}
	hook := s.afterRead
	s.afterRead = nil
	s.mu.Unlock()

	if hook != nil {
		hook()
	}
	writeJSON(w, http.StatusOK, body)
}

type putRequest struct {
	Message string `json:"message"`
	Content string `json:"content"`
	SHA     string `json:"sha"`
	Branch  string `json:"branch"`
}

func (s *Server) handlePut(w http.ResponseWriter, r *http.Request) {
	var req putRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "Problems parsing JSON"})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.writes++
	if !s.authorized(r) {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "Bad credentials"})
		return
	}
	if s.failWrite != 0 {
		writeJSON(w, s.failWrite, map[string]string{"message": http.StatusText(s.failWrite)})
		return
	}
	if !s.matches(r) || (req.Branch != "" && req.Branch != s.branch) {
		writeJSON(w, http.StatusNotFound, map[string]string{"message": "Not Found"})
		return
	}
	if req.SHA == "" {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"message": "Invalid request.\n\n\"sha\" wasn't supplied."})
		return
	}
	if req.SHA != s.sha {
		writeJSON(w, http.StatusConflict, map[string]string{"message": fmt.Sprintf("%s does not match %s", s.path, req.SHA)})
		return
	}

	content, err := base64.StdEncoding.DecodeString(req.Content)
	if err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"message": "content is not valid Base64"})
		return
	}

	s.setContentLocked(content)
	s.commits = append(s.commits, Commit{
		Message: req.Message,
		Branch:  req.Branch,
		SHA:     s.sha,
		Content: append([]byte(nil), content...),
	})

	writeJSON(w, http.StatusOK, map[string]any{
		"content": map[string]any{
			"name": s.path[strings.LastIndex(s.path, "/")+1:],
			"path": s.path,
			"sha":  s.sha,
		},
		"commit": map[string]any{
			"sha":     blobSHA([]byte(req.Message + s.sha)),
			"message": req.Message,
		},
	})
}

func (s *Server) handleRaw(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.rawQueries = append(s.rawQueries, r.URL.RawQuery)
	if s.failRead != 0 {
		http.Error(w, http.StatusText(s.failRead), s.failRead)
		return
	}
	if !s.matches(r) || r.PathValue("branch") != s.branch {
		http.Error(w, "404: Not Found", http.StatusNotFound)
		return
	}
	s.rawReads++
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write(s.content)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
