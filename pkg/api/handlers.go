package api

import (
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/ssargent/yggdrasil/pkg/btree"
	"github.com/ssargent/yggdrasil/pkg/index"
)

// Server binds the tree registry to the HTTP handlers.
type Server struct {
	registry *index.Registry
	config   ServerConfig
	metrics  *Metrics
}

// NewServer creates a server over the given registry.
func NewServer(registry *index.Registry, config ServerConfig, metrics *Metrics) *Server {
	return &Server{registry: registry, config: config, metrics: metrics}
}

// handleHealth godoc
// @Summary Health check
// @Description Get the health status of the Yggdrasil server
// @Tags health
// @Produce json
// @Success 200 {object} APIResponse{data=map[string]string}
// @Security ApiKeyAuth
// @Router /health [get]
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.metrics.RecordHealthCheck(true)
	sendSuccess(w, map[string]string{"status": "healthy"})
}

// handleListTrees returns the names of the trees currently open.
func (s *Server) handleListTrees(w http.ResponseWriter, r *http.Request) {
	sendSuccess(w, map[string]interface{}{"trees": s.registry.Names()})
}

// handlePut godoc
// @Summary Store a key
// @Description Insert a key with its payload; re-inserting updates the payload
// @Tags trees
// @Accept plain
// @Produce json
// @Param tree path string true "Tree name"
// @Param key path int true "Key"
// @Param value body int true "Payload"
// @Success 200 {object} APIResponse{data=KeyResult}
// @Failure 400 {object} APIResponse
// @Failure 401 {object} APIResponse
// @Failure 500 {object} APIResponse
// @Security ApiKeyAuth
// @Router /trees/{tree}/keys/{key} [put]
func (s *Server) handlePut(w http.ResponseWriter, r *http.Request) {
	t, key, ok := s.treeAndKey(w, r)
	if !ok {
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		sendError(w, "Failed to read request body", http.StatusBadRequest)
		return
	}
	value, err := parseInt32(strings.TrimSpace(string(body)))
	if err != nil {
		sendError(w, fmt.Sprintf("Invalid value: %v", err), http.StatusBadRequest)
		return
	}

	start := time.Now()
	err = t.Insert(key, value)
	s.metrics.RecordTreeOperation("insert", err == nil, time.Since(start))
	if err != nil {
		sendError(w, fmt.Sprintf("Failed to insert key: %v", err), http.StatusInternalServerError)
		return
	}

	sendSuccess(w, KeyResult{Key: key, Value: value})
}

// handleGet godoc
// @Summary Get a key
// @Description Look up the payload stored under a key
// @Tags trees
// @Produce json
// @Param tree path string true "Tree name"
// @Param key path int true "Key"
// @Success 200 {object} APIResponse{data=KeyResult}
// @Failure 400 {object} APIResponse
// @Failure 401 {object} APIResponse
// @Failure 404 {object} APIResponse
// @Failure 500 {object} APIResponse
// @Security ApiKeyAuth
// @Router /trees/{tree}/keys/{key} [get]
func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	t, key, ok := s.treeAndKey(w, r)
	if !ok {
		return
	}

	start := time.Now()
	value, err := t.Get(key)
	s.metrics.RecordTreeOperation("search", err == nil || err == btree.ErrNotFound, time.Since(start))
	if err == btree.ErrNotFound {
		sendError(w, "Key not found", http.StatusNotFound)
		return
	}
	if err != nil {
		sendError(w, fmt.Sprintf("Failed to get key: %v", err), http.StatusInternalServerError)
		return
	}

	sendSuccess(w, KeyResult{Key: key, Value: value})
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	t, key, ok := s.treeAndKey(w, r)
	if !ok {
		return
	}

	start := time.Now()
	err := t.Delete(key)
	s.metrics.RecordTreeOperation("remove", err == nil || err == btree.ErrNotFound, time.Since(start))
	if err == btree.ErrNotFound {
		sendError(w, "Key not found", http.StatusNotFound)
		return
	}
	if err != nil {
		sendError(w, fmt.Sprintf("Failed to delete key: %v", err), http.StatusInternalServerError)
		return
	}

	sendSuccess(w, map[string]string{"message": "Key deleted successfully"})
}

// handleDump writes the level-order dump as plain text.
func (s *Server) handleDump(w http.ResponseWriter, r *http.Request) {
	t, ok := s.tree(w, r)
	if !ok {
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	if err := t.Fprint(w); err != nil {
		sendError(w, fmt.Sprintf("Failed to dump tree: %v", err), http.StatusInternalServerError)
	}
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	t, ok := s.tree(w, r)
	if !ok {
		return
	}

	stats, err := s.statsFor(chi.URLParam(r, "tree"), t)
	if err != nil {
		sendError(w, fmt.Sprintf("Failed to gather stats: %v", err), http.StatusInternalServerError)
		return
	}
	sendSuccess(w, stats)
}

// handleCheck walks the tree and reports the first invariant violation.
func (s *Server) handleCheck(w http.ResponseWriter, r *http.Request) {
	t, ok := s.tree(w, r)
	if !ok {
		return
	}

	if err := t.Check(); err != nil {
		sendError(w, fmt.Sprintf("Invariant violation: %v", err), http.StatusInternalServerError)
		return
	}
	sendSuccess(w, map[string]string{"message": "All invariants hold"})
}

func (s *Server) statsFor(name string, t *btree.Tree) (*TreeStats, error) {
	keys, err := t.Len()
	if err != nil {
		return nil, err
	}
	height, err := t.Height()
	if err != nil {
		return nil, err
	}
	return &TreeStats{
		Name:   name,
		Order:  t.Order(),
		Keys:   keys,
		Nodes:  t.Nodes(),
		Height: height,
		Root:   int32(t.Root()),
	}, nil
}

func (s *Server) tree(w http.ResponseWriter, r *http.Request) (*btree.Tree, bool) {
	name := chi.URLParam(r, "tree")
	t, err := s.registry.Get(name)
	if err != nil {
		sendError(w, fmt.Sprintf("Failed to open tree: %v", err), http.StatusBadRequest)
		return nil, false
	}
	return t, true
}

func (s *Server) treeAndKey(w http.ResponseWriter, r *http.Request) (*btree.Tree, int32, bool) {
	t, ok := s.tree(w, r)
	if !ok {
		return nil, 0, false
	}
	key, err := parseInt32(chi.URLParam(r, "key"))
	if err != nil {
		sendError(w, fmt.Sprintf("Invalid key: %v", err), http.StatusBadRequest)
		return nil, 0, false
	}
	return t, key, true
}

func parseInt32(s string) (int32, error) {
	n, err := strconv.ParseInt(s, 10, 32)
	if err != nil {
		return 0, err
	}
	return int32(n), nil
}
