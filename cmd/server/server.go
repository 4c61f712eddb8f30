package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"sync"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/kevinxiao27/failfast-seq/journal"
	"github.com/kevinxiao27/failfast-seq/removal"
	"github.com/kevinxiao27/failfast-seq/seq"
	"github.com/kevinxiao27/failfast-seq/util"
	"github.com/sanity-io/litter"
)

var (
	errNotFound   = errors.New("sequence not found")
	errBadRequest = errors.New("bad request")
)

type document struct {
	seq     *seq.Sequence[string]
	journal *journal.Log[string]
	clients mapset.Set[*websocket.Conn]
}

// Server exposes named string sequences. Sequences are not safe for
// concurrent use, so every handler holds mu for its whole run.
type Server struct {
	mu        sync.Mutex
	documents map[string]*document
	upgrader  websocket.Upgrader
}

type WSMessage struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

type ValueRequest struct {
	Value string `json:"value"`
}

type RemoveRequest struct {
	Value    string `json:"value"`
	Strategy string `json:"strategy"`
}

type SequenceResponse struct {
	Items    []string    `json:"items"`
	Rendered string      `json:"rendered"`
	Version  seq.Version `json:"version"`
}

type OpMessage struct {
	Kind    seq.OpKind  `json:"kind"`
	Pos     int         `json:"pos"`
	Value   string      `json:"value,omitempty"`
	Removed int         `json:"removed,omitempty"`
	Version seq.Version `json:"version"`
}

func NewServer() *Server {
	return &Server{
		documents: make(map[string]*document),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/sequences/{id}", s.handleGet).Methods(http.MethodGet)
	r.HandleFunc("/sequences/{id}", s.handleClear).Methods(http.MethodDelete)
	r.HandleFunc("/sequences/{id}/values", s.handleAppend).Methods(http.MethodPost)
	r.HandleFunc("/sequences/{id}/values/{index:[0-9]+}", s.handleInsert).Methods(http.MethodPost)
	r.HandleFunc("/sequences/{id}/values/{index:[0-9]+}", s.handleSet).Methods(http.MethodPut)
	r.HandleFunc("/sequences/{id}/values/{index:[0-9]+}", s.handleRemoveAt).Methods(http.MethodDelete)
	r.HandleFunc("/sequences/{id}/remove", s.handleRemove).Methods(http.MethodPost)
	r.HandleFunc("/sequences/{id}/journal", s.handleJournal).Methods(http.MethodGet)
	r.HandleFunc("/ws", s.handleWebSocket)
	return r
}

func (s *Server) attach(id string, sq *seq.Sequence[string], clients mapset.Set[*websocket.Conn]) *document {
	doc := &document{seq: sq, journal: journal.Record(sq), clients: clients}
	sq.Observe(func(op seq.Op[string]) {
		s.broadcast(doc, "op", OpMessage{
			Kind:    op.Kind,
			Pos:     op.Pos,
			Value:   op.Value,
			Removed: op.Removed,
			Version: op.Version,
		})
	})
	s.documents[id] = doc
	return doc
}

// getDocument must be called with mu held.
func (s *Server) getDocument(id string) *document {
	if doc, exists := s.documents[id]; exists {
		return doc
	}
	return s.attach(id, seq.New[string](), mapset.NewThreadUnsafeSet[*websocket.Conn]())
}

func snapshot(doc *document) SequenceResponse {
	return SequenceResponse{
		Items:    doc.seq.Items(),
		Rendered: doc.seq.String(),
		Version:  doc.seq.Version(),
	}
}

// broadcast must be called with mu held.
func (s *Server) broadcast(doc *document, kind string, payload any) {
	if doc.clients.Cardinality() == 0 {
		return
	}
	data, err := json.Marshal(payload)
	if err != nil {
		log.Printf("BROADCAST: marshal %s: %v", kind, err)
		return
	}
	msg := WSMessage{Type: kind, Data: data}
	log.Printf("BROADCAST: sending %s to %d clients", kind, doc.clients.Cardinality())
	for conn := range doc.clients.Iter() {
		if err := conn.WriteJSON(msg); err != nil {
			log.Printf("BROADCAST: write failed: %v", err)
		}
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("encode response: %v", err)
	}
}

func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, errNotFound):
		status = http.StatusNotFound
	case errors.Is(err, seq.ErrConcurrentMutation):
		status = http.StatusConflict
	case errors.Is(err, errBadRequest), errors.Is(err, seq.ErrIndexOutOfRange), errors.Is(err, removal.ErrUnknownStrategy):
		status = http.StatusBadRequest
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func decode(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("%w: %v", errBadRequest, err)
	}
	return nil
}

func pathIndex(r *http.Request) int {
	// the route pattern only admits digits
	idx, err := strconv.Atoi(mux.Vars(r)["index"])
	if err != nil {
		return -1
	}
	return idx
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc := s.getDocument(mux.Vars(r)["id"])
	writeJSON(w, http.StatusOK, snapshot(doc))
}

func (s *Server) handleClear(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := mux.Vars(r)["id"]
	doc, ok := s.documents[id]
	if !ok {
		writeError(w, fmt.Errorf("%w: %s", errNotFound, id))
		return
	}
	log.Printf("CLEAR: seq=%s", id)
	doc.seq.Clear()
	writeJSON(w, http.StatusOK, snapshot(doc))
}

func (s *Server) handleAppend(w http.ResponseWriter, r *http.Request) {
	var req ValueRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	id := mux.Vars(r)["id"]
	_, existed := s.documents[id]
	doc := s.getDocument(id)
	log.Printf("APPEND: seq=%s value=%s", id, req.Value)
	doc.seq.Append(req.Value)
	writeJSON(w, util.Choose(existed, http.StatusOK, http.StatusCreated), snapshot(doc))
}

func (s *Server) handleInsert(w http.ResponseWriter, r *http.Request) {
	var req ValueRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	id, idx := mux.Vars(r)["id"], pathIndex(r)
	doc := s.getDocument(id)
	log.Printf("INSERT: seq=%s pos=%d value=%s", id, idx, req.Value)
	if err := doc.seq.InsertAt(idx, req.Value); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snapshot(doc))
}

func (s *Server) handleSet(w http.ResponseWriter, r *http.Request) {
	var req ValueRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	id, idx := mux.Vars(r)["id"], pathIndex(r)
	doc := s.getDocument(id)
	log.Printf("SET: seq=%s pos=%d value=%s", id, idx, req.Value)
	if _, err := doc.seq.Set(idx, req.Value); err != nil {
		writeError(w, err)
		return
	}
	s.broadcast(doc, "snapshot", snapshot(doc))
	writeJSON(w, http.StatusOK, snapshot(doc))
}

func (s *Server) handleRemoveAt(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, idx := mux.Vars(r)["id"], pathIndex(r)
	doc := s.getDocument(id)
	log.Printf("DELETE: seq=%s pos=%d", id, idx)
	if _, err := doc.seq.RemoveAt(idx); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snapshot(doc))
}

func (s *Server) handleRemove(w http.ResponseWriter, r *http.Request) {
	var req RemoveRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	st, err := removal.ParseStrategy(req.Strategy)
	if err != nil {
		writeError(w, err)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	id := mux.Vars(r)["id"]
	doc := s.getDocument(id)
	log.Printf("REMOVE: seq=%s value=%s strategy=%s", id, req.Value, st)

	result, err := removal.Apply(st, doc.seq, removal.Equals(req.Value))
	if err != nil {
		writeError(w, err)
		return
	}
	if result != doc.seq {
		doc = s.attach(id, result, doc.clients)
		s.broadcast(doc, "snapshot", snapshot(doc))
	}
	writeJSON(w, http.StatusOK, snapshot(doc))
}

func (s *Server) handleJournal(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := mux.Vars(r)["id"]
	doc, ok := s.documents[id]
	if !ok {
		writeError(w, fmt.Errorf("%w: %s", errNotFound, id))
		return
	}

	if r.URL.Query().Get("format") == "dump" {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		fmt.Fprintln(w, litter.Sdump(doc.journal.Ops))
		return
	}

	ops := make([]OpMessage, 0, len(doc.journal.Ops))
	for _, op := range doc.journal.Ops {
		ops = append(ops, OpMessage{Kind: op.Kind, Pos: op.Pos, Value: op.Value, Removed: op.Removed, Version: op.Version})
	}
	writeJSON(w, http.StatusOK, ops)
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("UPGRADE: %v", err)
		return
	}
	defer conn.Close()

	id := r.URL.Query().Get("seq")

	s.mu.Lock()
	doc := s.getDocument(id)
	doc.clients.Add(conn)
	log.Printf("CLIENT CONNECTED: seq=%s total=%d", id, doc.clients.Cardinality())
	data, _ := json.Marshal(snapshot(doc))
	err = conn.WriteJSON(WSMessage{Type: "init", Data: data})
	s.mu.Unlock()
	if err != nil {
		log.Printf("INIT: %v", err)
	}

	for {
		var msg WSMessage
		if err := conn.ReadJSON(&msg); err != nil {
			break
		}
		log.Printf("MESSAGE: type=%s", msg.Type)

		var req ValueRequest
		if err := json.Unmarshal(msg.Data, &req); err != nil {
			log.Printf("MESSAGE: bad payload: %v", err)
			continue
		}

		s.mu.Lock()
		// re-read: a filter removal may have swapped the document
		doc := s.getDocument(id)
		switch msg.Type {
		case "append":
			doc.seq.Append(req.Value)
		case "remove":
			doc.seq.RemoveValue(req.Value)
		}
		s.mu.Unlock()
	}

	s.mu.Lock()
	doc = s.getDocument(id)
	doc.clients.Remove(conn)
	log.Printf("CLIENT DISCONNECTED: seq=%s remaining=%d", id, doc.clients.Cardinality())
	s.mu.Unlock()
}
