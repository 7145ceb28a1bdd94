// Package chatapi is an in-memory fake of the remote message backend for tests.
package chatapi

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
)

// Token is the bearer token the fake accepts unless configured otherwise.
const Token = "test-token"

// Message mirrors the backend document shape, which uses "_id".
type Message struct {
	ID        string    `json:"_id"`
	Body      string    `json:"message"`
	Author    string    `json:"author"`
	CreatedAt time.Time `json:"createdAt"`
}

// CreateRequest records one append attempt as received.
type CreateRequest struct {
	Authorization string
	ContentType   string
	Body          string
	Author        string
}

// Server is a fake backend. Zero status overrides mean normal behavior.
type Server struct {
	mu           sync.Mutex
	token        string
	now          func() time.Time
	messages     []Message
	listCalls    int
	creates      []CreateRequest
	listStatus   int
	createStatus int
	listBody     string
	dropList     bool
	dropCreate   bool
	listGate     chan struct{}
	listStarted  chan struct{}
}

// New returns an empty fake backend.
func New() *Server {
	return &Server{
		token: Token,
		now:   time.Now,
	}
}

// Start serves s on a test server closed at test cleanup.
func Start(t testing.TB, s *Server) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(s)
	t.Cleanup(srv.Close)
	return srv
}

// Seed appends messages as if other visitors had posted them.
func (s *Server) Seed(author string, bodies ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, body := range bodies {
		s.appendLocked(body, author)
	}
}

// SetListStatus forces GET responses to status.
func (s *Server) SetListStatus(status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listStatus = status
}

// SetCreateStatus forces POST responses to status.
func (s *Server) SetCreateStatus(status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.createStatus = status
}

// SetListBody replaces the GET body with raw.
func (s *Server) SetListBody(raw string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listBody = raw
}

// DropConnections makes the fake abort connections instead of answering.
func (s *Server) DropConnections(list, create bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dropList = list
	s.dropCreate = create
}

// HoldLists blocks GET handlers until the returned release func is called.
// started receives once per held request.
func (s *Server) HoldLists() (started <-chan struct{}, release func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	gate := make(chan struct{})
	startedCh := make(chan struct{}, 16)
	s.listGate = gate
	s.listStarted = startedCh
	var once sync.Once
	return startedCh, func() {
		once.Do(func() {
			s.mu.Lock()
			s.listGate = nil
			s.mu.Unlock()
			close(gate)
		})
	}
}

// ListCalls reports how many GET requests reached the fake.
func (s *Server) ListCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.listCalls
}

// Creates returns the recorded POST requests.
func (s *Server) Creates() []CreateRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]CreateRequest(nil), s.creates...)
}

// Messages returns a copy of the stored log.
func (s *Server) Messages() []Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Message(nil), s.messages...)
}

// ServeHTTP implements the backend contract.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/api/v1/messages" {
		http.NotFound(w, r)
		return
	}
	switch r.Method {
	case http.MethodGet:
		s.handleList(w, r)
	case http.MethodPost:
		s.handleCreate(w, r)
	default:
		w.Header().Set("Allow", "GET, POST")
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	s.listCalls++
	gate, started := s.listGate, s.listStarted
	s.mu.Unlock()

	if gate != nil {
		select {
		case started <- struct{}{}:
		default:
		}
		select {
		case <-gate:
		case <-r.Context().Done():
			return
		}
	}

	s.mu.Lock()
	authorized := r.Header.Get("Authorization") == "Bearer "+s.token
	status, raw, drop := s.listStatus, s.listBody, s.dropList
	messages := append([]Message(nil), s.messages...)
	s.mu.Unlock()

	if drop {
		abort(w)
		return
	}
	if !authorized {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}
	if status != 0 {
		w.WriteHeader(status)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if raw != "" {
		_, _ = io.WriteString(w, raw)
		return
	}
	if messages == nil {
		messages = []Message{}
	}
	_ = json.NewEncoder(w).Encode(messages)
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Message string `json:"message"`
		Author  string `json:"author"`
	}
	decodeErr := json.NewDecoder(r.Body).Decode(&payload)

	s.mu.Lock()
	s.creates = append(s.creates, CreateRequest{
		Authorization: r.Header.Get("Authorization"),
		ContentType:   r.Header.Get("Content-Type"),
		Body:          payload.Message,
		Author:        payload.Author,
	})
	authorized := r.Header.Get("Authorization") == "Bearer "+s.token
	status, drop := s.createStatus, s.dropCreate
	s.mu.Unlock()

	switch {
	case drop:
		abort(w)
	case !authorized:
		w.WriteHeader(http.StatusUnauthorized)
	case status != 0:
		w.WriteHeader(status)
	case decodeErr != nil || strings.TrimSpace(payload.Message) == "" || strings.TrimSpace(payload.Author) == "":
		w.WriteHeader(http.StatusBadRequest)
	default:
		s.mu.Lock()
		created := s.appendLocked(payload.Message, payload.Author)
		s.mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(created)
	}
}

func (s *Server) appendLocked(body, author string) Message {
	msg := Message{
		ID:        uuid.NewString(),
		Body:      body,
		Author:    author,
		CreatedAt: s.now().UTC().Truncate(time.Millisecond),
	}
	s.messages = append(s.messages, msg)
	return msg
}

// abort closes the connection without a response so clients see a
// transport error.
func abort(w http.ResponseWriter) {
	hj, ok := w.(http.Hijacker)
	if !ok {
		panic(http.ErrAbortHandler)
	}
	conn, _, err := hj.Hijack()
	if err != nil {
		panic(http.ErrAbortHandler)
	}
	_ = conn.Close()
}
