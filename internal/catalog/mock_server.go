package catalog

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
)

// MockServer provides a configurable catalog mock for testing.
type MockServer struct {
	*httptest.Server
	mu       sync.RWMutex
	username string
	password string
	token    string
	groups   []Group
	channels []Channel
	logos    []Logo
	logoPage int // page size for the paginated logos endpoint

	Edits     [][]ChannelEdit // recorded bulk edits
	Refreshes int             // recorded M3U refresh triggers
}

// NewMockServer creates a catalog mock with default credentials and data.
func NewMockServer() *MockServer {
	mock := &MockServer{
		username: "admin",
		password: "secret",
		token:    "test-token",
		logoPage: 2,
	}
	mock.SetDefaultData()

	mux := http.NewServeMux()
	mux.HandleFunc("/api/accounts/token/", mock.handleToken)
	mux.HandleFunc("/api/channels/groups/", mock.handleGroups)
	mux.HandleFunc("/api/channels/channels/", mock.handleChannels)
	mux.HandleFunc("/api/channels/channels/edit/bulk/", mock.handleBulkEdit)
	mux.HandleFunc("/api/channels/logos/", mock.handleLogos)
	mux.HandleFunc("/api/m3u/refresh/", mock.handleRefresh)

	mock.Server = httptest.NewServer(mux)
	return mock
}

// SetDefaultData installs a small realistic catalog.
func (m *MockServer) SetDefaultData() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.groups = []Group{
		{ID: 1, Name: "Locals"},
		{ID: 2, Name: "Entertainment"},
	}
	logo1 := 7
	m.channels = []Channel{
		{ID: 10, Name: "WABC-TV (ABC) Channel 7", ChannelNumber: "7", ChannelGroupID: 1},
		{ID: 11, Name: "HBO West [HD]", ChannelNumber: "300", ChannelGroupID: 2, LogoID: &logo1},
		{ID: 12, Name: "Some Random Feed 123", ChannelNumber: "999", ChannelGroupID: 2},
	}
	m.logos = []Logo{
		{ID: 7, Name: "hbo-logo"},
		{ID: 8, Name: "abc-logo-2013-garnet-us"},
		{ID: 9, Name: "generic-tv"},
	}
	m.Edits = nil
	m.Refreshes = 0
}

// SetChannels replaces the channel list.
func (m *MockServer) SetChannels(channels []Channel) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.channels = channels
}

// SetGroups replaces the group list.
func (m *MockServer) SetGroups(groups []Group) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.groups = groups
}

func (m *MockServer) handleToken(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	var creds struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	m.mu.RLock()
	ok := creds.Username == m.username && creds.Password == m.password
	token := m.token
	m.mu.RUnlock()
	if !ok {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}
	writeJSON(w, map[string]string{"access": token})
}

func (m *MockServer) authorized(r *http.Request) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return r.Header.Get("Authorization") == "Bearer "+m.token
}

func (m *MockServer) handleGroups(w http.ResponseWriter, r *http.Request) {
	if !m.authorized(r) {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	writeJSON(w, m.groups)
}

func (m *MockServer) handleChannels(w http.ResponseWriter, r *http.Request) {
	if !m.authorized(r) {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	writeJSON(w, m.channels)
}

func (m *MockServer) handleBulkEdit(w http.ResponseWriter, r *http.Request) {
	if !m.authorized(r) {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}
	if r.Method != http.MethodPatch {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	var edits []ChannelEdit
	if err := json.NewDecoder(r.Body).Decode(&edits); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	m.mu.Lock()
	m.Edits = append(m.Edits, edits)
	m.mu.Unlock()
	writeJSON(w, map[string]int{"updated": len(edits)})
}

// handleLogos serves a DRF-style paginated envelope to exercise the
// next-link following in the client.
func (m *MockServer) handleLogos(w http.ResponseWriter, r *http.Request) {
	if !m.authorized(r) {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	page := 1
	if p := r.URL.Query().Get("page"); p != "" {
		if n, err := strconv.Atoi(p); err == nil && n > 0 {
			page = n
		}
	}
	start := (page - 1) * m.logoPage
	end := start + m.logoPage
	if start > len(m.logos) {
		start = len(m.logos)
	}
	if end > len(m.logos) {
		end = len(m.logos)
	}

	var next *string
	if end < len(m.logos) {
		u := m.URL + "/api/channels/logos/?page=" + strconv.Itoa(page+1)
		next = &u
	}
	writeJSON(w, map[string]any{
		"count":   len(m.logos),
		"next":    next,
		"results": m.logos[start:end],
	})
}

func (m *MockServer) handleRefresh(w http.ResponseWriter, r *http.Request) {
	if !m.authorized(r) {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}
	m.mu.Lock()
	m.Refreshes++
	m.mu.Unlock()
	writeJSON(w, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
