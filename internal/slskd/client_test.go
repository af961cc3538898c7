package slskd

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/cesargomez89/slskdsync/internal/domain"
)

func newTestClient(t *testing.T, mux *http.ServeMux) *Client {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-API-Key") != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		mux.ServeHTTP(w, r)
	}))
	t.Cleanup(srv.Close)

	c, err := New(Config{Host: srv.URL, URLBase: "/slskd/", APIKey: "secret", HTTPClient: srv.Client()})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	c.newID = func() string { return "fixed-id" }
	return c
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func TestAPIBase(t *testing.T) {
	tests := []struct {
		host, base, want string
		wantErr          bool
	}{
		{"http://localhost:5030", "/", "http://localhost:5030/api/v0", false},
		{"http://localhost:5030/", "", "http://localhost:5030/api/v0", false},
		{"http://nas:5030", "/slskd", "http://nas:5030/slskd/api/v0", false},
		{"localhost:5030", "/", "", true},
		{"", "/", "", true},
	}
	for _, tt := range tests {
		got, err := apiBase(tt.host, tt.base)
		if (err != nil) != tt.wantErr {
			t.Errorf("apiBase(%q, %q) error = %v, wantErr %v", tt.host, tt.base, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("apiBase(%q, %q) = %q, want %q", tt.host, tt.base, got, tt.want)
		}
	}
}

func TestClient_Status(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/slskd/api/v0/application", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]interface{}{
			"version": map[string]interface{}{"full": "0.21.4.65534", "current": "0.21.4"},
			"server":  map[string]interface{}{"isConnected": true, "isLoggedIn": true},
		})
	})
	c := newTestClient(t, mux)

	st, err := c.Status(context.Background())
	if err != nil {
		t.Fatalf("Status failed: %v", err)
	}
	if st.Version != "0.21.4.65534" || !st.Connected || !st.LoggedIn {
		t.Errorf("unexpected status: %+v", st)
	}
}

func TestClient_SearchLifecycle(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/slskd/api/v0/searches", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			writeJSON(w, []map[string]interface{}{
				{"id": "a", "searchText": "The Beatles Let It Be", "state": "InProgress", "isComplete": false},
			})
		case http.MethodPost:
			var body map[string]string
			_ = json.NewDecoder(r.Body).Decode(&body)
			if body["id"] != "fixed-id" || body["searchText"] != "Daft Punk Around the World" {
				t.Errorf("unexpected submit body: %v", body)
			}
			writeJSON(w, map[string]interface{}{"id": body["id"], "searchText": body["searchText"], "state": "Requested"})
		}
	})
	mux.HandleFunc("/slskd/api/v0/searches/fixed-id", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]interface{}{"id": "fixed-id", "isComplete": true, "state": "Completed, TimedOut", "responseCount": 1})
	})
	mux.HandleFunc("/slskd/api/v0/searches/fixed-id/responses", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, []map[string]interface{}{
			{"username": "peer1", "files": []map[string]interface{}{
				{"filename": `@@music\Daft Punk\Around the World.flac`, "size": 42000000},
			}},
		})
	})
	c := newTestClient(t, mux)
	ctx := context.Background()

	pending, err := c.Searches(ctx)
	if err != nil || len(pending) != 1 || pending[0].Query != "The Beatles Let It Be" || pending[0].Complete {
		t.Fatalf("Searches = %+v, %v", pending, err)
	}

	sess, err := c.Submit(ctx, "Daft Punk Around the World")
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	if sess.ID != "fixed-id" {
		t.Errorf("unexpected session id %q", sess.ID)
	}

	state, err := c.Search(ctx, sess.ID)
	if err != nil || !state.Complete || state.ResponseCount != 1 {
		t.Fatalf("Search = %+v, %v", state, err)
	}

	responses, err := c.Responses(ctx, sess.ID)
	if err != nil {
		t.Fatalf("Responses failed: %v", err)
	}
	if len(responses) != 1 || responses[0].Peer != "peer1" || len(responses[0].Files) != 1 {
		t.Fatalf("unexpected responses: %+v", responses)
	}
	f := responses[0].Files[0]
	if f.Peer != "peer1" || f.Size != 42000000 {
		t.Errorf("unexpected file: %+v", f)
	}
}

func TestClient_SubmitWithoutID(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/slskd/api/v0/searches", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]interface{}{"searchText": "x"})
	})
	c := newTestClient(t, mux)

	if _, err := c.Submit(context.Background(), "x"); !errors.Is(err, ErrNoSessionID) {
		t.Errorf("expected ErrNoSessionID, got %v", err)
	}
}

func TestClient_EnqueueAndTransfers(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/slskd/api/v0/transfers/downloads/peer1", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		data, _ := io.ReadAll(r.Body)
		var files []map[string]interface{}
		_ = json.Unmarshal(data, &files)
		if len(files) != 1 || files[0]["filename"] != `music\a.flac` {
			t.Errorf("unexpected enqueue body: %s", data)
		}
		w.WriteHeader(http.StatusCreated)
	})
	mux.HandleFunc("/slskd/api/v0/transfers/downloads", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, []map[string]interface{}{
			{"username": "peer1", "directories": []map[string]interface{}{
				{"directory": "music", "files": []map[string]interface{}{
					{"id": "tr-1", "filename": `music\a.flac`, "state": "Completed, Succeeded", "size": 10, "bytesTransferred": 10, "percentComplete": 100},
					{"username": "peer1", "filename": `music\b.flac`, "state": "InProgress", "size": 10},
				}},
			}},
		})
	})
	c := newTestClient(t, mux)
	ctx := context.Background()

	if err := c.Enqueue(ctx, domain.FileCandidate{Peer: "peer1", Filename: `music\a.flac`, Size: 10}); err != nil {
		t.Fatalf("Enqueue failed: %v", err)
	}

	transfers, err := c.Transfers(ctx)
	if err != nil {
		t.Fatalf("Transfers failed: %v", err)
	}
	if len(transfers) != 2 {
		t.Fatalf("expected 2 transfers, got %+v", transfers)
	}
	if transfers[0].Peer != "peer1" || transfers[0].ID != "tr-1" || !transfers[0].Succeeded() {
		t.Errorf("unexpected first transfer: %+v", transfers[0])
	}
	if transfers[1].Terminal() {
		t.Errorf("second transfer should not be terminal: %+v", transfers[1])
	}
}

func TestClient_ErrorStatus(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/slskd/api/v0/application", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusForbidden)
	})
	c := newTestClient(t, mux)

	_, err := c.Status(context.Background())
	var apiErr *Error
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *Error, got %v", err)
	}
	if apiErr.Status != http.StatusForbidden || apiErr.Body != "nope" {
		t.Errorf("unexpected error: %+v", apiErr)
	}
}

func TestClient_RejectsBadKey(t *testing.T) {
	mux := http.NewServeMux()
	c := newTestClient(t, mux)
	c.apiKey = "wrong"

	_, err := c.Searches(context.Background())
	var apiErr *Error
	if !errors.As(err, &apiErr) || apiErr.Status != http.StatusUnauthorized {
		t.Errorf("expected 401 error, got %v", err)
	}
}

func TestBaseName(t *testing.T) {
	tests := map[string]string{
		`@@abc\Music\Artist\01 Song.flac`: "01 Song.flac",
		"music/artist/song.mp3":           "song.mp3",
		"song.mp3":                        "song.mp3",
	}
	for in, want := range tests {
		if got := BaseName(in); got != want {
			t.Errorf("BaseName(%q) = %q, want %q", in, got, want)
		}
	}
}
