package slskd

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/cesargomez89/slskdsync/internal/domain"
)

type applicationState struct {
	Version struct {
		Full    string `json:"full"`
		Current string `json:"current"`
	} `json:"version"`
	Server struct {
		IsConnected bool `json:"isConnected"`
		IsLoggedIn  bool `json:"isLoggedIn"`
	} `json:"server"`
}

type search struct {
	ID            string `json:"id"`
	SearchText    string `json:"searchText"`
	State         string `json:"state"`
	IsComplete    bool   `json:"isComplete"`
	FileCount     int    `json:"fileCount"`
	ResponseCount int    `json:"responseCount"`
}

func (s search) toDomain() domain.SearchSession {
	return domain.SearchSession{
		ID:            s.ID,
		Query:         s.SearchText,
		State:         s.State,
		Complete:      s.IsComplete,
		FileCount:     s.FileCount,
		ResponseCount: s.ResponseCount,
	}
}

type searchFile struct {
	Filename string `json:"filename"`
	Size     int64  `json:"size"`
}

type searchResponse struct {
	Username string       `json:"username"`
	Files    []searchFile `json:"files"`
}

type transferFile struct {
	ID               string  `json:"id"`
	Username         string  `json:"username"`
	Filename         string  `json:"filename"`
	State            string  `json:"state"`
	Size             int64   `json:"size"`
	BytesTransferred int64   `json:"bytesTransferred"`
	PercentComplete  float64 `json:"percentComplete"`
}

type transferUser struct {
	Username    string `json:"username"`
	Directories []struct {
		Directory string         `json:"directory"`
		Files     []transferFile `json:"files"`
	} `json:"directories"`
}

// Status reports the daemon version and connection state.
func (c *Client) Status(ctx context.Context) (domain.ServiceStatus, error) {
	var st applicationState
	if err := c.do(ctx, "status", http.MethodGet, "/application", nil, &st); err != nil {
		return domain.ServiceStatus{}, err
	}
	version := st.Version.Full
	if version == "" {
		version = st.Version.Current
	}
	return domain.ServiceStatus{
		Version:   version,
		Connected: st.Server.IsConnected,
		LoggedIn:  st.Server.IsLoggedIn,
	}, nil
}

// Searches lists the searches slskd currently holds.
func (c *Client) Searches(ctx context.Context) ([]domain.SearchSession, error) {
	var raw []search
	if err := c.do(ctx, "list searches", http.MethodGet, "/searches", nil, &raw); err != nil {
		return nil, err
	}
	out := make([]domain.SearchSession, 0, len(raw))
	for _, s := range raw {
		out = append(out, s.toDomain())
	}
	return out, nil
}

// Submit starts a new search for query.
func (c *Client) Submit(ctx context.Context, query string) (domain.SearchSession, error) {
	req := struct {
		ID         string `json:"id"`
		SearchText string `json:"searchText"`
	}{ID: c.newID(), SearchText: query}

	var s search
	if err := c.do(ctx, "submit search", http.MethodPost, "/searches", req, &s); err != nil {
		return domain.SearchSession{}, err
	}
	if s.ID == "" {
		return domain.SearchSession{}, ErrNoSessionID
	}
	return s.toDomain(), nil
}

// Search fetches the current state of one search.
func (c *Client) Search(ctx context.Context, id string) (domain.SearchSession, error) {
	var s search
	path := "/searches/" + url.PathEscape(id) + "?includeResponses=false"
	if err := c.do(ctx, "get search", http.MethodGet, path, nil, &s); err != nil {
		return domain.SearchSession{}, err
	}
	return s.toDomain(), nil
}

// Responses returns every peer response collected for a search so far.
func (c *Client) Responses(ctx context.Context, id string) ([]domain.SearchResponse, error) {
	var raw []searchResponse
	path := "/searches/" + url.PathEscape(id) + "/responses"
	if err := c.do(ctx, "search responses", http.MethodGet, path, nil, &raw); err != nil {
		return nil, err
	}
	out := make([]domain.SearchResponse, 0, len(raw))
	for _, r := range raw {
		resp := domain.SearchResponse{Peer: r.Username, Files: make([]domain.FileCandidate, 0, len(r.Files))}
		for _, f := range r.Files {
			resp.Files = append(resp.Files, domain.FileCandidate{Filename: f.Filename, Size: f.Size, Peer: r.Username})
		}
		out = append(out, resp)
	}
	return out, nil
}

// Enqueue asks slskd to download file from its peer.
func (c *Client) Enqueue(ctx context.Context, file domain.FileCandidate) error {
	body := []searchFile{{Filename: file.Filename, Size: file.Size}}
	path := "/transfers/downloads/" + url.PathEscape(file.Peer)
	return c.do(ctx, "enqueue download", http.MethodPost, path, body, nil)
}

// Transfers lists every download slskd knows about, flattened.
func (c *Client) Transfers(ctx context.Context) ([]domain.Transfer, error) {
	var users []transferUser
	if err := c.do(ctx, "list downloads", http.MethodGet, "/transfers/downloads", nil, &users); err != nil {
		return nil, err
	}
	var out []domain.Transfer
	for _, u := range users {
		for _, d := range u.Directories {
			for _, f := range d.Files {
				peer := f.Username
				if peer == "" {
					peer = u.Username
				}
				out = append(out, domain.Transfer{
					ID:               f.ID,
					Peer:             peer,
					Filename:         f.Filename,
					State:            f.State,
					Size:             f.Size,
					BytesTransferred: f.BytesTransferred,
					PercentComplete:  f.PercentComplete,
				})
			}
		}
	}
	return out, nil
}

// BaseName returns the last path element of a peer filename, which may use
// either slash style.
func BaseName(filename string) string {
	if i := strings.LastIndexAny(filename, `/\`); i >= 0 {
		return filename[i+1:]
	}
	return filename
}
