package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"sync"

	"github.com/zmb3/spotify/v2"
	spotifyauth "github.com/zmb3/spotify/v2/auth"
	"golang.org/x/oauth2"

	"github.com/cesargomez89/slskdsync/internal/constants"
	"github.com/cesargomez89/slskdsync/internal/logger"
	"github.com/cesargomez89/slskdsync/internal/store"
)

// ErrNotAuthorized means no Spotify token has been stored yet.
var ErrNotAuthorized = errors.New("spotify not authorized, run the auth command")

// TokenStore persists string settings. store.Settings satisfies it.
type TokenStore interface {
	Get(key string) (string, error)
	Set(key, value string) error
}

// Auth runs the authorization-code flow and hands out API clients backed by
// the stored token.
type Auth struct {
	auth   *spotifyauth.Authenticator
	conf   *oauth2.Config
	tokens TokenStore
	logger *logger.Logger
}

func NewAuth(clientID, clientSecret, redirectURL string, tokens TokenStore, log *logger.Logger) *Auth {
	scopes := []string{spotifyauth.ScopeUserLibraryRead}
	return &Auth{
		auth: spotifyauth.New(
			spotifyauth.WithClientID(clientID),
			spotifyauth.WithClientSecret(clientSecret),
			spotifyauth.WithRedirectURL(redirectURL),
			spotifyauth.WithScopes(scopes...),
		),
		conf: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURL,
			Scopes:       scopes,
			Endpoint: oauth2.Endpoint{
				AuthURL:  spotifyauth.AuthURL,
				TokenURL: spotifyauth.TokenURL,
			},
		},
		tokens: tokens,
		logger: log.WithComponent("spotify-auth"),
	}
}

// AuthURL is the consent page the user has to visit.
func (a *Auth) AuthURL() string {
	return a.auth.AuthURL(constants.SpotifyAuthState)
}

// LoadToken returns the stored token or ErrNotAuthorized.
func (a *Auth) LoadToken() (*oauth2.Token, error) {
	raw, err := a.tokens.Get(store.SettingSpotifyToken)
	if err != nil {
		return nil, fmt.Errorf("failed to read token: %w", err)
	}
	if raw == "" {
		return nil, ErrNotAuthorized
	}
	var tok oauth2.Token
	if err := json.Unmarshal([]byte(raw), &tok); err != nil {
		return nil, fmt.Errorf("failed to decode stored token: %w", err)
	}
	return &tok, nil
}

func (a *Auth) SaveToken(tok *oauth2.Token) error {
	data, err := json.Marshal(tok)
	if err != nil {
		return err
	}
	return a.tokens.Set(store.SettingSpotifyToken, string(data))
}

// Client returns an API client using the stored token. Refreshed tokens
// are written back to the store.
func (a *Auth) Client(ctx context.Context) (*spotify.Client, error) {
	tok, err := a.LoadToken()
	if err != nil {
		return nil, err
	}
	src := &savingSource{
		base:   oauth2.ReuseTokenSource(tok, a.conf.TokenSource(ctx, tok)),
		save:   a.SaveToken,
		last:   tok.AccessToken,
		logger: a.logger,
	}
	return spotify.New(oauth2.NewClient(ctx, src), spotify.WithRetry(true)), nil
}

// Login serves the redirect URL until the consent callback arrives, then
// stores the token. open receives the consent URL to show the user.
func (a *Auth) Login(ctx context.Context, open func(authURL string)) error {
	u, err := url.Parse(a.conf.RedirectURL)
	if err != nil {
		return fmt.Errorf("invalid redirect url: %w", err)
	}

	ln, err := net.Listen("tcp", u.Host)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", u.Host, err)
	}

	results := make(chan error, 1)
	mux := http.NewServeMux()
	mux.HandleFunc(u.Path, a.callback(results))
	srv := &http.Server{Handler: mux}
	go func() { _ = srv.Serve(ln) }()
	defer srv.Close()

	open(a.AuthURL())
	a.logger.Info("Waiting for Spotify consent", "redirect", a.conf.RedirectURL)

	select {
	case <-ctx.Done():
		return ctx.Err()
	case err := <-results:
		return err
	}
}

func (a *Auth) callback(results chan<- error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tok, err := a.auth.Token(r.Context(), constants.SpotifyAuthState, r)
		if err == nil {
			err = a.SaveToken(tok)
		}
		if err != nil {
			http.Error(w, "authorization failed", http.StatusForbidden)
		} else {
			fmt.Fprintln(w, "Authorized. You can close this window.")
		}
		select {
		case results <- err:
		default:
		}
	}
}

type savingSource struct {
	mu     sync.Mutex
	base   oauth2.TokenSource
	save   func(*oauth2.Token) error
	last   string
	logger *logger.Logger
}

func (s *savingSource) Token() (*oauth2.Token, error) {
	tok, err := s.base.Token()
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if tok.AccessToken != s.last {
		s.last = tok.AccessToken
		if err := s.save(tok); err != nil {
			s.logger.Warn("Failed to persist refreshed token", "error", err)
		}
	}
	return tok, nil
}
