package google

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sync"

	"golang.org/x/oauth2"
)

// tokens is the on-disk OAuth2 token cache for one application identity.
type tokens struct {
	file  string
	guard sync.Mutex
}

type cached struct {
	Scopes []string      `json:"scopes"`
	Token  *oauth2.Token `json:"token"`
}

// load returns the cached token if it was granted for (at least) the requested scopes.
func (t *tokens) load(scopes []string) (*oauth2.Token, error) {
	t.guard.Lock()
	defer t.guard.Unlock()

	b, err := os.ReadFile(t.file)
	if err != nil {
		return nil, err
	}

	var c cached
	if err := json.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("invalid token cache %v (%v)", t.file, err)
	}

	if c.Token == nil {
		return nil, fmt.Errorf("token cache %v has no token", t.file)
	}

	for _, scope := range scopes {
		if !slices.Contains(c.Scopes, scope) {
			return nil, fmt.Errorf("cached token not authorised for scope %v", scope)
		}
	}

	if c.Token.RefreshToken == "" && !c.Token.Valid() {
		return nil, fmt.Errorf("cached token expired")
	}

	return c.Token, nil
}

func (t *tokens) save(scopes []string, token *oauth2.Token) error {
	t.guard.Lock()
	defer t.guard.Unlock()

	if err := os.MkdirAll(filepath.Dir(t.file), 0700); err != nil {
		return err
	}

	b, err := json.MarshalIndent(cached{Scopes: scopes, Token: token}, "", "  ")
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(t.file), ".tokens-*")
	if err != nil {
		return err
	}

	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(b); err != nil {
		tmp.Close()
		return err
	}

	if err := tmp.Close(); err != nil {
		return err
	}

	debugf("saving OAuth2 token to %v", t.file)

	return os.Rename(tmp.Name(), t.file)
}

// cachingTokenSource writes refreshed tokens back to the token cache.
type cachingTokenSource struct {
	cache  *tokens
	scopes []string
	source oauth2.TokenSource
	guard  sync.Mutex
	last   *oauth2.Token
}

func (s *cachingTokenSource) Token() (*oauth2.Token, error) {
	token, err := s.source.Token()
	if err != nil {
		return nil, err
	}

	s.guard.Lock()
	defer s.guard.Unlock()

	if s.last == nil || s.last.AccessToken != token.AccessToken {
		if err := s.cache.save(s.scopes, token); err != nil {
			warnf("unable to update cached OAuth2 token (%v)", err)
		}

		s.last = token
	}

	return token, nil
}
