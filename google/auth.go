package google

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/net/context"
	"golang.org/x/oauth2"
	oauth2google "golang.org/x/oauth2/google"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/option"
	"google.golang.org/api/script/v1"
)

// SCOPES are the permissions required by the export script: read/write access to Drive for
// the intermediate folder and archive, and to Sheets for the spreadsheet itself.
var SCOPES = []string{
	drive.DriveScope,
	script.SpreadsheetsScope,
}

// Credential is an authorised OAuth2 token source. It is created once per run and passed
// explicitly to the services that need it.
type Credential struct {
	Scopes []string
	source oauth2.TokenSource
}

func (c *Credential) Token() (*oauth2.Token, error) {
	return c.source.Token()
}

// Options returns the client options for a Google API service authorised with this credential.
func (c *Credential) Options() []option.ClientOption {
	return []option.ClientOption{
		option.WithTokenSource(c.source),
	}
}

// ConsentFunc obtains a new token from the user for the OAuth2 configuration.
type ConsentFunc func(ctx context.Context, config *oauth2.Config) (*oauth2.Token, error)

type Authorizer struct {
	Credentials string // client secrets file
	Workdir     string // token cache directory
	Consent     ConsentFunc
	Browser     func(url string) error
}

// Authorize is a convenience wrapper around an Authorizer using the interactive loopback
// consent flow.
func Authorize(ctx context.Context, credentials, workdir string, scopes ...string) (*Credential, error) {
	a := Authorizer{
		Credentials: credentials,
		Workdir:     workdir,
	}

	return a.Authorize(ctx, scopes...)
}

// Authorize returns a credential for the requested scopes, reusing the cached token when it
// covers them and running the consent flow otherwise. Cancelling ctx aborts the consent flow.
func (a Authorizer) Authorize(ctx context.Context, scopes ...string) (*Credential, error) {
	if len(scopes) == 0 {
		return nil, fmt.Errorf("%w: no scopes requested", ErrAuth)
	}

	config, err := a.config(scopes...)
	if err != nil {
		return nil, err
	}

	cache := tokens{
		file: a.tokens(),
	}

	token, err := cache.load(scopes)
	if err != nil {
		debugf("no cached token (%v)", err)

		if token, err = a.consent(ctx, config); err != nil {
			return nil, err
		} else if err := cache.save(scopes, token); err != nil {
			warnf("unable to cache OAuth2 token (%v)", err)
		}
	}

	return &Credential{
		Scopes: scopes,
		source: &cachingTokenSource{
			cache:  &cache,
			scopes: scopes,
			last:   token,
			source: config.TokenSource(context.Background(), token),
		},
	}, nil
}

// Reauthorize discards any cached token and runs the consent flow.
func (a Authorizer) Reauthorize(ctx context.Context, scopes ...string) (*Credential, error) {
	if err := os.Remove(a.tokens()); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("%w: unable to remove cached token (%v)", ErrAuth, err)
	}

	return a.Authorize(ctx, scopes...)
}

func (a Authorizer) config(scopes ...string) (*oauth2.Config, error) {
	b, err := os.ReadFile(a.Credentials)
	if err != nil {
		return nil, fmt.Errorf("%w: unable to read credentials (%v)", ErrAuth, err)
	}

	config, err := oauth2google.ConfigFromJSON(b, scopes...)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid credentials file %v (%v)", ErrAuth, a.Credentials, err)
	}

	return config, nil
}

// tokens returns the token cache file for the application identified by the credentials file,
// e.g. <workdir>/.google/credentials.tokens.
func (a Authorizer) tokens() string {
	_, file := filepath.Split(a.Credentials)
	name := strings.TrimSuffix(file, filepath.Ext(file))

	return filepath.Join(a.Workdir, ".google", fmt.Sprintf("%s.tokens", name))
}

func (a Authorizer) consent(ctx context.Context, config *oauth2.Config) (*oauth2.Token, error) {
	if a.Consent != nil {
		token, err := a.Consent(ctx, config)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrAuth, err)
		}

		return token, nil
	}

	return loopback(ctx, config, a.Browser)
}

// loopback runs the OAuth2 consent flow with a redirect to a temporary HTTP server on
// localhost and waits for the authorisation code (or for ctx to be cancelled).
func loopback(ctx context.Context, config *oauth2.Config, browser func(string) error) (*oauth2.Token, error) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return nil, fmt.Errorf("%w: unable to start authorisation listener (%v)", ErrAuth, err)
	}

	state, err := nonce()
	if err != nil {
		listener.Close()
		return nil, fmt.Errorf("%w: %v", ErrAuth, err)
	}

	cfg := *config
	cfg.RedirectURL = fmt.Sprintf("http://%v", listener.Addr())

	authorised := make(chan string, 1)
	rejected := make(chan string, 1)

	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, rq *http.Request) {
		if rq.FormValue("state") != state {
			http.Error(w, "Invalid authorisation state", http.StatusBadRequest)
			return
		}

		if reason := rq.FormValue("error"); reason != "" {
			fmt.Fprintf(w, "Authorisation declined (%v)\n", reason)
			select {
			case rejected <- reason:
			default:
			}
			return
		}

		if code := rq.FormValue("code"); code != "" {
			fmt.Fprintln(w, "Authorised - you can close this window")
			select {
			case authorised <- code:
			default:
			}
			return
		}

		http.Error(w, "Missing authorisation code", http.StatusBadRequest)
	})

	srv := &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		if err := srv.Serve(listener); err != nil && err != http.ErrServerClosed {
			warnf("authorisation listener (%v)", err)
		}
	}()

	defer func() {
		if err := srv.Shutdown(context.Background()); err != nil {
			warnf("%v", err)
		}
	}()

	url := cfg.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.ApprovalForce)

	fmt.Println()
	fmt.Println("  Open the following link in your browser to authorise access to Google Drive and Sheets:")
	fmt.Println()
	fmt.Printf("    %v\n", url)
	fmt.Println()

	if browser != nil {
		if err := browser(url); err != nil {
			debugf("could not open authorisation page in browser (%v)", err)
		}
	}

	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%w: authorisation cancelled (%v)", ErrAuth, ctx.Err())

	case reason := <-rejected:
		return nil, fmt.Errorf("%w: authorisation declined (%v)", ErrAuth, reason)

	case code := <-authorised:
		token, err := cfg.Exchange(ctx, code)
		if err != nil {
			return nil, fmt.Errorf("%w: unable to retrieve token (%v)", ErrAuth, err)
		}

		return token, nil
	}
}

func nonce() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}

	return hex.EncodeToString(b), nil
}
