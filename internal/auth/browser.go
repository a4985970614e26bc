// Package auth provides authentication management for the Hatch CLI.
//
// This file implements browser-based login using a local callback server
// pattern. The CLI starts a temporary HTTP server, opens the browser to
// the app's CLI-auth page, and waits for the callback with the API key.
package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"html"
	"net"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/hatch-dev/cli/internal/ui"
)

const (
	// DefaultAuthTimeout is the maximum time to wait for browser authentication.
	DefaultAuthTimeout = 5 * time.Minute

	// stateTokenLength is the length of the random state token in bytes.
	stateTokenLength = 32
)

// BrowserAuthResult contains the result of browser-based authentication.
type BrowserAuthResult struct {
	// Token is the API key received from the auth callback.
	Token string

	// Email is the user's email address (optional).
	Email string

	// UserID is the user's ID (optional).
	UserID string

	// Error contains any error message from the auth flow.
	Error string
}

// BrowserAuthConfig contains configuration for browser-based authentication.
type BrowserAuthConfig struct {
	// AppURL is the base URL of the web app (e.g., https://app.hatch.dev).
	AppURL string

	// Timeout is the maximum time to wait for authentication.
	// Defaults to DefaultAuthTimeout if zero.
	Timeout time.Duration
}

// BrowserAuth handles browser-based login.
type BrowserAuth struct {
	config BrowserAuthConfig
}

// NewBrowserAuth creates a new browser authentication handler.
func NewBrowserAuth(config BrowserAuthConfig) *BrowserAuth {
	if config.Timeout == 0 {
		config.Timeout = DefaultAuthTimeout
	}
	return &BrowserAuth{config: config}
}

// generateStateToken creates a cryptographically secure random state token.
func generateStateToken() (string, error) {
	bytes := make([]byte, stateTokenLength)
	if _, err := rand.Read(bytes); err != nil {
		return "", fmt.Errorf("failed to generate state token: %w", err)
	}
	return hex.EncodeToString(bytes), nil
}

// findAvailablePort binds a listener on an OS-assigned port and returns it.
// The caller owns the listener; binding up front avoids a race where another
// process claims the port between discovery and server start.
func findAvailablePort() (net.Listener, int, error) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return nil, 0, fmt.Errorf("failed to find available port: %w", err)
	}

	addr := listener.Addr().(*net.TCPAddr)
	return listener, addr.Port, nil
}

// Authenticate performs browser-based authentication.
//
// It starts a local HTTP server on a random port, opens the browser to the
// app's CLI-auth page with the port and a CSRF state token, then waits for
// the callback carrying the API key.
func (b *BrowserAuth) Authenticate(ctx context.Context) (*BrowserAuthResult, error) {
	state, err := generateStateToken()
	if err != nil {
		return nil, err
	}

	listener, port, err := findAvailablePort()
	if err != nil {
		return nil, err
	}

	resultCh := make(chan *BrowserAuthResult, 1)
	errCh := make(chan error, 1)

	server := &callbackServer{
		port:     port,
		state:    state,
		listener: listener,
		resultCh: resultCh,
		errCh:    errCh,
	}

	if err := server.Start(); err != nil {
		listener.Close()
		return nil, fmt.Errorf("failed to start callback server: %w", err)
	}
	defer server.Stop()

	authURL := b.GetAuthURL(port, state)
	if authURL == "" {
		return nil, fmt.Errorf("invalid app URL: %s", b.config.AppURL)
	}

	if err := ui.OpenBrowser(authURL); err != nil {
		return nil, fmt.Errorf("failed to open browser: %w", err)
	}

	timeoutCtx, cancel := context.WithTimeout(ctx, b.config.Timeout)
	defer cancel()

	select {
	case result := <-resultCh:
		if result.Error != "" {
			return nil, fmt.Errorf("authentication failed: %s", result.Error)
		}
		return result, nil
	case err := <-errCh:
		return nil, err
	case <-timeoutCtx.Done():
		if errors.Is(timeoutCtx.Err(), context.DeadlineExceeded) {
			return nil, fmt.Errorf("authentication timed out after %v", b.config.Timeout)
		}
		return nil, timeoutCtx.Err()
	}
}

// GetAuthURL returns the URL that would be opened for authentication.
// Useful for displaying to users who need to manually open the URL.
func (b *BrowserAuth) GetAuthURL(port int, state string) string {
	authURL, err := url.Parse(b.config.AppURL)
	if err != nil || authURL == nil {
		return ""
	}
	authURL.Path = "/cli/auth"
	query := authURL.Query()
	query.Set("port", fmt.Sprintf("%d", port))
	query.Set("state", state)
	authURL.RawQuery = query.Encode()
	return authURL.String()
}

// callbackServer is a temporary HTTP server that handles the auth callback.
type callbackServer struct {
	port     int
	state    string
	listener net.Listener
	resultCh chan *BrowserAuthResult
	errCh    chan error
	server   *http.Server
	wg       sync.WaitGroup
}

// Start starts the callback server using the pre-bound listener.
func (s *callbackServer) Start() error {
	if s.listener == nil {
		return fmt.Errorf("listener not set: use findAvailablePort() to get a listener")
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/callback", s.handleCallback)

	s.server = &http.Server{
		Addr:    fmt.Sprintf("127.0.0.1:%d", s.port),
		Handler: mux,
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if err := s.server.Serve(s.listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.errCh <- fmt.Errorf("server error: %w", err)
		}
	}()

	return nil
}

// Stop gracefully stops the callback server.
func (s *callbackServer) Stop() {
	if s.server != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(ctx)
		s.wg.Wait()
	}
}

// handleCallback handles the auth callback request.
func (s *callbackServer) handleCallback(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	receivedState := query.Get("state")
	if receivedState != s.state {
		s.sendErrorResponse(w, "Invalid state parameter")
		s.resultCh <- &BrowserAuthResult{Error: "invalid_state"}
		return
	}

	if errMsg := query.Get("error"); errMsg != "" {
		s.sendErrorResponse(w, fmt.Sprintf("Authentication error: %s", errMsg))
		s.resultCh <- &BrowserAuthResult{Error: errMsg}
		return
	}

	token := query.Get("token")
	if token == "" {
		s.sendErrorResponse(w, "Missing token")
		s.resultCh <- &BrowserAuthResult{Error: "missing_token"}
		return
	}

	result := &BrowserAuthResult{
		Token:  token,
		Email:  query.Get("email"),
		UserID: query.Get("user_id"),
	}

	s.sendSuccessResponse(w)
	s.resultCh <- result
}

// sendSuccessResponse sends an HTML success page to the browser.
func (s *callbackServer) sendSuccessResponse(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`<!DOCTYPE html>
<html>
<head>
    <title>Hatch CLI - Authentication Successful</title>
    <style>
        body {
            font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif;
            display: flex;
            justify-content: center;
            align-items: center;
            min-height: 100vh;
            margin: 0;
            background: #0a0a0a;
        }
        .container {
            background: #0d0d0d;
            border: 1px solid rgba(245, 158, 11, 0.25);
            border-radius: 8px;
            padding: 48px 56px;
            text-align: center;
            max-width: 400px;
        }
        h1 {
            color: #ffffff;
            font-size: 20px;
            margin: 0 0 8px;
            font-weight: 600;
        }
        p {
            color: #888;
            margin: 0;
            font-size: 14px;
            line-height: 1.5;
        }
        .check {
            color: #f59e0b;
            font-size: 32px;
            margin-bottom: 16px;
        }
        .close-hint {
            margin-top: 20px;
            font-size: 13px;
            color: #555;
        }
    </style>
</head>
<body>
    <div class="container">
        <div class="check">&#10003;</div>
        <h1>Authentication Successful</h1>
        <p>You have successfully authenticated with the Hatch CLI.</p>
        <p class="close-hint">You can close this window and return to your terminal.</p>
    </div>
</body>
</html>`))
}

// sendErrorResponse sends an HTML error page to the browser.
// The message is HTML-escaped to prevent XSS attacks.
func (s *callbackServer) sendErrorResponse(w http.ResponseWriter, message string) {
	safeMessage := html.EscapeString(message)

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusBadRequest)
	_, _ = w.Write([]byte(fmt.Sprintf(`<!DOCTYPE html>
<html>
<head>
    <title>Hatch CLI - Authentication Error</title>
    <style>
        body {
            font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif;
            display: flex;
            justify-content: center;
            align-items: center;
            min-height: 100vh;
            margin: 0;
            background: #0a0a0a;
        }
        .container {
            background: #0d0d0d;
            border: 1px solid rgba(239, 68, 68, 0.25);
            border-radius: 8px;
            padding: 48px 56px;
            text-align: center;
            max-width: 400px;
        }
        h1 {
            color: #ffffff;
            font-size: 20px;
            margin: 0 0 8px;
            font-weight: 600;
        }
        p {
            color: #888;
            margin: 0;
            font-size: 14px;
            line-height: 1.5;
        }
        .cross {
            color: #ef4444;
            font-size: 32px;
            margin-bottom: 16px;
        }
        .error-message {
            background: rgba(239, 68, 68, 0.1);
            border: 1px solid rgba(239, 68, 68, 0.2);
            padding: 12px 16px;
            margin-top: 16px;
            color: #f87171;
            font-size: 13px;
            text-align: left;
        }
    </style>
</head>
<body>
    <div class="container">
        <div class="cross">&#10007;</div>
        <h1>Authentication Failed</h1>
        <p>There was a problem authenticating with the Hatch CLI.</p>
        <div class="error-message">%s</div>
    </div>
</body>
</html>`, safeMessage)))
}
