package flowstate

import (
	"context"
	"fmt"
	"net/http"
	"sync"
)

// StatusChecker asks the server whether the current credentials still
// hold, typically by hitting the authenticated /me endpoint so an
// expired access credential gets silently renewed in the process.
type StatusChecker interface {
	Check(ctx context.Context) (bool, error)
}

// Session caches the logged-in flag between server round-trips. The
// cache is a render hint only — it avoids a flash of the wrong screen —
// and must never gate an authorization decision. Reconcile is the
// source of truth.
type Session struct {
	mu       sync.Mutex
	loggedIn bool
	checker  StatusChecker
}

func NewSession(checker StatusChecker) *Session {
	return &Session{checker: checker}
}

// Hint returns the cached flag without any server contact.
func (s *Session) Hint() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loggedIn
}

// Reconcile re-derives the real status from the server and overwrites
// the cache. Callers run this on every authenticated-route mount.
func (s *Session) Reconcile(ctx context.Context) (bool, error) {
	ok, err := s.checker.Check(ctx)
	if err != nil {
		return false, err
	}
	s.mu.Lock()
	s.loggedIn = ok
	s.mu.Unlock()
	return ok, nil
}

// HTTPChecker checks status against the API's /me endpoint using the
// client's cookie jar for credentials.
type HTTPChecker struct {
	Client *http.Client
	URL    string
}

func (h HTTPChecker) Check(ctx context.Context) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, h.URL, nil)
	if err != nil {
		return false, err
	}
	resp, err := h.Client.Do(req)
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
		return true, nil
	case resp.StatusCode == http.StatusUnauthorized:
		return false, nil
	default:
		return false, fmt.Errorf("status check: unexpected status %d", resp.StatusCode)
	}
}
