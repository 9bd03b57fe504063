package managers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prodpilot/prodpilot/internal/domain"
	"github.com/prodpilot/prodpilot/internal/vault"
)

const testKeyHex = "000102030405060708090a0b0c0d0e0f101112131415161718191a1b1c1d1e1f"

func newTestVault(t *testing.T) *vault.Store {
	t.Helper()
	cipher, err := vault.NewCipher(testKeyHex)
	require.NoError(t, err)
	return vault.NewStore(cipher)
}

// jiraTokenServer mocks the Atlassian token endpoint with rotating refresh
// tokens: each grant invalidates the presented token and issues the next one.
type jiraTokenServer struct {
	mu      sync.Mutex
	delay   time.Duration
	current string
	serial  int
	granted []string // refresh tokens presented, in order
}

func (s *jiraTokenServer) handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		_ = r.ParseForm()

		// Widen the in-flight window so concurrent callers overlap.
		time.Sleep(s.delay)

		s.mu.Lock()
		defer s.mu.Unlock()

		presented := r.FormValue("refresh_token")
		s.granted = append(s.granted, presented)

		if r.FormValue("grant_type") != "refresh_token" || presented != s.current {
			w.WriteHeader(http.StatusBadRequest)
			_ = json.NewEncoder(w).Encode(map[string]string{"error": "invalid_grant"})
			return
		}

		s.serial++
		s.current = fmt.Sprintf("rt-%d", s.serial)

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"access_token":  fmt.Sprintf("at-%d", s.serial),
			"refresh_token": s.current,
			"token_type":    "Bearer",
			"expires_in":    3600,
		})
	}
}

func newJiraManager(t *testing.T, store *vault.Store, tokenURL string, static bool) *JiraCredentialManager {
	t.Helper()
	cfg := domain.JiraConfig{
		OAuthClientID:     "client-id",
		OAuthClientSecret: "client-secret",
		TokenURL:          tokenURL,
	}
	if static {
		cfg.Email = "pm@acme.dev"
		cfg.APIToken = "api-token"
		cfg.Domain = "acme.atlassian.net"
		cfg.ProjectKey = "PM"
	}
	return NewJiraCredentialManager(JiraCredentialManagerDependencies{Store: store, Config: cfg})
}

func TestJiraResolve_DisabledOverridesEverything(t *testing.T) {
	store := newTestVault(t)
	jar := vault.NewMemoryJar()

	// Valid stored record AND valid static fallback both present.
	require.NoError(t, store.Put(jar, domain.ProviderJira, domain.JiraTokenRecord{RefreshToken: "rt-0", CloudID: "cloud-1", SiteName: "acme"}))
	store.SetDisabled(jar, domain.ProviderJira)

	m := newJiraManager(t, store, "http://unused.invalid", true)
	cred := m.Resolve(context.Background(), jar)

	assert.False(t, cred.Connected())
	assert.Equal(t, domain.CredentialModeNone, cred.Mode())
}

func TestJiraResolve_FallbackOrdering(t *testing.T) {
	store := newTestVault(t)

	// No stored record, static config present.
	m := newJiraManager(t, store, "http://unused.invalid", true)
	cred := m.Resolve(context.Background(), vault.NewMemoryJar())
	require.Equal(t, domain.CredentialModeStatic, cred.Mode())
	assert.True(t, cred.Connected())

	static, ok := cred.(domain.JiraStaticCredential)
	require.True(t, ok)
	assert.Equal(t, "pm@acme.dev", static.Email)
	assert.Equal(t, "PM", static.ProjectKey)

	// Neither stored record nor static config.
	m = newJiraManager(t, store, "http://unused.invalid", false)
	cred = m.Resolve(context.Background(), vault.NewMemoryJar())
	assert.False(t, cred.Connected())
}

func TestJiraResolve_RefreshesAndRotates(t *testing.T) {
	tokens := &jiraTokenServer{current: "rt-0"}
	srv := httptest.NewServer(tokens.handler())
	defer srv.Close()

	store := newTestVault(t)
	jar := vault.NewMemoryJar()
	require.NoError(t, store.Put(jar, domain.ProviderJira, domain.JiraTokenRecord{RefreshToken: "rt-0", CloudID: "cloud-1", SiteName: "acme"}))

	m := newJiraManager(t, store, srv.URL, false)

	// First resolution presents rt-0 and must persist the rotated token.
	cred := m.Resolve(context.Background(), jar)
	oauth, ok := cred.(domain.JiraOAuthCredential)
	require.True(t, ok)
	assert.Equal(t, "at-1", oauth.AccessToken)
	assert.Equal(t, "cloud-1", oauth.CloudID)
	assert.Equal(t, "acme", oauth.SiteName)

	stored, ok := vault.GetRecord[domain.JiraTokenRecord](store, jar, domain.ProviderJira)
	require.True(t, ok)
	assert.Equal(t, "rt-1", stored.RefreshToken, "rotated refresh token must be rewritten to the store")
	assert.Equal(t, "cloud-1", stored.CloudID)

	// Second resolution must present the rotated token, not the spent one.
	cred = m.Resolve(context.Background(), jar)
	oauth, ok = cred.(domain.JiraOAuthCredential)
	require.True(t, ok)
	assert.Equal(t, "at-2", oauth.AccessToken)

	assert.Equal(t, []string{"rt-0", "rt-1"}, tokens.granted)
}

func TestJiraResolve_RefreshFailureDegrades(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":"invalid_grant"}`))
	}))
	defer srv.Close()

	store := newTestVault(t)
	jar := vault.NewMemoryJar()
	require.NoError(t, store.Put(jar, domain.ProviderJira, domain.JiraTokenRecord{RefreshToken: "rt-0", CloudID: "cloud-1", SiteName: "acme"}))

	m := newJiraManager(t, store, srv.URL, false)
	cred := m.Resolve(context.Background(), jar)

	// Still reports connected so the UI doesn't flicker, but carries no
	// bearer token; request building must then refuse it.
	require.True(t, cred.Connected())
	oauth, ok := cred.(domain.JiraOAuthCredential)
	require.True(t, ok)
	assert.Empty(t, oauth.AccessToken)
	assert.Equal(t, "acme", oauth.SiteName)

	_, err := BuildJiraRequest(cred, "/issue")
	assert.ErrorIs(t, err, domain.ErrNotConnected)

	// The spent token must not have been overwritten with garbage.
	stored, ok := vault.GetRecord[domain.JiraTokenRecord](store, jar, domain.ProviderJira)
	require.True(t, ok)
	assert.Equal(t, "rt-0", stored.RefreshToken)
}

func TestJiraResolve_ConcurrentRefreshesSingleFlight(t *testing.T) {
	tokens := &jiraTokenServer{current: "rt-0", delay: 100 * time.Millisecond}
	srv := httptest.NewServer(tokens.handler())
	defer srv.Close()

	store := newTestVault(t)
	jar := vault.NewMemoryJar()
	require.NoError(t, store.Put(jar, domain.ProviderJira, domain.JiraTokenRecord{RefreshToken: "rt-0", CloudID: "cloud-1", SiteName: "acme"}))

	m := newJiraManager(t, store, srv.URL, false)

	// The stored record is read up front so every goroutine presents the
	// same refresh token, as concurrent requests from one browser would.
	record, ok := vault.GetRecord[domain.JiraTokenRecord](store, jar, domain.ProviderJira)
	require.True(t, ok)

	const n = 8
	var wg sync.WaitGroup
	results := make([]string, n)
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			token, err := m.refreshAndPersist(context.Background(), jar, *record)
			if err != nil {
				errs[i] = err
				return
			}
			results[i] = token.AccessToken
		}(i)
	}
	wg.Wait()

	// All callers share one grant; a single-use token was presented once.
	assert.Equal(t, []string{"rt-0"}, tokens.granted)
	for i := 0; i < n; i++ {
		require.NoError(t, errs[i])
		assert.Equal(t, "at-1", results[i])
	}
}
