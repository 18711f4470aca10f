package sessioncache

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"fduassist-backend/lib/keychain"
	"fduassist-backend/lib/scrapers/uis"
	"fduassist-backend/lib/telemetry"

	"github.com/stretchr/testify/require"

	_ "modernc.org/sqlite"
)

func newTestKeychain(t *testing.T) keychain.Store {
	sqlite, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	_, err = sqlite.Exec(keychain.Schema)
	require.NoError(t, err)
	return keychain.NewStore(sqlite)
}

func TestGetReusesSession(t *testing.T) {
	cleanup := telemetry.SetupForTesting(t, "test:sessioncache")
	defer cleanup()

	var logins int
	mux := http.NewServeMux()
	mux.HandleFunc("/login", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			fmt.Fprint(w, "<html><body><form></form></body></html>")
			return
		}
		logins++
		http.Redirect(w, r, "/index.do", http.StatusFound)
	})
	mux.HandleFunc("/index.do", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "landing")
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second*30)
	defer cancel()

	kc := newTestKeychain(t)
	err := kc.Set(ctx, Namespace, "23307110001", keychain.Key{
		Username: "23307110001",
		Password: "hunter2",
	})
	require.NoError(t, err)

	cache := New(kc, uis.Options{
		LoginURL:        srv.URL + "/login",
		LoginSuccessURL: srv.URL + "/index.do",
	})

	first, err := cache.Get(ctx, "23307110001")
	require.NoError(t, err)
	require.Equal(t, uis.StateAuthenticated, first.State())
	require.Equal(t, 1, logins)

	second, err := cache.Get(ctx, "23307110001")
	require.NoError(t, err)
	require.Same(t, first, second)
	require.Equal(t, 1, logins)

	cache.Evict("23307110001")
	third, err := cache.Get(ctx, "23307110001")
	require.NoError(t, err)
	require.NotSame(t, first, third)
	require.Equal(t, 2, logins)
}

func TestGetUnknownStudent(t *testing.T) {
	cleanup := telemetry.SetupForTesting(t, "test:sessioncache")
	defer cleanup()

	cache := New(newTestKeychain(t), uis.Options{})
	_, err := cache.Get(context.Background(), "nobody")
	require.Error(t, err)
}
