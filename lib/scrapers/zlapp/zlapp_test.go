package zlapp

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"fduassist-backend/lib/scrapers/uis"
	"fduassist-backend/lib/telemetry"
	"fduassist-backend/lib/timezone"

	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, body string) *Client {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, body)
	}))
	t.Cleanup(srv.Close)

	session, err := uis.NewSession(uis.Options{})
	require.NoError(t, err)
	return NewClient(session, Options{BaseURL: srv.URL})
}

func TestHasCheckedInToday(t *testing.T) {
	cleanup := telemetry.SetupForTesting(t, "test:scrapers/zlapp")
	defer cleanup()

	today := timezone.Today(timezone.Now())

	testCases := []struct {
		name     string
		body     string
		expected bool
	}{
		{
			name:     "checked in today",
			body:     fmt.Sprintf(`{"d":{"info":{"date":"%s"}}}`, today),
			expected: true,
		},
		{
			name:     "checked in yesterday",
			body:     `{"d":{"info":{"date":"20200101"}}}`,
			expected: false,
		},
		{
			name:     "missing path",
			body:     `{"e":0,"m":""}`,
			expected: false,
		},
		{
			name:     "malformed json",
			body:     `<html>504 gateway timeout</html>`,
			expected: false,
		},
	}

	for _, test := range testCases {
		t.Run(test.name, func(t *testing.T) {
			client := newTestClient(t, test.body)
			got, err := client.HasCheckedInToday(context.Background())
			require.NoError(t, err)
			require.Equal(t, test.expected, got)
		})
	}
}
