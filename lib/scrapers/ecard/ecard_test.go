package ecard

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"fduassist-backend/lib/scrapers/uis"
	"fduassist-backend/lib/telemetry"

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

func TestGetPaymentQRCode(t *testing.T) {
	cleanup := telemetry.SetupForTesting(t, "test:scrapers/ecard")
	defer cleanup()

	client := newTestClient(t, `<html><body>
		<input id="myText" type="hidden" value="9000123456789" />
	</body></html>`)

	code, err := client.GetPaymentQRCode(context.Background())
	require.NoError(t, err)
	require.Equal(t, "9000123456789", code)
}

func TestGetPaymentQRCodeMissing(t *testing.T) {
	cleanup := telemetry.SetupForTesting(t, "test:scrapers/ecard")
	defer cleanup()

	client := newTestClient(t, `<html><body>nothing here</body></html>`)
	_, err := client.GetPaymentQRCode(context.Background())
	require.Error(t, err)
}
