package studentdata

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"fduassist-backend/lib/gradestore"
	"fduassist-backend/lib/scrapers/jwfw"
	"fduassist-backend/lib/scrapers/myfdu"
	"fduassist-backend/lib/scrapers/uis"
	"fduassist-backend/lib/scrapers/zlapp"
	"fduassist-backend/lib/telemetry"
	"fduassist-backend/lib/timezone"

	"github.com/stretchr/testify/require"

	_ "modernc.org/sqlite"
)

const gpaTablePage = `<html><body><table><tbody>
<tr><td>*张*</td><td>2021</td><td>经济学院</td><td>经济学</td><td>2021</td><td>3.72</td><td>124</td></tr>
<tr><td>王小明</td><td>2021</td><td>经济学院</td><td>经济学</td><td>2021</td><td>3.61</td><td>122</td></tr>
</tbody></table></body></html>`

const gradeTablePage = `<html><body><table><tbody>
<tr><td>ECON130003</td><td>2023-2024</td><td>1</td><td>国际金融</td><td>3</td><td>A-</td></tr>
<tr><td>PEDU110001</td><td>2023-2024</td><td>1</td><td>体育</td><td>1</td><td>P</td></tr>
<tr><td>MATH120017</td><td>2023-2024</td><td>1</td><td>线性代数</td><td>3</td><td>A</td></tr>
</tbody></table></body></html>`

func newTestService(t *testing.T, mux *http.ServeMux) Service {
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	sqlite, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	_, err = sqlite.Exec(gradestore.Schema)
	require.NoError(t, err)

	session, err := uis.NewSession(uis.Options{})
	require.NoError(t, err)

	return NewService(session, gradestore.NewStore(sqlite), Options{
		Jwfw:  jwfw.Options{BaseURL: srv.URL},
		Myfdu: myfdu.Options{BaseURL: srv.URL},
		Zlapp: zlapp.Options{BaseURL: srv.URL},
	})
}

func TestGetGPAPrefersRankingTable(t *testing.T) {
	cleanup := telemetry.SetupForTesting(t, "test:services/studentdata")
	defer cleanup()

	mux := http.NewServeMux()
	mux.HandleFunc("/myActualGpa!search.action", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, gpaTablePage)
	})
	mux.HandleFunc("/list/bks_xx_cj", func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("transcript must not be fetched when the ranking table works")
	})

	service := newTestService(t, mux)
	summary, err := service.GetGPA(context.Background())
	require.NoError(t, err)
	require.Equal(t, "经济学", summary.Major)
	require.Equal(t, 3.61, summary.GPA)
	require.Equal(t, 2, summary.Ranking)
	require.Equal(t, 2, summary.Total)
}

func TestGetGPAFallsBackToTranscript(t *testing.T) {
	cleanup := telemetry.SetupForTesting(t, "test:services/studentdata")
	defer cleanup()

	mux := http.NewServeMux()
	// every row anonymized, the own row cannot be identified
	mux.HandleFunc("/myActualGpa!search.action", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><body><table><tbody>
<tr><td>*张*</td><td>2021</td><td>经济学院</td><td>经济学</td><td>2021</td><td>3.72</td><td>124</td></tr>
</tbody></table></body></html>`)
	})
	mux.HandleFunc("/list/bks_xx_cj", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, gradeTablePage)
	})

	service := newTestService(t, mux)
	summary, err := service.GetGPA(context.Background())
	require.NoError(t, err)

	// must equal the transcript computation, pass/fail rows excluded
	require.InDelta(t, (3.7*3+4.0*3)/6.0, summary.GPA, 1e-9)
	require.Equal(t, 6.0, summary.Credits)
	require.Zero(t, summary.Ranking)
	require.Empty(t, summary.Major)
}

func TestGetGPABothSourcesDown(t *testing.T) {
	cleanup := telemetry.SetupForTesting(t, "test:services/studentdata")
	defer cleanup()

	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "maintenance window", http.StatusBadGateway)
	})

	service := newTestService(t, mux)
	summary, err := service.GetGPA(context.Background())
	require.NoError(t, err)
	require.Equal(t, jwfw.GPA{}, summary)
}

func TestSnapshotGPA(t *testing.T) {
	cleanup := telemetry.SetupForTesting(t, "test:services/studentdata")
	defer cleanup()

	mux := http.NewServeMux()
	mux.HandleFunc("/myActualGpa!search.action", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, gpaTablePage)
	})

	service := newTestService(t, mux)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second*30)
	defer cancel()

	summary, err := service.SnapshotGPA(ctx, "23307110001")
	require.NoError(t, err)
	require.Equal(t, 3.61, summary.GPA)

	history, err := service.GPAHistory(ctx, "23307110001")
	require.NoError(t, err)
	require.Len(t, history, 1)
	require.Equal(t, 3.61, history[0].GPA)
	require.Equal(t, "经济学", history[0].Major)
}

func TestHasCheckedInToday(t *testing.T) {
	cleanup := telemetry.SetupForTesting(t, "test:services/studentdata")
	defer cleanup()

	mux := http.NewServeMux()
	mux.HandleFunc("/ncov/wap/fudan/get-info", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `{"d":{"info":{"date":"%s"}}}`, timezone.Today(timezone.Now()))
	})

	service := newTestService(t, mux)
	checked, err := service.HasCheckedInToday(context.Background())
	require.NoError(t, err)
	require.True(t, checked)
}
