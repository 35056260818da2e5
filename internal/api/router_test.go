package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"OwaraiArchive/internal/identity"
	"OwaraiArchive/internal/service"
	"OwaraiArchive/internal/store"
	"OwaraiArchive/internal/utils/csvutil"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

var seed = map[string]string{
	"competitions.csv": "key,name,sort_order\nm1,M-1グランプリ,1\n",
	"editions.csv":     "comp,year,title,seq_no\nm1,2019,M-1グランプリ2019,15\n",
	"comedians.csv":    "name,note,reading\nミルクボーイ,,みるくぼーい\n",
	"final_results.csv": "comp,year,comedian_name,rank,first_order\n" +
		"m1,2019,ミルクボーイ,優勝,5\n",
	"edition_judges.csv": "comp,year,seat_no,judge_name\nm1,2019,1,松本人志\n",
	"judge_scores.csv":   "comp,year,round_no,seat_no,comedian_name,score\nm1,2019,1,1,ミルクボーイ,97\n",
}

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	dir := t.TempDir()
	seedDir := filepath.Join(dir, "seed")
	require.NoError(t, os.MkdirAll(seedDir, 0o755))
	for name, body := range seed {
		require.NoError(t, os.WriteFile(filepath.Join(seedDir, name), []byte(body), 0o644))
	}

	log := logrus.New()
	log.SetOutput(io.Discard)
	dbPath := filepath.Join(dir, "awards.sqlite")
	loader := service.NewLoader(csvutil.DirSource{Dir: seedDir}, store.NewPublisher(dbPath, "", log), log, service.LoaderOptions{})
	_, err := loader.Run(context.Background(), store.ModeReset)
	require.NoError(t, err)

	pub, err := store.OpenPublished(dbPath, log)
	require.NoError(t, err)
	t.Cleanup(func() { _ = pub.Close() })
	return NewRouter(service.NewArchiveService(pub, log), log, gin.TestMode)
}

func get(t *testing.T, r *gin.Engine, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRouter_Competitions(t *testing.T) {
	r := newTestRouter(t)

	w := get(t, r, "/api/competitions")
	require.Equal(t, http.StatusOK, w.Code)
	var comps []map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &comps))
	require.Len(t, comps, 1)

	w = get(t, r, "/api/competitions/m1/years")
	require.Equal(t, http.StatusOK, w.Code)
	require.JSONEq(t, `{"years":[2019]}`, w.Body.String())

	w = get(t, r, "/api/competitions/nope")
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestRouter_EditionTable(t *testing.T) {
	r := newTestRouter(t)

	w := get(t, r, "/api/competitions/m1/editions/2019")
	require.Equal(t, http.StatusOK, w.Code)
	var tbl service.EditionTable
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &tbl))
	require.Len(t, tbl.Rows, 1)
	require.Equal(t, "ミルクボーイ", tbl.Rows[0].Name)
	require.Equal(t, "first_order", tbl.Columns[0].Key)

	w = get(t, r, "/api/competitions/m1/editions/2001")
	require.Equal(t, http.StatusNotFound, w.Code)

	w = get(t, r, "/api/competitions/m1/editions/abc")
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Contains(t, w.Body.String(), "year")
}

func TestRouter_Scores(t *testing.T) {
	r := newTestRouter(t)

	w := get(t, r, "/api/competitions/m1/editions/2019/scores/1")
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), `"total":"97"`)

	w = get(t, r, "/api/competitions/m1/editions/2019/judges")
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), "松本人志")
}

func TestRouter_Comedians(t *testing.T) {
	r := newTestRouter(t)

	id := identity.ComedianID("ミルクボーイ", "")
	w := get(t, r, "/api/comedians/"+id)
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), `"key":"m1"`)

	w = get(t, r, "/api/comedians/unknown")
	require.Equal(t, http.StatusNotFound, w.Code)

	w = get(t, r, "/api/comedians")
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), id)
}

func TestRouter_Sources(t *testing.T) {
	r := newTestRouter(t)

	w := get(t, r, "/api/sources")
	require.Equal(t, http.StatusOK, w.Code)
	var files []struct {
		Name     string   `json:"name"`
		SHA256   string   `json:"sha256"`
		RowCount int      `json:"row_count"`
		Header   []string `json:"header"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &files))
	require.Len(t, files, len(seed))
	require.Equal(t, "comedians.csv", files[0].Name)
	require.Equal(t, "competitions.csv", files[1].Name)
	require.Equal(t, 1, files[1].RowCount)
	require.Equal(t, []string{"key", "name", "sort_order"}, files[1].Header)
	require.Len(t, files[1].SHA256, 64)
}

func TestRouter_Metrics(t *testing.T) {
	r := newTestRouter(t)
	get(t, r, "/api/competitions")

	w := get(t, r, "/metrics")
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	require.True(t, strings.Contains(body, `archive_api_requests_total{route="/api/competitions",status="200"}`), body)
}
