package httpserver

import (
	"bytes"
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/json"
	"encoding/pem"
	"errors"
	"math/big"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/capture-logs/capture-logs/internal/metrics"
	"github.com/capture-logs/capture-logs/internal/model"
	"github.com/capture-logs/capture-logs/internal/search"
	"github.com/capture-logs/capture-logs/internal/store"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

var seedTime = time.Date(2024, 3, 5, 0, 7, 2, 0, time.UTC)

func newTestServer(t *testing.T, n int) (*Server, *gin.Engine) {
	t.Helper()
	st, err := store.NewMemoryStore(context.Background())
	require.NoError(t, err, "NewMemoryStore")
	t.Cleanup(func() { st.Close() })
	if n > 0 {
		require.NoError(t, store.Seed(context.Background(), st, n, seedTime))
	}

	srv := NewServer(Config{}, search.NewService(st, nil), st)
	return srv, srv.Routes()
}

func postSearch(t *testing.T, r http.Handler, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodePage(t *testing.T, w *httptest.ResponseRecorder) model.SearchPage {
	t.Helper()
	var page model.SearchPage
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &page), "body: %s", w.Body.String())
	return page
}

type failingSearcher struct{ err error }

func (f failingSearcher) Search(context.Context, search.Request) (model.SearchPage, error) {
	return model.SearchPage{}, f.err
}

type failingStore struct{}

func (failingStore) CountLogs(context.Context, model.Filter) (int64, error) {
	return 0, errors.New("database is locked")
}

func TestSearchEndpoint_FirstPage(t *testing.T) {
	_, r := newTestServer(t, 45)

	w := postSearch(t, r, "/logs/search", `{"field":"username","keyword":"","page":1,"size":20}`)
	require.Equal(t, http.StatusOK, w.Code, "body: %s", w.Body.String())

	page := decodePage(t, w)
	assert.Len(t, page.Data, 20)
	assert.Equal(t, 1, page.Page)
	assert.Equal(t, 20, page.Size)
	assert.EqualValues(t, 45, page.TotalCount)
	assert.Equal(t, 3, page.TotalPages)
	assert.Equal(t, "2024-03-05T09:07:02.000+09:00", page.Data[0].DetectedTime)
}

func TestSearchEndpoint_WireShape(t *testing.T) {
	_, r := newTestServer(t, 7)

	w := postSearch(t, r, "/logs/search", `{"size": 7}`)
	require.Equal(t, http.StatusOK, w.Code)

	var raw struct {
		Data       []map[string]interface{} `json:"data"`
		TotalPages int                      `json:"totalPages"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &raw))
	require.Len(t, raw.Data, 7)
	for _, key := range []string{"log_id", "username", "device_id", "page_url", "detected_program", "detected_time", "browser_name", "os_name"} {
		assert.Contains(t, raw.Data[0], key)
	}
	// The seventh demo row has no browser reference.
	assert.Nil(t, raw.Data[6]["browser_name"])
	assert.Equal(t, "Windows", raw.Data[0]["os_name"])
}

func TestSearchEndpoint_PageClamp(t *testing.T) {
	_, r := newTestServer(t, 45)

	page := decodePage(t, postSearch(t, r, "/logs/search", `{"page": 99, "size": 20}`))
	assert.Equal(t, 3, page.Page)
	assert.Len(t, page.Data, 5)
}

func TestSearchEndpoint_LooseNumbers(t *testing.T) {
	_, r := newTestServer(t, 45)

	page := decodePage(t, postSearch(t, r, "/logs/search", `{"page": "2", "size": "lots"}`))
	assert.Equal(t, 2, page.Page)
	assert.Equal(t, 20, page.Size)

	page = decodePage(t, postSearch(t, r, "/logs/search", `{"size": 5000}`))
	assert.Equal(t, 200, page.Size)
	assert.Len(t, page.Data, 45)

	for _, body := range []string{`{"size": 1e400}`, `{"size": "Infinity"}`} {
		w := postSearch(t, r, "/logs/search", body)
		require.Equal(t, http.StatusOK, w.Code, "%s: %s", body, w.Body.String())
		assert.Equal(t, 200, decodePage(t, w).Size, body)
	}

	w := postSearch(t, r, "/logs/search", `{"page": 1e400, "size": 20}`)
	require.Equal(t, http.StatusOK, w.Code, "body: %s", w.Body.String())
	assert.Equal(t, 3, decodePage(t, w).Page)

	page = decodePage(t, postSearch(t, r, "/logs/search", `{"page": -1e400}`))
	assert.Equal(t, 1, page.Page)
}

func TestSearchEndpoint_EmptyBody(t *testing.T) {
	_, r := newTestServer(t, 3)

	w := postSearch(t, r, "/logs/search", "")
	require.Equal(t, http.StatusOK, w.Code, "body: %s", w.Body.String())
	page := decodePage(t, w)
	assert.Len(t, page.Data, 3)
	assert.Equal(t, 20, page.Size)
}

func TestSearchEndpoint_EmptyTable(t *testing.T) {
	_, r := newTestServer(t, 0)

	w := postSearch(t, r, "/logs/search", `{"page": 4}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"data":[]`)

	page := decodePage(t, w)
	assert.EqualValues(t, 0, page.TotalCount)
	assert.Equal(t, 1, page.TotalPages)
	assert.Equal(t, 1, page.Page)
}

func TestSearchEndpoint_Filter(t *testing.T) {
	_, r := newTestServer(t, 45)

	page := decodePage(t, postSearch(t, r, "/logs/search", `{"field":"Detected Program","keyword":"NOTEPAD","size":200}`))
	require.NotEmpty(t, page.Data)
	for _, e := range page.Data {
		require.NotNil(t, e.DetectedProgram)
		assert.Contains(t, strings.ToLower(*e.DetectedProgram), "notepad")
	}
}

func TestSearchEndpoint_APIAlias(t *testing.T) {
	_, r := newTestServer(t, 2)

	w := postSearch(t, r, "/api/logs/search", `{}`)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestSearchEndpoint_UnknownFieldIsGeneric500(t *testing.T) {
	_, r := newTestServer(t, 2)

	w := postSearch(t, r, "/logs/search", `{"field":"password","keyword":"x"}`)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"error":"Failed to fetch logs"}`, w.Body.String())
}

func TestSearchEndpoint_NonStringFilterIsGeneric500(t *testing.T) {
	_, r := newTestServer(t, 2)

	for _, body := range []string{
		`{"field": 7}`,
		`{"field": true, "keyword": "x"}`,
		`{"field": ["Username"]}`,
		`{"keyword": 5, "field": "Username"}`,
		`{"keyword": {"contains": "a"}, "field": "Username"}`,
	} {
		w := postSearch(t, r, "/logs/search", body)
		assert.Equal(t, http.StatusInternalServerError, w.Code, body)
		assert.JSONEq(t, `{"error":"Failed to fetch logs"}`, w.Body.String(), body)
	}
}

func TestSearchEndpoint_FalsyFieldMeansNoFilter(t *testing.T) {
	_, r := newTestServer(t, 4)

	for _, body := range []string{`{"field": 0, "keyword": 5}`, `{"field": false}`, `{"field": null}`, `[1, 2]`} {
		w := postSearch(t, r, "/logs/search", body)
		require.Equal(t, http.StatusOK, w.Code, "%s: %s", body, w.Body.String())
		assert.EqualValues(t, 4, decodePage(t, w).TotalCount, body)
	}
}

func TestSearchEndpoint_StoreFailure(t *testing.T) {
	m := metrics.New(nil)
	srv := NewServer(Config{Metrics: m}, failingSearcher{err: errors.New("pq: connection refused")}, failingStore{})
	r := srv.Routes()

	w := postSearch(t, r, "/logs/search", `{}`)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"error":"Failed to fetch logs"}`, w.Body.String())
	assert.NotContains(t, w.Body.String(), "connection refused")
	assert.Equal(t, float64(1), testutil.ToFloat64(m.SearchFailures))
}

func TestSearchEndpoint_MalformedJSON(t *testing.T) {
	_, r := newTestServer(t, 1)

	for _, body := range []string{`{"page": `, `"page"`, `42`} {
		w := postSearch(t, r, "/logs/search", body)
		assert.Equal(t, http.StatusBadRequest, w.Code, body)
		assert.JSONEq(t, `{"error":"invalid JSON body"}`, w.Body.String(), body)
	}
}

func TestSearchEndpoint_WrongMethod(t *testing.T) {
	_, r := newTestServer(t, 1)

	req := httptest.NewRequest(http.MethodGet, "/logs/search", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusMethodNotAllowed && w.Code != http.StatusNotFound {
		t.Errorf("GET /logs/search status = %d, want 405 or 404", w.Code)
	}
}

func TestCORS_SimpleRequest(t *testing.T) {
	_, r := newTestServer(t, 1)

	req := httptest.NewRequest(http.MethodPost, "/logs/search", bytes.NewBufferString(`{}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Origin", "http://capture-logs-client:5000")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestCORS_Preflight(t *testing.T) {
	_, r := newTestServer(t, 0)

	req := httptest.NewRequest(http.MethodOptions, "/logs/search", nil)
	req.Header.Set("Origin", "https://ex-demo.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	req.Header.Set("Access-Control-Request-Headers", "Content-Type")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	allowed := w.Header().Get("Access-Control-Allow-Methods")
	for _, m := range []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"} {
		assert.Contains(t, allowed, m)
	}
	assert.Contains(t, strings.ToLower(w.Header().Get("Access-Control-Allow-Headers")), "content-type")
}

func TestHealthEndpoint(t *testing.T) {
	_, r := newTestServer(t, 4)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/health", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
	assert.EqualValues(t, 4, body["log_count"])
}

func TestHealthEndpoint_StoreDown(t *testing.T) {
	srv := NewServer(Config{}, failingSearcher{}, failingStore{})

	w := httptest.NewRecorder()
	srv.Routes().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/health", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	_, r := newTestServer(t, 1)
	postSearch(t, r, "/logs/search", `{}`)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `capture_logs_http_requests_total{method="POST",path="/logs/search",status="200"} 1`)
	assert.Contains(t, w.Body.String(), "capture_logs_search_rows")
}

func TestGinRecovery(t *testing.T) {
	r := gin.New()
	r.Use(gin.Recovery())
	r.GET("/panic", func(c *gin.Context) {
		panic("test panic")
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/panic", nil))

	if w.Code != http.StatusInternalServerError {
		t.Errorf("panic recovery status = %d, want %d", w.Code, http.StatusInternalServerError)
	}
}

func TestStart_NoListener(t *testing.T) {
	srv := NewServer(Config{}, failingSearcher{}, failingStore{})
	assert.Error(t, srv.Start())
}

func TestStart_HalfTLSConfig(t *testing.T) {
	srv := NewServer(Config{Addr: "127.0.0.1:0", CertFile: "cert.pem"}, failingSearcher{}, failingStore{})
	assert.ErrorIs(t, srv.Start(), ErrTLSConfig)
}

func TestStart_MissingCertificate(t *testing.T) {
	dir := t.TempDir()
	srv := NewServer(Config{
		TLSAddr:  "127.0.0.1:0",
		CertFile: filepath.Join(dir, "missing.crt"),
		KeyFile:  filepath.Join(dir, "missing.key"),
	}, failingSearcher{}, failingStore{})
	assert.Error(t, srv.Start())
}

func TestRun_ServesAndShutsDown(t *testing.T) {
	st, err := store.NewMemoryStore(context.Background())
	require.NoError(t, err)
	defer st.Close()

	srv := NewServer(Config{Addr: "127.0.0.1:0"}, search.NewService(st, nil), st)
	require.NoError(t, srv.Start())
	addrs := srv.Addrs()
	require.Len(t, addrs, 1)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Run(ctx) }()

	resp, err := http.Post("http://"+addrs[0].String()+"/logs/search", "application/json", strings.NewReader(`{}`))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}

	_, err = net.DialTimeout("tcp", addrs[0].String(), time.Second)
	assert.Error(t, err, "listener still accepting after shutdown")
}

func TestRun_TLSListener(t *testing.T) {
	certFile, keyFile := writeSelfSignedCert(t)
	st, err := store.NewMemoryStore(context.Background())
	require.NoError(t, err)
	defer st.Close()

	srv := NewServer(Config{
		Addr:     "127.0.0.1:0",
		TLSAddr:  "127.0.0.1:0",
		CertFile: certFile,
		KeyFile:  keyFile,
	}, search.NewService(st, nil), st)
	require.NoError(t, srv.Start())
	addrs := srv.Addrs()
	require.Len(t, addrs, 2)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- srv.Run(ctx) }()

	client := &http.Client{Transport: &http.Transport{
		TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
	}}
	resp, err := client.Get("https://" + addrs[1].String() + "/api/health")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	cancel()
	assert.NoError(t, <-done)
}

func writeSelfSignedCert(t *testing.T) (certFile, keyFile string) {
	t.Helper()
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)

	tmpl := &x509.Certificate{
		SerialNumber: big.NewInt(1),
		Subject:      pkix.Name{CommonName: "localhost"},
		NotBefore:    time.Now().Add(-time.Hour),
		NotAfter:     time.Now().Add(time.Hour),
		IPAddresses:  []net.IP{net.ParseIP("127.0.0.1")},
		KeyUsage:     x509.KeyUsageDigitalSignature,
		ExtKeyUsage:  []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth},
	}
	der, err := x509.CreateCertificate(rand.Reader, tmpl, tmpl, &key.PublicKey, key)
	require.NoError(t, err)
	keyDER, err := x509.MarshalECPrivateKey(key)
	require.NoError(t, err)

	dir := t.TempDir()
	certFile = filepath.Join(dir, "server.crt")
	keyFile = filepath.Join(dir, "server.key")
	require.NoError(t, os.WriteFile(certFile, pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: der}), 0600))
	require.NoError(t, os.WriteFile(keyFile, pem.EncodeToMemory(&pem.Block{Type: "EC PRIVATE KEY", Bytes: keyDER}), 0600))
	return certFile, keyFile
}
