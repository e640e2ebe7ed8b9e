package server

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/hyperjump/upcase/internal/config"
	"github.com/hyperjump/upcase/internal/convert"
	"github.com/hyperjump/upcase/internal/extract"
	"github.com/hyperjump/upcase/internal/models"
	"github.com/hyperjump/upcase/internal/storage"
	"github.com/hyperjump/upcase/internal/testutil"
)

type testServer struct {
	srv     *Server
	handler http.Handler
	ws      *storage.Workspace
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	root := t.TempDir()
	cfg := config.Default()
	cfg.Storage.UploadDir = filepath.Join(root, "uploads")
	cfg.Storage.OutputDir = filepath.Join(root, "outputs")
	return cfg
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	return newTestServerWithConfig(t, testConfig(t))
}

func newTestServerWithConfig(t *testing.T, cfg *config.Config, opts ...convert.Option) *testServer {
	t.Helper()
	ws := storage.NewWorkspace(cfg.Storage.UploadDir, cfg.Storage.OutputDir)
	if err := ws.EnsureDirs(); err != nil {
		t.Fatal(err)
	}
	srv := NewServer(convert.New(ws, opts...), ws, cfg, nil)
	return &testServer{srv: srv, handler: srv.Router(), ws: ws}
}

// multipartBody builds a form with one file part under field, or a text field only
// when field is empty.
func multipartBody(t *testing.T, field, filename string, content []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if field != "" {
		fw, err := mw.CreateFormFile(field, filename)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := fw.Write(content); err != nil {
			t.Fatal(err)
		}
	} else if err := mw.WriteField("note", "no file here"); err != nil {
		t.Fatal(err)
	}
	if err := mw.Close(); err != nil {
		t.Fatal(err)
	}
	return &buf, mw.FormDataContentType()
}

func uploadRequest(t *testing.T, field, filename string, content []byte) *http.Request {
	t.Helper()
	body, contentType := multipartBody(t, field, filename, content)
	req := httptest.NewRequest(http.MethodPost, "/upload", body)
	req.Header.Set("Content-Type", contentType)
	return req
}

func (ts *testServer) serve(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, req)
	return rec
}

func (ts *testServer) upload(t *testing.T, filename string, content []byte) *httptest.ResponseRecorder {
	t.Helper()
	return ts.serve(uploadRequest(t, uploadField, filename, content))
}

func (ts *testServer) assertWorkspaceEmpty(t *testing.T) {
	t.Helper()
	for _, dir := range []string{ts.ws.UploadDir(), ts.ws.OutputDir()} {
		entries, err := os.ReadDir(dir)
		if err != nil {
			t.Fatal(err)
		}
		for _, e := range entries {
			t.Errorf("leftover %s in %s", e.Name(), dir)
		}
	}
}

func assertStatus(t *testing.T, rec *httptest.ResponseRecorder, want int) {
	t.Helper()
	if rec.Code != want {
		t.Fatalf("status = %d, want %d (body %q)", rec.Code, want, rec.Body.String())
	}
}

func assertTextBody(t *testing.T, rec *httptest.ResponseRecorder, want string) {
	t.Helper()
	if got := rec.Body.String(); got != want {
		t.Errorf("body = %q, want %q", got, want)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "text/plain; charset=utf-8" {
		t.Errorf("content type = %q", ct)
	}
}

func assertDisposition(t *testing.T, rec *httptest.ResponseRecorder, want string) {
	t.Helper()
	if got := rec.Header().Get("Content-Disposition"); got != want {
		t.Errorf("Content-Disposition = %q, want %q", got, want)
	}
}

func extractBytes(t *testing.T, content []byte, format models.Format) models.Text {
	t.Helper()
	text, err := extract.NewExtractor().ExtractBytes(content, format)
	if err != nil {
		t.Fatalf("extract response: %v", err)
	}
	return text
}

func TestUpload_docx(t *testing.T) {
	ts := newTestServer(t)
	rec := ts.upload(t, "report.docx", testutil.Docx("Quarterly report", "all good"))

	assertStatus(t, rec, http.StatusOK)
	assertDisposition(t, rec, `attachment; filename="report_UPPER.docx"`)
	if ct := rec.Header().Get("Content-Type"); ct != models.FormatDOCX.ContentType() {
		t.Errorf("content type = %q", ct)
	}
	if got := extractBytes(t, rec.Body.Bytes(), models.FormatDOCX); got.Body != "QUARTERLY REPORT\n\nALL GOOD" {
		t.Errorf("body = %q", got.Body)
	}
	ts.assertWorkspaceEmpty(t)
}

func TestUpload_pdf(t *testing.T) {
	ts := newTestServer(t)
	rec := ts.upload(t, "notes.pdf", testutil.PDF("first page", "second page"))

	assertStatus(t, rec, http.StatusOK)
	assertDisposition(t, rec, `attachment; filename="notes_UPPER.pdf"`)
	if ct := rec.Header().Get("Content-Type"); ct != "application/pdf" {
		t.Errorf("content type = %q", ct)
	}
	if got := extractBytes(t, rec.Body.Bytes(), models.FormatPDF); got.Body != "FIRST PAGE\nSECOND PAGE" {
		t.Errorf("body = %q", got.Body)
	}
	ts.assertWorkspaceEmpty(t)
}

func TestUpload_pptx(t *testing.T) {
	ts := newTestServer(t)
	rec := ts.upload(t, "Deck.PPTX", testutil.Pptx([]string{"Welcome", "agenda"}, []string{"thanks"}))

	assertStatus(t, rec, http.StatusOK)
	assertDisposition(t, rec, `attachment; filename="Deck_UPPER.pptx"`)
	got := extractBytes(t, rec.Body.Bytes(), models.FormatPPTX)
	if want := []string{"WELCOME", "AGENDA", "THANKS"}; !reflect.DeepEqual(got.Runs, want) {
		t.Errorf("runs = %v, want %v", got.Runs, want)
	}
	ts.assertWorkspaceEmpty(t)
}

func TestUpload_contentLengthMatchesBody(t *testing.T) {
	ts := newTestServer(t)
	rec := ts.upload(t, "a.docx", testutil.Docx("x"))

	assertStatus(t, rec, http.StatusOK)
	if got, want := rec.Header().Get("Content-Length"), strconv.Itoa(rec.Body.Len()); got != want {
		t.Errorf("Content-Length = %s, want %s", got, want)
	}
}

func TestUpload_nonASCIIName(t *testing.T) {
	ts := newTestServer(t)
	rec := ts.upload(t, "résumé.docx", testutil.Docx("hi"))

	assertStatus(t, rec, http.StatusOK)
	assertDisposition(t, rec, "attachment; filename*=utf-8''r%C3%A9sum%C3%A9_UPPER.docx")
}

func TestUpload_longName(t *testing.T) {
	ts := newTestServer(t)
	base := strings.Repeat("n", 240)
	rec := ts.upload(t, base+".docx", testutil.Docx("long"))

	assertStatus(t, rec, http.StatusOK)
	assertDisposition(t, rec, `attachment; filename="`+base+`_UPPER.docx"`)
	ts.assertWorkspaceEmpty(t)
}

func TestUpload_noFile(t *testing.T) {
	ts := newTestServer(t)
	rec := ts.serve(uploadRequest(t, "", "", nil))

	assertStatus(t, rec, http.StatusBadRequest)
	assertTextBody(t, rec, msgNoFile)
	ts.assertWorkspaceEmpty(t)
}

func TestUpload_notMultipart(t *testing.T) {
	ts := newTestServer(t)
	req := httptest.NewRequest(http.MethodPost, "/upload", strings.NewReader("plain"))
	req.Header.Set("Content-Type", "text/plain")
	rec := ts.serve(req)

	assertStatus(t, rec, http.StatusBadRequest)
	assertTextBody(t, rec, msgNoFile)
}

func TestUpload_wrongField(t *testing.T) {
	ts := newTestServer(t)
	rec := ts.serve(uploadRequest(t, "document", "a.docx", testutil.Docx("x")))

	assertStatus(t, rec, http.StatusBadRequest)
	assertTextBody(t, rec, msgNoFile)
}

func TestUpload_unsupportedFormat(t *testing.T) {
	tests := []struct {
		name     string
		filename string
	}{
		{"txt", "notes.txt"},
		{"no extension", "README"},
		{"legacy doc", "old.doc"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := newTestServer(t)
			rec := ts.upload(t, tt.filename, []byte("hello"))

			assertStatus(t, rec, http.StatusBadRequest)
			assertTextBody(t, rec, msgUnsupported)
			ts.assertWorkspaceEmpty(t)
		})
	}
}

func TestUpload_corruptFileThenRecover(t *testing.T) {
	ts := newTestServer(t)
	rec := ts.upload(t, "broken.pdf", testutil.Corrupt())

	assertStatus(t, rec, http.StatusInternalServerError)
	assertTextBody(t, rec, msgProcessingError)
	ts.assertWorkspaceEmpty(t)

	rec = ts.upload(t, "ok.docx", testutil.Docx("still alive"))
	assertStatus(t, rec, http.StatusOK)
	if got := extractBytes(t, rec.Body.Bytes(), models.FormatDOCX); got.Body != "STILL ALIVE" {
		t.Errorf("body = %q", got.Body)
	}
}

func TestUpload_corruptEachFormat(t *testing.T) {
	for _, name := range []string{"bad.docx", "bad.pdf", "bad.pptx"} {
		t.Run(name, func(t *testing.T) {
			ts := newTestServer(t)
			rec := ts.upload(t, name, testutil.Corrupt())

			assertStatus(t, rec, http.StatusInternalServerError)
			assertTextBody(t, rec, msgProcessingError)
			ts.assertWorkspaceEmpty(t)
		})
	}
}

func TestUpload_tooLarge(t *testing.T) {
	cfg := testConfig(t)
	cfg.Convert.MaxUploadBytes = 1024
	ts := newTestServerWithConfig(t, cfg)

	rec := ts.upload(t, "big.docx", bytes.Repeat([]byte("a"), 4096))
	assertStatus(t, rec, http.StatusRequestEntityTooLarge)
	assertTextBody(t, rec, msgTooLarge)
	ts.assertWorkspaceEmpty(t)
}

type slowExtractor struct{ delay time.Duration }

func (s slowExtractor) ExtractBytes([]byte, models.Format) (models.Text, error) {
	time.Sleep(s.delay)
	return models.Text{Body: "late"}, nil
}

func TestUpload_deadlineAnsweredByTimeoutMiddleware(t *testing.T) {
	cfg := testConfig(t)
	cfg.Server.RequestTimeout = config.Duration(30 * time.Millisecond)
	ts := newTestServerWithConfig(t, cfg, convert.WithExtractor(slowExtractor{150 * time.Millisecond}))

	rec := ts.upload(t, "slow.docx", testutil.Docx("x"))
	assertStatus(t, rec, http.StatusGatewayTimeout)
	if strings.Contains(rec.Body.String(), msgProcessingError) {
		t.Errorf("timed out request should not also carry a processing error: %q", rec.Body.String())
	}
	ts.assertWorkspaceEmpty(t)
}

func TestUpload_concurrentSameName(t *testing.T) {
	ts := newTestServer(t)
	words := []string{"alpha", "bravo", "charlie", "delta", "echo", "foxtrot"}
	reqs := make([]*http.Request, len(words))
	for i, word := range words {
		reqs[i] = uploadRequest(t, uploadField, "same.docx", testutil.Docx(word))
	}

	var wg sync.WaitGroup
	recs := make([]*httptest.ResponseRecorder, len(words))
	for i, req := range reqs {
		wg.Add(1)
		go func(i int, req *http.Request) {
			defer wg.Done()
			recs[i] = ts.serve(req)
		}(i, req)
	}
	wg.Wait()

	for i, word := range words {
		assertStatus(t, recs[i], http.StatusOK)
		got := extractBytes(t, recs[i].Body.Bytes(), models.FormatDOCX)
		if want := strings.ToUpper(word); got.Body != want {
			t.Errorf("response %d body = %q, want %q", i, got.Body, want)
		}
	}
	ts.assertWorkspaceEmpty(t)
}

func TestUpload_methodNotAllowed(t *testing.T) {
	ts := newTestServer(t)
	rec := ts.serve(httptest.NewRequest(http.MethodGet, "/upload", nil))
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("status = %d", rec.Code)
	}
}

func TestIndex(t *testing.T) {
	ts := newTestServer(t)
	rec := ts.serve(httptest.NewRequest(http.MethodGet, "/", nil))

	assertStatus(t, rec, http.StatusOK)
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Errorf("content type = %q", ct)
	}
	body := rec.Body.String()
	for _, want := range []string{`action="/upload"`, `name="file"`, `enctype="multipart/form-data"`} {
		if !strings.Contains(body, want) {
			t.Errorf("index page missing %s", want)
		}
	}
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t)
	rec := ts.serve(httptest.NewRequest(http.MethodGet, "/health", nil))

	assertStatus(t, rec, http.StatusOK)
	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if body["status"] != "ok" {
		t.Errorf("status = %q", body["status"])
	}
}

func TestStatus(t *testing.T) {
	ts := newTestServer(t)
	rec := ts.serve(httptest.NewRequest(http.MethodGet, "/api/v1/status", nil))

	assertStatus(t, rec, http.StatusOK)
	var body models.Status
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if want := []string{".docx", ".pdf", ".pptx"}; !reflect.DeepEqual(body.Formats, want) {
		t.Errorf("formats = %v", body.Formats)
	}
	if body.UploadDir != ts.ws.UploadDir() || body.OutputDir != ts.ws.OutputDir() {
		t.Errorf("dirs = %s, %s", body.UploadDir, body.OutputDir)
	}
	if body.MaxUploadBytes != config.DefaultMaxUploadBytes {
		t.Errorf("max_upload_bytes = %d", body.MaxUploadBytes)
	}
	if body.DiskUsageBytes == nil || *body.DiskUsageBytes != 0 {
		t.Errorf("disk_usage_bytes = %v, want 0", body.DiskUsageBytes)
	}
}

func TestContentDisposition(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "a_UPPER.pdf", `attachment; filename="a_UPPER.pdf"`},
		{"spaces", "my file_UPPER.docx", `attachment; filename="my file_UPPER.docx"`},
		{"quote", `say "hi"_UPPER.pdf`, `attachment; filename="say \"hi\"_UPPER.pdf"`},
		{"unicode", "ü_UPPER.pdf", "attachment; filename*=utf-8''%C3%BC_UPPER.pdf"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := contentDisposition(tt.in); got != tt.want {
				t.Errorf("contentDisposition(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
