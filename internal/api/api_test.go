package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/starford/maeum/internal/journal"
	"github.com/starford/maeum/internal/lock"
	"github.com/starford/maeum/internal/models"
	"github.com/starford/maeum/internal/report"
	"github.com/starford/maeum/internal/storage"
	"github.com/starford/maeum/internal/testutil"
)

type testEnv struct {
	svc     *journal.Service
	fs      *storage.FS
	router  http.Handler
	dataDir string
}

// newEnv sets up a temp data dir, SQLite DB, service, gate and router.
// An empty token means auth is disabled.
func newEnv(t *testing.T, token string, sseHandler http.Handler) *testEnv {
	t.Helper()
	store, fs := testutil.TestStore(t)
	builder := report.NewBuilder(store, nil, report.WithLogger(testutil.Logger()))
	svc := journal.NewService(store, testutil.TestDB(t), builder, journal.WithLogger(testutil.Logger()))
	gate, err := lock.Open(fs)
	if err != nil {
		t.Fatal(err)
	}
	router := NewRouter(svc, gate, token != "", token, sseHandler, fs.Root())
	return &testEnv{svc: svc, fs: fs, router: router, dataDir: fs.Root()}
}

func (e *testEnv) do(t *testing.T, method, target string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var rd io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatal(err)
		}
		rd = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, target, rd)
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func (e *testEnv) create(t *testing.T, mood models.Mood, note string) models.MoodEntry {
	t.Helper()
	w := e.do(t, http.MethodPost, "/entries", CreateEntryRequest{Mood: mood, Note: note})
	if w.Code != http.StatusCreated {
		t.Fatalf("create status = %d, body = %s", w.Code, w.Body.String())
	}
	var out models.MoodEntry
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatal(err)
	}
	return out
}

func TestCreateAndGetEntry(t *testing.T) {
	env := newEnv(t, "", nil)
	created := env.create(t, models.MoodHappy, "산책 #운동")
	if created.ID == "" || created.Note != "산책 #운동" {
		t.Fatalf("created = %+v", created)
	}

	w := env.do(t, http.MethodGet, "/entries/"+created.ID, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("get status = %d", w.Code)
	}
	var got models.MoodEntry
	_ = json.Unmarshal(w.Body.Bytes(), &got)
	if got.ID != created.ID || got.Mood != models.MoodHappy {
		t.Errorf("got = %+v", got)
	}
}

func TestCreateEntry_Invalid(t *testing.T) {
	env := newEnv(t, "", nil)
	cases := []any{
		CreateEntryRequest{Mood: "BORED"},
		CreateEntryRequest{Mood: models.MoodSad, Nuances: map[models.Scale]string{models.ScaleFearSafety: "졸리다"}},
		CreateEntryRequest{},
	}
	for _, body := range cases {
		if w := env.do(t, http.MethodPost, "/entries", body); w.Code != http.StatusBadRequest {
			t.Errorf("create %+v = %d, want 400", body, w.Code)
		}
	}

	req := httptest.NewRequest(http.MethodPost, "/entries", strings.NewReader("{"))
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Errorf("malformed body = %d, want 400", w.Code)
	}
}

func TestGetEntry_NotFound(t *testing.T) {
	env := newEnv(t, "", nil)
	if w := env.do(t, http.MethodGet, "/entries/nope", nil); w.Code != http.StatusNotFound {
		t.Errorf("missing entry = %d, want 404", w.Code)
	}
}

func TestDeleteEntry_Idempotent(t *testing.T) {
	env := newEnv(t, "", nil)
	e := env.create(t, models.MoodSad, "")
	for i := 0; i < 2; i++ {
		if w := env.do(t, http.MethodDelete, "/entries/"+e.ID, nil); w.Code != http.StatusNoContent {
			t.Errorf("delete #%d = %d, want 204", i+1, w.Code)
		}
	}
	if w := env.do(t, http.MethodGet, "/entries/"+e.ID, nil); w.Code != http.StatusNotFound {
		t.Errorf("get after delete = %d", w.Code)
	}
}

func TestListEntries(t *testing.T) {
	env := newEnv(t, "", nil)
	for i := 0; i < 3; i++ {
		env.create(t, models.MoodNormal, "")
	}
	w := env.do(t, http.MethodGet, "/entries?limit=2", nil)
	var resp EntryListResponse
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.Total != 3 || len(resp.Entries) != 2 {
		t.Errorf("total = %d, entries = %d", resp.Total, len(resp.Entries))
	}
}

func TestRangePreviewAndDelete(t *testing.T) {
	env := newEnv(t, "", nil)
	env.create(t, models.MoodHappy, "")
	env.create(t, models.MoodFun, "")
	today := models.DayOf(time.Now()).String()
	target := "/entries/range?from=" + today + "&to=" + today

	w := env.do(t, http.MethodGet, target, nil)
	var preview journal.RangePreview
	_ = json.Unmarshal(w.Body.Bytes(), &preview)
	if w.Code != http.StatusOK || preview.Count != 2 {
		t.Fatalf("preview = %d %+v", w.Code, preview)
	}

	w = env.do(t, http.MethodDelete, target, nil)
	var del RangeDeleteResponse
	_ = json.Unmarshal(w.Body.Bytes(), &del)
	if del.Deleted != 2 {
		t.Errorf("deleted = %d", del.Deleted)
	}

	if w := env.do(t, http.MethodGet, "/entries/range?from=yesterday", nil); w.Code != http.StatusBadRequest {
		t.Errorf("bad date = %d, want 400", w.Code)
	}
	w = env.do(t, http.MethodGet, "/entries/range?from="+today, nil)
	_ = json.Unmarshal(w.Body.Bytes(), &preview)
	if preview.Count != 0 {
		t.Errorf("open range count = %d, want 0", preview.Count)
	}
}

func TestLatestDay(t *testing.T) {
	env := newEnv(t, "", nil)
	w := env.do(t, http.MethodGet, "/stats/latest-day", nil)
	if !strings.Contains(w.Body.String(), `"day":null`) {
		t.Errorf("empty journal body = %s", w.Body.String())
	}

	env.create(t, models.MoodExcited, "")
	env.create(t, models.MoodSad, "")
	w = env.do(t, http.MethodGet, "/stats/latest-day", nil)
	var resp struct {
		Day struct {
			Average float64 `json:"average"`
			Count   int     `json:"count"`
		} `json:"day"`
	}
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.Day.Count != 2 || resp.Day.Average != 3 {
		t.Errorf("latest day = %+v", resp.Day)
	}
}

func TestCalendar(t *testing.T) {
	env := newEnv(t, "", nil)
	env.create(t, models.MoodHappy, "")

	w := env.do(t, http.MethodGet, "/stats/calendar", nil)
	var resp CalendarResponse
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	today := models.DayOf(time.Now()).String()
	if resp.Days[today] != "😊" {
		t.Errorf("calendar = %+v", resp)
	}

	if w := env.do(t, http.MethodGet, "/stats/calendar?month=2024-13", nil); w.Code != http.StatusBadRequest {
		t.Errorf("bad month = %d, want 400", w.Code)
	}
}

func TestNuancesAndTimeline(t *testing.T) {
	env := newEnv(t, "", nil)
	env.do(t, http.MethodPost, "/entries", CreateEntryRequest{
		Mood:    models.MoodNormal,
		Nuances: map[models.Scale]string{models.ScaleFearSafety: "안전하다"},
	})

	w := env.do(t, http.MethodGet, "/stats/nuances", nil)
	var nuances struct {
		Scales []journal.NuanceView `json:"scales"`
	}
	_ = json.Unmarshal(w.Body.Bytes(), &nuances)
	if len(nuances.Scales) != 5 || nuances.Scales[0].RightPercent != 100 {
		t.Errorf("nuances = %+v", nuances.Scales)
	}

	w = env.do(t, http.MethodGet, "/stats/timeline", nil)
	var tl journal.TimelineView
	_ = json.Unmarshal(w.Body.Bytes(), &tl)
	if len(tl.Points) != 1 || tl.Overall != 3 || tl.Points[0].Nuances[models.ScaleFearSafety] != 1 {
		t.Errorf("timeline = %+v", tl)
	}
}

func TestReportEndpoints(t *testing.T) {
	env := newEnv(t, "", nil)
	env.create(t, models.MoodSad, "비")
	env.create(t, models.MoodSad, "")
	env.create(t, models.MoodHappy, "해")

	w := env.do(t, http.MethodGet, "/report/frequency", nil)
	var freq struct {
		Ranking []report.Rank `json:"ranking"`
	}
	_ = json.Unmarshal(w.Body.Bytes(), &freq)
	if len(freq.Ranking) != 2 || freq.Ranking[0].Count != 2 || freq.Ranking[0].Percent != 67 {
		t.Errorf("ranking = %+v", freq.Ranking)
	}

	w = env.do(t, http.MethodGet, "/report/notes?max=1", nil)
	var notes NotesResponse
	_ = json.Unmarshal(w.Body.Bytes(), &notes)
	if len(notes.Groups) != 2 {
		t.Errorf("groups = %+v", notes.Groups)
	}

	w = env.do(t, http.MethodGet, "/report/analysis?cached=true", nil)
	var status report.Result
	_ = json.Unmarshal(w.Body.Bytes(), &status)
	if status.State != report.StateStale {
		t.Errorf("cached state = %s", status.State)
	}

	w = env.do(t, http.MethodGet, "/report/analysis", nil)
	var res report.Result
	_ = json.Unmarshal(w.Body.Bytes(), &res)
	if res.State != report.StateReady || !res.Fallback || res.Analysis.Summary == "" {
		t.Errorf("analysis = %+v", res)
	}

	if w := env.do(t, http.MethodPost, "/report/speech", nil); w.Code != http.StatusServiceUnavailable {
		t.Errorf("speech without speaker = %d, want 503", w.Code)
	}
}

func TestSearchEndpoint(t *testing.T) {
	env := newEnv(t, "", nil)
	e := env.create(t, models.MoodFun, "친구와 #보드게임")

	w := env.do(t, http.MethodGet, "/search?q="+url.QueryEscape("보드게임"), nil)
	var resp struct {
		Results []struct {
			ID string `json:"id"`
		} `json:"results"`
	}
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if len(resp.Results) != 1 || resp.Results[0].ID != e.ID {
		t.Errorf("results = %+v", resp.Results)
	}

	if w := env.do(t, http.MethodGet, "/search", nil); w.Code != http.StatusBadRequest {
		t.Errorf("search no query = %d, want 400", w.Code)
	}
}

func TestLockGate(t *testing.T) {
	env := newEnv(t, "", nil)
	if w := env.do(t, http.MethodPost, "/lock", PINRequest{PIN: "12a4"}); w.Code != http.StatusBadRequest {
		t.Errorf("malformed pin = %d, want 400", w.Code)
	}
	if w := env.do(t, http.MethodPost, "/lock", PINRequest{PIN: "2580"}); w.Code != http.StatusOK {
		t.Fatalf("set pin = %d", w.Code)
	}

	// A restart picks up the stored PIN.
	gate, err := lock.Open(env.fs)
	if err != nil {
		t.Fatal(err)
	}
	locked := &testEnv{router: NewRouter(env.svc, gate, false, "", nil, env.dataDir)}

	if w := locked.do(t, http.MethodGet, "/entries", nil); w.Code != http.StatusLocked {
		t.Errorf("entries while locked = %d, want 423", w.Code)
	}
	if w := locked.do(t, http.MethodDelete, "/lock", nil); w.Code != http.StatusLocked {
		t.Errorf("clear while locked = %d, want 423", w.Code)
	}
	if w := locked.do(t, http.MethodPost, "/lock/unlock", PINRequest{PIN: "0000"}); w.Code != http.StatusForbidden {
		t.Errorf("wrong pin = %d, want 403", w.Code)
	}
	w := locked.do(t, http.MethodPost, "/lock/unlock", PINRequest{PIN: "2580"})
	var st LockStatus
	_ = json.Unmarshal(w.Body.Bytes(), &st)
	if w.Code != http.StatusOK || st.Locked || !st.Enabled {
		t.Errorf("unlock = %d %+v", w.Code, st)
	}
	if w := locked.do(t, http.MethodGet, "/entries", nil); w.Code != http.StatusOK {
		t.Errorf("entries after unlock = %d", w.Code)
	}
	if w := locked.do(t, http.MethodDelete, "/lock", nil); w.Code != http.StatusNoContent {
		t.Errorf("clear = %d, want 204", w.Code)
	}
}

// Auth middleware tests.

func TestAuthMiddleware(t *testing.T) {
	env := newEnv(t, "secret", nil)
	cases := []struct {
		header string
		want   int
	}{
		{"", http.StatusUnauthorized},
		{"Bearer wrong", http.StatusUnauthorized},
		{"Basic secret", http.StatusUnauthorized},
		{"Bearer secret", http.StatusOK},
		{"bearer  secret", http.StatusOK},
	}
	for _, tc := range cases {
		req := httptest.NewRequest(http.MethodGet, "/taxonomy", nil)
		if tc.header != "" {
			req.Header.Set("Authorization", tc.header)
		}
		w := httptest.NewRecorder()
		env.router.ServeHTTP(w, req)
		if w.Code != tc.want {
			t.Errorf("Authorization %q = %d, want %d", tc.header, w.Code, tc.want)
		}
		if w.Code == http.StatusUnauthorized && w.Header().Get("WWW-Authenticate") == "" {
			t.Error("401 without WWW-Authenticate")
		}
	}

	// Query tokens are only honoured on the event stream.
	if w := env.do(t, http.MethodGet, "/taxonomy?access_token=secret", nil); w.Code != http.StatusUnauthorized {
		t.Errorf("query token on taxonomy = %d, want 401", w.Code)
	}
}

func TestAuthMiddleware_Disabled(t *testing.T) {
	env := newEnv(t, "", nil)
	w := env.do(t, http.MethodGet, "/taxonomy", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("taxonomy = %d", w.Code)
	}
	var tax journal.Taxonomy
	_ = json.Unmarshal(w.Body.Bytes(), &tax)
	if len(tax.Moods) != 8 || len(tax.Scales) != 5 {
		t.Errorf("taxonomy = %d moods, %d scales", len(tax.Moods), len(tax.Scales))
	}
}

// SSE endpoint tests.

// blockingSSE writes headers and blocks until the request context is done.
var blockingSSE = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.WriteHeader(http.StatusOK)
	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}
	<-r.Context().Done()
})

func TestSSEEvents_AuthProtected(t *testing.T) {
	env := newEnv(t, "secret", blockingSSE)
	if w := env.do(t, http.MethodGet, "/events", nil); w.Code != http.StatusUnauthorized {
		t.Errorf("SSE no auth = %d, want 401", w.Code)
	}
}

func TestSSEEvents_ValidToken(t *testing.T) {
	env := newEnv(t, "tok", blockingSSE)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	req := httptest.NewRequest(http.MethodGet, "/events", nil).WithContext(ctx)
	req.Header.Set("Authorization", "Bearer tok")
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("SSE with valid token = %d", w.Code)
	}
}

func TestSSEEvents_QueryToken(t *testing.T) {
	env := newEnv(t, "tok", blockingSSE)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	req := httptest.NewRequest(http.MethodGet, "/events?access_token=tok", nil).WithContext(ctx)
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("SSE with query token = %d", w.Code)
	}
}

// Attachment tests.

func uploadFile(t *testing.T, router http.Handler, filename string, content []byte) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", filename)
	if err != nil {
		t.Fatal(err)
	}
	_, _ = io.Copy(part, bytes.NewReader(content))
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/attachments", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

var pngBytes = append([]byte("\x89PNG\r\n\x1a\n"), make([]byte, 24)...)

func TestUploadAndServeAttachment(t *testing.T) {
	env := newEnv(t, "", nil)

	// The client's name and extension are ignored.
	w := uploadFile(t, env.router, "Photo.JPEG", pngBytes)
	if w.Code != http.StatusCreated {
		t.Fatalf("upload = %d, body = %s", w.Code, w.Body.String())
	}
	var resp AttachmentUploadResponse
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if !strings.HasSuffix(resp.Filename, ".png") || resp.Size != int64(len(pngBytes)) || resp.URL != "/attachments/"+resp.Filename {
		t.Errorf("resp = %+v", resp)
	}

	data, err := os.ReadFile(filepath.Join(env.dataDir, "attachments", resp.Filename))
	if err != nil {
		t.Fatalf("file not on disk: %v", err)
	}
	if !bytes.Equal(data, pngBytes) {
		t.Errorf("content mismatch")
	}

	r := chi.NewRouter()
	r.Get("/attachments/{filename}", NewAttachmentHandler(env.dataDir).ServeFile)
	sw := httptest.NewRecorder()
	r.ServeHTTP(sw, httptest.NewRequest(http.MethodGet, resp.URL, nil))
	if sw.Code != http.StatusOK || !bytes.Equal(sw.Body.Bytes(), pngBytes) {
		t.Errorf("serve = %d (%d bytes)", sw.Code, sw.Body.Len())
	}
	if sw.Header().Get("X-Content-Type-Options") != "nosniff" {
		t.Error("missing nosniff header")
	}
}

func TestUploadAttachment_RejectsNonImage(t *testing.T) {
	env := newEnv(t, "", nil)
	if w := uploadFile(t, env.router, "notes.txt", []byte("x")); w.Code != http.StatusBadRequest {
		t.Errorf("non-image upload = %d, want 400", w.Code)
	}
	// A PNG name does not make text an image.
	if w := uploadFile(t, env.router, "../escape.png", []byte("plain text pretending")); w.Code != http.StatusBadRequest {
		t.Errorf("disguised upload = %d, want 400", w.Code)
	}
	if _, err := os.Stat(filepath.Join(env.dataDir, "..", "escape.png")); err == nil {
		t.Error("file escaped data directory")
	}
}

func TestUploadAttachment_MissingFileField(t *testing.T) {
	env := newEnv(t, "", nil)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	_ = mw.WriteField("wrong", "data")
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/attachments", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Errorf("missing field = %d, want 400", w.Code)
	}
}

func TestServeAttachment_Guards(t *testing.T) {
	ah := NewAttachmentHandler(t.TempDir())
	r := chi.NewRouter()
	r.Get("/attachments/{filename}", ah.ServeFile)

	cases := map[string]int{
		"/attachments/nope.png":  http.StatusNotFound,
		"/attachments/notes.txt": http.StatusBadRequest,
	}
	for target, want := range cases {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, target, nil))
		if w.Code != want {
			t.Errorf("%s = %d, want %d", target, w.Code, want)
		}
	}
	for _, name := range []string{"../secret.png", "../../etc/passwd"} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/attachments/"+name, nil))
		if w.Code == http.StatusOK {
			t.Errorf("traversal %q should not return 200", name)
		}
	}
}
