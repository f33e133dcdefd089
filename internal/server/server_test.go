package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TobiSchelling/lightnote/internal/database"
	"github.com/TobiSchelling/lightnote/internal/insights"
	"github.com/TobiSchelling/lightnote/internal/journal"
	"github.com/TobiSchelling/lightnote/internal/llm"
	"github.com/TobiSchelling/lightnote/internal/pipeline"
	"github.com/TobiSchelling/lightnote/internal/rollup"
	"github.com/TobiSchelling/lightnote/internal/themes"
	"github.com/TobiSchelling/lightnote/internal/week"
)

type stubProvider struct {
	reply string
}

func (s stubProvider) Generate(context.Context, llm.Request) (string, error) { return s.reply, nil }
func (s stubProvider) IsConfigured() bool                                    { return true }

type gatedProvider struct {
	started chan struct{}
	release chan struct{}
	once    sync.Once
}

func (g *gatedProvider) Generate(ctx context.Context, _ llm.Request) (string, error) {
	g.once.Do(func() { close(g.started) })
	<-g.release
	return "not json", nil
}

func (g *gatedProvider) IsConfigured() bool { return true }

type fixture struct {
	db  *database.DB
	gen *pipeline.Generator
	ins *insights.Service
	srv *Server
}

func newFixture(t *testing.T, provider llm.Provider) *fixture {
	t.Helper()
	db, err := database.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	x := themes.NewExtractor(provider, themes.NewCache(db.Blobs(themes.Namespace)))
	gen := pipeline.New(db, rollup.NewCache(db.Blobs(rollup.Namespace)), x, nil)
	ins := insights.NewService(db)
	srv, err := New(db, gen, ins, provider)
	require.NoError(t, err)
	srv.now = func() time.Time { return week.MustRange("2025-W07").Start.Add(80 * time.Hour) }
	return &fixture{db: db, gen: gen, ins: ins, srv: srv}
}

func (f *fixture) seed(t *testing.T) {
	t.Helper()
	start := week.MustRange("2025-W07").Start
	s := journal.NewSentiment(-0.5, 0, 0.5, 0.5)
	_, err := f.db.UpsertEntries(context.Background(), []journal.Entry{
		{ID: "a", Text: "work deadline kept me up late", CreatedAt: start.Add(23 * time.Hour), Sentiment: &s},
		{ID: "b", Text: "quiet evening reading at home", CreatedAt: start.Add(44 * time.Hour)},
	})
	require.NoError(t, err)
}

func (f *fixture) do(method, target string, form url.Values) *httptest.ResponseRecorder {
	var req *http.Request
	if form != nil {
		req = httptest.NewRequest(method, target, strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rec := httptest.NewRecorder()
	f.srv.Handler().ServeHTTP(rec, req)
	return rec
}

func TestIndexListsWeeks(t *testing.T) {
	f := newFixture(t, nil)
	f.seed(t)

	rec := f.do("GET", "/", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "Weekly Digests")
	assert.Contains(t, body, `href="/week/2025-W07"`)
	assert.Contains(t, body, "this week")
}

func TestIndexUnknownPath(t *testing.T) {
	f := newFixture(t, nil)
	rec := f.do("GET", "/nope", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestWeekPageGeneratesDigest(t *testing.T) {
	f := newFixture(t, nil)
	f.seed(t)

	rec := f.do("GET", "/week/2025-W07", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "Weekly Digest 2025-W07")
	assert.Contains(t, body, "<h2>")
	assert.NotContains(t, body, "Ask AI", "reflection needs a provider")

	stored, err := f.db.GetDigest(context.Background(), "2025-W07")
	require.NoError(t, err)
	assert.NotNil(t, stored)
}

func TestWeekPageEmptyWeek(t *testing.T) {
	f := newFixture(t, nil)
	rec := f.do("GET", "/week/2025-W03", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "No entries yet this week.")
}

func TestWeekPageMalformedKey(t *testing.T) {
	f := newFixture(t, nil)
	rec := f.do("GET", "/week/2025-07", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRefreshRedirects(t *testing.T) {
	f := newFixture(t, nil)
	f.seed(t)

	rec := f.do("POST", "/week/2025-W07/refresh", url.Values{})
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.True(t, strings.HasPrefix(rec.Header().Get("Location"), "/week/2025-W07?status="))
}

func TestRefreshConflictWhileGenerating(t *testing.T) {
	p := &gatedProvider{started: make(chan struct{}), release: make(chan struct{})}
	f := newFixture(t, p)
	f.seed(t)

	done := make(chan error, 1)
	go func() {
		_, err := f.gen.Generate(context.Background(), "2025-W07")
		done <- err
	}()
	<-p.started

	rec := f.do("POST", "/week/2025-W07/refresh", url.Values{})
	assert.Equal(t, http.StatusConflict, rec.Code)

	close(p.release)
	require.NoError(t, <-done)
}

func TestSaveAndDeleteInsight(t *testing.T) {
	f := newFixture(t, nil)
	f.seed(t)
	_, err := f.gen.Generate(context.Background(), "2025-W07")
	require.NoError(t, err)

	rec := f.do("POST", "/insights/save", url.Values{"week": {"2025-W07"}})
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Contains(t, rec.Header().Get("Location"), "Insight+saved")

	rec = f.do("POST", "/insights/save", url.Values{"week": {"2025-W07"}})
	assert.Contains(t, rec.Header().Get("Location"), "Already+saved")

	list, err := f.ins.List(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 1)

	rec = f.do("GET", "/insights", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "1 saved")
	assert.Contains(t, rec.Body.String(), "week:2025-W07")

	rec = f.do("POST", "/insights/"+list[0].ID+"/delete", url.Values{})
	assert.Equal(t, http.StatusSeeOther, rec.Code)

	rec = f.do("POST", "/insights/"+list[0].ID+"/delete", url.Values{})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSaveInsightWithoutDigest(t *testing.T) {
	f := newFixture(t, nil)
	rec := f.do("POST", "/insights/save", url.Values{"week": {"2025-W07"}})
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Contains(t, rec.Header().Get("Location"), "/week/2025-W07")

	rec = f.do("POST", "/insights/save", url.Values{"week": {"bogus"}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAskSavesReflection(t *testing.T) {
	f := newFixture(t, stubProvider{reply: "Pattern: late work nights."})
	f.seed(t)

	rec := f.do("GET", "/week/2025-W07", nil)
	assert.Contains(t, rec.Body.String(), "Ask AI")

	rec = f.do("POST", "/week/2025-W07/ask", url.Values{})
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.True(t, strings.HasPrefix(rec.Header().Get("Location"), "/insights"))

	list, err := f.ins.List(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, insights.ScopeWeekAI, list[0].Scope)

	rec = f.do("GET", "/insights", nil)
	assert.Contains(t, rec.Body.String(), "AI Reflection")
}

func TestStaticCSS(t *testing.T) {
	f := newFixture(t, nil)
	rec := f.do("GET", "/static/style.css", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "--accent")
}
