package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/seoscout/seoscout/internal/history"
	"github.com/seoscout/seoscout/internal/history/memory"
	"github.com/seoscout/seoscout/internal/id/uuid"
	"github.com/seoscout/seoscout/internal/metrics"
	"github.com/seoscout/seoscout/internal/report"
	"github.com/seoscout/seoscout/internal/seo"
	"github.com/seoscout/seoscout/internal/tasks"
)

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now().UTC() }

// stubAnalyzer returns a canned score per URL, or an error for URLs
// registered as failing.
type stubAnalyzer struct {
	failing map[string]string
	delay   time.Duration
}

func (a *stubAnalyzer) Analyze(_ context.Context, target string, useAI bool) (seo.AnalysisResult, error) {
	if a.delay > 0 {
		time.Sleep(a.delay)
	}
	if msg, ok := a.failing[target]; ok {
		return seo.AnalysisResult{}, errors.New(msg)
	}
	result := seo.AnalysisResult{
		URL:          target,
		Timestamp:    time.Now().UTC(),
		OverallScore: 82,
		SubScores:    map[string]int{"basic_seo": 82},
		Summary:      seo.Summary{OverallScore: 82, CriticalIssues: 1, Warnings: 2},
	}
	if useAI {
		result.AIInsights = map[string]any{"readability": "easy to read"}
	}
	return result, nil
}

type testEnv struct {
	server   *httptest.Server
	store    *memory.Store
	registry *tasks.Registry
	analyzer *stubAnalyzer
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	metrics.Init()

	store := memory.New()
	registry := tasks.NewRegistry(
		tasks.Config{MaxTasks: 50, ProgressInterval: 5 * time.Millisecond},
		uuid.New(),
		systemClock{},
		zap.NewNop(),
	)
	analyzer := &stubAnalyzer{failing: map[string]string{}}

	renderer, err := report.NewRenderer(systemClock{})
	require.NoError(t, err)
	files, err := report.NewFileStore(t.TempDir())
	require.NoError(t, err)

	srv := NewServer(registry, store, analyzer, renderer, files, uuid.New(), systemClock{}, zap.NewNop())
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)

	return &testEnv{server: ts, store: store, registry: registry, analyzer: analyzer}
}

func (e *testEnv) postForm(t *testing.T, path string, form url.Values) *http.Response {
	t.Helper()
	resp, err := http.PostForm(e.server.URL+path, form)
	require.NoError(t, err)
	return resp
}

func (e *testEnv) get(t *testing.T, path string) *http.Response {
	t.Helper()
	resp, err := http.Get(e.server.URL + path)
	require.NoError(t, err)
	return resp
}

func decodeJSON(t *testing.T, resp *http.Response, into any) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(into))
}

func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	defer resp.Body.Close()
	var sb strings.Builder
	_, err := io.Copy(&sb, resp.Body)
	require.NoError(t, err)
	return sb.String()
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t)

	resp := env.get(t, "/health")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body map[string]string
	decodeJSON(t, resp, &body)
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, "seoscout", body["service"])
	assert.NotEmpty(t, body["timestamp"])
}

func TestIndexPage(t *testing.T) {
	env := newTestEnv(t)

	resp := env.get(t, "/")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, readBody(t, resp), "SEO Scout")
}

func TestAnalyzeAsyncLifecycle(t *testing.T) {
	env := newTestEnv(t)

	resp := env.postForm(t, "/analyze/async", url.Values{"url": {"https://acme.test/"}, "useAi": {"on"}})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var started map[string]string
	decodeJSON(t, resp, &started)
	taskID := started["task_id"]
	require.NotEmpty(t, taskID)
	assert.Equal(t, "started", started["status"])

	// poll until the background run finishes
	require.Eventually(t, func() bool {
		task, ok := env.registry.GetTask(taskID)
		return ok && task.Status == tasks.StatusCompleted
	}, 2*time.Second, 10*time.Millisecond)

	statusResp := env.get(t, "/task/"+taskID+"/status")
	require.Equal(t, http.StatusOK, statusResp.StatusCode)
	var view tasks.View
	decodeJSON(t, statusResp, &view)
	assert.Equal(t, tasks.StatusCompleted, view.Status)
	assert.Equal(t, 100, view.Progress)

	// first retrieval persists
	first := env.get(t, "/task/"+taskID+"/result")
	require.Equal(t, http.StatusOK, first.StatusCode)
	var firstBody map[string]any
	decodeJSON(t, first, &firstBody)
	analysisID, _ := firstBody["analysis_id"].(string)
	require.NotEmpty(t, analysisID)

	// second retrieval returns the same record id, no duplicate row
	second := env.get(t, "/task/"+taskID+"/result")
	require.Equal(t, http.StatusOK, second.StatusCode)
	var secondBody map[string]any
	decodeJSON(t, second, &secondBody)
	assert.Equal(t, analysisID, secondBody["analysis_id"])

	all, err := env.store.List(context.Background(), 0)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestAnalyzeAsyncRequiresURL(t *testing.T) {
	env := newTestEnv(t)

	resp := env.postForm(t, "/analyze/async", url.Values{})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()
}

func TestTaskStatusNotFound(t *testing.T) {
	env := newTestEnv(t)

	resp := env.get(t, "/task/no-such-task/status")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()
}

func TestTaskResultBeforeCompletion(t *testing.T) {
	env := newTestEnv(t)
	env.analyzer.delay = 200 * time.Millisecond

	resp := env.postForm(t, "/analyze/async", url.Values{"url": {"https://slow.test/"}})
	var started map[string]string
	decodeJSON(t, resp, &started)

	result := env.get(t, "/task/"+started["task_id"]+"/result")
	require.Equal(t, http.StatusBadRequest, result.StatusCode)

	var body map[string]any
	decodeJSON(t, result, &body)
	assert.NotEmpty(t, body["error"])
	assert.Contains(t, body, "progress")
	assert.Contains(t, body, "status")
}

func TestTaskResultAfterFailure(t *testing.T) {
	env := newTestEnv(t)
	env.analyzer.failing["https://down.test/"] = "unable to fetch page content"

	resp := env.postForm(t, "/analyze/async", url.Values{"url": {"https://down.test/"}})
	var started map[string]string
	decodeJSON(t, resp, &started)
	taskID := started["task_id"]

	require.Eventually(t, func() bool {
		task, ok := env.registry.GetTask(taskID)
		return ok && task.Status == tasks.StatusFailed
	}, 2*time.Second, 10*time.Millisecond)

	result := env.get(t, "/task/"+taskID+"/result")
	require.Equal(t, http.StatusBadRequest, result.StatusCode)

	var body map[string]any
	decodeJSON(t, result, &body)
	assert.Equal(t, "failed", body["status"])
	assert.Contains(t, body["error"], "unable to fetch page content")

	// failed runs are never persisted
	all, err := env.store.List(context.Background(), 0)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestAnalyzeSyncSingle(t *testing.T) {
	env := newTestEnv(t)

	resp := env.postForm(t, "/analyze", url.Values{"url": {"https://acme.test/"}, "useAi": {"on"}})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body := readBody(t, resp)
	assert.Contains(t, body, "https://acme.test/")
	assert.Contains(t, body, "82")

	all, err := env.store.List(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.True(t, all[0].UseAI)
}

func TestAnalyzeSyncBatchWithFailure(t *testing.T) {
	env := newTestEnv(t)
	env.analyzer.failing["https://down.test/"] = "unable to fetch page content"

	form := url.Values{"batchUrls": {"https://a.test/\nhttps://down.test/\nhttps://b.test/"}}
	resp := env.postForm(t, "/analyze", form)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body := readBody(t, resp)
	assert.Contains(t, body, "https://a.test/")
	assert.Contains(t, body, "unable to fetch page content")

	// only the successes are persisted
	all, err := env.store.List(context.Background(), 0)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestAnalyzeSyncRequiresURLs(t *testing.T) {
	env := newTestEnv(t)

	resp := env.postForm(t, "/analyze", url.Values{"batchUrls": {"\n  \n"}})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()
}

func savedRecord(t *testing.T, env *testEnv, id string) {
	t.Helper()
	require.NoError(t, env.store.Save(context.Background(), history.AnalysisRecord{
		ID:             id,
		URL:            "https://acme.test/",
		Timestamp:      time.Now().UTC(),
		AnalysisResult: []byte(`{"url": "https://acme.test/", "overall_score": 82}`),
		Status:         "completed",
		SEOScore:       82,
		UseAI:          true,
	}))
}

func TestReportPage(t *testing.T) {
	env := newTestEnv(t)
	savedRecord(t, env, "rec-1")

	resp := env.get(t, "/report/rec-1")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/html")
	assert.Contains(t, readBody(t, resp), "https://acme.test/")

	missing := env.get(t, "/report/no-such-id")
	assert.Equal(t, http.StatusNotFound, missing.StatusCode)
	missing.Body.Close()
}

func TestDownloadReport(t *testing.T) {
	env := newTestEnv(t)
	savedRecord(t, env, "rec-1")

	resp := env.get(t, "/download/rec-1")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Disposition"), "seo_report_rec-1.html")
	resp.Body.Close()
}

func TestBatchReport(t *testing.T) {
	env := newTestEnv(t)
	savedRecord(t, env, "rec-1")
	savedRecord(t, env, "rec-2")

	resp := env.get(t, "/batch-report?ids=rec-1,rec-2,missing")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, readBody(t, resp), "Batch Comparison")

	none := env.get(t, "/batch-report?ids=missing")
	assert.Equal(t, http.StatusNotFound, none.StatusCode)
	none.Body.Close()

	empty := env.get(t, "/batch-report")
	assert.Equal(t, http.StatusBadRequest, empty.StatusCode)
	empty.Body.Close()
}

func TestHistoryPageAndStats(t *testing.T) {
	env := newTestEnv(t)
	savedRecord(t, env, "rec-1")

	page := env.get(t, "/history")
	require.Equal(t, http.StatusOK, page.StatusCode)
	assert.Contains(t, readBody(t, page), "https://acme.test/")

	statsResp := env.get(t, "/api/stats")
	require.Equal(t, http.StatusOK, statsResp.StatusCode)
	var stats history.Stats
	decodeJSON(t, statsResp, &stats)
	assert.Equal(t, 1, stats.Total)
	assert.Equal(t, 1, stats.Successful)
}

func TestDeleteHistory(t *testing.T) {
	env := newTestEnv(t)
	savedRecord(t, env, "rec-1")

	req, err := http.NewRequest(http.MethodDelete, env.server.URL+"/api/history/rec-1", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	again, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, again.StatusCode)
	again.Body.Close()
}

func TestClearHistoryRedirects(t *testing.T) {
	env := newTestEnv(t)
	savedRecord(t, env, "rec-1")

	client := &http.Client{CheckRedirect: func(*http.Request, []*http.Request) error {
		return http.ErrUseLastResponse
	}}
	resp, err := client.PostForm(env.server.URL+"/clear_history", url.Values{})
	require.NoError(t, err)
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	resp.Body.Close()

	all, err := env.store.List(context.Background(), 0)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestMetricsEndpoint(t *testing.T) {
	env := newTestEnv(t)

	resp := env.get(t, "/metrics")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()
}

func TestRequestIDHeader(t *testing.T) {
	env := newTestEnv(t)

	resp := env.get(t, "/health")
	assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))
	resp.Body.Close()
}
