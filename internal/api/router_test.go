package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	fastws "github.com/fasthttp/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/comment-insight/backend/internal/analysis"
	"github.com/comment-insight/backend/internal/api/handlers"
	"github.com/comment-insight/backend/internal/models"
	"github.com/comment-insight/backend/internal/query"
	"github.com/comment-insight/backend/internal/runs"
	"github.com/comment-insight/backend/pkg/config"
)

type keywordSubmitter struct{}

func (keywordSubmitter) Submit(_ context.Context, c models.Comment) (models.AnalysisResult, error) {
	switch {
	case strings.Contains(c.Text, "broken"):
		return models.AnalysisResult{}, &analysis.AnalysisError{Attempts: 3, Err: analysis.ErrTransport}
	case strings.Contains(c.Text, "love"):
		return models.NewResult(c, models.Verdict{Sentiment: models.SentimentPositive, Confidence: 0.9, Summary: "Positive remark", Keywords: []string{"love"}}), nil
	default:
		return models.NewResult(c, models.Verdict{Sentiment: models.SentimentNegative, Confidence: 0.7, Summary: "Complaint", Keywords: []string{"wait"}}), nil
	}
}

type fakeFlusher struct{ calls int }

func (f *fakeFlusher) Flush(context.Context) (int, error) {
	f.calls++
	return 4, nil
}

func testConfig() *config.Config {
	return &config.Config{
		Server:  config.ServerConfig{BodyLimit: 4 * 1024 * 1024},
		Logging: config.LoggingConfig{Level: "info"},
	}
}

func newTestApp(t *testing.T, flusher handlers.Flusher) *fiber.App {
	t.Helper()
	svc := runs.NewService(keywordSubmitter{}, 4, runs.NewRegistry(8, time.Hour), query.NewEngine(10, 100))
	return NewApp(Deps{Config: testConfig(), Service: svc, Cache: flusher})
}

func multipartBody(t *testing.T, files map[string]string, order []string) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)
	for _, name := range order {
		part, err := w.CreateFormFile("files", name)
		require.NoError(t, err)
		_, err = io.WriteString(part, files[name])
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return body, w.FormDataContentType()
}

func decode(t *testing.T, resp *http.Response, out any) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
}

func createRun(t *testing.T, app *fiber.App) map[string]any {
	t.Helper()
	body, contentType := multipartBody(t, map[string]string{
		"survey.csv": "comment,score\n\"I love it, really\",5\nToo long a wait,2\nbroken page,1\n",
		"note.txt":   "love the staff",
		"image.png":  "\x89PNG",
	}, []string{"survey.csv", "note.txt", "image.png"})

	req := httptest.NewRequest("POST", "/api/v1/runs", body)
	req.Header.Set("Content-Type", contentType)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	var out map[string]any
	decode(t, resp, &out)
	return out
}

func TestCreateRun(t *testing.T) {
	app := newTestApp(t, nil)
	out := createRun(t, app)

	assert.NotEmpty(t, out["id"])
	assert.Equal(t, []any{"survey.csv", "note.txt"}, out["accepted"])
	assert.Equal(t, []any{"image.png"}, out["rejected"])
	assert.Equal(t, []any{}, out["extractionErrors"])

	summary := out["summary"].(map[string]any)
	assert.Equal(t, float64(4), summary["total"])
	assert.Equal(t, "Positive", summary["dominantSentiment"])
	assert.Equal(t, "love", summary["topKeyword"])
	counts := summary["sentimentCounts"].(map[string]any)
	assert.Equal(t, float64(1), counts["Error"])
}

func TestCreateRun_NoComments(t *testing.T) {
	app := newTestApp(t, nil)
	body, contentType := multipartBody(t, map[string]string{"empty.csv": "comment\n"}, []string{"empty.csv"})

	req := httptest.NewRequest("POST", "/api/v1/runs", body)
	req.Header.Set("Content-Type", contentType)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnprocessableEntity, resp.StatusCode)

	var out map[string]any
	decode(t, resp, &out)
	assert.Equal(t, []any{"empty.csv"}, out["accepted"])
}

func TestRunLifecycle(t *testing.T) {
	app := newTestApp(t, nil)
	id := createRun(t, app)["id"].(string)

	resp, err := app.Test(httptest.NewRequest("GET", "/api/v1/runs/"+id, nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest("GET", "/api/v1/runs/"+id+"/results?search=love&sort=confidence&dir=desc&pageSize=1&page=2", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var page query.Page
	decode(t, resp, &page)
	assert.Equal(t, 2, page.TotalMatches)
	assert.Equal(t, 2, page.TotalPages)
	require.Len(t, page.Items, 1)
	assert.Equal(t, 2, page.From)
	assert.Equal(t, 2, page.To)

	resp, err = app.Test(httptest.NewRequest("DELETE", "/api/v1/runs/"+id, nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNoContent, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest("GET", "/api/v1/runs/"+id, nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestResults_BadParams(t *testing.T) {
	app := newTestApp(t, nil)
	id := createRun(t, app)["id"].(string)

	for _, qs := range []string{"page=0", "pageSize=-1", "pageSize=101", "sort=keywords", "dir=up", "page=abc"} {
		resp, err := app.Test(httptest.NewRequest("GET", "/api/v1/runs/"+id+"/results?"+qs, nil))
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode, qs)
	}

	resp, err := app.Test(httptest.NewRequest("GET", "/api/v1/runs/2b4c5d6e-7f80-4912-a3b4-c5d6e7f80912/results", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestResults_MaxPageSize(t *testing.T) {
	app := newTestApp(t, nil)
	id := createRun(t, app)["id"].(string)

	resp, err := app.Test(httptest.NewRequest("GET", "/api/v1/runs/"+id+"/results?pageSize=100", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var page query.Page
	decode(t, resp, &page)
	assert.Equal(t, 100, page.PageSize)
	assert.Len(t, page.Items, 4)

	resp, err = app.Test(httptest.NewRequest("GET", "/api/v1/runs/"+id+"/results?pageSize=101", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	var out map[string]any
	decode(t, resp, &out)
	assert.Contains(t, out["error"], "at most 100")
}

func TestAnalyzeComment(t *testing.T) {
	app := newTestApp(t, nil)

	post := func(body string) *http.Response {
		req := httptest.NewRequest("POST", "/api/v1/analyze", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		resp, err := app.Test(req, -1)
		require.NoError(t, err)
		return resp
	}

	resp := post(`{"text":"I love this"}`)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var result models.AnalysisResult
	decode(t, resp, &result)
	assert.Equal(t, runs.SingleCommentSource, result.SourceFile)
	assert.Equal(t, models.SentimentPositive, result.Sentiment)

	assert.Equal(t, fiber.StatusBadRequest, post(`{"text":"   "}`).StatusCode)
	assert.Equal(t, fiber.StatusBadGateway, post(`{"text":"broken again"}`).StatusCode)
}

func TestCacheFlushRoute(t *testing.T) {
	resp, err := newTestApp(t, nil).Test(httptest.NewRequest("DELETE", "/api/v1/cache", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)

	f := &fakeFlusher{}
	resp, err = newTestApp(t, f).Test(httptest.NewRequest("DELETE", "/api/v1/cache", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, 1, f.calls)
}

func TestWebSocketRun_EventOrder(t *testing.T) {
	app := newTestApp(t, nil)
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	go func() { _ = app.Listener(ln) }()
	t.Cleanup(func() { _ = app.Shutdown() })

	conn, _, err := fastws.DefaultDialer.Dial("ws://"+ln.Addr().String()+"/ws/runs", nil)
	require.NoError(t, err)
	defer conn.Close()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(10*time.Second)))

	require.NoError(t, conn.WriteJSON(map[string]any{
		"type": "start",
		"files": []map[string]any{
			{"name": "survey.csv", "content": []byte("comment\nI love it\nToo long a wait\n")},
			{"name": "note.txt", "content": []byte("love the staff")},
			{"name": "image.png", "content": []byte("\x89PNG")},
		},
	}))

	var ingested map[string]any
	require.NoError(t, conn.ReadJSON(&ingested))
	assert.Equal(t, "ingested", ingested["type"])
	assert.Equal(t, []any{"survey.csv", "note.txt"}, ingested["accepted"])
	assert.Equal(t, []any{"image.png"}, ingested["rejected"])
	assert.Equal(t, float64(3), ingested["comments"])

	for want := 1; want <= 3; want++ {
		var progress map[string]any
		require.NoError(t, conn.ReadJSON(&progress))
		assert.Equal(t, "progress", progress["type"])
		assert.Equal(t, float64(want), progress["completed"])
		assert.Equal(t, float64(3), progress["total"])
	}

	var complete struct {
		Type string         `json:"type"`
		Run  map[string]any `json:"run"`
	}
	require.NoError(t, conn.ReadJSON(&complete))
	assert.Equal(t, "complete", complete.Type)
	assert.NotEmpty(t, complete.Run["id"])

	resp, err := app.Test(httptest.NewRequest("GET", "/api/v1/runs/"+complete.Run["id"].(string), nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestWebSocketRun_NoComments(t *testing.T) {
	app := newTestApp(t, nil)
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	go func() { _ = app.Listener(ln) }()
	t.Cleanup(func() { _ = app.Shutdown() })

	conn, _, err := fastws.DefaultDialer.Dial("ws://"+ln.Addr().String()+"/ws/runs", nil)
	require.NoError(t, err)
	defer conn.Close()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(10*time.Second)))

	require.NoError(t, conn.WriteJSON(map[string]any{
		"type":  "start",
		"files": []map[string]any{{"name": "empty.csv", "content": []byte("comment\n")}},
	}))

	var ingested, failed map[string]any
	require.NoError(t, conn.ReadJSON(&ingested))
	assert.Equal(t, "ingested", ingested["type"])
	assert.Equal(t, float64(0), ingested["comments"])

	require.NoError(t, conn.ReadJSON(&failed))
	assert.Equal(t, "error", failed["type"])
	assert.Equal(t, "No comments found in the uploaded files", failed["error"])
}
