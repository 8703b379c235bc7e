package httpapi

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/karuha/puzzleboard-go/internal/gamecat"
	"github.com/karuha/puzzleboard-go/internal/service/record"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	catalog, err := gamecat.New("")
	if err != nil {
		t.Fatalf("catalog: %v", err)
	}
	svc := record.NewService(record.NewMemoryRepository(), record.NewMutexLocker(), catalog, zap.NewNop())
	return NewServer(svc, catalog, zap.NewNop(), 20)
}

func doRequest(t *testing.T, s *Server, method, uri, body string) *fasthttp.RequestCtx {
	t.Helper()
	var ctx fasthttp.RequestCtx
	var req fasthttp.Request
	req.Header.SetMethod(method)
	req.SetRequestURI(uri)
	if body != "" {
		req.SetBodyString(body)
	}
	ctx.Init(&req, nil, nil)
	s.Handler(&ctx)
	return &ctx
}

func decodeBody(t *testing.T, ctx *fasthttp.RequestCtx) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal(ctx.Response.Body(), &out); err != nil {
		t.Fatalf("decode response: %v (%s)", err, ctx.Response.Body())
	}
	return out
}

func TestHealthz(t *testing.T) {
	s := newTestServer(t)
	ctx := doRequest(t, s, "GET", "/healthz", "")
	if ctx.Response.StatusCode() != fasthttp.StatusOK {
		t.Fatalf("status = %d", ctx.Response.StatusCode())
	}
}

func TestListGames(t *testing.T) {
	s := newTestServer(t)
	ctx := doRequest(t, s, "GET", "/v1/games", "")
	if ctx.Response.StatusCode() != fasthttp.StatusOK {
		t.Fatalf("status = %d", ctx.Response.StatusCode())
	}
	body := decodeBody(t, ctx)
	games, ok := body["data"].([]any)
	if !ok || len(games) == 0 {
		t.Fatalf("expected non-empty games list, got %v", body["data"])
	}
}

func TestIngestAndDuplicate(t *testing.T) {
	s := newTestServer(t)
	payload := `{"owner":"u1","game":"wordle","text":"Wordle 1,643 4/6\n\n⬛🟨⬛⬛⬛\n🟨🟩⬛⬛⬛\n🟩🟩🟩⬛⬛\n🟩🟩🟩🟩🟩"}`

	ctx := doRequest(t, s, "POST", "/v1/records", payload)
	if ctx.Response.StatusCode() != fasthttp.StatusCreated {
		t.Fatalf("status = %d body = %s", ctx.Response.StatusCode(), ctx.Response.Body())
	}
	body := decodeBody(t, ctx)
	data := body["data"].(map[string]any)
	if data["game"] != "wordle" {
		t.Fatalf("game = %v", data["game"])
	}
	if data["playstreak"].(float64) != 1 {
		t.Fatalf("playstreak = %v", data["playstreak"])
	}

	ctx = doRequest(t, s, "POST", "/v1/records", payload)
	if ctx.Response.StatusCode() != fasthttp.StatusConflict {
		t.Fatalf("duplicate status = %d", ctx.Response.StatusCode())
	}
}

func TestIngestParseErrorCarriesExample(t *testing.T) {
	s := newTestServer(t)
	payload := `{"owner":"u1","game":"wordle","text":"nothing resembling a share"}`

	ctx := doRequest(t, s, "POST", "/v1/records", payload)
	if ctx.Response.StatusCode() != fasthttp.StatusUnprocessableEntity {
		t.Fatalf("status = %d body = %s", ctx.Response.StatusCode(), ctx.Response.Body())
	}
	body := decodeBody(t, ctx)
	expected, _ := body["expected"].(string)
	if !strings.Contains(expected, "Wordle") {
		t.Fatalf("expected example share in error payload, got %q", expected)
	}
}

func TestIngestValidation(t *testing.T) {
	s := newTestServer(t)

	ctx := doRequest(t, s, "POST", "/v1/records", `{"game":"wordle","text":"x"}`)
	if ctx.Response.StatusCode() != fasthttp.StatusBadRequest {
		t.Fatalf("missing owner status = %d", ctx.Response.StatusCode())
	}

	ctx = doRequest(t, s, "POST", "/v1/records", `not json`)
	if ctx.Response.StatusCode() != fasthttp.StatusBadRequest {
		t.Fatalf("bad json status = %d", ctx.Response.StatusCode())
	}

	ctx = doRequest(t, s, "POST", "/v1/records", `{"owner":"u1","game":"nope","text":"Wordle 1 1/6"}`)
	if ctx.Response.StatusCode() != fasthttp.StatusNotFound {
		t.Fatalf("unknown game status = %d", ctx.Response.StatusCode())
	}
}

func TestStreakEndpoint(t *testing.T) {
	s := newTestServer(t)
	payload := `{"owner":"u2","game":"wordle","text":"Wordle 1,644 3/6\n\n⬛🟨⬛⬛⬛\n🟩🟩🟩⬛⬛\n🟩🟩🟩🟩🟩"}`
	ctx := doRequest(t, s, "POST", "/v1/records", payload)
	if ctx.Response.StatusCode() != fasthttp.StatusCreated {
		t.Fatalf("ingest status = %d", ctx.Response.StatusCode())
	}

	ctx = doRequest(t, s, "GET", "/v1/streak?owner=u2&game=wordle", "")
	if ctx.Response.StatusCode() != fasthttp.StatusOK {
		t.Fatalf("streak status = %d", ctx.Response.StatusCode())
	}
	body := decodeBody(t, ctx)
	data := body["data"].(map[string]any)
	if data["playstreak"].(float64) != 1 {
		t.Fatalf("playstreak = %v", data["playstreak"])
	}
	if _, ok := data["nextResetIn"].(map[string]any); !ok {
		t.Fatalf("nextResetIn missing: %v", data)
	}
}

func TestRecentEndpoint(t *testing.T) {
	s := newTestServer(t)
	payload := `{"owner":"u3","game":"wordle","text":"Wordle 1,645 5/6\n\n⬛🟨⬛⬛⬛\n🟩🟩🟩🟩🟩"}`
	ctx := doRequest(t, s, "POST", "/v1/records", payload)
	if ctx.Response.StatusCode() != fasthttp.StatusCreated {
		t.Fatalf("ingest status = %d", ctx.Response.StatusCode())
	}

	ctx = doRequest(t, s, "GET", "/v1/records?owner=u3&game=wordle&limit=5", "")
	if ctx.Response.StatusCode() != fasthttp.StatusOK {
		t.Fatalf("recent status = %d", ctx.Response.StatusCode())
	}
	body := decodeBody(t, ctx)
	records, ok := body["data"].([]any)
	if !ok || len(records) != 1 {
		t.Fatalf("expected 1 record, got %v", body["data"])
	}

	ctx = doRequest(t, s, "GET", "/v1/records?owner=u3", "")
	if ctx.Response.StatusCode() != fasthttp.StatusBadRequest {
		t.Fatalf("missing game status = %d", ctx.Response.StatusCode())
	}
}
