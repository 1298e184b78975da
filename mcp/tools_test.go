package mcp

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/travelwarn/travelwarn/api/cache"
	"github.com/travelwarn/travelwarn/api/lookup"
	"github.com/travelwarn/travelwarn/config"
)

const collectorBody = `{"TotalResults":2,"Results":[
	{"UrlName":"egypt","Data":{"pic":{"Name":"איסור נסיעה"},"details":"<p>Do not travel</p>","other":{"URL":"https://www.gov.il/he/departments/news/egypt"},"country":[[818]]}},
	{"UrlName":"atlantis","Data":{"details":"?"}}
]}`

func newTestServer(t *testing.T, h http.Handler) *Server {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	cfg := config.Default()
	cfg.Endpoint = srv.URL
	cfg.Pause = 0

	tables, err := lookup.Default()
	if err != nil {
		t.Fatal(err)
	}
	return &Server{
		cfg:    cfg,
		tables: tables,
		cache:  cache.NewAt[[]byte](t.TempDir(), time.Hour),
	}
}

func countingHandler(n *atomic.Int32) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		n.Add(1)
		io.WriteString(w, collectorBody)
	}
}

func callTool(t *testing.T, handler func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error), args map[string]any) (string, bool) {
	t.Helper()
	var req mcp.CallToolRequest
	req.Params.Arguments = args
	res, err := handler(context.Background(), req)
	if err != nil {
		t.Fatalf("handler error = %v", err)
	}
	if len(res.Content) != 1 {
		t.Fatalf("result has %d contents, want 1", len(res.Content))
	}
	text, ok := res.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatalf("content is %T, want mcp.TextContent", res.Content[0])
	}
	return text.Text, res.IsError
}

func TestGetTravelWarnings(t *testing.T) {
	var requests atomic.Int32
	s := newTestServer(t, countingHandler(&requests))
	_, handler := s.getTravelWarnings()

	text, isErr := callTool(t, handler, map[string]any{})
	if isErr {
		t.Fatalf("get_travel_warnings returned error: %s", text)
	}
	var doc struct {
		Countries map[string]json.RawMessage `json:"countries"`
		Timestamp int64                      `json:"timestamp"`
	}
	if err := json.Unmarshal([]byte(text), &doc); err != nil {
		t.Fatal(err)
	}
	if _, ok := doc.Countries["EGY"]; !ok {
		t.Errorf("countries = %v, want EGY", doc.Countries)
	}
	if _, ok := doc.Countries["atlantis"]; !ok {
		t.Errorf("countries = %v, want unmapped slug atlantis", doc.Countries)
	}

	// served from cache
	callTool(t, handler, map[string]any{})
	if got := requests.Load(); got != 1 {
		t.Errorf("collector saw %d requests, want 1", got)
	}

	callTool(t, handler, map[string]any{"refresh": true})
	if got := requests.Load(); got != 2 {
		t.Errorf("after refresh collector saw %d requests, want 2", got)
	}
}

func TestGetTravelWarningsCountry(t *testing.T) {
	var requests atomic.Int32
	s := newTestServer(t, countingHandler(&requests))
	_, handler := s.getTravelWarnings()

	type countryWarning struct {
		Code  string `json:"code"`
		Entry struct {
			WarningLevels *string
			URL           *string
			EnglishName   string
		} `json:"entry"`
	}

	for _, query := range []string{"EGY", "egy", "egypt", "Egypt"} {
		t.Run(query, func(t *testing.T) {
			text, isErr := callTool(t, handler, map[string]any{"country": query})
			if isErr {
				t.Fatalf("get_travel_warnings returned error: %s", text)
			}
			var got countryWarning
			if err := json.Unmarshal([]byte(text), &got); err != nil {
				t.Fatal(err)
			}
			if got.Code != "EGY" || got.Entry.EnglishName != "Egypt" {
				t.Errorf("got %+v", got)
			}
			if got.Entry.WarningLevels == nil || *got.Entry.WarningLevels != "4" {
				t.Errorf("WarningLevels = %v, want 4", got.Entry.WarningLevels)
			}
		})
	}

	text, isErr := callTool(t, handler, map[string]any{"country": "narnia"})
	if !isErr {
		t.Errorf("unknown country returned %s, want error", text)
	}
}

func TestGetTravelWarningsScrapeFailure(t *testing.T) {
	s := newTestServer(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusBadGateway)
	}))
	_, handler := s.getTravelWarnings()

	if text, isErr := callTool(t, handler, map[string]any{}); !isErr {
		t.Errorf("got %s, want error result", text)
	}
	if _, ok := s.cache.Get("snapshot/" + s.cfg.TemplateID.String()); ok {
		t.Error("failed scrape was cached")
	}
}

func TestGetTravelWarningsSharesScrape(t *testing.T) {
	var requests atomic.Int32
	release := make(chan struct{})
	s := newTestServer(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		<-release
		io.WriteString(w, collectorBody)
	}))
	_, handler := s.getTravelWarnings()

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			var req mcp.CallToolRequest
			req.Params.Arguments = map[string]any{"refresh": true}
			res, err := handler(context.Background(), req)
			if err != nil || res.IsError {
				t.Errorf("call failed: %v %+v", err, res)
			}
		}()
	}
	// give every caller time to join the in-flight scrape
	time.Sleep(100 * time.Millisecond)
	close(release)
	wg.Wait()

	if got := requests.Load(); got != 1 {
		t.Errorf("collector saw %d requests, want 1", got)
	}
}

func TestResolveCountry(t *testing.T) {
	s := newTestServer(t, http.NotFoundHandler())
	_, handler := s.resolveCountry()

	tests := []struct {
		name    string
		args    map[string]any
		want    map[string]any
		wantErr bool
	}{
		{
			name: "mapped slug with code",
			args: map[string]any{"slug": "egypt", "country_code": "818"},
			want: map[string]any{"slug": "egypt", "code": "EGY", "mapped": true, "hebrew_name": "מצרים", "english_name": "Egypt"},
		},
		{
			name: "unmapped slug passes through",
			args: map[string]any{"slug": "atlantis"},
			want: map[string]any{"slug": "atlantis", "code": "atlantis", "mapped": false, "hebrew_name": "NA", "english_name": "NA"},
		},
		{
			name:    "missing slug",
			args:    map[string]any{"country_code": "818"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			text, isErr := callTool(t, handler, tt.args)
			if isErr != tt.wantErr {
				t.Fatalf("isError = %v, want %v (%s)", isErr, tt.wantErr, text)
			}
			if tt.wantErr {
				return
			}
			var got map[string]any
			if err := json.Unmarshal([]byte(text), &got); err != nil {
				t.Fatal(err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("resolve_country mismatch (-want +got):\n%s", diff)
			}
		})
	}
}
