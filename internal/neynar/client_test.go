package neynar

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"coinit/internal/model"
)

var (
	start = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	now   = start.Add(10 * time.Minute)
)

// feedServer serves /feed/channel with the given casts and counts hits.
func feedServer(t *testing.T, casts []map[string]any) (*httptest.Server, *int) {
	t.Helper()
	hits := 0
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		if r.Header.Get("x-api-key") != "test-key" {
			t.Errorf("missing api key header")
		}
		if r.URL.Path != "/feed/channel" {
			http.NotFound(w, r)
			return
		}
		if r.URL.Query().Get("channel_id") != "plants" {
			t.Errorf("channel_id = %q", r.URL.Query().Get("channel_id"))
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"casts": casts})
	}))
	t.Cleanup(ts.Close)
	return ts, &hits
}

func newTestClient(ts *httptest.Server) *Client {
	return New(Options{
		BaseURL:     ts.URL,
		APIKey:      "test-key",
		HTTPClient:  ts.Client(),
		MaxAttempts: 1,
		BaseBackoff: time.Millisecond,
		Start:       start,
		Now:         func() time.Time { return now },
	})
}

func cast(hash string, ts time.Time, embeds ...map[string]any) map[string]any {
	if embeds == nil {
		embeds = []map[string]any{}
	}
	return map[string]any{
		"hash":      hash,
		"author":    map[string]any{"username": "fern", "display_name": "Fern"},
		"text":      "new leaf",
		"timestamp": ts.Format(time.RFC3339Nano),
		"embeds":    embeds,
	}
}

func TestGetNewImagesIncludesImagePostAndAdvances(t *testing.T) {
	ts, _ := feedServer(t, []map[string]any{
		cast("0xabc", start.Add(time.Minute), map[string]any{"url": "http://x/a.jpg", "mime_type": "image/jpeg"}),
	})
	c := newTestClient(ts)

	got := c.GetNewImages(context.Background(), "plants", 20)
	if len(got) != 1 {
		t.Fatalf("expected 1 post, got %d", len(got))
	}
	if got[0].ID != "0xabc" || len(got[0].ImageURLs) != 1 || got[0].ImageURLs[0] != "http://x/a.jpg" {
		t.Fatalf("unexpected post: %+v", got[0])
	}
	if got[0].DisplayName != "Fern" || got[0].Username != "fern" {
		t.Fatalf("author not mapped: %+v", got[0])
	}
	if !c.Watermark().Equal(now) {
		t.Fatalf("watermark = %v, want %v", c.Watermark(), now)
	}
}

func TestGetNewImagesExcludesPostsWithoutImages(t *testing.T) {
	ts, _ := feedServer(t, []map[string]any{
		cast("0xnone", start.Add(time.Minute)),
		cast("0xlink", start.Add(time.Minute), map[string]any{"url": "https://example.com/article"}),
		cast("0xvideo", start.Add(time.Minute), map[string]any{"url": "https://x/v.mp4", "metadata": map[string]any{"content_type": "video/mp4"}}),
	})
	c := newTestClient(ts)

	if got := c.GetNewImages(context.Background(), "plants", 20); len(got) != 0 {
		t.Fatalf("expected no posts, got %+v", got)
	}
	if !c.Watermark().Equal(start) {
		t.Fatalf("watermark moved to %v without qualifying posts", c.Watermark())
	}
}

func TestGetNewImagesSkipsPostsAtOrBeforeWatermark(t *testing.T) {
	img := map[string]any{"url": "http://x/a.png"}
	ts, _ := feedServer(t, []map[string]any{
		cast("0xold", start.Add(-time.Minute), img),
		cast("0xsame", start, img),
	})
	c := newTestClient(ts)
	if got := c.GetNewImages(context.Background(), "plants", 20); len(got) != 0 {
		t.Fatalf("expected old posts to be skipped, got %d", len(got))
	}
	if !c.Watermark().Equal(start) {
		t.Fatalf("watermark moved")
	}
}

func TestGetNewImagesMatchesByMimeAndEmbeddedMedia(t *testing.T) {
	c1 := cast("0x1", start.Add(time.Minute),
		map[string]any{"url": "https://cdn/abc", "metadata": map[string]any{"content_type": "image/webp"}},
		map[string]any{"url": "https://cdn/b.gif"},
		map[string]any{"url": "https://cdn/C.JPG"},
		map[string]any{"url": "https://cdn/d", "mime_type": "IMAGE/PNG"},
	)
	c1["embedded_media"] = []map[string]any{{"url": "https://media/c", "type": "image"}}
	c1["text"] = "  fern day \n"
	ts, _ := feedServer(t, []map[string]any{c1})
	c := newTestClient(ts)

	got := c.GetNewImages(context.Background(), "plants", 20)
	if len(got) != 1 {
		t.Fatalf("expected 1 post, got %d", len(got))
	}
	want := []string{"https://cdn/abc", "https://cdn/b.gif", "https://media/c"}
	if fmt.Sprint(got[0].ImageURLs) != fmt.Sprint(want) {
		t.Fatalf("image urls = %v, want %v", got[0].ImageURLs, want)
	}
	if got[0].Text != "fern day" {
		t.Fatalf("text not trimmed: %q", got[0].Text)
	}
}

func TestGetChannelPostsSwallowsFailures(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer ts.Close()
	c := newTestClient(ts)

	posts := c.GetChannelPosts(context.Background(), "plants", 20)
	if posts == nil || len(posts) != 0 {
		t.Fatalf("expected empty non-nil slice, got %#v", posts)
	}
	if got := c.GetNewImages(context.Background(), "plants", 20); len(got) != 0 {
		t.Fatalf("expected no images on failure")
	}
	if !c.Watermark().Equal(start) {
		t.Fatalf("watermark moved on failure")
	}
}

func TestGetChannelInfo(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/channel/search" {
			http.NotFound(w, r)
			return
		}
		q := r.URL.Query()
		wantType := "name"
		if q.Get("q") == "123" {
			wantType = "channel_id"
		}
		if q.Get("type") != wantType {
			t.Errorf("type = %q, want %q", q.Get("type"), wantType)
		}
		_, _ = w.Write([]byte(`{"channels":[{"id":"plantsmore","name":"More"},{"id":"plants","name":"Plants","follower_count":42}]}`))
	}))
	defer ts.Close()
	c := newTestClient(ts)

	ch, err := c.GetChannelInfo(context.Background(), "plants")
	if err != nil {
		t.Fatal(err)
	}
	if ch.Name != "Plants" || ch.FollowerCount != 42 {
		t.Fatalf("unexpected channel: %+v", ch)
	}
	if _, err := c.GetChannelInfo(context.Background(), "123"); err != nil {
		t.Fatal(err)
	}
}

func TestGetChannelInfoReturnsNetworkError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"message":"bad key"}`))
	}))
	defer ts.Close()
	c := newTestClient(ts)

	_, err := c.GetChannelInfo(context.Background(), "plants")
	var ne *model.NetworkError
	if !errors.As(err, &ne) {
		t.Fatalf("expected NetworkError, got %v", err)
	}
	if ne.Status != http.StatusUnauthorized {
		t.Fatalf("status = %d", ne.Status)
	}
}

func TestVerifyImageURL(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodHead {
			t.Errorf("method = %s", r.Method)
		}
		switch r.URL.Path {
		case "/ok.png":
			w.Header().Set("Content-Type", "image/png")
		case "/page":
			w.Header().Set("Content-Type", "text/html")
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	c := newTestClient(ts)
	ctx := context.Background()

	if !c.VerifyImageURL(ctx, ts.URL+"/ok.png") {
		t.Fatal("expected reachable image")
	}
	if c.VerifyImageURL(ctx, ts.URL+"/page") {
		t.Fatal("non-image content type should fail")
	}
	if c.VerifyImageURL(ctx, ts.URL+"/missing.png") {
		t.Fatal("404 should fail")
	}
	ts.Close()
	if c.VerifyImageURL(ctx, ts.URL+"/ok.png") {
		t.Fatal("network error should fail")
	}
}

func TestWatermarkNeverDecreases(t *testing.T) {
	w := NewWatermark(start)
	if w.Advance(start.Add(-time.Hour)) {
		t.Fatal("advanced backwards")
	}
	if w.Advance(start) {
		t.Fatal("advanced to same instant")
	}
	if !w.Advance(now) || !w.Get().Equal(now) {
		t.Fatal("expected forward advance")
	}
}

func TestCastTimeAcceptsUnixSeconds(t *testing.T) {
	var raw struct {
		A castTime `json:"a"`
		B castTime `json:"b"`
		C castTime `json:"c"`
	}
	if err := json.Unmarshal([]byte(`{"a":1740830400,"b":"2025-03-01T12:00:00.000Z","c":"garbage"}`), &raw); err != nil {
		t.Fatal(err)
	}
	if !time.Time(raw.A).Equal(time.Unix(1740830400, 0)) {
		t.Fatalf("a = %v", time.Time(raw.A))
	}
	if !time.Time(raw.B).Equal(start) {
		t.Fatalf("b = %v", time.Time(raw.B))
	}
	if !time.Time(raw.C).IsZero() {
		t.Fatalf("c = %v", time.Time(raw.C))
	}
}
