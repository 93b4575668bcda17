package neynar

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"coinit/internal/httpx"
	"coinit/internal/logging"
	"coinit/internal/metrics"
	"coinit/internal/model"
	"coinit/internal/util"
)

const DefaultBaseURL = "https://api.neynar.com/v2/farcaster"

var imageExtensions = []string{".jpg", ".jpeg", ".png", ".gif"}

// Feed defines the feed calls the orchestrator depends on.
type Feed interface {
	GetChannelInfo(ctx context.Context, channelID string) (model.Channel, error)
	GetNewImages(ctx context.Context, channelID string, limit int) []model.Post
	VerifyImageURL(ctx context.Context, imageURL string) bool
	Watermark() time.Time
}

// Options tunes a Client. Zero values fall back to defaults.
type Options struct {
	BaseURL           string
	APIKey            string
	HTTPClient        *http.Client
	RequestsPerSecond float64
	Burst             int
	MaxAttempts       int
	BaseBackoff       time.Duration
	ProbeTimeout      time.Duration
	// Start seeds the watermark; defaults to the current time.
	Start time.Time
	Now   func() time.Time
}

// Client is an API-key client for the Neynar Farcaster API.
type Client struct {
	baseURL string
	apiKey  string
	retrier httpx.Retrier
	probe   *http.Client
	limiter *rate.Limiter
	now     func() time.Time
	mark    *Watermark
}

var _ Feed = (*Client)(nil)

func New(opts Options) *Client {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{Timeout: 15 * time.Second}
	}
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = 3
	}
	if opts.BaseBackoff <= 0 {
		opts.BaseBackoff = 500 * time.Millisecond
	}
	if opts.ProbeTimeout <= 0 {
		opts.ProbeTimeout = 5 * time.Second
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Start.IsZero() {
		opts.Start = opts.Now()
	}
	return &Client{
		baseURL: opts.BaseURL,
		apiKey:  opts.APIKey,
		retrier: httpx.Retrier{Client: opts.HTTPClient, MaxAttempts: opts.MaxAttempts, BaseBackoff: opts.BaseBackoff},
		probe:   &http.Client{Timeout: opts.ProbeTimeout, Transport: opts.HTTPClient.Transport},
		limiter: httpx.NewLimiter(opts.RequestsPerSecond, opts.Burst),
		now:     opts.Now,
		mark:    NewWatermark(opts.Start),
	}
}

// Watermark returns the current new-post boundary.
func (c *Client) Watermark() time.Time { return c.mark.Get() }

func (c *Client) auth(req *http.Request) {
	req.Header.Set("x-api-key", c.apiKey)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")
}

// get performs a rate-limited GET and decodes a 2xx JSON body into out.
func (c *Client) get(ctx context.Context, op, path string, q url.Values, out any) error {
	u := c.baseURL + path + "?" + q.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return &model.NetworkError{Op: op, Err: err}
	}
	c.auth(req)
	if err := c.limiter.Wait(ctx); err != nil {
		return &model.NetworkError{Op: op, Err: err}
	}
	resp, err := c.retrier.Do(ctx, req)
	if err != nil {
		return &model.NetworkError{Op: op, Err: err}
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &model.NetworkError{Op: op, Status: resp.StatusCode, Err: fmt.Errorf("%s", body)}
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &model.NetworkError{Op: op, Err: fmt.Errorf("decode: %w", err)}
	}
	return nil
}

type rawChannel struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Description   string `json:"description"`
	FollowerCount int    `json:"follower_count"`
}

// GetChannelInfo looks a channel up by numeric id or by name.
func (c *Client) GetChannelInfo(ctx context.Context, channelID string) (model.Channel, error) {
	q := url.Values{}
	q.Set("q", channelID)
	if isDigits(channelID) {
		q.Set("type", "channel_id")
	} else {
		q.Set("type", "name")
	}
	var raw struct {
		Channel  *rawChannel  `json:"channel"`
		Channels []rawChannel `json:"channels"`
	}
	if err := c.get(ctx, "channel info", "/channel/search", q, &raw); err != nil {
		logging.Error("neynar_channel_info_error", map[string]any{"channel": channelID, "error": err.Error()})
		return model.Channel{}, err
	}
	ch := raw.Channel
	if ch == nil {
		for i := range raw.Channels {
			if raw.Channels[i].ID == channelID {
				ch = &raw.Channels[i]
				break
			}
		}
	}
	if ch == nil && len(raw.Channels) > 0 {
		ch = &raw.Channels[0]
	}
	if ch == nil {
		return model.Channel{ID: channelID, Name: "unknown"}, nil
	}
	return model.Channel{ID: ch.ID, Name: ch.Name, Description: ch.Description, FollowerCount: ch.FollowerCount}, nil
}

type rawCast struct {
	Hash   string `json:"hash"`
	Author struct {
		Username    string `json:"username"`
		DisplayName string `json:"display_name"`
	} `json:"author"`
	Text      string   `json:"text"`
	Timestamp castTime `json:"timestamp"`
	Embeds    []struct {
		URL      string `json:"url"`
		MimeType string `json:"mime_type"`
		Metadata struct {
			ContentType string `json:"content_type"`
		} `json:"metadata"`
	} `json:"embeds"`
	EmbeddedMedia []struct {
		URL  string `json:"url"`
		Type string `json:"type"`
	} `json:"embedded_media"`
}

// GetChannelPosts returns the most recent casts in a channel. Failures are
// logged and yield an empty slice so a flaky feed never stops the poll loop.
func (c *Client) GetChannelPosts(ctx context.Context, channelID string, limit int) []model.Post {
	q := url.Values{}
	q.Set("channel_id", channelID)
	q.Set("limit", strconv.Itoa(clamp(limit, 1, 100)))
	var raw struct {
		Casts []rawCast `json:"casts"`
	}
	if err := c.get(ctx, "channel feed", "/feed/channel", q, &raw); err != nil {
		logging.Error("neynar_channel_feed_error", map[string]any{"channel": channelID, "error": err.Error()})
		return []model.Post{}
	}
	out := make([]model.Post, 0, len(raw.Casts))
	for _, rc := range raw.Casts {
		p := model.Post{
			ID:          rc.Hash,
			Username:    rc.Author.Username,
			DisplayName: rc.Author.DisplayName,
			Text:        strings.TrimSpace(rc.Text),
			CreatedAt:   time.Time(rc.Timestamp),
		}
		if p.DisplayName == "" {
			p.DisplayName = p.Username
		}
		for _, e := range rc.Embeds {
			mt := e.MimeType
			if mt == "" {
				mt = e.Metadata.ContentType
			}
			p.Embeds = append(p.Embeds, model.Embed{URL: e.URL, MimeType: mt})
		}
		for _, m := range rc.EmbeddedMedia {
			p.Embeds = append(p.Embeds, model.Embed{URL: m.URL, MimeType: m.Type})
		}
		out = append(out, p)
	}
	return out
}

// GetNewImages returns posts newer than the watermark that carry at least one
// image URL, with ImageURLs filled in. The watermark moves to the time this
// call started only when something qualified.
func (c *Client) GetNewImages(ctx context.Context, channelID string, limit int) []model.Post {
	now := c.now()
	since := c.mark.Get()
	posts := c.GetChannelPosts(ctx, channelID, limit)
	var out []model.Post
	for _, p := range posts {
		urls := ImageURLs(p.Embeds)
		if len(urls) == 0 || !p.CreatedAt.After(since) {
			continue
		}
		p.ImageURLs = urls
		out = append(out, p)
	}
	if len(out) > 0 && c.mark.Advance(now) {
		metrics.SetWatermark(now)
	}
	return out
}

// ImageURLs picks the embed URLs that look like images, by extension or MIME
// hint. Both checks are case-sensitive.
func ImageURLs(embeds []model.Embed) []string {
	var urls []string
	for _, e := range embeds {
		if e.URL == "" {
			continue
		}
		if util.HasAnySuffix(e.URL, imageExtensions) || strings.Contains(e.MimeType, "image") {
			urls = append(urls, e.URL)
		}
	}
	return urls
}

// VerifyImageURL probes an image URL with HEAD; any error, non-2xx status or
// non-image content type counts as unreachable.
func (c *Client) VerifyImageURL(ctx context.Context, imageURL string) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, imageURL, nil)
	if err != nil {
		return false
	}
	resp, err := c.probe.Do(req)
	if err != nil {
		logging.Warn("image_probe_error", map[string]any{"url": imageURL, "error": err.Error()})
		return false
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return false
	}
	return util.ContainsFold(resp.Header.Get("Content-Type"), "image")
}

func clamp(v, min, max int) int {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
