package zora

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"coinit/internal/httpx"
	"coinit/internal/model"
)

const DefaultBaseURL = "https://api.zora.co"

// Minter defines the minting calls the orchestrator depends on.
type Minter interface {
	PrepareMetadata(imageURL string, fields MetadataFields) Metadata
	CreateMint(ctx context.Context, name, imageURL, description, creator string) (model.MintResult, error)
}

// Attribute is a single NFT trait.
type Attribute struct {
	TraitType string `json:"trait_type"`
	Value     string `json:"value"`
}

// MetadataFields are the caller-supplied parts of mint metadata.
type MetadataFields struct {
	Name        string
	Description string
	Source      string
	Creator     string
	Attributes  []Attribute
}

// Metadata is the mint-ready metadata object.
type Metadata struct {
	Name        string      `json:"name"`
	Description string      `json:"description"`
	Image       string      `json:"image"`
	Attributes  []Attribute `json:"attributes"`
	ExternalURL string      `json:"external_url,omitempty"`
}

// Client is a bearer-token client for the Zora create API.
type Client struct {
	baseURL    string
	apiKey     string
	chain      string
	httpClient *http.Client
	limiter    *rate.Limiter
}

var _ Minter = (*Client)(nil)

func NewClient(baseURL, apiKey, chain string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if chain == "" {
		chain = "base"
	}
	return &Client{
		baseURL:    baseURL,
		apiKey:     apiKey,
		chain:      chain,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		limiter:    httpx.NewLimiter(1, 1),
	}
}

// PrepareMetadata builds metadata that points straight at the source image.
func (c *Client) PrepareMetadata(imageURL string, fields MetadataFields) Metadata {
	attrs := fields.Attributes
	if attrs == nil {
		attrs = []Attribute{}
	}
	return Metadata{
		Name:        fields.Name,
		Description: fields.Description,
		Image:       imageURL,
		Attributes:  attrs,
		ExternalURL: fields.Source,
	}
}

type createRequest struct {
	Name        string            `json:"name"`
	Description string            `json:"description"`
	Image       string            `json:"image"`
	Creator     string            `json:"creator"`
	Chain       string            `json:"chain"`
	Properties  map[string]string `json:"properties"`
}

// CreateMint submits a create request. It is never retried: a timed-out POST
// may still have minted.
func (c *Client) CreateMint(ctx context.Context, name, imageURL, description, creator string) (model.MintResult, error) {
	var out model.MintResult
	body, err := json.Marshal(createRequest{
		Name:        name,
		Description: description,
		Image:       imageURL,
		Creator:     creator,
		Chain:       c.chain,
		Properties:  map[string]string{"source": "Farcaster", "originalUrl": imageURL},
	})
	if err != nil {
		return out, &model.MintError{Err: err}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/create", bytes.NewReader(body))
	if err != nil {
		return out, &model.MintError{Err: err}
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if err := c.limiter.Wait(ctx); err != nil {
		return out, &model.MintError{Err: err}
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return out, &model.MintError{Err: &model.NetworkError{Op: "zora create", Err: err}}
	}
	defer resp.Body.Close()
	rb, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		excerpt := string(rb)
		if len(excerpt) > 512 {
			excerpt = excerpt[:512]
		}
		return out, &model.MintError{
			Status: resp.StatusCode,
			Body:   excerpt,
			Err:    &model.NetworkError{Op: "zora create", Status: resp.StatusCode},
		}
	}
	raw := map[string]any{}
	if len(bytes.TrimSpace(rb)) > 0 {
		if err := json.Unmarshal(rb, &raw); err != nil {
			return out, &model.MintError{Status: resp.StatusCode, Err: err}
		}
	}
	out.Raw = raw
	if h, ok := raw["transaction_hash"].(string); ok {
		out.TransactionHash = h
	} else if h, ok := raw["transactionHash"].(string); ok {
		out.TransactionHash = h
	}
	return out, nil
}
