package model

import "time"

// Channel represents a subset of Farcaster channel fields used by the bot.
type Channel struct {
	ID            string
	Name          string
	Description   string
	FollowerCount int
}

// Embed is a single URL attached to a cast, with whatever MIME hint the feed gave us.
type Embed struct {
	URL      string
	MimeType string
}

// Post represents a cast fetched from a channel feed.
type Post struct {
	ID          string // cast hash
	Username    string
	DisplayName string
	Text        string
	CreatedAt   time.Time
	Embeds      []Embed
	// ImageURLs is filled by the feed client with the embeds that look like images.
	ImageURLs []string
}

// Author returns the username, or a placeholder when the feed omitted it.
func (p Post) Author() string {
	if p.Username == "" {
		return "unknown_user"
	}
	return p.Username
}

// MintResult is what the minting API returns for a created mint.
type MintResult struct {
	TransactionHash string
	Raw             map[string]any
}

// Deployment describes a token deployed on-chain.
type Deployment struct {
	TokenAddress string
	TxHash       string
	Salt         string
	Name         string
	Symbol       string
}
