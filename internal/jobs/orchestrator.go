package jobs

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"coinit/internal/budget"
	"coinit/internal/clanker"
	"coinit/internal/config"
	"coinit/internal/logging"
	"coinit/internal/metrics"
	"coinit/internal/model"
	"coinit/internal/neynar"
	"coinit/internal/store/ledger"
	"coinit/internal/util"
	"coinit/internal/zora"
)

const titleRunes = 50

// Ledger records publish attempts and answers budget queries.
type Ledger interface {
	budget.Counter
	PutPublication(ctx context.Context, p ledger.Publication) error
}

// Options wires an Orchestrator. Feed is required; Minter and Deployer are
// only used when their stage is enabled. Ledger may be nil.
type Options struct {
	Feed         neynar.Feed
	Minter       zora.Minter
	Deployer     clanker.TokenDeployer
	EnableMint   bool
	EnableDeploy bool
	ChannelID    string
	Limit        int
	Interval     time.Duration
	Ledger       Ledger
	Budget       config.BudgetConfig
	Now          func() time.Time
}

// Orchestrator drives the poll loop. It is not safe for concurrent use;
// ticks run one at a time from a single goroutine.
type Orchestrator struct {
	opts      Options
	processed map[string]struct{}
}

// TickResult summarises one poll.
type TickResult struct {
	ID        string
	Found     int
	Processed int
	// Failed is set when a stage failed or the tick was cut short.
	Failed bool
}

// PostResult is what happened to a single post.
type PostResult struct {
	ImageURL   string // first reachable image; empty when none was
	Mint       *model.MintResult
	MintErr    error
	Deployment *model.Deployment
	DeployErr  error
}

func NewOrchestrator(opts Options) *Orchestrator {
	if opts.Limit <= 0 {
		opts.Limit = 20
	}
	if opts.Interval <= 0 {
		opts.Interval = time.Minute
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Orchestrator{opts: opts, processed: make(map[string]struct{})}
}

// Processed reports whether a post id has already been handled.
func (o *Orchestrator) Processed(id string) bool {
	_, ok := o.processed[id]
	return ok
}

// CheckChannel confirms the watched channel resolves.
func (o *Orchestrator) CheckChannel(ctx context.Context) (model.Channel, error) {
	ch, err := o.opts.Feed.GetChannelInfo(ctx, o.opts.ChannelID)
	if err != nil {
		return ch, fmt.Errorf("channel check %s: %w", o.opts.ChannelID, err)
	}
	logging.Info("channel_ok", map[string]any{"channel": ch.ID, "name": ch.Name, "followers": ch.FollowerCount})
	return ch, nil
}

// Start runs the channel check and then the loop. A failed check is fatal.
func (o *Orchestrator) Start(ctx context.Context) error {
	if _, err := o.CheckChannel(ctx); err != nil {
		return err
	}
	logging.Info("bot_start", map[string]any{
		"channel":  o.opts.ChannelID,
		"interval": o.opts.Interval.String(),
		"mint":     o.opts.EnableMint,
		"deploy":   o.opts.EnableDeploy,
	})
	return o.Run(ctx)
}

// Run ticks immediately, then on every interval until ctx is cancelled.
func (o *Orchestrator) Run(ctx context.Context) error {
	t := time.NewTicker(o.opts.Interval)
	defer t.Stop()
	o.Tick(ctx)
	for {
		select {
		case <-ctx.Done():
			logging.Info("bot_stop", nil)
			return ctx.Err()
		case <-t.C:
			o.Tick(ctx)
		}
	}
}

// Tick polls once and processes every post not seen before. A post is marked
// processed whatever happened to its stages, so failures are never retried.
func (o *Orchestrator) Tick(ctx context.Context) TickResult {
	start := time.Now()
	metrics.Ticks.Inc()
	defer metrics.ObserveTickDuration(start)

	res := TickResult{ID: uuid.NewString()}
	posts := o.opts.Feed.GetNewImages(ctx, o.opts.ChannelID, o.opts.Limit)
	res.Found = len(posts)
	metrics.PostsFound.Add(float64(len(posts)))
	for _, p := range posts {
		if ctx.Err() != nil {
			res.Failed = true
			break
		}
		if o.Processed(p.ID) {
			continue
		}
		pr := o.ProcessPost(ctx, p)
		o.processed[p.ID] = struct{}{}
		res.Processed++
		metrics.PostsProcessed.Inc()
		if pr.MintErr != nil || pr.DeployErr != nil {
			res.Failed = true
		}
	}
	if res.Failed {
		metrics.TickErrors.Inc()
	}
	logging.Info("tick", map[string]any{
		"tick":      res.ID,
		"found":     res.Found,
		"processed": res.Processed,
		"failed":    res.Failed,
		"watermark": o.opts.Feed.Watermark(),
	})
	return res
}

// ProcessPost publishes the first reachable image of p. Mint and deploy run
// independently: a failed mint does not skip the deploy. Remaining images are
// ignored.
func (o *Orchestrator) ProcessPost(ctx context.Context, p model.Post) PostResult {
	var res PostResult
	logging.Info("post_processing", map[string]any{
		"post":   p.ID,
		"author": p.Author(),
		"text":   util.Truncate(util.NormalizeWhitespace(p.Text), 80, "..."),
	})
	for _, u := range p.ImageURLs {
		if !o.opts.Feed.VerifyImageURL(ctx, u) {
			logging.Warn("image_unreachable", map[string]any{"post": p.ID, "url": u})
			continue
		}
		res.ImageURL = u
		break
	}
	if res.ImageURL == "" {
		logging.Info("post_no_valid_image", map[string]any{"post": p.ID, "candidates": len(p.ImageURLs)})
		return res
	}

	title := Title(p)
	desc := Description(p)
	if o.opts.EnableMint && o.opts.Minter != nil {
		o.mint(ctx, p, res.ImageURL, title, desc, &res)
	}
	if o.opts.EnableDeploy && o.opts.Deployer != nil {
		o.deploy(ctx, p, res.ImageURL, desc, &res)
	}
	return res
}

func (o *Orchestrator) mint(ctx context.Context, p model.Post, imageURL, title, desc string, res *PostResult) {
	if !o.allowed(ctx, budget.StageMint) {
		return
	}
	md := o.opts.Minter.PrepareMetadata(imageURL, zora.MetadataFields{
		Name:        title,
		Description: desc,
		Source:      CastURL(p),
		Creator:     "@" + p.Author(),
		Attributes: []zora.Attribute{
			{TraitType: "Source", Value: "Farcaster"},
			{TraitType: "Channel", Value: "/" + o.opts.ChannelID},
			{TraitType: "Author", Value: "@" + p.Author()},
		},
	})
	logging.Debug("mint_metadata", map[string]any{"post": p.ID, "metadata": md})
	mr, err := o.opts.Minter.CreateMint(ctx, title, imageURL, desc, p.Author())
	if err != nil {
		res.MintErr = err
		metrics.IncPublish(budget.StageMint, "error")
		logging.Error("mint_error", map[string]any{"post": p.ID, "error": err.Error()})
		o.record(ctx, p, budget.StageMint, imageURL, "", err)
		return
	}
	res.Mint = &mr
	metrics.IncPublish(budget.StageMint, "ok")
	logging.Info("mint_ok", map[string]any{"post": p.ID, "tx": mr.TransactionHash})
	o.record(ctx, p, budget.StageMint, imageURL, mr.TransactionHash, nil)
}

func (o *Orchestrator) deploy(ctx context.Context, p model.Post, imageURL, desc string, res *PostResult) {
	if !o.allowed(ctx, budget.StageDeploy) {
		return
	}
	now := o.opts.Now()
	name, symbol := TokenName(p, now), TokenSymbol(now)
	dep, err := o.opts.Deployer.DeployToken(ctx, name, symbol, imageURL, desc)
	if err != nil {
		res.DeployErr = err
		metrics.IncPublish(budget.StageDeploy, "error")
		logging.Error("deploy_error", map[string]any{"post": p.ID, "name": name, "symbol": symbol, "error": err.Error()})
		o.record(ctx, p, budget.StageDeploy, imageURL, dep.TxHash, err)
		return
	}
	res.Deployment = &dep
	metrics.IncPublish(budget.StageDeploy, "ok")
	logging.Info("deploy_ok", map[string]any{"post": p.ID, "token": dep.TokenAddress, "tx": dep.TxHash, "symbol": symbol})
	o.record(ctx, p, budget.StageDeploy, imageURL, dep.TokenAddress, nil)
}

func (o *Orchestrator) allowed(ctx context.Context, stage string) bool {
	if o.opts.Ledger == nil {
		return true
	}
	ok, err := budget.ShouldAllow(ctx, o.opts.Ledger, o.opts.Budget, stage, o.opts.Now())
	if err != nil {
		logging.Error("budget_check_error", map[string]any{"stage": stage, "error": err.Error()})
		return true
	}
	if !ok {
		metrics.IncPublish(stage, "skipped")
		logging.Warn("budget_exhausted", map[string]any{"stage": stage})
	}
	return ok
}

func (o *Orchestrator) record(ctx context.Context, p model.Post, stage, imageURL, ref string, perr error) {
	if o.opts.Ledger == nil {
		return
	}
	pub := ledger.Publication{TS: o.opts.Now(), PostID: p.ID, Stage: stage, ImageURL: imageURL, Ref: ref}
	if perr != nil {
		pub.Error = perr.Error()
	}
	if err := o.opts.Ledger.PutPublication(ctx, pub); err != nil {
		logging.Error("ledger_write_error", map[string]any{"post": p.ID, "stage": stage, "error": err.Error()})
	}
}

// Title is the trimmed post text cut to 50 characters, or a credit line when
// nothing is left.
func Title(p model.Post) string {
	text := strings.TrimSpace(p.Text)
	if text == "" {
		return fmt.Sprintf("Photo by @%s from Farcaster", p.Author())
	}
	return util.Truncate(text, titleRunes, "...")
}

func Description(p model.Post) string {
	return fmt.Sprintf("Posted by @%s on Farcaster\n\n%s", p.Author(), strings.TrimSpace(p.Text))
}

// TokenName is the first 8 characters of the author plus the last 4 digits of now.
func TokenName(p model.Post, now time.Time) string {
	return util.Prefix(p.Author(), 8) + util.LastDigits(now.Unix(), 4)
}

func TokenSymbol(now time.Time) string {
	return "FC" + util.LastDigits(now.Unix(), 4)
}

// CastURL links back to the cast on Warpcast.
func CastURL(p model.Post) string {
	return fmt.Sprintf("https://warpcast.com/%s/%s", p.Author(), p.ID)
}
