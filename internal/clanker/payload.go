package clanker

import (
	"encoding/json"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// Fixed deployment parameters.
var (
	// WETH on Base
	PairedToken      = common.HexToAddress("0x4200000000000000000000000000000000000006")
	InitialBuyWei    = big.NewInt(10_000_000_000_000_000) // 0.01 ETH
	MinAmountOutWei  = big.NewInt(10_000_000_000_000_000) // 0.01 ETH
	VaultDurationSec = big.NewInt(60 * 24 * 60 * 60)      // 60 days
)

const (
	VaultPercentage uint8 = 30
	PoolFee               = 10000 // 1%
	CreatorReward         = 40
	InterfaceName         = "Farcaster-Zora Bot"
	Platform              = "Farcaster"
)

// The structs below mirror IClanker.DeploymentConfig. Field names must match
// the ABI component names after camel-casing.

type TokenConfig struct {
	Name               string
	Symbol             string
	Salt               [32]byte
	Image              string
	Metadata           string
	Context            string
	OriginatingChainId *big.Int
}

type VaultConfig struct {
	VaultPercentage uint8
	VaultDuration   *big.Int
}

type PoolConfig struct {
	PairedToken            common.Address
	TickIfToken0IsNewToken *big.Int
}

type InitialBuyConfig struct {
	PairedTokenPoolFee              *big.Int
	PairedTokenSwapAmountOutMinimum *big.Int
}

type RewardsConfig struct {
	CreatorReward            *big.Int
	CreatorAdmin             common.Address
	CreatorRewardRecipient   common.Address
	InterfaceAdmin           common.Address
	InterfaceRewardRecipient common.Address
}

type DeploymentConfig struct {
	TokenConfig      TokenConfig
	VaultConfig      VaultConfig
	PoolConfig       PoolConfig
	InitialBuyConfig InitialBuyConfig
	RewardsConfig    RewardsConfig
}

// DeployParams are the per-deployment inputs to BuildDeploymentConfig.
type DeployParams struct {
	Name        string
	Symbol      string
	ImageURL    string
	Description string
	Salt        common.Hash
	ChainID     *big.Int
	Creator     common.Address
	MessageID   string
}

type tokenMetadata struct {
	Description     string   `json:"description"`
	SocialMediaUrls []string `json:"socialMediaUrls"`
	AuditUrls       []string `json:"auditUrls"`
}

type tokenContext struct {
	Interface string `json:"interface"`
	Platform  string `json:"platform"`
	MessageID string `json:"messageId"`
	ID        string `json:"id"`
}

// BuildDeploymentConfig assembles the factory argument. Every admin and
// reward recipient is the signing account.
func BuildDeploymentConfig(p DeployParams) (DeploymentConfig, error) {
	meta, err := json.Marshal(tokenMetadata{Description: p.Description, SocialMediaUrls: []string{}, AuditUrls: []string{}})
	if err != nil {
		return DeploymentConfig{}, err
	}
	ctxJSON, err := json.Marshal(tokenContext{Interface: InterfaceName, Platform: Platform, MessageID: p.MessageID, ID: p.MessageID})
	if err != nil {
		return DeploymentConfig{}, err
	}
	chainID := p.ChainID
	if chainID == nil {
		chainID = big.NewInt(8453)
	}
	return DeploymentConfig{
		TokenConfig: TokenConfig{
			Name:               p.Name,
			Symbol:             p.Symbol,
			Salt:               p.Salt,
			Image:              p.ImageURL,
			Metadata:           string(meta),
			Context:            string(ctxJSON),
			OriginatingChainId: new(big.Int).Set(chainID),
		},
		VaultConfig: VaultConfig{
			VaultPercentage: VaultPercentage,
			VaultDuration:   new(big.Int).Set(VaultDurationSec),
		},
		PoolConfig: PoolConfig{
			PairedToken:            PairedToken,
			TickIfToken0IsNewToken: big.NewInt(ComputeTick()),
		},
		InitialBuyConfig: InitialBuyConfig{
			PairedTokenPoolFee:              big.NewInt(PoolFee),
			PairedTokenSwapAmountOutMinimum: new(big.Int).Set(MinAmountOutWei),
		},
		RewardsConfig: RewardsConfig{
			CreatorReward:            big.NewInt(CreatorReward),
			CreatorAdmin:             p.Creator,
			CreatorRewardRecipient:   p.Creator,
			InterfaceAdmin:           p.Creator,
			InterfaceRewardRecipient: p.Creator,
		},
	}, nil
}
