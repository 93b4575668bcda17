package clanker

import (
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

// factoryABIJSON covers the two factory entries the bot touches: the
// deployToken call and the TokenCreated event it emits.
const factoryABIJSON = `[
  {
    "type": "function",
    "name": "deployToken",
    "stateMutability": "payable",
    "inputs": [{
      "name": "deploymentConfig",
      "type": "tuple",
      "internalType": "struct IClanker.DeploymentConfig",
      "components": [
        {"name": "tokenConfig", "type": "tuple", "internalType": "struct IClanker.TokenConfig", "components": [
          {"name": "name", "type": "string", "internalType": "string"},
          {"name": "symbol", "type": "string", "internalType": "string"},
          {"name": "salt", "type": "bytes32", "internalType": "bytes32"},
          {"name": "image", "type": "string", "internalType": "string"},
          {"name": "metadata", "type": "string", "internalType": "string"},
          {"name": "context", "type": "string", "internalType": "string"},
          {"name": "originatingChainId", "type": "uint256", "internalType": "uint256"}
        ]},
        {"name": "vaultConfig", "type": "tuple", "internalType": "struct IClanker.VaultConfig", "components": [
          {"name": "vaultPercentage", "type": "uint8", "internalType": "uint8"},
          {"name": "vaultDuration", "type": "uint256", "internalType": "uint256"}
        ]},
        {"name": "poolConfig", "type": "tuple", "internalType": "struct IClanker.PoolConfig", "components": [
          {"name": "pairedToken", "type": "address", "internalType": "address"},
          {"name": "tickIfToken0IsNewToken", "type": "int24", "internalType": "int24"}
        ]},
        {"name": "initialBuyConfig", "type": "tuple", "internalType": "struct IClanker.InitialBuyConfig", "components": [
          {"name": "pairedTokenPoolFee", "type": "uint24", "internalType": "uint24"},
          {"name": "pairedTokenSwapAmountOutMinimum", "type": "uint256", "internalType": "uint256"}
        ]},
        {"name": "rewardsConfig", "type": "tuple", "internalType": "struct IClanker.RewardsConfig", "components": [
          {"name": "creatorReward", "type": "uint256", "internalType": "uint256"},
          {"name": "creatorAdmin", "type": "address", "internalType": "address"},
          {"name": "creatorRewardRecipient", "type": "address", "internalType": "address"},
          {"name": "interfaceAdmin", "type": "address", "internalType": "address"},
          {"name": "interfaceRewardRecipient", "type": "address", "internalType": "address"}
        ]}
      ]
    }],
    "outputs": [
      {"name": "tokenAddress", "type": "address", "internalType": "address"},
      {"name": "positionId", "type": "uint256", "internalType": "uint256"}
    ]
  },
  {
    "type": "event",
    "name": "TokenCreated",
    "anonymous": false,
    "inputs": [
      {"indexed": true, "name": "tokenAddress", "type": "address", "internalType": "address"},
      {"indexed": true, "name": "creatorAdmin", "type": "address", "internalType": "address"},
      {"indexed": true, "name": "interfaceAdmin", "type": "address", "internalType": "address"},
      {"indexed": false, "name": "creatorRewardRecipient", "type": "address", "internalType": "address"},
      {"indexed": false, "name": "interfaceRewardRecipient", "type": "address", "internalType": "address"},
      {"indexed": false, "name": "positionId", "type": "uint256", "internalType": "uint256"},
      {"indexed": false, "name": "name", "type": "string", "internalType": "string"},
      {"indexed": false, "name": "symbol", "type": "string", "internalType": "string"},
      {"indexed": false, "name": "startingTickIfToken0IsNewToken", "type": "int24", "internalType": "int24"},
      {"indexed": false, "name": "metadata", "type": "string", "internalType": "string"},
      {"indexed": false, "name": "amountTokensBought", "type": "uint256", "internalType": "uint256"},
      {"indexed": false, "name": "vaultDuration", "type": "uint256", "internalType": "uint256"},
      {"indexed": false, "name": "vaultPercentage", "type": "uint8", "internalType": "uint8"},
      {"indexed": false, "name": "msgSender", "type": "address", "internalType": "address"}
    ]
  }
]`

const (
	deployMethod      = "deployToken"
	tokenCreatedEvent = "TokenCreated"
)

var factoryABI = mustParseABI(factoryABIJSON)

func mustParseABI(s string) abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(s))
	if err != nil {
		panic("clanker: bad factory abi: " + err.Error())
	}
	return parsed
}
