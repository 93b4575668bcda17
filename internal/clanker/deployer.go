package clanker

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"

	"coinit/internal/logging"
	"coinit/internal/model"
)

// ChainClient is the slice of an Ethereum RPC client the deployer needs.
// *ethclient.Client satisfies it.
type ChainClient interface {
	ChainID(ctx context.Context) (*big.Int, error)
	PendingNonceAt(ctx context.Context, account common.Address) (uint64, error)
	SuggestGasTipCap(ctx context.Context) (*big.Int, error)
	HeaderByNumber(ctx context.Context, number *big.Int) (*types.Header, error)
	EstimateGas(ctx context.Context, msg ethereum.CallMsg) (uint64, error)
	CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
	SendTransaction(ctx context.Context, tx *types.Transaction) error
	TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error)
}

var _ ChainClient = (*ethclient.Client)(nil)

// TokenDeployer defines the deployment call the orchestrator depends on.
type TokenDeployer interface {
	DeployToken(ctx context.Context, name, symbol, imageURL, description string) (model.Deployment, error)
}

// Deployer deploys tokens through the Clanker factory.
type Deployer struct {
	client  ChainClient
	factory common.Address
	key     *ecdsa.PrivateKey
	from    common.Address
	chainID *big.Int

	pollInterval   time.Duration
	receiptTimeout time.Duration
	now            func() time.Time
	salt           func() (string, error)
}

var _ TokenDeployer = (*Deployer)(nil)

// NewDeployer builds a deployer. An empty keyHex is accepted; DeployToken
// then fails with an account error.
func NewDeployer(client ChainClient, factoryHex, keyHex string) (*Deployer, error) {
	if !common.IsHexAddress(factoryHex) {
		return nil, &model.ConfigurationError{Field: "CLANKER_FACTORY_ADDRESS", Reason: "not a hex address"}
	}
	d := &Deployer{
		client:         client,
		factory:        common.HexToAddress(factoryHex),
		pollInterval:   2 * time.Second,
		receiptTimeout: 3 * time.Minute,
		now:            time.Now,
		salt:           GenerateSalt,
	}
	if keyHex != "" {
		key, err := crypto.HexToECDSA(strings.TrimPrefix(keyHex, "0x"))
		if err != nil {
			return nil, &model.ConfigurationError{Field: "WALLET_PRIVATE_KEY", Reason: "not a valid secp256k1 key"}
		}
		d.key = key
		d.from = crypto.PubkeyToAddress(key.PublicKey)
	}
	return d, nil
}

// Dial connects to rpcURL and builds a deployer on top of it.
func Dial(ctx context.Context, rpcURL, factoryHex, keyHex string) (*Deployer, error) {
	c, err := ethclient.DialContext(ctx, rpcURL)
	if err != nil {
		return nil, fmt.Errorf("dial rpc: %w", err)
	}
	return NewDeployer(c, factoryHex, keyHex)
}

// Account is the signing address, or the zero address when no key is set.
func (d *Deployer) Account() common.Address { return d.from }

func (d *Deployer) chain(ctx context.Context) (*big.Int, error) {
	if d.chainID != nil {
		return d.chainID, nil
	}
	id, err := d.client.ChainID(ctx)
	if err != nil {
		return nil, err
	}
	d.chainID = id
	return id, nil
}

// DeployToken simulates, submits and confirms a deployToken call, then reads
// the new token address from the TokenCreated log. A mined transaction
// without that log is still an error: it means the factory ABI has drifted.
func (d *Deployer) DeployToken(ctx context.Context, name, symbol, imageURL, description string) (model.Deployment, error) {
	out := model.Deployment{Name: name, Symbol: symbol}
	if d.key == nil {
		return out, &model.DeploymentError{Stage: "account", Err: errors.New("wallet account not configured")}
	}
	chainID, err := d.chain(ctx)
	if err != nil {
		return out, &model.DeploymentError{Stage: "payload", Err: fmt.Errorf("chain id: %w", err)}
	}
	salt, err := d.salt()
	if err != nil {
		return out, &model.DeploymentError{Stage: "payload", Err: fmt.Errorf("salt: %w", err)}
	}
	out.Salt = salt
	msgID := fmt.Sprintf("farcaster-%d", d.now().Unix())
	cfg, err := BuildDeploymentConfig(DeployParams{
		Name:        name,
		Symbol:      symbol,
		ImageURL:    imageURL,
		Description: description,
		Salt:        common.HexToHash(salt),
		ChainID:     chainID,
		Creator:     d.from,
		MessageID:   msgID,
	})
	if err != nil {
		return out, &model.DeploymentError{Stage: "payload", Err: err}
	}
	data, err := factoryABI.Pack(deployMethod, cfg)
	if err != nil {
		return out, &model.DeploymentError{Stage: "payload", Err: fmt.Errorf("pack: %w", err)}
	}

	msg := ethereum.CallMsg{From: d.from, To: &d.factory, Value: new(big.Int).Set(InitialBuyWei), Data: data}
	predicted, err := d.simulate(ctx, msg)
	if err != nil {
		return out, &model.DeploymentError{Stage: "simulate", Err: err}
	}
	logging.Info("clanker_simulated", map[string]any{"name": name, "symbol": symbol, "predicted": predicted.Hex()})

	signed, err := d.buildTx(ctx, chainID, msg)
	if err != nil {
		return out, &model.DeploymentError{Stage: "submit", Err: err}
	}
	if err := d.client.SendTransaction(ctx, signed); err != nil {
		return out, &model.DeploymentError{Stage: "submit", Err: err}
	}
	out.TxHash = signed.Hash().Hex()
	logging.Info("clanker_tx_sent", map[string]any{"tx": out.TxHash})

	receipt, err := d.waitReceipt(ctx, signed.Hash())
	if err != nil {
		return out, &model.DeploymentError{Stage: "receipt", TxHash: out.TxHash, Err: err}
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		return out, &model.DeploymentError{Stage: "reverted", TxHash: out.TxHash, Err: errors.New("transaction reverted")}
	}
	addr, ok := TokenAddressFromLogs(receipt.Logs, d.factory)
	if !ok {
		return out, &model.DeploymentError{Stage: "event", TxHash: out.TxHash, Err: errors.New("no TokenCreated event in receipt logs")}
	}
	out.TokenAddress = addr.Hex()
	return out, nil
}

// simulate runs the call with eth_call and decodes the predicted token address.
func (d *Deployer) simulate(ctx context.Context, msg ethereum.CallMsg) (common.Address, error) {
	res, err := d.client.CallContract(ctx, msg, nil)
	if err != nil {
		return common.Address{}, err
	}
	vals, err := factoryABI.Unpack(deployMethod, res)
	if err != nil {
		return common.Address{}, fmt.Errorf("decode result: %w", err)
	}
	addr, ok := vals[0].(common.Address)
	if !ok {
		return common.Address{}, fmt.Errorf("unexpected result type %T", vals[0])
	}
	return addr, nil
}

// buildTx prices and signs an EIP-1559 transaction for msg.
func (d *Deployer) buildTx(ctx context.Context, chainID *big.Int, msg ethereum.CallMsg) (*types.Transaction, error) {
	gas, err := d.client.EstimateGas(ctx, msg)
	if err != nil {
		return nil, fmt.Errorf("estimate gas: %w", err)
	}
	gas = gas * 120 / 100
	nonce, err := d.client.PendingNonceAt(ctx, d.from)
	if err != nil {
		return nil, fmt.Errorf("nonce: %w", err)
	}
	tip, err := d.client.SuggestGasTipCap(ctx)
	if err != nil {
		return nil, fmt.Errorf("gas tip: %w", err)
	}
	head, err := d.client.HeaderByNumber(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("head: %w", err)
	}
	feeCap := new(big.Int).Set(tip)
	if head.BaseFee != nil {
		feeCap.Add(feeCap, new(big.Int).Mul(head.BaseFee, big.NewInt(2)))
	} else {
		feeCap.Mul(feeCap, big.NewInt(2))
	}
	tx := types.NewTx(&types.DynamicFeeTx{
		ChainID:   chainID,
		Nonce:     nonce,
		GasTipCap: tip,
		GasFeeCap: feeCap,
		Gas:       gas,
		To:        msg.To,
		Value:     msg.Value,
		Data:      msg.Data,
	})
	return types.SignTx(tx, types.LatestSignerForChainID(chainID), d.key)
}

// waitReceipt polls until the receipt shows up, ctx ends or the receipt timeout passes.
func (d *Deployer) waitReceipt(ctx context.Context, hash common.Hash) (*types.Receipt, error) {
	ctx, cancel := context.WithTimeout(ctx, d.receiptTimeout)
	defer cancel()
	t := time.NewTicker(d.pollInterval)
	defer t.Stop()
	for {
		r, err := d.client.TransactionReceipt(ctx, hash)
		if err == nil && r != nil {
			return r, nil
		}
		if err != nil && !errors.Is(err, ethereum.NotFound) {
			return nil, err
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-t.C:
		}
	}
}

// TokenAddressFromLogs returns the token address from the first TokenCreated
// log emitted by factory. The address is the first indexed topic.
func TokenAddressFromLogs(logs []*types.Log, factory common.Address) (common.Address, bool) {
	id := factoryABI.Events[tokenCreatedEvent].ID
	for _, l := range logs {
		if l == nil || l.Address != factory || len(l.Topics) < 3 {
			continue
		}
		if l.Topics[0] != id {
			continue
		}
		return common.BytesToAddress(l.Topics[1].Bytes()), true
	}
	return common.Address{}, false
}
