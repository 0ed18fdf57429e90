package eth

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"math/rand"
	"sort"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/questx-lab/poolwidget/config"
	"github.com/questx-lab/poolwidget/pkg/numberutil"
	"github.com/questx-lab/poolwidget/pkg/xcontext"
)

const (
	RpcTimeOut      = time.Second * 5
	MaxShuffleTimes = 20

	// Nodes further than this many blocks from the median height are considered lagging.
	MaxHeightDistance = 5
)

var ErrNoHealthyRPC = errors.New("no healthy rpc")

// EthClient is the node surface the widget needs: identity of the chain, read-only and simulated
// contract calls, and mined-transaction polling. It satisfies bind.ContractCaller.
type EthClient interface {
	Start(ctx context.Context)
	Close()

	ChainID(ctx context.Context) (*big.Int, error)
	BlockNumber(ctx context.Context) (uint64, error)
	CodeAt(ctx context.Context, contract common.Address, blockNumber *big.Int) ([]byte, error)
	CallContract(ctx context.Context, call ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
	TransactionReceipt(ctx context.Context, txHash common.Hash) (*ethtypes.Receipt, error)
	WaitMined(ctx context.Context, txHash common.Hash) (*ethtypes.Receipt, error)
}

type dialFunc func(ctx context.Context, rawurl string) (*ethclient.Client, error)

// Default implementation of ETH client. Public RPCs are often unstable, so this client keeps a
// list of endpoints and only dispatches to those close to the median block height.
type defaultEthClient struct {
	cfg config.ChainConfig

	chainID *big.Int

	clients   []*ethclient.Client
	healthies []bool
	rpcs      []string

	mutex sync.RWMutex

	dial      dialFunc
	extraRpcs func(ctx context.Context, chainID *big.Int) ([]string, error)
	stopCh    chan struct{}
	closeOnce sync.Once
}

func NewEthClients(cfg config.ChainConfig) EthClient {
	return newDefaultEthClient(cfg)
}

func newDefaultEthClient(cfg config.ChainConfig) *defaultEthClient {
	c := &defaultEthClient{
		cfg:    cfg,
		mutex:  sync.RWMutex{},
		dial:   ethclient.DialContext,
		stopCh: make(chan struct{}),
	}
	c.extraRpcs = c.GetExtraRpcs

	return c
}

// Start refreshes the rpc list in the background until ctx ends or Close is called.
func (c *defaultEthClient) Start(ctx context.Context) {
	c.updateRpcs(ctx)
	go c.loopCheck(ctx)
}

func (c *defaultEthClient) loopCheck(ctx context.Context) {
	frequency := c.cfg.RefreshConnectionFrequency.Duration
	if frequency <= 0 {
		return
	}

	ticker := time.NewTicker(frequency)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-c.stopCh:
			return
		case <-ticker.C:
			c.updateRpcs(ctx)
		}
	}
}

func (c *defaultEthClient) Close() {
	c.closeOnce.Do(func() {
		close(c.stopCh)

		c.mutex.Lock()
		defer c.mutex.Unlock()
		for _, client := range c.clients {
			client.Close()
		}
		c.clients, c.healthies, c.rpcs = nil, nil, nil
	})
}

func (c *defaultEthClient) updateRpcs(ctx context.Context) {
	rpcs := append([]string{}, c.cfg.Rpcs...)

	if c.cfg.UseExternalRpcs {
		chainID, err := c.knownChainID(ctx, rpcs)
		if err != nil {
			xcontext.Logger(ctx).Errorf("Cannot determine chain id for external rpcs: %v", err)
		} else {
			externals, err := c.extraRpcs(ctx, chainID)
			if err != nil {
				xcontext.Logger(ctx).Errorf("Failed to get external rpc info: %v", err)
			} else {
				rpcs = append(rpcs, externals...)
			}
		}
	}

	rpcs, clients, healthies := c.getRpcsHealthiness(ctx, rpcs)
	if len(clients) == 0 {
		xcontext.Logger(ctx).Warnf("No healthy rpc found, keeping the previous list")
		return
	}

	c.mutex.Lock()
	oldClients := c.clients
	c.rpcs, c.clients, c.healthies = rpcs, clients, healthies
	c.mutex.Unlock()

	for _, client := range oldClients {
		client.Close()
	}
}

// knownChainID returns the cached chain id, asking the first reachable configured rpc otherwise.
func (c *defaultEthClient) knownChainID(ctx context.Context, rpcs []string) (*big.Int, error) {
	c.mutex.RLock()
	if c.chainID != nil {
		defer c.mutex.RUnlock()
		return new(big.Int).Set(c.chainID), nil
	}
	c.mutex.RUnlock()

	for _, rpc := range rpcs {
		callCtx, cancel := context.WithTimeout(ctx, RpcTimeOut)
		client, err := c.dial(callCtx, rpc)
		if err != nil {
			cancel()
			continue
		}

		id, err := client.ChainID(callCtx)
		cancel()
		client.Close()
		if err == nil {
			c.setChainID(id)
			return id, nil
		}
	}

	return nil, ErrNoHealthyRPC
}

func (c *defaultEthClient) setChainID(id *big.Int) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.chainID = new(big.Int).Set(id)
}

func (c *defaultEthClient) getRpcsHealthiness(ctx context.Context, allRpcs []string) ([]string, []*ethclient.Client, []bool) {
	clients := make([]*ethclient.Client, 0)
	rpcs := make([]string, 0)
	healthies := make([]bool, 0)

	type healthyNode struct {
		client *ethclient.Client
		rpc    string
		height int64
	}

	nodes := make([]*healthyNode, 0)
	for _, rpc := range allRpcs {
		callCtx, cancel := context.WithTimeout(ctx, RpcTimeOut)
		client, err := c.dial(callCtx, rpc)
		if err != nil {
			cancel()
			xcontext.Logger(ctx).Debugf("Cannot dial rpc %s: %v", rpc, err)
			continue
		}

		height, err := client.BlockNumber(callCtx)
		cancel()
		if err != nil {
			xcontext.Logger(ctx).Debugf("Rpc %s is not responding: %v", rpc, err)
			client.Close()
			continue
		}

		nodes = append(nodes, &healthyNode{client: client, rpc: rpc, height: int64(height)})
	}

	if len(nodes) == 0 {
		return rpcs, clients, healthies
	}

	// Sorts all nodes by height
	sort.SliceStable(nodes, func(i, j int) bool {
		return nodes[i].height > nodes[j].height
	})

	// Only select some nodes within a certain height from the median
	height := nodes[len(nodes)/2].height
	for _, node := range nodes {
		if numberutil.AbsInt64(node.height-height) < MaxHeightDistance {
			rpcs = append(rpcs, node.rpc)
			clients = append(clients, node.client)
			healthies = append(healthies, true)
		} else {
			node.client.Close()
		}
	}

	xcontext.Logger(ctx).Infof("Healthy rpcs: %v", rpcs)

	return rpcs, clients, healthies
}

func (c *defaultEthClient) shuffle() ([]*ethclient.Client, []bool, []string) {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	n := len(c.clients)
	if n == 0 {
		return nil, nil, nil
	}

	clients := make([]*ethclient.Client, n)
	healthy := make([]bool, n)
	rpcs := make([]string, n)

	copy(clients, c.clients)
	copy(healthy, c.healthies)
	copy(rpcs, c.rpcs)

	for i := 0; i < MaxShuffleTimes; i++ {
		x := rand.Intn(n)
		y := rand.Intn(n)

		clients[x], clients[y] = clients[y], clients[x]
		healthy[x], healthy[y] = healthy[y], healthy[x]
		rpcs[x], rpcs[y] = rpcs[y], rpcs[x]
	}

	return clients, healthy, rpcs
}

func (c *defaultEthClient) getHealthyClient(ctx context.Context) (*ethclient.Client, string) {
	c.mutex.RLock()
	empty := len(c.clients) == 0
	c.mutex.RUnlock()

	if empty {
		c.updateRpcs(ctx)
	}

	// Shuffle rpcs so that we will use different healthy rpc
	clients, healthies, rpcs := c.shuffle()
	for i, healthy := range healthies {
		if healthy {
			return clients[i], rpcs[i]
		}
	}

	return nil, ""
}

func (c *defaultEthClient) execute(ctx context.Context, f func(client *ethclient.Client, rpc string) (any, error)) (any, error) {
	client, rpc := c.getHealthyClient(ctx)
	if client == nil {
		return nil, ErrNoHealthyRPC
	}

	ret, err := f(client, rpc)
	if err != nil {
		return nil, fmt.Errorf("rpc %s: %w", rpc, err)
	}

	return ret, nil
}

func (c *defaultEthClient) ChainID(ctx context.Context) (*big.Int, error) {
	c.mutex.RLock()
	if c.chainID != nil {
		defer c.mutex.RUnlock()
		return new(big.Int).Set(c.chainID), nil
	}
	c.mutex.RUnlock()

	id, err := c.execute(ctx, func(client *ethclient.Client, rpc string) (any, error) {
		return client.ChainID(ctx)
	})
	if err != nil {
		return nil, err
	}

	c.setChainID(id.(*big.Int))
	return new(big.Int).Set(id.(*big.Int)), nil
}

func (c *defaultEthClient) BlockNumber(ctx context.Context) (uint64, error) {
	num, err := c.execute(ctx, func(client *ethclient.Client, rpc string) (any, error) {
		return client.BlockNumber(ctx)
	})
	if err != nil {
		return 0, err
	}

	return num.(uint64), nil
}

func (c *defaultEthClient) CodeAt(ctx context.Context, contract common.Address, blockNumber *big.Int) ([]byte, error) {
	code, err := c.execute(ctx, func(client *ethclient.Client, rpc string) (any, error) {
		return client.CodeAt(ctx, contract, blockNumber)
	})
	if err != nil {
		return nil, err
	}

	return code.([]byte), nil
}

func (c *defaultEthClient) CallContract(ctx context.Context, call ethereum.CallMsg, blockNumber *big.Int) ([]byte, error) {
	out, err := c.execute(ctx, func(client *ethclient.Client, rpc string) (any, error) {
		return client.CallContract(ctx, call, blockNumber)
	})
	if err != nil {
		return nil, err
	}

	return out.([]byte), nil
}

func (c *defaultEthClient) TransactionReceipt(ctx context.Context, txHash common.Hash) (*ethtypes.Receipt, error) {
	receipt, err := c.execute(ctx, func(client *ethclient.Client, rpc string) (any, error) {
		return client.TransactionReceipt(ctx, txHash)
	})
	if err != nil {
		return nil, err
	}

	return receipt.(*ethtypes.Receipt), nil
}

func (c *defaultEthClient) WaitMined(ctx context.Context, txHash common.Hash) (*ethtypes.Receipt, error) {
	return newReceiptWaiter(c, c.cfg).wait(ctx, txHash)
}
