package binding

import (
	"fmt"
	"math/big"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/puzpuzpuz/xsync"
	"github.com/questx-lab/poolwidget/pkg/ethutil"
)

// NetworkContext is the active chain, the client used for reads and the custodial wallet the
// calls are issued for. A zero Signer means the wallet is not known yet.
type NetworkContext struct {
	ChainID *big.Int
	Client  bind.ContractCaller
	Signer  common.Address
}

func (n NetworkContext) established() bool {
	return n.ChainID != nil && n.Client != nil
}

// Cache memoizes bindings per (generation, address). Every SetContext starts a new generation
// and drops all bindings of the previous one.
type Cache struct {
	mu         sync.RWMutex
	generation uint64
	network    NetworkContext
	bindings   *xsync.MapOf[string, Binding]
}

func NewCache() *Cache {
	return &Cache{bindings: xsync.NewMapOf[Binding]()}
}

// SetContext installs a new network context and returns its generation.
func (c *Cache) SetContext(network NetworkContext) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.generation++
	c.network = network
	c.bindings = xsync.NewMapOf[Binding]()
	return c.generation
}

func (c *Cache) Generation() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.generation
}

func (c *Cache) Context() NetworkContext {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.network
}

// Get returns the binding of address for def in the current generation, creating it on first
// use. It reports false while no network context is established or the inputs are empty; callers
// treat that as "still loading". Creating a binding performs no network I/O.
func (c *Cache) Get(address common.Address, def *abi.ABI) (Binding, bool) {
	if def == nil || ethutil.IsZeroAddress(address) {
		return nil, false
	}

	c.mu.RLock()
	generation, network, bindings := c.generation, c.network, c.bindings
	c.mu.RUnlock()

	if !network.established() {
		return nil, false
	}

	key := cacheKey(generation, address)
	if b, ok := bindings.Load(key); ok {
		return b, true
	}

	// Racing callers may both build one; only the stored binding is handed out.
	signed := !ethutil.IsZeroAddress(network.Signer)
	b, _ := bindings.LoadOrStore(key, newContractBinding(key, address, def, network.Client, network.Signer, signed))
	return b, true
}

// Len is the number of live bindings of the current generation.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.bindings.Size()
}

func cacheKey(generation uint64, address common.Address) string {
	return fmt.Sprintf("%d:%s", generation, strings.ToLower(address.Hex()))
}

// PoolBundle groups the bindings of one asset. It is replaced wholesale, never mutated.
type PoolBundle struct {
	Token    Binding
	Pool     Binding
	Strategy Binding
}

func (p PoolBundle) Complete() bool {
	return p.Token != nil && p.Pool != nil && p.Strategy != nil
}
