package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
	"golang.org/x/exp/maps"
)

type Configs struct {
	Env      string `toml:"env"`
	LogLevel string `toml:"log_level"`

	Chain            ChainConfig              `toml:"chain"`
	SafeHost         SafeHostConfigs          `toml:"safe_host"`
	RPCServer        RPCServerConfigs         `toml:"rpc_server"`
	PrometheusServer ServerConfigs            `toml:"prometheus_server"`
	Networks         map[string]NetworkConfig `toml:"networks"`
}

// Duration decodes "2s" style strings from toml.
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}

	d.Duration = v
	return nil
}

type ServerConfigs struct {
	Host string `toml:"host"`
	Port string `toml:"port"`
}

func (c ServerConfigs) Address() string {
	return fmt.Sprintf("%s:%s", c.Host, c.Port)
}

type RPCServerConfigs struct {
	ServerConfigs
	RPCName string `toml:"rpc_name"`
}

type SafeHostConfigs struct {
	URL string `toml:"url"`
}

type ChainConfig struct {
	Rpcs []string `toml:"rpcs" json:"rpcs"`

	// Pull extra public endpoints from chainlist when set.
	UseExternalRpcs bool `toml:"use_external_rpcs" json:"use_external_rpcs"`

	RefreshConnectionFrequency Duration `toml:"refresh_connection_frequency"`
	ReceiptPollInterval        Duration `toml:"receipt_poll_interval"`
	MaxReceiptPollInterval     Duration `toml:"max_receipt_poll_interval"`
}

type NetworkConfig struct {
	ChainID uint64 `toml:"chain_id"`
	Name    string `toml:"name"`

	// asset id -> ERC-20 address
	Tokens map[string]string `toml:"tokens"`
	// asset id -> prize pool addresses
	Pools map[string]PoolConfig `toml:"pools"`
}

type PoolConfig struct {
	PrizePool     string `toml:"prize_pool"`
	PrizeStrategy string `toml:"prize_strategy"`
}

// Network finds the configuration of a chain id.
func (c Configs) Network(chainID uint64) (NetworkConfig, bool) {
	for _, n := range c.Networks {
		if n.ChainID == chainID {
			return n, true
		}
	}

	return NetworkConfig{}, false
}

// Default holds the token addresses known for every supported network. Pool addresses are
// deployment specific and come from the config file.
func Default() Configs {
	return Configs{
		Env:      "local",
		LogLevel: "info",
		Chain: ChainConfig{
			RefreshConnectionFrequency: Duration{5 * time.Minute},
			ReceiptPollInterval:        Duration{2 * time.Second},
			MaxReceiptPollInterval:     Duration{30 * time.Second},
		},
		SafeHost: SafeHostConfigs{
			URL: "ws://localhost:8545/safe",
		},
		RPCServer: RPCServerConfigs{
			ServerConfigs: ServerConfigs{Host: "localhost", Port: "8090"},
			RPCName:       "widget",
		},
		PrometheusServer: ServerConfigs{Host: "localhost", Port: "9090"},
		Networks: map[string]NetworkConfig{
			"mainnet": {
				ChainID: 1,
				Name:    "mainnet",
				Tokens: map[string]string{
					"DAI":  "0x6B175474E89094C44Da98b954EedeAC495271d0F",
					"USDC": "0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48",
					"USDT": "0xdAC17F958D2ee523a2206206994597C13D831ec7",
				},
				Pools: map[string]PoolConfig{},
			},
			"rinkeby": {
				ChainID: 4,
				Name:    "rinkeby",
				Tokens: map[string]string{
					"DAI":  "0x5592EC0cfb4dbc12D3aB100b257153436a1f0FEa",
					"USDC": "0x4DBCdF9B62e891a7cec5A2568C3F4FAF9E8Abe2b",
					"USDT": "0xD9BA894E0097f8cC2BBc9D24D308b98e36dc6D02",
				},
				Pools: map[string]PoolConfig{},
			},
		},
	}
}

// LoadConfigs layers the defaults, the toml file at path (optional), a .env file in the working
// directory (optional) and finally the WIDGET_* environment variables.
func LoadConfigs(path string) (Configs, error) {
	cfg := Default()

	if path != "" {
		defaults := cfg.Networks
		cfg.Networks = nil
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			return Configs{}, fmt.Errorf("cannot decode config file %s: %w", path, err)
		}
		cfg.Networks = mergeNetworks(defaults, cfg.Networks)
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Configs{}, fmt.Errorf("cannot load .env: %w", err)
	}

	if err := applyEnv(&cfg); err != nil {
		return Configs{}, err
	}

	return cfg, nil
}

// mergeNetworks overlays the networks of a config file on the defaults. A file may declare only
// the pools of a known network and still inherit its chain id and tokens.
func mergeNetworks(defaults, file map[string]NetworkConfig) map[string]NetworkConfig {
	merged := make(map[string]NetworkConfig, len(defaults)+len(file))
	maps.Copy(merged, defaults)

	for key, n := range file {
		base, ok := merged[key]
		if !ok {
			merged[key] = n
			continue
		}

		if n.ChainID != 0 {
			base.ChainID = n.ChainID
		}

		if n.Name != "" {
			base.Name = n.Name
		}

		tokens := make(map[string]string, len(base.Tokens)+len(n.Tokens))
		maps.Copy(tokens, base.Tokens)
		maps.Copy(tokens, n.Tokens)
		base.Tokens = tokens

		pools := make(map[string]PoolConfig, len(base.Pools)+len(n.Pools))
		maps.Copy(pools, base.Pools)
		maps.Copy(pools, n.Pools)
		base.Pools = pools

		merged[key] = base
	}

	return merged
}

func applyEnv(cfg *Configs) error {
	if v := os.Getenv("WIDGET_RPC_URL"); v != "" {
		cfg.Chain.Rpcs = append([]string{v}, cfg.Chain.Rpcs...)
	}

	if v := os.Getenv("WIDGET_SAFE_HOST_URL"); v != "" {
		cfg.SafeHost.URL = v
	}

	if v := os.Getenv("WIDGET_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}

	if v := os.Getenv("WIDGET_USE_EXTERNAL_RPCS"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid WIDGET_USE_EXTERNAL_RPCS: %w", err)
		}
		cfg.Chain.UseExternalRpcs = b
	}

	return nil
}
