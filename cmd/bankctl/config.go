package main

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/nspcc-dev/neo-go/pkg/encoding/address"
	"github.com/nspcc-dev/neo-go/pkg/util"
	"github.com/urfave/cli"
	"gopkg.in/yaml.v3"
)

const (
	defaultRPCTimeout   = 15 * time.Second
	defaultPollInterval = time.Second
	defaultWaitTimeout  = 2 * time.Minute
)

// config is a bankctl configuration read from YAML file. Command line flags
// take precedence over the file.
type config struct {
	RPC      string `yaml:"rpc"`
	Contract string `yaml:"contract"`

	Wallet struct {
		Path     string `yaml:"path"`
		Address  string `yaml:"address"`
		Password string `yaml:"password"`
	} `yaml:"wallet"`

	Owner         string `yaml:"owner"`
	MaxWithdrawal int64  `yaml:"maxWithdrawal"`
	BankCap       int64  `yaml:"bankCap"`

	NEF      string `yaml:"nef"`
	Manifest string `yaml:"manifest"`

	RPCTimeout   time.Duration `yaml:"rpcTimeout"`
	PollInterval time.Duration `yaml:"pollInterval"`
	WaitTimeout  time.Duration `yaml:"waitTimeout"`
}

func defaultConfig() config {
	return config{
		RPCTimeout:   defaultRPCTimeout,
		PollInterval: defaultPollInterval,
		WaitTimeout:  defaultWaitTimeout,
	}
}

func readConfig(path string) (config, error) {
	cfg := defaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config file: %w", err)
	}

	err = yaml.Unmarshal(data, &cfg)
	if err != nil {
		return cfg, fmt.Errorf("decode config file '%s': %w", path, err)
	}

	return cfg, nil
}

// loadConfig reads config file if it is specified and applies command line
// flags over it.
func loadConfig(c *cli.Context) (config, error) {
	cfg := defaultConfig()

	if p := c.GlobalString("config"); p != "" {
		var err error
		cfg, err = readConfig(p)
		if err != nil {
			return cfg, err
		}
	}

	for _, s := range []struct {
		flag string
		dst  *string
	}{
		{"rpc", &cfg.RPC},
		{"contract", &cfg.Contract},
		{"wallet", &cfg.Wallet.Path},
		{"address", &cfg.Wallet.Address},
		{"owner", &cfg.Owner},
		{"nef", &cfg.NEF},
		{"manifest", &cfg.Manifest},
	} {
		if v := c.GlobalString(s.flag); v != "" {
			*s.dst = v
		} else if v := c.String(s.flag); v != "" {
			*s.dst = v
		}
	}

	if v := c.Int64("max-withdrawal"); v != 0 {
		cfg.MaxWithdrawal = v
	}
	if v := c.Int64("bank-cap"); v != 0 {
		cfg.BankCap = v
	}
	if v := c.GlobalDuration("timeout"); v != 0 {
		cfg.RPCTimeout = v
	}

	if cfg.RPC == "" {
		return cfg, errors.New("missing Neo RPC endpoint")
	}

	return cfg, nil
}

// parseAccount decodes script hash given either as Neo address or as
// little-endian hex string.
func parseAccount(s string) (util.Uint160, error) {
	s = strings.TrimPrefix(s, "0x")

	if h, err := address.StringToUint160(s); err == nil {
		return h, nil
	}

	h, err := util.Uint160DecodeStringLE(s)
	if err != nil {
		return h, fmt.Errorf("'%s' is neither an address nor LE hex script hash", s)
	}

	return h, nil
}
