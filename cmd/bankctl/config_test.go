package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/nspcc-dev/neo-go/pkg/encoding/address"
	"github.com/nspcc-dev/neo-go/pkg/util"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli"
)

const testConfig = `
rpc: http://localhost:30333
contract: 0x0102030000000000000000000000000000000000
wallet:
  path: wallet.json
  address: NbUgTSFvPmsRxmGeWpuuGeJUoRoi6PErcM
  password: one
owner: NbUgTSFvPmsRxmGeWpuuGeJUoRoi6PErcM
maxWithdrawal: 30
bankCap: 200
nef: bank.nef
manifest: bank.manifest.json
pollInterval: 500ms
`

func writeConfig(t *testing.T, data string) string {
	p := filepath.Join(t.TempDir(), "bankctl.yml")
	require.NoError(t, os.WriteFile(p, []byte(data), 0600))
	return p
}

func TestReadConfig(t *testing.T) {
	cfg, err := readConfig(writeConfig(t, testConfig))
	require.NoError(t, err)

	require.Equal(t, "http://localhost:30333", cfg.RPC)
	require.Equal(t, "wallet.json", cfg.Wallet.Path)
	require.Equal(t, "one", cfg.Wallet.Password)
	require.EqualValues(t, 30, cfg.MaxWithdrawal)
	require.EqualValues(t, 200, cfg.BankCap)
	require.Equal(t, "bank.nef", cfg.NEF)
	require.Equal(t, 500*time.Millisecond, cfg.PollInterval)
	require.Equal(t, defaultRPCTimeout, cfg.RPCTimeout)
	require.Equal(t, defaultWaitTimeout, cfg.WaitTimeout)

	t.Run("missing file", func(t *testing.T) {
		_, err := readConfig(filepath.Join(t.TempDir(), "none.yml"))
		require.Error(t, err)
	})

	t.Run("malformed", func(t *testing.T) {
		_, err := readConfig(writeConfig(t, "bankCap: [1, 2]"))
		require.Error(t, err)
	})
}

// runWithConfig runs the named command of bankctl with the given arguments and
// returns the configuration it sees.
func runWithConfig(t *testing.T, cmd string, args ...string) (config, error) {
	var (
		cfg    config
		cfgErr error
	)

	app := newApp()
	for i := range app.Commands {
		if app.Commands[i].Name == cmd {
			app.Commands[i].Action = func(c *cli.Context) error {
				cfg, cfgErr = loadConfig(c)
				return nil
			}
		}
	}

	require.NoError(t, app.Run(append([]string{"bankctl"}, args...)))

	return cfg, cfgErr
}

func TestLoadConfig(t *testing.T) {
	p := writeConfig(t, testConfig)

	t.Run("file only", func(t *testing.T) {
		cfg, err := runWithConfig(t, "stats", "--config", p, "stats")
		require.NoError(t, err)
		require.Equal(t, "http://localhost:30333", cfg.RPC)
		require.Equal(t, "0x0102030000000000000000000000000000000000", cfg.Contract)
	})

	t.Run("flags override file", func(t *testing.T) {
		cfg, err := runWithConfig(t, "deploy",
			"--config", p, "--rpc", "http://node:30333", "--timeout", "3s",
			"deploy", "--bank-cap", "500", "--nef", "other.nef", "--wallet", "w.json")
		require.NoError(t, err)
		require.Equal(t, "http://node:30333", cfg.RPC)
		require.Equal(t, 3*time.Second, cfg.RPCTimeout)
		require.EqualValues(t, 500, cfg.BankCap)
		require.EqualValues(t, 30, cfg.MaxWithdrawal)
		require.Equal(t, "other.nef", cfg.NEF)
		require.Equal(t, "w.json", cfg.Wallet.Path)
		require.Equal(t, "bank.manifest.json", cfg.Manifest)
	})

	t.Run("no endpoint", func(t *testing.T) {
		t.Setenv("BANKCTL_RPC", "")
		_, err := runWithConfig(t, "stats", "stats")
		require.ErrorContains(t, err, "missing Neo RPC endpoint")
	})
}

func TestParseAccount(t *testing.T) {
	h := util.Uint160{1, 2, 3}

	for _, s := range []string{
		address.Uint160ToString(h),
		h.StringLE(),
		"0x" + h.StringLE(),
	} {
		res, err := parseAccount(s)
		require.NoError(t, err, s)
		require.Equal(t, h, res)
	}

	_, err := parseAccount("not an account")
	require.Error(t, err)
}
