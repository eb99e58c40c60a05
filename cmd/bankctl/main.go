// Command bankctl deploys the GAS Bank contract and inspects its state on a
// Neo network.
package main

import (
	"context"
	"fmt"
	"math/big"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/nspcc-dev/gasbank-contract/deploy"
	"github.com/nspcc-dev/gasbank-contract/internal/audit"
	"github.com/nspcc-dev/neo-go/pkg/encoding/address"
	"github.com/nspcc-dev/neo-go/pkg/encoding/fixedn"
	"github.com/nspcc-dev/neo-go/pkg/util"
	"github.com/urfave/cli"
	"go.uber.org/zap"
)

// gasPrecision is a number of decimals of the GAS token.
const gasPrecision = 8

var log = zap.NewNop()

func main() {
	app := newApp()
	if err := app.Run(os.Args); err != nil {
		log.Error("command failed", zap.Error(err))
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	app := cli.NewApp()
	app.Name = "bankctl"
	app.Usage = "GAS Bank contract management"
	app.Flags = []cli.Flag{
		cli.StringFlag{
			Name:  "config, c",
			Usage: "Path to YAML configuration file",
		},
		cli.StringFlag{
			Name:   "rpc, r",
			Usage:  "Network address of the Neo RPC server",
			EnvVar: "BANKCTL_RPC",
		},
		cli.StringFlag{
			Name:  "contract",
			Usage: "Address or LE script hash of the deployed bank contract",
		},
		cli.DurationFlag{
			Name:  "timeout",
			Usage: "Neo RPC dial and request timeout",
		},
		cli.BoolFlag{
			Name:  "debug",
			Usage: "Enable debug logging",
		},
	}
	app.Before = func(c *cli.Context) error {
		l, err := newLogger(c.GlobalBool("debug"))
		if err != nil {
			return err
		}
		log = l
		return nil
	}
	app.After = func(*cli.Context) error {
		_ = log.Sync()
		return nil
	}
	app.Commands = []cli.Command{
		{
			Name:  "deploy",
			Usage: "Deploy the contract or update the deployed one",
			Flags: []cli.Flag{
				cli.StringFlag{Name: "wallet, w", Usage: "Path to NEP-6 wallet"},
				cli.StringFlag{Name: "address, a", Usage: "Wallet account to sign transactions with"},
				cli.StringFlag{Name: "password", Usage: "Wallet account password", EnvVar: "BANKCTL_WALLET_PASSWORD"},
				cli.StringFlag{Name: "owner", Usage: "Contract owner address"},
				cli.Int64Flag{Name: "max-withdrawal", Usage: "Limit of a single withdrawal request"},
				cli.Int64Flag{Name: "bank-cap", Usage: "Limit of GAS held by the contract"},
				cli.StringFlag{Name: "nef", Usage: "Path to compiled contract"},
				cli.StringFlag{Name: "manifest", Usage: "Path to contract manifest"},
			},
			Action: deployAction,
		},
		{
			Name:   "stats",
			Usage:  "Print global counters of the bank",
			Action: statsAction,
		},
		{
			Name:      "account",
			Usage:     "Print ledger entries of the depositor",
			ArgsUsage: "<address>",
			Action:    accountAction,
		},
		{
			Name:   "audit",
			Usage:  "Check ledger invariants over the contract storage",
			Action: auditAction,
		},
	}
	return app
}

func newLogger(debug bool) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	if debug {
		cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	}

	l, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}

	return l.With(zap.String("run", uuid.NewString())), nil
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

// connect loads configuration and dials the Neo RPC server.
func connect(ctx context.Context, c *cli.Context) (config, *remoteBlockchain, error) {
	cfg, err := loadConfig(c)
	if err != nil {
		return cfg, nil, err
	}

	b, err := newRemoteBlockchain(ctx, cfg.RPC, cfg.RPCTimeout)
	if err != nil {
		return cfg, nil, fmt.Errorf("init remote blockchain: %w", err)
	}

	return cfg, b, nil
}

// contractAddress returns configured address of the deployed contract.
func contractAddress(cfg config) (util.Uint160, error) {
	if cfg.Contract == "" {
		return util.Uint160{}, cli.NewExitError("missing bank contract address", 1)
	}
	return parseAccount(cfg.Contract)
}

func deployAction(c *cli.Context) error {
	ctx, cancel := signalContext()
	defer cancel()

	cfg, b, err := connect(ctx, c)
	if err != nil {
		return err
	}
	defer b.close()

	if pwd := c.String("password"); pwd != "" {
		cfg.Wallet.Password = pwd
	}

	acc, err := openAccount(cfg.Wallet.Path, cfg.Wallet.Address, cfg.Wallet.Password)
	if err != nil {
		return err
	}

	nefFile, m, err := readContract(cfg.NEF, cfg.Manifest)
	if err != nil {
		return err
	}

	prm := deploy.Prm{
		Logger:        log,
		Blockchain:    b.rpc,
		LocalAccount:  acc,
		NEF:           nefFile,
		Manifest:      m,
		MaxWithdrawal: cfg.MaxWithdrawal,
		BankCap:       cfg.BankCap,
		PollInterval:  cfg.PollInterval,
	}

	if cfg.Owner != "" {
		prm.Owner, err = parseAccount(cfg.Owner)
		if err != nil {
			return fmt.Errorf("owner: %w", err)
		}
	} else {
		prm.Owner = acc.ScriptHash()
	}

	if cfg.Contract != "" {
		prm.Contract, err = parseAccount(cfg.Contract)
		if err != nil {
			return fmt.Errorf("contract: %w", err)
		}
	}

	ctx, cancelWait := context.WithTimeout(ctx, cfg.WaitTimeout)
	defer cancelWait()

	addr, err := deploy.Deploy(ctx, prm)
	if err != nil {
		return err
	}

	fmt.Fprintf(c.App.Writer, "Contract: %s (%s)\n", address.Uint160ToString(addr), addr.StringLE())

	return nil
}

func statsAction(c *cli.Context) error {
	ctx, cancel := signalContext()
	defer cancel()

	cfg, b, err := connect(ctx, c)
	if err != nil {
		return err
	}
	defer b.close()

	contract, err := contractAddress(cfg)
	if err != nil {
		return err
	}

	r := b.bankReader(contract)

	stats, err := r.GetStats()
	if err != nil {
		return fmt.Errorf("get bank stats: %w", err)
	}

	owner, err := r.Owner()
	if err != nil {
		return fmt.Errorf("get bank owner: %w", err)
	}

	maxWithdrawal, err := r.MaxWithdrawal()
	if err != nil {
		return fmt.Errorf("get max withdrawal: %w", err)
	}

	bankCap, err := r.BankCap()
	if err != nil {
		return fmt.Errorf("get bank cap: %w", err)
	}

	w := c.App.Writer
	fmt.Fprintf(w, "Owner:          %s\n", address.Uint160ToString(owner))
	fmt.Fprintf(w, "Max withdrawal: %s\n", gasString(maxWithdrawal))
	fmt.Fprintf(w, "Bank cap:       %s\n", gasString(bankCap))
	fmt.Fprintf(w, "Held:           %s\n", gasString(stats.Held))
	fmt.Fprintf(w, "Users:          %s\n", stats.Users)
	fmt.Fprintf(w, "Deposits:       %s\n", stats.DepositOps)
	fmt.Fprintf(w, "Withdrawals:    %s\n", stats.WithdrawalOps)

	return nil
}

func accountAction(c *cli.Context) error {
	if c.NArg() != 1 {
		return cli.NewExitError("exactly one account address is expected", 1)
	}

	h, err := parseAccount(c.Args().First())
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	cfg, b, err := connect(ctx, c)
	if err != nil {
		return err
	}
	defer b.close()

	contract, err := contractAddress(cfg)
	if err != nil {
		return err
	}

	acc, err := b.bankReader(contract).GetAccount(h)
	if err != nil {
		return fmt.Errorf("get bank account: %w", err)
	}

	w := c.App.Writer
	fmt.Fprintf(w, "Available:   %s\n", gasString(acc.Balance))
	fmt.Fprintf(w, "Pending:     %s\n", gasString(acc.Pending))
	fmt.Fprintf(w, "Deposits:    %s\n", acc.Deposits)
	fmt.Fprintf(w, "Withdrawals: %s\n", acc.Withdrawals)

	return nil
}

func auditAction(c *cli.Context) error {
	ctx, cancel := signalContext()
	defer cancel()

	cfg, b, err := connect(ctx, c)
	if err != nil {
		return err
	}
	defer b.close()

	contract, err := contractAddress(cfg)
	if err != nil {
		return err
	}

	l := log.With(zap.Stringer("contract", contract))
	l.Info("reading contract storage...")

	s, held, height, err := b.snapshot(contract)
	if err != nil {
		return fmt.Errorf("read bank storage: %w", err)
	}

	l.Info("storage read", zap.Uint32("height", height),
		zap.Int("accounts", len(s.Accounts)), zap.Stringer("held", held))

	return reportViolations(c, audit.Check(s, held))
}

func reportViolations(c *cli.Context, vs []audit.Violation) error {
	if len(vs) == 0 {
		fmt.Fprintln(c.App.Writer, "Ledger is consistent")
		return nil
	}

	for i := range vs {
		fmt.Fprintln(c.App.Writer, vs[i].String())
	}

	return cli.NewExitError(fmt.Sprintf("%d ledger violations found", len(vs)), 2)
}

func gasString(v *big.Int) string {
	return fixedn.ToString(v, gasPrecision)
}
