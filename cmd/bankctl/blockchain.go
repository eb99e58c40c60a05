package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"os"
	"time"

	"github.com/nspcc-dev/gasbank-contract/internal/audit"
	"github.com/nspcc-dev/gasbank-contract/rpc/bank"
	"github.com/nspcc-dev/neo-go/pkg/core/state"
	"github.com/nspcc-dev/neo-go/pkg/neorpc/result"
	"github.com/nspcc-dev/neo-go/pkg/rpcclient"
	"github.com/nspcc-dev/neo-go/pkg/rpcclient/gas"
	"github.com/nspcc-dev/neo-go/pkg/rpcclient/invoker"
	"github.com/nspcc-dev/neo-go/pkg/smartcontract/manifest"
	"github.com/nspcc-dev/neo-go/pkg/smartcontract/nef"
	"github.com/nspcc-dev/neo-go/pkg/util"
	"github.com/nspcc-dev/neo-go/pkg/wallet"
)

// stateRPC is a part of Neo RPC API providing historical contract storage.
type stateRPC interface {
	GetBlockCount() (uint32, error)
	GetStateRootByHeight(height uint32) (*state.MPTRoot, error)
	FindStates(stateroot util.Uint256, historicalContractHash util.Uint160, historicalKeyPrefix []byte,
		start []byte, maxCount *int) (result.FindStates, error)
}

// remoteBlockchain wraps Neo RPC client providing services needed for bank
// commands.
type remoteBlockchain struct {
	rpc     *rpcclient.Client
	invoker *invoker.Invoker

	state stateRPC
	// heldAt returns GAS balance of the contract after the block with the
	// given index.
	heldAt func(contract util.Uint160, height uint32) (*big.Int, error)
}

// newRemoteBlockchain dials Neo RPC server and returns remoteBlockchain based
// on the opened connection. Connection and all requests are limited by the
// given timeout.
func newRemoteBlockchain(ctx context.Context, endpoint string, timeout time.Duration) (*remoteBlockchain, error) {
	c, err := rpcclient.New(ctx, endpoint, rpcclient.Options{
		DialTimeout:    timeout,
		RequestTimeout: timeout,
	})
	if err != nil {
		return nil, fmt.Errorf("RPC client dial: %w", err)
	}

	err = c.Init()
	if err != nil {
		c.Close()
		return nil, fmt.Errorf("init RPC client: %w", err)
	}

	return &remoteBlockchain{
		rpc:     c,
		invoker: invoker.New(c, nil),
		state:   c,
		heldAt: func(contract util.Uint160, height uint32) (*big.Int, error) {
			return gas.NewReader(invoker.NewHistoricAtHeight(height, c, nil)).BalanceOf(contract)
		},
	}, nil
}

func (x *remoteBlockchain) close() {
	x.rpc.Close()
}

func (x *remoteBlockchain) bankReader(contract util.Uint160) *bank.ContractReader {
	return bank.NewReader(x.invoker, contract)
}

// iterateContractStorage iterates over all storage items of the Neo smart
// contract referenced by given address at the given state root and passes
// them into f. iterateContractStorage breaks on any f's error and returns it.
func (x *remoteBlockchain) iterateContractStorage(root util.Uint256, contract util.Uint160, f func(key, value []byte) error) error {
	var start []byte

	for {
		res, err := x.state.FindStates(root, contract, nil, start, nil)
		if err != nil {
			return fmt.Errorf("get historical storage items of the contract at state root '%s': %w", root, err)
		}

		for i := range res.Results {
			err = f(res.Results[i].Key, res.Results[i].Value)
			if err != nil {
				return err
			}
		}

		if !res.Truncated || len(res.Results) == 0 {
			return nil
		}

		start = res.Results[len(res.Results)-1].Key
	}
}

// snapshot reads the whole bank storage into audit.Snapshot together with
// GAS balance of the contract. Both are taken after the latest block known
// at the moment of the call, so blocks accepted during the reading don't
// affect the result.
func (x *remoteBlockchain) snapshot(contract util.Uint160) (*audit.Snapshot, *big.Int, uint32, error) {
	nBlocks, err := x.state.GetBlockCount()
	if err != nil {
		return nil, nil, 0, fmt.Errorf("get number of blocks: %w", err)
	}

	if nBlocks == 0 {
		return nil, nil, 0, errors.New("empty blockchain")
	}

	height := nBlocks - 1

	stateRoot, err := x.state.GetStateRootByHeight(height)
	if err != nil {
		return nil, nil, height, fmt.Errorf("get state root at block #%d: %w", height, err)
	}

	s := audit.NewSnapshot()

	err = x.iterateContractStorage(stateRoot.Root, contract, func(key, value []byte) error {
		if err := s.Put(key, value); err != nil {
			return fmt.Errorf("storage item %x: %w", key, err)
		}
		return nil
	})
	if err != nil {
		return nil, nil, height, err
	}

	held, err := x.heldAt(contract, height)
	if err != nil {
		return nil, nil, height, fmt.Errorf("get GAS balance of the contract at block #%d: %w", height, err)
	}

	return s, held, height, nil
}

// openAccount reads the wallet and returns its decrypted account. If address
// is empty, the default wallet account is used.
func openAccount(path, addr, password string) (*wallet.Account, error) {
	w, err := wallet.NewWalletFromFile(path)
	if err != nil {
		return nil, fmt.Errorf("open wallet file: %w", err)
	}
	defer w.Close()

	var acc *wallet.Account
	if addr == "" {
		if len(w.Accounts) == 0 {
			return nil, fmt.Errorf("wallet '%s' has no accounts", path)
		}
		acc = w.Accounts[0]
		for _, a := range w.Accounts {
			if a.Default {
				acc = a
				break
			}
		}
	} else {
		h, err := parseAccount(addr)
		if err != nil {
			return nil, err
		}
		acc = w.GetAccount(h)
		if acc == nil {
			return nil, fmt.Errorf("account %s is missing in wallet '%s'", addr, path)
		}
	}

	err = acc.Decrypt(password, w.Scrypt)
	if err != nil {
		return nil, fmt.Errorf("decrypt account %s: %w", acc.Address, err)
	}

	return acc, nil
}

// readContract reads compiled contract files.
func readContract(nefPath, manifestPath string) (nef.File, manifest.Manifest, error) {
	var (
		nefFile nef.File
		m       manifest.Manifest
	)

	b, err := os.ReadFile(nefPath)
	if err != nil {
		return nefFile, m, fmt.Errorf("read NEF file: %w", err)
	}

	nefFile, err = nef.FileFromBytes(b)
	if err != nil {
		return nefFile, m, fmt.Errorf("decode NEF file '%s': %w", nefPath, err)
	}

	b, err = os.ReadFile(manifestPath)
	if err != nil {
		return nefFile, m, fmt.Errorf("read manifest file: %w", err)
	}

	err = json.Unmarshal(b, &m)
	if err != nil {
		return nefFile, m, fmt.Errorf("decode manifest file '%s': %w", manifestPath, err)
	}

	return nefFile, m, nil
}
