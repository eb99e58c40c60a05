// Package deploy provides deployment and update procedure of the GAS Bank
// contract.
package deploy

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/nspcc-dev/gasbank-contract/rpc/bank"
	"github.com/nspcc-dev/neo-go/pkg/core/state"
	"github.com/nspcc-dev/neo-go/pkg/neorpc/result"
	"github.com/nspcc-dev/neo-go/pkg/rpcclient/actor"
	"github.com/nspcc-dev/neo-go/pkg/rpcclient/management"
	"github.com/nspcc-dev/neo-go/pkg/smartcontract/manifest"
	"github.com/nspcc-dev/neo-go/pkg/smartcontract/nef"
	"github.com/nspcc-dev/neo-go/pkg/smartcontract/trigger"
	"github.com/nspcc-dev/neo-go/pkg/util"
	"github.com/nspcc-dev/neo-go/pkg/vm/vmstate"
	"github.com/nspcc-dev/neo-go/pkg/wallet"
	"go.uber.org/zap"
)

// DefaultPollInterval is used to wait for transactions if Prm.PollInterval
// is not set.
const DefaultPollInterval = time.Second

var (
	// ErrInvalidPrm is returned by Deploy when Prm is incomplete or malformed.
	ErrInvalidPrm = errors.New("invalid deployment parameters")

	// ErrNotOwner is returned by Deploy when the on-chain contract should be
	// updated but local account is not its owner.
	ErrNotOwner = errors.New("local account is not the contract owner")
)

// Blockchain groups services provided by particular Neo blockchain network
// that are required for the bank deployment.
type Blockchain interface {
	// RPCActor groups functions needed to compose and send transactions to the
	// blockchain.
	actor.RPCActor

	// GetContractStateByHash returns network state of the smart contract by its
	// address. GetContractStateByHash returns error with 'Unknown contract'
	// substring if requested contract is missing.
	GetContractStateByHash(util.Uint160) (*state.Contract, error)

	// GetApplicationLog returns execution results of the persisted transaction.
	GetApplicationLog(util.Uint256, *trigger.Type) (*result.ApplicationLog, error)
}

// Prm groups all parameters of the bank deployment procedure.
type Prm struct {
	// Writes progress into the log. Optional.
	Logger *zap.Logger

	// Particular Neo blockchain instance to deploy the contract to.
	Blockchain Blockchain

	// Local process account used for transaction signing (must be unlocked).
	// Contract address depends on it.
	LocalAccount *wallet.Account

	NEF      nef.File
	Manifest manifest.Manifest

	// Address of the contract deployed earlier. Updated executable changes
	// the address derived by ContractAddress, so it must be set to update the
	// contract. Optional for the first deployment.
	Contract util.Uint160

	// Contract owner, immutable after deployment.
	Owner util.Uint160
	// Limit of a single withdrawal request, immutable after deployment.
	MaxWithdrawal int64
	// Limit of GAS held by the contract, immutable after deployment.
	BankCap int64

	// Interval between checks of sent transactions. Defaults to
	// DefaultPollInterval.
	PollInterval time.Duration
}

func (p *Prm) validate() error {
	switch {
	case p.Blockchain == nil:
		return fmt.Errorf("%w: missing blockchain", ErrInvalidPrm)
	case p.LocalAccount == nil:
		return fmt.Errorf("%w: missing local account", ErrInvalidPrm)
	case p.Manifest.Name == "":
		return fmt.Errorf("%w: missing contract manifest", ErrInvalidPrm)
	case len(p.NEF.Script) == 0:
		return fmt.Errorf("%w: missing contract NEF", ErrInvalidPrm)
	case p.Owner.Equals(util.Uint160{}):
		return fmt.Errorf("%w: missing owner", ErrInvalidPrm)
	case p.MaxWithdrawal <= 0:
		return fmt.Errorf("%w: non-positive max withdrawal %d", ErrInvalidPrm, p.MaxWithdrawal)
	case p.BankCap <= 0:
		return fmt.Errorf("%w: non-positive bank cap %d", ErrInvalidPrm, p.BankCap)
	}
	return nil
}

// ContractAddress returns Prm.Contract if set, otherwise the address the bank
// contract gets when deployed by the local account of the given Prm.
func ContractAddress(prm Prm) util.Uint160 {
	if !prm.Contract.Equals(util.Uint160{}) {
		return prm.Contract
	}
	return state.CreateContractHash(prm.LocalAccount.ScriptHash(), prm.NEF.Checksum, prm.Manifest.Name)
}

// Deploy synchronizes the bank contract on the chain with the local one and
// returns its address.
//
// If there is no contract yet, it is deployed with Prm.Owner, Prm.MaxWithdrawal
// and Prm.BankCap. If the on-chain contract has another executable, it is
// updated, which requires local account to be the contract owner. Deployment
// parameters are never changed for the existing contract. Deploy is
// idempotent: nothing is sent when the chain already has the same contract.
//
// Deploy waits for sent transactions to be persisted and returns an error if
// they are not executed successfully.
func Deploy(ctx context.Context, prm Prm) (util.Uint160, error) {
	if err := prm.validate(); err != nil {
		return util.Uint160{}, err
	}

	if prm.Logger == nil {
		prm.Logger = zap.NewNop()
	}
	if prm.PollInterval <= 0 {
		prm.PollInterval = DefaultPollInterval
	}

	addr := ContractAddress(prm)
	l := prm.Logger.With(zap.Stringer("address", addr))

	act, err := actor.NewSimple(prm.Blockchain, prm.LocalAccount)
	if err != nil {
		return addr, fmt.Errorf("init transaction sender from single local account: %w", err)
	}

	l.Info("checking contract presence on the chain...")

	onChain, err := prm.Blockchain.GetContractStateByHash(addr)
	if err != nil && !isErrContractNotFound(err) {
		return addr, fmt.Errorf("get state of the contract by address: %w", err)
	}

	if onChain == nil || err != nil {
		l.Info("contract is missing on the chain, deploying...",
			zap.Stringer("owner", prm.Owner),
			zap.Int64("max withdrawal", prm.MaxWithdrawal),
			zap.Int64("bank cap", prm.BankCap))

		txHash, vub, err := management.New(act).Deploy(&prm.NEF, &prm.Manifest,
			[]any{prm.Owner, prm.MaxWithdrawal, prm.BankCap})
		if err != nil {
			return addr, fmt.Errorf("send contract deployment transaction: %w", err)
		}

		err = waitTx(ctx, l, prm, txHash, vub)
		if err != nil {
			return addr, fmt.Errorf("deploy contract: %w", err)
		}

		l.Info("contract successfully deployed")

		return addr, nil
	}

	if onChain.NEF.Checksum == prm.NEF.Checksum {
		l.Info("contract is already up-to-date", zap.Int32("id", onChain.ID))
		return addr, nil
	}

	contract := bank.New(act, addr)

	owner, err := contract.Owner()
	if err != nil {
		return addr, fmt.Errorf("get contract owner: %w", err)
	}

	if !owner.Equals(prm.LocalAccount.ScriptHash()) {
		return addr, fmt.Errorf("%w: owner %s", ErrNotOwner, owner.StringLE())
	}

	rawNEF, err := prm.NEF.Bytes()
	if err != nil {
		return addr, fmt.Errorf("encode contract NEF into binary: %w", err)
	}

	rawManifest, err := json.Marshal(prm.Manifest)
	if err != nil {
		return addr, fmt.Errorf("encode contract manifest into JSON: %w", err)
	}

	l.Info("contract differs from the local one, updating...", zap.Uint16("update counter", onChain.UpdateCounter))

	txHash, vub, err := contract.Update(rawNEF, rawManifest, nil)
	if err != nil {
		return addr, fmt.Errorf("send contract update transaction: %w", err)
	}

	err = waitTx(ctx, l, prm, txHash, vub)
	if err != nil {
		return addr, fmt.Errorf("update contract: %w", err)
	}

	l.Info("contract successfully updated")

	return addr, nil
}

// waitTx polls the blockchain until the transaction is persisted or expired.
func waitTx(ctx context.Context, l *zap.Logger, prm Prm, txHash util.Uint256, vub uint32) error {
	l = l.With(zap.Stringer("tx", txHash), zap.Uint32("vub", vub))
	l.Debug("waiting for transaction to be persisted...")

	ticker := time.NewTicker(prm.PollInterval)
	defer ticker.Stop()

	trig := trigger.Application

	for {
		appLog, err := prm.Blockchain.GetApplicationLog(txHash, &trig)
		if err == nil {
			return checkApplicationLog(appLog)
		}

		l.Debug("transaction is not persisted yet", zap.Error(err))

		height, err := prm.Blockchain.GetBlockCount()
		if err != nil {
			l.Info("failed to get current chain height", zap.Error(err))
		} else if height > vub+1 {
			// block could be persisted right after the log request
			appLog, err = prm.Blockchain.GetApplicationLog(txHash, &trig)
			if err == nil {
				return checkApplicationLog(appLog)
			}
			return fmt.Errorf("transaction %s expired at block %d", txHash.StringLE(), vub)
		}

		select {
		case <-ctx.Done():
			return fmt.Errorf("wait for transaction %s: %w", txHash.StringLE(), ctx.Err())
		case <-ticker.C:
		}
	}
}

func checkApplicationLog(appLog *result.ApplicationLog) error {
	if len(appLog.Executions) == 0 {
		return errors.New("missing transaction execution results")
	}

	ex := appLog.Executions[0]
	if ex.VMState != vmstate.Halt {
		return fmt.Errorf("transaction %s failed with %s state: %s",
			appLog.Container.StringLE(), ex.VMState, ex.FaultException)
	}

	return nil
}

func isErrContractNotFound(err error) bool {
	return strings.Contains(strings.ToLower(err.Error()), "unknown contract")
}
