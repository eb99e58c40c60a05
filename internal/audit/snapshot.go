// Package audit decodes storage of the GAS Bank contract and checks ledger
// invariants against it.
//
// Storage items are fed one by one into Snapshot.Put, so the snapshot can be
// built from any source: RPC state iteration, a storage dump or a test chain.
package audit

import (
	"bytes"
	"fmt"
	"math/big"
	"sort"

	"github.com/nspcc-dev/gasbank-contract/contracts/bank/bankconst"
	"github.com/nspcc-dev/neo-go/pkg/encoding/bigint"
	"github.com/nspcc-dev/neo-go/pkg/util"
)

// Account is a decoded set of per-account storage items. Absent items are
// zero.
type Account struct {
	Available   *big.Int
	Pending     *big.Int
	Deposits    *big.Int
	Withdrawals *big.Int

	// Position of the account among distinct depositors, starting from 1.
	// Zero means the account has never been registered.
	Ordinal *big.Int
}

func newAccount() *Account {
	return &Account{
		Available:   new(big.Int),
		Pending:     new(big.Int),
		Deposits:    new(big.Int),
		Withdrawals: new(big.Int),
		Ordinal:     new(big.Int),
	}
}

// Owed returns the sum of available and pending amounts.
func (a *Account) Owed() *big.Int {
	return new(big.Int).Add(a.Available, a.Pending)
}

// Snapshot is a decoded storage of the bank contract.
//
// Snapshot must be constructed using NewSnapshot.
type Snapshot struct {
	Owner         util.Uint160
	MaxWithdrawal *big.Int
	BankCap       *big.Int

	DepositOps    *big.Int
	WithdrawalOps *big.Int
	Users         *big.Int

	// Set if the reentrancy gate item is present in the storage.
	GateHeld bool

	Accounts map[util.Uint160]*Account

	hasOwner bool
}

// NewSnapshot returns empty Snapshot ready to accept storage items.
func NewSnapshot() *Snapshot {
	return &Snapshot{
		MaxWithdrawal: new(big.Int),
		BankCap:       new(big.Int),
		DepositOps:    new(big.Int),
		WithdrawalOps: new(big.Int),
		Users:         new(big.Int),
		Accounts:      make(map[util.Uint160]*Account),
	}
}

// Put decodes the storage item and adds it to the snapshot. Key is the item
// key without contract ID. Put returns an error for keys which do not belong
// to the bank storage layout.
func (s *Snapshot) Put(key, value []byte) error {
	switch string(key) {
	case bankconst.OwnerKey:
		owner, err := util.Uint160DecodeBytesBE(value)
		if err != nil {
			return fmt.Errorf("decode owner: %w", err)
		}
		s.Owner, s.hasOwner = owner, true
		return nil
	case bankconst.MaxWithdrawalKey:
		s.MaxWithdrawal = bigint.FromBytes(value)
		return nil
	case bankconst.BankCapKey:
		s.BankCap = bigint.FromBytes(value)
		return nil
	case bankconst.DepositOpsKey:
		s.DepositOps = bigint.FromBytes(value)
		return nil
	case bankconst.WithdrawalOpsKey:
		s.WithdrawalOps = bigint.FromBytes(value)
		return nil
	case bankconst.UsersKey:
		s.Users = bigint.FromBytes(value)
		return nil
	case bankconst.GateKey:
		s.GateHeld = true
		return nil
	}

	if len(key) != 1+util.Uint160Size {
		return fmt.Errorf("unknown storage key %x", key)
	}

	h, err := util.Uint160DecodeBytesBE(key[1:])
	if err != nil {
		return fmt.Errorf("decode account from key %x: %w", key, err)
	}

	switch key[0] {
	case bankconst.AvailablePrefix, bankconst.PendingPrefix, bankconst.DepositsPrefix,
		bankconst.WithdrawalsPrefix, bankconst.UserPrefix:
	default:
		return fmt.Errorf("unknown storage key prefix %q", key[0])
	}

	acc, ok := s.Accounts[h]
	if !ok {
		acc = newAccount()
		s.Accounts[h] = acc
	}

	val := bigint.FromBytes(value)

	switch key[0] {
	case bankconst.AvailablePrefix:
		acc.Available = val
	case bankconst.PendingPrefix:
		acc.Pending = val
	case bankconst.DepositsPrefix:
		acc.Deposits = val
	case bankconst.WithdrawalsPrefix:
		acc.Withdrawals = val
	case bankconst.UserPrefix:
		acc.Ordinal = val
	}

	return nil
}

// Owed returns the sum of available and pending amounts of all accounts.
func (s *Snapshot) Owed() *big.Int {
	res := new(big.Int)
	for _, acc := range s.Accounts {
		res.Add(res, acc.Available)
		res.Add(res, acc.Pending)
	}
	return res
}

// SortedAccounts returns accounts of the snapshot ordered by their script
// hashes.
func (s *Snapshot) SortedAccounts() []util.Uint160 {
	res := make([]util.Uint160, 0, len(s.Accounts))
	for h := range s.Accounts {
		res = append(res, h)
	}
	sort.Slice(res, func(i, j int) bool {
		return bytes.Compare(res[i].BytesBE(), res[j].BytesBE()) < 0
	})
	return res
}
