package audit

import (
	"fmt"
	"math/big"

	"github.com/nspcc-dev/neo-go/pkg/encoding/address"
	"github.com/nspcc-dev/neo-go/pkg/util"
)

// Rule identifies a broken ledger invariant.
type Rule string

// Rules checked by Check.
const (
	RuleMissingConfig     Rule = "missing configuration"
	RuleNegativeEntry     Rule = "negative entry"
	RuleInsolvent         Rule = "liabilities exceed held value"
	RuleAboveCap          Rule = "held value exceeds bank cap"
	RuleUserCount         Rule = "user count mismatch"
	RuleUnregistered      Rule = "account is not registered as depositor"
	RuleOrdinal           Rule = "invalid depositor ordinal"
	RuleDepositCounter    Rule = "deposit counter mismatch"
	RuleWithdrawalCounter Rule = "withdrawal counter mismatch"
	RuleGateHeld          Rule = "reentrancy gate is held"
)

// Violation describes a single broken invariant.
type Violation struct {
	Rule Rule
	// Account the violation relates to, nil for global ones.
	Account *util.Uint160
	Details string
}

func (v Violation) String() string {
	if v.Account == nil {
		return fmt.Sprintf("%s: %s", v.Rule, v.Details)
	}
	return fmt.Sprintf("%s (%s): %s", v.Rule, address.Uint160ToString(*v.Account), v.Details)
}

// Check verifies ledger invariants of the snapshot given GAS balance of the
// contract. Result is empty for a consistent ledger. Liabilities can exceed
// held value legitimately after an emergency withdrawal by the owner, such
// case is reported as RuleInsolvent too.
func Check(s *Snapshot, held *big.Int) []Violation {
	var res []Violation

	global := func(r Rule, format string, args ...any) {
		res = append(res, Violation{Rule: r, Details: fmt.Sprintf(format, args...)})
	}

	if !s.hasOwner {
		global(RuleMissingConfig, "owner is not set")
	}
	if s.MaxWithdrawal.Sign() <= 0 {
		global(RuleMissingConfig, "max withdrawal is %s", s.MaxWithdrawal)
	}
	if s.BankCap.Sign() <= 0 {
		global(RuleMissingConfig, "bank cap is %s", s.BankCap)
	}

	if s.GateHeld {
		global(RuleGateHeld, "gate item is persisted")
	}

	if owed := s.Owed(); owed.Cmp(held) > 0 {
		global(RuleInsolvent, "owed %s, held %s", owed, held)
	}

	if s.BankCap.Sign() > 0 && held.Cmp(s.BankCap) > 0 {
		global(RuleAboveCap, "held %s, cap %s", held, s.BankCap)
	}

	var (
		registered  int64
		deposits    = new(big.Int)
		withdrawals = new(big.Int)
		ordinals    = make(map[string]util.Uint160)
	)

	for _, h := range s.SortedAccounts() {
		h := h
		acc := s.Accounts[h]

		local := func(r Rule, format string, args ...any) {
			res = append(res, Violation{Rule: r, Account: &h, Details: fmt.Sprintf(format, args...)})
		}

		for _, f := range []struct {
			name string
			val  *big.Int
		}{
			{"available", acc.Available},
			{"pending", acc.Pending},
			{"deposits", acc.Deposits},
			{"withdrawals", acc.Withdrawals},
			{"ordinal", acc.Ordinal},
		} {
			if f.val.Sign() < 0 {
				local(RuleNegativeEntry, "%s is %s", f.name, f.val)
			}
		}

		deposits.Add(deposits, acc.Deposits)
		withdrawals.Add(withdrawals, acc.Withdrawals)

		if acc.Ordinal.Sign() == 0 {
			local(RuleUnregistered, "account has ledger entries without ordinal")
			continue
		}

		registered++

		if acc.Ordinal.Sign() < 0 || acc.Ordinal.Cmp(s.Users) > 0 {
			local(RuleOrdinal, "ordinal %s is out of [1, %s]", acc.Ordinal, s.Users)
		}

		if prev, ok := ordinals[acc.Ordinal.String()]; ok {
			local(RuleOrdinal, "ordinal %s is already taken by %s", acc.Ordinal, address.Uint160ToString(prev))
		} else {
			ordinals[acc.Ordinal.String()] = h
		}

		if acc.Deposits.Sign() == 0 {
			local(RuleUnregistered, "registered account has no deposits")
		}
	}

	if s.Users.Cmp(big.NewInt(registered)) != 0 {
		global(RuleUserCount, "counter %s, registered accounts %d", s.Users, registered)
	}

	if s.DepositOps.Cmp(deposits) != 0 {
		global(RuleDepositCounter, "counter %s, sum over accounts %s", s.DepositOps, deposits)
	}

	if s.WithdrawalOps.Cmp(withdrawals) != 0 {
		global(RuleWithdrawalCounter, "counter %s, sum over accounts %s", s.WithdrawalOps, withdrawals)
	}

	return res
}
