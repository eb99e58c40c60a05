package bank

import (
	"github.com/nspcc-dev/gasbank-contract/common"
	"github.com/nspcc-dev/gasbank-contract/contracts/bank/bankconst"
	"github.com/nspcc-dev/neo-go/pkg/interop"
	"github.com/nspcc-dev/neo-go/pkg/interop/native/gas"
	"github.com/nspcc-dev/neo-go/pkg/interop/runtime"
	"github.com/nspcc-dev/neo-go/pkg/interop/storage"
)

func accountKey(prefix byte, account interop.Hash160) []byte {
	return append([]byte{prefix}, account...)
}

// credit adds amount that has already been received by the contract to the
// available balance of the account. Cap is checked against the GAS balance
// that includes the incoming amount, landing exactly on the cap is allowed.
func credit(ctx storage.Context, account interop.Hash160, amount int) {
	if amount <= 0 {
		panic(bankconst.ErrZeroAmount)
	}

	bankCap := common.GetInt(ctx, bankconst.BankCapKey)
	held := gas.BalanceOf(runtime.GetExecutingScriptHash())
	if held > bankCap {
		runtime.Notify("BankCapReached", account, amount, bankCap)
		panic(bankconst.ErrBankCapExceeded)
	}

	availableKey := accountKey(bankconst.AvailablePrefix, account)
	common.PutInt(ctx, availableKey, common.GetInt(ctx, availableKey)+amount)

	depositsKey := accountKey(bankconst.DepositsPrefix, account)
	common.PutInt(ctx, depositsKey, common.GetInt(ctx, depositsKey)+1)
	common.PutInt(ctx, bankconst.DepositOpsKey, common.GetInt(ctx, bankconst.DepositOpsKey)+1)

	userKey := accountKey(bankconst.UserPrefix, account)
	if storage.Get(ctx, userKey) == nil {
		users := common.GetInt(ctx, bankconst.UsersKey) + 1
		storage.Put(ctx, userKey, users)
		storage.Put(ctx, bankconst.UsersKey, users)
	}

	runtime.Notify("Deposit", account, amount)
}

// moveToPending stages amount of available balance for withdrawal. Policy
// limit is checked before the balance.
func moveToPending(ctx storage.Context, account interop.Hash160, amount int) {
	if amount <= 0 {
		panic(bankconst.ErrZeroAmount)
	}

	if amount > common.GetInt(ctx, bankconst.MaxWithdrawalKey) {
		panic(bankconst.ErrExceedsMaxWithdrawal)
	}

	availableKey := accountKey(bankconst.AvailablePrefix, account)
	available := common.GetInt(ctx, availableKey)
	if amount > available {
		panic(bankconst.ErrInsufficientBalance)
	}

	common.PutInt(ctx, availableKey, available-amount)

	pendingKey := accountKey(bankconst.PendingPrefix, account)
	common.PutInt(ctx, pendingKey, common.GetInt(ctx, pendingKey)+amount)

	withdrawalsKey := accountKey(bankconst.WithdrawalsPrefix, account)
	common.PutInt(ctx, withdrawalsKey, common.GetInt(ctx, withdrawalsKey)+1)
	common.PutInt(ctx, bankconst.WithdrawalOpsKey, common.GetInt(ctx, bankconst.WithdrawalOpsKey)+1)

	runtime.Notify("WithdrawalRequested", account, amount)
}

// clearPending removes the whole pending amount of the account and returns
// it. It must be called before the amount leaves the contract.
func clearPending(ctx storage.Context, account interop.Hash160) int {
	pendingKey := accountKey(bankconst.PendingPrefix, account)

	amount := common.GetInt(ctx, pendingKey)
	if amount == 0 {
		panic(bankconst.ErrZeroAmount)
	}

	storage.Delete(ctx, pendingKey)

	return amount
}
