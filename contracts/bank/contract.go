package bank

import (
	"github.com/nspcc-dev/gasbank-contract/common"
	"github.com/nspcc-dev/gasbank-contract/contracts/bank/bankconst"
	"github.com/nspcc-dev/neo-go/pkg/interop"
	"github.com/nspcc-dev/neo-go/pkg/interop/contract"
	"github.com/nspcc-dev/neo-go/pkg/interop/native/gas"
	"github.com/nspcc-dev/neo-go/pkg/interop/native/management"
	"github.com/nspcc-dev/neo-go/pkg/interop/runtime"
	"github.com/nspcc-dev/neo-go/pkg/interop/storage"
)

type (
	// Stats is a summary of the whole ledger returned by GetStats.
	Stats struct {
		// Number of successful deposits.
		DepositOps int
		// Number of successful withdrawal requests.
		WithdrawalOps int
		// GAS balance of the contract.
		Held int
		// Number of distinct depositors.
		Users int
	}

	// Account is a view of a single account returned by GetAccount.
	Account struct {
		// Available balance.
		Balance int
		// Amount staged by withdrawal requests and not yet completed.
		Pending int
		// Number of deposits made by the account.
		Deposits int
		// Number of withdrawal requests made by the account.
		Withdrawals int
	}
)

// nolint:unused
func _deploy(data any, isUpdate bool) {
	if isUpdate {
		args := data.([]any)
		common.CheckVersion(args[len(args)-1].(int))
		return
	}

	args := data.(struct {
		owner         interop.Hash160
		maxWithdrawal int
		bankCap       int
	})

	if len(args.owner) != interop.Hash160Len {
		panic(bankconst.ErrInvalidOwner)
	}

	if args.maxWithdrawal <= 0 {
		panic(bankconst.ErrInvalidMaxWithdrawal)
	}

	if args.bankCap <= 0 {
		panic(bankconst.ErrInvalidBankCap)
	}

	ctx := storage.GetContext()

	storage.Put(ctx, bankconst.OwnerKey, args.owner)
	storage.Put(ctx, bankconst.MaxWithdrawalKey, args.maxWithdrawal)
	storage.Put(ctx, bankconst.BankCapKey, args.bankCap)

	runtime.Log("bank contract initialized")
}

// Update method updates contract source code and manifest. It can be invoked
// only by the contract owner. Owner, caps and balances are kept as is.
func Update(nefFile, manifest []byte, data any) {
	common.CheckOwnerWitness(getOwner(storage.GetReadOnlyContext()))

	contract.Call(interop.Hash160(management.Hash), "update",
		contract.All, nefFile, manifest, common.AppendVersion(data))
	runtime.Log("bank contract updated")
}

// OnNEP17Payment is a callback for NEP-17 compatible native GAS contract.
// Every GAS transfer to the contract is a deposit of the sender, so the
// amount is credited to the available balance of `from`.
//
// The payment is rejected if it comes from any token other than GAS, if
// the amount is zero or if the contract GAS balance after the payment is
// above the bank cap. In the latter case BankCapReached notification is
// thrown before the abort.
//
// It produces Deposit notification.
func OnNEP17Payment(from interop.Hash160, amount int, data any) {
	caller := runtime.GetCallingScriptHash()
	if !caller.Equals(gas.Hash) {
		panic(bankconst.ErrOnlyGAS)
	}

	if len(from) != interop.Hash160Len {
		panic(bankconst.ErrInvalidAccount)
	}

	ctx := storage.GetContext()

	enter(ctx)

	credit(ctx, from, amount)

	leave(ctx)
}

// Deposit transfers the specified amount of GAS from the account to the
// contract. It is the same as a direct GAS transfer to the contract address,
// the account is credited by OnNEP17Payment. It can be invoked only by the
// account owner, the witness must also be valid for the GAS contract call
// made by this contract.
//
// It produces Deposit notification.
func Deposit(from interop.Hash160, amount int) {
	common.CheckWitness(from)

	if amount <= 0 {
		panic(bankconst.ErrZeroAmount)
	}

	if !gas.Transfer(from, runtime.GetExecutingScriptHash(), amount, nil) {
		panic(bankconst.ErrTransferFailed + ": can't receive deposit")
	}
}

// RequestWithdrawal stages the amount of account available balance for
// withdrawal. It can be invoked only by the account owner. Requests can be
// repeated, staged amounts are summed up and paid out by a single
// CompleteWithdrawal call.
//
// The amount must be positive, not above the configured maximum and not
// above the available balance, checked in this order.
//
// It produces WithdrawalRequested notification.
func RequestWithdrawal(account interop.Hash160, amount int) {
	ctx := storage.GetContext()

	enter(ctx)

	common.CheckWitness(account)

	moveToPending(ctx, account, amount)

	leave(ctx)
}

// CompleteWithdrawal transfers all GAS staged by RequestWithdrawal to the
// account. It can be invoked only by the account owner. Pending amount is
// cleared before the transfer, a failed transfer aborts the invocation with
// all its changes.
//
// It produces WithdrawalCompleted notification.
func CompleteWithdrawal(account interop.Hash160) {
	ctx := storage.GetContext()

	enter(ctx)

	common.CheckWitness(account)

	amount := clearPending(ctx, account)
	transferOut(account, amount)

	runtime.Notify("WithdrawalCompleted", account, amount)

	leave(ctx)
}

// EmergencyWithdraw transfers any amount of contract GAS to any recipient.
// It can be invoked only by the contract owner.
//
// This is a privileged bypass of the accounting: balances and pending
// withdrawals of accounts are neither checked nor changed, so after the call
// the contract may hold less GAS than it owes.
//
// It produces EmergencyWithdrawal notification.
func EmergencyWithdraw(to interop.Hash160, amount int) {
	ctx := storage.GetContext()

	enter(ctx)

	common.CheckOwnerWitness(getOwner(ctx))

	if len(to) != interop.Hash160Len {
		panic(bankconst.ErrInvalidAccount)
	}

	if amount <= 0 {
		panic(bankconst.ErrZeroAmount)
	}

	transferOut(to, amount)

	runtime.Notify("EmergencyWithdrawal", to, amount)
	runtime.Log("emergency withdrawal")

	leave(ctx)
}

// GetBalance returns available balance of the account.
func GetBalance(account interop.Hash160) int {
	ctx := storage.GetReadOnlyContext()
	return common.GetInt(ctx, accountKey(bankconst.AvailablePrefix, account))
}

// GetPendingWithdrawal returns amount staged for withdrawal by the account.
func GetPendingWithdrawal(account interop.Hash160) int {
	ctx := storage.GetReadOnlyContext()
	return common.GetInt(ctx, accountKey(bankconst.PendingPrefix, account))
}

// GetUserCount returns number of distinct accounts that have ever deposited.
func GetUserCount() int {
	ctx := storage.GetReadOnlyContext()
	return common.GetInt(ctx, bankconst.UsersKey)
}

// GetStats returns global operation counters, contract GAS balance and
// number of distinct depositors.
func GetStats() Stats {
	ctx := storage.GetReadOnlyContext()

	return Stats{
		DepositOps:    common.GetInt(ctx, bankconst.DepositOpsKey),
		WithdrawalOps: common.GetInt(ctx, bankconst.WithdrawalOpsKey),
		Held:          gas.BalanceOf(runtime.GetExecutingScriptHash()),
		Users:         common.GetInt(ctx, bankconst.UsersKey),
	}
}

// GetAccount returns balances and operation counters of the account.
func GetAccount(account interop.Hash160) Account {
	ctx := storage.GetReadOnlyContext()

	return Account{
		Balance:     common.GetInt(ctx, accountKey(bankconst.AvailablePrefix, account)),
		Pending:     common.GetInt(ctx, accountKey(bankconst.PendingPrefix, account)),
		Deposits:    common.GetInt(ctx, accountKey(bankconst.DepositsPrefix, account)),
		Withdrawals: common.GetInt(ctx, accountKey(bankconst.WithdrawalsPrefix, account)),
	}
}

// Owner returns script hash of the contract owner.
func Owner() interop.Hash160 {
	return getOwner(storage.GetReadOnlyContext())
}

// MaxWithdrawal returns the limit of a single withdrawal request.
func MaxWithdrawal() int {
	return common.GetInt(storage.GetReadOnlyContext(), bankconst.MaxWithdrawalKey)
}

// BankCap returns the limit of GAS held by the contract.
func BankCap() int {
	return common.GetInt(storage.GetReadOnlyContext(), bankconst.BankCapKey)
}

// Version returns the version of the contract.
func Version() int {
	return common.Version
}

func getOwner(ctx storage.Context) interop.Hash160 {
	return storage.Get(ctx, bankconst.OwnerKey).(interop.Hash160)
}
