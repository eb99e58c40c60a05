// Package bankclient contains a contract account of GAS Bank used in tests.
// It deposits and withdraws its own GAS and reacts to payments from the bank
// according to the configured mode.
package bankclient

import (
	"github.com/nspcc-dev/neo-go/pkg/interop"
	"github.com/nspcc-dev/neo-go/pkg/interop/contract"
	"github.com/nspcc-dev/neo-go/pkg/interop/native/gas"
	"github.com/nspcc-dev/neo-go/pkg/interop/runtime"
	"github.com/nspcc-dev/neo-go/pkg/interop/storage"
)

// Reactions to GAS received from the bank.
const (
	// ModeAccept accepts payment.
	ModeAccept = 0
	// ModeReenterComplete calls completeWithdrawal of the bank again.
	ModeReenterComplete = 1
	// ModeReenterRequest calls requestWithdrawal of the bank.
	ModeReenterRequest = 2
	// ModeReenterDeposit sends received GAS back to the bank.
	ModeReenterDeposit = 3
	// ModeReject aborts the payment.
	ModeReject = 4
)

// ErrPaymentRejected is thrown in ModeReject.
const ErrPaymentRejected = "payment rejected"

const (
	bankKey     = "bank"
	modeKey     = "mode"
	receivedKey = "received"
)

// nolint:unused
func _deploy(data any, isUpdate bool) {
	if isUpdate {
		return
	}

	storage.Put(storage.GetContext(), bankKey, data.(interop.Hash160))
}

// SetMode sets reaction to the next payments from the bank.
func SetMode(mode int) {
	storage.Put(storage.GetContext(), modeKey, mode)
}

// Deposit sends GAS of the contract to the bank.
func Deposit(amount int) bool {
	bank := getBank(storage.GetReadOnlyContext())
	return gas.Transfer(runtime.GetExecutingScriptHash(), bank, amount, nil)
}

// Request requests withdrawal of the contract deposit.
func Request(amount int) {
	bank := getBank(storage.GetReadOnlyContext())
	contract.Call(bank, "requestWithdrawal", contract.All, runtime.GetExecutingScriptHash(), amount)
}

// Complete completes withdrawal of the contract deposit.
func Complete() {
	bank := getBank(storage.GetReadOnlyContext())
	contract.Call(bank, "completeWithdrawal", contract.All, runtime.GetExecutingScriptHash())
}

// TryRequest requests withdrawal of the contract deposit and reports whether
// the bank accepted it. Bank exceptions are caught.
func TryRequest(amount int) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			ok = false
		}
	}()

	Request(amount)

	return true
}

// TryComplete completes withdrawal of the contract deposit and reports
// whether the bank paid it out. Bank exceptions are caught.
func TryComplete() (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			ok = false
		}
	}()

	Complete()

	return true
}

// Received returns total amount of GAS received from the bank.
func Received() int {
	val := storage.Get(storage.GetReadOnlyContext(), receivedKey)
	if val == nil {
		return 0
	}
	return val.(int)
}

// OnNEP17Payment accepts GAS from anyone. Payments from the bank are handled
// according to the mode set by SetMode.
func OnNEP17Payment(from interop.Hash160, amount int, data any) {
	ctx := storage.GetContext()
	bank := getBank(ctx)
	if !from.Equals(bank) {
		return
	}

	self := runtime.GetExecutingScriptHash()

	var mode int
	if val := storage.Get(ctx, modeKey); val != nil {
		mode = val.(int)
	}

	switch mode {
	case ModeReenterComplete:
		contract.Call(bank, "completeWithdrawal", contract.All, self)
	case ModeReenterRequest:
		contract.Call(bank, "requestWithdrawal", contract.All, self, 1)
	case ModeReenterDeposit:
		gas.Transfer(self, bank, amount, nil)
	case ModeReject:
		panic(ErrPaymentRejected)
	}

	storage.Put(ctx, receivedKey, Received()+amount)
}

func getBank(ctx storage.Context) interop.Hash160 {
	return storage.Get(ctx, bankKey).(interop.Hash160)
}
