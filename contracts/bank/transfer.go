package bank

import (
	"github.com/nspcc-dev/gasbank-contract/contracts/bank/bankconst"
	"github.com/nspcc-dev/neo-go/pkg/interop"
	"github.com/nspcc-dev/neo-go/pkg/interop/lib/address"
	"github.com/nspcc-dev/neo-go/pkg/interop/native/gas"
	"github.com/nspcc-dev/neo-go/pkg/interop/native/std"
	"github.com/nspcc-dev/neo-go/pkg/interop/runtime"
)

// transferOut sends contract GAS to the recipient. All GAS leaving the
// contract goes through it. Refused transfer aborts the invocation, so no
// retries are made.
func transferOut(to interop.Hash160, amount int) {
	if !gas.Transfer(runtime.GetExecutingScriptHash(), to, amount, nil) {
		panic(bankconst.ErrTransferFailed + ": " + address.FromHash160(to) + " " + std.Itoa(amount, 10))
	}
}
