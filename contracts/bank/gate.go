package bank

import (
	"github.com/nspcc-dev/gasbank-contract/contracts/bank/bankconst"
	"github.com/nspcc-dev/neo-go/pkg/interop/storage"
)

// enter acquires the reentrancy gate or aborts if it is already held by an
// outer invocation of any guarded method. Guarded methods call leave as
// their last step and never defer it: a failed invocation drops the gate
// item together with all its other changes.
func enter(ctx storage.Context) {
	if storage.Get(ctx, bankconst.GateKey) != nil {
		panic(bankconst.ErrReentrancy)
	}

	storage.Put(ctx, bankconst.GateKey, []byte{1})
}

// leave releases the gate acquired by enter.
func leave(ctx storage.Context) {
	storage.Delete(ctx, bankconst.GateKey)
}
