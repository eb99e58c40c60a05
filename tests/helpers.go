package tests

import (
	"path"
	"testing"

	"github.com/nspcc-dev/neo-go/pkg/core/state"
	"github.com/nspcc-dev/neo-go/pkg/neorpc/result"
	"github.com/nspcc-dev/neo-go/pkg/neotest"
	"github.com/nspcc-dev/neo-go/pkg/util"
	"github.com/nspcc-dev/neo-go/pkg/vm/stackitem"
	"github.com/stretchr/testify/require"
)

// bankEnv is a chain with the bank contract deployed.
type bankEnv struct {
	e     *neotest.Executor
	owner neotest.Signer
	bank  *neotest.ContractInvoker
	gas   *neotest.ContractInvoker
}

func newBank(t *testing.T, maxWithdrawal, bankCap int64) *bankEnv {
	e := newExecutor(t)
	owner := e.NewAccount(t)

	c := compileBank(t, e)
	e.DeployContract(t, c, []any{owner.ScriptHash(), maxWithdrawal, bankCap})

	return &bankEnv{
		e:     e,
		owner: owner,
		bank:  e.CommitteeInvoker(c.Hash),
		gas:   gasInvoker(t, e),
	}
}

// newClient deploys a bankclient contract bound to the bank and funds it
// with the given amount of GAS.
func (b *bankEnv) newClient(t *testing.T, funds int64) *neotest.ContractInvoker {
	cc := neotest.CompileFile(t, b.e.CommitteeHash, bankClientPath, path.Join(bankClientPath, "config.yml"))
	b.e.DeployContract(t, cc, b.hash())

	b.gas.WithSigners(b.e.Validator).Invoke(t, true, "transfer",
		b.e.Validator.ScriptHash(), cc.Hash, funds, nil)

	return b.e.CommitteeInvoker(cc.Hash)
}

func (b *bankEnv) hash() util.Uint160 {
	return b.bank.Hash
}

// deposit sends GAS from acc to the bank directly.
func (b *bankEnv) deposit(t testing.TB, acc neotest.Signer, amount int64) util.Uint256 {
	return b.gas.WithSigners(acc).Invoke(t, true, "transfer", acc.ScriptHash(), b.hash(), amount, nil)
}

func (b *bankEnv) depositFail(t testing.TB, acc neotest.Signer, amount int64, msg string) {
	b.gas.WithSigners(acc).InvokeFail(t, msg, "transfer", acc.ScriptHash(), b.hash(), amount, nil)
}

func (b *bankEnv) request(t testing.TB, acc neotest.Signer, amount int64) util.Uint256 {
	return b.bank.WithSigners(acc).Invoke(t, stackitem.Null{}, "requestWithdrawal", acc.ScriptHash(), amount)
}

func (b *bankEnv) requestFail(t testing.TB, acc neotest.Signer, amount int64, msg string) {
	b.bank.WithSigners(acc).InvokeFail(t, msg, "requestWithdrawal", acc.ScriptHash(), amount)
}

func (b *bankEnv) complete(t testing.TB, acc neotest.Signer) util.Uint256 {
	return b.bank.WithSigners(acc).Invoke(t, stackitem.Null{}, "completeWithdrawal", acc.ScriptHash())
}

func (b *bankEnv) completeFail(t testing.TB, acc neotest.Signer, msg string) {
	b.bank.WithSigners(acc).InvokeFail(t, msg, "completeWithdrawal", acc.ScriptHash())
}

func (b *bankEnv) balance(t testing.TB, acc util.Uint160) int64 {
	return testInvokeInt(t, b.bank, "getBalance", acc)
}

func (b *bankEnv) pending(t testing.TB, acc util.Uint160) int64 {
	return testInvokeInt(t, b.bank, "getPendingWithdrawal", acc)
}

func (b *bankEnv) held(t testing.TB) int64 {
	return b.gasBalance(t, b.hash())
}

func (b *bankEnv) gasBalance(t testing.TB, acc util.Uint160) int64 {
	return testInvokeInt(t, b.gas, "balanceOf", acc)
}

// checkAccount checks available balance and pending withdrawal of acc.
func (b *bankEnv) checkAccount(t testing.TB, acc util.Uint160, available, pending int64) {
	require.Equal(t, available, b.balance(t, acc), "available balance")
	require.Equal(t, pending, b.pending(t, acc), "pending withdrawal")
}

// appLog returns application log of the persisted transaction the way RPC
// server does.
func (b *bankEnv) appLog(t testing.TB, h util.Uint256) *result.ApplicationLog {
	aer := b.e.CheckHalt(t, h)
	return &result.ApplicationLog{
		Container:     h,
		IsTransaction: true,
		Executions:    []state.Execution{aer.Execution},
	}
}
