package bank

import (
	"errors"
	"math/big"
	"testing"

	"github.com/nspcc-dev/neo-go/pkg/core/state"
	"github.com/nspcc-dev/neo-go/pkg/neorpc/result"
	"github.com/nspcc-dev/neo-go/pkg/util"
	"github.com/nspcc-dev/neo-go/pkg/vm/stackitem"
	"github.com/stretchr/testify/require"
)

type testInvoker struct {
	method string
	params []any

	res *result.Invoke
	err error
}

func (i *testInvoker) Call(_ util.Uint160, operation string, params ...any) (*result.Invoke, error) {
	i.method = operation
	i.params = params
	return i.res, i.err
}

func halt(items ...stackitem.Item) *result.Invoke {
	return &result.Invoke{State: "HALT", Stack: items}
}

func ints(vals ...int64) []stackitem.Item {
	res := make([]stackitem.Item, len(vals))
	for i := range vals {
		res[i] = stackitem.Make(vals[i])
	}
	return res
}

func TestContractReader(t *testing.T) {
	contract := util.Uint160{1, 2, 3}
	account := util.Uint160{4, 5, 6}

	t.Run("stats", func(t *testing.T) {
		inv := &testInvoker{res: halt(stackitem.NewStruct(ints(3, 1, 70, 2)))}

		stats, err := NewReader(inv, contract).GetStats()
		require.NoError(t, err)
		require.Equal(t, "getStats", inv.method)
		require.EqualValues(t, 3, stats.DepositOps.Int64())
		require.EqualValues(t, 1, stats.WithdrawalOps.Int64())
		require.EqualValues(t, 70, stats.Held.Int64())
		require.EqualValues(t, 2, stats.Users.Int64())
	})

	t.Run("account", func(t *testing.T) {
		inv := &testInvoker{res: halt(stackitem.NewStruct(ints(40, 20, 1, 2)))}

		acc, err := NewReader(inv, contract).GetAccount(account)
		require.NoError(t, err)
		require.Equal(t, "getAccount", inv.method)
		require.Equal(t, []any{account}, inv.params)
		require.EqualValues(t, 40, acc.Balance.Int64())
		require.EqualValues(t, 20, acc.Pending.Int64())
		require.EqualValues(t, 1, acc.Deposits.Int64())
		require.EqualValues(t, 2, acc.Withdrawals.Int64())
	})

	t.Run("malformed struct", func(t *testing.T) {
		inv := &testInvoker{res: halt(stackitem.NewStruct(ints(1, 2, 3)))}

		_, err := NewReader(inv, contract).GetStats()
		require.Error(t, err)

		inv.res = halt(stackitem.NewStruct([]stackitem.Item{
			stackitem.Make(1), stackitem.NewMap(), stackitem.Make(3), stackitem.Make(4),
		}))
		_, err = NewReader(inv, contract).GetAccount(account)
		require.ErrorContains(t, err, "field Pending")
	})

	t.Run("balance", func(t *testing.T) {
		inv := &testInvoker{res: halt(stackitem.Make(60))}

		b, err := NewReader(inv, contract).GetBalance(account)
		require.NoError(t, err)
		require.Equal(t, "getBalance", inv.method)
		require.EqualValues(t, 60, b.Int64())
	})

	t.Run("owner", func(t *testing.T) {
		inv := &testInvoker{res: halt(stackitem.Make(account.BytesBE()))}

		owner, err := NewReader(inv, contract).Owner()
		require.NoError(t, err)
		require.Equal(t, account, owner)
	})

	t.Run("call error", func(t *testing.T) {
		callErr := errors.New("connection refused")
		inv := &testInvoker{err: callErr}

		_, err := NewReader(inv, contract).GetUserCount()
		require.ErrorIs(t, err, callErr)

		_, err = NewReader(inv, contract).GetStats()
		require.ErrorIs(t, err, callErr)
	})

	t.Run("fault", func(t *testing.T) {
		inv := &testInvoker{res: &result.Invoke{State: "FAULT", FaultException: "boom"}}

		_, err := NewReader(inv, contract).BankCap()
		require.ErrorContains(t, err, "boom")
	})
}

func TestEventsFromApplicationLog(t *testing.T) {
	contract := util.Uint160{1, 2, 3}
	account := util.Uint160{4, 5, 6}

	event := func(name string, items ...stackitem.Item) state.NotificationEvent {
		return state.NotificationEvent{
			ScriptHash: contract,
			Name:       name,
			Item:       stackitem.NewArray(items),
		}
	}

	log := &result.ApplicationLog{
		Executions: []state.Execution{{
			Events: []state.NotificationEvent{
				event("Transfer", stackitem.Null{}, stackitem.Make(contract.BytesBE()), stackitem.Make(10)),
				event("Deposit", stackitem.Make(account.BytesBE()), stackitem.Make(10)),
				event("WithdrawalRequested", stackitem.Make(account.BytesBE()), stackitem.Make(5)),
				event("WithdrawalCompleted", stackitem.Make(account.BytesBE()), stackitem.Make(5)),
				event("EmergencyWithdrawal", stackitem.Make(account.BytesBE()), stackitem.Make(7)),
				event("BankCapReached", stackitem.Make(account.BytesBE()), stackitem.Make(50), stackitem.Make(100)),
			},
		}},
	}

	deposits, err := DepositEventsFromApplicationLog(log)
	require.NoError(t, err)
	require.Equal(t, []*DepositEvent{{Account: account, Amount: big.NewInt(10)}}, deposits)

	requests, err := WithdrawalRequestedEventsFromApplicationLog(log)
	require.NoError(t, err)
	require.Len(t, requests, 1)
	require.Equal(t, account, requests[0].Account)
	require.EqualValues(t, 5, requests[0].Amount.Int64())

	completions, err := WithdrawalCompletedEventsFromApplicationLog(log)
	require.NoError(t, err)
	require.Len(t, completions, 1)
	require.EqualValues(t, 5, completions[0].Amount.Int64())

	emergency, err := EmergencyWithdrawalEventsFromApplicationLog(log)
	require.NoError(t, err)
	require.Len(t, emergency, 1)
	require.Equal(t, account, emergency[0].To)
	require.EqualValues(t, 7, emergency[0].Amount.Int64())

	caps, err := BankCapReachedEventsFromApplicationLog(log)
	require.NoError(t, err)
	require.Len(t, caps, 1)
	require.EqualValues(t, 50, caps[0].Amount.Int64())
	require.EqualValues(t, 100, caps[0].Cap.Int64())

	t.Run("nil log", func(t *testing.T) {
		_, err := DepositEventsFromApplicationLog(nil)
		require.Error(t, err)
	})

	t.Run("malformed event", func(t *testing.T) {
		bad := &result.ApplicationLog{
			Executions: []state.Execution{{
				Events: []state.NotificationEvent{
					event("Deposit", stackitem.Make([]byte{1, 2, 3}), stackitem.Make(10)),
				},
			}},
		}
		_, err := DepositEventsFromApplicationLog(bad)
		require.ErrorContains(t, err, "field Account")

		bad.Executions[0].Events[0] = event("Deposit", stackitem.Make(account.BytesBE()))
		_, err = DepositEventsFromApplicationLog(bad)
		require.ErrorContains(t, err, "wrong number of structure elements")
	})
}
