package tests

import (
	"path"
	"testing"

	"github.com/nspcc-dev/neo-go/pkg/core/native/nativenames"
	"github.com/nspcc-dev/neo-go/pkg/neotest"
	"github.com/nspcc-dev/neo-go/pkg/neotest/chain"
	"github.com/nspcc-dev/neo-go/pkg/util"
	"github.com/stretchr/testify/require"
)

const (
	bankPath       = "../contracts/bank"
	bankClientPath = "../internal/testcontracts/bankclient"
)

func newExecutor(t *testing.T) *neotest.Executor {
	bc, acc := chain.NewSingle(t)
	return neotest.NewExecutor(t, bc, acc, acc)
}

func compileBank(t *testing.T, e *neotest.Executor) *neotest.Contract {
	return neotest.CompileFile(t, e.CommitteeHash, bankPath, path.Join(bankPath, "config.yml"))
}

func gasInvoker(t *testing.T, e *neotest.Executor) *neotest.ContractInvoker {
	return e.CommitteeInvoker(e.NativeHash(t, nativenames.Gas))
}

// testInvokeInt calls a method returning an integer without persisting any
// changes.
func testInvokeInt(t testing.TB, inv *neotest.ContractInvoker, method string, args ...any) int64 {
	s, err := inv.TestInvoke(t, method, args...)
	require.NoError(t, err)
	require.Equal(t, 1, s.Len())

	v, err := s.Pop().Item().TryInteger()
	require.NoError(t, err)
	return v.Int64()
}

// testInvokeInts calls a method returning a structure of integers without
// persisting any changes.
func testInvokeInts(t testing.TB, inv *neotest.ContractInvoker, method string, args ...any) []int64 {
	s, err := inv.TestInvoke(t, method, args...)
	require.NoError(t, err)
	require.Equal(t, 1, s.Len())

	items := s.Pop().Array()
	res := make([]int64, len(items))
	for i := range items {
		v, err := items[i].TryInteger()
		require.NoError(t, err)
		res[i] = v.Int64()
	}
	return res
}

func testInvokeHash(t testing.TB, inv *neotest.ContractInvoker, method string, args ...any) util.Uint160 {
	s, err := inv.TestInvoke(t, method, args...)
	require.NoError(t, err)
	require.Equal(t, 1, s.Len())

	b, err := s.Pop().Item().TryBytes()
	require.NoError(t, err)

	h, err := util.Uint160DecodeBytesBE(b)
	require.NoError(t, err)
	return h
}
