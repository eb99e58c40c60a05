package deploy

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/nspcc-dev/gasbank-contract/common"
	"github.com/nspcc-dev/gasbank-contract/rpc/bank"
	"github.com/nspcc-dev/neo-go/pkg/config"
	"github.com/nspcc-dev/neo-go/pkg/config/netmode"
	"github.com/nspcc-dev/neo-go/pkg/consensus"
	"github.com/nspcc-dev/neo-go/pkg/core"
	"github.com/nspcc-dev/neo-go/pkg/core/state"
	"github.com/nspcc-dev/neo-go/pkg/core/storage"
	"github.com/nspcc-dev/neo-go/pkg/crypto/keys"
	"github.com/nspcc-dev/neo-go/pkg/encoding/fixedn"
	"github.com/nspcc-dev/neo-go/pkg/neorpc/result"
	"github.com/nspcc-dev/neo-go/pkg/neotest"
	"github.com/nspcc-dev/neo-go/pkg/network"
	"github.com/nspcc-dev/neo-go/pkg/rpcclient"
	"github.com/nspcc-dev/neo-go/pkg/rpcclient/invoker"
	"github.com/nspcc-dev/neo-go/pkg/services/rpcsrv"
	"github.com/nspcc-dev/neo-go/pkg/smartcontract/manifest"
	"github.com/nspcc-dev/neo-go/pkg/smartcontract/nef"
	"github.com/nspcc-dev/neo-go/pkg/util"
	"github.com/nspcc-dev/neo-go/pkg/vm/vmstate"
	"github.com/nspcc-dev/neo-go/pkg/wallet"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

const bankPath = "../contracts/bank"

func TestPrmValidation(t *testing.T) {
	acc, err := wallet.NewAccount()
	require.NoError(t, err)

	valid := Prm{
		Blockchain:    new(rpcclient.Internal),
		LocalAccount:  acc,
		NEF:           nef.File{Script: []byte{1}},
		Manifest:      manifest.Manifest{Name: "GAS Bank"},
		Owner:         acc.ScriptHash(),
		MaxWithdrawal: 30,
		BankCap:       100,
	}
	require.NoError(t, valid.validate())

	for _, tc := range []struct {
		name   string
		modify func(*Prm)
	}{
		{"no blockchain", func(p *Prm) { p.Blockchain = nil }},
		{"no account", func(p *Prm) { p.LocalAccount = nil }},
		{"no manifest", func(p *Prm) { p.Manifest = manifest.Manifest{} }},
		{"no NEF", func(p *Prm) { p.NEF = nef.File{} }},
		{"no owner", func(p *Prm) { p.Owner = util.Uint160{} }},
		{"zero max withdrawal", func(p *Prm) { p.MaxWithdrawal = 0 }},
		{"negative bank cap", func(p *Prm) { p.BankCap = -1 }},
	} {
		t.Run(tc.name, func(t *testing.T) {
			prm := valid
			tc.modify(&prm)

			_, err := Deploy(context.Background(), prm)
			require.ErrorIs(t, err, ErrInvalidPrm)
		})
	}
}

func TestContractAddress(t *testing.T) {
	acc, err := wallet.NewAccount()
	require.NoError(t, err)

	prm := Prm{
		LocalAccount: acc,
		NEF:          nef.File{Checksum: 42},
		Manifest:     manifest.Manifest{Name: "GAS Bank"},
	}
	require.Equal(t, state.CreateContractHash(acc.ScriptHash(), 42, "GAS Bank"), ContractAddress(prm))

	prm.Contract = util.Uint160{1, 2, 3}
	require.Equal(t, prm.Contract, ContractAddress(prm))
}

func TestCheckApplicationLog(t *testing.T) {
	require.Error(t, checkApplicationLog(&result.ApplicationLog{}))

	require.NoError(t, checkApplicationLog(&result.ApplicationLog{
		Executions: []state.Execution{{VMState: vmstate.Halt}},
	}))

	err := checkApplicationLog(&result.ApplicationLog{
		Executions: []state.Execution{{VMState: vmstate.Fault, FaultException: "bank cap must be positive"}},
	})
	require.ErrorContains(t, err, "bank cap must be positive")
}

func TestIsErrContractNotFound(t *testing.T) {
	require.True(t, isErrContractNotFound(errors.New("Unknown contract")))
	require.True(t, isErrContractNotFound(fmt.Errorf("rpc: %w", errors.New("unknown contract: -102"))))
	require.False(t, isErrContractNotFound(errors.New("connection refused")))
}

// newTestChain starts single-node blockchain with consensus and returns RPC
// client connected to it along with account holding all the GAS.
func newTestChain(t *testing.T) (*rpcclient.Internal, *wallet.Account) {
	validatorAcc, err := wallet.NewAccount()
	require.NoError(t, err)

	var validatorMulti = new(wallet.Account)
	*validatorMulti = *validatorAcc
	err = validatorMulti.ConvertMultisig(1, []*keys.PublicKey{validatorAcc.PublicKey()})
	require.NoError(t, err)

	var (
		tmpDir     = t.TempDir()
		walletPath = filepath.Join(tmpDir, "wallet.json")
		wlt        = wallet.NewInMemoryWallet()
	)

	err = validatorAcc.Encrypt("", keys.NEP2ScryptParams())
	require.NoError(t, err)
	wlt.Accounts = append(wlt.Accounts, validatorAcc)
	wlt.SetPath(walletPath)
	require.NoError(t, wlt.Save())

	var (
		cfg = config.Config{
			ApplicationConfiguration: config.ApplicationConfiguration{
				RPC: config.RPC{
					BasicService: config.BasicService{
						Enabled: true,
					},
					MaxGasInvoke: fixedn.Fixed8FromInt64(50),
				},
				Consensus: config.Consensus{
					Enabled: true,
					UnlockWallet: config.Wallet{
						Path:     walletPath,
						Password: "",
					},
				},
			},
			ProtocolConfiguration: config.ProtocolConfiguration{
				Magic:           netmode.UnitTestNet,
				MaxTimePerBlock: 20 * time.Second,
				Genesis: config.Genesis{
					MaxTraceableBlocks:          1000,
					MaxValidUntilBlockIncrement: 1000 / 2,
					TimePerBlock:                50 * time.Millisecond,
				},
				StandbyCommittee:   []string{hex.EncodeToString(validatorAcc.PublicKey().Bytes())},
				ValidatorsCount:    1,
				VerifyTransactions: true,
			},
		}
		logger = zaptest.NewLogger(t)
		store  = storage.NewMemoryStore()
	)

	bc, err := core.NewBlockchain(store, config.Blockchain{ProtocolConfiguration: cfg.ProtocolConfiguration}, logger)
	require.NoError(t, err)
	go bc.Run()
	t.Cleanup(bc.Close)

	serverConfig, err := network.NewServerConfig(config.Config{ProtocolConfiguration: cfg.ProtocolConfiguration})
	require.NoError(t, err)
	serverConfig.UserAgent = fmt.Sprintf(config.UserAgentFormat, "something")
	netSrv, err := network.NewServer(serverConfig, bc, bc.GetStateSyncModule(), logger)
	require.NoError(t, err)
	cons, err := consensus.NewService(consensus.Config{
		Logger:                logger,
		Broadcast:             netSrv.BroadcastExtensible,
		Chain:                 bc,
		BlockQueue:            netSrv.GetBlockQueue(),
		ProtocolConfiguration: cfg.ProtocolConfiguration,
		RequestTx:             netSrv.RequestTx,
		StopTxFlow:            netSrv.StopTxFlow,
		Wallet:                cfg.ApplicationConfiguration.Consensus.UnlockWallet,
	})
	require.NoError(t, err)
	netSrv.AddConsensusService(cons, cons.OnPayload, cons.OnTransaction)
	netSrv.Start()

	errCh := make(chan error, 2)
	rpcServer := rpcsrv.New(bc, cfg.ApplicationConfiguration.RPC, netSrv, nil, logger, errCh)
	rpcServer.Start()
	t.Cleanup(rpcServer.Shutdown)

	rpcClient, err := rpcclient.NewInternal(context.TODO(), rpcServer.RegisterLocal)
	require.NoError(t, err)
	require.NoError(t, rpcClient.Init())

	return rpcClient, validatorMulti
}

func TestDeploy(t *testing.T) {
	rpcClient, acc := newTestChain(t)

	c := neotest.CompileFile(t, acc.ScriptHash(), bankPath, filepath.Join(bankPath, "config.yml"))

	prm := Prm{
		Logger:        zaptest.NewLogger(t),
		Blockchain:    rpcClient,
		LocalAccount:  acc,
		NEF:           *c.NEF,
		Manifest:      *c.Manifest,
		Owner:         acc.ScriptHash(),
		MaxWithdrawal: 30,
		BankCap:       100_0000_0000,
		PollInterval:  50 * time.Millisecond,
	}

	ctx, cancel := context.WithTimeout(context.TODO(), 2*time.Minute)
	t.Cleanup(cancel)

	addr, err := Deploy(ctx, prm)
	require.NoError(t, err)
	require.Equal(t, c.Hash, addr)

	reader := bank.NewReader(invoker.New(rpcClient, nil), addr)

	owner, err := reader.Owner()
	require.NoError(t, err)
	require.Equal(t, acc.ScriptHash(), owner)

	maxWithdrawal, err := reader.MaxWithdrawal()
	require.NoError(t, err)
	require.EqualValues(t, 30, maxWithdrawal.Int64())

	bankCap, err := reader.BankCap()
	require.NoError(t, err)
	require.EqualValues(t, 100_0000_0000, bankCap.Int64())

	t.Run("same contract", func(t *testing.T) {
		addr2, err := Deploy(ctx, prm)
		require.NoError(t, err)
		require.Equal(t, addr, addr2)

		cs, err := rpcClient.GetContractStateByHash(addr)
		require.NoError(t, err)
		require.Zero(t, cs.UpdateCounter)
	})

	updPrm := prm
	updPrm.Contract = addr
	updPrm.NEF.Source = "gasbank-contract"
	updPrm.NEF.Checksum = updPrm.NEF.CalculateChecksum()

	t.Run("update by stranger", func(t *testing.T) {
		stranger, err := wallet.NewAccount()
		require.NoError(t, err)

		p := updPrm
		p.LocalAccount = stranger

		_, err = Deploy(ctx, p)
		require.ErrorIs(t, err, ErrNotOwner)
	})

	t.Run("update of the same version", func(t *testing.T) {
		_, err := Deploy(ctx, updPrm)
		require.ErrorContains(t, err, common.ErrAlreadyUpdated)
	})
}
