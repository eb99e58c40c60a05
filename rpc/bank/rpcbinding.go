// Package bank contains RPC wrappers for GAS Bank contract.
package bank

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/nspcc-dev/gasbank-contract/contracts/bank/bankconst"
	"github.com/nspcc-dev/neo-go/pkg/core/transaction"
	"github.com/nspcc-dev/neo-go/pkg/neorpc/result"
	"github.com/nspcc-dev/neo-go/pkg/rpcclient/unwrap"
	"github.com/nspcc-dev/neo-go/pkg/util"
	"github.com/nspcc-dev/neo-go/pkg/vm/stackitem"
)

// BankStats is a contract-specific bank.Stats type used by its methods.
type BankStats struct {
	DepositOps    *big.Int
	WithdrawalOps *big.Int
	Held          *big.Int
	Users         *big.Int
}

// BankAccount is a contract-specific bank.Account type used by its methods.
type BankAccount struct {
	Balance     *big.Int
	Pending     *big.Int
	Deposits    *big.Int
	Withdrawals *big.Int
}

// DepositEvent represents "Deposit" event emitted by the contract.
type DepositEvent struct {
	Account util.Uint160
	Amount  *big.Int
}

// WithdrawalRequestedEvent represents "WithdrawalRequested" event emitted by the contract.
type WithdrawalRequestedEvent struct {
	Account util.Uint160
	Amount  *big.Int
}

// WithdrawalCompletedEvent represents "WithdrawalCompleted" event emitted by the contract.
type WithdrawalCompletedEvent struct {
	Account util.Uint160
	Amount  *big.Int
}

// BankCapReachedEvent represents "BankCapReached" event emitted by the contract.
type BankCapReachedEvent struct {
	Account util.Uint160
	Amount  *big.Int
	Cap     *big.Int
}

// EmergencyWithdrawalEvent represents "EmergencyWithdrawal" event emitted by the contract.
type EmergencyWithdrawalEvent struct {
	To     util.Uint160
	Amount *big.Int
}

// Invoker is used by ContractReader to call various safe methods.
type Invoker interface {
	Call(contract util.Uint160, operation string, params ...any) (*result.Invoke, error)
}

// Actor is used by Contract to call state-changing methods.
type Actor interface {
	Invoker

	MakeCall(contract util.Uint160, method string, params ...any) (*transaction.Transaction, error)
	MakeRun(script []byte) (*transaction.Transaction, error)
	MakeUnsignedCall(contract util.Uint160, method string, attrs []transaction.Attribute, params ...any) (*transaction.Transaction, error)
	MakeUnsignedRun(script []byte, attrs []transaction.Attribute) (*transaction.Transaction, error)
	SendCall(contract util.Uint160, method string, params ...any) (util.Uint256, uint32, error)
	SendRun(script []byte) (util.Uint256, uint32, error)
}

// ContractReader implements safe contract methods.
type ContractReader struct {
	invoker Invoker
	hash    util.Uint160
}

// Contract implements all contract methods.
type Contract struct {
	ContractReader
	actor Actor
	hash  util.Uint160
}

// NewReader creates an instance of ContractReader using provided contract hash and the given Invoker.
func NewReader(invoker Invoker, hash util.Uint160) *ContractReader {
	return &ContractReader{invoker, hash}
}

// New creates an instance of Contract using provided contract hash and the given Actor.
func New(actor Actor, hash util.Uint160) *Contract {
	return &Contract{ContractReader{actor, hash}, actor, hash}
}

// BankCap invokes `bankCap` method of contract.
func (c *ContractReader) BankCap() (*big.Int, error) {
	return unwrap.BigInt(c.invoker.Call(c.hash, "bankCap"))
}

// GetAccount invokes `getAccount` method of contract.
func (c *ContractReader) GetAccount(account util.Uint160) (*BankAccount, error) {
	return itemToBankAccount(unwrap.Item(c.invoker.Call(c.hash, "getAccount", account)))
}

// GetBalance invokes `getBalance` method of contract.
func (c *ContractReader) GetBalance(account util.Uint160) (*big.Int, error) {
	return unwrap.BigInt(c.invoker.Call(c.hash, "getBalance", account))
}

// GetPendingWithdrawal invokes `getPendingWithdrawal` method of contract.
func (c *ContractReader) GetPendingWithdrawal(account util.Uint160) (*big.Int, error) {
	return unwrap.BigInt(c.invoker.Call(c.hash, "getPendingWithdrawal", account))
}

// GetStats invokes `getStats` method of contract.
func (c *ContractReader) GetStats() (*BankStats, error) {
	return itemToBankStats(unwrap.Item(c.invoker.Call(c.hash, "getStats")))
}

// GetUserCount invokes `getUserCount` method of contract.
func (c *ContractReader) GetUserCount() (*big.Int, error) {
	return unwrap.BigInt(c.invoker.Call(c.hash, "getUserCount"))
}

// MaxWithdrawal invokes `maxWithdrawal` method of contract.
func (c *ContractReader) MaxWithdrawal() (*big.Int, error) {
	return unwrap.BigInt(c.invoker.Call(c.hash, "maxWithdrawal"))
}

// Owner invokes `owner` method of contract.
func (c *ContractReader) Owner() (util.Uint160, error) {
	return unwrap.Uint160(c.invoker.Call(c.hash, "owner"))
}

// Version invokes `version` method of contract.
func (c *ContractReader) Version() (*big.Int, error) {
	return unwrap.BigInt(c.invoker.Call(c.hash, "version"))
}

// CompleteWithdrawal creates a transaction invoking `completeWithdrawal` method of the contract.
// This transaction is signed and immediately sent to the network.
// The values returned are its hash, ValidUntilBlock value and error if any.
func (c *Contract) CompleteWithdrawal(account util.Uint160) (util.Uint256, uint32, error) {
	return c.actor.SendCall(c.hash, "completeWithdrawal", account)
}

// CompleteWithdrawalTransaction creates a transaction invoking `completeWithdrawal` method of the contract.
// This transaction is signed, but not sent to the network, instead it's
// returned to the caller.
func (c *Contract) CompleteWithdrawalTransaction(account util.Uint160) (*transaction.Transaction, error) {
	return c.actor.MakeCall(c.hash, "completeWithdrawal", account)
}

// CompleteWithdrawalUnsigned creates a transaction invoking `completeWithdrawal` method of the contract.
// This transaction is not signed, it's simply returned to the caller.
// Any fields of it that do not affect fees can be changed (ValidUntilBlock,
// Nonce), fee values (NetworkFee, SystemFee) can be increased as well.
func (c *Contract) CompleteWithdrawalUnsigned(account util.Uint160) (*transaction.Transaction, error) {
	return c.actor.MakeUnsignedCall(c.hash, "completeWithdrawal", nil, account)
}

// Deposit creates a transaction invoking `deposit` method of the contract.
// This transaction is signed and immediately sent to the network.
// The values returned are its hash, ValidUntilBlock value and error if any.
func (c *Contract) Deposit(from util.Uint160, amount *big.Int) (util.Uint256, uint32, error) {
	return c.actor.SendCall(c.hash, "deposit", from, amount)
}

// DepositTransaction creates a transaction invoking `deposit` method of the contract.
// This transaction is signed, but not sent to the network, instead it's
// returned to the caller.
func (c *Contract) DepositTransaction(from util.Uint160, amount *big.Int) (*transaction.Transaction, error) {
	return c.actor.MakeCall(c.hash, "deposit", from, amount)
}

// DepositUnsigned creates a transaction invoking `deposit` method of the contract.
// This transaction is not signed, it's simply returned to the caller.
// Any fields of it that do not affect fees can be changed (ValidUntilBlock,
// Nonce), fee values (NetworkFee, SystemFee) can be increased as well.
func (c *Contract) DepositUnsigned(from util.Uint160, amount *big.Int) (*transaction.Transaction, error) {
	return c.actor.MakeUnsignedCall(c.hash, "deposit", nil, from, amount)
}

// EmergencyWithdraw creates a transaction invoking `emergencyWithdraw` method of the contract.
// This transaction is signed and immediately sent to the network.
// The values returned are its hash, ValidUntilBlock value and error if any.
func (c *Contract) EmergencyWithdraw(to util.Uint160, amount *big.Int) (util.Uint256, uint32, error) {
	return c.actor.SendCall(c.hash, "emergencyWithdraw", to, amount)
}

// EmergencyWithdrawTransaction creates a transaction invoking `emergencyWithdraw` method of the contract.
// This transaction is signed, but not sent to the network, instead it's
// returned to the caller.
func (c *Contract) EmergencyWithdrawTransaction(to util.Uint160, amount *big.Int) (*transaction.Transaction, error) {
	return c.actor.MakeCall(c.hash, "emergencyWithdraw", to, amount)
}

// EmergencyWithdrawUnsigned creates a transaction invoking `emergencyWithdraw` method of the contract.
// This transaction is not signed, it's simply returned to the caller.
// Any fields of it that do not affect fees can be changed (ValidUntilBlock,
// Nonce), fee values (NetworkFee, SystemFee) can be increased as well.
func (c *Contract) EmergencyWithdrawUnsigned(to util.Uint160, amount *big.Int) (*transaction.Transaction, error) {
	return c.actor.MakeUnsignedCall(c.hash, "emergencyWithdraw", nil, to, amount)
}

// RequestWithdrawal creates a transaction invoking `requestWithdrawal` method of the contract.
// This transaction is signed and immediately sent to the network.
// The values returned are its hash, ValidUntilBlock value and error if any.
func (c *Contract) RequestWithdrawal(account util.Uint160, amount *big.Int) (util.Uint256, uint32, error) {
	return c.actor.SendCall(c.hash, "requestWithdrawal", account, amount)
}

// RequestWithdrawalTransaction creates a transaction invoking `requestWithdrawal` method of the contract.
// This transaction is signed, but not sent to the network, instead it's
// returned to the caller.
func (c *Contract) RequestWithdrawalTransaction(account util.Uint160, amount *big.Int) (*transaction.Transaction, error) {
	return c.actor.MakeCall(c.hash, "requestWithdrawal", account, amount)
}

// RequestWithdrawalUnsigned creates a transaction invoking `requestWithdrawal` method of the contract.
// This transaction is not signed, it's simply returned to the caller.
// Any fields of it that do not affect fees can be changed (ValidUntilBlock,
// Nonce), fee values (NetworkFee, SystemFee) can be increased as well.
func (c *Contract) RequestWithdrawalUnsigned(account util.Uint160, amount *big.Int) (*transaction.Transaction, error) {
	return c.actor.MakeUnsignedCall(c.hash, "requestWithdrawal", nil, account, amount)
}

// Update creates a transaction invoking `update` method of the contract.
// This transaction is signed and immediately sent to the network.
// The values returned are its hash, ValidUntilBlock value and error if any.
func (c *Contract) Update(nefFile []byte, manifest []byte, data any) (util.Uint256, uint32, error) {
	return c.actor.SendCall(c.hash, "update", nefFile, manifest, data)
}

// UpdateTransaction creates a transaction invoking `update` method of the contract.
// This transaction is signed, but not sent to the network, instead it's
// returned to the caller.
func (c *Contract) UpdateTransaction(nefFile []byte, manifest []byte, data any) (*transaction.Transaction, error) {
	return c.actor.MakeCall(c.hash, "update", nefFile, manifest, data)
}

// UpdateUnsigned creates a transaction invoking `update` method of the contract.
// This transaction is not signed, it's simply returned to the caller.
// Any fields of it that do not affect fees can be changed (ValidUntilBlock,
// Nonce), fee values (NetworkFee, SystemFee) can be increased as well.
func (c *Contract) UpdateUnsigned(nefFile []byte, manifest []byte, data any) (*transaction.Transaction, error) {
	return c.actor.MakeUnsignedCall(c.hash, "update", nil, nefFile, manifest, data)
}

// itemToBankStats converts stack item into *BankStats.
func itemToBankStats(item stackitem.Item, err error) (*BankStats, error) {
	if err != nil {
		return nil, err
	}
	var res = new(BankStats)
	err = res.FromStackItem(item)
	return res, err
}

// FromStackItem retrieves fields of BankStats from the given
// [stackitem.Item] or returns an error if it's not possible to do to so.
func (res *BankStats) FromStackItem(item stackitem.Item) error {
	arr, err := structFields(item, 4)
	if err != nil {
		return err
	}

	fields := []struct {
		name string
		dst  **big.Int
	}{
		{"DepositOps", &res.DepositOps},
		{"WithdrawalOps", &res.WithdrawalOps},
		{"Held", &res.Held},
		{"Users", &res.Users},
	}
	for i := range fields {
		*fields[i].dst, err = arr[i].TryInteger()
		if err != nil {
			return fmt.Errorf("field %s: %w", fields[i].name, err)
		}
	}

	return nil
}

// itemToBankAccount converts stack item into *BankAccount.
func itemToBankAccount(item stackitem.Item, err error) (*BankAccount, error) {
	if err != nil {
		return nil, err
	}
	var res = new(BankAccount)
	err = res.FromStackItem(item)
	return res, err
}

// FromStackItem retrieves fields of BankAccount from the given
// [stackitem.Item] or returns an error if it's not possible to do to so.
func (res *BankAccount) FromStackItem(item stackitem.Item) error {
	arr, err := structFields(item, 4)
	if err != nil {
		return err
	}

	fields := []struct {
		name string
		dst  **big.Int
	}{
		{"Balance", &res.Balance},
		{"Pending", &res.Pending},
		{"Deposits", &res.Deposits},
		{"Withdrawals", &res.Withdrawals},
	}
	for i := range fields {
		*fields[i].dst, err = arr[i].TryInteger()
		if err != nil {
			return fmt.Errorf("field %s: %w", fields[i].name, err)
		}
	}

	return nil
}

// DepositEventsFromApplicationLog retrieves a set of all emitted events
// with "Deposit" name from the provided [result.ApplicationLog].
func DepositEventsFromApplicationLog(log *result.ApplicationLog) ([]*DepositEvent, error) {
	var res []*DepositEvent
	err := eachEvent(log, bankconst.DepositEvent, func(item *stackitem.Array) error {
		event := new(DepositEvent)
		if err := event.FromStackItem(item); err != nil {
			return err
		}
		res = append(res, event)
		return nil
	})
	return res, err
}

// FromStackItem converts provided [stackitem.Array] to DepositEvent or
// returns an error if it's not possible to do to so.
func (e *DepositEvent) FromStackItem(item *stackitem.Array) error {
	var err error
	e.Account, e.Amount, err = accountAmountFromStackItem(item)
	return err
}

// WithdrawalRequestedEventsFromApplicationLog retrieves a set of all emitted events
// with "WithdrawalRequested" name from the provided [result.ApplicationLog].
func WithdrawalRequestedEventsFromApplicationLog(log *result.ApplicationLog) ([]*WithdrawalRequestedEvent, error) {
	var res []*WithdrawalRequestedEvent
	err := eachEvent(log, bankconst.WithdrawalRequestedEvent, func(item *stackitem.Array) error {
		event := new(WithdrawalRequestedEvent)
		if err := event.FromStackItem(item); err != nil {
			return err
		}
		res = append(res, event)
		return nil
	})
	return res, err
}

// FromStackItem converts provided [stackitem.Array] to WithdrawalRequestedEvent or
// returns an error if it's not possible to do to so.
func (e *WithdrawalRequestedEvent) FromStackItem(item *stackitem.Array) error {
	var err error
	e.Account, e.Amount, err = accountAmountFromStackItem(item)
	return err
}

// WithdrawalCompletedEventsFromApplicationLog retrieves a set of all emitted events
// with "WithdrawalCompleted" name from the provided [result.ApplicationLog].
func WithdrawalCompletedEventsFromApplicationLog(log *result.ApplicationLog) ([]*WithdrawalCompletedEvent, error) {
	var res []*WithdrawalCompletedEvent
	err := eachEvent(log, bankconst.WithdrawalCompletedEvent, func(item *stackitem.Array) error {
		event := new(WithdrawalCompletedEvent)
		if err := event.FromStackItem(item); err != nil {
			return err
		}
		res = append(res, event)
		return nil
	})
	return res, err
}

// FromStackItem converts provided [stackitem.Array] to WithdrawalCompletedEvent or
// returns an error if it's not possible to do to so.
func (e *WithdrawalCompletedEvent) FromStackItem(item *stackitem.Array) error {
	var err error
	e.Account, e.Amount, err = accountAmountFromStackItem(item)
	return err
}

// BankCapReachedEventsFromApplicationLog retrieves a set of all emitted events
// with "BankCapReached" name from the provided [result.ApplicationLog].
func BankCapReachedEventsFromApplicationLog(log *result.ApplicationLog) ([]*BankCapReachedEvent, error) {
	var res []*BankCapReachedEvent
	err := eachEvent(log, bankconst.BankCapReachedEvent, func(item *stackitem.Array) error {
		event := new(BankCapReachedEvent)
		if err := event.FromStackItem(item); err != nil {
			return err
		}
		res = append(res, event)
		return nil
	})
	return res, err
}

// FromStackItem converts provided [stackitem.Array] to BankCapReachedEvent or
// returns an error if it's not possible to do to so.
func (e *BankCapReachedEvent) FromStackItem(item *stackitem.Array) error {
	arr, err := eventFields(item, 3)
	if err != nil {
		return err
	}

	var index = -1

	index++
	e.Account, err = itemToUint160(arr[index])
	if err != nil {
		return fmt.Errorf("field Account: %w", err)
	}

	index++
	e.Amount, err = arr[index].TryInteger()
	if err != nil {
		return fmt.Errorf("field Amount: %w", err)
	}

	index++
	e.Cap, err = arr[index].TryInteger()
	if err != nil {
		return fmt.Errorf("field Cap: %w", err)
	}

	return nil
}

// EmergencyWithdrawalEventsFromApplicationLog retrieves a set of all emitted events
// with "EmergencyWithdrawal" name from the provided [result.ApplicationLog].
func EmergencyWithdrawalEventsFromApplicationLog(log *result.ApplicationLog) ([]*EmergencyWithdrawalEvent, error) {
	var res []*EmergencyWithdrawalEvent
	err := eachEvent(log, bankconst.EmergencyWithdrawalEvent, func(item *stackitem.Array) error {
		event := new(EmergencyWithdrawalEvent)
		if err := event.FromStackItem(item); err != nil {
			return err
		}
		res = append(res, event)
		return nil
	})
	return res, err
}

// FromStackItem converts provided [stackitem.Array] to EmergencyWithdrawalEvent or
// returns an error if it's not possible to do to so.
func (e *EmergencyWithdrawalEvent) FromStackItem(item *stackitem.Array) error {
	var err error
	e.To, e.Amount, err = accountAmountFromStackItem(item)
	return err
}

func eachEvent(log *result.ApplicationLog, name string, f func(*stackitem.Array) error) error {
	if log == nil {
		return errors.New("nil application log")
	}

	for i, ex := range log.Executions {
		for j, e := range ex.Events {
			if e.Name != name {
				continue
			}
			err := f(e.Item)
			if err != nil {
				return fmt.Errorf("failed to deserialize %sEvent from stackitem (execution #%d, event #%d): %w", name, i, j, err)
			}
		}
	}

	return nil
}

func accountAmountFromStackItem(item *stackitem.Array) (util.Uint160, *big.Int, error) {
	arr, err := eventFields(item, 2)
	if err != nil {
		return util.Uint160{}, nil, err
	}

	acc, err := itemToUint160(arr[0])
	if err != nil {
		return util.Uint160{}, nil, fmt.Errorf("field Account: %w", err)
	}

	amount, err := arr[1].TryInteger()
	if err != nil {
		return util.Uint160{}, nil, fmt.Errorf("field Amount: %w", err)
	}

	return acc, amount, nil
}

func eventFields(item *stackitem.Array, n int) ([]stackitem.Item, error) {
	if item == nil {
		return nil, errors.New("nil item")
	}
	return structFields(item, n)
}

func structFields(item stackitem.Item, n int) ([]stackitem.Item, error) {
	arr, ok := item.Value().([]stackitem.Item)
	if !ok {
		return nil, errors.New("not an array")
	}
	if len(arr) != n {
		return nil, errors.New("wrong number of structure elements")
	}
	return arr, nil
}

func itemToUint160(item stackitem.Item) (util.Uint160, error) {
	b, err := item.TryBytes()
	if err != nil {
		return util.Uint160{}, err
	}
	return util.Uint160DecodeBytesBE(b)
}
