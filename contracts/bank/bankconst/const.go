// Package bankconst contains constants shared by the Bank contract and its
// off-chain clients.
package bankconst

// Exception messages thrown by the Bank contract. A failed invocation FAULTs
// with one of these strings, optionally followed by ": " and details.
const (
	// ErrZeroAmount is thrown when a positive amount is required but zero (or
	// negative) is given, including completion with nothing pending.
	ErrZeroAmount = "zero amount"
	// ErrBankCapExceeded is thrown when a deposit would push the contract GAS
	// balance above the configured cap.
	ErrBankCapExceeded = "bank cap exceeded"
	// ErrExceedsMaxWithdrawal is thrown when a single withdrawal request is
	// above the configured per-request limit.
	ErrExceedsMaxWithdrawal = "exceeds max withdrawal"
	// ErrInsufficientBalance is thrown when a withdrawal request is above the
	// available balance of the account.
	ErrInsufficientBalance = "insufficient balance"
	// ErrReentrancy is thrown when a guarded method is invoked while another
	// guarded method is still executing.
	ErrReentrancy = "reentrant call"
	// ErrTransferFailed is thrown when the native GAS contract refuses an
	// outgoing transfer.
	ErrTransferFailed = "transfer failed"
	// ErrOnlyGAS is thrown when a token other than native GAS is sent to the
	// contract.
	ErrOnlyGAS = "only GAS can be accepted for deposit"
	// ErrInvalidAccount is thrown for malformed account script hashes.
	ErrInvalidAccount = "invalid account"
)

// Exception messages thrown on contract deployment.
const (
	ErrInvalidOwner         = "invalid owner"
	ErrInvalidMaxWithdrawal = "max withdrawal must be positive"
	ErrInvalidBankCap       = "bank cap must be positive"
)

// Names of the notifications produced by the Bank contract.
const (
	DepositEvent             = "Deposit"
	WithdrawalRequestedEvent = "WithdrawalRequested"
	WithdrawalCompletedEvent = "WithdrawalCompleted"
	BankCapReachedEvent      = "BankCapReached"
	EmergencyWithdrawalEvent = "EmergencyWithdrawal"
)

// Storage layout of the Bank contract. Per-account items are keyed by one of
// the prefixes followed by the 20-byte account script hash, values are
// NeoVM integers.
const (
	OwnerKey         = "owner"
	MaxWithdrawalKey = "maxWithdrawal"
	BankCapKey       = "bankCap"
	DepositOpsKey    = "totalDeposits"
	WithdrawalOpsKey = "totalWithdrawals"
	UsersKey         = "totalUsers"
	GateKey          = "gate"

	AvailablePrefix   byte = 'a'
	PendingPrefix     byte = 'p'
	DepositsPrefix    byte = 'd'
	WithdrawalsPrefix byte = 'w'
	UserPrefix        byte = 'u'
)
