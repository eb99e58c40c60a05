/*
Package bank implements GAS Bank contract: a custodial ledger of GAS
deposited by accounts.

Every GAS transfer to the contract address (or Deposit call) credits the
sender. The total amount of GAS held by the contract can't exceed the bank
cap set on deployment. Withdrawal is made in two steps: RequestWithdrawal
moves part of the available balance to the pending one (each request is
limited by the max withdrawal set on deployment), CompleteWithdrawal clears
the pending amount and only then transfers it to the account.

Methods changing balances are protected by a reentrancy gate: while one of
them is executing (including a payment callback of the recipient contract
called during a transfer), another one fails with "reentrant call". Any
failure aborts the whole transaction, so no partial changes are persisted.

The contract owner can transfer any amount of contract GAS with
EmergencyWithdraw. It bypasses the accounting and is intended for incident
response only.

# Contract notifications

Deposit notification. This notification is produced when an account is
credited.

	Deposit:
	  - name: account
	    type: Hash160
	  - name: amount
	    type: Integer

WithdrawalRequested notification. This notification is produced when an
amount is staged for withdrawal.

	WithdrawalRequested:
	  - name: account
	    type: Hash160
	  - name: amount
	    type: Integer

WithdrawalCompleted notification. This notification is produced when staged
GAS is transferred to the account.

	WithdrawalCompleted:
	  - name: account
	    type: Hash160
	  - name: amount
	    type: Integer

BankCapReached notification. This notification is produced right before a
deposit above the bank cap is rejected. It is emitted by the failing
invocation, so it is not persisted with the faulted transaction.

	BankCapReached:
	  - name: account
	    type: Hash160
	  - name: amount
	    type: Integer
	  - name: cap
	    type: Integer

EmergencyWithdrawal notification. This notification is produced when the
owner transfers contract GAS bypassing the accounting.

	EmergencyWithdrawal:
	  - name: to
	    type: Hash160
	  - name: amount
	    type: Integer
*/
package bank

/*
Contract storage model.

# Summary
Key-value storage format:
  - 'owner' -> interop.Hash160
    contract owner
  - 'maxWithdrawal' -> int
    limit of a single withdrawal request
  - 'bankCap' -> int
    limit of GAS held by the contract
  - 'totalDeposits', 'totalWithdrawals' -> int
    global operation counters
  - 'totalUsers' -> int
    number of distinct depositors
  - 'gate' -> []byte{1}
    reentrancy gate, exists only during guarded invocations
  - a<interop.Hash160> -> int
    available balance
  - p<interop.Hash160> -> int
    pending withdrawal
  - d<interop.Hash160> -> int
    number of deposits of the account
  - w<interop.Hash160> -> int
    number of withdrawal requests of the account
  - u<interop.Hash160> -> int
    ordinal number of the account among depositors

Zero balances and counters are not stored.
*/
