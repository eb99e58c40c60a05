package common

import "github.com/nspcc-dev/neo-go/pkg/interop/runtime"

const (
	// ErrOwnerWitnessFailed appears when the method must be called
	// by the contract owner but was not.
	ErrOwnerWitnessFailed = "owner witness check failed"
	// ErrWitnessFailed appears when the method must be called
	// by the account it operates on but was not.
	ErrWitnessFailed = "witness check failed"
)

// CheckOwnerWitness checks witness of the contract owner.
// It panics with ErrOwnerWitnessFailed message on fail.
func CheckOwnerWitness(owner []byte) {
	checkWitnessWithPanic(owner, ErrOwnerWitnessFailed)
}

// CheckWitness checks witness of the passed caller. Contracts pass the check
// for their own script hash when they are the calling script.
// It panics with ErrWitnessFailed message on fail.
func CheckWitness(caller []byte) {
	checkWitnessWithPanic(caller, ErrWitnessFailed)
}

func checkWitnessWithPanic(caller []byte, panicMsg string) {
	if !runtime.CheckWitness(caller) {
		panic(panicMsg)
	}
}
