// Package swaperr defines the typed error taxonomy returned by the swap
// state machine. Every error implements the standard error interface. The
// error types carry no stack trace themselves; Wrap attaches a
// github.com/go-errors/errors stack trace at the point where it is called.
package swaperr

import (
	"fmt"

	goerrors "github.com/go-errors/errors"
)

// IncompatibleVersion is returned when a message or slate declares a
// protocol version that doesn't match CURRENT_VERSION.
type IncompatibleVersion struct {
	Got, Expected uint8
}

func (e *IncompatibleVersion) Error() string {
	return fmt.Sprintf("incompatible swap protocol version: got %d, expected %d",
		e.Got, e.Expected)
}

// UnexpectedNetwork is returned when a message arrives tagged for a
// different network than the one this party is configured for.
type UnexpectedNetwork struct {
	Reason string
}

func (e *UnexpectedNetwork) Error() string {
	return fmt.Sprintf("unexpected network: %s", e.Reason)
}

// UnexpectedStatus is returned when an API precondition on swap.Status
// fails.
type UnexpectedStatus struct {
	Expected, Got string
}

func (e *UnexpectedStatus) Error() string {
	return fmt.Sprintf("unexpected status: expected %s, got %s", e.Expected, e.Got)
}

// UnexpectedAction is returned when an API method is invoked in the wrong
// role or at an unsupported point of the DAG.
type UnexpectedAction struct {
	Reason string
}

func (e *UnexpectedAction) Error() string {
	return fmt.Sprintf("unexpected action: %s", e.Reason)
}

// InvalidMessageData is returned when counterparty-supplied data fails
// validation. The Reason string is surfaced to the caller and to logs but
// never used for control flow.
type InvalidMessageData struct {
	Reason string
}

func (e *InvalidMessageData) Error() string {
	return fmt.Sprintf("invalid message data: %s", e.Reason)
}

// InvalidLockHeightLockTx is returned when a lock slate is height-locked,
// which it must never be.
type InvalidLockHeightLockTx struct{}

func (e *InvalidLockHeightLockTx) Error() string {
	return "lock slate must not be height-locked"
}

// OneShot is returned when a one-shot signing operation is invoked a
// second time against the same swap.
type OneShot struct {
	Reason string
}

func (e *OneShot) Error() string {
	return fmt.Sprintf("one-shot operation already completed: %s", e.Reason)
}

// IO wraps a transport or serialization failure.
type IO struct {
	Reason string
}

func (e *IO) Error() string {
	return fmt.Sprintf("io error: %s", e.Reason)
}

// GenericError wraps anything that doesn't fit a more specific category.
type GenericError struct {
	Reason string
}

func (e *GenericError) Error() string {
	return e.Reason
}

// Secp wraps an error surfaced from the underlying elliptic curve math.
type Secp struct {
	Reason string
}

func (e *Secp) Error() string {
	return fmt.Sprintf("secp256k1 error: %s", e.Reason)
}

// Keychain wraps an error surfaced from the external keychain collaborator.
type Keychain struct {
	Reason string
}

func (e *Keychain) Error() string {
	return fmt.Sprintf("keychain error: %s", e.Reason)
}

// Multisig wraps an error surfaced from the multisig builder.
type Multisig struct {
	Reason string
}

func (e *Multisig) Error() string {
	return fmt.Sprintf("multisig error: %s", e.Reason)
}

// Wrap attaches a stack trace to err using go-errors, preserving err's
// message. Used at the boundary where an error first escapes the swap
// package so that logs downstream carry a trace back to its origin.
func Wrap(err error) error {
	if err == nil {
		return nil
	}
	return goerrors.Wrap(err, 1)
}

// InvalidData is a convenience constructor for InvalidMessageData.
func InvalidData(format string, args ...interface{}) error {
	return &InvalidMessageData{Reason: fmt.Sprintf(format, args...)}
}

// UnexpectedActionf is a convenience constructor for UnexpectedAction.
func UnexpectedActionf(format string, args ...interface{}) error {
	return &UnexpectedAction{Reason: fmt.Sprintf(format, args...)}
}

// OneShotf is a convenience constructor for OneShot.
func OneShotf(format string, args ...interface{}) error {
	return &OneShot{Reason: fmt.Sprintf(format, args...)}
}
