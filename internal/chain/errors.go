package chain

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/pkg/errors"
)

// EIP-1193 provider error codes.
const (
	CodeUserRejected = 4001
	CodeUnknownChain = 4902
)

var (
	ErrUserCancelled     = errors.New("user rejected the request")
	ErrUnknownChain      = errors.New("chain not registered with wallet")
	ErrNetworkMismatch   = errors.New("wrong network")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrConnectionTimeout = errors.New("connection timed out")
	ErrNoAccounts        = errors.New("no accounts available")
)

// RevertError carries the contract-provided revert reason when one could be
// decoded, otherwise Reason is empty and callers fall back to a generic
// message.
type RevertError struct {
	Reason string
}

func (e *RevertError) Error() string {
	if e.Reason == "" {
		return "execution reverted"
	}
	return fmt.Sprintf("execution reverted: %s", e.Reason)
}

// rpcError matches go-ethereum's rpc.Error without importing the package in
// every caller.
type rpcError interface {
	Error() string
	ErrorCode() int
}

type dataError interface {
	Error() string
	ErrorData() interface{}
}

// Classify maps a raw provider error to the portal taxonomy. Unknown errors
// pass through unchanged.
func Classify(err error) error {
	if err == nil {
		return nil
	}

	var rpcErr rpcError
	if errors.As(err, &rpcErr) {
		switch rpcErr.ErrorCode() {
		case CodeUserRejected:
			return ErrUserCancelled
		case CodeUnknownChain:
			return ErrUnknownChain
		}
	}

	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "insufficient funds"), strings.Contains(msg, "insufficient balance"):
		return ErrInsufficientFunds
	case strings.Contains(msg, "execution reverted"), strings.Contains(msg, "revert"):
		return &RevertError{Reason: revertReason(err)}
	}

	return err
}

// revertReason decodes the ABI-encoded Error(string) payload attached to a
// revert, when the node returned one.
func revertReason(err error) string {
	var dataErr dataError
	if !errors.As(err, &dataErr) {
		return ""
	}

	hexData, ok := dataErr.ErrorData().(string)
	if !ok {
		return ""
	}

	data, decodeErr := hex.DecodeString(strings.TrimPrefix(hexData, "0x"))
	if decodeErr != nil {
		return ""
	}

	reason, unpackErr := abi.UnpackRevert(data)
	if unpackErr != nil {
		return ""
	}

	return reason
}
