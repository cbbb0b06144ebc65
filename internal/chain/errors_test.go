package chain

import (
	"encoding/binary"
	"encoding/hex"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

type dataCodedError struct {
	msg  string
	data interface{}
}

func (e *dataCodedError) Error() string          { return e.msg }
func (e *dataCodedError) ErrorData() interface{} { return e.data }

func TestClassify(t *testing.T) {
	tests := []struct {
		name     string
		in       error
		expected error
	}{
		{
			name:     "Nil passes through",
			in:       nil,
			expected: nil,
		},
		{
			name:     "User rejection code",
			in:       &codedError{code: CodeUserRejected, msg: "User rejected the request."},
			expected: ErrUserCancelled,
		},
		{
			name:     "Unknown chain code",
			in:       &codedError{code: CodeUnknownChain, msg: "Unrecognized chain ID"},
			expected: ErrUnknownChain,
		},
		{
			name:     "Insufficient funds by message",
			in:       errors.New("insufficient funds for gas * price + value"),
			expected: ErrInsufficientFunds,
		},
		{
			name:     "Insufficient balance variant",
			in:       errors.New("Insufficient balance to cover fee"),
			expected: ErrInsufficientFunds,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify(tt.in)
			if tt.expected == nil {
				assert.NoError(t, got)
				return
			}
			assert.ErrorIs(t, got, tt.expected)
		})
	}
}

func TestClassify_PassThrough(t *testing.T) {
	plain := errors.New("connection refused")
	assert.Equal(t, plain, Classify(plain))
}

// encodeRevertData builds the Error(string) payload a node attaches to a
// revert: the 4-byte selector plus the ABI-encoded reason.
func encodeRevertData(reason string) []byte {
	payload := []byte{0x08, 0xc3, 0x79, 0xa0}

	word := func(n int) []byte {
		w := make([]byte, 32)
		binary.BigEndian.PutUint64(w[24:], uint64(n))
		return w
	}

	payload = append(payload, word(32)...)
	payload = append(payload, word(len(reason))...)

	padded := make([]byte, (len(reason)+31)/32*32)
	copy(padded, reason)
	return append(payload, padded...)
}

func TestClassify_RevertWithReason(t *testing.T) {
	payload := encodeRevertData("bet already placed")

	in := &dataCodedError{
		msg:  "execution reverted",
		data: "0x" + hex.EncodeToString(payload),
	}

	got := Classify(in)

	var revertErr *RevertError
	assert.ErrorAs(t, got, &revertErr)
	assert.Equal(t, "bet already placed", revertErr.Reason)
}

func TestClassify_RevertWithoutData(t *testing.T) {
	got := Classify(errors.New("execution reverted"))

	var revertErr *RevertError
	assert.ErrorAs(t, got, &revertErr)
	assert.Empty(t, revertErr.Reason)
	assert.Equal(t, "execution reverted", revertErr.Error())
}
