package order

import (
	"errors"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coursemint/settlement/pkg/tool"
)

func TestCreateOrderRequest_Validate(t *testing.T) {
	amount := 99.0

	tests := []struct {
		name    string
		req     *CreateOrderRequest
		missing string
	}{
		{name: "nil request", req: nil, missing: "request"},
		{name: "missing user", req: &CreateOrderRequest{Amount: amount, PaymentType: "creditcard"}, missing: "userId"},
		{name: "missing amount", req: &CreateOrderRequest{UserID: "u1", PaymentType: "creditcard"}, missing: "amount"},
		{name: "missing payment type", req: &CreateOrderRequest{UserID: "u1", Amount: amount}, missing: "paymentType"},
		{name: "valid", req: &CreateOrderRequest{UserID: "u1", Amount: amount, PaymentType: "creditcard"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.req.Validate()
			if tt.missing == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			require.True(t, errors.Is(err, ErrMissingField))
			assert.Contains(t, err.Error(), tt.missing)
		})
	}
}

func TestGenerateOrderNumber_Format(t *testing.T) {
	re := regexp.MustCompile(`^ORDER-\d+-[A-Z0-9]{5}$`)
	for i := 0; i < 100; i++ {
		n := tool.GenerateOrderNumber()
		require.Regexp(t, re, n)
	}
}

func TestSentinelErrors_AreWrapFriendly(t *testing.T) {
	for _, sentinel := range []error{ErrMissingField, ErrUnknownUser, ErrPersistence} {
		wrapped := errors.Join(errors.New("outer"), sentinel)
		require.True(t, errors.Is(wrapped, sentinel))
	}
}
