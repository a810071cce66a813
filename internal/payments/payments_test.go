package payments

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGatewayResponseValidate(t *testing.T) {
	ok := GatewayResponse{PaymentID: "pay_1", OrderID: "order_1", Signature: "sig"}
	assert.NoError(t, ok.Validate())

	for name, resp := range map[string]GatewayResponse{
		"missing payment":   {OrderID: "order_1", Signature: "sig"},
		"missing order":     {PaymentID: "pay_1", Signature: "sig"},
		"missing signature": {PaymentID: "pay_1", OrderID: "order_1"},
		"whitespace only":   {PaymentID: "  ", OrderID: "order_1", Signature: "sig"},
	} {
		assert.Error(t, resp.Validate(), name)
	}
}
