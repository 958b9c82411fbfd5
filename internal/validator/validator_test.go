package validator

import (
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	Kind   string          `json:"kind" validate:"required,category_kind"`
	TxKind string          `json:"txKind" validate:"omitempty,transaction_kind"`
	Status string          `json:"status" validate:"omitempty,period_status"`
	Code   string          `json:"code" validate:"omitempty,item_code"`
	Amount decimal.Decimal `json:"amount" validate:"gt=0"`
}

func newValidate() *validator.Validate {
	v := validator.New()
	configure(v)
	return v
}

func TestCustomTags(t *testing.T) {
	v := newValidate()

	t.Run("valid", func(t *testing.T) {
		err := v.Struct(sample{
			Kind:   "EXPENDITURE",
			TxKind: "RECEIPT",
			Status: "ACTIVE",
			Code:   "A.1.10",
			Amount: decimal.RequireFromString("20550000"),
		})
		assert.NoError(t, err)
	})

	tests := []struct {
		name  string
		input sample
		field string
	}{
		{"bad category kind", sample{Kind: "GIFT", Amount: decimal.NewFromInt(1)}, "kind"},
		{"bad transaction kind", sample{Kind: "RECEIPT", TxKind: "TRANSFER", Amount: decimal.NewFromInt(1)}, "txKind"},
		{"bad status", sample{Kind: "RECEIPT", Status: "OPEN", Amount: decimal.NewFromInt(1)}, "status"},
		{"bad code", sample{Kind: "RECEIPT", Code: "A..1", Amount: decimal.NewFromInt(1)}, "code"},
		{"zero amount", sample{Kind: "RECEIPT", Amount: decimal.Zero}, "amount"},
		{"negative amount", sample{Kind: "RECEIPT", Amount: decimal.NewFromInt(-5)}, "amount"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := v.Struct(tc.input)
			require.Error(t, err)
			var verrs validator.ValidationErrors
			require.ErrorAs(t, err, &verrs)
			require.Len(t, verrs, 1)
			assert.Equal(t, tc.field, verrs[0].Field())
		})
	}
}

type moneySample struct {
	Amount decimal.Decimal  `json:"amount" validate:"gt=0,money"`
	Unit   *decimal.Decimal `json:"unit" validate:"omitempty,money"`
}

func TestMoneyTag(t *testing.T) {
	v := newValidate()
	unit := func(s string) *decimal.Decimal {
		d := decimal.RequireFromString(s)
		return &d
	}

	assert.NoError(t, v.Struct(moneySample{Amount: decimal.RequireFromString("20550000.25"), Unit: unit("0.10")}))
	assert.NoError(t, v.Struct(moneySample{Amount: decimal.RequireFromString("0.01")}))

	for _, tc := range []struct {
		name  string
		input moneySample
		field string
	}{
		{"three decimal amount", moneySample{Amount: decimal.RequireFromString("0.001")}, "amount"},
		{"three decimal unit", moneySample{Amount: decimal.NewFromInt(1), Unit: unit("0.005")}, "unit"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			err := v.Struct(tc.input)
			var verrs validator.ValidationErrors
			require.ErrorAs(t, err, &verrs)
			require.Len(t, verrs, 1)
			assert.Equal(t, tc.field, verrs[0].Field())
			assert.Equal(t, "money", verrs[0].Tag())
		})
	}
}
