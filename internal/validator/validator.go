// Package validator provides custom validation functions for Gin's binding engine.
package validator

import (
	"reflect"
	"regexp"
	"strings"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"anggaran/internal/models"
)

// itemCodeRegex accepts dotted outline codes such as "A", "A.1" or "B.2.10".
var itemCodeRegex = regexp.MustCompile(`^[A-Za-z0-9]+(\.[A-Za-z0-9]+)*$`)

// Register registers all custom validators with the Gin binding engine.
func Register() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		configure(v)
	}
}

func configure(v *validator.Validate) {
	v.RegisterTagNameFunc(jsonFieldName)
	v.RegisterCustomTypeFunc(decimalValue, decimal.Decimal{})
	_ = v.RegisterValidation("category_kind", validateCategoryKind)
	_ = v.RegisterValidation("transaction_kind", validateTransactionKind)
	_ = v.RegisterValidation("period_status", validatePeriodStatus)
	_ = v.RegisterValidation("item_code", validateItemCode)
	_ = v.RegisterValidation("money", validateMoney)
}

// jsonFieldName reports fields by their JSON name so error details match the payload.
func jsonFieldName(fld reflect.StructField) string {
	name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
	if name == "-" {
		return ""
	}
	if name == "" {
		return fld.Name
	}
	return name
}

// decimalValue lets numeric tags such as gt=0 apply to decimal fields.
func decimalValue(field reflect.Value) interface{} {
	if d, ok := field.Interface().(decimal.Decimal); ok {
		f, _ := d.Float64()
		return f
	}
	return nil
}

func validateCategoryKind(fl validator.FieldLevel) bool {
	return models.CategoryKind(fl.Field().String()).Valid()
}

func validateTransactionKind(fl validator.FieldLevel) bool {
	return models.TransactionKind(fl.Field().String()).Valid()
}

func validatePeriodStatus(fl validator.FieldLevel) bool {
	switch models.PeriodStatus(fl.Field().String()) {
	case models.PeriodStatusDraft, models.PeriodStatusActive, models.PeriodStatusClosed:
		return true
	}
	return false
}

func validateItemCode(fl validator.FieldLevel) bool {
	return itemCodeRegex.MatchString(fl.Field().String())
}

// validateMoney rejects amounts with more fractional digits than the money
// columns store. Decimal fields arrive here already converted by decimalValue.
func validateMoney(fl validator.FieldLevel) bool {
	var d decimal.Decimal
	switch fl.Field().Kind() {
	case reflect.Float32, reflect.Float64:
		d = decimal.NewFromFloat(fl.Field().Float())
	case reflect.String:
		parsed, err := decimal.NewFromString(fl.Field().String())
		if err != nil {
			return false
		}
		d = parsed
	default:
		return false
	}
	return models.FitsMoneyScale(d)
}
