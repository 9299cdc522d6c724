package expense

import (
	"encoding/json"
	"math"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/frahmantamala/expense-console/internal"
	"github.com/frahmantamala/expense-console/internal/backend"
	"github.com/frahmantamala/expense-console/internal/core/common/validation"
)

var currencyPattern = regexp.MustCompile(`^[A-Z]{3}$`)

// SubmissionForm is the expense submission form as posted by the browser.
type SubmissionForm struct {
	Amount       string `form:"amount" validate:"required"`
	Category     string `form:"category" validate:"required"`
	Description  string `form:"description" validate:"required"`
	ExpenseDate  string `form:"expense_date" validate:"required,isodate,notfuture"`
	Currency     string `form:"currency"`
	MerchantName string `form:"merchant_name"`
}

func SubmissionFormFromValues(v url.Values) SubmissionForm {
	return SubmissionForm{
		Amount:       strings.TrimSpace(v.Get("amount")),
		Category:     strings.TrimSpace(v.Get("category")),
		Description:  strings.TrimSpace(v.Get("description")),
		ExpenseDate:  strings.TrimSpace(v.Get("expense_date")),
		Currency:     strings.ToUpper(strings.TrimSpace(v.Get("currency"))),
		MerchantName: strings.TrimSpace(v.Get("merchant_name")),
	}
}

// ToRequest validates the form and builds the request body. The amount is
// sent as a JSON number holding the submitted decimal; fallbackCurrency is
// used when the form names none.
func (f SubmissionForm) ToRequest(fallbackCurrency string) (backend.ExpenseRequest, error) {
	if appErr := validation.Struct(f); appErr != nil {
		return backend.ExpenseRequest{}, appErr
	}

	amount, err := strconv.ParseFloat(f.Amount, 64)
	if err != nil || math.IsNaN(amount) || math.IsInf(amount, 0) || amount <= 0 {
		return backend.ExpenseRequest{}, internal.NewValidationFieldError("amount",
			"Please enter a valid amount greater than 0", internal.ErrCodeInvalidAmount)
	}

	category, err := strconv.ParseInt(f.Category, 10, 64)
	if err != nil || category <= 0 {
		return backend.ExpenseRequest{}, internal.NewValidationFieldError("category",
			"Please select a valid category", internal.ErrCodeInvalidCategory)
	}

	currency := f.Currency
	if currency == "" {
		currency = fallbackCurrency
	}
	if !currencyPattern.MatchString(currency) {
		return backend.ExpenseRequest{}, internal.NewValidationFieldError("currency",
			"Currency must be a three letter code", internal.ErrCodeValidationFailed)
	}

	return backend.ExpenseRequest{
		Amount:       json.Number(strconv.FormatFloat(amount, 'f', -1, 64)),
		Currency:     currency,
		Category:     category,
		Description:  f.Description,
		ExpenseDate:  f.ExpenseDate,
		MerchantName: f.MerchantName,
	}, nil
}
