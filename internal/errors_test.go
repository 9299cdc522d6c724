package internal_test

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/frahmantamala/expense-console/internal"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("AppError", func() {
	It("joins field messages for display", func() {
		err := internal.NewValidationError("Validation failed", internal.ErrCodeValidationFailed).
			WithDetails(internal.ValidationErrors{Errors: []internal.ValidationError{
				{Field: "amount", Message: "amount must be greater than 0"},
				{Field: "description", Message: "description is required"},
			}})

		Expect(err.GetDetailedMessage()).To(Equal("amount must be greater than 0; description is required"))
		Expect(err.Error()).To(Equal("amount must be greater than 0"))
	})

	It("is found through wrapping", func() {
		wrapped := fmt.Errorf("load: %w", internal.NewNetworkError(errors.New("dial tcp: refused")))

		appErr, ok := internal.IsAppError(wrapped)
		Expect(ok).To(BeTrue())
		Expect(appErr.Code).To(Equal(internal.ErrCodeNetwork))
		Expect(appErr.StatusCode).To(Equal(http.StatusBadGateway))
		Expect(errors.Unwrap(appErr)).To(MatchError("dial tcp: refused"))
	})

	Describe("UserMessage", func() {
		It("uses the app error text", func() {
			Expect(internal.UserMessage(internal.NewNetworkError(nil), "x")).To(Equal(internal.NetworkErrorMessage))
		})

		It("falls back for foreign errors", func() {
			Expect(internal.UserMessage(errors.New("boom"), "Something went wrong")).To(Equal("Something went wrong"))
		})
	})

	It("hides the cause from the JSON form", func() {
		err := internal.NewInternalError("failed", errors.New("secret detail"))
		data, marshalErr := err.MarshalJSON()
		Expect(marshalErr).NotTo(HaveOccurred())
		Expect(string(data)).NotTo(ContainSubstring("secret detail"))
		Expect(string(data)).To(ContainSubstring(`"code":"INTERNAL_ERROR"`))
	})
})
