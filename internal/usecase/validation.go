package usecase

import (
	"fmt"
	"net/mail"
	"regexp"
	"strings"
	"time"

	"github.com/xavierca1/leadtrack/internal/entity"
)

const dateLayout = "2006-01-02"

var nonDigit = regexp.MustCompile(`\D`)

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func ValidateQuickLeadInput(input QuickLeadInput) []ValidationError {
	return validateContact(input.BusinessName, input.OwnerName, input.Phone, input.Email)
}

func ValidateFullLeadInput(input FullLeadInput) []ValidationError {
	errors := validateContact(input.BusinessName, input.OwnerName, input.Phone, input.Email)

	if input.WebsiteType != "" && !entity.WebsiteType(input.WebsiteType).Valid() {
		errors = append(errors, ValidationError{"websiteType", "must be New or Redesign"})
	}
	if input.Plan != "" && !entity.Plan(input.Plan).Valid() {
		errors = append(errors, ValidationError{"plan", "must be Starter, Growth or Pro"})
	}
	if strings.TrimSpace(input.StartDate) != "" && !isValidDate(input.StartDate) {
		errors = append(errors, ValidationError{"startDate", "must be a valid date (YYYY-MM-DD)"})
	}
	if len(input.Notes) > 5000 {
		errors = append(errors, ValidationError{"notes", "must not exceed 5000 characters"})
	}

	return errors
}

func validateContact(businessName, ownerName, phone, email string) []ValidationError {
	var errors []ValidationError

	if strings.TrimSpace(businessName) == "" {
		errors = append(errors, ValidationError{"businessName", "is required"})
	} else if len(businessName) > 200 {
		errors = append(errors, ValidationError{"businessName", "must not exceed 200 characters"})
	}

	if strings.TrimSpace(ownerName) == "" {
		errors = append(errors, ValidationError{"ownerName", "is required"})
	}

	if strings.TrimSpace(phone) == "" {
		errors = append(errors, ValidationError{"phone", "is required"})
	} else if !isValidPhoneNumber(phone) {
		errors = append(errors, ValidationError{"phone", "must be a valid phone number"})
	}

	if strings.TrimSpace(email) == "" {
		errors = append(errors, ValidationError{"email", "is required"})
	} else if _, err := mail.ParseAddress(email); err != nil {
		errors = append(errors, ValidationError{"email", "is invalid"})
	}

	return errors
}

func validationFailed(errs []ValidationError) error {
	msg := "validation failed: "
	for i, e := range errs {
		if i > 0 {
			msg += ", "
		}
		msg += e.Field + " (" + e.Message + ")"
	}
	return &DomainError{Code: CodeValidation, Message: msg, Fields: errs}
}

func isValidPhoneNumber(phone string) bool {
	cleaned := nonDigit.ReplaceAllString(phone, "")
	return len(cleaned) >= 7 && len(cleaned) <= 15
}

func isValidDate(dateStr string) bool {
	_, err := time.Parse(dateLayout, strings.TrimSpace(dateStr))
	return err == nil
}
