package usecase

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

const (
	nameMinLength  = 2
	nameMaxLength  = 120
	emailMaxLength = 254
	tokenMinLength = 8
	tokenMaxLength = 256
)

var (
	emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	nonDigits    = regexp.MustCompile(`\D`)
	tokenPattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)
)

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// LeadFields é o resultado tipado da validação do formulário público.
type LeadFields struct {
	Name  string
	Email string
	Phone string
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// NormalizeName trims and composes the name to NFC so length checks count what users see.
func NormalizeName(name string) string {
	return norm.NFC.String(strings.TrimSpace(name))
}

func NormalizePhone(phone string) string {
	return nonDigits.ReplaceAllString(phone, "")
}

func IsValidEmail(email string) bool {
	return len(email) <= emailMaxLength && emailPattern.MatchString(email)
}

func ValidateLeadInput(input SubmitLeadInput) (LeadFields, []ValidationError) {
	var errors []ValidationError

	fields := LeadFields{
		Name:  NormalizeName(input.Name),
		Email: NormalizeEmail(input.Email),
		Phone: NormalizePhone(input.Phone),
	}

	if fields.Email == "" {
		errors = append(errors, ValidationError{"email", "is required"})
	} else if !IsValidEmail(fields.Email) {
		errors = append(errors, ValidationError{"email", "is invalid"})
	}

	if msg := validateName(fields.Name); msg != "" {
		errors = append(errors, ValidationError{"name", msg})
	}

	return fields, errors
}

// ValidateLeadUpdate checks an admin edit; nil fields are left untouched.
func ValidateLeadUpdate(input UpdateLeadInput) []ValidationError {
	var errors []ValidationError

	if input.Name == nil && input.Phone == nil {
		errors = append(errors, ValidationError{"body", "name or phone is required"})
		return errors
	}
	if input.Name != nil {
		name := NormalizeName(*input.Name)
		if name == "" {
			errors = append(errors, ValidationError{"name", "must not be empty"})
		} else if msg := validateName(name); msg != "" {
			errors = append(errors, ValidationError{"name", msg})
		}
	}
	return errors
}

func ValidateToken(token string) error {
	token = strings.TrimSpace(token)
	switch {
	case token == "":
		return &DomainError{Code: CodeMissingToken, Message: "token is required"}
	case len(token) < tokenMinLength || len(token) > tokenMaxLength:
		return &DomainError{Code: CodeInvalidToken, Message: "token has an invalid length"}
	case !tokenPattern.MatchString(token):
		return &DomainError{Code: CodeInvalidToken, Message: "token has invalid characters"}
	}
	return nil
}

func validateName(name string) string {
	if name == "" {
		return ""
	}
	n := utf8.RuneCountInString(name)
	if n < nameMinLength {
		return fmt.Sprintf("must have at least %d characters", nameMinLength)
	}
	if n > nameMaxLength {
		return fmt.Sprintf("must not exceed %d characters", nameMaxLength)
	}
	return ""
}
