package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/fieldgate/fieldgate/internal/domain/validation"
)

// RegisterCustomValidators registers fieldgate-specific validation
// rules. Must be called before validating Config.
func RegisterCustomValidators(v *validator.Validate) error {
	if err := v.RegisterValidation("field_kind", validateFieldKind); err != nil {
		return fmt.Errorf("failed to register field_kind validator: %w", err)
	}
	if err := v.RegisterValidation("uri_scheme", validateURIScheme); err != nil {
		return fmt.Errorf("failed to register uri_scheme validator: %w", err)
	}
	return nil
}

// validateFieldKind accepts the wire names of the declared field kinds.
func validateFieldKind(fl validator.FieldLevel) bool {
	_, err := validation.ParseFieldKind(fl.Field().String())
	return err == nil
}

// validateURIScheme accepts lowercase scheme names per RFC 3986:
// a letter followed by letters, digits, '+', '-', or '.'.
func validateURIScheme(fl validator.FieldLevel) bool {
	s := fl.Field().String()
	if s == "" {
		return false
	}
	if s[0] < 'a' || s[0] > 'z' {
		return false
	}
	for i := 1; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= 'a' && c <= 'z':
		case c >= '0' && c <= '9':
		case c == '+' || c == '-' || c == '.':
		default:
			return false
		}
	}
	return true
}

// Validate validates the Config using struct tags plus cross-field
// rules. Returns an error with actionable messages on failure.
func (c *Config) Validate() error {
	v := validator.New(validator.WithRequiredStructEnabled())

	if err := RegisterCustomValidators(v); err != nil {
		return err
	}

	if err := v.Struct(c); err != nil {
		return formatValidationErrors(err)
	}

	// Cross-field: each kind's min must not exceed its max.
	limits := map[string]FieldLimits{
		"validation.name":       c.Validation.Name,
		"validation.identifier": c.Validation.Identifier,
		"validation.tool_name":  c.Validation.ToolName,
		"validation.uri":        {MinLength: c.Validation.URI.MinLength, MaxLength: c.Validation.URI.MaxLength},
	}
	for key, l := range limits {
		if l.MaxLength > 0 && l.MinLength > l.MaxLength {
			return fmt.Errorf("%s: min_length %d exceeds max_length %d", key, l.MinLength, l.MaxLength)
		}
	}

	return nil
}

// formatValidationErrors converts validator.ValidationErrors into a
// readable single error.
func formatValidationErrors(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		switch fe.Tag() {
		case "required":
			msgs = append(msgs, fmt.Sprintf("%s is required", fieldPath(fe)))
		case "oneof":
			msgs = append(msgs, fmt.Sprintf("%s must be one of: %s", fieldPath(fe), fe.Param()))
		case "field_kind":
			msgs = append(msgs, fmt.Sprintf("%s is not a valid field kind", fieldPath(fe)))
		case "uri_scheme":
			msgs = append(msgs, fmt.Sprintf("%s is not a valid lowercase URI scheme", fieldPath(fe)))
		case "gte":
			msgs = append(msgs, fmt.Sprintf("%s must be >= %s", fieldPath(fe), fe.Param()))
		default:
			msgs = append(msgs, fmt.Sprintf("%s failed %s validation", fieldPath(fe), fe.Tag()))
		}
	}
	return fmt.Errorf("config validation failed: %s", strings.Join(msgs, "; "))
}

// fieldPath renders a struct namespace like "Config.Server.Addr" as
// "server.addr" for error messages.
func fieldPath(fe validator.FieldError) string {
	path := fe.StructNamespace()
	if i := strings.Index(path, "."); i >= 0 {
		path = path[i+1:]
	}
	return strings.ToLower(path)
}
