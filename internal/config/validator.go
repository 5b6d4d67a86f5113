package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// RegisterCustomValidators registers cryptoproxy-specific validation
// rules. Must be called before validating a ClientConfig.
func RegisterCustomValidators(v *validator.Validate) error {
	if err := v.RegisterValidation("endpointaddr", validateEndpointAddr); err != nil {
		return fmt.Errorf("register endpointaddr validator: %w", err)
	}
	return nil
}

// validateEndpointAddr accepts "unix://<absolute-path>" or a bare
// "host:port" -- the two dial targets ClientConfig.DialTarget splits into
// a (network, address) pair for net.Dial.
func validateEndpointAddr(fl validator.FieldLevel) bool {
	endpoint := fl.Field().String()
	if strings.HasPrefix(endpoint, "unix://") {
		path := strings.TrimPrefix(endpoint, "unix://")
		return path != "" && strings.HasPrefix(path, "/")
	}
	host, _, found := strings.Cut(endpoint, ":")
	return found && host != ""
}

// Validate validates the ClientConfig using struct tags and custom rules.
func (c *ClientConfig) Validate() error {
	v := validator.New(validator.WithRequiredStructEnabled())

	if err := RegisterCustomValidators(v); err != nil {
		return err
	}

	if err := v.Struct(c); err != nil {
		return formatValidationErrors(err)
	}

	return nil
}

func formatValidationErrors(err error) error {
	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		var messages []string
		for _, e := range validationErrors {
			messages = append(messages, formatSingleValidationError(e))
		}
		return errors.New(strings.Join(messages, "; "))
	}
	return err
}

func formatSingleValidationError(e validator.FieldError) string {
	field := e.Namespace()
	tag := e.Tag()

	switch tag {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "min":
		return fmt.Sprintf("%s must be at least %s", field, e.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, e.Param())
	case "endpointaddr":
		return fmt.Sprintf("%s must be 'unix:///absolute/path' or 'host:port'", field)
	default:
		return fmt.Sprintf("%s failed validation: %s", field, tag)
	}
}
