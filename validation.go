package auth

import (
	"errors"
	"regexp"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/nyaruka/phonenumbers"
)

// DefaultPhoneRegion is used to parse numbers without a country prefix
const DefaultPhoneRegion = "PL"

const (
	maxNameLength     = 50
	maxMessageLength  = 200
	maxEmailLength    = 100
	maxPasswordLength = 72
)

var (
	nipPattern   = regexp.MustCompile(`^\d{10}$`)
	regonPattern = regexp.MustCompile(`^(\d{9}|\d{14})$`)
)

func nameRules() []validation.Rule {
	return []validation.Rule{validation.Required, validation.Length(1, maxNameLength)}
}

func emailRules() []validation.Rule {
	return []validation.Rule{validation.Required, validation.Length(3, maxEmailLength), is.Email}
}

// bcrypt ignores input past 72 bytes, longer passwords are rejected
func passwordRules() []validation.Rule {
	return []validation.Rule{validation.Required, validation.Length(1, maxPasswordLength)}
}

// ValidatePhone accepts an empty value or a number parseable for region
func ValidatePhone(region string) validation.RuleFunc {
	return func(value any) error {
		s, _ := value.(string)
		if strings.TrimSpace(s) == "" {
			return nil
		}
		if _, err := NormalizePhone(s, region); err != nil {
			return errors.New("must be a valid phone number")
		}
		return nil
	}
}

// NormalizePhone formats the number as E.164
func NormalizePhone(raw, region string) (string, error) {
	num, err := phonenumbers.Parse(strings.TrimSpace(raw), region)
	if err != nil {
		return "", err
	}
	if !phonenumbers.IsValidNumber(num) {
		return "", errors.New("invalid phone number")
	}
	return phonenumbers.Format(num, phonenumbers.E164), nil
}

// FormatValidationErrorToMap flattens ozzo validation errors into a
// field -> message map. Nested errors use dotted keys.
func FormatValidationErrorToMap(err error) map[string]string {
	out := map[string]string{}
	if err == nil {
		return out
	}

	var errs validation.Errors
	if !errors.As(err, &errs) {
		out["_"] = err.Error()
		return out
	}

	flattenValidationErrors("", errs, out)
	return out
}

func flattenValidationErrors(prefix string, errs validation.Errors, out map[string]string) {
	for field, fieldErr := range errs {
		key := field
		if prefix != "" {
			key = prefix + "." + field
		}

		var nested validation.Errors
		if errors.As(fieldErr, &nested) {
			flattenValidationErrors(key, nested, out)
			continue
		}
		out[key] = fieldErr.Error()
	}
}

// validationError converts ozzo errors into ErrValidationFailed with
// per field messages in the metadata.
func validationError(err error) error {
	if err == nil {
		return nil
	}
	fields := FormatValidationErrorToMap(err)
	meta := make(map[string]any, len(fields))
	for k, v := range fields {
		meta[k] = v
	}
	return withDetails(ErrValidationFailed, meta)
}
