package shared

import (
	"fmt"
	"regexp"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

// emailPattern accepts local@domain.tld with the character classes used by import files.
var emailPattern = regexp.MustCompile(`^[a-zA-Z0-9_.+-]+@[a-zA-Z0-9-]+\.[a-zA-Z0-9-.]+$`)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

// Validator returns the process-wide [validator.Validate] with the roster tags registered.
//
// Registered tags:
//   - rosteremail : matches [emailPattern]
//   - rostername  : non-blank after trimming, no control characters
func Validator() *validator.Validate {
	validateOnce.Do(func() {
		v := validator.New(validator.WithRequiredStructEnabled())
		if err := v.RegisterValidation("rosteremail", func(fl validator.FieldLevel) bool {
			return emailPattern.MatchString(fl.Field().String())
		}); err != nil {
			panic(fmt.Sprintf("failed to register rosteremail validation: %v", err))
		}
		if err := v.RegisterValidation("rostername", func(fl validator.FieldLevel) bool {
			s := strings.TrimSpace(fl.Field().String())
			if s == "" {
				return false
			}
			for _, r := range s {
				if r < 0x20 || r == 0x7f {
					return false
				}
			}
			return true
		}); err != nil {
			panic(fmt.Sprintf("failed to register rostername validation: %v", err))
		}
		validate = v
	})
	return validate
}

// ValidateEmail reports [ErrInvalidEmail] when email is not shaped like local@domain.tld.
func ValidateEmail(email string) error {
	if err := Validator().Var(email, "required,max=254,rosteremail"); err != nil {
		return fmt.Errorf("%w: %q", ErrInvalidEmail, email)
	}
	return nil
}

// ValidateName reports [ErrInvalidName] when a team name is blank or contains control characters.
func ValidateName(name string) error {
	if err := Validator().Var(name, "required,max=200,rostername"); err != nil {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return nil
}
