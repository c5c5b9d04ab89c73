// Package validation registers the storefront's custom binding tags with gin's validator.
package validation

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

var (
	phonePattern   = regexp.MustCompile(`^[0-9]{10}$`)
	pincodePattern = regexp.MustCompile(`^[0-9]{6}$`)

	registerOnce sync.Once
	registerErr  error
)

// IsPhone reports whether s is a ten digit phone number.
func IsPhone(s string) bool {
	return phonePattern.MatchString(s)
}

// IsPincode reports whether s is a six digit postal code.
func IsPincode(s string) bool {
	return pincodePattern.MatchString(s)
}

func phone(fl validator.FieldLevel) bool {
	return IsPhone(fl.Field().String())
}

func pincode(fl validator.FieldLevel) bool {
	return IsPincode(fl.Field().String())
}

// RegisterOn adds the "phone" and "pincode" tags to v.
func RegisterOn(v *validator.Validate) error {
	if err := v.RegisterValidation("phone", phone); err != nil {
		return fmt.Errorf("register phone validator: %w", err)
	}
	if err := v.RegisterValidation("pincode", pincode); err != nil {
		return fmt.Errorf("register pincode validator: %w", err)
	}
	return nil
}

// Register adds the custom tags to gin's default validator. It must run before the first
// request is bound; calling it more than once is harmless.
func Register() error {
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			registerErr = errors.New("gin validator engine is not go-playground/validator")
			return
		}
		registerErr = RegisterOn(v)
	})
	return registerErr
}

// FieldErrors renders validator errors as field -> message. It returns nil when err carries
// no field errors.
func FieldErrors(err error) map[string]string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil
	}
	out := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		out[fieldName(fe)] = message(fe)
	}
	return out
}

func fieldName(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.Index(ns, "."); i >= 0 {
		ns = ns[i+1:]
	}
	return ns
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "phone":
		return "must be a 10 digit phone number"
	case "pincode":
		return "must be a 6 digit pincode"
	case "email":
		return "must be a valid email address"
	case "url":
		return "must be a valid URL"
	case "oneof":
		return "must be one of: " + fe.Param()
	case "min", "gte":
		return "must be at least " + fe.Param()
	case "max", "lte":
		return "must be at most " + fe.Param()
	case "gt":
		return "must be greater than " + fe.Param()
	}
	return "is invalid"
}
