package validation

import (
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type shipping struct {
	Phone   string `validate:"required,phone"`
	Pincode string `validate:"required,pincode"`
	Email   string `validate:"omitempty,email"`
}

func newValidator(t *testing.T) *validator.Validate {
	t.Helper()
	v := validator.New()
	require.NoError(t, RegisterOn(v))
	return v
}

func TestIsPhone(t *testing.T) {
	assert.True(t, IsPhone("9876543210"))
	assert.False(t, IsPhone("987654321"))
	assert.False(t, IsPhone("98765432100"))
	assert.False(t, IsPhone("98765-43210"))
	assert.False(t, IsPhone(""))
}

func TestIsPincode(t *testing.T) {
	assert.True(t, IsPincode("411001"))
	assert.False(t, IsPincode("41100"))
	assert.False(t, IsPincode("4110011"))
	assert.False(t, IsPincode("41100a"))
}

func TestFieldErrors(t *testing.T) {
	v := newValidator(t)

	err := v.Struct(shipping{Phone: "123", Pincode: "", Email: "nope"})

	require.Error(t, err)
	assert.Equal(t, map[string]string{
		"Phone":   "must be a 10 digit phone number",
		"Pincode": "is required",
		"Email":   "must be a valid email address",
	}, FieldErrors(err))
}

func TestFieldErrors_Valid(t *testing.T) {
	v := newValidator(t)

	assert.NoError(t, v.Struct(shipping{Phone: "9876543210", Pincode: "411001"}))
	assert.Nil(t, FieldErrors(assert.AnError))
}

func TestRegisterIsIdempotent(t *testing.T) {
	require.NoError(t, Register())
	require.NoError(t, Register())
}
