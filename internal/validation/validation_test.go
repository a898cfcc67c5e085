package validation_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/thirtyapp/thirty/internal/validation"
)

func TestValidateEmail(t *testing.T) {
	assert.NoError(t, validation.ValidateEmail("user@example.com"))
	assert.NoError(t, validation.ValidateEmail("first.last+tag@sub.example.co"))

	assert.Error(t, validation.ValidateEmail(""))
	assert.Error(t, validation.ValidateEmail("not-an-email"))
	assert.Error(t, validation.ValidateEmail("two@@example.com"))
}

func TestValidatePassword(t *testing.T) {
	assert.NoError(t, validation.ValidatePassword("a-long-enough-secret"))

	assert.Error(t, validation.ValidatePassword("short"))
	assert.Error(t, validation.ValidatePassword("elevenchars"))
	assert.Error(t, validation.ValidatePassword(strings.Repeat("x", 73)))
	assert.Error(t, validation.ValidatePassword("password12345678"))
	assert.Error(t, validation.ValidatePassword("qwerty-but-longer"))
}

func TestValidateName(t *testing.T) {
	assert.NoError(t, validation.ValidateName("Ada"))

	assert.Error(t, validation.ValidateName(""))
	assert.Error(t, validation.ValidateName("   "))
	assert.Error(t, validation.ValidateName(strings.Repeat("n", 101)))
}

func TestValidateAvatar(t *testing.T) {
	assert.NoError(t, validation.ValidateAvatar("image/png", 1024))
	assert.NoError(t, validation.ValidateAvatar("image/webp", 5<<20))

	assert.Error(t, validation.ValidateAvatar("image/png", 5<<20+1))
	assert.Error(t, validation.ValidateAvatar("application/pdf", 1024))
	assert.Error(t, validation.ValidateAvatar("image/svg+xml", 1024))
}
