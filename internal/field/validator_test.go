package field

import (
	"fmt"
	"strings"
	"testing"

	"github.com/harunnryd/deskflow/internal/catalog"
	"github.com/stretchr/testify/assert"
)

var vpnType = catalog.FieldDefinition{
	Name:     "vpnType",
	Type:     catalog.FieldSelect,
	Required: true,
	Options:  []string{"Remote access", "Site-to-site", "Contractor access"},
}

func TestValidateRequired(t *testing.T) {
	def := catalog.FieldDefinition{Name: "justification", Type: catalog.FieldText, Required: true}

	for _, raw := range []string{"", "   ", "\t\n"} {
		res := Validate(def, raw)
		assert.False(t, res.Valid)
		assert.Equal(t, MsgRequired, res.Error)
	}

	def.Required = false
	res := Validate(def, "  ")
	assert.True(t, res.Valid)
	assert.Empty(t, res.Value)
}

func TestValidateText(t *testing.T) {
	def := catalog.FieldDefinition{
		Name:         "deviceId",
		Type:         catalog.FieldText,
		Required:     true,
		MinLength:    3,
		MaxLength:    10,
		Pattern:      `^[A-Z]{2}-\d+$`,
		PatternError: "Asset tags look like LT-12345.",
	}

	tests := []struct {
		raw   string
		valid bool
		want  string
		err   string
	}{
		{raw: "  LT-123 ", valid: true, want: "LT-123"},
		{raw: "LT", err: "at least 3"},
		{raw: "LT-12345678", err: "no more than 10"},
		{raw: "laptop", err: "Asset tags look like LT-12345."},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			res := Validate(def, tt.raw)
			assert.Equal(t, tt.valid, res.Valid)
			if tt.valid {
				assert.Equal(t, tt.want, res.Value)
				return
			}
			assert.Contains(t, res.Error, tt.err)
		})
	}

	def.PatternError = ""
	assert.Equal(t, MsgInvalidFormat, Validate(def, "laptop").Error)
}

func TestValidateSelectByIndex(t *testing.T) {
	for i, opt := range vpnType.Options {
		res := Validate(vpnType, fmt.Sprint(i+1))
		assert.True(t, res.Valid)
		assert.Equal(t, opt, res.Value)
	}

	for _, raw := range []string{"0", "4", "99"} {
		res := Validate(vpnType, raw)
		assert.False(t, res.Valid, raw)
		assert.Contains(t, res.Error, MsgInvalidOption)
	}
}

func TestValidateSelectByLabel(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{raw: "remote ACCESS", want: "Remote access"},
		{raw: "site", want: "Site-to-site"},
		{raw: "contractor", want: "Contractor access"},
		{raw: "I'd like site-to-site please", want: "Site-to-site"},
	}
	for _, tt := range tests {
		res := Validate(vpnType, tt.raw)
		assert.True(t, res.Valid, tt.raw)
		assert.Equal(t, tt.want, res.Value)
	}

	// "access" is a substring of two options.
	res := Validate(vpnType, "access")
	assert.False(t, res.Valid)
	assert.Contains(t, res.Error, MsgInvalidOption)
	assert.Contains(t, res.Error, "1. Remote access")
}

func TestValidateSelectIdempotent(t *testing.T) {
	for _, opt := range vpnType.Options {
		first := Validate(vpnType, opt)
		second := Validate(vpnType, first.Value)
		assert.Equal(t, first, second)
		assert.Equal(t, opt, second.Value)
	}
}

func TestValidateTypedFields(t *testing.T) {
	email := catalog.FieldDefinition{Name: "managerEmail", Type: catalog.FieldEmail, Required: true}
	phone := catalog.FieldDefinition{Name: "contactPhone", Type: catalog.FieldPhone, Required: true}
	number := catalog.FieldDefinition{Name: "quantity", Type: catalog.FieldNumber, Required: true}

	assert.True(t, Validate(email, "jane.doe@example.com").Valid)
	assert.Equal(t, MsgEmail, Validate(email, "jane.doe").Error)
	assert.Contains(t, strings.ToLower(Validate(email, "a@b").Error), "valid email")

	assert.True(t, Validate(phone, "+1 (514) 555-0199").Valid)
	assert.Equal(t, MsgPhone, Validate(phone, "12-34").Error)
	assert.Equal(t, MsgPhone, Validate(phone, "call me").Error)

	res := Validate(number, "2,5")
	assert.True(t, res.Valid)
	assert.Equal(t, "2.5", res.Value)
	assert.True(t, Validate(number, "3").Valid)
	assert.Equal(t, MsgNumber, Validate(number, "three").Error)
}

func TestFormatOptions(t *testing.T) {
	assert.Equal(t, "1. A\n2. B", FormatOptions([]string{"A", "B"}))
	assert.Empty(t, FormatOptions(nil))
}
