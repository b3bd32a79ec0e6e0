package validation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStringValidation(t *testing.T) {
	tests := []struct {
		name string
		v    *StringValidation
		want bool
	}{
		{"required blank", NewStringValidation("   "), false},
		{"required present", NewStringValidation("Choir"), true},
		{"optional empty", NewStringValidation("").WithRequired(false).WithMinLength(3), true},
		{"too short", NewStringValidation("ab").WithMinLength(3), false},
		{"at max", NewStringValidation(strings.Repeat("я", 5)).WithMaxLength(5), true},
		{"over max", NewStringValidation(strings.Repeat("я", 6)).WithMaxLength(5), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.v.Validate())
		})
	}
}

func TestTitle(t *testing.T) {
	got, ok := Title("  Rehearsal \n", EventTitleMaxLength)
	assert.True(t, ok)
	assert.Equal(t, "Rehearsal", got)

	_, ok = Title(" ", EventTitleMaxLength)
	assert.False(t, ok)

	_, ok = Title(strings.Repeat("x", WorkspaceTitleMaxLength+1), WorkspaceTitleMaxLength)
	assert.False(t, ok)
}
