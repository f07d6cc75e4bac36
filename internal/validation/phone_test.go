package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidatePhoneNumber(t *testing.T) {
	tests := []struct {
		name    string
		phone   string
		wantErr bool
		errMsg  string
	}{
		{
			name:    "valid - leading zero",
			phone:   "0900000001",
			wantErr: false,
		},
		{
			name:    "valid - country code",
			phone:   "+84912345678",
			wantErr: false,
		},
		{
			name:    "valid - operator 3",
			phone:   "0312345678",
			wantErr: false,
		},
		{
			name:    "invalid - empty",
			phone:   "",
			wantErr: true,
			errMsg:  "phone number cannot be empty",
		},
		{
			name:    "invalid - too short",
			phone:   "090000001",
			wantErr: true,
		},
		{
			name:    "invalid - too long",
			phone:   "09000000011",
			wantErr: true,
		},
		{
			name:    "invalid - unknown operator",
			phone:   "0100000001",
			wantErr: true,
		},
		{
			name:    "invalid - letters",
			phone:   "09000abc01",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePhoneNumber(tt.phone)
			if tt.wantErr {
				require.Error(t, err)
				if tt.errMsg != "" {
					assert.Equal(t, tt.errMsg, err.Error())
				}
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestValidatePassword(t *testing.T) {
	assert.NoError(t, ValidatePassword("secret"))

	err := ValidatePassword("")
	require.Error(t, err)
	assert.Equal(t, "password cannot be empty", err.Error())

	err = ValidatePassword("abc")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "at least 6")
}
