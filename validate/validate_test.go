package validate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateMethod(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		method  string
		want    string
		wantErr bool
	}{
		{
			name:   "uppercase GET",
			method: "GET",
			want:   "GET",
		},
		{
			name:   "lowercase get accepted case-insensitively",
			method: "get",
			want:   "GET",
		},
		{
			name:   "surrounding whitespace is trimmed",
			method: "  post  ",
			want:   "POST",
		},
		{
			name:   "delete",
			method: "DELETE",
			want:   "DELETE",
		},
		{
			name:    "empty method",
			method:  "",
			wantErr: true,
		},
		{
			name:    "blank method",
			method:  "   ",
			wantErr: true,
		},
		{
			name:    "CONNECT is not in the allow-set",
			method:  "CONNECT",
			wantErr: true,
		},
		{
			name:    "TRACE is not in the allow-set",
			method:  "TRACE",
			wantErr: true,
		},
		{
			name:    "embedded carriage return",
			method:  "GE\rT",
			wantErr: true,
		},
		{
			name:    "embedded line feed",
			method:  "GET\nHost: evil",
			wantErr: true,
		},
		{
			name:    "embedded null byte",
			method:  "GET\x00",
			wantErr: true,
		},
		{
			name:    "interior whitespace",
			method:  "G ET",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := ValidateMethod(tt.method)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestValidateMethod_ErrorCategory(t *testing.T) {
	t.Parallel()

	_, err := ValidateMethod("CONNECT")
	require.Error(t, err)

	vErr, ok := IsValidationError(err)
	require.True(t, ok)
	assert.Equal(t, CategoryMethod, vErr.Category)
	assert.Contains(t, vErr.Message, "CONNECT")
}

func TestValidateHeaderName(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		header  string
		wantErr bool
	}{
		{
			name:   "simple name",
			header: "Content-Type",
		},
		{
			name:   "custom header",
			header: "X-Request-Id",
		},
		{
			name:    "empty name",
			header:  "",
			wantErr: true,
		},
		{
			name:    "carriage return",
			header:  "X-Evil\r",
			wantErr: true,
		},
		{
			name:    "null byte",
			header:  "X-Evil\x00",
			wantErr: true,
		},
		{
			name:    "space",
			header:  "X Evil",
			wantErr: true,
		},
		{
			name:    "colon",
			header:  "X-Evil:",
			wantErr: true,
		},
		{
			name:    "at sign",
			header:  "X@Evil",
			wantErr: true,
		},
		{
			name:    "braces",
			header:  "X{Evil}",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := ValidateHeaderName(tt.header)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateHeaderValue(t *testing.T) {
	t.Parallel()

	assert.NoError(t, ValidateHeaderValue("X-Note", "plain value with spaces, (parens) and ;"))
	assert.Error(t, ValidateHeaderValue("X-Note", "split\r\nSet-Cookie: x"))
	assert.Error(t, ValidateHeaderValue("X-Note", "null\x00byte"))
}

func TestValidateQueryParamValues(t *testing.T) {
	t.Parallel()

	assert.NoError(t, ValidateQueryParamValues("tags", []string{"a", "b"}))

	err := ValidateQueryParamValues("tags", []string{"ok", "bad\nvalue"})
	require.Error(t, err)
	vErr, ok := IsValidationError(err)
	require.True(t, ok)
	assert.Equal(t, CategoryQuery, vErr.Category)
}

func TestValidationError_Is(t *testing.T) {
	t.Parallel()

	err := NewValidationError(CategoryHeader, "bad header")
	assert.ErrorIs(t, err, ErrValidation)
	assert.ErrorIs(t, err, &ValidationError{})
}
