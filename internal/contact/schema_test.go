package contact

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dukerupert/portfolio/internal/domain"
)

func TestDecode(t *testing.T) {
	longMessage := strings.Repeat("x", domain.MessageMaxLength+1)

	tests := []struct {
		name     string
		body     string
		wantErr  string
		wantCode string
	}{
		{
			name: "valid payload",
			body: `{"email":"jane@example.com","name":"Jane","message":"Hello!"}`,
		},
		{
			name:     "malformed email",
			body:     `{"email":"jane-at-example","name":"Jane","message":"Hello!"}`,
			wantErr:  `"email" must be a valid email`,
			wantCode: domain.EINVALID,
		},
		{
			name:     "empty name",
			body:     `{"email":"jane@example.com","name":"","message":"Hello!"}`,
			wantErr:  `"name" is not allowed to be empty`,
			wantCode: domain.EINVALID,
		},
		{
			name:     "missing message",
			body:     `{"email":"jane@example.com","name":"Jane"}`,
			wantErr:  `"message" is required`,
			wantCode: domain.EINVALID,
		},
		{
			name:     "message too long",
			body:     `{"email":"jane@example.com","name":"Jane","message":"` + longMessage + `"}`,
			wantErr:  `"message" length must be less than or equal to 9048 characters long`,
			wantCode: domain.EINVALID,
		},
		{
			name:     "unknown field",
			body:     `{"email":"jane@example.com","name":"Jane","message":"Hi","phone":"555"}`,
			wantErr:  `"phone" is not allowed`,
			wantCode: domain.EINVALID,
		},
		{
			name:     "not an object",
			body:     `["jane@example.com"]`,
			wantErr:  `"value" must be of type object`,
			wantCode: domain.EINVALID,
		},
		{
			name:     "null body",
			body:     `null`,
			wantErr:  `"value" must be of type object`,
			wantCode: domain.EINVALID,
		},
		{
			name:     "broken json",
			body:     `{"email":`,
			wantErr:  `"value" must be of type object`,
			wantCode: domain.EINVALID,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sub, err := Decode(strings.NewReader(tt.body))
			if tt.wantErr == "" {
				require.NoError(t, err)
				assert.Equal(t, "jane@example.com", sub.Email)
				assert.Equal(t, "Jane", sub.Name)
				return
			}
			require.Error(t, err)
			assert.Equal(t, tt.wantCode, domain.ErrorCode(err))
			assert.Equal(t, tt.wantErr, domain.ErrorMessage(err))
		})
	}
}

func TestValidateSubmission(t *testing.T) {
	assert.NoError(t, ValidateSubmission(domain.Submission{Email: "a@example.com", Name: "A", Message: "m"}))

	err := ValidateSubmission(domain.Submission{Email: "a@example.com", Name: "", Message: "m"})
	require.Error(t, err)
	assert.Contains(t, domain.ErrorMessage(err), `"name"`)
}

func TestMessageRule_Boundary(t *testing.T) {
	assert.True(t, MessageRule().Validate(strings.Repeat("y", domain.MessageMaxLength)).OK())
	assert.False(t, MessageRule().Validate(strings.Repeat("y", domain.MessageMaxLength+1)).OK())
}
