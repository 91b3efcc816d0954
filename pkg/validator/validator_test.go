package validator

import (
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sampleRequest struct {
	Name    string `json:"name" validate:"max=10"`
	Content string `json:"content" validate:"required"`
	Rating  *int   `json:"rating" validate:"omitempty,gte=0,lte=10"`
}

func TestValidate_OK(t *testing.T) {
	r := 3
	assert.NoError(t, Validate(sampleRequest{Name: "Ana", Content: "great product", Rating: &r}))
}

func TestValidate_FieldErrorsUseJSONNames(t *testing.T) {
	r := 42
	err := Validate(sampleRequest{Name: "a very long name", Rating: &r})
	require.Error(t, err)

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	fields := verr.Fields()
	assert.Equal(t, "is required", fields["content"])
	assert.Equal(t, "must be at most 10 characters", fields["name"])
	assert.Equal(t, "must be less than or equal to 10", fields["rating"])
	assert.Contains(t, verr.Error(), "field 'content' is required")
}

func TestDecodeAndValidate(t *testing.T) {
	req := httptest.NewRequest("POST", "/", strings.NewReader(`{"content":"hello there"}`))
	var dst sampleRequest
	require.NoError(t, DecodeAndValidate(req, &dst))
	assert.Equal(t, "hello there", dst.Content)

	bad := httptest.NewRequest("POST", "/", strings.NewReader(`{`))
	err := DecodeAndValidate(bad, &dst)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode request body")
}
