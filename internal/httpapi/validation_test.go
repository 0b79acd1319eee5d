package httpapi

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptrFloat(f float64) *float64 { return &f }
func ptrInt(i int) *int           { return &i }

func TestValidateStruct_Valid(t *testing.T) {
	req := ChatCompletionRequest{
		Model:    "llama-3.1-8b-instant",
		Messages: []ChatMessage{{Role: "user", Content: "hello"}},
	}
	assert.NoError(t, validateStruct(&req))
}

func TestValidateStruct_MissingModel(t *testing.T) {
	req := ChatCompletionRequest{
		Messages: []ChatMessage{{Role: "user", Content: "hello"}},
	}
	err := validateStruct(&req)
	require.Error(t, err)
	verr, ok := err.(*validationError)
	require.True(t, ok)
	assert.Contains(t, verr.fields, "Model")
}

func TestValidateStruct_EmptyMessages(t *testing.T) {
	req := ChatCompletionRequest{Model: "m", Messages: []ChatMessage{}}
	err := validateStruct(&req)
	require.Error(t, err)
}

func TestValidateStruct_InvalidRole(t *testing.T) {
	req := ChatCompletionRequest{
		Model:    "m",
		Messages: []ChatMessage{{Role: "system-admin", Content: "hi"}},
	}
	require.Error(t, validateStruct(&req))
}

func TestValidateStruct_MaxTokensOutOfRange(t *testing.T) {
	req := ChatCompletionRequest{
		Model:     "m",
		Messages:  []ChatMessage{{Role: "user", Content: "hi"}},
		MaxTokens: ptrInt(5000),
	}
	require.Error(t, validateStruct(&req))
}

func TestValidateStruct_TemperatureOutOfRange(t *testing.T) {
	req := ChatCompletionRequest{
		Model:       "m",
		Messages:    []ChatMessage{{Role: "user", Content: "hi"}},
		Temperature: ptrFloat(2.5),
	}
	require.Error(t, validateStruct(&req))
}

func TestValidateStruct_TopPOutOfRange(t *testing.T) {
	req := ChatCompletionRequest{
		Model:    "m",
		Messages: []ChatMessage{{Role: "user", Content: "hi"}},
		TopP:     ptrFloat(1.5),
	}
	require.Error(t, validateStruct(&req))
}

func TestDetailMap(t *testing.T) {
	verr := &validationError{fields: map[string]string{"Model": "Model is required"}}
	detail := verr.detailMap()
	assert.Equal(t, "Model is required", detail["Model"])
}
