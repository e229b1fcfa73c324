package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type TestStruct struct {
	Name  string `validate:"required"`
	Email string `validate:"required,email"`
	Age   int    `validate:"required,gte=0,lte=150"`
}

func TestValidateStruct(t *testing.T) {
	t.Run("valid struct", func(t *testing.T) {
		s := TestStruct{
			Name:  "John Doe",
			Email: "john@example.com",
			Age:   30,
		}
		
		err := ValidateStruct(&s)
		assert.NoError(t, err)
	})
	
	t.Run("missing required field", func(t *testing.T) {
		s := TestStruct{
			Email: "john@example.com",
			Age:   30,
		}
		
		err := ValidateStruct(&s)
		assert.Error(t, err)
		assert.True(t, IsValidationError(err))
		
		fields := GetValidationFields(err)
		assert.Contains(t, fields, "Name")
	})
	
	t.Run("invalid email", func(t *testing.T) {
		s := TestStruct{
			Name:  "John Doe",
			Email: "invalid-email",
			Age:   30,
		}
		
		err := ValidateStruct(&s)
		assert.Error(t, err)
		assert.True(t, IsValidationError(err))
		
		fields := GetValidationFields(err)
		assert.Contains(t, fields, "Email")
	})
	
	t.Run("age out of range", func(t *testing.T) {
		s := TestStruct{
			Name:  "John Doe",
			Email: "john@example.com",
			Age:   200,
		}
		
		err := ValidateStruct(&s)
		assert.Error(t, err)
		assert.True(t, IsValidationError(err))
		
		fields := GetValidationFields(err)
		assert.Contains(t, fields, "Age")
	})
}

func TestNewValidationError(t *testing.T) {
	t.Run("creates validation error with field details", func(t *testing.T) {
		s := TestStruct{
			Email: "invalid-email",
			Age:   200,
		}
		
		err := ValidateStruct(&s)
		require.Error(t, err)
		
		validationErr, ok := err.(*ValidationError)
		require.True(t, ok)
		
		assert.Equal(t, "Validation failed", validationErr.Message)
		assert.NotEmpty(t, validationErr.Fields)
		assert.Contains(t, validationErr.Fields, "Name")
		assert.Contains(t, validationErr.Fields, "Email")
		assert.Contains(t, validationErr.Fields, "Age")
	})
}

func TestValidationError_Error(t *testing.T) {
	err := &ValidationError{
		Message: "Test validation error",
		Fields: map[string]string{
			"field1": "error1",
		},
	}
	
	assert.Equal(t, "Test validation error", err.Error())
}

func TestIsValidationError(t *testing.T) {
	t.Run("is validation error", func(t *testing.T) {
		err := &ValidationError{
			Message: "test",
			Fields:  map[string]string{},
		}
		
		assert.True(t, IsValidationError(err))
	})
	
	t.Run("is not validation error", func(t *testing.T) {
		err := assert.AnError
		
		assert.False(t, IsValidationError(err))
	})
}

func TestGetValidationFields(t *testing.T) {
	t.Run("gets fields from validation error", func(t *testing.T) {
		fields := map[string]string{
			"field1": "error1",
			"field2": "error2",
		}
		err := &ValidationError{
			Message: "test",
			Fields:  fields,
		}
		
		extracted := GetValidationFields(err)
		assert.Equal(t, fields, extracted)
	})
	
	t.Run("returns nil for non-validation error", func(t *testing.T) {
		err := assert.AnError
		
		extracted := GetValidationFields(err)
		assert.Nil(t, extracted)
	})
}

func TestValidateStruct_UsesJSONNames(t *testing.T) {
	type payload struct {
		Email  string `json:"email" validate:"required,email"`
		Salary int64  `json:"salary,omitempty" validate:"gte=0"`
	}

	err := ValidateStruct(&payload{Email: "nope", Salary: -1})
	require.Error(t, err)

	fields := GetValidationFields(err)
	assert.Equal(t, "email must be a valid email", fields["email"])
	assert.Equal(t, "salary must be greater than or equal to 0", fields["salary"])
}
