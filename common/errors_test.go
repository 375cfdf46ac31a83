package common

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidationError_AddAndError(t *testing.T) {
	ve := &ValidationError{}
	assert.False(t, ve.HasErrors())

	ve.Add("title", "This field is required.")
	ve.Add("price", "A valid number is required.")
	ve.Add("price", "Ensure this value is positive.")

	require.True(t, ve.HasErrors())
	assert.Equal(t, []string{"A valid number is required.", "Ensure this value is positive."}, ve.Fields["price"])
	assert.Equal(t,
		"validation failed: price: A valid number is required.; Ensure this value is positive., title: This field is required.",
		ve.Error())
}

func TestValidationError_As(t *testing.T) {
	err := fmt.Errorf("create recipe: %w", NewValidationError("tags", "Invalid id."))

	var ve *ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Equal(t, []string{"Invalid id."}, ve.Fields["tags"])
}
