package validator

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type starsPayload struct {
	StarRating int `validate:"required,stars"`
}

func TestStarsValidation(t *testing.T) {
	v := Get()

	assert.NoError(t, v.Struct(starsPayload{StarRating: 1}))
	assert.NoError(t, v.Struct(starsPayload{StarRating: 5}))

	assert.Error(t, v.Struct(starsPayload{StarRating: 0}))
	assert.Error(t, v.Struct(starsPayload{StarRating: 6}))
	assert.Error(t, v.Struct(starsPayload{StarRating: -3}))
}

func TestGetReturnsSharedInstance(t *testing.T) {
	assert.Same(t, Get(), Get())
}
