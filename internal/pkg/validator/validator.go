package validator

import (
	"github.com/go-playground/validator/v10"

	"github.com/ovenbird/cakeshop-reviews/internal/rating"
)

// Shared validator instance to avoid creating multiple instances
var validate *validator.Validate

func init() {
	validate = validator.New()

	// "stars" checks an integer field against the review star scale. The
	// bounds live with the aggregation code so the two cannot drift apart.
	err := validate.RegisterValidation("stars", func(fl validator.FieldLevel) bool {
		stars := fl.Field().Int()
		return stars >= int64(rating.MinStar) && stars <= int64(rating.MaxStar)
	})
	if err != nil {
		panic(err)
	}
}

// Get returns the shared validator instance
func Get() *validator.Validate {
	return validate
}
