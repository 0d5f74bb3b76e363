package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/localhq/localservices/pkg/errors"
	"github.com/localhq/localservices/pkg/validator"
)

// bindAndValidate decodes the JSON body into T and runs struct validation.
// On failure it writes the error response and returns false.
func bindAndValidate[T any](c *gin.Context) (*T, bool) {
	var payload T
	if err := c.ShouldBindJSON(&payload); err != nil {
		writeError(c, errors.NewBadRequest("Invalid request body"))
		return nil, false
	}

	if err := validator.ValidateStruct(&payload); err != nil {
		writeError(c, errors.NewBadRequest(err.Error()))
		return nil, false
	}

	return &payload, true
}
