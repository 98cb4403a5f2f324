// Package helper holds the request plumbing shared by every handler.
package helper

import (
	"errors"
	"io"

	"github.com/gin-gonic/gin"
	"github.com/ncobase/collab/ecode"
	"github.com/ncobase/collab/validator"
)

// Validate returns JSON field names mapped to friendly messages.
var Validate = validator.ValidateStruct

// ShouldBindAndValidateStruct decodes the JSON body into obj and validates
// it. An empty body decodes to the zero value and is then validated.
func ShouldBindAndValidateStruct(c *gin.Context, obj any) error {
	if err := c.ShouldBindJSON(obj); err != nil && !errors.Is(err, io.EOF) {
		return ecode.NewValidation(map[string]string{"body": "malformed JSON body"})
	}
	if fields := Validate(obj); len(fields) > 0 {
		return ecode.NewValidation(fields)
	}
	return nil
}

// ShouldBindQuery decodes query parameters into obj.
func ShouldBindQuery(c *gin.Context, obj any) error {
	if err := c.ShouldBindQuery(obj); err != nil {
		return ecode.NewValidation(map[string]string{"query": err.Error()})
	}
	return nil
}
