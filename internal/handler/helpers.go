package handler

import (
	"errors"
	"net/http"
	"reflect"

	"eventpay/internal/apierror"
	"eventpay/internal/model"
	"eventpay/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// Teach the validator to read decimal.Decimal as a float so numeric tags
	// (gt=0, min=0) work on money fields instead of panicking.
	v.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		d, ok := field.Interface().(decimal.Decimal)
		if !ok {
			return nil
		}
		f, _ := d.Float64()
		return f
	}, decimal.Decimal{})
	return v
}

// bindAndValidate decodes the JSON body into req and runs its validator tags.
// On failure it writes the error response and returns false; the caller must
// not write another one.
func bindAndValidate(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("Invalid JSON: "+err.Error()))
		return false
	}

	err := validate.Struct(req)
	if err == nil {
		return true
	}

	fields := make(map[string]string)
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		for _, fe := range verrs {
			fields[fe.Field()] = fe.Tag()
		}
	}
	c.JSON(http.StatusUnprocessableEntity, apierror.NewValidation(fields))
	return false
}

// respondError maps domain errors to HTTP statuses.
func respondError(c *gin.Context, err error) {
	status := http.StatusBadRequest
	switch {
	case errors.Is(err, service.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, service.ErrInvalidTransition),
		errors.Is(err, service.ErrAlreadyRedeemed),
		errors.Is(err, service.ErrInsufficientInventory),
		errors.Is(err, service.ErrInsufficientBalance):
		status = http.StatusConflict
	case errors.Is(err, model.ErrEntryCorrelation):
		status = http.StatusBadRequest
	}
	c.JSON(status, apierror.New(err.Error()))
}
