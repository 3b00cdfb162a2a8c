package handler // declare the package name; contains HTTP handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator"
	"github.com/labstack/echo/v4"
)

// envelope is the body of every API response.  Success responses carry
// message and data; failures carry error and, for validation failures, the
// offending field.
type envelope struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Error   string      `json:"error,omitempty"`
	Field   string      `json:"field,omitempty"`
	Count   *int        `json:"count,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

func success(c echo.Context, status int, message string, data interface{}) error {
	return c.JSON(status, envelope{Success: true, Message: message, Data: data})
}

func successList(c echo.Context, message string, data interface{}, n int) error {
	return c.JSON(http.StatusOK, envelope{Success: true, Message: message, Count: &n, Data: data})
}

func fail(c echo.Context, status int, msg string) error {
	return c.JSON(status, envelope{Success: false, Error: msg})
}

func failField(c echo.Context, status int, field, msg string) error {
	return c.JSON(status, envelope{Success: false, Error: msg, Field: field})
}

// errInvalidJSON is returned by bindJSON for a body that is not valid JSON.
var errInvalidJSON = errors.New("invalid JSON body")

// bindJSON decodes the request body as JSON whatever the Content-Type.  An
// empty body leaves v untouched.
func bindJSON(c echo.Context, v interface{}) error {
	dec := json.NewDecoder(c.Request().Body)
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return errInvalidJSON
	}
	return nil
}

// RequestValidator adapts go-playground/validator to echo.Validator.  Field
// names in errors use the json tag so messages match the request body.
type RequestValidator struct {
	validator *validator.Validate
}

func NewRequestValidator() *RequestValidator {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return &RequestValidator{validator: v}
}

func (rv *RequestValidator) Validate(i interface{}) error {
	return rv.validator.Struct(i)
}

// validationFailure turns the first validator error into a field and a
// readable message.
func validationFailure(err error) (string, string) {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return "", err.Error()
	}
	fe := verrs[0]
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return field, fmt.Sprintf("%s is required", field)
	case "min":
		return field, fmt.Sprintf("%s must be at least %s characters", field, fe.Param())
	case "max":
		return field, fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
	case "gte":
		return field, fmt.Sprintf("%s must be greater than or equal to %s", field, fe.Param())
	case "lte":
		return field, fmt.Sprintf("%s must be less than or equal to %s", field, fe.Param())
	case "oneof":
		return field, fmt.Sprintf("%s must be one of: %s", field, strings.ReplaceAll(fe.Param(), " ", ", "))
	case "email":
		return field, fmt.Sprintf("%s must be a valid email address", field)
	}
	return field, fmt.Sprintf("%s is invalid", field)
}

// bindAndValidate decodes the body into v and runs e.Validator on it.  On
// failure it writes the 400 response and returns false.
func bindAndValidate(c echo.Context, v interface{}) (bool, error) {
	if err := bindJSON(c, v); err != nil {
		return false, fail(c, http.StatusBadRequest, err.Error())
	}
	if err := c.Validate(v); err != nil {
		field, msg := validationFailure(err)
		return false, failField(c, http.StatusBadRequest, field, msg)
	}
	return true, nil
}

// ErrorHandler renders errors that reach echo in the response envelope.
// Unknown errors become 500 without leaking details.
func ErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	status := http.StatusInternalServerError
	msg := "internal server error"
	var he *echo.HTTPError
	if errors.As(err, &he) {
		status = he.Code
		switch {
		case status == http.StatusNotFound:
			msg = "endpoint not found"
		case status == http.StatusMethodNotAllowed:
			msg = "method not allowed"
		case status < http.StatusInternalServerError:
			msg = fmt.Sprint(he.Message)
		}
	}
	if status >= http.StatusInternalServerError {
		c.Logger().Errorf("%s %s: %v", c.Request().Method, c.Request().URL.Path, err)
	}
	var werr error
	if c.Request().Method == http.MethodHead {
		werr = c.NoContent(status)
	} else {
		werr = fail(c, status, msg)
	}
	if werr != nil {
		c.Logger().Error(werr)
	}
}
