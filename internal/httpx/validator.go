package httpx

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate *validator.Validate

func init() {
	validate = validator.New()

	validate.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})
	_ = validate.RegisterValidation("isbn", validateISBN)
}

// ISBNs are opaque catalog identifiers: non-empty printable ASCII without
// spaces, at most 32 bytes.
func validateISBN(fl validator.FieldLevel) bool {
	return ValidISBN(fl.Field().String())
}

func ValidISBN(isbn string) bool {
	if isbn == "" || len(isbn) > 32 {
		return false
	}
	for i := 0; i < len(isbn); i++ {
		if isbn[i] <= ' ' || isbn[i] > '~' {
			return false
		}
	}
	return true
}

func ValidateStruct(s any) []ErrorDetail {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []ErrorDetail{{Field: "", Message: err.Error()}}
	}

	details := make([]ErrorDetail, 0, len(verrs))
	for _, fe := range verrs {
		field := fe.Field()

		var message string
		switch fe.Tag() {
		case "required":
			message = fmt.Sprintf("%s is required", field)
		case "max":
			message = fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
		case "isbn":
			message = fmt.Sprintf("%s must be a valid ISBN", field)
		default:
			message = fmt.Sprintf("%s is invalid", field)
		}
		details = append(details, ErrorDetail{Field: field, Message: message})
	}
	return details
}

// DecodeAndValidate reads a JSON body into dst and validates it. On failure
// it writes a 400 response and returns false.
func DecodeAndValidate(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			JSONError(w, r, http.StatusRequestEntityTooLarge, "PAYLOAD_TOO_LARGE", "Request body too large", nil)
			return false
		}
		JSONError(w, r, http.StatusBadRequest, "BAD_REQUEST", "Invalid request body", nil)
		return false
	}
	if details := ValidateStruct(dst); len(details) > 0 {
		JSONError(w, r, http.StatusBadRequest, "VALIDATION_ERROR", "Validation failed", details)
		return false
	}
	return true
}
