package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/prn-tf/recipebook/internal/domain"
)

// DefaultMaxBodySize caps JSON request bodies when no limit is configured.
const DefaultMaxBodySize int64 = 1 << 20

// RequestDecoder decodes and validates JSON request bodies.
type RequestDecoder struct {
	validate    *validator.Validate
	maxBodySize int64
}

// NewRequestDecoder creates a decoder. Field names in validation errors
// are the JSON names.
func NewRequestDecoder(maxBodySize int64) *RequestDecoder {
	if maxBodySize <= 0 {
		maxBodySize = DefaultMaxBodySize
	}
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return &RequestDecoder{validate: v, maxBodySize: maxBodySize}
}

// Decode reads r's body into dst and validates it. Every failure is a
// *domain.ValidationError.
func (d *RequestDecoder) Decode(w http.ResponseWriter, r *http.Request, dst any) error {
	body := http.MaxBytesReader(w, r.Body, d.maxBodySize)
	if err := json.NewDecoder(body).Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.As(err, &tooLarge):
			return domain.NewValidationError("", "request body too large")
		case errors.Is(err, io.EOF):
			return domain.NewValidationError("", "request body is required")
		}
		return domain.NewValidationError("", "malformed JSON body")
	}
	return d.Validate(dst)
}

// Validate runs the struct's validate tags.
func (d *RequestDecoder) Validate(v any) error {
	err := d.validate.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return domain.NewValidationError("", err.Error())
	}
	fe := verrs[0]
	return domain.NewValidationError(fe.Field(), fieldMessage(fe))
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "eqfield":
		return fmt.Sprintf("must match %s", lowerFirst(fe.Param()))
	case "min":
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s", fe.Param())
	}
	return "is invalid"
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToLower(s[:1]) + s[1:]
}
