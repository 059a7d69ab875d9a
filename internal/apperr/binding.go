package apperr

import (
	"encoding/json"
	"errors"
	"io"
	"reflect"
	"strings"
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

var registerOnce sync.Once

// UseJSONFieldNames makes validator report json tag names, so nested failures
// read as "landDimensions.width" instead of Go field names.
func UseJSONFieldNames() {
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			if name == "" {
				return f.Name
			}
			return name
		})
	})
}

// FromBind converts a gin binding error into a BadRequest naming the field.
func FromBind(err error) *Error {
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		field := fieldPath(fe.Namespace())
		switch fe.Tag() {
		case "required":
			return MissingField(field)
		case "email":
			return BadRequest(field, field+" must be a valid email")
		case "gt":
			return BadRequest(field, field+" must be greater than "+paramOr(fe, "0"))
		case "gte", "min":
			return BadRequest(field, field+" must be at least "+paramOr(fe, "0"))
		case "oneof":
			return BadRequest(field, field+" must be one of: "+fe.Param())
		default:
			return BadRequest(field, field+" is invalid")
		}
	}

	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		field := typeErr.Field
		if field == "" {
			field = "body"
		}
		return BadRequest(field, field+" must be a "+typeErr.Type.String())
	}

	if errors.Is(err, io.EOF) {
		return BadRequest("body", "request body is required")
	}

	return BadRequest("body", "invalid request body")
}

// fieldPath drops the root struct name from a validator namespace.
func fieldPath(ns string) string {
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return ns
}

func paramOr(fe validator.FieldError, def string) string {
	if fe.Param() == "" {
		return def
	}
	return fe.Param()
}
