// Package binding decodes and validates JSON request bodies, reporting every
// problem as an errboundary.Failure.
package binding

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"

	errboundary "github.com/blackwell-systems/err-boundary"
)

// DefaultMaxBytes caps a decoded body.
const DefaultMaxBytes int64 = 1 << 20

// MessageProvider supplies client messages for a DTO's constraints, keyed
// "<json field>.<tag>", e.g. "email.required".
type MessageProvider interface {
	ValidationMessages() map[string]string
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		if name == "" {
			return fld.Name
		}
		return name
	})
	_ = v.RegisterValidation("notblank", validators.NotBlank)
	_ = v.RegisterValidation("word", isWord)
	return v
}

// isWord accepts non-empty ASCII letters, digits and underscores.
func isWord(fl validator.FieldLevel) bool {
	s := fl.Field().String()
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9', c == '_':
		default:
			return false
		}
	}
	return true
}

// Decode reads a JSON body of at most DefaultMaxBytes into v and validates
// it.
func Decode(r *http.Request, v any) error {
	return DecodeLimit(r, v, DefaultMaxBytes)
}

// DecodeLimit is Decode with an explicit body limit. A limit <= 0 disables
// the cap.
func DecodeLimit(r *http.Request, v any, limit int64) error {
	if r.Body == nil || r.Body == http.NoBody {
		return missingBody()
	}
	var body io.Reader = r.Body
	if limit > 0 {
		body = http.MaxBytesReader(nil, r.Body, limit)
	}
	if err := json.NewDecoder(body).Decode(v); err != nil {
		return FailureOf(err, v)
	}
	return Validate(v)
}

// Validate runs the struct constraints on v. Non-struct targets pass.
func Validate(v any) error {
	if rv := reflect.Indirect(reflect.ValueOf(v)); rv.Kind() != reflect.Struct {
		return nil
	}
	if err := validate.Struct(v); err != nil {
		return FailureOf(err, v)
	}
	return nil
}

// FailureOf converts an error from any binder into a Failure. v is the
// binding target; its messages resolve validation violations.
func FailureOf(err error, v any) *errboundary.Failure {
	if err == nil {
		return nil
	}

	var f *errboundary.Failure
	if errors.As(err, &f) && f != nil {
		return f
	}

	var ve validator.ValidationErrors
	if errors.As(err, &ve) {
		return errboundary.ValidationFailed(violations(ve, v)...)
	}

	var ive *validator.InvalidValidationError
	if errors.As(err, &ive) {
		return errboundary.Unclassified(err)
	}

	var mbe *http.MaxBytesError
	switch {
	case errors.Is(err, io.EOF):
		return missingBody()
	case errors.As(err, &mbe):
		return errboundary.UploadTooLarge(mbe.Limit)
	default:
		return errboundary.BodyUnreadable(err)
	}
}

func missingBody() *errboundary.Failure {
	return errboundary.BadRequest(errboundary.MissingBodyPrefix)
}

func violations(ve validator.ValidationErrors, v any) []errboundary.FieldViolation {
	var msgs map[string]string
	if mp, ok := v.(MessageProvider); ok {
		msgs = mp.ValidationMessages()
	}

	out := make([]errboundary.FieldViolation, 0, len(ve))
	for _, fe := range ve {
		key := fe.Field() + "." + fe.Tag()
		msg, ok := msgs[key]
		if !ok {
			// unresolved, same shape a message bundle leaves behind
			msg = "{" + key + "}"
		}
		out = append(out, errboundary.FieldViolation{Field: fe.Field(), Message: msg})
	}
	return out
}
