package errboundary

import (
	"errors"
	"net/http"
	"strings"
	"time"
)

const (
	// MissingBodyPrefix is how decoders describe an absent request body.
	MissingBodyPrefix = "Required request body is missing"
	// MissingBodyMessage is what the client sees for an absent body.
	MissingBodyMessage = "Request body is missing"
)

// Response is the classified outcome of a Failure.
type Response struct {
	Status     int
	Code       Code
	Message    string
	RetryAfter time.Duration
}

// From maps arbitrary errors onto a Failure. A Failure anywhere in the chain
// is returned as-is, a CustomError becomes KindCustom, an oversized body
// becomes KindUploadTooLarge and everything else is KindUnclassified.
func From(err error) *Failure {
	if err == nil {
		return nil
	}

	var f *Failure
	if errors.As(err, &f) && f != nil {
		return f
	}

	var ce *CustomError
	if errors.As(err, &ce) && ce != nil {
		out := CustomStatus(ce.Code, ce.Status)
		out.Cause = err
		return out
	}

	var mbe *http.MaxBytesError
	if errors.As(err, &mbe) {
		return UploadTooLarge(mbe.Limit)
	}

	return Unclassified(err)
}

// Classify maps f onto a status, code and message. It is total: every kind,
// including unknown ones, yields a registered code.
func Classify(f *Failure) Response {
	if f == nil {
		return respond(CodeInternal)
	}

	switch f.Kind {
	case KindRouteNotFound, KindMethodNotSupported:
		return respond(CodeNotFound)
	case KindBodyUnreadable, KindMissingParameter, KindUploadTooLarge,
		KindBadRequest, KindValidationFailed:
		return classifyBadRequest(f)
	case KindRateLimited:
		r := respond(CodeTooManyRequests)
		if f.RetryAfter > 0 {
			r.RetryAfter = f.RetryAfter
		}
		return r
	case KindFirewallRejected:
		return respond(CodeBadRequest)
	case KindAccessDenied:
		return respond(CodeForbidden)
	case KindUnauthenticated:
		return respond(CodeUnauthorized)
	case KindCustom:
		return classifyCustom(f)
	default:
		return respond(CodeInternal)
	}
}

// classifyBadRequest applies the message rules in order; the first match
// wins.
func classifyBadRequest(f *Failure) Response {
	r := respond(CodeBadRequest)
	switch {
	case f.Cause != nil:
		r.Message = causeMessage(f.Cause)
	case strings.HasPrefix(f.Message, MissingBodyPrefix):
		r.Message = MissingBodyMessage
	case f.Kind == KindValidationFailed:
		if len(f.Violations) > 0 {
			r.Message = stripPlaceholder(f.Violations[0].Message)
		}
	case f.Message != "":
		r.Message = f.Message
	}
	return r
}

func classifyCustom(f *Failure) Response {
	if f.Code == "" {
		return respond(CodeInternal)
	}
	status := f.Status
	if status == 0 {
		status = Status(f.Code)
	}
	return Response{
		Status:  status,
		Code:    f.Code,
		Message: DefaultMessage(f.Code),
	}
}

func respond(code Code) Response {
	return Response{
		Status:  Status(code),
		Code:    code,
		Message: DefaultMessage(code),
	}
}

// stripPlaceholder removes one pair of braces left by an unresolved message
// key, so "{user.name.size}" becomes "user.name.size".
func stripPlaceholder(msg string) string {
	if len(msg) >= 2 && msg[0] == '{' && msg[len(msg)-1] == '}' {
		return msg[1 : len(msg)-1]
	}
	return msg
}

// causeMessage returns err.Error(). A cause whose Error method panics (a
// typed nil, usually) yields the empty message.
func causeMessage(err error) (msg string) {
	defer func() {
		if recover() != nil {
			msg = ""
		}
	}()
	return err.Error()
}
