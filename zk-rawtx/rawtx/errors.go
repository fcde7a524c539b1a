package rawtx

import "fmt"

type ErrorCode string

const (
	ERR_MALFORMED_INPUT ErrorCode = "MALFORMED_INPUT"
	ERR_OVERFLOW        ErrorCode = "OVERFLOW"
	ERR_INVALID_FIELD   ErrorCode = "INVALID_FIELD"
)

// CodecError is returned by every codec operation. Use errors.Is with
// ErrMalformed, ErrOverflow or ErrInvalidField to test the class.
type CodecError struct {
	Code ErrorCode
	Msg  string
}

var (
	ErrMalformed    = &CodecError{Code: ERR_MALFORMED_INPUT}
	ErrOverflow     = &CodecError{Code: ERR_OVERFLOW}
	ErrInvalidField = &CodecError{Code: ERR_INVALID_FIELD}
)

func (e *CodecError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Msg == "" {
		return string(e.Code)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Msg)
}

func (e *CodecError) Is(target error) bool {
	t, ok := target.(*CodecError)
	return ok && t.Code == e.Code
}

func malformed(format string, args ...interface{}) error {
	return &CodecError{Code: ERR_MALFORMED_INPUT, Msg: fmt.Sprintf(format, args...)}
}

func overflow(msg string) error {
	return &CodecError{Code: ERR_OVERFLOW, Msg: msg}
}

func invalidField(format string, args ...interface{}) error {
	return &CodecError{Code: ERR_INVALID_FIELD, Msg: fmt.Sprintf(format, args...)}
}
