package graphics

import "fmt"

// Code is one of the wire-protocol error codes from spec.md §6/§7.
type Code string

const (
	CodeEINVAL Code = "EINVAL"
	CodeENOENT Code = "ENOENT"
	CodeEBADF  Code = "EBADF"
	CodeEIO    Code = "EIO"
	CodeEFBIG  Code = "EFBIG"
)

// wireError pairs a wire error code with a human-readable detail and,
// where relevant, the underlying Go error. It implements error so it can
// travel through normal %w wrapping while still carrying the code needed
// to format a response.
type wireError struct {
	code   Code
	detail string
	cause  error
}

func newError(code Code, detail string) *wireError {
	return &wireError{code: code, detail: detail}
}

func wrapError(code Code, detail string, cause error) *wireError {
	return &wireError{code: code, detail: detail, cause: cause}
}

func (e *wireError) Error() string {
	if e.detail == "" {
		return string(e.code)
	}
	return fmt.Sprintf("%s: %s", e.code, e.detail)
}

func (e *wireError) Unwrap() error { return e.cause }

// Message renders the "E<NAME>: <detail>" wire message body.
func (e *wireError) Message() string {
	if e.detail == "" {
		return string(e.code)
	}
	return fmt.Sprintf("%s: %s", e.code, e.detail)
}

// asWireError extracts a *wireError from err, synthesizing an EIO wrapper
// for errors that did not originate from this package.
func asWireError(err error) *wireError {
	if err == nil {
		return nil
	}
	if we, ok := err.(*wireError); ok {
		return we
	}
	return wrapError(CodeEIO, err.Error(), err)
}
