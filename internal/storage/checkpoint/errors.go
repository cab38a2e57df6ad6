package checkpoint

import (
	"errors"
	"fmt"
	"io"

	"github.com/yndnr/mcellckpt-go/internal/core/domain"
	"github.com/yndnr/mcellckpt-go/pkg/varint"
)

func details(tag Tag, field, msg string) string {
	switch {
	case field == "" && tag == 0:
		return msg
	case field == "":
		return fmt.Sprintf("section %s: %s", tag, msg)
	default:
		return fmt.Sprintf("section %s: field %s: %s", tag, field, msg)
	}
}

func corruptf(tag Tag, field, format string, args ...any) error {
	return domain.ErrDataCorrupt.WithDetails(details(tag, field, fmt.Sprintf(format, args...)))
}

func internalf(tag Tag, field, format string, args ...any) error {
	return domain.ErrInternal.WithDetails(details(tag, field, fmt.Sprintf(format, args...)))
}

// readError classifies a failure returned by the underlying reader or the
// varint codec.
func readError(tag Tag, field string, err error) error {
	switch {
	case errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF):
		return domain.ErrDataCorrupt.WithDetails(details(tag, field, "truncated")).WithCause(err)
	case errors.Is(err, varint.ErrOverflow), errors.Is(err, varint.ErrStringTooLong):
		return domain.ErrDataCorrupt.WithDetails(details(tag, field, err.Error())).WithCause(err)
	default:
		return domain.ErrIO.WithDetails(details(tag, field, "read failed")).WithCause(err)
	}
}

func writeError(tag Tag, field string, err error) error {
	return domain.ErrIO.WithDetails(details(tag, field, "write failed")).WithCause(err)
}
