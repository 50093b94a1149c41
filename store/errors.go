package store

import (
	"errors"

	"github.com/lib/pq"
)

var (
	ErrNotFound       = errors.New("not found")
	ErrUserExists     = errors.New("user already exists")
	ErrUnknownVisitor = errors.New("unknown visitor")
	ErrPageViewClosed = errors.New("page view already closed")
	ErrInvalidInput   = errors.New("invalid input")
)

const (
	pqUniqueViolation     = "23505"
	pqForeignKeyViolation = "23503"
)

func pqCode(err error) string {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code)
	}
	return ""
}
