package store

import (
	"errors"
	"fmt"
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
)

func TestPQCode(t *testing.T) {
	unique := fmt.Errorf("insert: %w", &pq.Error{Code: pqUniqueViolation})
	assert.Equal(t, pqUniqueViolation, pqCode(unique))
	assert.Equal(t, pqForeignKeyViolation, pqCode(&pq.Error{Code: pqForeignKeyViolation}))
	assert.Empty(t, pqCode(errors.New("connection refused")))
	assert.Empty(t, pqCode(nil))
}
