package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPersistenceKeepsCause(t *testing.T) {
	cause := errors.New("connection reset")
	err := Persistence("insert checkin", cause)

	assert.ErrorIs(t, err, ErrPersistence)
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "insert checkin")
	assert.NoError(t, Persistence("noop", nil))
}

func TestStatus(t *testing.T) {
	cases := []struct {
		err  error
		code int
	}{
		{fmt.Errorf("checkin: %w", ErrAlreadyCheckedIn), http.StatusBadRequest},
		{ErrAlreadyCompleted, http.StatusBadRequest},
		{Invalid("bad wallet"), http.StatusBadRequest},
		{ErrUnauthenticated, http.StatusUnauthorized},
		{ErrUnknownQuest, http.StatusNotFound},
		{ErrNotFound, http.StatusNotFound},
		{Persistence("update stats", errors.New("boom")), http.StatusInternalServerError},
		{errors.New("anything else"), http.StatusInternalServerError},
	}
	for _, c := range cases {
		code, msg := Status(c.err)
		assert.Equal(t, c.code, code, c.err.Error())
		assert.NotEmpty(t, msg)
	}

	_, msg := Status(Invalid("bad wallet"))
	assert.Equal(t, "invalid input: bad wallet", msg)
}
