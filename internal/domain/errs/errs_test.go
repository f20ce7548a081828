package errs

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestErrorClassification(t *testing.T) {
	err := Conflict("Participant limit exceeded")

	require.ErrorIs(t, err, ErrConflict)
	require.NotErrorIs(t, err, ErrNotFound)
	require.Equal(t, "Participant limit exceeded", err.Error())
}

func TestKindThroughWrapping(t *testing.T) {
	wrapped := fmt.Errorf("submit request: %w", NotFound("Event with id=%d was not found", 7))

	require.Equal(t, ErrNotFound, Kind(wrapped))
	require.Contains(t, wrapped.Error(), "Event with id=7 was not found")
	require.Nil(t, Kind(errors.New("boom")))
}

func TestEmptyMessageFallsBackToKind(t *testing.T) {
	err := &Error{Kind: ErrForbidden}
	require.Equal(t, "forbidden", err.Error())
}
