package options

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

type target struct {
	name  string
	limit int
}

func withName(name string) Option[*target] {
	return NoError(func(t *target) { t.name = name })
}

func withLimit(limit int) Option[*target] {
	return New(func(t *target) error {
		if limit <= 0 {
			return errors.New("limit must be positive")
		}
		t.limit = limit

		return nil
	})
}

func TestApply(t *testing.T) {
	t.Run("In order", func(t *testing.T) {
		tgt := &target{}
		err := Apply(tgt, withName("a"), withLimit(3), withName("b"))
		require.NoError(t, err)
		require.Equal(t, "b", tgt.name)
		require.Equal(t, 3, tgt.limit)
	})

	t.Run("Stops at first error", func(t *testing.T) {
		tgt := &target{}
		err := Apply(tgt, withLimit(0), withName("never"))
		require.Error(t, err)
		require.Empty(t, tgt.name)
	})

	t.Run("Nil option skipped", func(t *testing.T) {
		tgt := &target{}
		require.NoError(t, Apply(tgt, nil, withName("x")))
		require.Equal(t, "x", tgt.name)
	})
}
