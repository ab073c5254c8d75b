package fixture_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/syssam/fixture"
)

func TestUnregisteredError(t *testing.T) {
	t.Run("Error", func(t *testing.T) {
		err := &fixture.UnregisteredError{Factory: "user", Lookup: "post"}
		assert.Equal(t, `fixture: cannot resolve factories.post: factory "user" has not been registered; call Register before using sibling factories`, err.Error())
	})

	t.Run("Is", func(t *testing.T) {
		err := &fixture.UnregisteredError{Factory: "user", Lookup: "post"}
		assert.True(t, errors.Is(err, fixture.ErrUnregistered))
	})

	t.Run("IsUnregistered", func(t *testing.T) {
		err := &fixture.UnregisteredError{Factory: "user", Lookup: "post"}
		assert.True(t, fixture.IsUnregistered(err))

		// Wrapped error
		wrapped := fmt.Errorf("wrapper: %w", err)
		assert.True(t, fixture.IsUnregistered(wrapped))

		// Sentinel error
		assert.True(t, fixture.IsUnregistered(fixture.ErrUnregistered))

		// Non-matching error
		assert.False(t, fixture.IsUnregistered(errors.New("other error")))
		assert.False(t, fixture.IsUnregistered(nil))
	})
}

func TestLookupError(t *testing.T) {
	t.Run("NotFound", func(t *testing.T) {
		err := &fixture.LookupError{Name: "comment", Err: fixture.ErrFactoryNotFound}
		assert.Equal(t, "fixture: factories.comment is not registered", err.Error())
		assert.True(t, errors.Is(err, fixture.ErrFactoryNotFound))
		assert.False(t, errors.Is(err, fixture.ErrFactoryType))
	})

	t.Run("Type", func(t *testing.T) {
		err := &fixture.LookupError{Name: "post", Want: "*fixture.Factory[int]", Got: "*fixture.Factory[string]", Err: fixture.ErrFactoryType}
		assert.Equal(t, "fixture: factories.post builds *fixture.Factory[string], not *fixture.Factory[int]", err.Error())
		assert.True(t, errors.Is(err, fixture.ErrFactoryType))
	})
}

func TestHookError(t *testing.T) {
	t.Run("Error", func(t *testing.T) {
		err := fixture.NewHookError("afterBuild")
		assert.Equal(t, `fixture: "afterBuild" must be a function`, err.Error())
	})

	t.Run("Is", func(t *testing.T) {
		err := fixture.NewHookError("onCreate")
		assert.True(t, errors.Is(err, fixture.ErrInvalidHook))
	})

	t.Run("IsHookError", func(t *testing.T) {
		err := fixture.NewHookError("afterCreate")
		assert.True(t, fixture.IsHookError(err))
		assert.True(t, fixture.IsHookError(fmt.Errorf("wrapper: %w", err)))
		assert.False(t, fixture.IsHookError(errors.New("other error")))
		assert.False(t, fixture.IsHookError(nil))
	})
}

func TestMissingHookError(t *testing.T) {
	t.Run("OnCreate", func(t *testing.T) {
		err := &fixture.MissingHookError{Factory: "user", Hook: "onCreate"}
		assert.Contains(t, err.Error(), "onCreate is not defined")
		assert.True(t, errors.Is(err, fixture.ErrNoOnCreate))
		assert.False(t, errors.Is(err, fixture.ErrNoOnBulkCreate))
	})

	t.Run("OnBulkCreate", func(t *testing.T) {
		err := &fixture.MissingHookError{Factory: "user", Hook: "onBulkCreate"}
		assert.Contains(t, err.Error(), "onBulkCreate is not defined")
		assert.True(t, errors.Is(err, fixture.ErrNoOnBulkCreate))
		assert.False(t, errors.Is(err, fixture.ErrNoOnCreate))
	})
}

func TestMergeError(t *testing.T) {
	underlying := errors.New("boom")
	err := &fixture.MergeError{Factory: "user", Stage: "params", Err: underlying}

	assert.Equal(t, "fixture: merging params into user: boom", err.Error())
	assert.ErrorIs(t, err, underlying)
	assert.True(t, fixture.IsMergeError(fmt.Errorf("wrapper: %w", err)))
	assert.False(t, fixture.IsMergeError(underlying))
	assert.False(t, fixture.IsMergeError(nil))
}

func TestBulkCountError(t *testing.T) {
	err := &fixture.BulkCountError{Want: 3, Got: 2}
	assert.Equal(t, "fixture: onBulkCreate returned 2 objects, expected 3", err.Error())
	assert.True(t, errors.Is(err, fixture.ErrBulkCount))
}

func TestSentinelErrors(t *testing.T) {
	t.Run("ErrUnregistered", func(t *testing.T) {
		assert.Error(t, fixture.ErrUnregistered)
		assert.Contains(t, fixture.ErrUnregistered.Error(), "registered")
	})

	t.Run("ErrNoOnCreate", func(t *testing.T) {
		assert.Error(t, fixture.ErrNoOnCreate)
		assert.Contains(t, fixture.ErrNoOnCreate.Error(), "onCreate")
	})

	t.Run("ErrInvalidHook", func(t *testing.T) {
		assert.Error(t, fixture.ErrInvalidHook)
		assert.Contains(t, fixture.ErrInvalidHook.Error(), "function")
	})
}

// BenchmarkErrors benchmarks error creation and checking.
func BenchmarkErrors(b *testing.B) {
	b.Run("NewHookError", func(b *testing.B) {
		for i := 0; i < b.N; i++ {
			_ = fixture.NewHookError("afterBuild")
		}
	})

	b.Run("IsUnregistered", func(b *testing.B) {
		err := &fixture.UnregisteredError{Factory: "user", Lookup: "post"}
		for i := 0; i < b.N; i++ {
			_ = fixture.IsUnregistered(err)
		}
	})
}
