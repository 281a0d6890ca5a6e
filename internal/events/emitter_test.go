package events

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemoryEventEmitter(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	t.Run("emit event with no handlers", func(t *testing.T) {
		emitter := NewInMemoryEventEmitter(logger)
		event, err := NewEvent(TypeKanjiCreated, map[string]string{"key": "value"})
		require.NoError(t, err)

		assert.NoError(t, emitter.EmitEvent(context.Background(), event))
	})

	t.Run("emit event with successful handlers", func(t *testing.T) {
		emitter := NewInMemoryEventEmitter(logger)
		handler1 := &MockEventHandler{}
		handler2 := &MockEventHandler{}
		emitter.RegisterHandler(handler1)
		emitter.RegisterHandler(handler2)

		event, err := NewEvent(TypeKanjiCreated, map[string]string{"key": "value"})
		require.NoError(t, err)

		assert.NoError(t, emitter.EmitEvent(context.Background(), event))
		assert.Equal(t, 1, handler1.HandledCount)
		assert.Equal(t, 1, handler2.HandledCount)
		assert.Equal(t, event, handler1.LastEvent)
		assert.Equal(t, event, handler2.LastEvent)
	})

	t.Run("emit event with failing handler", func(t *testing.T) {
		emitter := NewInMemoryEventEmitter(logger)
		failingHandler := &MockEventHandler{HandlerError: errors.New("handler error")}
		successHandler := &MockEventHandler{}
		emitter.RegisterHandler(failingHandler)
		emitter.RegisterHandler(successHandler)

		event, err := NewEvent(TypeReviewApplied, map[string]string{"key": "value"})
		require.NoError(t, err)

		err = emitter.EmitEvent(context.Background(), event)
		assert.EqualError(t, err, "handler error")
		assert.Equal(t, 1, successHandler.HandledCount)
		assert.Equal(t, 1, failingHandler.HandledCount)
	})

	t.Run("typed subscriptions", func(t *testing.T) {
		emitter := NewInMemoryEventEmitter(logger)
		reviewsOnly := &MockEventHandler{}
		everything := &MockEventHandler{}
		emitter.RegisterHandler(reviewsOnly, TypeReviewApplied)
		emitter.RegisterHandler(everything)

		created, err := NewEvent(TypeKanjiCreated, KanjiCreatedPayload{})
		require.NoError(t, err)
		reviewed, err := NewEvent(TypeReviewApplied, ReviewAppliedPayload{})
		require.NoError(t, err)

		require.NoError(t, emitter.EmitEvent(context.Background(), created))
		require.NoError(t, emitter.EmitEvent(context.Background(), reviewed))

		assert.Equal(t, 1, reviewsOnly.HandledCount)
		assert.Equal(t, reviewed, reviewsOnly.LastEvent)
		assert.Equal(t, 2, everything.HandledCount)
	})

	t.Run("nil logger", func(t *testing.T) {
		assert.NotPanics(t, func() { NewInMemoryEventEmitter(nil) })
	})
}

func TestNopEmitter(t *testing.T) {
	assert.NoError(t, NopEmitter{}.EmitEvent(context.Background(), &Event{}))
}
