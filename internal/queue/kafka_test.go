package queue

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"todo-planner/internal/model"
	"todo-planner/internal/service"
)

type fakeWriter struct {
	msgs   []kafka.Message
	err    error
	closed bool
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *fakeWriter) Close() error {
	w.closed = true
	return nil
}

func TestNotifierPublishesKeyedEvent(t *testing.T) {
	w := &fakeWriter{}
	n := NewNotifier(w)
	due := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	categoryID := uint(3)
	chat := int64(99)

	err := n.Notify(context.Background(), service.Notification{
		Kind: model.NotificationExpired,
		Day:  "2024-03-01",
		User: model.User{ID: 42, Email: "ana@example.com", TelegramChatID: &chat},
		ToDos: []model.ToDo{
			{ID: 1, Title: "Pay rent", DueDate: &due, CategoryID: &categoryID},
			{ID: 2, Title: "Call mom", Completed: true},
		},
	})
	require.NoError(t, err)
	require.Len(t, w.msgs, 1)

	msg := w.msgs[0]
	assert.Equal(t, "42", string(msg.Key))
	assert.Equal(t, "expired", string(msg.Headers[0].Value))

	var e Event
	require.NoError(t, json.Unmarshal(msg.Value, &e))
	assert.Equal(t, model.NotificationExpired, e.Kind)
	assert.Equal(t, "2024-03-01", e.Day)
	require.NotNil(t, e.TelegramChatID)
	assert.EqualValues(t, 99, *e.TelegramChatID)
	assert.Equal(t, "ana@example.com", e.Email)
	require.Len(t, e.ToDos, 2)
	assert.True(t, due.Equal(*e.ToDos[0].DueDate))
	assert.Nil(t, e.ToDos[1].DueDate)
	assert.True(t, e.ToDos[1].Completed)

	require.NoError(t, n.Close())
	assert.True(t, w.closed)
}

func TestNotifierWrapsWriteError(t *testing.T) {
	boom := errors.New("broker down")
	n := NewNotifier(&fakeWriter{err: boom})

	err := n.Notify(context.Background(), service.Notification{
		Kind: model.NotificationFinished,
		User: model.User{ID: 7},
	})
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "user 7")
}

func TestNewWriterUsesTopic(t *testing.T) {
	w := NewWriter([]string{"localhost:9092"}, "todo-notifications")
	assert.Equal(t, "todo-notifications", w.Topic)
	assert.NoError(t, w.Close())
}
