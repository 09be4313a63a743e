package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/segmentio/kafka-go"

	"todo-planner/internal/model"
	"todo-planner/internal/service"
	"todo-planner/pkg/logger"
)

// MessageWriter is the part of *kafka.Writer the notifier needs.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// NewWriter builds a synchronous producer for the notification topic.
func NewWriter(brokers []string, topic string) *kafka.Writer {
	return &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		BatchTimeout: 10 * time.Millisecond,
		RequiredAcks: kafka.RequireOne,
	}
}

// EnsureTopic creates the topic on the cluster controller; failures are logged
// and ignored since the topic may already exist.
func EnsureTopic(ctx context.Context, brokers []string, topic string) {
	if len(brokers) == 0 {
		return
	}
	conn, err := kafka.DialContext(ctx, "tcp", brokers[0])
	if err != nil {
		logger.Debug(ctx, "Kafka dial for topic creation failed", "error", err)
		return
	}
	defer conn.Close()
	controller, err := conn.Controller()
	if err != nil {
		logger.Debug(ctx, "Kafka controller lookup failed", "error", err)
		return
	}
	ctrl, err := kafka.DialContext(ctx, "tcp", fmt.Sprintf("%s:%d", controller.Host, controller.Port))
	if err != nil {
		logger.Debug(ctx, "Kafka controller dial failed", "error", err)
		return
	}
	defer ctrl.Close()
	if err := ctrl.CreateTopics(kafka.TopicConfig{Topic: topic, NumPartitions: 1, ReplicationFactor: 1}); err != nil {
		logger.Debug(ctx, "Kafka create topic failed", "topic", topic, "error", err)
		return
	}
	logger.Info(ctx, "Kafka topic ensured", "topic", topic)
}

// Event is the JSON payload published per notified owner.
type Event struct {
	Kind           model.NotificationKind `json:"kind"`
	Day            string                 `json:"day"`
	UserID         uint                   `json:"user_id"`
	Email          string                 `json:"email"`
	TelegramChatID *int64                 `json:"telegram_chat_id,omitempty"`
	ToDos          []EventToDo            `json:"to_dos"`
}

type EventToDo struct {
	ID         uint       `json:"id"`
	Title      string     `json:"title"`
	DueDate    *time.Time `json:"due_date"`
	Completed  bool       `json:"completed"`
	CategoryID *uint      `json:"category_id"`
}

// Notifier publishes notifications to Kafka keyed by owner id, so one owner's
// events stay on one partition.
type Notifier struct {
	writer MessageWriter
}

func NewNotifier(w MessageWriter) *Notifier {
	return &Notifier{writer: w}
}

func (n *Notifier) Notify(ctx context.Context, note service.Notification) error {
	payload, err := json.Marshal(newEvent(note))
	if err != nil {
		return fmt.Errorf("encode notification: %w", err)
	}
	msg := kafka.Message{
		Key:   []byte(strconv.FormatUint(uint64(note.User.ID), 10)),
		Value: payload,
		Headers: []kafka.Header{
			{Key: "kind", Value: []byte(note.Kind)},
		},
	}
	if err := n.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("kafka notify user %d: %w", note.User.ID, err)
	}
	return nil
}

func (n *Notifier) Close() error {
	return n.writer.Close()
}

func newEvent(note service.Notification) Event {
	e := Event{
		Kind:           note.Kind,
		Day:            note.Day,
		UserID:         note.User.ID,
		Email:          note.User.Email,
		TelegramChatID: note.User.TelegramChatID,
		ToDos:          make([]EventToDo, 0, len(note.ToDos)),
	}
	for _, t := range note.ToDos {
		e.ToDos = append(e.ToDos, EventToDo{
			ID:         t.ID,
			Title:      t.Title,
			DueDate:    t.DueDate,
			Completed:  t.Completed,
			CategoryID: t.CategoryID,
		})
	}
	return e
}
