package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"todo-planner/internal/model"
	"todo-planner/internal/repository"
	"todo-planner/internal/timezone"
	"todo-planner/pkg/logger"
)

// Notification bundles every matching to-do of one owner for one job run.
type Notification struct {
	Kind  model.NotificationKind `json:"kind"`
	Day   string                 `json:"day"`
	User  model.User             `json:"user"`
	ToDos []model.ToDo           `json:"to_dos"`
}

// Notifier delivers a notification over one channel.
type Notifier interface {
	Notify(ctx context.Context, n Notification) error
}

// Ledger records which to-dos a job already reported for a day.
type Ledger interface {
	Claim(ctx context.Context, kind model.NotificationKind, day string, todoID uint) (bool, error)
	// Release undoes a claim whose notification was not delivered.
	Release(ctx context.Context, kind model.NotificationKind, day string, todoID uint) error
}

// RunReport summarises one job run.
type RunReport struct {
	Kind   model.NotificationKind `json:"kind"`
	Day    string                 `json:"day"`
	Owners int                    `json:"owners"`
	ToDos  int                    `json:"to_dos"`
	Failed int                    `json:"failed"`
}

// NotificationService runs the expired and finished batches.
type NotificationService struct {
	todoRepo *repository.ToDoRepository
	userRepo *repository.UserRepository
	notifier Notifier
	ledger   Ledger
	zone     *timezone.Zone
}

// NewNotificationService wires the batches. A nil ledger disables deduplication.
func NewNotificationService(
	todoRepo *repository.ToDoRepository,
	userRepo *repository.UserRepository,
	notifier Notifier,
	ledger Ledger,
	zone *timezone.Zone,
) *NotificationService {
	return &NotificationService{
		todoRepo: todoRepo,
		userRepo: userRepo,
		notifier: notifier,
		ledger:   ledger,
		zone:     zone,
	}
}

// RunExpired notifies owners about unfinished to-dos due today.
func (s *NotificationService) RunExpired(ctx context.Context, now time.Time) (RunReport, error) {
	return s.run(ctx, model.NotificationExpired, now, true)
}

// RunFinished notifies owners about to-dos that were due yesterday.
func (s *NotificationService) RunFinished(ctx context.Context, now time.Time) (RunReport, error) {
	yesterday := s.zone.StartOfDay(now).AddDate(0, 0, -1)
	return s.run(ctx, model.NotificationFinished, yesterday, false)
}

func (s *NotificationService) run(ctx context.Context, kind model.NotificationKind, day time.Time, openOnly bool) (RunReport, error) {
	from, to := s.zone.DayBounds(day)
	report := RunReport{Kind: kind, Day: s.zone.DayKey(day)}
	ctx = logger.With(ctx, "job", string(kind), "day", report.Day)

	todos, err := s.todoRepo.ListDueBetween(ctx, from, to, openOnly)
	if err != nil {
		return report, fmt.Errorf("list %s to-dos: %w", kind, err)
	}
	todos, err = s.claim(ctx, kind, report.Day, todos)
	if err != nil {
		return report, err
	}

	groups, order := groupByOwner(todos)
	users, err := s.userRepo.ListByIDs(ctx, order)
	if err != nil {
		return report, fmt.Errorf("load owners: %w", err)
	}

	for _, ownerID := range order {
		user, ok := users[ownerID]
		if !ok {
			s.release(ctx, kind, report.Day, groups[ownerID])
			continue
		}
		n := Notification{Kind: kind, Day: report.Day, User: user, ToDos: groups[ownerID]}
		report.Owners++
		report.ToDos += len(n.ToDos)
		if err := s.notifier.Notify(ctx, n); err != nil {
			report.Failed++
			logger.Error(ctx, "notification failed", "user_id", ownerID, "error", err)
			s.release(ctx, kind, report.Day, n.ToDos)
		}
	}

	logger.Info(ctx, "notification run finished",
		"owners", report.Owners, "to_dos", report.ToDos, "failed", report.Failed)
	return report, nil
}

// claim keeps only the to-dos not yet reported for (kind, day).
func (s *NotificationService) claim(ctx context.Context, kind model.NotificationKind, day string, todos []model.ToDo) ([]model.ToDo, error) {
	if s.ledger == nil {
		return todos, nil
	}
	out := todos[:0]
	for _, todo := range todos {
		ok, err := s.ledger.Claim(ctx, kind, day, todo.ID)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, todo)
		}
	}
	return out, nil
}

// release lets the next run retry undelivered to-dos. Failures only leave
// the to-dos claimed, so they are logged.
func (s *NotificationService) release(ctx context.Context, kind model.NotificationKind, day string, todos []model.ToDo) {
	if s.ledger == nil {
		return
	}
	for _, todo := range todos {
		if err := s.ledger.Release(ctx, kind, day, todo.ID); err != nil {
			logger.Warn(ctx, "release notification claim", "todo_id", todo.ID, "error", err)
		}
	}
}

func groupByOwner(todos []model.ToDo) (map[uint][]model.ToDo, []uint) {
	groups := make(map[uint][]model.ToDo)
	var order []uint
	for _, todo := range todos {
		if _, ok := groups[todo.UserID]; !ok {
			order = append(order, todo.UserID)
		}
		groups[todo.UserID] = append(groups[todo.UserID], todo)
	}
	return groups, order
}

// MultiNotifier fans a notification out to every channel.
type MultiNotifier []Notifier

func (m MultiNotifier) Notify(ctx context.Context, n Notification) error {
	var errs []error
	for _, notifier := range m {
		if err := notifier.Notify(ctx, n); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// LogNotifier writes notifications to the structured log.
type LogNotifier struct{}

func (LogNotifier) Notify(ctx context.Context, n Notification) error {
	ids := make([]uint, 0, len(n.ToDos))
	for _, todo := range n.ToDos {
		ids = append(ids, todo.ID)
	}
	logger.Info(ctx, "notification", "kind", string(n.Kind), "day", n.Day,
		"user_id", n.User.ID, "email", n.User.Email, "to_do_ids", ids)
	return nil
}
