package notify

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/Freeeeeet/pt_scheduler/internal/model"
	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type fakeSender struct {
	sent []*bot.SendMessageParams
	err  error
}

func (f *fakeSender) SendMessage(_ context.Context, params *bot.SendMessageParams) (*models.Message, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.sent = append(f.sent, params)
	return &models.Message{ID: len(f.sent)}, nil
}

type fakeUsers struct {
	users  map[int64]*model.User
	unread map[int64]bool
}

func (f *fakeUsers) GetByID(_ context.Context, id int64) (*model.User, error) {
	return f.users[id], nil
}

func (f *fakeUsers) SetUnread(_ context.Context, userID int64, unread bool) error {
	f.unread[userID] = unread
	return nil
}

func newFakeUsers() *fakeUsers {
	return &fakeUsers{
		users: map[int64]*model.User{
			10: {ID: 10, TelegramID: 555001, FirstName: "Анна", Role: model.RoleTrainee},
		},
		unread: make(map[int64]bool),
	}
}

func TestTelegramDispatcherSends(t *testing.T) {
	sender := &fakeSender{}
	users := newFakeUsers()
	d := NewTelegramDispatcher(sender, users, 1000, time.UTC, zaptest.NewLogger(t))

	eventDate := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	err := d.Dispatch(context.Background(), 10, "Заявка подтверждена", "Занятие <10:00> подтверждено", eventDate)
	require.NoError(t, err)

	require.Len(t, sender.sent, 1)
	msg := sender.sent[0]
	assert.Equal(t, int64(555001), msg.ChatID)
	assert.Equal(t, models.ParseModeHTML, msg.ParseMode)
	assert.Contains(t, msg.Text, "<b>Заявка подтверждена</b>")
	assert.Contains(t, msg.Text, "&lt;10:00&gt;")
	assert.Contains(t, msg.Text, "01.01.2024 Пн")
	assert.True(t, users.unread[10])
}

func TestTelegramDispatcherErrors(t *testing.T) {
	users := newFakeUsers()
	ctx := context.Background()

	d := NewTelegramDispatcher(&fakeSender{}, users, 1000, time.UTC, zaptest.NewLogger(t))
	err := d.Dispatch(ctx, 404, "t", "b", time.Time{})
	assert.ErrorIs(t, err, model.ErrUserNotFound)

	failing := NewTelegramDispatcher(&fakeSender{err: errors.New("chat not found")}, users, 1000, time.UTC, zaptest.NewLogger(t))
	err = failing.Dispatch(ctx, 10, "t", "b", time.Time{})
	assert.ErrorContains(t, err, "chat not found")
}

func TestTelegramDispatcherRespectsContext(t *testing.T) {
	d := NewTelegramDispatcher(&fakeSender{}, newFakeUsers(), 0.001, time.UTC, zaptest.NewLogger(t))

	// первый токен есть сразу, второго ждать дольше дедлайна
	require.NoError(t, d.Dispatch(context.Background(), 10, "t", "b", time.Time{}))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	err := d.Dispatch(ctx, 10, "t", "b", time.Time{})
	assert.Error(t, err)
}

type fakeEnqueuer struct {
	tasks []*asynq.Task
}

func (f *fakeEnqueuer) EnqueueContext(_ context.Context, task *asynq.Task, _ ...asynq.Option) (*asynq.TaskInfo, error) {
	f.tasks = append(f.tasks, task)
	return &asynq.TaskInfo{ID: "task-1", Queue: "default", Type: task.Type()}, nil
}

type recordingDispatcher struct {
	recipientID int64
	title, body string
	eventDate   time.Time
	err         error
}

func (r *recordingDispatcher) Dispatch(_ context.Context, recipientID int64, title, body string, eventDate time.Time) error {
	r.recipientID, r.title, r.body, r.eventDate = recipientID, title, body, eventDate
	return r.err
}

func TestQueueDispatcherRoundTrip(t *testing.T) {
	enqueuer := &fakeEnqueuer{}
	d := NewQueueDispatcher(enqueuer, zaptest.NewLogger(t))
	eventDate := time.Date(2024, 1, 2, 9, 0, 0, 0, time.UTC)

	require.NoError(t, d.Dispatch(context.Background(), 10, "Новая заявка", "Клиент записался", eventDate))
	require.Len(t, enqueuer.tasks, 1)
	assert.Equal(t, TypeDispatchNotification, enqueuer.tasks[0].Type())

	target := &recordingDispatcher{}
	handler := NewTaskHandler(target, zaptest.NewLogger(t))
	require.NoError(t, handler.ProcessTask(context.Background(), enqueuer.tasks[0]))

	assert.Equal(t, int64(10), target.recipientID)
	assert.Equal(t, "Новая заявка", target.title)
	assert.True(t, eventDate.Equal(target.eventDate))
}

func TestTaskHandlerErrors(t *testing.T) {
	target := &recordingDispatcher{err: errors.New("telegram is down")}
	handler := NewTaskHandler(target, zaptest.NewLogger(t))

	err := handler.ProcessTask(context.Background(), asynq.NewTask(TypeDispatchNotification, []byte("{broken")))
	assert.ErrorIs(t, err, asynq.SkipRetry)

	payload, err := json.Marshal(notificationPayload{RecipientID: 10, Title: "t", Body: "b"})
	require.NoError(t, err)
	err = handler.ProcessTask(context.Background(), asynq.NewTask(TypeDispatchNotification, payload))
	assert.ErrorContains(t, err, "telegram is down")
	assert.NotErrorIs(t, err, asynq.SkipRetry)
}
