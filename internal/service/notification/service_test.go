package notification

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/golang/mock/gomock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wb-go/wbf/retry"

	mocks "github.com/flowsend/notify-service/internal/mocks/service/notification"
	"github.com/flowsend/notify-service/internal/model"
	"github.com/flowsend/notify-service/internal/repository/notification"
)

func strPtr(s string) *string { return &s }

func TestService_CreateNotification(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repoMock := mocks.NewMocknotificationRepository(ctrl)
	cacheMock := mocks.NewMockcache(ctrl)
	dispatcherMock := mocks.NewMockDispatcher(ctrl)

	svc := NewService(repoMock, map[model.Channel]Notifier{}, cacheMock)
	svc.SetDispatcher(dispatcherMock)

	n := model.Notification{
		UserID:   "u1",
		Channel:  model.ChannelEmail,
		Template: "welcome",
		Payload:  `{"name":"Ana"}`,
	}
	pending := n
	pending.Status = model.StatusPending

	created := pending
	created.ID = uuid.New()
	created.CreatedAt = time.Now()

	strategy := retry.Strategy{}

	repoMock.EXPECT().CreateNotification(gomock.Any(), pending).Return(created, nil)
	cacheMock.EXPECT().SetWithRetry(gomock.Any(), strategy, created.ID.String(), gomock.Any()).Return(nil)
	dispatcherMock.EXPECT().Dispatch(gomock.Any(), strategy, created).Return(created, nil)

	got, err := svc.CreateNotification(context.Background(), strategy, n)
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)
	assert.Equal(t, model.StatusPending, got.Status)
}

func TestService_CreateNotification_ExistingIdempotencyKey(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repoMock := mocks.NewMocknotificationRepository(ctrl)
	svc := NewService(repoMock, nil, nil)

	existing := model.Notification{
		ID:             uuid.New(),
		UserID:         "u1",
		Channel:        model.ChannelEmail,
		Status:         model.StatusSent,
		IdempotencyKey: strPtr("key-1"),
	}

	repoMock.EXPECT().GetNotificationByIdempotencyKey(gomock.Any(), "key-1").Return(existing, nil)

	// No create and no dispatch for a key that is already taken.
	got, err := svc.CreateNotification(context.Background(), retry.Strategy{}, model.Notification{
		UserID:         "u1",
		Channel:        model.ChannelEmail,
		Template:       "welcome",
		Payload:        "{}",
		IdempotencyKey: strPtr("key-1"),
	})
	require.NoError(t, err)
	assert.Equal(t, existing.ID, got.ID)
	assert.Equal(t, model.StatusSent, got.Status)
}

func TestService_CreateNotification_LosesInsertRace(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repoMock := mocks.NewMocknotificationRepository(ctrl)
	svc := NewService(repoMock, nil, nil)

	winner := model.Notification{
		ID:             uuid.New(),
		UserID:         "u1",
		Channel:        model.ChannelEmail,
		Status:         model.StatusPending,
		IdempotencyKey: strPtr("key-1"),
	}

	// The pre-check misses, the insert hits the unique constraint, and the
	// loser recovers by re-reading the winner's record.
	repoMock.EXPECT().GetNotificationByIdempotencyKey(gomock.Any(), "key-1").
		Return(model.Notification{}, notification.ErrNotificationNotFound)
	repoMock.EXPECT().CreateNotification(gomock.Any(), gomock.Any()).
		Return(model.Notification{}, notification.ErrIdempotencyKeyConflict)
	repoMock.EXPECT().GetNotificationByIdempotencyKey(gomock.Any(), "key-1").
		Return(winner, nil)

	got, err := svc.CreateNotification(context.Background(), retry.Strategy{}, model.Notification{
		UserID:         "u1",
		Channel:        model.ChannelEmail,
		Template:       "welcome",
		Payload:        "{}",
		IdempotencyKey: strPtr("key-1"),
	})
	require.NoError(t, err)
	assert.Equal(t, winner.ID, got.ID)
}

func TestService_CreateNotification_ConflictWithoutWinner(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repoMock := mocks.NewMocknotificationRepository(ctrl)
	svc := NewService(repoMock, nil, nil)

	repoMock.EXPECT().GetNotificationByIdempotencyKey(gomock.Any(), "key-1").
		Return(model.Notification{}, notification.ErrNotificationNotFound)
	repoMock.EXPECT().CreateNotification(gomock.Any(), gomock.Any()).
		Return(model.Notification{}, notification.ErrIdempotencyKeyConflict)
	repoMock.EXPECT().GetNotificationByIdempotencyKey(gomock.Any(), "key-1").
		Return(model.Notification{}, notification.ErrNotificationNotFound)

	// The conflict fired but no record carries the key: surface the
	// original conflict instead of inventing a result.
	_, err := svc.CreateNotification(context.Background(), retry.Strategy{}, model.Notification{
		UserID:         "u1",
		Channel:        model.ChannelEmail,
		Template:       "welcome",
		Payload:        "{}",
		IdempotencyKey: strPtr("key-1"),
	})
	assert.ErrorIs(t, err, notification.ErrIdempotencyKeyConflict)
}

func TestService_ProcessNotification_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repoMock := mocks.NewMocknotificationRepository(ctrl)
	cacheMock := mocks.NewMockcache(ctrl)
	notifierMock := mocks.NewMockNotifier(ctrl)

	svc := NewService(repoMock, map[model.Channel]Notifier{model.ChannelEmail: notifierMock}, cacheMock)

	id := uuid.New()
	stored := model.Notification{
		ID:       id,
		UserID:   "u1",
		Channel:  model.ChannelEmail,
		Template: "welcome",
		Payload:  `{"name":"Ana"}`,
		Status:   model.StatusPending,
	}

	repoMock.EXPECT().GetNotificationByID(gomock.Any(), id).Return(stored, nil)
	notifierMock.EXPECT().Send("u1", "welcome", `{"name":"Ana"}`).Return(nil)
	repoMock.EXPECT().UpdateNotification(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, n model.Notification) error {
			assert.Equal(t, model.StatusSent, n.Status)
			require.NotNil(t, n.SentAt)
			assert.Equal(t, 0, n.RetryCount)
			return nil
		},
	)
	cacheMock.EXPECT().SetWithRetry(gomock.Any(), gomock.Any(), id.String(), gomock.Any()).Return(nil)

	got, err := svc.ProcessNotification(context.Background(), retry.Strategy{}, id)
	require.NoError(t, err)
	assert.Equal(t, model.StatusSent, got.Status)
	assert.NotNil(t, got.SentAt)
}

func TestService_ProcessNotification_SendFails(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repoMock := mocks.NewMocknotificationRepository(ctrl)
	cacheMock := mocks.NewMockcache(ctrl)
	notifierMock := mocks.NewMockNotifier(ctrl)

	svc := NewService(repoMock, map[model.Channel]Notifier{model.ChannelEmail: notifierMock}, cacheMock)

	id := uuid.New()
	stored := model.Notification{
		ID:         id,
		UserID:     "u1",
		Channel:    model.ChannelEmail,
		Template:   "welcome",
		Payload:    "{}",
		Status:     model.StatusPending,
		RetryCount: 1,
	}

	repoMock.EXPECT().GetNotificationByID(gomock.Any(), id).Return(stored, nil)
	notifierMock.EXPECT().Send("u1", "welcome", "{}").Return(errors.New("smtp down"))
	repoMock.EXPECT().UpdateNotification(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, n model.Notification) error {
			assert.Equal(t, model.StatusFailed, n.Status)
			assert.Equal(t, 2, n.RetryCount)
			require.NotNil(t, n.ErrorMessage)
			assert.Contains(t, *n.ErrorMessage, "smtp down")
			assert.Nil(t, n.SentAt)
			return nil
		},
	)
	cacheMock.EXPECT().SetWithRetry(gomock.Any(), gomock.Any(), id.String(), gomock.Any()).Return(nil)

	got, err := svc.ProcessNotification(context.Background(), retry.Strategy{}, id)
	assert.ErrorIs(t, err, ErrDeliveryFailed)
	assert.Equal(t, 2, got.RetryCount)
	assert.Equal(t, model.StatusFailed, got.Status)
}

func TestService_ProcessNotification_UnsupportedChannel(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repoMock := mocks.NewMocknotificationRepository(ctrl)
	cacheMock := mocks.NewMockcache(ctrl)

	// No sender registered for push: the attempt fails like any other
	// delivery failure.
	svc := NewService(repoMock, map[model.Channel]Notifier{}, cacheMock)

	id := uuid.New()
	stored := model.Notification{ID: id, UserID: "u1", Channel: model.ChannelPush, Status: model.StatusPending}

	repoMock.EXPECT().GetNotificationByID(gomock.Any(), id).Return(stored, nil)
	repoMock.EXPECT().UpdateNotification(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, n model.Notification) error {
			assert.Equal(t, model.StatusFailed, n.Status)
			assert.Equal(t, 1, n.RetryCount)
			return nil
		},
	)
	cacheMock.EXPECT().SetWithRetry(gomock.Any(), gomock.Any(), id.String(), gomock.Any()).Return(nil)

	_, err := svc.ProcessNotification(context.Background(), retry.Strategy{}, id)
	assert.ErrorIs(t, err, ErrDeliveryFailed)
}

func TestService_ProcessNotification_NotFound(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repoMock := mocks.NewMocknotificationRepository(ctrl)
	svc := NewService(repoMock, nil, nil)

	id := uuid.New()
	repoMock.EXPECT().GetNotificationByID(gomock.Any(), id).
		Return(model.Notification{}, notification.ErrNotificationNotFound)

	_, err := svc.ProcessNotification(context.Background(), retry.Strategy{}, id)
	assert.ErrorIs(t, err, notification.ErrNotificationNotFound)
}

func TestService_GetNotification_CacheHit(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	cacheMock := mocks.NewMockcache(ctrl)
	svc := NewService(nil, nil, cacheMock)

	id := uuid.New()
	strategy := retry.Strategy{}

	cacheMock.EXPECT().GetWithRetry(gomock.Any(), strategy, id.String()).
		Return(`{"id":"`+id.String()+`","status":"sent"}`, nil)

	got, err := svc.GetNotification(context.Background(), strategy, id)
	require.NoError(t, err)
	assert.Equal(t, id, got.ID)
	assert.Equal(t, model.StatusSent, got.Status)
}

func TestService_GetNotification_CacheMiss(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repoMock := mocks.NewMocknotificationRepository(ctrl)
	cacheMock := mocks.NewMockcache(ctrl)
	svc := NewService(repoMock, nil, cacheMock)

	id := uuid.New()
	strategy := retry.Strategy{}
	stored := model.Notification{ID: id, UserID: "u1", Status: model.StatusPending}

	cacheMock.EXPECT().GetWithRetry(gomock.Any(), strategy, id.String()).Return("", redis.Nil)
	repoMock.EXPECT().GetNotificationByID(gomock.Any(), id).Return(stored, nil)
	cacheMock.EXPECT().SetWithRetry(gomock.Any(), strategy, id.String(), gomock.Any()).Return(nil)

	got, err := svc.GetNotification(context.Background(), strategy, id)
	require.NoError(t, err)
	assert.Equal(t, stored, got)
}

func TestService_SetStatus(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repoMock := mocks.NewMocknotificationRepository(ctrl)
	cacheMock := mocks.NewMockcache(ctrl)
	svc := NewService(repoMock, nil, cacheMock)

	id := uuid.New()
	stored := model.Notification{ID: id, Status: model.StatusFailed, RetryCount: 1}

	repoMock.EXPECT().GetNotificationByID(gomock.Any(), id).Return(stored, nil)
	repoMock.EXPECT().UpdateNotification(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, n model.Notification) error {
			assert.Equal(t, model.StatusRetrying, n.Status)
			assert.Equal(t, 1, n.RetryCount)
			return nil
		},
	)
	cacheMock.EXPECT().SetWithRetry(gomock.Any(), gomock.Any(), id.String(), gomock.Any()).Return(nil)

	err := svc.SetStatus(context.Background(), retry.Strategy{}, id, model.StatusRetrying)
	assert.NoError(t, err)
}

// memoryRepo is a minimal concurrency-safe store enforcing idempotency key
// uniqueness, for exercising the creation path under real contention.
type memoryRepo struct {
	mu    sync.Mutex
	byKey map[string]model.Notification
}

func (r *memoryRepo) CreateNotification(_ context.Context, n model.Notification) (model.Notification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if n.IdempotencyKey != nil {
		if _, ok := r.byKey[*n.IdempotencyKey]; ok {
			return model.Notification{}, notification.ErrIdempotencyKeyConflict
		}
	}

	n.ID = uuid.New()
	n.CreatedAt = time.Now()

	if n.IdempotencyKey != nil {
		r.byKey[*n.IdempotencyKey] = n
	}

	return n, nil
}

func (r *memoryRepo) GetNotificationByIdempotencyKey(_ context.Context, key string) (model.Notification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	n, ok := r.byKey[key]
	if !ok {
		return model.Notification{}, notification.ErrNotificationNotFound
	}

	return n, nil
}

func (r *memoryRepo) GetNotificationByID(context.Context, uuid.UUID) (model.Notification, error) {
	return model.Notification{}, notification.ErrNotificationNotFound
}

func (r *memoryRepo) UpdateNotification(context.Context, model.Notification) error {
	return nil
}

func (r *memoryRepo) GetUserNotifications(context.Context, string) ([]model.Notification, error) {
	return nil, notification.ErrNoNotificationsFound
}

func TestService_CreateNotification_ConcurrentSameKey(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repo := &memoryRepo{byKey: map[string]model.Notification{}}
	cacheMock := mocks.NewMockcache(ctrl)
	dispatcherMock := mocks.NewMockDispatcher(ctrl)

	svc := NewService(repo, map[model.Channel]Notifier{}, cacheMock)
	svc.SetDispatcher(dispatcherMock)

	// Exactly one caller commits the record, so exactly one cache write and
	// one dispatch happen no matter how many callers race.
	cacheMock.EXPECT().SetWithRetry(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)
	dispatcherMock.EXPECT().Dispatch(gomock.Any(), gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, _ retry.Strategy, n model.Notification) (model.Notification, error) {
			return n, nil
		},
	)

	const callers = 16

	results := make([]model.Notification, callers)
	errs := make([]error, callers)

	var wg sync.WaitGroup
	wg.Add(callers)
	for i := 0; i < callers; i++ {
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = svc.CreateNotification(context.Background(), retry.Strategy{}, model.Notification{
				UserID:         "u1",
				Channel:        model.ChannelEmail,
				Template:       "welcome",
				Payload:        "{}",
				IdempotencyKey: strPtr("key-1"),
			})
		}(i)
	}
	wg.Wait()

	for i := 0; i < callers; i++ {
		require.NoError(t, errs[i])
		assert.Equal(t, results[0].ID, results[i].ID)
	}

	assert.Len(t, repo.byKey, 1)
}

func TestService_GetUserNotifications(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repoMock := mocks.NewMocknotificationRepository(ctrl)
	svc := NewService(repoMock, nil, nil)

	notifications := []model.Notification{
		{ID: uuid.New(), UserID: "u1"},
		{ID: uuid.New(), UserID: "u1"},
	}

	repoMock.EXPECT().GetUserNotifications(gomock.Any(), "u1").Return(notifications, nil)

	result, err := svc.GetUserNotifications(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, notifications, result)
}
