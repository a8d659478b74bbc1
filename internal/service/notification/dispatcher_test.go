package notification

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wb-go/wbf/retry"

	"github.com/flowsend/notify-service/internal/kafka/queue"
	mocks "github.com/flowsend/notify-service/internal/mocks/service/notification"
	"github.com/flowsend/notify-service/internal/model"
)

func TestAsyncDispatcher_Dispatch(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	publisherMock := mocks.NewMockintentPublisher(ctrl)
	d := NewAsyncDispatcher(publisherMock)

	n := model.Notification{ID: uuid.New(), Status: model.StatusPending}
	strategy := retry.Strategy{}

	publisherMock.EXPECT().PublishDispatch(gomock.Any(), gomock.Any(), strategy).DoAndReturn(
		func(_ context.Context, intent queue.DispatchIntent, _ retry.Strategy) error {
			assert.Equal(t, n.ID, intent.NotificationID)
			assert.Equal(t, 1, intent.AttemptNumber)
			assert.Equal(t, queue.EventNotificationCreated, intent.EventType)
			assert.NotEmpty(t, intent.CorrelationID)
			return nil
		},
	)

	got, err := d.Dispatch(context.Background(), strategy, n)
	require.NoError(t, err)
	// The caller sees the record still pending; delivery happens later.
	assert.Equal(t, model.StatusPending, got.Status)
}

func TestAsyncDispatcher_Dispatch_PublishFails(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	publisherMock := mocks.NewMockintentPublisher(ctrl)
	d := NewAsyncDispatcher(publisherMock)

	n := model.Notification{ID: uuid.New(), Status: model.StatusPending}

	publisherMock.EXPECT().PublishDispatch(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(errors.New("broker unavailable"))

	_, err := d.Dispatch(context.Background(), retry.Strategy{}, n)
	assert.Error(t, err)
}

func TestInlineDispatcher_Dispatch_SucceedsFirstAttempt(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	processorMock := mocks.NewMockprocessor(ctrl)
	d := NewInlineDispatcher(processorMock, 3)

	n := model.Notification{ID: uuid.New(), Status: model.StatusPending}
	sent := n
	sent.Status = model.StatusSent

	processorMock.EXPECT().ProcessNotification(gomock.Any(), gomock.Any(), n.ID).Return(sent, nil)

	got, err := d.Dispatch(context.Background(), retry.Strategy{}, n)
	require.NoError(t, err)
	assert.Equal(t, model.StatusSent, got.Status)
}

func TestInlineDispatcher_Dispatch_RetriesUntilSuccess(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	processorMock := mocks.NewMockprocessor(ctrl)
	d := NewInlineDispatcher(processorMock, 3)

	n := model.Notification{ID: uuid.New(), Status: model.StatusPending}

	failed := n
	failed.Status = model.StatusFailed
	failed.RetryCount = 1

	sent := n
	sent.Status = model.StatusSent

	deliveryErr := fmt.Errorf("%w: smtp down", ErrDeliveryFailed)

	gomock.InOrder(
		processorMock.EXPECT().ProcessNotification(gomock.Any(), gomock.Any(), n.ID).Return(failed, deliveryErr),
		processorMock.EXPECT().ProcessNotification(gomock.Any(), gomock.Any(), n.ID).Return(sent, nil),
	)

	got, err := d.Dispatch(context.Background(), retry.Strategy{}, n)
	require.NoError(t, err)
	assert.Equal(t, model.StatusSent, got.Status)
}

func TestInlineDispatcher_Dispatch_ExhaustsAttempts(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	processorMock := mocks.NewMockprocessor(ctrl)
	d := NewInlineDispatcher(processorMock, 2)

	n := model.Notification{ID: uuid.New(), Status: model.StatusPending}
	deliveryErr := fmt.Errorf("%w: smtp down", ErrDeliveryFailed)

	first := n
	first.Status = model.StatusFailed
	first.RetryCount = 1

	second := first
	second.RetryCount = 2

	gomock.InOrder(
		processorMock.EXPECT().ProcessNotification(gomock.Any(), gomock.Any(), n.ID).Return(first, deliveryErr),
		processorMock.EXPECT().ProcessNotification(gomock.Any(), gomock.Any(), n.ID).Return(second, deliveryErr),
	)

	// Exhaustion in degraded mode is not an error: the record is simply
	// left failed, with no dead-letter write.
	got, err := d.Dispatch(context.Background(), retry.Strategy{}, n)
	require.NoError(t, err)
	assert.Equal(t, model.StatusFailed, got.Status)
	assert.Equal(t, 2, got.RetryCount)
}

func TestInlineDispatcher_Dispatch_StoreError(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	processorMock := mocks.NewMockprocessor(ctrl)
	d := NewInlineDispatcher(processorMock, 3)

	n := model.Notification{ID: uuid.New(), Status: model.StatusPending}

	processorMock.EXPECT().ProcessNotification(gomock.Any(), gomock.Any(), n.ID).
		Return(model.Notification{}, errors.New("db down"))

	_, err := d.Dispatch(context.Background(), retry.Strategy{}, n)
	assert.Error(t, err)
}
