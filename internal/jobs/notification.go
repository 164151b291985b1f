package jobs

import (
	"context"
	"errors"

	"github.com/dmitrymomot/fitqueue/core/queue"
	"github.com/dmitrymomot/fitqueue/internal/notify"
)

func (r *Registry) inApp(ctx context.Context, p InApp) (notify.Notification, error) {
	n, err := r.notify.Push(ctx, p.UserID, p.Title, p.Message, p.Data)
	if errors.Is(err, notify.ErrEmptyUserID) || errors.Is(err, notify.ErrEmptyTitle) {
		return notify.Notification{}, queue.Permanent(err)
	}
	return n, err
}
