package notification

import (
	"context"

	"github.com/dumeirei/hotel-booking-backend/internal/common/errors"
	"github.com/dumeirei/hotel-booking-backend/internal/models"
	"github.com/dumeirei/hotel-booking-backend/internal/repository"
)

// InboxService 用户站内信服务
type InboxService struct {
	repo *repository.NotificationRepository
}

// NewInboxService 创建站内信服务
func NewInboxService(repo *repository.NotificationRepository) *InboxService {
	return &InboxService{repo: repo}
}

// InboxPage 站内信分页结果
type InboxPage struct {
	List        []*models.Notification `json:"list"`
	Total       int64                  `json:"total"`
	UnreadCount int64                  `json:"unread_count"`
}

// List 获取用户站内信
func (s *InboxService) List(ctx context.Context, userID int64, offset, limit int, isRead *bool) (*InboxPage, error) {
	list, total, err := s.repo.ListByUserID(ctx, userID, offset, limit, isRead)
	if err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	unread, err := s.repo.CountUnread(ctx, userID)
	if err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	return &InboxPage{List: list, Total: total, UnreadCount: unread}, nil
}

// MarkRead 标记已读，只能操作自己的站内信
func (s *InboxService) MarkRead(ctx context.Context, userID, id int64) error {
	ok, err := s.repo.MarkAsRead(ctx, id, userID)
	if err != nil {
		return errors.ErrDatabaseError.WithError(err)
	}
	if !ok {
		return errors.ErrNotFound.WithMessage("通知不存在")
	}
	return nil
}
