package notification

import (
	"context"
	stderrors "errors"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/dumeirei/hotel-booking-backend/internal/common/errors"
	"github.com/dumeirei/hotel-booking-backend/internal/common/logger"
	"github.com/dumeirei/hotel-booking-backend/internal/common/metrics"
	"github.com/dumeirei/hotel-booking-backend/internal/common/tracing"
	"github.com/dumeirei/hotel-booking-backend/internal/common/utils"
	"github.com/dumeirei/hotel-booking-backend/internal/models"
	"github.com/dumeirei/hotel-booking-backend/internal/repository"
	"github.com/dumeirei/hotel-booking-backend/pkg/sms"
)

// retryDelay 事件源出错后的等待时间
const retryDelay = time.Second

// recipient 一个待通知的用户
type recipient struct {
	userID   int64
	phone    string
	audience Audience
}

// Worker 消费事件，写入站内信并发送短信
type Worker struct {
	source      Source
	userRepo    *repository.UserRepository
	notifyRepo  *repository.NotificationRepository
	smsNotifier *sms.Notifier
	metrics     *metrics.Metrics
}

// NewWorker 创建通知消费者，smsNotifier 为 nil 时不发送短信
func NewWorker(
	source Source,
	userRepo *repository.UserRepository,
	notifyRepo *repository.NotificationRepository,
	smsNotifier *sms.Notifier,
	m *metrics.Metrics,
) *Worker {
	return &Worker{
		source:      source,
		userRepo:    userRepo,
		notifyRepo:  notifyRepo,
		smsNotifier: smsNotifier,
		metrics:     m,
	}
}

// Run 持续消费直到 ctx 结束或事件源关闭
func (w *Worker) Run(ctx context.Context) error {
	for {
		ev, err := w.source.Receive(ctx)
		if err != nil {
			switch {
			case ctx.Err() != nil:
				return nil
			case stderrors.Is(err, ErrNoEvent):
				continue
			case stderrors.Is(err, ErrSourceClosed):
				return err
			}
			logger.Warn("读取通知事件失败", zap.Error(err))
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(retryDelay):
			}
			continue
		}

		if err := w.Handle(ctx, ev); err != nil {
			logger.Warn("处理通知事件失败，消息已丢弃",
				logger.Event(string(ev.Type)),
				logger.BookingID(ev.BookingID),
				zap.Error(err),
			)
			w.metrics.RecordNotification(string(ev.Type), "deliver", "error")
			continue
		}
		w.metrics.RecordNotification(string(ev.Type), "deliver", "ok")
	}
}

// Handle 处理一条事件：为每个通知对象写入一条站内信，重复事件不会重复写入
func (w *Worker) Handle(ctx context.Context, ev Event) (err error) {
	ctx, span := tracing.Start(ctx, "notification.handle",
		tracing.WithBookingID(ev.BookingID),
		tracing.AttrEvent.String(string(ev.Type)),
	)
	defer func() { tracing.End(span, err) }()

	recipients, err := w.resolve(ctx, ev)
	if err != nil {
		return err
	}

	rows := make([]*models.Notification, 0, len(recipients))
	for _, r := range recipients {
		exists, err := w.notifyRepo.ExistsByEvent(ctx, ev.ID, r.userID)
		if err != nil {
			return errors.ErrDatabaseError.WithError(err)
		}
		if exists {
			continue
		}
		msg := Render(ev, r.audience)
		rows = append(rows, &models.Notification{
			UserID:  r.userID,
			Type:    msg.Type,
			Title:   msg.Title,
			Content: msg.Content,
			EventID: ev.ID,
		})
	}
	if err := w.notifyRepo.CreateBatch(ctx, rows); err != nil {
		return errors.ErrDatabaseError.WithError(err)
	}

	w.sendSMS(ctx, ev, recipients)
	return nil
}

// resolve 解析通知对象，同一用户只通知一次
func (w *Worker) resolve(ctx context.Context, ev Event) ([]recipient, error) {
	seen := make(map[int64]bool)
	var out []recipient
	add := func(r recipient) {
		if r.userID <= 0 || seen[r.userID] {
			return
		}
		seen[r.userID] = true
		out = append(out, r)
	}

	for _, audience := range Recipients(ev) {
		switch audience {
		case AudienceUser:
			r := recipient{userID: ev.UserID, audience: AudienceUser}
			user, err := w.userRepo.GetByID(ctx, ev.UserID)
			if err != nil && !stderrors.Is(err, gorm.ErrRecordNotFound) {
				return nil, errors.ErrDatabaseError.WithError(err)
			}
			if user != nil {
				r.phone = smsPhone(user.Phone)
			}
			add(r)
		case AudienceAdmin:
			admins, err := w.userRepo.ListAdmins(ctx)
			if err != nil {
				return nil, errors.ErrDatabaseError.WithError(err)
			}
			for _, admin := range admins {
				add(recipient{userID: admin.ID, audience: AudienceAdmin, phone: smsPhone(admin.Phone)})
			}
		}
	}
	return out, nil
}

// smsPhone 仅保留可接收短信的大陆手机号
func smsPhone(phone *string) string {
	p := utils.SafeString(phone)
	if !utils.ValidatePhone(p) {
		return ""
	}
	return p
}

// sendSMS 发送短信，失败只记录日志
func (w *Worker) sendSMS(ctx context.Context, ev Event, recipients []recipient) {
	if w.smsNotifier == nil {
		return
	}
	for _, r := range recipients {
		key, ok := smsTemplate(ev, r.audience)
		if !ok || r.phone == "" || !w.smsNotifier.Supports(key) {
			continue
		}
		if err := w.smsNotifier.Notify(ctx, r.phone, key, smsParams(ev)); err != nil {
			logger.Warn("短信发送失败",
				logger.Event(string(ev.Type)),
				logger.BookingID(ev.BookingID),
				logger.UserID(r.userID),
				logger.Phone(r.phone),
				zap.Error(err),
			)
			w.metrics.RecordNotification(string(ev.Type), "sms", "error")
			continue
		}
		w.metrics.RecordNotification(string(ev.Type), "sms", "ok")
	}
}
