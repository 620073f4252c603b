// Package outbox 把 outbox 表中待发送的事件投递到消息队列
package outbox

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/codesandtags/linkedin-pdf-reader/internal/constants"
	"github.com/codesandtags/linkedin-pdf-reader/internal/logger"
	"github.com/codesandtags/linkedin-pdf-reader/internal/storage"
	"github.com/codesandtags/linkedin-pdf-reader/internal/storage/models"
	"github.com/codesandtags/linkedin-pdf-reader/internal/tracing"
	"github.com/codesandtags/linkedin-pdf-reader/pkg/utils"
)

const (
	defaultPollingInterval = 5 * time.Second
	defaultBatchSize       = 10
	defaultMaxRetryCount   = 5
)

// Publisher 发布一条消息
type Publisher interface {
	PublishMessage(ctx context.Context, exchangeName, routingKey string, message []byte, persistent bool) error
}

var _ Publisher = (*storage.RabbitMQ)(nil)

// MessageRelay 轮询 outbox 表并将消息发布到消息代理
type MessageRelay struct {
	db              *gorm.DB
	publisher       Publisher
	pollingInterval time.Duration
	batchSize       int
	maxRetries      int
	tracer          trace.Tracer

	done chan struct{}
}

// Option 配置 MessageRelay
type Option func(*MessageRelay)

// WithPollingInterval 设置轮询间隔
func WithPollingInterval(d time.Duration) Option {
	return func(r *MessageRelay) {
		if d > 0 {
			r.pollingInterval = d
		}
	}
}

// WithBatchSize 设置每次轮询的消息数
func WithBatchSize(n int) Option {
	return func(r *MessageRelay) {
		if n > 0 {
			r.batchSize = n
		}
	}
}

// WithMaxRetries 设置发布失败多少次后标记为 FAILED
func WithMaxRetries(n int) Option {
	return func(r *MessageRelay) {
		if n > 0 {
			r.maxRetries = n
		}
	}
}

// NewMessageRelay 创建一个新的 MessageRelay 实例
func NewMessageRelay(db *gorm.DB, publisher Publisher, opts ...Option) *MessageRelay {
	r := &MessageRelay{
		db:              db,
		publisher:       publisher,
		pollingInterval: defaultPollingInterval,
		batchSize:       defaultBatchSize,
		maxRetries:      defaultMaxRetryCount,
		tracer:          otel.Tracer("linkedin-pdf-reader/outbox"),
		done:            make(chan struct{}),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Start 在后台开始轮询，ctx 取消后停止。Done 返回的通道在轮询退出时关闭
func (r *MessageRelay) Start(ctx context.Context) {
	logger.Info().Dur("interval", r.pollingInterval).Int("batch_size", r.batchSize).Msg("MessageRelay starting")
	ticker := time.NewTicker(r.pollingInterval)

	go func() {
		defer close(r.done)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				logger.Info().Msg("MessageRelay stopped")
				return
			case <-ticker.C:
				if _, err := r.ProcessPendingMessages(ctx); err != nil && ctx.Err() == nil {
					logger.Error().Err(err).Msg("处理 outbox 消息失败")
				}
			}
		}
	}()
}

// Done 轮询退出后关闭
func (r *MessageRelay) Done() <-chan struct{} {
	return r.done
}

// ProcessPendingMessages 在一个事务中取出一批 PENDING 消息并逐条发布，返回本批处理的条数
func (r *MessageRelay) ProcessPendingMessages(ctx context.Context) (int, error) {
	var messages []models.OutboxMessage

	// 空轮询不创建 span
	tx := r.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return 0, tx.Error
	}
	defer tx.Rollback()

	// SKIP LOCKED 让多个实例可以同时轮询而不重复处理
	err := tx.Clauses(clause.Locking{Strength: "UPDATE", Options: "SKIP LOCKED"}).
		Where("status = ?", constants.OutboxStatusPending).
		Order("created_at asc").
		Limit(r.batchSize).
		Find(&messages).Error
	if err != nil {
		return 0, err
	}
	if len(messages) == 0 {
		return 0, tx.Commit().Error
	}

	ctx, span := r.tracer.Start(ctx, "outbox.ProcessBatch",
		trace.WithAttributes(attribute.Int("messaging.batch.message_count", len(messages))),
	)
	defer span.End()

	logger.Debug().Int("count", len(messages)).Msg("取到待发送的 outbox 消息")

	for i := range messages {
		msg := &messages[i]
		r.deliver(ctx, msg)

		// 更新失败时整个事务回滚，这批消息下次轮询重新处理
		if err := tx.Save(msg).Error; err != nil {
			tracing.RecordError(span, err, tracing.ErrorTypeDB)
			return 0, err
		}
	}

	if err := tx.Commit().Error; err != nil {
		tracing.RecordError(span, err, tracing.ErrorTypeDB)
		return 0, err
	}
	return len(messages), nil
}

// deliver 发布一条消息并按结果更新它的状态字段
func (r *MessageRelay) deliver(ctx context.Context, msg *models.OutboxMessage) {
	err := r.publisher.PublishMessage(ctx, msg.TargetExchange, msg.TargetRoutingKey, []byte(msg.Payload), true)
	if err != nil {
		msg.RetryCount++
		msg.ErrorMessage = err.Error()
		tracing.RecordErrorWithInfo(trace.SpanFromContext(ctx), err, tracing.ErrorTypeRabbitMQ,
			attribute.Int64("outbox.id", int64(msg.ID)),
			attribute.Int("outbox.retry_count", msg.RetryCount),
		)
		if msg.RetryCount >= r.maxRetries {
			msg.Status = constants.OutboxStatusFailed
		}
		logger.Warn().Err(err).
			Uint64("id", msg.ID).
			Str("aggregate_id", msg.AggregateID).
			Int("retries", msg.RetryCount).
			Msg("发布 outbox 消息失败")
		return
	}

	msg.Status = constants.OutboxStatusSent
	msg.ProcessedAt = utils.TimePtr(time.Now())
	msg.ErrorMessage = ""
}
