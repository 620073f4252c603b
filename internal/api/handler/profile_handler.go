package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/gofrs/uuid/v5"

	"github.com/codesandtags/linkedin-pdf-reader/internal/config"
	"github.com/codesandtags/linkedin-pdf-reader/internal/constants"
	"github.com/codesandtags/linkedin-pdf-reader/internal/logger"
	"github.com/codesandtags/linkedin-pdf-reader/internal/processor"
	"github.com/codesandtags/linkedin-pdf-reader/internal/storage"
	"github.com/codesandtags/linkedin-pdf-reader/internal/storage/models"
	"github.com/codesandtags/linkedin-pdf-reader/internal/types"
	"github.com/codesandtags/linkedin-pdf-reader/pkg/utils"
)

var (
	ErrFileTooLarge     = errors.New("文件超过大小限制")
	ErrUnsupportedFile  = errors.New("只支持PDF文件")
	ErrEmptyFile        = errors.New("文件为空")
	ErrAsyncUnavailable = errors.New("异步模式需要启用 MinIO 和 RabbitMQ")
	ErrProfileNotFound  = errors.New("档案不存在")
)

// 上传响应中的状态
const (
	UploadStatusParsed    = constants.StatusParsed
	UploadStatusQueued    = constants.StatusQueued
	UploadStatusDuplicate = "DUPLICATE_FILE"
)

// OriginalStore 原始文件存储
type OriginalStore interface {
	UploadOriginal(ctx context.Context, submissionUUID, fileExt string, reader io.Reader, fileSize int64) (string, string, error)
	DeleteOriginal(ctx context.Context, objectKey string) error
}

// Deduplicator 基于文件MD5的去重和结果缓存
type Deduplicator interface {
	CheckAndSetFileMD5(ctx context.Context, md5Hex, submissionUUID string) (bool, string, error)
	RemoveFileMD5(ctx context.Context, md5Hex string) error
	GetCachedProfileRecord(ctx context.Context, submissionUUID string) ([]byte, error)
}

// SubmissionRepository 提交记录
type SubmissionRepository interface {
	CreateSubmission(ctx context.Context, sub *models.ProfileSubmission) error
	GetSubmission(ctx context.Context, submissionUUID string) (*models.ProfileSubmission, error)
}

// UploadQueue 异步上传队列
type UploadQueue interface {
	EnsureProfileTopology() error
	PublishJSON(ctx context.Context, exchangeName, routingKey string, data interface{}, persistent bool) error
	StartConsumer(ctx context.Context, queueName string, prefetchCount int, handler storage.DeliveryHandler) (<-chan struct{}, error)
}

var (
	_ OriginalStore        = (*storage.MinIO)(nil)
	_ Deduplicator         = (*storage.Redis)(nil)
	_ SubmissionRepository = (*storage.MySQL)(nil)
	_ UploadQueue          = (*storage.RabbitMQ)(nil)
)

// ProfileHandler 协调档案上传、解析和查询
type ProfileHandler struct {
	cfg       *config.Config
	processor *processor.ProfileProcessor

	originals   OriginalStore
	dedup       Deduplicator
	submissions SubmissionRepository
	queue       UploadQueue
}

// NewProfileHandler 创建处理器。s 中为 nil 的组件对应的步骤会被跳过
func NewProfileHandler(cfg *config.Config, s *storage.Storage, pp *processor.ProfileProcessor) *ProfileHandler {
	h := &ProfileHandler{cfg: cfg, processor: pp}
	if s == nil {
		return h
	}
	// 先判空再赋给接口，避免 nil 指针变成非 nil 接口
	if s.MinIO != nil {
		h.originals = s.MinIO
	}
	if s.Redis != nil {
		h.dedup = s.Redis
	}
	if s.MySQL != nil {
		h.submissions = s.MySQL
	}
	if s.RabbitMQ != nil {
		h.queue = s.RabbitMQ
	}
	return h
}

// ProfileUploadResponse 档案上传响应
type ProfileUploadResponse struct {
	SubmissionUUID string               `json:"submission_uuid"`
	Status         string               `json:"status"`
	Record         *types.ProfileRecord `json:"record,omitempty"`
	ExportPath     string               `json:"export_path,omitempty"`
}

// ProfileView 查询接口返回的档案
type ProfileView struct {
	SubmissionUUID string          `json:"submission_uuid"`
	Status         string          `json:"status"`
	ErrorMessage   string          `json:"error_message,omitempty"`
	Record         json.RawMessage `json:"record,omitempty"`
}

// HandleProfileUpload 处理档案上传。同步模式在所有存储写完后才返回解析结果；
// 异步模式只登记提交并投递到上传队列
func (h *ProfileHandler) HandleProfileUpload(ctx context.Context, reader io.Reader, fileSize int64, filename string, async bool) (*ProfileUploadResponse, error) {
	maxBytes := h.cfg.MaxUploadBytes()
	if fileSize > maxBytes {
		return nil, fmt.Errorf("%w: %d > %d", ErrFileTooLarge, fileSize, maxBytes)
	}
	ext := utils.FileExt(filename)
	if ext != ".pdf" {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFile, filename)
	}
	if async && (h.originals == nil || h.queue == nil) {
		return nil, ErrAsyncUnavailable
	}

	// 多读一个字节以发现声明大小不可信的请求
	data, err := io.ReadAll(io.LimitReader(reader, maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("读取上传文件内容失败: %w", err)
	}
	if len(data) == 0 {
		return nil, ErrEmptyFile
	}
	if int64(len(data)) > maxBytes {
		return nil, fmt.Errorf("%w: > %d", ErrFileTooLarge, maxBytes)
	}
	if mt := mimetype.Detect(data); !mt.Is("application/pdf") {
		return nil, fmt.Errorf("%w: 检测到 %s", ErrUnsupportedFile, mt.String())
	}

	fileMD5 := utils.CalculateMD5(data)
	submissionUUID := uuid.Must(uuid.NewV7()).String()
	log := logger.Ctx(ctx).With().Str("submission_uuid", submissionUUID).Str("md5", fileMD5).Logger()

	if h.dedup != nil {
		exists, existingUUID, err := h.dedup.CheckAndSetFileMD5(ctx, fileMD5, submissionUUID)
		if err != nil {
			return nil, fmt.Errorf("检查文件MD5重复性失败: %w", err)
		}
		if exists {
			log.Info().Str("existing_uuid", existingUUID).Msg("检测到重复上传")
			return h.duplicateResponse(ctx, existingUUID), nil
		}
	}

	// 之后任何一步失败都要撤销MD5登记，否则同一文件无法重新上传。
	// objectKey 非空时同时删除已上传的原始文件
	rollback := func(objectKey string) {
		if h.dedup != nil {
			if err := h.dedup.RemoveFileMD5(context.WithoutCancel(ctx), fileMD5); err != nil {
				log.Warn().Err(err).Msg("回滚MD5登记失败")
			}
		}
		if objectKey != "" {
			if err := h.originals.DeleteOriginal(context.WithoutCancel(ctx), objectKey); err != nil {
				log.Warn().Err(err).Str("object_key", objectKey).Msg("删除原始文件失败")
			}
		}
	}

	var objectKey string
	if h.originals != nil {
		objectKey, _, err = h.originals.UploadOriginal(ctx, submissionUUID, ext, bytes.NewReader(data), int64(len(data)))
		if err != nil {
			rollback("")
			return nil, fmt.Errorf("上传原始文件失败: %w", err)
		}
	}

	status := constants.StatusPendingParsing
	if async {
		status = constants.StatusQueued
	}
	now := time.Now()
	if h.submissions != nil {
		err := h.submissions.CreateSubmission(ctx, &models.ProfileSubmission{
			SubmissionUUID:      submissionUUID,
			SubmissionTimestamp: now,
			SourceChannel:       constants.SourceChannelHTTP,
			OriginalFilename:    filename,
			OriginalFilePathOSS: objectKey,
			RawFileMD5:          fileMD5,
			ProcessingStatus:    status,
			ParserVersion:       constants.ParserVersion,
		})
		if err != nil {
			rollback(objectKey)
			return nil, fmt.Errorf("创建提交记录失败: %w", err)
		}
	}

	if async {
		err := h.queue.PublishJSON(ctx, h.cfg.RabbitMQ.ProfileEventsExchange, h.cfg.RabbitMQ.UploadedRoutingKey,
			storage.ProfileUploadMessage{
				SubmissionUUID:      submissionUUID,
				SubmissionTimestamp: now,
				SourceChannel:       constants.SourceChannelHTTP,
				OriginalFilename:    filename,
				OriginalFilePathOSS: objectKey,
				RawFileMD5:          fileMD5,
			}, true)
		if err != nil {
			// 提交记录已经写入，状态会停在 QUEUED，需要人工重投
			rollback("")
			return nil, fmt.Errorf("发布上传消息失败: %w", err)
		}
		log.Info().Msg("档案已进入解析队列")
		return &ProfileUploadResponse{SubmissionUUID: submissionUUID, Status: UploadStatusQueued}, nil
	}

	result, err := h.processor.Process(ctx, processor.Submission{
		UUID:          submissionUUID,
		Filename:      filename,
		Data:          data,
		SourceChannel: constants.SourceChannelHTTP,
	})
	if err != nil {
		// 原始文件保留，提交记录已被标记为失败
		rollback("")
		return nil, err
	}
	return &ProfileUploadResponse{
		SubmissionUUID: submissionUUID,
		Status:         UploadStatusParsed,
		Record:         result.Record,
		ExportPath:     result.ExportPath,
	}, nil
}

// duplicateResponse 重复文件直接返回第一次提交，能查到结果时一并带上
func (h *ProfileHandler) duplicateResponse(ctx context.Context, existingUUID string) *ProfileUploadResponse {
	resp := &ProfileUploadResponse{SubmissionUUID: existingUUID, Status: UploadStatusDuplicate}
	if existingUUID == "" {
		return resp
	}
	view, err := h.GetProfile(ctx, existingUUID)
	if err != nil || len(view.Record) == 0 {
		return resp
	}
	var record types.ProfileRecord
	if err := json.Unmarshal(view.Record, &record); err == nil {
		resp.Record = &record
	}
	return resp
}

// ParseText 只解析文本，不做任何持久化
func (h *ProfileHandler) ParseText(text string) *types.ProfileRecord {
	return h.processor.ParseText(text)
}

// GetProfile 先查缓存，再查数据库
func (h *ProfileHandler) GetProfile(ctx context.Context, submissionUUID string) (*ProfileView, error) {
	if h.dedup != nil {
		data, err := h.dedup.GetCachedProfileRecord(ctx, submissionUUID)
		switch {
		case err == nil:
			return &ProfileView{SubmissionUUID: submissionUUID, Status: constants.StatusParsed, Record: data}, nil
		case !errors.Is(err, storage.ErrNotFound):
			logger.Ctx(ctx).Warn().Err(err).Str("submission_uuid", submissionUUID).Msg("读取档案缓存失败")
		}
	}

	if h.submissions == nil {
		return nil, ErrProfileNotFound
	}
	sub, err := h.submissions.GetSubmission(ctx, submissionUUID)
	if errors.Is(err, storage.ErrSubmissionNotFound) {
		return nil, ErrProfileNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("查询提交记录失败: %w", err)
	}

	view := &ProfileView{
		SubmissionUUID: sub.SubmissionUUID,
		Status:         sub.ProcessingStatus,
		ErrorMessage:   sub.ErrorMessage,
	}
	if len(sub.ProfileRecord) > 0 {
		view.Record = json.RawMessage(sub.ProfileRecord)
	}
	return view, nil
}

// StartProfileUploadConsumer 声明拓扑并开始消费上传队列，ctx 取消后停止
func (h *ProfileHandler) StartProfileUploadConsumer(ctx context.Context, prefetch int) (<-chan struct{}, error) {
	if h.queue == nil {
		return nil, ErrAsyncUnavailable
	}
	if err := h.queue.EnsureProfileTopology(); err != nil {
		return nil, fmt.Errorf("声明上传队列拓扑失败: %w", err)
	}
	if prefetch <= 0 {
		prefetch = h.cfg.RabbitMQ.PrefetchCount
	}

	logger.Info().
		Str("exchange", h.cfg.RabbitMQ.ProfileEventsExchange).
		Str("queue", h.cfg.RabbitMQ.UploadQueue).
		Int("prefetch", prefetch).
		Msg("档案上传消费者就绪")

	return h.queue.StartConsumer(ctx, h.cfg.RabbitMQ.UploadQueue, prefetch, h.handleUploadDelivery)
}

// handleUploadDelivery 返回 false 的消息会重新入队，只在服务关闭时这样做
func (h *ProfileHandler) handleUploadDelivery(ctx context.Context, body []byte) bool {
	var msg storage.ProfileUploadMessage
	if err := json.Unmarshal(body, &msg); err != nil {
		logger.Error().Err(err).Msg("解析上传消息失败，丢弃")
		return true
	}
	log := logger.Ctx(ctx).With().Str("submission_uuid", msg.SubmissionUUID).Logger()

	retryInterval := config.GetDuration(h.cfg.RabbitMQ.RetryInterval, 5*time.Second)
	attempts := h.cfg.RabbitMQ.MaxRetries + 1
	if attempts < 1 {
		attempts = 1
	}

	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		if _, err = h.processor.ProcessUploaded(ctx, msg); err == nil {
			return true
		}
		// 提取失败说明文件本身有问题，重试没有意义
		if errors.Is(err, processor.ErrExtractFailed) || attempt == attempts {
			break
		}
		log.Warn().Err(err).Int("attempt", attempt).Msg("处理上传消息失败，稍后重试")
		select {
		case <-ctx.Done():
			return false
		case <-time.After(retryInterval):
		}
	}
	if ctx.Err() != nil {
		return false
	}

	log.Error().Err(err).Msg("处理上传消息失败")
	if h.dedup != nil && msg.RawFileMD5 != "" {
		if rmErr := h.dedup.RemoveFileMD5(ctx, msg.RawFileMD5); rmErr != nil {
			log.Warn().Err(rmErr).Msg("回滚MD5登记失败")
		}
	}
	return true
}
