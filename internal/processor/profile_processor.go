package processor

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/codesandtags/linkedin-pdf-reader/internal/config"
	"github.com/codesandtags/linkedin-pdf-reader/internal/constants"
	"github.com/codesandtags/linkedin-pdf-reader/internal/export"
	"github.com/codesandtags/linkedin-pdf-reader/internal/logger"
	"github.com/codesandtags/linkedin-pdf-reader/internal/profile"
	"github.com/codesandtags/linkedin-pdf-reader/internal/storage"
	"github.com/codesandtags/linkedin-pdf-reader/internal/storage/models"
	"github.com/codesandtags/linkedin-pdf-reader/internal/tracing"
	"github.com/codesandtags/linkedin-pdf-reader/internal/types"
	"github.com/codesandtags/linkedin-pdf-reader/pkg/utils"
)

var tracer = otel.Tracer("linkedin-pdf-reader/processor")

// defaultRecordTTL 解析结果在缓存中的保留时间
const defaultRecordTTL = 24 * time.Hour

// Submission 一次待处理的提交
type Submission struct {
	UUID          string
	Filename      string
	Data          []byte
	SourceChannel string
}

// Result 一次处理的产物
type Result struct {
	SubmissionUUID string
	Record         *types.ProfileRecord
	Text           string
	TextMD5        string
	Metadata       map[string]interface{}

	ExportPath    string
	ParsedTextKey string
	RecordKey     string
	Duration      time.Duration
}

// EventRoute parsed 事件的目标交换机和路由键
type EventRoute struct {
	Exchange   string
	RoutingKey string
}

// ProfileProcessor 提取、解析并把结果写到所有已配置的存储。
// 除提取器外其余组件都可选，未配置的步骤直接跳过
type ProfileProcessor struct {
	extractor PDFExtractor
	parser    *profile.Parser

	exporter    RecordExporter
	artifacts   ArtifactStore
	submissions SubmissionStore
	cache       RecordCache

	route     EventRoute
	recordTTL time.Duration
}

// Option 配置 ProfileProcessor
type Option func(*ProfileProcessor)

// WithParser 使用自定义章节表的解析器
func WithParser(p *profile.Parser) Option {
	return func(pp *ProfileProcessor) {
		if p != nil {
			pp.parser = p
		}
	}
}

// WithExporter 配置本地JSON导出
func WithExporter(e RecordExporter) Option {
	return func(pp *ProfileProcessor) { pp.exporter = e }
}

// WithArtifactStore 配置对象存储
func WithArtifactStore(s ArtifactStore) Option {
	return func(pp *ProfileProcessor) { pp.artifacts = s }
}

// WithSubmissionStore 配置提交记录存储，route 为空时不写 outbox 事件
func WithSubmissionStore(s SubmissionStore, route EventRoute) Option {
	return func(pp *ProfileProcessor) {
		pp.submissions = s
		pp.route = route
	}
}

// WithRecordCache 配置结果缓存
func WithRecordCache(c RecordCache, ttl time.Duration) Option {
	return func(pp *ProfileProcessor) {
		pp.cache = c
		if ttl > 0 {
			pp.recordTTL = ttl
		}
	}
}

// NewProfileProcessor 创建处理器，extractor 不能为空
func NewProfileProcessor(extractor PDFExtractor, opts ...Option) (*ProfileProcessor, error) {
	if extractor == nil {
		return nil, fmt.Errorf("%w: PDF提取器", ErrNotConfigured)
	}
	pp := &ProfileProcessor{
		extractor: extractor,
		parser:    profile.DefaultParser(),
		recordTTL: defaultRecordTTL,
	}
	for _, opt := range opts {
		opt(pp)
	}
	return pp, nil
}

// NewProcessorFromConfig 按配置组装处理器。s 中为 nil 的存储组件不会被接入
func NewProcessorFromConfig(ctx context.Context, cfg *config.Config, s *storage.Storage) (*ProfileProcessor, error) {
	extractor, err := BuildPDFExtractor(ctx, cfg, logger.StdLogger)
	if err != nil {
		return nil, err
	}
	p, err := profile.NewParser(cfg.ParserOptions()...)
	if err != nil {
		return nil, fmt.Errorf("构建档案解析器失败: %w", err)
	}

	opts := []Option{WithParser(p)}
	if cfg.Export.Enabled {
		opts = append(opts, WithExporter(export.NewJSONExporter(cfg.Export)))
	}
	if s != nil {
		// 先判空再转接口，避免 nil 指针变成非 nil 接口
		if s.MinIO != nil {
			opts = append(opts, WithArtifactStore(s.MinIO))
		}
		if s.MySQL != nil {
			route := EventRoute{}
			if cfg.RabbitMQ.Enabled {
				route = EventRoute{Exchange: cfg.RabbitMQ.ProfileEventsExchange, RoutingKey: cfg.RabbitMQ.ParsedRoutingKey}
			}
			opts = append(opts, WithSubmissionStore(s.MySQL, route))
		}
		if s.Redis != nil {
			opts = append(opts, WithRecordCache(s.Redis, defaultRecordTTL))
		}
	}
	return NewProfileProcessor(extractor, opts...)
}

// ParseText 只运行解析核心，不做任何持久化
func (pp *ProfileProcessor) ParseText(text string) *types.ProfileRecord {
	return pp.parser.Assemble(text)
}

// Process 提取PDF文本后解析并持久化
func (pp *ProfileProcessor) Process(ctx context.Context, sub Submission) (*Result, error) {
	ctx, span := tracer.Start(ctx, "ProfileProcessor.Process", trace.WithAttributes(
		attribute.String("submission.uuid", sub.UUID),
		attribute.String("submission.filename", tracing.SafeAttributeValue("file", sub.Filename, tracing.DefaultMaxLength)),
		attribute.Int("submission.size", len(sub.Data)),
	))
	defer span.End()

	start := time.Now()
	pp.markStatus(ctx, sub.UUID, constants.StatusParsing, "")

	text, meta, err := pp.extractor.ExtractTextFromBytes(ctx, sub.Data, sub.Filename, map[string]interface{}{
		"submission_uuid": sub.UUID,
	})
	if err != nil {
		err = NewExtractError(sub.UUID, err.Error())
		tracing.RecordError(span, err, tracing.ErrorTypeExtract)
		pp.markStatus(ctx, sub.UUID, constants.StatusFailed, err.Error())
		return nil, err
	}
	span.AddEvent("text extracted", trace.WithAttributes(attribute.Int("text.length", len(text))))

	result, err := pp.persist(ctx, sub, text, meta)
	if err != nil {
		tracing.RecordError(span, err, tracing.ErrorTypeInternal)
		pp.markStatus(ctx, sub.UUID, constants.StatusFailed, err.Error())
		return nil, err
	}
	result.Duration = time.Since(start)
	return result, nil
}

// ProcessText 对已经线性化的文本解析并持久化
func (pp *ProfileProcessor) ProcessText(ctx context.Context, sub Submission, text string) (*Result, error) {
	ctx, span := tracer.Start(ctx, "ProfileProcessor.ProcessText", trace.WithAttributes(
		attribute.String("submission.uuid", sub.UUID),
	))
	defer span.End()

	start := time.Now()
	result, err := pp.persist(ctx, sub, text, map[string]interface{}{"submission_uuid": sub.UUID})
	if err != nil {
		tracing.RecordError(span, err, tracing.ErrorTypeInternal)
		pp.markStatus(ctx, sub.UUID, constants.StatusFailed, err.Error())
		return nil, err
	}
	result.Duration = time.Since(start)
	return result, nil
}

// ProcessUploaded 处理异步上传队列中的消息: 从对象存储读取原始文件后走 Process
func (pp *ProfileProcessor) ProcessUploaded(ctx context.Context, msg storage.ProfileUploadMessage) (*Result, error) {
	if pp.artifacts == nil {
		return nil, NewDownloadError(msg.SubmissionUUID, ErrNotConfigured.Error())
	}
	data, err := pp.artifacts.GetOriginal(ctx, msg.OriginalFilePathOSS)
	if err != nil {
		err = NewDownloadError(msg.SubmissionUUID, err.Error())
		pp.markStatus(ctx, msg.SubmissionUUID, constants.StatusFailed, err.Error())
		return nil, err
	}
	return pp.Process(ctx, Submission{
		UUID:          msg.SubmissionUUID,
		Filename:      msg.OriginalFilename,
		Data:          data,
		SourceChannel: msg.SourceChannel,
	})
}

// persist 解析文本，并行写本地文件、对象存储和缓存，最后在一个事务里写回数据库和 outbox
func (pp *ProfileProcessor) persist(ctx context.Context, sub Submission, text string, meta map[string]interface{}) (*Result, error) {
	record := pp.parser.Assemble(text)
	recordJSON, err := json.Marshal(record)
	if err != nil {
		return nil, NewStoreError(sub.UUID, fmt.Sprintf("序列化档案记录失败: %v", err))
	}

	result := &Result{
		SubmissionUUID: sub.UUID,
		Record:         record,
		Text:           text,
		TextMD5:        utils.CalculateMD5([]byte(text)),
		Metadata:       meta,
	}

	// 各个写入互不依赖，结果字段各自独立
	g, gctx := errgroup.WithContext(ctx)
	if pp.exporter != nil {
		g.Go(func() error {
			path, err := pp.exporter.Export(gctx, sub.UUID, record)
			if err != nil {
				return NewStoreError(sub.UUID, fmt.Sprintf("本地导出失败: %v", err))
			}
			result.ExportPath = path
			return nil
		})
	}
	if pp.artifacts != nil {
		g.Go(func() error {
			key, err := pp.artifacts.UploadParsedText(gctx, sub.UUID, text)
			if err != nil {
				return NewStoreError(sub.UUID, err.Error())
			}
			result.ParsedTextKey = key
			return nil
		})
		g.Go(func() error {
			key, err := pp.artifacts.UploadRecordJSON(gctx, sub.UUID, recordJSON)
			if err != nil {
				return NewStoreError(sub.UUID, err.Error())
			}
			result.RecordKey = key
			return nil
		})
	}
	if pp.cache != nil {
		g.Go(func() error {
			// 缓存只是加速查询，失败不影响处理结果
			if err := pp.cache.CacheProfileRecord(gctx, sub.UUID, recordJSON, pp.recordTTL); err != nil {
				logger.Ctx(ctx).Warn().Err(err).Str("submission_uuid", sub.UUID).Msg("缓存档案记录失败")
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if pp.submissions != nil {
		if err := pp.commit(ctx, result, recordJSON); err != nil {
			return nil, err
		}
	}

	logger.Ctx(ctx).Info().
		Str("submission_uuid", sub.UUID).
		Int("experience", len(record.Experience)).
		Int("education", len(record.Education)).
		Str("export_path", result.ExportPath).
		Msg("档案解析完成")
	return result, nil
}

func (pp *ProfileProcessor) commit(ctx context.Context, result *Result, recordJSON []byte) error {
	contact := result.Record.Contact
	update := storage.ParsedProfileUpdate{
		ParsedTextPathOSS: result.ParsedTextKey,
		RecordPathOSS:     result.RecordKey,
		ParsedTextMD5:     result.TextMD5,
		ProfileRecord:     recordJSON,
		CandidateName:     utils.StringValue(contact.Name),
		Headline:          utils.StringValue(contact.Title),
		Location:          utils.StringValue(contact.Location),
		Email:             utils.StringValue(contact.Email),
	}

	var event *models.OutboxMessage
	if pp.route.Exchange != "" {
		payload, err := json.Marshal(storage.ProfileParsedEvent{
			SubmissionUUID:    result.SubmissionUUID,
			ProcessingStatus:  constants.StatusParsed,
			ParsedTextPathOSS: result.ParsedTextKey,
			RecordPathOSS:     result.RecordKey,
			CandidateName:     update.CandidateName,
			Headline:          update.Headline,
			ExperienceCount:   len(result.Record.Experience),
			EducationCount:    len(result.Record.Education),
			ParsedAt:          time.Now(),
		})
		if err != nil {
			return NewDatabaseError(result.SubmissionUUID, "序列化 outbox payload 失败")
		}
		event = &models.OutboxMessage{
			AggregateID:      result.SubmissionUUID,
			EventType:        constants.EventProfileParsed,
			Payload:          string(payload),
			TargetExchange:   pp.route.Exchange,
			TargetRoutingKey: pp.route.RoutingKey,
			Status:           constants.OutboxStatusPending,
		}
	}

	if err := pp.submissions.SaveParsedWithEvent(ctx, result.SubmissionUUID, update, event); err != nil {
		return NewDatabaseError(result.SubmissionUUID, err.Error())
	}
	return nil
}

// markStatus 尽力更新状态，失败只记日志
func (pp *ProfileProcessor) markStatus(ctx context.Context, submissionUUID, status, errMsg string) {
	if pp.submissions == nil || submissionUUID == "" {
		return
	}
	if err := pp.submissions.UpdateProcessingStatus(ctx, submissionUUID, status, errMsg); err != nil {
		logger.Ctx(ctx).Warn().Err(NewUpdateError(submissionUUID, err.Error())).Str("status", status).Msg("更新处理状态失败")
	}
}
