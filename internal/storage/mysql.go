package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/datatypes"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/codesandtags/linkedin-pdf-reader/internal/config"
	"github.com/codesandtags/linkedin-pdf-reader/internal/constants"
	applog "github.com/codesandtags/linkedin-pdf-reader/internal/logger"
	"github.com/codesandtags/linkedin-pdf-reader/internal/storage/models"
	"github.com/codesandtags/linkedin-pdf-reader/internal/tracing"
)

var mysqlTracer = otel.Tracer("linkedin-pdf-reader/storage/mysql")

// ErrSubmissionNotFound 提交记录不存在
var ErrSubmissionNotFound = errors.New("profile submission not found")

type gormSpanKey struct{}

// GormTracingPlugin 为每条GORM语句创建一个客户端span
type GormTracingPlugin struct {
	tracer   trace.Tracer
	dbName   string
	skipHook bool // SkipHooks 的语句不追踪
}

// NewGormTracingPlugin 创建GORM追踪插件
func NewGormTracingPlugin(dbName string) *GormTracingPlugin {
	return &GormTracingPlugin{
		tracer:   mysqlTracer,
		dbName:   dbName,
		skipHook: true,
	}
}

// Name 返回插件名称
func (p *GormTracingPlugin) Name() string {
	return "GormOpenTelemetryPlugin"
}

// Initialize 在增删改查、Row、Raw 前后注册回调
func (p *GormTracingPlugin) Initialize(db *gorm.DB) error {
	cb := db.Callback()
	hooks := []struct {
		operation string
		before    func(name string, fn func(*gorm.DB)) error
		after     func(name string, fn func(*gorm.DB)) error
	}{
		{"CREATE", cb.Create().Before("gorm:create").Register, cb.Create().After("gorm:create").Register},
		{"SELECT", cb.Query().Before("gorm:query").Register, cb.Query().After("gorm:query").Register},
		{"UPDATE", cb.Update().Before("gorm:update").Register, cb.Update().After("gorm:update").Register},
		{"DELETE", cb.Delete().Before("gorm:delete").Register, cb.Delete().After("gorm:delete").Register},
		{"ROW", cb.Row().Before("gorm:row").Register, cb.Row().After("gorm:row").Register},
		{"RAW", cb.Raw().Before("gorm:raw").Register, cb.Raw().After("gorm:raw").Register},
	}
	for _, h := range hooks {
		if err := h.before("otel:before_"+h.operation, p.before(h.operation)); err != nil {
			return err
		}
		if err := h.after("otel:after_"+h.operation, p.after()); err != nil {
			return err
		}
	}
	return nil
}

func (p *GormTracingPlugin) before(operation string) func(db *gorm.DB) {
	return func(db *gorm.DB) {
		if p.skipHook && db.Statement.SkipHooks {
			return
		}
		ctx := db.Statement.Context
		if ctx == nil {
			ctx = context.Background()
		}
		table := db.Statement.Table
		if table == "" {
			table = "unknown"
		}

		attrs := []attribute.KeyValue{
			semconv.DBSystemMySQL,
			attribute.String("db.name", p.dbName),
			attribute.String("db.operation", operation),
			attribute.String("db.sql.table", table),
		}
		if sql := db.Statement.SQL.String(); sql != "" {
			attrs = append(attrs, attribute.String("db.statement", tracing.SafeSQL(sql)))
		}

		newCtx, span := p.tracer.Start(ctx, operation+" "+table,
			trace.WithSpanKind(trace.SpanKindClient),
			trace.WithAttributes(attrs...),
		)
		db.Statement.Context = context.WithValue(newCtx, gormSpanKey{}, span)
	}
}

func (p *GormTracingPlugin) after() func(db *gorm.DB) {
	return func(db *gorm.DB) {
		span, ok := db.Statement.Context.Value(gormSpanKey{}).(trace.Span)
		if !ok {
			return
		}
		defer span.End()

		span.SetAttributes(attribute.Int64("db.rows_affected", db.Statement.RowsAffected))
		switch {
		case db.Error == nil:
			span.SetStatus(codes.Ok, "")
		case errors.Is(db.Error, gorm.ErrRecordNotFound):
			// 查不到记录属于正常业务分支
			span.SetAttributes(attribute.String("error.type", "record_not_found"))
			span.SetStatus(codes.Ok, "record not found")
		default:
			tracing.RecordError(span, db.Error, tracing.ErrorTypeDB)
		}
	}
}

// MySQL 提交记录与 outbox 的关系库存储
type MySQL struct {
	db  *gorm.DB
	cfg *config.MySQLConfig
}

// ParsedProfileUpdate 解析完成后写回提交记录的字段
type ParsedProfileUpdate struct {
	ParsedTextPathOSS string
	RecordPathOSS     string
	ParsedTextMD5     string
	ProfileRecord     []byte
	CandidateName     string
	Headline          string
	Location          string
	Email             string
}

// NewMySQL 连接MySQL，注册追踪插件并迁移表结构
func NewMySQL(cfg *config.MySQLConfig) (*MySQL, error) {
	if cfg == nil {
		return nil, fmt.Errorf("MySQL配置不能为空")
	}

	dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=Local&timeout=%ds&readTimeout=%ds&writeTimeout=%ds",
		cfg.Username, cfg.Password, cfg.Host, cfg.Port, cfg.Database,
		cfg.ConnectTimeoutSeconds, cfg.ReadTimeoutSeconds, cfg.WriteTimeoutSeconds)

	return newMySQLWithDialector(mysql.Open(dsn), cfg)
}

func newMySQLWithDialector(dialector gorm.Dialector, cfg *config.MySQLConfig) (*MySQL, error) {
	gormConfig := &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
		Logger:                                   logger.Default.LogMode(gormLogLevel(cfg.LogLevel)),
		PrepareStmt:                              true,
		NowFunc: func() time.Time {
			return time.Now().Local()
		},
	}

	db, err := gorm.Open(dialector, gormConfig)
	if err != nil {
		return nil, fmt.Errorf("连接MySQL失败: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("获取底层 sql.DB 失败: %w", err)
	}
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetConnMaxLifetime(time.Duration(cfg.ConnMaxLifetimeMinutes) * time.Minute)
	sqlDB.SetConnMaxIdleTime(time.Duration(cfg.ConnMaxIdleTimeMinutes) * time.Minute)

	if err := db.Use(NewGormTracingPlugin(cfg.Database)); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("注册追踪插件失败: %w", err)
	}

	m := &MySQL{db: db, cfg: cfg}
	if err := m.autoMigrateSchema(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("自动迁移数据库结构失败: %w", err)
	}

	applog.Info().Str("database", cfg.Database).Msg("成功连接到MySQL并自动迁移数据库结构")
	return m, nil
}

// gormLogLevel 1-4 对应 Silent/Error/Warn/Info
func gormLogLevel(level int) logger.LogLevel {
	switch level {
	case 1:
		return logger.Silent
	case 2:
		return logger.Error
	case 3:
		return logger.Warn
	case 4:
		return logger.Info
	default:
		return logger.Error
	}
}

func (m *MySQL) autoMigrateSchema() error {
	// 迁移时关闭SQL日志
	silentDB := m.db.Session(&gorm.Session{Logger: m.db.Logger.LogMode(logger.Silent)})
	if err := silentDB.AutoMigrate(
		&models.ProfileSubmission{},
		&models.OutboxMessage{},
	); err != nil {
		return fmt.Errorf("GORM自动迁移失败: %w", err)
	}
	return nil
}

// DB 返回GORM数据库连接实例
func (m *MySQL) DB() *gorm.DB {
	return m.db
}

// Close 关闭数据库连接
func (m *MySQL) Close() error {
	sqlDB, err := m.db.DB()
	if err != nil {
		return fmt.Errorf("获取底层 sql.DB 失败: %w", err)
	}
	return sqlDB.Close()
}

// Ping 检查连接是否可用
func (m *MySQL) Ping(ctx context.Context) error {
	sqlDB, err := m.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// CreateSubmission 写入一条新的提交记录
func (m *MySQL) CreateSubmission(ctx context.Context, submission *models.ProfileSubmission) error {
	if submission.ParserVersion == "" {
		submission.ParserVersion = constants.ParserVersion
	}
	if err := m.db.WithContext(ctx).Create(submission).Error; err != nil {
		return fmt.Errorf("创建提交记录 %s 失败: %w", submission.SubmissionUUID, err)
	}
	return nil
}

// GetSubmission 按UUID查询提交记录，不存在时返回 ErrSubmissionNotFound
func (m *MySQL) GetSubmission(ctx context.Context, submissionUUID string) (*models.ProfileSubmission, error) {
	var submission models.ProfileSubmission
	err := m.db.WithContext(ctx).First(&submission, "submission_uuid = ?", submissionUUID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrSubmissionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("查询提交记录 %s 失败: %w", submissionUUID, err)
	}
	return &submission, nil
}

// UpdateProcessingStatus 更新处理状态，errMsg 为空时清空已有错误信息
func (m *MySQL) UpdateProcessingStatus(ctx context.Context, submissionUUID, status, errMsg string) error {
	return m.db.WithContext(ctx).Model(&models.ProfileSubmission{}).
		Where("submission_uuid = ?", submissionUUID).
		Updates(map[string]interface{}{
			"processing_status": status,
			"error_message":     errMsg,
		}).Error
}

// SaveParsedProfile 在事务 tx 中写回解析结果并标记为已解析
func (m *MySQL) SaveParsedProfile(tx *gorm.DB, submissionUUID string, update ParsedProfileUpdate) error {
	result := tx.Model(&models.ProfileSubmission{}).
		Where("submission_uuid = ?", submissionUUID).
		Updates(map[string]interface{}{
			"parsed_text_path_oss": update.ParsedTextPathOSS,
			"record_path_oss":      update.RecordPathOSS,
			"parsed_text_md5":      update.ParsedTextMD5,
			"profile_record":       datatypes.JSON(update.ProfileRecord),
			"candidate_name":       update.CandidateName,
			"headline":             update.Headline,
			"location":             update.Location,
			"email":                update.Email,
			"processing_status":    constants.StatusParsed,
			"error_message":        "",
			"parser_version":       constants.ParserVersion,
		})
	if result.Error != nil {
		return fmt.Errorf("写回解析结果失败: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("%w: %s", ErrSubmissionNotFound, submissionUUID)
	}
	return nil
}

// CreateOutboxMessage 在事务 tx 中写入待发布消息
func (m *MySQL) CreateOutboxMessage(tx *gorm.DB, msg *models.OutboxMessage) error {
	if msg.Status == "" {
		msg.Status = constants.OutboxStatusPending
	}
	if err := tx.Create(msg).Error; err != nil {
		return fmt.Errorf("写入outbox消息失败: %w", err)
	}
	return nil
}

// SaveParsedWithEvent 在同一事务中写回解析结果并写入 outbox 事件，event 为 nil 时只写回结果
func (m *MySQL) SaveParsedWithEvent(ctx context.Context, submissionUUID string, update ParsedProfileUpdate, event *models.OutboxMessage) error {
	return m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := m.SaveParsedProfile(tx, submissionUUID, update); err != nil {
			return err
		}
		if event == nil {
			return nil
		}
		return m.CreateOutboxMessage(tx, event)
	})
}
