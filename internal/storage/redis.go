package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/extra/redisotel/v9"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/codesandtags/linkedin-pdf-reader/internal/config"
	"github.com/codesandtags/linkedin-pdf-reader/internal/constants"
	"github.com/codesandtags/linkedin-pdf-reader/internal/tracing"
)

// ErrNotFound 键不存在
var ErrNotFound = redis.Nil

var redisTracer = otel.Tracer("linkedin-pdf-reader/storage/redis")

// checkAndSetMD5Script 原子地检查MD5是否已存在；不存在时登记 md5 -> uuid 映射。
// 返回 {0, ""} 表示新文件，{1, uuid} 表示重复
const checkAndSetMD5Script = `
local exists = redis.call('SISMEMBER', KEYS[1], ARGV[1])
if exists == 1 then
	local owner = redis.call('GET', KEYS[2])
	if not owner then owner = '' end
	return {1, owner}
end
redis.call('SADD', KEYS[1], ARGV[1])
redis.call('EXPIRE', KEYS[1], ARGV[3])
redis.call('SET', KEYS[2], ARGV[2], 'EX', ARGV[3])
return {0, ''}
`

// Redis 上传去重和结果缓存
type Redis struct {
	Client *redis.Client
	config *config.RedisConfig
}

// NewRedisAdapter 创建Redis客户端并接入OpenTelemetry
func NewRedisAdapter(cfg *config.RedisConfig) (*Redis, error) {
	if cfg == nil {
		return nil, fmt.Errorf("redis config cannot be nil")
	}
	if cfg.Address == "" {
		return nil, fmt.Errorf("redis address is required")
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,

		PoolSize:     cfg.PoolSize,
		MinIdleConns: cfg.MinIdleConns,

		DialTimeout:  time.Duration(cfg.DialTimeoutSeconds) * time.Second,
		ReadTimeout:  time.Duration(cfg.ReadTimeoutSeconds) * time.Second,
		WriteTimeout: time.Duration(cfg.WriteTimeoutSeconds) * time.Second,

		MaxRetries:      cfg.MaxRetries,
		MinRetryBackoff: time.Duration(cfg.MinRetryBackoffMS) * time.Millisecond,
		MaxRetryBackoff: time.Duration(cfg.MaxRetryBackoffMS) * time.Millisecond,
	})

	if err := redisotel.InstrumentTracing(client); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to instrument Redis with OpenTelemetry: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", cfg.Address, err)
	}

	return &Redis{Client: client, config: cfg}, nil
}

// Close closes the Redis client connection
func (r *Redis) Close() error {
	if r.Client != nil {
		return r.Client.Close()
	}
	return nil
}

// Ping checks the Redis connection
func (r *Redis) Ping(ctx context.Context) error {
	if r.Client == nil {
		return fmt.Errorf("redis client is not initialized")
	}
	return r.Client.Ping(ctx).Err()
}

// GetMD5ExpireDuration 返回MD5记录的过期时间，未配置时为1年
func (r *Redis) GetMD5ExpireDuration() time.Duration {
	days := r.config.MD5RecordExpireDays
	if days <= 0 {
		days = 365
	}
	return time.Duration(days) * 24 * time.Hour
}

func (r *Redis) startSpan(ctx context.Context, name, operation, key string) (context.Context, trace.Span) {
	ctx, span := redisTracer.Start(ctx, name, trace.WithSpanKind(trace.SpanKindClient))
	span.SetAttributes(
		semconv.DBSystemRedis,
		attribute.Int("db.redis.database_index", r.config.DB),
		attribute.String("net.peer.name", r.config.Address),
		attribute.String("db.operation", operation),
		attribute.String("db.redis.key", tracing.SafeRedisKey(key)),
	)
	return ctx, span
}

// CheckAndSetFileMD5 原子地登记上传文件的MD5。
// 已存在时返回 exists=true 以及第一次提交的UUID
func (r *Redis) CheckAndSetFileMD5(ctx context.Context, md5Hex, submissionUUID string) (exists bool, existingUUID string, err error) {
	ctx, span := r.startSpan(ctx, "Redis.CheckAndSetFileMD5", "EVAL", constants.KeyFileMD5Set)
	defer span.End()

	if r.Client == nil {
		err = fmt.Errorf("redis client is not initialized")
		tracing.RecordError(span, err, tracing.ErrorTypeRedis)
		return false, "", err
	}

	mapKey := fmt.Sprintf(constants.KeyFileMD5ToSubmissionUUID, md5Hex)
	expiry := int64(r.GetMD5ExpireDuration().Seconds())
	res, err := r.Client.Eval(ctx, checkAndSetMD5Script, []string{constants.KeyFileMD5Set, mapKey}, md5Hex, submissionUUID, expiry).Result()
	if err != nil {
		tracing.RecordError(span, err, tracing.ErrorTypeRedis)
		return false, "", fmt.Errorf("执行原子检查和添加MD5操作失败: %w", err)
	}

	values, ok := res.([]interface{})
	if !ok || len(values) != 2 {
		err = fmt.Errorf("意外的Redis返回类型: %T", res)
		tracing.RecordError(span, err, tracing.ErrorTypeRedis)
		return false, "", err
	}
	flag, _ := values[0].(int64)
	owner, _ := values[1].(string)

	exists = flag == 1
	span.SetAttributes(attribute.Bool("already_exists", exists))
	span.SetStatus(codes.Ok, "")
	return exists, owner, nil
}

// RemoveFileMD5 移除MD5登记，用于上传失败后的回滚
func (r *Redis) RemoveFileMD5(ctx context.Context, md5Hex string) error {
	ctx, span := r.startSpan(ctx, "Redis.RemoveFileMD5", "SREM", constants.KeyFileMD5Set)
	defer span.End()

	pipe := r.Client.TxPipeline()
	pipe.SRem(ctx, constants.KeyFileMD5Set, md5Hex)
	pipe.Del(ctx, fmt.Sprintf(constants.KeyFileMD5ToSubmissionUUID, md5Hex))
	if _, err := pipe.Exec(ctx); err != nil {
		tracing.RecordError(span, err, tracing.ErrorTypeRedis)
		return fmt.Errorf("移除MD5 %s 失败: %w", md5Hex, err)
	}
	return nil
}

// CacheProfileRecord 缓存解析结果JSON
func (r *Redis) CacheProfileRecord(ctx context.Context, submissionUUID string, recordJSON []byte, ttl time.Duration) error {
	key := fmt.Sprintf(constants.KeyProfileRecord, submissionUUID)
	return r.Client.Set(ctx, key, recordJSON, ttl).Err()
}

// GetCachedProfileRecord 读取缓存的解析结果，未命中时返回 ErrNotFound
func (r *Redis) GetCachedProfileRecord(ctx context.Context, submissionUUID string) ([]byte, error) {
	key := fmt.Sprintf(constants.KeyProfileRecord, submissionUUID)
	data, err := r.Client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	return data, err
}
