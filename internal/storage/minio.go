package storage

import (
	"bytes"
	"context"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"io"
	"log"
	"path"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/minio/minio-go/v7/pkg/lifecycle"

	"github.com/codesandtags/linkedin-pdf-reader/internal/config"
)

// ObjectStorage 档案相关的对象存储操作
type ObjectStorage interface {
	// UploadOriginal 流式上传原始PDF并同时计算MD5，返回对象键和MD5
	UploadOriginal(ctx context.Context, submissionUUID, fileExt string, reader io.Reader, fileSize int64) (string, string, error)
	// UploadParsedText 上传提取出的线性文本
	UploadParsedText(ctx context.Context, submissionUUID, text string) (string, error)
	// UploadRecordJSON 上传结构化记录
	UploadRecordJSON(ctx context.Context, submissionUUID string, data []byte) (string, error)
	// GetOriginal 读取原始PDF
	GetOriginal(ctx context.Context, objectKey string) ([]byte, error)
	// GetParsedObject 读取解析桶中的对象
	GetParsedObject(ctx context.Context, objectKey string) ([]byte, error)
	// DeleteOriginal 删除原始PDF
	DeleteOriginal(ctx context.Context, objectKey string) error
}

var _ ObjectStorage = (*MinIO)(nil)

// MinIO 原始PDF和解析产物的对象存储
type MinIO struct {
	client         *minio.Client
	cfg            *config.MinIOConfig
	originalBucket string
	parsedBucket   string
	logger         *log.Logger
}

// 对象键: profile/<uuid>/original.pdf, profile/<uuid>/parsed_text.txt, profile/<uuid>/record.json
func originalObjectKey(submissionUUID, fileExt string) string {
	return path.Join("profile", submissionUUID, "original"+strings.ToLower(fileExt))
}

func parsedTextObjectKey(submissionUUID string) string {
	return path.Join("profile", submissionUUID, "parsed_text.txt")
}

func recordObjectKey(submissionUUID string) string {
	return path.Join("profile", submissionUUID, "record.json")
}

// NewMinIO 创建MinIO客户端，确保两个存储桶存在并设置生命周期
func NewMinIO(ctx context.Context, cfg *config.MinIOConfig, logger *log.Logger) (*MinIO, error) {
	if cfg == nil {
		return nil, fmt.Errorf("MinIO配置不能为空")
	}
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}

	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("创建MinIO客户端失败: %w", err)
	}

	m := &MinIO{
		client:         client,
		cfg:            cfg,
		originalBucket: cfg.OriginalsBucket,
		parsedBucket:   cfg.ParsedBucket,
		logger:         logger,
	}
	if m.originalBucket == "" {
		m.originalBucket = "profile-originals"
	}
	if m.parsedBucket == "" {
		m.parsedBucket = "profile-parsed"
	}

	for _, bucket := range []string{m.originalBucket, m.parsedBucket} {
		if err := m.ensureBucketExists(ctx, bucket, cfg.Location); err != nil {
			return nil, err
		}
	}

	if err := m.setupLifecycleRules(ctx); err != nil {
		logger.Printf("[MinIO] Warning: Failed to set up lifecycle rules: %v", err)
	}

	logger.Printf("[MinIO] Client initialized for endpoint %s (originals=%s, parsed=%s)", cfg.Endpoint, m.originalBucket, m.parsedBucket)
	return m, nil
}

func (m *MinIO) ensureBucketExists(ctx context.Context, bucketName, location string) error {
	exists, err := m.client.BucketExists(ctx, bucketName)
	if err != nil {
		return fmt.Errorf("检查存储桶 %s 是否存在时出错: %w", bucketName, err)
	}
	if exists {
		return nil
	}
	if err := m.client.MakeBucket(ctx, bucketName, minio.MakeBucketOptions{Region: location}); err != nil {
		return fmt.Errorf("创建存储桶 %s 失败: %w", bucketName, err)
	}
	m.logger.Printf("[MinIO] Bucket %s created.", bucketName)
	return nil
}

func (m *MinIO) setupLifecycleRules(ctx context.Context) error {
	rules := []struct {
		bucket string
		id     string
		days   int
	}{
		{m.originalBucket, "expire-originals", m.cfg.OriginalFileExpireDays},
		{m.parsedBucket, "expire-parsed", m.cfg.ParsedExpireDays},
	}
	for _, rule := range rules {
		if rule.days <= 0 {
			continue
		}
		if err := m.client.SetBucketLifecycle(ctx, rule.bucket, expirationConfig(rule.id, rule.days)); err != nil {
			return fmt.Errorf("为存储桶 %s 设置生命周期失败: %w", rule.bucket, err)
		}
	}
	return nil
}

// expirationConfig 对象在 days 天后过期
func expirationConfig(ruleID string, days int) *lifecycle.Configuration {
	cfg := lifecycle.NewConfiguration()
	cfg.Rules = []lifecycle.Rule{
		{
			ID:     ruleID,
			Status: "Enabled",
			Expiration: lifecycle.Expiration{
				Days: lifecycle.ExpirationDays(days),
			},
		},
	}
	return cfg
}

// UploadOriginal 流式上传原始文件并计算MD5
func (m *MinIO) UploadOriginal(ctx context.Context, submissionUUID, fileExt string, reader io.Reader, fileSize int64) (string, string, error) {
	objectKey := originalObjectKey(submissionUUID, fileExt)

	hash := md5.New()
	info, err := m.client.PutObject(ctx, m.originalBucket, objectKey, io.TeeReader(reader, hash),
		fileSize, minio.PutObjectOptions{ContentType: getContentType(fileExt)})
	if err != nil {
		return "", "", fmt.Errorf("流式上传文件到MinIO失败: %w", err)
	}

	md5Hex := hex.EncodeToString(hash.Sum(nil))
	m.logger.Printf("[MinIO] Uploaded %s/%s, size=%d, md5=%s", m.originalBucket, objectKey, info.Size, md5Hex)
	return objectKey, md5Hex, nil
}

// UploadParsedText 上传提取出的文本
func (m *MinIO) UploadParsedText(ctx context.Context, submissionUUID, text string) (string, error) {
	objectKey := parsedTextObjectKey(submissionUUID)
	if err := m.putParsed(ctx, objectKey, []byte(text), "text/plain; charset=utf-8"); err != nil {
		return "", err
	}
	return objectKey, nil
}

// UploadRecordJSON 上传结构化记录
func (m *MinIO) UploadRecordJSON(ctx context.Context, submissionUUID string, data []byte) (string, error) {
	objectKey := recordObjectKey(submissionUUID)
	if err := m.putParsed(ctx, objectKey, data, "application/json"); err != nil {
		return "", err
	}
	return objectKey, nil
}

func (m *MinIO) putParsed(ctx context.Context, objectKey string, data []byte, contentType string) error {
	_, err := m.client.PutObject(ctx, m.parsedBucket, objectKey, bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return fmt.Errorf("上传 %s 到存储桶 %s 失败: %w", objectKey, m.parsedBucket, err)
	}
	return nil
}

// GetOriginal 读取原始文件
func (m *MinIO) GetOriginal(ctx context.Context, objectKey string) ([]byte, error) {
	return m.download(ctx, m.originalBucket, objectKey)
}

// GetParsedObject 读取解析桶中的对象
func (m *MinIO) GetParsedObject(ctx context.Context, objectKey string) ([]byte, error) {
	return m.download(ctx, m.parsedBucket, objectKey)
}

func (m *MinIO) download(ctx context.Context, bucket, objectKey string) ([]byte, error) {
	obj, err := m.client.GetObject(ctx, bucket, objectKey, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("获取对象 %s/%s 失败: %w", bucket, objectKey, err)
	}
	defer obj.Close()

	// GetObject 是惰性的，Stat 才能发现对象不存在
	if _, err := obj.Stat(); err != nil {
		return nil, fmt.Errorf("获取对象 %s/%s 状态失败: %w", bucket, objectKey, err)
	}
	data, err := io.ReadAll(obj)
	if err != nil {
		return nil, fmt.Errorf("读取对象 %s/%s 数据失败: %w", bucket, objectKey, err)
	}
	return data, nil
}

// DeleteOriginal 删除原始文件
func (m *MinIO) DeleteOriginal(ctx context.Context, objectKey string) error {
	if err := m.client.RemoveObject(ctx, m.originalBucket, objectKey, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("删除对象 %s 失败: %w", objectKey, err)
	}
	return nil
}

func getContentType(ext string) string {
	switch strings.ToLower(ext) {
	case ".pdf":
		return "application/pdf"
	case ".txt":
		return "text/plain"
	case ".json":
		return "application/json"
	default:
		return "application/octet-stream"
	}
}
