package processor

import (
	"context"
	"io"
	"time"

	"github.com/codesandtags/linkedin-pdf-reader/internal/storage"
	"github.com/codesandtags/linkedin-pdf-reader/internal/storage/models"
	"github.com/codesandtags/linkedin-pdf-reader/internal/types"
)

// PDFExtractor PDF提取器接口。返回的文本每个非空片段占一行，以换行结尾
type PDFExtractor interface {
	// ExtractFromFile 从PDF文件提取文本和元数据
	ExtractFromFile(ctx context.Context, filePath string) (string, map[string]interface{}, error)

	// ExtractTextFromReader 从io.Reader提取文本和元数据
	// uri 仅用于日志和元数据; options 为 map 时会合并进返回的元数据
	ExtractTextFromReader(ctx context.Context, reader io.Reader, uri string, options interface{}) (string, map[string]interface{}, error)

	// ExtractTextFromBytes 从字节数组提取文本和元数据
	ExtractTextFromBytes(ctx context.Context, data []byte, uri string, options interface{}) (string, map[string]interface{}, error)
}

// RecordExporter 把记录写到本地文件
type RecordExporter interface {
	Export(ctx context.Context, submissionUUID string, record *types.ProfileRecord) (string, error)
}

// ArtifactStore 保存原始文件和解析产物的对象存储
type ArtifactStore interface {
	UploadParsedText(ctx context.Context, submissionUUID, text string) (string, error)
	UploadRecordJSON(ctx context.Context, submissionUUID string, data []byte) (string, error)
	GetOriginal(ctx context.Context, objectKey string) ([]byte, error)
}

// SubmissionStore 提交记录的状态与解析结果
type SubmissionStore interface {
	UpdateProcessingStatus(ctx context.Context, submissionUUID, status, errMsg string) error
	SaveParsedWithEvent(ctx context.Context, submissionUUID string, update storage.ParsedProfileUpdate, event *models.OutboxMessage) error
}

// RecordCache 解析结果缓存
type RecordCache interface {
	CacheProfileRecord(ctx context.Context, submissionUUID string, recordJSON []byte, ttl time.Duration) error
}

var (
	_ ArtifactStore   = (*storage.MinIO)(nil)
	_ SubmissionStore = (*storage.MySQL)(nil)
	_ RecordCache     = (*storage.Redis)(nil)
)
