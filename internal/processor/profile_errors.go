package processor

import (
	"errors"
	"fmt"
)

// 定义基础错误类型
var (
	ErrDownloadFailed     = errors.New("下载原始文件失败")
	ErrExtractFailed      = errors.New("提取档案文本失败")
	ErrStoreFailed        = errors.New("保存解析结果失败")
	ErrDatabaseFailed     = errors.New("数据库操作失败")
	ErrUpdateStatusFailed = errors.New("更新处理状态失败")
	ErrNotConfigured      = errors.New("所需组件未配置")
)

// ProfileProcessError 包含详细错误信息的自定义错误
type ProfileProcessError struct {
	SubmissionUUID string
	Op             string
	BaseErr        error
	Detail         string
}

func (e *ProfileProcessError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s (操作:%s, UUID:%s): %s", e.BaseErr, e.Op, e.SubmissionUUID, e.Detail)
	}
	return fmt.Sprintf("%s (操作:%s, UUID:%s)", e.BaseErr, e.Op, e.SubmissionUUID)
}

func (e *ProfileProcessError) Unwrap() error {
	return e.BaseErr
}

// Is 实现 errors.Is 接口以支持错误比较
func (e *ProfileProcessError) Is(target error) bool {
	return errors.Is(e.BaseErr, target)
}

func newProcessError(uuid, op string, base error, detail string) error {
	return &ProfileProcessError{
		SubmissionUUID: uuid,
		Op:             op,
		BaseErr:        base,
		Detail:         detail,
	}
}

// NewDownloadError 从对象存储读取原始文件失败
func NewDownloadError(uuid, detail string) error {
	return newProcessError(uuid, "download", ErrDownloadFailed, detail)
}

// NewExtractError PDF文本提取失败
func NewExtractError(uuid, detail string) error {
	return newProcessError(uuid, "extract", ErrExtractFailed, detail)
}

// NewStoreError 本地导出或对象存储写入失败
func NewStoreError(uuid, detail string) error {
	return newProcessError(uuid, "store", ErrStoreFailed, detail)
}

// NewDatabaseError 写回结果的事务失败
func NewDatabaseError(uuid, detail string) error {
	return newProcessError(uuid, "database", ErrDatabaseFailed, detail)
}

// NewUpdateError 状态更新失败
func NewUpdateError(uuid, detail string) error {
	return newProcessError(uuid, "update", ErrUpdateStatusFailed, detail)
}
