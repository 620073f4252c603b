// Package export 把结构化档案记录写到本地文件
package export

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/codesandtags/linkedin-pdf-reader/internal/config"
	"github.com/codesandtags/linkedin-pdf-reader/internal/types"
)

// JSONExporter 以缩进JSON写出记录。
// 配置了固定文件名时每次覆盖同一个文件，否则按提交ID命名
type JSONExporter struct {
	dir      string
	filename string
	indent   string
}

// NewJSONExporter 根据导出配置创建导出器
func NewJSONExporter(cfg config.ExportConfig) *JSONExporter {
	return &JSONExporter{
		dir:      cfg.Dir,
		filename: cfg.Filename,
		indent:   cfg.Indent,
	}
}

// Path 返回提交ID对应的输出路径
func (e *JSONExporter) Path(submissionUUID string) string {
	name := e.filename
	if name == "" {
		name = submissionUUID + ".json"
	}
	return filepath.Join(e.dir, name)
}

// Export 写出记录并返回文件路径。先写临时文件再重命名，读者不会看到写了一半的文件
func (e *JSONExporter) Export(ctx context.Context, submissionUUID string, record *types.ProfileRecord) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	data, err := e.Marshal(record)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(e.dir, 0755); err != nil {
		return "", fmt.Errorf("创建导出目录 %s 失败: %w", e.dir, err)
	}

	target := e.Path(submissionUUID)
	tmp, err := os.CreateTemp(e.dir, ".profile-*.json")
	if err != nil {
		return "", fmt.Errorf("创建临时文件失败: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return "", fmt.Errorf("写入临时文件失败: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("关闭临时文件失败: %w", err)
	}
	if err := os.Rename(tmp.Name(), target); err != nil {
		return "", fmt.Errorf("写入 %s 失败: %w", target, err)
	}
	return target, nil
}

// Marshal 按导出器的缩进序列化记录
func (e *JSONExporter) Marshal(record *types.ProfileRecord) ([]byte, error) {
	if record == nil {
		record = types.NewProfileRecord()
	}
	var (
		data []byte
		err  error
	)
	if e.indent == "" {
		data, err = json.Marshal(record)
	} else {
		data, err = json.MarshalIndent(record, "", e.indent)
	}
	if err != nil {
		return nil, fmt.Errorf("序列化档案记录失败: %w", err)
	}
	return append(data, '\n'), nil
}
