package utils

import (
	"crypto/md5"
	"encoding/hex"
	"path/filepath"
	"strings"
	"time"
)

// StringValue 解引用，nil 时返回空串
func StringValue(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// TimePtr returns a pointer to a time.Time object
func TimePtr(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}

// CalculateMD5 computes the MD5 hash of a byte slice.
func CalculateMD5(data []byte) string {
	sum := md5.Sum(data)
	return hex.EncodeToString(sum[:])
}

// FileExt 返回小写的扩展名(含点)，没有扩展名时返回空串
func FileExt(filename string) string {
	return strings.ToLower(filepath.Ext(filename))
}
