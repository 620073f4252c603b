// Package profile 把档案PDF导出的线性文本切分为章节，并解码为结构化记录。
//
// 整个包是纯函数式的: 没有I/O，没有共享的可变状态，可以并发调用。
// 任何一个章节提取失败只会让该字段退化为默认值，不会返回错误。
package profile

import (
	"regexp"
	"strings"
)

// pageInfoPattern 匹配分页样板文字，例如 "Page 1 of 3"、"page2of3"
var pageInfoPattern = regexp.MustCompile(`(?i)page\s*\d+\s*of\s*\d+`)

// Normalize 去除所有分页样板文字并裁剪首尾空白。
// 删除一处样板后可能拼接出新的样板，所以循环直到没有匹配为止，保证幂等
func Normalize(text string) string {
	for pageInfoPattern.MatchString(text) {
		text = pageInfoPattern.ReplaceAllString(text, "")
	}
	return strings.TrimSpace(text)
}

// isPageInfoLine 判断一整行是否只是分页样板
func isPageInfoLine(line string) bool {
	return strings.TrimSpace(line) != "" && Normalize(line) == ""
}
