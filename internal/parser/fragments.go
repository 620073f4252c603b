package parser

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// JoinFragments 把提取出的文本片段拼接为解析器的线性输入:
// 每个非空行经过NFC规范化后以 "\n" 结尾，空白行被丢弃
func JoinFragments(fragments []string) string {
	var b strings.Builder
	for _, fragment := range fragments {
		for _, line := range strings.Split(fragment, "\n") {
			line = strings.TrimRight(line, "\r")
			if strings.TrimSpace(line) == "" {
				continue
			}
			b.WriteString(norm.NFC.String(line))
			b.WriteByte('\n')
		}
	}
	return b.String()
}

// toMeta 把调用方传入的 options 转换为元数据 map
func toMeta(options interface{}) map[string]interface{} {
	if options == nil {
		return make(map[string]interface{})
	}
	if meta, ok := options.(map[string]interface{}); ok {
		copied := make(map[string]interface{}, len(meta))
		for k, v := range meta {
			copied[k] = v
		}
		return copied
	}
	return map[string]interface{}{"original_options": options}
}
