package profile

import (
	"regexp"
	"strings"

	"github.com/codesandtags/linkedin-pdf-reader/internal/types"
)

// DefaultHeaderAnchors 姓名/职位/所在地三行之后紧跟的标题
var DefaultHeaderAnchors = []string{"Summary"}

// LocalizedHeaderAnchors 同时识别西班牙语导出的锚点，通过 WithHeaderAnchors 或配置 header_anchors 启用
var LocalizedHeaderAnchors = []string{"Summary", "Extracto"}

// headerLines 锚点之前需要取回的行数: 姓名、职位、所在地
const headerLines = 3

type contactField struct {
	pattern *regexp.Regexp
	group   int
	assign  func(c *types.ContactInfo, v string)
}

// contactFields 按固定顺序声明，各字段互相独立
var contactFields = []contactField{
	{
		pattern: regexp.MustCompile(`Contact(ar)?\s*\n\s*(\+\d+\s+\d+\s+\d+)\s*\n`),
		group:   2,
		assign:  func(c *types.ContactInfo, v string) { c.Phone = &v },
	},
	{
		pattern: regexp.MustCompile(`(.*@.*\..*)\s*\n`),
		group:   1,
		assign:  func(c *types.ContactInfo, v string) { c.Email = &v },
	},
	{
		pattern: regexp.MustCompile(`(www\.linkedin\.com/in/.*)\s*\n`),
		group:   1,
		assign:  func(c *types.ContactInfo, v string) { c.LinkedIn = &v },
	},
	{
		pattern: regexp.MustCompile(`(www\..*/blog)\s*\n`),
		group:   1,
		assign:  func(c *types.ContactInfo, v string) { c.Blog = &v },
	},
	{
		pattern: regexp.MustCompile(`(www\..*/)\s*\n`),
		group:   1,
		assign:  func(c *types.ContactInfo, v string) { c.PersonalWebsite = &v },
	},
}

// ResolveContact 使用默认锚点解析联系方式
func ResolveContact(text string) types.ContactInfo {
	return resolveContact(text, DefaultHeaderAnchors)
}

func resolveContact(text string, anchors []string) types.ContactInfo {
	var contact types.ContactInfo
	for _, field := range contactFields {
		m := field.pattern.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		if v := strings.TrimSpace(m[field.group]); v != "" {
			field.assign(&contact, v)
		}
	}

	if header := resolveHeader(text, anchors); header != nil {
		contact.Name = header[0]
		contact.Title = header[1]
		contact.Location = header[2]
	}
	return contact
}

// resolveHeader 找到第一行等于锚点的位置，向前数三行 (跳过空行和分页行)。
// 找不到锚点时返回 nil; 锚点前不足三行时缺失的位置为 nil
func resolveHeader(text string, anchors []string) []*string {
	lines := strings.Split(text, "\n")
	anchorIdx := -1
	for i, line := range lines {
		if isAnchor(strings.TrimSpace(line), anchors) {
			anchorIdx = i
			break
		}
	}
	if anchorIdx < 0 {
		return nil
	}

	header := make([]*string, headerLines)
	slot := headerLines - 1
	for i := anchorIdx - 1; i >= 0 && slot >= 0; i-- {
		line := strings.TrimSpace(lines[i])
		if line == "" || isPageInfoLine(line) {
			continue
		}
		header[slot] = stringPtr(line)
		slot--
	}
	return header
}

func isAnchor(line string, anchors []string) bool {
	for _, a := range anchors {
		if line == a {
			return true
		}
	}
	return false
}
