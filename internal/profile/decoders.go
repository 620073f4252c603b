package profile

import (
	"regexp"
	"strings"

	"github.com/codesandtags/linkedin-pdf-reader/internal/types"
)

var (
	// blockSeparator 空行分隔的经历块
	blockSeparator = regexp.MustCompile(`\n[ \t]*\n\s*`)

	// educationRecord 机构行 + 若干学位行 + 含 "· (...)" 的时间标记行
	educationRecord = regexp.MustCompile(`(?m)^([^\n]+)\n((?:[^\n]*\n)*?)([^\n]*?)·[ \t]*\(([^)\n]*)\)`)
)

// splitLines 按换行切分，裁剪每一行并丢弃空行
func splitLines(text string) []string {
	lines := make([]string, 0)
	for _, line := range strings.Split(text, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

// DecodeList 技能、荣誉、出版物: 每行一个条目
func DecodeList(region string) []string {
	return splitLines(Normalize(region))
}

// DecodeJoined 证书: 所有行用单个空格拼接
func DecodeJoined(region string) string {
	return strings.Join(splitLines(Normalize(region)), " ")
}

// DecodeParagraph 简介: 换行替换为空格。
// 调用方只在区域存在时调用，区域缺失时字段保持 nil，与"存在但为空"区分开
func DecodeParagraph(region string) *string {
	paragraph := strings.ReplaceAll(Normalize(region), "\n", " ")
	return &paragraph
}

// DecodeExperience 每个空行分隔的块依次对应 公司/职位/时长，
// 行数不足时缺失的字段为 nil，块本身不会被丢弃
func DecodeExperience(region string) []types.ExperienceEntry {
	entries := make([]types.ExperienceEntry, 0)
	normalized := Normalize(region)
	if normalized == "" {
		return entries
	}

	for _, block := range blockSeparator.Split(normalized, -1) {
		lines := splitLines(block)
		if len(lines) == 0 {
			continue
		}
		entry := types.ExperienceEntry{Company: lines[0]}
		if len(lines) > 1 {
			entry.Role = stringPtr(lines[1])
		}
		if len(lines) > 2 {
			entry.Duration = stringPtr(lines[2])
		}
		entries = append(entries, entry)
	}
	return entries
}

// DecodeEducation 从前往后重复匹配教育记录，找不到 "· (" 标记时返回空切片
func DecodeEducation(region string) []types.EducationEntry {
	entries := make([]types.EducationEntry, 0)
	for _, m := range educationRecord.FindAllStringSubmatch(Normalize(region), -1) {
		degreeLines := splitLines(m[2] + m[3])
		entries = append(entries, types.EducationEntry{
			Institution: strings.TrimSpace(m[1]),
			Degree:      strings.Join(degreeLines, " "),
			Duration:    strings.TrimSpace(m[4]),
		})
	}
	return entries
}

// DecodeLanguages 两行一组解析为 (语言, 水平)，末尾落单的一行水平为 nil
func DecodeLanguages(region string) []types.LanguageEntry {
	lines := splitLines(Normalize(region))
	entries := make([]types.LanguageEntry, 0, (len(lines)+1)/2)
	for i := 0; i < len(lines); i += 2 {
		entry := types.LanguageEntry{Language: lines[i]}
		if i+1 < len(lines) {
			entry.Level = stringPtr(lines[i+1])
		}
		entries = append(entries, entry)
	}
	return entries
}

// dropTrailingLines 去掉末尾 n 个有效行，空行和分页行不计数
func dropTrailingLines(text string, n int) string {
	lines := strings.Split(text, "\n")
	for n > 0 && len(lines) > 0 {
		last := strings.TrimSpace(lines[len(lines)-1])
		lines = lines[:len(lines)-1]
		if last != "" && !isPageInfoLine(last) {
			n--
		}
	}
	return strings.Join(lines, "\n")
}

func stringPtr(s string) *string {
	return &s
}
