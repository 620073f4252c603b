package profile

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/codesandtags/linkedin-pdf-reader/internal/types"
)

// SectionSpec 描述一个章节的起止标题同义词
type SectionSpec struct {
	ID       types.SectionType `yaml:"id" validate:"required"`
	Start    []string          `yaml:"start" validate:"required,min=1,dive,required"`
	End      []string          `yaml:"end,omitempty" validate:"dive,required"`
	UntilEnd bool              `yaml:"until_end,omitempty"` // 没有结束标题时，区域延伸到文本末尾
}

// SectionTable 按文档顺序排列的章节表。新增语言只需要追加同义词
type SectionTable []SectionSpec

// DefaultSectionTable 返回英语/西班牙语的默认章节表，每次调用都返回新的副本
func DefaultSectionTable() SectionTable {
	return SectionTable{
		{
			ID:    types.SectionSkills,
			Start: []string{"Top Skills", "Aptitudes principales"},
			End: []string{
				"Languages", "Idiomas", "Certifications", "Certificaciones",
				"Honors-Awards", "Honores y premios", "Publications", "Publicaciones",
				"Summary", "Extracto",
			},
		},
		{
			ID:    types.SectionLanguages,
			Start: []string{"Languages", "Idiomas"},
			End: []string{
				"Certifications", "Certificaciones", "Honors-Awards", "Honores y premios",
				"Publications", "Publicaciones", "Summary", "Extracto",
			},
		},
		{
			ID:    types.SectionCertifications,
			Start: []string{"Certifications", "Certificaciones"},
			End: []string{
				"Honors-Awards", "Honores y premios", "Publications", "Publicaciones",
				"Summary", "Extracto", "Experience", "Experiencia",
			},
		},
		{
			ID:    types.SectionHonors,
			Start: []string{"Honors-Awards", "Honores y premios"},
			End: []string{
				"Publications", "Publicaciones", "Summary", "Extracto", "Experience", "Experiencia",
			},
		},
		{
			ID:    types.SectionPublications,
			Start: []string{"Publications", "Publicaciones"},
			End:   []string{"Summary", "Extracto", "Experience", "Experiencia"},
		},
		{
			ID:    types.SectionSummary,
			Start: []string{"Summary", "Extracto"},
			End:   []string{"Technical Skills", "Habilidades técnicas", "Experience", "Experiencia"},
		},
		{
			ID:    types.SectionExperience,
			Start: []string{"Experience", "Experiencia"},
			End:   []string{"Education", "Educación"},
		},
		{
			ID:       types.SectionEducation,
			Start:    []string{"Education", "Educación"},
			UntilEnd: true,
		},
	}
}

// Region 是定位到的章节内容，不包含起止标题
type Region struct {
	Text string
	// Start/End 是内容在被搜索文本中的字节偏移
	Start int
	End   int
	// Terminator 是命中的结束标题，延伸到文本末尾时为空
	Terminator string
}

// sectionMatcher 是编译好的单个章节定位器，只读，可并发使用
type sectionMatcher struct {
	spec    SectionSpec
	pattern *regexp.Regexp
}

func newSectionMatcher(spec SectionSpec) (*sectionMatcher, error) {
	if len(spec.Start) == 0 {
		return nil, fmt.Errorf("章节 %q 缺少起始标题", spec.ID)
	}
	if len(spec.End) == 0 && !spec.UntilEnd {
		return nil, fmt.Errorf("章节 %q 既没有结束标题也没有设置 until_end", spec.ID)
	}
	pattern, err := regexp.Compile(buildSectionPattern(spec.Start, spec.End, spec.UntilEnd))
	if err != nil {
		return nil, fmt.Errorf("编译章节 %q 的匹配模式失败: %w", spec.ID, err)
	}
	return &sectionMatcher{spec: spec, pattern: pattern}, nil
}

// buildSectionPattern 起始标题必须独占一行; 内容非贪婪匹配到下一个独占一行的结束标题
func buildSectionPattern(start, end []string, untilEnd bool) string {
	var b strings.Builder
	b.WriteString(`(?m)^(?:`)
	b.WriteString(alternation(start))
	b.WriteString(`)\s*\n\s*([\s\S]*?)`)

	var tails []string
	if len(end) > 0 {
		tails = append(tails, `\s*\n(`+alternation(end)+`)[ \t]*(?:\n|\z)`)
	}
	if untilEnd {
		tails = append(tails, `\s*\z`)
	}
	b.WriteString(`(?:`)
	b.WriteString(strings.Join(tails, "|"))
	b.WriteString(`)`)
	return b.String()
}

func alternation(words []string) string {
	quoted := make([]string, 0, len(words))
	for _, w := range words {
		quoted = append(quoted, regexp.QuoteMeta(w))
	}
	return strings.Join(quoted, "|")
}

// locate 在 text 中查找该章节
func (m *sectionMatcher) locate(text string) (Region, bool) {
	idx := m.pattern.FindStringSubmatchIndex(text)
	if idx == nil {
		return Region{}, false
	}
	region := Region{
		Text:  text[idx[2]:idx[3]],
		Start: idx[2],
		End:   idx[3],
	}
	if len(idx) > 4 && idx[4] >= 0 {
		region.Terminator = text[idx[4]:idx[5]]
	}
	return region, true
}

// Locate 返回第一个起始标题与其后最近的结束标题之间的内容。
// 找不到任何起止组合时返回 false，调用方应当使用默认值而不是当作错误
func Locate(text string, start, end []string) (Region, bool) {
	m, err := newSectionMatcher(SectionSpec{Start: start, End: end})
	if err != nil {
		return Region{}, false
	}
	return m.locate(text)
}
