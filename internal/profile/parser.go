package profile

import (
	"fmt"

	"github.com/codesandtags/linkedin-pdf-reader/internal/types"
)

// sectionDecoder 把一个章节区域写入记录中对应的字段
type sectionDecoder func(rec *types.ProfileRecord, region string)

var sectionDecoders = map[types.SectionType]sectionDecoder{
	types.SectionSkills: func(rec *types.ProfileRecord, region string) {
		rec.MainSkills = DecodeList(region)
	},
	types.SectionLanguages: func(rec *types.ProfileRecord, region string) {
		rec.Languages = DecodeLanguages(region)
	},
	types.SectionCertifications: func(rec *types.ProfileRecord, region string) {
		rec.Certifications = DecodeJoined(region)
	},
	types.SectionHonors: func(rec *types.ProfileRecord, region string) {
		rec.HonorsAwards = DecodeList(region)
	},
	types.SectionPublications: func(rec *types.ProfileRecord, region string) {
		rec.Publications = DecodeList(region)
	},
	types.SectionSummary: func(rec *types.ProfileRecord, region string) {
		rec.Summary = DecodeParagraph(region)
	},
	types.SectionExperience: func(rec *types.ProfileRecord, region string) {
		rec.Experience = DecodeExperience(region)
	},
	types.SectionEducation: func(rec *types.ProfileRecord, region string) {
		rec.Education = DecodeEducation(region)
	},
}

// IsKnownSection 判断章节ID是否有对应的解码器
func IsKnownSection(id types.SectionType) bool {
	_, ok := sectionDecoders[id]
	return ok
}

// Parser 持有编译好的章节表和页眉锚点。构造之后只读，可以被多个goroutine共享
type Parser struct {
	matchers []*sectionMatcher
	anchors  []string
}

// Option 配置 Parser
type Option func(*parserOptions)

type parserOptions struct {
	table   SectionTable
	anchors []string
}

// WithSectionTable 替换默认章节表，例如从配置文件加载额外语言的同义词
func WithSectionTable(table SectionTable) Option {
	return func(o *parserOptions) {
		if len(table) > 0 {
			o.table = table
		}
	}
}

// WithHeaderAnchors 替换姓名/职位/所在地之后的锚点标题
func WithHeaderAnchors(anchors ...string) Option {
	return func(o *parserOptions) {
		if len(anchors) > 0 {
			o.anchors = anchors
		}
	}
}

// NewParser 编译章节表。未知或重复的章节ID、缺少起止标题都会返回错误
func NewParser(opts ...Option) (*Parser, error) {
	o := &parserOptions{
		table:   DefaultSectionTable(),
		anchors: DefaultHeaderAnchors,
	}
	for _, opt := range opts {
		opt(o)
	}

	seen := make(map[types.SectionType]bool, len(o.table))
	matchers := make([]*sectionMatcher, 0, len(o.table))
	for _, spec := range o.table {
		if !IsKnownSection(spec.ID) {
			return nil, fmt.Errorf("未知的章节ID: %q", spec.ID)
		}
		if seen[spec.ID] {
			return nil, fmt.Errorf("章节ID重复: %q", spec.ID)
		}
		seen[spec.ID] = true

		m, err := newSectionMatcher(spec)
		if err != nil {
			return nil, err
		}
		matchers = append(matchers, m)
	}

	anchors := make([]string, len(o.anchors))
	copy(anchors, o.anchors)
	return &Parser{matchers: matchers, anchors: anchors}, nil
}

// LocateAll 按章节表顺序定位所有章节。
// 每次查找都从上一个区域的末尾开始，所以区域之间不会重叠且保持文档顺序。
// 以锚点结尾的侧栏区域会去掉末尾的姓名/职位/所在地三行
func (p *Parser) LocateAll(text string) map[types.SectionType]Region {
	regions := make(map[types.SectionType]Region, len(p.matchers))
	cursor := 0
	for _, m := range p.matchers {
		region, ok := m.locate(text[cursor:])
		if !ok {
			continue
		}
		region.Start += cursor
		region.End += cursor
		cursor = region.End

		if isAnchor(region.Terminator, p.anchors) {
			region.Text = dropTrailingLines(region.Text, headerLines)
		}
		regions[m.spec.ID] = region
	}
	return regions
}

// Assemble 在一份全新的默认记录上运行所有定位器和解码器。
// 缺失的章节只会让对应字段保持默认值
func (p *Parser) Assemble(text string) *types.ProfileRecord {
	rec := types.NewProfileRecord()
	rec.Contact = resolveContact(text, p.anchors)

	for id, region := range p.LocateAll(text) {
		sectionDecoders[id](rec, region.Text)
	}
	return rec
}

// ResolveContact 使用该 Parser 的锚点解析联系方式
func (p *Parser) ResolveContact(text string) types.ContactInfo {
	return resolveContact(text, p.anchors)
}

var defaultParser = mustNewParser()

func mustNewParser() *Parser {
	p, err := NewParser()
	if err != nil {
		panic(err)
	}
	return p
}

// DefaultParser 返回使用默认章节表和锚点的共享解析器，Parser 是只读的，可并发使用
func DefaultParser() *Parser {
	return defaultParser
}

// Assemble 使用默认章节表解析文本
func Assemble(text string) *types.ProfileRecord {
	return defaultParser.Assemble(text)
}
