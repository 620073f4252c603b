package types

// SectionType 表示档案中一个带标题的章节
type SectionType string

const (
	// SectionSkills 核心技能 (Top Skills / Aptitudes principales)
	SectionSkills SectionType = "skills"
	// SectionLanguages 语言能力
	SectionLanguages SectionType = "languages"
	// SectionCertifications 证书
	SectionCertifications SectionType = "certifications"
	// SectionHonors 荣誉奖项
	SectionHonors SectionType = "honors"
	// SectionPublications 出版物
	SectionPublications SectionType = "publications"
	// SectionSummary 个人简介
	SectionSummary SectionType = "summary"
	// SectionExperience 工作经历
	SectionExperience SectionType = "experience"
	// SectionEducation 教育经历
	SectionEducation SectionType = "education"
)

// ContactInfo 联系方式。所有字段独立可选，nil 表示未找到
type ContactInfo struct {
	Phone           *string `json:"phone"`
	Email           *string `json:"email"`
	LinkedIn        *string `json:"linkedin"`
	Blog            *string `json:"blog"`
	PersonalWebsite *string `json:"personalWebsite"`
	Name            *string `json:"name"`
	Title           *string `json:"title"`
	Location        *string `json:"location"`
}

// LanguageEntry 语言及熟练程度，末尾落单的语言 Level 为 nil
type LanguageEntry struct {
	Language string  `json:"language"`
	Level    *string `json:"level"`
}

// ExperienceEntry 一段工作经历
type ExperienceEntry struct {
	Company  string  `json:"company"`
	Role     *string `json:"role"`
	Duration *string `json:"duration"`
}

// EducationEntry 一段教育经历
type EducationEntry struct {
	Institution string `json:"institution"`
	Degree      string `json:"degree"`
	Duration    string `json:"duration"`
}

// ProfileRecord 从档案PDF文本中提取出的完整结构化记录
type ProfileRecord struct {
	Contact        ContactInfo       `json:"contact"`
	Languages      []LanguageEntry   `json:"languages"`
	HonorsAwards   []string          `json:"honorsAwards"`
	Publications   []string          `json:"publications"`
	MainSkills     []string          `json:"mainSkills"`
	Certifications string            `json:"certifications"`
	Summary        *string           `json:"summary"`
	Experience     []ExperienceEntry `json:"experience"`
	Education      []EducationEntry  `json:"education"`
}

// NewProfileRecord 返回一份全新的默认记录: 序列为空切片, 标量为 nil。
// 每次调用都构造新值，不同文档之间不共享状态
func NewProfileRecord() *ProfileRecord {
	return &ProfileRecord{
		Languages:    []LanguageEntry{},
		HonorsAwards: []string{},
		Publications: []string{},
		MainSkills:   []string{},
		Experience:   []ExperienceEntry{},
		Education:    []EducationEntry{},
	}
}
