package profile

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codesandtags/linkedin-pdf-reader/internal/types"
)

func loadFixture(t *testing.T, name string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("testdata", name))
	require.NoError(t, err, "读取测试数据失败")
	return string(data)
}

func TestAssembleEnglishProfile(t *testing.T) {
	rec := Assemble(loadFixture(t, "profile_en.txt"))

	require.NotNil(t, rec.Contact.Name)
	assert.Equal(t, "John Doe", *rec.Contact.Name)
	assert.Equal(t, "Senior Software Engineer", *rec.Contact.Title)
	assert.Equal(t, "Bogotá, Colombia", *rec.Contact.Location)
	require.NotNil(t, rec.Contact.Phone)
	assert.Equal(t, "+57 300 1234567", *rec.Contact.Phone)
	assert.Equal(t, "john.doe@example.com", *rec.Contact.Email)

	assert.Equal(t, []string{"Go", "Kubernetes", "PostgreSQL"}, rec.MainSkills)
	require.Len(t, rec.Languages, 2)
	assert.Equal(t, "English", rec.Languages[0].Language)
	assert.Equal(t, "Native or Bilingual", *rec.Languages[0].Level)
	assert.Equal(t, "Professional Working", *rec.Languages[1].Level)
	assert.Equal(t, "AWS Solutions Architect CKA", rec.Certifications)
	assert.Equal(t, []string{"Hackathon Winner"}, rec.HonorsAwards)
	assert.Equal(t, []string{"Scaling Go Services"}, rec.Publications, "姓名/职位/所在地不应混入侧栏")

	require.NotNil(t, rec.Summary)
	assert.Equal(t, "Engineer focused on distributed systems.", *rec.Summary)

	require.Len(t, rec.Experience, 2)
	assert.Equal(t, "Acme Corp", rec.Experience[0].Company)
	assert.Equal(t, "Staff Engineer", *rec.Experience[0].Role)
	assert.Equal(t, "January 2020 - Present (4 years)", *rec.Experience[0].Duration)
	assert.Equal(t, "2017 - 2019", *rec.Experience[1].Duration, "分页文字应当被去掉")

	assert.Equal(t, []types.EducationEntry{{
		Institution: "Universidad Nacional",
		Degree:      "Systems Engineering",
		Duration:    "2010 - 2015",
	}}, rec.Education)
}

func TestAssembleSpanishProfile(t *testing.T) {
	p, err := NewParser(WithHeaderAnchors(LocalizedHeaderAnchors...))
	require.NoError(t, err)
	rec := p.Assemble(loadFixture(t, "profile_es.txt"))

	require.NotNil(t, rec.Contact.Name)
	assert.Equal(t, "María García", *rec.Contact.Name)
	assert.Equal(t, "Madrid, España", *rec.Contact.Location)
	require.NotNil(t, rec.Contact.Phone)
	assert.Equal(t, "+34 600 123456", *rec.Contact.Phone)
	assert.Nil(t, rec.Contact.Blog)
	assert.Nil(t, rec.Contact.PersonalWebsite)

	assert.Equal(t, []string{"Python", "Liderazgo"}, rec.MainSkills)
	require.Len(t, rec.Languages, 2)
	assert.Equal(t, "Inglés", rec.Languages[1].Language)
	assert.Nil(t, rec.Languages[1].Level)
	assert.Equal(t, "Scrum Master", rec.Certifications)
	assert.Empty(t, rec.HonorsAwards)
	assert.Empty(t, rec.Publications)

	require.NotNil(t, rec.Summary)
	assert.Equal(t, "Datos y plataformas.", *rec.Summary)
	require.Len(t, rec.Experience, 1)
	assert.Equal(t, "Telefónica", rec.Experience[0].Company)
	require.Len(t, rec.Education, 1)
	assert.Equal(t, "Máster, Ciencia de datos", rec.Education[0].Degree)
}

func TestAssembleSpanishProfileDefaultAnchors(t *testing.T) {
	rec := Assemble(loadFixture(t, "profile_es.txt"))

	// 默认锚点只有 Summary，姓名/职位/所在地缺失，其他字段照常解析
	assert.Nil(t, rec.Contact.Name)
	assert.Nil(t, rec.Contact.Title)
	assert.Nil(t, rec.Contact.Location)
	require.NotNil(t, rec.Contact.Email)
	assert.Equal(t, "maria@example.es", *rec.Contact.Email)
	require.NotNil(t, rec.Summary)
	assert.Equal(t, "Datos y plataformas.", *rec.Summary)
	require.Len(t, rec.Experience, 1)
}

func TestAssembleEmptyInput(t *testing.T) {
	rec := Assemble("")
	assert.Equal(t, types.NewProfileRecord(), rec)

	data, err := json.Marshal(rec)
	require.NoError(t, err)
	out := string(data)
	for _, key := range []string{`"languages":[]`, `"honorsAwards":[]`, `"publications":[]`, `"mainSkills":[]`, `"experience":[]`, `"education":[]`} {
		assert.Contains(t, out, key)
	}
	assert.Contains(t, out, `"summary":null`)
	assert.Contains(t, out, `"certifications":""`)
	assert.Contains(t, out, `"name":null`)
}

func TestAssembleAbsentSectionKeepsDefault(t *testing.T) {
	rec := Assemble("Top Skills\nGo\nRust\nJohn Doe\nEngineer\nBogotá\nSummary\nHello\nExperience\nAcme\nEngineer\n2020\nEducation\n")

	assert.Equal(t, []string{"Go", "Rust"}, rec.MainSkills)
	assert.Empty(t, rec.Languages)
	assert.Equal(t, "", rec.Certifications)
	assert.NotNil(t, rec.HonorsAwards)
	assert.Empty(t, rec.Education)
	require.Len(t, rec.Experience, 1)
}

func TestAssembleWithoutSummary(t *testing.T) {
	rec := Assemble("Contact\njohn@example.com\nExperience\nAcme\nEngineer\n2020\nEducation\nAcme University\nB.Sc.\n· (2016 - 2020)")

	assert.Nil(t, rec.Summary)
	assert.Nil(t, rec.Contact.Name)
	assert.Nil(t, rec.Contact.Title)
	assert.Nil(t, rec.Contact.Location)
	require.NotNil(t, rec.Contact.Email)
	require.Len(t, rec.Experience, 1)
	require.Len(t, rec.Education, 1)
}

func TestAssembleEmptySummary(t *testing.T) {
	rec := Assemble("John Doe\nEngineer\nBogotá\nSummary\n\nExperience\nAcme\n")
	require.NotNil(t, rec.Summary, "简介标题存在时字段不为 nil")
	assert.Equal(t, "", *rec.Summary)
}

func TestLocateAllKeepsDocumentOrder(t *testing.T) {
	p, err := NewParser()
	require.NoError(t, err)

	text := loadFixture(t, "profile_en.txt")
	regions := p.LocateAll(text)
	require.Len(t, regions, 8)

	last := -1
	for _, spec := range DefaultSectionTable() {
		region, ok := regions[spec.ID]
		require.True(t, ok, "章节 %s 应当被找到", spec.ID)
		assert.Greater(t, region.Start, last, "章节 %s 与前一章节重叠", spec.ID)
		last = region.End
	}
	assert.Equal(t, "Summary", regions[types.SectionPublications].Terminator)
}

func TestLocateAllIgnoresHeadingsBeforeCursor(t *testing.T) {
	p, err := NewParser()
	require.NoError(t, err)

	// 技能列表里的 "Education" 位于游标之前，不能被当作教育章节的起点
	text := "Top Skills\nEducation\nGo\nLanguages\nEnglish\nNative\nJohn Doe\nEngineer\nBogotá\nSummary\nHi\nExperience\nAcme\nEducation\nUni\nBSc · (2010 - 2014)"
	regions := p.LocateAll(text)
	assert.Equal(t, "Education\nGo", regions[types.SectionSkills].Text)
	assert.Equal(t, "English\nNative", regions[types.SectionLanguages].Text)
	assert.Equal(t, "Acme", regions[types.SectionExperience].Text)
	assert.Equal(t, "Uni\nBSc · (2010 - 2014)", regions[types.SectionEducation].Text)
}

func TestNewParserOptions(t *testing.T) {
	t.Run("未知章节ID", func(t *testing.T) {
		_, err := NewParser(WithSectionTable(SectionTable{{ID: "hobbies", Start: []string{"Hobbies"}, UntilEnd: true}}))
		assert.Error(t, err)
	})

	t.Run("重复章节ID", func(t *testing.T) {
		table := SectionTable{
			{ID: types.SectionSkills, Start: []string{"Top Skills"}, End: []string{"Languages"}},
			{ID: types.SectionSkills, Start: []string{"Skills"}, End: []string{"Languages"}},
		}
		_, err := NewParser(WithSectionTable(table))
		assert.Error(t, err)
	})

	t.Run("空章节表使用默认值", func(t *testing.T) {
		p, err := NewParser(WithSectionTable(nil), WithHeaderAnchors())
		require.NoError(t, err)
		assert.Len(t, p.matchers, len(DefaultSectionTable()))
		assert.Equal(t, DefaultHeaderAnchors, p.anchors)
	})

	t.Run("追加新语言的同义词", func(t *testing.T) {
		table := SectionTable{
			{ID: types.SectionSkills, Start: []string{"Principales compétences"}, End: []string{"Langues", "Résumé"}},
			{ID: types.SectionLanguages, Start: []string{"Langues"}, End: []string{"Résumé"}},
			{ID: types.SectionSummary, Start: []string{"Résumé"}, End: []string{"Expérience"}},
			{ID: types.SectionExperience, Start: []string{"Expérience"}, End: []string{"Formation"}},
			{ID: types.SectionEducation, Start: []string{"Formation"}, UntilEnd: true},
		}
		p, err := NewParser(WithSectionTable(table), WithHeaderAnchors("Résumé"))
		require.NoError(t, err)

		text := "Principales compétences\nGo\nLangues\nFrançais\nNatif\nJean Dupont\nIngénieur\nParis\nRésumé\nBonjour\nExpérience\nAcme\nIngénieur\n2020\nFormation\nÉcole Polytechnique\nIngénieur · (2010 - 2013)"
		rec := p.Assemble(text)
		assert.Equal(t, []string{"Go"}, rec.MainSkills)
		require.Len(t, rec.Languages, 1)
		assert.Equal(t, "Natif", *rec.Languages[0].Level)
		require.NotNil(t, rec.Contact.Name)
		assert.Equal(t, "Jean Dupont", *rec.Contact.Name)
		assert.Equal(t, "Bonjour", *rec.Summary)
		require.Len(t, rec.Education, 1)
		assert.Equal(t, "École Polytechnique", rec.Education[0].Institution)
	})
}

func TestAssembleConcurrent(t *testing.T) {
	text := loadFixture(t, "profile_en.txt")
	want := Assemble(text)

	var wg sync.WaitGroup
	results := make([]*types.ProfileRecord, 16)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = Assemble(text)
		}(i)
	}
	wg.Wait()

	for _, got := range results {
		assert.Equal(t, want, got)
	}
	results[0].MainSkills[0] = "mutated"
	assert.Equal(t, "Go", Assemble(text).MainSkills[0], "不同调用之间不应共享状态")
}

func TestAssembleSummaryMentioningHeading(t *testing.T) {
	text := "John Doe\nEngineer\nBogotá\nSummary\nExperience with Go\nand Kubernetes.\nExperience\nAcme\nEngineer\n2020 - 2024\nEducation\n"
	rec := Assemble(text)

	require.NotNil(t, rec.Summary)
	assert.Equal(t, "Experience with Go and Kubernetes.", *rec.Summary)
	require.Len(t, rec.Experience, 1)
	assert.Equal(t, "Acme", rec.Experience[0].Company)
}
