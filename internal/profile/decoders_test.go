package profile

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codesandtags/linkedin-pdf-reader/internal/types"
)

func TestDecodeList(t *testing.T) {
	assert.Equal(t, []string{"Go", "Kubernetes", "PostgreSQL"}, DecodeList("  Go\n\nKubernetes  \nPage 1 of 2\nPostgreSQL\n"))
	assert.Equal(t, []string{}, DecodeList(""))
	assert.Equal(t, []string{}, DecodeList("Page 1 of 2"))
}

func TestDecodeJoined(t *testing.T) {
	assert.Equal(t, "AWS Solutions Architect CKA", DecodeJoined("AWS Solutions Architect\n\nCKA\n"))
	assert.Equal(t, "", DecodeJoined("\n \n"))
}

func TestDecodeParagraph(t *testing.T) {
	got := DecodeParagraph("Engineer focused on\ndistributed systems.\nPage 2 of 3")
	require.NotNil(t, got)
	assert.Equal(t, "Engineer focused on distributed systems.", *got)

	empty := DecodeParagraph("")
	require.NotNil(t, empty, "存在但为空的简介应当是空字符串而不是 nil")
	assert.Equal(t, "", *empty)
}

func TestDecodeExperience(t *testing.T) {
	t.Run("k个块得到k条经历", func(t *testing.T) {
		region := "Acme Corp\nStaff Engineer\n2020 - Present\n\nGlobex\nSoftware Engineer\n2017 - 2019\n\n\nInitech\nIntern\n2016"
		got := DecodeExperience(region)
		require.Len(t, got, 3)
		assert.Equal(t, "Acme Corp", got[0].Company)
		assert.Equal(t, "Globex", got[1].Company)
		assert.Equal(t, "Initech", got[2].Company)
		require.NotNil(t, got[1].Role)
		assert.Equal(t, "Software Engineer", *got[1].Role)
		require.NotNil(t, got[2].Duration)
		assert.Equal(t, "2016", *got[2].Duration)
	})

	t.Run("只含空白的分隔行", func(t *testing.T) {
		got := DecodeExperience("Acme\nEngineer\n \t \nGlobex\nEngineer")
		assert.Len(t, got, 2)
	})

	t.Run("行数不足的块保留并补nil", func(t *testing.T) {
		got := DecodeExperience("Freelance\n\nAcme\nEngineer")
		require.Len(t, got, 2)
		assert.Equal(t, types.ExperienceEntry{Company: "Freelance"}, got[0])
		assert.Nil(t, got[1].Duration)
		require.NotNil(t, got[1].Role)
		assert.Equal(t, "Engineer", *got[1].Role)
	})

	t.Run("多余的行被忽略", func(t *testing.T) {
		got := DecodeExperience("Acme\nEngineer\n2020\nBuilt things\nMore things")
		require.Len(t, got, 1)
		assert.Equal(t, "2020", *got[0].Duration)
	})

	t.Run("空区域", func(t *testing.T) {
		assert.Empty(t, DecodeExperience(""))
		assert.NotNil(t, DecodeExperience("Page 1 of 2"))
		assert.Empty(t, DecodeExperience("Page 1 of 2"))
	})
}

func TestDecodeEducation(t *testing.T) {
	t.Run("单条记录", func(t *testing.T) {
		got := DecodeEducation("Acme University\nB.Sc. Computer Science\n· (2016 - 2020)")
		assert.Equal(t, []types.EducationEntry{{
			Institution: "Acme University",
			Degree:      "B.Sc. Computer Science",
			Duration:    "2016 - 2020",
		}}, got)
	})

	t.Run("学位与时间在同一行", func(t *testing.T) {
		got := DecodeEducation("Universidad Nacional\nSystems Engineering · (2010 - 2015)")
		require.Len(t, got, 1)
		assert.Equal(t, "Systems Engineering", got[0].Degree)
		assert.Equal(t, "2010 - 2015", got[0].Duration)
	})

	t.Run("多条记录和多行学位", func(t *testing.T) {
		region := "Acme University\nMaster of Science\nDistributed Systems\n· (2020 - 2022)\nBeta College\nB.Sc. Physics · (2014 - 2018)"
		got := DecodeEducation(region)
		require.Len(t, got, 2)
		assert.Equal(t, "Acme University", got[0].Institution)
		assert.Equal(t, "Master of Science Distributed Systems", got[0].Degree)
		assert.Equal(t, "Beta College", got[1].Institution)
		assert.Equal(t, "2014 - 2018", got[1].Duration)
	})

	t.Run("没有时间标记", func(t *testing.T) {
		got := DecodeEducation("Acme University\nB.Sc. Computer Science")
		assert.NotNil(t, got)
		assert.Empty(t, got)
	})
}

func TestDecodeLanguages(t *testing.T) {
	native, professional := "Native", "Professional"
	assert.Equal(t, []types.LanguageEntry{
		{Language: "English", Level: &native},
		{Language: "Spanish", Level: &professional},
	}, DecodeLanguages("English\nNative\nSpanish\nProfessional"))

	got := DecodeLanguages("English\nNative\nGerman")
	require.Len(t, got, 2)
	assert.Equal(t, "German", got[1].Language)
	assert.Nil(t, got[1].Level, "末尾落单的语言没有水平")

	assert.Equal(t, []types.LanguageEntry{}, DecodeLanguages(""))
}

func TestDropTrailingLines(t *testing.T) {
	assert.Equal(t, "Go\nRust", dropTrailingLines("Go\nRust\nJohn Doe\nEngineer\n\nPage 1 of 2\nBogotá", 3))
	assert.Equal(t, "", dropTrailingLines("John Doe\nEngineer", 3))
}
