package profile

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveContactFields(t *testing.T) {
	text := "Contact\n+57 300 1234567\njohn.doe@example.com\nwww.linkedin.com/in/johndoe (LinkedIn)\nwww.johndoe.dev/blog\nwww.johndoe.dev/\n"
	c := ResolveContact(text)

	require.NotNil(t, c.Phone)
	assert.Equal(t, "+57 300 1234567", *c.Phone)
	require.NotNil(t, c.Email)
	assert.Equal(t, "john.doe@example.com", *c.Email)
	require.NotNil(t, c.LinkedIn)
	assert.Equal(t, "www.linkedin.com/in/johndoe (LinkedIn)", *c.LinkedIn)
	require.NotNil(t, c.Blog)
	assert.Equal(t, "www.johndoe.dev/blog", *c.Blog)
	require.NotNil(t, c.PersonalWebsite)
	assert.Equal(t, "www.johndoe.dev/", *c.PersonalWebsite)
}

func TestResolveContactSpanishPhoneHeading(t *testing.T) {
	c := ResolveContact("Contactar\n+34 600 123456\n")
	require.NotNil(t, c.Phone)
	assert.Equal(t, "+34 600 123456", *c.Phone)
}

func TestResolveContactFieldsAreIndependent(t *testing.T) {
	c := ResolveContact("Contact\njane@example.org\n")
	assert.Nil(t, c.Phone)
	require.NotNil(t, c.Email)
	assert.Equal(t, "jane@example.org", *c.Email)
	assert.Nil(t, c.LinkedIn)
	assert.Nil(t, c.Blog)
	assert.Nil(t, c.PersonalWebsite)
}

func TestResolveContactNeedsTrailingLineBreak(t *testing.T) {
	c := ResolveContact("jane@example.org")
	assert.Nil(t, c.Email)
}

func TestResolveHeader(t *testing.T) {
	t.Run("锚点前三行", func(t *testing.T) {
		c := ResolveContact("Go\nJohn Doe\nSenior Engineer\nBogotá, Colombia\nSummary\nText\n")
		require.NotNil(t, c.Name)
		assert.Equal(t, "John Doe", *c.Name)
		require.NotNil(t, c.Title)
		assert.Equal(t, "Senior Engineer", *c.Title)
		require.NotNil(t, c.Location)
		assert.Equal(t, "Bogotá, Colombia", *c.Location)
	})

	t.Run("默认只识别Summary", func(t *testing.T) {
		c := ResolveContact("Jane\nEngineer\nMadrid\nExtracto\nHola\n")
		assert.Nil(t, c.Name)
		assert.Nil(t, c.Title)
		assert.Nil(t, c.Location)
	})

	t.Run("空行和分页行不影响计数", func(t *testing.T) {
		c := ResolveContact("John Doe\n\nSenior Engineer\nPage 1 of 2\nBogotá\n\n\nSummary\nText\n")
		require.NotNil(t, c.Name)
		assert.Equal(t, "John Doe", *c.Name)
		assert.Equal(t, "Senior Engineer", *c.Title)
		assert.Equal(t, "Bogotá", *c.Location)
	})

	t.Run("锚点前不足三行", func(t *testing.T) {
		c := ResolveContact("Senior Engineer\nBogotá\nSummary\n")
		assert.Nil(t, c.Name)
		require.NotNil(t, c.Title)
		assert.Equal(t, "Senior Engineer", *c.Title)
		assert.Equal(t, "Bogotá", *c.Location)
	})

	t.Run("锚点必须独占一行", func(t *testing.T) {
		c := ResolveContact("John Doe\nEngineer\nBogotá\nSummary of work\n")
		assert.Nil(t, c.Name)
		assert.Nil(t, c.Title)
		assert.Nil(t, c.Location)
	})

	t.Run("没有锚点时其他字段不受影响", func(t *testing.T) {
		c := ResolveContact("Contact\n+1 555 0100\njohn@example.com\nJohn Doe\nEngineer\nBogotá\nExperience\n")
		assert.Nil(t, c.Name)
		assert.Nil(t, c.Title)
		assert.Nil(t, c.Location)
		require.NotNil(t, c.Phone)
		assert.Equal(t, "+1 555 0100", *c.Phone)
		require.NotNil(t, c.Email)
	})

	t.Run("自定义锚点", func(t *testing.T) {
		c := resolveContact("Jean Dupont\nIngénieur\nParis\nRésumé\n", []string{"Résumé"})
		require.NotNil(t, c.Name)
		assert.Equal(t, "Jean Dupont", *c.Name)
	})

	t.Run("启用西班牙语锚点", func(t *testing.T) {
		c := resolveContact("María García\nIngeniera\nMadrid\nExtracto\nTexto\n", LocalizedHeaderAnchors)
		require.NotNil(t, c.Name)
		assert.Equal(t, "María García", *c.Name)
		assert.Equal(t, "Ingeniera", *c.Title)
		assert.Equal(t, "Madrid", *c.Location)

		c = resolveContact("John Doe\nEngineer\nBogotá\nSummary\n", LocalizedHeaderAnchors)
		require.NotNil(t, c.Name)
		assert.Equal(t, "John Doe", *c.Name)
	})
}
