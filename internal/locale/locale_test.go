package locale

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleXML = `<?xml version="1.0" encoding="UTF-8"?>
<Localization>
  <version>1</version>
  <locales>
    <count>2</count>
    <locale>en_US</locale>
    <locale>de_DE</locale>
  </locales>
  <phrases>
    <count>1</count>
    <phrase id="Objects_1_name">
      <translation locale="en_US">Hello</translation>
      <translation locale="de_DE">Hallo</translation>
    </phrase>
  </phrases>
</Localization>`

func TestReadParsesExistingDocument(t *testing.T) {
	loc, err := Read(strings.NewReader(sampleXML))
	require.NoError(t, err)

	assert.Equal(t, []string{"en_US", "de_DE"}, loc.Locales.Locale)
	require.Len(t, loc.Phrases.Phrase, 1)
	assert.Equal(t, "Objects_1_name", loc.Phrases.Phrase[0].ID)
	assert.Equal(t, "Hello", loc.Phrases.Phrase[0].Translations[0].Text)
}

func TestWriteRecomputesCounts(t *testing.T) {
	loc, err := Read(strings.NewReader(sampleXML))
	require.NoError(t, err)

	loc.Phrases.Phrase = append(loc.Phrases.Phrase, Phrase{ID: "Objects_2_name"})

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, loc))

	assert.Equal(t, int32(2), loc.Locales.Count)
	assert.Equal(t, int32(2), loc.Phrases.Count)
	assert.Contains(t, buf.String(), "Objects_2_name")
}

func TestNewTemplateRejectsEmptyTranslations(t *testing.T) {
	_, ok := NewTemplate("Objects_{}_name", nil)
	assert.False(t, ok)
}

func TestTemplateResolveSubstitutesPlaceholderAndSortsLocales(t *testing.T) {
	tpl, ok := NewTemplate("Objects_{}_name", map[string]string{
		"de_DE": "Hallo",
		"en_US": "Hello",
	})
	require.True(t, ok)

	phrase := tpl.Resolve(42)
	assert.Equal(t, "Objects_42_name", phrase.ID)
	require.Len(t, phrase.Translations, 2)
	assert.Equal(t, "de_DE", phrase.Translations[0].Locale)
	assert.Equal(t, "en_US", phrase.Translations[1].Locale)
}

func TestDuplicateTemplatesProduceIndependentPhrases(t *testing.T) {
	t1, ok := NewTemplate("MissionText_{}_chat_state_1", map[string]string{"en_US": "A"})
	require.True(t, ok)
	t2, ok := NewTemplate("MissionText_{}_chat_state_1", map[string]string{"en_US": "B"})
	require.True(t, ok)

	p1 := t1.Resolve(7)
	p2 := t2.Resolve(7)

	assert.Equal(t, p1.ID, p2.ID)
	assert.NotEqual(t, p1.Translations[0].Text, p2.Translations[0].Text)
}
