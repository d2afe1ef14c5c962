// Package locale implements the phrase-template accumulator and the XML
// localization file reader/writer, matching
// original_source/src/locale.rs's Localization/Locales/Phrases/Phrase/
// Translation shape. Go's standard encoding/xml is used deliberately — no
// example repo in this corpus imports a third-party XML library, and this
// format's nesting is shallow enough that struct tags express it directly
// (see the internal/locale section of DESIGN.md).
package locale

import (
	"encoding/xml"
	"io"
	"sort"
	"strconv"
	"strings"
)

// Translation is one phrase's text in one language.
type Translation struct {
	Locale string `xml:"locale,attr"`
	Text   string `xml:",chardata"`
}

// Phrase is one fully-resolved localization entry: a final phrase id plus
// its translations.
type Phrase struct {
	ID           string        `xml:"id,attr"`
	Translations []Translation `xml:"translation"`
}

// Locales is the stock file's declared locale list.
type Locales struct {
	Count  int32    `xml:"count"`
	Locale []string `xml:"locale"`
}

// Phrases is the full phrase table.
type Phrases struct {
	Count  int32    `xml:"count"`
	Phrase []Phrase `xml:"phrase"`
}

// Localization is the full locale.xml document.
type Localization struct {
	XMLName xml.Name `xml:"Localization"`
	Version float32  `xml:"version"`
	Locales Locales  `xml:"locales"`
	Phrases Phrases  `xml:"phrases"`
}

// Read parses a locale.xml document.
func Read(r io.Reader) (*Localization, error) {
	var loc Localization
	if err := xml.NewDecoder(r).Decode(&loc); err != nil {
		return nil, err
	}
	return &loc, nil
}

// Write recomputes locales.count and phrases.count from the current list
// lengths and serializes the document, matching main.rs's pre-write count
// recomputation.
func Write(w io.Writer, loc *Localization) error {
	loc.Locales.Count = int32(len(loc.Locales.Locale))
	loc.Phrases.Count = int32(len(loc.Phrases.Phrase))

	if _, err := io.WriteString(w, xml.Header); err != nil {
		return err
	}
	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	return enc.Encode(loc)
}

// Template is a phrase awaiting its owning mod's allocated id: idTemplate
// contains exactly one "{}" placeholder, substituted with the mod's final
// numeric id at resolution time.
type Template struct {
	IDTemplate   string
	Translations map[string]string
}

// NewTemplate builds a Template from a translations map, or reports ok=false
// if the map is empty — add_locale in the original only emits a phrase when
// the mod actually carries locale entries.
func NewTemplate(idTemplate string, translations map[string]string) (Template, bool) {
	if len(translations) == 0 {
		return Template{}, false
	}
	return Template{IDTemplate: idTemplate, Translations: translations}, true
}

// Resolve substitutes id into the template's placeholder and produces the
// final Phrase, with translations in deterministic locale order.
func (t Template) Resolve(id int32) Phrase {
	locales := make([]string, 0, len(t.Translations))
	for k := range t.Translations {
		locales = append(locales, k)
	}
	sort.Strings(locales)

	translations := make([]Translation, 0, len(locales))
	for _, locale := range locales {
		translations = append(translations, Translation{Locale: locale, Text: t.Translations[locale]})
	}

	return Phrase{
		ID:           strings.Replace(t.IDTemplate, "{}", strconv.FormatInt(int64(id), 10), 1),
		Translations: translations,
	}
}
