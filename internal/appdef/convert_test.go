package appdef

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"github.com/verte-zerg/appdef/internal/xmltree"
)

func loadFixture(t *testing.T) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("testdata", "appdef.xml"))
	require.NoError(t, err)
	return string(data)
}

func parse(t *testing.T, doc string) *xmltree.Node {
	t.Helper()
	root, err := xmltree.ParseBytes([]byte(doc))
	require.NoError(t, err)
	return root
}

func convertFixture(t *testing.T) (*Configuration, *Summary) {
	t.Helper()
	cfg, summary, err := NewConverter().Convert(parse(t, loadFixture(t)))
	require.NoError(t, err)
	require.NotNil(t, cfg)
	return cfg, summary
}

func TestConvertFixture(t *testing.T) {
	cfg, summary := convertFixture(t)

	assert.Equal(t, "World English Bible", cfg.Name)
	assert.Equal(t, Features{
		"settings-verse-numbers": BoolValue(true),
		"text-font-size-slider":  BoolValue(false),
		"splash-screen-duration": IntValue(1500),
		"annotation-time":        StringValue("12:30"),
		"layout-modes":           StringValue("single two"),
	}, cfg.MainFeatures)

	require.Len(t, cfg.Fonts, 2)
	assert.Equal(t, Font{
		Name:       "Charis SIL Bold",
		Family:     "charis-bold",
		File:       "CharisSIL-B.ttf",
		FontWeight: "bold",
		FontStyle:  "italic",
	}, cfg.Fonts[1])

	require.Len(t, cfg.Traits, 2)
	require.NotNil(t, cfg.Traits["audio-available"])
	assert.Equal(t, "true", *cfg.Traits["audio-available"])
	v, ok := cfg.Traits["has-glossary"]
	assert.True(t, ok)
	assert.Nil(t, v)

	assert.Equal(t, []string{"abc123", "def456"}, cfg.Keys)
	assert.Equal(t, TranslationMappings{
		"Menu_Settings": {"en": "Settings", "fr": "Paramètres"},
		"Menu_About":    {"en": "About"},
	}, cfg.TranslationMappings)

	assert.Equal(t, "World English Bible", summary.Name)
	assert.Equal(t, 5, summary.Count(SectionFeatures))
	assert.Equal(t, 2, summary.Count(SectionFonts))
	assert.Equal(t, 3, summary.Count(SectionThemes))
	assert.Equal(t, 2, summary.Count(SectionCollections))
	assert.Equal(t, 4, summary.Count(SectionAudioSources))
	assert.Equal(t, []int{2, 1}, summary.CollectionBooks)
	assert.Equal(t, 2, summary.AudioTracks)
	assert.Equal(t, int64(3441920+3170304), summary.AudioBytes)
	assert.Len(t, summary.Warnings, 3)
}

func TestConvertIsIdempotent(t *testing.T) {
	root := parse(t, loadFixture(t))
	first, err := Convert(root, false)
	require.NoError(t, err)
	second, err := Convert(root, true)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestThemeColorFiltering(t *testing.T) {
	cfg, _ := convertFixture(t)

	require.Len(t, cfg.Themes, 3)
	dark := cfg.Themes[2]
	assert.Equal(t, "Dark", dark.Name)
	assert.False(t, dark.Enabled)
	require.Len(t, dark.ColorSets, 2)
	assert.Equal(t, "main", dark.ColorSets[0].Type)
	assert.Equal(t, map[string]string{"PrimaryColor": "#212121"}, dark.ColorSets[0].Colors)
	assert.Equal(t, map[string]string{"TextColor": "#FFFFFF"}, dark.ColorSets[1].Colors)

	sepia := cfg.Themes[1]
	assert.Equal(t, map[string]string{"PrimaryColor": "#795548", "AccentColor": "#FF4081"}, sepia.ColorSets[0].Colors)
	assert.Empty(t, sepia.ColorSets[1].Colors)
}

func TestDefaultThemeSelection(t *testing.T) {
	cfg, _ := convertFixture(t)
	assert.Equal(t, "Sepia", cfg.DefaultTheme)

	doc := strings.Replace(loadFixture(t), `<color-theme name="Dark" enabled="false"/>`,
		`<color-theme name="Dark" enabled="false" default="true"/>`, 1)
	cfg, err := Convert(parse(t, doc), false)
	require.NoError(t, err)
	assert.Equal(t, "Dark", cfg.DefaultTheme, "last default wins")
}

func TestBookCollections(t *testing.T) {
	cfg, _ := convertFixture(t)
	require.Len(t, cfg.BookCollections, 2)

	c01 := cfg.BookCollections[0]
	assert.Equal(t, "C01", c01.ID)
	assert.Equal(t, "WEB", c01.CollectionAbbreviation)
	assert.Equal(t, "en", c01.LanguageCode)
	assert.Equal(t, "English", c01.LanguageName)
	assert.Equal(t, Style{
		Font:          "charis",
		TextSize:      20,
		LineHeight:    175,
		TextDirection: "LTR",
		NumeralSystem: "Default",
		VerseNumbers:  "superscript",
	}, c01.Style)
	assert.Equal(t, Features{
		"bc-allow-highlights": BoolValue(true),
		"bc-verse-layout":     StringValue("one-verse-per-line"),
	}, c01.Features)

	c02 := cfg.BookCollections[1]
	assert.Equal(t, "", c02.CollectionName)
	assert.Equal(t, "", c02.CollectionAbbreviation)
	assert.Equal(t, "", c02.CollectionDescription)
	assert.Equal(t, "العربية", c02.LanguageName)
	assert.Equal(t, "RTL", c02.Style.TextDirection)
}

func TestBookFields(t *testing.T) {
	cfg, _ := convertFixture(t)
	books := cfg.BookCollections[0].Books
	require.Len(t, books, 2)

	gen := books[0]
	assert.Equal(t, "GEN", gen.ID)
	require.NotNil(t, gen.Name)
	assert.Equal(t, "Genesis", *gen.Name)
	assert.Equal(t, "Pentateuch", *gen.Section)
	assert.Equal(t, "OT", *gen.Testament)
	assert.Equal(t, "Gen", *gen.Abbreviation)
	assert.Equal(t, 3, gen.Chapters)
	assert.Equal(t, "1-3", gen.ChaptersN)
	require.NotNil(t, gen.File)
	assert.Equal(t, "01GENengwebp.usfm", *gen.File)

	exo := books[1]
	assert.Nil(t, exo.Name)
	assert.Nil(t, exo.Abbreviation)
	assert.Nil(t, exo.File)
	assert.Empty(t, exo.Audio)

	mat := cfg.BookCollections[1].Books[0]
	assert.Equal(t, "40MAT.usfm", *mat.File)
}

func TestPagesWithoutAudioAreSkipped(t *testing.T) {
	cfg, _ := convertFixture(t)
	tracks := cfg.BookCollections[0].Books[0].Audio
	require.Len(t, tracks, 2)
	assert.Equal(t, 1, tracks[0].Num)
	assert.Equal(t, 3, tracks[1].Num)
	assert.Equal(t, AudioTrack{
		Num:        1,
		Src:        "a1",
		Len:        215,
		Size:       3441920,
		Filename:   "B01___01_Genesis_____ENGWEBN2DA.mp3",
		TimingFile: "B01___01_Genesis_____ENGWEBN2DA.txt",
	}, tracks[0])
}

func TestCanonicalSourceFile(t *testing.T) {
	assert.Equal(t, "01GEN.usfm", CanonicalSourceFile("01GEN.sfx"))
	assert.Equal(t, "a.b.usfm", CanonicalSourceFile("a.b.SFM"))
	assert.Equal(t, "noext", CanonicalSourceFile("noext"))
	assert.Equal(t, "trailing.usfm", CanonicalSourceFile("trailing."))
}

func TestAudioSources(t *testing.T) {
	cfg, _ := convertFixture(t)
	require.NotNil(t, cfg.Audio)
	assert.Equal(t, []string{"s1", "s2", "s3", "s4"}, cfg.Audio.SortedSourceIDs())

	assert.Equal(t, AssetsSource{Type: "assets", Name: "Bundled"}, cfg.Audio.Sources["s1"])
	assert.Equal(t, DownloadSource{
		Type:          "download",
		Name:          "Remote Server",
		AccessMethods: []string{"stream", "download"},
		Folder:        "web-audio",
		Address:       "https://example.org/audio/",
	}, cfg.Audio.Sources["s2"])
	assert.Equal(t, FcbhSource{
		Type:          "fcbh",
		Name:          "Faith Comes By Hearing",
		AccessMethods: []string{"stream"},
		Folder:        "fcbh",
		Key:           "secret-key",
		DamID:         "ENGWEBN2DA",
	}, cfg.Audio.Sources["s3"])
	assert.Equal(t, UnknownSource{Type: "other", Name: "Something Else"}, cfg.Audio.Sources["s4"])
}

func TestUnknownAudioSourceSerializesTypeAndNameOnly(t *testing.T) {
	cfg, _ := convertFixture(t)
	data, err := json.Marshal(cfg)
	require.NoError(t, err)

	other := gjson.GetBytes(data, "audio.sources.s4")
	assert.JSONEq(t, `{"type":"other","name":"Something Else"}`, other.Raw)
	assert.False(t, gjson.GetBytes(data, "audio.sources.s1.folder").Exists())
	assert.Equal(t, "stream|download", strings.Join([]string{
		gjson.GetBytes(data, "audio.sources.s2.accessMethods.0").String(),
		gjson.GetBytes(data, "audio.sources.s2.accessMethods.1").String(),
	}, "|"))
}

func TestSerializedShape(t *testing.T) {
	cfg, _ := convertFixture(t)
	data, err := json.Marshal(cfg)
	require.NoError(t, err)

	assert.Equal(t, int64(1500), gjson.GetBytes(data, "mainFeatures.splash-screen-duration").Int())
	assert.True(t, gjson.GetBytes(data, "mainFeatures.settings-verse-numbers").Bool())
	assert.Equal(t, "Sepia", gjson.GetBytes(data, "defaultTheme").String())
	assert.False(t, gjson.GetBytes(data, "traits.has-glossary").Exists())
	assert.Equal(t, "true", gjson.GetBytes(data, "traits.audio-available").String())
	assert.Equal(t, int64(2), gjson.GetBytes(data, "bookCollections.0.books.0.audio.#").Int())
	assert.False(t, gjson.GetBytes(data, "bookCollections.0.books.1.name").Exists())
	assert.Equal(t, int64(175), gjson.GetBytes(data, "bookCollections.0.style.lineHeight").Int())
}

func TestOptionalRootSectionsAreOmitted(t *testing.T) {
	doc := loadFixture(t)
	doc = cutElement(t, doc, "translation-mappings")
	doc = cutElement(t, doc, "keys")
	doc = cutElement(t, doc, "audio-sources")

	cfg, err := Convert(parse(t, doc), false)
	require.NoError(t, err)
	assert.Nil(t, cfg.TranslationMappings)
	assert.Nil(t, cfg.Keys)
	assert.Nil(t, cfg.Audio)

	data, err := json.Marshal(cfg)
	require.NoError(t, err)
	for _, key := range []string{"translationMappings", "keys", "audio"} {
		assert.False(t, gjson.GetBytes(data, key).Exists(), key)
	}
}

func TestEmptyAudioSourcesOmitted(t *testing.T) {
	doc := replaceElement(t, loadFixture(t), "audio-sources", "<audio-sources/>")
	cfg, err := Convert(parse(t, doc), false)
	require.NoError(t, err)
	assert.Nil(t, cfg.Audio)
}

func TestEmptyThemeListSerializesAsArray(t *testing.T) {
	doc := replaceElement(t, loadFixture(t), "color-themes", "<color-themes/>")
	cfg, err := Convert(parse(t, doc), false)
	require.NoError(t, err)
	require.NotNil(t, cfg.Themes)
	assert.Empty(t, cfg.Themes)
	assert.Empty(t, cfg.DefaultTheme)

	data, err := json.Marshal(cfg)
	require.NoError(t, err)
	assert.True(t, gjson.GetBytes(data, "themes").IsArray())
	assert.Contains(t, string(data), `"themes":[]`)
}

func TestBookWithoutIDIsFatal(t *testing.T) {
	doc := strings.Replace(loadFixture(t), `<book id="EXO" type="bible-book">`, `<book type="bible-book">`, 1)
	_, err := Convert(parse(t, doc), false)
	var missingErr *MissingError
	require.ErrorAs(t, err, &missingErr)
	assert.Equal(t, "books[C01].book[1]", missingErr.Section)
	assert.Equal(t, "@id", missingErr.Field)
}

func TestFatalMissingSections(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(t *testing.T, doc string) string
		section string
	}{
		{"app name", func(t *testing.T, doc string) string { return cutElement(t, doc, "app-name") }, SectionName},
		{"fonts", func(t *testing.T, doc string) string { return cutElement(t, doc, "fonts") }, SectionFonts},
		{"themes", func(t *testing.T, doc string) string { return cutElement(t, doc, "color-themes") }, SectionThemes},
		{"traits", func(t *testing.T, doc string) string { return cutElement(t, doc, "traits") }, SectionTraits},
		{"main features", func(t *testing.T, doc string) string {
			return strings.Replace(doc, `<features type="main">`, `<features type="other">`, 1)
		}, SectionFeatures},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, summary, err := NewConverter().Convert(parse(t, tt.mutate(t, loadFixture(t))))
			require.Error(t, err)
			assert.Nil(t, cfg)
			assert.Nil(t, summary)
			assert.True(t, errors.Is(err, ErrMalformed))
			var missingErr *MissingError
			require.ErrorAs(t, err, &missingErr)
			assert.Equal(t, tt.section, missingErr.Section)
		})
	}
}

func TestFatalFontField(t *testing.T) {
	doc := strings.Replace(loadFixture(t), `<font-name>Charis SIL Bold</font-name>`, "", 1)
	_, err := Convert(parse(t, doc), false)
	var missingErr *MissingError
	require.ErrorAs(t, err, &missingErr)
	assert.Equal(t, "fonts[1]", missingErr.Section)
	assert.Equal(t, "<font-name>", missingErr.Field)
	assert.EqualError(t, err, "appdef: fonts[1]: missing <font-name>")

	doc = strings.Replace(loadFixture(t), `<sd property="font-style" value="italic"/>`, "", 1)
	_, err = Convert(parse(t, doc), false)
	require.ErrorAs(t, err, &missingErr)
	assert.Equal(t, `<sd property="font-style">`, missingErr.Field)
}

func TestFatalCollectionBlocks(t *testing.T) {
	tests := []struct {
		name    string
		old     string
		new     string
		section string
		field   string
	}{
		{"features", `<features type="bc">
      <e name="bc-allow-highlights" value="false"/>`, `<features type="x">
      <e name="bc-allow-highlights" value="false"/>`, "books[C02]", `<features type="bc">`},
		{"language code", `<writing-system code="ar" type="main">`, `<writing-system type="main">`, "books[C02].writing-system", "@code"},
		{"language name", `<form>العربية</form>`, "", "books[C02].writing-system.display-names", "<form>"},
		{"style element", `<verse-number-style value="inline"/>`, "", "books[C02].styles-info", "<verse-number-style>"},
		{"style value", `<verse-number-style value="inline"/>`, `<verse-number-style/>`, "books[C02].styles-info", "<verse-number-style value>"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := strings.Replace(loadFixture(t), tt.old, tt.new, 1)
			_, err := Convert(parse(t, doc), false)
			var missingErr *MissingError
			require.ErrorAs(t, err, &missingErr)
			assert.Equal(t, tt.section, missingErr.Section)
			assert.Equal(t, tt.field, missingErr.Field)
		})
	}
}

func TestInvalidIntegerIsFatal(t *testing.T) {
	doc := strings.Replace(loadFixture(t), `<ct c="40"/>`, `<ct c="forty"/>`, 1)
	_, err := Convert(parse(t, doc), false)
	require.Error(t, err)
	var invalid *InvalidValueError
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, "forty", invalid.Value)
	assert.Equal(t, "books[C01].book[EXO]", invalid.Section)
	assert.True(t, errors.Is(err, ErrMalformed))
}

func TestKnownAudioSourceMissingFieldIsFatal(t *testing.T) {
	doc := strings.Replace(loadFixture(t), `<dam-id>ENGWEBN2DA</dam-id>`, "", 1)
	_, err := Convert(parse(t, doc), false)
	var missingErr *MissingError
	require.ErrorAs(t, err, &missingErr)
	assert.Equal(t, "audio-sources[s3]", missingErr.Section)
	assert.Equal(t, "<dam-id>", missingErr.Field)
}

func TestVerboseLogsCountsOnly(t *testing.T) {
	root := parse(t, loadFixture(t))

	var quiet bytes.Buffer
	_, _, err := NewConverter(WithLogger(slog.New(slog.NewTextHandler(&quiet, nil)))).Convert(root)
	require.NoError(t, err)
	assert.NotContains(t, quiet.String(), "Converted")
	assert.Contains(t, quiet.String(), "skipped entry")

	var loud bytes.Buffer
	_, _, err = NewConverter(
		WithLogger(slog.New(slog.NewTextHandler(&loud, nil))),
		WithVerbose(true),
	).Convert(root)
	require.NoError(t, err)
	assert.Contains(t, loud.String(), "Converted 2 fonts")
	assert.Contains(t, loud.String(), "Converting World English Bible")
}

func TestConvertLogsThroughDefaultLogger(t *testing.T) {
	previous := slog.Default()
	t.Cleanup(func() { slog.SetDefault(previous) })
	var buf bytes.Buffer
	slog.SetDefault(slog.New(slog.NewTextHandler(&buf, nil)))

	root := parse(t, loadFixture(t))
	_, err := Convert(root, false)
	require.NoError(t, err)
	assert.NotContains(t, buf.String(), "Converted")

	buf.Reset()
	_, err = Convert(root, true)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "Converted 2 fonts")
}

func cutElement(t *testing.T, doc, tag string) string {
	return replaceElement(t, doc, tag, "")
}

func replaceElement(t *testing.T, doc, tag, with string) string {
	t.Helper()
	start := strings.Index(doc, "<"+tag+">")
	closing := "</" + tag + ">"
	end := strings.Index(doc, closing)
	require.True(t, start >= 0 && end > start, "element %s not found", tag)
	return doc[:start] + with + doc[end+len(closing):]
}
