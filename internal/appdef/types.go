package appdef

import (
	"encoding/json"
	"sort"

	"gopkg.in/yaml.v3"
)

// Configuration is the converted application definition.
type Configuration struct {
	Name                string              `json:"name" yaml:"name"`
	MainFeatures        Features            `json:"mainFeatures" yaml:"mainFeatures"`
	Fonts               []Font              `json:"fonts" yaml:"fonts"`
	Themes              []ColorTheme        `json:"themes" yaml:"themes"`
	DefaultTheme        string              `json:"defaultTheme,omitempty" yaml:"defaultTheme,omitempty"`
	Traits              Traits              `json:"traits" yaml:"traits"`
	BookCollections     []BookCollection    `json:"bookCollections" yaml:"bookCollections"`
	TranslationMappings TranslationMappings `json:"translationMappings,omitempty" yaml:"translationMappings,omitempty"`
	Keys                []string            `json:"keys,omitempty" yaml:"keys,omitempty"`
	Audio               *AudioConfig        `json:"audio,omitempty" yaml:"audio,omitempty"`
}

// Features maps a feature name to its coerced value.
type Features map[string]Value

// Font describes one font file the application ships.
type Font struct {
	Name       string `json:"name" yaml:"name"`
	Family     string `json:"family" yaml:"family"`
	File       string `json:"file" yaml:"file"`
	FontWeight string `json:"fontWeight" yaml:"fontWeight"`
	FontStyle  string `json:"fontStyle" yaml:"fontStyle"`
}

// ColorTheme is a named palette made of one color set per UI surface.
type ColorTheme struct {
	Name      string     `json:"name" yaml:"name"`
	Enabled   bool       `json:"enabled" yaml:"enabled"`
	ColorSets []ColorSet `json:"colorSets" yaml:"colorSets"`
}

// ColorSet holds the colors of one surface type for a single theme.
type ColorSet struct {
	Type   string            `json:"type" yaml:"type"`
	Colors map[string]string `json:"colors" yaml:"colors"`
}

// Traits maps a trait name to an optional raw value.
// Traits without a value are left out when serialized.
type Traits map[string]*string

// MarshalJSON implements json.Marshaler.
func (t Traits) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.present())
}

// MarshalYAML implements yaml.Marshaler.
func (t Traits) MarshalYAML() (any, error) {
	return t.present(), nil
}

func (t Traits) present() map[string]string {
	out := make(map[string]string, len(t))
	for name, v := range t {
		if v != nil {
			out[name] = *v
		}
	}
	return out
}

// BookCollection is a localized set of books sharing language and style.
type BookCollection struct {
	ID                     string   `json:"id" yaml:"id"`
	CollectionName         string   `json:"collectionName" yaml:"collectionName"`
	CollectionAbbreviation string   `json:"collectionAbbreviation" yaml:"collectionAbbreviation"`
	CollectionDescription  string   `json:"collectionDescription" yaml:"collectionDescription"`
	Features               Features `json:"features" yaml:"features"`
	LanguageCode           string   `json:"languageCode" yaml:"languageCode"`
	LanguageName           string   `json:"languageName" yaml:"languageName"`
	Style                  Style    `json:"style" yaml:"style"`
	Books                  []Book   `json:"books" yaml:"books"`
}

// Style is the text rendering block of a collection.
type Style struct {
	Font          string `json:"font" yaml:"font"`
	TextSize      int    `json:"textSize" yaml:"textSize"`
	LineHeight    int    `json:"lineHeight" yaml:"lineHeight"`
	TextDirection string `json:"textDirection" yaml:"textDirection"`
	NumeralSystem string `json:"numeralSystem" yaml:"numeralSystem"`
	VerseNumbers  string `json:"verseNumbers" yaml:"verseNumbers"`
}

// Book is one document of a collection.
type Book struct {
	ID           string       `json:"id" yaml:"id"`
	Name         *string      `json:"name,omitempty" yaml:"name,omitempty"`
	Abbreviation *string      `json:"abbreviation,omitempty" yaml:"abbreviation,omitempty"`
	Testament    *string      `json:"testament,omitempty" yaml:"testament,omitempty"`
	Section      *string      `json:"section,omitempty" yaml:"section,omitempty"`
	Chapters     int          `json:"chapters" yaml:"chapters"`
	ChaptersN    string       `json:"chaptersN" yaml:"chaptersN"`
	File         *string      `json:"file,omitempty" yaml:"file,omitempty"`
	Audio        []AudioTrack `json:"audio" yaml:"audio"`
}

// AudioTrack is the audio attached to one page of a book.
type AudioTrack struct {
	Num        int    `json:"num" yaml:"num"`
	Src        string `json:"src" yaml:"src"`
	Len        int    `json:"len" yaml:"len"`
	Size       int    `json:"size" yaml:"size"`
	Filename   string `json:"filename" yaml:"filename"`
	TimingFile string `json:"timingFile" yaml:"timingFile"`
}

// TranslationMappings maps a UI string id to its text per language code.
type TranslationMappings map[string]map[string]string

// AudioConfig wraps the audio source registry.
type AudioConfig struct {
	Sources map[string]AudioSource `json:"sources" yaml:"sources"`
}

// SortedSourceIDs returns the registry keys in lexical order.
func (a *AudioConfig) SortedSourceIDs() []string {
	if a == nil {
		return nil
	}
	ids := make([]string, 0, len(a.Sources))
	for id := range a.Sources {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// AudioSource is one of AssetsSource, DownloadSource, FcbhSource or UnknownSource.
type AudioSource interface {
	SourceType() string
	SourceName() string
	audioSource()
}

// Audio source type tags.
const (
	SourceAssets   = "assets"
	SourceDownload = "download"
	SourceFcbh     = "fcbh"
)

// AssetsSource serves audio bundled with the application.
type AssetsSource struct {
	Type string `json:"type" yaml:"type"`
	Name string `json:"name" yaml:"name"`
}

// DownloadSource fetches audio from a remote address.
type DownloadSource struct {
	Type          string   `json:"type" yaml:"type"`
	Name          string   `json:"name" yaml:"name"`
	AccessMethods []string `json:"accessMethods" yaml:"accessMethods"`
	Folder        string   `json:"folder" yaml:"folder"`
	Address       string   `json:"address" yaml:"address"`
}

// FcbhSource fetches audio from the Faith Comes By Hearing service.
type FcbhSource struct {
	Type          string   `json:"type" yaml:"type"`
	Name          string   `json:"name" yaml:"name"`
	AccessMethods []string `json:"accessMethods" yaml:"accessMethods"`
	Folder        string   `json:"folder" yaml:"folder"`
	Key           string   `json:"key" yaml:"key"`
	DamID         string   `json:"damId" yaml:"damId"`
}

// UnknownSource keeps an entry of an unrecognized type.
type UnknownSource struct {
	Type string `json:"type" yaml:"type"`
	Name string `json:"name" yaml:"name"`
}

func (s AssetsSource) SourceType() string { return s.Type }
func (s AssetsSource) SourceName() string { return s.Name }
func (AssetsSource) audioSource() {}
func (s DownloadSource) SourceType() string { return s.Type }
func (s DownloadSource) SourceName() string { return s.Name }
func (DownloadSource) audioSource() {}
func (s FcbhSource) SourceType() string { return s.Type }
func (s FcbhSource) SourceName() string { return s.Name }
func (FcbhSource) audioSource() {}
func (s UnknownSource) SourceType() string { return s.Type }
func (s UnknownSource) SourceName() string { return s.Name }
func (UnknownSource) audioSource() {}

var (
	_ json.Marshaler = Traits(nil)
	_ yaml.Marshaler = Traits(nil)
	_ yaml.Marshaler = Value{}
)
