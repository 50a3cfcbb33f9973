// Package appdef converts an application definition document into a Configuration.
//
// Extraction is a single pass over an already parsed tree. Each section has its own
// extractor; the Converter runs them in a fixed order and assembles the result only
// when all of them succeed. Missing required structure yields a *MissingError or
// *InvalidValueError (both match ErrMalformed); entries that can be dropped are
// reported as warnings in the Summary.
package appdef

import (
	"io"
	"log/slog"

	"github.com/verte-zerg/appdef/internal/xmltree"
)

// Converter runs the section extractors over a document.
type Converter struct {
	logger  *slog.Logger
	verbose bool
}

// Option configures a Converter.
type Option func(*Converter)

// WithLogger sets the logger used for warnings and per-section counts.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Converter) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithVerbose enables per-section count logging. It never changes the result.
func WithVerbose(verbose bool) Option {
	return func(c *Converter) {
		c.verbose = verbose
	}
}

// NewConverter builds a Converter. Without WithLogger nothing is logged.
func NewConverter(opts ...Option) *Converter {
	c := &Converter{
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Convert runs a Converter that logs through slog.Default.
func Convert(root *xmltree.Node, verbose bool) (*Configuration, error) {
	cfg, _, err := NewConverter(WithLogger(slog.Default()), WithVerbose(verbose)).Convert(root)
	return cfg, err
}

// builder holds finished section results until every section has succeeded.
type builder struct {
	name         string
	features     Features
	fonts        []Font
	themes       themeResult
	traits       Traits
	collections  []BookCollection
	translations TranslationMappings
	keys         []string
	audio        *AudioConfig
}

func (b *builder) build() *Configuration {
	return &Configuration{
		Name:                b.name,
		MainFeatures:        b.features,
		Fonts:               b.fonts,
		Themes:              b.themes.themes,
		DefaultTheme:        b.themes.defaultTheme,
		Traits:              b.traits,
		BookCollections:     b.collections,
		TranslationMappings: b.translations,
		Keys:                b.keys,
		Audio:               b.audio,
	}
}

// Convert extracts every section of the document rooted at root.
// On error the returned Configuration and Summary are nil.
func (c *Converter) Convert(root *xmltree.Node) (*Configuration, *Summary, error) {
	summary := &Summary{}
	d := &diagnostics{logger: c.logger, verbose: c.verbose, summary: summary}
	var (
		b   builder
		err error
	)

	if b.name, err = requiredText(root, SectionName, "app-name"); err != nil {
		return nil, nil, err
	}
	summary.Name = b.name
	if c.verbose {
		c.logger.Info("Converting " + b.name)
	}

	if b.features, err = extractMainFeatures(root, d); err != nil {
		return nil, nil, err
	}
	d.converted(SectionFeatures, len(b.features))

	if b.fonts, err = extractFonts(root); err != nil {
		return nil, nil, err
	}
	d.converted(SectionFonts, len(b.fonts))

	if b.themes, err = extractThemes(root); err != nil {
		return nil, nil, err
	}
	d.converted(SectionThemes, len(b.themes.themes), "default", b.themes.defaultTheme)

	if b.traits, err = extractTraits(root, d); err != nil {
		return nil, nil, err
	}
	d.converted(SectionTraits, len(b.traits))

	if b.collections, err = extractCollections(root, d); err != nil {
		return nil, nil, err
	}
	for _, col := range b.collections {
		summary.CollectionBooks = append(summary.CollectionBooks, len(col.Books))
		for _, book := range col.Books {
			for _, track := range book.Audio {
				summary.AudioTracks++
				summary.AudioBytes += int64(track.Size)
			}
		}
	}
	d.converted(SectionCollections, len(b.collections), "books", summary.CollectionBooks)

	b.translations = extractTranslationMappings(root, d)
	if b.translations != nil {
		d.converted(SectionTranslations, len(b.translations))
	}

	b.keys = extractKeys(root)
	if b.keys != nil {
		d.converted(SectionKeys, len(b.keys))
	}

	if b.audio, err = extractAudioSources(root, d); err != nil {
		return nil, nil, err
	}
	if b.audio != nil {
		d.converted(SectionAudioSources, len(b.audio.Sources))
	}

	summary.Warnings = d.warnings
	return b.build(), summary, nil
}
