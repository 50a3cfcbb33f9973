package appdef

import (
	"fmt"
	"log/slog"
)

// Section names used in errors, warnings and summaries.
const (
	SectionName         = "app-name"
	SectionFeatures     = "features"
	SectionFonts        = "fonts"
	SectionThemes       = "color-themes"
	SectionTraits       = "traits"
	SectionCollections  = "books"
	SectionTranslations = "translation-mappings"
	SectionKeys         = "keys"
	SectionAudioSources = "audio-sources"
)

// Warning records an entry that was skipped.
type Warning struct {
	Section string
	Message string
}

func (w Warning) String() string {
	return w.Section + ": " + w.Message
}

// SectionCount is the number of items converted for one section.
type SectionCount struct {
	Section string
	Count   int
}

// Summary describes what a conversion produced.
type Summary struct {
	Name            string
	Sections        []SectionCount
	CollectionBooks []int
	AudioTracks     int
	AudioBytes      int64
	Warnings        []Warning
}

// Count returns the recorded count for section, or 0.
func (s *Summary) Count(section string) int {
	for _, sc := range s.Sections {
		if sc.Section == section {
			return sc.Count
		}
	}
	return 0
}

type diagnostics struct {
	logger   *slog.Logger
	verbose  bool
	summary  *Summary
	warnings []Warning
}

func (d *diagnostics) skip(section, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	d.warnings = append(d.warnings, Warning{Section: section, Message: msg})
	d.logger.Warn("skipped entry", "section", section, "reason", msg)
}

func (d *diagnostics) converted(section string, count int, attrs ...any) {
	d.summary.Sections = append(d.summary.Sections, SectionCount{Section: section, Count: count})
	if d.verbose {
		d.logger.Info(fmt.Sprintf("Converted %d %s", count, section), attrs...)
	}
}
