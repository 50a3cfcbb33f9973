// Package model defines shared data structures.
package model

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
)

// ConvertOptions defines a conversion request after flags and config are merged.
type ConvertOptions struct {
	DataDir       string `validate:"required"`
	Input         string `validate:"required"`
	Out           string
	Format        string `validate:"required,oneof=js json yaml"`
	Pretty        bool
	Verbose       bool
	SkipUnchanged bool
	NoHistory     bool
}

// HistoryConfig defines filters for the history command.
type HistoryConfig struct {
	Source string
	Last   int `validate:"gte=0"`
	Plain  bool
}

// Run records one completed conversion.
type Run struct {
	ID         string
	SourcePath string
	Digest     string
	AppName    string
	OutputPath string
	Format     string
	Pretty     bool
	OutputSize int64
	Warnings   int
	StartedAt  time.Time
	EndedAt    time.Time
}

// Duration returns how long the conversion took.
func (r Run) Duration() time.Duration {
	return r.EndedAt.Sub(r.StartedAt)
}

// RunSection stores the number of entries converted for one section of a run.
type RunSection struct {
	Section string
	Count   int
}

var validate = validator.New()

// Validate checks struct tags on an options value.
func Validate(target any) error {
	if err := validate.Struct(target); err != nil {
		return fmt.Errorf("invalid options: %w", err)
	}
	return nil
}
