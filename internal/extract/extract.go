// Package extract pulls the airline/destination table out of a rendered
// airport article. The markup is free-form, so every step is a heuristic
// that degrades to "not found" rather than an error.
package extract

import (
	"errors"
	"fmt"

	"github.com/dgallion1/wikiroutes/internal/doctree"
	"github.com/dgallion1/wikiroutes/internal/model"
)

var (
	// ErrSectionNotFound means the article has no destinations section.
	ErrSectionNotFound = errors.New("destinations section not found")
	// ErrTableNotFound means the section ended before a data table appeared.
	ErrTableNotFound = errors.New("destinations table not found")
)

// Options controls what the extractor looks for.
type Options struct {
	HeadingText         string // substring matched against flattened heading text
	AnchorID            string // id used when no heading text matches
	TableClass          string // class marking a data table
	HeadingWrapperClass string // class of the container some skins wrap headings in
}

// DefaultOptions matches English Wikipedia airport articles.
func DefaultOptions() Options {
	return Options{
		HeadingText:         "Airlines and destinations",
		AnchorID:            "Airlines_and_destinations",
		TableClass:          "wikitable",
		HeadingWrapperClass: "mw-heading",
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.HeadingText == "" {
		o.HeadingText = d.HeadingText
	}
	if o.AnchorID == "" {
		o.AnchorID = d.AnchorID
	}
	if o.TableClass == "" {
		o.TableClass = d.TableClass
	}
	if o.HeadingWrapperClass == "" {
		o.HeadingWrapperClass = d.HeadingWrapperClass
	}
	return o
}

// Flights runs section location, table selection, column classification
// and row decoding. A missing section or table is reported with one of the
// sentinel errors; callers treat both as "no destinations data".
func Flights(tree *doctree.Tree, opts Options) ([]model.FlightRecord, error) {
	opts = opts.withDefaults()

	boundary, err := LocateSection(tree, opts)
	if err != nil {
		return nil, err
	}
	table, err := SelectTable(boundary, opts)
	if err != nil {
		return nil, fmt.Errorf("after %q (h%d): %w", opts.HeadingText, boundary.Depth, err)
	}
	layout := ClassifyColumns(table)
	return DecodeRows(tree, table, layout), nil
}
