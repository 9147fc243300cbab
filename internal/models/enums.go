package models

import (
	"fmt"
	"strings"
)

// Criterion is the sort/split dimension chosen by the caller.
type Criterion int

const (
	CriterionNone Criterion = iota
	CriterionArtist
	CriterionGenre
	CriterionPopularity
	CriterionDate
	CriterionLanguage
)

// Criteria lists every selectable criterion in presentation order.
var Criteria = []Criterion{CriterionArtist, CriterionGenre, CriterionPopularity, CriterionDate, CriterionLanguage}

// String returns the wire name of the criterion.
func (c Criterion) String() string {
	switch c {
	case CriterionNone:
		return ""
	case CriterionArtist:
		return "artist"
	case CriterionGenre:
		return "genre"
	case CriterionPopularity:
		return "popularity"
	case CriterionDate:
		return "date"
	case CriterionLanguage:
		return "language"
	default:
		return fmt.Sprintf("criterion(%d)", int(c))
	}
}

// Display returns the label used in playlist names and descriptions.
func (c Criterion) Display() string {
	switch c {
	case CriterionArtist:
		return "Artist"
	case CriterionGenre:
		return "Genre"
	case CriterionPopularity:
		return "Popularity"
	case CriterionDate:
		return "Release Date"
	case CriterionLanguage:
		return "Language"
	default:
		return "Name"
	}
}

// ParseCriterion converts a wire name into a [Criterion]. The empty string is [CriterionNone].
func ParseCriterion(s string) (Criterion, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "":
		return CriterionNone, nil
	case "artist":
		return CriterionArtist, nil
	case "genre":
		return CriterionGenre, nil
	case "popularity":
		return CriterionPopularity, nil
	case "date":
		return CriterionDate, nil
	case "language":
		return CriterionLanguage, nil
	default:
		return CriterionNone, fmt.Errorf("unknown criterion %q", s)
	}
}

// MarshalText implements [encoding.TextMarshaler].
func (c Criterion) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// UnmarshalText implements [encoding.TextUnmarshaler].
func (c *Criterion) UnmarshalText(text []byte) error {
	parsed, err := ParseCriterion(string(text))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// Function names one of the four transformations.
type Function int

const (
	FunctionUnknown Function = iota
	FunctionMerge
	FunctionClean
	FunctionSort
	FunctionSplit
)

func (f Function) String() string {
	switch f {
	case FunctionMerge:
		return "merge"
	case FunctionClean:
		return "clean"
	case FunctionSort:
		return "sort"
	case FunctionSplit:
		return "split"
	default:
		return "unknown"
	}
}

// ParseFunction converts a wire name into a [Function].
func ParseFunction(s string) (Function, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "merge":
		return FunctionMerge, nil
	case "clean":
		return FunctionClean, nil
	case "sort":
		return FunctionSort, nil
	case "split":
		return FunctionSplit, nil
	default:
		return FunctionUnknown, fmt.Errorf("invalid function type %q", s)
	}
}

// MarshalText implements [encoding.TextMarshaler].
func (f Function) MarshalText() ([]byte, error) {
	return []byte(f.String()), nil
}

// UnmarshalText implements [encoding.TextUnmarshaler].
func (f *Function) UnmarshalText(text []byte) error {
	parsed, err := ParseFunction(string(text))
	if err != nil {
		return err
	}
	*f = parsed
	return nil
}
