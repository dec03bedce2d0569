// Package ownership implements the conservative directory-prefix glob
// semantics used to detect file-ownership conflicts between tasks.
// Patterns are never parsed as full globs: a trailing "**" or "*" is
// stripped to a prefix, and two patterns overlap iff one normalized
// prefix is a prefix of the other. False positives (patterns that
// overlap but share no concrete file) are accepted; false negatives are
// not.
package ownership

import "strings"

// OwnershipType mirrors models.OwnershipType without importing pkg/models,
// keeping this package dependency-free and independently testable.
type OwnershipType string

const (
	Exclusive OwnershipType = "exclusive"
	Shared    OwnershipType = "shared"
)

// Declared is one task's declared interest in a file pattern.
type Declared struct {
	TaskID  string
	Pattern string
	Type    OwnershipType
}

// PatternConflict is a reported (mine, theirs) overlap where at least
// one side is exclusive.
type PatternConflict struct {
	TaskID  string
	Pattern string
	Type    OwnershipType
}

// FileConflictWarning is a human-readable warning produced when a
// changed file matches another task's exclusive pattern.
type FileConflictWarning struct {
	File    string
	TaskID  string
	Pattern string
	Message string
}

// normalize strips a trailing "**" or "*" glob suffix to yield the
// directory-prefix the pattern actually constrains.
func normalize(pattern string) string {
	p := pattern
	p = strings.TrimSuffix(p, "**")
	p = strings.TrimSuffix(p, "*")
	p = strings.TrimSuffix(p, "/")
	return p
}

// PatternsOverlap reports whether a and b's normalized prefixes overlap:
// one is a prefix of the other. Symmetric and reflexive.
func PatternsOverlap(a, b string) bool {
	na, nb := normalize(a), normalize(b)
	if na == "" || nb == "" {
		return true
	}
	return strings.HasPrefix(na, nb) || strings.HasPrefix(nb, na)
}

// Matches reports whether file is covered by pattern: the file begins
// with the normalized prefix, or equals the pattern exactly.
func Matches(file, pattern string) bool {
	if file == pattern {
		return true
	}
	prefix := normalize(pattern)
	if prefix == "" {
		return true
	}
	return strings.HasPrefix(file, prefix)
}

// FindPatternConflicts reports every (mine, theirs) pair whose patterns
// overlap and where at least one side is exclusive. Two shared patterns
// never conflict.
func FindPatternConflicts(myPatterns []Declared, others []Declared) []PatternConflict {
	var conflicts []PatternConflict
	for _, mine := range myPatterns {
		for _, theirs := range others {
			if mine.TaskID == theirs.TaskID {
				continue
			}
			if !PatternsOverlap(mine.Pattern, theirs.Pattern) {
				continue
			}
			if mine.Type != Exclusive && theirs.Type != Exclusive {
				continue
			}
			conflicts = append(conflicts, PatternConflict{
				TaskID:  theirs.TaskID,
				Pattern: theirs.Pattern,
				Type:    theirs.Type,
			})
		}
	}
	return conflicts
}

// CheckFileConflicts produces one warning per changed file for every
// other task whose exclusive pattern the file matches.
func CheckFileConflicts(changedFiles []string, others []Declared) []FileConflictWarning {
	var warnings []FileConflictWarning
	for _, file := range changedFiles {
		for _, theirs := range others {
			if theirs.Type != Exclusive {
				continue
			}
			if !Matches(file, theirs.Pattern) {
				continue
			}
			warnings = append(warnings, FileConflictWarning{
				File:    file,
				TaskID:  theirs.TaskID,
				Pattern: theirs.Pattern,
				Message: file + " overlaps exclusive pattern '" + theirs.Pattern + "' owned by task " + theirs.TaskID,
			})
		}
	}
	return warnings
}
