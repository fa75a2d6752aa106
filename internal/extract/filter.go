// Package extract decides which records belong in the corpus and pulls the
// summary fields and description out of accepted ones.
package extract

import "github.com/lehigh-university-libraries/oaicorpus/internal/record"

// AllowList is an immutable set of subject labels
type AllowList struct {
	subjects map[string]struct{}
}

// NewAllowList builds an AllowList from the given labels
func NewAllowList(subjects ...string) AllowList {
	set := make(map[string]struct{}, len(subjects))
	for _, s := range subjects {
		set[s] = struct{}{}
	}
	return AllowList{subjects: set}
}

// Contains reports whether subject is an exact member of the list
func (a AllowList) Contains(subject string) bool {
	_, ok := a.subjects[subject]
	return ok
}

// Len returns the number of labels in the list
func (a AllowList) Len() int {
	return len(a.subjects)
}

// Matches reports whether any of subjects is in the list
func (a AllowList) Matches(subjects []string) bool {
	for _, s := range subjects {
		if a.Contains(s) {
			return true
		}
	}
	return false
}

// Accepts reports whether the record is cross-listed under at least one allowed subject
func (a AllowList) Accepts(rec Values) bool {
	return a.Matches(rec.Values(record.Subject))
}
