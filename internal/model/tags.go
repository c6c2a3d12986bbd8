package model

import "slices"

// Tag is a workflow action tag on a journal entry.
type Tag string

const (
	// TagRefreshOrders asks for the entry's order table to be rebuilt.
	TagRefreshOrders Tag = "refresh-orders"
	// TagMissingOrders marks an entry with unmatched references or blank amounts.
	TagMissingOrders Tag = "missing-orders"
	// TagProcessingFailed marks an entry whose last reconciliation raised an error.
	TagProcessingFailed Tag = "processing-failed"
)

// TagSet is an ordered set of tags. None of the known tags are mutually
// exclusive; refresh-orders and missing-orders may coexist until a
// reconciliation pass removes refresh-orders.
//
// Operations return a new set and never modify the receiver.
type TagSet struct {
	tags []Tag
}

// NewTagSet builds a set, dropping duplicates and blanks.
func NewTagSet(tags ...Tag) TagSet {
	var s TagSet
	for _, t := range tags {
		s = s.Add(t)
	}
	return s
}

// Has reports whether t is in the set.
func (s TagSet) Has(t Tag) bool {
	return slices.Contains(s.tags, t)
}

// Add returns the set with t added.
func (s TagSet) Add(t Tag) TagSet {
	if t == "" || s.Has(t) {
		return s
	}
	out := make([]Tag, len(s.tags), len(s.tags)+1)
	copy(out, s.tags)
	return TagSet{tags: append(out, t)}
}

// Remove returns the set without t.
func (s TagSet) Remove(t Tag) TagSet {
	if !s.Has(t) {
		return s
	}
	out := make([]Tag, 0, len(s.tags)-1)
	for _, x := range s.tags {
		if x != t {
			out = append(out, x)
		}
	}
	return TagSet{tags: out}
}

// Set adds t when on is true and removes it otherwise.
func (s TagSet) Set(t Tag, on bool) TagSet {
	if on {
		return s.Add(t)
	}
	return s.Remove(t)
}

// Tags returns the tags in insertion order.
func (s TagSet) Tags() []Tag {
	return slices.Clone(s.tags)
}

// Len returns the number of tags.
func (s TagSet) Len() int {
	return len(s.tags)
}
