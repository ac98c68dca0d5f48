package models

import "strings"

// TransactionNote attaches a free-text note and tags to a transaction by
// signature, so it survives re-importing the same statement.
type TransactionNote struct {
	Base
	UserScope string `gorm:"not null;uniqueIndex:idx_notes_scope_signature,priority:1" json:"-"`
	Signature string `gorm:"size:64;not null;uniqueIndex:idx_notes_scope_signature,priority:2" json:"signature"`
	Note      string `json:"note"`
	Tags      string `json:"-"`
}

// TagList splits the stored comma-separated tags.
func (n *TransactionNote) TagList() []string {
	if n.Tags == "" {
		return []string{}
	}
	return strings.Split(n.Tags, ",")
}

// SetTags normalizes and stores tags: trimmed, lowercased, de-duplicated,
// original order kept.
func (n *TransactionNote) SetTags(tags []string) {
	seen := make(map[string]bool, len(tags))
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, strings.ReplaceAll(t, ",", " "))
	}
	n.Tags = strings.Join(out, ",")
}
