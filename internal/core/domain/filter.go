package domain

// Filterable metadata field names. These are the only fields the vector
// index accepts equality predicates on.
const (
	FieldEducationLevel = "education_level"
	FieldSubject        = "subject"
	FieldLanguage       = "language"
	FieldDocumentID     = "document_id"
)

// Filter is a conjunction of equality predicates over chunk metadata.
// Empty string values assert nothing; a filter with no set fields means an
// unfiltered search. Callers must use Predicates to build index filters so
// that an all-empty Filter is normalized to "no filter" rather than a filter
// object asserting nothing - the two are not equivalent in every index.
type Filter struct {
	// EducationLevel filters by curriculum level.
	EducationLevel string `json:"education_level,omitempty"`

	// Subject filters by curriculum subject.
	Subject string `json:"subject,omitempty"`

	// Language filters by ISO language code.
	Language string `json:"language,omitempty"`

	// DocumentID restricts the search to a single document.
	DocumentID string `json:"document_id,omitempty"`
}

// IsZero reports whether no predicate is set.
func (f Filter) IsZero() bool {
	return f.EducationLevel == "" && f.Subject == "" && f.Language == "" && f.DocumentID == ""
}

// Predicates returns the set predicates as field/value pairs, omitting empty
// values. A nil return means unfiltered search.
func (f Filter) Predicates() map[string]string {
	if f.IsZero() {
		return nil
	}
	preds := make(map[string]string, 4)
	if f.EducationLevel != "" {
		preds[FieldEducationLevel] = f.EducationLevel
	}
	if f.Subject != "" {
		preds[FieldSubject] = f.Subject
	}
	if f.Language != "" {
		preds[FieldLanguage] = f.Language
	}
	if f.DocumentID != "" {
		preds[FieldDocumentID] = f.DocumentID
	}
	return preds
}

// Matches reports whether the metadata satisfies every set predicate.
func (f Filter) Matches(m ChunkMetadata) bool {
	for field, want := range f.Predicates() {
		got, ok := m.Field(field)
		if !ok || got != want {
			return false
		}
	}
	return true
}
