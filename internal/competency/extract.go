package competency

import (
	"strings"

	"github.com/chemsLazar/recrutement-intern-modelIA/internal/records"
)

// Role tells the extractor which kind of record it reads.
type Role string

const (
	RoleCandidate Role = "candidate"
	RoleJob       Role = "job"
)

// DefaultJobFields lists the job record fields holding required skills, in the
// order they are read.
var DefaultJobFields = []string{"requiredSkills", "competences_requises", "skills", "competencies"}

// DefaultCandidateFields lists the candidate record fields holding skills.
var DefaultCandidateFields = []string{"competences"}

// Set is a deduplicated collection of normalized competencies. Members keep
// the order in which they were first seen, so iteration is stable.
type Set struct {
	items []string
	index map[string]struct{}
}

// NewSet normalizes and deduplicates the given competencies.
func NewSet(items ...string) *Set {
	s := &Set{}
	for _, item := range items {
		s.Add(Normalize(item))
	}
	return s
}

// Add inserts an already normalized competency. The empty string is a valid member.
func (s *Set) Add(c string) {
	if s.index == nil {
		s.index = make(map[string]struct{})
	}
	if _, ok := s.index[c]; ok {
		return
	}
	s.index[c] = struct{}{}
	s.items = append(s.items, c)
}

func (s *Set) Contains(c string) bool {
	if s == nil {
		return false
	}
	_, ok := s.index[c]
	return ok
}

func (s *Set) Len() int {
	if s == nil {
		return 0
	}
	return len(s.items)
}

// Items returns the members in insertion order.
func (s *Set) Items() []string {
	if s == nil {
		return nil
	}
	out := make([]string, len(s.items))
	copy(out, s.items)
	return out
}

// Blob joins the members with single spaces.
func (s *Set) Blob() string {
	if s == nil {
		return ""
	}
	return strings.Join(s.items, " ")
}

// Extractor pulls competency sets out of records.
type Extractor struct {
	JobFields       []string
	CandidateFields []string
}

// NewExtractor builds an extractor; empty field lists fall back to the defaults.
func NewExtractor(jobFields, candidateFields []string) *Extractor {
	e := &Extractor{
		JobFields:       DefaultJobFields,
		CandidateFields: DefaultCandidateFields,
	}
	if len(jobFields) > 0 {
		e.JobFields = jobFields
	}
	if len(candidateFields) > 0 {
		e.CandidateFields = candidateFields
	}
	return e
}

// Extract returns the competency set of the record for the given role.
// Missing or malformed fields contribute nothing.
func (e *Extractor) Extract(record records.Record, role Role) *Set {
	fields := e.CandidateFields
	if role == RoleJob {
		fields = e.JobFields
	}

	set := &Set{}
	for _, field := range fields {
		addField(set, record[field])
	}
	return set
}

// Extract uses the default field configuration.
func Extract(record records.Record, role Role) *Set {
	return NewExtractor(nil, nil).Extract(record, role)
}

func addField(set *Set, value any) {
	switch typed := value.(type) {
	case []any:
		for _, item := range typed {
			set.Add(NormalizeValue(item))
		}
	case []string:
		for _, item := range typed {
			set.Add(Normalize(item))
		}
	case string:
		// an empty string is an absent field, a blank one is a blank entry
		if typed == "" {
			return
		}
		set.Add(Normalize(typed))
	}
}
