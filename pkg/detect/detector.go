package detect

import (
	"fmt"
	"regexp"
	"sort"
)

// Category groups detectors by the kind of data they flag.
type Category string

const (
	CategoryPersonal       Category = "personal"
	CategoryFinancial      Category = "financial"
	CategoryInfrastructure Category = "infrastructure"
	CategoryMedical        Category = "medical"
)

// Detector is an immutable named pattern. Name is the identity and is unique
// within a Registry.
type Detector struct {
	Name     string
	Pattern  string
	Category Category

	// CaseInsensitive is set for textual tokens (emails, headers, key
	// assignments). Structured tokens such as digits and fixed-width codes
	// are matched literally.
	CaseInsensitive bool
}

// Match is one candidate hit of a detector against a text.
type Match struct {
	Detector string
	Category Category
	Text     string
}

// compiled pairs a definition with its compiled expression.
type compiled struct {
	def Detector
	re  *regexp.Regexp
}

// Registry holds the compiled detector set. It is read-only after
// construction and safe for concurrent use.
type Registry struct {
	detectors []compiled
	byName    map[string]Detector
	faults    []Fault
}

// NewRegistry compiles the given definitions. A pattern that does not
// compile is recorded as a fault and skipped; only structural problems
// (empty or duplicate names) are returned as errors.
func NewRegistry(defs []Detector) (*Registry, error) {
	r := &Registry{
		byName: make(map[string]Detector, len(defs)),
	}

	for _, d := range defs {
		if d.Name == "" {
			return nil, &DefinitionError{Message: "detector name is required"}
		}
		if _, dup := r.byName[d.Name]; dup {
			return nil, &DefinitionError{Name: d.Name, Message: "duplicate detector name"}
		}
		r.byName[d.Name] = d

		expr := d.Pattern
		if d.CaseInsensitive {
			expr = "(?i)" + expr
		}
		re, err := regexp.Compile(expr)
		if err != nil {
			r.faults = append(r.faults, Fault{Detector: d.Name, Err: fmt.Errorf("compile pattern: %w", err)})
			continue
		}
		r.detectors = append(r.detectors, compiled{def: d, re: re})
	}

	return r, nil
}

// MustBuiltin returns a registry over the builtin table. The builtin table
// is fixed, so a failure here is a programming error.
func MustBuiltin() *Registry {
	r, err := NewRegistry(Builtin())
	if err != nil {
		panic(err)
	}
	return r
}

// Detect runs every detector over text and returns the matches. Matches are
// deduplicated per detector (identical text is reported once, at its first
// occurrence); different detectors never suppress each other.
func (r *Registry) Detect(text string) []Match {
	matches, _ := r.DetectWithFaults(text)
	return matches
}

// DetectWithFaults is Detect plus the faults hit during this call, including
// compile faults recorded at construction.
func (r *Registry) DetectWithFaults(text string) ([]Match, []Fault) {
	faults := append([]Fault(nil), r.faults...)
	if text == "" {
		return nil, faults
	}

	var out []Match
	for _, c := range r.detectors {
		found, err := run(c, text)
		if err != nil {
			faults = append(faults, Fault{Detector: c.def.Name, Err: err})
			continue
		}
		seen := make(map[string]struct{}, len(found))
		for _, m := range found {
			if _, ok := seen[m]; ok {
				continue
			}
			seen[m] = struct{}{}
			out = append(out, Match{Detector: c.def.Name, Category: c.def.Category, Text: m})
		}
	}
	return out, faults
}

// run executes a single detector, converting a panic into a fault.
func run(c compiled, text string) (found []string, err error) {
	defer func() {
		if p := recover(); p != nil {
			found = nil
			err = fmt.Errorf("detector panicked: %v", p)
		}
	}()
	return c.re.FindAllString(text, -1), nil
}

// Get returns the definition of a named detector.
func (r *Registry) Get(name string) (Detector, bool) {
	d, ok := r.byName[name]
	return d, ok
}

// Names returns all registered detector names, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.byName))
	for n := range r.byName {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Faults returns the construction-time faults.
func (r *Registry) Faults() []Fault {
	return append([]Fault(nil), r.faults...)
}

// Len returns the number of runnable detectors.
func (r *Registry) Len() int {
	return len(r.detectors)
}
