package scanner

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	orderedmap "github.com/wk8/go-ordered-map/v2"

	"github.com/gnana997/quickgen/pkg/jsdoc"
)

// ComponentKind describes the declaration form a component was found in.
type ComponentKind string

const (
	ComponentKindFunction      ComponentKind = "function"
	ComponentKindArrow         ComponentKind = "arrow"
	ComponentKindWrapped       ComponentKind = "wrapped"
	ComponentKindDefaultExport ComponentKind = "default-export"
)

// anonymousDefaultName names `export default () => ...` components.
const anonymousDefaultName = "DefaultExportComponent"

// ComponentInfo is the per-candidate accumulator filled by AnalyzeProps.
// It lives only for the file being processed.
type ComponentInfo struct {
	Name           string        `json:"name"`
	Kind           ComponentKind `json:"kind"`
	ParamName      string        `json:"paramName"`
	Props          *PropSet      `json:"props"`
	HasSpreadProps bool          `json:"hasSpreadProps"`
	Line           int           `json:"line"`
}

// NewComponentInfo returns an empty accumulator for the named component.
func NewComponentInfo(name string, kind ComponentKind) *ComponentInfo {
	return &ComponentInfo{Name: name, Kind: kind, Props: NewPropSet()}
}

// Doc converts the record into synthesizer input.
func (ci *ComponentInfo) Doc() jsdoc.Doc {
	return jsdoc.Doc{
		Name:           ci.Name,
		ParamName:      ci.ParamName,
		Props:          ci.Props.Keys(),
		HasSpreadProps: ci.HasSpreadProps,
	}
}

// PropSet is an insertion-ordered set of prop keys. A captured rest binding
// is stored once, as jsdoc.RestPrefix + name.
type PropSet struct {
	m *orderedmap.OrderedMap[string, struct{}]
}

// NewPropSet creates an empty set.
func NewPropSet() *PropSet {
	return &PropSet{m: orderedmap.New[string, struct{}]()}
}

// Add inserts key, reporting whether it was new.
func (s *PropSet) Add(key string) bool {
	if key == "" {
		return false
	}
	_, present := s.m.Set(key, struct{}{})
	return !present
}

// AddRest records a named rest binding. Only the first one is kept.
func (s *PropSet) AddRest(name string) bool {
	if _, ok := s.Rest(); ok || name == "" {
		return false
	}
	return s.Add(jsdoc.RestPrefix + name)
}

// Has reports membership of a plain key.
func (s *PropSet) Has(key string) bool {
	_, ok := s.m.Get(key)
	return ok
}

// Rest returns the bound rest name, if any.
func (s *PropSet) Rest() (string, bool) {
	for pair := s.m.Oldest(); pair != nil; pair = pair.Next() {
		if name, ok := strings.CutPrefix(pair.Key, jsdoc.RestPrefix); ok {
			return name, true
		}
	}
	return "", false
}

// Plain returns the non-rest keys in insertion order.
func (s *PropSet) Plain() []string {
	var keys []string
	for pair := s.m.Oldest(); pair != nil; pair = pair.Next() {
		if !strings.HasPrefix(pair.Key, jsdoc.RestPrefix) {
			keys = append(keys, pair.Key)
		}
	}
	return keys
}

// Keys returns every entry in insertion order.
func (s *PropSet) Keys() []string {
	keys := make([]string, 0, s.m.Len())
	for pair := s.m.Oldest(); pair != nil; pair = pair.Next() {
		keys = append(keys, pair.Key)
	}
	return keys
}

// Len returns the number of entries, the rest entry included.
func (s *PropSet) Len() int {
	return s.m.Len()
}

// MarshalJSON encodes the set as an ordered array.
func (s *PropSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Keys())
}

// ErrMissingLocation marks a candidate whose anchor has no usable source
// position. Only that candidate is skipped.
var ErrMissingLocation = errors.New("candidate has no usable source location")

// BatchError is a whole-run failure (unreadable root, bad patterns).
type BatchError struct {
	Root string
	Err  error
}

func (e *BatchError) Error() string {
	return fmt.Sprintf("scan %s: %v", e.Root, e.Err)
}

func (e *BatchError) Unwrap() error { return e.Err }

// FileErrorKind classifies per-file failures.
type FileErrorKind string

const (
	FileErrorRead  FileErrorKind = "read"
	FileErrorParse FileErrorKind = "parse"
	FileErrorWrite FileErrorKind = "write"
	FileErrorEdit  FileErrorKind = "edit"

	// FileErrorExtract is a knowledge-mode failure after a successful parse
	FileErrorExtract FileErrorKind = "extract"
)

// FileError is a recovered per-file failure.
type FileError struct {
	Path string        `json:"path"`
	Kind FileErrorKind `json:"kind"`
	Err  error         `json:"-"`
}

func (e FileError) Error() string {
	return fmt.Sprintf("%s (%s): %v", e.Path, e.Kind, e.Err)
}

// MarshalJSON includes the error message.
func (e FileError) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Path    string        `json:"path"`
		Kind    FileErrorKind `json:"kind"`
		Message string        `json:"message"`
	}{e.Path, e.Kind, e.Err.Error()})
}
