// Package mapper projects semi-structured scheduler output (XML documents,
// separator-delimited tables) into typed records according to a per-type
// field mapping declared by the record itself.
package mapper

import (
	"encoding/xml"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// ElemKind selects how a matched XML element is extracted.
type ElemKind int

const (
	// ElemText extracts the element's trimmed text content.
	ElemText ElemKind = iota
	// ElemSubtree extracts the element node itself.
	ElemSubtree
)

// Record is any type that can be populated by this package. Mapping returns
// the ordered field mapping for the type; records must be usable at their
// zero value, which supplies the per-field defaults for unmatched keys.
type Record interface {
	Mapping() Mapping
}

// FieldSpec describes how one source key (XML tag or table column) lands on
// a record field. Assign receives either a single extracted value or, when a
// key matches more than once, an ordered []interface{} of all values.
type FieldSpec struct {
	Kind      ElemKind
	Transform func(interface{}) (interface{}, error)
	Assign    func(Record, interface{})
}

type mappingEntry struct {
	key  string
	spec FieldSpec
}

// Mapping is an ordered list of source key to FieldSpec pairs. Keys need not
// be unique; a type may map several entries off the same tag or column.
type Mapping struct {
	entries []mappingEntry
}

// NewMapping builds a Mapping from entries constructed with Map.
func NewMapping(entries ...mappingEntry) Mapping {
	return Mapping{entries: entries}
}

// Map pairs a source key with its FieldSpec for use in NewMapping.
func Map(key string, spec FieldSpec) mappingEntry {
	return mappingEntry{key: key, spec: spec}
}

// ParseError reports input that could not be parsed as well-formed XML.
type ParseError struct {
	Cause error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("malformed xml: %v", e.Cause)
}

// Element is one node of a parsed XML document.
type Element struct {
	Name     string
	Attr     map[string]string
	Text     string
	Children []*Element
}

// ParseDocument parses doc and returns its root element, or a *ParseError.
func ParseDocument(doc string) (*Element, error) {
	dec := xml.NewDecoder(strings.NewReader(doc))
	var root *Element
	var stack []*Element
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, &ParseError{Cause: err}
		}
		switch t := tok.(type) {
		case xml.StartElement:
			el := &Element{Name: t.Name.Local, Attr: map[string]string{}}
			for _, a := range t.Attr {
				el.Attr[a.Name.Local] = a.Value
			}
			if len(stack) > 0 {
				parent := stack[len(stack)-1]
				parent.Children = append(parent.Children, el)
			} else if root != nil {
				return nil, &ParseError{Cause: fmt.Errorf("multiple document roots")}
			} else {
				root = el
			}
			stack = append(stack, el)
		case xml.EndElement:
			stack = stack[:len(stack)-1]
		case xml.CharData:
			if len(stack) > 0 {
				stack[len(stack)-1].Text += string(t)
			}
		}
	}
	if root == nil {
		return nil, &ParseError{Cause: fmt.Errorf("empty document")}
	}
	return root, nil
}

// FindAll collects every descendant of el named key, in document order.
func (el *Element) FindAll(key string) []*Element {
	var found []*Element
	for _, c := range el.Children {
		if c.Name == key {
			found = append(found, c)
		}
		found = append(found, c.FindAll(key)...)
	}
	return found
}

// FromXML parses doc and populates rec according to rec's Mapping. Malformed
// input yields a *ParseError and rec is left untouched.
func FromXML(doc string, rec Record) error {
	root, err := ParseDocument(doc)
	if err != nil {
		return err
	}
	return FromElement(root, rec)
}

// FromElement populates rec from an already-parsed element tree.
//
// For each mapping entry, all descendants of el with the entry's tag name are
// collected in document order. A text-kind match yields the element's trimmed
// text; if the element carries a "name" attribute the value becomes a
// single-entry map {nameAttr: text} instead, so repeated same-tag elements
// with distinct name attributes (per-resource hard requests) stay separate.
// One match assigns the scalar, several assign the ordered slice, zero leaves
// the field at its default.
func FromElement(el *Element, rec Record) error {
	for _, entry := range rec.Mapping().entries {
		matches := el.FindAll(entry.key)
		var values []interface{}
		for _, m := range matches {
			var v interface{}
			if entry.spec.Kind == ElemSubtree {
				v = m
			} else {
				text := strings.TrimSpace(m.Text)
				if name, ok := m.Attr["name"]; ok {
					v = map[string]string{name: text}
				} else {
					v = text
				}
			}
			if entry.spec.Transform != nil {
				tv, err := entry.spec.Transform(v)
				if err != nil {
					return err
				}
				v = tv
			}
			values = append(values, v)
		}
		if len(values) == 1 {
			entry.spec.Assign(rec, values[0])
		} else if len(values) > 1 {
			entry.spec.Assign(rec, values)
		}
	}
	return nil
}

// FromTable maps a separator-delimited table into one record per row. The
// first line is the header naming each column; columns with no mapping entry
// are ignored, and a row shorter than the header simply stops contributing
// values at its last column. Input with no data rows yields an empty slice.
func FromTable(table, sep string, newRec func() Record) ([]Record, error) {
	lines := strings.Split(strings.TrimRight(table, "\n"), "\n")
	var records []Record
	if len(lines) < 2 {
		return records, nil
	}
	columns := strings.Split(lines[0], sep)
	for _, row := range lines[1:] {
		rec := newRec()
		mapping := rec.Mapping()
		items := strings.Split(row, sep)
		for i, column := range columns {
			if i >= len(items) {
				break
			}
			for _, entry := range mapping.entries {
				if entry.key != column {
					continue
				}
				v := interface{}(items[i])
				if entry.spec.Transform != nil {
					tv, err := entry.spec.Transform(v)
					if err != nil {
						return nil, err
					}
					v = tv
				}
				entry.spec.Assign(rec, v)
			}
		}
		records = append(records, rec)
	}
	return records, nil
}

// ToInt is a Transform parsing raw text as a base 10 int. Empty text maps to
// zero so absent table cells keep the field default.
func ToInt(v interface{}) (interface{}, error) {
	s, ok := v.(string)
	if !ok {
		return nil, fmt.Errorf("ToInt: expected string, got %T", v)
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return nil, err
	}
	return n, nil
}
