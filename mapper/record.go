package mapper

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/luci/go-render/render"
)

// Field is one named record field exposed for comparison and rendering.
type Field struct {
	Name  string
	Value interface{}
}

// Comparable is implemented by record types that want structural value
// semantics. Fields must return every field of the record, in a fixed order.
type Comparable interface {
	Fields() []Field
}

// Equal reports whether a and b are the same concrete type with every field
// comparing equal. Records of different concrete types are never equal.
func Equal(a, b Comparable) bool {
	if reflect.TypeOf(a) != reflect.TypeOf(b) {
		return false
	}
	return reflect.DeepEqual(a.Fields(), b.Fields())
}

// Render formats c as TypeName(field=value, ...), listing every field.
func Render(c Comparable) string {
	t := reflect.TypeOf(c)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	pairs := []string{}
	for _, f := range c.Fields() {
		pairs = append(pairs, fmt.Sprintf("%s=%s", f.Name, render.Render(f.Value)))
	}
	return fmt.Sprintf("%s(%s)", t.Name(), strings.Join(pairs, ", "))
}
