package mapper

import (
	"strings"
	"testing"
)

type recA struct {
	Name  string
	Slots int
}

func (r *recA) Fields() []Field {
	return []Field{{Name: "name", Value: r.Name}, {Name: "slots", Value: r.Slots}}
}

type recB struct {
	Name  string
	Slots int
}

func (r *recB) Fields() []Field {
	return []Field{{Name: "name", Value: r.Name}, {Name: "slots", Value: r.Slots}}
}

func TestEqualSameType(t *testing.T) {
	if !Equal(&recA{Name: "node1", Slots: 4}, &recA{Name: "node1", Slots: 4}) {
		t.Error("Expected distinct instances with identical fields to compare equal")
	}
	if Equal(&recA{Name: "node1", Slots: 4}, &recA{Name: "node1", Slots: 5}) {
		t.Error("Expected differing field to break equality")
	}
}

func TestEqualDifferentTypes(t *testing.T) {
	if Equal(&recA{Name: "node1", Slots: 4}, &recB{Name: "node1", Slots: 4}) {
		t.Error("Expected records of different concrete types to never compare equal")
	}
}

func TestRenderListsEveryField(t *testing.T) {
	s := Render(&recA{Name: "node1", Slots: 4})
	if !strings.HasPrefix(s, "recA(") {
		t.Errorf("Expected type name prefix, got %q", s)
	}
	for _, want := range []string{"name=", "node1", "slots=", "4"} {
		if !strings.Contains(s, want) {
			t.Errorf("Expected %q in rendered record, got %q", want, s)
		}
	}
}
