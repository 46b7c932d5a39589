package meta

import "testing"

func TestEntityType_AttrLookup(t *testing.T) {
	e := NewEntityType("samples")
	e.AddAttribute(&Attribute{Name: "id", DataType: TypeString, IDAttribute: true})
	e.AddAttribute(&Attribute{Name: "weight", DataType: TypeDecimal, Nillable: true})

	if e.Attr("weight") == nil {
		t.Error("Attr should find an existing attribute")
	}
	if e.Attr("missing") != nil {
		t.Error("Attr should return nil for an unknown name")
	}
	id := e.IDAttribute()
	if id == nil || id.Name != "id" {
		t.Errorf("IDAttribute = %v, want id", id)
	}
}

func TestEntityType_RemoveAttributePreservesOrder(t *testing.T) {
	e := NewEntityType("samples")
	for _, n := range []string{"a", "b", "c", "d"} {
		e.AddAttribute(&Attribute{Name: n, DataType: TypeString, Nillable: true})
	}
	if !e.RemoveAttribute("b") {
		t.Fatal("RemoveAttribute returned false for an existing attribute")
	}
	if e.RemoveAttribute("b") {
		t.Error("RemoveAttribute returned true for an absent attribute")
	}
	want := []string{"a", "c", "d"}
	for i, a := range e.Attributes {
		if a.Name != want[i] {
			t.Fatalf("attribute order after removal: got %s at %d, want %s", a.Name, i, want[i])
		}
	}
}

func TestEntityType_ReferencedEntities(t *testing.T) {
	e := NewEntityType("visits")
	e.AddAttribute(&Attribute{Name: "id", DataType: TypeString, IDAttribute: true})
	e.AddAttribute(&Attribute{Name: "patient", DataType: TypeXRef, RefEntity: "patients"})
	e.AddAttribute(&Attribute{Name: "meds", DataType: TypeMRef, RefEntity: "medications"})
	e.AddAttribute(&Attribute{Name: "patient2", DataType: TypeCategorical, RefEntity: "patients"})
	e.AddAttribute(&Attribute{Name: "next", DataType: TypeXRef, RefEntity: "visits"})

	refs := e.ReferencedEntities()
	if len(refs) != 2 {
		t.Fatalf("ReferencedEntities = %v, want distinct patients and medications", refs)
	}
	seen := map[string]bool{}
	for _, r := range refs {
		seen[r] = true
	}
	if !seen["patients"] || !seen["medications"] {
		t.Errorf("ReferencedEntities = %v", refs)
	}
	if seen["visits"] {
		t.Error("self reference must be excluded")
	}
}

func TestEntityType_CloneIsIndependent(t *testing.T) {
	e := NewEntityType("orig")
	e.AddAttribute(&Attribute{Name: "id", DataType: TypeString, IDAttribute: true})
	e.Labels = map[string]string{"en": "Original"}

	c := e.Clone()
	c.FullName = "copy"
	c.Attributes[0].Name = "pk"
	c.Labels["en"] = "Copy"

	if e.FullName != "orig" || e.Attributes[0].Name != "id" || e.Labels["en"] != "Original" {
		t.Error("mutating a clone leaked into the source")
	}
}

func TestAttribute_SameAs(t *testing.T) {
	a := &Attribute{Name: "owner", DataType: TypeXRef, RefEntity: "users"}
	same := &Attribute{Name: "owner", DataType: TypeXRef, RefEntity: "users", Label: "Owner"}
	if !a.SameAs(same) {
		t.Error("label differences must not break SameAs")
	}
	cases := []*Attribute{
		{Name: "other", DataType: TypeXRef, RefEntity: "users"},
		{Name: "owner", DataType: TypeMRef, RefEntity: "users"},
		{Name: "owner", DataType: TypeXRef, RefEntity: "groups"},
		{Name: "owner", DataType: TypeXRef, RefEntity: "users", Nillable: true},
		{Name: "owner", DataType: TypeXRef, RefEntity: "users", IDAttribute: true},
	}
	for i, c := range cases {
		if a.SameAs(c) {
			t.Errorf("case %d: SameAs should be false", i)
		}
	}
}
