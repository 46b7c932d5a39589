package meta

import (
	"errors"
	"testing"
)

func refAttr(name, target string) *Attribute {
	return &Attribute{Name: name, DataType: TypeXRef, RefEntity: target}
}

func entityWithRefs(name string, targets ...string) *EntityType {
	e := NewEntityType(name)
	e.AddAttribute(&Attribute{Name: "id", DataType: TypeString, IDAttribute: true})
	for i, t := range targets {
		e.AddAttribute(refAttr("ref"+string(rune('a'+i)), t))
	}
	return e
}

func TestResolve_ForwardOrder(t *testing.T) {
	e1 := entityWithRefs("e1")
	e2 := entityWithRefs("e2", "e1")
	e3 := entityWithRefs("e3", "e2", "e1")

	ordered, err := Resolve([]*EntityType{e3, e2, e1})
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}

	pos := map[string]int{}
	for i, e := range ordered {
		pos[e.FullName] = i
	}
	if pos["e1"] > pos["e2"] || pos["e2"] > pos["e3"] {
		t.Errorf("expected e1 before e2 before e3, got %v", pos)
	}
}

func TestResolve_ReverseIsMirror(t *testing.T) {
	e1 := entityWithRefs("e1")
	e2 := entityWithRefs("e2", "e1")

	ordered, err := Resolve([]*EntityType{e2, e1})
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	reversed := Reverse(ordered)
	for i := range ordered {
		if ordered[i] != reversed[len(reversed)-1-i] {
			t.Fatal("Reverse is not the exact mirror of the forward order")
		}
	}
}

func TestResolve_SelfReferenceAllowed(t *testing.T) {
	e := entityWithRefs("node", "node")
	ordered, err := Resolve([]*EntityType{e})
	if err != nil {
		t.Fatalf("self-reference should not fail: %v", err)
	}
	if len(ordered) != 1 || ordered[0].FullName != "node" {
		t.Errorf("unexpected order: %v", ordered)
	}
}

func TestResolve_CycleNamesMembers(t *testing.T) {
	e1 := entityWithRefs("cyc1", "cyc2")
	e2 := entityWithRefs("cyc2", "cyc1")
	ok := entityWithRefs("ok")

	_, err := Resolve([]*EntityType{e1, e2, ok})
	if err == nil {
		t.Fatal("expected CycleError")
	}
	var cycErr *CycleError
	if !errors.As(err, &cycErr) {
		t.Fatalf("expected *CycleError, got %T", err)
	}
	members := map[string]bool{}
	for _, m := range cycErr.Members {
		members[m] = true
	}
	if !members["cyc1"] || !members["cyc2"] {
		t.Errorf("cycle members should name cyc1 and cyc2, got %v", cycErr.Members)
	}
	if members["ok"] {
		t.Error("acyclic entity type reported as cycle member")
	}
}

func TestResolve_ExternalRefsIgnored(t *testing.T) {
	e := entityWithRefs("lonely", "not_in_set")
	ordered, err := Resolve([]*EntityType{e})
	if err != nil {
		t.Fatalf("external reference should not fail resolution: %v", err)
	}
	if len(ordered) != 1 {
		t.Errorf("expected 1 entity, got %d", len(ordered))
	}
}

func TestResolve_Deterministic(t *testing.T) {
	input := []*EntityType{
		entityWithRefs("a"), entityWithRefs("b"), entityWithRefs("c"),
	}
	first, err := Resolve(input)
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 5; i++ {
		again, err := Resolve(input)
		if err != nil {
			t.Fatal(err)
		}
		for j := range first {
			if first[j].FullName != again[j].FullName {
				t.Fatal("Resolve output is not deterministic")
			}
		}
	}
}
