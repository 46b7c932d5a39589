package meta

import (
	"errors"
	"strings"
	"testing"
)

func TestValidateName(t *testing.T) {
	cases := []struct {
		name    string
		wantErr error
	}{
		{"valid_name", nil},
		{"Valid123", nil},
		{"with#hash", nil},
		{"a", nil},
		{"", ErrInvalidName},
		{"1starts_with_digit", ErrInvalidName},
		{"_underscore_first", ErrInvalidName},
		{"has space", ErrInvalidName},
		{"has-dash", ErrInvalidName},
		{strings.Repeat("x", 30), nil},
		{strings.Repeat("x", 31), ErrNameTooLong},
		{"select", ErrReservedName},
		{"where", ErrReservedName},
		{"true", ErrReservedName},
		{"null", ErrReservedName},
	}
	for _, c := range cases {
		err := ValidateName(c.name)
		if c.wantErr == nil && err != nil {
			t.Errorf("ValidateName(%q) = %v, want nil", c.name, err)
		}
		if c.wantErr != nil && !errors.Is(err, c.wantErr) {
			t.Errorf("ValidateName(%q) = %v, want %v", c.name, err, c.wantErr)
		}
	}
}

func TestValidateEntityType(t *testing.T) {
	base := func() *EntityType {
		e := NewEntityType("patients")
		e.AddAttribute(&Attribute{Name: "id", DataType: TypeString, IDAttribute: true})
		e.AddAttribute(&Attribute{Name: "name", DataType: TypeString, Nillable: true})
		return e
	}

	if err := ValidateEntityType(base()); err != nil {
		t.Fatalf("valid entity type rejected: %v", err)
	}

	t.Run("duplicate attribute", func(t *testing.T) {
		e := base()
		e.Attributes = append(e.Attributes, &Attribute{Name: "name", DataType: TypeText})
		if err := ValidateEntityType(e); !errors.Is(err, ErrDuplicateAttr) {
			t.Errorf("got %v, want ErrDuplicateAttr", err)
		}
	})

	t.Run("multiple id attributes", func(t *testing.T) {
		e := base()
		e.AddAttribute(&Attribute{Name: "id2", DataType: TypeString, IDAttribute: true})
		if err := ValidateEntityType(e); !errors.Is(err, ErrMultipleIDs) {
			t.Errorf("got %v, want ErrMultipleIDs", err)
		}
	})

	t.Run("nillable id attribute", func(t *testing.T) {
		e := NewEntityType("broken")
		e.AddAttribute(&Attribute{Name: "id", DataType: TypeString, IDAttribute: true, Nillable: true})
		if err := ValidateEntityType(e); !errors.Is(err, ErrNillableID) {
			t.Errorf("got %v, want ErrNillableID", err)
		}
	})

	t.Run("reference without target", func(t *testing.T) {
		e := base()
		e.AddAttribute(&Attribute{Name: "owner", DataType: TypeXRef})
		if err := ValidateEntityType(e); !errors.Is(err, ErrMissingRef) {
			t.Errorf("got %v, want ErrMissingRef", err)
		}
	})

	t.Run("invalid data type", func(t *testing.T) {
		e := base()
		e.AddAttribute(&Attribute{Name: "odd", DataType: DataType("blob")})
		if err := ValidateEntityType(e); !errors.Is(err, ErrInvalidType) {
			t.Errorf("got %v, want ErrInvalidType", err)
		}
	})

	t.Run("invalid entity name", func(t *testing.T) {
		e := base()
		e.FullName = "9bad"
		if err := ValidateEntityType(e); !errors.Is(err, ErrInvalidName) {
			t.Errorf("got %v, want ErrInvalidName", err)
		}
	})
}
