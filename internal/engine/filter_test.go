package engine

import (
	"reflect"
	"testing"
)

func filterTestDescriptor() *Descriptor {
	d := Descriptor{
		Name:   "test_entity",
		Fields: []string{"id", "code", "unit", "price", "quantity", "expiry_date", "owner_id"},
		Filters: FilterSpec{
			Equals:    []string{"unit", "code"},
			Ranges:    []string{"price", "quantity"},
			Sets:      []string{"code", "owner_id"},
			DateExact: []string{"expiry_date"},
		},
	}.normalized()
	return &d
}

func TestParseFilters_Empty(t *testing.T) {
	d := filterTestDescriptor()

	if got := d.ParseFilters(nil); got != nil {
		t.Errorf("ParseFilters(nil) = %v, want nil", got)
	}
	if got := d.ParseFilters(map[string]string{}); got != nil {
		t.Errorf("ParseFilters(empty) = %v, want nil", got)
	}
}

func TestParseFilters_EqualsOnlyForDeclaredFields(t *testing.T) {
	d := filterTestDescriptor()

	filters := d.ParseFilters(map[string]string{
		"unit":  "box",
		"price": "9.99", // declared for ranges, not equals
		"name":  "aspirin",
	})

	if len(filters) != 1 {
		t.Fatalf("expected 1 filter, got %v", filters)
	}
	want := Filter{Field: "unit", Kind: FilterEquals, Value: "box"}
	if !reflect.DeepEqual(filters[0], want) {
		t.Errorf("filter = %+v, want %+v", filters[0], want)
	}
}

func TestParseFilters_ReservedSuffixesNeverEquality(t *testing.T) {
	d := filterTestDescriptor()

	// None of these base fields are declared for the suffix's variant, so all
	// must be dropped rather than misread as equality on the literal key.
	filters := d.ParseFilters(map[string]string{
		"unit_min":    "1",
		"unit_max":    "9",
		"unit_in":     "a,b",
		"unit_not_in": "c",
	})

	if len(filters) != 0 {
		t.Errorf("expected all undeclared suffixed keys dropped, got %v", filters)
	}
}

func TestParseFilters_RangeBoundsMerge(t *testing.T) {
	d := filterTestDescriptor()

	filters := d.ParseFilters(map[string]string{
		"price_min": "1.50",
		"price_max": "10",
	})

	if len(filters) != 1 {
		t.Fatalf("expected merged range filter, got %v", filters)
	}
	f := filters[0]
	if f.Kind != FilterRange || f.Field != "price" {
		t.Fatalf("filter = %+v, want price range", f)
	}
	if f.Min != "1.50" || f.Max != "10" {
		t.Errorf("bounds = (%q,%q), want (1.50,10)", f.Min, f.Max)
	}
}

func TestParseFilters_OpenEndedRange(t *testing.T) {
	d := filterTestDescriptor()

	filters := d.ParseFilters(map[string]string{"quantity_min": "5"})

	if len(filters) != 1 {
		t.Fatalf("expected 1 filter, got %v", filters)
	}
	if filters[0].Min != "5" || filters[0].Max != "" {
		t.Errorf("bounds = (%q,%q), want (5, empty)", filters[0].Min, filters[0].Max)
	}
}

func TestParseFilters_Sets(t *testing.T) {
	d := filterTestDescriptor()

	t.Run("in", func(t *testing.T) {
		filters := d.ParseFilters(map[string]string{"code_in": "ASP, PAR ,IBU,"})
		if len(filters) != 1 {
			t.Fatalf("expected 1 filter, got %v", filters)
		}
		f := filters[0]
		if f.Kind != FilterSet || f.Negate {
			t.Fatalf("filter = %+v, want non-negated set", f)
		}
		if !reflect.DeepEqual(f.Values, []string{"ASP", "PAR", "IBU"}) {
			t.Errorf("values = %v, want trimmed non-empty list", f.Values)
		}
	})

	t.Run("not_in", func(t *testing.T) {
		filters := d.ParseFilters(map[string]string{"code_not_in": "ASP"})
		if len(filters) != 1 {
			t.Fatalf("expected 1 filter, got %v", filters)
		}
		if !filters[0].Negate {
			t.Error("expected negated set filter")
		}
	})
}

func TestParseFilters_DateSuffixedNeverAutoEquality(t *testing.T) {
	d := filterTestDescriptor()

	t.Run("declared_date_exact", func(t *testing.T) {
		filters := d.ParseFilters(map[string]string{"expiry_date": "2026-06-30"})
		if len(filters) != 1 {
			t.Fatalf("expected 1 filter, got %v", filters)
		}
		if filters[0].Kind != FilterDateExact {
			t.Errorf("kind = %v, want FilterDateExact", filters[0].Kind)
		}
	})

	t.Run("undeclared_date_dropped", func(t *testing.T) {
		// created_at is date-suffixed but not declared: it must be dropped,
		// never treated as string equality.
		filters := d.ParseFilters(map[string]string{"created_at": "2026-06-30"})
		if len(filters) != 0 {
			t.Errorf("expected date-suffixed undeclared key dropped, got %v", filters)
		}
	})
}

func TestParseFilters_ReservedParamsAndEmptyValuesIgnored(t *testing.T) {
	d := filterTestDescriptor()

	filters := d.ParseFilters(map[string]string{
		"page":   "2",
		"limit":  "50",
		"sort":   "code",
		"search": "asp",
		"fields": "id,code",
		"unit":   "",
	})

	if len(filters) != 0 {
		t.Errorf("expected no filters, got %v", filters)
	}
}

func TestParseFilters_DeterministicOrder(t *testing.T) {
	d := filterTestDescriptor()

	raw := map[string]string{
		"unit":      "box",
		"code":      "ASP",
		"price_min": "1",
		"owner_id":  "x", // sets-declared but no suffix: dropped
	}

	first := d.ParseFilters(raw)
	for i := 0; i < 10; i++ {
		if got := d.ParseFilters(raw); !reflect.DeepEqual(got, first) {
			t.Fatalf("order not deterministic: %v vs %v", got, first)
		}
	}

	// Scalar filters come sorted by key, ranges appended last.
	if len(first) != 3 {
		t.Fatalf("expected 3 filters, got %v", first)
	}
	if first[0].Field != "code" || first[1].Field != "unit" || first[2].Field != "price" {
		t.Errorf("order = [%s %s %s], want [code unit price]",
			first[0].Field, first[1].Field, first[2].Field)
	}
}
