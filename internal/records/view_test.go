package records

import (
	"reflect"
	"testing"

	"github.com/banklens/churnboard/internal/models"
)

func sampleRecords() []models.CustomerRecord {
	return []models.CustomerRecord{
		{CustomerID: "CUST_001", CustomerName: "Alice Martin", RiskLevel: models.RiskHigh, Geography: "France", ChurnProbability: 0.82, Balance: 120000, Age: 42},
		{CustomerID: "CUST_002", CustomerName: "Bruno Keller", RiskLevel: models.RiskMedium, Geography: "Germany", ChurnProbability: 0.55, Balance: 45000, Age: 35},
		{CustomerID: "CUST_003", CustomerName: "Carla Diaz", RiskLevel: models.RiskLow, Geography: "Spain", ChurnProbability: 0.12, Balance: 78000, Age: 29},
		{CustomerID: "CUST_004", CustomerName: "David Brown", RiskLevel: models.RiskHigh, Geography: "France", ChurnProbability: 0.91, Balance: 3000, Age: 57},
		{CustomerID: "CUST_005", CustomerName: "Elena Rossi", RiskLevel: models.RiskMedium, Geography: "Spain", ChurnProbability: 0.48, Balance: 45000, Age: 35},
	}
}

func TestHighRiskFilterSortedByChurnDesc(t *testing.T) {
	spec := DefaultSpec()
	spec.RiskLevel = "High"

	view := ComputeView(sampleRecords(), spec)

	if view.TotalMatched != 2 {
		t.Fatalf("Expected 2 matched records, got %d", view.TotalMatched)
	}
	if view.TotalPages != 1 {
		t.Errorf("Expected 1 page, got %d", view.TotalPages)
	}
	if view.Page[0].CustomerID != "CUST_004" || view.Page[1].CustomerID != "CUST_001" {
		t.Errorf("Expected CUST_004 then CUST_001, got %s then %s",
			view.Page[0].CustomerID, view.Page[1].CustomerID)
	}
}

func TestFiltersAreConjunctive(t *testing.T) {
	spec := DefaultSpec()
	spec.RiskLevel = "Medium"
	spec.Geography = "Spain"
	spec.Search = "elena"

	view := ComputeView(sampleRecords(), spec)

	if view.TotalMatched != 1 {
		t.Fatalf("Expected 1 matched record, got %d", view.TotalMatched)
	}
	r := view.Page[0]
	if r.RiskLevel != models.RiskMedium || r.Geography != "Spain" || r.CustomerName != "Elena Rossi" {
		t.Errorf("Record %s does not satisfy all active filters", r.CustomerID)
	}
}

func TestSearchMatchesNameOrID(t *testing.T) {
	spec := DefaultSpec()
	spec.Search = "cust_003"

	view := ComputeView(sampleRecords(), spec)
	if view.TotalMatched != 1 || view.Page[0].CustomerName != "Carla Diaz" {
		t.Errorf("Expected id search to match Carla Diaz, got %d records", view.TotalMatched)
	}

	spec.Search = "ROSSI"
	view = ComputeView(sampleRecords(), spec)
	if view.TotalMatched != 1 || view.Page[0].CustomerID != "CUST_005" {
		t.Errorf("Expected case-insensitive name search to match CUST_005, got %d records", view.TotalMatched)
	}
}

func TestSortStabilityOnTies(t *testing.T) {
	// CUST_002 and CUST_005 share balance 45000 and age 35; their relative
	// input order must survive sorting
	spec := DefaultSpec()
	spec.SortField = FieldBalance
	spec.Direction = DirectionAsc

	first := ComputeView(sampleRecords(), spec)
	second := ComputeView(sampleRecords(), spec)

	if !reflect.DeepEqual(first, second) {
		t.Error("Identical input and spec produced different views")
	}

	var tied []string
	for _, r := range first.Page {
		if r.Balance == 45000 {
			tied = append(tied, r.CustomerID)
		}
	}
	if !reflect.DeepEqual(tied, []string{"CUST_002", "CUST_005"}) {
		t.Errorf("Tied records lost input order: %v", tied)
	}
}

func TestPaginationCompleteness(t *testing.T) {
	spec := DefaultSpec()
	spec.PageSize = 2

	var all []string
	first := ComputeView(sampleRecords(), spec)
	for page := 1; page <= first.TotalPages; page++ {
		spec.Page = page
		view := ComputeView(sampleRecords(), spec)
		for _, r := range view.Page {
			all = append(all, r.CustomerID)
		}
	}

	if len(all) != first.TotalMatched {
		t.Fatalf("Concatenated pages hold %d records, expected %d", len(all), first.TotalMatched)
	}
	seen := make(map[string]bool)
	for _, id := range all {
		if seen[id] {
			t.Errorf("Record %s appears on more than one page", id)
		}
		seen[id] = true
	}
}

func TestPageClamping(t *testing.T) {
	spec := DefaultSpec()
	spec.PageSize = 2
	spec.Page = 99

	view := ComputeView(sampleRecords(), spec)
	if view.TotalPages != 3 {
		t.Fatalf("Expected 3 pages, got %d", view.TotalPages)
	}
	// Clamped to the last page, which holds the single remaining record
	if len(view.Page) != 1 {
		t.Errorf("Expected 1 record on clamped last page, got %d", len(view.Page))
	}

	spec.Page = -5
	view = ComputeView(sampleRecords(), spec)
	if len(view.Page) != 2 {
		t.Errorf("Expected first page after clamping negative page, got %d records", len(view.Page))
	}
}

func TestEmptyInputYieldsOnePage(t *testing.T) {
	view := ComputeView(nil, DefaultSpec())
	if view.TotalMatched != 0 || view.TotalPages != 1 || len(view.Page) != 0 {
		t.Errorf("Expected empty view with 1 page, got %+v", view)
	}
}

func TestInputNotMutated(t *testing.T) {
	recs := sampleRecords()
	original := sampleRecords()

	spec := DefaultSpec()
	spec.SortField = FieldCustomerName
	spec.Direction = DirectionAsc
	ComputeView(recs, spec)

	if !reflect.DeepEqual(recs, original) {
		t.Error("ComputeView mutated its input records")
	}
}

func TestUnknownSortFieldKeepsInputOrder(t *testing.T) {
	spec := DefaultSpec()
	spec.SortField = "no_such_field"

	view := ComputeView(sampleRecords(), spec)
	if view.Page[0].CustomerID != "CUST_001" {
		t.Errorf("Expected input order for unknown sort field, got %s first", view.Page[0].CustomerID)
	}
}

func TestSortByNameLocaleAware(t *testing.T) {
	spec := DefaultSpec()
	spec.SortField = FieldCustomerName
	spec.Direction = DirectionAsc

	view := ComputeView(sampleRecords(), spec)
	want := []string{"Alice Martin", "Bruno Keller", "Carla Diaz", "David Brown", "Elena Rossi"}
	for i, name := range want {
		if view.Page[i].CustomerName != name {
			t.Fatalf("Position %d: expected %s, got %s", i, name, view.Page[i].CustomerName)
		}
	}
}
