package records

import (
	"math"
	"sort"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/banklens/churnboard/internal/models"
)

// FilterAll disables a categorical filter
const FilterAll = "All"

// Sort directions
const (
	DirectionAsc  = "asc"
	DirectionDesc = "desc"
)

// Sortable field names, matching the wire names of CustomerRecord attributes
const (
	FieldCustomerID       = "customer_id"
	FieldCustomerName     = "customer_name"
	FieldChurnProbability = "churn_probability"
	FieldRiskLevel        = "risk_level"
	FieldGeography        = "geography"
	FieldAge              = "age"
	FieldTenure           = "tenure"
	FieldBalance          = "balance"
	FieldCreditScore      = "credit_score"
	FieldNumProducts      = "num_products"
	FieldIsActive         = "is_active"
	FieldEstimatedSalary  = "estimated_salary"
)

// ViewSpec is the combined filter/sort/pagination state governing which
// subset of records is displayed. It is owned and mutated by the caller;
// the engine only reads it.
type ViewSpec struct {
	Search    string `json:"search"`
	RiskLevel string `json:"risk_level"`
	Geography string `json:"geography"`
	SortField string `json:"sort_field"`
	Direction string `json:"direction"`
	Page      int    `json:"page"`
	PageSize  int    `json:"page_size"`
}

// DefaultSpec returns the view specification used when a new analysis is
// loaded or filters are cleared: highest-risk customers first.
func DefaultSpec() ViewSpec {
	return ViewSpec{
		RiskLevel: FilterAll,
		Geography: FilterAll,
		SortField: FieldChurnProbability,
		Direction: DirectionDesc,
		Page:      1,
		PageSize:  10,
	}
}

// View is the derived page of records plus pagination counts
type View struct {
	Page         []models.CustomerRecord `json:"page"`
	TotalMatched int                     `json:"total_matched"`
	TotalPages   int                     `json:"total_pages"`
}

// ComputeView derives the exact ordered subset of records to display for the
// given specification. It is a pure function of its inputs: the record slice
// is never mutated and no state is retained between calls.
func ComputeView(recs []models.CustomerRecord, spec ViewSpec) View {
	matched := make([]models.CustomerRecord, 0, len(recs))
	for _, r := range recs {
		if matches(r, spec) {
			matched = append(matched, r)
		}
	}

	sortRecords(matched, spec.SortField, spec.Direction)

	pageSize := spec.PageSize
	if pageSize <= 0 {
		pageSize = DefaultSpec().PageSize
	}

	totalPages := (len(matched) + pageSize - 1) / pageSize
	if totalPages < 1 {
		totalPages = 1
	}

	page := spec.Page
	if page < 1 {
		page = 1
	}
	if page > totalPages {
		page = totalPages
	}

	start := (page - 1) * pageSize
	end := start + pageSize
	if start > len(matched) {
		start = len(matched)
	}
	if end > len(matched) {
		end = len(matched)
	}

	return View{
		Page:         matched[start:end],
		TotalMatched: len(matched),
		TotalPages:   totalPages,
	}
}

// matches applies the conjunctive filter: risk level, geography, and a
// case-insensitive substring match on name or id
func matches(r models.CustomerRecord, spec ViewSpec) bool {
	if spec.RiskLevel != "" && spec.RiskLevel != FilterAll && string(r.RiskLevel) != spec.RiskLevel {
		return false
	}
	if spec.Geography != "" && spec.Geography != FilterAll && r.Geography != spec.Geography {
		return false
	}
	if spec.Search != "" {
		term := strings.ToLower(spec.Search)
		if !strings.Contains(strings.ToLower(r.CustomerName), term) &&
			!strings.Contains(strings.ToLower(r.CustomerID), term) {
			return false
		}
	}
	return true
}

// sortRecords stably sorts records in place on the given field. Ties keep
// their relative input order so pagination stays deterministic.
func sortRecords(recs []models.CustomerRecord, field, direction string) {
	// Collators are stateful and not safe for concurrent use, so each sort
	// gets its own
	collator := collate.New(language.English, collate.IgnoreCase)

	cmp := comparatorFor(field, collator)
	if cmp == nil {
		return
	}

	sign := 1
	if direction == DirectionDesc {
		sign = -1
	}

	sort.SliceStable(recs, func(i, j int) bool {
		return sign*cmp(recs[i], recs[j]) < 0
	})
}

// comparatorFor returns a three-way comparator for the named field, or nil
// for unknown fields (input order is kept)
func comparatorFor(field string, collator *collate.Collator) func(a, b models.CustomerRecord) int {
	switch field {
	case FieldCustomerID:
		return func(a, b models.CustomerRecord) int {
			return collator.CompareString(a.CustomerID, b.CustomerID)
		}
	case FieldCustomerName:
		return func(a, b models.CustomerRecord) int {
			return collator.CompareString(a.CustomerName, b.CustomerName)
		}
	case FieldGeography:
		return func(a, b models.CustomerRecord) int {
			return collator.CompareString(a.Geography, b.Geography)
		}
	case FieldRiskLevel:
		return func(a, b models.CustomerRecord) int {
			return compareFloat(riskRank(a.RiskLevel), riskRank(b.RiskLevel))
		}
	case FieldChurnProbability:
		return numericComparator(func(r models.CustomerRecord) float64 { return r.ChurnProbability })
	case FieldAge:
		return numericComparator(func(r models.CustomerRecord) float64 { return r.Age })
	case FieldTenure:
		return numericComparator(func(r models.CustomerRecord) float64 { return r.Tenure })
	case FieldBalance:
		return numericComparator(func(r models.CustomerRecord) float64 { return r.Balance })
	case FieldCreditScore:
		return numericComparator(func(r models.CustomerRecord) float64 { return r.CreditScore })
	case FieldNumProducts:
		return numericComparator(func(r models.CustomerRecord) float64 { return r.NumProducts })
	case FieldEstimatedSalary:
		return numericComparator(func(r models.CustomerRecord) float64 { return r.EstimatedSalary })
	case FieldIsActive:
		return func(a, b models.CustomerRecord) int {
			return compareFloat(boolValue(a.IsActive), boolValue(b.IsActive))
		}
	default:
		return nil
	}
}

func numericComparator(key func(models.CustomerRecord) float64) func(a, b models.CustomerRecord) int {
	return func(a, b models.CustomerRecord) int {
		return compareFloat(key(a), key(b))
	}
}

// compareFloat orders values with NaN treated as the minimum so malformed
// numeric fields sort first instead of poisoning the order
func compareFloat(a, b float64) int {
	if math.IsNaN(a) {
		a = math.Inf(-1)
	}
	if math.IsNaN(b) {
		b = math.Inf(-1)
	}
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func boolValue(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

// riskRank orders risk levels Low < Medium < High; unknown levels sort first
func riskRank(level models.RiskLevel) float64 {
	switch level {
	case models.RiskLow:
		return 1
	case models.RiskMedium:
		return 2
	case models.RiskHigh:
		return 3
	default:
		return 0
	}
}
