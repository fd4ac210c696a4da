package models

// RiskLevel is the categorical bucket derived upstream from a continuous
// churn probability
type RiskLevel string

const (
	RiskHigh   RiskLevel = "High"
	RiskMedium RiskLevel = "Medium"
	RiskLow    RiskLevel = "Low"
)

// Probability thresholds used upstream to bucket customers
const (
	HighRiskThreshold   = 0.7
	MediumRiskThreshold = 0.4
)

// LevelForProbability rebuckets a churn probability into a risk level using
// the same thresholds as the upstream model
func LevelForProbability(p float64) RiskLevel {
	switch {
	case p >= HighRiskThreshold:
		return RiskHigh
	case p >= MediumRiskThreshold:
		return RiskMedium
	default:
		return RiskLow
	}
}

// CustomerRecord is a single scored customer within an analysis result.
// Immutable once received; owned by the AnalysisResult snapshot.
type CustomerRecord struct {
	CustomerID       string    `json:"customer_id"`
	CustomerName     string    `json:"customer_name"`
	ChurnProbability float64   `json:"churn_probability"`
	RiskLevel        RiskLevel `json:"risk_level"`
	RiskColor        string    `json:"risk_color,omitempty"`
	Geography        string    `json:"geography"`
	Age              float64   `json:"age"`
	Tenure           float64   `json:"tenure"`
	Balance          float64   `json:"balance"`
	CreditScore      float64   `json:"credit_score"`
	NumProducts      float64   `json:"num_products"`
	IsActive         bool      `json:"is_active"`
	EstimatedSalary  float64   `json:"estimated_salary"`
	Recommendations  []string  `json:"recommendations,omitempty"`
}

// AnalysisSummary holds the aggregate counters for one analysis
type AnalysisSummary struct {
	TotalCustomers      int     `json:"total_customers"`
	AvgChurnRisk        float64 `json:"avg_churn_risk"`
	ChurnRatePercentage float64 `json:"churn_rate_percentage"`
	HighRiskCustomers   int     `json:"high_risk_customers"`
	MediumRiskCustomers int     `json:"medium_risk_customers"`
	LowRiskCustomers    int     `json:"low_risk_customers"`
}

// RiskBucket is one slice of the risk distribution
type RiskBucket struct {
	Count      int     `json:"count"`
	Percentage float64 `json:"percentage"`
}

// RiskDistribution breaks the customer base down by risk level
type RiskDistribution struct {
	High   RiskBucket `json:"high"`
	Medium RiskBucket `json:"medium"`
	Low    RiskBucket `json:"low"`
}

// GeographyStat aggregates customers for a single region
type GeographyStat struct {
	Count   int     `json:"count"`
	AvgRisk float64 `json:"avg_risk"`
}

// RiskFactor is one ranked driver of churn risk. Importance values are
// independent and not required to sum to 1.
type RiskFactor struct {
	Factor      string  `json:"factor"`
	Importance  float64 `json:"importance"`
	Description string  `json:"description"`
}

// ModelInfo describes the upstream model that produced the analysis
type ModelInfo struct {
	ModelType      string `json:"model_type"`
	FeaturesUsed   int    `json:"features_used"`
	ProcessingDate string `json:"processing_date"`
}

// AnalysisResult is the full precomputed churn/risk snapshot for one
// uploaded dataset
type AnalysisResult struct {
	Summary          AnalysisSummary          `json:"summary"`
	RiskDistribution RiskDistribution         `json:"risk_distribution"`
	GeographyStats   map[string]GeographyStat `json:"geography_analysis"`
	RiskFactors      []RiskFactor             `json:"risk_factors"`
	CustomerDetails  []CustomerRecord         `json:"customer_details"`
	ModelInfo        ModelInfo                `json:"model_info"`
}

// PercentOfTotal computes count/total as a percentage, reporting 0 rather
// than NaN when the total is zero
func PercentOfTotal(count, total int) float64 {
	if total <= 0 {
		return 0
	}
	return float64(count) / float64(total) * 100
}
