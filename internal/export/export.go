// Package export renders an analysis result as downloadable CSV or plain
// text for the report endpoints.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/banklens/churnboard/internal/models"
)

// csvHeader is the column order for customer exports
var csvHeader = []string{
	"customer_id", "customer_name", "churn_probability", "risk_level",
	"geography", "age", "tenure", "balance", "credit_score",
	"num_products", "is_active", "estimated_salary", "recommendations",
}

// WriteCSV writes the analysis's customer records as CSV
func WriteCSV(w io.Writer, result *models.AnalysisResult) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	for _, r := range result.CustomerDetails {
		row := []string{
			r.CustomerID,
			r.CustomerName,
			strconv.FormatFloat(r.ChurnProbability, 'f', 4, 64),
			string(r.RiskLevel),
			r.Geography,
			strconv.FormatFloat(r.Age, 'f', -1, 64),
			strconv.FormatFloat(r.Tenure, 'f', -1, 64),
			strconv.FormatFloat(r.Balance, 'f', 2, 64),
			strconv.FormatFloat(r.CreditScore, 'f', -1, 64),
			strconv.FormatFloat(r.NumProducts, 'f', -1, 64),
			strconv.FormatBool(r.IsActive),
			strconv.FormatFloat(r.EstimatedSalary, 'f', 2, 64),
			strings.Join(r.Recommendations, "; "),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("failed to write CSV row: %w", err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// SummaryText renders a short plain-text report of the analysis
func SummaryText(result *models.AnalysisResult) string {
	var b strings.Builder

	s := result.Summary
	fmt.Fprintf(&b, "Customer Risk Analysis\n")
	fmt.Fprintf(&b, "Model: %s (processed %s)\n\n", result.ModelInfo.ModelType, result.ModelInfo.ProcessingDate)
	fmt.Fprintf(&b, "Total customers: %d\n", s.TotalCustomers)
	fmt.Fprintf(&b, "Average churn risk: %.1f%%\n", s.AvgChurnRisk*100)
	fmt.Fprintf(&b, "High risk:   %d (%.1f%%)\n", result.RiskDistribution.High.Count, result.RiskDistribution.High.Percentage)
	fmt.Fprintf(&b, "Medium risk: %d (%.1f%%)\n", result.RiskDistribution.Medium.Count, result.RiskDistribution.Medium.Percentage)
	fmt.Fprintf(&b, "Low risk:    %d (%.1f%%)\n", result.RiskDistribution.Low.Count, result.RiskDistribution.Low.Percentage)

	if len(result.GeographyStats) > 0 {
		b.WriteString("\nBy region (highest average risk first):\n")
		regions := make([]string, 0, len(result.GeographyStats))
		for region := range result.GeographyStats {
			regions = append(regions, region)
		}
		sort.Slice(regions, func(i, j int) bool {
			return result.GeographyStats[regions[i]].AvgRisk > result.GeographyStats[regions[j]].AvgRisk
		})
		for _, region := range regions {
			stat := result.GeographyStats[region]
			fmt.Fprintf(&b, "  %-12s %4d customers, avg risk %.1f%%\n", region, stat.Count, stat.AvgRisk*100)
		}
	}

	return b.String()
}
