package report

import (
	"fmt"
	"strings"

	"github.com/KaramelBytes/segloom/internal/cluster"
)

// ClusterSummary holds per-cluster means.
type ClusterSummary struct {
	Label         int     `json:"label"`
	Size          int     `json:"size"`
	Age           float64 `json:"mean_age"`
	Income        float64 `json:"mean_income"`
	SpendingScore float64 `json:"mean_spending_score"`
}

// Report is a markdown-friendly description of one segmentation run.
type Report struct {
	Name       string           `json:"name"`
	RunID      string           `json:"run_id"`
	Rows       int              `json:"rows"`
	Classes    []string         `json:"gender_classes"`
	Clusters   []ClusterSummary `json:"clusters"`
	Columns    []ColumnProfile  `json:"columns"`
	Inertia    float64          `json:"inertia"`
	Iterations int              `json:"iterations"`
}

// New summarises a clustered dataset.
func New(runID string, c *cluster.Clustered) *Report {
	r := &Report{
		Name:       c.Name,
		RunID:      runID,
		Rows:       len(c.Rows),
		Classes:    append([]string(nil), c.Gender.Classes...),
		Inertia:    c.Inertia,
		Iterations: c.Iterations,
		Columns:    Profile(c.Encoded),
	}
	for _, k := range c.Present() {
		s := ClusterSummary{Label: k}
		for _, row := range c.Members(k) {
			s.Size++
			s.Age += row.Age
			s.Income += row.Income
			s.SpendingScore += row.SpendingScore
		}
		n := float64(s.Size)
		s.Age /= n
		s.Income /= n
		s.SpendingScore /= n
		r.Clusters = append(r.Clusters, s)
	}
	return r
}

// Markdown renders the report.
func (r *Report) Markdown() string {
	var b strings.Builder
	b.WriteString("[SEGMENTATION SUMMARY]\n")
	if r.Name != "" {
		b.WriteString(fmt.Sprintf("File: %s\n", r.Name))
	}
	if r.RunID != "" {
		b.WriteString(fmt.Sprintf("Run: %s\n", r.RunID))
	}
	b.WriteString(fmt.Sprintf("Rows: %d\n", r.Rows))
	b.WriteString(fmt.Sprintf("Clusters: %d (inertia %.4g, %d iterations)\n\n", len(r.Clusters), r.Inertia, r.Iterations))

	b.WriteString("[GENDER ENCODING]\n")
	for code, label := range r.Classes {
		b.WriteString(fmt.Sprintf("- %s = %d\n", safeVal(label), code))
	}

	b.WriteString("\n[PROFILE]\n")
	for _, p := range r.Columns {
		b.WriteString(fmt.Sprintf("- %s: min %.4g, max %.4g, mean %.4g, std %.4g, median %.4g", p.Name, p.Min, p.Max, p.Mean, p.Std, p.Median))
		if p.Outliers > 0 {
			b.WriteString(fmt.Sprintf("; outliers: %d above |z|>%.1f (max |z|≈%.2f)", p.Outliers, OutlierThreshold, p.MaxAbsZ))
		}
		b.WriteString("\n")
	}

	b.WriteString("\n[CLUSTERS]\n")
	for _, c := range r.Clusters {
		pct := float64(c.Size) * 100 / float64(r.Rows)
		b.WriteString(fmt.Sprintf("- Cluster %d (n=%d, %.1f%%): mean Age %.4g, Income %.4g, Spending Score %.4g\n",
			c.Label, c.Size, pct, c.Age, c.Income, c.SpendingScore))
	}
	return b.String()
}

func safeVal(s string) string { return strings.ReplaceAll(strings.ReplaceAll(s, "\n", " "), "|", "/") }
