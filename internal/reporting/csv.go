package reporting

import (
	"fmt"
	"strings"
)

// RenderCSV renders variant aggregates as a CSV string.
func RenderCSV(rows []AggregateRow) string {
	var sb strings.Builder

	// Header
	sb.WriteString("variant_id,kind,sample_count,mean,median,std_dev,min,max,p95,p99\n")

	// Rows
	for _, a := range rows {
		sb.WriteString(fmt.Sprintf("%s,%s,%d,%.6f,%.6f,%.6f,%.6f,%.6f,%.6f,%.6f\n",
			a.VariantID,
			a.Kind,
			a.SampleCount,
			a.Mean,
			a.Median,
			a.StdDev,
			a.Min,
			a.Max,
			a.P95,
			a.P99,
		))
	}

	return sb.String()
}

// RenderComparisonsCSV renders comparison rows as a CSV string.
func RenderComparisonsCSV(rows []ComparisonRow) string {
	var sb strings.Builder

	sb.WriteString("candidate_id,method,kind,samples_baseline,samples_candidate,")
	sb.WriteString("t_statistic,p_value,effect_size,ci_low,ci_high,adjusted_alpha,")
	sb.WriteString("prob_candidate_beats,credible_low,credible_high,significant,decision\n")

	for _, c := range rows {
		sb.WriteString(fmt.Sprintf("%s,%s,%s,%d,%d,%.6f,%.6f,%.6f,%.6f,%.6f,%.6f,%.6f,%.6f,%.6f,%t,%s\n",
			c.CandidateID,
			c.Method,
			c.Kind,
			c.SamplesBaseline,
			c.SamplesCandidate,
			c.TStatistic,
			c.PValue,
			c.EffectSize,
			c.CILow,
			c.CIHigh,
			c.AdjustedAlpha,
			c.ProbCandidateBeats,
			c.CredibleLow,
			c.CredibleHigh,
			c.Significant,
			c.Decision,
		))
	}

	return sb.String()
}
