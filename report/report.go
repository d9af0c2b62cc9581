package report

import (
	"fmt"
	"io"
	"sort"
	"text/tabwriter"

	"sensorclass/ml"
)

// ModelResult is one variant's evaluation summary.
type ModelResult struct {
	Name               string
	ValidationAccuracy float64
	TestAccuracy       float64
	OOBAccuracy        *float64
	CVAccuracy         *float64
}

// WriteSummary prints accuracy figures for each trained variant.
func WriteSummary(w io.Writer, results []ModelResult) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "model\tvalidation\ttest\toob\tcv")
	for _, r := range results {
		fmt.Fprintf(tw, "%s\t%.4f\t%.4f\t%s\t%s\n",
			r.Name, r.ValidationAccuracy, r.TestAccuracy,
			optional(r.OOBAccuracy), optional(r.CVAccuracy))
	}
	return tw.Flush()
}

func optional(v *float64) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf("%.4f", *v)
}

// WriteConfusion renders a normalized confusion matrix, predicted classes
// as rows, actual classes as columns.
func WriteConfusion(w io.Writer, title string, m *ml.ConfusionMatrix) error {
	fmt.Fprintf(w, "%s (predicted x actual, columns normalized)\n", title)
	normalized := m.Normalize()

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprint(tw, "pred\\actual")
	for _, class := range m.Classes {
		fmt.Fprintf(tw, "\t%s", class)
	}
	fmt.Fprintln(tw)
	for row, class := range m.Classes {
		fmt.Fprint(tw, class)
		for col := range m.Classes {
			fmt.Fprintf(tw, "\t%.3f", normalized[row][col])
		}
		fmt.Fprintln(tw)
	}
	return tw.Flush()
}

// WriteImportance prints the top features ranked by importance.
func WriteImportance(w io.Writer, features []string, importance []float64, top int) error {
	if len(features) != len(importance) {
		return fmt.Errorf("features and importance size mismatch")
	}
	order := make([]int, len(features))
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(i, j int) bool {
		return importance[order[i]] > importance[order[j]]
	})
	if top <= 0 || top > len(order) {
		top = len(order)
	}

	fmt.Fprintln(w, "variable importance")
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for rank := 0; rank < top; rank++ {
		idx := order[rank]
		fmt.Fprintf(tw, "%d\t%s\t%.4f\n", rank+1, features[idx], importance[idx])
	}
	return tw.Flush()
}

// WriteQuizPredictions prints the predicted label per quiz row.
func WriteQuizPredictions(w io.Writer, title string, ids, labels []string) error {
	if len(ids) != len(labels) {
		return fmt.Errorf("ids and labels size mismatch")
	}
	fmt.Fprintln(w, title)
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for i := range ids {
		fmt.Fprintf(tw, "%s\t%s\n", ids[i], labels[i])
	}
	return tw.Flush()
}
