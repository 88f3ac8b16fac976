package analytics

// Series is a pair of aligned lines for the growth chart: what happened and
// the reference target, one point per label.
type Series struct {
	Labels []string  `json:"labels"`
	Actual []float64 `json:"actual"`
	Target []float64 `json:"target"`
}

func (s *Series) add(label string, actual, target float64) {
	s.Labels = append(s.Labels, label)
	s.Actual = append(s.Actual, actual)
	s.Target = append(s.Target, target)
}

// Len is the number of points in the series.
func (s Series) Len() int { return len(s.Actual) }

// Empty reports whether there is nothing to chart.
func (s Series) Empty() bool { return len(s.Actual) == 0 }

// Last returns the final actual value, or 0 for an empty series.
func (s Series) Last() float64 {
	if len(s.Actual) == 0 {
		return 0
	}
	return s.Actual[len(s.Actual)-1]
}
