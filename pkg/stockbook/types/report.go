package types

// MetricRow is one labeled display value inside a section.
type MetricRow struct {
	Section string `json:"section"`
	Label   string `json:"label"`
	Value   string `json:"value"`
}

// Metrics is an ordered label -> display string table. Built once, read-only.
type Metrics struct {
	rows  []MetricRow
	index map[string]int
}

// NewMetrics builds a table from rows, keeping their order.
func NewMetrics(rows []MetricRow) *Metrics {
	m := &Metrics{rows: make([]MetricRow, len(rows)), index: make(map[string]int, len(rows))}
	copy(m.rows, rows)
	for i, r := range m.rows {
		m.index[r.Label] = i
	}
	return m
}

// Rows returns a copy of the rows in display order.
func (m *Metrics) Rows() []MetricRow {
	if m == nil {
		return nil
	}
	out := make([]MetricRow, len(m.rows))
	copy(out, m.rows)
	return out
}

// Get returns the display value for label.
func (m *Metrics) Get(label string) (string, bool) {
	if m == nil {
		return "", false
	}
	i, ok := m.index[label]
	if !ok {
		return "", false
	}
	return m.rows[i].Value, true
}

// Labels returns the labels in display order.
func (m *Metrics) Labels() []string {
	if m == nil {
		return nil
	}
	out := make([]string, len(m.rows))
	for i, r := range m.rows {
		out[i] = r.Label
	}
	return out
}

// Len reports the number of rows.
func (m *Metrics) Len() int {
	if m == nil {
		return 0
	}
	return len(m.rows)
}

// StepState is the outcome of one pipeline step.
type StepState int

const (
	StepOK StepState = iota
	StepDegraded
	StepFailed
)

func (s StepState) String() string {
	switch s {
	case StepOK:
		return "ok"
	case StepDegraded:
		return "degraded"
	case StepFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// MarshalText renders the state by name in JSON output.
func (s StepState) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// Step records how one stage of the flow went.
type Step struct {
	Name   string    `json:"name"`
	State  StepState `json:"state"`
	Detail string    `json:"detail,omitempty"`
}

// Report is everything produced for one ticker.
type Report struct {
	Ticker      string      `json:"ticker"`
	Period      Period      `json:"period"`
	PeriodLabel string      `json:"periodLabel"`
	Quote       Quote       `json:"quote"`
	Figures     Figures     `json:"figures"`
	Metrics     *Metrics    `json:"-"`
	History     History     `json:"-"`
	Performance Performance `json:"performance"`
	Chart       *Chart      `json:"chart,omitempty"`
	News        []NewsItem  `json:"news,omitempty"`
	Steps       []Step      `json:"steps"`
	GeneratedAt string      `json:"generatedAt"`
}

// CompanyName is the display name for the report.
func (r *Report) CompanyName() string { return r.Quote.DisplayName(r.Ticker) }

// Comparison holds one report per ticker in input order.
type Comparison struct {
	Tickers     []string  `json:"tickers"`
	Period      Period    `json:"period"`
	PeriodLabel string    `json:"periodLabel"`
	Reports     []*Report `json:"reports"`
	Chart       *Chart    `json:"chart,omitempty"`
	GeneratedAt string    `json:"generatedAt"`
}
