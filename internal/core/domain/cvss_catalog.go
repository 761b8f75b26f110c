package domain

// MetricOption is one selectable code of a metric together with its weight.
// Scope has no weight; Privileges Required weighs differently per scope.
type MetricOption struct {
	Code           string   `json:"code"`
	Value          string   `json:"value"`
	Description    string   `json:"desc"`
	Score          *float64 `json:"score,omitempty"`
	ScoreUnchanged *float64 `json:"score_unchanged,omitempty"`
	ScoreChanged   *float64 `json:"score_changed,omitempty"`
}

// MetricDefinition describes a base metric for calculator clients.
type MetricDefinition struct {
	Key         Metric         `json:"key"`
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Options     []MetricOption `json:"options"`
}

// Option returns the option carrying code.
func (d MetricDefinition) Option(code string) (MetricOption, bool) {
	for _, opt := range d.Options {
		if opt.Code == code {
			return opt, true
		}
	}
	return MetricOption{}, false
}

func w(v float64) *float64 { return &v }

func impactOptions(low, high string) []MetricOption {
	return []MetricOption{
		{Code: "N", Value: "None", Description: "No loss", Score: w(0)},
		{Code: "L", Value: "Low", Description: low, Score: w(0.22)},
		{Code: "H", Value: "High", Description: high, Score: w(0.56)},
	}
}

func newCatalog() []MetricDefinition {
	return []MetricDefinition{
		{
			Key:         MetricAttackVector,
			Name:        "Attack Vector",
			Description: "Reflects the context by which vulnerability exploitation is possible",
			Options: []MetricOption{
				{Code: "N", Value: "Network", Description: "Remotely exploitable", Score: w(0.85)},
				{Code: "A", Value: "Adjacent", Description: "Adjacent network", Score: w(0.62)},
				{Code: "L", Value: "Local", Description: "Local access required", Score: w(0.55)},
				{Code: "P", Value: "Physical", Description: "Physical access required", Score: w(0.2)},
			},
		},
		{
			Key:         MetricAttackComplexity,
			Name:        "Attack Complexity",
			Description: "Conditions beyond the attacker's control",
			Options: []MetricOption{
				{Code: "L", Value: "Low", Description: "No special conditions", Score: w(0.77)},
				{Code: "H", Value: "High", Description: "Special conditions required", Score: w(0.44)},
			},
		},
		{
			Key:         MetricPrivilegesRequired,
			Name:        "Privileges Required",
			Description: "Level of privileges needed",
			Options: []MetricOption{
				{Code: "N", Value: "None", Description: "No privileges", ScoreUnchanged: w(0.85), ScoreChanged: w(0.85)},
				{Code: "L", Value: "Low", Description: "Basic user privileges", ScoreUnchanged: w(0.62), ScoreChanged: w(0.68)},
				{Code: "H", Value: "High", Description: "Admin privileges", ScoreUnchanged: w(0.27), ScoreChanged: w(0.5)},
			},
		},
		{
			Key:         MetricUserInteraction,
			Name:        "User Interaction",
			Description: "Requires user participation",
			Options: []MetricOption{
				{Code: "N", Value: "None", Description: "No interaction", Score: w(0.85)},
				{Code: "R", Value: "Required", Description: "User action required", Score: w(0.62)},
			},
		},
		{
			Key:         MetricScope,
			Name:        "Scope",
			Description: "Impact beyond security scope",
			Options: []MetricOption{
				{Code: ScopeUnchanged, Value: "Unchanged", Description: "Same authority"},
				{Code: ScopeChanged, Value: "Changed", Description: "Beyond authority"},
			},
		},
		{
			Key:         MetricConfidentiality,
			Name:        "Confidentiality Impact",
			Description: "Impact to confidentiality",
			Options:     impactOptions("Some loss", "Total loss"),
		},
		{
			Key:         MetricIntegrity,
			Name:        "Integrity Impact",
			Description: "Impact to integrity",
			Options:     impactOptions("Some loss", "Total loss"),
		},
		{
			Key:         MetricAvailability,
			Name:        "Availability Impact",
			Description: "Impact to availability",
			Options:     impactOptions("Reduced performance", "Total loss"),
		},
	}
}

var catalogIndex = func() map[Metric]MetricDefinition {
	idx := make(map[Metric]MetricDefinition)
	for _, def := range newCatalog() {
		idx[def.Key] = def
	}
	return idx
}()

// Catalog returns the definitions of all base metrics in canonical order.
// Each call returns a fresh copy.
func Catalog() []MetricDefinition {
	return newCatalog()
}

// Definition returns the definition of metric.
func Definition(metric Metric) (MetricDefinition, bool) {
	def, ok := catalogIndex[metric]
	return def, ok
}

// IsValidCode reports whether code belongs to the domain of metric.
func IsValidCode(metric Metric, code string) bool {
	def, ok := catalogIndex[metric]
	if !ok {
		return false
	}
	_, ok = def.Option(code)
	return ok
}

// Weight returns the numeric weight of code for metric. scope selects the
// Privileges Required table and is ignored otherwise. Scope itself has no weight.
func Weight(metric Metric, code, scope string) (float64, bool) {
	def, ok := catalogIndex[metric]
	if !ok {
		return 0, false
	}
	opt, ok := def.Option(code)
	if !ok {
		return 0, false
	}
	switch {
	case opt.Score != nil:
		return *opt.Score, true
	case scope == ScopeChanged && opt.ScoreChanged != nil:
		return *opt.ScoreChanged, true
	case scope == ScopeUnchanged && opt.ScoreUnchanged != nil:
		return *opt.ScoreUnchanged, true
	}
	return 0, false
}

// Label returns the human readable value of code for metric, or code itself.
func Label(metric Metric, code string) string {
	if def, ok := catalogIndex[metric]; ok {
		if opt, ok := def.Option(code); ok {
			return opt.Value
		}
	}
	return code
}
