package scoring

// Severity is the presentation bucket of a score value.
type Severity struct {
	Level int    `json:"level"`
	Label string `json:"label"`
	Color string `json:"color"`
}

// severities is ordered from best to worst; the last bucket has no lower bound.
var severities = []struct {
	min float64
	Severity
}{
	{95, Severity{Level: 8, Label: "perfect", Color: "#00ff00"}},
	{90, Severity{Level: 7, Label: "excellent", Color: "#7cfc00"}},
	{85, Severity{Level: 6, Label: "great", Color: "#adff2f"}},
	{80, Severity{Level: 5, Label: "good", Color: "#d4ff3f"}},
	{70, Severity{Level: 4, Label: "decent", Color: "#ffd700"}},
	{60, Severity{Level: 3, Label: "fair", Color: "#ffa500"}},
	{50, Severity{Level: 2, Label: "rough", Color: "#ff7f50"}},
	{40, Severity{Level: 1, Label: "poor", Color: "#ff6347"}},
	{0, Severity{Level: 0, Label: "miss", Color: "#ff0000"}},
}

// Classify returns the severity bucket for a score value.
func Classify(value float64) Severity {
	for _, s := range severities[:len(severities)-1] {
		if value >= s.min {
			return s.Severity
		}
	}
	return severities[len(severities)-1].Severity
}

// Severities lists every bucket from best to worst.
func Severities() []Severity {
	out := make([]Severity, len(severities))
	for i, s := range severities {
		out[i] = s.Severity
	}
	return out
}
