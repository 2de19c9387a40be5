package domain

// FeatureInfo summarises one parsed feature file.
type FeatureInfo struct {
	Path        string
	Name        string
	Description string
	Tags        []string
	Background  []string
	Scenarios   []ScenarioInfo
	// ParseError is set when the file could not be parsed.
	ParseError string
}

// ScenarioInfo is a scenario or scenario outline as written in the file.
type ScenarioInfo struct {
	Name     string
	Tags     []string
	Line     int
	Examples int
	Steps    []string
}

// ScenarioCount counts runnable scenarios, expanding outline examples.
func (f FeatureInfo) ScenarioCount() int {
	n := 0
	for _, sc := range f.Scenarios {
		if sc.Examples > 0 {
			n += sc.Examples
			continue
		}
		n++
	}
	return n
}

// Title is the feature name, or the path for unnamed or broken files.
func (f FeatureInfo) Title() string {
	if f.Name != "" {
		return f.Name
	}
	return f.Path
}
