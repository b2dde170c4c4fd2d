package models

// Capability identifies something an agent knows how to do.
type Capability string

const (
	// CapabilityFileReading indicates the agent can read local files.
	CapabilityFileReading Capability = "file_reading"
	// CapabilityWebSearch indicates the agent can search the web.
	CapabilityWebSearch Capability = "web_search"
	// CapabilityCodeAnalysis indicates the agent can analyze source code.
	CapabilityCodeAnalysis Capability = "code_analysis"
	// CapabilityDataAnalysis indicates the agent can analyze structured data.
	CapabilityDataAnalysis Capability = "data_analysis"
	// CapabilityImageAnalysis indicates the agent can describe images.
	CapabilityImageAnalysis Capability = "image_analysis"
	// CapabilityGeneralReasoning indicates the agent can answer from general knowledge.
	CapabilityGeneralReasoning Capability = "general_reasoning"
)

// Valid returns true if the capability is a known value.
func (c Capability) Valid() bool {
	switch c {
	case CapabilityFileReading, CapabilityWebSearch, CapabilityCodeAnalysis,
		CapabilityDataAnalysis, CapabilityImageAnalysis, CapabilityGeneralReasoning:
		return true
	default:
		return false
	}
}

// HasCapability reports whether the capability set contains c.
func HasCapability(set []Capability, c Capability) bool {
	for _, have := range set {
		if have == c {
			return true
		}
	}
	return false
}
