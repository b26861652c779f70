package domain

// Subject is the root of the content hierarchy.
type Subject struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// ContentDomain is a thematic grouping of learning nodes within a subject.
type ContentDomain struct {
	ID        string `json:"id"`
	SubjectID string `json:"subject_id"`
	Name      string `json:"name"`
	Position  int    `json:"position"`
}

// Node is a single learning node. A topic in the placement engine is
// represented by one node acting as its entry point.
type Node struct {
	ID         string     `json:"id"`
	DomainID   string     `json:"domain_id,omitempty"`
	SubjectID  string     `json:"subject_id"`
	Title      string     `json:"title"`
	Difficulty Difficulty `json:"difficulty,omitempty"`
	Position   int        `json:"position"`
}

// Question is a multiple-choice question served during a placement test.
type Question struct {
	ID           string     `json:"id"`
	NodeID       string     `json:"node_id"`
	Text         string     `json:"text"`
	Options      []string   `json:"options"`
	CorrectIndex int        `json:"correct_index"`
	Difficulty   Difficulty `json:"difficulty"`
	Explanation  string     `json:"explanation,omitempty"`
}

// SampleNodes selects up to count representative nodes from an ordered list.
// When the list is small enough it is returned unchanged; otherwise nodes are
// picked at a fixed stride so the sample covers the beginning, middle and end
// of the list. The selection is deterministic and order-preserving.
func SampleNodes(nodes []Node, count int) []Node {
	if len(nodes) <= count {
		return nodes
	}

	sampled := make([]Node, 0, count)
	stride := len(nodes) / count
	for i := 0; i < count && i*stride < len(nodes); i++ {
		sampled = append(sampled, nodes[i*stride])
	}
	return sampled
}
