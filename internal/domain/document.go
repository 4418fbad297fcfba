package domain

import (
	"fmt"
	"time"
)

// SourceType identifies where a document's content came from.
type SourceType string

const (
	SourceTypePDF     SourceType = "pdf"
	SourceTypeYouTube SourceType = "youtube"
	SourceTypeGitHub  SourceType = "github"
)

// NodePosition is an optional display position for a concept node.
type NodePosition struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// ConceptNode is a single topic extracted from the source.
type ConceptNode struct {
	ID          string        `json:"id"`
	Label       string        `json:"label"`
	Description string        `json:"description,omitempty"`
	Excerpt     string        `json:"excerpt,omitempty"`
	Position    *NodePosition `json:"position,omitempty"`
}

// ConceptEdge links two concept nodes. Endpoints are whatever the model
// returned; they are not checked against the node set.
type ConceptEdge struct {
	ID     string `json:"id,omitempty"`
	Source string `json:"source"`
	Target string `json:"target"`
	Label  string `json:"label,omitempty"`
}

// ConceptGraph is the nodes/edges structure rendered by the frontend.
type ConceptGraph struct {
	Nodes []ConceptNode `json:"nodes"`
	Edges []ConceptEdge `json:"edges"`
}

// TimelineEvent is one entry in a document's timeline.
type TimelineEvent struct {
	ID          string `json:"id"`
	Date        string `json:"date,omitempty"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Category    string `json:"category,omitempty"`
	Importance  string `json:"importance,omitempty"`
}

// Timeline holds the ordered event list for a document.
type Timeline struct {
	Events []TimelineEvent `json:"events"`
}

// StepPriority constrains action plan step priorities.
type StepPriority string

const (
	StepPriorityLow    StepPriority = "low"
	StepPriorityMedium StepPriority = "medium"
	StepPriorityHigh   StepPriority = "high"
)

// ActionStep is a single suggested task inside a phase.
type ActionStep struct {
	ID       string       `json:"id"`
	Text     string       `json:"text"`
	Effort   string       `json:"effort,omitempty"`
	Priority StepPriority `json:"priority,omitempty"`
}

// ActionPhase groups steps under a named phase.
type ActionPhase struct {
	ID          string       `json:"id"`
	Name        string       `json:"name"`
	Description string       `json:"description,omitempty"`
	Steps       []ActionStep `json:"steps"`
}

// ActionPlan is the phased task list derived from the source.
type ActionPlan struct {
	Phases []ActionPhase `json:"phases"`
}

// Document is one ingested source (PDF, video, or repository).
type Document struct {
	ID         string
	UserID     string
	FileName   string
	FileHash   string
	SourceType SourceType
	Concepts   ConceptGraph
	Timeline   Timeline
	ActionPlan ActionPlan
	CreatedAt  time.Time
}

// Normalize fills absent collections with empty slices. Older records and
// sparse model output may omit them; every read and write boundary calls
// this so clients always see well-formed arrays.
func (g *ConceptGraph) Normalize() {
	if g.Nodes == nil {
		g.Nodes = []ConceptNode{}
	}
	if g.Edges == nil {
		g.Edges = []ConceptEdge{}
	}
}

func (t *Timeline) Normalize() {
	if t.Events == nil {
		t.Events = []TimelineEvent{}
	}
}

func (p *ActionPlan) Normalize() {
	if p.Phases == nil {
		p.Phases = []ActionPhase{}
	}
	for i := range p.Phases {
		if p.Phases[i].Steps == nil {
			p.Phases[i].Steps = []ActionStep{}
		}
	}
}

// Normalize applies normalization to every generated structure of the document.
func (d *Document) Normalize() {
	d.Concepts.Normalize()
	d.Timeline.Normalize()
	d.ActionPlan.Normalize()
}

// ValidateDocument validates a Document instance before persistence.
func ValidateDocument(d *Document) error {
	if d == nil {
		return fmt.Errorf("document cannot be nil")
	}
	if d.ID == "" {
		return fmt.Errorf("document ID is required")
	}
	if d.UserID == "" {
		return fmt.Errorf("document UserID is required")
	}
	if d.FileHash == "" {
		return fmt.Errorf("document FileHash is required")
	}
	if !isValidSourceType(d.SourceType) {
		return fmt.Errorf("document SourceType is invalid: %s", d.SourceType)
	}
	return nil
}

func isValidSourceType(t SourceType) bool {
	switch t {
	case SourceTypePDF, SourceTypeYouTube, SourceTypeGitHub:
		return true
	}
	return false
}
