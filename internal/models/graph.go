package models

// GraphNode is one table in the relationship diagram. X and Y are the node
// center in layout units and are only meaningful after layout.
type GraphNode struct {
	ID      string   `json:"id"`
	Columns []Column `json:"columns"`
	Width   float64  `json:"width"`
	Height  float64  `json:"height"`
	X       float64  `json:"x"`
	Y       float64  `json:"y"`
	Rank    int      `json:"rank"`
	Order   int      `json:"order"`
}

// GraphEdge points from the referenced table (Source) to the table holding
// the foreign key (Target).
type GraphEdge struct {
	ID     string `json:"id"`
	Source string `json:"source"`
	Target string `json:"target"`
	Label  string `json:"label"`
}

type Diagram struct {
	Nodes []GraphNode `json:"nodes"`
	Edges []GraphEdge `json:"edges"`
}
