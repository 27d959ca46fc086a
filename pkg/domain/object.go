package domain

// Object is a non-owning handle to a node of the host dataflow graph.
// It is valid for the duration of a single dispatch; the host owns the node itself.
type Object struct {
	// ID is the host's identifier for the node.
	ID string `json:"id"`

	// Kind is the node's declared type (e.g. "tgl", "floatbox", "text").
	Kind string `json:"kind"`

	// Text is the node's textual content as typed in the box (e.g. "metro 200").
	Text string `json:"text"`

	// HasGUI is false for nodes the editor does not draw (they are not addressable).
	HasGUI bool `json:"has_gui"`
}
