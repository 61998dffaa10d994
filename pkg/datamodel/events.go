package datamodel

// Event names understood by the host user interface. The panel publishes
// these on the event bus, the host renders them.
const (
	EventSetNotification = "setNotification"
	EventShowInfoPanel   = "showInfoPanel"
)

// Notification is a toast the host UI shows to the operator.
type Notification struct {
	Icon        string `json:"icon"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

// PanelDescriptor tells the host UI which informational panel component to
// open. Content is always present on the wire, even when empty.
type PanelDescriptor struct {
	Component string                 `json:"component"`
	Content   map[string]interface{} `json:"content"`
	Icon      string                 `json:"icon"`
	Title     string                 `json:"title"`
	Subtitle  string                 `json:"subtitle"`
}
