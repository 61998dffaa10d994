package datamodel

/*
 * Wire types of the provisioning engine's /evc/ REST API.
 */

// Tag is a VLAN tag on one termination point of a circuit. A tag is always
// fully populated: requests never carry a tag with only one of its fields.
type Tag struct {
	TagType int `json:"tag_type"`
	Value   int `json:"value"`
}

// UNI is a user-network interface, one termination point of a circuit.
type UNI struct {
	InterfaceID string `json:"interface_id"`
	Tag         *Tag   `json:"tag,omitempty"`
}

// ProvisioningRequest is the document POSTed to the provisioning engine to
// request a new circuit between two UNIs.
type ProvisioningRequest struct {
	Name              string `json:"name"`
	DynamicBackupPath bool   `json:"dynamic_backup_path"`
	Enabled           bool   `json:"enabled"`
	UNIA              UNI    `json:"uni_a"`
	UNIZ              UNI    `json:"uni_z"`
}

// CreateResponse is the engine's success body for a circuit request.
type CreateResponse struct {
	CircuitID string `json:"circuit_id"`
}

// Circuit is the subset of the engine's stored circuit document that the
// list panel renders. Timestamps stay strings, formatted by the engine.
type Circuit struct {
	ID                string `json:"id"`
	Name              string `json:"name"`
	UNIA              UNI    `json:"uni_a"`
	UNIZ              UNI    `json:"uni_z"`
	DynamicBackupPath bool   `json:"dynamic_backup_path"`
	Enabled           bool   `json:"enabled"`
	Active            bool   `json:"active"`
	Bandwidth         int64  `json:"bandwidth"`
	Owner             string `json:"owner,omitempty"`
	Priority          int    `json:"priority"`
	StartDate         string `json:"start_date,omitempty"`
	EndDate           string `json:"end_date,omitempty"`
	CreationTime      string `json:"creation_time,omitempty"`
	RequestTime       string `json:"request_time,omitempty"`
}
