// Copyright 2024 Open E-Line Contributors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package form holds the raw circuit request input of one panel session.
package form

import "fmt"

// Field names accepted by Set, one per input of the panel.
const (
	FieldCircuitName = "circuit_name"
	FieldEndpointA   = "endpoint_a"
	FieldTagTypeA    = "tag_type_a"
	FieldTagValueA   = "tag_value_a"
	FieldEndpointZ   = "endpoint_z"
	FieldTagTypeZ    = "tag_type_z"
	FieldTagValueZ   = "tag_value_z"
)

// CircuitForm is the operator input of one panel session. All seven fields
// are strings and start empty. The form stores input verbatim,
// interpretation happens at submission time, never here.
type CircuitForm struct {
	CircuitName string `json:"circuit_name"`
	EndpointA   string `json:"endpoint_a"`
	TagTypeA    string `json:"tag_type_a"`
	TagValueA   string `json:"tag_value_a"`
	EndpointZ   string `json:"endpoint_z"`
	TagTypeZ    string `json:"tag_type_z"`
	TagValueZ   string `json:"tag_value_z"`
}

// Set updates one named field with the verbatim value. Unknown field names
// are rejected, values are never validated or trimmed.
func (f *CircuitForm) Set(field string, value string) error {
	switch field {
	case FieldCircuitName:
		f.CircuitName = value
	case FieldEndpointA:
		f.EndpointA = value
	case FieldTagTypeA:
		f.TagTypeA = value
	case FieldTagValueA:
		f.TagValueA = value
	case FieldEndpointZ:
		f.EndpointZ = value
	case FieldTagTypeZ:
		f.TagTypeZ = value
	case FieldTagValueZ:
		f.TagValueZ = value
	default:
		return fmt.Errorf("unknown form field: %s", field)
	}
	return nil
}
