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

// Package request builds provisioning requests from raw form input.
package request

import (
	"fmt"
	"strconv"

	"github.com/open-eline/evc-console/cmd/evc-panel/form"
	"github.com/open-eline/evc-console/pkg/datamodel"
)

// BadTagError reports a tag field whose value carries no leading integer.
// Requests with such a field are rejected before they reach the engine.
type BadTagError struct {
	Side  string
	Field string
	Value string
}

func (e *BadTagError) Error() string {
	return fmt.Sprintf("tag field %s of side %s is not a number: %q", e.Field, e.Side, e.Value)
}

// Build assembles the provisioning request from one form snapshot. It is
// pure: no I/O, no mutation of the snapshot, identical input yields an
// identical request. Name and endpoint fields are copied verbatim without
// validation, only the tag fields are interpreted. Dynamic backup path and
// enabled are always requested.
func Build(f form.CircuitForm) (datamodel.ProvisioningRequest, error) {

	req := datamodel.ProvisioningRequest{
		Name:              f.CircuitName,
		DynamicBackupPath: true,
		Enabled:           true,
		UNIA:              datamodel.UNI{InterfaceID: f.EndpointA},
		UNIZ:              datamodel.UNI{InterfaceID: f.EndpointZ},
	}

	tag, err := buildTag("a", form.FieldTagTypeA, f.TagTypeA, form.FieldTagValueA, f.TagValueA)
	if err != nil {
		return datamodel.ProvisioningRequest{}, err
	}
	req.UNIA.Tag = tag

	tag, err = buildTag("z", form.FieldTagTypeZ, f.TagTypeZ, form.FieldTagValueZ, f.TagValueZ)
	if err != nil {
		return datamodel.ProvisioningRequest{}, err
	}
	req.UNIZ.Tag = tag

	return req, nil
}

// buildTag returns a tag only when both fields are filled in. A tag is all
// or nothing: one filled field alone does not make a tag, and a tag is never
// emitted half-populated.
func buildTag(side, typeField, typeInput, valueField, valueInput string) (*datamodel.Tag, error) {
	if typeInput == "" || valueInput == "" {
		return nil, nil
	}

	tagType, err := parseTagInt(typeInput)
	if err != nil {
		return nil, &BadTagError{Side: side, Field: typeField, Value: typeInput}
	}
	tagValue, err := parseTagInt(valueInput)
	if err != nil {
		return nil, &BadTagError{Side: side, Field: valueField, Value: valueInput}
	}

	return &datamodel.Tag{TagType: tagType, Value: tagValue}, nil
}

// parseTagInt reads the leading base-10 integer of s, tolerating leading
// whitespace, an optional sign and trailing garbage ("100abc" parses as
// 100). It fails when no digit leads the string.
func parseTagInt(s string) (int, error) {
	i := 0
	for i < len(s) && (s[i] == ' ' || s[i] == '\t' || s[i] == '\n' || s[i] == '\r') {
		i++
	}

	start := i
	if i < len(s) && (s[i] == '+' || s[i] == '-') {
		i++
	}

	digits := i
	for i < len(s) && s[i] >= '0' && s[i] <= '9' {
		i++
	}
	if i == digits {
		return 0, fmt.Errorf("no leading integer in %q", s)
	}

	return strconv.Atoi(s[start:i])
}
