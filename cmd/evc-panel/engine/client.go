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

// Package engine talks to the provisioning engine's /evc/ REST API.
package engine

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	jsoniter "github.com/json-iterator/go"
	"github.com/open-eline/evc-console/internal"
	"github.com/open-eline/evc-console/pkg/datamodel"
	"go.uber.org/zap"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// fallbackDescription is shown when a failure body carries no readable
// description.
const fallbackDescription = "no error description provided by the provisioning engine"

// ErrNotFound is returned by GetCircuit when the engine does not know the
// circuit.
var ErrNotFound = errors.New("circuit not found")

// Outcome is the terminal result of one circuit request. Created is true iff
// the engine answered with a 2xx status. StatusCode 0 means the request
// never got an HTTP response at all (connection error).
type Outcome struct {
	CircuitID   string
	Description string
	StatusCode  int
	Created     bool
}

// Client talks to one provisioning engine. Timeout policy is inherited from
// the transport defaults, the client configures none of its own.
type Client struct {
	client  *http.Client
	baseURL string
}

func NewClient(baseURL string) *Client {
	return &Client{
		client:  &http.Client{},
		baseURL: strings.TrimSuffix(baseURL, "/"),
	}
}

// Create submits one circuit request. Exactly one Outcome is returned per
// call, never an error: every failure mode collapses into a rejected Outcome
// that the notification layer can render. There are no retries.
func (c *Client) Create(ctx context.Context, request datamodel.ProvisioningRequest) Outcome {

	payload, err := json.Marshal(request)
	if err != nil {
		zap.S().Errorf("Failed to marshal circuit request: %s", err)
		return Outcome{Description: err.Error()}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/evc/", bytes.NewReader(payload))
	if err != nil {
		zap.S().Errorf("Failed to build circuit request: %s", err)
		return Outcome{Description: err.Error()}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		zap.S().Warnf("Circuit request did not reach the engine: %s", err)
		return Outcome{Description: err.Error()}
	}

	defer func(Body io.ReadCloser) {
		err := Body.Close()
		if err != nil {
			zap.S().Errorf("Failed to close response body: %s", err)
		}
	}(resp.Body)

	// A broken body read is handled like a missing body below.
	bodyBytes, _ := io.ReadAll(resp.Body)

	if resp.StatusCode >= 200 && resp.StatusCode <= 299 {
		var created datamodel.CreateResponse
		if err = json.Unmarshal(bodyBytes, &created); err != nil || created.CircuitID == "" {
			zap.S().Warnf(
				"Engine accepted the circuit but answered without a circuit_id (%d) [%s]",
				resp.StatusCode,
				internal.SanitizeByteArray(bodyBytes))
		}
		return Outcome{Created: true, CircuitID: created.CircuitID, StatusCode: resp.StatusCode}
	}

	return Outcome{StatusCode: resp.StatusCode, Description: describeFailure(bodyBytes)}
}

// describeFailure digs the human-readable reason out of a failure body. The
// engine answers either {"description": "..."} or a bare JSON string.
func describeFailure(body []byte) string {

	var withDescription struct {
		Description string `json:"description"`
	}
	if err := json.Unmarshal(body, &withDescription); err == nil && withDescription.Description != "" {
		return withDescription.Description
	}

	var bare string
	if err := json.Unmarshal(body, &bare); err == nil && bare != "" {
		return bare
	}

	return fallbackDescription
}

// List fetches every stored circuit from the engine, keyed by circuit id.
func (c *Client) List(ctx context.Context) (map[string]datamodel.Circuit, error) {

	bodyBytes, err := c.get(ctx, c.baseURL+"/evc/")
	if err != nil {
		return nil, err
	}

	var circuits map[string]datamodel.Circuit
	if err = json.Unmarshal(bodyBytes, &circuits); err != nil {
		return nil, fmt.Errorf("undecodable circuit list: %w", err)
	}
	return circuits, nil
}

// GetCircuit fetches one stored circuit by id.
func (c *Client) GetCircuit(ctx context.Context, circuitID string) (datamodel.Circuit, error) {

	var circuit datamodel.Circuit

	bodyBytes, err := c.get(ctx, c.baseURL+"/evc/"+url.PathEscape(circuitID))
	if err != nil {
		return circuit, err
	}

	if err = json.Unmarshal(bodyBytes, &circuit); err != nil {
		return circuit, fmt.Errorf("undecodable circuit document: %w", err)
	}
	return circuit, nil
}

func (c *Client) get(ctx context.Context, requestURL string) ([]byte, error) {

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}

	defer func(Body io.ReadCloser) {
		err := Body.Close()
		if err != nil {
			zap.S().Errorf("Failed to close response body: %s", err)
		}
	}(resp.Body)

	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrNotFound
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("engine answered %d", resp.StatusCode)
	}

	return io.ReadAll(resp.Body)
}
