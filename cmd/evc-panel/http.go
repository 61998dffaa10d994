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

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/gzip"
	ginzap "github.com/gin-contrib/zap"
	"github.com/gin-gonic/gin"
	jsoniter "github.com/json-iterator/go"
	"github.com/open-eline/evc-console/cmd/evc-panel/engine"
	"github.com/open-eline/evc-console/cmd/evc-panel/form"
	"github.com/open-eline/evc-console/cmd/evc-panel/request"
	"github.com/open-eline/evc-console/internal"
	"go.uber.org/zap"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// SetupRestAPI initializes the REST API and starts listening
func SetupRestAPI() {
	gin.SetMode(gin.ReleaseMode)

	router := setupRouter()

	err := router.Run(":80")
	if err != nil {
		zap.S().Errorf("Failed to bind to port 80: %s", err)
		ShutdownApplicationGraceful()
		return
	}
}

func setupRouter() *gin.Engine {
	router := gin.New()

	// Add a ginzap middleware, which:
	//   - Logs all requests, like a combined access and error log.
	//   - Logs to stdout.
	//   - RFC3339 with UTC time format.
	router.Use(ginzap.Ginzap(zap.L(), time.RFC3339, true))

	// Logs all panic to error log
	//   - stack means whether output the stack info.
	router.Use(ginzap.RecoveryWithZap(zap.L(), true))

	// Healthcheck
	router.GET(
		"/", func(c *gin.Context) {
			if shutdownEnabled {
				c.String(http.StatusOK, "shutdown")
			} else {
				c.String(http.StatusOK, "online")
			}
		})

	v1 := router.Group("/api/v1")
	{
		v1.POST("/session", postSessionHandler)
		v1.GET("/session/:session", getSessionHandler)
		v1.PATCH("/session/:session", patchSessionHandler)
		v1.DELETE("/session/:session", deleteSessionHandler)
		v1.POST("/session/:session/circuit", postCircuitHandler)

		v1.POST("/panels/circuit-list", postListPanelHandler)

		// Circuit lists compress well
		circuits := v1.Group("/circuits", gzip.Gzip(gzip.DefaultCompression))
		{
			circuits.GET("", getCircuitsHandler)
			circuits.GET("/:circuit", getCircuitHandler)
		}
	}

	return router
}

func handleInvalidInputError(c *gin.Context, err error) {

	zap.S().Warnw(
		"Invalid input error",
		"error", internal.SanitizeString(err.Error()),
	)

	c.JSON(http.StatusBadRequest, gin.H{"description": err.Error()})
}

func handleInternalServerError(c *gin.Context, err error) {

	zap.S().Errorw(
		"Internal server error",
		"error", internal.SanitizeString(err.Error()),
	)

	c.JSON(http.StatusInternalServerError, gin.H{"description": "the server had an internal error"})
}

func handleUpstreamError(c *gin.Context, err error) {

	zap.S().Warnw(
		"Engine request failed",
		"error", internal.SanitizeString(err.Error()),
	)

	c.JSON(http.StatusBadGateway, gin.H{"description": err.Error()})
}

func handleSessionNotFound(c *gin.Context, sessionID string) {
	c.JSON(http.StatusNotFound, gin.H{"description": fmt.Sprintf("session %s not found", sessionID)})
}

type sessionRequestPath struct {
	SessionID string `uri:"session" binding:"required"`
}

type patchSessionBody struct {
	Field string `json:"field" binding:"required"`
	// Value stays unvalidated, clearing a field means patching it to ""
	Value string `json:"value"`
}

func postSessionHandler(c *gin.Context) {
	sessionID, _ := formStore.Create()
	zap.S().Debugf("Opened session %s", sessionID)
	c.JSON(http.StatusCreated, gin.H{"session_id": sessionID})
}

func getSessionHandler(c *gin.Context) {
	var path sessionRequestPath
	err := c.BindUri(&path)
	if err != nil {
		handleInvalidInputError(c, err)
		return
	}

	f, found := formStore.Get(path.SessionID)
	if !found {
		handleSessionNotFound(c, path.SessionID)
		return
	}
	c.JSON(http.StatusOK, f)
}

func patchSessionHandler(c *gin.Context) {
	var path sessionRequestPath
	err := c.BindUri(&path)
	if err != nil {
		handleInvalidInputError(c, err)
		return
	}

	var body patchSessionBody
	err = c.ShouldBindJSON(&body)
	if err != nil {
		handleInvalidInputError(c, err)
		return
	}

	err = formStore.Update(path.SessionID, body.Field, body.Value)
	if errors.Is(err, form.ErrSessionNotFound) {
		handleSessionNotFound(c, path.SessionID)
		return
	}
	if err != nil {
		handleInvalidInputError(c, err)
		return
	}
	c.Status(http.StatusOK)
}

// deleteSessionHandler closes the session. Deletes are idempotent, repeating
// one answers 204 again.
func deleteSessionHandler(c *gin.Context) {
	var path sessionRequestPath
	err := c.BindUri(&path)
	if err != nil {
		handleInvalidInputError(c, err)
		return
	}

	formStore.Delete(path.SessionID)
	c.Status(http.StatusNoContent)
}

// postCircuitHandler runs one submission: snapshot the session's form, build
// the provisioning request, then hand it to the engine asynchronously. The
// handler answers 202 as soon as the request is on its way, the outcome
// reaches the operator through the notification bus. Submissions of the same
// session may overlap, each one is its own transaction.
func postCircuitHandler(c *gin.Context) {
	var path sessionRequestPath
	err := c.BindUri(&path)
	if err != nil {
		handleInvalidInputError(c, err)
		return
	}

	snapshot, found := formStore.Get(path.SessionID)
	if !found {
		handleSessionNotFound(c, path.SessionID)
		return
	}

	circuitRequest, err := request.Build(snapshot)
	if err != nil {
		// A local reject surfaces on both channels, the caller sees the 400
		// and the operator sees the same notification a remote reject
		// would have produced.
		notifier.CircuitOutcome(engine.Outcome{StatusCode: http.StatusBadRequest, Description: err.Error()})
		handleInvalidInputError(c, err)
		return
	}

	go func() {
		// Deliberately not the request context, the submission must outlive
		// the HTTP exchange that triggered it.
		outcome := engineClient.Create(context.Background(), circuitRequest)
		if outcome.Created {
			zap.S().Infof("Circuit %s created", internal.SanitizeString(outcome.CircuitID))
		} else {
			zap.S().Warnf(
				"Circuit creation failed (%d): %s",
				outcome.StatusCode,
				internal.SanitizeString(outcome.Description))
		}
		notifier.CircuitOutcome(outcome)
	}()

	c.JSON(http.StatusAccepted, gin.H{"status": "submitted"})
}

func postListPanelHandler(c *gin.Context) {
	panelLauncher.LaunchListPanel()
	c.Status(http.StatusOK)
}

const circuitsCacheKey = "circuits"

type circuitRequestPath struct {
	CircuitID string `uri:"circuit" binding:"required"`
}

func getCircuitsHandler(c *gin.Context) {
	if cached, value := internal.GetTiered(circuitsCacheKey); cached {
		if raw, ok := value.([]byte); ok {
			c.Data(http.StatusOK, "application/json", raw)
			return
		}
	}

	circuits, err := engineClient.List(c.Request.Context())
	if err != nil {
		handleUpstreamError(c, err)
		return
	}

	raw, err := json.Marshal(circuits)
	if err != nil {
		handleInternalServerError(c, err)
		return
	}

	internal.SetTieredShortTerm(circuitsCacheKey, raw)
	c.Data(http.StatusOK, "application/json", raw)
}

func getCircuitHandler(c *gin.Context) {
	var path circuitRequestPath
	err := c.BindUri(&path)
	if err != nil {
		handleInvalidInputError(c, err)
		return
	}

	cacheKey := "circuit-" + path.CircuitID
	if cached, value := internal.GetTiered(cacheKey); cached {
		if raw, ok := value.([]byte); ok {
			c.Data(http.StatusOK, "application/json", raw)
			return
		}
	}

	circuit, err := engineClient.GetCircuit(c.Request.Context(), path.CircuitID)
	if errors.Is(err, engine.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"description": err.Error()})
		return
	}
	if err != nil {
		handleUpstreamError(c, err)
		return
	}

	raw, err := json.Marshal(circuit)
	if err != nil {
		handleInternalServerError(c, err)
		return
	}

	internal.SetTieredShortTerm(cacheKey, raw)
	c.Data(http.StatusOK, "application/json", raw)
}
