package engine

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/open-eline/evc-console/pkg/datamodel"
)

func testRequest() datamodel.ProvisioningRequest {
	return datamodel.ProvisioningRequest{
		Name:              "inter-campus",
		DynamicBackupPath: true,
		Enabled:           true,
		UNIA: datamodel.UNI{
			InterfaceID: "00:00:00:00:00:00:00:01:1",
			Tag:         &datamodel.Tag{TagType: 1, Value: 100},
		},
		UNIZ: datamodel.UNI{InterfaceID: "00:00:00:00:00:00:00:02:2"},
	}
}

func TestCreateSuccess(t *testing.T) {
	var gotPath, gotMethod, gotContentType string
	var gotBody []byte

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotMethod = r.Method
		gotContentType = r.Header.Get("Content-Type")
		gotBody, _ = io.ReadAll(r.Body)

		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"circuit_id": "abc123"}`))
	}))
	defer server.Close()

	outcome := NewClient(server.URL).Create(context.Background(), testRequest())

	assert.True(t, outcome.Created)
	assert.Equal(t, "abc123", outcome.CircuitID)
	assert.Equal(t, http.StatusCreated, outcome.StatusCode)

	assert.Equal(t, http.MethodPost, gotMethod)
	assert.Equal(t, "/evc/", gotPath)
	assert.Equal(t, "application/json", gotContentType)
	assert.JSONEq(t, `{
		"name": "inter-campus",
		"dynamic_backup_path": true,
		"enabled": true,
		"uni_a": {"interface_id": "00:00:00:00:00:00:00:01:1", "tag": {"tag_type": 1, "value": 100}},
		"uni_z": {"interface_id": "00:00:00:00:00:00:00:02:2"}
	}`, string(gotBody))
}

func TestCreateTrimsTrailingSlashOfBaseURL(t *testing.T) {
	var gotPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"circuit_id": "x"}`))
	}))
	defer server.Close()

	NewClient(server.URL + "/").Create(context.Background(), testRequest())
	assert.Equal(t, "/evc/", gotPath)
}

func TestCreateSuccessWithoutCircuitID(t *testing.T) {
	bodies := []string{`{}`, `{"unexpected": 1}`, ``, `not json at all`}

	for _, body := range bodies {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusCreated)
			_, _ = w.Write([]byte(body))
		}))

		outcome := NewClient(server.URL).Create(context.Background(), testRequest())
		server.Close()

		// 2xx stays a success even when the body is useless.
		assert.True(t, outcome.Created, "body %q", body)
		assert.Equal(t, "", outcome.CircuitID, "body %q", body)
	}
}

func TestCreateRejected(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"description": "invalid interface"}`))
	}))
	defer server.Close()

	outcome := NewClient(server.URL).Create(context.Background(), testRequest())

	assert.False(t, outcome.Created)
	assert.Equal(t, http.StatusBadRequest, outcome.StatusCode)
	assert.Equal(t, "invalid interface", outcome.Description)
}

func TestCreateRejectedWithBareStringBody(t *testing.T) {
	// The engine wraps plain reject reasons as a bare JSON string.
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`"Bad request: name is required."`))
	}))
	defer server.Close()

	outcome := NewClient(server.URL).Create(context.Background(), testRequest())

	assert.False(t, outcome.Created)
	assert.Equal(t, http.StatusBadRequest, outcome.StatusCode)
	assert.Equal(t, "Bad request: name is required.", outcome.Description)
}

func TestCreateRejectedWithUnreadableBody(t *testing.T) {
	bodies := []string{``, `<html>502 Bad Gateway</html>`, `{"error": "wrong key"}`, `{"description": ""}`}

	for _, body := range bodies {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = w.Write([]byte(body))
		}))

		outcome := NewClient(server.URL).Create(context.Background(), testRequest())
		server.Close()

		assert.False(t, outcome.Created, "body %q", body)
		assert.Equal(t, http.StatusInternalServerError, outcome.StatusCode, "body %q", body)
		assert.Equal(t, fallbackDescription, outcome.Description, "body %q", body)
	}
}

func TestCreateConnectionError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close() // nothing listens anymore

	outcome := NewClient(server.URL).Create(context.Background(), testRequest())

	assert.False(t, outcome.Created)
	assert.Equal(t, 0, outcome.StatusCode, "a connection error carries no HTTP status")
	assert.NotEmpty(t, outcome.Description)
}

func TestList(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/evc/", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"abc123": {"id": "abc123", "name": "inter-campus", "enabled": true, "active": true},
			"def456": {"id": "def456", "name": "backup-link", "enabled": true, "active": false}
		}`))
	}))
	defer server.Close()

	circuits, err := NewClient(server.URL).List(context.Background())
	require.NoError(t, err)
	require.Len(t, circuits, 2)
	assert.Equal(t, "inter-campus", circuits["abc123"].Name)
	assert.True(t, circuits["abc123"].Active)
	assert.False(t, circuits["def456"].Active)
}

func TestListUpstreamFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	_, err := NewClient(server.URL).List(context.Background())
	assert.Error(t, err)
}

func TestGetCircuit(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/evc/abc123", r.URL.Path)
		_, _ = w.Write([]byte(`{"id": "abc123", "name": "inter-campus", "bandwidth": 100000000}`))
	}))
	defer server.Close()

	circuit, err := NewClient(server.URL).GetCircuit(context.Background(), "abc123")
	require.NoError(t, err)
	assert.Equal(t, "abc123", circuit.ID)
	assert.Equal(t, int64(100000000), circuit.Bandwidth)
}

func TestGetCircuitNotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"description": "circuit not found"}`))
	}))
	defer server.Close()

	_, err := NewClient(server.URL).GetCircuit(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDescribeFailure(t *testing.T) {
	cases := []struct {
		body string
		want string
	}{
		{`{"description": "invalid interface"}`, "invalid interface"},
		{`"Bad request: traffic would loop."`, "Bad request: traffic would loop."},
		{`{"description": "a", "extra": 1}`, "a"},
		{`{"description": 17}`, fallbackDescription},
		{`[]`, fallbackDescription},
		{`""`, fallbackDescription},
		{``, fallbackDescription},
		{`plain text`, fallbackDescription},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.want, describeFailure([]byte(tc.body)), "body %q", tc.body)
	}
}
