package mockregistry

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"mcpreg/internal/domain"
)

func TestServesCatalog(t *testing.T) {
	server := httptest.NewServer(New(Options{}))
	defer server.Close()

	resp, err := http.Get(server.URL + "/api/mcp-servers")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var payload struct {
		Servers []domain.RemoteServerDescriptor `json:"servers"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&payload))
	require.Len(t, payload.Servers, 3)
	require.Equal(t, "github-mcp", payload.Servers[0].Name)
	require.Contains(t, payload.Servers[0].Tools, "create_issue")
}

func TestServesCustomCatalog(t *testing.T) {
	server := httptest.NewServer(New(Options{
		Servers: []domain.RemoteServerDescriptor{
			{Name: "custom-mcp", URL: "http://localhost:4000/mcp", Tools: []string{"ping"}},
		},
	}))
	defer server.Close()

	resp, err := http.Get(server.URL + "/api/mcp-servers")
	require.NoError(t, err)
	defer resp.Body.Close()

	var payload struct {
		Servers []domain.RemoteServerDescriptor `json:"servers"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&payload))
	require.Len(t, payload.Servers, 1)
	require.Equal(t, "custom-mcp", payload.Servers[0].Name)
}

func TestForcedFailure(t *testing.T) {
	server := httptest.NewServer(New(Options{}))
	defer server.Close()

	body := bytes.NewBufferString(`{"failing":true}`)
	resp, err := http.Post(server.URL+"/admin/fail", "application/json", body)
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, err = http.Get(server.URL + "/api/mcp-servers")
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)

	body = bytes.NewBufferString(`{"failing":false}`)
	resp, err = http.Post(server.URL+"/admin/fail", "application/json", body)
	require.NoError(t, err)
	resp.Body.Close()

	resp, err = http.Get(server.URL + "/api/mcp-servers")
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
}
