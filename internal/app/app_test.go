package app

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/line-tools/mention-relay/internal/config"
	"github.com/line-tools/mention-relay/internal/mentionstore"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// End-to-end over the wired app: webhook in, queries out. No channel
// secret and no sinks configured, which is the permissive development
// setup.
func TestCreateServer_WebhookToQueryFlow(t *testing.T) {
	t.Parallel()

	webApp, notif, err := CreateServer(&config.Settings{}, zerolog.Nop())
	require.NoError(t, err)

	body := []byte(`{
		"events": [{
			"type": "message",
			"timestamp": 1700000000000,
			"message": {"id": "M1", "type": "text", "text": "hello @alice and @bob cc @alice"},
			"source": {"type": "group", "userId": "U1", "groupId": "G1"}
		}]
	}`)

	req := httptest.NewRequest(http.MethodPost, "/webhook", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := webApp.Test(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	respBody, _ := io.ReadAll(resp.Body)
	assert.JSONEq(t, `{"success":true}`, string(respBody))
	notif.Wait()

	// The record is queryable.
	req = httptest.NewRequest(http.MethodGet, "/api/mentions?groupId=G1&limit=10", nil)
	resp, err = webApp.Test(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var records []mentionstore.Record
	respBody, _ = io.ReadAll(resp.Body)
	require.NoError(t, json.Unmarshal(respBody, &records))
	require.Len(t, records, 1)
	assert.Equal(t, []string{"@alice", "@bob"}, records[0].Mentions)
	// No access token configured, so names fall back to the sentinel.
	assert.Equal(t, "unknown", records[0].UserName)
	assert.Equal(t, "unknown", records[0].GroupName)

	// Health reflects the stored record.
	req = httptest.NewRequest(http.MethodGet, "/health", nil)
	resp, err = webApp.Test(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var health struct {
		Status   string `json:"status"`
		Mentions int    `json:"mentions"`
	}
	respBody, _ = io.ReadAll(resp.Body)
	require.NoError(t, json.Unmarshal(respBody, &health))
	assert.Equal(t, "healthy", health.Status)
	assert.Equal(t, 1, health.Mentions)

	// The platform's GET probe answers.
	req = httptest.NewRequest(http.MethodGet, "/webhook", nil)
	resp, err = webApp.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
