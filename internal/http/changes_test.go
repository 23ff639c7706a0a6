package http

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// readEvent reads one server-sent event and returns its name and data.
func readEvent(t *testing.T, r *bufio.Reader) (string, ChangeEvent) {
	t.Helper()
	var name string
	var event ChangeEvent
	for {
		line, err := r.ReadString('\n')
		require.NoError(t, err)
		line = strings.TrimRight(line, "\r\n")
		switch {
		case line == "":
			if name != "" {
				return name, event
			}
		case strings.HasPrefix(line, "event:"):
			name = strings.TrimSpace(strings.TrimPrefix(line, "event:"))
		case strings.HasPrefix(line, "data:"):
			data := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
			require.NoError(t, json.Unmarshal([]byte(data), &event))
		}
	}
}

func TestChangesController_Stream(t *testing.T) {
	engine, _, hub := setupContentTestWithHub(t)
	srv := httptest.NewServer(engine)
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, "GET", srv.URL+"/changes/hospitals", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))
	assert.Equal(t, 1, hub.Len())

	w := doJSON(t, engine, "POST", "/content/doctors", map[string]any{"name": "Dr. House"})
	require.Equal(t, http.StatusCreated, w.Code)
	w = doJSON(t, engine, "POST", "/content/hospitals", map[string]any{"name": "City Hospital"})
	require.Equal(t, http.StatusCreated, w.Code)
	w = doJSON(t, engine, "DELETE", "/content/hospitals/1", nil)
	require.Equal(t, http.StatusOK, w.Code)

	reader := bufio.NewReader(resp.Body)

	name, event := readEvent(t, reader)
	assert.Equal(t, "insert", name)
	assert.Equal(t, ChangeEvent{URI: testAuthority + "/hospitals", Rows: 1}, event)

	name, event = readEvent(t, reader)
	assert.Equal(t, "delete", name)
	assert.Equal(t, ChangeEvent{URI: testAuthority + "/hospitals", Rows: 1}, event)

	cancel()
	assert.Eventually(t, func() bool { return hub.Len() == 0 }, 5*time.Second, 10*time.Millisecond)
}

func TestChangesController_UnroutablePath(t *testing.T) {
	engine, _, hub := setupContentTestWithHub(t)

	w := doJSON(t, engine, "GET", "/changes/patients", nil)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), CodeUnroutable)
	assert.Zero(t, hub.Len())
}
