package http

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/symptomchecker/internal/database"
	"github.com/mrlokans/symptomchecker/internal/notify"
	"github.com/mrlokans/symptomchecker/internal/provider"
	"github.com/mrlokans/symptomchecker/internal/router"
	"github.com/mrlokans/symptomchecker/internal/schema"
)

const testAuthority = "com.example.symptomchecker"

func setupContentTest(t *testing.T) (*gin.Engine, *database.Manager) {
	t.Helper()
	engine, db, _ := setupContentTestWithHub(t)
	return engine, db
}

func setupContentTestWithHub(t *testing.T) (*gin.Engine, *database.Manager, *notify.Hub) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	hub := notify.NewHub()

	db, err := database.NewManager(filepath.Join(t.TempDir(), "test.db"), schema.All(), database.Options{Logger: zerolog.Nop()})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	r, err := router.ForEntities(testAuthority, schema.All()...)
	require.NoError(t, err)
	p, err := provider.New(db, r, hub, schema.All(), zerolog.Nop())
	require.NoError(t, err)

	engine := NewRouter(RouterConfig{
		Provider:  p,
		Database:  db,
		Authority: testAuthority,
		Version:   "test",
		Logger:    zerolog.Nop(),
	})
	return engine, db, hub
}

func doJSON(t *testing.T, engine *gin.Engine, method, target string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, target, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	return w
}

func TestContentController_CRUD(t *testing.T) {
	engine, _ := setupContentTest(t)

	w := doJSON(t, engine, "POST", "/content/hospitals", map[string]any{
		"name":     "City Hospital",
		"worktime": "08:00-22:00",
		"phone":    "+1000",
		"address":  "Main St",
	})
	require.Equal(t, http.StatusCreated, w.Code)
	var created CreatedResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	assert.Equal(t, testAuthority+"/hospitals/1", created.URI)
	assert.Equal(t, int64(1), created.ID)
	assert.Equal(t, "/content/hospitals/1", w.Header().Get("Location"))

	w = doJSON(t, engine, "GET", "/content/hospitals", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "vnd."+testAuthority+".dir/hospital", w.Header().Get(ContentTypeHeader))
	var records []map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &records))
	require.Len(t, records, 1)
	assert.Equal(t, "City Hospital", records[0]["name"])
	assert.Equal(t, float64(1), records[0]["_id"])

	w = doJSON(t, engine, "PUT", "/content/hospitals/1", map[string]any{"name": "City Hospital West"})
	require.Equal(t, http.StatusOK, w.Code)
	var rows RowsResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &rows))
	assert.Equal(t, int64(1), rows.Rows)

	w = doJSON(t, engine, "GET", "/content/hospitals/1?columns=name", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "vnd."+testAuthority+".item/hospital", w.Header().Get(ContentTypeHeader))
	assert.JSONEq(t, `[{"name":"City Hospital West"}]`, w.Body.String())

	w = doJSON(t, engine, "DELETE", "/content/hospitals/1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"rows":1}`, w.Body.String())

	w = doJSON(t, engine, "GET", "/content/hospitals/1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())
}

func TestContentController_FilteredQuery(t *testing.T) {
	engine, _ := setupContentTest(t)
	for _, name := range []string{"Dr. Grey", "Dr. House", "Dr. Watson"} {
		w := doJSON(t, engine, "POST", "/content/doctors", map[string]any{"name": name})
		require.Equal(t, http.StatusCreated, w.Code)
	}

	w := doJSON(t, engine, "GET", "/content/doctors?columns=name&filter=name+%21%3D+%3F&arg=Dr.+House&order=name+DESC", nil)

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[{"name":"Dr. Watson"},{"name":"Dr. Grey"}]`, w.Body.String())
}

func TestContentController_Errors(t *testing.T) {
	engine, _ := setupContentTest(t)

	t.Run("unroutable path", func(t *testing.T) {
		w := doJSON(t, engine, "GET", "/content/patients", nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Contains(t, w.Body.String(), CodeUnroutable)
	})

	t.Run("missing required column", func(t *testing.T) {
		w := doJSON(t, engine, "POST", "/content/hospitals", map[string]any{"phone": "+1"})
		require.Equal(t, http.StatusBadRequest, w.Code)
		var resp ErrorResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, CodeValidation, resp.Code)
		assert.Equal(t, map[string]any{"column": "name"}, resp.Details)
	})

	t.Run("insert on item", func(t *testing.T) {
		w := doJSON(t, engine, "POST", "/content/hospitals/1", map[string]any{"name": "x"})
		assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
		assert.Contains(t, w.Body.String(), CodeUnsupported)
	})

	t.Run("malformed body", func(t *testing.T) {
		req, _ := http.NewRequest("POST", "/content/hospitals", bytes.NewBufferString("{"))
		w := httptest.NewRecorder()
		engine.ServeHTTP(w, req)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("bad filter", func(t *testing.T) {
		w := doJSON(t, engine, "DELETE", "/content/hospitals?filter=nope+%3D+%3F&arg=1", nil)
		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.Contains(t, w.Body.String(), CodeStorage)
	})
}

func TestContentController_EmptyUpdate(t *testing.T) {
	engine, _ := setupContentTest(t)

	w := doJSON(t, engine, "PUT", "/content/hospitals", map[string]any{})

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"rows":0}`, w.Body.String())
}

func TestContentController_FilterCannotRunExtraStatements(t *testing.T) {
	engine, _ := setupContentTest(t)
	w := doJSON(t, engine, "POST", "/content/doctors", map[string]any{"name": "Dr. House"})
	require.Equal(t, http.StatusCreated, w.Code)

	w = doJSON(t, engine, "DELETE", "/content/hospitals?filter=0%3BDROP+TABLE+doctors", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), CodeValidation)

	w = doJSON(t, engine, "GET", "/content/hospitals?order=name%3BDROP+TABLE+doctors", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(t, engine, "GET", "/content/doctors", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var records []map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &records))
	assert.Len(t, records, 1)
}
