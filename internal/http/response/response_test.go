package response

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func decode(t *testing.T, rr *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var m map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &m))
	return m
}

func TestOK_WithData(t *testing.T) {
	t.Parallel()

	rr := httptest.NewRecorder()
	OK(rr, http.StatusCreated, "created", map[string]any{"k": "v"})

	require.Equal(t, http.StatusCreated, rr.Code)
	require.Equal(t, "application/json", rr.Header().Get("Content-Type"))

	m := decode(t, rr)
	require.Equal(t, true, m["success"])
	require.Equal(t, "created", m["message"])
	require.Equal(t, float64(201), m["statusCode"])
	require.Equal(t, map[string]any{"k": "v"}, m["data"])
	require.NotContains(t, m, "error")
}

func TestOK_WithoutData_OmitsField(t *testing.T) {
	t.Parallel()

	rr := httptest.NewRecorder()
	OK(rr, http.StatusOK, "done", nil)

	require.NotContains(t, decode(t, rr), "data")
}

func TestFail_And_Internal(t *testing.T) {
	t.Parallel()

	rr := httptest.NewRecorder()
	Fail(rr, http.StatusNotFound, "Account was not found, please register", "Not found")
	m := decode(t, rr)
	require.Equal(t, false, m["success"])
	require.Equal(t, float64(404), m["statusCode"])
	require.Equal(t, "Not found", m["error"])

	rr = httptest.NewRecorder()
	Internal(rr, "boom happened")
	m = decode(t, rr)
	require.Equal(t, http.StatusInternalServerError, rr.Code)
	require.Equal(t, ErrInternal, m["error"])
	require.Equal(t, "boom happened", m["message"])
}

// Без error поле опускается (например, 400 Invalid credentials).
func TestFail_EmptyErrorOmitted(t *testing.T) {
	t.Parallel()

	rr := httptest.NewRecorder()
	Fail(rr, http.StatusBadRequest, "Invalid credentials", "")
	require.NotContains(t, decode(t, rr), "error")
}
