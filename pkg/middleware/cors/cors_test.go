package cors

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func serve(handler gin.HandlerFunc, method, origin string) *httptest.ResponseRecorder {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(handler)
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(method, "/", nil)
	if origin != "" {
		req.Header.Set("Origin", origin)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestCORSAllowList(t *testing.T) {
	w := serve(New([]string{"https://Dash.example.edu/"}), http.MethodGet, "https://dash.example.edu")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "https://dash.example.edu", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, w.Header().Get("Access-Control-Expose-Headers"), "Content-Disposition")
	assert.Contains(t, w.Header().Get("Access-Control-Expose-Headers"), "X-Row-Count")

	w = serve(New([]string{"https://dash.example.edu"}), http.MethodGet, "https://evil.example.com")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
	assert.Empty(t, w.Header().Get("Access-Control-Expose-Headers"))
}

func TestCORSAllowAllAndPreflight(t *testing.T) {
	w := serve(New(nil), http.MethodGet, "")
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))

	w = serve(New(nil), http.MethodOptions, "https://any.example")
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "https://any.example", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "600", w.Header().Get("Access-Control-Max-Age"))
	assert.Contains(t, w.Header().Get("Access-Control-Allow-Methods"), http.MethodPut)
}

func TestCORSWildcardOrigin(t *testing.T) {
	w := serve(New([]string{"*"}), http.MethodGet, "https://any.example")
	assert.Equal(t, "https://any.example", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestCORSRejectsForeignPreflight(t *testing.T) {
	w := serve(New([]string{"https://dash.example.edu"}), http.MethodOptions, "https://evil.example.com")
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Methods"))
}

func TestCORSCustomOptions(t *testing.T) {
	handler := WithOptions(Options{Methods: []string{http.MethodGet}})
	w := serve(handler, http.MethodOptions, "https://any.example")
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "GET", w.Header().Get("Access-Control-Allow-Methods"))
	assert.Empty(t, w.Header().Get("Access-Control-Max-Age"))
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Headers"))
}
