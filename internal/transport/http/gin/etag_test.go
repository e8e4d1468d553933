package httpgin

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func serveCached(t *testing.T, v any, ifNoneMatch string) *httptest.ResponseRecorder {
	t.Helper()
	gin.SetMode(gin.TestMode)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	if ifNoneMatch != "" {
		c.Request.Header.Set("If-None-Match", ifNoneMatch)
	}

	cachedJSON(c, v, 15*time.Second)
	c.Writer.WriteHeaderNow()
	return w
}

func TestCachedJSONHeaders(t *testing.T) {
	w := serveCached(t, map[string]int{"a": 1}, "")

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"a":1}`, w.Body.String())
	assert.Regexp(t, `^W/"[0-9a-f]{16}"$`, w.Header().Get("ETag"))
	assert.Equal(t, "private, max-age=15", w.Header().Get("Cache-Control"))
	assert.Equal(t, []string{"Cookie", profileHeader}, w.Header().Values("Vary"))
}

func TestCachedJSONConditional(t *testing.T) {
	tag := serveCached(t, []string{"x"}, "").Header().Get("ETag")
	strong := tag[len("W/"):]

	cases := map[string]struct {
		header string
		want   int
	}{
		"same tag":       {tag, http.StatusNotModified},
		"strong form":    {strong, http.StatusNotModified},
		"in a list":      {`"other", ` + tag, http.StatusNotModified},
		"wildcard":       {"*", http.StatusNotModified},
		"different body": {`W/"0000000000000000"`, http.StatusOK},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			w := serveCached(t, []string{"x"}, tc.header)
			assert.Equal(t, tc.want, w.Code)
			if tc.want == http.StatusNotModified {
				assert.Empty(t, w.Body.String())
			}
		})
	}
}

func TestCachedJSONTagFollowsBody(t *testing.T) {
	a := serveCached(t, []string{"x"}, "").Header().Get("ETag")
	b := serveCached(t, []string{"y"}, "").Header().Get("ETag")
	assert.NotEqual(t, a, b)
}
