package httpgin

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/gin-gonic/gin"
)

// cachedJSON answers 200 with v, a weak ETag of the encoded body and a
// private max-age. The body depends on the profile, so caches key on it.
func cachedJSON(c *gin.Context, v any, maxAge time.Duration) {
	body, err := json.Marshal(v)
	if err != nil {
		respondErr(c, fmt.Errorf("encode response: %w", err))
		return
	}

	tag := fmt.Sprintf(`W/"%016x"`, xxhash.Sum64(body))

	h := c.Writer.Header()
	h.Set("ETag", tag)
	h.Set("Cache-Control", fmt.Sprintf("private, max-age=%d", int(maxAge/time.Second)))
	h.Add("Vary", "Cookie")
	h.Add("Vary", profileHeader)

	if matchesETag(c.GetHeader("If-None-Match"), tag) {
		c.Status(http.StatusNotModified)
		return
	}

	c.Data(http.StatusOK, "application/json; charset=utf-8", body)
}

// matchesETag applies the weak comparison of If-None-Match: any listed tag
// or "*" matches, the W/ prefix is ignored.
func matchesETag(header, tag string) bool {
	want := strings.TrimPrefix(tag, "W/")
	for _, t := range strings.Split(header, ",") {
		t = strings.TrimSpace(t)
		if t == "*" || (t != "" && strings.TrimPrefix(t, "W/") == want) {
			return true
		}
	}
	return false
}
