package httplog

import (
	"github.com/gin-gonic/gin"

	"github.com/philipp01105/conlog/subject"
)

// Gin returns a gin middleware writing one line per request in format
// through how.
func Gin(format string, how LogFunc, opts ...Option) gin.HandlerFunc {
	f := ParseFormat(format)
	o := buildOptions(opts)
	w := NewWriter(how)

	return func(c *gin.Context) {
		rec := &record{req: c.Request, start: o.Clock()}

		if o.Immediate {
			if o.Skip == nil || !o.Skip(c.Request, 0) {
				_, _ = w.Write([]byte(f.render(rec) + "\n"))
			}
			c.Next()
			return
		}

		c.Next()

		rec.done = true
		rec.status = c.Writer.Status()
		rec.header = c.Writer.Header()
		if size := c.Writer.Size(); size > 0 {
			rec.written = int64(size)
		}
		rec.duration = o.Clock().Sub(rec.start)
		if o.Skip != nil && o.Skip(c.Request, rec.status) {
			return
		}
		_, _ = w.Write([]byte(f.render(rec) + "\n"))
	}
}

// UnrollGin projects a *gin.Context onto its request, with the route
// parameters and, once written, the response status. Register it with
// logger.WithUnroller.
func UnrollGin(v any) (*subject.Request, bool) {
	c, ok := v.(*gin.Context)
	if !ok || c == nil || c.Request == nil {
		return nil, false
	}
	req := subject.ProjectRequest(c.Request)
	for _, p := range c.Params {
		req.Params[p.Key] = p.Value
	}
	if c.Writer != nil && c.Writer.Written() {
		req.StatusCode = c.Writer.Status()
	}
	return req, true
}
