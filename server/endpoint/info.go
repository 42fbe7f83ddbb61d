package endpoint

import (
	"net/http"
	"runtime"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/kbukum/samuelizer/version"
)

var startTime = time.Now()

// Info reports the build and a small runtime snapshot. Request and
// provider metrics go out over OTLP; this is for eyeballing a running
// server with curl.
func Info(serviceName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		var m runtime.MemStats
		runtime.ReadMemStats(&m)
		v := version.Get()
		c.JSON(http.StatusOK, gin.H{
			"service":    serviceName,
			"version":    v.Version,
			"git_commit": v.GitCommit,
			"build_time": v.BuildTime,
			"go_version": v.GoVersion,
			"dirty":      v.Dirty,
			"uptime":     time.Since(startTime).Round(time.Second).String(),
			"runtime": gin.H{
				"goroutines": runtime.NumGoroutine(),
				"heap_mb":    m.HeapAlloc >> 20,
				"gc_runs":    m.NumGC,
			},
		})
	}
}
