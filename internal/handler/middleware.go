package handler

import (
	"strconv"
	"strings"
	"time"

	"dailytrack/internal/infrastructure/metrics"
	"dailytrack/pkg/response"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const (
	HeaderRequestID     = "X-Request-ID"
	HeaderCallerAddress = "X-Caller-Address"

	ctxRequestID = "request_id"
	ctxCaller    = "caller"
)

func LoggerMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		c.Next()

		if query != "" {
			path = path + "?" + query
		}

		entry := logrus.WithFields(logrus.Fields{
			"status":     c.Writer.Status(),
			"latency":    time.Since(start).String(),
			"client_ip":  c.ClientIP(),
			"method":     c.Request.Method,
			"path":       path,
			"request_id": c.GetString(ctxRequestID),
		})
		if caller, ok := CallerFrom(c); ok {
			entry = entry.WithField("caller", caller.Hex())
		}
		entry.Info("http request")
	}
}

// RecoveryMiddleware turns a panic into a 500 envelope.
func RecoveryMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				logrus.WithFields(logrus.Fields{
					"panic":      err,
					"path":       c.Request.URL.Path,
					"request_id": c.GetString(ctxRequestID),
				}).Error("recovered from panic")
				response.Abort(c, response.CodeServerError, "internal server error")
			}
		}()
		c.Next()
	}
}

func CORSMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Authorization, X-Request-ID, X-Caller-Address")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}

// RequestIDMiddleware keeps the gateway's request id or assigns a new one.
func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(HeaderRequestID)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(ctxRequestID, id)
		c.Header(HeaderRequestID, id)
		c.Next()
	}
}

func MetricsMiddleware(m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		m.IncHTTPRequest(c.Request.Method, path, strconv.Itoa(c.Writer.Status()))
	}
}

// GatewayAuthMiddleware only accepts requests carrying the gateway's bearer
// token. An empty token disables the check.
func GatewayAuthMiddleware(token string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if token == "" {
			c.Next()
			return
		}
		got := strings.TrimPrefix(c.GetHeader("Authorization"), "Bearer ")
		if got != token {
			logrus.WithField("path", c.Request.URL.Path).Warn("rejected request without gateway token")
			response.Abort(c, response.CodeUnauthorized, "invalid gateway authentication token")
			return
		}
		c.Next()
	}
}

// CallerMiddleware reads the caller identity injected by the gateway. A
// malformed or zero address is rejected; a missing header is left to
// RequireCaller.
func CallerMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := strings.TrimSpace(c.GetHeader(HeaderCallerAddress))
		if raw == "" {
			c.Next()
			return
		}
		if !common.IsHexAddress(raw) {
			response.Abort(c, response.CodeParamError, "invalid "+HeaderCallerAddress)
			return
		}
		addr := common.HexToAddress(raw)
		if addr == (common.Address{}) {
			response.Abort(c, response.CodeParamError, HeaderCallerAddress+" is the zero address")
			return
		}
		c.Set(ctxCaller, addr)
		c.Next()
	}
}

func RequireCaller() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := CallerFrom(c); !ok {
			response.Abort(c, response.CodeUnauthorized, "missing "+HeaderCallerAddress)
			return
		}
		c.Next()
	}
}

func CallerFrom(c *gin.Context) (common.Address, bool) {
	v, ok := c.Get(ctxCaller)
	if !ok {
		return common.Address{}, false
	}
	addr, ok := v.(common.Address)
	return addr, ok
}

func mustCaller(c *gin.Context) common.Address {
	addr, _ := CallerFrom(c)
	return addr
}
