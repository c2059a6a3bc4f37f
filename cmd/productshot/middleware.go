package main

import (
	"context"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/subtle"
	"crypto/x509"
	"encoding/hex"
	"encoding/pem"
	"fmt"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/BaSui01/productshot/api"
	"github.com/BaSui01/productshot/api/handlers"
	"github.com/BaSui01/productshot/config"
	"github.com/BaSui01/productshot/internal/ctxkeys"
	"github.com/BaSui01/productshot/internal/metrics"
	"github.com/BaSui01/productshot/types"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	headerRequestID = "X-Request-ID"
	headerAPIKey    = "X-API-Key"
	maxRequestIDLen = 128
)

// Middleware 类型定义
type Middleware func(http.Handler) http.Handler

// Chain 将多个中间件串联，第一个中间件位于最外层
func Chain(h http.Handler, middlewares ...Middleware) http.Handler {
	for i := len(middlewares) - 1; i >= 0; i-- {
		h = middlewares[i](h)
	}
	return h
}

// Recovery panic 恢复中间件
func Recovery(logger *zap.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					logger.Error("panic recovered",
						zap.Any("error", err),
						zap.String("path", r.URL.Path),
						zap.Stack("stack"))
					handlers.WriteErrorMessage(w, http.StatusInternalServerError, types.ErrInternalError, "Internal server error", logger)
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// RequestID 为每个请求分配 ID 并写入响应头与 context。
// 客户端提供的 X-Request-ID 在长度合理时原样保留。
func RequestID() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := strings.TrimSpace(r.Header.Get(headerRequestID))
			if id == "" || len(id) > maxRequestIDLen {
				id = uuid.NewString()
			}
			w.Header().Set(headerRequestID, id)

			ctx := ctxkeys.WithRequestID(r.Context(), id)
			ctx = ctxkeys.WithClientIP(ctx, clientIP(r))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// SecurityHeaders adds common security response headers to every request.
func SecurityHeaders() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Frame-Options", "DENY")
			w.Header().Set("X-Content-Type-Options", "nosniff")
			w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
			w.Header().Set("Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'")
			next.ServeHTTP(w, r)
		})
	}
}

// CORS 为所有响应附加宽松的跨域头。
// POST 端点的预检由 handlers.PostOnly 自行应答。
func CORS() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			handlers.SetCORSHeaders(w.Header())
			w.Header().Set("Access-Control-Expose-Headers", headerRequestID)
			next.ServeHTTP(w, r)
		})
	}
}

// RequestLogger 请求日志中间件
func RequestLogger(logger *zap.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rw := handlers.NewResponseWriter(w)
			next.ServeHTTP(rw, r)

			fields := []zap.Field{
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", rw.StatusCode),
				zap.Int64("bytes", rw.Bytes),
				zap.Duration("duration", time.Since(start)),
				zap.String("remote_addr", r.RemoteAddr),
			}
			if id, ok := ctxkeys.RequestID(r.Context()); ok {
				fields = append(fields, zap.String("request_id", id))
			}
			if sub, ok := ctxkeys.Subject(r.Context()); ok {
				fields = append(fields, zap.String("subject", sub))
			}

			switch {
			case rw.StatusCode >= 500:
				logger.Error("request", fields...)
			case isProbe(r.URL.Path):
				logger.Debug("request", fields...)
			default:
				logger.Info("request", fields...)
			}
		})
	}
}

func isProbe(path string) bool {
	switch path {
	case api.PathHealth, api.PathHealthz, api.PathReady, api.PathReadyz:
		return true
	}
	return false
}

// =============================================================================
// MetricsMiddleware: records HTTP request metrics via metrics.Collector
// =============================================================================

// MetricsMiddleware records HTTP request duration, status, and sizes. Path
// labels are normalized to keep Prometheus label cardinality bounded.
func MetricsMiddleware(collector *metrics.Collector) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rw := handlers.NewResponseWriter(w)

			next.ServeHTTP(rw, r)

			requestSize := r.ContentLength
			if requestSize < 0 {
				requestSize = 0
			}
			collector.RecordHTTPRequest(
				r.Method,
				normalizePath(r.URL.Path),
				rw.StatusCode,
				time.Since(start),
				requestSize,
				rw.Bytes,
			)
		})
	}
}

// normalizePath maps a request path onto a bounded label set:
//
//	/objects/generated-images/generated-1-ab.png -> /objects/:bucket/:key
//	/does/not/exist                              -> other
func normalizePath(path string) string {
	switch path {
	case api.PathGenerate, api.PathRefine, api.PathGenerateAlias, api.PathRefineAlias,
		api.PathHistory, api.PathHealth, api.PathHealthz, api.PathReady, api.PathReadyz,
		api.PathVersion, api.PathMetrics:
		return path
	}
	if strings.HasPrefix(path, api.PathObjects) {
		return api.PathObjects + ":bucket/:key"
	}
	return "other"
}

// =============================================================================
// OTelTracing: OpenTelemetry HTTP tracing middleware
// =============================================================================

// OTelTracing creates a server span per request, continuing any incoming
// trace context.
func OTelTracing() Middleware {
	tracer := otel.Tracer("productshot/http")
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := otel.GetTextMapPropagator().Extract(r.Context(), propagation.HeaderCarrier(r.Header))

			route := normalizePath(r.URL.Path)
			ctx, span := tracer.Start(ctx, r.Method+" "+route,
				trace.WithSpanKind(trace.SpanKindServer),
				trace.WithAttributes(
					semconv.HTTPRequestMethodKey.String(r.Method),
					semconv.HTTPRoute(route),
					semconv.URLPath(r.URL.Path),
				),
			)
			defer span.End()

			if id, ok := ctxkeys.RequestID(ctx); ok {
				span.SetAttributes(attribute.String("http.request_id", id))
			}

			rw := handlers.NewResponseWriter(w)
			next.ServeHTTP(rw, r.WithContext(ctx))

			span.SetAttributes(semconv.HTTPResponseStatusCode(rw.StatusCode))
			if rw.StatusCode >= 500 {
				span.SetStatus(codes.Error, http.StatusText(rw.StatusCode))
			}
		})
	}
}

// =============================================================================
// RateLimiter / MaxBodyBytes
// =============================================================================

// RateLimiter 基于 IP 的令牌桶限流。rps <= 0 时关闭。
func RateLimiter(ctx context.Context, rps float64, burst int, logger *zap.Logger) Middleware {
	if rps <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	if burst <= 0 {
		burst = int(rps)
		if burst < 1 {
			burst = 1
		}
	}

	type visitor struct {
		limiter  *rate.Limiter
		lastSeen time.Time
	}
	var (
		mu       sync.Mutex
		visitors = make(map[string]*visitor)
	)
	// 后台清理过期 visitor
	go func() {
		ticker := time.NewTicker(time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				mu.Lock()
				for ip, v := range visitors {
					if time.Since(v.lastSeen) > 3*time.Minute {
						delete(visitors, ip)
					}
				}
				mu.Unlock()
			}
		}
	}()

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if api.IsPublicPath(r.URL.Path) || r.Method == http.MethodOptions {
				next.ServeHTTP(w, r)
				return
			}

			ip := clientIP(r)
			mu.Lock()
			v, exists := visitors[ip]
			if !exists {
				v = &visitor{limiter: rate.NewLimiter(rate.Limit(rps), burst)}
				visitors[ip] = v
			}
			v.lastSeen = time.Now()
			mu.Unlock()

			if !v.limiter.Allow() {
				w.Header().Set("Retry-After", "1")
				handlers.WriteErrorMessage(w, http.StatusTooManyRequests, types.ErrRateLimited, "Too many requests", logger)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// MaxBodyBytes 限制请求体大小，超限时由 handlers.DecodeJSONBody 返回 400
func MaxBodyBytes(limit int64) Middleware {
	return func(next http.Handler) http.Handler {
		if limit <= 0 {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Body != nil {
				r.Body = http.MaxBytesReader(w, r.Body, limit)
			}
			next.ServeHTTP(w, r)
		})
	}
}

func clientIP(r *http.Request) string {
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}

// =============================================================================
// Authenticate: X-API-Key and JWT Bearer authentication
// =============================================================================

// Authenticate 校验 X-API-Key 或 Authorization: Bearer <jwt>。
// 两者都未配置时直接放行；公开路径与 OPTIONS 预检始终放行。
// 通过认证的调用方写入 ctxkeys.Subject。
func Authenticate(apiKeys []string, jwtCfg config.JWTConfig, logger *zap.Logger) Middleware {
	keys := make([][]byte, 0, len(apiKeys))
	for _, k := range apiKeys {
		if k = strings.TrimSpace(k); k != "" {
			keys = append(keys, []byte(k))
		}
	}

	var verify func(string) (string, error)
	if jwtCfg.Enabled() {
		verify = newJWTVerifier(jwtCfg, logger)
	}

	if len(keys) == 0 && verify == nil {
		return func(next http.Handler) http.Handler { return next }
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if api.IsPublicPath(r.URL.Path) || r.Method == http.MethodOptions {
				next.ServeHTTP(w, r)
				return
			}

			if key := r.Header.Get(headerAPIKey); key != "" && len(keys) > 0 {
				if matchAPIKey(keys, key) {
					next.ServeHTTP(w, r.WithContext(ctxkeys.WithSubject(r.Context(), keySubject(key))))
					return
				}
				unauthorized(w, "Invalid API key", logger)
				return
			}

			if auth := r.Header.Get("Authorization"); verify != nil && strings.HasPrefix(auth, "Bearer ") {
				subject, err := verify(strings.TrimPrefix(auth, "Bearer "))
				if err != nil {
					logger.Debug("JWT validation failed", zap.Error(err))
					unauthorized(w, "Invalid or expired token", logger)
					return
				}
				next.ServeHTTP(w, r.WithContext(ctxkeys.WithSubject(r.Context(), subject)))
				return
			}

			unauthorized(w, "Missing credentials", logger)
		})
	}
}

func unauthorized(w http.ResponseWriter, message string, logger *zap.Logger) {
	w.Header().Set("WWW-Authenticate", `Bearer realm="productshot"`)
	handlers.WriteErrorMessage(w, http.StatusUnauthorized, types.ErrUnauthorized, message, logger)
}

// matchAPIKey 以常数时间比较，避免逐字节计时泄露
func matchAPIKey(keys [][]byte, candidate string) bool {
	c := []byte(candidate)
	matched := 0
	for _, k := range keys {
		matched |= subtle.ConstantTimeCompare(k, c)
	}
	return matched == 1
}

// keySubject 返回 API key 的短指纹，日志中不出现明文
func keySubject(key string) string {
	sum := sha256.Sum256([]byte(key))
	return "key:" + hex.EncodeToString(sum[:4])
}

// newJWTVerifier 构建 HS256/RS256 校验函数，返回 sub 声明
func newJWTVerifier(cfg config.JWTConfig, logger *zap.Logger) func(string) (string, error) {
	var rsaKey *rsa.PublicKey
	if cfg.PublicKey != "" {
		if block, _ := pem.Decode([]byte(cfg.PublicKey)); block != nil {
			if pub, err := x509.ParsePKIXPublicKey(block.Bytes); err == nil {
				rsaKey, _ = pub.(*rsa.PublicKey)
			}
		}
		if rsaKey == nil {
			logger.Warn("failed to parse RSA public key, RS256 verification disabled")
		}
	}
	hmacSecret := []byte(cfg.Secret)

	parserOpts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{"HS256", "RS256"}),
		jwt.WithExpirationRequired(),
	}
	if cfg.Issuer != "" {
		parserOpts = append(parserOpts, jwt.WithIssuer(cfg.Issuer))
	}
	if cfg.Audience != "" {
		parserOpts = append(parserOpts, jwt.WithAudience(cfg.Audience))
	}
	parser := jwt.NewParser(parserOpts...)

	keyFunc := func(token *jwt.Token) (any, error) {
		switch token.Method.Alg() {
		case "HS256":
			if len(hmacSecret) == 0 {
				return nil, fmt.Errorf("HMAC secret not configured")
			}
			return hmacSecret, nil
		case "RS256":
			if rsaKey == nil {
				return nil, fmt.Errorf("RSA public key not configured")
			}
			return rsaKey, nil
		default:
			return nil, fmt.Errorf("unexpected signing method: %s", token.Method.Alg())
		}
	}

	return func(tokenStr string) (string, error) {
		claims := jwt.RegisteredClaims{}
		if _, err := parser.ParseWithClaims(tokenStr, &claims, keyFunc); err != nil {
			return "", err
		}
		if claims.Subject == "" {
			return "jwt", nil
		}
		return claims.Subject, nil
	}
}
