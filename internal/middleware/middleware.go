package middleware

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"runtime/debug"
	"strconv"
	"sync"
	"time"
	"todoTracker/internal/logger"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type contextKey string

const RequestIdKey contextKey = "request_id"

func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestId := r.Header.Get("X-Request-ID")
		if requestId == "" {
			requestId = uuid.New().String()
		}

		w.Header().Set("X-Request-ID", requestId)

		ctx := context.WithValue(r.Context(), RequestIdKey, requestId)
		r = r.WithContext(ctx)

		next.ServeHTTP(w, r)
	})
}

type loggingWriter struct {
	http.ResponseWriter
	status      int
	size        int
	wroteHeader bool
}

func (lw *loggingWriter) WriteHeader(code int) {
	if !lw.wroteHeader {
		lw.status = code
		lw.wroteHeader = true
		lw.ResponseWriter.WriteHeader(code)
	}
}

func (lw *loggingWriter) Write(b []byte) (int, error) {
	if !lw.wroteHeader {
		lw.WriteHeader(http.StatusOK)
	}

	n, err := lw.ResponseWriter.Write(b)
	lw.size += n
	return n, err
}

func Logging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		requestId := GetRequestID(r.Context())

		logger.HttpRequestInfo(r, "HTTP_IN: Начало запроса", zap.String("request_id", requestId))

		lw := &loggingWriter{
			ResponseWriter: w,
			status:         http.StatusOK,
		}
		next.ServeHTTP(lw, r)

		logLevel := zap.InfoLevel
		if lw.status >= 400 && lw.status < 500 {
			logLevel = zap.WarnLevel
		} else if lw.status >= 500 {
			logLevel = zap.ErrorLevel
		}
		logger.Log(
			logLevel,
			"HTTP_OUT: Завершение запроса",
			zap.String("request_id", requestId),
			zap.Int("status", lw.status),
			zap.Int("bytes_written", lw.size),
			zap.Duration("ms", time.Since(start)),
		)
	})
}

func GetRequestID(ctx context.Context) string {
	if id, ok := ctx.Value(RequestIdKey).(string); ok {
		return id
	}
	return ""
}

// Timeout ограничивает время жизни контекста запроса. Хранилища
// прерывают операции по дедлайну, ответ пишет сам обработчик.
func Timeout(timeout time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if timeout <= 0 {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, cancel := context.WithTimeout(r.Context(), timeout)
			defer cancel()

			next.ServeHTTP(w, r.WithContext(ctx))

			if ctx.Err() == context.DeadlineExceeded {
				logger.Warn(
					"HTTP: таймаут запроса",
					zap.String("request_id", GetRequestID(r.Context())),
					zap.String("method", r.Method),
					zap.String("path", r.URL.Path),
					zap.Duration("ms", timeout),
				)
			}
		})
	}
}

// Recover превращает панику обработчика в ответ 500
func Recover(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if rec == http.ErrAbortHandler {
				panic(rec)
			}

			logger.Error("HTTP: Паника в обработчике", fmt.Errorf("%v", rec),
				zap.String("request_id", GetRequestID(r.Context())),
				zap.ByteString("stack", debug.Stack()),
			)
			writeJSON(w, http.StatusInternalServerError, map[string]any{
				"error":   "SERVER_ERROR",
				"message": "Server error",
				"details": map[string]any{"error": fmt.Sprint(rec)},
			})
		}()

		next.ServeHTTP(w, r)
	})
}

type clientInfo struct {
	count   int
	resetAt time.Time
}

// rateLimiter считает запросы по IP в окне фиксированной длины.
// Истёкшие окна удаляются не чаще одного раза за окно.
type rateLimiter struct {
	mtx       sync.Mutex
	clients   map[string]*clientInfo
	limit     int
	window    time.Duration
	lastSweep time.Time
}

func newRateLimiter(limit int, window time.Duration) *rateLimiter {
	return &rateLimiter{
		clients: make(map[string]*clientInfo),
		limit:   limit,
		window:  window,
	}
}

// hit учитывает запрос и возвращает состояние окна клиента после него
func (l *rateLimiter) hit(ip string, now time.Time) (clientInfo, bool) {
	l.mtx.Lock()
	defer l.mtx.Unlock()

	if now.Sub(l.lastSweep) >= l.window {
		for key, info := range l.clients {
			if now.After(info.resetAt) {
				delete(l.clients, key)
			}
		}
		l.lastSweep = now
	}

	info, exists := l.clients[ip]
	switch {
	case !exists:
		info = &clientInfo{count: 1, resetAt: now.Add(l.window)}
		l.clients[ip] = info
	case now.After(info.resetAt):
		info.count = 1
		info.resetAt = now.Add(l.window)
	case info.count >= l.limit:
		return *info, false
	default:
		info.count++
	}
	return *info, true
}

func (l *rateLimiter) size() int {
	l.mtx.Lock()
	defer l.mtx.Unlock()
	return len(l.clients)
}

// RateLimit пропускает не больше rpm запросов в минуту с одного IP; rpm <= 0 отключает лимит
func RateLimit(rpm int) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if rpm <= 0 {
			return next
		}
		limiter := newRateLimiter(rpm, time.Minute)

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			now := time.Now()
			info, allowed := limiter.hit(getIp(r), now)

			if !allowed {
				retryAfter := int(info.resetAt.Sub(now).Seconds())
				w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
				writeJSON(w, http.StatusTooManyRequests, map[string]any{
					"error":       "RATE_LIMIT_EXCEEDED",
					"message":     "Too many requests. Try again later.",
					"retry_after": retryAfter,
					"request_id":  GetRequestID(r.Context()),
				})
				return
			}

			remaining := rpm - info.count
			if remaining < 0 {
				remaining = 0
			}
			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(rpm))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
			w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(info.resetAt.Unix(), 10))

			next.ServeHTTP(w, r)
		})
	}
}

func getIp(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func writeJSON(w http.ResponseWriter, code int, body map[string]any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logger.Error("HTTP: Не удалось записать ответ", err)
	}
}
