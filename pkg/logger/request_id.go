package logger

import (
	"context"
	"strings"
	"unicode"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// MaxRequestIDLength ограничивает идентификатор, принятый от клиента.
const MaxRequestIDLength = 128

type requestIDKey struct{}

// NewRequestIDContext кладет requestID в контекст. Пустой requestID заменяется
// сгенерированным.
func NewRequestIDContext(ctx context.Context, requestID string) context.Context {
	if requestID == "" {
		requestID = GenerateRequestID()
	}
	return context.WithValue(ctx, requestIDKey{}, requestID)
}

// GetRequestID возвращает идентификатор запроса, если он есть в ctx.
func GetRequestID(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(requestIDKey{}).(string)
	return id, ok
}

// GenerateRequestID возвращает случайный UUID v4.
func GenerateRequestID() string {
	return uuid.NewString()
}

// NormalizeRequestID принимает идентификатор из заголовка X-Request-ID.
// Пустое, слишком длинное или содержащее непечатаемые символы значение
// заменяется сгенерированным.
func NormalizeRequestID(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" || len(raw) > MaxRequestIDLength {
		return GenerateRequestID()
	}
	if strings.IndexFunc(raw, func(r rune) bool { return !unicode.IsPrint(r) }) >= 0 {
		return GenerateRequestID()
	}
	return raw
}

// WithRequestID добавляет к логгеру поле request_id из ctx.
func (l *Logger) WithRequestID(ctx context.Context) *Logger {
	if id, ok := GetRequestID(ctx); ok {
		return l.With(zap.String(RequestID, id))
	}
	return l
}
