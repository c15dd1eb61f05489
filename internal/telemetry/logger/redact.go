package logger

import (
	"log/slog"
	"regexp"
	"strings"
)

// Keys whose non-empty values are always hidden.
var sensitiveKeyPatterns = []string{
	"password",
	"secret",
	"token",
	"authorization",
	"cookie",
	"credential",
}

var (
	jwtPattern    = regexp.MustCompile(`eyJ[A-Za-z0-9_-]+\.[A-Za-z0-9_-]+\.[A-Za-z0-9_-]*`)
	bearerPattern = regexp.MustCompile(`(?i)bearer\s+\S+`)
)

const redactedValue = "***REDACTED***"

// redactSensitive hides credentials by key name or by value shape.
func redactSensitive(a slog.Attr) slog.Attr {
	switch a.Value.Kind() {
	case slog.KindString:
		s := a.Value.String()
		if s != "" && IsSensitiveKey(a.Key) {
			return slog.String(a.Key, redactedValue)
		}
		if redacted := RedactString(s); redacted != s {
			return slog.String(a.Key, redacted)
		}
	case slog.KindGroup:
		attrs := a.Value.Group()
		out := make([]slog.Attr, len(attrs))
		for i, attr := range attrs {
			out[i] = redactSensitive(attr)
		}
		return slog.Attr{Key: a.Key, Value: slog.GroupValue(out...)}
	}
	return a
}

// RedactString masks bearer headers and JWTs embedded in s.
func RedactString(s string) string {
	if !strings.Contains(s, "eyJ") && !strings.Contains(strings.ToLower(s), "bearer") {
		return s
	}
	s = bearerPattern.ReplaceAllString(s, "Bearer "+redactedValue)
	return jwtPattern.ReplaceAllStringFunc(s, maskJWT)
}

// maskJWT keeps the header prefix and the last characters of the signature.
func maskJWT(t string) string {
	if len(t) < 16 {
		return redactedValue
	}
	return t[:6] + "..." + t[len(t)-4:]
}

// IsSensitiveKey reports whether a key name suggests a credential.
func IsSensitiveKey(key string) bool {
	k := strings.ToLower(key)
	for _, p := range sensitiveKeyPatterns {
		if strings.Contains(k, p) {
			return true
		}
	}
	return false
}
