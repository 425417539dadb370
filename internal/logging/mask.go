package logging

import (
	"context"
	"log/slog"
	"regexp"
	"strings"
)

const (
	MaskChar = "*"
	// URLMaskLength is how many characters of a URL stay visible.
	URLMaskLength = 30
)

// SensitiveFields are attribute keys whose values are never logged verbatim.
var SensitiveFields = []string{
	"token",
	"secret",
	"password",
	"authorization",
	"bearer",
	"api_key",
	"credential",
}

var urlPattern = regexp.MustCompile(`https?://[^\s"']+`)

// MaskURL keeps the first URLMaskLength characters of a URL.
// Webhook URLs embed their credentials in the path.
func MaskURL(url string) string {
	if len(url) <= URLMaskLength {
		return url
	}
	return url[:URLMaskLength] + strings.Repeat(MaskChar, 3)
}

// MaskToken masks a secret completely, keeping only a hint of its length.
func MaskToken(value string) string {
	if value == "" {
		return ""
	}
	return strings.Repeat(MaskChar, min(len(value), 8))
}

// IsSensitiveField checks if a field name indicates sensitive data.
func IsSensitiveField(fieldName string) bool {
	lower := strings.ToLower(fieldName)
	for _, keyword := range SensitiveFields {
		if strings.Contains(lower, keyword) {
			return true
		}
	}
	return false
}

// MaskString masks every non-local URL inside s.
func MaskString(s string) string {
	return urlPattern.ReplaceAllStringFunc(s, func(url string) string {
		if strings.Contains(url, "localhost") || strings.Contains(url, "127.0.0.1") {
			return url
		}
		return MaskURL(url)
	})
}

// MaskingHandler is a slog.Handler that redacts sensitive attributes before
// delegating to the wrapped handler.
type MaskingHandler struct {
	next slog.Handler
}

// NewMaskingHandler wraps next with attribute masking.
func NewMaskingHandler(next slog.Handler) *MaskingHandler {
	return &MaskingHandler{next: next}
}

func (h *MaskingHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(ctx, level)
}

func (h *MaskingHandler) Handle(ctx context.Context, r slog.Record) error {
	masked := slog.NewRecord(r.Time, r.Level, MaskString(r.Message), r.PC)
	r.Attrs(func(a slog.Attr) bool {
		masked.AddAttrs(maskAttr(a))
		return true
	})
	return h.next.Handle(ctx, masked)
}

func (h *MaskingHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	out := make([]slog.Attr, len(attrs))
	for i, a := range attrs {
		out[i] = maskAttr(a)
	}
	return &MaskingHandler{next: h.next.WithAttrs(out)}
}

func (h *MaskingHandler) WithGroup(name string) slog.Handler {
	return &MaskingHandler{next: h.next.WithGroup(name)}
}

func maskAttr(a slog.Attr) slog.Attr {
	v := a.Value.Resolve()
	switch {
	case v.Kind() == slog.KindGroup:
		group := v.Group()
		out := make([]any, len(group))
		for i, g := range group {
			out[i] = maskAttr(g)
		}
		return slog.Group(a.Key, out...)
	case IsSensitiveField(a.Key):
		if v.Kind() == slog.KindString {
			return slog.String(a.Key, MaskToken(v.String()))
		}
		return slog.String(a.Key, strings.Repeat(MaskChar, 8))
	case v.Kind() == slog.KindString:
		return slog.String(a.Key, MaskString(v.String()))
	default:
		return slog.Attr{Key: a.Key, Value: v}
	}
}
