package storage

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
)

const tokenLength = 12

// keyPattern matches keys produced by NewKey.
var keyPattern = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]*-\d{13,}-[0-9a-f]{12}\.[a-z0-9]+$`)

// NewKey 生成 "<prefix>-<unix-ms>-<token>.<ext>"
func NewKey(prefix, ext string) string {
	return newKeyAt(prefix, ext, time.Now())
}

func newKeyAt(prefix, ext string, now time.Time) string {
	prefix = strings.Trim(strings.ToLower(prefix), "-")
	if prefix == "" {
		prefix = "object"
	}
	ext = strings.TrimPrefix(strings.ToLower(ext), ".")
	if ext == "" {
		ext = "png"
	}
	return fmt.Sprintf("%s-%d-%s.%s", prefix, now.UnixMilli(), randomToken(), ext)
}

func randomToken() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:tokenLength]
}

// ValidKey 报告 key 是否符合生成策略
func ValidKey(key string) bool {
	return keyPattern.MatchString(key)
}
