package util

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// StorageKey isolates a cache key inside a shared byte store: "bc:<ns>:<key>".
// ns must satisfy ValidNamespace; key may contain ':' (keyhash.Prefixed).
func StorageKey(ns, key string) string {
	return "bc:" + ns + ":" + key
}

// Redact returns the first 16 hex chars of sha256(key) for logging keys
// that may carry user data.
func Redact(key string) string {
	sum := sha256.Sum256([]byte(key))
	return hex.EncodeToString(sum[:8])
}

// ValidNamespace reports whether ns can be recovered from a storage key:
// non-empty and free of ':'.
func ValidNamespace(ns string) bool {
	return ns != "" && !strings.Contains(ns, ":")
}

// SplitStorageKey reverses StorageKey. The namespace ends at the first ':'
// after the prefix; the key is everything after it.
func SplitStorageKey(sk string) (ns, key string, ok bool) {
	rest, found := strings.CutPrefix(sk, "bc:")
	if !found {
		return "", "", false
	}
	i := strings.IndexByte(rest, ':')
	if i <= 0 {
		return "", "", false
	}
	return rest[:i], rest[i+1:], true
}
