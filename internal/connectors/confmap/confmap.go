// Package confmap reads typed values from the loosely typed connector
// configuration maps stored on ingestion sources.
package confmap

import (
	"fmt"
	"path"
	"strconv"
	"strings"
)

// String returns the first non-empty string found under keys.
func String(m map[string]any, keys ...string) string {
	for _, k := range keys {
		switch v := m[k].(type) {
		case string:
			if v != "" {
				return v
			}
		case fmt.Stringer:
			if s := v.String(); s != "" {
				return s
			}
		}
	}
	return ""
}

// Bool accepts booleans and the strings "true", "1", "yes".
func Bool(m map[string]any, key string) bool {
	switch v := m[key].(type) {
	case bool:
		return v
	case string:
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
		return strings.EqualFold(v, "yes")
	}
	return false
}

// JoinKey joins object-store key segments, dropping empty parts and any
// leading slash.
func JoinKey(parts ...string) string {
	kept := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.Trim(p, "/")
		if p != "" {
			kept = append(kept, p)
		}
	}
	if len(kept) == 0 {
		return ""
	}
	return path.Join(kept...)
}

// Prefix returns key as a listing prefix ending in "/", or "" for the bucket root.
func Prefix(key string) string {
	if key == "" {
		return ""
	}
	return strings.TrimSuffix(key, "/") + "/"
}
