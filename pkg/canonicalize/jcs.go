// Package canonicalize provides RFC 8785 (JSON Canonicalization Scheme)
// compliant serialization for deterministic hashing of FAK artifacts.
//
// Two values that are semantically equal (ignoring map key order at any
// nesting depth) canonicalize to identical bytes and therefore identical
// digests. There is no salt and no scheme version tag: callers that need
// hash-scheme evolution must namespace their payloads themselves.
package canonicalize

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"reflect"
	"strings"

	"github.com/gowebpki/jcs"
)

// sentinel is the canonical rendering used for values that cannot be
// serialized, keeping Hash total.
const sentinel = "null"

// JCS returns the RFC 8785 canonical JSON representation of v.
//
// v is first marshaled with encoding/json (so struct tags are respected),
// then the resulting JSON text is transformed into canonical form: object
// keys sorted by UTF-8 bytes, arrays in order, numbers in ES6 shortest
// form, no HTML escaping.
func JCS(v any) ([]byte, error) {
	intermediate, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("jcs: pre-marshal failed: %w", err)
	}
	canonical, err := jcs.Transform(intermediate)
	if err != nil {
		return nil, fmt.Errorf("jcs: transform failed: %w", err)
	}
	return canonical, nil
}

// JCSString returns the JCS canonical form as a string.
func JCSString(v any) (string, error) {
	b, err := JCS(v)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Hash returns the SHA-256 hex digest of the canonical form of v.
//
// Hash is total: an unrenderable scalar (NaN, Inf, a channel, ...) degrades
// to the sentinel rendering in place, leaving the rest of the value intact,
// so two values differing in a renderable leaf stay distinguishable even
// when both carry unrenderable leaves.
func Hash(v any) string {
	b, err := JCS(v)
	if err != nil {
		b, err = JCS(sanitize(reflect.ValueOf(v)))
		if err != nil {
			b = []byte(sentinel)
		}
	}
	return HashBytes(b)
}

// HashBytes computes the SHA-256 hash of raw bytes as lowercase hex.
func HashBytes(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// sanitize walks a value that failed to marshal and replaces each
// unrenderable scalar with nil, preserving every renderable subtree as-is.
func sanitize(v reflect.Value) any {
	if !v.IsValid() {
		return nil
	}
	if v.Kind() == reflect.Pointer || v.Kind() == reflect.Interface {
		if v.IsNil() {
			return nil
		}
		return sanitize(v.Elem())
	}

	// Renderable subtrees pass through untouched.
	if v.CanInterface() {
		if _, err := json.Marshal(v.Interface()); err == nil {
			return v.Interface()
		}
	}

	switch v.Kind() {
	case reflect.Map:
		out := make(map[string]any, v.Len())
		iter := v.MapRange()
		for iter.Next() {
			out[fmt.Sprint(iter.Key().Interface())] = sanitize(iter.Value())
		}
		return out
	case reflect.Slice, reflect.Array:
		out := make([]any, v.Len())
		for i := 0; i < v.Len(); i++ {
			out[i] = sanitize(v.Index(i))
		}
		return out
	case reflect.Struct:
		t := v.Type()
		out := make(map[string]any, t.NumField())
		for i := 0; i < t.NumField(); i++ {
			field := t.Field(i)
			if !field.IsExported() {
				continue
			}
			name := field.Name
			if tag, ok := field.Tag.Lookup("json"); ok {
				tagName, _, _ := strings.Cut(tag, ",")
				if tagName == "-" {
					continue
				}
				if tagName != "" {
					name = tagName
				}
			}
			out[name] = sanitize(v.Field(i))
		}
		return out
	default:
		// Unrenderable scalar: NaN, Inf, channel, func, ...
		return nil
	}
}
