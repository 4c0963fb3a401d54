// Package diff computes field-level before/after deltas between entity
// snapshots. It is pure and deterministic: no I/O, no globals mutated.
package diff

import (
	"reflect"
	"strings"
	"time"
)

// Change records the old and new value of a single field path.
type Change struct {
	From any `json:"from"`
	To   any `json:"to"`
}

// skipFields are excluded from every diff. Generic bookkeeping timestamps
// change on each mutation and carry no audit meaning.
var skipFields = map[string]struct{}{
	"updatedAt":  {},
	"updated_at": {},
}

// customContainers are the recognized custom-field wrapper keys. Their
// sub-maps are diffed as a flat, case-normalized key space instead of being
// recursed as ordinary nested objects.
var customContainers = map[string]struct{}{
	"custom":        {},
	"customFields":  {},
	"custom_fields": {},
}

// DeepEqual reports structural equality between two snapshot values.
//
// Semantics beyond reflect.DeepEqual:
//   - self-referential structures terminate (visited pointer pairs are
//     assumed equal)
//   - time.Time values and ISO-8601 strings that parse to the same instant
//     are equal
//   - numeric values are compared by magnitude, so an int snapshot field
//     equals the float64 the same field becomes after a JSON round trip
//   - slices and arrays are compared element-wise by position; reordering
//     counts as a change
func DeepEqual(a, b any) bool {
	return deepEqual(a, b, make(map[visit]struct{}))
}

type visit struct {
	a, b uintptr
}

func deepEqual(a, b any, seen map[visit]struct{}) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}

	if at, aok := asInstant(a); aok {
		if bt, bok := asInstant(b); bok {
			return at.Equal(bt)
		}
	}

	if af, aok := asFloat(a); aok {
		if bf, bok := asFloat(b); bok {
			return af == bf
		}
		return false
	}

	va := reflect.ValueOf(a)
	vb := reflect.ValueOf(b)

	switch va.Kind() {
	case reflect.Map, reflect.Slice:
		if vb.Kind() != va.Kind() {
			return false
		}
		if va.IsNil() || vb.IsNil() {
			return va.IsNil() && vb.IsNil()
		}
		// Cycle guard: a pair already under comparison is treated as equal;
		// any real difference will surface on another path.
		v := visit{va.Pointer(), vb.Pointer()}
		if _, ok := seen[v]; ok {
			return true
		}
		seen[v] = struct{}{}
		defer delete(seen, v)
	case reflect.Ptr:
		if vb.Kind() != reflect.Ptr {
			return false
		}
		if va.IsNil() || vb.IsNil() {
			return va.IsNil() && vb.IsNil()
		}
		v := visit{va.Pointer(), vb.Pointer()}
		if _, ok := seen[v]; ok {
			return true
		}
		seen[v] = struct{}{}
		defer delete(seen, v)
		return deepEqual(va.Elem().Interface(), vb.Elem().Interface(), seen)
	}

	switch va.Kind() {
	case reflect.Map:
		if vb.Kind() != reflect.Map {
			return false
		}
		if va.Len() != vb.Len() {
			return false
		}
		iter := va.MapRange()
		for iter.Next() {
			bv := vb.MapIndex(iter.Key())
			if !bv.IsValid() {
				return false
			}
			if !deepEqual(iter.Value().Interface(), bv.Interface(), seen) {
				return false
			}
		}
		return true

	case reflect.Slice, reflect.Array:
		if vb.Kind() != reflect.Slice && vb.Kind() != reflect.Array {
			return false
		}
		if va.Len() != vb.Len() {
			return false
		}
		for i := 0; i < va.Len(); i++ {
			if !deepEqual(va.Index(i).Interface(), vb.Index(i).Interface(), seen) {
				return false
			}
		}
		return true

	default:
		return reflect.DeepEqual(a, b)
	}
}

// asInstant extracts a point in time from time.Time values and strings that
// parse as ISO-8601 timestamps or calendar dates.
func asInstant(v any) (time.Time, bool) {
	switch t := v.(type) {
	case time.Time:
		return t, true
	case *time.Time:
		if t == nil {
			return time.Time{}, false
		}
		return *t, true
	case string:
		// Quick shape check before attempting a parse.
		if len(t) < 10 || t[4] != '-' || t[7] != '-' {
			return time.Time{}, false
		}
		for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02"} {
			if parsed, err := time.Parse(layout, t); err == nil {
				return parsed, true
			}
		}
	}
	return time.Time{}, false
}

func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}

// BuildRecordChanges walks two plain-object snapshots and returns a map from
// dot-delimited field path to the before/after pair for every leaf that
// differs under DeepEqual. Nested plain objects recurse; when a nested diff
// is non-empty only the leaf entries are reported, never the parent key
// itself. Skip-listed fields are excluded at every depth.
func BuildRecordChanges(before, after map[string]any) map[string]Change {
	changes := make(map[string]Change)
	buildChanges(before, after, "", changes)
	return changes
}

func buildChanges(before, after map[string]any, prefix string, out map[string]Change) {
	for _, key := range unionKeys(before, after) {
		if _, skip := skipFields[key]; skip {
			continue
		}

		path := key
		if prefix != "" {
			path = prefix + "." + key
		}

		bv := before[key]
		av := after[key]

		if _, ok := customContainers[key]; ok {
			// Presence of the container key alone triggers custom-field-aware
			// diffing, even when one side is absent or empty.
			buildCustomChanges(asObject(bv), asObject(av), path, out)
			continue
		}

		bm, bIsObj := bv.(map[string]any)
		am, aIsObj := av.(map[string]any)
		if bIsObj && aIsObj {
			buildChanges(bm, am, path, out)
			continue
		}

		if !DeepEqual(bv, av) {
			out[path] = Change{From: bv, To: av}
		}
	}
}

// buildCustomChanges diffs a custom-field container as a flat key space with
// normalized (lower-cased) keys.
func buildCustomChanges(before, after map[string]any, prefix string, out map[string]Change) {
	b := normalizeKeys(before)
	a := normalizeKeys(after)

	for _, key := range unionKeys(b, a) {
		bv := b[key]
		av := a[key]
		if !DeepEqual(bv, av) {
			out[prefix+"."+key] = Change{From: bv, To: av}
		}
	}
}

// DeriveChangesFromSnapshots is the bus entrypoint for handlers that did not
// supply explicit changes. It returns nil when either snapshot is not a
// plain object or when the computed change map is empty.
func DeriveChangesFromSnapshots(before, after any) map[string]Change {
	bm, bok := before.(map[string]any)
	am, aok := after.(map[string]any)
	if !bok || !aok {
		return nil
	}

	changes := BuildRecordChanges(bm, am)
	if len(changes) == 0 {
		return nil
	}
	return changes
}

func asObject(v any) map[string]any {
	if m, ok := v.(map[string]any); ok {
		return m
	}
	return nil
}

func normalizeKeys(m map[string]any) map[string]any {
	if len(m) == 0 {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[strings.ToLower(k)] = v
	}
	return out
}

func unionKeys(a, b map[string]any) []string {
	keys := make([]string, 0, len(a)+len(b))
	for k := range a {
		keys = append(keys, k)
	}
	for k := range b {
		if _, ok := a[k]; !ok {
			keys = append(keys, k)
		}
	}
	return keys
}
