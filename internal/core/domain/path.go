// Package domain defines the core domain models for TableSync.
package domain

import (
	"fmt"
	"strconv"
	"strings"
)

// Path constants for the two top-level state trees addressed by Change paths.
const (
	PathSessionState      = "sessionState"
	PathParticipantStates = "participantStates"
)

// SplitPath splits a dotted change path into its segments.
// Empty segments are invalid; participant IDs and field names must therefore
// not contain dots.
func SplitPath(path string) ([]string, error) {
	if path == "" {
		return nil, ErrInvalidArgument.WithDetails("empty path")
	}
	segments := strings.Split(path, ".")
	for _, s := range segments {
		if s == "" {
			return nil, ErrInvalidArgument.WithDetails(fmt.Sprintf("path %q has an empty segment", path))
		}
	}
	return segments, nil
}

// JoinPath joins path segments into a dotted change path.
func JoinPath(segments ...string) string {
	return strings.Join(segments, ".")
}

// At resolves a path below this value. Array segments are decimal indexes.
func (v *Value) At(segments []string) (*Value, bool) {
	cur := v
	for _, seg := range segments {
		if cur == nil {
			return nil, false
		}
		switch cur.kind {
		case KindObject:
			next, ok := cur.fields[seg]
			if !ok {
				return nil, false
			}
			cur = next
		case KindArray:
			idx, err := strconv.Atoi(seg)
			if err != nil || idx < 0 || idx >= len(cur.elems) {
				return nil, false
			}
			cur = cur.elems[idx]
		default:
			return nil, false
		}
	}
	return cur, true
}

// SetAt returns a new tree with the value at the given path replaced.
// Untouched subtrees are shared with the input; the input is never mutated.
//
// Setting the absent-sentinel deletes an object field or splices out an array
// element. Missing intermediate object fields are created; an array index may
// address an existing element or append at exactly the current length.
//
// @design DS-0203
func SetAt(root *Value, segments []string, nv *Value) (*Value, error) {
	if nv == nil {
		return nil, ErrMalformedDelta.WithDetails("nil value in change")
	}
	if len(segments) == 0 {
		if nv.IsAbsent() {
			return nil, ErrMalformedDelta.WithDetails("cannot delete the tree root")
		}
		return nv, nil
	}
	if root == nil {
		root = Object(nil)
	}

	seg := segments[0]
	switch root.kind {
	case KindObject:
		child := root.fields[seg]
		if len(segments) == 1 && nv.IsAbsent() {
			out := &Value{kind: KindObject, fields: make(map[string]*Value, len(root.fields))}
			for k, e := range root.fields {
				if k != seg {
					out.fields[k] = e
				}
			}
			return out, nil
		}
		var newChild *Value
		if len(segments) == 1 {
			newChild = nv
		} else {
			if child == nil {
				child = Object(nil)
			}
			c, err := SetAt(child, segments[1:], nv)
			if err != nil {
				return nil, err
			}
			newChild = c
		}
		out := &Value{kind: KindObject, fields: make(map[string]*Value, len(root.fields)+1)}
		for k, e := range root.fields {
			out.fields[k] = e
		}
		out.fields[seg] = newChild
		return out, nil

	case KindArray:
		idx, err := strconv.Atoi(seg)
		if err != nil || idx < 0 || idx > len(root.elems) {
			return nil, ErrMalformedDelta.WithDetails(fmt.Sprintf("invalid array index %q", seg))
		}
		if len(segments) == 1 && nv.IsAbsent() {
			if idx == len(root.elems) {
				return nil, ErrMalformedDelta.WithDetails(fmt.Sprintf("array index %d out of range", idx))
			}
			out := &Value{kind: KindArray, elems: make([]*Value, 0, len(root.elems)-1)}
			out.elems = append(out.elems, root.elems[:idx]...)
			out.elems = append(out.elems, root.elems[idx+1:]...)
			return out, nil
		}
		if idx == len(root.elems) {
			if len(segments) > 1 {
				return nil, ErrMalformedDelta.WithDetails(fmt.Sprintf("array index %d out of range", idx))
			}
			out := &Value{kind: KindArray, elems: make([]*Value, 0, len(root.elems)+1)}
			out.elems = append(out.elems, root.elems...)
			out.elems = append(out.elems, nv)
			return out, nil
		}
		var newChild *Value
		if len(segments) == 1 {
			newChild = nv
		} else {
			c, err := SetAt(root.elems[idx], segments[1:], nv)
			if err != nil {
				return nil, err
			}
			newChild = c
		}
		out := &Value{kind: KindArray, elems: make([]*Value, len(root.elems))}
		copy(out.elems, root.elems)
		out.elems[idx] = newChild
		return out, nil

	default:
		return nil, ErrMalformedDelta.WithDetails(
			fmt.Sprintf("cannot descend into %s at %q", root.kind, seg))
	}
}
