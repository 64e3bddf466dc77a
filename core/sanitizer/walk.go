package sanitizer

import (
	"maps"
	"reflect"
	"slices"
	"strconv"
)

// walker rebuilds a decoded JSON-like value, applying str to every string leaf
// and dropping map keys for which keep returns false. Input values are never
// mutated. Maps and slices currently on the descent path are tracked so that
// self-referencing structures fail instead of recursing forever.
type walker struct {
	stage    string
	maxDepth int
	str      func(string) string
	keep     func(path, key string) bool
	active   map[ref]struct{}
}

type ref struct {
	ptr uintptr
	len int
}

func newWalker(stage string, maxDepth int) *walker {
	return &walker{
		stage:    stage,
		maxDepth: maxDepth,
		active:   make(map[ref]struct{}),
	}
}

func (w *walker) fail(path string, err error) error {
	return &Error{Stage: w.stage, Path: path, Err: err}
}

func (w *walker) enter(v any, n int, path string, depth int) (ref, error) {
	if depth > w.maxDepth {
		return ref{}, w.fail(path, ErrTooDeep)
	}
	r := ref{ptr: reflect.ValueOf(v).Pointer(), len: n}
	if r.ptr == 0 {
		return r, nil
	}
	if _, ok := w.active[r]; ok {
		return r, w.fail(path, ErrCircularReference)
	}
	w.active[r] = struct{}{}
	return r, nil
}

func (w *walker) leave(r ref) {
	delete(w.active, r)
}

func (w *walker) walk(v any, path string, depth int) (any, error) {
	switch val := v.(type) {
	case string:
		if w.str != nil {
			return w.str(val), nil
		}
		return val, nil

	case map[string]any:
		r, err := w.enter(val, -1, path, depth)
		if err != nil {
			return nil, err
		}
		defer w.leave(r)

		out := make(map[string]any, len(val))
		// Sorted so that observability events are emitted in a stable order.
		for _, k := range slices.Sorted(maps.Keys(val)) {
			if w.keep != nil && !w.keep(path, k) {
				continue
			}
			nv, err := w.walk(val[k], join(path, k), depth+1)
			if err != nil {
				return nil, err
			}
			out[k] = nv
		}
		return out, nil

	case []any:
		if len(val) == 0 {
			return val, nil
		}
		r, err := w.enter(val, len(val), path, depth)
		if err != nil {
			return nil, err
		}
		defer w.leave(r)

		out := make([]any, len(val))
		for i, item := range val {
			nv, err := w.walk(item, path+"["+strconv.Itoa(i)+"]", depth+1)
			if err != nil {
				return nil, err
			}
			out[i] = nv
		}
		return out, nil

	case []string:
		out := make([]string, len(val))
		for i, s := range val {
			if w.str != nil {
				s = w.str(s)
			}
			out[i] = s
		}
		return out, nil

	case map[string]string:
		out := make(map[string]string, len(val))
		for _, k := range slices.Sorted(maps.Keys(val)) {
			if w.keep != nil && !w.keep(path, k) {
				continue
			}
			s := val[k]
			if w.str != nil {
				s = w.str(s)
			}
			out[k] = s
		}
		return out, nil

	default:
		// numbers, booleans, nil and unknown types are left as is
		return v, nil
	}
}

func join(path, key string) string {
	if path == "" {
		return key
	}
	return path + "." + key
}
