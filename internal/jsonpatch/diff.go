package jsonpatch

import (
	"sort"
	"strconv"
	"strings"

	json "github.com/goccy/go-json"
)

// Op is a single RFC 6902 operation.
type Op struct {
	Op    string      `json:"op"`
	Path  string      `json:"path"`
	Value interface{} `json:"value"`
}

// MarshalJSON writes value on add and replace even when it is null, and never on remove.
func (o Op) MarshalJSON() ([]byte, error) {
	if o.Op == "remove" {
		return json.Marshal(struct {
			Op   string `json:"op"`
			Path string `json:"path"`
		}{o.Op, o.Path})
	}
	type op Op
	return json.Marshal(op(o))
}

// Between returns the forward patch turning before into after and the backward patch
// undoing it. Both values are compared through their JSON encoding.
func Between(before, after interface{}) (fwd, bwd []Op, err error) {
	a, err := generic(before)
	if err != nil {
		return nil, nil, err
	}
	b, err := generic(after)
	if err != nil {
		return nil, nil, err
	}
	fwd, bwd = diffBoth(a, b, "")
	return fwd, bwd, nil
}

func generic(v interface{}) (interface{}, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var out interface{}
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func diffBoth(a, b interface{}, path string) (fwd, bwd []Op) {
	if a == nil && b == nil {
		return nil, nil
	}
	if a == nil || b == nil {
		return []Op{replace(path, b)}, []Op{replace(path, a)}
	}

	aMap, aIsMap := a.(map[string]interface{})
	bMap, bIsMap := b.(map[string]interface{})
	if aIsMap && bIsMap {
		return diffObjects(aMap, bMap, path)
	}

	aArr, aIsArr := a.([]interface{})
	bArr, bIsArr := b.([]interface{})
	if aIsArr && bIsArr {
		return diffArrays(aArr, bArr, path)
	}

	if aIsMap || bIsMap || aIsArr || bIsArr || a != b {
		return []Op{replace(path, b)}, []Op{replace(path, a)}
	}
	return nil, nil
}

func diffObjects(a, b map[string]interface{}, path string) (fwd, bwd []Op) {
	for _, k := range sortedKeys(a) {
		if _, ok := b[k]; !ok {
			child := path + "/" + escapeKey(k)
			fwd = append(fwd, remove(child))
			bwd = append(bwd, add(child, a[k]))
		}
	}

	for _, k := range sortedKeys(b) {
		child := path + "/" + escapeKey(k)
		av, inA := a[k]
		if !inA {
			fwd = append(fwd, add(child, b[k]))
			bwd = append(bwd, remove(child))
			continue
		}
		subFwd, subBwd := diffBoth(av, b[k], child)
		fwd = append(fwd, subFwd...)
		bwd = append(bwd, subBwd...)
	}
	return fwd, bwd
}

func diffArrays(a, b []interface{}, path string) (fwd, bwd []Op) {
	common := len(a)
	if len(b) < common {
		common = len(b)
	}

	for i := 0; i < common; i++ {
		subFwd, subBwd := diffBoth(a[i], b[i], path+"/"+strconv.Itoa(i))
		fwd = append(fwd, subFwd...)
		bwd = append(bwd, subBwd...)
	}

	// removals run from the tail so earlier indexes stay valid
	for i := len(a) - 1; i >= common; i-- {
		fwd = append(fwd, remove(path+"/"+strconv.Itoa(i)))
	}
	for i := common; i < len(a); i++ {
		bwd = append(bwd, add(path+"/"+strconv.Itoa(i), a[i]))
	}

	for i := common; i < len(b); i++ {
		fwd = append(fwd, add(path+"/"+strconv.Itoa(i), b[i]))
	}
	for i := len(b) - 1; i >= common; i-- {
		bwd = append(bwd, remove(path+"/"+strconv.Itoa(i)))
	}
	return fwd, bwd
}

func sortedKeys(m map[string]interface{}) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func replace(path string, value interface{}) Op { return Op{Op: "replace", Path: path, Value: value} }

func add(path string, value interface{}) Op { return Op{Op: "add", Path: path, Value: value} }

func remove(path string) Op { return Op{Op: "remove", Path: path} }

// escapeKey escapes a JSON Pointer token per RFC 6901.
func escapeKey(s string) string {
	s = strings.ReplaceAll(s, "~", "~0")
	s = strings.ReplaceAll(s, "/", "~1")
	return s
}
