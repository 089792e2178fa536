package funnel

import json "github.com/goccy/go-json"

// Selection is the ordered, duplicate-free set of product ids chosen across every plan
// and table. Its methods never modify the receiver.
type Selection struct {
	ids []string
}

func NewSelection(ids ...string) Selection {
	return Selection{}.Add(ids...)
}

func (s Selection) Contains(id string) bool {
	for _, v := range s.ids {
		if v == id {
			return true
		}
	}
	return false
}

// Add returns the union of the selection and ids.
func (s Selection) Add(ids ...string) Selection {
	next := make([]string, len(s.ids), len(s.ids)+len(ids))
	copy(next, s.ids)
	out := Selection{ids: next}
	for _, id := range ids {
		if id == "" || out.Contains(id) {
			continue
		}
		out.ids = append(out.ids, id)
	}
	return out
}

func (s Selection) Remove(id string) Selection {
	next := make([]string, 0, len(s.ids))
	for _, v := range s.ids {
		if v != id {
			next = append(next, v)
		}
	}
	return Selection{ids: next}
}

func (s Selection) IDs() []string {
	return append([]string{}, s.ids...)
}

func (s Selection) Len() int { return len(s.ids) }

func (s Selection) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.IDs())
}
