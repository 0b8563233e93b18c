package rwapi

import "encoding/json"

// Form returns the widget attributes keyed by their API names, ready to seed
// an editing session.
func (w Widget) Form() map[string]any { return toForm(w) }

// Form returns the layer attributes keyed by their API names.
func (l Layer) Form() map[string]any { return toForm(l) }

// Form returns the dataset attributes keyed by their API names. The
// application list is collapsed to its first entry, which is what the
// dataset form edits.
func (d Dataset) Form() map[string]any {
	out := toForm(d)
	if len(d.Application) > 0 {
		out["application"] = d.Application[0]
	}
	return out
}

func toForm(v any) map[string]any {
	out := map[string]any{}
	raw, err := json.Marshal(v)
	if err != nil {
		return out
	}
	_ = json.Unmarshal(raw, &out)
	return out
}
