// Package catalog holds the fixed set of narrator voices offered to users.
package catalog

// Voice is a single narrator voice offered by the conversion service
type Voice struct {
	ID          string `json:"id"`
	DisplayName string `json:"displayName"`
}

// voices is the fixed, ordered narrator catalog. The order is what the
// rendering layer shows; do not sort.
var voices = []Voice{
	{ID: "EXAVITQu4vr4xnSDxMaL", DisplayName: "Sarah"},
	{ID: "JBFqnCBsd6RMkjVDRZzb", DisplayName: "George"},
	{ID: "9BWtsMINqrJLrRacOk9x", DisplayName: "Aria"},
	{ID: "pFZP5JQG7iQjIQuC4Bku", DisplayName: "Lily"},
	{ID: "onwK4e9ZLuTAKqWW03F9", DisplayName: "Daniel"},
}

// List returns the catalog in display order. The returned slice is a copy;
// callers cannot mutate the catalog.
func List() []Voice {
	out := make([]Voice, len(voices))
	copy(out, voices)
	return out
}

// ByID looks up a voice for display purposes. The workflow itself accepts
// any non-empty id string; this is not a validation gate.
func ByID(id string) (Voice, bool) {
	for _, v := range voices {
		if v.ID == id {
			return v, true
		}
	}
	return Voice{}, false
}
