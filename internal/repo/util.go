package repo

import "encoding/json"

// decodeTextArrayJSON decodes a text[] column selected as to_json(...)::text.
// GORM's raw scan has no native text[] support, so listings go through JSON.
func decodeTextArrayJSON(raw []byte) []string {
	if len(raw) == 0 {
		return nil
	}
	var out []string
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil
	}
	return out
}
