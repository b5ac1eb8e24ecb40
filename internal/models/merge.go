package models

import (
	"fmt"

	json "github.com/goccy/go-json"
)

// Patch is a partial record in its JSON object form. Nested objects merge
// key by key; scalars, arrays and nulls replace.
type Patch map[string]any

// PatchFromRecord converts a full record into a patch that replaces every
// field.
func PatchFromRecord(r *PetRecord) (Patch, error) {
	return toObject(r)
}

// DeepMerge applies patch on top of a copy of existing and returns the
// normalized result. existing is left untouched.
func DeepMerge(existing *PetRecord, patch Patch) (*PetRecord, error) {
	if existing == nil {
		existing = NewPetRecord()
	}
	base, err := toObject(existing)
	if err != nil {
		return nil, err
	}
	overlay, err := toObject(patch)
	if err != nil {
		return nil, fmt.Errorf("invalid patch: %w", err)
	}

	merged := mergeObjects(base, overlay)

	raw, err := json.Marshal(merged)
	if err != nil {
		return nil, err
	}
	out := &PetRecord{}
	if err := json.Unmarshal(raw, out); err != nil {
		return nil, fmt.Errorf("invalid patch: %w", err)
	}
	return out.Normalize(), nil
}

func mergeObjects(base, overlay map[string]any) map[string]any {
	for k, v := range overlay {
		src, srcIsObj := v.(map[string]any)
		dst, dstIsObj := base[k].(map[string]any)
		if srcIsObj && dstIsObj {
			base[k] = mergeObjects(dst, src)
			continue
		}
		base[k] = v
	}
	return base
}

// toObject round-trips v through JSON so the merge only ever sees plain
// map[string]any, []any and scalar values.
func toObject(v any) (map[string]any, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	obj := map[string]any{}
	if err := json.Unmarshal(raw, &obj); err != nil {
		return nil, err
	}
	return obj, nil
}
