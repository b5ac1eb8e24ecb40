package models

import (
	"regexp"
	"strconv"
	"time"
)

// LegacyPetData is the flat per-record shape used before records were kept
// in a single document. Nil fields were not provided by the caller.
type LegacyPetData struct {
	Name           *string            `json:"name,omitempty"`
	OriginalImage  *string            `json:"originalImage,omitempty"`
	ProcessedImage *string            `json:"processedImage,omitempty"`
	GcsURL         *string            `json:"gcsUrl,omitempty"`
	SelectedEffect *string            `json:"selectedEffect,omitempty"`
	Font           *string            `json:"font,omitempty"`
	Effects        map[string]*string `json:"effects,omitempty"`
	ArtistNote     *string            `json:"artistNote,omitempty"`
	Timestamp      int64              `json:"timestamp,omitempty"`
	ProcessedAt    int64              `json:"processedAt,omitempty"`
	SessionKey     string             `json:"sessionKey,omitempty"`
}

// ToPatch maps the provided legacy fields onto the nested record layout.
func (l *LegacyPetData) ToPatch() Patch {
	p := Patch{}
	if l.Name != nil {
		p["name"] = *l.Name
	}

	image := map[string]any{}
	if l.OriginalImage != nil {
		image["original"] = *l.OriginalImage
	}
	if l.ProcessedImage != nil {
		image["processed"] = *l.ProcessedImage
	}
	if l.GcsURL != nil {
		image["canonicalUrl"] = *l.GcsURL
	}
	if len(image) > 0 {
		p["image"] = image
	}

	if l.SelectedEffect != nil {
		p["style"] = *l.SelectedEffect
	}
	if l.Font != nil {
		p["font"] = *l.Font
	}
	if len(l.Effects) > 0 {
		previews := map[string]any{}
		for style, v := range l.Effects {
			if v == nil {
				previews[style] = nil
				continue
			}
			previews[style] = *v
		}
		p["previews"] = previews
	}
	if l.ArtistNote != nil {
		p["artistNote"] = *l.ArtistNote
	}

	meta := map[string]any{}
	if l.Timestamp > 0 {
		meta["uploadedAt"] = time.UnixMilli(l.Timestamp).UTC()
	}
	if l.ProcessedAt > 0 {
		meta["processedAt"] = time.UnixMilli(l.ProcessedAt).UTC()
	}
	if l.SessionKey != "" {
		meta["sessionKey"] = l.SessionKey
	}
	if len(meta) > 0 {
		p["metadata"] = meta
	}
	return p
}

// LegacyFromRecord flattens r back into the legacy shape.
func LegacyFromRecord(r *PetRecord) *LegacyPetData {
	l := &LegacyPetData{
		Name:           String(r.Name),
		OriginalImage:  cloneString(r.Image.Original),
		ProcessedImage: cloneString(r.Image.Processed),
		GcsURL:         cloneString(r.Image.CanonicalURL),
		SelectedEffect: cloneString(r.Style),
		Font:           cloneString(r.Font),
		ArtistNote:     String(r.ArtistNote),
		SessionKey:     r.Metadata.SessionKey,
	}
	for style, v := range r.Previews {
		if v == nil {
			continue
		}
		if l.Effects == nil {
			l.Effects = make(map[string]*string)
		}
		l.Effects[style] = cloneString(v)
	}
	if r.Metadata.UploadedAt != nil {
		l.Timestamp = r.Metadata.UploadedAt.UnixMilli()
	}
	if r.Metadata.ProcessedAt != nil {
		l.ProcessedAt = r.Metadata.ProcessedAt.UnixMilli()
	}
	return l
}

var leadingDigits = regexp.MustCompile(`^\s*(\d+)`)

// SlotFromSessionKey extracts the leading integer of an opaque session key
// such as "2_1699999999_ab12" or "2abc". ok is false when the key does not
// start with a positive integer.
func SlotFromSessionKey(key string) (slot int, ok bool) {
	m := leadingDigits.FindStringSubmatch(key)
	if m == nil {
		return 0, false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil || n < 1 {
		return 0, false
	}
	return n, true
}
