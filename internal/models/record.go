package models

import (
	"strings"
	"time"
)

// PreviewStyles is the fixed set of preview style identifiers a record can
// hold a generated image for.
var PreviewStyles = []string{"enhancedblackwhite", "popart", "dithering", "modern", "classic"}

const MaxArtistNoteRunes = 500

type ImageRefs struct {
	Original     *string `json:"original"`
	Processed    *string `json:"processed"`
	CanonicalURL *string `json:"canonicalUrl"`
}

type RecordMetadata struct {
	UploadedAt  *time.Time `json:"uploadedAt"`
	ProcessedAt *time.Time `json:"processedAt"`
	SessionKey  string     `json:"sessionKey"`
}

// PetRecord is the customization state of one slot.
type PetRecord struct {
	Name       string             `json:"name"`
	Image      ImageRefs          `json:"image"`
	Style      *string            `json:"style"`
	Font       *string            `json:"font"`
	Previews   map[string]*string `json:"previews"`
	ArtistNote string             `json:"artistNote"`
	Metadata   RecordMetadata     `json:"metadata"`
}

// NewPetRecord returns a record with every field at its default.
func NewPetRecord() *PetRecord {
	return &PetRecord{Previews: emptyPreviews()}
}

func emptyPreviews() map[string]*string {
	p := make(map[string]*string, len(PreviewStyles))
	for _, s := range PreviewStyles {
		p[s] = nil
	}
	return p
}

func IsPreviewStyle(style string) bool {
	for _, s := range PreviewStyles {
		if s == style {
			return true
		}
	}
	return false
}

// Normalize fills missing preview keys, drops unknown ones and bounds the
// artist note. It mutates and returns r.
func (r *PetRecord) Normalize() *PetRecord {
	previews := emptyPreviews()
	for k, v := range r.Previews {
		if IsPreviewStyle(k) {
			previews[k] = v
		}
	}
	r.Previews = previews

	if note := []rune(r.ArtistNote); len(note) > MaxArtistNoteRunes {
		r.ArtistNote = string(note[:MaxArtistNoteRunes])
	}
	return r
}

func (r *PetRecord) Clone() *PetRecord {
	if r == nil {
		return nil
	}
	c := &PetRecord{
		Name: r.Name,
		Image: ImageRefs{
			Original:     cloneString(r.Image.Original),
			Processed:    cloneString(r.Image.Processed),
			CanonicalURL: cloneString(r.Image.CanonicalURL),
		},
		Style:      cloneString(r.Style),
		Font:       cloneString(r.Font),
		ArtistNote: r.ArtistNote,
		Metadata: RecordMetadata{
			UploadedAt:  cloneTime(r.Metadata.UploadedAt),
			ProcessedAt: cloneTime(r.Metadata.ProcessedAt),
			SessionKey:  r.Metadata.SessionKey,
		},
	}
	if r.Previews != nil {
		c.Previews = make(map[string]*string, len(r.Previews))
		for k, v := range r.Previews {
			c.Previews[k] = cloneString(v)
		}
	}
	return c
}

// IsInlineData reports whether v holds inline-encoded image data rather than
// a durable reference.
func IsInlineData(v *string) bool {
	return v != nil && strings.HasPrefix(*v, "data:")
}

// IsDurableRef reports whether v is a non-empty reference that is not inline
// data.
func IsDurableRef(v *string) bool {
	return v != nil && *v != "" && !IsInlineData(v)
}

// String returns a pointer to s.
func String(s string) *string {
	return &s
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}
