package models

import (
	"strings"
	"testing"

	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPetRecord_AllPreviewsNull(t *testing.T) {
	rec := NewPetRecord()

	assert.Len(t, rec.Previews, len(PreviewStyles))
	for _, style := range PreviewStyles {
		v, ok := rec.Previews[style]
		assert.True(t, ok, style)
		assert.Nil(t, v, style)
	}
	assert.Nil(t, rec.Style)
	assert.Nil(t, rec.Image.Original)
}

func TestPetRecord_JSONDefaultsAreNull(t *testing.T) {
	raw, err := json.Marshal(NewPetRecord())
	require.NoError(t, err)

	var obj map[string]any
	require.NoError(t, json.Unmarshal(raw, &obj))
	assert.Nil(t, obj["style"])
	assert.Nil(t, obj["font"])
	image := obj["image"].(map[string]any)
	assert.Contains(t, image, "canonicalUrl")
	assert.Nil(t, image["canonicalUrl"])
	previews := obj["previews"].(map[string]any)
	assert.Len(t, previews, 5)
}

func TestNormalize_DropsUnknownStyles(t *testing.T) {
	rec := &PetRecord{Previews: map[string]*string{
		"popart":  String("data:image/png;base64,AAA"),
		"vintage": String("data:image/png;base64,BBB"),
	}}
	rec.Normalize()

	assert.Len(t, rec.Previews, len(PreviewStyles))
	assert.NotContains(t, rec.Previews, "vintage")
	assert.Equal(t, "data:image/png;base64,AAA", *rec.Previews["popart"])
	assert.Nil(t, rec.Previews["modern"])
}

func TestNormalize_TruncatesArtistNote(t *testing.T) {
	rec := NewPetRecord()
	rec.ArtistNote = strings.Repeat("é", MaxArtistNoteRunes+20)
	rec.Normalize()

	assert.Equal(t, MaxArtistNoteRunes, len([]rune(rec.ArtistNote)))
}

func TestClone_IsDeep(t *testing.T) {
	rec := NewPetRecord()
	rec.Name = "Rex"
	rec.Image.Original = String("data:image/jpeg;base64,xyz")
	rec.Previews["classic"] = String("https://cdn.example.com/classic.png")

	c := rec.Clone()
	*c.Image.Original = "changed"
	*c.Previews["classic"] = "changed"
	c.Name = "Max"

	assert.Equal(t, "Rex", rec.Name)
	assert.Equal(t, "data:image/jpeg;base64,xyz", *rec.Image.Original)
	assert.Equal(t, "https://cdn.example.com/classic.png", *rec.Previews["classic"])
}

func TestClone_Nil(t *testing.T) {
	var rec *PetRecord
	assert.Nil(t, rec.Clone())
}

func TestIsInlineData(t *testing.T) {
	assert.True(t, IsInlineData(String("data:image/png;base64,AAA")))
	assert.False(t, IsInlineData(String("https://storage.example.com/a.png")))
	assert.False(t, IsInlineData(String("")))
	assert.False(t, IsInlineData(nil))
}

func TestIsDurableRef(t *testing.T) {
	assert.True(t, IsDurableRef(String("https://storage.example.com/a.png")))
	assert.False(t, IsDurableRef(String("data:image/png;base64,AAA")))
	assert.False(t, IsDurableRef(String("")))
	assert.False(t, IsDurableRef(nil))
}

func TestIsPreviewStyle(t *testing.T) {
	for _, s := range []string{"enhancedblackwhite", "popart", "dithering", "modern", "classic"} {
		assert.True(t, IsPreviewStyle(s), s)
	}
	assert.False(t, IsPreviewStyle("sepia"))
}

func TestDocument_NewHasSessionID(t *testing.T) {
	a := NewDocument()
	b := NewDocument()

	assert.Equal(t, CurrentSchemaVersion, a.SchemaVersion)
	assert.NotEmpty(t, a.SessionID)
	assert.NotEqual(t, a.SessionID, b.SessionID)
	assert.Empty(t, a.Records)
}

func TestDocument_CloneIsDeep(t *testing.T) {
	doc := NewDocument()
	doc.Records[1] = NewPetRecord()
	doc.Records[1].Name = "Bella"

	c := doc.Clone()
	c.Records[1].Name = "Luna"
	delete(c.Records, 1)

	require.Contains(t, doc.Records, 1)
	assert.Equal(t, "Bella", doc.Records[1].Name)
	assert.Equal(t, doc.SessionID, c.SessionID)
}

func TestDocument_JSONSlotKeys(t *testing.T) {
	doc := NewDocument()
	doc.Records[2] = NewPetRecord()

	raw, err := json.Marshal(doc)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"records":{"2":`)
}

func TestValidSlot(t *testing.T) {
	assert.False(t, ValidSlot(0, 3))
	assert.True(t, ValidSlot(1, 3))
	assert.True(t, ValidSlot(3, 3))
	assert.False(t, ValidSlot(4, 3))
	assert.False(t, ValidSlot(-1, 3))
}
