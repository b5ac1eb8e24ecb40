package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeepMerge_ExampleScenario(t *testing.T) {
	rec, err := DeepMerge(NewPetRecord(), Patch{"name": "Fluffy", "style": "modern"})
	require.NoError(t, err)

	assert.Equal(t, "Fluffy", rec.Name)
	require.NotNil(t, rec.Style)
	assert.Equal(t, "modern", *rec.Style)
	assert.Equal(t, NewPetRecord().Previews, rec.Previews)
}

func TestDeepMerge_NestedObjectsMerge(t *testing.T) {
	existing := NewPetRecord()
	existing.Image.Original = String("data:image/png;base64,AAA")
	existing.Previews["popart"] = String("https://cdn.example.com/popart.png")

	rec, err := DeepMerge(existing, Patch{
		"image":    map[string]any{"canonicalUrl": "https://storage.example.com/pet.png"},
		"previews": map[string]any{"modern": "https://cdn.example.com/modern.png"},
	})
	require.NoError(t, err)

	assert.Equal(t, "data:image/png;base64,AAA", *rec.Image.Original)
	assert.Equal(t, "https://storage.example.com/pet.png", *rec.Image.CanonicalURL)
	assert.Equal(t, "https://cdn.example.com/popart.png", *rec.Previews["popart"])
	assert.Equal(t, "https://cdn.example.com/modern.png", *rec.Previews["modern"])
}

func TestDeepMerge_NullReplaces(t *testing.T) {
	existing := NewPetRecord()
	existing.Style = String("popart")
	existing.Image.Processed = String("https://cdn.example.com/p.png")

	rec, err := DeepMerge(existing, Patch{
		"style": nil,
		"image": map[string]any{"processed": nil},
	})
	require.NoError(t, err)

	assert.Nil(t, rec.Style)
	assert.Nil(t, rec.Image.Processed)
}

func TestDeepMerge_LeavesExistingUntouched(t *testing.T) {
	existing := NewPetRecord()
	existing.Name = "Rex"

	_, err := DeepMerge(existing, Patch{"name": "Max"})
	require.NoError(t, err)
	assert.Equal(t, "Rex", existing.Name)
}

func TestDeepMerge_NilExisting(t *testing.T) {
	rec, err := DeepMerge(nil, Patch{"artistNote": "please add a bow tie"})
	require.NoError(t, err)
	assert.Equal(t, "please add a bow tie", rec.ArtistNote)
	assert.Len(t, rec.Previews, len(PreviewStyles))
}

func TestDeepMerge_WrongTypeFails(t *testing.T) {
	_, err := DeepMerge(NewPetRecord(), Patch{"name": 42})
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "invalid patch")
}

func TestDeepMerge_UnknownPreviewDropped(t *testing.T) {
	rec, err := DeepMerge(NewPetRecord(), Patch{"previews": map[string]any{"sepia": "x"}})
	require.NoError(t, err)
	assert.NotContains(t, rec.Previews, "sepia")
}

func TestPatchFromRecord_ReplacesAllFields(t *testing.T) {
	src := NewPetRecord()
	src.Name = "Bella"
	src.Font = String("script")

	patch, err := PatchFromRecord(src)
	require.NoError(t, err)

	existing := NewPetRecord()
	existing.Name = "Old"
	existing.Style = String("classic")

	rec, err := DeepMerge(existing, patch)
	require.NoError(t, err)
	assert.Equal(t, "Bella", rec.Name)
	assert.Equal(t, "script", *rec.Font)
	assert.Nil(t, rec.Style)
}
