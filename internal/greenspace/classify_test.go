package greenspace

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsGreenSpace(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		tags map[string]string
		want bool
	}{
		{"leisure park", map[string]string{"leisure": "park"}, true},
		{"leisure garden", map[string]string{"leisure": "garden"}, true},
		{"leisure nature reserve", map[string]string{"leisure": "nature_reserve"}, true},
		{"leisure recreation ground", map[string]string{"leisure": "recreation_ground"}, true},
		{"leisure pitch is not green", map[string]string{"leisure": "pitch"}, false},
		{"landuse forest", map[string]string{"landuse": "forest"}, true},
		{"landuse meadow", map[string]string{"landuse": "meadow"}, true},
		{"landuse grass", map[string]string{"landuse": "grass"}, true},
		{"landuse orchard", map[string]string{"landuse": "orchard"}, true},
		{"landuse residential is not green", map[string]string{"landuse": "residential"}, false},
		{"natural wood", map[string]string{"natural": "wood"}, true},
		{"natural grassland", map[string]string{"natural": "grassland"}, true},
		{"natural heath", map[string]string{"natural": "heath"}, true},
		{"natural water is not green", map[string]string{"natural": "water"}, false},
		{"no relevant tags", map[string]string{"building": "yes"}, false},
		{"empty tags", map[string]string{}, false},
		{"nil tags", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsGreenSpace(tt.tags))
		})
	}
}

func TestClassifyTags(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		tags map[string]string
		want SpaceType
	}{
		{"park", map[string]string{"leisure": "park"}, TypePark},
		{"forest", map[string]string{"landuse": "forest"}, TypeForest},
		{"wood", map[string]string{"natural": "wood"}, TypeWood},
		{"grassland", map[string]string{"natural": "grassland"}, TypeGrassland},
		{"meadow", map[string]string{"landuse": "meadow"}, TypeMeadow},
		{"grass has no dedicated type", map[string]string{"landuse": "grass"}, TypeOther},
		{"orchard has no dedicated type", map[string]string{"landuse": "orchard"}, TypeOther},
		{"heath has no dedicated type", map[string]string{"natural": "heath"}, TypeOther},
		{"untagged", map[string]string{}, TypeOther},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ClassifyTags(tt.tags))
		})
	}
}

func TestClassifyTagsPriority(t *testing.T) {
	t.Parallel()

	// leisure wins over landuse, landuse wins over natural.
	assert.Equal(t, TypePark, ClassifyTags(map[string]string{
		"leisure": "park",
		"landuse": "forest",
	}))
	assert.Equal(t, TypeForest, ClassifyTags(map[string]string{
		"landuse": "forest",
		"natural": "wood",
	}))
}
