package greenspace

// Green tag values per OSM key. A feature qualifies as green space when any
// of its tags matches one of these sets.
var (
	greenLeisure = map[string]bool{
		"park":              true,
		"garden":            true,
		"nature_reserve":    true,
		"recreation_ground": true,
	}
	greenLanduse = map[string]bool{
		"forest":            true,
		"meadow":            true,
		"grass":             true,
		"recreation_ground": true,
		"orchard":           true,
	}
	greenNatural = map[string]bool{
		"wood":      true,
		"grassland": true,
		"heath":     true,
	}
)

// typeMapping maps OSM tag values to space types. Values not listed here
// (grass, orchard, heath) classify as TypeOther.
var typeMapping = map[string]SpaceType{
	"park":              TypePark,
	"forest":            TypeForest,
	"garden":            TypeGarden,
	"nature_reserve":    TypeNatureReserve,
	"meadow":            TypeMeadow,
	"grassland":         TypeGrassland,
	"wood":              TypeWood,
	"recreation_ground": TypeRecreationGround,
}

// IsGreenSpace reports whether a tag set marks a feature as green space.
func IsGreenSpace(tags map[string]string) bool {
	if greenLeisure[tags["leisure"]] {
		return true
	}
	if greenLanduse[tags["landuse"]] {
		return true
	}
	return greenNatural[tags["natural"]]
}

// ClassifyTags determines the space type from OSM tags. Keys are checked in
// priority order: leisure, then landuse, then natural.
func ClassifyTags(tags map[string]string) SpaceType {
	for _, key := range []string{"leisure", "landuse", "natural"} {
		if t, ok := typeMapping[tags[key]]; ok {
			return t
		}
	}
	return TypeOther
}
