package constants

// Kind of a point category, used by clients to pick a pin glyph.
const (
	KindTree     = "tree"
	KindMushroom = "mushroom"
)

// Catalog lists the categories offered in the add form. Names outside the
// catalog are still accepted.
var Catalog = []string{
	"Pomme", "Poire", "Figue", "Grenade", "Kiwi", "Nèfle", "Kaki",
	"Noix", "Sureau", "Noisette",
	"Bolets", "Chanterelles", "Morilles",
}

var mushroomSet = map[string]struct{}{
	"Bolets":       {},
	"Chanterelles": {},
	"Morilles":     {},
}

// Seasons are the harvest seasons offered by the filters.
var Seasons = []string{"printemps", "été", "automne", "hiver"}

// KindOf classifies a category name. Unknown names are trees.
func KindOf(name string) string {
	if _, ok := mushroomSet[name]; ok {
		return KindMushroom
	}
	return KindTree
}
