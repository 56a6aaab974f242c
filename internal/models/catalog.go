package models

// CatalogKind distinguishes newspapers from booklets.
type CatalogKind string

const (
	KindNewspaper CatalogKind = "newspaper"
	KindBooklet   CatalogKind = "booklet"
)

// ParseCatalogKind accepts the singular or plural form ("newspapers").
func ParseCatalogKind(s string) (CatalogKind, bool) {
	switch s {
	case "newspaper", "newspapers":
		return KindNewspaper, true
	case "booklet", "booklets":
		return KindBooklet, true
	}
	return "", false
}

// Collection returns the Mongo collection holding items of this kind.
func (k CatalogKind) Collection() string {
	return string(k) + "s"
}

// CatalogItem is a newspaper or booklet. The catalog is global and admin-owned.
type CatalogItem struct {
	Base        `bson:",inline"`
	Kind        CatalogKind `bson:"kind" json:"kind"`
	Name        string      `bson:"name" json:"name"`
	Language    string      `bson:"language,omitempty" json:"language,omitempty"`
	Publisher   string      `bson:"publisher,omitempty" json:"publisher,omitempty"`
	Price       float64     `bson:"price" json:"price"`
	Description string      `bson:"description,omitempty" json:"description,omitempty"`
	ImageKey    string      `bson:"imageKey,omitempty" json:"imageKey,omitempty"`
	Active      bool        `bson:"active" json:"active"`
}
