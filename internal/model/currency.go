package model

// Currency groups shown in the curated listing.
const (
	CategoryMajor    = "major"
	CategoryRegional = "regional"
	CategoryCrypto   = "crypto"
	CategoryMetal    = "metal"
	CategoryOther    = "other"
)

// Currency is a static directory record.
type Currency struct {
	Code     string `yaml:"code"`
	Name     string `yaml:"name"`
	NameEn   string `yaml:"name_en"`
	Category string `yaml:"category"`
	Featured bool   `yaml:"featured"`
}
