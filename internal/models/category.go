package models

// Category groups transactions. IsFixed partitions spending into fixed vs
// variable for filtering.
type Category struct {
	Base
	Name    string `gorm:"column:nombre;not null;uniqueIndex" json:"nombre"`
	IsFixed bool   `gorm:"column:es_fijo;not null;default:false" json:"es_fijo"`

	// Relationships
	Rules []Rule `gorm:"foreignKey:CategoryID;constraint:OnDelete:CASCADE" json:"-"`
}

// TableName overrides the default table name.
func (Category) TableName() string { return "categorias" }
