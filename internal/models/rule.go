package models

// RuleField names the transaction text field a rule inspects.
type RuleField string

const (
	RuleFieldDescription RuleField = "concepto"
	RuleFieldNotes       RuleField = "notas"
)

// MatchKind is how a rule pattern is compared against the field.
type MatchKind string

const (
	MatchContains MatchKind = "contains"
)

// Rule assigns CategoryID to transactions whose Field matches Pattern.
type Rule struct {
	Base
	Pattern    string    `gorm:"column:pattern;not null" json:"pattern"`
	Field      RuleField `gorm:"column:campo_objetivo;not null;default:concepto" json:"campo_objetivo"`
	Match      MatchKind `gorm:"column:tipo_match;not null;default:contains" json:"tipo_match"`
	CategoryID uint      `gorm:"column:categoria_id;not null;index" json:"categoria_id"`
}

// TableName overrides the default table name.
func (Rule) TableName() string { return "reglas_auto_categoria" }
