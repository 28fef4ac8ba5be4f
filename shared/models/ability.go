package models

// AbilityTier - порядковый уровень способности.
type AbilityTier string

const (
	TierBasic    AbilityTier = "basic"
	TierMid      AbilityTier = "mid"
	TierAdvanced AbilityTier = "advanced"
)

// Ability - объявляемая способность участника с ценой по обоим пулам.
type Ability struct {
	ID        string      `json:"id"`
	Name      string      `json:"name"`
	Tier      AbilityTier `json:"tier"`
	CostPoolA int         `json:"costPoolA"`
	CostPoolB int         `json:"costPoolB"`
}
