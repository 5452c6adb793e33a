package models

// Core battle report models.
//
// Field names and JSON tags mirror the schema the vision prompt asks the
// inference service to emit, so a successful parse binds directly.

// AnalysisResult is the structured interpretation of one battle. When the
// reply could not be parsed, ParseError is set and RawResponse carries the
// full original text; the structured fields are then left empty.
type AnalysisResult struct {
	BattleType          string          `json:"battleType,omitempty"`
	Outcome             string          `json:"outcome,omitempty"`
	Player              *Combatant      `json:"player,omitempty"`
	Opponent            *Combatant      `json:"opponent,omitempty"`
	Troops              *TroopReport    `json:"troops,omitempty"`
	Damage              *DamageReport   `json:"damage,omitempty"`
	Casualties          *CasualtyReport `json:"casualties,omitempty"`
	Heroes              []Hero          `json:"heroes,omitempty"`
	Resources           *ResourceReport `json:"resources,omitempty"`
	ScreenshotsAnalyzed int             `json:"screenshotsAnalyzed,omitempty"`
	Notes               string          `json:"notes,omitempty"`

	RawResponse string `json:"rawResponse,omitempty"`
	ParseError  bool   `json:"parseError,omitempty"`

	Usage *UsageInfo `json:"_usage,omitempty"`
}

// Combatant describes one side of a battle. Power is numeric-or-string in
// model output, so it gets the tolerant decoder.
type Combatant struct {
	Name     string     `json:"name,omitempty"`
	Power    FlexNumber `json:"power,omitempty"`
	Alliance string     `json:"alliance,omitempty"`
}

// TroopReport holds per-side troop composition.
type TroopReport struct {
	Player   *SideTroops `json:"player,omitempty"`
	Opponent *SideTroops `json:"opponent,omitempty"`
}

// SideTroops breaks one side down by unit type.
type SideTroops struct {
	Infantry *UnitGroup `json:"infantry,omitempty"`
	Vehicles *UnitGroup `json:"vehicles,omitempty"`
	Aircraft *UnitGroup `json:"aircraft,omitempty"`
	Total    int64      `json:"total,omitempty"`
}

// UnitGroup is a unit-type count plus its tier (T1-T10).
type UnitGroup struct {
	Count int64  `json:"count,omitempty"`
	Tier  string `json:"tier,omitempty"`
}

// DamageReport holds damage dealt and received breakdowns.
type DamageReport struct {
	Dealt    *DamageBreakdown `json:"dealt,omitempty"`
	Received *DamageBreakdown `json:"received,omitempty"`
}

// DamageBreakdown splits damage by unit type.
type DamageBreakdown struct {
	Total    float64 `json:"total,omitempty"`
	Infantry float64 `json:"infantry,omitempty"`
	Vehicles float64 `json:"vehicles,omitempty"`
	Aircraft float64 `json:"aircraft,omitempty"`
}

// CasualtyReport holds per-side losses.
type CasualtyReport struct {
	Player   *SideCasualties `json:"player,omitempty"`
	Opponent *SideCasualties `json:"opponent,omitempty"`
}

// SideCasualties counts killed and wounded troops for one side.
type SideCasualties struct {
	Killed  int64 `json:"killed,omitempty"`
	Wounded int64 `json:"wounded,omitempty"`
}

// Hero describes one commander visible in the screenshots.
type Hero struct {
	Name   string   `json:"name,omitempty"`
	Level  int      `json:"level,omitempty"`
	Stars  int      `json:"stars,omitempty"`
	Skills []string `json:"skills,omitempty"`
	Side   string   `json:"side,omitempty"`
}

// ResourceReport holds resources gained and lost in the battle.
type ResourceReport struct {
	Gained map[string]FlexNumber `json:"gained,omitempty"`
	Lost   map[string]FlexNumber `json:"lost,omitempty"`
}

// UsageInfo is the quota snapshot stamped on successful proxy calls.
type UsageInfo struct {
	RequestsToday int `json:"requests_today"`
	DailyLimit    int `json:"daily_limit"`
	Remaining     int `json:"remaining"`
}
