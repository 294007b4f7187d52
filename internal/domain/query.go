package domain

// Stage is the single-select investment stage filter.
type Stage string

const (
	StagePreSeed Stage = "PRE_SEED"
	StageSeed    Stage = "SEED"
	StageSeriesA Stage = "SERIES_A"
	StageSeriesB Stage = "SERIES_B_PLUS"
	StageGrowth  Stage = "GROWTH"
)

// Stages lists all selectable stages in display order.
func Stages() []Stage {
	return []Stage{StagePreSeed, StageSeed, StageSeriesA, StageSeriesB, StageGrowth}
}

// QueryState is a read-only snapshot of the filter and pagination state used
// to derive one directory request. Cursor is an opaque server-issued token;
// empty means first page. Any filter edit resets Cursor.
type QueryState struct {
	Search  string
	Domains []string
	Regions []string
	Stage   Stage
	Cursor  string
}

// Direction selects which pagination cursor Advance consumes.
type Direction int

const (
	Next Direction = iota
	Prev
)
