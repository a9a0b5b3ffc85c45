package catalog

// Stage represents a product's position in the enrichment pipeline. Stages
// are strictly ordered and only advance; the pipeline never moves a product
// backwards on its own.
type Stage int

const (
	StageRaw Stage = iota
	StageEnriched
	StagePriced
	StageCollected
	StageActive
)

var stageNames = map[Stage]string{
	StageRaw:       "raw",
	StageEnriched:  "enriched",
	StagePriced:    "priced",
	StageCollected: "collected",
	StageActive:    "active",
}

var stagesByStatus = map[string]Stage{
	"enriched":  StageEnriched,
	"priced":    StagePriced,
	"collected": StageCollected,
	"active":    StageActive,
}

// String returns the stage name.
func (s Stage) String() string {
	if name, ok := stageNames[s]; ok {
		return name
	}
	return "unknown"
}

// StatusValue returns the value carried by the status tag for this stage.
// Raw products carry no status tag, so StageRaw maps to the empty string.
func (s Stage) StatusValue() string {
	if s == StageRaw {
		return ""
	}
	return s.String()
}

// Next returns the stage that follows s. StageActive is terminal.
func (s Stage) Next() Stage {
	if s >= StageActive {
		return StageActive
	}
	return s + 1
}

// StageFromTags derives a product's stage from its decoded tags. A missing
// or unrecognized status value means the product has not been touched yet.
func StageFromTags(p ParsedTags) Stage {
	if stage, ok := stagesByStatus[p.Status]; ok {
		return stage
	}
	return StageRaw
}

// Action is the single transformation due for a product at its current stage.
type Action int

const (
	ActionNone Action = iota
	ActionEnrich
	ActionPrice
	ActionAssignCollections
	ActionActivate
)

var actionNames = map[Action]string{
	ActionNone:              "none",
	ActionEnrich:            "enrich",
	ActionPrice:             "price",
	ActionAssignCollections: "assign_collections",
	ActionActivate:          "activate",
}

// String returns the action name.
func (a Action) String() string {
	if name, ok := actionNames[a]; ok {
		return name
	}
	return "unknown"
}

// NextAction returns the transformation due at the given stage. It advances
// exactly one step per call, so a re-run over an untouched product converges
// to StageActive in four passes and is a no-op from then on.
func NextAction(s Stage) Action {
	switch s {
	case StageRaw:
		return ActionEnrich
	case StageEnriched:
		return ActionPrice
	case StagePriced:
		return ActionAssignCollections
	case StageCollected:
		return ActionActivate
	default:
		return ActionNone
	}
}
