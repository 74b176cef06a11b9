// Package state defines the world state tree for a single game instance and
// the modifier kernel that mediates every numeric mutation of it.
package state

import "sort"

// Phase is the lifecycle stage of the current tick.
type Phase string

const (
	PhaseAcceptingActions Phase = "accepting_actions"
	PhaseProcessing       Phase = "processing"
	PhaseAIEvaluation     Phase = "ai_evaluation"
	PhaseResolved         Phase = "resolved"
)

// Role is a player's role, fixed at join.
type Role string

const (
	RoleCitizen       Role = "citizen"
	RoleBusinessOwner Role = "business_owner"
	RolePolitician    Role = "politician"
)

// ValidRole reports whether r is one of the three playable roles.
func ValidRole(r Role) bool {
	return r == RoleCitizen || r == RoleBusinessOwner || r == RolePolitician
}

// Meta carries tick bookkeeping for the instance.
type Meta struct {
	ServerID          string `json:"server_id"`
	Tick              int64  `json:"tick"`
	TickIntervalHours int    `json:"tick_interval_hours"`
	TickDeadline      int64  `json:"tick_deadline"` // unix seconds; excluded from the content hash
	Phase             Phase  `json:"phase"`
	Seed              int32  `json:"seed"`
}

// Budget is the government's fiscal position.
type Budget struct {
	Revenue  float64 `json:"revenue"`
	Spending float64 `json:"spending"`
	Reserves float64 `json:"reserves"`
	Deficit  float64 `json:"deficit"`
}

// Market holds aggregate supply and demand.
type Market struct {
	Supply     float64 `json:"supply"`
	Demand     float64 `json:"demand"`
	PriceIndex float64 `json:"price_index"`
	Shortage   bool    `json:"shortage"`
}

// Economy is the macroeconomic block.
type Economy struct {
	GDP           float64 `json:"gdp"`
	GDPDelta      float64 `json:"gdp_delta"`
	Inflation     float64 `json:"inflation"`
	Unemployment  float64 `json:"unemployment"`
	TaxRate       float64 `json:"tax_rate"`
	TaxCompliance float64 `json:"tax_compliance"`
	WageIndex     float64 `json:"wage_index"`
	Budget        Budget  `json:"budget"`
	Market        Market  `json:"market"`
}

// MovementType classifies a political movement.
type MovementType string

const (
	MovementReform     MovementType = "reform"
	MovementPopulist   MovementType = "populist"
	MovementRadical    MovementType = "radical"
	MovementSeparatist MovementType = "separatist"
	MovementLabor      MovementType = "labor"
	MovementBusiness   MovementType = "business"
)

// ValidMovementType reports whether t is a recognized movement type.
func ValidMovementType(t MovementType) bool {
	switch t {
	case MovementReform, MovementPopulist, MovementRadical,
		MovementSeparatist, MovementLabor, MovementBusiness:
		return true
	}
	return false
}

// Movement is an organized political movement players can join.
type Movement struct {
	ID              string       `json:"id"`
	Name            string       `json:"name"`
	Type            MovementType `json:"type"`
	Strength        float64      `json:"strength"` // [0,1]
	Demands         []string     `json:"demands"`
	MemberPlayerIDs []string     `json:"member_player_ids"`
	CreatedTick     int64        `json:"created_tick"`
}

// Society is the social block.
type Society struct {
	Stability       float64    `json:"stability"`
	PublicTrust     float64    `json:"public_trust"`
	Satisfaction    float64    `json:"satisfaction"`
	Radicalization  float64    `json:"radicalization"`
	ProtestPressure float64    `json:"protest_pressure"`
	Movements       []Movement `json:"movements"`
}

// Approval holds the four government approval sub-scores.
type Approval struct {
	Overall  float64 `json:"overall"`
	Economic float64 `json:"economic"`
	Social   float64 `json:"social"`
	Foreign  float64 `json:"foreign"`
}

// BudgetCategories are the five spending allocation keys.
var BudgetCategories = []string{"welfare", "infrastructure", "enforcement", "education", "discretionary"}

// Government is the political block.
type Government struct {
	Approval         Approval           `json:"approval"`
	BudgetAllocation map[string]float64 `json:"budget_allocation"` // fractions summing to 1 ± 0.01
	ActiveLawCount   int                `json:"active_law_count"`
	ElectionTick     *int64             `json:"election_tick,omitempty"`
}

// HiddenStats are per-player quantities never exposed through the view.
type HiddenStats struct {
	Influence        float64 `json:"influence"`
	Reputation       float64 `json:"reputation"`
	Fear             float64 `json:"fear"`
	Corruption       float64 `json:"corruption"`
	HistoricalLegacy float64 `json:"historical_legacy"`
}

// VisibleStats are the player quantities shown verbatim in the view.
type VisibleStats struct {
	Wealth     float64 `json:"wealth"`
	MovementID string  `json:"movement_id,omitempty"`
}

// CitizenData is the citizen role sub-record.
type CitizenData struct {
	Employed         bool    `json:"employed"`
	EmployerID       string  `json:"employer_id,omitempty"`
	Satisfaction     float64 `json:"satisfaction"`      // [0,100]
	EconomicPressure float64 `json:"economic_pressure"` // [0,100]
	Radicalization   float64 `json:"radicalization"`    // [0,100]
	VotedThisTick    bool    `json:"voted_this_tick"`
}

// BusinessData is the business_owner role sub-record.
type BusinessData struct {
	ProductionCapacity float64 `json:"production_capacity"`
	Employees          int     `json:"employees"`
	WageLevel          float64 `json:"wage_level"` // [0.1,10]
	StrikeRisk         float64 `json:"strike_risk"`
	TaxEvasion         float64 `json:"tax_evasion"` // [0,1]
}

// Statement is a public statement published by a politician.
type Statement struct {
	Tick int64  `json:"tick"`
	Text string `json:"text"`
}

// PoliticianData is the politician role sub-record.
type PoliticianData struct {
	LawsProposed       int         `json:"laws_proposed"`
	LawsPassed         int         `json:"laws_passed"`
	Statements         []Statement `json:"statements"`
	LobbyMoneyReceived float64     `json:"lobby_money_received"`
	TaxEvasion         float64     `json:"tax_evasion"`
}

// Action is a queued player submission.
type Action struct {
	Type   string                 `json:"action_type"`
	Params map[string]interface{} `json:"params"`
}

// ActionGroup is the drained batch of a past tick, kept in history.
type ActionGroup struct {
	Tick    int64    `json:"tick"`
	Actions []Action `json:"actions"`
}

// Player is one participant in the game.
type Player struct {
	ID             string          `json:"id"`
	Name           string          `json:"name"`
	Role           Role            `json:"role"`
	JoinedTick     int64           `json:"joined_tick"`
	Alive          bool            `json:"alive"`
	Hidden         HiddenStats     `json:"hidden_stats"`
	Visible        VisibleStats    `json:"visible_stats"`
	Citizen        *CitizenData    `json:"citizen,omitempty"`
	Business       *BusinessData   `json:"business,omitempty"`
	Politician     *PoliticianData `json:"politician,omitempty"`
	ActionsPending []Action        `json:"actions_pending"`
	ActionsHistory []ActionGroup   `json:"actions_history"` // last 10 tick groups
}

// MaxPendingActions bounds a player's queue per tick.
const MaxPendingActions = 5

// MaxActionHistoryGroups bounds retained per-tick action history.
const MaxActionHistoryGroups = 10

// LawStatus is a law's lifecycle stage.
type LawStatus string

const (
	LawProposed    LawStatus = "proposed"
	LawVoting      LawStatus = "voting"
	LawActive      LawStatus = "active"
	LawRepealed    LawStatus = "repealed"
	LawRejected    LawStatus = "rejected"
	LawInvalidated LawStatus = "invalidated"
)

// VoteTally counts votes on a law.
type VoteTally struct {
	For     int `json:"for"`
	Against int `json:"against"`
	Abstain int `json:"abstain"`
}

// Implementation is the judiciary's machine-readable reading of a law.
type Implementation struct {
	AffectedVariables []string   `json:"affected_variables"`
	Modifiers         []Modifier `json:"modifiers"`
}

// Interpretation binds a law's free text to concrete modifiers.
type Interpretation struct {
	Interpretation string         `json:"interpretation"`
	Ambiguities    []string       `json:"ambiguities"`
	Implementation Implementation `json:"implementation"`
	RejectedByCore bool           `json:"rejected_by_core"`
}

// Law is a proposed or enacted piece of legislation.
type Law struct {
	ID             string          `json:"id"`
	Proposer       string          `json:"proposer"`
	ProposedTick   int64           `json:"proposed_tick"`
	OriginalText   string          `json:"original_text"` // <= 2000 chars
	Status         LawStatus       `json:"status"`
	Votes          VoteTally       `json:"votes"`
	Interpretation *Interpretation `json:"judiciary_interpretation,omitempty"`
	ActivatedTick  *int64          `json:"activated_tick,omitempty"`
	RepealedTick   *int64          `json:"repealed_tick,omitempty"`
}

// MaxLawTextLen bounds proposed law text.
const MaxLawTextLen = 2000

// EventSource identifies which subsystem emitted an event.
type EventSource string

const (
	SourceCoreEngine        EventSource = "core_engine"
	SourceJudiciary         EventSource = "judiciary"
	SourceCrisis            EventSource = "crisis"
	SourcePoliticalReaction EventSource = "political_reaction"
	SourceStateAnalyst      EventSource = "state_analyst"
	SourceMedia             EventSource = "media"
)

// SourcePriority orders event application (higher first).
func SourcePriority(s EventSource) int {
	switch s {
	case SourceCoreEngine:
		return 100
	case SourceJudiciary:
		return 85
	case SourceCrisis:
		return 70
	case SourcePoliticalReaction:
		return 60
	case SourceStateAnalyst:
		return 50
	case SourceMedia:
		return 10
	}
	return 0
}

// EventStatus is an event's application state.
type EventStatus string

const (
	EventPending  EventStatus = "pending"
	EventApplied  EventStatus = "applied"
	EventRejected EventStatus = "rejected"
	EventExpired  EventStatus = "expired"
)

// GameEvent is a world event with an optional modifier payload.
type GameEvent struct {
	ID            string      `json:"id"`
	Source        EventSource `json:"source"`
	Tick          int64       `json:"tick"`
	Type          string      `json:"type"`
	Severity      int         `json:"severity"` // [1,5]
	Status        EventStatus `json:"status"`
	Description   string      `json:"description"`
	Modifiers     []Modifier  `json:"modifiers"`
	DurationTicks *int64      `json:"duration_ticks,omitempty"`
	ExpiresTick   *int64      `json:"expires_tick,omitempty"`
	NarrativeHook string      `json:"narrative_hook"`
}

// Headline is a media headline with a truth score.
type Headline struct {
	ID         string  `json:"id"`
	Tick       int64   `json:"tick"`
	Text       string  `json:"text"`
	TruthScore float64 `json:"truth_score"` // [0,1]
}

// Article is a longer media item.
type Article struct {
	ID    string `json:"id"`
	Tick  int64  `json:"tick"`
	Title string `json:"title"`
	Body  string `json:"body"`
}

// Rumor is an unverified media item with a credibility score.
type Rumor struct {
	ID          string  `json:"id"`
	Tick        int64   `json:"tick"`
	Text        string  `json:"text"`
	Credibility float64 `json:"credibility"` // [0,1]
}

// MediaState holds the current press landscape.
type MediaState struct {
	Headlines []Headline `json:"headlines"`
	Articles  []Article  `json:"articles"`
	Rumors    []Rumor    `json:"rumors"`
}

// MaxArticles bounds the retained article backlog.
const MaxArticles = 30

// Era is a named historical period.
type Era struct {
	Name      string `json:"name"`
	TickStart int64  `json:"tick_start"`
	TickEnd   *int64 `json:"tick_end,omitempty"` // nil while the era is open
	Summary   string `json:"summary"`
}

// ReputationRecord is the historian's judgment of a player.
type ReputationRecord struct {
	Title   string  `json:"title"`
	Summary string  `json:"summary"`
	Score   float64 `json:"score"`
}

// HistoryState accumulates the historian's output.
type HistoryState struct {
	Eras              []Era                       `json:"eras"`
	PlayerReputations map[string]ReputationRecord `json:"player_reputations"`
}

// TickLogEntry is the per-tick audit record.
type TickLogEntry struct {
	Tick           int64             `json:"tick"`
	ActionsTotal   int               `json:"actions_total"`
	ActionsSkipped int               `json:"actions_skipped"`
	EventsApplied  int               `json:"events_applied"`
	EventsRejected int               `json:"events_rejected"`
	EventsExpired  int               `json:"events_expired"`
	LawsActivated  int               `json:"laws_activated"`
	LawsRejected   int               `json:"laws_rejected"`
	ContentHash    string            `json:"content_hash"`
	AdvisorRaw     map[string]string `json:"advisor_raw,omitempty"` // stage -> raw output, truncated
}

// MaxTickLogEntries bounds the retained audit log.
const MaxTickLogEntries = 50

// WorldState is the single owning container for one game instance.
type WorldState struct {
	Meta       Meta               `json:"meta"`
	Economy    Economy            `json:"economy"`
	Society    Society            `json:"society"`
	Government Government         `json:"government"`
	Players    map[string]*Player `json:"players"`
	Laws       []Law              `json:"laws"`
	Events     []GameEvent        `json:"events"`
	Media      MediaState         `json:"media_state"`
	TickLog    []TickLogEntry     `json:"tick_log"`
	History    HistoryState       `json:"history"`
}

// MovementByID returns the movement with the given id, or nil.
func (w *WorldState) MovementByID(id string) *Movement {
	for i := range w.Society.Movements {
		if w.Society.Movements[i].ID == id {
			return &w.Society.Movements[i]
		}
	}
	return nil
}

// LawByID returns the law with the given id, or nil.
func (w *WorldState) LawByID(id string) *Law {
	for i := range w.Laws {
		if w.Laws[i].ID == id {
			return &w.Laws[i]
		}
	}
	return nil
}

// PlayerIDs returns player ids in lexicographic order for deterministic iteration.
func (w *WorldState) PlayerIDs() []string {
	ids := make([]string, 0, len(w.Players))
	for id := range w.Players {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
