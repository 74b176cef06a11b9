// View projector — the deliberately lossy, role-specific slice of state a
// player sees. Sensitive quantities are presented categorically after seeded
// noise; hidden stats, raw society scalars, and vote tallies never leak.
package engine

import (
	"math"

	"github.com/talgya/statecraft/internal/state"
)

// CitizenView is what citizens see about themselves.
type CitizenView struct {
	Employed bool   `json:"employed"`
	Mood     string `json:"mood"`
}

// BusinessView is what business owners see about their firm.
type BusinessView struct {
	Employees  int     `json:"employees"`
	Production float64 `json:"production"`
	WageLevel  float64 `json:"wage_level"`
	LaborMood  string  `json:"labor_mood"`
}

// PoliticianView includes noise-perturbed numeric estimates: politicians get
// better data than the public, but not exact figures.
type PoliticianView struct {
	LawsProposed         int     `json:"laws_proposed"`
	LawsPassed           int     `json:"laws_passed"`
	ApprovalEstimate     int     `json:"approval_estimate"`
	UnemploymentEstimate float64 `json:"unemployment_estimate"`
}

// PlayerView is the full projection delivered to one player.
type PlayerView struct {
	Tick          int64            `json:"tick"`
	PriceTrend    string           `json:"price_trend"`
	Availability  string           `json:"availability"`
	ApprovalVague string           `json:"approval_vague"`
	Wealth        float64          `json:"wealth"`
	MovementID    string           `json:"movement_id,omitempty"`
	Headlines     []state.Headline `json:"headlines"`
	Rumors        []state.Rumor    `json:"rumors"`
	Citizen       *CitizenView     `json:"citizen,omitempty"`
	Business      *BusinessView    `json:"business,omitempty"`
	Politician    *PoliticianView  `json:"politician,omitempty"`
}

// ProjectView computes the view for one player from the post-tick state.
// The noise seed is derived from (meta.seed, meta.tick) only, so projecting
// the same state twice yields byte-identical views.
func ProjectView(w *state.WorldState, playerID string) *PlayerView {
	p := w.Players[playerID]
	if p == nil {
		return nil
	}
	seed := int64(w.Meta.Seed)*1000 + w.Meta.Tick

	v := &PlayerView{
		Tick:          w.Meta.Tick,
		PriceTrend:    priceTrend(w, seed),
		Availability:  availability(w, seed),
		ApprovalVague: approvalVague(w, seed),
		Wealth:        math.Round(p.Visible.Wealth*100) / 100,
		MovementID:    p.Visible.MovementID,
		Headlines:     w.Media.Headlines,
		Rumors:        w.Media.Rumors,
	}

	switch {
	case p.Citizen != nil:
		v.Citizen = &CitizenView{
			Employed: p.Citizen.Employed,
			Mood:     moodBucket(p.Citizen.Satisfaction),
		}
	case p.Business != nil:
		v.Business = &BusinessView{
			Employees:  p.Business.Employees,
			Production: p.Business.ProductionCapacity,
			WageLevel:  p.Business.WageLevel,
			LaborMood:  laborMood(p.Business.StrikeRisk),
		}
	case p.Politician != nil:
		v.Politician = &PoliticianView{
			LawsProposed:         p.Politician.LawsProposed,
			LawsPassed:           p.Politician.LawsPassed,
			ApprovalEstimate:     int(math.Round(state.Noise(w.Government.Approval.Overall, 8, seed, 4))),
			UnemploymentEstimate: math.Round(state.Noise(w.Economy.Unemployment, 3, seed, 5)*10) / 10,
		}
	}
	return v
}

func priceTrend(w *state.WorldState, seed int64) string {
	v := state.Noise(w.Economy.Market.PriceIndex-1, 0.1, seed, 1)
	switch {
	case v > 0.05:
		return "rising"
	case v < -0.05:
		return "falling"
	default:
		return "stable"
	}
}

func availability(w *state.WorldState, seed int64) string {
	ratio := w.Economy.Market.Supply / math.Max(1, w.Economy.Market.Demand)
	v := state.Noise(ratio, 0.15, seed, 2)
	switch {
	case v > 1.3:
		return "abundant"
	case v > 0.8:
		return "normal"
	case v > 0.5:
		return "scarce"
	default:
		return "shortage"
	}
}

func approvalVague(w *state.WorldState, seed int64) string {
	v := state.Noise(w.Government.Approval.Overall, 10, seed, 3)
	switch {
	case v > 65:
		return "popular"
	case v > 40:
		return "mixed"
	case v > 20:
		return "unpopular"
	default:
		return "crisis"
	}
}

func moodBucket(satisfaction float64) string {
	switch {
	case satisfaction > 70:
		return "content"
	case satisfaction > 40:
		return "neutral"
	case satisfaction > 20:
		return "restless"
	default:
		return "desperate"
	}
}

func laborMood(strikeRisk float64) string {
	switch {
	case strikeRisk < 0.3:
		return "calm"
	case strikeRisk < 0.6:
		return "uneasy"
	case strikeRisk < 0.8:
		return "agitated"
	default:
		return "striking"
	}
}
