// Package engine drives one game instance through its tick phases: action
// resolution, economic recalculation, the law lifecycle, threshold triggers,
// event processing, and the player view projection.
package engine

import (
	"log/slog"
	"math"

	"github.com/talgya/statecraft/internal/state"
)

// RoleActions lists the action types each role may submit.
var RoleActions = map[state.Role][]string{
	state.RoleCitizen:       {"work", "consume", "vote_law", "join_movement", "leave_movement"},
	state.RoleBusinessOwner: {"produce", "set_wages", "lobby", "evade_taxes", "comply_taxes"},
	state.RolePolitician:    {"propose_law", "vote_law_politician", "allocate_budget", "publish_statement"},
}

// RoleAllows reports whether the role may submit the given action type.
func RoleAllows(role state.Role, actionType string) bool {
	for _, t := range RoleActions[role] {
		if t == actionType {
			return true
		}
	}
	return false
}

// resolveActions drains every player's pending queue into history and runs
// the handlers, players in lexicographic id order, actions in submission
// order. Returns (total, skipped) counts for the tick log.
func resolveActions(w *state.WorldState) (total, skipped int) {
	for _, id := range w.PlayerIDs() {
		p := w.Players[id]
		if len(p.ActionsPending) == 0 {
			continue
		}
		drained := p.ActionsPending
		p.ActionsPending = nil
		p.ActionsHistory = append(p.ActionsHistory, state.ActionGroup{
			Tick:    w.Meta.Tick,
			Actions: drained,
		})
		if len(p.ActionsHistory) > state.MaxActionHistoryGroups {
			p.ActionsHistory = p.ActionsHistory[len(p.ActionsHistory)-state.MaxActionHistoryGroups:]
		}

		if !p.Alive {
			skipped += len(drained)
			continue
		}
		for _, a := range drained {
			total++
			if !resolveOne(w, p, a) {
				skipped++
			}
		}
	}
	return total, skipped
}

// resolveOne dispatches a single action. A malformed action is a silent no-op
// (logged), never a state error: one bad submission must not abort the tick.
func resolveOne(w *state.WorldState, p *state.Player, a state.Action) bool {
	switch a.Type {
	case "work":
		return actWork(w, p)
	case "consume":
		return actConsume(w, p)
	case "vote_law":
		return actVoteLaw(w, p, a, 1)
	case "join_movement":
		return actJoinMovement(w, p, a)
	case "leave_movement":
		return actLeaveMovement(w, p)
	case "produce":
		return actProduce(w, p)
	case "set_wages":
		return actSetWages(w, p, a)
	case "lobby":
		return actLobby(w, p, a)
	case "evade_taxes":
		return actEvadeTaxes(w, p)
	case "comply_taxes":
		return actComplyTaxes(w, p)
	case "propose_law":
		return actProposeLaw(w, p, a)
	case "vote_law_politician":
		return actVoteLaw(w, p, a, 3)
	case "allocate_budget":
		return actAllocateBudget(w, p, a)
	case "publish_statement":
		return actPublishStatement(w, p, a)
	default:
		slog.Warn("unknown action type skipped", "player", p.ID, "type", a.Type)
		return false
	}
}

func actWork(w *state.WorldState, p *state.Player) bool {
	c := p.Citizen
	if c == nil {
		return false
	}
	if !c.Employed {
		c.EconomicPressure = state.ClampValue(c.EconomicPressure+5, 0, 100)
		return true
	}
	// The reference state employer pays at the wage index.
	wage := w.Economy.WageIndex * 1.0
	p.Visible.Wealth += wage
	kernelAdd(w, "economy.gdp", 0.01*wage)
	c.Satisfaction = state.ClampValue(c.Satisfaction+1, 0, 100)
	return true
}

func actConsume(w *state.WorldState, p *state.Player) bool {
	c := p.Citizen
	if c == nil {
		return false
	}
	amount := math.Min(0.3*p.Visible.Wealth, 0.01*w.Economy.Market.Supply)
	if amount <= 0 {
		c.EconomicPressure = state.ClampValue(c.EconomicPressure+8, 0, 100)
		return true
	}
	p.Visible.Wealth -= amount
	kernelAdd(w, "economy.market.demand", 0.1*amount)
	kernelAdd(w, "economy.market.supply", -0.05*amount)
	c.Satisfaction = state.ClampValue(c.Satisfaction+3, 0, 100)
	return true
}

func actVoteLaw(w *state.WorldState, p *state.Player, a state.Action, weight int) bool {
	lawID, ok := stringParam(a, "law_id")
	if !ok {
		return false
	}
	choice, ok := stringParam(a, "choice")
	if !ok {
		return false
	}
	law := w.LawByID(lawID)
	if law == nil || law.Status != state.LawVoting {
		return false
	}
	switch choice {
	case "for":
		law.Votes.For += weight
	case "against":
		law.Votes.Against += weight
	case "abstain":
		law.Votes.Abstain += weight
	default:
		return false
	}
	if p.Citizen != nil {
		p.Citizen.VotedThisTick = true
	}
	p.Hidden.Influence += 0.5
	return true
}

func actJoinMovement(w *state.WorldState, p *state.Player, a state.Action) bool {
	movementID, ok := stringParam(a, "movement_id")
	if !ok {
		return false
	}
	m := w.MovementByID(movementID)
	if m == nil {
		return false
	}
	for _, id := range m.MemberPlayerIDs {
		if id == p.ID {
			p.Visible.MovementID = m.ID
			return true
		}
	}
	m.MemberPlayerIDs = append(m.MemberPlayerIDs, p.ID)
	p.Visible.MovementID = m.ID
	if m.Type == state.MovementRadical && p.Citizen != nil {
		p.Citizen.Radicalization = state.ClampValue(p.Citizen.Radicalization+10, 0, 100)
	}
	p.Hidden.Influence += 2
	return true
}

func actLeaveMovement(w *state.WorldState, p *state.Player) bool {
	if p.Visible.MovementID == "" {
		return false
	}
	if m := w.MovementByID(p.Visible.MovementID); m != nil {
		members := m.MemberPlayerIDs[:0]
		for _, id := range m.MemberPlayerIDs {
			if id != p.ID {
				members = append(members, id)
			}
		}
		m.MemberPlayerIDs = members
	}
	p.Visible.MovementID = ""
	return true
}

func actProduce(w *state.WorldState, p *state.Player) bool {
	b := p.Business
	if b == nil {
		return false
	}
	if b.StrikeRisk > 0.8 {
		b.ProductionCapacity /= 2
	}
	output := b.ProductionCapacity
	kernelAdd(w, "economy.market.supply", output)
	kernelAdd(w, "economy.gdp", 0.1*output)

	profit := output*w.Economy.Market.PriceIndex - float64(b.Employees)*b.WageLevel*w.Economy.WageIndex
	p.Visible.Wealth += math.Max(0, profit)
	p.Hidden.Influence += 1
	return true
}

func actSetWages(w *state.WorldState, p *state.Player, a state.Action) bool {
	b := p.Business
	if b == nil {
		return false
	}
	level, ok := floatParam(a, "wage_level")
	if !ok {
		return false
	}
	level = state.ClampValue(level, 0.1, 10)
	old := b.WageLevel
	b.WageLevel = level

	if level < 0.7*w.Economy.WageIndex {
		b.StrikeRisk += 0.15
	} else if level > 1.2*w.Economy.WageIndex {
		b.StrikeRisk -= 0.1
	}
	b.StrikeRisk = state.ClampValue(b.StrikeRisk, 0, 1)

	kernelAdd(w, "economy.wage_index", 0.01*(level-old))
	return true
}

func actLobby(w *state.WorldState, p *state.Player, a state.Action) bool {
	targetID, ok := stringParam(a, "target_player_id")
	if !ok {
		return false
	}
	requested, ok := floatParam(a, "amount")
	if !ok || requested <= 0 {
		return false
	}
	target := w.Players[targetID]
	if target == nil || target.Politician == nil || !target.Alive {
		return false
	}
	actual := math.Min(0.2*p.Visible.Wealth, requested)
	if actual <= 0 {
		return false
	}
	p.Visible.Wealth -= actual
	target.Politician.LobbyMoneyReceived += actual
	target.Hidden.Corruption += 0.5 * actual
	p.Hidden.Influence += 3
	p.Hidden.Corruption += 2
	return true
}

func actEvadeTaxes(w *state.WorldState, p *state.Player) bool {
	b := p.Business
	if b == nil {
		return false
	}
	b.TaxEvasion = state.ClampValue(b.TaxEvasion+0.2, 0, 1)
	p.Visible.Wealth += 0.001 * p.Visible.Wealth * w.Economy.TaxRate
	p.Hidden.Corruption += 1
	kernelAdd(w, "economy.tax_compliance", -0.01)
	return true
}

func actComplyTaxes(w *state.WorldState, p *state.Player) bool {
	b := p.Business
	if b == nil {
		return false
	}
	b.TaxEvasion = state.ClampValue(b.TaxEvasion-0.2, 0, 1)
	p.Visible.Wealth -= 0.0005 * p.Visible.Wealth * w.Economy.TaxRate
	p.Hidden.Reputation += 0.5
	kernelAdd(w, "economy.tax_compliance", 0.005)
	return true
}

func actProposeLaw(w *state.WorldState, p *state.Player, a state.Action) bool {
	pol := p.Politician
	if pol == nil {
		return false
	}
	text, ok := stringParam(a, "text")
	if !ok || text == "" {
		return false
	}
	if len(text) > state.MaxLawTextLen {
		text = text[:state.MaxLawTextLen]
	}
	w.Laws = append(w.Laws, state.Law{
		ID:           w.NewLawID(),
		Proposer:     p.ID,
		ProposedTick: w.Meta.Tick,
		OriginalText: text,
		Status:       state.LawProposed,
	})
	pol.LawsProposed++
	p.Hidden.Influence += 3
	return true
}

func actAllocateBudget(w *state.WorldState, p *state.Player, a state.Action) bool {
	if p.Politician == nil {
		return false
	}
	raw, ok := a.Params["allocation"].(map[string]interface{})
	if !ok {
		return false
	}
	alloc := make(map[string]float64, len(state.BudgetCategories))
	sum := 0.0
	for _, cat := range state.BudgetCategories {
		v, ok := raw[cat].(float64)
		if !ok || v < 0 || v > 1 {
			return false
		}
		alloc[cat] = v
		sum += v
	}
	if math.Abs(sum-1.0) > 0.01 {
		return false
	}
	w.Government.BudgetAllocation = alloc
	p.Hidden.Influence += 2
	return true
}

func actPublishStatement(w *state.WorldState, p *state.Player, a state.Action) bool {
	pol := p.Politician
	if pol == nil {
		return false
	}
	text, ok := stringParam(a, "text")
	if !ok || text == "" {
		return false
	}
	if len(text) > 500 {
		text = text[:500]
	}
	pol.Statements = append(pol.Statements, state.Statement{Tick: w.Meta.Tick, Text: text})
	p.Hidden.Reputation += 0.5
	return true
}

// kernelAdd routes a delta through the modifier kernel so hard constraints
// apply. The paths used by handlers are all registered; a rejection here is a
// programming error worth a log line, nothing more.
func kernelAdd(w *state.WorldState, path string, delta float64) {
	if _, reason, ok := state.Apply(w, state.Modifier{
		Variable:  path,
		Operation: state.OpAdd,
		Value:     delta,
	}); !ok {
		slog.Warn("handler modifier rejected", "path", path, "reason", reason)
	}
}

func stringParam(a state.Action, key string) (string, bool) {
	v, ok := a.Params[key].(string)
	return v, ok
}

func floatParam(a state.Action, key string) (float64, bool) {
	switch v := a.Params[key].(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	}
	return 0, false
}
