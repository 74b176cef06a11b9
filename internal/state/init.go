package state

// NewWorldState builds the initial state for a fresh game instance.
func NewWorldState(serverID string, tickIntervalHours int, seed int32) *WorldState {
	return &WorldState{
		Meta: Meta{
			ServerID:          serverID,
			Tick:              0,
			TickIntervalHours: tickIntervalHours,
			Phase:             PhaseAcceptingActions,
			Seed:              seed,
		},
		Economy: Economy{
			GDP:           1000,
			Inflation:     2,
			Unemployment:  5,
			TaxRate:       20,
			TaxCompliance: 0.9,
			WageIndex:     1.0,
			Budget: Budget{
				Revenue:  0,
				Spending: 50,
				Reserves: 500,
				Deficit:  0,
			},
			Market: Market{
				Supply:     1000,
				Demand:     900,
				PriceIndex: 1.0,
			},
		},
		Society: Society{
			Stability:       70,
			PublicTrust:     60,
			Satisfaction:    60,
			Radicalization:  10,
			ProtestPressure: 0.1,
		},
		Government: Government{
			Approval: Approval{Overall: 55, Economic: 55, Social: 55, Foreign: 55},
			BudgetAllocation: map[string]float64{
				"welfare":        0.3,
				"infrastructure": 0.25,
				"enforcement":    0.2,
				"education":      0.15,
				"discretionary":  0.1,
			},
		},
		Players: make(map[string]*Player),
		History: HistoryState{
			Eras: []Era{{
				Name:      "Founding Era",
				TickStart: 0,
				Summary:   "The state is established.",
			}},
			PlayerReputations: make(map[string]ReputationRecord),
		},
	}
}

// NewPlayer builds a player record for the given role. Citizens are employed
// by a deterministic coin flip on the join seed; this is the only mechanism
// that sets employment.
func NewPlayer(id, name string, role Role, joinedTick int64, joinSeed int64) *Player {
	p := &Player{
		ID:         id,
		Name:       name,
		Role:       role,
		JoinedTick: joinedTick,
		Alive:      true,
		Visible:    VisibleStats{Wealth: 100},
	}
	switch role {
	case RoleCitizen:
		p.Citizen = &CitizenData{
			Employed:     Uniform(joinSeed, 0) < 0.85,
			Satisfaction: 60,
		}
		if p.Citizen.Employed {
			p.Citizen.EmployerID = "state_employer"
		}
	case RoleBusinessOwner:
		p.Visible.Wealth = 500
		p.Business = &BusinessData{
			ProductionCapacity: 50,
			Employees:          5,
			WageLevel:          1.0,
		}
	case RolePolitician:
		p.Politician = &PoliticianData{}
	}
	return p
}
