// Media stage — generates the press landscape players actually see. The
// output replaces headlines and rumors wholesale each tick; articles append.
package advisors

import (
	"context"

	"github.com/talgya/statecraft/internal/state"
)

// MediaInput summarizes the tick for the press.
type MediaInput struct {
	Tick         int64    `json:"tick"`
	Trends       []string `json:"analyst_trends"`
	Risks        []string `json:"analyst_risks"`
	Stability    float64  `json:"stability"`
	Satisfaction float64  `json:"satisfaction"`
	Inflation    float64  `json:"inflation"`
	Unemployment float64  `json:"unemployment"`
	Shortage     bool     `json:"shortage"`
	RecentEvents []string `json:"recent_events"`
	NewLaws      []string `json:"new_laws"`
}

// MediaHeadline is one generated headline before id assignment.
type MediaHeadline struct {
	Text       string  `json:"text"`
	TruthScore float64 `json:"truth_score"`
}

// MediaArticle is one generated article before id assignment.
type MediaArticle struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

// MediaRumor is one generated rumor before id assignment.
type MediaRumor struct {
	Text        string  `json:"text"`
	Credibility float64 `json:"credibility"`
}

// MediaOutput is the validated press output.
type MediaOutput struct {
	Headlines []MediaHeadline `json:"headlines"`
	Articles  []MediaArticle  `json:"articles"`
	Rumors    []MediaRumor    `json:"rumors"`
}

var mediaRequired = []string{"headlines", "articles", "rumors"}

const mediaSystem = `You are the national press corps of a simulated nation: several outlets of varying reliability. From the tick data, write 2-4 headlines (each with a truth_score 0-1), 0-2 short articles, and 0-3 rumors (each with a credibility 0-1). Slant and exaggeration are in character; fabrication gets a low truth_score. Respond ONLY with JSON: {"headlines": [{"text": "...", "truth_score": n}], "articles": [{"title": "...", "body": "..."}], "rumors": [{"text": "...", "credibility": n}]}.`

// BuildMediaInput assembles the press briefing from state plus analyst output.
func BuildMediaInput(w *state.WorldState, analyst AnalystOutput) MediaInput {
	in := MediaInput{
		Tick:         w.Meta.Tick,
		Trends:       analyst.Trends,
		Risks:        analyst.Risks,
		Stability:    w.Society.Stability,
		Satisfaction: w.Society.Satisfaction,
		Inflation:    w.Economy.Inflation,
		Unemployment: w.Economy.Unemployment,
		Shortage:     w.Economy.Market.Shortage,
	}
	for i := range w.Events {
		e := &w.Events[i]
		if e.Tick == w.Meta.Tick {
			in.RecentEvents = append(in.RecentEvents, e.Description)
		}
	}
	for i := range w.Laws {
		l := &w.Laws[i]
		if l.Status == state.LawActive && l.ActivatedTick != nil && *l.ActivatedTick == w.Meta.Tick {
			in.NewLaws = append(in.NewLaws, l.OriginalText)
		}
	}
	return in
}

// mediaFallback is the fixed placeholder press run.
func mediaFallback() MediaOutput {
	return MediaOutput{
		Headlines: []MediaHeadline{
			{Text: "Government continues its work amid quiet streets", TruthScore: 0.8},
			{Text: "Markets steady as citizens await developments", TruthScore: 0.8},
		},
	}
}

// RunMedia executes the media stage and applies the result: headlines and
// rumors are replaced with seeded ids, articles append capped at MaxArticles.
func (p *Pipeline) RunMedia(ctx context.Context, w *state.WorldState, analyst AnalystOutput) string {
	in := BuildMediaInput(w, analyst)

	out := mediaFallback()
	cleaned, raw, err := p.call(ctx, StageMedia, mediaSystem, in, 1200)
	if err != nil {
		logFallback(StageMedia, err)
	} else {
		var parsed MediaOutput
		if derr := decodeChecked(cleaned, mediaRequired, &parsed); derr != nil {
			logFallback(StageMedia, derr)
		} else {
			out = parsed
		}
	}

	applyMedia(w, out)
	return truncateRaw(raw)
}

func applyMedia(w *state.WorldState, out MediaOutput) {
	headlines := make([]state.Headline, 0, len(out.Headlines))
	for i, h := range out.Headlines {
		headlines = append(headlines, state.Headline{
			ID:         state.DeterministicID("hl", w.Meta.Seed, i),
			Tick:       w.Meta.Tick,
			Text:       h.Text,
			TruthScore: state.ClampValue(h.TruthScore, 0, 1),
		})
	}
	w.Media.Headlines = headlines

	rumors := make([]state.Rumor, 0, len(out.Rumors))
	for i, r := range out.Rumors {
		rumors = append(rumors, state.Rumor{
			ID:          state.DeterministicID("rum", w.Meta.Seed, i),
			Tick:        w.Meta.Tick,
			Text:        r.Text,
			Credibility: state.ClampValue(r.Credibility, 0, 1),
		})
	}
	w.Media.Rumors = rumors

	base := len(w.Media.Articles)
	for i, a := range out.Articles {
		w.Media.Articles = append(w.Media.Articles, state.Article{
			ID:    state.DeterministicID("art", w.Meta.Seed, base+i),
			Tick:  w.Meta.Tick,
			Title: a.Title,
			Body:  a.Body,
		})
	}
	if len(w.Media.Articles) > state.MaxArticles {
		w.Media.Articles = w.Media.Articles[len(w.Media.Articles)-state.MaxArticles:]
	}
}
