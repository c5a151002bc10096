package evaluator

import (
	"math"
	"regexp"
	"strings"

	"github.com/sushrusha/sushrusha/pkg/domain"
)

var (
	punctuation = regexp.MustCompile(`[.,!?;:'"\-]+`)
	whitespace  = regexp.MustCompile(`\s+`)
)

func normalize(text string) string {
	text = strings.ToLower(strings.TrimSpace(text))
	text = punctuation.ReplaceAllString(text, " ")
	text = whitespace.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}

// EvaluateTurn matches a worker response against a node checklist. An item
// is matched when any of its keywords occurs in the normalized text.
func EvaluateTurn(userText string, checklist []ChecklistItem) domain.TurnEvaluation {
	normalized := normalize(userText)
	eval := domain.TurnEvaluation{
		MatchedItems:   []string{},
		MissedItems:    []string{},
		CriticalMissed: []string{},
	}

	for _, check := range checklist {
		if matchesAny(normalized, check.Keywords) {
			eval.MatchedItems = append(eval.MatchedItems, check.Item)
			continue
		}
		eval.MissedItems = append(eval.MissedItems, check.Item)
		if check.Critical() {
			eval.CriticalMissed = append(eval.CriticalMissed, check.Item)
		}
	}

	switch {
	case len(eval.CriticalMissed) > 0:
		eval.Notes = "Critical protocol items missed: " + strings.Join(eval.CriticalMissed, ", ")
	case len(eval.MissedItems) > 0:
		eval.Notes = "Some items missed, review protocol guidelines."
	default:
		eval.Notes = "All checklist items addressed!"
	}
	return eval
}

func matchesAny(normalized string, keywords []string) bool {
	for _, kw := range keywords {
		if kw != "" && strings.Contains(normalized, strings.ToLower(kw)) {
			return true
		}
	}
	return false
}

// recordedTurn is a stored, evaluated worker turn.
type recordedTurn struct {
	Index      int
	NodeKey    string
	UserText   string
	Evaluation domain.TurnEvaluation
}

// BuildReport aggregates every checklist item of the visited nodes. An item
// counts as done if it was matched in any turn. Critical items weigh twice.
func BuildReport(s *Scenario, lang string, turns []recordedTurn) domain.Report {
	type itemState struct {
		matched  bool
		critical bool
	}
	items := map[string]*itemState{}
	var order []string

	for _, turn := range turns {
		node := s.Nodes[turn.NodeKey]
		matched := toSet(turn.Evaluation.MatchedItems)
		for _, check := range node.ExpectedChecklist {
			st, ok := items[check.Item]
			if !ok {
				st = &itemState{critical: check.Critical()}
				items[check.Item] = st
				order = append(order, check.Item)
			}
			if _, hit := matched[check.Item]; hit {
				st.matched = true
			}
		}
	}

	report := domain.Report{
		ChecklistResults: []domain.ChecklistResult{},
		CriticalMisses:   []string{},
		Transcript:       []domain.TranscriptEntry{},
	}
	var total, earned float64
	for _, name := range order {
		st := items[name]
		weight := 1.0
		if st.critical {
			weight = 2.0
		}
		total += weight

		status := domain.ChecklistMissed
		if st.matched {
			status = domain.ChecklistDone
			earned += weight
		} else if st.critical {
			report.CriticalMisses = append(report.CriticalMisses, name)
		}
		report.ChecklistResults = append(report.ChecklistResults, domain.ChecklistResult{
			Item:       name,
			Status:     status,
			IsCritical: st.critical,
		})
	}
	if total > 0 {
		report.Score = math.Round(earned/total*1000) / 10
	}
	report.Suggestions = suggestions(report.ChecklistResults, report.CriticalMisses)

	for _, turn := range turns {
		report.Transcript = append(report.Transcript, domain.TranscriptEntry{
			Turn:    turn.Index,
			Patient: s.Nodes[turn.NodeKey].PatientText.In(lang),
			Worker:  turn.UserText,
			Matched: turn.Evaluation.MatchedItems,
			Missed:  turn.Evaluation.MissedItems,
		})
	}
	return report
}

var suggestionRules = []struct {
	needles []string
	advice  string
}{
	{[]string{"follow-up", "schedule"}, "Remember to schedule a follow-up visit and confirm the date with the patient."},
	{[]string{"nutrition", "diet", "iron"}, "Counsel on nutrition, iron/folate supplementation, and dietary advice."},
	{[]string{"hygiene"}, "Advise on hygiene practices for mother and newborn."},
	{[]string{"breastfeed", "feeding"}, "Counsel on proper breastfeeding technique and feeding frequency."},
	{[]string{"ors", "zinc", "fluid"}, "Always counsel on ORS + Zinc for diarrhea and ensure adequate fluid intake."},
}

func suggestions(results []domain.ChecklistResult, criticalMisses []string) []string {
	out := []string{}
	if len(criticalMisses) > 0 {
		out = append(out, "You missed critical danger signs. Always ask about danger signs early in the conversation and refer immediately if present.")
	}

	var missed []string
	for _, r := range results {
		if r.Status == domain.ChecklistMissed && !r.IsCritical {
			missed = append(missed, strings.ToLower(r.Item))
		}
	}
	for _, rule := range suggestionRules {
		if anyContains(missed, rule.needles) {
			out = append(out, rule.advice)
		}
	}

	if len(out) == 0 {
		out = append(out, "Great job! Review the protocol periodically to maintain your skills.")
	}
	return out
}

func anyContains(haystack, needles []string) bool {
	for _, h := range haystack {
		for _, n := range needles {
			if strings.Contains(h, n) {
				return true
			}
		}
	}
	return false
}

func toSet(items []string) map[string]struct{} {
	set := make(map[string]struct{}, len(items))
	for _, it := range items {
		set[it] = struct{}{}
	}
	return set
}
