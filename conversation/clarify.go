package conversation

import "github.com/kbgateway/kbgateway/gateway"

// GenerateQuestions deterministically derives the next round's clarification
// questions from (classification, round, collectedContext). It suppresses
// any question whose id is already present in collectedContext.
//
// Round 1 asks the broad scope/goal questions. Round 2 asks a follow-up
// conditioned on the round-1 scope answer. Round 3 asks a catch-all
// free-text question only if nothing else remains.
func GenerateQuestions(classification Classification, round int, collectedContext map[string]string) []gateway.ClarificationQuestion {
	if classification == Clear {
		return nil
	}

	var questions []gateway.ClarificationQuestion
	asked := func(id string) bool {
		_, ok := collectedContext[id]
		return ok
	}

	switch round {
	case 1:
		if !asked("scope") {
			questions = append(questions, gateway.ClarificationQuestion{
				ID:       "scope",
				Text:     "What is the scope of your question?",
				Options:  []string{"a specific component", "the entire codebase", "a particular feature"},
				Required: true,
			})
		}
		if !asked("goal") {
			questions = append(questions, gateway.ClarificationQuestion{
				ID:       "goal",
				Text:     "What do you want to do with this information?",
				Options:  []string{"understand behavior", "fix a bug", "write new code", "review a change"},
				Required: true,
			})
		}
	case 2:
		if collectedContext["scope"] == "a specific component" && !asked("component") {
			questions = append(questions, gateway.ClarificationQuestion{
				ID:       "component",
				Text:     "Which component specifically?",
				Required: true,
			})
		}
	default:
		if len(questions) == 0 && !asked("details") {
			questions = append(questions, gateway.ClarificationQuestion{
				ID:       "details",
				Text:     "Anything else we should know to answer precisely?",
				Required: false,
			})
		}
	}

	return questions
}
