// Package conversation keeps per-user dialogue state between bot messages.
package conversation

// State is the step a user is at in a multi-message dialogue
type State string

const (
	StateIdle            State = ""
	StateWaitingDish     State = "waiting_dish"
	StateWaitingHeight   State = "waiting_height"
	StateWaitingWeight   State = "waiting_weight"
	StateWaitingAge      State = "waiting_age"
	StateWaitingGender   State = "waiting_gender"
	StateWaitingActivity State = "waiting_activity"
	StateWaitingGoal     State = "waiting_goal"
)

// Session is the stored dialogue of one user. Data collects questionnaire
// answers keyed by the state that asked for them.
type Session struct {
	State State             `json:"state"`
	Data  map[string]string `json:"data,omitempty"`
}

// questionnaire is the fixed order of the nutrition goal questions
var questionnaire = []State{
	StateWaitingHeight,
	StateWaitingWeight,
	StateWaitingAge,
	StateWaitingGender,
	StateWaitingActivity,
	StateWaitingGoal,
}

// FirstQuestion starts the nutrition goal questionnaire
func FirstQuestion() State {
	return questionnaire[0]
}

// InQuestionnaire reports whether s is one of the questionnaire steps
func (s State) InQuestionnaire() bool {
	for _, q := range questionnaire {
		if q == s {
			return true
		}
	}
	return false
}

// Next returns the step after s, or StateIdle after the last question
func (s State) Next() State {
	for i, q := range questionnaire {
		if q == s && i+1 < len(questionnaire) {
			return questionnaire[i+1]
		}
	}
	return StateIdle
}

// Set records an answer
func (s *Session) Set(key State, value string) {
	if s.Data == nil {
		s.Data = make(map[string]string)
	}
	s.Data[string(key)] = value
}

// Get returns a recorded answer
func (s *Session) Get(key State) string {
	return s.Data[string(key)]
}
