package domain

// QuizQuestion is a single multiple-choice question generated from a
// document's content.
type QuizQuestion struct {
	ID          string   `json:"id"`
	Question    string   `json:"question"`
	Options     []string `json:"options"`
	AnswerIndex int      `json:"answerIndex"`
	Explanation string   `json:"explanation,omitempty"`
}

// Quiz is a generated question set. Quizzes are not persisted; they are
// produced on demand from stored chunks.
type Quiz struct {
	Questions []QuizQuestion `json:"questions"`
}

// Normalize fills an absent question list with an empty slice and clamps
// answer indexes that fall outside the option range.
func (q *Quiz) Normalize() {
	if q.Questions == nil {
		q.Questions = []QuizQuestion{}
	}
	for i := range q.Questions {
		if q.Questions[i].Options == nil {
			q.Questions[i].Options = []string{}
		}
		if q.Questions[i].AnswerIndex < 0 || q.Questions[i].AnswerIndex >= len(q.Questions[i].Options) {
			q.Questions[i].AnswerIndex = 0
		}
	}
}
