package models

// RemarkItem is one categorised remark on a question evaluation.
type RemarkItem struct {
	CategoryID int    `json:"category_id"`
	Text       string `json:"text"`
}

// QuestionEvaluation holds the marks and remarks the AI pass produced for a
// single identifiable question.
type QuestionEvaluation struct {
	QuestionReference string       `json:"question_reference"`
	MarksAwarded      float64      `json:"marks_awarded"`
	MaxMarks          float64      `json:"max_marks"`
	Feedback          []RemarkItem `json:"feedback"`
}

// FeedbackCategory groups remarks for display.
type FeedbackCategory struct {
	ID          int    `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// FeedbackDocument is the structured grading output for one submission.
// Invariant: OverallMarks equals the sum of MarksAwarded across all question
// evaluations; every marks edit recomputes it rather than trusting input.
type FeedbackDocument struct {
	SubmissionID        string               `json:"submission_id"`
	AssignmentID        string               `json:"assignment_id"`
	StudentID           string               `json:"student_id"`
	QuestionEvaluations []QuestionEvaluation `json:"question_evaluations"`
	OverallFeedback     string               `json:"overall_feedback"`
	OverallMarks        float64              `json:"overall_marks"`
	MaxPossibleMarks    float64              `json:"max_possible_marks"`
	FeedbackCategories  []FeedbackCategory   `json:"feedback_categories"`
}

// MarksTotal sums the awarded marks across all question evaluations.
func (d FeedbackDocument) MarksTotal() float64 {
	var total float64
	for _, q := range d.QuestionEvaluations {
		total += q.MarksAwarded
	}
	return total
}

// DefaultFeedbackCategories is the category catalogue the evaluation pipeline
// grades against.
func DefaultFeedbackCategories() []FeedbackCategory {
	return []FeedbackCategory{
		{ID: 1, Name: "Conceptual Understanding", Description: "Evaluation of fundamental concept understanding"},
		{ID: 2, Name: "Technical Accuracy", Description: "Correctness of technical content"},
		{ID: 3, Name: "Presentation", Description: "Organization and clarity of presentation"},
		{ID: 4, Name: "Clarity of Expression", Description: "How clearly ideas are communicated"},
		{ID: 5, Name: "Problem-Solving Approach", Description: "Methodology used to tackle problems"},
		{ID: 6, Name: "Improvement Areas", Description: "Specific aspects where student can improve"},
	}
}
