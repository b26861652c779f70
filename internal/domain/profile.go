package domain

import "time"

// PlacementProfile records where a user was placed within a subject. One
// profile per user and subject; a retake overwrites the previous placement.
type PlacementProfile struct {
	UserID    string     `json:"user_id"`
	SubjectID string     `json:"subject_id"`
	Score     int        `json:"score"`
	Level     Difficulty `json:"level"`
	PlacedAt  time.Time  `json:"placed_at"`
}

// PlanItem is one step of a study plan: a topic with the number of lessons
// allocated to it.
type PlanItem struct {
	TopicID   string     `json:"topic_id"`
	TopicName string     `json:"topic_name"`
	Level     Difficulty `json:"level"`
	Lessons   int        `json:"lessons"`
}

// StudyPlan is the personalized follow-up built from a completed placement
// test. Items are ordered weakest topic first.
type StudyPlan struct {
	ID        string     `json:"id"`
	UserID    string     `json:"user_id"`
	SubjectID string     `json:"subject_id"`
	TestID    string     `json:"test_id"`
	Items     []PlanItem `json:"items"`
	CreatedAt time.Time  `json:"created_at"`
}
