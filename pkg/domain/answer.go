package domain

import "time"

// Answer is a reply to a question. An answer cannot exist without its
// question; deleting a question cascades to its answers.
type Answer struct {
	ID         int64     `json:"id"`
	QuestionID int64     `json:"question_id"`
	Content    string    `json:"content"`
	CreatedOn  time.Time `json:"created_on"`
}
