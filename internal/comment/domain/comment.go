package domain

import "time"

type Comment struct {
	ID        string
	ProductID string
	UserID    string
	Body      string
	CreatedAt time.Time
}

// CommentView is a comment with its author's display name resolved. A user
// the lookup could not resolve keeps an empty AuthorName.
type CommentView struct {
	Comment
	AuthorName string
}
