package model

import "time"

type Comment struct {
	ID      int       `json:"id"`
	Text    string    `json:"text"`
	TaskID  int       `json:"taskId"`
	UserID  int       `json:"userId"`
	Created time.Time `json:"created"`
}

// FlatComment is a comment with its author's display fields merged in.
// The API never returns a nested user object on comments.
type FlatComment struct {
	ID                int       `json:"id"`
	Text              string    `json:"text"`
	TaskID            int       `json:"taskId"`
	Created           time.Time `json:"created"`
	UserID            int       `json:"userId"`
	CognitoID         *string   `json:"cognitoId,omitempty"`
	Username          string    `json:"username"`
	ProfilePictureURL *string   `json:"profilePictureUrl,omitempty"`
	TeamID            *int      `json:"teamId,omitempty"`
}

// Flatten merges the author's display fields into the comment.
func (c Comment) Flatten(user User) FlatComment {
	return FlatComment{
		ID:                c.ID,
		Text:              c.Text,
		TaskID:            c.TaskID,
		Created:           c.Created,
		UserID:            c.UserID,
		CognitoID:         user.CognitoID,
		Username:          user.Username,
		ProfilePictureURL: user.ProfilePictureURL,
		TeamID:            user.TeamID,
	}
}
