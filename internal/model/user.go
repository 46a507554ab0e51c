package model

type User struct {
	UserID            int     `json:"userId"`
	Username          string  `json:"username"`
	Email             string  `json:"email"`
	ProfilePictureURL *string `json:"profilePictureUrl,omitempty"`
	CognitoID         *string `json:"cognitoId,omitempty"`
	TeamID            *int    `json:"teamId,omitempty"`
}

type Team struct {
	TeamID               int    `json:"teamId"`
	TeamName             string `json:"teamName"`
	ProductOwnerUserID   *int   `json:"productOwnerUserId,omitempty"`
	ProjectManagerUserID *int   `json:"projectManagerUserId,omitempty"`
}
