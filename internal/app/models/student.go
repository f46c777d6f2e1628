package models

// Student defines the student profile owned by exactly one user
type Student struct {
	ID           int64  `json:"id" db:"id" example:"1"`
	UserID       int64  `json:"userId" db:"user_id" example:"5"`
	StudentIndex string `json:"studentIndex" db:"student_index" example:"221033"`
	Major        string `json:"major" db:"major" example:"SIIS"`

	// Relations (populated when needed)
	User *User `json:"user,omitempty"`
}
