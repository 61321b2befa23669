package models

import "time"

// Request bodies shared by the client forms and the development API. The
// validate tags are the field rules both sides enforce.

type RegisterInput struct {
	Username string `json:"username" validate:"required,notblank,min=3,max=30,alphanumunicode"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

type LoginInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type MemeInput struct {
	Title    string `json:"title" validate:"required,notblank,max=100"`
	ImageURL string `json:"imageUrl" validate:"required,url"`
}

type FolderInput struct {
	Name        string `json:"name" validate:"required,notblank,max=50"`
	Color       string `json:"color,omitempty" validate:"omitempty,hexcolor"`
	Icon        string `json:"icon,omitempty" validate:"max=32"`
	Description string `json:"description,omitempty" validate:"max=500"`
	IsPrivate   bool   `json:"isPrivate"`
}

type ChallengeInput struct {
	Title       string    `json:"title" validate:"required,notblank,max=100"`
	Description string    `json:"description" validate:"required,notblank,max=1000"`
	Category    string    `json:"category" validate:"required,category"`
	Rules       string    `json:"rules,omitempty" validate:"max=2000"`
	StartDate   time.Time `json:"startDate" validate:"required"`
	EndDate     time.Time `json:"endDate" validate:"required,gtfield=StartDate"`
}

type GroupInput struct {
	Name        string `json:"name" validate:"required,notblank,max=50"`
	Description string `json:"description,omitempty" validate:"max=500"`
	Category    string `json:"category" validate:"required,category"`
	IsPrivate   bool   `json:"isPrivate"`
}

type InviteInput struct {
	Username string `json:"username" validate:"required,notblank"`
	Role     string `json:"role" validate:"required,oneof=editor viewer"`
}

type CollaborationInput struct {
	Title       string        `json:"title" validate:"required,notblank,max=100"`
	Description string        `json:"description,omitempty" validate:"max=1000"`
	Type        string        `json:"type" validate:"required,oneof=meme template challenge"`
	IsPublic    bool          `json:"isPublic"`
	Invites     []InviteInput `json:"invites,omitempty" validate:"max=20,dive"`
}

// TemplateInput carries the metadata fields of a multipart template upload.
type TemplateInput struct {
	Name        string     `json:"name" validate:"required,notblank,max=100"`
	Category    string     `json:"category" validate:"required,category"`
	Description string     `json:"description,omitempty" validate:"max=500"`
	TextAreas   []TextArea `json:"textAreas" validate:"max=10,dive"`
	IsPublic    bool       `json:"isPublic"`
}

type CommentInput struct {
	MemeID        string  `json:"memeId" validate:"required"`
	Content       string  `json:"content" validate:"required,notblank,max=1000"`
	ParentComment *string `json:"parentComment,omitempty"`
}

type ReportInput struct {
	Reason  string `json:"reason" validate:"required,oneof=spam harassment inappropriate other"`
	Details string `json:"details,omitempty" validate:"max=500"`
}

type AddMemesInput struct {
	MemeIDs []string `json:"memeIds" validate:"required,min=1,max=100,dive,required"`
}

type RateInput struct {
	Rating int `json:"rating" validate:"required,min=1,max=5"`
}
