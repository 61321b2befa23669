package models

type CommentStats struct {
	Likes   int `json:"likes"`
	Replies int `json:"replies"`
}

type Comment struct {
	ID            string       `json:"id"`
	MemeID        string       `json:"memeId"`
	Author        *Owner       `json:"author,omitempty"`
	Content       string       `json:"content"`
	ParentComment *string      `json:"parentComment,omitempty"`
	Stats         CommentStats `json:"stats"`
	IsLiked       bool         `json:"isLiked"`
	Replies       []Comment    `json:"replies,omitempty"`
	Created       string       `json:"created"`
	Updated       string       `json:"updated,omitempty"`
}

func (c Comment) GetID() string { return c.ID }

func (c Comment) RepliesCount() int { return c.Stats.Replies }

func (c Comment) IsReply() bool { return c.ParentComment != nil && *c.ParentComment != "" }

const (
	ReportSpam          = "spam"
	ReportHarassment    = "harassment"
	ReportInappropriate = "inappropriate"
	ReportOther         = "other"
)

var ReportReasons = []string{ReportSpam, ReportHarassment, ReportInappropriate, ReportOther}

type CommentReport struct {
	ID        string `json:"id"`
	CommentID string `json:"commentId"`
	Reason    string `json:"reason"`
	Details   string `json:"details,omitempty"`
	Created   string `json:"created"`
}
