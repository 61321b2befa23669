package models

type MemeStats struct {
	Likes int `json:"likes"`
	Views int `json:"views"`
}

type Meme struct {
	ID       string    `json:"id"`
	Title    string    `json:"title"`
	ImageURL string    `json:"imageUrl"`
	Stats    MemeStats `json:"stats"`
	Owner    *Owner    `json:"owner,omitempty"`
	IsLiked  bool      `json:"isLiked"`
	Created  string    `json:"created"`
}

func (m Meme) GetID() string { return m.ID }
