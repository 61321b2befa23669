package models

type GroupStats struct {
	Members int `json:"members"`
	Posts   int `json:"posts"`
}

type Group struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Description string     `json:"description,omitempty"`
	Category    string     `json:"category"`
	IsPrivate   bool       `json:"isPrivate"`
	Stats       GroupStats `json:"stats"`
	Owner       *Owner     `json:"owner,omitempty"`
	IsMember    bool       `json:"isMember"`
	Created     string     `json:"created"`
}

func (g Group) GetID() string { return g.ID }
