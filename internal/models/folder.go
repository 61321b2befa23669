package models

type Folder struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Color       string `json:"color,omitempty"`
	Icon        string `json:"icon,omitempty"`
	Description string `json:"description,omitempty"`
	IsPrivate   bool   `json:"isPrivate"`
	Memes       []Meme `json:"memes,omitempty"`
	MemeCount   int    `json:"memeCount"`
	Owner       *Owner `json:"owner,omitempty"`
	Created     string `json:"created"`
	Updated     string `json:"updated,omitempty"`
}

func (f Folder) GetID() string { return f.ID }

// Contains reports whether memeID is already a member of the folder.
func (f Folder) Contains(memeID string) bool {
	for _, m := range f.Memes {
		if m.ID == memeID {
			return true
		}
	}
	return false
}

type FolderUpdate struct {
	Name        *string `json:"name,omitempty" validate:"omitempty,notblank,max=50"`
	Color       *string `json:"color,omitempty" validate:"omitempty,hexcolor"`
	Icon        *string `json:"icon,omitempty" validate:"omitempty,max=32"`
	Description *string `json:"description,omitempty" validate:"omitempty,max=500"`
	IsPrivate   *bool   `json:"isPrivate,omitempty"`
}
