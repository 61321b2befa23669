package models

// TextArea is a caption box on a template image, in image pixels.
type TextArea struct {
	X        float64 `json:"x" validate:"gte=0"`
	Y        float64 `json:"y" validate:"gte=0"`
	Width    float64 `json:"width" validate:"gt=0"`
	Height   float64 `json:"height" validate:"gt=0"`
	Text     string  `json:"text,omitempty" validate:"max=200"`
	FontSize int     `json:"fontSize,omitempty" yaml:"fontSize,omitempty" validate:"gte=0,lte=200"`
}

type TemplateStats struct {
	Favorites   int     `json:"favorites"`
	Downloads   int     `json:"downloads"`
	Uses        int     `json:"uses"`
	Rating      float64 `json:"rating"`
	RatingCount int     `json:"ratingCount"`
}

type Template struct {
	ID          string        `json:"id"`
	Name        string        `json:"name"`
	Category    string        `json:"category"`
	Description string        `json:"description,omitempty"`
	ImageURL    string        `json:"imageUrl"`
	TextAreas   []TextArea    `json:"textAreas"`
	IsPublic    bool          `json:"isPublic"`
	Stats       TemplateStats `json:"stats"`
	Owner       *Owner        `json:"owner,omitempty"`
	IsFavorited bool          `json:"isFavorited"`
	Created     string        `json:"created"`
	Updated     string        `json:"updated,omitempty"`
}

func (t Template) GetID() string { return t.ID }

type TemplateUpdate struct {
	Name        *string     `json:"name,omitempty" validate:"omitempty,notblank,max=100"`
	Category    *string     `json:"category,omitempty" validate:"omitempty,category"`
	Description *string     `json:"description,omitempty" validate:"omitempty,max=500"`
	TextAreas   *[]TextArea `json:"textAreas,omitempty" validate:"omitempty,max=10,dive"`
	IsPublic    *bool       `json:"isPublic,omitempty"`
}
