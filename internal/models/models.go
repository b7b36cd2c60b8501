package models

// Artwork represents one piece in the museum collection
type Artwork struct {
	ID           string        `json:"id" yaml:"id" parquet:"id" validate:"required,slug"`
	QRCodeRef    string        `json:"qr_code_ref,omitempty" yaml:"qr_code_ref,omitempty" parquet:"qr_code_ref,optional" validate:"omitempty,slug"`
	Title        string        `json:"title" yaml:"title" parquet:"title" validate:"required"`
	Author       string        `json:"author,omitempty" yaml:"author,omitempty" parquet:"author,optional"`
	Category     string        `json:"category,omitempty" yaml:"category,omitempty" parquet:"category,optional"`
	Date         string        `json:"date,omitempty" yaml:"date,omitempty" parquet:"date,optional"`
	Location     string        `json:"location,omitempty" yaml:"location,omitempty" parquet:"location,optional"`
	Room         string        `json:"room,omitempty" yaml:"room,omitempty" parquet:"room,optional"`
	ImageURL     string        `json:"image_url,omitempty" yaml:"image_url,omitempty" parquet:"image_url,optional" validate:"omitempty,media_url"`
	AudioURL     string        `json:"audio_url,omitempty" yaml:"audio_url,omitempty" parquet:"audio_url,optional" validate:"omitempty,media_url"`
	VideoURL     string        `json:"video_url,omitempty" yaml:"video_url,omitempty" parquet:"video_url,optional" validate:"omitempty,media_url"`
	Model3DURL   string        `json:"model3d_url,omitempty" yaml:"model3d_url,omitempty" parquet:"model3d_url,optional" validate:"omitempty,media_url"`
	Position     []float64     `json:"position,omitempty" yaml:"position,omitempty,flow" parquet:"position,list" validate:"omitempty,len=3"`
	Details      Details       `json:"details" yaml:"details,omitempty" parquet:"details"`
	Descriptions []Description `json:"descriptions" yaml:"descriptions" parquet:"descriptions,list" validate:"dive"`
}

// Details holds the curatorial fact sheet shown under the artwork
type Details struct {
	Period     string `json:"period,omitempty" yaml:"period,omitempty" parquet:"period,optional"`
	Materials  string `json:"materials,omitempty" yaml:"materials,omitempty" parquet:"materials,optional"`
	Dimensions string `json:"dimensions,omitempty" yaml:"dimensions,omitempty" parquet:"dimensions,optional"`
	Collection string `json:"collection,omitempty" yaml:"collection,omitempty" parquet:"collection,optional"`
}

// Description is the text and media of an artwork in one language
type Description struct {
	Lang     string `json:"lang" yaml:"lang" parquet:"lang" validate:"required,oneof=fr en wo"`
	Title    string `json:"title,omitempty" yaml:"title,omitempty" parquet:"title,optional"`
	Text     string `json:"text" yaml:"text" parquet:"text" validate:"required"`
	History  string `json:"history,omitempty" yaml:"history,omitempty" parquet:"history,optional"`
	AudioURL string `json:"audio_url,omitempty" yaml:"audio_url,omitempty" parquet:"audio_url,optional" validate:"omitempty,media_url"`
	VideoURL string `json:"video_url,omitempty" yaml:"video_url,omitempty" parquet:"video_url,optional" validate:"omitempty,media_url"`
}

// QRRef returns the reference printed on the artwork label, which defaults to the ID
func (a *Artwork) QRRef() string {
	if a.QRCodeRef != "" {
		return a.QRCodeRef
	}
	return a.ID
}

// Description returns the description for lang, if present
func (a *Artwork) Description(lang string) (Description, bool) {
	for _, d := range a.Descriptions {
		if d.Lang == lang {
			return d, true
		}
	}
	return Description{}, false
}

// Languages lists the languages the artwork is described in
func (a *Artwork) Languages() []string {
	langs := make([]string, 0, len(a.Descriptions))
	for _, d := range a.Descriptions {
		langs = append(langs, d.Lang)
	}
	return langs
}

// ArtworkView is an artwork localized for a single language
type ArtworkView struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Author      string    `json:"author,omitempty"`
	Category    string    `json:"category,omitempty"`
	Date        string    `json:"date,omitempty"`
	Location    string    `json:"location,omitempty"`
	Room        string    `json:"room,omitempty"`
	ImageURL    string    `json:"image_url,omitempty"`
	AudioURL    string    `json:"audio_url,omitempty"`
	VideoURL    string    `json:"video_url,omitempty"`
	Model3DURL  string    `json:"model3d_url,omitempty"`
	Position    []float64 `json:"position,omitempty"`
	Details     Details   `json:"details"`
	Lang        string    `json:"lang"`
	Description string    `json:"description"`
	History     string    `json:"history,omitempty"`
	Languages   []string  `json:"languages"`
}

// Room groups the artworks hung in the same hall of the 3D museum
type Room struct {
	Name     string        `json:"name"`
	Artworks []ArtworkView `json:"artworks"`
}
