// Package model defines shared data structures.
package model

import "time"

// Kind identifies one of the four content collections.
type Kind string

const (
	KindPalestra  Kind = "palestras"
	KindExercicio Kind = "exercicios"
	KindEstudo    Kind = "estudos"
	KindCartilha  Kind = "cartilhas"
)

// Kinds lists every content kind in a stable order.
var Kinds = []Kind{KindPalestra, KindExercicio, KindEstudo, KindCartilha}

// Valid reports whether k names a known collection.
func (k Kind) Valid() bool {
	switch k {
	case KindPalestra, KindExercicio, KindEstudo, KindCartilha:
		return true
	}
	return false
}

// Video is a single lecture video attached to a palestra.
type Video struct {
	ID         int64  `json:"id"`
	Video      string `json:"video"`
	BlogPostID int64  `json:"blog_post_id,omitempty"`
}

// Palestra is a recorded talk with its translated text and videos.
// Body is opaque HTML authored in the editor console; it is stored
// and served verbatim.
type Palestra struct {
	ID            int64      `json:"id"`
	Slug          string     `json:"slug"`
	Speaker       string     `json:"speaker"`
	Moderator     string     `json:"moderator"`
	Image         string     `json:"image"`
	Publish       bool       `json:"publish"`
	Banner        bool       `json:"banner"`
	Title         string     `json:"title"`
	DateTime      *time.Time `json:"date_time"`
	ResumeSpeaker string     `json:"resume_speaker"`
	Affiliation   string     `json:"affiliation"`
	Body          string     `json:"body"`
	Subcategory   string     `json:"subcategory"`
	Videos        []Video    `json:"videos"`
}

// SearchFields returns the free-text searchable fields of a palestra.
func (p Palestra) SearchFields() []string {
	return []string{p.Title, p.Speaker, p.Affiliation}
}

// Exercicio is a practice-exercise video entry.
type Exercicio struct {
	ID              int64      `json:"id"`
	Mockup          bool       `json:"mockup"`
	Title           string     `json:"title"`
	Description     string     `json:"description"`
	Instructor      string     `json:"instructor"`
	DurationMinutes *int       `json:"duration_minutes"`
	DifficultyLevel string     `json:"difficulty_level"`
	Category        string     `json:"category"`
	Subcategory     string     `json:"subcategory"`
	VideoURL        string     `json:"video_url"`
	Thumbnail       string     `json:"thumbnail"`
	PublishedDate   *time.Time `json:"published_date"`
	Tags            []string   `json:"tags"`
	EquipmentNeeded []string   `json:"equipment_needed"`
	Body            string     `json:"body"`
}

// SearchFields returns the free-text searchable fields of an exercício.
func (e Exercicio) SearchFields() []string {
	return []string{e.Title, e.Instructor, e.Category, e.DifficultyLevel}
}

// Values for Estudo.ContentType.
const (
	EstudoHTML     = "html"
	EstudoPDF      = "pdf"
	EstudoExternal = "external_link"
	EstudoVideo    = "video"
)

// Estudo is a scientific study reference (inline HTML, PDF, link or video).
type Estudo struct {
	ID                 int64      `json:"id"`
	Mockup             bool       `json:"mockup"`
	Title              string     `json:"title"`
	Description        string     `json:"description"`
	Author             string     `json:"author"`
	ContentType        string     `json:"content_type"`
	PublishedDate      *time.Time `json:"published_date"`
	Category           string     `json:"category"`
	Tags               []string   `json:"tags"`
	Body               string     `json:"body"`
	ExternalLink       string     `json:"external_link"`
	PDFFile            string     `json:"pdf_file"`
	ReadingTimeMinutes *int       `json:"reading_time_minutes"`
}

// SearchFields returns the free-text searchable fields of an estudo.
func (e Estudo) SearchFields() []string {
	return []string{e.Title, e.Author, e.Category}
}

// Cartilha is a downloadable pamphlet (PDF) attached to a blog post.
type Cartilha struct {
	ID            int64      `json:"id"`
	BlogPostID    int64      `json:"blog_post_id"`
	Title         string     `json:"title"`
	Description   string     `json:"description"`
	PDFFile       string     `json:"pdf_file"`
	PublishedDate *time.Time `json:"published_date"`
	Speaker       string     `json:"speaker"`
	Affiliation   string     `json:"affiliation"`
	ResumeSpeaker string     `json:"resume_speaker,omitempty"`
}

// SearchFields returns the free-text searchable fields of a cartilha.
func (c Cartilha) SearchFields() []string {
	return []string{c.Title, c.Speaker, c.Affiliation}
}

// LatestVideo is one entry of the merged recent-videos feed.
type LatestVideo struct {
	ID       int64  `json:"id"`
	Title    string `json:"title"`
	Speaker  string `json:"speaker"`
	Date     string `json:"date"`
	VideoURL string `json:"video_url"`
	Source   string `json:"source"`
	Link     string `json:"link"`
}

// Page is a static site page.
type Page struct {
	ID       int64  `json:"id"`
	Slug     string `json:"slug"`
	HomePage bool   `json:"home_page"`
	Enabled  bool   `json:"enabled"`
	Title    string `json:"title"`
	Summary  string `json:"summary"`
	Body     string `json:"body"`
}

// Stats aggregates content and user counts for the dashboard.
type Stats struct {
	TotalUsuarios   int            `json:"total_usuarios"`
	TotalPalestras  int            `json:"total_palestras"`
	TotalVideos     int            `json:"total_videos"`
	TotalExercicios int            `json:"total_exercicios"`
	TotalEstudos    int            `json:"total_estudos"`
	TotalCartilhas  int            `json:"total_cartilhas"`
	TotalConteudos  int            `json:"total_conteudos"`
	UsuariosPorTipo map[string]int `json:"usuarios_por_tipo,omitempty"`
}
