package server

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/neuromat/amparo/internal/listquery"
	"github.com/neuromat/amparo/internal/model"
	"github.com/neuromat/amparo/internal/text"
)

// listEnvelope is the pagination wrapper every collection endpoint
// returns: the items keyed by collection name plus the page counters.
func listEnvelope[T any](kind model.Kind, res listquery.Result[T]) map[string]interface{} {
	items := res.Items
	if items == nil {
		items = []T{}
	}
	return map[string]interface{}{
		string(kind):  items,
		"total":       res.Total,
		"page":        res.Page,
		"per_page":    res.PerPage,
		"total_pages": res.TotalPages,
	}
}

func listParams(r *http.Request) listquery.Query {
	return listquery.Query{
		Page:    queryInt(r, "page", 1),
		PerPage: queryInt(r, "per_page", listquery.GridPageSize),
	}
}

func urlID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	return id, err == nil && id > 0
}

// parseDate accepts the timestamp shapes the editor console sends.
func parseDate(value string) *time.Time {
	if value == "" {
		return nil
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04", "2006-01-02"} {
		if t, err := time.Parse(layout, value); err == nil {
			return &t
		}
	}
	return nil
}

// --- Palestras ---

func (s *Server) handleListPalestras(w http.ResponseWriter, r *http.Request) {
	palestras, err := s.db.GetPalestras(r.URL.Query().Get("subcategory"))
	if err != nil {
		log.Printf("List palestras error: %v", err)
		s.respondError(w, http.StatusInternalServerError, "Erro interno")
		return
	}
	for i := range palestras {
		fixupPalestra(&palestras[i])
	}
	res := listquery.Derive(palestras, listParams(r), model.Palestra.SearchFields)
	s.respondJSON(w, http.StatusOK, listEnvelope(model.KindPalestra, res))
}

func (s *Server) handleGetPalestra(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(r)
	if !ok {
		s.respondError(w, http.StatusNotFound, "Palestra não encontrada")
		return
	}
	p, err := s.db.GetPalestra(id)
	if err != nil {
		log.Printf("Get palestra error: %v", err)
		s.respondError(w, http.StatusInternalServerError, "Erro interno")
		return
	}
	if p == nil {
		s.respondError(w, http.StatusNotFound, "Palestra não encontrada")
		return
	}
	fixupPalestra(p)
	s.respondJSON(w, http.StatusOK, p)
}

type palestraPayload struct {
	Speaker       string   `json:"speaker"`
	Moderator     string   `json:"moderator"`
	Slug          string   `json:"slug"`
	Image         string   `json:"image"`
	Subcategory   string   `json:"subcategory"`
	Publish       *bool    `json:"publish"`
	Banner        *bool    `json:"banner"`
	Title         string   `json:"title"`
	Content       string   `json:"content"`
	DateTime      string   `json:"date_time"`
	ResumeSpeaker string   `json:"resume_speaker"`
	Affiliation   string   `json:"affiliation"`
	Videos        []string `json:"videos"`
}

func (p palestraPayload) toModel() *model.Palestra {
	publish := true
	if p.Publish != nil {
		publish = *p.Publish
	}
	banner := p.Banner != nil && *p.Banner
	slug := p.Slug
	if slug == "" {
		slug = text.Slugify(p.Title)
	}
	subcategory := p.Subcategory
	if subcategory == "" {
		subcategory = "palestras"
	}
	videos := make([]model.Video, 0, len(p.Videos))
	for _, url := range p.Videos {
		videos = append(videos, model.Video{Video: url})
	}
	return &model.Palestra{
		Slug:          slug,
		Speaker:       p.Speaker,
		Moderator:     p.Moderator,
		Image:         p.Image,
		Publish:       publish,
		Banner:        banner,
		Title:         p.Title,
		DateTime:      parseDate(p.DateTime),
		ResumeSpeaker: p.ResumeSpeaker,
		Affiliation:   p.Affiliation,
		Body:          p.Content,
		Subcategory:   subcategory,
		Videos:        videos,
	}
}

func (s *Server) handleCreatePalestra(w http.ResponseWriter, r *http.Request) {
	var req palestraPayload
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "Requisição inválida")
		return
	}
	if req.Title == "" {
		s.respondError(w, http.StatusBadRequest, "Título é obrigatório")
		return
	}
	id, err := s.db.CreatePalestra(req.toModel())
	if err != nil {
		log.Printf("Create palestra error: %v", err)
		s.respondError(w, http.StatusInternalServerError, "Erro interno")
		return
	}
	s.respondJSON(w, http.StatusCreated, map[string]interface{}{"message": "Palestra criada", "id": id})
}

func (s *Server) handleUpdatePalestra(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(r)
	if !ok {
		s.respondError(w, http.StatusNotFound, "Palestra não encontrada")
		return
	}
	var req palestraPayload
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "Requisição inválida")
		return
	}
	p := req.toModel()
	p.ID = id
	updated, err := s.db.UpdatePalestra(p)
	if err != nil {
		log.Printf("Update palestra error: %v", err)
		s.respondError(w, http.StatusInternalServerError, "Erro interno")
		return
	}
	if !updated {
		s.respondError(w, http.StatusNotFound, "Palestra não encontrada")
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]string{"message": "Palestra atualizada"})
}

func (s *Server) handleDeletePalestra(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(r)
	if !ok {
		s.respondError(w, http.StatusNotFound, "Palestra não encontrada")
		return
	}
	if err := s.db.DeletePalestra(id); err != nil {
		log.Printf("Delete palestra error: %v", err)
		s.respondError(w, http.StatusInternalServerError, "Erro interno")
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]string{"message": "Palestra deletada"})
}

// --- Exercícios ---

func (s *Server) handleListExercicios(w http.ResponseWriter, r *http.Request) {
	exercicios, err := s.db.GetExercicios(r.URL.Query().Get("subcategory"))
	if err != nil {
		log.Printf("List exercicios error: %v", err)
		s.respondError(w, http.StatusInternalServerError, "Erro interno")
		return
	}
	res := listquery.Derive(exercicios, listParams(r), model.Exercicio.SearchFields)
	s.respondJSON(w, http.StatusOK, listEnvelope(model.KindExercicio, res))
}

func (s *Server) handleGetExercicio(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(r)
	if !ok {
		s.respondError(w, http.StatusNotFound, "Exercício não encontrado")
		return
	}
	e, err := s.db.GetExercicio(id)
	if err != nil {
		log.Printf("Get exercicio error: %v", err)
		s.respondError(w, http.StatusInternalServerError, "Erro interno")
		return
	}
	if e == nil {
		s.respondError(w, http.StatusNotFound, "Exercício não encontrado")
		return
	}
	s.respondJSON(w, http.StatusOK, e)
}

type exercicioPayload struct {
	Mockup          bool     `json:"mockup"`
	Title           string   `json:"title"`
	Description     string   `json:"description"`
	Instructor      string   `json:"instructor"`
	DurationMinutes *int     `json:"duration_minutes"`
	DifficultyLevel string   `json:"difficulty_level"`
	Category        string   `json:"category"`
	Subcategory     string   `json:"subcategory"`
	VideoURL        string   `json:"video_url"`
	Thumbnail       string   `json:"thumbnail"`
	PublishedDate   string   `json:"published_date"`
	Tags            []string `json:"tags"`
	EquipmentNeeded []string `json:"equipment_needed"`
	Body            string   `json:"body"`
}

func (p exercicioPayload) toModel() *model.Exercicio {
	return &model.Exercicio{
		Mockup:          p.Mockup,
		Title:           p.Title,
		Description:     p.Description,
		Instructor:      p.Instructor,
		DurationMinutes: p.DurationMinutes,
		DifficultyLevel: p.DifficultyLevel,
		Category:        p.Category,
		Subcategory:     p.Subcategory,
		VideoURL:        p.VideoURL,
		Thumbnail:       p.Thumbnail,
		PublishedDate:   parseDate(p.PublishedDate),
		Tags:            p.Tags,
		EquipmentNeeded: p.EquipmentNeeded,
		Body:            p.Body,
	}
}

func (s *Server) handleCreateExercicio(w http.ResponseWriter, r *http.Request) {
	var req exercicioPayload
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "Requisição inválida")
		return
	}
	if req.Title == "" {
		s.respondError(w, http.StatusBadRequest, "Título é obrigatório")
		return
	}
	id, err := s.db.CreateExercicio(req.toModel())
	if err != nil {
		log.Printf("Create exercicio error: %v", err)
		s.respondError(w, http.StatusInternalServerError, "Erro interno")
		return
	}
	s.respondJSON(w, http.StatusCreated, map[string]interface{}{"message": "Exercício criado", "id": id})
}

func (s *Server) handleUpdateExercicio(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(r)
	if !ok {
		s.respondError(w, http.StatusNotFound, "Exercício não encontrado")
		return
	}
	var req exercicioPayload
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "Requisição inválida")
		return
	}
	e := req.toModel()
	e.ID = id
	updated, err := s.db.UpdateExercicio(e)
	if err != nil {
		log.Printf("Update exercicio error: %v", err)
		s.respondError(w, http.StatusInternalServerError, "Erro interno")
		return
	}
	if !updated {
		s.respondError(w, http.StatusNotFound, "Exercício não encontrado")
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]string{"message": "Exercício atualizado"})
}

func (s *Server) handleDeleteExercicio(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(r)
	if !ok {
		s.respondError(w, http.StatusNotFound, "Exercício não encontrado")
		return
	}
	if err := s.db.DeleteExercicio(id); err != nil {
		log.Printf("Delete exercicio error: %v", err)
		s.respondError(w, http.StatusInternalServerError, "Erro interno")
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]string{"message": "Exercício deletado"})
}

// --- Estudos ---

func (s *Server) handleListEstudos(w http.ResponseWriter, r *http.Request) {
	estudos, err := s.db.GetEstudos()
	if err != nil {
		log.Printf("List estudos error: %v", err)
		s.respondError(w, http.StatusInternalServerError, "Erro interno")
		return
	}
	res := listquery.Derive(estudos, listParams(r), model.Estudo.SearchFields)
	s.respondJSON(w, http.StatusOK, listEnvelope(model.KindEstudo, res))
}

func (s *Server) handleGetEstudo(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(r)
	if !ok {
		s.respondError(w, http.StatusNotFound, "Estudo não encontrado")
		return
	}
	e, err := s.db.GetEstudo(id)
	if err != nil {
		log.Printf("Get estudo error: %v", err)
		s.respondError(w, http.StatusInternalServerError, "Erro interno")
		return
	}
	if e == nil {
		s.respondError(w, http.StatusNotFound, "Estudo não encontrado")
		return
	}
	s.respondJSON(w, http.StatusOK, e)
}

type estudoPayload struct {
	Mockup             bool     `json:"mockup"`
	Title              string   `json:"title"`
	Description        string   `json:"description"`
	Author             string   `json:"author"`
	ContentType        string   `json:"content_type"`
	PublishedDate      string   `json:"published_date"`
	Category           string   `json:"category"`
	Tags               []string `json:"tags"`
	Body               string   `json:"body"`
	ExternalLink       string   `json:"external_link"`
	PDFFile            string   `json:"pdf_file"`
	ReadingTimeMinutes *int     `json:"reading_time_minutes"`
}

func (p estudoPayload) toModel() *model.Estudo {
	contentType := p.ContentType
	if contentType == "" {
		contentType = model.EstudoHTML
	}
	return &model.Estudo{
		Mockup:             p.Mockup,
		Title:              p.Title,
		Description:        p.Description,
		Author:             p.Author,
		ContentType:        contentType,
		PublishedDate:      parseDate(p.PublishedDate),
		Category:           p.Category,
		Tags:               p.Tags,
		Body:               p.Body,
		ExternalLink:       p.ExternalLink,
		PDFFile:            p.PDFFile,
		ReadingTimeMinutes: p.ReadingTimeMinutes,
	}
}

func (s *Server) handleCreateEstudo(w http.ResponseWriter, r *http.Request) {
	var req estudoPayload
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "Requisição inválida")
		return
	}
	if req.Title == "" {
		s.respondError(w, http.StatusBadRequest, "Título é obrigatório")
		return
	}
	id, err := s.db.CreateEstudo(req.toModel())
	if err != nil {
		log.Printf("Create estudo error: %v", err)
		s.respondError(w, http.StatusInternalServerError, "Erro interno")
		return
	}
	s.respondJSON(w, http.StatusCreated, map[string]interface{}{"message": "Estudo criado", "id": id})
}

func (s *Server) handleUpdateEstudo(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(r)
	if !ok {
		s.respondError(w, http.StatusNotFound, "Estudo não encontrado")
		return
	}
	var req estudoPayload
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "Requisição inválida")
		return
	}
	e := req.toModel()
	e.ID = id
	updated, err := s.db.UpdateEstudo(e)
	if err != nil {
		log.Printf("Update estudo error: %v", err)
		s.respondError(w, http.StatusInternalServerError, "Erro interno")
		return
	}
	if !updated {
		s.respondError(w, http.StatusNotFound, "Estudo não encontrado")
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]string{"message": "Estudo atualizado"})
}

func (s *Server) handleDeleteEstudo(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(r)
	if !ok {
		s.respondError(w, http.StatusNotFound, "Estudo não encontrado")
		return
	}
	if err := s.db.DeleteEstudo(id); err != nil {
		log.Printf("Delete estudo error: %v", err)
		s.respondError(w, http.StatusInternalServerError, "Erro interno")
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]string{"message": "Estudo deletado"})
}

// --- Cartilhas ---

func (s *Server) handleListCartilhas(w http.ResponseWriter, r *http.Request) {
	cartilhas, err := s.db.GetCartilhas()
	if err != nil {
		log.Printf("List cartilhas error: %v", err)
		s.respondError(w, http.StatusInternalServerError, "Erro interno")
		return
	}
	res := listquery.Derive(cartilhas, listParams(r), model.Cartilha.SearchFields)
	s.respondJSON(w, http.StatusOK, listEnvelope(model.KindCartilha, res))
}

func (s *Server) handleGetCartilha(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(r)
	if !ok {
		s.respondError(w, http.StatusNotFound, "Cartilha não encontrada")
		return
	}
	c, err := s.db.GetCartilha(id)
	if err != nil {
		log.Printf("Get cartilha error: %v", err)
		s.respondError(w, http.StatusInternalServerError, "Erro interno")
		return
	}
	if c == nil {
		s.respondError(w, http.StatusNotFound, "Cartilha não encontrada")
		return
	}
	s.respondJSON(w, http.StatusOK, c)
}

type cartilhaPayload struct {
	BlogPostID    int64    `json:"blog_post_id"`
	Title         string   `json:"title"`
	Description   string   `json:"description"`
	PDFFile       string   `json:"pdf_file"`
	Files         []string `json:"files"`
	PublishedDate string   `json:"published_date"`
	Speaker       string   `json:"speaker"`
	Affiliation   string   `json:"affiliation"`
	ResumeSpeaker string   `json:"resume_speaker"`
}

func (p cartilhaPayload) toModel() *model.Cartilha {
	pdf := p.PDFFile
	if pdf == "" && len(p.Files) > 0 {
		pdf = p.Files[0]
	}
	return &model.Cartilha{
		BlogPostID:    p.BlogPostID,
		Title:         p.Title,
		Description:   p.Description,
		PDFFile:       pdf,
		PublishedDate: parseDate(p.PublishedDate),
		Speaker:       p.Speaker,
		Affiliation:   p.Affiliation,
		ResumeSpeaker: p.ResumeSpeaker,
	}
}

func (s *Server) handleCreateCartilha(w http.ResponseWriter, r *http.Request) {
	var req cartilhaPayload
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "Requisição inválida")
		return
	}
	if req.Title == "" {
		s.respondError(w, http.StatusBadRequest, "Título é obrigatório")
		return
	}
	id, err := s.db.CreateCartilha(req.toModel())
	if err != nil {
		log.Printf("Create cartilha error: %v", err)
		s.respondError(w, http.StatusInternalServerError, "Erro interno")
		return
	}
	s.respondJSON(w, http.StatusCreated, map[string]interface{}{"message": "Cartilha criada", "id": id})
}

func (s *Server) handleUpdateCartilha(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(r)
	if !ok {
		s.respondError(w, http.StatusNotFound, "Cartilha não encontrada")
		return
	}
	var req cartilhaPayload
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "Requisição inválida")
		return
	}
	c := req.toModel()
	c.ID = id
	updated, err := s.db.UpdateCartilha(c)
	if err != nil {
		log.Printf("Update cartilha error: %v", err)
		s.respondError(w, http.StatusInternalServerError, "Erro interno")
		return
	}
	if !updated {
		s.respondError(w, http.StatusNotFound, "Cartilha não encontrada")
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]string{"message": "Cartilha atualizada"})
}

func (s *Server) handleDeleteCartilha(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(r)
	if !ok {
		s.respondError(w, http.StatusNotFound, "Cartilha não encontrada")
		return
	}
	if err := s.db.DeleteCartilha(id); err != nil {
		log.Printf("Delete cartilha error: %v", err)
		s.respondError(w, http.StatusInternalServerError, "Erro interno")
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]string{"message": "Cartilha deletada"})
}

// --- Display fallbacks ---

// fixupPalestra fills the display fallbacks applied to every palestra
// that leaves the API: a synthesized speaker name when the column is
// empty, a slug derived from the id, and the default subcategory.
func fixupPalestra(p *model.Palestra) {
	if p.Speaker == "" {
		p.Speaker = displaySpeaker(p.ResumeSpeaker, p.Affiliation)
	}
	if p.Slug == "" {
		p.Slug = fmt.Sprintf("palestra-%d", p.ID)
	}
	if p.Subcategory == "" {
		p.Subcategory = "palestras"
	}
	if p.Videos == nil {
		p.Videos = []model.Video{}
	}
}

// professions maps lowercase markers found in speaker bios to the
// title shown when no explicit speaker name was recorded. Longer
// variants come first so "professor doutor" wins over "professor".
var professions = []struct {
	marker string
	title  string
}{
	{"professor doutor", "Professor Doutor"},
	{"professora doutora", "Professora Doutora"},
	{"professor adjunto", "Professor Adjunto"},
	{"professora adjunta", "Professora Adjunta"},
	{"professor", "Professor"},
	{"professora", "Professora"},
	{"fisioterapeuta", "Fisioterapeuta"},
	{"enfermeira", "Enfermeira"},
	{"enfermeiro", "Enfermeiro"},
	{"fonoaudióloga", "Fonoaudióloga"},
	{"fonoaudiólogo", "Fonoaudiólogo"},
	{"psicóloga", "Psicóloga"},
	{"psicólogo", "Psicólogo"},
	{"terapeuta ocupacional", "Terapeuta Ocupacional"},
	{"nutricionista", "Nutricionista"},
	{"advogada", "Advogada"},
	{"advogado", "Advogado"},
	{"coordenadora", "Coordenadora"},
	{"coordenador", "Coordenador"},
	{"diretor técnico", "Diretor Técnico"},
	{"diretora técnica", "Diretora Técnica"},
}

// displaySpeaker derives a readable speaker label from the bio text
// and affiliation of talks recorded without a speaker name.
func displaySpeaker(resumeSpeaker, affiliation string) string {
	if resumeSpeaker == "" {
		if affiliation == "" {
			return "Palestrante"
		}
		return truncate(affiliation, 100)
	}

	lower := strings.ToLower(resumeSpeaker)
	for _, p := range professions {
		if strings.Contains(lower, p.marker) {
			if affiliation != "" && affiliation != "Palestrante" {
				return p.title + " - " + truncate(affiliation, 60)
			}
			return p.title
		}
	}

	if affiliation != "" {
		return truncate(affiliation, 100)
	}
	return "Palestrante"
}

func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max-3]) + "..."
}
