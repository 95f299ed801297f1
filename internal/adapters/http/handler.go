package httpadapter

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/krishisakhi/sakhi-agent/internal/app/advisory"
	"github.com/krishisakhi/sakhi-agent/internal/app/chatlog"
	"github.com/krishisakhi/sakhi-agent/internal/domain"
)

type Server struct {
	svc      *advisory.Service
	plots    domain.PlotStore
	profiles domain.ProfileStore
	messages domain.MessageStore
	signals  domain.SignalSource
}

func NewServer(
	svc *advisory.Service,
	plots domain.PlotStore,
	profiles domain.ProfileStore,
	messages domain.MessageStore,
	signals domain.SignalSource,
) http.Handler {
	s := &Server{
		svc:      svc,
		plots:    plots,
		profiles: profiles,
		messages: messages,
		signals:  signals,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", s.handleHealthz)

	// /api/chat → stateless advisory turn (POST)
	mux.HandleFunc("/api/chat", s.handleChat)

	// /api/plots              → GET: list, POST: create/update
	// /api/plots/{id}/...     → messages, accept-crop, dashboard, stream
	mux.HandleFunc("/api/plots", s.handlePlots)
	mux.HandleFunc("/api/plots/", s.handlePlotWithID)

	return chainMiddlewares(mux, withCORS, withRequestID, withLogging)
}

// ─────────────────────────────────────────────
// DTOs (request/response)
// ─────────────────────────────────────────────

type chatMessage struct {
	Text   string `json:"text"`
	IsUser bool   `json:"isUser"`
}

type chatRequest struct {
	Messages      []chatMessage `json:"messages"`
	PlotData      *plotPayload  `json:"plotData"`
	UserProfile   profileDTO    `json:"userProfile"`
	ImageData     string        `json:"imageData"`
	ImageMimeType string        `json:"imageMimeType"`
}

type chatResponse struct {
	Text string `json:"text"`
}

type profileDTO struct {
	Name     string `json:"name"`
	Language string `json:"language"`
}

type plotPayload struct {
	ID               string `json:"id,omitempty"`
	PlotName         string `json:"plotName"`
	Location         string `json:"location"`
	LandSize         string `json:"landSize"`
	IrrigationSource string `json:"irrigationSource"`
	SoilType         string `json:"soilType"`
	SoilPH           string `json:"soilPH"`
	Nitrogen         string `json:"nitrogen"`
	Phosphorus       string `json:"phosphorus"`
	Potassium        string `json:"potassium"`
	Crop             string `json:"crop"`
	SowingDate       string `json:"sowingDate"`
	PreviousCrop     string `json:"previousCrop"`
}

type messageResponse struct {
	ID                 string    `json:"id"`
	Text               string    `json:"text"`
	IsUser             bool      `json:"isUser"`
	Timestamp          time.Time `json:"timestamp"`
	ImageURL           string    `json:"imageUrl,omitempty"`
	IsUpdateSuggestion bool      `json:"isUpdateSuggestion,omitempty"`
	Crop               string    `json:"crop,omitempty"`
}

type sendMessageRequest struct {
	UserID        string `json:"user_id"`
	Text          string `json:"text"`
	ImageData     string `json:"image_data,omitempty"`
	ImageMimeType string `json:"image_mime_type,omitempty"`
}

type sendMessageResponse struct {
	UserMessage messageResponse   `json:"user_message"`
	Replies     []messageResponse `json:"replies"`
	Escalated   bool              `json:"escalated"`
}

type acceptCropRequest struct {
	UserID string `json:"user_id"`
	Crop   string `json:"crop"`
}

type savePlotRequest struct {
	UserID string      `json:"user_id"`
	Plot   plotPayload `json:"plot"`
}

type dashboardResponse struct {
	Location    string          `json:"location"`
	Weather     string          `json:"weather"`
	Alert       string          `json:"alert"`
	MandiPrices []mandiPriceDTO `json:"mandiPrices"`
	Scheme      string          `json:"scheme"`
}

type mandiPriceDTO struct {
	Crop  string `json:"crop"`
	Price string `json:"price"`
}

// ─────────────────────────────────────────────
// Basic routing
// ─────────────────────────────────────────────

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handlePlots(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.handleListPlots(w, r)
	case http.MethodPost:
		s.handleSavePlot(w, r)
	default:
		methodNotAllowed(w)
	}
}

// /api/plots/{id}/{action}
func (s *Server) handlePlotWithID(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/plots/")
	parts := strings.Split(path, "/")
	if len(parts) != 2 || parts[0] == "" {
		http.NotFound(w, r)
		return
	}
	plotID := domain.PlotID(parts[0])

	switch parts[1] {
	case "messages":
		switch r.Method {
		case http.MethodGet:
			s.handleListMessages(w, r, plotID)
		case http.MethodPost:
			s.handleSendMessage(w, r, plotID)
		default:
			methodNotAllowed(w)
		}
	case "accept-crop":
		if r.Method != http.MethodPost {
			methodNotAllowed(w)
			return
		}
		s.handleAcceptCrop(w, r, plotID)
	case "dashboard":
		if r.Method != http.MethodGet {
			methodNotAllowed(w)
			return
		}
		s.handleDashboard(w, r, plotID)
	case "stream":
		s.handleStream(w, r, plotID)
	default:
		http.NotFound(w, r)
	}
}

// ─────────────────────────────────────────────
// Concrete handlers
// ─────────────────────────────────────────────

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}

	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "invalid JSON body")
		return
	}
	if len(req.Messages) == 0 {
		badRequest(w, "messages is required")
		return
	}

	latest := req.Messages[len(req.Messages)-1].Text

	image, err := decodeImage(req.ImageData, req.ImageMimeType)
	if err != nil {
		badRequest(w, "invalid image payload")
		return
	}

	history := make([]*domain.Message, 0, len(req.Messages))
	for _, m := range req.Messages {
		author := domain.RoleAdvisor
		if m.IsUser {
			author = domain.RoleFarmer
		}
		history = append(history, &domain.Message{Author: author, Text: m.Text})
	}

	text, err := s.svc.Advise(r.Context(), advisory.TurnInput{
		Profile: domain.UserProfile{
			Name:     req.UserProfile.Name,
			Language: domain.Language(req.UserProfile.Language),
		},
		Plot:    toPlot("", req.PlotData),
		History: history,
		Text:    latest,
		Image:   image,
	})
	if err != nil {
		writeModelError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, chatResponse{Text: text})
}

func (s *Server) handleListPlots(w http.ResponseWriter, r *http.Request) {
	userID := domain.UserID(r.URL.Query().Get("user_id"))
	if userID == "" {
		badRequest(w, "user_id is required")
		return
	}

	plots, err := s.plots.ListPlots(r.Context(), userID)
	if err != nil {
		internalError(w)
		return
	}

	out := make([]plotPayload, 0, len(plots))
	for _, p := range plots {
		out = append(out, fromPlot(p))
	}
	writeJSON(w, http.StatusOK, map[string][]plotPayload{"plots": out})
}

func (s *Server) handleSavePlot(w http.ResponseWriter, r *http.Request) {
	var req savePlotRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "invalid JSON body")
		return
	}
	if req.UserID == "" || req.Plot.PlotName == "" {
		badRequest(w, "user_id and plot.plotName are required")
		return
	}

	plot := toPlot(domain.UserID(req.UserID), &req.Plot)
	if err := s.plots.SavePlot(r.Context(), plot); err != nil {
		internalError(w)
		return
	}

	writeJSON(w, http.StatusCreated, fromPlot(plot))
}

func (s *Server) handleListMessages(w http.ResponseWriter, r *http.Request, plotID domain.PlotID) {
	userID := domain.UserID(r.URL.Query().Get("user_id"))
	if userID == "" {
		badRequest(w, "user_id is required")
		return
	}

	msgs, err := chatlog.New(s.messages).History(r.Context(), userID, plotID)
	if err != nil {
		internalError(w)
		return
	}

	writeJSON(w, http.StatusOK, map[string][]messageResponse{"messages": toMessagesResponse(msgs)})
}

func (s *Server) handleSendMessage(w http.ResponseWriter, r *http.Request, plotID domain.PlotID) {
	var req sendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "invalid JSON body")
		return
	}
	if req.UserID == "" {
		badRequest(w, "user_id is required")
		return
	}
	if strings.TrimSpace(req.Text) == "" && req.ImageData == "" {
		badRequest(w, "text or image is required")
		return
	}

	image, err := decodeImage(req.ImageData, req.ImageMimeType)
	if err != nil {
		badRequest(w, "invalid image payload")
		return
	}

	out, err := s.svc.Send(r.Context(), advisory.SendInput{
		UserID: domain.UserID(req.UserID),
		PlotID: plotID,
		Text:   req.Text,
		Image:  image,
	})
	if err != nil {
		if errors.Is(err, domain.ErrPlotNotFound) || errors.Is(err, domain.ErrProfileNotFound) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
			return
		}
		writeModelError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, sendMessageResponse{
		UserMessage: toMessageResponse(out.UserMessage),
		Replies:     toMessagesResponse(out.Replies),
		Escalated:   out.Escalated,
	})
}

func (s *Server) handleAcceptCrop(w http.ResponseWriter, r *http.Request, plotID domain.PlotID) {
	var req acceptCropRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "invalid JSON body")
		return
	}
	if req.UserID == "" || strings.TrimSpace(req.Crop) == "" {
		badRequest(w, "user_id and crop are required")
		return
	}

	confirmation, err := s.svc.AcceptUpdate(r.Context(), domain.UserID(req.UserID), plotID, req.Crop)
	if err != nil {
		if errors.Is(err, domain.ErrPlotNotFound) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "plot not found"})
			return
		}
		internalError(w)
		return
	}

	writeJSON(w, http.StatusOK, toMessageResponse(confirmation))
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request, plotID domain.PlotID) {
	userID := domain.UserID(r.URL.Query().Get("user_id"))
	if userID == "" {
		badRequest(w, "user_id is required")
		return
	}

	plot, err := s.plots.GetPlot(r.Context(), userID, plotID)
	if err != nil {
		if errors.Is(err, domain.ErrPlotNotFound) {
			http.NotFound(w, r)
			return
		}
		internalError(w)
		return
	}

	report := s.signals.Report(plot.Location)
	prices := make([]mandiPriceDTO, 0, len(report.MandiPrices))
	for _, p := range report.MandiPrices {
		prices = append(prices, mandiPriceDTO{Crop: p.Crop, Price: p.Price})
	}

	writeJSON(w, http.StatusOK, dashboardResponse{
		Location:    plot.Location,
		Weather:     report.Weather,
		Alert:       report.Alert,
		MandiPrices: prices,
		Scheme:      report.Scheme,
	})
}

// ─────────────────────────────────────────────
// Mapping helpers
// ─────────────────────────────────────────────

func decodeImage(data, mimeType string) (*domain.ImageAttachment, error) {
	if data == "" {
		return nil, nil
	}
	raw, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		return nil, err
	}
	return &domain.ImageAttachment{Data: raw, MIMEType: mimeType}, nil
}

func toPlot(userID domain.UserID, p *plotPayload) *domain.Plot {
	if p == nil {
		return nil
	}
	plot := &domain.Plot{
		ID:               domain.PlotID(p.ID),
		UserID:           userID,
		Name:             p.PlotName,
		Location:         p.Location,
		LandSize:         p.LandSize,
		IrrigationSource: p.IrrigationSource,
		SoilType:         p.SoilType,
		SoilPH:           p.SoilPH,
		Nitrogen:         p.Nitrogen,
		Phosphorus:       p.Phosphorus,
		Potassium:        p.Potassium,
		Crop:             p.Crop,
		PreviousCrop:     p.PreviousCrop,
	}
	if p.SowingDate != "" {
		if t, err := time.Parse("2006-01-02", p.SowingDate); err == nil {
			plot.SowingDate = &t
		}
	}
	return plot
}

func fromPlot(p *domain.Plot) plotPayload {
	out := plotPayload{
		ID:               string(p.ID),
		PlotName:         p.Name,
		Location:         p.Location,
		LandSize:         p.LandSize,
		IrrigationSource: p.IrrigationSource,
		SoilType:         p.SoilType,
		SoilPH:           p.SoilPH,
		Nitrogen:         p.Nitrogen,
		Phosphorus:       p.Phosphorus,
		Potassium:        p.Potassium,
		Crop:             p.Crop,
		PreviousCrop:     p.PreviousCrop,
	}
	if p.SowingDate != nil {
		out.SowingDate = p.SowingDate.Format("2006-01-02")
	}
	return out
}

func toMessageResponse(m *domain.Message) messageResponse {
	return messageResponse{
		ID:                 string(m.ID),
		Text:               m.Text,
		IsUser:             m.Author == domain.RoleFarmer,
		Timestamp:          m.CreatedAt,
		ImageURL:           m.ImageURL,
		IsUpdateSuggestion: m.UpdateSuggestion,
		Crop:               m.Crop,
	}
}

func toMessagesResponse(msgs []*domain.Message) []messageResponse {
	out := make([]messageResponse, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, toMessageResponse(m))
	}
	return out
}

// ─────────────────────────────────────────────
// HTTP Helpers
// ─────────────────────────────────────────────

// writeModelError maps invocation failures per the API contract: 503
// with the "very busy" message after retry exhaustion, 500 otherwise.
func writeModelError(w http.ResponseWriter, err error) {
	if errors.Is(err, domain.ErrModelUnavailable) {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"error": advisory.BusyMessage,
		})
		return
	}
	writeJSON(w, http.StatusInternalServerError, map[string]string{
		"error": "Failed to get a response from the AI. Please check your connection.",
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func badRequest(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusBadRequest, map[string]string{
		"error": msg,
	})
}

func internalError(w http.ResponseWriter) {
	writeJSON(w, http.StatusInternalServerError, map[string]string{
		"error": "internal server error",
	})
}

func methodNotAllowed(w http.ResponseWriter) {
	writeJSON(w, http.StatusMethodNotAllowed, map[string]string{
		"error": "method not allowed",
	})
}
