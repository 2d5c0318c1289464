package main

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/stasautomadic/templatesync"
	"github.com/stasautomadic/templatesync/internal/catalog"
	"github.com/stasautomadic/templatesync/internal/draft"
	"github.com/stasautomadic/templatesync/internal/preview"
	"github.com/stasautomadic/templatesync/internal/renderer"
	"github.com/stasautomadic/templatesync/internal/session"
	"github.com/stasautomadic/templatesync/internal/uploader"
)

// server is the HTTP facade over editing sessions: browsers create a session
// bound to a preview engine endpoint, then drive edits, catalog searches and
// renders through it.
type server struct {
	cfg      *templatesync.Config
	logger   *log.Logger
	sessions *session.Manager
	catalog  *catalog.Client
	uploads  *uploader.Client
	renders  *renderer.Client
	drafts   *draft.Store // nil when drafts are disabled

	mu   sync.RWMutex
	live map[string]*liveSession
}

// liveSession couples a session record with its editing core and preview
// connection.
type liveSession struct {
	record *session.Session
	core   *templatesync.Session
	conn   *preview.Client
}

func newServer(cfg *templatesync.Config, logger *log.Logger, drafts *draft.Store) *server {
	return &server{
		cfg:      cfg,
		logger:   logger,
		sessions: session.NewManager(24 * time.Hour),
		catalog:  catalog.New(cfg.CatalogBaseURL, cfg.CompanyID, catalog.WithLogger(logger)),
		uploads:  uploader.New(cfg.UploadURL),
		renders:  renderer.New(cfg.RenderURL),
		drafts:   drafts,
		live:     make(map[string]*liveSession),
	}
}

func (s *server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Post("/sessions", s.handleCreateSession)
	r.Route("/sessions/{id}", func(r chi.Router) {
		r.Delete("/", s.handleDeleteSession)
		r.Get("/bindings", s.handleBindings)
		r.Post("/edits", s.handleEdit)
		r.Post("/team", s.handleTeam)
		r.Post("/player", s.handlePlayer)
		r.Post("/sponsor", s.handleSponsor)
		r.Post("/previews", s.handleAttachPreview)
		r.Put("/previews/{key}", s.handleTogglePreview)
		r.Post("/render", s.handleRender)
		r.Get("/render", s.handleRenderState)
		r.Post("/render/download", s.handleDownload)
		r.Get("/stats", s.handleStats)
	})
	r.Get("/catalog/{resource}", s.handleCatalogSearch)
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	return r
}

func (s *server) lookup(r *http.Request) (*liveSession, bool) {
	id := chi.URLParam(r, "id")
	if _, ok := s.sessions.Get(id); !ok {
		return nil, false
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	ls, ok := s.live[id]
	return ls, ok
}

type createSessionRequest struct {
	TemplateID string `json:"templateId"`
	PreviewURL string `json:"previewUrl"`
}

func (s *server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.PreviewURL == "" {
		httpError(w, http.StatusBadRequest, "previewUrl is required")
		return
	}

	record := s.sessions.Create(s.cfg.CompanyID, req.TemplateID)

	conn, err := preview.Dial(r.Context(), req.PreviewURL,
		preview.WithLogger(s.logger),
		preview.WithStateFunc(func(elements []templatesync.Element) {
			s.onStateChange(record.ID, elements)
		}),
	)
	if err != nil {
		s.sessions.Delete(record.ID)
		httpError(w, http.StatusBadGateway, err.Error())
		return
	}

	core, err := templatesync.NewSession(conn,
		templatesync.WithSessionID(record.ID),
		templatesync.WithLogger(s.logger),
		templatesync.WithSeekLead(s.cfg.SeekLead()),
		templatesync.WithDebounceWindow(s.cfg.DebounceWindow()),
		templatesync.WithRenderer(s.renders),
	)
	if err != nil {
		conn.Close()
		s.sessions.Delete(record.ID)
		httpError(w, http.StatusInternalServerError, err.Error())
		return
	}

	ls := &liveSession{record: record, core: core, conn: conn}

	// Restore any saved draft before the first write goes out.
	if s.drafts != nil {
		mods, err := s.drafts.Load(r.Context(), record.ID)
		if err != nil {
			s.logger.Error("draft restore failed", "session", record.ID, "err", err)
		}
		for sel, val := range mods {
			core.Store().Set(sel, val)
		}
	}

	// Register before the initial load: the stateChanged event it triggers
	// must find the session, otherwise it comes up with no bindings.
	s.mu.Lock()
	s.live[record.ID] = ls
	s.mu.Unlock()

	if req.TemplateID != "" {
		if err := conn.LoadTemplate(r.Context(), req.TemplateID); err != nil {
			s.logger.Error("initial template load failed",
				"session", record.ID, "template", req.TemplateID, "err", err)
		}
	}

	writeJSON(w, http.StatusCreated, map[string]string{"sessionId": record.ID})
}

func (s *server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, ok := s.sessions.Get(id); !ok {
		httpError(w, http.StatusNotFound, "unknown session")
		return
	}

	s.sessions.Delete(id)
	s.dropLive(id)
	if s.drafts != nil {
		if err := s.drafts.Delete(r.Context(), id); err != nil {
			s.logger.Error("draft delete failed", "session", id, "err", err)
		}
	}
	w.WriteHeader(http.StatusNoContent)
}

// dropLive removes a session's live entry and closes every preview connection
// it holds, the attached secondaries included.
func (s *server) dropLive(id string) {
	s.mu.Lock()
	ls, ok := s.live[id]
	delete(s.live, id)
	s.mu.Unlock()
	if !ok {
		return
	}

	for _, t := range ls.core.Targets().All() {
		if c, ok := t.Instance.(io.Closer); ok {
			c.Close()
		}
	}
}

// reapExpired drops the live state of every session record the manager just
// expired. Without this the websocket connections and their read loops would
// outlive the records keying them.
func (s *server) reapExpired() {
	for _, id := range s.sessions.CleanupExpired() {
		s.dropLive(id)
		s.logger.Info("session expired", "session", id)
	}
}

// startCleanup launches the reap loop, ticking every interval until stop is
// closed.
func (s *server) startCleanup(interval time.Duration, stop <-chan struct{}) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				s.reapExpired()
			case <-stop:
				return
			}
		}
	}()
}

func (s *server) onStateChange(sessionID string, elements []templatesync.Element) {
	s.mu.RLock()
	ls, ok := s.live[sessionID]
	s.mu.RUnlock()
	if !ok {
		return
	}
	ls.core.HandleStateChange(elements)
}

func (s *server) autosave(sessionID string, core *templatesync.Session) {
	if s.drafts == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.drafts.Save(ctx, sessionID, core.Modifications()); err != nil {
		s.logger.Error("draft autosave failed", "session", sessionID, "err", err)
	}
}

func (s *server) handleBindings(w http.ResponseWriter, r *http.Request) {
	ls, ok := s.lookup(r)
	if !ok {
		httpError(w, http.StatusNotFound, "unknown session")
		return
	}

	type bindingView struct {
		SourceName  string `json:"sourceName"`
		Role        string `json:"role"`
		PlayerIndex int    `json:"playerIndex,omitempty"`
	}
	bindings := ls.core.Bindings()
	views := make([]bindingView, 0, len(bindings))
	for _, b := range bindings {
		views = append(views, bindingView{
			SourceName:  b.SourceName,
			Role:        b.Role.String(),
			PlayerIndex: b.PlayerIndex,
		})
	}
	writeJSON(w, http.StatusOK, views)
}

type editRequest struct {
	Selector string `json:"selector"`
	Value    string `json:"value"`
}

func (s *server) handleEdit(w http.ResponseWriter, r *http.Request) {
	ls, ok := s.lookup(r)
	if !ok {
		httpError(w, http.StatusNotFound, "unknown session")
		return
	}
	var req editRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Selector == "" {
		httpError(w, http.StatusBadRequest, "selector is required")
		return
	}

	outcomes := ls.core.ApplyEdit(r.Context(), req.Selector, req.Value)
	s.autosave(ls.record.ID, ls.core)
	writeOutcomes(w, outcomes)
}

type teamRequest struct {
	SourceName string `json:"sourceName"`
	Name       string `json:"name"`
	Logo       string `json:"logo"`
	LeagueID   string `json:"leagueId"`
}

func (s *server) handleTeam(w http.ResponseWriter, r *http.Request) {
	ls, ok := s.lookup(r)
	if !ok {
		httpError(w, http.StatusNotFound, "unknown session")
		return
	}
	var req teamRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	binding, ok := ls.core.Binding(req.SourceName)
	if !ok {
		httpError(w, http.StatusBadRequest, "no such binding")
		return
	}

	outcomes, err := ls.core.ApplyTeam(r.Context(), binding,
		templatesync.Team{Name: req.Name, Logo: req.Logo, LeagueID: req.LeagueID},
		func(ctx context.Context, leagueID string) (*templatesync.League, error) {
			l := s.catalog.League(ctx, leagueID)
			if l == nil {
				return nil, nil
			}
			return &templatesync.League{Name: l.Name, Logo: l.Logo}, nil
		})
	if err != nil {
		httpError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.autosave(ls.record.ID, ls.core)
	writeOutcomes(w, outcomes)
}

type playerRequest struct {
	SourceName        string `json:"sourceName"`
	Name              string `json:"name"`
	PositionAndNumber string `json:"positionAndNumber"`
	Image             string `json:"playerImage"`
}

func (s *server) handlePlayer(w http.ResponseWriter, r *http.Request) {
	ls, ok := s.lookup(r)
	if !ok {
		httpError(w, http.StatusNotFound, "unknown session")
		return
	}
	var req playerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	binding, ok := ls.core.Binding(req.SourceName)
	if !ok {
		httpError(w, http.StatusBadRequest, "no such binding")
		return
	}

	outcomes, err := ls.core.ApplyPlayer(r.Context(), binding, templatesync.Player{
		Name:              req.Name,
		PositionAndNumber: req.PositionAndNumber,
		Image:             req.Image,
	})
	if err != nil {
		httpError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.autosave(ls.record.ID, ls.core)
	writeOutcomes(w, outcomes)
}

type sponsorRequest struct {
	SourceName string `json:"sourceName"`
	Name       string `json:"name"`
	Logo       string `json:"logo"`
}

func (s *server) handleSponsor(w http.ResponseWriter, r *http.Request) {
	ls, ok := s.lookup(r)
	if !ok {
		httpError(w, http.StatusNotFound, "unknown session")
		return
	}
	var req sponsorRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	binding, ok := ls.core.Binding(req.SourceName)
	if !ok {
		httpError(w, http.StatusBadRequest, "no such binding")
		return
	}

	outcomes, err := ls.core.ApplySponsor(r.Context(), binding,
		templatesync.Sponsor{Name: req.Name, Logo: req.Logo}, s.uploads)
	if err != nil {
		// Upload failures are the user-visible kind: surface the message.
		httpError(w, http.StatusBadGateway, err.Error())
		return
	}
	s.autosave(ls.record.ID, ls.core)
	writeOutcomes(w, outcomes)
}

type attachPreviewRequest struct {
	Key        string `json:"key"`
	PreviewURL string `json:"previewUrl"`
}

func (s *server) handleAttachPreview(w http.ResponseWriter, r *http.Request) {
	ls, ok := s.lookup(r)
	if !ok {
		httpError(w, http.StatusNotFound, "unknown session")
		return
	}
	var req attachPreviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Key == "" || req.PreviewURL == "" {
		httpError(w, http.StatusBadRequest, "key and previewUrl are required")
		return
	}

	conn, err := preview.Dial(r.Context(), req.PreviewURL, preview.WithLogger(s.logger))
	if err != nil {
		httpError(w, http.StatusBadGateway, err.Error())
		return
	}
	if err := ls.core.AttachPreview(req.Key, conn); err != nil {
		conn.Close()
		httpError(w, http.StatusConflict, err.Error())
		return
	}
	w.WriteHeader(http.StatusCreated)
}

type togglePreviewRequest struct {
	Active bool `json:"active"`
}

func (s *server) handleTogglePreview(w http.ResponseWriter, r *http.Request) {
	ls, ok := s.lookup(r)
	if !ok {
		httpError(w, http.StatusNotFound, "unknown session")
		return
	}
	var req togglePreviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := ls.core.SetPreviewActive(chi.URLParam(r, "key"), req.Active); err != nil {
		httpError(w, http.StatusBadRequest, err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *server) handleCatalogSearch(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	pageNum := 0
	if p := r.URL.Query().Get("page"); p != "" {
		n, err := strconv.Atoi(p)
		if err != nil || n < 0 {
			httpError(w, http.StatusBadRequest, "invalid page")
			return
		}
		pageNum = n
	}

	type searchResponse struct {
		Records interface{} `json:"records"`
		HasMore bool        `json:"hasMore"`
	}

	// Empty pages marshal as [] rather than null, degraded lookups included.
	var resp searchResponse
	switch chi.URLParam(r, "resource") {
	case "teams":
		records, hasMore := s.catalog.SearchTeams(r.Context(), query, pageNum)
		if records == nil {
			records = []catalog.Team{}
		}
		resp.Records, resp.HasMore = records, hasMore
	case "players":
		records, hasMore := s.catalog.SearchPlayers(r.Context(), query, pageNum)
		if records == nil {
			records = []catalog.Player{}
		}
		resp.Records, resp.HasMore = records, hasMore
	case "sponsors":
		records, hasMore := s.catalog.SearchSponsors(r.Context(), query, pageNum)
		if records == nil {
			records = []catalog.Sponsor{}
		}
		resp.Records, resp.HasMore = records, hasMore
	case "images":
		records, hasMore := s.catalog.SearchImages(r.Context(), query, pageNum)
		if records == nil {
			records = []catalog.Image{}
		}
		resp.Records, resp.HasMore = records, hasMore
	default:
		httpError(w, http.StatusNotFound, "unknown catalog resource")
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *server) handleRender(w http.ResponseWriter, r *http.Request) {
	ls, ok := s.lookup(r)
	if !ok {
		httpError(w, http.StatusNotFound, "unknown session")
		return
	}
	url, err := ls.core.SubmitRender(r.Context())
	if err != nil {
		httpError(w, http.StatusBadGateway, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"url": url})
}

func (s *server) handleRenderState(w http.ResponseWriter, r *http.Request) {
	ls, ok := s.lookup(r)
	if !ok {
		httpError(w, http.StatusNotFound, "unknown session")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"state": ls.core.RenderState().String()})
}

func (s *server) handleDownload(w http.ResponseWriter, r *http.Request) {
	ls, ok := s.lookup(r)
	if !ok {
		httpError(w, http.StatusNotFound, "unknown session")
		return
	}
	url, err := ls.core.DownloadRender()
	if err != nil {
		httpError(w, http.StatusConflict, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"url": url})
}

func (s *server) handleStats(w http.ResponseWriter, r *http.Request) {
	ls, ok := s.lookup(r)
	if !ok {
		httpError(w, http.StatusNotFound, "unknown session")
		return
	}
	writeJSON(w, http.StatusOK, ls.core.Stats())
}

func writeOutcomes(w http.ResponseWriter, outcomes []templatesync.Outcome) {
	type outcomeView struct {
		Target string `json:"target"`
		Error  string `json:"error,omitempty"`
	}
	views := make([]outcomeView, 0, len(outcomes))
	for _, o := range outcomes {
		v := outcomeView{Target: o.Key}
		if o.Err != nil {
			v.Error = o.Err.Error()
		}
		views = append(views, v)
	}
	writeJSON(w, http.StatusOK, views)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func httpError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
