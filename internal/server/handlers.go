package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"github.com/matheuskafuri/quill/internal/collection"
	"github.com/matheuskafuri/quill/internal/comment"
	"github.com/matheuskafuri/quill/internal/content"
	"github.com/matheuskafuri/quill/internal/metrics"
	"github.com/matheuskafuri/quill/internal/post"
	"github.com/matheuskafuri/quill/internal/related"
	"github.com/matheuskafuri/quill/internal/sidebar"
	"github.com/matheuskafuri/quill/internal/store"
)

const (
	maxRelated     = 20
	maxCommentBody = 64 << 10
)

// postView is a post as served by the API, with its reading time.
type postView struct {
	post.Post
	ReadingTime int `json:"reading_time"`
}

func viewOf(p post.Post) postView {
	return postView{Post: p, ReadingTime: content.ReadingTime(p.Content)}
}

func viewsOf(posts []post.Post) []postView {
	out := make([]postView, len(posts))
	for i, p := range posts {
		out[i] = viewOf(p)
	}
	return out
}

type pagination struct {
	Total      int                   `json:"total"`
	TotalPages int                   `json:"total_pages"`
	Page       int                   `json:"page"`
	PageSize   int                   `json:"page_size"`
	From       int                   `json:"from"`
	To         int                   `json:"to"`
	HasNext    bool                  `json:"has_next"`
	HasPrev    bool                  `json:"has_prev"`
	Links      []collection.PageLink `json:"links"`
}

type listResponse struct {
	Posts      []postView `json:"posts"`
	Pagination pagination `json:"pagination"`
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"version":   s.version,
		"timestamp": time.Now().Unix(),
	})
}

func (s *Server) published() ([]post.Post, error) {
	return s.store.Posts(store.QueryOpts{Status: post.Published})
}

func (s *Server) listPostsHandler(w http.ResponseWriter, r *http.Request) {
	params, err := s.viewParams(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	pool, err := s.published()
	if err != nil {
		s.internalError(w, r, err)
		return
	}

	page := collection.View(pool, params)
	metrics.RecordComputation("list", len(pool))

	writeJSON(w, http.StatusOK, listResponse{
		Posts: viewsOf(page.Posts),
		Pagination: pagination{
			Total:      page.Total,
			TotalPages: page.TotalPages,
			Page:       page.Page,
			PageSize:   page.PageSize,
			From:       page.From,
			To:         page.To,
			HasNext:    page.HasNext(),
			HasPrev:    page.HasPrev(),
			Links:      collection.PageWindow(page.Page, page.TotalPages, collection.DefaultVisiblePages),
		},
	})
}

func (s *Server) viewParams(r *http.Request) (collection.ViewParams, error) {
	q := r.URL.Query()
	params := collection.ViewParams{
		Search:   q.Get("q"),
		Category: q.Get("category"),
		PageSize: s.pageSize,
	}

	for _, raw := range q["tag"] {
		for _, t := range strings.Split(raw, ",") {
			if t = strings.TrimSpace(t); t != "" {
				params.Tags = append(params.Tags, t)
			}
		}
	}

	var err error
	if params.Sort, err = collection.ParseSortField(q.Get("sort")); err != nil {
		return params, err
	}
	if params.Order, err = collection.ParseSortOrder(q.Get("order")); err != nil {
		return params, err
	}
	if params.Page, err = intParam(q.Get("page"), 1); err != nil {
		return params, fmt.Errorf("invalid page: %w", err)
	}
	if v := q.Get("page_size"); v != "" {
		if params.PageSize, err = intParam(v, s.pageSize); err != nil {
			return params, fmt.Errorf("invalid page_size: %w", err)
		}
	}
	return params, nil
}

func intParam(v string, def int) (int, error) {
	if v == "" {
		return def, nil
	}
	return strconv.Atoi(v)
}

// publishedBySlug loads a post by slug. Unpublished posts are reported as
// missing.
func (s *Server) publishedBySlug(w http.ResponseWriter, r *http.Request) (post.Post, bool) {
	slug := mux.Vars(r)["slug"]
	p, err := s.store.PostBySlug(slug)
	if errors.Is(err, store.ErrNotFound) || (err == nil && !p.IsPublished()) {
		writeError(w, http.StatusNotFound, fmt.Sprintf("post %q not found", slug))
		return post.Post{}, false
	}
	if err != nil {
		s.internalError(w, r, err)
		return post.Post{}, false
	}
	return p, true
}

func (s *Server) getPostHandler(w http.ResponseWriter, r *http.Request) {
	p, ok := s.publishedBySlug(w, r)
	if !ok {
		return
	}

	views, err := s.store.IncrementViews(p.ID)
	if err != nil {
		s.logger.Warn("incrementing views failed", "post", p.ID, "error", err)
	} else {
		p.ViewCount = views
	}
	writeJSON(w, http.StatusOK, viewOf(p))
}

func (s *Server) relatedHandler(w http.ResponseWriter, r *http.Request) {
	ref, ok := s.publishedBySlug(w, r)
	if !ok {
		return
	}

	limit, err := intParam(r.URL.Query().Get("limit"), s.relatedCount)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid limit: "+err.Error())
		return
	}
	limit = min(limit, maxRelated)

	pool, err := s.published()
	if err != nil {
		s.internalError(w, r, err)
		return
	}
	metrics.RecordComputation("related", len(pool))

	if explain, _ := strconv.ParseBool(r.URL.Query().Get("explain")); explain {
		scored := related.RankScored(ref, pool, limit, s.now())
		if scored == nil {
			scored = []related.Scored{}
		}
		writeJSON(w, http.StatusOK, map[string]any{"posts": scored})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"posts": viewsOf(related.Rank(ref, pool, limit, s.now())),
	})
}

func (s *Server) listCommentsHandler(w http.ResponseWriter, r *http.Request) {
	p, ok := s.publishedBySlug(w, r)
	if !ok {
		return
	}

	comments, err := s.store.Comments(store.CommentQuery{PostID: p.ID, Status: post.CommentApproved})
	if err != nil {
		s.internalError(w, r, err)
		return
	}
	thread := comment.Thread(comments)
	if thread == nil {
		thread = []comment.Node{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"comments": thread,
		"count":    comment.Count(thread),
	})
}

type commentRequest struct {
	AuthorName  string `json:"author_name"`
	AuthorEmail string `json:"author_email"`
	Content     string `json:"content"`
	ParentID    string `json:"parent_id"`
}

func (s *Server) createCommentHandler(w http.ResponseWriter, r *http.Request) {
	p, ok := s.publishedBySlug(w, r)
	if !ok {
		return
	}

	var req commentRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxCommentBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		metrics.RecordComment("invalid")
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	c := post.Comment{
		PostID:      p.ID,
		ParentID:    strings.TrimSpace(req.ParentID),
		AuthorName:  strings.TrimSpace(req.AuthorName),
		AuthorEmail: strings.TrimSpace(req.AuthorEmail),
		Content:     strings.TrimSpace(req.Content),
		Status:      post.CommentPending,
	}
	if err := comment.Validate(c); err != nil {
		metrics.RecordComment("invalid")
		var ve *comment.ValidationError
		if errors.As(err, &ve) {
			writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
				"error":  err.Error(),
				"fields": ve.Fields,
			})
			return
		}
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	saved, err := s.store.AddComment(c)
	switch {
	case errors.Is(err, store.ErrInvalidParent):
		metrics.RecordComment("invalid")
		writeError(w, http.StatusBadRequest, err.Error())
		return
	case err != nil:
		s.internalError(w, r, err)
		return
	}

	metrics.RecordComment("accepted")
	writeJSON(w, http.StatusCreated, map[string]any{
		"comment": saved,
		"message": "comment submitted for moderation",
	})
}

func (s *Server) sidebarHandler(w http.ResponseWriter, r *http.Request) {
	pool, err := s.published()
	if err != nil {
		s.internalError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sidebar.Build(pool, sidebar.Options{}))
}

func (s *Server) categoriesHandler(w http.ResponseWriter, r *http.Request) {
	cats, err := s.store.Categories()
	if err != nil {
		s.internalError(w, r, err)
		return
	}
	if cats == nil {
		cats = []post.Category{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"categories": cats})
}

func (s *Server) tagsHandler(w http.ResponseWriter, r *http.Request) {
	tags, err := s.store.Tags()
	if err != nil {
		s.internalError(w, r, err)
		return
	}
	if tags == nil {
		tags = []post.Tag{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"tags": tags})
}

func (s *Server) internalError(w http.ResponseWriter, r *http.Request, err error) {
	s.logger.Error("request failed",
		"request_id", RequestID(r.Context()),
		"path", r.URL.Path,
		"error", err,
	)
	writeError(w, http.StatusInternalServerError, "internal server error")
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
