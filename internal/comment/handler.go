package comment

import (
	"context"
	"errors"
	"log/slog"

	"github.com/hyperlocaleyes/backend/core/binder"
	"github.com/hyperlocaleyes/backend/core/handler"
	"github.com/hyperlocaleyes/backend/core/logger"
	"github.com/hyperlocaleyes/backend/core/response"
	"github.com/hyperlocaleyes/backend/core/router"
	"github.com/hyperlocaleyes/backend/middleware"
)

// RoleAdmin may edit and delete any comment.
const RoleAdmin = "admin"

// DefaultRepliesLimit caps a replies page when the client sets no limit.
const DefaultRepliesLimit = 50

// Handler serves the comments API.
type Handler[C handler.Context] struct {
	store     Store
	formatter response.Formatter
	log       *slog.Logger
}

// NewHandler returns a Handler backed by store.
func NewHandler[C handler.Context](store Store, formatter response.Formatter, log *slog.Logger) *Handler[C] {
	if log == nil {
		log = logger.Nop()
	}
	return &Handler[C]{
		store:     store,
		formatter: formatter,
		log:       log.With(logger.Component("comments")),
	}
}

// Mount registers the routes under /api/comments. Reading replies is public;
// every other route runs behind protect.
func (h *Handler[C]) Mount(r router.Router[C], protect ...handler.Middleware[C]) {
	r.Route("/api/comments", func(r router.Router[C]) {
		r.Get("/{id}/replies", h.Replies)

		r.Group(func(r router.Router[C]) {
			r.Use(protect...)
			r.Post("/{postId}", h.Create)
			r.Put("/{id}", h.Update)
			r.Delete("/{id}", h.Delete)
			r.Put("/like/{id}", h.Like)
			r.Put("/unlike/{id}", h.Unlike)
		})
	})
}

type createRequest struct {
	PostID        string `json:"postId" path:"postId" validate:"required;hex:24"`
	Content       string `json:"content" validate:"required;max:500"`
	ParentComment string `json:"parentComment" validate:"hex:24"`
}

type updateRequest struct {
	ID      string `json:"id" path:"id" validate:"required;hex:24"`
	Content string `json:"content" validate:"required;max:500"`
}

type idRequest struct {
	ID string `json:"id" path:"id" validate:"required;hex:24"`
}

type repliesRequest struct {
	ID    string `json:"id" path:"id" validate:"required;hex:24"`
	Page  int    `json:"page" query:"page" validate:"min:1"`
	Limit int    `json:"limit" query:"limit" validate:"min:1;max:100"`
}

// Create adds a comment to a post, optionally as a reply.
func (h *Handler[C]) Create(ctx C) handler.Response {
	p, ok := middleware.GetPrincipal(ctx)
	if !ok {
		return response.Error(response.ErrUnauthorized)
	}

	var req createRequest
	if err := binder.Bind(ctx.Request(), &req, binder.JSON(), binder.Path()); err != nil {
		return response.Error(err)
	}

	c := &Comment{
		Content:       req.Content,
		Author:        p.UserID,
		Post:          req.PostID,
		ParentComment: req.ParentComment,
	}
	if err := h.store.Create(ctx, c); err != nil {
		if errors.Is(err, ErrParentNotFound) {
			return response.Error(response.ErrNotFound.WithMessage(
				"Comment not found with id of " + req.ParentComment))
		}
		return response.Error(err)
	}

	h.log.InfoContext(ctx, "comment created",
		logger.Event("comment_created"),
		logger.UserID(p.UserID),
		slog.String("comment_id", c.ID),
	)
	return h.formatter.Created(c, "")
}

// Update replaces the content of a comment owned by the caller.
func (h *Handler[C]) Update(ctx C) handler.Response {
	var req updateRequest
	if err := binder.Bind(ctx.Request(), &req, binder.JSON(), binder.Path()); err != nil {
		return response.Error(err)
	}
	if _, err := h.owned(ctx, req.ID, "update"); err != nil {
		return response.Error(err)
	}

	c, err := h.store.Update(ctx, req.ID, req.Content)
	if err != nil {
		return response.Error(h.storeError(err, req.ID))
	}
	return h.formatter.OK(c, "")
}

// Delete removes a comment owned by the caller along with its replies.
func (h *Handler[C]) Delete(ctx C) handler.Response {
	var req idRequest
	if err := binder.Bind(ctx.Request(), &req, binder.Path()); err != nil {
		return response.Error(err)
	}
	p, err := h.owned(ctx, req.ID, "delete")
	if err != nil {
		return response.Error(err)
	}

	if err := h.store.Delete(ctx, req.ID); err != nil {
		return response.Error(h.storeError(err, req.ID))
	}

	h.log.InfoContext(ctx, "comment deleted",
		logger.Event("comment_deleted"),
		logger.UserID(p.UserID),
		slog.String("comment_id", req.ID),
	)
	return h.formatter.OK(struct{}{}, "")
}

// Like adds the caller to the likes of a comment.
func (h *Handler[C]) Like(ctx C) handler.Response {
	return h.likes(ctx, h.store.Like)
}

// Unlike removes the caller from the likes of a comment.
func (h *Handler[C]) Unlike(ctx C) handler.Response {
	return h.likes(ctx, h.store.Unlike)
}

func (h *Handler[C]) likes(ctx C, apply func(ctx context.Context, id, userID string) ([]string, error)) handler.Response {
	p, ok := middleware.GetPrincipal(ctx)
	if !ok {
		return response.Error(response.ErrUnauthorized)
	}

	var req idRequest
	if err := binder.Bind(ctx.Request(), &req, binder.Path()); err != nil {
		return response.Error(err)
	}

	likes, err := apply(ctx, req.ID, p.UserID)
	if err != nil {
		return response.Error(h.storeError(err, req.ID))
	}
	return h.formatter.OK(likes, "")
}

// Replies lists the replies of a comment, oldest first.
func (h *Handler[C]) Replies(ctx C) handler.Response {
	req := repliesRequest{Page: 1, Limit: DefaultRepliesLimit}
	if err := binder.Bind(ctx.Request(), &req, binder.Path(), binder.Query()); err != nil {
		return response.Error(err)
	}

	replies, total, err := h.store.ListReplies(ctx, req.ID, ListOptions{
		Skip:  (req.Page - 1) * req.Limit,
		Limit: req.Limit,
	})
	if err != nil {
		return response.Error(h.storeError(err, req.ID))
	}
	return h.formatter.Page(replies, "", response.NewPagination(req.Page, req.Limit, total))
}

// owned loads the comment and checks the caller may modify it. Non-owners
// get 401, like the rest of the authentication failures of this API.
func (h *Handler[C]) owned(ctx C, id, action string) (middleware.Principal, error) {
	p, ok := middleware.GetPrincipal(ctx)
	if !ok {
		return p, response.ErrUnauthorized
	}

	c, err := h.store.Get(ctx, id)
	if err != nil {
		return p, h.storeError(err, id)
	}
	if c.Author != p.UserID && p.Role != RoleAdmin {
		h.log.WarnContext(ctx, "comment access denied",
			logger.Event("comment_access_denied"),
			logger.UserID(p.UserID),
			logger.Action(action),
			slog.String("comment_id", id),
		)
		return p, response.ErrUnauthorized.WithMessage(
			"User " + p.UserID + " is not authorized to " + action + " this comment")
	}
	return p, nil
}

func (h *Handler[C]) storeError(err error, id string) error {
	switch {
	case errors.Is(err, ErrNotFound):
		return response.ErrNotFound.WithMessage("Comment not found with id of " + id)
	case errors.Is(err, ErrAlreadyLiked):
		return response.ErrBadRequest.WithMessage("Comment already liked")
	case errors.Is(err, ErrNotLiked):
		return response.ErrBadRequest.WithMessage("Comment has not yet been liked")
	}
	return err
}
