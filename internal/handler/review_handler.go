package handler

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/reviewlens/reviewlens/internal/pkg/errcode"
	"github.com/reviewlens/reviewlens/internal/pkg/response"
	"github.com/reviewlens/reviewlens/internal/service"
)

type ReviewHandler struct {
	reviews        *service.ReviewService
	replies        *service.ReplyService
	maxIngestBytes int64
}

func NewReviewHandler(reviews *service.ReviewService, replies *service.ReplyService, maxIngestBytes int64) *ReviewHandler {
	if maxIngestBytes <= 0 {
		maxIngestBytes = DefaultMaxIngestBytes
	}
	return &ReviewHandler{reviews: reviews, replies: replies, maxIngestBytes: maxIngestBytes}
}

func (h *ReviewHandler) Ingest(c *gin.Context) {
	body, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, h.maxIngestBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			response.Error(c, http.StatusRequestEntityTooLarge, errcode.ErrInvalidPayload, "payload too large (max "+formatUploadLimit(h.maxIngestBytes)+")")
			return
		}
		response.Error(c, http.StatusBadRequest, errcode.ErrInvalidPayload, "failed to read request body")
		return
	}
	count, err := h.reviews.Ingest(c.Request.Context(), body)
	if err != nil {
		handleError(c, err, errcode.ErrIngestFailed)
		return
	}
	response.Success(c, gin.H{
		"message": "reviews ingested successfully",
		"count":   count,
	})
}

func (h *ReviewHandler) List(c *gin.Context) {
	page, ok := queryInt(c, "page", 1)
	if !ok {
		return
	}
	limit, ok := queryInt(c, "limit", service.DefaultPageSize)
	if !ok {
		return
	}
	res, err := h.reviews.List(c.Request.Context(), service.ListQuery{
		Page:      page,
		Limit:     limit,
		Location:  c.Query("location"),
		Sentiment: c.Query("sentiment"),
		Search:    c.Query("search"),
	})
	if err != nil {
		handleError(c, err, errcode.ErrInternal)
		return
	}
	response.Success(c, res)
}

func (h *ReviewHandler) Get(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	review, err := h.reviews.Get(c.Request.Context(), id)
	if err != nil {
		handleError(c, err, errcode.ErrInternal)
		return
	}
	response.Success(c, review)
}

func (h *ReviewHandler) SuggestReply(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	res, err := h.replies.Suggest(c.Request.Context(), id)
	if err != nil {
		handleError(c, err, errcode.ErrInternal)
		return
	}
	response.Success(c, res)
}

func (h *ReviewHandler) Search(c *gin.Context) {
	k, ok := queryInt(c, "k", service.DefaultSearchK)
	if !ok {
		return
	}
	query := c.Query("q")
	res, err := h.reviews.Search(c.Request.Context(), query, k)
	if err != nil {
		handleError(c, err, errcode.ErrSearchFailed)
		return
	}
	response.Success(c, gin.H{
		"similar_reviews": res,
		"query":           query,
	})
}

func (h *ReviewHandler) SearchStats(c *gin.Context) {
	response.Success(c, h.reviews.IndexStats())
}

func (h *ReviewHandler) Locations(c *gin.Context) {
	locations, err := h.reviews.Locations(c.Request.Context())
	if err != nil {
		handleError(c, err, errcode.ErrInternal)
		return
	}
	response.Success(c, gin.H{"locations": locations})
}
