package http

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"quest-service/internal/app"
	"quest-service/internal/content"
	"quest-service/internal/domain"
)

var validate = validator.New()

// QuestHandler serves quest metadata and content management.
type QuestHandler struct {
	admin *app.AdminService
	now   func() time.Time
}

func NewQuestHandler(admin *app.AdminService, now func() time.Time) *QuestHandler {
	if now == nil {
		now = time.Now
	}
	return &QuestHandler{admin: admin, now: now}
}

type createQuestRequest struct {
	Title       string `json:"title" validate:"required"`
	Description string `json:"description"`
	ActiveFrom  string `json:"active_from" validate:"required"`
	ActiveTo    string `json:"active_to" validate:"required"`
}

type updateQuestRequest struct {
	Title       *string `json:"title" validate:"omitempty,min=1"`
	Description *string `json:"description"`
	ActiveFrom  *string `json:"active_from" validate:"omitempty,min=1"`
	ActiveTo    *string `json:"active_to" validate:"omitempty,min=1"`
}

type questView struct {
	domain.Quest
	Active bool `json:"active"`
}

func (h *QuestHandler) view(q domain.Quest) questView {
	return questView{Quest: q, Active: domain.IsActive(q, h.now())}
}

// ListQuests handles GET /api/quests?filter=all|active|inactive.
func (h *QuestHandler) ListQuests(c *gin.Context) {
	quests, err := h.admin.ListQuests(c.Request.Context(), app.ParseFilter(c.Query("filter")))
	if err != nil {
		respondDomainError(c, err)
		return
	}
	out := make([]questView, 0, len(quests))
	for _, q := range quests {
		out = append(out, h.view(q))
	}
	c.JSON(http.StatusOK, gin.H{"quests": out})
}

// GetQuest handles GET /api/quests/:id.
func (h *QuestHandler) GetQuest(c *gin.Context) {
	q, err := h.admin.GetQuest(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.view(q))
}

// CreateQuest handles POST /api/quests.
func (h *QuestHandler) CreateQuest(c *gin.Context) {
	var req createQuestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, err)
		return
	}
	if err := validate.Struct(req); err != nil {
		respondError(c, http.StatusBadRequest, err)
		return
	}
	from, err := domain.ParseTimestamp(req.ActiveFrom)
	if err != nil {
		respondDomainError(c, err)
		return
	}
	to, err := domain.ParseTimestamp(req.ActiveTo)
	if err != nil {
		respondDomainError(c, err)
		return
	}
	q, err := h.admin.CreateQuest(c.Request.Context(), app.NewQuest{
		Title:       req.Title,
		Description: req.Description,
		ActiveFrom:  from,
		ActiveTo:    to,
	})
	if err != nil {
		respondDomainError(c, err)
		return
	}
	c.JSON(http.StatusCreated, h.view(q))
}

// UpdateQuest handles PATCH /api/quests/:id.
func (h *QuestHandler) UpdateQuest(c *gin.Context) {
	var req updateQuestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, err)
		return
	}
	if err := validate.Struct(req); err != nil {
		respondError(c, http.StatusBadRequest, err)
		return
	}
	patch := domain.QuestPatch{Title: req.Title, Description: req.Description}
	for _, f := range []struct {
		raw *string
		dst **time.Time
	}{{req.ActiveFrom, &patch.ActiveFrom}, {req.ActiveTo, &patch.ActiveTo}} {
		if f.raw == nil {
			continue
		}
		ts, err := domain.ParseTimestamp(*f.raw)
		if err != nil {
			respondDomainError(c, err)
			return
		}
		*f.dst = &ts
	}
	q, err := h.admin.UpdateQuest(c.Request.Context(), c.Param("id"), patch)
	if err != nil {
		respondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.view(q))
}

// DeleteQuest handles DELETE /api/quests/:id.
func (h *QuestHandler) DeleteQuest(c *gin.Context) {
	if err := h.admin.DeleteQuest(c.Request.Context(), c.Param("id")); err != nil {
		respondDomainError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// GetContent handles GET /api/quests/:id/content[?admin=true].
func (h *QuestHandler) GetContent(c *gin.Context) {
	admin, _ := strconv.ParseBool(c.DefaultQuery("admin", "false"))
	qc, err := h.admin.GetContent(c.Request.Context(), c.Param("id"), admin)
	if err != nil {
		respondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, qc)
}

// SaveContent handles POST /api/quests/:id/content as a whole-document replace.
func (h *QuestHandler) SaveContent(c *gin.Context) {
	raw, err := c.GetRawData()
	if err != nil {
		respondError(c, http.StatusBadRequest, err)
		return
	}
	qc, err := content.Parse(raw, ".json")
	if err != nil {
		respondError(c, http.StatusBadRequest, err)
		return
	}
	saved, err := h.admin.SaveContent(c.Request.Context(), c.Param("id"), qc)
	if err != nil {
		respondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, saved)
}
