package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"linker-backend/pkg/database"
	"linker-backend/pkg/logger"
	"linker-backend/pkg/models"
	"linker-backend/pkg/services"
	"linker-backend/pkg/utils"
)

// 链接接口的响应消息
const (
	msgLinkAdded    = "Link added successfully"
	msgLinkUpdated  = "Link updated successfully"
	msgLinkDeleted  = "Link deleted successfully"
	msgLinkNotFound = "Link not found or not authorized"
)

// LinksHandler 链接处理器
type LinksHandler struct {
	service *services.LinkService
	log     logger.Logger
}

// NewLinksHandler 创建链接处理器
func NewLinksHandler(store database.Store, log logger.Logger) *LinksHandler {
	return &LinksHandler{
		service: services.NewLinkService(store, log),
		log:     log,
	}
}

func linkInput(req *models.LinkRequest) services.LinkInput {
	return services.LinkInput{
		Title:       *req.Title,
		URL:         *req.URL,
		Category:    *req.Category,
		Project:     *req.Project,
		Description: req.Description,
	}
}

// AddLink POST /links/add-new-link
func (h *LinksHandler) AddLink(w http.ResponseWriter, r *http.Request) {
	callerID, ok := requireCaller(w, r)
	if !ok {
		return
	}

	var req models.LinkRequest
	if !decodeRequest(w, r, &req) {
		return
	}

	link, err := h.service.Create(r.Context(), callerID, linkInput(&req))
	if err != nil {
		writeInternalError(w, r, h.log, "add_link", err)
		return
	}
	utils.WriteCreatedResponse(w, msgLinkAdded, link)
}

// GetAllLinks GET /links/get-all-links
func (h *LinksHandler) GetAllLinks(w http.ResponseWriter, r *http.Request) {
	callerID, ok := requireCaller(w, r)
	if !ok {
		return
	}

	links, err := h.service.List(r.Context(), callerID)
	if err != nil {
		writeInternalError(w, r, h.log, "get_all_links", err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, models.LinksResponse{Links: links})
}

// EditLink PUT /links/{link_id}/edit-link
func (h *LinksHandler) EditLink(w http.ResponseWriter, r *http.Request) {
	callerID, ok := requireCaller(w, r)
	if !ok {
		return
	}

	var req models.LinkRequest
	if !decodeRequest(w, r, &req) {
		return
	}

	outcome, err := h.service.Update(r.Context(), callerID, chi.URLParam(r, "link_id"), linkInput(&req))
	if err != nil {
		writeInternalError(w, r, h.log, "edit_link", err)
		return
	}
	writeOutcome(w, outcome, msgLinkUpdated, msgLinkNotFound)
}

// DeleteLink DELETE /links/{link_id}/delete-link
func (h *LinksHandler) DeleteLink(w http.ResponseWriter, r *http.Request) {
	callerID, ok := requireCaller(w, r)
	if !ok {
		return
	}

	outcome, err := h.service.Delete(r.Context(), callerID, chi.URLParam(r, "link_id"))
	if err != nil {
		writeInternalError(w, r, h.log, "delete_link", err)
		return
	}
	writeOutcome(w, outcome, msgLinkDeleted, msgLinkNotFound)
}

// writeOutcome 已生效与未生效只在 success 与 message 上不同
func writeOutcome(w http.ResponseWriter, outcome services.Outcome, applied, noop string) {
	if outcome.Applied() {
		utils.WriteMessageResponse(w, true, applied)
		return
	}
	utils.WriteMessageResponse(w, false, noop)
}
