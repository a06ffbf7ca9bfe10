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

const (
	msgCategoryAdded    = "Category added successfully"
	msgCategoryUpdated  = "Category updated successfully"
	msgCategoryDeleted  = "Category deleted and links moved to 'other'"
	msgCategoryNotFound = "Category not found or not authorized"
)

// CategoriesHandler 分类处理器
type CategoriesHandler struct {
	service *services.CategoryService
	log     logger.Logger
}

// NewCategoriesHandler 创建分类处理器
func NewCategoriesHandler(store database.Store, log logger.Logger) *CategoriesHandler {
	return &CategoriesHandler{
		service: services.NewCategoryService(store, log),
		log:     log,
	}
}

func categoryInput(req *models.CategoryRequest) services.CategoryInput {
	return services.CategoryInput{
		Name:  *req.Name,
		Icon:  *req.Icon,
		Color: *req.Color,
	}
}

// AddCategory POST /categories/add-new-category
func (h *CategoriesHandler) AddCategory(w http.ResponseWriter, r *http.Request) {
	callerID, ok := requireCaller(w, r)
	if !ok {
		return
	}

	var req models.CategoryRequest
	if !decodeRequest(w, r, &req) {
		return
	}

	category, err := h.service.Create(r.Context(), callerID, categoryInput(&req))
	if err != nil {
		writeInternalError(w, r, h.log, "add_category", err)
		return
	}
	utils.WriteCreatedResponse(w, msgCategoryAdded, category)
}

// GetAllCategories GET /categories/get-all-categories
func (h *CategoriesHandler) GetAllCategories(w http.ResponseWriter, r *http.Request) {
	callerID, ok := requireCaller(w, r)
	if !ok {
		return
	}

	categories, err := h.service.List(r.Context(), callerID)
	if err != nil {
		writeInternalError(w, r, h.log, "get_all_categories", err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, models.CategoriesResponse{Categories: categories})
}

// EditCategory PUT /categories/{category_id}/edit-category
func (h *CategoriesHandler) EditCategory(w http.ResponseWriter, r *http.Request) {
	callerID, ok := requireCaller(w, r)
	if !ok {
		return
	}

	var req models.CategoryRequest
	if !decodeRequest(w, r, &req) {
		return
	}

	outcome, err := h.service.Update(r.Context(), callerID, chi.URLParam(r, "category_id"), categoryInput(&req))
	if err != nil {
		writeInternalError(w, r, h.log, "edit_category", err)
		return
	}
	writeOutcome(w, outcome, msgCategoryUpdated, msgCategoryNotFound)
}

// DeleteCategory DELETE /categories/{category_id}/delete-category
// 先把引用该分类的链接改为 "other"，再删除分类
func (h *CategoriesHandler) DeleteCategory(w http.ResponseWriter, r *http.Request) {
	callerID, ok := requireCaller(w, r)
	if !ok {
		return
	}

	outcome, err := h.service.Delete(r.Context(), callerID, chi.URLParam(r, "category_id"))
	if err != nil {
		writeInternalError(w, r, h.log, "delete_category", err)
		return
	}
	writeOutcome(w, outcome, msgCategoryDeleted, msgCategoryNotFound)
}
