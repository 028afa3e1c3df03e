package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"carely/internal/app"
	"carely/internal/model"
	"carely/internal/transport/http/response"
)

// sampleChunkCount bounds how much document text feeds category suggestions.
const sampleChunkCount = 5

type CategoryHandler struct {
	categoryService   *app.CategoryService
	classifierService *app.ClassifierService
	chunks            app.ChunkStore
}

type CreateCategoryRequest struct {
	Name        string `json:"name" binding:"required,max=128"`
	Description string `json:"description" binding:"max=512"`
}

type ReplaceCategoriesRequest struct {
	Categories []CreateCategoryRequest `json:"categories" binding:"required"`
}

func NewCategoryHandler(categoryService *app.CategoryService, classifierService *app.ClassifierService, chunks app.ChunkStore) *CategoryHandler {
	return &CategoryHandler{
		categoryService:   categoryService,
		classifierService: classifierService,
		chunks:            chunks,
	}
}

func (h *CategoryHandler) List(c *gin.Context) {
	companyID, ok := getCompanyIDFromContext(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "invalid token payload")
		return
	}

	cats, err := h.categoryService.List(c.Request.Context(), companyID)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "list categories failed")
		return
	}
	response.OK(c, cats)
}

func (h *CategoryHandler) Create(c *gin.Context) {
	companyID, ok := getCompanyIDFromContext(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "invalid token payload")
		return
	}

	var req CreateCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
		return
	}

	cat, err := h.categoryService.Create(c.Request.Context(), companyID, req.Name, req.Description)
	if err != nil {
		if errors.Is(err, app.ErrInvalidInput) {
			response.Error(c, http.StatusBadRequest, response.CodeBadRequest, err.Error())
		} else {
			response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "create category failed")
		}
		return
	}
	response.OK(c, cat)
}

// Replace swaps the whole taxonomy in one call, the way the dashboard's
// category editor saves.
func (h *CategoryHandler) Replace(c *gin.Context) {
	companyID, ok := getCompanyIDFromContext(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "invalid token payload")
		return
	}

	var req ReplaceCategoriesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
		return
	}

	cats := make([]model.Category, len(req.Categories))
	for i, rc := range req.Categories {
		cats[i] = model.Category{Name: rc.Name, Description: rc.Description}
	}

	saved, err := h.categoryService.Replace(c.Request.Context(), companyID, cats)
	if err != nil {
		if errors.Is(err, app.ErrInvalidInput) {
			response.Error(c, http.StatusBadRequest, response.CodeBadRequest, err.Error())
		} else {
			response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "save categories failed")
		}
		return
	}
	response.OK(c, saved)
}

func (h *CategoryHandler) Delete(c *gin.Context) {
	companyID, ok := getCompanyIDFromContext(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "invalid token payload")
		return
	}
	catID, err := parseUintParam(c, "id")
	if err != nil || catID == 0 {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid category id")
		return
	}

	if err := h.categoryService.Delete(c.Request.Context(), companyID, catID); err != nil {
		switch {
		case errors.Is(err, app.ErrCategoryNotFound):
			response.Error(c, http.StatusNotFound, response.CodeCategoryNotFound, err.Error())
		case errors.Is(err, app.ErrInvalidInput):
			response.Error(c, http.StatusBadRequest, response.CodeBadRequest, err.Error())
		default:
			response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "delete category failed")
		}
		return
	}
	response.OK(c, gin.H{"deleted_category_id": catID})
}

// Suggest proposes categories from the company's own documents.
func (h *CategoryHandler) Suggest(c *gin.Context) {
	companyID, ok := getCompanyIDFromContext(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "invalid token payload")
		return
	}

	chunks, err := h.chunks.ListByCompany(companyID)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "load documents failed")
		return
	}
	if len(chunks) == 0 {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "upload a document before requesting suggestions")
		return
	}

	var sample strings.Builder
	for i, ch := range chunks {
		if i == sampleChunkCount {
			break
		}
		sample.WriteString(ch.Content)
		sample.WriteString("\n\n")
	}

	suggestions, err := h.classifierService.SuggestCategories(c.Request.Context(), sample.String(), 5)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "suggest categories failed")
		return
	}
	response.OK(c, suggestions)
}
