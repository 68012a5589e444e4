package handlers

import (
	"context"
	"net/http"

	"campusnest_backend/internal/logger"
	"campusnest_backend/internal/middleware"
	"campusnest_backend/internal/services"
	"campusnest_backend/internal/upload"
	"campusnest_backend/pkg/apperrors"

	"github.com/gin-gonic/gin"
)

const (
	MaxPropertyPhotos     = 10
	MaxGeneralImages      = 5
	MaxGeneralAttachments = 3
	MaxCategoryFiles      = 10
)

// Uploaders are the category pipelines the routes are wired to. All holds
// every configured category, including ones only reachable through the
// generic category route.
type Uploaders struct {
	Properties *upload.Uploader
	Avatars    *upload.Uploader
	Documents  *upload.Uploader
	General    *upload.Uploader
	All        map[string]*upload.Uploader
}

type UploadHandler struct {
	*BaseHandler
	uploadService services.UploadService
	uploaders     Uploaders
	byCategory    map[string]gin.HandlerFunc
}

func NewUploadHandler(base *BaseHandler, uploadService services.UploadService, uploaders Uploaders) *UploadHandler {
	byCategory := make(map[string]gin.HandlerFunc, len(uploaders.All))
	for name, u := range uploaders.All {
		byCategory[name] = u.Array("files", MaxCategoryFiles)
	}
	return &UploadHandler{
		BaseHandler:   base,
		uploadService: uploadService,
		uploaders:     uploaders,
		byCategory:    byCategory,
	}
}

type MessageRequest struct {
	To   string `form:"to" json:"to" validate:"required,max=64"`
	Body string `form:"body" json:"body" validate:"required,max=4000"`
}

type UploadResponse struct {
	Category string                            `json:"category"`
	File     *upload.ProcessedFile             `json:"file,omitempty"`
	Files    []upload.ProcessedFile            `json:"files,omitempty"`
	Fields   map[string][]upload.ProcessedFile `json:"fields,omitempty"`
	Records  interface{}                       `json:"records,omitempty"`
}

func (h *UploadHandler) RegisterRoutes(r *gin.RouterGroup) {
	u := h.uploaders

	r.POST("/properties/photos", u.Properties.Array("photos", MaxPropertyPhotos), h.UploadPropertyPhotos)
	r.POST("/users/me/avatar", u.Avatars.Single("avatar"), h.UploadAvatar)
	r.POST("/documents/verification", u.Documents.Single("document"), h.UploadVerificationDocument)
	r.POST("/uploads/general", u.General.Fields(
		upload.Field{Name: "images", MaxCount: MaxGeneralImages},
		upload.Field{Name: "attachments", MaxCount: MaxGeneralAttachments},
	), h.UploadGeneral)
	r.POST("/messages", u.General.None(), h.PostMessage)
	r.POST("/categories/:category/files", h.UploadToCategory)

	uploads := r.Group("/uploads")
	{
		uploads.GET("", h.ListUploads)
		uploads.GET("/:uploadId", h.GetUpload)
	}
}

// UploadPropertyPhotos - фотографии объявления, до 10 штук.
func (h *UploadHandler) UploadPropertyPhotos(c *gin.Context) {
	files, _ := upload.FilesFrom(c)
	photos := files["photos"]
	if len(photos) == 0 {
		apperrors.HandleError(c, apperrors.NewBadRequestError("at least one photo is required"))
		return
	}

	resp := &UploadResponse{Category: h.uploaders.Properties.Category().Name, Files: photos}
	h.record(c, h.uploaders.Properties, resp, photos)
}

func (h *UploadHandler) UploadAvatar(c *gin.Context) {
	h.single(c, h.uploaders.Avatars, "avatar")
}

func (h *UploadHandler) UploadVerificationDocument(c *gin.Context) {
	h.single(c, h.uploaders.Documents, "document")
}

// UploadGeneral - произвольные вложения, сгруппированные по полям формы.
func (h *UploadHandler) UploadGeneral(c *gin.Context) {
	fields, _ := upload.FilesFrom(c)

	var all []upload.ProcessedFile
	for _, name := range []string{"images", "attachments"} {
		all = append(all, fields[name]...)
	}
	if len(all) == 0 {
		apperrors.HandleError(c, apperrors.NewBadRequestError("no files were uploaded"))
		return
	}

	resp := &UploadResponse{Category: h.uploaders.General.Category().Name, Fields: fields}
	h.record(c, h.uploaders.General, resp, all)
}

// UploadToCategory принимает до 10 файлов в поле "files" для любой
// настроенной категории.
func (h *UploadHandler) UploadToCategory(c *gin.Context) {
	name := c.Param("category")
	intake, ok := h.byCategory[name]
	if !ok {
		apperrors.HandleError(c, apperrors.NewNotFoundError("Unknown upload category: "+name))
		return
	}

	intake(c)
	if c.IsAborted() {
		return
	}

	files, _ := upload.FilesFrom(c)
	if len(files["files"]) == 0 {
		apperrors.HandleError(c, apperrors.NewBadRequestError("no files were uploaded"))
		return
	}

	resp := &UploadResponse{Category: name, Files: files["files"]}
	h.record(c, h.uploaders.All[name], resp, files["files"])
}

// PostMessage - текстовая форма без файлов.
func (h *UploadHandler) PostMessage(c *gin.Context) {
	var req MessageRequest
	if !h.BindAndValidate_Form(c, &req) {
		return
	}
	logger.CtxInfo(c.Request.Context(), "message accepted", "to", req.To, "length", len(req.Body))
	c.JSON(http.StatusCreated, req)
}

func (h *UploadHandler) GetUpload(c *gin.Context) {
	record, err := h.uploadService.GetUpload(h.GetDB(c), c.Param("uploadId"))
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, record)
}

func (h *UploadHandler) ListUploads(c *gin.Context) {
	var query services.ListUploadsQuery
	if !h.BindAndValidate_Query(c, &query) {
		return
	}

	list, err := h.uploadService.ListUploads(h.GetDB(c), query)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *UploadHandler) single(c *gin.Context, u *upload.Uploader, field string) {
	pf, ok := upload.FileFrom(c)
	if !ok {
		apperrors.HandleError(c, apperrors.NewBadRequestError(field+" file is required"))
		return
	}

	resp := &UploadResponse{Category: u.Category().Name, File: &pf}
	h.record(c, u, resp, []upload.ProcessedFile{pf})
}

// record writes registry rows when a database is configured and renders 201.
// A failed insert leaves the stored files in place unless the category opts
// into RollbackOnFailure.
func (h *UploadHandler) record(c *gin.Context, u *upload.Uploader, resp *UploadResponse, files []upload.ProcessedFile) {
	ctx := c.Request.Context()
	records, err := h.uploadService.RecordUploads(ctx, h.GetDB(c), resp.Category, middleware.GetUserID(c), files)
	if err != nil {
		if u.Category().Options.RollbackOnFailure {
			u.Discard(context.WithoutCancel(ctx), files)
		}
		h.HandleServiceError(c, err)
		return
	}
	if records != nil {
		resp.Records = records
	}
	c.JSON(http.StatusCreated, resp)
}
