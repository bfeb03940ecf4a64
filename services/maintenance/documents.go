package main

import (
	"github.com/gin-gonic/gin"
	"github.com/pavitra93/go-multi-tenant-cmms/shared/documents"
	"github.com/pavitra93/go-multi-tenant-cmms/shared/middleware"
	"github.com/pavitra93/go-multi-tenant-cmms/shared/models"
	"github.com/pavitra93/go-multi-tenant-cmms/shared/utils"
)

// DocumentUploadRequest is the body of an upload request
type DocumentUploadRequest struct {
	Name        string `json:"name" binding:"required"`
	ContentType string `json:"content_type"`
}

// DocumentLink pairs a document with a short lived URL
type DocumentLink struct {
	Document *models.Document `json:"document"`
	URL      string           `json:"url"`
}

// handleUploadDocument records a document and returns the presigned upload URL
func handleUploadDocument(svc *documents.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		machineID, ok := pathID(c)
		if !ok {
			return
		}
		var req DocumentUploadRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.BadRequestResponse(c, "Invalid request format")
			return
		}

		doc, url, err := svc.Upload(c.Request.Context(), middleware.ActorFromContext(c), documents.UploadInput{
			MachineID:   machineID,
			Name:        req.Name,
			ContentType: req.ContentType,
		})
		if err != nil {
			utils.RespondError(c, err)
			return
		}
		utils.CreatedResponse(c, "Upload URL issued", DocumentLink{Document: doc, URL: url})
	}
}

func handleListDocuments(svc *documents.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		machineID, ok := pathID(c)
		if !ok {
			return
		}
		page, err := svc.List(c.Request.Context(), middleware.ActorFromContext(c), machineID, pageFromQuery(c))
		if err != nil {
			utils.RespondError(c, err)
			return
		}
		utils.OKResponse(c, "Documents retrieved successfully", page)
	}
}

// handleDownloadDocument returns the presigned download URL
func handleDownloadDocument(svc *documents.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathID(c)
		if !ok {
			return
		}
		doc, url, err := svc.Download(c.Request.Context(), middleware.ActorFromContext(c), id)
		if err != nil {
			utils.RespondError(c, err)
			return
		}
		utils.OKResponse(c, "Download URL issued", DocumentLink{Document: doc, URL: url})
	}
}

func handleDeleteDocument(svc *documents.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathID(c)
		if !ok {
			return
		}
		if err := svc.Delete(c.Request.Context(), middleware.ActorFromContext(c), id); err != nil {
			utils.RespondError(c, err)
			return
		}
		utils.OKResponse(c, "Document deleted successfully", nil)
	}
}
