package controllers

import (
	"errors"
	"mime"
	"net/http"
	"os"
	"path/filepath"

	"github.com/gin-gonic/gin"
	"github.com/yigit/facultycredits/internal/app/models/dto"
	"github.com/yigit/facultycredits/internal/middleware"
	"github.com/yigit/facultycredits/internal/pkg/advisor"
	"github.com/yigit/facultycredits/internal/pkg/filestorage"
)

// SupportController serves proof uploads and title recommendations. Neither
// changes the ledger.
type SupportController struct {
	proofs      filestorage.ProofStorage
	recommender advisor.Recommender
}

// NewSupportController creates a new SupportController
func NewSupportController(proofs filestorage.ProofStorage, recommender advisor.Recommender) *SupportController {
	return &SupportController{
		proofs:      proofs,
		recommender: recommender,
	}
}

// UploadProof stores a supporting document
// @Summary Upload a proof document
// @Description Stores the file and returns a proofRef to attach to a submission, remark or appeal
// @Tags proofs
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param file formData file true "Proof document (pdf, png, jpg, doc, docx, txt)"
// @Success 201 {object} dto.APIResponse{data=dto.ProofResponse} "Proof stored"
// @Failure 400 {object} dto.ErrorResponse "Missing or unacceptable file"
// @Failure 401 {object} dto.ErrorResponse "Unauthorized"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /proofs [post]
func (c *SupportController) UploadProof(ctx *gin.Context) {
	fileHeader, err := ctx.FormFile("file")
	if err != nil {
		errorDetail := dto.NewErrorDetail(dto.ErrorCodeValidationFailed, "Proof file is required")
		errorDetail = errorDetail.WithDetails(err.Error()).WithField("file")
		ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(errorDetail))
		return
	}

	proofRef, err := c.proofs.SaveProof(fileHeader)
	if err != nil {
		switch {
		case errors.Is(err, filestorage.ErrEmptyUpload),
			errors.Is(err, filestorage.ErrFileTooLarge),
			errors.Is(err, filestorage.ErrUnsupportedType):
			errorDetail := dto.NewErrorDetail(dto.ErrorCodeResourceInvalid, err.Error()).WithField("file")
			ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(errorDetail))
		default:
			middleware.HandleAPIError(ctx, err)
		}
		return
	}

	ctx.JSON(http.StatusCreated, dto.NewAPIResponse(dto.ProofResponse{ProofRef: proofRef}))
}

// DownloadProof streams a stored proof document
// @Summary Download a proof document
// @Tags proofs
// @Produce octet-stream
// @Security BearerAuth
// @Param name path string true "File name part of the proofRef"
// @Success 200 {file} file "Proof document"
// @Failure 400 {object} dto.ErrorResponse "Invalid reference"
// @Failure 404 {object} dto.ErrorResponse "Proof not found"
// @Router /proofs/{name} [get]
func (c *SupportController) DownloadProof(ctx *gin.Context) {
	name := ctx.Param("name")
	reader, err := c.proofs.OpenProof(filestorage.ProofPrefix + name)
	if err != nil {
		c.writeProofError(ctx, err)
		return
	}
	defer reader.Close()

	contentType := mime.TypeByExtension(filepath.Ext(name))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	ctx.DataFromReader(http.StatusOK, -1, contentType, reader, map[string]string{
		"Content-Disposition": `attachment; filename="` + name + `"`,
	})
}

// DeleteProof removes a stored proof document. Admin only.
// @Summary Delete a proof document
// @Tags proofs
// @Produce json
// @Security BearerAuth
// @Param name path string true "File name part of the proofRef"
// @Success 200 {object} dto.APIResponse{data=dto.SuccessResponse} "Proof deleted"
// @Failure 400 {object} dto.ErrorResponse "Invalid reference"
// @Failure 403 {object} dto.ErrorResponse "Forbidden"
// @Router /proofs/{name} [delete]
func (c *SupportController) DeleteProof(ctx *gin.Context) {
	if err := c.proofs.DeleteProof(filestorage.ProofPrefix + ctx.Param("name")); err != nil {
		c.writeProofError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewAPIResponse(dto.SuccessResponse{Message: "Proof deleted"}))
}

func (c *SupportController) writeProofError(ctx *gin.Context, err error) {
	switch {
	case errors.Is(err, filestorage.ErrInvalidReference):
		errorDetail := dto.NewErrorDetail(dto.ErrorCodeResourceInvalid, "Invalid proof reference").WithField("name")
		ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(errorDetail))
	case errors.Is(err, os.ErrNotExist):
		errorDetail := dto.NewErrorDetail(dto.ErrorCodeResourceNotFound, "Proof not found")
		ctx.JSON(http.StatusNotFound, dto.NewErrorResponse(errorDetail))
	default:
		middleware.HandleAPIError(ctx, err)
	}
}

// Recommend suggests catalog titles for an achievement description
// @Summary Recommend credit titles
// @Description Advisory ranking of active positive titles. Nothing is recorded.
// @Tags recommendations
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.RecommendationRequest true "Achievement description"
// @Success 200 {object} dto.APIResponse{data=[]advisor.Suggestion} "Suggestions"
// @Failure 400 {object} dto.ErrorResponse "Invalid request data"
// @Router /recommendations [post]
func (c *SupportController) Recommend(ctx *gin.Context) {
	var req dto.RecommendationRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}

	suggestions, err := c.recommender.Recommend(ctx, req.Description, req.Limit)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewAPIResponse(suggestions))
}
