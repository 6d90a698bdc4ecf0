package endpoints

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-contrib/graceful"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"studio"
	"studio/internal/api/handler/mapper"
	"studio/internal/api/handler/middleware"
	"studio/internal/api/handler/request"
	"studio/internal/api/handler/response"
	"studio/internal/api/models"
	"studio/internal/api/service"
	"studio/pkg"
)

type datasetHandler struct {
	datasetService  *service.DatasetService
	metadataService *service.MetadataService
	reportService   *service.ReportService
	datasetMapper   mapper.DatasetMapper
	config          studio.AppConfig
	logger          zerolog.Logger
}

func newDatasetHandler(datasetService *service.DatasetService) *datasetHandler {
	return &datasetHandler{
		datasetService:  datasetService,
		metadataService: service.NewMetadataService(),
		reportService:   service.NewReportService(datasetService),
		config:          studio.GetConfig(),
		logger:          studio.Logger,
	}
}

func DatasetHandler(router *graceful.Graceful, datasetService *service.DatasetService) {
	h := newDatasetHandler(datasetService)

	routes := router.Group("/api/v1/datasets")
	routes.Use(middleware.AuthMiddleware(h.config))
	{
		routes.GET("", h.getAll)
		routes.GET("/:id", h.getByID)
		routes.POST("/upload", h.upload)
		routes.POST("/import", h.importFromDatabase)
		routes.PUT("/:id", h.update)
		routes.DELETE("/:id", h.delete)
		routes.GET("/:id/preview", h.preview)
		routes.GET("/:id/export", h.export)
		routes.POST("/:id/report", h.sendReport)
		routes.POST("/query", h.query)
	}
}

func (h *datasetHandler) checkAccess(c *gin.Context, datasetID, userID uint) bool {
	canAccess, err := h.datasetService.CanUserAccess(datasetID, userID)
	if err != nil {
		h.logger.Error().Err(err).Uint("datasetID", datasetID).Msg("Failed to check dataset access")
		c.JSON(http.StatusNotFound, response.APIError{Message: "Dataset not found"})
		return false
	}
	if !canAccess {
		c.JSON(http.StatusForbidden, response.APIError{Message: "You don't have access to this dataset"})
		return false
	}
	return true
}

func parseID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.APIError{Message: "Invalid ID"})
		return 0, false
	}
	return uint(id), true
}

func (h *datasetHandler) getAll(c *gin.Context) {
	userID, ok := pkg.GetUserID(c)
	if !ok {
		return
	}

	datasets, err := h.datasetService.FindAllForUser(userID)
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to get datasets")
		c.JSON(http.StatusInternalServerError, response.APIError{Message: "Failed to retrieve datasets"})
		return
	}

	c.JSON(http.StatusOK, h.datasetMapper.ToDatasetSummaries(datasets))
}

func (h *datasetHandler) getByID(c *gin.Context) {
	userID, ok := pkg.GetUserID(c)
	if !ok {
		return
	}
	id, ok := parseID(c)
	if !ok {
		return
	}
	if !h.checkAccess(c, id, userID) {
		return
	}

	dataset, err := h.datasetService.FindByID(id)
	if err != nil {
		h.logger.Error().Err(err).Uint("id", id).Msg("Failed to get dataset")
		c.JSON(http.StatusNotFound, response.APIError{Message: "Dataset not found"})
		return
	}

	c.JSON(http.StatusOK, h.datasetMapper.ToDatasetWithDetails(*dataset))
}

// upload ingests a CSV file sent as multipart form data. The form carries
// name, description and the file itself.
func (h *datasetHandler) upload(c *gin.Context) {
	userID, ok := pkg.GetUserID(c)
	if !ok {
		return
	}

	name := c.PostForm("name")
	if name == "" {
		c.JSON(http.StatusBadRequest, response.APIError{Message: "Field 'name' is required"})
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, response.APIError{Message: "A CSV file is required"})
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, response.APIError{Message: "Failed to open uploaded file"})
		return
	}
	defer file.Close()

	dataset := models.Dataset{
		Name:        name,
		Description: c.PostForm("description"),
		CreatorID:   userID,
		Source:      models.DatasetSourceUpload,
	}
	created, err := h.datasetService.IngestCSV(c.Request.Context(), dataset, file)
	if err != nil {
		h.logger.Error().Err(err).Str("name", name).Msg("Failed to ingest uploaded CSV")
		c.JSON(http.StatusBadRequest, response.APIError{Message: err.Error()})
		return
	}

	c.JSON(http.StatusCreated, h.datasetMapper.ToDatasetWithDetails(*created))
}

func (h *datasetHandler) importFromDatabase(c *gin.Context) {
	userID, ok := pkg.GetUserID(c)
	if !ok {
		return
	}

	var req request.ImportDataset
	if err := pkg.ParseAndValidate(c, &req); err != nil {
		c.JSON(http.StatusBadRequest, response.APIError{Message: err.Error()})
		return
	}

	meta, err := h.metadataService.FindByID(req.MetadataDatabaseID)
	if err != nil {
		c.JSON(http.StatusNotFound, response.APIError{Message: "Connection not found"})
		return
	}

	dataset := models.Dataset{
		Name:        req.Name,
		Description: req.Description,
		CreatorID:   userID,
	}
	created, err := h.datasetService.ImportFromDatabase(c.Request.Context(), dataset, *meta, req.Query, req.Limit)
	if err != nil {
		h.logger.Error().Err(err).Str("name", req.Name).Msg("Failed to import dataset")
		c.JSON(http.StatusBadRequest, response.APIError{Message: err.Error()})
		return
	}

	c.JSON(http.StatusCreated, h.datasetMapper.ToDatasetWithDetails(*created))
}

func (h *datasetHandler) update(c *gin.Context) {
	userID, ok := pkg.GetUserID(c)
	if !ok {
		return
	}
	id, ok := parseID(c)
	if !ok {
		return
	}
	if !h.checkAccess(c, id, userID) {
		return
	}

	var req request.UpdateDataset
	if err := pkg.ParseAndValidate(c, &req); err != nil {
		c.JSON(http.StatusBadRequest, response.APIError{Message: err.Error()})
		return
	}

	updated, err := h.datasetService.Update(id, h.datasetMapper.ToDatasetPatch(req))
	if err != nil {
		h.logger.Error().Err(err).Uint("id", id).Msg("Failed to update dataset")
		c.JSON(http.StatusBadRequest, response.APIError{Message: err.Error()})
		return
	}

	c.JSON(http.StatusOK, h.datasetMapper.ToDatasetWithDetails(*updated))
}

func (h *datasetHandler) delete(c *gin.Context) {
	userID, ok := pkg.GetUserID(c)
	if !ok {
		return
	}
	id, ok := parseID(c)
	if !ok {
		return
	}
	if !h.checkAccess(c, id, userID) {
		return
	}

	if err := h.datasetService.Delete(c.Request.Context(), id); err != nil {
		h.logger.Error().Err(err).Uint("id", id).Msg("Failed to delete dataset")
		c.JSON(http.StatusInternalServerError, response.APIError{Message: "Failed to delete dataset"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"id": id, "deleted": true})
}

func (h *datasetHandler) preview(c *gin.Context) {
	userID, ok := pkg.GetUserID(c)
	if !ok {
		return
	}
	id, ok := parseID(c)
	if !ok {
		return
	}
	if !h.checkAccess(c, id, userID) {
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))
	result, err := h.datasetService.Preview(c.Request.Context(), id, limit)
	if err != nil {
		h.logger.Error().Err(err).Uint("id", id).Msg("Failed to preview dataset")
		c.JSON(http.StatusBadRequest, response.APIError{Message: err.Error()})
		return
	}

	c.JSON(http.StatusOK, h.datasetMapper.ToTableResult(result))
}

// export streams the full dataset as a CSV download.
func (h *datasetHandler) export(c *gin.Context) {
	userID, ok := pkg.GetUserID(c)
	if !ok {
		return
	}
	id, ok := parseID(c)
	if !ok {
		return
	}
	if !h.checkAccess(c, id, userID) {
		return
	}

	dataset, err := h.datasetService.FindByID(id)
	if err != nil {
		c.JSON(http.StatusNotFound, response.APIError{Message: "Dataset not found"})
		return
	}
	f, err := h.datasetService.Frame(c.Request.Context(), id)
	if err != nil {
		h.logger.Error().Err(err).Uint("id", id).Msg("Failed to export dataset")
		c.JSON(http.StatusBadRequest, response.APIError{Message: err.Error()})
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s.csv"`, dataset.TableName))
	c.Header("Content-Type", "text/csv")
	if err := f.WriteCSV(c.Writer); err != nil {
		h.logger.Error().Err(err).Uint("id", id).Msg("Failed to write CSV export")
	}
}

func (h *datasetHandler) sendReport(c *gin.Context) {
	userID, ok := pkg.GetUserID(c)
	if !ok {
		return
	}
	id, ok := parseID(c)
	if !ok {
		return
	}
	if !h.checkAccess(c, id, userID) {
		return
	}

	var req request.SendReport
	if err := pkg.ParseAndValidate(c, &req); err != nil {
		c.JSON(http.StatusBadRequest, response.APIError{Message: err.Error()})
		return
	}

	if err := h.reportService.SendDatasetReport(c.Request.Context(), id, req.Recipients, req.Note); err != nil {
		h.logger.Error().Err(err).Uint("id", id).Msg("Failed to send dataset report")
		c.JSON(http.StatusBadRequest, response.APIError{Message: err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"sent": true})
}

// query runs read-only SQL against the analytical store across all of the
// caller's materialized datasets.
func (h *datasetHandler) query(c *gin.Context) {
	if _, ok := pkg.GetUserID(c); !ok {
		return
	}

	var req request.AnalyticsQuery
	if err := pkg.ParseAndValidate(c, &req); err != nil {
		c.JSON(http.StatusBadRequest, response.APIError{Message: err.Error()})
		return
	}

	result, err := h.datasetService.Query(c.Request.Context(), req.Sql, req.Limit)
	if err != nil {
		h.logger.Error().Err(err).Msg("Analytics query failed")
		c.JSON(http.StatusBadRequest, response.APIError{Message: err.Error()})
		return
	}

	c.JSON(http.StatusOK, h.datasetMapper.ToTableResult(result))
}
