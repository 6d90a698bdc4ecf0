package endpoints

import (
	"net/http"

	"github.com/gin-contrib/graceful"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"studio"
	"studio/internal/api/handler/mapper"
	"studio/internal/api/handler/middleware"
	"studio/internal/api/handler/request"
	"studio/internal/api/handler/response"
	"studio/internal/api/service"
	"studio/pkg"
)

type acledHandler struct {
	acledService  *service.AcledService
	datasetMapper mapper.DatasetMapper
	logger        zerolog.Logger
	config        studio.AppConfig
}

func newAcledHandler(acledService *service.AcledService) *acledHandler {
	return &acledHandler{
		acledService:  acledService,
		datasetMapper: mapper.DatasetMapper{},
		logger:        studio.Logger,
		config:        studio.GetConfig(),
	}
}

func AcledHandler(router *graceful.Graceful, acledService *service.AcledService) {
	h := newAcledHandler(acledService)

	routes := router.Group("/api/v1/acled")
	routes.Use(middleware.AuthMiddleware(h.config))
	{
		routes.POST("/events", h.fetchEvents)
		routes.POST("/datasets", h.saveDataset)
	}
}

func acledFilterFromRequest(req request.FetchAcled) service.AcledFilter {
	return service.AcledFilter{
		Countries:     req.Countries,
		Regions:       req.Regions,
		SubEventTypes: req.SubEventTypes,
		YearFrom:      req.YearFrom,
		YearTo:        req.YearTo,
		Limit:         req.Limit,
	}
}

func (slf *acledHandler) fetchEvents(c *gin.Context) {
	var req request.FetchAcled
	if err := pkg.ParseAndValidate(c, &req); err != nil {
		c.JSON(http.StatusBadRequest, response.APIError{Message: err.Error()})
		return
	}

	f, err := slf.acledService.FetchEvents(c.Request.Context(), acledFilterFromRequest(req))
	if err != nil {
		slf.logger.Error().Err(err).Msg("Failed to fetch ACLED events")
		c.JSON(http.StatusBadGateway, response.APIError{Message: err.Error()})
		return
	}

	c.JSON(http.StatusOK, slf.datasetMapper.ToTableResult(f))
}

func (slf *acledHandler) saveDataset(c *gin.Context) {
	userID, ok := pkg.GetUserID(c)
	if !ok {
		return
	}

	var req request.SaveAcledDataset
	if err := pkg.ParseAndValidate(c, &req); err != nil {
		c.JSON(http.StatusBadRequest, response.APIError{Message: err.Error()})
		return
	}

	dataset, err := slf.acledService.SaveAsDataset(c.Request.Context(), userID, req.Name, req.Description, acledFilterFromRequest(req.Filter))
	if err != nil {
		slf.logger.Error().Err(err).Str("name", req.Name).Msg("Failed to save ACLED dataset")
		c.JSON(http.StatusBadGateway, response.APIError{Message: err.Error()})
		return
	}

	c.JSON(http.StatusCreated, slf.datasetMapper.ToDatasetWithDetails(*dataset))
}
