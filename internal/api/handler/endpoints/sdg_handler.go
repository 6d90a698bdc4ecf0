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

type sdgHandler struct {
	sdgService    *service.SdgService
	datasetMapper mapper.DatasetMapper
	logger        zerolog.Logger
	config        studio.AppConfig
}

func newSdgHandler(sdgService *service.SdgService) *sdgHandler {
	return &sdgHandler{
		sdgService:    sdgService,
		datasetMapper: mapper.DatasetMapper{},
		logger:        studio.Logger,
		config:        studio.GetConfig(),
	}
}

func SdgHandler(router *graceful.Graceful, sdgService *service.SdgService) {
	h := newSdgHandler(sdgService)

	routes := router.Group("/api/v1/sdg")
	routes.Use(middleware.AuthMiddleware(h.config))
	{
		routes.GET("/goals", h.goals)
		routes.GET("/indicators", h.indicators)
		routes.GET("/geo-areas", h.geoAreas)
		routes.POST("/data", h.fetchData)
		routes.POST("/datasets", h.saveDataset)
	}
}

func sdgQueryFromRequest(req request.FetchSdg) service.SdgQuery {
	return service.SdgQuery{
		Indicators: req.Indicators,
		AreaCodes:  req.AreaCodes,
		YearFrom:   req.YearFrom,
		YearTo:     req.YearTo,
		MaxPages:   req.MaxPages,
	}
}

func (slf *sdgHandler) goals(c *gin.Context) {
	goals, err := slf.sdgService.Goals(c.Request.Context())
	if err != nil {
		slf.logger.Error().Err(err).Msg("Failed to fetch SDG goals")
		c.JSON(http.StatusBadGateway, response.APIError{Message: err.Error()})
		return
	}
	c.JSON(http.StatusOK, goals)
}

func (slf *sdgHandler) indicators(c *gin.Context) {
	indicators, err := slf.sdgService.Indicators(c.Request.Context())
	if err != nil {
		slf.logger.Error().Err(err).Msg("Failed to fetch SDG indicators")
		c.JSON(http.StatusBadGateway, response.APIError{Message: err.Error()})
		return
	}
	c.JSON(http.StatusOK, indicators)
}

func (slf *sdgHandler) geoAreas(c *gin.Context) {
	areas, err := slf.sdgService.GeoAreas(c.Request.Context())
	if err != nil {
		slf.logger.Error().Err(err).Msg("Failed to fetch SDG geo areas")
		c.JSON(http.StatusBadGateway, response.APIError{Message: err.Error()})
		return
	}
	c.JSON(http.StatusOK, areas)
}

func (slf *sdgHandler) fetchData(c *gin.Context) {
	var req request.FetchSdg
	if err := pkg.ParseAndValidate(c, &req); err != nil {
		c.JSON(http.StatusBadRequest, response.APIError{Message: err.Error()})
		return
	}

	f, err := slf.sdgService.FetchIndicatorData(c.Request.Context(), sdgQueryFromRequest(req))
	if err != nil {
		slf.logger.Error().Err(err).Msg("Failed to fetch SDG indicator data")
		c.JSON(http.StatusBadGateway, response.APIError{Message: err.Error()})
		return
	}

	c.JSON(http.StatusOK, slf.datasetMapper.ToTableResult(f))
}

func (slf *sdgHandler) saveDataset(c *gin.Context) {
	userID, ok := pkg.GetUserID(c)
	if !ok {
		return
	}

	var req request.SaveSdgDataset
	if err := pkg.ParseAndValidate(c, &req); err != nil {
		c.JSON(http.StatusBadRequest, response.APIError{Message: err.Error()})
		return
	}

	dataset, err := slf.sdgService.SaveAsDataset(c.Request.Context(), userID, req.Name, req.Description, sdgQueryFromRequest(req.Query))
	if err != nil {
		slf.logger.Error().Err(err).Str("name", req.Name).Msg("Failed to save SDG dataset")
		c.JSON(http.StatusBadGateway, response.APIError{Message: err.Error()})
		return
	}

	c.JSON(http.StatusCreated, slf.datasetMapper.ToDatasetWithDetails(*dataset))
}
