package endpoints

import (
	"net/http"

	"github.com/gin-contrib/graceful"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"studio"
	"studio/internal/api/handler/middleware"
	"studio/internal/api/handler/request"
	"studio/internal/api/handler/response"
	"studio/internal/api/service"
	"studio/pkg"
)

type sqlHandler struct {
	logger     zerolog.Logger
	config     studio.AppConfig
	sqlService *service.SqlService
}

func newSqlHandler(sqlService *service.SqlService) *sqlHandler {
	return &sqlHandler{
		logger:     studio.Logger,
		config:     studio.GetConfig(),
		sqlService: sqlService,
	}
}

func SqlHandler(router *graceful.Graceful, sqlService *service.SqlService) {
	h := newSqlHandler(sqlService)

	routes := router.Group("/api/v1/sql")
	routes.Use(middleware.AuthMiddleware(h.config))
	{
		routes.POST("/guess-query", h.guessQuery)
		routes.POST("/optimize-query", h.optimizeQuery)
		routes.POST("/introspect/tables", h.getTables)
		routes.POST("/introspect/columns", h.getColumns)
	}
}

func (slf *sqlHandler) guessQuery(c *gin.Context) {
	var req request.GuessQueryRequest
	if err := pkg.ParseAndValidate(c, &req); err != nil {
		slf.logger.Error().Err(err).Msg("Failed to parse guess query request")
		c.JSON(http.StatusBadRequest, response.APIError{Message: err.Error()})
		return
	}

	query, err := slf.sqlService.GuessQuery(c.Request.Context(), req.Prompt, req.ConnectionID, req.PreviousMessages)
	if err != nil {
		slf.logger.Error().Err(err).Msg("Failed to guess query")
		c.JSON(http.StatusInternalServerError, response.APIError{Message: err.Error()})
		return
	}

	c.JSON(http.StatusOK, response.GuessQueryResponse{Query: query})
}

func (slf *sqlHandler) optimizeQuery(c *gin.Context) {
	var req request.OptimizeQueryRequest
	if err := pkg.ParseAndValidate(c, &req); err != nil {
		slf.logger.Error().Err(err).Msg("Failed to parse optimize query request")
		c.JSON(http.StatusBadRequest, response.APIError{Message: err.Error()})
		return
	}

	optimized, explanation, err := slf.sqlService.OptimizeQuery(c.Request.Context(), req.Query, req.ConnectionID)
	if err != nil {
		slf.logger.Error().Err(err).Msg("Failed to optimize query")
		c.JSON(http.StatusInternalServerError, response.APIError{Message: err.Error()})
		return
	}

	c.JSON(http.StatusOK, response.OptimizeQueryResponse{
		OptimizedQuery: optimized,
		Explanation:    explanation,
	})
}

func (slf *sqlHandler) getTables(c *gin.Context) {
	var req request.IntrospectTables
	if err := pkg.ParseAndValidate(c, &req); err != nil {
		slf.logger.Error().Err(err).Msg("Failed to parse introspect request")
		c.JSON(http.StatusBadRequest, response.APIError{Message: err.Error()})
		return
	}

	tables, err := service.IntrospectTables(req.MetadataDatabaseID)
	if err != nil {
		slf.logger.Error().Err(err).Msg("Failed to introspect tables")
		c.JSON(http.StatusBadRequest, response.APIError{Message: err.Error()})
		return
	}

	c.JSON(http.StatusOK, response.DatabaseIntrospection{Tables: tables})
}

func (slf *sqlHandler) getColumns(c *gin.Context) {
	var req request.IntrospectColumns
	if err := pkg.ParseAndValidate(c, &req); err != nil {
		slf.logger.Error().Err(err).Msg("Failed to parse introspect columns request")
		c.JSON(http.StatusBadRequest, response.APIError{Message: err.Error()})
		return
	}

	columns, err := service.IntrospectColumns(req.MetadataDatabaseID, req.TableName)
	if err != nil {
		slf.logger.Error().Err(err).Msg("Failed to introspect columns")
		c.JSON(http.StatusBadRequest, response.APIError{Message: err.Error()})
		return
	}

	c.JSON(http.StatusOK, response.DatabaseIntrospection{Columns: columns})
}
