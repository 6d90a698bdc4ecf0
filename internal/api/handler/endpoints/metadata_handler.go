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

type metadataHandler struct {
	metadataService *service.MetadataService
	emailService    *service.EmailMetadataService
	mailService     *service.MailService
	metadataMapper  mapper.MetadataMapper
	logger          zerolog.Logger
	config          studio.AppConfig
}

func newMetadataHandler() *metadataHandler {
	return &metadataHandler{
		metadataService: service.NewMetadataService(),
		emailService:    service.NewEmailMetadataService(),
		mailService:     service.NewMailService(),
		logger:          studio.Logger,
		config:          studio.GetConfig(),
	}
}

// MetadataHandler sets up connection metadata routes for databases and
// mailboxes.
func MetadataHandler(router *graceful.Graceful) {
	h := newMetadataHandler()

	routes := router.Group("/api/v1/connections")
	routes.Use(middleware.AuthMiddleware(h.config))

	db := routes.Group("/db")
	{
		db.GET("", h.getAll)
		db.GET("/:id", h.getByID)
		db.POST("", h.create)
		db.PUT("/:id", h.update)
		db.DELETE("/:id", h.delete)
		db.POST("/test-connection", h.testConnection)
	}

	email := routes.Group("/email")
	{
		email.GET("", h.getAllEmail)
		email.GET("/:id", h.getEmailByID)
		email.POST("", h.createEmail)
		email.PUT("/:id", h.updateEmail)
		email.DELETE("/:id", h.deleteEmail)
		email.POST("/:id/test-connection", h.testEmailConnection)
	}
}

func (slf *metadataHandler) getAll(c *gin.Context) {
	metadataList, err := slf.metadataService.FindAll()
	if err != nil {
		slf.logger.Error().Err(err).Msg("Failed to get all db metadata")
		c.JSON(http.StatusInternalServerError, response.APIError{Message: "Failed to retrieve metadata"})
		return
	}

	c.JSON(http.StatusOK, slf.metadataMapper.ToMetadataResponses(metadataList))
}

func (slf *metadataHandler) getByID(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	metadata, err := slf.metadataService.FindByID(id)
	if err != nil {
		slf.logger.Error().Err(err).Uint("id", id).Msg("Failed to get db metadata")
		c.JSON(http.StatusNotFound, response.APIError{Message: "Metadata not found"})
		return
	}

	c.JSON(http.StatusOK, slf.metadataMapper.ToMetadataResponse(*metadata))
}

func (slf *metadataHandler) create(c *gin.Context) {
	var req request.CreateMetadata
	if err := pkg.ParseAndValidate(c, &req); err != nil {
		slf.logger.Error().Err(err).Msg("Failed to parse create metadata request")
		c.JSON(http.StatusBadRequest, response.APIError{Message: err.Error()})
		return
	}

	created, err := slf.metadataService.Create(slf.metadataMapper.CreateDbMetadata(req))
	if err != nil {
		slf.logger.Error().Err(err).Msg("Failed to create db metadata")
		c.JSON(http.StatusInternalServerError, response.APIError{Message: "Failed to create metadata"})
		return
	}

	c.JSON(http.StatusCreated, slf.metadataMapper.ToMetadataResponse(*created))
}

func (slf *metadataHandler) update(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	var req request.UpdateMetadata
	if err := pkg.ParseAndValidate(c, &req); err != nil {
		slf.logger.Error().Err(err).Msg("Failed to parse update metadata request")
		c.JSON(http.StatusBadRequest, response.APIError{Message: err.Error()})
		return
	}

	updated, err := slf.metadataService.Update(id, slf.metadataMapper.PatchDbMetadata(req))
	if err != nil {
		slf.logger.Error().Err(err).Uint("id", id).Msg("Failed to update db metadata")
		c.JSON(http.StatusInternalServerError, response.APIError{Message: "Failed to update metadata"})
		return
	}

	c.JSON(http.StatusOK, slf.metadataMapper.ToMetadataResponse(*updated))
}

func (slf *metadataHandler) delete(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	if err := slf.metadataService.Delete(id); err != nil {
		slf.logger.Error().Err(err).Uint("id", id).Msg("Failed to delete db metadata")
		c.JSON(http.StatusInternalServerError, response.APIError{Message: "Failed to delete metadata"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"id": id, "deleted": true})
}

// testConnection tests a database connection from form values, before the
// connection is saved.
func (slf *metadataHandler) testConnection(c *gin.Context) {
	var req request.CreateMetadata
	if err := pkg.ParseAndValidate(c, &req); err != nil {
		slf.logger.Error().Err(err).Msg("Failed to parse test connection request")
		c.JSON(http.StatusBadRequest, response.APIError{Message: err.Error()})
		return
	}

	result := service.TestDatabaseConnection(slf.metadataMapper.CreateDbMetadata(req))
	c.JSON(http.StatusOK, result)
}

func (slf *metadataHandler) getAllEmail(c *gin.Context) {
	metadataList, err := slf.emailService.FindAll()
	if err != nil {
		slf.logger.Error().Err(err).Msg("Failed to get all email metadata")
		c.JSON(http.StatusInternalServerError, response.APIError{Message: "Failed to retrieve metadata"})
		return
	}

	c.JSON(http.StatusOK, slf.metadataMapper.ToEmailMetadataResponses(metadataList))
}

func (slf *metadataHandler) getEmailByID(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	metadata, err := slf.emailService.FindByID(id)
	if err != nil {
		slf.logger.Error().Err(err).Uint("id", id).Msg("Failed to get email metadata")
		c.JSON(http.StatusNotFound, response.APIError{Message: "Metadata not found"})
		return
	}

	c.JSON(http.StatusOK, slf.metadataMapper.ToEmailMetadataResponse(*metadata))
}

func (slf *metadataHandler) createEmail(c *gin.Context) {
	var req request.CreateEmailMetadata
	if err := pkg.ParseAndValidate(c, &req); err != nil {
		slf.logger.Error().Err(err).Msg("Failed to parse create email metadata request")
		c.JSON(http.StatusBadRequest, response.APIError{Message: err.Error()})
		return
	}

	created, err := slf.emailService.Create(slf.metadataMapper.CreateEmailMetadata(req))
	if err != nil {
		slf.logger.Error().Err(err).Msg("Failed to create email metadata")
		c.JSON(http.StatusInternalServerError, response.APIError{Message: "Failed to create metadata"})
		return
	}

	c.JSON(http.StatusCreated, slf.metadataMapper.ToEmailMetadataResponse(*created))
}

func (slf *metadataHandler) updateEmail(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	var req request.UpdateEmailMetadata
	if err := pkg.ParseAndValidate(c, &req); err != nil {
		slf.logger.Error().Err(err).Msg("Failed to parse update email metadata request")
		c.JSON(http.StatusBadRequest, response.APIError{Message: err.Error()})
		return
	}

	updated, err := slf.emailService.Update(id, slf.metadataMapper.PatchEmailMetadata(req))
	if err != nil {
		slf.logger.Error().Err(err).Uint("id", id).Msg("Failed to update email metadata")
		c.JSON(http.StatusInternalServerError, response.APIError{Message: "Failed to update metadata"})
		return
	}

	c.JSON(http.StatusOK, slf.metadataMapper.ToEmailMetadataResponse(*updated))
}

func (slf *metadataHandler) deleteEmail(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	if err := slf.emailService.Delete(id); err != nil {
		slf.logger.Error().Err(err).Uint("id", id).Msg("Failed to delete email metadata")
		c.JSON(http.StatusInternalServerError, response.APIError{Message: "Failed to delete metadata"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"id": id, "deleted": true})
}

// testEmailConnection probes both the IMAP and SMTP sides of a saved
// mailbox connection.
func (slf *metadataHandler) testEmailConnection(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	meta, err := slf.emailService.FindByID(id)
	if err != nil {
		c.JSON(http.StatusNotFound, response.APIError{Message: "Metadata not found"})
		return
	}

	result := response.TestEmailConnectionResult{ImapSuccess: true, SmtpSuccess: true}
	if err := slf.mailService.TestIMAPConnection(meta.ImapHost, meta.ImapPort, meta.Username, meta.Password, meta.UseTLS); err != nil {
		result.ImapSuccess = false
		result.ImapMessage = err.Error()
	}
	if err := slf.mailService.TestSMTPConnection(meta.SmtpHost, meta.SmtpPort, meta.Username, meta.Password, meta.UseTLS); err != nil {
		result.SmtpSuccess = false
		result.SmtpMessage = err.Error()
	}

	c.JSON(http.StatusOK, result)
}
