package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"gorm.io/gorm"

	handler "invoice-billing-backend/internal/handlers"
	"invoice-billing-backend/internal/metrics"
	"invoice-billing-backend/internal/repository"
	"invoice-billing-backend/internal/services/documents"
	"invoice-billing-backend/internal/services/invoicing"
)

// Dependencies are the process-level resources the routes are built from.
type Dependencies struct {
	DB              *gorm.DB
	Renderer        documents.Renderer
	Artifacts       documents.ArtifactStore
	ScratchDir      string
	DuplicatePolicy invoicing.DuplicatePolicy
	Metrics         *metrics.Metrics
	Gatherer        prometheus.Gatherer // defaults to prometheus.DefaultGatherer
	Logger          *zap.Logger
}

func RegisterRoutes(r *gin.Engine, deps Dependencies) {
	invoiceRepo := repository.NewInvoiceRepository(deps.DB)
	renderLogRepo := repository.NewRenderLogRepository(deps.DB)

	pipeline := documents.NewPipeline(
		deps.Renderer,
		deps.Artifacts,
		documents.WithScratchDir(deps.ScratchDir),
		documents.WithRenderLog(renderLogRepo),
		documents.WithMetrics(deps.Metrics),
		documents.WithLogger(deps.Logger),
	)
	invoiceService := invoicing.NewInvoiceService(
		invoiceRepo,
		pipeline,
		deps.DuplicatePolicy,
		deps.Metrics,
		deps.Logger,
	)

	invoiceHandler := handler.NewInvoiceHandler(invoiceService)
	documentHandler := handler.NewDocumentHandler(pipeline)

	// Health check
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	gatherer := deps.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))

	// Invoice records
	r.POST("/invoices", invoiceHandler.Create)
	r.PATCH("/invoices", invoiceHandler.UpdateStatus)
	r.GET("/invoices", invoiceHandler.List)

	// Invoice documents
	r.POST("/createinvoice", documentHandler.Create)
	r.GET("/createinvoice", documentHandler.List)
	r.GET("/download", documentHandler.Download)

	// known path, wrong method: same answer as an unknown path
	r.HandleMethodNotAllowed = true
	r.NoMethod(handler.InvalidCall)
	r.NoRoute(handler.InvalidCall)
}
