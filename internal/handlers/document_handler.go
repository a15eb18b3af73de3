package handler

import (
	"net/http"

	"invoice-billing-backend/internal/apperror"
	"invoice-billing-backend/internal/services/documents"
	"invoice-billing-backend/internal/services/rendering"

	"github.com/gin-gonic/gin"
)

type DocumentHandler struct {
	pipeline *documents.Pipeline
}

func NewDocumentHandler(p *documents.Pipeline) *DocumentHandler {
	return &DocumentHandler{pipeline: p}
}

type createDocumentRequest struct {
	HTMLString string              `json:"html_string"`
	Forename   string              `json:"forename"`
	Surname    string              `json:"surname"`
	YearMonth  string              `json:"yearmonth"`
	Options    *wkhtmltopdfOptions `json:"wkhtmltopdf_options"`
}

type wkhtmltopdfOptions struct {
	Margin      *string `json:"margin"`
	Orientation *string `json:"orientation"`
	Title       *string `json:"title"`
}

// toOptions keeps only recognised, well-formed options. A margin that is not
// exactly four values is dropped.
func (o *wkhtmltopdfOptions) toOptions() rendering.Options {
	var opts rendering.Options
	if o == nil {
		return opts
	}
	if o.Margin != nil {
		if m, ok := rendering.ParseMargin(*o.Margin); ok {
			opts.Margin = m
		}
	}
	if o.Orientation != nil {
		opts.Orientation = rendering.ParseOrientation(*o.Orientation)
	}
	if o.Title != nil {
		opts.Title = *o.Title
	}
	return opts
}

// Create handles POST /createinvoice with a JSON body.
func (h *DocumentHandler) Create(c *gin.Context) {
	var body createDocumentRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		respondError(c, apperror.New(apperror.CodeBadRequest, "Request body is not valid JSON.", err))
		return
	}

	_, err := h.pipeline.Generate(c.Request.Context(), documents.Request{
		HTML:      body.HTMLString,
		Forename:  body.Forename,
		Surname:   body.Surname,
		YearMonth: body.YearMonth,
		Options:   body.Options.toOptions(),
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.String(http.StatusOK, "Call to create invoice was successful")
}

// List handles GET /createinvoice.
func (h *DocumentHandler) List(c *gin.Context) {
	refs, err := h.pipeline.List(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, refs)
}

// Download handles GET /download?key=<filename>.
func (h *DocumentHandler) Download(c *gin.Context) {
	url, err := h.pipeline.DownloadURL(c.Request.Context(), c.Query("key"))
	if err != nil {
		respondError(c, err)
		return
	}
	// PureJSON keeps the query-string ampersands readable
	c.PureJSON(http.StatusOK, url)
}
