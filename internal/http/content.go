package http

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/mrlokans/symptomchecker/internal/provider"
	"github.com/mrlokans/symptomchecker/internal/router"
)

// ContentProvider is the CRUD surface exposed over HTTP.
// *provider.Provider implements it.
type ContentProvider interface {
	Query(path string, args provider.QueryArgs) (*provider.Cursor, error)
	Insert(path string, values provider.Record) (router.Match, error)
	Update(path string, values provider.Record, filter string, filterArgs ...any) (int64, error)
	Delete(path string, filter string, filterArgs ...any) (int64, error)
	Type(path string) (string, error)
	ChangeObserver
}

var _ ContentProvider = (*provider.Provider)(nil)

// ContentTypeHeader carries the provider content type of a query result.
const ContentTypeHeader = "X-Content-Type"

// ContentController resolves /content/<segment>[/<id>] against the provider.
//
// Query parameters:
//
//	columns  comma-separated projection (GET only)
//	filter   SQL boolean expression with ? placeholders
//	arg      repeated, bound to the placeholders in order
//	order    ORDER BY expression (GET only)
type ContentController struct {
	provider  ContentProvider
	authority string
	log       zerolog.Logger
}

func NewContentController(p ContentProvider, authority string, log zerolog.Logger) *ContentController {
	return &ContentController{
		provider:  p,
		authority: authority,
		log:       log,
	}
}

func (cc *ContentController) contentPath(c *gin.Context) string {
	return cc.authority + c.Param("path")
}

func filterArgs(c *gin.Context) []any {
	raw := c.QueryArray("arg")
	args := make([]any, len(raw))
	for i, a := range raw {
		args[i] = a
	}
	return args
}

func (cc *ContentController) Query(c *gin.Context) {
	path := cc.contentPath(c)

	args := provider.QueryArgs{
		Filter:     c.Query("filter"),
		FilterArgs: filterArgs(c),
		Order:      c.Query("order"),
	}
	if cols := c.Query("columns"); cols != "" {
		args.Columns = strings.Split(cols, ",")
	}

	contentType, err := cc.provider.Type(path)
	if err != nil {
		respondProviderError(c, cc.log, err, "content type")
		return
	}

	cursor, err := cc.provider.Query(path, args)
	if err != nil {
		respondProviderError(c, cc.log, err, "query")
		return
	}
	records, err := cursor.All()
	if err != nil {
		respondProviderError(c, cc.log, err, "query")
		return
	}

	c.Header(ContentTypeHeader, contentType)
	c.JSON(http.StatusOK, records)
}

func (cc *ContentController) Insert(c *gin.Context) {
	path := cc.contentPath(c)

	var values provider.Record
	if err := c.ShouldBindJSON(&values); err != nil {
		respondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	m, err := cc.provider.Insert(path, values)
	if err != nil {
		respondProviderError(c, cc.log, err, "insert")
		return
	}
	uri, err := cc.provider.Path(m)
	if err != nil {
		respondInternalError(c, cc.log, err, "insert path")
		return
	}

	c.Header("Location", "/content"+strings.TrimPrefix(uri, cc.authority))
	c.JSON(http.StatusCreated, CreatedResponse{URI: uri, ID: m.RowID})
}

func (cc *ContentController) Update(c *gin.Context) {
	path := cc.contentPath(c)

	var values provider.Record
	if err := c.ShouldBindJSON(&values); err != nil {
		respondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	rows, err := cc.provider.Update(path, values, c.Query("filter"), filterArgs(c)...)
	if err != nil {
		respondProviderError(c, cc.log, err, "update")
		return
	}
	c.JSON(http.StatusOK, RowsResponse{Rows: rows})
}

func (cc *ContentController) Delete(c *gin.Context) {
	path := cc.contentPath(c)

	rows, err := cc.provider.Delete(path, c.Query("filter"), filterArgs(c)...)
	if err != nil {
		respondProviderError(c, cc.log, err, "delete")
		return
	}
	c.JSON(http.StatusOK, RowsResponse{Rows: rows})
}
