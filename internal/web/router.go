// Package web serves the contacts app: server-rendered pages around the root layout with its
// searchable contact list, and a JSON API.
package web

import (
	"embed"
	"io/fs"
	"net/http"

	"github.com/gin-gonic/gin"
	"gitlab.com/dirk.krummacker/contacts-app/internal/logger"
	"gitlab.com/dirk.krummacker/contacts-app/internal/store"
)

//go:embed templates static
var assets embed.FS

// Options configure the HTTP router.
type Options struct {
	// HTTPLogging turns the request log on.
	HTTPLogging bool
	// CORSOrigins are the origins allowed to call the JSON API from a browser.
	CORSOrigins []string
}

// Handler holds the dependencies of all route handlers.
type Handler struct {
	contacts store.ContactStore
	log      *logger.Logger
}

// SetupHttpRouter initializes the router and registers all endpoints.
func SetupHttpRouter(contacts store.ContactStore, log *logger.Logger, opts Options) *gin.Engine {
	h := &Handler{contacts: contacts, log: log}

	router := gin.New()
	router.Use(RequestID())
	if opts.HTTPLogging {
		router.Use(RequestLogger(log))
	} else {
		log.Info("Turning off HTTP request logging.")
	}
	// Recovery must run inside the request logger to get panics into the request log.
	router.Use(Recovery(log))
	if len(opts.CORSOrigins) > 0 {
		router.Use(CORS(opts.CORSOrigins))
	}
	router.HTMLRender = newPageRender()

	static, err := fs.Sub(assets, "static")
	if err != nil {
		panic(err)
	}
	router.StaticFS("/assets", http.FS(static))

	// Pages. GET requests carrying _data=root are answered with the root loader's JSON.
	pages := router.Group("/", h.rootData)
	pages.GET("/", h.index)
	pages.POST("/", h.createContact)
	pages.GET("/contacts/:id", h.showContact)
	pages.POST("/contacts/:id", h.favoriteContact)
	pages.GET("/contacts/:id/edit", h.editContact)
	pages.POST("/contacts/:id/edit", h.updateContact)
	pages.POST("/contacts/:id/destroy", h.destroyContact)

	// JSON API.
	api := router.Group("/api")
	api.GET("/contacts", h.findContacts)
	api.POST("/contacts", h.createContactJSON)
	api.GET("/contacts/:id", h.findContactByID)
	api.PUT("/contacts/:id", h.updateContactByID)
	api.DELETE("/contacts/:id", h.deleteContactByID)

	router.GET("/healthz", h.health)
	router.NoRoute(h.notFound)
	return router
}
