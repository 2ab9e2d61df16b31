package web

import (
	"errors"
	"html/template"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/render"
	"gitlab.com/dirk.krummacker/contacts-app/internal/apperr"
	"gitlab.com/dirk.krummacker/contacts-app/internal/model"
	"gitlab.com/dirk.krummacker/contacts-app/internal/store"
)

// Page templates. Each one is parsed together with the layout and fills its "outlet".
const (
	indexPage   = "index.html"
	contactPage = "contact.html"
	editPage    = "edit.html"
	errorPage   = "error.html"
)

var templateFuncs = template.FuncMap{
	"value": model.Value,
}

// pageRender implements gin's render.HTMLRender with one template set per page, since every
// page defines the same "outlet" block.
type pageRender struct {
	pages map[string]*template.Template
}

func newPageRender() pageRender {
	pages := make(map[string]*template.Template)
	for _, page := range []string{indexPage, contactPage, editPage, errorPage} {
		pages[page] = template.Must(template.New("layout.html").Funcs(templateFuncs).
			ParseFS(assets, "templates/layout.html", "templates/"+page))
	}
	return pageRender{pages: pages}
}

func (r pageRender) Instance(name string, data any) render.Render {
	return render.HTML{Template: r.pages[name], Name: "layout.html", Data: data}
}

// contactList is the payload of the root loader: the contacts matching q, and q itself, which
// is null when the request had no q parameter.
type contactList struct {
	Contacts []model.Contact `json:"contacts"`
	Q        *string         `json:"q"`
}

// layoutData is handed to the layout template. Page is the data of the page in the outlet.
type layoutData struct {
	Contacts []model.Contact
	Q        string
	ActiveID int64
	Page     any
}

// errorData is the page data of the error outlet.
type errorData struct {
	Status     int
	StatusText string
	Message    string
}

// loadRoot reads q from the request URL and fetches the matching contacts.
func (h *Handler) loadRoot(c *gin.Context) (contactList, error) {
	var q *string
	if value, ok := c.GetQuery("q"); ok {
		q = &value
	}
	contacts, err := h.contacts.GetContacts(c.Request.Context(), store.Filter{Query: model.Value(q)})
	if err != nil {
		return contactList{}, err
	}
	if contacts == nil {
		contacts = []model.Contact{}
	}
	return contactList{Contacts: contacts, Q: q}, nil
}

// rootData answers GET requests with _data=root with the root loader's JSON, without running
// the page handler.
func (h *Handler) rootData(c *gin.Context) {
	if c.Request.Method != http.MethodGet || c.Query("_data") != "root" {
		c.Next()
		return
	}
	data, err := h.loadRoot(c)
	if err != nil {
		h.fail(c, err)
		c.Abort()
		return
	}
	c.AbortWithStatusJSON(http.StatusOK, data)
}

// render runs the root loader and renders the layout with the given page in the outlet.
func (h *Handler) render(c *gin.Context, status int, page string, activeID int64, data any) {
	root, err := h.loadRoot(c)
	if err != nil {
		h.renderPlainError(c, err)
		return
	}
	c.HTML(status, page, layoutData{
		Contacts: root.Contacts,
		Q:        model.Value(root.Q),
		ActiveID: activeID,
		Page:     data,
	})
}

// fail answers with the status belonging to err. Requests for JSON get {"message": ...}, page
// requests get the error page inside the layout.
func (h *Handler) fail(c *gin.Context, err error) {
	status := h.logError(c, err)
	if wantsJSON(c) {
		c.AbortWithStatusJSON(status, gin.H{"message": publicMessage(status, err)})
		return
	}
	h.render(c, status, errorPage, 0, errorData{
		Status:     status,
		StatusText: http.StatusText(status),
		Message:    publicMessage(status, err),
	})
	c.Abort()
}

// renderPlainError is the last resort when even the layout cannot be rendered.
func (h *Handler) renderPlainError(c *gin.Context, err error) {
	status := h.logError(c, err)
	c.String(status, "%d %s\n", status, http.StatusText(status))
	c.Abort()
}

// logError logs server errors and returns the status for err.
func (h *Handler) logError(c *gin.Context, err error) int {
	status := apperr.StatusOf(err)
	if status >= http.StatusInternalServerError {
		h.log.Error("Request failed",
			"path", c.Request.URL.Path,
			"request_id", c.GetString(requestIDKey),
			"error", err,
		)
	}
	return status
}

// publicMessage hides the details of server errors from the client.
func publicMessage(status int, err error) string {
	if status >= http.StatusInternalServerError {
		return "internal server error"
	}
	var appErr *apperr.Error
	if errors.As(err, &appErr) && appErr.Err != nil {
		return appErr.Err.Error()
	}
	return err.Error()
}

// wantsJSON reports whether the client expects a JSON answer instead of a page.
func wantsJSON(c *gin.Context) bool {
	return strings.HasPrefix(c.Request.URL.Path, "/api/") ||
		c.Query("_data") != "" ||
		strings.Contains(c.GetHeader("Accept"), "application/json")
}

// parseID reads the id URL parameter.
func parseID(c *gin.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return 0, apperr.New(http.StatusNotFound, "not_found", errors.New("invalid id parameter"))
	}
	return id, nil
}

// notFound is the handler for unknown routes.
func (h *Handler) notFound(c *gin.Context) {
	h.fail(c, apperr.New(http.StatusNotFound, "not_found", errors.New("page not found")))
}
