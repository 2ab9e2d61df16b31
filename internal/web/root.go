package web

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
)

// index renders the layout with the welcome text in the outlet.
//
//	> curl "http://localhost:8080/?q=ada"
//	> curl "http://localhost:8080/?q=ada&_data=root"
func (h *Handler) index(c *gin.Context) {
	h.render(c, http.StatusOK, indexPage, 0, nil)
}

// createContact creates an empty contact and redirects to its edit page.
//
//	> curl http://localhost:8080/ --request "POST" --include
func (h *Handler) createContact(c *gin.Context) {
	contact, err := h.contacts.CreateEmptyContact(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.Redirect(http.StatusFound, fmt.Sprintf("/contacts/%d/edit", contact.Id))
}
