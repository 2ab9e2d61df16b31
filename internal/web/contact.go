package web

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gitlab.com/dirk.krummacker/contacts-app/internal/apperr"
	"gitlab.com/dirk.krummacker/contacts-app/internal/model"
)

// showContact renders the contact in the outlet and marks it active in the list.
func (h *Handler) showContact(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		h.fail(c, err)
		return
	}
	contact, err := h.contacts.GetContact(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	h.render(c, http.StatusOK, contactPage, id, contact)
}

// favoriteContact sets the favorite flag from the form value "favorite" and goes back to the
// contact.
func (h *Handler) favoriteContact(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		h.fail(c, err)
		return
	}
	favorite, err := strconv.ParseBool(c.PostForm("favorite"))
	if err != nil {
		h.fail(c, apperr.Invalid("invalid favorite value"))
		return
	}
	update := model.ContactUpdate{Favorite: &favorite}
	if _, err := h.contacts.UpdateContact(c.Request.Context(), id, update); err != nil {
		h.fail(c, err)
		return
	}
	c.Redirect(http.StatusFound, fmt.Sprintf("/contacts/%d", id))
}

// editContact renders the edit form for the contact.
func (h *Handler) editContact(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		h.fail(c, err)
		return
	}
	contact, err := h.contacts.GetContact(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	h.render(c, http.StatusOK, editPage, id, contact)
}

// updateContact saves the submitted edit form and redirects to the contact. Only fields present
// in the form are written; an empty field stores an empty value.
func (h *Handler) updateContact(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		h.fail(c, err)
		return
	}
	var update model.ContactUpdate
	for field, target := range map[string]**string{
		"first":   &update.First,
		"last":    &update.Last,
		"avatar":  &update.Avatar,
		"twitter": &update.Twitter,
		"notes":   &update.Notes,
	} {
		if value, ok := c.GetPostForm(field); ok {
			*target = model.Ptr(value)
		}
	}
	if _, err := h.contacts.UpdateContact(c.Request.Context(), id, update); err != nil {
		h.fail(c, err)
		return
	}
	c.Redirect(http.StatusFound, fmt.Sprintf("/contacts/%d", id))
}

// destroyContact deletes the contact and redirects to the index.
func (h *Handler) destroyContact(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		h.fail(c, err)
		return
	}
	if err := h.contacts.DeleteContact(c.Request.Context(), id); err != nil {
		h.fail(c, err)
		return
	}
	c.Redirect(http.StatusFound, "/")
}
