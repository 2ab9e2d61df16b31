package web

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"gitlab.com/dirk.krummacker/contacts-app/internal/apperr"
	"gitlab.com/dirk.krummacker/contacts-app/internal/model"
	"gitlab.com/dirk.krummacker/contacts-app/internal/store"
)

// findContacts responds with the contacts matching the URL parameter 'q' as JSON, in the same
// shape as the root loader: {"contacts": [...], "q": ...}.
//
// The URL parameter 'q' is matched against the beginning, middle or end of first and last name,
// ignoring case.
//
// The URL parameter 'limit' specifies how many contacts matching the search criteria are returned.
// The URL parameter 'offset' specifies how many items from the sorted list of results are skipped
// in the beginning. Together with the 'limit' parameter, one can implement search result paging.
//
// REST API calls:
//
//	> curl "http://localhost:8080/api/contacts"
//	> curl "http://localhost:8080/api/contacts?q=Ji"
//	> curl "http://localhost:8080/api/contacts?limit=20&offset=60"
func (h *Handler) findContacts(c *gin.Context) {
	limit, offset, err := parseLimitAndOffset(c)
	if err != nil {
		h.fail(c, err)
		return
	}
	var q *string
	if value, ok := c.GetQuery("q"); ok {
		q = &value
	}
	contacts, err := h.contacts.GetContacts(c.Request.Context(), store.Filter{
		Query:  model.Value(q),
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	c.IndentedJSON(http.StatusOK, contactList{Contacts: contacts, Q: q})
}

// parseLimitAndOffset inspects the URL parameters and determines values for limit and offset of
// the result set. Missing parameters yield 0, which means no limit and no offset.
func parseLimitAndOffset(c *gin.Context) (limit int, offset int, err error) {
	if s := c.Query("limit"); s != "" {
		limit, err = strconv.Atoi(s)
		if err != nil || limit < 1 {
			return 0, 0, apperr.Invalid("invalid limit parameter")
		}
	}
	if s := c.Query("offset"); s != "" {
		offset, err = strconv.Atoi(s)
		if err != nil || offset < 0 {
			return 0, 0, apperr.Invalid("invalid offset parameter")
		}
	}
	return limit, offset, nil
}

// createContactJSON inserts the contact specified in the request's JSON. It responds with the
// full contact data including the newly assigned id. Fields missing in the JSON stay empty; an
// 'id' or 'createdAt' in the JSON is ignored.
//
// Example REST API call:
//
//	> curl http://localhost:8080/api/contacts --request "POST" --include --header "Content-Type: application/json" --data '{"first": "Hans", "last": "Wurst", "twitter": "@hanswurst"}'
func (h *Handler) createContactJSON(c *gin.Context) {
	var newContact model.Contact
	if err := c.ShouldBindJSON(&newContact); err != nil {
		h.fail(c, apperr.Invalid("invalid JSON"))
		return
	}
	contact, err := h.contacts.CreateContact(c.Request.Context(), newContact)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.IndentedJSON(http.StatusCreated, contact)
}

// findContactByID locates the contact whose ID value matches the id parameter of the request URL,
// then returns that contact as a response.
//
// Example REST API call:
//
//	> curl http://localhost:8080/api/contacts/56
func (h *Handler) findContactByID(c *gin.Context) {
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
	c.IndentedJSON(http.StatusOK, contact)
}

// updateContactByID updates the contact whose ID value matches the id parameter of the request
// URL with the values specified in the JSON (and only those), and finally responds with the new
// version of the contact.
//
// Example REST API calls:
//
//	> curl http://localhost:8080/api/contacts/56 --request "PUT" --include --header "Content-Type: application/json" --data '{"twitter": "@rudi"}'
//	> curl http://localhost:8080/api/contacts/56 --request "PUT" --include --header "Content-Type: application/json" --data '{"favorite": true}'
func (h *Handler) updateContactByID(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		h.fail(c, err)
		return
	}
	var submitted model.ContactUpdate
	if err := c.ShouldBindJSON(&submitted); err != nil {
		h.fail(c, apperr.Invalid("invalid JSON"))
		return
	}
	contact, err := h.contacts.UpdateContact(c.Request.Context(), id, submitted)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.IndentedJSON(http.StatusOK, contact)
}

// deleteContactByID deletes the contact whose ID value matches the id parameter of the request
// URL.
//
// Example REST API call:
//
//	> curl http://localhost:8080/api/contacts/56 --request "DELETE"
func (h *Handler) deleteContactByID(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		h.fail(c, err)
		return
	}
	if err := h.contacts.DeleteContact(c.Request.Context(), id); err != nil {
		h.fail(c, err)
		return
	}
	c.IndentedJSON(http.StatusOK, gin.H{"message": "contact deleted"})
}

// health reports whether the service and its store are usable.
func (h *Handler) health(c *gin.Context) {
	if pinger, ok := h.contacts.(store.Pinger); ok {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := pinger.Ping(ctx); err != nil {
			h.log.Warn("Health check failed", "error", err)
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
