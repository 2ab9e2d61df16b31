// Package integrationtest runs the whole app against a real database. By default every test gets
// its own SQLite file. With DBDRIVER=mysql and the usual DB* variables the tests run against a
// MySQL server instead, which they share, so they only look at the contacts they created.
package integrationtest

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gitlab.com/dirk.krummacker/contacts-app/internal/config"
	"gitlab.com/dirk.krummacker/contacts-app/internal/logger"
	"gitlab.com/dirk.krummacker/contacts-app/internal/model"
	"gitlab.com/dirk.krummacker/contacts-app/internal/store"
	"gitlab.com/dirk.krummacker/contacts-app/internal/web"
)

// setupRouter wires database, store and router the same way the service does.
func setupRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	log := logger.NewNop()

	cfg, err := config.Load(log)
	require.NoError(t, err)
	if cfg.DBDriver == config.DriverSQLite {
		cfg.DBFile = filepath.Join(t.TempDir(), "contacts.db")
	}
	db, err := store.Open(cfg)
	require.NoError(t, err)
	require.NoError(t, store.Migrate(context.Background(), db))

	contacts, err := store.NewSQLStore(db)
	require.NoError(t, err)
	t.Cleanup(func() { contacts.Close() })
	return web.SetupHttpRouter(contacts, log, web.Options{})
}

// marker returns a string that no other contact in the database contains.
func marker() string {
	return "m" + strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
}

// send executes the HTTP request and returns the response.
func send(router http.Handler, method string, target string, body string) *httptest.ResponseRecorder {
	recorder := httptest.NewRecorder()
	request := httptest.NewRequest(method, target, strings.NewReader(body))
	if strings.HasPrefix(body, "{") {
		request.Header.Set("Content-Type", "application/json")
	}
	router.ServeHTTP(recorder, request)
	return recorder
}

// submit posts the form values like a browser does.
func submit(router http.Handler, target string, form url.Values) *httptest.ResponseRecorder {
	recorder := httptest.NewRecorder()
	request := httptest.NewRequest(http.MethodPost, target, strings.NewReader(form.Encode()))
	request.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	router.ServeHTTP(recorder, request)
	return recorder
}

// createContact creates a contact through the JSON API and returns it.
func createContact(t *testing.T, router http.Handler, body string) model.Contact {
	t.Helper()
	recorder := send(router, http.MethodPost, "/api/contacts", body)
	require.Equal(t, http.StatusCreated, recorder.Code, recorder.Body.String())
	var contact model.Contact
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &contact))
	return contact
}

// search runs the root loader with q and returns the contacts it found.
func search(t *testing.T, router http.Handler, q string) []model.Contact {
	t.Helper()
	recorder := send(router, http.MethodGet, "/?_data=root&q="+url.QueryEscape(q), "")
	require.Equal(t, http.StatusOK, recorder.Code)
	var list struct {
		Contacts []model.Contact `json:"contacts"`
		Q        *string         `json:"q"`
	}
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &list))
	require.NotNil(t, list.Q)
	assert.Equal(t, q, *list.Q)
	return list.Contacts
}

// lastNames lists the last names in order, "-" standing in for a missing one.
func lastNames(contacts []model.Contact) []string {
	result := make([]string, 0, len(contacts))
	for _, c := range contacts {
		if c.Last == nil {
			result = append(result, "-")
		} else {
			result = append(result, *c.Last)
		}
	}
	return result
}

// TestContactHappyPath tests a POST, GET, PUT, and DELETE on the JSON API with valid data.
func TestContactHappyPath(t *testing.T) {
	router := setupRouter(t)

	// test the endpoint for creating a contact
	created := createContact(t, router, `
		{
			"first": "Erika",
			"last": "Mustermann",
			"twitter": "@erika",
			"notes": "Musterfrau"
		}
	`)
	assert.NotZero(t, created.Id)
	assert.NotZero(t, created.CreatedAt)
	assert.Equal(t, "Erika Mustermann", created.Name())
	path := fmt.Sprintf("/api/contacts/%d", created.Id)

	// test the endpoint for finding a contact
	getRecorder := send(router, http.MethodGet, path, "")
	assert.Equal(t, http.StatusOK, getRecorder.Code)
	var found model.Contact
	require.NoError(t, json.Unmarshal(getRecorder.Body.Bytes(), &found))
	assert.Equal(t, created, found)

	// test the endpoint for updating a contact
	putRecorder := send(router, http.MethodPut, path, `
		{
			"first": "Rudi",
			"last": "Völler",
			"favorite": true
		}
	`)
	assert.Equal(t, http.StatusOK, putRecorder.Code)
	var updated model.Contact
	require.NoError(t, json.Unmarshal(putRecorder.Body.Bytes(), &updated))
	assert.Equal(t, created.Id, updated.Id)
	assert.Equal(t, "Rudi Völler", updated.Name())
	assert.Equal(t, "@erika", model.Value(updated.Twitter))
	assert.True(t, updated.Favorite)
	assert.Equal(t, created.CreatedAt, updated.CreatedAt)

	// updating with the same values again is not an error
	assert.Equal(t, http.StatusOK, send(router, http.MethodPut, path, `{"favorite": true}`).Code)

	// test the endpoint for deleting a contact
	deleteRecorder := send(router, http.MethodDelete, path, "")
	assert.Equal(t, http.StatusOK, deleteRecorder.Code)

	// test if a subsequent lookup of the contact fails
	assert.Equal(t, http.StatusNotFound, send(router, http.MethodGet, path, "").Code)
	assert.Equal(t, http.StatusNotFound, send(router, http.MethodDelete, path, "").Code)
}

// TestBrowserFlow walks through the pages the way the app is used in a browser: create a
// contact with the New button, fill in the edit form, mark it as favorite, find it in the
// sidebar, and delete it.
func TestBrowserFlow(t *testing.T) {
	router := setupRouter(t)
	name := marker()

	// New button
	recorder := send(router, http.MethodPost, "/", "")
	require.Equal(t, http.StatusFound, recorder.Code)
	editPath := recorder.Header().Get("Location")
	require.True(t, strings.HasSuffix(editPath, "/edit"), editPath)
	contactPath := strings.TrimSuffix(editPath, "/edit")

	// the new contact has no name yet
	doc, err := goquery.NewDocumentFromReader(send(router, http.MethodGet, editPath, "").Body)
	require.NoError(t, err)
	assert.Equal(t, "", doc.Find("#contact-form input[name=first]").AttrOr("value", "missing"))
	assert.Equal(t, "No Name", doc.Find("#sidebar nav a.active i").Text())

	// edit form
	recorder = submit(router, editPath, url.Values{
		"first":   {name},
		"last":    {"Lovelace"},
		"avatar":  {""},
		"twitter": {"@ada"},
		"notes":   {""},
	})
	require.Equal(t, http.StatusFound, recorder.Code)
	assert.Equal(t, contactPath, recorder.Header().Get("Location"))

	// favorite button
	recorder = submit(router, contactPath, url.Values{"favorite": {"true"}})
	require.Equal(t, http.StatusFound, recorder.Code)

	// contact page with the search still active
	recorder = send(router, http.MethodGet, contactPath+"?q="+strings.ToUpper(name), "")
	require.Equal(t, http.StatusOK, recorder.Code)
	doc, err = goquery.NewDocumentFromReader(recorder.Body)
	require.NoError(t, err)
	links := doc.Find("#sidebar nav li a")
	require.Equal(t, 1, links.Length())
	assert.Equal(t, "active", links.AttrOr("class", ""))
	assert.Equal(t, "★", links.Find("span").Text())
	assert.Contains(t, doc.Find("#contact h1").Text(), name+" Lovelace")
	assert.Equal(t, 0, doc.Find("#contact .notes").Length())

	// delete button
	recorder = send(router, http.MethodPost, contactPath+"/destroy", "")
	require.Equal(t, http.StatusFound, recorder.Code)
	assert.Equal(t, "/", recorder.Header().Get("Location"))
	assert.Empty(t, search(t, router, name))
	assert.Equal(t, http.StatusNotFound, send(router, http.MethodGet, contactPath, "").Code)
}

// TestCreateContactInvalidBody tests a POST with different forms of invalid request body data.
func TestCreateContactInvalidBody(t *testing.T) {
	router := setupRouter(t)
	for _, body := range []string{"", "{", `{"first": 1}`, `{"favorite": "yes"}`, `"Erika"`} {
		recorder := send(router, http.MethodPost, "/api/contacts", body)
		assert.Equal(t, http.StatusBadRequest, recorder.Code, body)
	}
}

// TestCreateContactEmptyJSON tests a POST with an empty JSON which must create a contact with all
// fields being empty.
func TestCreateContactEmptyJSON(t *testing.T) {
	router := setupRouter(t)

	contact := createContact(t, router, "{}")
	assert.NotZero(t, contact.Id)
	assert.Nil(t, contact.First)
	assert.Nil(t, contact.Last)
	assert.Nil(t, contact.Avatar)
	assert.Nil(t, contact.Twitter)
	assert.Nil(t, contact.Notes)
	assert.False(t, contact.Favorite)
}

// TestUpdateContactInvalidID tests a PUT with ids that do not belong to a contact.
func TestUpdateContactInvalidID(t *testing.T) {
	router := setupRouter(t)
	for _, id := range []string{"abc", "-1", "0", "99999999"} {
		recorder := send(router, http.MethodPut, "/api/contacts/"+id, `{"first": "Nobody"}`)
		assert.Equal(t, http.StatusNotFound, recorder.Code, id)
	}
}

// TestUpdateContactInvalidBody tests a PUT with a valid id but an invalid request body.
func TestUpdateContactInvalidBody(t *testing.T) {
	router := setupRouter(t)
	contact := createContact(t, router, `{"first": "Erika"}`)
	path := fmt.Sprintf("/api/contacts/%d", contact.Id)

	for _, body := range []string{"", "{", `{"first": true}`, "{}", `{"unknown": "field"}`} {
		recorder := send(router, http.MethodPut, path, body)
		assert.Equal(t, http.StatusBadRequest, recorder.Code, body)
	}
}

// TestUpdateContactPartially tests a PUT with only one field specified in the JSON. It verifies
// that all other fields keep their values.
func TestUpdateContactPartially(t *testing.T) {
	router := setupRouter(t)
	contact := createContact(t, router, `{"first": "Julius", "last": "Cäsar", "notes": "Veni, vidi, vici"}`)
	path := fmt.Sprintf("/api/contacts/%d", contact.Id)

	recorder := send(router, http.MethodPut, path, `{"last": ""}`)
	assert.Equal(t, http.StatusOK, recorder.Code)

	var updated model.Contact
	require.NoError(t, json.Unmarshal(send(router, http.MethodGet, path, "").Body.Bytes(), &updated))
	assert.Equal(t, "Julius", model.Value(updated.First))
	assert.Equal(t, "", model.Value(updated.Last))
	assert.NotNil(t, updated.Last)
	assert.Equal(t, "Veni, vidi, vici", model.Value(updated.Notes))
	assert.Equal(t, "Julius", updated.Name())
}

// TestFindContactsByNameFragment searches for the beginning, middle and end of first and last
// names, ignoring case.
func TestFindContactsByNameFragment(t *testing.T) {
	router := setupRouter(t)
	m := marker()
	createContact(t, router, fmt.Sprintf(`{"first": "Marcus%s", "last": "Antonius"}`, m))
	createContact(t, router, fmt.Sprintf(`{"first": "Grace", "last": "Hopper%s"}`, m))
	createContact(t, router, `{"first": "Unrelated", "last": "Person"}`)

	assert.Len(t, search(t, router, m), 2)
	assert.Len(t, search(t, router, strings.ToUpper(m)), 2)
	assert.Len(t, search(t, router, "marcus"+m), 1)
	assert.Len(t, search(t, router, "per"+m), 1)
	assert.Len(t, search(t, router, "xyz"+m), 0)
}

// TestFindContactsWithWildcards treats the SQL wildcards in a search term literally.
func TestFindContactsWithWildcards(t *testing.T) {
	router := setupRouter(t)
	m := marker()
	createContact(t, router, fmt.Sprintf(`{"first": "%s", "last": "100%% sure"}`, m))
	createContact(t, router, fmt.Sprintf(`{"first": "%s", "last": "snake_case!"}`, m))
	createContact(t, router, fmt.Sprintf(`{"first": "%s", "last": "plain"}`, m))

	assert.Equal(t, []string{"100% sure"}, lastNames(search(t, router, "0% s")))
	assert.Equal(t, []string{"snake_case!"}, lastNames(search(t, router, "e_c")))
	assert.Equal(t, []string{"snake_case!"}, lastNames(search(t, router, "se!")))
}

// TestFindContactsOrdered verifies that contacts are sorted by last name, contacts without a last
// name first, and by creation time for equal last names.
func TestFindContactsOrdered(t *testing.T) {
	router := setupRouter(t)
	m := marker()
	first := createContact(t, router, fmt.Sprintf(`{"first": "%s", "last": "Zeta"}`, m))
	createContact(t, router, fmt.Sprintf(`{"first": "%s", "last": "Alpha"}`, m))
	createContact(t, router, fmt.Sprintf(`{"first": "%s"}`, m))
	second := createContact(t, router, fmt.Sprintf(`{"first": "%s", "last": "Zeta"}`, m))

	contacts := search(t, router, m)
	assert.Equal(t, []string{"-", "Alpha", "Zeta", "Zeta"}, lastNames(contacts))
	assert.Equal(t, first.Id, contacts[2].Id)
	assert.Equal(t, second.Id, contacts[3].Id)
}

// TestFindContactsPaging uses limit and offset of the JSON API to page through the results.
func TestFindContactsPaging(t *testing.T) {
	router := setupRouter(t)
	m := marker()
	for i := 0; i < 5; i++ {
		createContact(t, router, fmt.Sprintf(`{"first": "%s", "last": "L%d"}`, m, i))
	}

	page := func(query string) []string {
		recorder := send(router, http.MethodGet, "/api/contacts?q="+m+"&"+query, "")
		require.Equal(t, http.StatusOK, recorder.Code)
		var list struct {
			Contacts []model.Contact `json:"contacts"`
		}
		require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &list))
		return lastNames(list.Contacts)
	}
	assert.Equal(t, []string{"L0", "L1"}, page("limit=2"))
	assert.Equal(t, []string{"L2", "L3"}, page("limit=2&offset=2"))
	assert.Equal(t, []string{"L4"}, page("limit=2&offset=4"))
	assert.Equal(t, []string{"L3", "L4"}, page("offset=3"))
	assert.Empty(t, page("offset=10"))
}

// TestFindContactInvalidID tests a GET with an invalid id.
func TestFindContactInvalidID(t *testing.T) {
	router := setupRouter(t)
	for _, path := range []string{"/api/contacts/abc", "/api/contacts/99999999", "/contacts/abc", "/contacts/99999999"} {
		assert.Equal(t, http.StatusNotFound, send(router, http.MethodGet, path, "").Code, path)
	}
}

// TestDeleteContactInvalidID tests a DELETE with an invalid id.
func TestDeleteContactInvalidID(t *testing.T) {
	router := setupRouter(t)
	assert.Equal(t, http.StatusNotFound, send(router, http.MethodDelete, "/api/contacts/abc", "").Code)
	assert.Equal(t, http.StatusNotFound, send(router, http.MethodDelete, "/api/contacts/99999999", "").Code)
	assert.Equal(t, http.StatusNotFound, send(router, http.MethodPost, "/contacts/99999999/destroy", "").Code)
}

// TestHealthz reports ok while the database is reachable.
func TestHealthz(t *testing.T) {
	router := setupRouter(t)
	recorder := send(router, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, recorder.Code)
	assert.JSONEq(t, `{"status": "ok"}`, recorder.Body.String())
}
