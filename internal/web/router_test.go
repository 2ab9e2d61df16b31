package web

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"gitlab.com/dirk.krummacker/contacts-app/internal/logger"
	"gitlab.com/dirk.krummacker/contacts-app/internal/model"
	"gitlab.com/dirk.krummacker/contacts-app/internal/store"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// tickingClock returns a clock that advances by one second on every call, so that contacts
// created one after the other have distinct creation times.
func tickingClock() func() time.Time {
	now := time.Date(2024, time.March, 2, 0, 0, 0, 0, time.UTC)
	return func() time.Time {
		now = now.Add(time.Second)
		return now
	}
}

// newMemoryRouter sets up the router on an in-memory store that holds the given contacts.
func newMemoryRouter(t *testing.T, contacts ...model.Contact) (*gin.Engine, *store.MemoryStore) {
	t.Helper()
	s := store.NewMemoryStore(store.WithClock(tickingClock()))
	for _, c := range contacts {
		_, err := s.CreateContact(context.Background(), c)
		require.NoError(t, err)
	}
	return SetupHttpRouter(s, logger.NewNop(), Options{}), s
}

// sampleContacts are stored with the ids 1, 2 and 3 in this order.
func sampleContacts() []model.Contact {
	return []model.Contact{
		{
			First:    model.Ptr("Ada"),
			Last:     model.Ptr("Lovelace"),
			Avatar:   model.Ptr("https://example.com/ada.png"),
			Twitter:  model.Ptr("@ada"),
			Notes:    model.Ptr("first programmer"),
			Favorite: true,
		},
		{
			First: model.Ptr("Grace"),
			Last:  model.Ptr("Hopper"),
		},
		{},
	}
}

// runRequest executes the HTTP request against the router and returns the response.
func runRequest(router http.Handler, method string, target string, body string) *httptest.ResponseRecorder {
	recorder := httptest.NewRecorder()
	request := httptest.NewRequest(method, target, strings.NewReader(body))
	router.ServeHTTP(recorder, request)
	return recorder
}

// postForm submits the form values like a browser does.
func postForm(router http.Handler, target string, form url.Values) *httptest.ResponseRecorder {
	recorder := httptest.NewRecorder()
	request := httptest.NewRequest(http.MethodPost, target, strings.NewReader(form.Encode()))
	request.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	router.ServeHTTP(recorder, request)
	return recorder
}

// parseHTML turns the response body into a goquery document.
func parseHTML(t *testing.T, recorder *httptest.ResponseRecorder) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(recorder.Body)
	require.NoError(t, err)
	return doc
}

// storeFilterAll selects every contact.
var storeFilterAll = store.Filter{}

// httptestRequestWithAccept executes a GET request with the given Accept header.
func httptestRequestWithAccept(router http.Handler, target string, accept string) *httptest.ResponseRecorder {
	recorder := httptest.NewRecorder()
	request := httptest.NewRequest(http.MethodGet, target, nil)
	request.Header.Set("Accept", accept)
	router.ServeHTTP(recorder, request)
	return recorder
}
