package tests

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/projetodesenvolve/orcamento/core/recipient"
)

func Test_recipientApi_query(t *testing.T) {
	app := setup(t)

	path := func(search, ordering string, isSelected *bool) string {
		v := make(url.Values)
		if search != "" {
			v.Add("search", search)
		}
		if ordering != "" {
			v.Add("ordering", ordering)
		}
		if isSelected != nil {
			v.Add("is_selected", strconv.FormatBool(*isSelected))
		}
		return "/api/emails?" + v.Encode()
	}
	bPtr := func(b bool) *bool { return &b }

	ana := app.addRecipient(t, "ana@escola.br", true)
	bruno := app.addRecipient(t, "bruno@prefeitura.gov.br", false)
	carla := app.addRecipient(t, "Carla@Escola.br", true)

	tests := []httpTest{
		{name: "get all", path: "/api/emails", token: app.token, wantCode: http.StatusOK, wantData: marchallList(t, carla, bruno, ana)},
		{name: "search (unknown)", path: path("lol", "", nil), token: app.token, wantCode: http.StatusOK, wantData: marchallList(t)},
		{name: "search=ESCOLA", path: path("ESCOLA", "", nil), token: app.token, wantCode: http.StatusOK, wantData: marchallList(t, carla, ana)},
		{name: "is_selected=true", path: path("", "", bPtr(true)), token: app.token, wantCode: http.StatusOK, wantData: marchallList(t, carla, ana)},
		{name: "is_selected=false", path: path("", "", bPtr(false)), token: app.token, wantCode: http.StatusOK, wantData: marchallList(t, bruno)},
		{name: "ordering=email", path: path("", "email", nil), token: app.token, wantCode: http.StatusOK, wantData: marchallList(t, ana, bruno, carla)},
		{name: "ordering=-email", path: path("", "-email", nil), token: app.token, wantCode: http.StatusOK, wantData: marchallList(t, carla, bruno, ana)},
		{name: "ordering=id", path: path("", "id", nil), token: app.token, wantCode: http.StatusOK, wantData: marchallList(t, ana, bruno, carla)},
		{name: "unknown ordering ignored", path: path("", "lol", nil), token: app.token, wantCode: http.StatusOK, wantData: marchallList(t, carla, bruno, ana)},
		{
			name: "search + is_selected + ordering", path: path("escola", "email", bPtr(true)), token: app.token,
			wantCode: http.StatusOK, wantData: marchallList(t, ana, carla),
		},
	}
	runHTTPTests(t, app, tests)
}

func Test_recipientApi_create(t *testing.T) {
	app := setup(t)
	app.addRecipient(t, "ana@escola.br", false)

	tests := []httpTest{
		{
			name: "email required", method: http.MethodPost, path: "/api/emails", token: app.token, body: []byte(`{}`),
			wantCode: http.StatusBadRequest, wantData: []byte(`{"email":"this field is required"}`),
		},
		{
			name: "invalid email", method: http.MethodPost, path: "/api/emails", token: app.token, body: []byte(`{"email":"ana"}`),
			wantCode: http.StatusBadRequest, wantData: []byte(`{"email":"email must be a valid email address"}`),
		},
		{
			name: "duplicate email", method: http.MethodPost, path: "/api/emails", token: app.token, body: []byte(`{"email":" ANA@escola.br "}`),
			wantCode: http.StatusBadRequest, wantData: []byte(`{"email":"this email is already registered"}`),
		},
	}
	runHTTPTests(t, app, tests)

	t.Run("success", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, "/api/emails", app.token, []byte(`{"email":" Bruno@Escola.br "}`))
		app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusCreated, rec.Code)

		var rcpt recipient.Recipient
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &rcpt))
		assert.NotZero(t, rcpt.ID)
		assert.Equal(t, "bruno@escola.br", rcpt.Email)
		assert.True(t, rcpt.IsSelected)
		assert.False(t, rcpt.CreatedAt.IsZero())
	})
}

func Test_recipientApi_update(t *testing.T) {
	app := setup(t)
	ana := app.addRecipient(t, "ana@escola.br", true)
	detail := "/api/emails/" + strconv.Itoa(ana.ID)

	tests := []httpTest{
		{
			name: "not found", method: http.MethodPatch, path: "/api/emails/999", token: app.token, body: []byte(`{"is_selected":false}`),
			wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: "not found"}),
		},
		{
			name: "non numeric id", method: http.MethodPatch, path: "/api/emails/abc", token: app.token, body: []byte(`{"is_selected":false}`),
			wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: "not found"}),
		},
		{
			name: "is_selected required", method: http.MethodPatch, path: detail, token: app.token, body: []byte(`{}`),
			wantCode: http.StatusBadRequest, wantData: []byte(`{"is_selected":"this field is required"}`),
		},
	}
	runHTTPTests(t, app, tests)

	for _, selected := range []bool{false, true} {
		t.Run("is_selected="+strconv.FormatBool(selected), func(t *testing.T) {
			body := marchallObj(t, map[string]bool{"is_selected": selected})
			req, rec := newAuthRequest(http.MethodPatch, detail, app.token, body)
			app.ServeHTTP(rec, req)
			require.Equal(t, http.StatusOK, rec.Code)

			var rcpt recipient.Recipient
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &rcpt))
			assert.Equal(t, ana.ID, rcpt.ID)
			assert.Equal(t, selected, rcpt.IsSelected)
			assert.False(t, rcpt.UpdatedAt.IsZero())
		})
	}
}

// vanishingRecipients removes a recipient right after loading it, as a concurrent delete would.
type vanishingRecipients struct {
	recipient.Service
}

func (v vanishingRecipients) Get(ctx context.Context, id int) (recipient.Recipient, error) {
	rcpt, err := v.Service.Get(ctx, id)
	if err == nil {
		err = v.Service.Remove(ctx, id)
	}
	return rcpt, err
}

func Test_recipientApi_removedConcurrently(t *testing.T) {
	app := setup(t, withRecipientService(func(svc recipient.Service) recipient.Service {
		return vanishingRecipients{svc}
	}))
	ana := app.addRecipient(t, "ana@escola.br", true)
	bruno := app.addRecipient(t, "bruno@escola.br", true)

	tests := []httpTest{
		{
			name: "update", method: http.MethodPatch, path: "/api/emails/" + strconv.Itoa(ana.ID), token: app.token,
			body: []byte(`{"is_selected":false}`), wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: "not found"}),
		},
		{
			name: "delete", method: http.MethodDelete, path: "/api/emails/" + strconv.Itoa(bruno.ID), token: app.token,
			wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: "not found"}),
		},
	}
	runHTTPTests(t, app, tests)
}

func Test_recipientApi_destroy(t *testing.T) {
	app := setup(t)
	ana := app.addRecipient(t, "ana@escola.br", true)
	bruno := app.addRecipient(t, "bruno@escola.br", true)
	detail := "/api/emails/" + strconv.Itoa(ana.ID)

	tests := []httpTest{
		{
			name: "not found", method: http.MethodDelete, path: "/api/emails/999", token: app.token,
			wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: "not found"}),
		},
		{name: "delete", method: http.MethodDelete, path: detail, token: app.token, wantCode: http.StatusNoContent},
		{
			name: "already deleted", method: http.MethodDelete, path: detail, token: app.token,
			wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: "not found"}),
		},
		{name: "remaining", path: "/api/emails", token: app.token, wantCode: http.StatusOK, wantData: marchallList(t, bruno)},
	}
	runHTTPTests(t, app, tests)
}
