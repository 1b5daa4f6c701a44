package assignment

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kazz187/volunteerdesk/internal/auth"
	"github.com/kazz187/volunteerdesk/internal/content"
	"github.com/kazz187/volunteerdesk/internal/volunteer"
	"github.com/kazz187/volunteerdesk/pkg/cerr"
)

func (f *fixture) router(caller auth.Caller) http.Handler {
	r := chi.NewRouter()
	r.Use(cerr.NewJSONResponseChiMiddleware(), func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(auth.ContextWithCaller(r.Context(), caller)))
		})
	})
	NewServer(f.engine).Mount(r)
	return r
}

func serve(h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestServer_AutoAssign(t *testing.T) {
	f := newFixture(t)
	f.addVolunteer(t, "a", volunteer.RoleContributor, volunteer.AvailabilityRegular, true, "skill:writing")
	f.addTask(t, "c1", content.CategoryReview, "")

	contributor := f.router(auth.Caller{UserID: "a", Role: "contributor"})
	rec := serve(contributor, http.MethodPost, "/content/c1/task/auto-assign", `{"dry_run": true}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var result Result
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.True(t, result.Success)
	assert.Equal(t, "a", result.AssignedTo)

	rec = serve(contributor, http.MethodPost, "/content/c1/task/auto-assign", `{}`)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	editor := f.router(auth.Caller{UserID: "ed", Role: "editor"})
	rec = serve(editor, http.MethodPost, "/content/c1/task/auto-assign", `{}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.Contains(t, result.Reason, "Assigned to Name a")

	rec = serve(editor, http.MethodPost, "/content/c1/task/auto-assign", `{"bogus": 1}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestServer_Recommend(t *testing.T) {
	f := newFixture(t)
	f.addVolunteer(t, "a", volunteer.RoleContributor, volunteer.AvailabilityRegular, true, "skill:writing")
	f.addVolunteer(t, "b", volunteer.RoleEditor, volunteer.AvailabilityRegular, true, "skill:writing", "skill:editing")
	h := f.router(auth.Caller{UserID: "a", Role: "contributor"})

	rec := serve(h, http.MethodGet, "/recommendations?category=review&max=1", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var body struct {
		Candidates []*Candidate `json:"candidates"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Candidates, 1)
	assert.Equal(t, "b", body.Candidates[0].Volunteer.ID)

	rec = serve(h, http.MethodGet, "/recommendations?category=review&max=zero", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec = serve(h, http.MethodGet, "/recommendations?category=gardening", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestServer_Config(t *testing.T) {
	f := newFixture(t)

	rec := serve(f.router(auth.Caller{UserID: "a", Role: "contributor"}), http.MethodPut, "/assignment/config", `{"workload_weight": 0.6}`)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	h := f.router(auth.Caller{UserID: "admin", Role: "administrator"})
	rec = serve(h, http.MethodPut, "/assignment/config", `{"workload_weight": 0.6}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = serve(h, http.MethodGet, "/assignment/config", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Config Config `json:"config"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.InDelta(t, 0.6, body.Config.WorkloadWeight, 1e-9)
	assert.InDelta(t, 0.4, body.Config.SkillMatchWeight, 1e-9)

	rec = serve(h, http.MethodPut, "/assignment/config", `{"min_required_skill_match": 2}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
