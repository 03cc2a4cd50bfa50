package payroll

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/odyssey-hr/internal/policy"
	"github.com/odyssey-erp/odyssey-hr/internal/rbac"
	"github.com/odyssey-erp/odyssey-hr/internal/shared"
)

type handlerFixture struct {
	router http.Handler
	repo   *memoryRepo
	users  map[string]*rbac.User
}

func newHandlerFixture(t *testing.T, registry *policy.Registry) *handlerFixture {
	t.Helper()
	if registry == nil {
		var err error
		registry, err = policy.NewBuilder().Register(policy.ResourcePayslip, Policy{}).Build(policy.ResourcePayslip)
		require.NoError(t, err)
	}
	repo := newMemoryRepo()
	svc := NewService(repo, nil, nil, nil)
	h := NewHandler(nil, svc, policy.NewAuthorizer(registry, nil, nil))

	users := map[string]*rbac.User{
		"officer":  rbac.NewUser(1, "", shared.PermPayslipCreate, shared.PermPayslipView, shared.PermPayslipList),
		"admin":    rbac.NewUser(2, "", shared.HRScopes()...),
		"employee": rbac.NewUser(9, ""),
	}
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			if u, ok := users[req.Header.Get("X-Test-User")]; ok {
				req = req.WithContext(rbac.ContextWithPrincipal(req.Context(), u))
			}
			next.ServeHTTP(w, req)
		})
	})
	r.Route("/payslips", h.MountRoutes)
	return &handlerFixture{router: r, repo: repo, users: users}
}

func (f *handlerFixture) do(method, path, user, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("X-Test-User", user)
	rr := httptest.NewRecorder()
	f.router.ServeHTTP(rr, req)
	return rr
}

func (f *handlerFixture) seed(t *testing.T) Payslip {
	t.Helper()
	p := Payslip{ID: uuid.New(), EmployeeID: 9, Period: "2024-05", GrossCents: 100, NetCents: 90, Currency: "IDR", IssuedBy: 1}
	require.NoError(t, f.repo.CreatePayslip(context.Background(), p))
	return p
}

func TestHandlerIssuePayslip(t *testing.T) {
	f := newHandlerFixture(t, nil)
	body := `{"employee_id":9,"period":"2024-05","gross_cents":500000,"net_cents":410000,"currency":"IDR"}`

	rr := f.do(http.MethodPost, "/payslips", "officer", body)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	var got Payslip
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
	require.EqualValues(t, 9, got.EmployeeID)
	require.EqualValues(t, 1, got.IssuedBy)

	rr = f.do(http.MethodPost, "/payslips", "officer", body)
	require.Equal(t, http.StatusConflict, rr.Code)

	rr = f.do(http.MethodPost, "/payslips", "employee", body)
	require.Equal(t, http.StatusForbidden, rr.Code)

	rr = f.do(http.MethodPost, "/payslips", "officer", `{"employee_id":9`)
	require.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestHandlerShowPayslip(t *testing.T) {
	f := newHandlerFixture(t, nil)
	p := f.seed(t)

	rr := f.do(http.MethodGet, "/payslips/"+p.ID.String(), "officer", "")
	require.Equal(t, http.StatusOK, rr.Code)

	// The employee owns the payslip but holds no view permission.
	rr = f.do(http.MethodGet, "/payslips/"+p.ID.String(), "employee", "")
	require.Equal(t, http.StatusForbidden, rr.Code)

	rr = f.do(http.MethodGet, "/payslips/"+uuid.NewString(), "officer", "")
	require.Equal(t, http.StatusNotFound, rr.Code)

	rr = f.do(http.MethodGet, "/payslips/not-a-uuid", "officer", "")
	require.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestHandlerLoadsBeforeAuthorizing(t *testing.T) {
	f := newHandlerFixture(t, nil)
	p := f.seed(t)

	rr := f.do(http.MethodGet, "/payslips/"+uuid.NewString(), "employee", "")
	require.Equal(t, http.StatusNotFound, rr.Code)

	rr = f.do(http.MethodGet, "/payslips/"+p.ID.String(), "employee", "")
	require.Equal(t, http.StatusForbidden, rr.Code)
}

func TestHandlerIssuedPayslipCannotChange(t *testing.T) {
	f := newHandlerFixture(t, nil)
	p := f.seed(t)

	for _, user := range []string{"admin", "employee"} {
		rr := f.do(http.MethodPut, "/payslips/"+p.ID.String(), user, `{}`)
		require.Equal(t, http.StatusForbidden, rr.Code, user)
		rr = f.do(http.MethodDelete, "/payslips/"+p.ID.String(), user, "")
		require.Equal(t, http.StatusForbidden, rr.Code, user)
	}
	require.Contains(t, f.repo.slips, p.ID)
}

func TestHandlerListPayslips(t *testing.T) {
	f := newHandlerFixture(t, nil)
	f.seed(t)

	rr := f.do(http.MethodGet, "/payslips?period=2024-05", "officer", "")
	require.Equal(t, http.StatusOK, rr.Code)
	var body struct {
		Payslips []Payslip         `json:"payslips"`
		Paging   shared.Pagination `json:"paging"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	require.Len(t, body.Payslips, 1)
	require.Equal(t, 1, body.Paging.Total)

	rr = f.do(http.MethodGet, "/payslips", "employee", "")
	require.Equal(t, http.StatusForbidden, rr.Code)

	rr = f.do(http.MethodGet, "/payslips", "", "")
	require.Equal(t, http.StatusForbidden, rr.Code)
}

func TestHandlerMissingPolicyIsServerError(t *testing.T) {
	registry, err := policy.NewBuilder().Build()
	require.NoError(t, err)
	f := newHandlerFixture(t, registry)

	rr := f.do(http.MethodGet, "/payslips", "admin", "")
	require.Equal(t, http.StatusInternalServerError, rr.Code)
}
