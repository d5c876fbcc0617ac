package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/fixitnow/portal-backend/internal/auth"
	"github.com/fixitnow/portal-backend/internal/domain"
	"github.com/fixitnow/portal-backend/internal/identity"
	"github.com/fixitnow/portal-backend/internal/store"
)

// ----- Fakes -----

type fakeAuth struct {
	loginRes    *auth.Result
	loginErr    error
	registerRes *auth.Result
	registerErr error
	registered  []domain.Account
}

func (f *fakeAuth) Login(_ context.Context, email, _ string, _ identity.Role) (*auth.Result, error) {
	if f.loginErr != nil {
		return nil, f.loginErr
	}
	if f.loginRes != nil {
		return f.loginRes, nil
	}
	return &auth.Result{Email: email, Role: identity.RoleCustomer, Source: auth.SourceLocal}, nil
}

func (f *fakeAuth) Register(_ context.Context, in domain.Account) (*auth.Result, error) {
	f.registered = append(f.registered, in)
	if f.registerErr != nil {
		return nil, f.registerErr
	}
	if f.registerRes != nil {
		return f.registerRes, nil
	}
	return &auth.Result{
		Email:  identity.NormalizeEmail(in.Email),
		Name:   in.Name,
		Role:   identity.ResolveRole(in.Role),
		Source: auth.SourceLocal,
	}, nil
}

type fakeGeo struct {
	place string
	err   error
	calls int
}

func (f *fakeGeo) ReverseGeocode(context.Context, float64, float64) (string, error) {
	f.calls++
	return f.place, f.err
}

// ----- Harness -----

func approvedProviderSnapshot() domain.Snapshot {
	return domain.Snapshot{
		CustomerProfile: domain.CustomerProfile{Name: "Carol", Email: "carol@x.com"},
		ProviderQueue: []domain.Provider{{
			Name: "Ann", Email: "ann@x.com", ServiceType: "Plumbing",
			Area: "HSR Layout", Status: domain.ProviderApproved,
		}},
		DisputeQueue: []domain.Dispute{{ID: "d1", Ticket: "DSP-1042", Issue: "No-show"}},
	}
}

func newHarness(t *testing.T, snap domain.Snapshot, authSvc AuthService, geo Geocoder) (*gin.Engine, *Handlers, *store.Store) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	st := store.New(snap, nil, zerolog.Nop())
	h := New(st, authSvc, geo, nil, time.Hour)
	return gin.New(), h, st
}

func serve(t *testing.T, r *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

// ----- Auth -----

func TestRegister_ProviderEntersVerificationQueue(t *testing.T) {
	fa := &fakeAuth{}
	r, h, st := newHarness(t, domain.Snapshot{}, fa, nil)
	r.POST("/auth/register", h.Register)

	w := serve(t, r, http.MethodPost, "/auth/register", map[string]any{
		"name": "Bob", "email": "bob@x.com", "password": "p",
		"role": "PROVIDER", "serviceType": "Cleaning", "address": "Indiranagar",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("code = %d body=%s", w.Code, w.Body.String())
	}

	snap := st.Snapshot()
	if len(snap.ProviderQueue) != 1 || snap.ProviderQueue[0].Email != "bob@x.com" {
		t.Fatalf("provider not queued: %+v", snap.ProviderQueue)
	}
	if snap.ProviderQueue[0].Status != domain.ProviderPending {
		t.Fatalf("status = %q", snap.ProviderQueue[0].Status)
	}
}

func TestRegister_CustomerSkipsQueue_GeoBackfill(t *testing.T) {
	fa := &fakeAuth{}
	fg := &fakeGeo{place: "Koramangala, Bengaluru"}
	r, h, st := newHarness(t, domain.Snapshot{}, fa, fg)
	r.POST("/auth/register", h.Register)

	lat, lon := 12.93, 77.62
	w := serve(t, r, http.MethodPost, "/auth/register", map[string]any{
		"email": "carol@x.com", "password": "p", "role": "customer",
		"latitude": lat, "longitude": lon,
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("code = %d body=%s", w.Code, w.Body.String())
	}
	if fg.calls != 1 {
		t.Fatalf("geocoder calls = %d", fg.calls)
	}
	if len(fa.registered) != 1 || fa.registered[0].Address != "Koramangala, Bengaluru" {
		t.Fatalf("address not backfilled: %+v", fa.registered)
	}
	if q := st.Snapshot().ProviderQueue; len(q) != 0 {
		t.Fatalf("customer must not enter the queue: %+v", q)
	}
}

func TestRegister_ErrorMapping(t *testing.T) {
	cases := map[string]struct {
		err  error
		code int
		body string
	}{
		"duplicate": {identity.ErrDuplicateEmailAccount, http.StatusConflict, ErrCodeDuplicateEmail},
		"email":     {identity.ErrInvalidEmail, http.StatusBadRequest, ErrCodeInvalidEmail},
		"role":      {identity.ErrInvalidRole, http.StatusBadRequest, ErrCodeInvalidRole},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			r, h, _ := newHarness(t, domain.Snapshot{}, &fakeAuth{registerErr: tc.err}, nil)
			r.POST("/auth/register", h.Register)
			w := serve(t, r, http.MethodPost, "/auth/register", map[string]any{
				"email": "x@x.com", "password": "p", "role": "CUSTOMER",
			})
			if w.Code != tc.code || !bytes.Contains(w.Body.Bytes(), []byte(tc.body)) {
				t.Fatalf("code=%d body=%s", w.Code, w.Body.String())
			}
		})
	}
}

func TestLogin_InvalidCredentials(t *testing.T) {
	r, h, _ := newHarness(t, domain.Snapshot{}, &fakeAuth{loginErr: identity.ErrInvalidCredentials}, nil)
	r.POST("/auth/login", h.Login)

	w := serve(t, r, http.MethodPost, "/auth/login", map[string]any{"email": "x@x.com", "password": "bad"})
	if w.Code != http.StatusUnauthorized || !bytes.Contains(w.Body.Bytes(), []byte(ErrCodeInvalidCredentials)) {
		t.Fatalf("code=%d body=%s", w.Code, w.Body.String())
	}

	// Malformed body short-circuits before the service.
	w = serve(t, r, http.MethodPost, "/auth/login", map[string]any{"email": "x@x.com"})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("missing password: code=%d", w.Code)
	}
}

// ----- Providers -----

func TestProviderAccess(t *testing.T) {
	r, h, _ := newHarness(t, approvedProviderSnapshot(), &fakeAuth{}, nil)
	r.GET("/providers/:id/access", h.ProviderAccess)

	w := serve(t, r, http.MethodGet, "/providers/ann@x.com/access", nil)
	if w.Code != http.StatusOK || !bytes.Contains(w.Body.Bytes(), []byte(`"allowed":true`)) {
		t.Fatalf("code=%d body=%s", w.Code, w.Body.String())
	}

	w = serve(t, r, http.MethodGet, "/providers/ghost@x.com/access", nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("unknown provider: code=%d", w.Code)
	}
}

func TestApproveAndHoldProvider(t *testing.T) {
	snap := approvedProviderSnapshot()
	snap.ProviderQueue[0].Status = domain.ProviderPending
	r, h, st := newHarness(t, snap, &fakeAuth{}, nil)
	r.POST("/providers/:id/approve", h.ApproveProvider)
	r.POST("/providers/:id/hold", h.HoldProvider)

	// Approve by display name; the store resolves name, id, or email.
	if w := serve(t, r, http.MethodPost, "/providers/Ann/approve", nil); w.Code != http.StatusOK {
		t.Fatalf("approve: code=%d body=%s", w.Code, w.Body.String())
	}
	if got := st.Snapshot().ProviderQueue[0].Status; got != domain.ProviderApproved {
		t.Fatalf("status after approve = %q", got)
	}

	if w := serve(t, r, http.MethodPost, "/providers/ann@x.com/hold", nil); w.Code != http.StatusOK {
		t.Fatalf("hold: code=%d", w.Code)
	}
	if got := st.Snapshot().ProviderQueue[0].Status; got != domain.ProviderOnHold {
		t.Fatalf("status after hold = %q", got)
	}

	if w := serve(t, r, http.MethodPost, "/providers/nobody/approve", nil); w.Code != http.StatusNotFound {
		t.Fatalf("unknown ref: code=%d", w.Code)
	}
}

func TestSaveProviderSlots_NullClears(t *testing.T) {
	snap := approvedProviderSnapshot()
	snap.ProviderQueue[0].SelectedSlots = []string{"Sat Morning"}
	r, h, st := newHarness(t, snap, &fakeAuth{}, nil)
	r.PUT("/providers/:id/slots", h.SaveProviderSlots)

	w := serve(t, r, http.MethodPut, "/providers/ann@x.com/slots", map[string]any{"slots": nil})
	if w.Code != http.StatusNoContent {
		t.Fatalf("code=%d body=%s", w.Code, w.Body.String())
	}
	if got := st.Snapshot().ProviderSettings["ann@x.com"].SelectedSlots; len(got) != 0 {
		t.Fatalf("slots not cleared: %+v", got)
	}
}

// ----- Bookings -----

func TestCreateBooking_StoreErrorMapping(t *testing.T) {
	snap := approvedProviderSnapshot()
	snap.ProviderQueue[0].Status = domain.ProviderPending
	r, h, _ := newHarness(t, snap, &fakeAuth{}, nil)
	r.POST("/bookings", h.CreateBooking)

	w := serve(t, r, http.MethodPost, "/bookings", map[string]any{
		"providerEmail": "ann@x.com", "customerEmail": "carol@x.com",
	})
	if w.Code != http.StatusConflict || !bytes.Contains(w.Body.Bytes(), []byte(ErrCodeProviderNotApproved)) {
		t.Fatalf("code=%d body=%s", w.Code, w.Body.String())
	}

	w = serve(t, r, http.MethodPost, "/bookings", map[string]any{
		"providerEmail": "ghost@x.com", "customerEmail": "carol@x.com",
	})
	if w.Code != http.StatusNotFound {
		t.Fatalf("unknown provider: code=%d", w.Code)
	}
}

func TestUpdateBookingStatus_TerminalLock(t *testing.T) {
	r, h, st := newHarness(t, approvedProviderSnapshot(), &fakeAuth{}, nil)
	r.POST("/bookings", h.CreateBooking)
	r.PUT("/bookings/:id/status", h.UpdateBookingStatus)

	w := serve(t, r, http.MethodPost, "/bookings", map[string]any{
		"providerEmail": "ann@x.com", "customerEmail": "carol@x.com", "subcategory": "Tap Repair",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("create: code=%d body=%s", w.Code, w.Body.String())
	}
	id := st.Snapshot().Bookings[0].ID

	if w := serve(t, r, http.MethodPut, "/bookings/"+id+"/status", map[string]any{"status": "REJECTED"}); w.Code != http.StatusNoContent {
		t.Fatalf("reject: code=%d", w.Code)
	}
	w = serve(t, r, http.MethodPut, "/bookings/"+id+"/status", map[string]any{"status": "ACCEPTED"})
	if w.Code != http.StatusConflict || !bytes.Contains(w.Body.Bytes(), []byte(ErrCodeBookingFinal)) {
		t.Fatalf("terminal transition: code=%d body=%s", w.Code, w.Body.String())
	}

	// Ownership: another provider may not act on Ann's booking.
	w = serve(t, r, http.MethodPut, "/bookings/"+id+"/status", map[string]any{
		"status": "CANCELLED", "actorEmail": "other@x.com",
	})
	if w.Code != http.StatusForbidden {
		t.Fatalf("ownership: code=%d", w.Code)
	}
}

// ----- Admin -----

func TestUpdateDisputeStatus(t *testing.T) {
	r, h, st := newHarness(t, approvedProviderSnapshot(), &fakeAuth{}, nil)
	r.POST("/disputes/:id/status", h.UpdateDisputeStatus)

	if w := serve(t, r, http.MethodPost, "/disputes/d1/status", map[string]any{"status": "Resolved"}); w.Code != http.StatusNoContent {
		t.Fatalf("code=%d body=%s", w.Code, w.Body.String())
	}
	d := st.Snapshot().DisputeQueue[0]
	if d.Status != "Resolved" || d.Tone != domain.ToneOK {
		t.Fatalf("dispute = %+v", d)
	}

	if w := serve(t, r, http.MethodPost, "/disputes/ghost/status", map[string]any{"status": "Open"}); w.Code != http.StatusNotFound {
		t.Fatalf("unknown dispute: code=%d", w.Code)
	}
}

func TestCustomerProfile_SaveAndReset(t *testing.T) {
	r, h, st := newHarness(t, approvedProviderSnapshot(), &fakeAuth{}, nil)
	r.PUT("/customer/profile", h.SaveCustomerProfile)
	r.DELETE("/customer/profile", h.ResetCustomerProfile)

	if w := serve(t, r, http.MethodPut, "/customer/profile", map[string]any{"phone": "555-0101"}); w.Code != http.StatusNoContent {
		t.Fatalf("save: code=%d", w.Code)
	}
	p := st.Snapshot().CustomerProfile
	if p.Name != "Carol" || p.Phone != "555-0101" {
		t.Fatalf("merge lost fields: %+v", p)
	}

	req := httptest.NewRequest(http.MethodDelete, "/customer/profile", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusNoContent {
		t.Fatalf("reset: code=%d", w.Code)
	}
	if p := st.Snapshot().CustomerProfile; p.Name != "" || p.Phone != "" {
		t.Fatalf("profile not cleared: %+v", p)
	}
}

func TestChatLogs(t *testing.T) {
	r, h, st := newHarness(t, approvedProviderSnapshot(), &fakeAuth{}, nil)
	r.POST("/chat/admin-provider", h.AddAdminProviderMessage)
	r.POST("/chat/customer-provider", h.AddCustomerProviderMessage)

	if w := serve(t, r, http.MethodPost, "/chat/admin-provider", map[string]any{"from": "Admin", "text": "hello"}); w.Code != http.StatusNoContent {
		t.Fatalf("admin chat: code=%d", w.Code)
	}
	if w := serve(t, r, http.MethodPost, "/chat/customer-provider", map[string]any{"from": "Carol", "text": "  "}); w.Code != http.StatusBadRequest {
		t.Fatalf("blank text: code=%d", w.Code)
	}
	snap := st.Snapshot()
	if len(snap.AdminProviderChat) != 1 || len(snap.CustomerProviderChat) != 0 {
		t.Fatalf("chat logs = %d/%d", len(snap.AdminProviderChat), len(snap.CustomerProviderChat))
	}
}
