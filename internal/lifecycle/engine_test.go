package lifecycle

import (
	"context"
	"fmt"
	"io"
	"sync"
	"testing"

	"redaid/pkg/types"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memRepo struct {
	mu     sync.Mutex
	seq    int
	byID   map[string]*types.DonationRequest
	events []*types.RequestEvent
}

func newMemRepo() *memRepo {
	return &memRepo{byID: map[string]*types.DonationRequest{}}
}

func (m *memRepo) DonationRequest(_ context.Context, id string) (*types.DonationRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	req, ok := m.byID[id]
	if !ok {
		return nil, types.ErrDonationRequestNotFound
	}
	cp := *req
	return &cp, nil
}

func (m *memRepo) CreateDonationRequest(_ context.Context, req *types.DonationRequest) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.seq++
	req.ID = fmt.Sprintf("req-%d", m.seq)
	cp := *req
	m.byID[req.ID] = &cp
	return nil
}

func (m *memRepo) UpdateDonationRequestStatus(_ context.Context, id string, from, to types.RequestStatus, donor *types.Actor) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	req, ok := m.byID[id]
	if !ok || req.Status != from {
		return false, nil
	}
	req.Status = to
	if donor != nil {
		name, email := donor.Name, donor.Email
		req.DonorName = &name
		req.DonorEmail = &email
	}
	return true, nil
}

func (m *memRepo) UpdateDonationRequestFields(_ context.Context, req *types.DonationRequest) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	stored, ok := m.byID[req.ID]
	if !ok || stored.Status != types.RequestStatusPending {
		return false, nil
	}
	cp := *req
	cp.Status = stored.Status
	m.byID[req.ID] = &cp
	return true, nil
}

func (m *memRepo) DeleteDonationRequest(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.byID[id]; !ok {
		return types.ErrDonationRequestNotFound
	}
	delete(m.byID, id)
	return nil
}

func (m *memRepo) RecordTransition(_ context.Context, event *types.RequestEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.events = append(m.events, event)
	return nil
}

type recordingInvalidator struct {
	mu      sync.Mutex
	ids     []string
	removed []string
}

func (r *recordingInvalidator) InvalidateRemovedRequest(_ context.Context, id string, _ types.RequestStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.removed = append(r.removed, id)
	return nil
}

func (r *recordingInvalidator) InvalidateRequest(_ context.Context, id string, _ ...types.RequestStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.ids = append(r.ids, id)
	return nil
}

type staticLocations map[string][]string

func (s staticLocations) ValidLocation(districtID, upazila string) bool {
	for _, u := range s[districtID] {
		if u == upazila {
			return true
		}
	}
	return false
}

var (
	donorD     = &types.Actor{Email: "d@example.com", Name: "Donor D", Role: types.RoleDonor, Status: types.UserStatusActive}
	donorA     = &types.Actor{Email: "a@example.com", Name: "Donor A", Role: types.RoleDonor, Status: types.UserStatusActive}
	stranger   = &types.Actor{Email: "s@example.com", Name: "Stranger", Role: types.RoleDonor, Status: types.UserStatusActive}
	volunteerV = &types.Actor{Email: "v@example.com", Name: "Volunteer V", Role: types.RoleVolunteer, Status: types.UserStatusActive}
	admin      = &types.Actor{Email: "admin@example.com", Name: "Admin", Role: types.RoleAdmin, Status: types.UserStatusActive}
	blockedU   = &types.Actor{Email: "u@example.com", Name: "Blocked U", Role: types.RoleDonor, Status: types.UserStatusBlocked}
)

func validForm() *types.DonationRequestForm {
	return &types.DonationRequestForm{
		RecipientName: "Rahim",
		DistrictID:    "1",
		Upazila:       "Debidwar",
		HospitalName:  "Comilla Medical College",
		FullAddress:   "Ward 4, Debidwar",
		BloodGroup:    "O+",
		DonationDate:  "2026-11-02",
		DonationTime:  "10:30",
	}
}

func newTestEngine(t *testing.T) (*Engine, *memRepo, *recordingInvalidator) {
	t.Helper()

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	repo := newMemRepo()
	inv := &recordingInvalidator{}
	engine := New(logger, repo,
		WithEventRecorder(repo),
		WithInvalidator(inv),
		WithLocations(staticLocations{"1": {"Debidwar", "Barura"}, "2": {"Sadar"}}),
	)
	return engine, repo, inv
}

func createPending(t *testing.T, engine *Engine) *types.DonationRequest {
	t.Helper()
	req, err := engine.CreateRequest(context.Background(), donorD, validForm())
	require.NoError(t, err)
	return req
}

func TestScenarioA_VolunteerAcceptsRequesterCannot(t *testing.T) {
	engine, _, _ := newTestEngine(t)
	ctx := context.Background()

	req := createPending(t, engine)
	assert.Equal(t, types.RequestStatusPending, req.Status)
	assert.Equal(t, donorD.Email, req.RequesterEmail)
	assert.Equal(t, donorD.Name, req.RequesterName)

	updated, err := engine.TransitionStatus(ctx, req.ID, volunteerV, types.RequestStatusInProgress)
	require.NoError(t, err)
	assert.Equal(t, types.RequestStatusInProgress, updated.Status)
	require.NotNil(t, updated.DonorEmail)
	assert.Equal(t, volunteerV.Email, *updated.DonorEmail)

	// A fresh pending request, attempted by its own requester.
	own := createPending(t, engine)
	_, err = engine.TransitionStatus(ctx, own.ID, donorD, types.RequestStatusInProgress)
	var authErr *types.AuthorizationError
	require.ErrorAs(t, err, &authErr)
	assert.Equal(t, types.ReasonOwnRequest, authErr.Reason)
}

func TestScenarioB_AdminCompletesAcceptedRequest(t *testing.T) {
	engine, _, _ := newTestEngine(t)
	ctx := context.Background()

	req := createPending(t, engine)
	_, err := engine.TransitionStatus(ctx, req.ID, donorA, types.RequestStatusInProgress)
	require.NoError(t, err)

	done, err := engine.TransitionStatus(ctx, req.ID, admin, types.RequestStatusDone)
	require.NoError(t, err)
	assert.Equal(t, types.RequestStatusDone, done.Status)
}

func TestScenarioC_TerminalStatesRejectEveryone(t *testing.T) {
	engine, _, _ := newTestEngine(t)
	ctx := context.Background()

	req := createPending(t, engine)
	_, err := engine.TransitionStatus(ctx, req.ID, donorA, types.RequestStatusInProgress)
	require.NoError(t, err)
	_, err = engine.TransitionStatus(ctx, req.ID, donorA, types.RequestStatusDone)
	require.NoError(t, err)

	for _, actor := range []*types.Actor{donorD, donorA, stranger, volunteerV, admin, blockedU, nil} {
		for _, to := range types.RequestStatuses {
			_, err := engine.TransitionStatus(ctx, req.ID, actor, to)
			assert.True(t, types.IsInvalidTransition(err), "actor %v to %s: %v", actor, to, err)
		}
	}
}

func TestScenarioD_BlockedUserCannotCreate(t *testing.T) {
	engine, repo, _ := newTestEngine(t)

	for _, form := range []*types.DonationRequestForm{validForm(), {}} {
		req, err := engine.CreateRequest(context.Background(), blockedU, form)
		assert.Nil(t, req)

		var authErr *types.AuthorizationError
		require.ErrorAs(t, err, &authErr)
		assert.Equal(t, types.ReasonBlocked, authErr.Reason)
	}

	assert.Empty(t, repo.byID)
}

func TestCreateRequest_Validation(t *testing.T) {
	engine, repo, _ := newTestEngine(t)

	form := validForm()
	form.RecipientName = "  "
	form.BloodGroup = "C+"
	form.DonationDate = "02/11/2026"
	form.Upazila = "Sadar"

	_, err := engine.CreateRequest(context.Background(), donorD, form)

	var vErr *types.ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Contains(t, vErr.Fields, "recipientName")
	assert.Contains(t, vErr.Fields, "bloodGroup")
	assert.Contains(t, vErr.Fields, "donationDate")
	assert.Contains(t, vErr.Fields, "recipientUpazila")
	assert.Empty(t, repo.byID)
}

func TestCreateRequest_RequiresDonorRole(t *testing.T) {
	engine, _, _ := newTestEngine(t)

	_, err := engine.CreateRequest(context.Background(), volunteerV, validForm())
	assert.True(t, types.IsAuthorization(err))

	_, err = engine.CreateRequest(context.Background(), nil, validForm())
	var authErr *types.AuthorizationError
	require.ErrorAs(t, err, &authErr)
	assert.Equal(t, types.ReasonUnauthenticated, authErr.Reason)
}

func TestTransitionTableIsTotalVeto(t *testing.T) {
	actors := []*types.Actor{donorD, donorA, stranger, volunteerV, admin, blockedU, nil}

	for _, from := range types.RequestStatuses {
		for _, to := range types.RequestStatuses {
			_, inTable := lookup(from, to)
			for _, actor := range actors {
				req := &types.DonationRequest{ID: "r", RequesterEmail: donorD.Email, Status: from, DonorEmail: &donorA.Email}
				err := CheckTransition(req, actor, to)
				if !inTable {
					assert.True(t, types.IsInvalidTransition(err), "%s->%s must be rejected", from, to)
				} else if err != nil {
					assert.True(t, types.IsAuthorization(err), "%s->%s: unexpected %v", from, to, err)
				}
			}
		}
	}
}

func TestAllowedTransitions(t *testing.T) {
	pending := &types.DonationRequest{RequesterEmail: donorD.Email, Status: types.RequestStatusPending}
	inProgress := &types.DonationRequest{RequesterEmail: donorD.Email, Status: types.RequestStatusInProgress, DonorEmail: &donorA.Email}
	done := &types.DonationRequest{RequesterEmail: donorD.Email, Status: types.RequestStatusDone, DonorEmail: &donorA.Email}

	tests := []struct {
		name   string
		req    *types.DonationRequest
		actor  *types.Actor
		expect []types.RequestStatus
	}{
		{"requester on pending may only cancel", pending, donorD, []types.RequestStatus{types.RequestStatusCanceled}},
		{"stranger on pending may accept", pending, stranger, []types.RequestStatus{types.RequestStatusInProgress}},
		{"volunteer on pending may accept", pending, volunteerV, []types.RequestStatus{types.RequestStatusInProgress}},
		{"admin on pending may accept or cancel", pending, admin, []types.RequestStatus{types.RequestStatusInProgress, types.RequestStatusCanceled}},
		{"blocked user on pending gets nothing", pending, blockedU, []types.RequestStatus{}},
		{"anonymous gets nothing", pending, nil, []types.RequestStatus{}},
		{"accepting donor finishes", inProgress, donorA, []types.RequestStatus{types.RequestStatusDone, types.RequestStatusCanceled}},
		{"volunteer finishes", inProgress, volunteerV, []types.RequestStatus{types.RequestStatusDone, types.RequestStatusCanceled}},
		{"requester cannot finish", inProgress, donorD, []types.RequestStatus{}},
		{"stranger cannot finish", inProgress, stranger, []types.RequestStatus{}},
		{"terminal has no transitions", done, admin, []types.RequestStatus{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expect, AllowedTransitions(tt.req, tt.actor))
		})
	}
}

func TestAllowedTransitionsAgreesWithCheckTransition(t *testing.T) {
	actors := []*types.Actor{donorD, donorA, stranger, volunteerV, admin, blockedU, nil}

	for _, status := range types.RequestStatuses {
		req := &types.DonationRequest{RequesterEmail: donorD.Email, Status: status, DonorEmail: &donorA.Email}
		for _, actor := range actors {
			allowed := AllowedTransitions(req, actor)
			for _, to := range types.RequestStatuses {
				permitted := CheckTransition(req, actor, to) == nil
				assert.Equal(t, permitted, contains(allowed, to), "status %s actor %v to %s", status, actor, to)
			}
		}
	}
}

func contains(list []types.RequestStatus, s types.RequestStatus) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func TestTransitionStatus_RepeatedCallAppliesOnce(t *testing.T) {
	engine, repo, _ := newTestEngine(t)
	ctx := context.Background()

	req := createPending(t, engine)

	_, err := engine.TransitionStatus(ctx, req.ID, donorA, types.RequestStatusInProgress)
	require.NoError(t, err)

	_, err = engine.TransitionStatus(ctx, req.ID, donorA, types.RequestStatusInProgress)
	assert.True(t, types.IsInvalidTransition(err))

	transitions := 0
	for _, ev := range repo.events {
		if ev.RequestID == req.ID && ev.ToStatus == types.RequestStatusInProgress {
			transitions++
		}
	}
	assert.Equal(t, 1, transitions)
}

func TestTransitionStatus_ConcurrentCallsApplyOnce(t *testing.T) {
	engine, _, _ := newTestEngine(t)
	ctx := context.Background()

	req := createPending(t, engine)

	const callers = 8
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
		rejected  int
	)

	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := engine.TransitionStatus(ctx, req.ID, stranger, types.RequestStatusInProgress)
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				succeeded++
			} else if types.IsInvalidTransition(err) {
				rejected++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, succeeded)
	assert.Equal(t, callers-1, rejected)
}

func TestTransitionStatus_NotFound(t *testing.T) {
	engine, _, _ := newTestEngine(t)
	ctx := context.Background()

	req := createPending(t, engine)
	require.NoError(t, engine.DeleteRequest(ctx, req.ID, donorD))

	_, err := engine.TransitionStatus(ctx, req.ID, stranger, types.RequestStatusInProgress)
	assert.True(t, types.IsNotFound(err))
}

func TestTransitionStatus_BlockedCannotAccept(t *testing.T) {
	engine, _, _ := newTestEngine(t)

	req := createPending(t, engine)
	_, err := engine.TransitionStatus(context.Background(), req.ID, blockedU, types.RequestStatusInProgress)

	var authErr *types.AuthorizationError
	require.ErrorAs(t, err, &authErr)
	assert.Equal(t, types.ReasonBlocked, authErr.Reason)
}

func TestTransitionStatus_UnknownStatus(t *testing.T) {
	engine, _, _ := newTestEngine(t)

	req := createPending(t, engine)
	_, err := engine.TransitionStatus(context.Background(), req.ID, admin, types.RequestStatus("archived"))
	assert.True(t, types.IsValidation(err))
}

func TestTransitionStatus_InvalidatesByID(t *testing.T) {
	engine, _, inv := newTestEngine(t)

	req := createPending(t, engine)
	inv.ids = nil

	_, err := engine.TransitionStatus(context.Background(), req.ID, admin, types.RequestStatusCanceled)
	require.NoError(t, err)
	assert.Equal(t, []string{req.ID}, inv.ids)
}

func TestEditRequest_RoundTrip(t *testing.T) {
	engine, _, _ := newTestEngine(t)
	ctx := context.Background()

	req := createPending(t, engine)

	hospital := "Dhaka Medical College"
	date := "2026-12-01"
	patch := &types.DonationRequestPatch{HospitalName: &hospital, DonationDate: &date}

	_, err := engine.EditRequest(ctx, req.ID, donorD, patch)
	require.NoError(t, err)

	view, err := engine.Get(ctx, req.ID, donorD)
	require.NoError(t, err)

	expected := *req
	expected.HospitalName = hospital
	expected.DonationDate = date
	assert.Equal(t, &expected, view.DonationRequest)
}

func TestEditRequest_Rules(t *testing.T) {
	engine, _, _ := newTestEngine(t)
	ctx := context.Background()

	name := "Karim"
	patch := &types.DonationRequestPatch{RecipientName: &name}

	req := createPending(t, engine)

	_, err := engine.EditRequest(ctx, req.ID, stranger, patch)
	assert.True(t, types.IsAuthorization(err))

	_, err = engine.EditRequest(ctx, req.ID, admin, patch)
	assert.NoError(t, err)

	_, err = engine.EditRequest(ctx, req.ID, donorD, &types.DonationRequestPatch{})
	assert.True(t, types.IsValidation(err))

	upazila := "Sadar"
	_, err = engine.EditRequest(ctx, req.ID, donorD, &types.DonationRequestPatch{Upazila: &upazila})
	assert.True(t, types.IsValidation(err))

	_, err = engine.TransitionStatus(ctx, req.ID, stranger, types.RequestStatusInProgress)
	require.NoError(t, err)

	_, err = engine.EditRequest(ctx, req.ID, donorD, patch)
	var authErr *types.AuthorizationError
	require.ErrorAs(t, err, &authErr)
	assert.Equal(t, types.ReasonNotPending, authErr.Reason)
}

func TestDeleteRequest(t *testing.T) {
	engine, repo, inv := newTestEngine(t)
	ctx := context.Background()

	req := createPending(t, engine)

	err := engine.DeleteRequest(ctx, req.ID, volunteerV)
	assert.True(t, types.IsAuthorization(err))

	_, err = engine.TransitionStatus(ctx, req.ID, stranger, types.RequestStatusInProgress)
	require.NoError(t, err)

	require.NoError(t, engine.DeleteRequest(ctx, req.ID, admin))
	assert.NotContains(t, repo.byID, req.ID)
	assert.Equal(t, []string{req.ID}, inv.removed)

	err = engine.DeleteRequest(ctx, req.ID, admin)
	assert.True(t, types.IsNotFound(err))
}

func TestPermissions(t *testing.T) {
	req := &types.DonationRequest{RequesterEmail: donorD.Email, Status: types.RequestStatusPending}

	view := Permissions(req, donorD)
	assert.True(t, view.CanEdit)
	assert.True(t, view.CanDelete)
	assert.Equal(t, []types.RequestStatus{types.RequestStatusCanceled}, view.AllowedTransitions)

	view = Permissions(req, stranger)
	assert.False(t, view.CanEdit)
	assert.False(t, view.CanDelete)
	assert.Equal(t, []types.RequestStatus{types.RequestStatusInProgress}, view.AllowedTransitions)
}
