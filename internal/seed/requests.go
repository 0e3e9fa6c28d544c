package seed

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"redaid/internal/lifecycle"
	"redaid/internal/reference"
	"redaid/internal/utils"
	"redaid/pkg/types"

	"github.com/jackc/pgx/v5/pgxpool"
)

const seedMessagePrefix = "[seed] "

var fakeRecipients = []string{
	"Abdul Malek", "Rokeya Begum", "Shafiqul Islam", "Mariam Khatun",
	"Kamrul Hasan", "Nasima Akter", "Jahid Hossain", "Taslima Nasrin",
}

var fakeHospitals = []string{
	"Comilla Medical College Hospital",
	"Feni General Hospital",
	"Chattogram Medical College Hospital",
	"Dhaka Medical College Hospital",
	"Upazila Health Complex",
}

var fakeMessages = []string{
	"Thalassemia patient needs a transfusion this week.",
	"Scheduled surgery, two bags required.",
	"Road accident, blood needed urgently.",
	"Delivery case, doctor asked to arrange a donor in advance.",
}

type weightedStatus struct {
	Status types.RequestStatus
	Weight int
}

var weightedStatuses = []weightedStatus{
	{Status: types.RequestStatusPending, Weight: 50},
	{Status: types.RequestStatusInProgress, Weight: 25},
	{Status: types.RequestStatusDone, Weight: 15},
	{Status: types.RequestStatusCanceled, Weight: 10},
}

func pickStatus(rng *rand.Rand) types.RequestStatus {
	total := 0
	for _, w := range weightedStatuses {
		total += w.Weight
	}

	n := rng.Intn(total)
	for _, w := range weightedStatuses {
		if n < w.Weight {
			return w.Status
		}
		n -= w.Weight
	}
	return types.RequestStatusPending
}

// SeedFakeRequests creates count requests through the lifecycle engine and
// walks each one to a randomly chosen status, so the event history matches
// what real usage would produce.
func SeedFakeRequests(
	ctx context.Context,
	pool *pgxpool.Pool,
	engine *lifecycle.Engine,
	locations *reference.Locations,
	users []*types.User,
	count int,
	reset bool,
) ([]*types.DonationRequest, error) {
	if reset {
		result, err := pool.Exec(ctx, `DELETE FROM redaid.donation_requests WHERE message LIKE '[seed] %'`)
		if err != nil {
			return nil, fmt.Errorf("failed to reset seeded donation requests: %w", err)
		}
		fmt.Printf("Removed %d seeded donation requests\n", result.RowsAffected())
	}

	if count <= 0 {
		fmt.Println("Skipping fake donation requests because count <= 0")
		return nil, nil
	}

	var donors, staff []*types.Actor
	for _, u := range users {
		if u.Status != types.UserStatusActive {
			continue
		}
		switch u.Role {
		case types.RoleDonor:
			donors = append(donors, u.Actor())
		default:
			staff = append(staff, u.Actor())
		}
	}

	if len(donors) < 2 || len(staff) == 0 {
		return nil, fmt.Errorf("need at least two active donors and one staff user to seed requests")
	}

	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	var districts []*types.District
	for _, d := range locations.Districts() {
		if len(locations.Upazilas(d.ID)) > 0 {
			districts = append(districts, d)
		}
	}
	created := make([]*types.DonationRequest, 0, count)

	for i := 0; i < count; i++ {
		requester := donors[rng.Intn(len(donors))]

		district := districts[rng.Intn(len(districts))]
		upazilas := locations.Upazilas(district.ID)
		upazila := upazilas[rng.Intn(len(upazilas))]

		form := &types.DonationRequestForm{
			RecipientName: fakeRecipients[rng.Intn(len(fakeRecipients))],
			DistrictID:    district.ID,
			Upazila:       upazila.Name,
			HospitalName:  fakeHospitals[rng.Intn(len(fakeHospitals))],
			FullAddress:   fmt.Sprintf("Ward %d, %s, %s", rng.Intn(12)+1, upazila.Name, locations.DistrictName(district.ID)),
			BloodGroup:    string(types.BloodGroups[rng.Intn(len(types.BloodGroups))]),
			DonationDate:  time.Now().AddDate(0, 0, rng.Intn(30)+1).Format("2006-01-02"),
			DonationTime:  fmt.Sprintf("%02d:%02d", rng.Intn(12)+8, []int{0, 15, 30, 45}[rng.Intn(4)]),
			Message:       utils.StringPtr(seedMessagePrefix + fakeMessages[rng.Intn(len(fakeMessages))]),
		}

		req, err := engine.CreateRequest(ctx, requester, form)
		if err != nil {
			return nil, fmt.Errorf("failed to create fake donation request: %w", err)
		}

		target := pickStatus(rng)
		req, err = walkTo(ctx, engine, req, target, requester, donors, staff[rng.Intn(len(staff))], rng)
		if err != nil {
			return nil, err
		}

		created = append(created, req)
	}

	fmt.Printf("Fake donation requests seeded: %d created\n", len(created))
	return created, nil
}

// walkTo drives req from pending to target using actors the transition
// table allows.
func walkTo(
	ctx context.Context,
	engine *lifecycle.Engine,
	req *types.DonationRequest,
	target types.RequestStatus,
	requester *types.Actor,
	donors []*types.Actor,
	staff *types.Actor,
	rng *rand.Rand,
) (*types.DonationRequest, error) {
	if target == types.RequestStatusPending {
		return req, nil
	}

	if target == types.RequestStatusCanceled && rng.Intn(2) == 0 {
		return transition(ctx, engine, req, requester, types.RequestStatusCanceled)
	}

	var acceptor *types.Actor
	for acceptor == nil || acceptor.Email == requester.Email {
		acceptor = donors[rng.Intn(len(donors))]
	}

	req, err := transition(ctx, engine, req, acceptor, types.RequestStatusInProgress)
	if err != nil || target == types.RequestStatusInProgress {
		return req, err
	}

	closer := acceptor
	if rng.Intn(2) == 0 {
		closer = staff
	}

	return transition(ctx, engine, req, closer, target)
}

func transition(ctx context.Context, engine *lifecycle.Engine, req *types.DonationRequest, actor *types.Actor, to types.RequestStatus) (*types.DonationRequest, error) {
	updated, err := engine.TransitionStatus(ctx, req.ID, actor, to)
	if err != nil {
		return nil, fmt.Errorf("failed to move seeded request %s to %s: %w", req.ID, to, err)
	}
	return updated, nil
}
