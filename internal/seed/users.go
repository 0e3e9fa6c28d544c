package seed

import (
	"context"
	"fmt"

	"redaid/internal/store"
	"redaid/internal/utils"
	"redaid/pkg/types"
)

type fakeUserSeed struct {
	Email      string
	Name       string
	BloodGroup types.BloodGroup
	DistrictID string
	Upazila    string
	Role       types.Role
	Status     types.UserStatus
}

var fakeUsers = []fakeUserSeed{
	{Email: "admin+seed@redaid.test", Name: "Nusrat Jahan", BloodGroup: "O+", DistrictID: "1", Upazila: "Debidwar", Role: types.RoleAdmin, Status: types.UserStatusActive},
	{Email: "volunteer+seed1@redaid.test", Name: "Tanvir Hasan", BloodGroup: "A+", DistrictID: "2", Upazila: "Feni Sadar", Role: types.RoleVolunteer, Status: types.UserStatusActive},
	{Email: "volunteer+seed2@redaid.test", Name: "Farhana Akter", BloodGroup: "B-", DistrictID: "8", Upazila: "Patiya", Role: types.RoleVolunteer, Status: types.UserStatusActive},
	{Email: "donor+seed1@redaid.test", Name: "Rakib Uddin", BloodGroup: "O-", DistrictID: "1", Upazila: "Barura", Role: types.RoleDonor, Status: types.UserStatusActive},
	{Email: "donor+seed2@redaid.test", Name: "Sadia Islam", BloodGroup: "AB+", DistrictID: "1", Upazila: "Chandina", Role: types.RoleDonor, Status: types.UserStatusActive},
	{Email: "donor+seed3@redaid.test", Name: "Mahmudul Karim", BloodGroup: "B+", DistrictID: "2", Upazila: "Feni Sadar", Role: types.RoleDonor, Status: types.UserStatusActive},
	{Email: "donor+seed4@redaid.test", Name: "Jannatul Ferdous", BloodGroup: "A-", DistrictID: "8", Upazila: "Patiya", Role: types.RoleDonor, Status: types.UserStatusActive},
	{Email: "donor+seed5@redaid.test", Name: "Arif Hossain", BloodGroup: "O+", DistrictID: "3", Upazila: "Brahmanbaria Sadar", Role: types.RoleDonor, Status: types.UserStatusBlocked},
}

// SeedFakeUsers upserts the fixed set of users above, one per role and a
// blocked donor.
func SeedFakeUsers(ctx context.Context, userRepo *store.UserRepository) ([]*types.User, error) {
	users := make([]*types.User, 0, len(fakeUsers))

	for _, fake := range fakeUsers {
		if _, err := userRepo.UpsertIdentity(ctx, fake.Email, fake.Name); err != nil {
			return nil, fmt.Errorf("failed to upsert fake user %s: %w", fake.Email, err)
		}

		profile := &types.UserProfileForm{
			Name:       fake.Name,
			BloodGroup: utils.StringPtr(string(fake.BloodGroup)),
			DistrictID: utils.StringPtr(fake.DistrictID),
			Upazila:    utils.StringPtr(fake.Upazila),
		}
		if err := userRepo.UpdateProfile(ctx, fake.Email, profile); err != nil {
			return nil, fmt.Errorf("failed to update fake user profile %s: %w", fake.Email, err)
		}

		if err := userRepo.UpdateRole(ctx, fake.Email, fake.Role); err != nil {
			return nil, fmt.Errorf("failed to set fake user role %s: %w", fake.Email, err)
		}

		if err := userRepo.UpdateStatus(ctx, fake.Email, fake.Status); err != nil {
			return nil, fmt.Errorf("failed to set fake user status %s: %w", fake.Email, err)
		}

		user, err := userRepo.User(ctx, fake.Email)
		if err != nil {
			return nil, fmt.Errorf("failed to reload fake user %s: %w", fake.Email, err)
		}
		users = append(users, user)
	}

	fmt.Printf("Fake users seeded: %d upserted\n", len(users))
	return users, nil
}
