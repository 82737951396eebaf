package test_utils

import (
	"context"
	"time"

	"github.com/forecastly/forecastly/pkg/user"
	"github.com/jackc/pgx/v5/pgxpool"
)

// TestUser is the user seeded by SeedUser. Its id is assigned by the database.
var TestUser = user.User{
	Uid:         "test-user-uid",
	Username:    "test_user",
	DisplayName: "Test User",
	Settings: user.Settings{
		Timezone:     "Europe/Warsaw",
		WeekFirstDay: time.Monday,
		Currency:     "USD",
	},
}

// SeedUser stores TestUser so rows referencing users(id) can be inserted. It returns the user
// with its assigned id.
func SeedUser(ctx context.Context, db *pgxpool.Pool) (user.User, error) {
	repo := user.NewUserRepo(db)
	id, err := repo.CreateUser(ctx, TestUser)
	if err != nil {
		return user.User{}, err
	}
	seeded := TestUser
	seeded.Id = id
	return seeded, nil
}
