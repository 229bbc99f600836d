package orders

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ariefcatur/go-food-delivery.git/internal/auth"
)

var allStatuses = []Status{
	StatusPending, StatusConfirmed, StatusPrepared,
	StatusInDelivery, StatusDelivered, StatusCancelled,
}

func TestCanTransitionExhaustive(t *testing.T) {
	legal := map[edge]bool{
		{StatusPending, StatusConfirmed}:    true,
		{StatusPending, StatusCancelled}:    true,
		{StatusConfirmed, StatusPrepared}:   true,
		{StatusConfirmed, StatusCancelled}:  true,
		{StatusPrepared, StatusInDelivery}:  true,
		{StatusPrepared, StatusCancelled}:   true,
		{StatusInDelivery, StatusDelivered}: true,
	}

	for _, from := range allStatuses {
		for _, to := range allStatuses {
			assert.Equal(t, legal[edge{from, to}], CanTransition(from, to),
				"%s -> %s", from, to)
		}
	}
}

func TestTerminalStatesHaveNoExits(t *testing.T) {
	for _, from := range []Status{StatusDelivered, StatusCancelled} {
		for _, to := range allStatuses {
			assert.False(t, CanTransition(from, to), "%s -> %s", from, to)
		}
	}
}

func TestCheckTransitionActors(t *testing.T) {
	tests := []struct {
		name     string
		from, to Status
		actor    Actor
		want     error
	}{
		{"restaurant confirms", StatusPending, StatusConfirmed,
			Actor{Role: auth.RoleRestaurant, OwnsRestaurant: true}, nil},
		{"foreign restaurant cannot confirm", StatusPending, StatusConfirmed,
			Actor{Role: auth.RoleRestaurant}, ErrForbidden},
		{"customer cannot confirm", StatusPending, StatusConfirmed,
			Actor{Role: auth.RoleCustomer, IsCustomer: true}, ErrForbidden},
		{"customer cancels own pending", StatusPending, StatusCancelled,
			Actor{Role: auth.RoleCustomer, IsCustomer: true}, nil},
		{"customer cannot cancel someone else's", StatusPending, StatusCancelled,
			Actor{Role: auth.RoleCustomer}, ErrForbidden},
		{"admin cancels prepared", StatusPrepared, StatusCancelled,
			Actor{Role: auth.RoleAdmin}, nil},
		{"nobody cancels in-delivery", StatusInDelivery, StatusCancelled,
			Actor{Role: auth.RoleAdmin}, ErrInvalidTransition},
		{"nobody cancels delivered", StatusDelivered, StatusCancelled,
			Actor{Role: auth.RoleAdmin}, ErrInvalidTransition},
		{"assigned courier picks up", StatusPrepared, StatusInDelivery,
			Actor{Role: auth.RoleCourier, IsAssignedCourier: true}, nil},
		{"other courier cannot pick up", StatusPrepared, StatusInDelivery,
			Actor{Role: auth.RoleCourier}, ErrForbidden},
		{"assigned courier delivers", StatusInDelivery, StatusDelivered,
			Actor{Role: auth.RoleCourier, IsAssignedCourier: true}, nil},
		{"courier cannot skip in-delivery", StatusPrepared, StatusDelivered,
			Actor{Role: auth.RoleCourier, IsAssignedCourier: true}, ErrInvalidTransition},
		{"admin cannot force prepared to delivered", StatusPrepared, StatusDelivered,
			Actor{Role: auth.RoleAdmin}, ErrInvalidTransition},
		{"restaurant cancels confirmed", StatusConfirmed, StatusCancelled,
			Actor{Role: auth.RoleRestaurant, OwnsRestaurant: true}, nil},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := CheckTransition(tc.from, tc.to, tc.actor)
			if tc.want == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tc.want)
			}
		})
	}
}
