package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolvedCartItemCount(t *testing.T) {
	cart := &ResolvedCart{Items: map[string]int{"a": 2, "b": 3}}
	assert.Equal(t, 5, cart.ItemCount())
}

func TestResolvedCartIsEmpty(t *testing.T) {
	assert.True(t, (&ResolvedCart{Items: map[string]int{}}).IsEmpty())
	assert.True(t, (&ResolvedCart{}).IsEmpty())
	assert.False(t, (&ResolvedCart{Items: map[string]int{"a": 1}}).IsEmpty())
}

func TestIdentityDispatch(t *testing.T) {
	guest := GuestIdentity("2f4d1a9c-0b3e-4d6f-8a7b-1c2d3e4f5a6b")
	assert.True(t, guest.IsGuest())
	assert.Equal(t, IdentityGuest, guest.Kind)
	assert.Empty(t, guest.UserID)

	user := UserIdentity("user-1")
	assert.False(t, user.IsGuest())
	assert.Equal(t, IdentityUser, user.Kind)
	assert.Empty(t, user.GuestID)
}
