package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestHashAndCheckPassword(t *testing.T) {
	hash, err := HashPassword("Password1", bcrypt.MinCost)
	require.NoError(t, err)
	assert.NotEqual(t, "Password1", hash, "hash must not be the plaintext")

	assert.True(t, CheckPassword("Password1", hash))
	assert.False(t, CheckPassword("password1", hash))
	assert.False(t, CheckPassword("Password1", "not-a-hash"))
}

func TestHashPasswordDefaultCost(t *testing.T) {
	hash, err := HashPassword("Password1", 0)
	require.NoError(t, err)

	cost, err := bcrypt.Cost([]byte(hash))
	require.NoError(t, err)
	assert.Equal(t, bcrypt.DefaultCost, cost)
}

func TestIsPasswordStrong(t *testing.T) {
	tests := []struct {
		password string
		want     bool
	}{
		{"Password1", true},
		{"Abcdefg1", true},
		{"ÄbcdefgÖ1", true},
		{"Abcdef1", false},   // too short
		{"password1", false}, // no uppercase
		{"PASSWORD1", false}, // no lowercase
		{"Password", false},  // no digit
		{"", false},
		{"Pässwörd1", true},
	}
	for _, tt := range tests {
		t.Run(tt.password, func(t *testing.T) {
			assert.Equal(t, tt.want, IsPasswordStrong(tt.password))
		})
	}
}

func TestIsPasswordStrongMatchesPolicy(t *testing.T) {
	// Exhaustive over short strings built from one character of each class.
	alphabet := []rune{'A', 'a', '1', '#'}
	var build func(prefix []rune, n int)
	build = func(prefix []rune, n int) {
		if n == 0 {
			for _, pad := range []int{0, 4, 8} {
				pw := string(prefix)
				for i := 0; i < pad; i++ {
					pw += "#"
				}
				assert.Equal(t, policy(pw), IsPasswordStrong(pw), pw)
			}
			return
		}
		for _, r := range alphabet {
			build(append(prefix, r), n-1)
		}
	}
	build(nil, 3)
}

func policy(pw string) bool {
	var upper, lower, digit bool
	for _, r := range pw {
		upper = upper || (r >= 'A' && r <= 'Z')
		lower = lower || (r >= 'a' && r <= 'z')
		digit = digit || (r >= '0' && r <= '9')
	}
	return len([]rune(pw)) >= MinPasswordLength && upper && lower && digit
}
