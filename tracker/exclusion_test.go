package tracker

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExclusions_Excluded(t *testing.T) {
	ex := NewExclusions(DefaultExcludedPaths)

	cases := []struct {
		path string
		want bool
	}{
		{"/admin", true},
		{"/admin/waitlist", true},
		{"/settings/profile", true},
		{"/portfolio", false},
		{"/", false},
		{"/projects/admin", false},
	}
	for _, tc := range cases {
		t.Run(tc.path, func(t *testing.T) {
			assert.Equal(t, tc.want, ex.Excluded(tc.path))
		})
	}
}

func TestExclusions_CopiesPrefixes(t *testing.T) {
	prefixes := []string{"/admin"}
	ex := NewExclusions(prefixes)
	prefixes[0] = "/portfolio"

	assert.True(t, ex.Excluded("/admin/users"))
	assert.False(t, ex.Excluded("/portfolio"))
}

func TestExclusions_IgnoresEmptyPrefix(t *testing.T) {
	ex := NewExclusions([]string{"", "/admin"})
	assert.False(t, ex.Excluded("/portfolio"))
	assert.Equal(t, []string{"/admin"}, ex.Prefixes())
}

func TestExclusions_ZeroValue(t *testing.T) {
	var ex Exclusions
	assert.False(t, ex.Excluded("/admin"))
}
