package hostname

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanonical(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"example.com", "example.com"},
		{"www.example.com", "example.com"},
		{"WWW.Example.COM.", "example.com"},
		{"https://www.example.com/path?q=1", "example.com"},
		{"example.com:8443", "example.com"},
		{"  blog.example.com  ", "blog.example.com"},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Canonical(tt.in), "input %q", tt.in)
	}
}

func TestRegistrable(t *testing.T) {
	assert.Equal(t, "acme.com.au", Registrable("shop.acme.com.au"))
	assert.Equal(t, "acme.com.au", Registrable("www.acme.com.au"))
	assert.Equal(t, "example.co.uk", Registrable("https://a.b.example.co.uk/x"))
	assert.Equal(t, "com.au", Registrable("com.au"))
}

func TestMatchesSuffix(t *testing.T) {
	assert.True(t, MatchesSuffix("yelp.com.au", "yelp.com.au"))
	assert.True(t, MatchesSuffix("www.yelp.com.au", "yelp.com.au"))
	assert.True(t, MatchesSuffix("m.yelp.com.au", "*.yelp.com.au"))
	assert.False(t, MatchesSuffix("notyelp.com.au", "yelp.com.au"))
	assert.False(t, MatchesSuffix("yelp.com.au", ""))
}
