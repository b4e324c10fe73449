package pkg

import (
	"testing"
	"time"

	qt "github.com/frankban/quicktest"
	"github.com/golang-jwt/jwt/v5"
)

func TestJwtRoundTrip(t *testing.T) {
	c := qt.New(t)
	token, err := NewJwtToken(7, "secret", time.Minute)
	c.Assert(err, qt.IsNil)

	claims, err := ParseJwtToken(token, "secret")
	c.Assert(err, qt.IsNil)
	c.Assert(claims.UID, qt.Equals, int64(7))
}

func TestParseJwtTokenWrongKey(t *testing.T) {
	c := qt.New(t)
	token, err := NewJwtToken(7, "secret", time.Minute)
	c.Assert(err, qt.IsNil)

	_, err = ParseJwtToken(token, "other")
	c.Assert(err, qt.ErrorIs, jwt.ErrSignatureInvalid)
}

func TestParseJwtTokenExpired(t *testing.T) {
	c := qt.New(t)
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"uid": 7,
		"exp": time.Now().Add(-time.Minute).Unix(),
	}).SignedString([]byte("secret"))
	c.Assert(err, qt.IsNil)

	_, err = ParseJwtToken(token, "secret")
	c.Assert(err, qt.ErrorIs, jwt.ErrTokenExpired)
}

func TestGetTokenFromHeaders(t *testing.T) {
	c := qt.New(t)
	token, err := GetTokenFromHeaders("Bearer abc")
	c.Assert(err, qt.IsNil)
	c.Assert(token, qt.Equals, "abc")

	_, err = GetTokenFromHeaders("")
	c.Assert(err, qt.ErrorMatches, "missing token")
	_, err = GetTokenFromHeaders("Basic abc")
	c.Assert(err, qt.ErrorMatches, "invalid token")
	_, err = GetTokenFromHeaders("Bearer ")
	c.Assert(err, qt.ErrorMatches, "invalid token")
}
