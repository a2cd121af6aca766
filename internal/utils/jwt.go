package utils // package utils provides helpers for minting and reading access tokens

import (
    "errors"
    "fmt"
    "math"
    "strconv"
    "strings"
    "time"

    "github.com/golang-jwt/jwt/v5"
)

// ErrInvalidSubject is returned when a token's sub claim is not a positive
// user id.
var ErrInvalidSubject = errors.New("token subject is not a user id")

// AccessToken is a signed HS256 JWT along with its expiry.
type AccessToken struct {
    Token string
    Exp   time.Time
}

// Identity is what the service needs from a verified token.
type Identity struct {
    UserID uint64
    Role   string
}

// NewAccessToken signs a token for userID and role.  Production tokens come
// from the identity provider; this one exists for local runs and tests and
// uses the same claim layout (sub, role, exp, iat).
func NewAccessToken(secret string, userID uint64, role string, ttl time.Duration) (AccessToken, error) {
    now := time.Now().UTC()
    exp := now.Add(ttl)
    claims := jwt.MapClaims{
        "sub":  strconv.FormatUint(userID, 10),
        "role": role,
        "exp":  exp.Unix(),
        "iat":  now.Unix(),
    }
    signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
    if err != nil {
        return AccessToken{}, err
    }
    return AccessToken{Token: signed, Exp: exp}, nil
}

// ParseAccessToken verifies raw against secret and extracts the identity.
// The sub claim may be a decimal string or a JSON number, since issuers
// disagree on which.
func ParseAccessToken(secret, raw string) (Identity, error) {
    tok, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
        return []byte(secret), nil
    }, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
    if err != nil {
        return Identity{}, err
    }
    claims, ok := tok.Claims.(jwt.MapClaims)
    if !ok {
        return Identity{}, fmt.Errorf("unexpected claims type %T", tok.Claims)
    }
    id, err := subjectID(claims["sub"])
    if err != nil {
        return Identity{}, err
    }
    role, _ := claims["role"].(string)
    return Identity{UserID: id, Role: strings.ToUpper(strings.TrimSpace(role))}, nil
}

func subjectID(v interface{}) (uint64, error) {
    switch t := v.(type) {
    case string:
        n, err := strconv.ParseUint(strings.TrimSpace(t), 10, 64)
        if err != nil || n == 0 {
            return 0, ErrInvalidSubject
        }
        return n, nil
    case float64:
        if t < 1 || t != math.Trunc(t) {
            return 0, ErrInvalidSubject
        }
        return uint64(t), nil
    }
    return 0, ErrInvalidSubject
}
