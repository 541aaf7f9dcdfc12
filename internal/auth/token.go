package auth

import (
	"errors"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	ErrMissingToken   = errors.New("request does not contain a token")
	ErrMalformedToken = errors.New("invalid token")
	ErrExpiredToken   = errors.New("token has expired")
	ErrRevokedToken   = errors.New("token has been revoked")
	ErrWrongTokenType = errors.New("wrong token type")
	ErrTokenNotFresh  = errors.New("token is not fresh")
)

const (
	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"
)

// Claims represents the claims in a JWT token
type Claims struct {
	Fresh     bool   `json:"fresh"`
	IsAdmin   bool   `json:"is_admin"`
	TokenType string `json:"token_type"`
	jwt.RegisteredClaims
}

// UserID parses the subject back into the numeric user id.
func (c *Claims) UserID() int64 {
	id, _ := strconv.ParseInt(c.Subject, 10, 64)
	return id
}

// ValidateOptions narrows which tokens Validate accepts.
type ValidateOptions struct {
	RequireFresh   bool
	RequireRefresh bool
}

// TokenManager issues and validates access/refresh token pairs. Revocation
// state lives in the injected Blocklist; which token types consult it is
// configuration (both by default).
type TokenManager struct {
	secretKey        []byte
	accessTTL        time.Duration
	refreshTTL       time.Duration
	adminUserID      int64
	blocklist        *Blocklist
	blocklistAccess  bool
	blocklistRefresh bool
}

// NewTokenManager creates a new TokenManager
func NewTokenManager(secretKey string, accessTTL, refreshTTL time.Duration, adminUserID int64, blocklist *Blocklist, blocklistAccess, blocklistRefresh bool) *TokenManager {
	return &TokenManager{
		secretKey:        []byte(secretKey),
		accessTTL:        accessTTL,
		refreshTTL:       refreshTTL,
		adminUserID:      adminUserID,
		blocklist:        blocklist,
		blocklistAccess:  blocklistAccess,
		blocklistRefresh: blocklistRefresh,
	}
}

func (tm *TokenManager) generate(userID int64, tokenType string, fresh bool, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		Fresh:     fresh,
		IsAdmin:   userID == tm.adminUserID,
		TokenType: tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(userID, 10),
			ID:        uuid.NewString(),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(tm.secretKey)
}

// GenerateAccess creates an access token for a user. Freshness marks
// tokens obtained directly from credentials; refreshed tokens never
// carry it.
func (tm *TokenManager) GenerateAccess(userID int64, fresh bool) (string, error) {
	return tm.generate(userID, TokenTypeAccess, fresh, tm.accessTTL)
}

// GenerateRefresh creates a refresh token for a user.
func (tm *TokenManager) GenerateRefresh(userID int64) (string, error) {
	return tm.generate(userID, TokenTypeRefresh, false, tm.refreshTTL)
}

// GeneratePair creates the fresh access + refresh pair handed out at login.
func (tm *TokenManager) GeneratePair(userID int64) (access, refresh string, err error) {
	access, err = tm.GenerateAccess(userID, true)
	if err != nil {
		return "", "", err
	}
	refresh, err = tm.GenerateRefresh(userID)
	if err != nil {
		return "", "", err
	}
	return access, refresh, nil
}

// Validate verifies signature and expiry, checks revocation, and enforces
// the requested token type and freshness.
func (tm *TokenManager) Validate(tokenString string, opts ValidateOptions) (*Claims, error) {
	if tokenString == "" {
		return nil, ErrMissingToken
	}

	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrMalformedToken
		}
		return tm.secretKey, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrMalformedToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrMalformedToken
	}

	if tm.checksBlocklist(claims.TokenType) && tm.blocklist.IsRevoked(claims.ID) {
		return nil, ErrRevokedToken
	}

	if opts.RequireRefresh {
		if claims.TokenType != TokenTypeRefresh {
			return nil, ErrWrongTokenType
		}
	} else if claims.TokenType != TokenTypeAccess {
		return nil, ErrWrongTokenType
	}

	if opts.RequireFresh && !claims.Fresh {
		return nil, ErrTokenNotFresh
	}

	return claims, nil
}

// RefreshAccess mints a new access token from validated refresh claims.
// The result is never fresh, so sensitive operations keep requiring a
// full re-login.
func (tm *TokenManager) RefreshAccess(claims *Claims) (string, error) {
	return tm.GenerateAccess(claims.UserID(), false)
}

// Revoke adds the token's identifier to the blocklist. Revocation is
// monotonic for the process lifetime; re-revoking is a no-op.
func (tm *TokenManager) Revoke(claims *Claims) {
	tm.blocklist.Revoke(claims.ID)
}

func (tm *TokenManager) checksBlocklist(tokenType string) bool {
	switch tokenType {
	case TokenTypeRefresh:
		return tm.blocklistRefresh
	default:
		return tm.blocklistAccess
	}
}
