package security

import (
	"errors"

	"creativerse/internal/platform/config"

	"github.com/go-chi/jwtauth/v5"
	"github.com/golang-jwt/jwt/v5"
)

// Issuer is stamped on every token and required when reading claims back.
const Issuer = "creativerse"

var TokenAuth *jwtauth.JWTAuth

func InitJWT() {
	TokenAuth = jwtauth.New("HS256", config.AppConfig.JWTKey, nil)
}

// GenerateToken issues a session token. The role claim is informational only;
// authorization always reads the stored role.
func GenerateToken(userID, role string) (string, error) {
	claims := jwt.MapClaims{
		"sub":  userID,
		"iss":  Issuer,
		"role": role,
	}
	jwtauth.SetIssuedNow(claims)
	jwtauth.SetExpiryIn(claims, config.AppConfig.JWTExp)
	_, tokenString, err := TokenAuth.Encode(claims)
	return tokenString, err
}

// GetUserIDFromClaims returns the subject of a verified token. Claims from jwtauth arrive as map[string]interface{}.
func GetUserIDFromClaims(claims map[string]interface{}) (string, error) {
	if iss, _ := claims["iss"].(string); iss != Issuer {
		return "", errors.New("token was not issued by this service")
	}
	id, ok := claims["sub"].(string)
	if !ok || id == "" {
		return "", errors.New("sub claim is missing or not a string")
	}
	return id, nil
}
