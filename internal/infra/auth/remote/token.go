package remote

import (
	"github.com/golang-jwt/jwt/v5"

	"prepwise/internal/domain/entity"
	"prepwise/internal/errors"
)

// identityFromHandle extracts the identity from a raw session handle. The
// handle is a JWT issued by the backend; only the subject claim is read here,
// signature verification is the backend's concern.
func identityFromHandle(handle string) (entity.Identity, error) {
	if handle == "" {
		return entity.NoIdentity, nil
	}

	token, _, err := jwt.NewParser().ParseUnverified(handle, jwt.MapClaims{})
	if err != nil {
		return entity.NoIdentity, errors.Wrap(err, "malformed session token")
	}

	subject, err := token.Claims.GetSubject()
	if err != nil || subject == "" {
		return entity.NoIdentity, errors.New("malformed session token: missing subject")
	}

	return entity.Identity(subject), nil
}
