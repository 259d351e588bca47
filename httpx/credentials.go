package httpx

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/oauth"
	"github.com/pkg/errors"
	"golang.org/x/crypto/bcrypt"

	"github.com/formmind/formmind/config"
	"github.com/formmind/formmind/store"
)

// refresh tokens outlive access tokens by a long margin so sessions survive
// access token expiry
const refreshTokenTTL = 8760 * time.Hour

func NewBearerServer(st store.Store, cfg config.Config) *oauth.BearerServer {
	return oauth.NewBearerServer(cfg.TokenSecret, cfg.TokenTTL, CredentialsVerifier(st), nil)
}

type credentialsVerifier struct {
	store store.Store
}

func CredentialsVerifier(st store.Store) oauth.CredentialsVerifier {
	return &credentialsVerifier{st}
}

func (cs *credentialsVerifier) ValidateUser(username string, password string, scope string, r *http.Request) error {
	user, err := cs.store.UserByEmail(r.Context(), username)
	if err != nil {
		return err
	}
	return bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password))
}

func (cs *credentialsVerifier) StoreTokenID(tokenType oauth.TokenType, credential string, tokenID string, refreshTokenID string) error {
	return cs.store.StoreRefreshToken(context.Background(),
		credential, tokenID, refreshTokenID, time.Now().Add(refreshTokenTTL))
}

func (cs *credentialsVerifier) ValidateTokenID(tokenType oauth.TokenType, credential string, tokenID string, refreshTokenID string) error {
	expiration, err := cs.store.ConsumeRefreshToken(context.Background(), credential, tokenID, refreshTokenID)
	if err != nil {
		return errors.New("could not refresh")
	}
	if expiration.Before(time.Now()) {
		return errors.New("could not refresh")
	}
	return nil
}

// AddClaims embeds the principal's identity in the token so request handling
// never has to hit the users table again.
func (cs *credentialsVerifier) AddClaims(tokenType oauth.TokenType, credential string, tokenID string, scope string, r *http.Request) (map[string]string, error) {
	user, err := cs.store.UserByEmail(r.Context(), credential)
	if err != nil {
		return nil, err
	}
	return map[string]string{
		"user_id":   strconv.FormatInt(user.ID, 10),
		"tenant_id": strconv.FormatInt(user.TenantID, 10),
		"role":      string(user.Role),
	}, nil
}

func (*credentialsVerifier) AddProperties(tokenType oauth.TokenType, credential string, tokenID string, scope string, r *http.Request) (map[string]string, error) {
	return map[string]string{}, nil
}

func (*credentialsVerifier) ValidateClient(clientID string, clientSecret string, scope string, r *http.Request) error {
	return errors.New("not supported")
}
