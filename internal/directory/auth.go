package directory

import (
	"context"
	"errors"
	"net/mail"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/streamloft/gateway/internal/faults"
	"github.com/streamloft/gateway/internal/models"
	"github.com/streamloft/gateway/internal/token"
	"github.com/streamloft/gateway/internal/twitch"
)

// Authenticator implements the auth operations against the local directory,
// minting session tokens itself. It backs the same handler interfaces the
// downstream API client implements in proxy deployments.
type Authenticator struct {
	dir    *Postgres
	signer *token.Signer
}

// NewAuthenticator pairs the directory with a token signer.
func NewAuthenticator(dir *Postgres, signer *token.Signer) *Authenticator {
	return &Authenticator{dir: dir, signer: signer}
}

// Login checks the supplied credentials and returns a session token.
func (a *Authenticator) Login(ctx context.Context, username, password string) (string, error) {
	const op = "directory.login"

	if username == "" || password == "" {
		return "", faults.New(faults.InvalidRequest, op, errors.New("username and password are required"))
	}

	user, hash, err := a.dir.ByUsername(ctx, username)
	if err != nil {
		if faults.Is(err, faults.NotFound) {
			// Indistinguishable from a bad password on purpose.
			return "", faults.New(faults.InvalidToken, op, errors.New("invalid credentials"))
		}
		return "", err
	}

	if bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) != nil {
		return "", faults.New(faults.InvalidToken, op, errors.New("invalid credentials"))
	}

	return a.signer.Mint(user.ID)
}

// Register creates a new account and returns a session token for it.
func (a *Authenticator) Register(ctx context.Context, reg models.Registration) (string, error) {
	const op = "directory.register"

	if reg.Username == "" || reg.Email == "" || reg.Password == "" {
		return "", faults.New(faults.InvalidRequest, op, errors.New("username, email, and password are required"))
	}
	if reg.Password != reg.PasswordConfirmation {
		return "", faults.New(faults.InvalidRequest, op, errors.New("passwords do not match"))
	}
	if _, err := mail.ParseAddress(reg.Email); err != nil {
		return "", faults.New(faults.InvalidRequest, op, errors.New("invalid email address"))
	}
	if len(reg.Password) < 8 {
		return "", faults.New(faults.InvalidRequest, op, errors.New("password must be at least 8 characters"))
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(reg.Password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}

	user := models.User{
		ID:       uuid.NewString(),
		Username: reg.Username,
		Email:    reg.Email,
		Role:     models.RoleViewer,
	}

	if err := a.dir.Create(ctx, user, string(hashed)); err != nil {
		if errors.Is(err, ErrConflict) {
			return "", faults.New(faults.InvalidRequest, op, errors.New("account already exists"))
		}
		return "", err
	}

	return a.signer.Mint(user.ID)
}

// Provision reconciles a Twitch profile with the directory and returns the
// account plus a freshly minted session token.
func (a *Authenticator) Provision(ctx context.Context, profile twitch.Profile, grant twitch.Grant) (models.User, string, error) {
	user, err := a.dir.FindOrProvision(ctx, Provision{
		Email:          profile.Email,
		Username:       profile.Login,
		ProviderUserID: profile.ID,
		AccessToken:    grant.AccessToken,
		RefreshToken:   grant.RefreshToken,
		ExpiresAt:      time.Now().UTC().Add(time.Duration(grant.ExpiresIn) * time.Second),
	})
	if err != nil {
		return models.User{}, "", err
	}

	minted, err := a.signer.Mint(user.ID)
	if err != nil {
		return models.User{}, "", err
	}
	return user, minted, nil
}

// TokenResolver resolves session tokens against the local directory. It is
// the standalone counterpart of the API client's WhoAmI.
type TokenResolver struct {
	dir    *Postgres
	signer *token.Signer
}

// NewTokenResolver pairs the directory with a token verifier.
func NewTokenResolver(dir *Postgres, signer *token.Signer) *TokenResolver {
	return &TokenResolver{dir: dir, signer: signer}
}

// WhoAmI verifies the token and loads the account it was minted for. A token
// naming a user that no longer exists is reported as InvalidToken, so the
// resolver clears the cookie rather than treating it as a soft miss.
func (r *TokenResolver) WhoAmI(ctx context.Context, tokenString string) (models.User, error) {
	const op = "directory.whoami"

	userID, err := r.signer.Verify(tokenString)
	if err != nil {
		return models.User{}, err
	}

	user, err := r.dir.ByID(ctx, userID)
	if err != nil {
		if faults.Is(err, faults.NotFound) {
			return models.User{}, faults.New(faults.InvalidToken, op, errors.New("token subject no longer exists"))
		}
		return models.User{}, err
	}
	return user, nil
}
