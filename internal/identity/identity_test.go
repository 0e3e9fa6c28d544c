package identity

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"redaid/pkg/types"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider"
	ctypes "github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider/types"
	"github.com/lestrrat-go/jwx/v3/jwa"
	"github.com/lestrrat-go/jwx/v3/jwk"
	"github.com/lestrrat-go/jwx/v3/jwt"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testIssuer = "https://cognito-idp.ap-south-1.amazonaws.com/pool"

type staticKeys struct {
	set jwk.Set
}

func (s staticKeys) Lookup(_ context.Context, url string) (jwk.Set, error) {
	if url != JWKSURL(testIssuer) {
		return nil, errors.New("unknown jwks url")
	}
	return s.set, nil
}

func newSigningKey(t *testing.T) (jwk.Key, jwk.Set) {
	t.Helper()

	raw, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	private, err := jwk.Import(raw)
	require.NoError(t, err)
	require.NoError(t, private.Set(jwk.KeyIDKey, "test-key"))
	require.NoError(t, private.Set(jwk.AlgorithmKey, jwa.RS256()))

	public, err := jwk.PublicKeyOf(private)
	require.NoError(t, err)

	set := jwk.NewSet()
	require.NoError(t, set.AddKey(public))

	return private, set
}

func signToken(t *testing.T, key jwk.Key, issuer, email string, exp time.Time) string {
	t.Helper()

	builder := jwt.NewBuilder().
		Subject("user-sub").
		Issuer(issuer).
		Expiration(exp).
		Claim("name", "Rahim")
	if email != "" {
		builder = builder.Claim("email", email)
	}

	token, err := builder.Build()
	require.NoError(t, err)

	signed, err := jwt.Sign(token, jwt.WithKey(jwa.RS256(), key))
	require.NoError(t, err)

	return string(signed)
}

func TestVerifier_Verify(t *testing.T) {
	key, set := newSigningKey(t)
	verifier := NewVerifier(staticKeys{set: set}, testIssuer+"/")
	ctx := context.Background()

	raw := signToken(t, key, testIssuer, "Rahim@Example.com", time.Now().Add(time.Hour))
	claims, name, err := verifier.Verify(ctx, raw)
	require.NoError(t, err)
	assert.Equal(t, "rahim@example.com", claims.Email)
	assert.Equal(t, "user-sub", claims.Subject)
	assert.Equal(t, "Rahim", name)
	assert.NotZero(t, claims.ExpiresAt)

	tests := []struct {
		name string
		raw  string
	}{
		{"expired", signToken(t, key, testIssuer, "rahim@example.com", time.Now().Add(-time.Hour))},
		{"wrong issuer", signToken(t, key, "https://elsewhere", "rahim@example.com", time.Now().Add(time.Hour))},
		{"missing email", signToken(t, key, testIssuer, "", time.Now().Add(time.Hour))},
		{"garbage", "not.a.jwt"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := verifier.Verify(ctx, tt.raw)
			assert.Error(t, err)
		})
	}
}

type fakeVerifier struct {
	claims *types.SessionClaims
	err    error
}

func (f fakeVerifier) Verify(context.Context, string) (*types.SessionClaims, string, error) {
	if f.err != nil {
		return nil, "", f.err
	}
	c := *f.claims
	return &c, "Rahim", nil
}

type memUsers struct {
	users     map[string]*types.User
	upsertErr error
}

func (m *memUsers) User(_ context.Context, email string) (*types.User, error) {
	u, ok := m.users[strings.ToLower(email)]
	if !ok {
		return nil, types.ErrUserNotFound
	}
	return u, nil
}

func (m *memUsers) UpsertIdentity(_ context.Context, email, name string) (*types.User, error) {
	if m.upsertErr != nil {
		return nil, m.upsertErr
	}
	if u, ok := m.users[email]; ok {
		return u, nil
	}
	u := &types.User{Email: email, Name: name, Role: types.RoleDonor, Status: types.UserStatusActive}
	m.users[email] = u
	return u, nil
}

func newTestSessions(verifier TokenVerifier, users Users) *Sessions {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	hashKey := []byte("0123456789abcdef0123456789abcdef")
	blockKey := []byte("abcdef0123456789abcdef0123456789")
	return NewSessions(logger, hashKey, blockKey, verifier, users, 24*time.Hour, false)
}

func requestWithCookie(c *http.Cookie) *http.Request {
	r := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
	if c != nil {
		r.AddCookie(c)
	}
	return r
}

func TestSessions_ExchangeAndResolve(t *testing.T) {
	users := &memUsers{users: map[string]*types.User{}}
	claims := &types.SessionClaims{Email: "rahim@example.com", Subject: "sub", ExpiresAt: time.Now().Add(time.Hour).Unix()}
	sessions := newTestSessions(fakeVerifier{claims: claims}, users)

	cookie, user, err := sessions.Exchange(context.Background(), "token")
	require.NoError(t, err)
	assert.Equal(t, types.RoleDonor, user.Role)
	assert.Equal(t, SessionCookieName, cookie.Name)
	assert.True(t, cookie.HttpOnly)

	session := sessions.Resolve(requestWithCookie(cookie))
	assert.Equal(t, types.SessionResolved, session.State)
	assert.True(t, session.IsAuthenticated)
	require.NotNil(t, session.Role)
	assert.Equal(t, types.RoleDonor, *session.Role)
	assert.Equal(t, "rahim@example.com", session.Actor().Email)
}

func TestSessions_ExchangeFailureIsDistinct(t *testing.T) {
	sessions := newTestSessions(fakeVerifier{err: errors.New("bad signature")}, &memUsers{users: map[string]*types.User{}})

	_, _, err := sessions.Exchange(context.Background(), "token")
	var exchangeErr *types.SessionExchangeError
	require.ErrorAs(t, err, &exchangeErr)
	assert.False(t, types.IsAuthorization(err))

	claims := &types.SessionClaims{Email: "rahim@example.com", ExpiresAt: time.Now().Add(time.Hour).Unix()}
	sessions = newTestSessions(fakeVerifier{claims: claims}, &memUsers{users: map[string]*types.User{}, upsertErr: errors.New("db down")})
	_, _, err = sessions.Exchange(context.Background(), "token")
	require.ErrorAs(t, err, &exchangeErr)
}

func TestSessions_Resolve(t *testing.T) {
	claims := &types.SessionClaims{Email: "rahim@example.com", ExpiresAt: time.Now().Add(time.Hour).Unix()}
	users := &memUsers{users: map[string]*types.User{}}
	sessions := newTestSessions(fakeVerifier{claims: claims}, users)

	cookie, _, err := sessions.Exchange(context.Background(), "token")
	require.NoError(t, err)

	t.Run("no cookie", func(t *testing.T) {
		s := sessions.Resolve(requestWithCookie(nil))
		assert.Equal(t, types.SessionResolved, s.State)
		assert.False(t, s.IsAuthenticated)
	})

	t.Run("tampered cookie", func(t *testing.T) {
		s := sessions.Resolve(requestWithCookie(&http.Cookie{Name: SessionCookieName, Value: cookie.Value + "x"}))
		assert.False(t, s.IsAuthenticated)
	})

	t.Run("expired session", func(t *testing.T) {
		later := newTestSessions(fakeVerifier{claims: claims}, users)
		later.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
		s := later.Resolve(requestWithCookie(cookie))
		assert.False(t, s.IsAuthenticated)
	})

	t.Run("user lookup fails closed", func(t *testing.T) {
		delete(users.users, "rahim@example.com")
		s := sessions.Resolve(requestWithCookie(cookie))
		assert.Equal(t, types.SessionFailed, s.State)
		assert.True(t, s.IsAuthenticated)
		assert.Nil(t, s.Role)
		assert.Nil(t, s.Actor())
	})
}

type fakeCognito struct {
	out *cognitoidentityprovider.InitiateAuthOutput
	err error
}

func (f fakeCognito) InitiateAuth(context.Context, *cognitoidentityprovider.InitiateAuthInput, ...func(*cognitoidentityprovider.Options)) (*cognitoidentityprovider.InitiateAuthOutput, error) {
	return f.out, f.err
}

func (f fakeCognito) SignUp(context.Context, *cognitoidentityprovider.SignUpInput, ...func(*cognitoidentityprovider.Options)) (*cognitoidentityprovider.SignUpOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &cognitoidentityprovider.SignUpOutput{}, nil
}

func (f fakeCognito) ConfirmSignUp(context.Context, *cognitoidentityprovider.ConfirmSignUpInput, ...func(*cognitoidentityprovider.Options)) (*cognitoidentityprovider.ConfirmSignUpOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &cognitoidentityprovider.ConfirmSignUpOutput{}, nil
}

func TestProvider_SignIn(t *testing.T) {
	ctx := context.Background()

	ok := &Provider{client: fakeCognito{out: &cognitoidentityprovider.InitiateAuthOutput{
		AuthenticationResult: &ctypes.AuthenticationResultType{
			IdToken:     aws.String("id"),
			AccessToken: aws.String("access"),
			ExpiresIn:   3600,
		},
	}}, clientID: "client"}

	tokens, err := ok.SignIn(ctx, "rahim@example.com", "secret")
	require.NoError(t, err)
	assert.Equal(t, "id", tokens.IDToken)

	rejected := &Provider{client: fakeCognito{err: &ctypes.NotAuthorizedException{Message: aws.String("Incorrect username or password.")}}}
	_, err = rejected.SignIn(ctx, "rahim@example.com", "wrong")
	assert.True(t, types.IsAuthorization(err))

	down := &Provider{client: fakeCognito{err: errors.New("dial tcp: timeout")}}
	_, err = down.SignIn(ctx, "rahim@example.com", "secret")
	assert.True(t, types.IsNetwork(err))

	_, err = ok.SignIn(ctx, "", "")
	assert.True(t, types.IsValidation(err))
}

func TestProvider_SignUpErrors(t *testing.T) {
	ctx := context.Background()

	exists := &Provider{client: fakeCognito{err: &ctypes.UsernameExistsException{Message: aws.String("exists")}}}
	err := exists.SignUp(ctx, "rahim@example.com", "Secret-Password-1", "Rahim")
	var validation *types.ValidationError
	require.ErrorAs(t, err, &validation)
	assert.Contains(t, validation.Fields, "email")

	mismatch := &Provider{client: fakeCognito{err: &ctypes.CodeMismatchException{Message: aws.String("mismatch")}}}
	err = mismatch.ConfirmSignUp(ctx, "rahim@example.com", "000000")
	require.ErrorAs(t, err, &validation)
	assert.Contains(t, validation.Fields, "code")

	ok := &Provider{client: fakeCognito{}}
	assert.NoError(t, ok.SignUp(ctx, "rahim@example.com", "Secret-Password-1", "Rahim"))
	assert.NoError(t, ok.ConfirmSignUp(ctx, "rahim@example.com", "123456"))
}
