// Package identity signs users in with the identity provider and exchanges
// the resulting token for a backend session cookie. The two steps are kept
// separate so a failed exchange is reported as such instead of looking like
// a signed out user.
package identity

import (
	"context"
	"errors"
	"fmt"

	"redaid/pkg/types"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider"
	ctypes "github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider/types"
)

type cognitoAPI interface {
	InitiateAuth(ctx context.Context, params *cognitoidentityprovider.InitiateAuthInput, optFns ...func(*cognitoidentityprovider.Options)) (*cognitoidentityprovider.InitiateAuthOutput, error)
	SignUp(ctx context.Context, params *cognitoidentityprovider.SignUpInput, optFns ...func(*cognitoidentityprovider.Options)) (*cognitoidentityprovider.SignUpOutput, error)
	ConfirmSignUp(ctx context.Context, params *cognitoidentityprovider.ConfirmSignUpInput, optFns ...func(*cognitoidentityprovider.Options)) (*cognitoidentityprovider.ConfirmSignUpOutput, error)
}

// Tokens is what the identity provider hands back after a password sign in.
type Tokens struct {
	IDToken     string
	AccessToken string
	ExpiresIn   int32
}

type Provider struct {
	client   cognitoAPI
	clientID string
}

func NewProvider(client *cognitoidentityprovider.Client, clientID string) *Provider {
	return &Provider{client: client, clientID: clientID}
}

// SignIn runs the USER_PASSWORD_AUTH flow. Rejected credentials come back as
// an unauthenticated AuthorizationError.
func (p *Provider) SignIn(ctx context.Context, email, password string) (*Tokens, error) {
	if email == "" || password == "" {
		return nil, types.NewValidationError(map[string]string{"credentials": "email and password are required"})
	}

	input := &cognitoidentityprovider.InitiateAuthInput{
		AuthFlow: ctypes.AuthFlowTypeUserPasswordAuth,
		ClientId: aws.String(p.clientID),
		AuthParameters: map[string]string{
			"USERNAME": email,
			"PASSWORD": password,
		},
	}

	resp, err := p.client.InitiateAuth(ctx, input)
	if err != nil {
		var notAuthorized *ctypes.NotAuthorizedException
		var notFound *ctypes.UserNotFoundException
		var notConfirmed *ctypes.UserNotConfirmedException
		switch {
		case errors.As(err, &notAuthorized), errors.As(err, &notFound), errors.As(err, &notConfirmed):
			return nil, types.Denied(types.ReasonUnauthenticated)
		}
		return nil, &types.NetworkError{Op: "identity sign in", Err: err}
	}

	if resp.AuthenticationResult == nil || resp.AuthenticationResult.IdToken == nil {
		return nil, fmt.Errorf("sign in returned no tokens, challenge %s", resp.ChallengeName)
	}

	return &Tokens{
		IDToken:     aws.ToString(resp.AuthenticationResult.IdToken),
		AccessToken: aws.ToString(resp.AuthenticationResult.AccessToken),
		ExpiresIn:   resp.AuthenticationResult.ExpiresIn,
	}, nil
}

// SignUp creates the provider account. The email doubles as the username.
func (p *Provider) SignUp(ctx context.Context, email, password, name string) error {
	input := &cognitoidentityprovider.SignUpInput{
		ClientId: aws.String(p.clientID),
		Username: aws.String(email),
		Password: aws.String(password),
		UserAttributes: []ctypes.AttributeType{
			{Name: aws.String("email"), Value: aws.String(email)},
			{Name: aws.String("name"), Value: aws.String(name)},
		},
	}

	_, err := p.client.SignUp(ctx, input)
	if err != nil {
		return mapSignUpError(err)
	}

	return nil
}

func (p *Provider) ConfirmSignUp(ctx context.Context, email, code string) error {
	input := &cognitoidentityprovider.ConfirmSignUpInput{
		ClientId:         aws.String(p.clientID),
		Username:         aws.String(email),
		ConfirmationCode: aws.String(code),
	}

	_, err := p.client.ConfirmSignUp(ctx, input)
	if err != nil {
		var codeMismatch *ctypes.CodeMismatchException
		var expired *ctypes.ExpiredCodeException
		if errors.As(err, &codeMismatch) || errors.As(err, &expired) {
			return types.NewValidationError(map[string]string{"code": "Invalid confirmation code. Please check the code and try again."})
		}
		return &types.NetworkError{Op: "identity confirm sign up", Err: err}
	}

	return nil
}

func mapSignUpError(err error) error {
	var invalidPw *ctypes.InvalidPasswordException
	if errors.As(err, &invalidPw) {
		return types.NewValidationError(map[string]string{"password": "Password must include uppercase, lowercase, number, and symbol (min 12)."})
	}

	var userExists *ctypes.UsernameExistsException
	if errors.As(err, &userExists) {
		return types.NewValidationError(map[string]string{"email": "An account with this email already exists."})
	}

	var invalidParam *ctypes.InvalidParameterException
	if errors.As(err, &invalidParam) {
		return types.NewValidationError(map[string]string{"credentials": "Some details are invalid. Please review and try again."})
	}

	return &types.NetworkError{Op: "identity sign up", Err: err}
}
