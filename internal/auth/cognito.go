package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider"
	ctypes "github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider/types"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserNotConfirmed   = errors.New("user not confirmed")
	ErrUserExists         = errors.New("user already exists")
	ErrInvalidPassword    = errors.New("password does not meet policy")
	ErrCodeMismatch       = errors.New("confirmation code mismatch")
	ErrInvalidParameter   = errors.New("invalid parameter")
)

// CognitoAPI is the subset of the Cognito client used for admin accounts.
type CognitoAPI interface {
	InitiateAuth(ctx context.Context, params *cognitoidentityprovider.InitiateAuthInput, optFns ...func(*cognitoidentityprovider.Options)) (*cognitoidentityprovider.InitiateAuthOutput, error)
	SignUp(ctx context.Context, params *cognitoidentityprovider.SignUpInput, optFns ...func(*cognitoidentityprovider.Options)) (*cognitoidentityprovider.SignUpOutput, error)
	ConfirmSignUp(ctx context.Context, params *cognitoidentityprovider.ConfirmSignUpInput, optFns ...func(*cognitoidentityprovider.Options)) (*cognitoidentityprovider.ConfirmSignUpOutput, error)
}

type Session struct {
	AccessToken string
	ExpiresIn   int
}

// Cognito performs password authentication and account sign-up against a
// Cognito user pool app client.
type Cognito struct {
	client   CognitoAPI
	clientID string
}

func NewCognito(client CognitoAPI, clientID string) *Cognito {
	return &Cognito{client: client, clientID: clientID}
}

func (c *Cognito) SignIn(ctx context.Context, email, password string) (*Session, error) {
	input := &cognitoidentityprovider.InitiateAuthInput{
		AuthFlow: ctypes.AuthFlowTypeUserPasswordAuth,
		ClientId: aws.String(c.clientID),
		AuthParameters: map[string]string{
			"USERNAME": email,
			"PASSWORD": password,
		},
	}

	resp, err := c.client.InitiateAuth(ctx, input)
	if err != nil {
		var notAuthorized *ctypes.NotAuthorizedException
		var userNotFound *ctypes.UserNotFoundException
		if errors.As(err, &notAuthorized) || errors.As(err, &userNotFound) {
			return nil, ErrInvalidCredentials
		}

		var notConfirmed *ctypes.UserNotConfirmedException
		if errors.As(err, &notConfirmed) {
			return nil, ErrUserNotConfirmed
		}

		return nil, fmt.Errorf("initiate auth: %w", err)
	}

	if resp.AuthenticationResult == nil || resp.AuthenticationResult.AccessToken == nil {
		return nil, ErrInvalidCredentials
	}

	return &Session{
		AccessToken: aws.ToString(resp.AuthenticationResult.AccessToken),
		ExpiresIn:   int(resp.AuthenticationResult.ExpiresIn),
	}, nil
}

// SignUp creates an account. New accounts hold no roles until one is granted.
func (c *Cognito) SignUp(ctx context.Context, email, password string) error {
	input := &cognitoidentityprovider.SignUpInput{
		ClientId: aws.String(c.clientID),
		Username: aws.String(email), // use email as username
		Password: aws.String(password),
		UserAttributes: []ctypes.AttributeType{
			{Name: aws.String("email"), Value: aws.String(email)},
		},
	}

	_, err := c.client.SignUp(ctx, input)
	if err != nil {
		var invalidPw *ctypes.InvalidPasswordException
		if errors.As(err, &invalidPw) {
			return ErrInvalidPassword
		}

		var userExists *ctypes.UsernameExistsException
		if errors.As(err, &userExists) {
			return ErrUserExists
		}

		var invalidParam *ctypes.InvalidParameterException
		if errors.As(err, &invalidParam) {
			return ErrInvalidParameter
		}

		return fmt.Errorf("sign up: %w", err)
	}

	return nil
}

func (c *Cognito) ConfirmSignUp(ctx context.Context, email, code string) error {
	input := &cognitoidentityprovider.ConfirmSignUpInput{
		ClientId:         aws.String(c.clientID),
		Username:         aws.String(email),
		ConfirmationCode: aws.String(code),
	}

	_, err := c.client.ConfirmSignUp(ctx, input)
	if err != nil {
		var codeMismatch *ctypes.CodeMismatchException
		if errors.As(err, &codeMismatch) {
			return ErrCodeMismatch
		}

		return fmt.Errorf("confirm sign up: %w", err)
	}

	return nil
}
