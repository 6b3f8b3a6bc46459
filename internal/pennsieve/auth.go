package pennsieve

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider"
	cognitotypes "github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider/types"
	"github.com/imroc/req/v3"
	"go.uber.org/zap"
)

const (
	cognitoConfigurationPathConstant       = "/authentication/cognito-config"
	cognitoConfigurationOperationConstant  = "fetch cognito configuration"
	usernameParameterConstant              = "USERNAME"
	passwordParameterConstant              = "PASSWORD"
	missingCredentialsMessageConstant      = "api token and secret are required"
	incompleteCognitoConfigMessageConstant = "cognito configuration is missing region or app client id"
	missingAccessTokenMessageConstant      = "cognito returned no access token"
	authenticationErrorTemplateConstant    = "%w: %w"
	authenticationMessageTemplateConstant  = "%w: %s"
	cognitoClientErrorTemplateConstant     = "create cognito client: %w"
	initiateAuthErrorTemplateConstant      = "initiate auth: %w"
	authenticatedMessageConstant           = "authenticated with pennsieve"
	logFieldRegionConstant                 = "region"
)

// InitiateAuthAPI is the subset of the Cognito client used for login.
type InitiateAuthAPI interface {
	InitiateAuth(ctx context.Context, params *cognitoidentityprovider.InitiateAuthInput, optFns ...func(*cognitoidentityprovider.Options)) (*cognitoidentityprovider.InitiateAuthOutput, error)
}

// CognitoClientFactory builds a Cognito client for a region.
type CognitoClientFactory func(executionContext context.Context, region string) (InitiateAuthAPI, error)

// DefaultCognitoClientFactory builds an unsigned Cognito client; the
// USER_PASSWORD_AUTH flow does not need AWS credentials.
func DefaultCognitoClientFactory(executionContext context.Context, region string) (InitiateAuthAPI, error) {
	awsConfiguration, loadError := awsconfig.LoadDefaultConfig(
		executionContext,
		awsconfig.WithRegion(region),
		awsconfig.WithCredentialsProvider(aws.AnonymousCredentials{}),
	)
	if loadError != nil {
		return nil, loadError
	}
	return cognitoidentityprovider.NewFromConfig(awsConfiguration), nil
}

// Authenticator exchanges an API key pair for a Pennsieve access token.
type Authenticator struct {
	httpClient    *req.Client
	clientFactory CognitoClientFactory
	logger        *zap.Logger
}

// NewAuthenticator constructs an Authenticator. A nil factory selects
// DefaultCognitoClientFactory.
func NewAuthenticator(configuration Configuration, clientFactory CognitoClientFactory, logger *zap.Logger) *Authenticator {
	if clientFactory == nil {
		clientFactory = DefaultCognitoClientFactory
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Authenticator{
		httpClient:    newHTTPClient(configuration.sanitize()),
		clientFactory: clientFactory,
		logger:        logger,
	}
}

// Authenticate returns an access token for the API token and secret.
func (authenticator *Authenticator) Authenticate(executionContext context.Context, apiToken string, apiSecret string) (string, error) {
	trimmedToken := strings.TrimSpace(apiToken)
	trimmedSecret := strings.TrimSpace(apiSecret)
	if len(trimmedToken) == 0 || len(trimmedSecret) == 0 {
		return "", fmt.Errorf(authenticationMessageTemplateConstant, ErrAuthenticationFailed, missingCredentialsMessageConstant)
	}

	var cognito cognitoConfiguration
	response, requestError := authenticator.httpClient.R().
		SetContext(executionContext).
		SetSuccessResult(&cognito).
		Get(cognitoConfigurationPathConstant)
	if responseError := handleResponse(response, requestError, cognitoConfigurationOperationConstant); responseError != nil {
		return "", fmt.Errorf(authenticationErrorTemplateConstant, ErrAuthenticationFailed, responseError)
	}
	if len(cognito.Region) == 0 || len(cognito.TokenPool.AppClientID) == 0 {
		return "", fmt.Errorf(authenticationMessageTemplateConstant, ErrAuthenticationFailed, incompleteCognitoConfigMessageConstant)
	}

	cognitoClient, factoryError := authenticator.clientFactory(executionContext, cognito.Region)
	if factoryError != nil {
		return "", fmt.Errorf(authenticationErrorTemplateConstant, ErrAuthenticationFailed, fmt.Errorf(cognitoClientErrorTemplateConstant, factoryError))
	}

	output, authError := cognitoClient.InitiateAuth(executionContext, &cognitoidentityprovider.InitiateAuthInput{
		AuthFlow: cognitotypes.AuthFlowTypeUserPasswordAuth,
		ClientId: aws.String(cognito.TokenPool.AppClientID),
		AuthParameters: map[string]string{
			usernameParameterConstant: trimmedToken,
			passwordParameterConstant: trimmedSecret,
		},
	})
	if authError != nil {
		return "", fmt.Errorf(authenticationErrorTemplateConstant, ErrAuthenticationFailed, fmt.Errorf(initiateAuthErrorTemplateConstant, authError))
	}

	if output == nil || output.AuthenticationResult == nil {
		return "", fmt.Errorf(authenticationMessageTemplateConstant, ErrAuthenticationFailed, missingAccessTokenMessageConstant)
	}
	accessToken := aws.ToString(output.AuthenticationResult.AccessToken)
	if len(accessToken) == 0 {
		return "", fmt.Errorf(authenticationMessageTemplateConstant, ErrAuthenticationFailed, missingAccessTokenMessageConstant)
	}

	authenticator.logger.Debug(authenticatedMessageConstant, zap.String(logFieldRegionConstant, cognito.Region))
	return accessToken, nil
}
