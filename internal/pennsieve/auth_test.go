package pennsieve_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider"
	cognitotypes "github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider/types"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/temirov/sdsaudit/internal/pennsieve"
)

const (
	testRegionConstant      = "us-east-1"
	testAppClientIDConstant = "app-client"
	testAPITokenConstant    = "api-token"
	testAPISecretConstant   = "api-secret"
	testCognitoBodyConstant = `{"region":"us-east-1","tokenPool":{"appClientId":"app-client"}}`
)

type fakeCognitoClient struct {
	receivedInput *cognitoidentityprovider.InitiateAuthInput
	output        *cognitoidentityprovider.InitiateAuthOutput
	err           error
}

func (client *fakeCognitoClient) InitiateAuth(_ context.Context, params *cognitoidentityprovider.InitiateAuthInput, _ ...func(*cognitoidentityprovider.Options)) (*cognitoidentityprovider.InitiateAuthOutput, error) {
	client.receivedInput = params
	return client.output, client.err
}

func newCognitoConfigServer(testInstance *testing.T, status int, body string) string {
	testInstance.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		if request.URL.Path != "/authentication/cognito-config" {
			http.NotFound(writer, request)
			return
		}
		writer.Header().Set(testContentTypeHeader, testJSONContentTypeConstant)
		writer.WriteHeader(status)
		_, _ = writer.Write([]byte(body))
	}))
	testInstance.Cleanup(server.Close)
	return server.URL
}

func TestAuthenticatorAuthenticate(testInstance *testing.T) {
	testInstance.Parallel()

	successOutput := &cognitoidentityprovider.InitiateAuthOutput{
		AuthenticationResult: &cognitotypes.AuthenticationResultType{AccessToken: aws.String(testAccessTokenConstant)},
	}

	testCases := []struct {
		name           string
		status         int
		body           string
		apiToken       string
		apiSecret      string
		cognitoOutput  *cognitoidentityprovider.InitiateAuthOutput
		cognitoError   error
		factoryError   error
		expectedToken  string
		expectError    bool
		expectedRegion string
	}{
		{
			name:           "success",
			status:         http.StatusOK,
			body:           testCognitoBodyConstant,
			apiToken:       testAPITokenConstant,
			apiSecret:      testAPISecretConstant,
			cognitoOutput:  successOutput,
			expectedToken:  testAccessTokenConstant,
			expectedRegion: testRegionConstant,
		},
		{
			name:        "missing_credentials",
			status:      http.StatusOK,
			body:        testCognitoBodyConstant,
			apiToken:    "  ",
			apiSecret:   testAPISecretConstant,
			expectError: true,
		},
		{
			name:        "configuration_endpoint_failure",
			status:      http.StatusInternalServerError,
			body:        `{}`,
			apiToken:    testAPITokenConstant,
			apiSecret:   testAPISecretConstant,
			expectError: true,
		},
		{
			name:        "incomplete_configuration",
			status:      http.StatusOK,
			body:        `{"region":"us-east-1"}`,
			apiToken:    testAPITokenConstant,
			apiSecret:   testAPISecretConstant,
			expectError: true,
		},
		{
			name:         "factory_failure",
			status:       http.StatusOK,
			body:         testCognitoBodyConstant,
			apiToken:     testAPITokenConstant,
			apiSecret:    testAPISecretConstant,
			factoryError: errors.New("no region"),
			expectError:  true,
		},
		{
			name:         "rejected_credentials",
			status:       http.StatusOK,
			body:         testCognitoBodyConstant,
			apiToken:     testAPITokenConstant,
			apiSecret:    testAPISecretConstant,
			cognitoError: errors.New("NotAuthorizedException"),
			expectError:  true,
		},
		{
			name:          "missing_access_token",
			status:        http.StatusOK,
			body:          testCognitoBodyConstant,
			apiToken:      testAPITokenConstant,
			apiSecret:     testAPISecretConstant,
			cognitoOutput: &cognitoidentityprovider.InitiateAuthOutput{},
			expectError:   true,
		},
	}

	for _, testCase := range testCases {
		testCase := testCase
		testInstance.Run(testCase.name, func(subTest *testing.T) {
			subTest.Parallel()

			baseURL := newCognitoConfigServer(subTest, testCase.status, testCase.body)
			cognitoClient := &fakeCognitoClient{output: testCase.cognitoOutput, err: testCase.cognitoError}
			var requestedRegion string
			factory := func(_ context.Context, region string) (pennsieve.InitiateAuthAPI, error) {
				requestedRegion = region
				if testCase.factoryError != nil {
					return nil, testCase.factoryError
				}
				return cognitoClient, nil
			}

			authenticator := pennsieve.NewAuthenticator(pennsieve.Configuration{BaseURL: baseURL}, factory, zap.NewNop())
			accessToken, authenticateError := authenticator.Authenticate(context.Background(), testCase.apiToken, testCase.apiSecret)

			if testCase.expectError {
				require.Error(subTest, authenticateError)
				require.ErrorIs(subTest, authenticateError, pennsieve.ErrAuthenticationFailed)
				return
			}

			require.NoError(subTest, authenticateError)
			require.Equal(subTest, testCase.expectedToken, accessToken)
			require.Equal(subTest, testCase.expectedRegion, requestedRegion)
			require.NotNil(subTest, cognitoClient.receivedInput)
			require.Equal(subTest, cognitotypes.AuthFlowTypeUserPasswordAuth, cognitoClient.receivedInput.AuthFlow)
			require.Equal(subTest, testAppClientIDConstant, aws.ToString(cognitoClient.receivedInput.ClientId))
			require.Equal(subTest, map[string]string{
				"USERNAME": testAPITokenConstant,
				"PASSWORD": testAPISecretConstant,
			}, cognitoClient.receivedInput.AuthParameters)
		})
	}
}
