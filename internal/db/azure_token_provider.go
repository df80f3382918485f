package db

import (
	"context"
	"fmt"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
	"github.com/vvka-141/transitload/pkg/transitload"
)

// azureTokenSource fetches PostgreSQL-scoped tokens from any Azure credential.
type azureTokenSource struct {
	credential azcore.TokenCredential
}

func (s azureTokenSource) GetToken(ctx context.Context) (string, time.Time, error) {
	token, err := s.credential.GetToken(ctx, policy.TokenRequestOptions{
		Scopes: []string{AzurePostgreSQLScope},
	})
	if err != nil {
		return "", time.Time{}, fmt.Errorf("azure token acquisition failed: %w", err)
	}
	return token.Token, token.ExpiresOn, nil
}

// AzureServicePrincipalProvider acquires tokens with Service Principal
// credentials, the usual choice for scheduled loads.
type AzureServicePrincipalProvider struct {
	azureTokenSource
	tenantID string
	clientID string
}

var _ TokenProvider = (*AzureServicePrincipalProvider)(nil)

// NewAzureServicePrincipalProvider requires tenantID, clientID and clientSecret.
func NewAzureServicePrincipalProvider(tenantID, clientID, clientSecret string) (*AzureServicePrincipalProvider, error) {
	if tenantID == "" || clientID == "" || clientSecret == "" {
		return nil, fmt.Errorf("azure service principal requires tenantID, clientID, and clientSecret: %w", transitload.ErrInvalidConfig)
	}

	cred, err := azidentity.NewClientSecretCredential(tenantID, clientID, clientSecret, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create Azure credential: %w: %w", transitload.ErrConnectionFailed, err)
	}

	return &AzureServicePrincipalProvider{
		azureTokenSource: azureTokenSource{credential: cred},
		tenantID:         tenantID,
		clientID:         clientID,
	}, nil
}

func (p *AzureServicePrincipalProvider) String() string {
	return fmt.Sprintf("AzureServicePrincipal(tenant=%s, client=%s)", p.tenantID, p.clientID)
}

// AzureDefaultCredentialProvider uses the DefaultAzureCredential chain:
// environment, workload identity, managed identity, then developer CLIs.
type AzureDefaultCredentialProvider struct {
	azureTokenSource
}

var _ TokenProvider = (*AzureDefaultCredentialProvider)(nil)

func NewAzureDefaultCredentialProvider() (*AzureDefaultCredentialProvider, error) {
	cred, err := azidentity.NewDefaultAzureCredential(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create Azure default credential: %w: %w", transitload.ErrConnectionFailed, err)
	}
	return &AzureDefaultCredentialProvider{azureTokenSource{credential: cred}}, nil
}

func (p *AzureDefaultCredentialProvider) String() string {
	return "AzureDefaultCredential"
}
