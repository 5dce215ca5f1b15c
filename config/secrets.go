// Copyright 2025 WIWI
// SPDX-License-Identifier: Apache-2.0
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package config

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"

	"wiwi/backend/shared/logger"
)

// SecretsClient is the Secrets Manager surface the resolver needs.
// Satisfied by *secretsmanager.Client.
type SecretsClient interface {
	GetSecretValue(ctx context.Context, params *secretsmanager.GetSecretValueInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error)
}

// SecretsManager fetches and caches secrets from AWS Secrets Manager.
type SecretsManager struct {
	client SecretsClient
	ttl    time.Duration
	log    *logger.Logger

	mu    sync.RWMutex
	cache map[string]*secretCacheEntry
}

type secretCacheEntry struct {
	value     map[string]string
	expiresAt time.Time
}

const defaultSecretTTL = 5 * time.Minute

// NewSecretsManager creates a SecretsManager with a real AWS client.
func NewSecretsManager(ctx context.Context, region string) (*SecretsManager, error) {
	opts := []func(*awsconfig.LoadOptions) error{}
	if region != "" {
		opts = append(opts, awsconfig.WithRegion(region))
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	return NewSecretsManagerWithClient(secretsmanager.NewFromConfig(cfg), defaultSecretTTL), nil
}

// NewSecretsManagerWithClient creates a SecretsManager with an explicit
// client. Used by tests.
func NewSecretsManagerWithClient(client SecretsClient, ttl time.Duration) *SecretsManager {
	if ttl <= 0 {
		ttl = defaultSecretTTL
	}
	return &SecretsManager{
		client: client,
		ttl:    ttl,
		log:    logger.New("config"),
		cache:  make(map[string]*secretCacheEntry),
	}
}

// GetSecret retrieves a secret, serving from the cache while the entry is
// fresh. JSON secrets decode to their key-value pairs; plain strings come
// back under the "value" key.
func (s *SecretsManager) GetSecret(ctx context.Context, secretARN string) (map[string]string, error) {
	s.mu.RLock()
	entry, exists := s.cache[secretARN]
	s.mu.RUnlock()

	if exists && time.Now().Before(entry.expiresAt) {
		return entry.value, nil
	}

	result, err := s.client.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{
		SecretId: aws.String(secretARN),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get secret %s: %w", maskARN(secretARN), err)
	}
	if result.SecretString == nil {
		return nil, fmt.Errorf("secret %s has no string value", maskARN(secretARN))
	}

	var credentials map[string]string
	if err := json.Unmarshal([]byte(*result.SecretString), &credentials); err != nil {
		credentials = map[string]string{"value": *result.SecretString}
	}

	s.mu.Lock()
	s.cache[secretARN] = &secretCacheEntry{
		value:     credentials,
		expiresAt: time.Now().Add(s.ttl),
	}
	s.mu.Unlock()

	s.log.Info("", "secret retrieved and cached", map[string]interface{}{
		"secret": maskARN(secretARN),
	})
	return credentials, nil
}

// Invalidate removes one secret from the cache.
func (s *SecretsManager) Invalidate(secretARN string) {
	s.mu.Lock()
	delete(s.cache, secretARN)
	s.mu.Unlock()
}

// ResolveSecrets fills credential fields whose *_SECRET_ARN environment
// variable is set. Values already present in cfg are left alone.
func (s *SecretsManager) ResolveSecrets(ctx context.Context, cfg *Config) error {
	targets := []struct {
		arnVar string
		dest   *string
	}{
		{"STRIPE_SECRET_ARN", &cfg.Stripe.SecretKey},
		{"SMTP_PASSWORD_SECRET_ARN", &cfg.SMTP.Password},
		{"JWT_SECRET_ARN", &cfg.Auth.JWTSecret},
	}

	for _, target := range targets {
		arn := os.Getenv(target.arnVar)
		if arn == "" || *target.dest != "" {
			continue
		}
		secret, err := s.GetSecret(ctx, arn)
		if err != nil {
			return err
		}
		value, ok := secret["value"]
		if !ok || value == "" {
			return fmt.Errorf("secret %s has no %q key", maskARN(arn), "value")
		}
		*target.dest = value
	}
	return nil
}

// maskARN hides all but the tail of a secret ARN in logs.
func maskARN(arn string) string {
	if len(arn) <= 12 {
		return "***"
	}
	return "..." + arn[len(arn)-8:]
}
