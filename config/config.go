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
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config is the complete backend configuration.
type Config struct {
	Server ServerConfig `yaml:"server"`
	Mongo  MongoConfig  `yaml:"mongo"`
	AWS    AWSConfig    `yaml:"aws"`
	Stripe StripeConfig `yaml:"stripe"`
	SMTP   SMTPConfig   `yaml:"smtp"`
	Auth   AuthConfig   `yaml:"auth"`
	Redis  RedisConfig  `yaml:"redis"`
}

type ServerConfig struct {
	Port        string `yaml:"port"`
	FrontendURL string `yaml:"frontend_url"`
}

type MongoConfig struct {
	URI      string `yaml:"uri"`
	Database string `yaml:"database"`
}

type AWSConfig struct {
	Region       string `yaml:"region"`
	BedrockModel string `yaml:"bedrock_model"`
	VisionModel  string `yaml:"vision_model"`
	S3Bucket     string `yaml:"s3_bucket"`
}

type StripeConfig struct {
	SecretKey string `yaml:"secret_key"`
}

type SMTPConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	From     string `yaml:"from"`
}

type AuthConfig struct {
	JWTSecret string        `yaml:"jwt_secret"`
	TokenTTL  time.Duration `yaml:"token_ttl"`
}

type RedisConfig struct {
	Addr       string        `yaml:"addr"`
	RateLimit  int           `yaml:"rate_limit"`
	RateWindow time.Duration `yaml:"rate_window"`
}

// Load builds configuration from .env, environment variables and the
// optional YAML file named by WIWI_CONFIG_FILE.
func Load() (*Config, error) {
	// Best effort; absence of a .env file is normal outside development.
	_ = godotenv.Load()

	cfg := &Config{
		Server: ServerConfig{
			Port:        getEnv("PORT", "8080"),
			FrontendURL: getEnv("FRONTEND_URL", "http://localhost:5173"),
		},
		Mongo: MongoConfig{
			URI:      getEnv("MONGODB_URI", "mongodb://localhost:27017"),
			Database: getEnv("MONGODB_DATABASE", "wiwi"),
		},
		AWS: AWSConfig{
			Region:       getEnv("AWS_DEFAULT_REGION", "us-west-2"),
			BedrockModel: getEnv("BEDROCK_MODEL", ""),
			VisionModel:  getEnv("BEDROCK_VISION_MODEL", ""),
			S3Bucket:     getEnv("S3_BUCKET", ""),
		},
		Stripe: StripeConfig{
			SecretKey: getEnv("STRIPE_SECRET_KEY", ""),
		},
		SMTP: SMTPConfig{
			Host:     getEnv("SMTP_HOST", "smtp.gmail.com"),
			Port:     getEnvInt("SMTP_PORT", 587),
			Username: getEnv("SMTP_USERNAME", ""),
			Password: getEnv("GMAIL_APP_PASSWORD", ""),
			From:     getEnv("SMTP_FROM", ""),
		},
		Auth: AuthConfig{
			JWTSecret: getEnv("JWT_SECRET", ""),
			TokenTTL:  getEnvDuration("JWT_TOKEN_TTL", 24*time.Hour),
		},
		Redis: RedisConfig{
			Addr:       getEnv("REDIS_ADDR", ""),
			RateLimit:  getEnvInt("AGENT_RATE_LIMIT", 20),
			RateWindow: getEnvDuration("AGENT_RATE_WINDOW", time.Minute),
		},
	}

	if path := os.Getenv("WIWI_CONFIG_FILE"); path != "" {
		if err := applyYAML(cfg, path); err != nil {
			return nil, err
		}
	}

	if cfg.SMTP.From == "" {
		cfg.SMTP.From = cfg.SMTP.Username
	}

	return cfg, nil
}

// applyYAML overlays the YAML file onto cfg. Only fields present in the
// file are changed.
func applyYAML(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return n
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return d
}
