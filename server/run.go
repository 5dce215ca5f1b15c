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

package server

import (
	"context"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/rs/cors"

	"wiwi/backend/assistant"
	"wiwi/backend/config"
	"wiwi/backend/notify"
	"wiwi/backend/payments"
	"wiwi/backend/storage"
	"wiwi/backend/store"
	"wiwi/backend/vision"
)

// Run loads configuration, wires every service and blocks serving HTTP.
// Optional dependencies (S3, SMTP, Stripe, Redis) degrade to disabled
// endpoints when unconfigured; the store and the agent are required.
func Run() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	ctx := context.Background()

	if arn := os.Getenv("STRIPE_SECRET_ARN") + os.Getenv("SMTP_PASSWORD_SECRET_ARN") + os.Getenv("JWT_SECRET_ARN"); arn != "" {
		sm, err := config.NewSecretsManager(ctx, cfg.AWS.Region)
		if err != nil {
			log.Fatalf("Failed to initialize Secrets Manager: %v", err)
		}
		if err := sm.ResolveSecrets(ctx, cfg); err != nil {
			log.Fatalf("Failed to resolve secrets: %v", err)
		}
	}

	// Mongo connects first; a failed connection is reported on / and /health
	// rather than aborting startup, matching how the frontend probes us.
	mongoStatus := "Connected"
	var st *store.Store
	connectCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	st, err = store.Connect(connectCtx, store.Config{
		URI:      cfg.Mongo.URI,
		Database: cfg.Mongo.Database,
		AppName:  "wiwi-backend",
	})
	cancel()
	if err != nil {
		log.Printf("MongoDB connection failed: %v", err)
		mongoStatus = "Failed"
		st = nil
	}

	deps := Deps{}
	if st != nil {
		deps.Store = st
	}

	// Vision analyzer and agent share the Bedrock stack.
	analyzer, err := vision.New(ctx, vision.Config{
		Region: cfg.AWS.Region,
		Model:  cfg.AWS.VisionModel,
	})
	if err != nil {
		log.Fatalf("Failed to initialize vision analyzer: %v", err)
	}

	var tools []assistant.Tool
	if st != nil {
		tools = assistant.DefaultTools(assistant.Deps{
			Store:      st,
			Analyzer:   analyzer,
			HTTPClient: &http.Client{Timeout: 30 * time.Second},
		})
	}
	agent, err := assistant.New(ctx, assistant.Config{
		Region: cfg.AWS.Region,
		Model:  cfg.AWS.BedrockModel,
	}, tools)
	if err != nil {
		log.Fatalf("Failed to initialize agent: %v", err)
	}
	deps.Agent = agent

	if cfg.AWS.S3Bucket != "" {
		uploader, err := storage.NewUploader(ctx, cfg.AWS.S3Bucket, cfg.AWS.Region)
		if err != nil {
			log.Fatalf("Failed to initialize S3 uploader: %v", err)
		}
		deps.Uploader = uploader
	} else {
		log.Println("S3_BUCKET not set - image analysis uploads disabled")
	}

	if cfg.SMTP.Username != "" && cfg.SMTP.Password != "" {
		mailer, err := notify.NewMailer(notify.Config{
			Host:     cfg.SMTP.Host,
			Port:     cfg.SMTP.Port,
			Username: cfg.SMTP.Username,
			Password: cfg.SMTP.Password,
			From:     cfg.SMTP.From,
		})
		if err != nil {
			log.Fatalf("Failed to initialize mailer: %v", err)
		}
		deps.Mailer = mailer
	} else {
		log.Println("SMTP credentials not set - winner emails disabled")
	}

	if cfg.Stripe.SecretKey != "" {
		deps.Payments = payments.NewService(payments.NewStripeProcessor(cfg.Stripe.SecretKey))
	} else {
		log.Println("STRIPE_SECRET_KEY not set - payment endpoints disabled")
	}

	if st != nil && cfg.Auth.JWTSecret != "" {
		auth, err := NewAuthenticator(st, cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
		if err != nil {
			log.Fatalf("Failed to initialize authenticator: %v", err)
		}
		deps.Auth = auth
	} else {
		log.Println("JWT_SECRET not set or store unavailable - auth endpoints disabled")
	}

	if cfg.Redis.Addr != "" {
		client, err := ConnectRedis(cfg.Redis.Addr)
		if err != nil {
			log.Printf("Warning: %v", err)
			log.Println("Falling back to in-memory rate limiting")
			deps.RateLimiter = NewRateLimiter(nil, cfg.Redis.RateLimit, cfg.Redis.RateWindow)
		} else {
			log.Println("Redis rate limiting enabled")
			deps.RateLimiter = NewRateLimiter(client, cfg.Redis.RateLimit, cfg.Redis.RateWindow)
		}
	} else {
		deps.RateLimiter = NewRateLimiter(nil, cfg.Redis.RateLimit, cfg.Redis.RateWindow)
	}
	defer func() { _ = deps.RateLimiter.Close() }()

	srv := New(deps, mongoStatus)

	corsMiddleware := cors.New(cors.Options{
		AllowedOrigins:   []string{cfg.Server.FrontendURL},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	})
	handler := corsMiddleware.Handler(srv.Router())

	log.Printf("WIWI backend listening on port %s (mongodb: %s)", cfg.Server.Port, mongoStatus)
	if err := http.ListenAndServe(":"+cfg.Server.Port, handler); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}
