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

package storage

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"

	"wiwi/backend/shared/logger"
)

// PutClient is the S3 surface the uploader needs. Satisfied by *s3.Client.
type PutClient interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// Uploader writes listing images into a single bucket.
type Uploader struct {
	client PutClient
	bucket string
	region string
	log    *logger.Logger
}

// NewUploader creates an Uploader with a real S3 client.
func NewUploader(ctx context.Context, bucket, region string) (*Uploader, error) {
	if bucket == "" {
		return nil, fmt.Errorf("s3 bucket is required")
	}
	if region == "" {
		region = "us-west-2"
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config for S3 (region: %s): %w", region, err)
	}

	return &Uploader{
		client: s3.NewFromConfig(awsCfg),
		bucket: bucket,
		region: region,
		log:    logger.New("storage"),
	}, nil
}

// NewUploaderWithClient creates an Uploader with an explicit client. Used by
// tests.
func NewUploaderWithClient(client PutClient, bucket, region string) *Uploader {
	return &Uploader{
		client: client,
		bucket: bucket,
		region: region,
		log:    logger.New("storage"),
	}
}

// Upload stores the body under uploads/<uuid>_<filename> and returns the
// object's public URL.
func (u *Uploader) Upload(ctx context.Context, body io.Reader, filename, contentType string) (string, error) {
	key := fmt.Sprintf("uploads/%s_%s", uuid.New().String(), sanitizeFilename(filename))

	input := &s3.PutObjectInput{
		Bucket: aws.String(u.bucket),
		Key:    aws.String(key),
		Body:   body,
	}
	if contentType != "" {
		input.ContentType = aws.String(contentType)
	}

	if _, err := u.client.PutObject(ctx, input); err != nil {
		u.log.Error("", "s3 upload failed", map[string]interface{}{
			"bucket": u.bucket,
			"key":    key,
			"error":  err.Error(),
		})
		return "", fmt.Errorf("s3 upload failed: %w", err)
	}

	url := fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", u.bucket, u.region, key)
	u.log.Info("", "s3 upload complete", map[string]interface{}{
		"bucket": u.bucket,
		"key":    key,
	})
	return url, nil
}

// sanitizeFilename strips path components and whitespace so uploaded names
// cannot escape the uploads/ prefix.
func sanitizeFilename(name string) string {
	name = filepath.Base(strings.TrimSpace(name))
	if name == "." || name == "/" || name == "" {
		return "upload"
	}
	return strings.ReplaceAll(name, " ", "_")
}
