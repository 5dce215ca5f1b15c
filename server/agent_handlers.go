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
	"encoding/json"
	"net/http"
	"strings"
	"time"
)

const (
	maxImagesPerRequest  = 10
	maxUploadBytesPerReq = 64 << 20
)

type agentChatRequest struct {
	Prompt string `json:"prompt"`
}

func (s *Server) handleAgentChat(w http.ResponseWriter, r *http.Request) {
	if s.deps.Agent == nil {
		s.writeError(w, http.StatusServiceUnavailable, "agent not configured")
		return
	}

	var req agentChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Prompt == "" {
		s.writeError(w, http.StatusBadRequest, "prompt is required")
		return
	}

	start := time.Now()
	response, err := s.deps.Agent.Chat(r.Context(), req.Prompt)
	if err != nil {
		// Model failures are surfaced to the frontend as a tagged payload,
		// not as a transport error.
		s.log.Error("", "agent chat failed", map[string]interface{}{
			"error": err.Error(),
		})
		s.writeJSON(w, http.StatusOK, map[string]interface{}{"error": err.Error()})
		return
	}
	s.log.InfoWithDuration("", "agent chat completed", float64(time.Since(start).Milliseconds()), nil)
	s.writeJSON(w, http.StatusOK, map[string]interface{}{"response": response})
}

// uploadedImage describes one image stored to S3 for analysis.
type uploadedImage struct {
	Filename    string `json:"filename"`
	URL         string `json:"url"`
	ContentType string `json:"content_type"`
}

// handleAnalyzeImages uploads 1-10 multipart images to S3 and runs the
// auction verifier over them, either as one combined analysis or one fresh
// analysis per image.
func (s *Server) handleAnalyzeImages(w http.ResponseWriter, r *http.Request) {
	if s.deps.Agent == nil || s.deps.Uploader == nil {
		s.writeError(w, http.StatusServiceUnavailable, "image analysis not configured")
		return
	}

	if err := r.ParseMultipartForm(maxUploadBytesPerReq); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}

	files := r.MultipartForm.File["images"]
	if len(files) == 0 {
		s.writeError(w, http.StatusBadRequest, "At least one image is required")
		return
	}
	if len(files) > maxImagesPerRequest {
		s.writeError(w, http.StatusBadRequest, "Maximum 10 images allowed per request")
		return
	}

	together := true
	if v := r.FormValue("analyze_together"); v != "" {
		together = v != "false" && v != "0"
	}
	extraContext := buildAnalysisContext(
		r.FormValue("title"), r.FormValue("condition"), r.FormValue("description"))

	uploaded := make([]uploadedImage, 0, len(files))
	for _, header := range files {
		file, err := header.Open()
		if err != nil {
			s.log.Warn("", "failed to open uploaded image", map[string]interface{}{
				"filename": header.Filename,
				"error":    err.Error(),
			})
			continue
		}
		url, err := s.deps.Uploader.Upload(r.Context(), file, header.Filename, header.Header.Get("Content-Type"))
		_ = file.Close()
		if err != nil {
			s.log.Warn("", "failed to upload image", map[string]interface{}{
				"filename": header.Filename,
				"error":    err.Error(),
			})
			continue
		}
		uploaded = append(uploaded, uploadedImage{
			Filename:    header.Filename,
			URL:         url,
			ContentType: header.Header.Get("Content-Type"),
		})
	}
	if len(uploaded) == 0 {
		s.writeError(w, http.StatusInternalServerError, "Failed to upload any images")
		return
	}

	urls := make([]string, len(uploaded))
	filenames := make([]string, len(uploaded))
	for i, img := range uploaded {
		urls[i] = img.URL
		filenames[i] = img.Filename
	}

	if together {
		analysis, err := s.deps.Agent.AnalyzeImages(r.Context(), urls, filenames, extraContext, true)
		if err != nil {
			s.writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		s.writeJSON(w, http.StatusOK, map[string]interface{}{
			"analysis_type": "combined",
			"images":        uploaded,
			"total_images":  len(uploaded),
			"analysis":      analysis,
			"status":        "success",
		})
		return
	}

	// Separate mode: fresh verifier context per image so one listing cannot
	// contaminate another.
	individual := make([]map[string]interface{}, 0, len(uploaded))
	for _, img := range uploaded {
		entry := map[string]interface{}{
			"filename": img.Filename,
			"url":      img.URL,
		}
		analysis, err := s.deps.Agent.AnalyzeImages(
			r.Context(), []string{img.URL}, []string{img.Filename}, extraContext, false)
		if err != nil {
			entry["analysis"] = map[string]interface{}{"error": err.Error()}
			entry["status"] = "failed"
		} else {
			entry["analysis"] = analysis
		}
		individual = append(individual, entry)
	}
	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"analysis_type":       "individual",
		"images":              uploaded,
		"total_images":        len(uploaded),
		"individual_analyses": individual,
		"status":              "success",
	})
}

// buildAnalysisContext folds the optional listing form fields into the extra
// context string handed to the verifier.
func buildAnalysisContext(title, condition, description string) string {
	parts := make([]string, 0, 3)
	if title != "" {
		parts = append(parts, "Title: "+title)
	}
	if condition != "" {
		parts = append(parts, "Condition: "+condition)
	}
	if description != "" {
		parts = append(parts, description)
	}
	return strings.Join(parts, ". ")
}
