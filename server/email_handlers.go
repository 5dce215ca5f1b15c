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

	"wiwi/backend/notify"
)

type winnerEmailRequest struct {
	UserEmail string `json:"user_email"`
	Username  string `json:"username"`
	ItemName  string `json:"item_name"`
	Message   string `json:"message"`
}

const defaultWinnerMessage = "You just won a gaming laptop in the raffle you recently entered."

func (s *Server) handleSendWinnerEmail(w http.ResponseWriter, r *http.Request) {
	if s.deps.Mailer == nil {
		s.writeError(w, http.StatusServiceUnavailable, "mailer not configured")
		return
	}

	var req winnerEmailRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.UserEmail == "" || req.Username == "" || req.ItemName == "" {
		s.writeError(w, http.StatusBadRequest, "user_email, username and item_name are required")
		return
	}
	if req.Message == "" {
		req.Message = defaultWinnerMessage
	}

	err := s.deps.Mailer.SendWinnerEmail(r.Context(), notify.WinnerNotice{
		UserEmail: req.UserEmail,
		Username:  req.Username,
		ItemName:  req.ItemName,
		Message:   req.Message,
	})
	if err != nil {
		s.log.Error("", "winner email failed", map[string]interface{}{
			"recipient": req.UserEmail,
			"error":     err.Error(),
		})
		s.writeError(w, http.StatusInternalServerError, "Failed to send email: "+err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "success",
		"message": "Email sent successfully",
	})
}

type raffleWinnerEmailRequest struct {
	WinnerID        string `json:"winner_id"`
	ItemID          string `json:"item_id"`
	WinnerEmail     string `json:"winner_email"`
	ItemTitle       string `json:"item_title"`
	SellerEmail     string `json:"seller_email"`
	TicketCost      int    `json:"ticket_cost"`
	TicketsSpent    int    `json:"tickets_spent"`
	CharityOverflow int    `json:"charity_overflow"`
}

func (s *Server) handleSendRaffleWinnerEmail(w http.ResponseWriter, r *http.Request) {
	if s.deps.Mailer == nil {
		s.writeError(w, http.StatusServiceUnavailable, "mailer not configured")
		return
	}

	var req raffleWinnerEmailRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.WinnerEmail == "" || req.ItemTitle == "" {
		s.writeError(w, http.StatusBadRequest, "winner_email and item_title are required")
		return
	}

	err := s.deps.Mailer.SendRaffleWinnerEmail(r.Context(), notify.RaffleWinnerNotice{
		WinnerID:        req.WinnerID,
		ItemID:          req.ItemID,
		WinnerEmail:     req.WinnerEmail,
		ItemTitle:       req.ItemTitle,
		SellerEmail:     req.SellerEmail,
		TicketCost:      req.TicketCost,
		TicketsSpent:    req.TicketsSpent,
		CharityOverflow: req.CharityOverflow,
	})
	if err != nil {
		s.log.Error("", "raffle winner email failed", map[string]interface{}{
			"recipient": req.WinnerEmail,
			"error":     err.Error(),
		})
		s.writeError(w, http.StatusInternalServerError, "Failed to send winner email: "+err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "success",
		"message": "Winner notification email sent successfully",
	})
}
