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

package notify

import (
	"bytes"
	"html/template"
)

var winnerTemplate = template.Must(template.New("winner").Parse(`<!DOCTYPE html>
<html>
<head>
    <meta charset="utf-8">
    <title>You Won! - WIWI Raffle</title>
</head>
<body style="font-family: Arial, sans-serif; line-height: 1.6; color: #333; max-width: 600px; margin: 0 auto; padding: 20px;">
    <div style="background: linear-gradient(135deg, #667eea 0%, #764ba2 100%); color: white; padding: 30px; border-radius: 10px; text-align: center; margin-bottom: 30px;">
        <h1 style="margin: 0; font-size: 2.5em;">Congratulations{{if .Username}}, {{.Username}}{{end}}!</h1>
    </div>

    <div style="background-color: #f8fafc; border-radius: 10px; padding: 25px; margin-bottom: 20px;">
        {{if .ItemName}}<p style="font-size: 1.2em; margin: 10px 0;"><strong>Item:</strong> {{.ItemName}}</p>{{end}}
        <p style="margin: 10px 0;">{{.Message}}</p>
    </div>

    <div style="text-align: center; margin-top: 30px; padding: 20px; background-color: #f1f5f9; border-radius: 8px;">
        <p style="margin: 0; color: #64748b;">Thank you for participating in WIWI Raffle!</p>
    </div>
</body>
</html>
`))

var raffleWinnerTemplate = template.Must(template.New("raffleWinner").Parse(`<!DOCTYPE html>
<html>
<head>
    <meta charset="utf-8">
    <title>You Won! - WIWI Raffle</title>
</head>
<body style="font-family: Arial, sans-serif; line-height: 1.6; color: #333; max-width: 600px; margin: 0 auto; padding: 20px;">
    <div style="background: linear-gradient(135deg, #667eea 0%, #764ba2 100%); color: white; padding: 30px; border-radius: 10px; text-align: center; margin-bottom: 30px;">
        <h1 style="margin: 0; font-size: 2.5em;">Congratulations!</h1>
        <h2 style="margin: 10px 0 0 0; font-size: 1.5em;">You Won the Raffle!</h2>
    </div>

    <div style="background-color: #f8fafc; border-radius: 10px; padding: 25px; margin-bottom: 20px;">
        <h3 style="color: #1e293b; margin-top: 0;">Prize Details</h3>
        <p style="font-size: 1.2em; margin: 10px 0;"><strong>Item:</strong> {{.ItemTitle}}</p>
        <p style="margin: 10px 0;"><strong>Your Tickets:</strong> {{.TicketsSpent}} tickets (${{.TicketCost}} each)</p>
        <p style="margin: 10px 0;"><strong>Total Investment:</strong> ${{.TotalInvestment}}</p>
    </div>

    {{if gt .CharityOverflow 0}}
    <div style="background-color: #fef3c7; border: 1px solid #f59e0b; border-radius: 8px; padding: 16px; margin: 16px 0;">
        <h3 style="color: #92400e; margin: 0 0 8px 0;">Bonus: Charity Overflow Active!</h3>
        <p style="color: #92400e; margin: 0;">This raffle exceeded its goal by {{.CharityOverflow}} tickets, supporting charity!</p>
    </div>
    {{end}}

    <div style="background-color: #e0f2fe; border: 1px solid #0ea5e9; border-radius: 8px; padding: 20px; margin: 20px 0;">
        <h3 style="color: #0c4a6e; margin-top: 0;">Next Steps</h3>
        <p style="color: #0c4a6e; margin: 10px 0;">The seller will contact you soon at: <strong>{{.SellerEmail}}</strong></p>
        <p style="color: #0c4a6e; margin: 10px 0;">Please respond promptly to arrange prize delivery.</p>
    </div>

    <div style="text-align: center; margin-top: 30px; padding: 20px; background-color: #f1f5f9; border-radius: 8px;">
        <p style="margin: 0; color: #64748b;">Thank you for participating in WIWI Raffle!</p>
        <p style="margin: 5px 0 0 0; color: #64748b;">Good luck with your new prize!</p>
    </div>
</body>
</html>
`))

// raffleWinnerView is the template payload; TotalInvestment is precomputed
// since templates do no arithmetic.
type raffleWinnerView struct {
	RaffleWinnerNotice
	TotalInvestment int
}

// winnerView wraps the caller-supplied message so it renders as HTML rather
// than escaped text.
type winnerView struct {
	Username string
	ItemName string
	Message  template.HTML
}

func renderWinnerEmail(notice WinnerNotice) (string, error) {
	view := winnerView{
		Username: notice.Username,
		ItemName: notice.ItemName,
		Message:  template.HTML(notice.Message),
	}
	var buf bytes.Buffer
	if err := winnerTemplate.Execute(&buf, view); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func renderRaffleWinnerEmail(notice RaffleWinnerNotice) (string, error) {
	view := raffleWinnerView{
		RaffleWinnerNotice: notice,
		TotalInvestment:    notice.TicketCost * notice.TicketsSpent,
	}
	var buf bytes.Buffer
	if err := raffleWinnerTemplate.Execute(&buf, view); err != nil {
		return "", err
	}
	return buf.String(), nil
}
