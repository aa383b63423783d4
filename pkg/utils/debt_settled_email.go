package utils

import (
	"fmt"
	"time"
)

func SendDebtSettledEmail(to, firstName string, amount string, creditorName string, debtID int, settledAt time.Time) error {
	subject := fmt.Sprintf("✅ Debt #%d Settled in Full", debtID)

	body := fmt.Sprintf(`
	<!DOCTYPE html>
	<html lang="en">
	<head>
	<meta charset="UTF-8">
	<meta name="viewport" content="width=device-width, initial-scale=1.0">
	<title>Debt Settled</title>
	<style>
		body {
			font-family: 'Segoe UI', Roboto, Arial, sans-serif;
			background-color: #f6f8f7;
			margin: 0;
			padding: 0;
			color: #333;
		}
		.container {
			max-width: 480px;
			margin: 25px auto;
			background: #ffffff;
			border-radius: 12px;
			box-shadow: 0 4px 16px rgba(0, 0, 0, 0.08);
			overflow: hidden;
			border-top: 5px solid #2e7d32;
		}
		.header {
			background-color: #2e7d32;
			color: #ffffff;
			text-align: center;
			padding: 18px 12px;
		}
		.header h1 {
			margin: 0;
			font-size: 18px;
			font-weight: 600;
		}
		.content {
			padding: 20px 18px;
		}
		.message {
			font-size: 14px;
			line-height: 1.6;
			color: #444;
		}
		.amount-box {
			background: #f2fdf4;
			border: 1px solid #bfe7c5;
			border-radius: 8px;
			padding: 12px 14px;
			margin: 16px 0;
			text-align: center;
		}
		.amount-box h3 {
			margin: 0;
			color: #2e7d32;
			font-size: 16px;
			font-weight: 700;
		}
		.amount-box p {
			margin: 6px 0 0;
			font-size: 13px;
			color: #555;
		}
		.footer {
			background: #f0f6f1;
			text-align: center;
			padding: 14px;
			font-size: 12px;
			color: #777;
			border-top: 1px solid #e5e5e5;
		}
		.brand {
			color: #1d4e89;
			font-weight: bold;
		}
	</style>
	</head>

	<body>
		<div class="container">
			<div class="header">
				<h1>All Settled 🤝</h1>
			</div>
			<div class="content">
				<p class="message">
					Hi %s,<br><br>
					Your debt of ₹<b>%s</b> to <b>%s</b> is now fully settled. Nothing left to pay on this one.
				</p>

				<div class="amount-box">
					<h3>₹%s Paid in Full</h3>
					<p>Debt ID: #%d</p>
					<p>Settled: %s</p>
				</div>
			</div>
			<div class="footer">
				&copy; %d <span class="brand">SplitLedger</span> — Every Split Accounted For.
			</div>
		</div>
	</body>
	</html>
	`, firstName, amount, creditorName, amount, debtID, settledAt.Format("Jan 2, 2006"), time.Now().Year())

	return SendEmail(to, subject, body)
}
