package utils

import (
	"fmt"
	"time"
)

func SendDebtOverdueEmail(to, firstName string, amount string, creditorName string, description string, dueDate time.Time) error {
	subject := fmt.Sprintf("💰 Overdue: ₹%s Still Owed for '%s'", amount, description)

	body := fmt.Sprintf(`
	<!DOCTYPE html>
	<html lang="en">
	<head>
	<meta charset="UTF-8">
	<meta name="viewport" content="width=device-width, initial-scale=1.0">
	<title>Overdue Debt Reminder</title>
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
			border-top: 5px solid #d9534f;
		}
		.header {
			background-color: #d9534f;
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
			background: #fff6f6;
			border: 1px solid #f1c1c1;
			border-radius: 8px;
			padding: 12px 14px;
			margin: 16px 0;
			text-align: center;
		}
		.amount-box h3 {
			margin: 0;
			color: #d9534f;
			font-size: 16px;
			font-weight: 700;
		}
		.amount-box p {
			margin: 6px 0 0;
			font-size: 13px;
			color: #555;
		}
		.footer {
			background: #f6f6f6;
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
				<h1>Overdue Payment 💬</h1>
			</div>
			<div class="content">
				<p class="message">
					Hi %s,<br><br>
					Your debt of ₹<b>%s</b> to <b>%s</b> for <b>'%s'</b> is past its due date.
				</p>

				<div class="amount-box">
					<h3>₹%s Outstanding</h3>
					<p>Owed to: %s</p>
					<p>Due Since: %s</p>
				</div>

				<p class="message">
					Please log in to <b>SplitLedger</b> to record a payment and keep your balances square.
				</p>
			</div>
			<div class="footer">
				&copy; %d <span class="brand">SplitLedger</span> — Every Split Accounted For.
			</div>
		</div>
	</body>
	</html>
	`, firstName, amount, creditorName, description, amount, creditorName, dueDate.Format("Jan 2, 2006"), time.Now().Year())

	return SendEmail(to, subject, body)
}
