package utils

import (
	"fmt"
	"time"
)

func SendPaymentReceivedEmail(to, payerName string, amount string, groupName string, debtID int, date time.Time) error {
	subject := fmt.Sprintf("💸 Payment Received — ₹%s Towards Debt #%d", amount, debtID)

	body := fmt.Sprintf(`
	<!DOCTYPE html>
	<html lang="en">
	<head>
	<meta charset="UTF-8">
	<meta name="viewport" content="width=device-width, initial-scale=1.0">
	<title>Payment Received</title>
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
			border-top: 5px solid #1d4e89;
		}
		.header {
			background-color: #1d4e89;
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
			background: #f2f7fd;
			border: 1px solid #bfd4e7;
			border-radius: 8px;
			padding: 12px 14px;
			margin: 16px 0;
			text-align: center;
		}
		.amount-box h3 {
			margin: 0;
			color: #1d4e89;
			font-size: 16px;
			font-weight: 700;
		}
		.amount-box p {
			margin: 6px 0 0;
			font-size: 13px;
			color: #555;
		}
		.footer {
			background: #f0f3f6;
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
				<h1>Payment Received 🎉</h1>
			</div>
			<div class="content">
				<p class="message">
					Hi there,<br><br>
					<b>%s</b> just recorded a payment of ₹<b>%s</b> towards what they owe you in the group <b>%s</b>.
				</p>

				<div class="amount-box">
					<h3>₹%s Received</h3>
					<p>Debt ID: #%d</p>
					<p>Date: %s</p>
				</div>

				<p class="message">
					The full payment history for this debt is available in <b>SplitLedger</b>.
				</p>
			</div>
			<div class="footer">
				&copy; %d <span class="brand">SplitLedger</span> — Every Split Accounted For.
			</div>
		</div>
	</body>
	</html>
	`, payerName, amount, groupName, amount, debtID, date.Format("3:04 PM, Jan 2 2006"), time.Now().Year())

	return SendEmail(to, subject, body)
}
