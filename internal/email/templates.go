package email

import (
	"fmt"
	"html"
	"strings"

	"github.com/shopspring/decimal"
)

// OrderItem represents an item in an order for email purposes
type OrderItem struct {
	ProductID string
	Name      string
	Quantity  int
	UnitPrice decimal.Decimal
}

func buildItemRows(items []OrderItem) string {
	var rows strings.Builder
	for _, item := range items {
		name := item.Name
		if name == "" {
			name = item.ProductID
		}
		rows.WriteString(fmt.Sprintf(
			`<tr>
				<td style="padding: 12px; border-bottom: 1px solid #eee;">%s</td>
				<td style="padding: 12px; border-bottom: 1px solid #eee; text-align: center;">%d</td>
				<td style="padding: 12px; border-bottom: 1px solid #eee; text-align: right;">¥%s</td>
			</tr>`,
			html.EscapeString(name),
			item.Quantity,
			formatAmount(item.UnitPrice.Mul(decimal.NewFromInt(int64(item.Quantity)))),
		))
	}
	return rows.String()
}

func layout(title, color, content string) string {
	return fmt.Sprintf(`<!DOCTYPE html>
<html>
<head>
	<meta charset="UTF-8">
	<meta name="viewport" content="width=device-width, initial-scale=1.0">
</head>
<body style="font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif; line-height: 1.6; color: #333; max-width: 600px; margin: 0 auto; padding: 20px;">
	<div style="background: %s; padding: 30px; border-radius: 10px 10px 0 0;">
		<h1 style="color: white; margin: 0; font-size: 24px;">%s</h1>
	</div>

	<div style="background: #fff; padding: 30px; border: 1px solid #eee; border-top: none; border-radius: 0 0 10px 10px;">
		%s

		<hr style="border: none; border-top: 1px solid #eee; margin: 30px 0;">

		<p style="font-size: 12px; color: #999; margin-bottom: 0;">
			このメールは自動送信されています。ご不明な点がございましたら、サポートまでお問い合わせください。
		</p>
	</div>
</body>
</html>`, color, title, content)
}

func itemsTable(items []OrderItem) string {
	return fmt.Sprintf(`<table style="width: 100%%; border-collapse: collapse; margin: 20px 0;">
			<thead>
				<tr style="background: #f8f9fa;">
					<th style="padding: 12px; text-align: left; font-weight: 600;">商品名</th>
					<th style="padding: 12px; text-align: center; font-weight: 600;">数量</th>
					<th style="padding: 12px; text-align: right; font-weight: 600;">小計</th>
				</tr>
			</thead>
			<tbody>
				%s
			</tbody>
		</table>`, buildItemRows(items))
}

func infoBox(label, value string) string {
	return fmt.Sprintf(`<div style="background: #f8f9fa; padding: 15px; border-radius: 5px; margin: 20px 0;">
			<p style="margin: 0; font-size: 14px; color: #666;">%s</p>
			<p style="margin: 5px 0 0 0; font-size: 18px; font-weight: bold; font-family: monospace;">%s</p>
		</div>`, label, html.EscapeString(value))
}

// BuildShipmentBody builds the HTML body for the shipment notice
func BuildShipmentBody(customerName, orderNumber, trackingNumber string, items []OrderItem) string {
	var content strings.Builder
	content.WriteString(fmt.Sprintf(`<p style="margin-top: 0;">%s 様</p>
		<p>ご注文の商品を発送いたしました。お届けまで今しばらくお待ちください。</p>`, html.EscapeString(customerName)))
	content.WriteString(infoBox("注文番号", orderNumber))
	content.WriteString(infoBox("配送伝票番号", trackingNumber))
	content.WriteString(`<h2 style="font-size: 18px; border-bottom: 2px solid #2e7d32; padding-bottom: 10px;">発送内容</h2>`)
	content.WriteString(itemsTable(items))
	return layout("商品を発送しました", "#2e7d32", content.String())
}

// BuildCancellationBody builds the HTML body for the cancellation notice.
// refund adds the refund paragraph for orders that had already been paid.
func BuildCancellationBody(customerName, orderNumber, reason string, total decimal.Decimal, refund bool, items []OrderItem) string {
	var content strings.Builder
	content.WriteString(fmt.Sprintf(`<p style="margin-top: 0;">%s 様</p>
		<p>ご注文がキャンセルされましたのでお知らせいたします。</p>`, html.EscapeString(customerName)))
	content.WriteString(infoBox("注文番号", orderNumber))
	if reason != "" {
		content.WriteString(infoBox("キャンセル理由", reason))
	}
	content.WriteString(`<h2 style="font-size: 18px; border-bottom: 2px solid #c62828; padding-bottom: 10px;">キャンセル内容</h2>`)
	content.WriteString(itemsTable(items))
	content.WriteString(fmt.Sprintf(`<div style="text-align: right; padding: 20px; background: #f8f9fa; border-radius: 5px;">
			<span style="font-size: 14px; color: #666;">合計金額</span>
			<span style="font-size: 24px; font-weight: bold; color: #c62828; margin-left: 10px;">¥%s</span>
		</div>`, formatAmount(total)))
	if refund {
		content.WriteString(`<p>お支払い済みの代金は、ご利用の決済方法にて返金いたします。</p>`)
	}
	return layout("ご注文がキャンセルされました", "#c62828", content.String())
}

// formatAmount formats an amount rounded to whole yen with comma separators
func formatAmount(d decimal.Decimal) string {
	str := d.Round(0).StringFixed(0)
	sign := ""
	if strings.HasPrefix(str, "-") {
		sign, str = "-", str[1:]
	}
	if len(str) <= 3 {
		return sign + str
	}

	var result strings.Builder
	result.WriteString(sign)
	remainder := len(str) % 3
	if remainder > 0 {
		result.WriteString(str[:remainder])
		result.WriteString(",")
	}

	for i := remainder; i < len(str); i += 3 {
		result.WriteString(str[i : i+3])
		if i+3 < len(str) {
			result.WriteString(",")
		}
	}

	return result.String()
}
