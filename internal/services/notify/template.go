package notify

import (
	"html/template"

	"taniconnect_back_end/internal/models"
)

type lineView struct {
	Name     string
	Quantity int64
	Price    string
	Total    string
}

type view struct {
	OrderID  string
	Name     string
	Paid     bool
	Lines    []lineView
	Subtotal string
	Shipping string
	AppFee   string
	Total    string
	OrderURL string
}

func newView(order models.Order, frontendURL string) view {
	lines := make([]lineView, 0, len(order.Items))
	for _, it := range order.Items {
		lines = append(lines, lineView{
			Name:     it.Name,
			Quantity: it.Quantity,
			Price:    Rupiah(it.Price),
			Total:    Rupiah(it.LineTotal()),
		})
	}
	return view{
		OrderID:  order.ID,
		Name:     order.Customer.Name,
		Paid:     order.Status == models.StatusPaid,
		Lines:    lines,
		Subtotal: Rupiah(order.Amount.Subtotal),
		Shipping: Rupiah(order.Amount.Shipping),
		AppFee:   Rupiah(order.Amount.AppFee),
		Total:    Rupiah(order.Amount.Total),
		OrderURL: frontendURL + "/orders/" + order.ID,
	}
}

var statusTemplate = template.Must(template.New("status").Parse(`<!DOCTYPE html>
<html lang="id">
<head><meta charset="UTF-8"><title>Pesanan {{.OrderID}}</title></head>
<body style="font-family: Arial, sans-serif; background-color: #f9f9f9; padding: 20px;">
	<div style="max-width: 600px; margin: auto; background-color: white; padding: 20px; border-radius: 10px;">
		<p>Halo {{.Name}},</p>
		{{if .Paid}}
		<h2 style="color: #2e7d32;">Pembayaran pesanan {{.OrderID}} telah diterima</h2>
		<p>Petani akan segera memproses pesanan Anda.</p>
		{{else}}
		<h2 style="color: #c62828;">Pembayaran pesanan {{.OrderID}} gagal</h2>
		<p>Pembayaran dibatalkan atau kedaluwarsa. Silakan buat pesanan baru.</p>
		{{end}}
		<table style="width: 100%; border-collapse: collapse; margin: 20px 0;">
			<thead>
				<tr style="background-color: #f0f0f0;">
					<th style="padding: 8px; text-align: left;">Produk</th>
					<th style="padding: 8px; text-align: left;">Jumlah</th>
					<th style="padding: 8px; text-align: left;">Harga</th>
					<th style="padding: 8px; text-align: left;">Total</th>
				</tr>
			</thead>
			<tbody>
				{{range .Lines}}
				<tr><td>{{.Name}}</td><td>{{.Quantity}}</td><td>{{.Price}}</td><td>{{.Total}}</td></tr>
				{{end}}
			</tbody>
			<tfoot>
				<tr><td colspan="3" style="text-align: right;">Subtotal</td><td>{{.Subtotal}}</td></tr>
				<tr><td colspan="3" style="text-align: right;">Biaya Pengiriman</td><td>{{.Shipping}}</td></tr>
				<tr><td colspan="3" style="text-align: right;">Biaya Aplikasi</td><td>{{.AppFee}}</td></tr>
				<tr><td colspan="3" style="text-align: right; font-weight: bold;">Total</td><td style="font-weight: bold;">{{.Total}}</td></tr>
			</tfoot>
		</table>
		<p><a href="{{.OrderURL}}">Lihat pesanan</a></p>
		<p style="margin-top: 30px; color: #555;">Salam,<br><strong>Tim TaniConnect</strong></p>
	</div>
</body>
</html>`))
