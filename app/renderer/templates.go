package renderer

const (
	TemplateWelcome         = "welcome"
	TemplatePendingReminder = "pending-order-reminder"
	TemplateDeliveredNotice = "delivered-order-notice"
	TemplatePromotion       = "monthly-promotion"
)

// Defaults returns the built-in storefront templates.
func Defaults() map[string]Template {
	return map[string]Template{
		TemplateWelcome: {
			Subject: "Welcome to {{ store_name }}, {{ name }}!",
			HTML: `<p>Hi {{ name }},</p>
<p>Thanks for creating an account with {{ store_name }}. Your next favourite thing is waiting at <a href="{{ store_url }}">{{ store_url }}</a>.</p>`,
		},
		TemplatePendingReminder: {
			Subject: "Your order #{{ order_id }} is waiting for confirmation",
			HTML: `<p>Hi {{ name }},</p>
<p>Your order <strong>#{{ order_id }}</strong> ({{ total }}) has not been confirmed yet.</p>
<p><a href="{{ order_url }}">Review your order</a></p>`,
		},
		TemplateDeliveredNotice: {
			Subject: "Order #{{ order_id }} has been delivered",
			HTML: `<p>Hi {{ name }},</p>
<p>Good news: order <strong>#{{ order_id }}</strong> was delivered. We hope you enjoy it!</p>
<p><a href="{{ order_url }}">Leave a review</a></p>`,
		},
		TemplatePromotion: {
			Subject: "This month's picks from {{ store_name }}",
			HTML: `<p>Hi {{ name }},</p>
<p>Here is what we picked for you this month:</p>
<ul>
{% for product in products %}<li><a href="{{ product.url }}">{{ product.name }}</a> &mdash; {{ product.price }}</li>
{% endfor %}</ul>`,
		},
	}
}
