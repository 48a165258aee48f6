package components

import (
	"parking-reservation/internal/handler"
	"parking-reservation/internal/handler/api"

	"go.uber.org/fx"
)

var HandlerModule = fx.Module("handler",
	fx.Provide(
		api.NewBookingHandler,
		api.NewFacilityHandler,
		api.NewPaymentCallbackHandler,
		func(b *api.BookingHandler, f *api.FacilityHandler, p *api.PaymentCallbackHandler) handler.Handlers {
			return handler.Handlers{Booking: b, Facility: f, Payment: p}
		},
	),
	fx.Invoke(handler.NewRouter),
)
