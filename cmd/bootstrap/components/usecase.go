package components

import (
	"parking-reservation/internal/domain/booking"
	"parking-reservation/internal/domain/pricing"
	"parking-reservation/internal/pkg/clock"
	"parking-reservation/internal/pkg/config"
	"parking-reservation/internal/usecase/commands"
	"parking-reservation/internal/usecase/queries"
	"parking-reservation/internal/usecase/shared"

	"go.uber.org/fx"
)

var UseCaseModule = fx.Module("usecase",
	usecaseBaseOption,
	usecaseQueriesModule,
	usecaseCommandsModule,
)

var usecaseBaseOption = fx.Provide(
	fx.Annotate(
		pricing.NewFlatRateCalculator,
		fx.As(new(pricing.Calculator)),
	),
	func(clock clock.Clock, calc pricing.Calculator) *booking.Services {
		return &booking.Services{
			Clock:   clock,
			Pricing: calc,
		}
	},
	NewWorkflowPolicy,
)

var usecaseCommandsModule = fx.Module("usecase/commands",
	fx.Provide(
		commands.NewBookingUseCase,
	),
)

var usecaseQueriesModule = fx.Module("usecase/queries",
	fx.Provide(
		func(registry shared.InventoryRegistry, cfg config.Config) queries.FacilityQueries {
			return queries.NewFacilityQueries(registry, cfg.Workflow.Currency)
		},
		func(ledger shared.LedgerReader, cfg config.Config) queries.ConfirmationQueries {
			return queries.NewConfirmationQueries(ledger, cfg.Workflow.Currency)
		},
	),
)

func NewWorkflowPolicy(cfg config.Config) commands.WorkflowPolicy {
	return commands.WorkflowPolicy{
		HoldTTL:            cfg.Workflow.HoldTTL,
		PaymentTimeout:     cfg.Workflow.PaymentTimeout,
		MaxPaymentAttempts: cfg.Workflow.MaxPaymentAttempts,
		Currency:           cfg.Workflow.Currency,
		SessionRetention:   cfg.Workflow.SessionRetention,
	}
}
