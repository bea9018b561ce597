package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/fieldrate/internal/clock"
	"github.com/smallbiznis/fieldrate/internal/config"
	"github.com/smallbiznis/fieldrate/internal/migration"
	"github.com/smallbiznis/fieldrate/internal/observability"
	"github.com/smallbiznis/fieldrate/internal/organization"
	"github.com/smallbiznis/fieldrate/internal/pricetier"
	"github.com/smallbiznis/fieldrate/internal/providers/pdf"
	"github.com/smallbiznis/fieldrate/internal/ratecard"
	"github.com/smallbiznis/fieldrate/internal/rating"
	"github.com/smallbiznis/fieldrate/internal/scheduler"
	"github.com/smallbiznis/fieldrate/internal/seed"
	"github.com/smallbiznis/fieldrate/internal/snapshot"
	"github.com/smallbiznis/fieldrate/internal/telemetry"
	"github.com/smallbiznis/fieldrate/internal/workorder"
	"github.com/smallbiznis/fieldrate/pkg/db"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		config.Module,
		observability.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		clock.Module,

		// Domain services
		organization.Module,
		ratecard.Module,
		rating.Module,
		pricetier.Module,
		workorder.Module,
		snapshot.Module,

		// Background work and supporting providers
		pdf.Module,
		telemetry.Module,
		fx.Provide(provideUsageReporter),
		scheduler.Module,

		migration.Module,
		seed.Module,
	)
	app.Run()
}

func RegisterSnowflake() *snowflake.Node {
	node, err := snowflake.NewNode(1)
	if err != nil {
		panic(err)
	}
	return node
}

// provideUsageReporter adapts the telemetry reporter for the scheduler.
// A nil reporter (telemetry disabled) leaves the push job dormant.
func provideUsageReporter(r *telemetry.Reporter) scheduler.UsageReporter {
	if r == nil {
		return nil
	}
	return r
}
