package geo

import (
	"context"
	"log/slog"

	"aibetix/internal/platform/metrics"
)

// Reasons attached to disallowed check results.
const (
	ReasonUnknownLocation  = "Unable to determine location from IP"
	ReasonRestrictedRegion = "Region is restricted for betting and investment products"
	ReasonGPSMismatch      = "GPS location does not match IP location"
)

// Evaluator runs the geographic eligibility check: resolve the IP, test the
// region policy, then cross-check any GPS fix the client supplied.
type Evaluator struct {
	resolver Resolver
	logger   *slog.Logger
	metrics  *metrics.Metrics
}

func NewEvaluator(resolver Resolver, logger *slog.Logger, m *metrics.Metrics) *Evaluator {
	return &Evaluator{resolver: resolver, logger: logger, metrics: m}
}

// Check evaluates whether traffic from ip, optionally carrying a device GPS
// fix, may reach restricted products. It never returns an error: an
// unresolvable IP yields a disallowed result with region "Unknown".
func (e *Evaluator) Check(ctx context.Context, ip string, gps *Coordinates) CheckResult {
	result := e.check(ctx, ip, gps)
	if e.metrics != nil {
		verdict := "allowed"
		if !result.IsAllowed {
			verdict = "denied"
		}
		e.metrics.GeoChecks.WithLabelValues(verdict).Inc()
	}
	return result
}

func (e *Evaluator) check(ctx context.Context, ip string, gps *Coordinates) CheckResult {
	location, _ := e.resolver.Resolve(ctx, ip)
	if location == nil {
		return CheckResult{
			IsAllowed:            false,
			Region:               "Unknown",
			Reason:               ReasonUnknownLocation,
			RequiresVerification: true,
			Location:             Location{Country: "Unknown"},
		}
	}

	region := RegionCode(location.CountryCode, location.Region)

	if IsRegionRestricted(location.CountryCode, subregion(location)) {
		e.logger.Info("restricted region denied", "ip", ip, "region", region)
		return CheckResult{
			IsAllowed:            false,
			Region:               region,
			Reason:               ReasonRestrictedRegion,
			RequiresVerification: true,
			Location:             *location,
		}
	}

	if gps != nil && !Consistent(*location, *gps) {
		if e.metrics != nil {
			e.metrics.GPSMismatches.Inc()
		}
		e.logger.Info("gps mismatch denied", "ip", ip, "region", region)
		return CheckResult{
			IsAllowed:            false,
			Region:               region,
			Reason:               ReasonGPSMismatch,
			RequiresVerification: true,
			Location:             *location,
		}
	}

	return CheckResult{
		IsAllowed: true,
		Region:    region,
		Location:  *location,
	}
}

func subregion(loc *Location) string {
	if loc.CountryCode != "IN" {
		return ""
	}
	if code, ok := indianStateCodes[loc.Region]; ok {
		return code
	}
	return ""
}
