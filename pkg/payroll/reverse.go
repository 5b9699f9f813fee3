package payroll

import (
	"strings"

	"github.com/shopspring/decimal"
)

// ReverseMethod selects how gross is recovered from a target net
type ReverseMethod string

const (
	ReverseDamped    ReverseMethod = "damped"
	ReverseBisection ReverseMethod = "bisection"
)

const (
	maxDampedIterations = 50
	maxDoublings        = 64
	maxBisections       = 200
)

var (
	netTolerance    = decimal.RequireFromString("0.01")
	grossResolution = decimal.RequireFromString("0.001")
	seedRatio       = decimal.RequireFromString("0.87")
	damping         = decimal.RequireFromString("-0.5")
	two             = decimal.NewFromInt(2)
)

// ParseReverseMethod maps a config value to a method, defaulting to damped
func ParseReverseMethod(s string) ReverseMethod {
	if ReverseMethod(strings.ToLower(strings.TrimSpace(s))) == ReverseBisection {
		return ReverseBisection
	}
	return ReverseDamped
}

// GrossFromNet dispatches to the selected reverse computation
func GrossFromNet(method ReverseMethod, targetNet decimal.Decimal, isHeadOfHousehold bool, children int, cfg Config) SalaryComponents {
	if method == ReverseBisection {
		return ComputeGrossFromNetBisect(targetNet, isHeadOfHousehold, children, cfg)
	}
	return ComputeGrossFromNet(targetNet, isHeadOfHousehold, children, cfg)
}

// ComputeGrossFromNet finds the gross whose net is within 0.01 of targetNet using a damped
// proportional correction. When 50 iterations are not enough the last result is returned
// with Converged set to false.
func ComputeGrossFromNet(targetNet decimal.Decimal, isHeadOfHousehold bool, children int, cfg Config) SalaryComponents {
	if !targetNet.IsPositive() {
		return ComputeNet(decimal.Zero, isHeadOfHousehold, children, cfg)
	}

	estimate := targetNet.Div(seedRatio)
	var result SalaryComponents
	for i := 1; i <= maxDampedIterations; i++ {
		result = ComputeNet(estimate, isHeadOfHousehold, children, cfg)
		result.Iterations = i
		delta := result.Net.Sub(targetNet)
		if delta.Abs().LessThan(netTolerance) {
			result.Converged = true
			return result
		}
		// Mul is exact, so the estimate is held at division precision to stop its digits growing
		// with every step.
		estimate = estimate.Mul(decimal.NewFromInt(1).Add(delta.Div(targetNet).Mul(damping))).
			Round(int32(decimal.DivisionPrecision))
	}
	result.Converged = false
	return result
}

// ComputeGrossFromNetBisect finds the smallest gross (to 0.001) whose net reaches targetNet.
// Net never exceeds gross, so targetNet is a lower bound; the upper bound is doubled until it
// covers the target.
func ComputeGrossFromNetBisect(targetNet decimal.Decimal, isHeadOfHousehold bool, children int, cfg Config) SalaryComponents {
	if !targetNet.IsPositive() {
		return ComputeNet(decimal.Zero, isHeadOfHousehold, children, cfg)
	}

	net := func(g decimal.Decimal) decimal.Decimal {
		return ComputeNet(g, isHeadOfHousehold, children, cfg).Net
	}

	lo := targetNet
	hi := targetNet.Mul(two)
	iterations := 0
	for net(hi).LessThan(targetNet) {
		iterations++
		if iterations > maxDoublings {
			result := ComputeNet(round3(hi), isHeadOfHousehold, children, cfg)
			result.Iterations = iterations
			result.Converged = false
			return result
		}
		lo = hi
		hi = hi.Mul(two)
	}

	for hi.Sub(lo).GreaterThanOrEqual(grossResolution) && iterations < maxDoublings+maxBisections {
		iterations++
		mid := lo.Add(hi).Div(two)
		if net(mid).LessThan(targetNet) {
			lo = mid
		} else {
			hi = mid
		}
	}

	gross := hi.RoundCeil(3)
	result := ComputeNet(gross, isHeadOfHousehold, children, cfg)
	result.Iterations = iterations
	result.Converged = result.Net.Sub(targetNet).Abs().LessThan(netTolerance)
	return result
}
