// Package strategy implements the dispatcher's pure scheduling-strategy
// functions: given the flow's current observation counts, decide how long
// (in seconds) to wait before the next tick (spec.md §4.I).
package strategy

import "math/rand"

// Observation is the set of counts a scheduling strategy reads to decide
// the next retry delay. ActiveCount/FailedCount/StartedCount/FallbackCount
// mirror the four counters the original dispatcher state machine exposes;
// "progress" is StartedCount > 0 || FallbackCount > 0.
type Observation struct {
	ActiveCount   int
	FailedCount   int
	StartedCount  int
	FallbackCount int
}

func (o Observation) progressed() bool {
	return o.StartedCount > 0 || o.FallbackCount > 0
}

// Func is the common signature every scheduling strategy satisfies:
// previous is nil on the first tick of a flow's lifetime. The bool result
// is false iff ActiveCount is zero, telling the dispatcher to halt this
// flow instead of scheduling another tick.
type Func func(previous *int, obs Observation) (int, bool)

// LinearIncrease grows the retry delay by step on progress, clamped to
// maxRetry; a tick with no progress resets to startRetry.
func LinearIncrease(startRetry, maxRetry, step int) Func {
	return func(previous *int, obs Observation) (int, bool) {
		if obs.ActiveCount == 0 {
			return 0, false
		}
		if previous == nil || !obs.progressed() {
			return startRetry, true
		}
		retry := *previous + step
		if retry > maxRetry {
			return maxRetry, true
		}
		return retry, true
	}
}

// LinearAdapt grows by step on progress and shrinks by step otherwise,
// floored at startRetry.
func LinearAdapt(startRetry, maxRetry, step int) Func {
	return func(previous *int, obs Observation) (int, bool) {
		if obs.ActiveCount == 0 {
			return 0, false
		}
		if previous == nil {
			return startRetry, true
		}
		if obs.progressed() {
			retry := *previous + step
			if retry > maxRetry {
				return maxRetry, true
			}
			return retry, true
		}
		retry := *previous - step
		if retry < startRetry {
			return startRetry, true
		}
		return retry, true
	}
}

// BiexponentialIncrease doubles the retry delay on progress, clamped to
// maxRetry; a tick with no progress resets to startRetry.
func BiexponentialIncrease(startRetry, maxRetry int) Func {
	return func(previous *int, obs Observation) (int, bool) {
		if obs.ActiveCount == 0 {
			return 0, false
		}
		if previous == nil || !obs.progressed() {
			return startRetry, true
		}
		retry := *previous * 2
		if retry > maxRetry {
			return maxRetry, true
		}
		return retry, true
	}
}

// BiexponentialDecrease halves the retry delay every tick, clamped to
// stopRetry, regardless of progress.
func BiexponentialDecrease(startRetry, stopRetry int) Func {
	return func(previous *int, obs Observation) (int, bool) {
		if obs.ActiveCount == 0 {
			return 0, false
		}
		if previous == nil {
			return startRetry, true
		}
		retry := *previous / 2
		if retry < stopRetry {
			return stopRetry, true
		}
		return retry, true
	}
}

// BiexponentialAdapt doubles on progress (clamped to maxRetry) and halves
// otherwise (floored at startRetry).
func BiexponentialAdapt(startRetry, maxRetry int) Func {
	return func(previous *int, obs Observation) (int, bool) {
		if obs.ActiveCount == 0 {
			return 0, false
		}
		if previous == nil {
			return startRetry, true
		}
		if obs.progressed() {
			retry := *previous * 2
			if retry > maxRetry {
				return maxRetry, true
			}
			return retry, true
		}
		retry := *previous / 2
		if retry < startRetry {
			return startRetry, true
		}
		return retry, true
	}
}

// Random returns a uniformly distributed delay in [startRetry, maxRetry],
// ignoring progress entirely.
func Random(startRetry, maxRetry int) Func {
	return func(previous *int, obs Observation) (int, bool) {
		if obs.ActiveCount == 0 {
			return 0, false
		}
		if maxRetry <= startRetry {
			return startRetry, true
		}
		return startRetry + rand.Intn(maxRetry-startRetry+1), true
	}
}

// Constant always returns the same delay, regardless of progress.
func Constant(delay int) Func {
	return func(previous *int, obs Observation) (int, bool) {
		if obs.ActiveCount == 0 {
			return 0, false
		}
		return delay, true
	}
}

// Build resolves a strategy by name plus its static args dict (as decoded
// from YAML) into a bound Func, mirroring the binding spec.md §3 Flow
// describes as `strategy` (a name plus configuration).
func Build(name string, args map[string]interface{}) (Func, error) {
	intArg := func(key string, def int) int {
		if v, ok := args[key]; ok {
			switch n := v.(type) {
			case int:
				return n
			case float64:
				return int(n)
			}
		}
		return def
	}

	switch name {
	case "linear_increase":
		return LinearIncrease(intArg("start_retry", 2), intArg("max_retry", 120), intArg("step", 2)), nil
	case "linear_adapt":
		return LinearAdapt(intArg("start_retry", 2), intArg("max_retry", 120), intArg("step", 2)), nil
	case "biexponential_increase":
		return BiexponentialIncrease(intArg("start_retry", 2), intArg("max_retry", 120)), nil
	case "biexponential_decrease":
		return BiexponentialDecrease(intArg("start_retry", 120), intArg("stop_retry", 2)), nil
	case "biexponential_adapt":
		return BiexponentialAdapt(intArg("start_retry", 2), intArg("max_retry", 120)), nil
	case "random":
		return Random(intArg("start_retry", 2), intArg("max_retry", 120)), nil
	case "constant":
		return Constant(intArg("delay", 2)), nil
	default:
		return nil, &UnknownStrategyError{Name: name}
	}
}

// UnknownStrategyError signals a strategy name with no registered
// implementation.
type UnknownStrategyError struct {
	Name string
}

func (e *UnknownStrategyError) Error() string {
	return "unknown scheduling strategy: " + e.Name
}
