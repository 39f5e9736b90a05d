package systems

import (
	"fmt"

	"github.com/mlange-42/ark/ecs"
)

// StatusSystemName is the registry name for the status effect system.
const StatusSystemName = "status"

// EffectType identifies a status effect.
type EffectType uint8

const (
	EffectSlow EffectType = iota
	EffectHaste
	EffectBurn
	EffectStun
)

// String returns the effect type name.
func (t EffectType) String() string {
	switch t {
	case EffectSlow:
		return "slow"
	case EffectHaste:
		return "haste"
	case EffectBurn:
		return "burn"
	case EffectStun:
		return "stun"
	}
	return "unknown"
}

// Category groups effects by gameplay role.
type Category uint8

const (
	CategoryBuff Category = iota
	CategoryDebuff
	CategoryDOT
	CategoryCC
)

// String returns the category name.
func (c Category) String() string {
	switch c {
	case CategoryBuff:
		return "buff"
	case CategoryDebuff:
		return "debuff"
	case CategoryDOT:
		return "dot"
	case CategoryCC:
		return "cc"
	}
	return "unknown"
}

// StackMode controls what happens when an effect type is applied to an
// entity that already carries it.
type StackMode uint8

const (
	// StackIgnore discards the new application and keeps the old effect.
	StackIgnore StackMode = iota
	// StackReplace discards the old effect entirely.
	StackReplace
	// StackAdd sums magnitudes; the longer remaining duration wins.
	StackAdd
	// StackMultiply multiplies magnitudes; the longer remaining duration wins.
	StackMultiply
)

// String returns the stacking mode name.
func (m StackMode) String() string {
	switch m {
	case StackIgnore:
		return "ignore"
	case StackReplace:
		return "replace"
	case StackAdd:
		return "additive"
	case StackMultiply:
		return "multiplicative"
	}
	return "unknown"
}

// Effect describes one status effect application. Magnitude is a speed
// multiplier for slow and haste, damage per pulse for burn, and unused
// for stun. TickInterval only matters for damage-over-time effects.
type Effect struct {
	Type         EffectType
	Category     Category
	Stacking     StackMode
	Magnitude    float32
	Duration     float32
	TickInterval float32
}

// Canonical effect constructors.

// Slow builds a multiplicative movement debuff. Magnitude below 1 slows.
func Slow(magnitude, duration float32) Effect {
	return Effect{Type: EffectSlow, Category: CategoryDebuff, Stacking: StackMultiply, Magnitude: magnitude, Duration: duration}
}

// Haste builds a multiplicative movement buff. Magnitude above 1 hastens.
func Haste(magnitude, duration float32) Effect {
	return Effect{Type: EffectHaste, Category: CategoryBuff, Stacking: StackMultiply, Magnitude: magnitude, Duration: duration}
}

// Burn builds a damage-over-time effect dealing magnitude damage every
// interval seconds. Stacked burns add their pulse damage together.
func Burn(magnitude, duration, interval float32) Effect {
	return Effect{Type: EffectBurn, Category: CategoryDOT, Stacking: StackAdd, Magnitude: magnitude, Duration: duration, TickInterval: interval}
}

// Stun builds a crowd-control effect that zeroes movement. A fresh stun
// replaces a running one.
func Stun(duration float32) Effect {
	return Effect{Type: EffectStun, Category: CategoryCC, Stacking: StackReplace, Magnitude: 1, Duration: duration}
}

// ActiveEffect is one running effect instance on an entity.
type ActiveEffect struct {
	Effect
	Remaining  float32
	SincePulse float32
}

// StatusSystem tracks temporary effects on entities in a side table keyed
// by entity id. Effects never touch entity components directly: movement
// reads SpeedFactor, damage pulses go through registered sinks, and all
// effects on an entity vanish with it.
type StatusSystem struct {
	em      *EntityManager
	effects map[ecs.Entity][]ActiveEffect

	keys []ecs.Entity // reusable sorted iteration buffer

	damageSinks []func(target ecs.Entity, amount float32, source EffectType)

	totalApplied uint64
	totalExpired uint64
	totalPulses  uint64
}

// NewStatusSystem creates a status system over the manager's pools.
func NewStatusSystem(em *EntityManager) *StatusSystem {
	return &StatusSystem{
		em:      em,
		effects: make(map[ecs.Entity][]ActiveEffect),
	}
}

// Name returns the registry name.
func (s *StatusSystem) Name() string { return StatusSystemName }

// Init prepares the system.
func (s *StatusSystem) Init() error { return nil }

// OnDamage registers a sink invoked for every damage-over-time pulse.
func (s *StatusSystem) OnDamage(fn func(target ecs.Entity, amount float32, source EffectType)) {
	s.damageSinks = append(s.damageSinks, fn)
}

// Apply attaches an effect to a live entity. When the entity already
// carries an effect of the same type the effect's stacking mode decides:
// ignore keeps the old one, replace installs the new one, additive sums
// magnitudes and multiplicative multiplies them, both keeping the longer
// remaining duration. An ignored application is not an error.
func (s *StatusSystem) Apply(e ecs.Entity, effect Effect) error {
	if !s.em.Live(e) {
		return fmt.Errorf("applying %s to dead entity: %w", effect.Type, ErrInvalidArgument)
	}
	if effect.Duration <= 0 {
		return fmt.Errorf("applying %s with duration %f: %w", effect.Type, effect.Duration, ErrInvalidArgument)
	}

	list := s.effects[e]
	for i := range list {
		if list[i].Type != effect.Type {
			continue
		}
		switch effect.Stacking {
		case StackIgnore:
			return nil
		case StackReplace:
			list[i] = ActiveEffect{Effect: effect, Remaining: effect.Duration}
		case StackAdd:
			list[i].Magnitude += effect.Magnitude
			if effect.Duration > list[i].Remaining {
				list[i].Remaining = effect.Duration
			}
		case StackMultiply:
			list[i].Magnitude *= effect.Magnitude
			if effect.Duration > list[i].Remaining {
				list[i].Remaining = effect.Duration
			}
		}
		s.totalApplied++
		return nil
	}

	s.effects[e] = append(list, ActiveEffect{Effect: effect, Remaining: effect.Duration})
	s.totalApplied++
	return nil
}

// Tick decays effect durations, fires damage-over-time pulses, and drops
// expired effects. Entities are processed in ascending id order.
func (s *StatusSystem) Tick(dt float32) {
	if len(s.effects) == 0 {
		return
	}

	s.keys = s.keys[:0]
	for e := range s.effects {
		s.keys = append(s.keys, e)
	}
	sortByID(s.keys)

	for _, e := range s.keys {
		if !s.em.Alive(e) {
			s.totalExpired += uint64(len(s.effects[e]))
			delete(s.effects, e)
			continue
		}

		list := s.effects[e]
		n := 0
		for i := range list {
			eff := &list[i]
			eff.Remaining -= dt

			if eff.Category == CategoryDOT && eff.TickInterval > 0 {
				eff.SincePulse += dt
				for eff.SincePulse >= eff.TickInterval {
					eff.SincePulse -= eff.TickInterval
					s.pulse(e, eff.Type, eff.Magnitude)
				}
			}

			if eff.Remaining > 0 {
				list[n] = list[i]
				n++
			} else {
				s.totalExpired++
			}
		}
		if n == 0 {
			delete(s.effects, e)
		} else {
			s.effects[e] = list[:n]
		}
	}
}

// pulse delivers one damage-over-time hit through the registered sinks.
func (s *StatusSystem) pulse(target ecs.Entity, source EffectType, amount float32) {
	s.totalPulses++
	for _, sink := range s.damageSinks {
		sink(target, amount, source)
	}
}

// Shutdown drops all tracked effects.
func (s *StatusSystem) Shutdown() {
	s.effects = make(map[ecs.Entity][]ActiveEffect)
}

// SpeedFactor returns the combined movement multiplier for an entity.
// Slows and hastes multiply together; an active stun forces zero.
func (s *StatusSystem) SpeedFactor(e ecs.Entity) float32 {
	factor := float32(1)
	for _, eff := range s.effects[e] {
		switch eff.Type {
		case EffectSlow, EffectHaste:
			factor *= eff.Magnitude
		case EffectStun:
			return 0
		}
	}
	return factor
}

// Stunned reports whether the entity carries an active crowd-control effect.
func (s *StatusSystem) Stunned(e ecs.Entity) bool {
	for _, eff := range s.effects[e] {
		if eff.Category == CategoryCC {
			return true
		}
	}
	return false
}

// Has reports whether the entity carries an effect of the given type.
func (s *StatusSystem) Has(e ecs.Entity, t EffectType) bool {
	for _, eff := range s.effects[e] {
		if eff.Type == t {
			return true
		}
	}
	return false
}

// ActiveOn returns a copy of the entity's running effects.
func (s *StatusSystem) ActiveOn(e ecs.Entity) []ActiveEffect {
	list := s.effects[e]
	if len(list) == 0 {
		return nil
	}
	out := make([]ActiveEffect, len(list))
	copy(out, list)
	return out
}

// Restore reinstalls previously captured effects on an entity, replacing
// whatever it currently carries. Used when loading a saved run.
func (s *StatusSystem) Restore(e ecs.Entity, list []ActiveEffect) error {
	if !s.em.Live(e) {
		return fmt.Errorf("restoring effects to dead entity: %w", ErrInvalidArgument)
	}
	if len(list) == 0 {
		delete(s.effects, e)
		return nil
	}
	cp := make([]ActiveEffect, len(list))
	copy(cp, list)
	s.effects[e] = cp
	return nil
}

// RemoveAll drops every effect on an entity. Wired to the entity
// manager's release hook so effects die with their carrier.
func (s *StatusSystem) RemoveAll(e ecs.Entity) {
	if list, ok := s.effects[e]; ok {
		s.totalExpired += uint64(len(list))
		delete(s.effects, e)
	}
}

// Status reports effect counts and lifetime totals.
func (s *StatusSystem) Status() Status {
	st := NewStatus(StatusSystemName)
	active := 0
	for _, list := range s.effects {
		active += len(list)
	}
	st.Counts["entities_affected"] = len(s.effects)
	st.Counts["active_effects"] = active
	st.Counts["applied_total"] = int(s.totalApplied)
	st.Counts["expired_total"] = int(s.totalExpired)
	st.Counts["pulses_total"] = int(s.totalPulses)
	return st
}
