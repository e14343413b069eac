// Package fsm вычисляет переходы состояний сущностей по декларативным таблицам.
package fsm

import (
	"fmt"
	"slices"

	"github.com/fsdevblog/groph-backoffice/internal/domain"
)

// Transition описывает одно правило: из любого состояния From по событию Event в состояние To.
type Transition[S ~string, E ~string] struct {
	From  []S
	Event E
	To    S
}

// Machine таблица переходов (состояние, событие) -> состояние. Неизвестная пара всегда запрещена.
// После создания таблица не изменяется, поэтому Machine безопасно разделять между горутинами.
type Machine[S ~string, E ~string] struct {
	entity string
	table  map[S]map[E]S
	states map[S]struct{}
}

// New строит машину состояний. Паникует, если одна и та же пара (состояние, событие) ведет в разные состояния.
func New[S ~string, E ~string](entity string, states []S, transitions ...Transition[S, E]) *Machine[S, E] {
	m := &Machine[S, E]{
		entity: entity,
		table:  make(map[S]map[E]S),
		states: make(map[S]struct{}, len(states)),
	}
	for _, s := range states {
		m.states[s] = struct{}{}
	}

	for _, t := range transitions {
		m.states[t.To] = struct{}{}
		for _, from := range t.From {
			m.states[from] = struct{}{}
			events, ok := m.table[from]
			if !ok {
				events = make(map[E]S)
				m.table[from] = events
			}
			if existing, dup := events[t.Event]; dup && existing != t.To {
				panic(fmt.Sprintf("fsm %s: conflicting transition %s --%s--> %s/%s",
					entity, from, t.Event, existing, t.To))
			}
			events[t.Event] = t.To
		}
	}
	return m
}

func (m *Machine[S, E]) Entity() string {
	return m.entity
}

// Fire возвращает состояние назначения или *domain.IllegalTransitionError.
func (m *Machine[S, E]) Fire(current S, event E) (S, error) {
	if to, ok := m.table[current][event]; ok {
		return to, nil
	}
	var zero S
	return zero, &domain.IllegalTransitionError{
		Entity: m.entity,
		From:   string(current),
		Event:  string(event),
	}
}

func (m *Machine[S, E]) Can(current S, event E) bool {
	_, ok := m.table[current][event]
	return ok
}

// Events возвращает отсортированный список событий, допустимых в состоянии current.
func (m *Machine[S, E]) Events(current S) []E {
	events := make([]E, 0, len(m.table[current]))
	for e := range m.table[current] {
		events = append(events, e)
	}
	slices.Sort(events)
	return events
}

// IsTerminal true для известных состояний без исходящих переходов.
func (m *Machine[S, E]) IsTerminal(state S) bool {
	if _, known := m.states[state]; !known {
		return false
	}
	return len(m.table[state]) == 0
}

func (m *Machine[S, E]) States() []S {
	states := make([]S, 0, len(m.states))
	for s := range m.states {
		states = append(states, s)
	}
	slices.Sort(states)
	return states
}
