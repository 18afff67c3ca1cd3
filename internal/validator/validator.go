package validator

import (
	"github.com/aretw0/durafsm/pkg/domain"
)

// Unreachable crawls the definition from its initial state, following event
// transitions and onSuccess/onError routes, and returns the states it never visits.
// The result is sorted. Unreachable states are legal but usually a modelling mistake.
func Unreachable[C any](def *domain.Definition[C]) []string {
	visited := make(map[string]bool)
	queue := []string{def.Initial()}

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		if visited[current] {
			continue
		}
		visited[current] = true

		node, ok := def.Node(current)
		if !ok {
			continue
		}
		for _, target := range node.On {
			if !visited[target] {
				queue = append(queue, target)
			}
		}
		for _, target := range []string{node.OnSuccess, node.OnError} {
			if target != "" && !visited[target] {
				queue = append(queue, target)
			}
		}
	}

	var out []string
	for _, state := range def.States() {
		if !visited[state] {
			out = append(out, state)
		}
	}
	return out
}

// Terminal returns the states with no way out: no events and no entry routing.
func Terminal[C any](def *domain.Definition[C]) []string {
	var out []string
	for _, state := range def.States() {
		node, _ := def.Node(state)
		if len(node.On) == 0 && !node.HasEntry() {
			out = append(out, state)
		}
	}
	return out
}
